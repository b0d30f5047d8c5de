// Command seed bootstraps a freshly migrated instance through the public API:
// it signs in as the admin, loads the lecturer roster, creates the semester
// with its review board, and registers the defense councils from a JSON
// fixture file.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type fixture struct {
	Admin struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	} `json:"admin"`
	Lecturers []map[string]interface{} `json:"lecturers"`
	Semester  map[string]interface{}   `json:"semester"`
	Board     []string                 `json:"board"`
	Councils  []map[string]interface{} `json:"councils"`
}

func main() {
	var (
		baseURL     string
		fixturePath string
		timeout     time.Duration
	)

	flag.StringVar(&baseURL, "base", "http://localhost:8080/api/v1", "API base URL")
	flag.StringVar(&fixturePath, "fixture", filepath.Join("scripts", "seed", "fixture.json"), "Path to JSON fixture file")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	data, err := os.ReadFile(fixturePath)
	if err != nil {
		log.Fatalf("failed to read fixture: %v", err)
	}
	var fx fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		log.Fatalf("failed to parse fixture: %v", err)
	}

	client := &seedClient{base: strings.TrimRight(baseURL, "/"), http: &http.Client{Timeout: timeout}}
	if err := client.login(fx.Admin.Email, fx.Admin.Password); err != nil {
		log.Fatalf("login failed: %v", err)
	}

	for _, lecturer := range fx.Lecturers {
		if err := client.post("/lecturers", lecturer, nil); err != nil {
			log.Fatalf("seed lecturer %v: %v", lecturer["code"], err)
		}
	}
	fmt.Printf("seeded %d lecturers\n", len(fx.Lecturers))

	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := client.post("/semesters", fx.Semester, &created); err != nil {
		log.Fatalf("seed semester: %v", err)
	}
	semesterID := created.Data.ID
	fmt.Printf("created semester %s\n", semesterID)

	if len(fx.Board) > 0 {
		body := map[string]interface{}{"reviewer_codes": fx.Board}
		if err := client.put("/semesters/"+semesterID+"/review-board", body); err != nil {
			log.Fatalf("assign review board: %v", err)
		}
		fmt.Printf("assigned review board %v\n", fx.Board)
	}

	for _, council := range fx.Councils {
		council["semester_id"] = semesterID
		if err := client.post("/councils", council, nil); err != nil {
			log.Fatalf("seed council %v: %v", council["name"], err)
		}
	}
	fmt.Printf("seeded %d councils\n", len(fx.Councils))
}

type seedClient struct {
	base  string
	http  *http.Client
	token string
}

func (c *seedClient) login(email, password string) error {
	var resp struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := c.do(http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password}, &resp); err != nil {
		return err
	}
	if resp.Data.AccessToken == "" {
		return fmt.Errorf("login returned no access token")
	}
	c.token = resp.Data.AccessToken
	return nil
}

func (c *seedClient) post(path string, body, out interface{}) error {
	return c.do(http.MethodPost, path, body, out)
}

func (c *seedClient) put(path string, body interface{}) error {
	return c.do(http.MethodPut, path, body, nil)
}

func (c *seedClient) do(method, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(method, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	// 409 means the entry already exists; seeding is re-runnable.
	if resp.StatusCode == http.StatusConflict {
		return nil
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out != nil {
		return json.Unmarshal(raw, out)
	}
	return nil
}
