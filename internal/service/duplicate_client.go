package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/noah-isme/capstone-api/pkg/config"
)

// HTTPDuplicateChecker calls the external duplicate-detection service over
// HTTP. It implements DuplicateChecker.
type HTTPDuplicateChecker struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPDuplicateChecker constructs the checker from config. Returns nil when
// no base URL is configured so callers can wire an absent collaborator.
func NewHTTPDuplicateChecker(cfg config.DuplicateConfig, logger *zap.Logger) *HTTPDuplicateChecker {
	if cfg.BaseURL == "" {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPDuplicateChecker{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

type duplicateCheckRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Check submits the proposal text and returns the verdict.
func (c *HTTPDuplicateChecker) Check(ctx context.Context, title, description string) (*DuplicateVerdict, error) {
	payload, err := json.Marshal(duplicateCheckRequest{Title: title, Description: description})
	if err != nil {
		return nil, fmt.Errorf("encode duplicate check request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/check", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build duplicate check request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call duplicate service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duplicate service returned status %d", resp.StatusCode)
	}

	var verdict DuplicateVerdict
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return nil, fmt.Errorf("decode duplicate verdict: %w", err)
	}

	c.logger.Debug("duplicate check completed", zap.Bool("duplicate", verdict.Duplicate))
	return &verdict, nil
}
