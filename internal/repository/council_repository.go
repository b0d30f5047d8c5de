package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/capstone-api/internal/models"
)

// CouncilRepository provides persistence for defense councils.
type CouncilRepository struct {
	db *sqlx.DB
}

// NewCouncilRepository creates a new council repository.
func NewCouncilRepository(db *sqlx.DB) *CouncilRepository {
	return &CouncilRepository{db: db}
}

// Create stores a council and its members atomically. No partial council is
// ever persisted.
func (r *CouncilRepository) Create(ctx context.Context, council *models.Council) error {
	if council.ID == "" {
		council.ID = uuid.NewString()
	}
	if council.CreatedAt.IsZero() {
		council.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create council: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertCouncil = `INSERT INTO councils (id, name, description, semester_id, created_at)
		VALUES (:id, :name, :description, :semester_id, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insertCouncil, council); err != nil {
		return fmt.Errorf("insert council: %w", err)
	}

	const insertMember = `INSERT INTO council_members (council_id, lecturer_code, lecturer_name, role)
		VALUES (:council_id, :lecturer_code, :lecturer_name, :role)`
	for i := range council.Members {
		council.Members[i].CouncilID = council.ID
		if _, err = tx.NamedExecContext(ctx, insertMember, &council.Members[i]); err != nil {
			return fmt.Errorf("insert council member: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create council: %w", err)
	}
	return nil
}

// FindByID loads a council with its members.
func (r *CouncilRepository) FindByID(ctx context.Context, id string) (*models.Council, error) {
	var council models.Council
	if err := r.db.GetContext(ctx, &council, `SELECT id, name, description, semester_id, created_at FROM councils WHERE id = $1`, id); err != nil {
		return nil, err
	}
	if err := r.attachMembers(ctx, []*models.Council{&council}); err != nil {
		return nil, err
	}
	return &council, nil
}

// ListBySemester returns the councils of a semester with members attached.
func (r *CouncilRepository) ListBySemester(ctx context.Context, semesterID string) ([]models.Council, error) {
	var councils []models.Council
	const query = `SELECT id, name, description, semester_id, created_at FROM councils WHERE semester_id = $1 ORDER BY created_at ASC`
	if err := r.db.SelectContext(ctx, &councils, query, semesterID); err != nil {
		return nil, fmt.Errorf("list councils: %w", err)
	}
	refs := make([]*models.Council, len(councils))
	for i := range councils {
		refs[i] = &councils[i]
	}
	if err := r.attachMembers(ctx, refs); err != nil {
		return nil, err
	}
	return councils, nil
}

func (r *CouncilRepository) attachMembers(ctx context.Context, councils []*models.Council) error {
	if len(councils) == 0 {
		return nil
	}
	ids := make([]string, len(councils))
	index := make(map[string]*models.Council, len(councils))
	for i, c := range councils {
		ids[i] = c.ID
		index[c.ID] = c
	}
	query, args, err := sqlx.In(`SELECT council_id, lecturer_code, lecturer_name, role FROM council_members WHERE council_id IN (?) ORDER BY role ASC, lecturer_code ASC`, ids)
	if err != nil {
		return fmt.Errorf("build member query: %w", err)
	}
	query = r.db.Rebind(query)
	var members []models.CouncilMember
	if err := r.db.SelectContext(ctx, &members, query, args...); err != nil {
		return fmt.Errorf("load council members: %w", err)
	}
	for _, m := range members {
		if c, ok := index[m.CouncilID]; ok {
			c.Members = append(c.Members, m)
		}
	}
	return nil
}
