package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/capstone-api/internal/models"
	appErrors "github.com/noah-isme/capstone-api/pkg/errors"
)

type lecturerRepo interface {
	List(ctx context.Context, filter models.LecturerFilter) ([]models.Lecturer, int, error)
	FindByCode(ctx context.Context, code string) (*models.Lecturer, error)
	ListActiveCodes(ctx context.Context) ([]string, error)
	Create(ctx context.Context, lecturer *models.Lecturer) error
}

// CreateLecturerRequest is the roster entry payload.
type CreateLecturerRequest struct {
	Code     string `json:"code" validate:"required"`
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Active   *bool  `json:"active"`
}

const lecturerListCachePrefix = "lecturers:list"

// LecturerService manages the lecturer roster with a redis read cache.
type LecturerService struct {
	repo      lecturerRepo
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLecturerService constructs LecturerService. cache may be nil.
func NewLecturerService(repo lecturerRepo, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *LecturerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LecturerService{repo: repo, cache: cache, validator: validate, logger: logger}
}

type cachedLecturerList struct {
	Lecturers []models.Lecturer `json:"lecturers"`
	Total     int               `json:"total"`
}

// List returns lecturers, serving repeated queries from cache.
func (s *LecturerService) List(ctx context.Context, filter models.LecturerFilter) ([]models.Lecturer, *models.Pagination, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}

	key := fmt.Sprintf("%s:%v:%s:%d:%d", lecturerListCachePrefix, filter.Active, filter.Search, page, size)
	var cached cachedLecturerList
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached.Lecturers, &models.Pagination{Page: page, PageSize: size, TotalCount: cached.Total}, nil
	}

	lecturers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lecturers")
	}

	_ = s.cache.Set(ctx, key, cachedLecturerList{Lecturers: lecturers, Total: total}, 0)
	return lecturers, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads a lecturer by code.
func (s *LecturerService) Get(ctx context.Context, code string) (*models.Lecturer, error) {
	lecturer, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lecturer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer")
	}
	return lecturer, nil
}

// Create stores a roster entry and invalidates the list cache.
func (s *LecturerService) Create(ctx context.Context, req CreateLecturerRequest) (*models.Lecturer, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lecturer payload")
	}
	if existing, err := s.repo.FindByCode(ctx, req.Code); err == nil && existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("lecturer %s already exists", req.Code))
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check lecturer code")
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	lecturer := &models.Lecturer{
		Code:     req.Code,
		FullName: req.FullName,
		Email:    req.Email,
		Active:   active,
	}
	if err := s.repo.Create(ctx, lecturer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lecturer")
	}

	_ = s.cache.Invalidate(ctx, lecturerListCachePrefix+"*")
	return lecturer, nil
}
