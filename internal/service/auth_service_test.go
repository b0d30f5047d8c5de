package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/capstone-api/internal/models"
	"github.com/noah-isme/capstone-api/pkg/config"
	appErrors "github.com/noah-isme/capstone-api/pkg/errors"
)

type fakeUserRepo struct {
	users  map[string]*models.User
	tokens map[string]*models.RefreshToken
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]*models.User), tokens: make(map[string]*models.RefreshToken)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *u
	return &clone, nil
}

func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	if u, ok := f.users[id]; ok {
		u.LastLoginAt = &ts
	}
	return nil
}

func (f *fakeUserRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	clone := *token
	f.tokens[token.Token] = &clone
	return nil
}

func (f *fakeUserRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	t, ok := f.tokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *t
	return &clone, nil
}

func (f *fakeUserRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, t := range f.tokens {
		if t.ID == id {
			t.Revoked = true
			t.RevokedAt = &revokedAt
			return nil
		}
	}
	return sql.ErrNoRows
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "capstone-api",
		Expiration:        15 * time.Minute,
		RefreshExpiration: 24 * time.Hour,
	}
}

func seededUser(t *testing.T) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret!"), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "user-1",
		Email:        "chair@uni.edu",
		PasswordHash: string(hash),
		FullName:     "Nguyen Van A",
		Role:         models.RoleLecturer,
		LecturerCode: strPtr("GV01"),
		Active:       true,
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("issues tokens with lecturer claims", func(t *testing.T) {
		svc := NewAuthService(newFakeUserRepo(seededUser(t)), testJWTConfig(), nil, nil)
		resp, err := svc.Login(ctx, models.LoginRequest{Email: "chair@uni.edu", Password: "s3cret!"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)

		claims, err := svc.ValidateToken(resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
		assert.Equal(t, models.RoleLecturer, claims.Role)
		assert.Equal(t, "GV01", claims.LecturerCode)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc := NewAuthService(newFakeUserRepo(seededUser(t)), testJWTConfig(), nil, nil)
		_, err := svc.Login(ctx, models.LoginRequest{Email: "chair@uni.edu", Password: "wrong"})
		assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
	})

	t.Run("unknown email", func(t *testing.T) {
		svc := NewAuthService(newFakeUserRepo(seededUser(t)), testJWTConfig(), nil, nil)
		_, err := svc.Login(ctx, models.LoginRequest{Email: "ghost@uni.edu", Password: "s3cret!"})
		assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
	})

	t.Run("disabled account", func(t *testing.T) {
		user := seededUser(t)
		user.Active = false
		svc := NewAuthService(newFakeUserRepo(user), testJWTConfig(), nil, nil)
		_, err := svc.Login(ctx, models.LoginRequest{Email: "chair@uni.edu", Password: "s3cret!"})
		assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
	})
}

func TestRefreshRotatesToken(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo(seededUser(t))
	svc := NewAuthService(repo, testJWTConfig(), nil, nil)

	login, err := svc.Login(ctx, models.LoginRequest{Email: "chair@uni.edu", Password: "s3cret!"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, models.RefreshRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The consumed token cannot be replayed.
	_, err = svc.Refresh(ctx, models.RefreshRequest{RefreshToken: login.RefreshToken})
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestValidateToken(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo(), testJWTConfig(), nil, nil)

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.jwt")
		assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
	})

	t.Run("expired token", func(t *testing.T) {
		ctx := context.Background()
		repo := newFakeUserRepo(seededUser(t))
		expired := NewAuthService(repo, testJWTConfig(), nil, nil)
		expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
		login, err := expired.Login(ctx, models.LoginRequest{Email: "chair@uni.edu", Password: "s3cret!"})
		require.NoError(t, err)

		_, err = svc.ValidateToken(login.AccessToken)
		assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
	})
}
