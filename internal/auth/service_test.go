package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shophub-dev/shophub-backend/internal/users"
	pkgauth "github.com/shophub-dev/shophub-backend/pkg/auth"
	"github.com/shophub-dev/shophub-backend/pkg/config"
	"github.com/shophub-dev/shophub-backend/pkg/db/models"
	"github.com/shophub-dev/shophub-backend/pkg/enums"
	pkgerrors "github.com/shophub-dev/shophub-backend/pkg/errors"
	"github.com/shophub-dev/shophub-backend/pkg/security"
)

type stubUserRepo struct {
	byEmail map[string]*models.User
	byID    map[int64]*models.User
	nextID  int64
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		byEmail: map[string]*models.User{},
		byID:    map[int64]*models.User{},
		nextID:  1,
	}
}

func (s *stubUserRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	user.ID = s.nextID
	s.nextID++
	s.byEmail[user.Email] = user
	s.byID[user.ID] = user
	return user, nil
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUserRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func testConfigs() (config.JWTConfig, config.PasswordConfig) {
	return config.JWTConfig{Secret: "secret", Issuer: "shophub", ExpirationMinutes: 30},
		config.PasswordConfig{
			ArgonMemoryKB:    8192,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
		}
}

func newTestService(t *testing.T, repo *stubUserRepo) Service {
	t.Helper()
	jwtCfg, pwCfg := testConfigs()
	svc, err := NewService(ServiceParams{UserRepo: repo, JWTConfig: jwtCfg, PasswordConfig: pwCfg})
	require.NoError(t, err)
	return svc
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	resp, err := svc.Register(ctx, RegisterRequest{
		Username: "buyer",
		Email:    "Buyer@Example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.User)
	assert.Equal(t, "buyer@example.com", resp.User.Email)
	assert.Equal(t, enums.UserRoleUser, resp.User.Role)
	assert.NotEmpty(t, resp.AccessToken)

	jwtCfg, _ := testConfigs()
	claims, err := pkgauth.ParseAccessToken(jwtCfg, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)

	login, err := svc.Login(ctx, LoginRequest{Email: "buyer@example.com", Password: "correct horse battery"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Username: "a", Email: "a@b.c", Password: "password-123"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Username: "b", Email: "A@B.C", Password: "password-456"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Username: "a", Email: "a@b.c", Password: "password-123"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "a@b.c", Password: "wrong"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestLoginInactiveUser(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	_, pwCfg := testConfigs()
	hash, err := security.HashPassword("password-123", pwCfg)
	require.NoError(t, err)

	user := &models.User{ID: 9, Email: "x@y.z", PasswordHash: hash, Role: enums.UserRoleUser, IsActive: false}
	repo.byEmail[user.Email] = user
	repo.byID[user.ID] = user

	_, err = svc.Login(ctx, LoginRequest{Email: "x@y.z", Password: "password-123"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}
