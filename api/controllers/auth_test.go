package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shophub-dev/shophub-backend/api/middleware"
	internalauth "github.com/shophub-dev/shophub-backend/internal/auth"
	"github.com/shophub-dev/shophub-backend/internal/users"
	pkgerrors "github.com/shophub-dev/shophub-backend/pkg/errors"
	"github.com/shophub-dev/shophub-backend/pkg/logger"
)

type stubAuthService struct {
	registerResult *internalauth.AuthResponse
	registerErr    error
	loginResult    *internalauth.AuthResponse
	loginErr       error
	meResult       *users.UserDTO
	meErr          error
	gotUserID      int64
}

func (s *stubAuthService) Register(ctx context.Context, req internalauth.RegisterRequest) (*internalauth.AuthResponse, error) {
	return s.registerResult, s.registerErr
}

func (s *stubAuthService) Login(ctx context.Context, req internalauth.LoginRequest) (*internalauth.AuthResponse, error) {
	return s.loginResult, s.loginErr
}

func (s *stubAuthService) Me(ctx context.Context, userID int64) (*users.UserDTO, error) {
	s.gotUserID = userID
	return s.meResult, s.meErr
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRegisterReturns201(t *testing.T) {
	svc := &stubAuthService{
		registerResult: &internalauth.AuthResponse{
			AccessToken: "token-123",
			User:        &users.UserDTO{ID: 1, Username: "buyer", Email: "buyer@example.com"},
		},
	}

	payload := `{"username":"buyer","email":"buyer@example.com","password":"longenough"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	Register(svc, testLogger())(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "User registered successfully", body["message"])
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	payload := `{"username":"buyer","email":"buyer@example.com","password":"short"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	Register(&stubAuthService{}, testLogger())(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, false, body["success"])
}

func TestLoginPassesThroughUnauthorized(t *testing.T) {
	svc := &stubAuthService{loginErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}

	payload := `{"email":"buyer@example.com","password":"wrong-password"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	Login(svc, testLogger())(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "invalid credentials", body["message"])
}

func TestMeUsesContextUser(t *testing.T) {
	svc := &stubAuthService{meResult: &users.UserDTO{ID: 42, Username: "buyer"}}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), 42))
	rec := httptest.NewRecorder()
	Me(svc, testLogger())(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(42), svc.gotUserID)
}

func TestMeWithoutContextIsUnauthorized(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rec := httptest.NewRecorder()
	Me(&stubAuthService{}, testLogger())(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
