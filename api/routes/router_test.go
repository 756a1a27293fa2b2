package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalauth "github.com/shophub-dev/shophub-backend/internal/auth"
	internalorders "github.com/shophub-dev/shophub-backend/internal/orders"
	internalpayments "github.com/shophub-dev/shophub-backend/internal/payments"
	internalproducts "github.com/shophub-dev/shophub-backend/internal/products"
	internalusers "github.com/shophub-dev/shophub-backend/internal/users"
	pkgauth "github.com/shophub-dev/shophub-backend/pkg/auth"
	"github.com/shophub-dev/shophub-backend/pkg/config"
	"github.com/shophub-dev/shophub-backend/pkg/db/models"
	"github.com/shophub-dev/shophub-backend/pkg/enums"
	"github.com/shophub-dev/shophub-backend/pkg/logger"
	"github.com/shophub-dev/shophub-backend/pkg/paymongo"
)

type stubAuth struct{}

func (stubAuth) Register(context.Context, internalauth.RegisterRequest) (*internalauth.AuthResponse, error) {
	return &internalauth.AuthResponse{AccessToken: "t"}, nil
}
func (stubAuth) Login(context.Context, internalauth.LoginRequest) (*internalauth.AuthResponse, error) {
	return &internalauth.AuthResponse{AccessToken: "t"}, nil
}
func (stubAuth) Me(context.Context, int64) (*internalusers.UserDTO, error) {
	return &internalusers.UserDTO{ID: 1}, nil
}

type stubProducts struct{}

func (stubProducts) List(context.Context) ([]models.Product, error) { return nil, nil }
func (stubProducts) Get(context.Context, int64) (*models.Product, error) {
	return &models.Product{ID: 1}, nil
}
func (stubProducts) Create(context.Context, internalproducts.CreateProductInput) (*models.Product, error) {
	return &models.Product{ID: 1}, nil
}
func (stubProducts) Update(context.Context, int64, internalproducts.UpdateProductInput) (*models.Product, error) {
	return &models.Product{ID: 1}, nil
}
func (stubProducts) Delete(context.Context, int64) error { return nil }

type stubUsers struct{}

func (stubUsers) List(context.Context) ([]internalusers.UserDTO, error) { return nil, nil }
func (stubUsers) Get(context.Context, int64) (*internalusers.UserDTO, error) {
	return &internalusers.UserDTO{ID: 1}, nil
}
func (stubUsers) SetRole(context.Context, int64, enums.UserRole) (*internalusers.UserDTO, error) {
	return &internalusers.UserDTO{ID: 1}, nil
}
func (stubUsers) SetActive(context.Context, int64, bool) (*internalusers.UserDTO, error) {
	return &internalusers.UserDTO{ID: 1}, nil
}
func (stubUsers) Delete(context.Context, int64, int64) error { return nil }

type stubOrders struct{}

func (stubOrders) Create(context.Context, internalorders.CreateOrderInput) (*models.Order, error) {
	return &models.Order{ID: 1}, nil
}
func (stubOrders) Get(context.Context, int64) (*models.Order, error) {
	return &models.Order{ID: 1}, nil
}
func (stubOrders) FindByCheckoutSessionID(context.Context, string) (*models.Order, error) {
	return &models.Order{ID: 1}, nil
}
func (stubOrders) ListForUser(context.Context, int64) ([]models.Order, error) { return nil, nil }
func (stubOrders) ListAll(context.Context) ([]models.Order, error)            { return nil, nil }
func (stubOrders) SetStatus(context.Context, int64, enums.OrderStatus) (*models.Order, error) {
	return &models.Order{ID: 1}, nil
}
func (stubOrders) AdvanceStatus(context.Context, int64, enums.OrderStatus, enums.OrderStatus) (bool, error) {
	return true, nil
}

type stubPayments struct{}

func (stubPayments) CreateIntent(context.Context, internalpayments.CreateIntentInput) (*internalpayments.Intent, error) {
	return &internalpayments.Intent{ID: "pi_1"}, nil
}
func (stubPayments) CreateCheckout(context.Context, internalpayments.CreateCheckoutInput) (*internalpayments.Checkout, error) {
	return &internalpayments.Checkout{SessionID: "cs_1"}, nil
}
func (stubPayments) CreatePaymentMethod(context.Context, internalpayments.CreatePaymentMethodInput) (*paymongo.PaymentMethod, error) {
	return &paymongo.PaymentMethod{ID: "pm_1"}, nil
}
func (stubPayments) AttachPayment(context.Context, internalpayments.AttachPaymentInput) (*internalpayments.AttachResult, error) {
	return &internalpayments.AttachResult{IntentID: "pi_1"}, nil
}
func (stubPayments) Abandon(context.Context, string) error { return nil }
func (stubPayments) Reconcile(context.Context, internalpayments.Trigger) (*models.Order, error) {
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "dev", Port: "8080"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "shophub", ExpirationMinutes: 30},
		// zero windows disable rate limiting so no redis is needed
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	return NewRouter(
		testConfig(),
		logg,
		nil,
		nil,
		nil,
		nil,
		stubAuth{},
		stubProducts{},
		stubUsers{},
		stubOrders{},
		stubPayments{},
	)
}

func mintToken(t *testing.T, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(testConfig().JWT, time.Now().UTC(), pkgauth.AccessTokenPayload{
		UserID: 7,
		Email:  "buyer@example.com",
		Role:   role,
	})
	require.NoError(t, err)
	return token
}

func TestPublicRoutes(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/health/live", "/api/products"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestOrdersRequireAuth(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.UserRoleUser))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	router := newTestRouter(t)
	payload := `{"name":"Widget","price":"19.99","stock":5}`

	req := httptest.NewRequest(http.MethodPost, "/api/admin/products", strings.NewReader(payload))
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.UserRoleUser))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/admin/products", strings.NewReader(payload))
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.UserRoleAdmin))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestWebhookIsUnauthenticated(t *testing.T) {
	router := newTestRouter(t)

	body := `{"data":{"id":"evt_1","attributes":{"type":"checkout_session.payment.paid"}}}`
	req := httptest.NewRequest(http.MethodPost, "/api/paymongo/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPaymentSuccessIsUnauthenticated(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/paymongo/payment-success?session_id=cs_1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}
