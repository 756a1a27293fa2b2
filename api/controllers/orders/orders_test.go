package orders

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/shophub-dev/shophub-backend/api/middleware"
	internalorders "github.com/shophub-dev/shophub-backend/internal/orders"
	"github.com/shophub-dev/shophub-backend/pkg/db/models"
	"github.com/shophub-dev/shophub-backend/pkg/enums"
	pkgerrors "github.com/shophub-dev/shophub-backend/pkg/errors"
	"github.com/shophub-dev/shophub-backend/pkg/logger"
)

type stubOrdersService struct {
	order     *models.Order
	getErr    error
	created   *internalorders.CreateOrderInput
	createErr error
}

func (s *stubOrdersService) Create(ctx context.Context, input internalorders.CreateOrderInput) (*models.Order, error) {
	s.created = &input
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.order, nil
}

func (s *stubOrdersService) Get(ctx context.Context, id int64) (*models.Order, error) {
	return s.order, s.getErr
}

func (s *stubOrdersService) FindByCheckoutSessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	return s.order, s.getErr
}

func (s *stubOrdersService) ListForUser(ctx context.Context, userID int64) ([]models.Order, error) {
	if s.order == nil {
		return nil, nil
	}
	return []models.Order{*s.order}, nil
}

func (s *stubOrdersService) ListAll(ctx context.Context) ([]models.Order, error) {
	if s.order == nil {
		return nil, nil
	}
	return []models.Order{*s.order}, nil
}

func (s *stubOrdersService) SetStatus(ctx context.Context, id int64, status enums.OrderStatus) (*models.Order, error) {
	return s.order, nil
}

func (s *stubOrdersService) AdvanceStatus(ctx context.Context, id int64, from, to enums.OrderStatus) (bool, error) {
	return true, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func withOrderParam(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orderId", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestCreateRequiresUserContext(t *testing.T) {
	payload := `{"items":[{"product_id":1,"quantity":1,"price":"9.99"}],"shipping_address":"123 Example Street, Manila"}`
	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	Create(&stubOrdersService{}, testLogger())(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateUsesContextUser(t *testing.T) {
	svc := &stubOrdersService{order: &models.Order{ID: 10, UserID: 7}}

	payload := `{"items":[{"product_id":1,"quantity":2,"price":"19.99"}],"shipping_address":"123 Example Street, Manila"}`
	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(payload))
	req = req.WithContext(middleware.WithUserID(req.Context(), 7))
	rec := httptest.NewRecorder()
	Create(svc, testLogger())(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	if svc.created == nil {
		t.Fatal("expected create input to reach the service")
	}
	assert.Equal(t, int64(7), svc.created.UserID)
	assert.Len(t, svc.created.Items, 1)
}

func TestDetailHidesForeignOrder(t *testing.T) {
	svc := &stubOrdersService{order: &models.Order{ID: 10, UserID: 7}}

	req := httptest.NewRequest(http.MethodGet, "/api/orders/10", nil)
	req = withOrderParam(req, "10")
	ctx := middleware.WithUserID(req.Context(), 99)
	ctx = middleware.WithRole(ctx, enums.UserRoleUser)
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	Detail(svc, testLogger())(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDetailAllowsAdmin(t *testing.T) {
	svc := &stubOrdersService{order: &models.Order{ID: 10, UserID: 7}}

	req := httptest.NewRequest(http.MethodGet, "/api/orders/10", nil)
	req = withOrderParam(req, "10")
	ctx := middleware.WithUserID(req.Context(), 99)
	ctx = middleware.WithRole(ctx, enums.UserRoleAdmin)
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	Detail(svc, testLogger())(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDetailPropagatesNotFound(t *testing.T) {
	svc := &stubOrdersService{getErr: pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")}

	req := httptest.NewRequest(http.MethodGet, "/api/orders/55", nil)
	req = withOrderParam(req, "55")
	req = req.WithContext(middleware.WithUserID(req.Context(), 7))

	rec := httptest.NewRecorder()
	Detail(svc, testLogger())(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminUpdateStatusRejectsUnknownValue(t *testing.T) {
	svc := &stubOrdersService{order: &models.Order{ID: 10}}

	payload := `{"status":"teleported"}`
	req := httptest.NewRequest(http.MethodPut, "/api/admin/orders/10", strings.NewReader(payload))
	req = withOrderParam(req, "10")
	rec := httptest.NewRecorder()
	AdminUpdateStatus(svc, testLogger())(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
