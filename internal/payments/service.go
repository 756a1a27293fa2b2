package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shophub-dev/shophub-backend/internal/orders"
	"github.com/shophub-dev/shophub-backend/pkg/config"
	"github.com/shophub-dev/shophub-backend/pkg/db/models"
	"github.com/shophub-dev/shophub-backend/pkg/enums"
	pkgerrors "github.com/shophub-dev/shophub-backend/pkg/errors"
	"github.com/shophub-dev/shophub-backend/pkg/logger"
	"github.com/shophub-dev/shophub-backend/pkg/paymongo"
)

const paymentDataNotFoundMessage = "Payment data not found"

// Service is the payment orchestration surface: intent/session creation on
// the way out, and a single Reconcile entry point for every signal that can
// turn gateway-side payment state into local order state.
type Service interface {
	CreateIntent(ctx context.Context, input CreateIntentInput) (*Intent, error)
	CreateCheckout(ctx context.Context, input CreateCheckoutInput) (*Checkout, error)
	CreatePaymentMethod(ctx context.Context, input CreatePaymentMethodInput) (*paymongo.PaymentMethod, error)
	AttachPayment(ctx context.Context, input AttachPaymentInput) (*AttachResult, error)
	Abandon(ctx context.Context, sessionID string) error
	Reconcile(ctx context.Context, trigger Trigger) (*models.Order, error)
}

type orderStore interface {
	Create(ctx context.Context, input orders.CreateOrderInput) (*models.Order, error)
	Get(ctx context.Context, id int64) (*models.Order, error)
	FindByCheckoutSessionID(ctx context.Context, sessionID string) (*models.Order, error)
	AdvanceStatus(ctx context.Context, id int64, from, to enums.OrderStatus) (bool, error)
}

type ledger interface {
	Stage(ctx context.Context, payment *models.PendingPayment) error
	Consume(ctx context.Context, sessionID string) (*models.PendingPayment, error)
	ConsumeMostRecentForUser(ctx context.Context, userID int64) (*models.PendingPayment, error)
	ConsumeMostRecent(ctx context.Context) (*models.PendingPayment, error)
	Discard(ctx context.Context, sessionID string) error
}

type methodCreator interface {
	CreatePaymentMethod(ctx context.Context, details map[string]any, billing map[string]any) (*paymongo.PaymentMethod, error)
}

// CreateIntentInput asks a gateway for a fresh payment intent.
type CreateIntentInput struct {
	Provider Provider
	UserID   int64
	Amount   decimal.Decimal
}

// CreateCheckoutInput stages a hosted checkout session.
type CreateCheckoutInput struct {
	UserID          int64
	Items           []CheckoutItem
	ShippingAddress string
	PaymentMethod   *string
}

// CreatePaymentMethodInput carries raw card details to the vault.
type CreatePaymentMethodInput struct {
	CardNumber   string
	ExpMonth     int
	ExpYear      int
	CVC          string
	BillingName  string
	BillingEmail string
	BillingPhone string
}

// AttachPaymentInput binds a vaulted method to an intent and, when the
// gateway reports success, materializes the order in the same request.
type AttachPaymentInput struct {
	UserID          int64
	IntentID        string
	MethodID        string
	ReturnURL       string
	Items           []CheckoutItem
	ShippingAddress string
	PaymentMethod   *string
}

// AttachResult reports the post-attach intent state. Order is set only when
// the payment succeeded and the order materialized.
type AttachResult struct {
	IntentID      string        `json:"payment_intent_id"`
	Status        string        `json:"status"`
	NextActionURL string        `json:"next_action_url,omitempty"`
	Order         *models.Order `json:"order,omitempty"`
}

// ServiceParams bundles the engine's dependencies.
type ServiceParams struct {
	Orders   orderStore
	Ledger   ledger
	Stripe   Gateway
	PayMongo Gateway
	Methods  methodCreator
	Logger   *logger.Logger
	Payment  config.PaymentConfig
}

type service struct {
	orders   orderStore
	ledger   ledger
	stripe   Gateway
	paymongo Gateway
	methods  methodCreator
	logger   *logger.Logger
	payment  config.PaymentConfig
}

// NewService builds the payment service, validating required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("order store required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("pending-payment ledger required")
	}
	if params.Stripe == nil {
		return nil, fmt.Errorf("stripe gateway required")
	}
	if params.PayMongo == nil {
		return nil, fmt.Errorf("paymongo gateway required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		orders:   params.Orders,
		ledger:   params.Ledger,
		stripe:   params.Stripe,
		paymongo: params.PayMongo,
		methods:  params.Methods,
		logger:   params.Logger,
		payment:  params.Payment,
	}, nil
}

func (s *service) gatewayFor(provider Provider) (Gateway, error) {
	switch provider {
	case ProviderStripe:
		return s.stripe, nil
	case ProviderPayMongo:
		return s.paymongo, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeBadRequest, fmt.Sprintf("unknown payment provider %q", provider))
	}
}

func (s *service) CreateIntent(ctx context.Context, input CreateIntentInput) (*Intent, error) {
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	gateway, err := s.gatewayFor(input.Provider)
	if err != nil {
		return nil, err
	}

	metadata := map[string]string{
		"user_id": strconv.FormatInt(input.UserID, 10),
	}
	return gateway.CreateIntent(ctx, input.Amount.Shift(2).IntPart(), metadata)
}

// CreateCheckout creates a hosted checkout session and stages the cart into
// the pending-payment ledger keyed by the session id, so the redirect
// callback or webhook can materialize the order later.
func (s *service) CreateCheckout(ctx context.Context, input CreateCheckoutInput) (*Checkout, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	if strings.TrimSpace(input.ShippingAddress) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is required")
	}

	total := decimal.Zero
	lines := make([]CheckoutLine, 0, len(input.Items))
	for _, item := range input.Items {
		name := item.Name
		if name == "" {
			name = fmt.Sprintf("Product #%d", item.ProductID)
		}
		lines = append(lines, CheckoutLine{
			Name:        name,
			AmountMinor: item.Price.Shift(2).IntPart(),
			Quantity:    item.Quantity,
		})
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	metadata := map[string]string{
		"user_id":          strconv.FormatInt(input.UserID, 10),
		"shipping_address": input.ShippingAddress,
	}
	session, err := s.paymongo.CreateCheckoutSession(ctx, lines, s.payment.SuccessURL, s.payment.CancelURL, metadata)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(input.Items)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding checkout items")
	}
	err = s.ledger.Stage(ctx, &models.PendingPayment{
		CheckoutSessionID: session.SessionID,
		UserID:            input.UserID,
		Items:             payload,
		Amount:            total,
		ShippingAddress:   input.ShippingAddress,
		PaymentMethod:     input.PaymentMethod,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "staging pending payment")
	}

	return session, nil
}

func (s *service) CreatePaymentMethod(ctx context.Context, input CreatePaymentMethodInput) (*paymongo.PaymentMethod, error) {
	if s.methods == nil {
		return nil, errUnsupported("creating a payment method")
	}
	if input.CardNumber == "" || input.CVC == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "card details are required")
	}

	details := map[string]any{
		"card_number": input.CardNumber,
		"exp_month":   input.ExpMonth,
		"exp_year":    input.ExpYear,
		"cvc":         input.CVC,
	}
	billing := map[string]any{
		"name":  input.BillingName,
		"email": input.BillingEmail,
		"phone": input.BillingPhone,
	}
	return s.methods.CreatePaymentMethod(ctx, details, billing)
}

func (s *service) AttachPayment(ctx context.Context, input AttachPaymentInput) (*AttachResult, error) {
	intent, err := s.paymongo.AttachPaymentMethod(ctx, input.IntentID, input.MethodID, input.ReturnURL)
	if err != nil {
		return nil, err
	}

	result := &AttachResult{
		IntentID:      intent.ID,
		Status:        intent.RawStatus,
		NextActionURL: intent.NextActionURL,
	}
	if intent.Status != enums.IntentStatusSucceeded {
		return result, nil
	}

	order, err := s.Reconcile(ctx, SyncConfirmTrigger{
		Provider:        ProviderPayMongo,
		UserID:          input.UserID,
		IntentID:        input.IntentID,
		Items:           input.Items,
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   input.PaymentMethod,
	})
	if err != nil {
		return nil, err
	}
	result.Order = order
	return result, nil
}

// Abandon drops a staged checkout after a failure callback.
func (s *service) Abandon(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}
	if err := s.ledger.Discard(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "discarding pending payment")
	}
	return nil
}

// Reconcile is the single entry point for the three signal paths that move a
// staged checkout toward a materialized order.
func (s *service) Reconcile(ctx context.Context, trigger Trigger) (*models.Order, error) {
	switch t := trigger.(type) {
	case SyncConfirmTrigger:
		return s.reconcileSyncConfirm(ctx, t)
	case RedirectCallbackTrigger:
		return s.reconcileRedirect(ctx, t)
	case WebhookTrigger:
		return s.reconcileWebhook(ctx, t)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unrecognized trigger %T", trigger))
	}
}

// reconcileSyncConfirm verifies the intent with the gateway and materializes
// only on a succeeded status. Items come from the caller; the ledger is not
// consulted on this path.
func (s *service) reconcileSyncConfirm(ctx context.Context, t SyncConfirmTrigger) (*models.Order, error) {
	gateway, err := s.gatewayFor(t.Provider)
	if err != nil {
		return nil, err
	}
	intent, err := gateway.RetrieveIntent(ctx, t.IntentID)
	if err != nil {
		return nil, err
	}

	switch intent.Status {
	case enums.IntentStatusSucceeded:
	case enums.IntentStatusCanceled:
		return nil, pkgerrors.New(pkgerrors.CodeBadRequest, "Payment was canceled")
	case enums.IntentStatusFailed:
		return nil, pkgerrors.New(pkgerrors.CodeBadRequest, "Payment failed")
	default:
		return nil, pkgerrors.New(pkgerrors.CodeBadRequest, fmt.Sprintf("Payment not completed. Status: %s", intent.RawStatus))
	}

	return s.materialize(ctx, t.UserID, t.Items, t.ShippingAddress, t.PaymentMethod, nil, false)
}

// reconcileRedirect resolves the staged checkout through the fallback chain,
// materializes the order from the ledger payload, and advances it to
// processing since the gateway already sent the shopper to the success URL.
func (s *service) reconcileRedirect(ctx context.Context, t RedirectCallbackTrigger) (*models.Order, error) {
	var staged *models.PendingPayment

	sessionID := ""
	if t.SessionID != nil {
		sessionID = strings.TrimSpace(*t.SessionID)
	}
	userID := int64(0)
	if t.UserID != nil {
		userID = *t.UserID
	}

	if sessionID != "" {
		payment, err := s.ledger.Consume(ctx, sessionID)
		switch {
		case err == nil:
			staged = payment
		case errors.Is(err, gorm.ErrRecordNotFound):
			// The row may be keyed to a different id; ask the gateway which
			// user this session belongs to and fall back to their newest row.
			if userID == 0 {
				userID = s.userIDFromSessionMetadata(ctx, sessionID)
			}
		default:
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consuming pending payment")
		}
	}

	if staged == nil && userID > 0 {
		payment, err := s.ledger.ConsumeMostRecentForUser(ctx, userID)
		switch {
		case err == nil:
			staged = payment
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consuming pending payment")
		}
	}

	if staged == nil {
		s.logger.Warn(ctx, "redirect callback without usable correlation, consuming most recent pending payment")
		payment, err := s.ledger.ConsumeMostRecent(ctx)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, paymentDataNotFoundMessage)
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consuming pending payment")
		}
		staged = payment
	}

	var items []CheckoutItem
	if err := json.Unmarshal(staged.Items, &items); err != nil || len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeBadRequest, "Invalid payment data")
	}

	return s.materialize(ctx, staged.UserID, items, staged.ShippingAddress, staged.PaymentMethod, &staged.CheckoutSessionID, true)
}

// reconcileWebhook only transitions existing orders; it never materializes.
// Returning nil on the no-op branches keeps replays harmless.
func (s *service) reconcileWebhook(ctx context.Context, t WebhookTrigger) (*models.Order, error) {
	event := t.Event
	ctx = s.logger.WithFields(ctx, map[string]any{
		"event_type":     event.RawType,
		"correlation_id": event.CorrelationID,
	})

	switch event.Kind {
	case paymongo.EventPaid:
		return s.transitionByCorrelation(ctx, event.CorrelationID, enums.OrderStatusProcessing)
	case paymongo.EventFailed:
		return s.transitionByCorrelation(ctx, event.CorrelationID, enums.OrderStatusCancelled)
	case paymongo.EventProcessing:
		s.logger.Info(ctx, "payment processing event acknowledged")
		return nil, nil
	default:
		s.logger.Warn(ctx, "ignoring unrecognized webhook event")
		return nil, nil
	}
}

func (s *service) transitionByCorrelation(ctx context.Context, correlationID string, to enums.OrderStatus) (*models.Order, error) {
	if correlationID == "" {
		s.logger.Warn(ctx, "webhook event without correlation id")
		return nil, nil
	}

	order, err := s.orders.FindByCheckoutSessionID(ctx, correlationID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			// Order not materialized yet. The redirect callback owns
			// materialization; this delivery is dropped.
			s.logger.Info(ctx, "webhook event for unmaterialized checkout, skipping")
			return nil, nil
		}
		return nil, err
	}

	moved, err := s.orders.AdvanceStatus(ctx, order.ID, enums.OrderStatusPending, to)
	if err != nil {
		return nil, err
	}
	if !moved {
		s.logger.Info(ctx, "order already past pending, webhook transition skipped")
		return order, nil
	}
	return s.orders.Get(ctx, order.ID)
}

func (s *service) userIDFromSessionMetadata(ctx context.Context, sessionID string) int64 {
	session, err := s.paymongo.RetrieveCheckoutSession(ctx, sessionID)
	if err != nil {
		s.logger.Warn(s.logger.WithField(ctx, "session_id", sessionID), "checkout session lookup failed during redirect fallback")
		return 0
	}
	raw := session.Metadata["user_id"]
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func (s *service) materialize(ctx context.Context, userID int64, items []CheckoutItem, shippingAddress string, paymentMethod *string, sessionID *string, advance bool) (*models.Order, error) {
	orderItems := make([]orders.ItemInput, 0, len(items))
	for _, item := range items {
		orderItems = append(orderItems, orders.ItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	order, err := s.orders.Create(ctx, orders.CreateOrderInput{
		UserID:            userID,
		Items:             orderItems,
		ShippingAddress:   shippingAddress,
		PaymentMethod:     paymentMethod,
		CheckoutSessionID: sessionID,
	})
	if err != nil {
		return nil, err
	}
	if !advance {
		return order, nil
	}

	if _, err := s.orders.AdvanceStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusProcessing); err != nil {
		return nil, err
	}
	return s.orders.Get(ctx, order.ID)
}
