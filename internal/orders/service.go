package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shophub-dev/shophub-backend/pkg/db/models"
	"github.com/shophub-dev/shophub-backend/pkg/enums"
	pkgerrors "github.com/shophub-dev/shophub-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// StockDecrementer subtracts purchased quantities inside the order transaction.
type StockDecrementer interface {
	Decrement(ctx context.Context, tx *gorm.DB, productID int64, qty int) error
}

// Service owns the order lifecycle: transactional creation and status reads/writes.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	Get(ctx context.Context, id int64) (*models.Order, error)
	FindByCheckoutSessionID(ctx context.Context, sessionID string) (*models.Order, error)
	ListForUser(ctx context.Context, userID int64) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	SetStatus(ctx context.Context, id int64, status enums.OrderStatus) (*models.Order, error)
	AdvanceStatus(ctx context.Context, id int64, from, to enums.OrderStatus) (bool, error)
}

// ItemInput is one requested line with the unit price the caller observed.
type ItemInput struct {
	ProductID int64
	Quantity  int
	Price     decimal.Decimal
}

// CreateOrderInput carries everything needed to materialize an order.
type CreateOrderInput struct {
	UserID            int64
	Items             []ItemInput
	ShippingAddress   string
	PaymentMethod     *string
	CheckoutSessionID *string
}

type service struct {
	repo  Repository
	tx    txRunner
	stock StockDecrementer
}

// NewService builds the order service with the required dependencies.
func NewService(repo Repository, tx txRunner, stock StockDecrementer) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock decrementer required")
	}
	return &service{repo: repo, tx: tx, stock: stock}, nil
}

// Create inserts the order, its items, and the stock decrements in one
// transaction. The total is fixed here from the caller-supplied price
// snapshots; any statement failure rolls the whole attempt back.
func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, item := range input.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	order := &models.Order{
		UserID:            input.UserID,
		TotalAmount:       total,
		Status:            enums.OrderStatusPending,
		ShippingAddress:   input.ShippingAddress,
		PaymentMethod:     input.PaymentMethod,
		CheckoutSessionID: input.CheckoutSessionID,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.CreateOrder(ctx, order); err != nil {
			return err
		}

		items := make([]models.OrderItem, 0, len(input.Items))
		for _, item := range input.Items {
			items = append(items, models.OrderItem{
				OrderID:   order.ID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Price:     item.Price,
				Subtotal:  item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
			})
		}
		if err := repo.CreateOrderItems(ctx, items); err != nil {
			return err
		}

		for _, item := range input.Items {
			if err := s.stock.Decrement(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "Failed to create order")
	}

	return s.Get(ctx, order.ID)
}

func (s *service) Get(ctx context.Context, id int64) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}
	return order, nil
}

func (s *service) FindByCheckoutSessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	order, err := s.repo.FindByCheckoutSessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}
	return order, nil
}

func (s *service) ListForUser(ctx context.Context, userID int64) ([]models.Order, error) {
	out, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing orders")
	}
	return out, nil
}

func (s *service) ListAll(ctx context.Context) ([]models.Order, error) {
	out, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing orders")
	}
	return out, nil
}

// SetStatus overwrites the status unconditionally; any status may follow any
// other. Used by the admin surface only.
func (s *service) SetStatus(ctx context.Context, id int64, status enums.OrderStatus) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status %q", status))
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating status")
	}
	return s.Get(ctx, id)
}

// AdvanceStatus performs the guarded transition used by reconciliation.
func (s *service) AdvanceStatus(ctx context.Context, id int64, from, to enums.OrderStatus) (bool, error) {
	moved, err := s.repo.UpdateStatusIfCurrent(ctx, id, from, to)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advancing status")
	}
	return moved, nil
}

func validateCreateInput(input CreateOrderInput) error {
	if input.UserID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "user is required")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	for _, item := range input.Items {
		if item.ProductID <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item product is required")
		}
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if item.Price.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "item price cannot be negative")
		}
	}
	if len(strings.TrimSpace(input.ShippingAddress)) < 10 {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping address must be at least 10 characters")
	}
	return nil
}
