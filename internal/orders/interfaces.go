package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/shophub-dev/shophub-backend/pkg/db/models"
	"github.com/shophub-dev/shophub-backend/pkg/enums"
)

// Repository defines persistence operations for the order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	FindByID(ctx context.Context, id int64) (*models.Order, error)
	FindByCheckoutSessionID(ctx context.Context, sessionID string) (*models.Order, error)
	UpdateStatus(ctx context.Context, id int64, status enums.OrderStatus) error
	UpdateStatusIfCurrent(ctx context.Context, id int64, from, to enums.OrderStatus) (bool, error)
	ListForUser(ctx context.Context, userID int64) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
}
