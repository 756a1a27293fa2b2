package models

import (
	"time"

	"github.com/shophub-dev/shophub-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Order is the committed purchase record. TotalAmount is fixed at creation
// from the item price snapshots and never recomputed afterwards.
type Order struct {
	ID                int64             `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID            int64             `gorm:"column:user_id;not null;index" json:"user_id"`
	TotalAmount       decimal.Decimal   `gorm:"column:total_amount;type:decimal(10,2);not null" json:"total_amount"`
	Status            enums.OrderStatus `gorm:"column:status;not null;default:'pending'" json:"status"`
	ShippingAddress   string            `gorm:"column:shipping_address;not null" json:"shipping_address"`
	PaymentMethod     *string           `gorm:"column:payment_method" json:"payment_method,omitempty"`
	CheckoutSessionID *string           `gorm:"column:checkout_session_id;index" json:"checkout_session_id,omitempty"`
	Items             []OrderItem       `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// OrderItem snapshots a line at purchase time. Price is the unit price as it
// was when the order was placed; Subtotal is stored, not derived on read.
type OrderItem struct {
	ID        int64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrderID   int64           `gorm:"column:order_id;not null;index" json:"order_id"`
	ProductID int64           `gorm:"column:product_id;not null" json:"product_id"`
	Quantity  int             `gorm:"column:quantity;not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"column:price;type:decimal(10,2);not null" json:"price"`
	Subtotal  decimal.Decimal `gorm:"column:subtotal;type:decimal(10,2);not null" json:"subtotal"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
