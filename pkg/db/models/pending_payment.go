package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// PendingPayment holds the cart snapshot staged before redirecting the buyer
// to a hosted checkout page. Keyed by the gateway checkout session id so a
// retried stage call replaces the previous snapshot instead of duplicating it.
type PendingPayment struct {
	ID                int64           `gorm:"column:id;primaryKey;autoIncrement"`
	CheckoutSessionID string          `gorm:"column:checkout_session_id;not null;uniqueIndex:uniq_pending_payments_session"`
	UserID            int64           `gorm:"column:user_id;not null;index"`
	Items             json.RawMessage `gorm:"column:items;type:jsonb;not null"`
	Amount            decimal.Decimal `gorm:"column:amount;type:decimal(10,2);not null"`
	ShippingAddress   string          `gorm:"column:shipping_address;not null"`
	PaymentMethod     *string         `gorm:"column:payment_method"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
