package pending

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shophub-dev/shophub-backend/pkg/db/models"
)

// Repository is the staged-payment ledger. Rows are written when a hosted
// checkout session is created and consumed exactly once when the shopper
// returns or the webhook lands first.
type Repository interface {
	Stage(ctx context.Context, payment *models.PendingPayment) error
	Consume(ctx context.Context, sessionID string) (*models.PendingPayment, error)
	ConsumeMostRecentForUser(ctx context.Context, userID int64) (*models.PendingPayment, error)
	ConsumeMostRecent(ctx context.Context) (*models.PendingPayment, error)
	Discard(ctx context.Context, sessionID string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a ledger repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Stage upserts on the checkout session id. Re-staging the same session
// overwrites the previous payload rather than accumulating rows.
func (r *repository) Stage(ctx context.Context, payment *models.PendingPayment) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "checkout_session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"user_id",
				"items",
				"amount",
				"shipping_address",
				"payment_method",
				"updated_at",
			}),
		}).
		Create(payment).Error
}

// Consume returns the staged payload for the session and removes it. A second
// call for the same session reports gorm.ErrRecordNotFound.
func (r *repository) Consume(ctx context.Context, sessionID string) (*models.PendingPayment, error) {
	var payment models.PendingPayment
	err := r.db.WithContext(ctx).
		Where("checkout_session_id = ?", sessionID).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return r.take(ctx, &payment)
}

// ConsumeMostRecentForUser pops the newest staged payload for the user.
func (r *repository) ConsumeMostRecentForUser(ctx context.Context, userID int64) (*models.PendingPayment, error) {
	var payment models.PendingPayment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return r.take(ctx, &payment)
}

// ConsumeMostRecent pops the newest staged payload regardless of user. Last
// resort for callbacks that carry no usable correlation.
func (r *repository) ConsumeMostRecent(ctx context.Context) (*models.PendingPayment, error) {
	var payment models.PendingPayment
	err := r.db.WithContext(ctx).
		Order("updated_at DESC").
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return r.take(ctx, &payment)
}

// Discard drops the staged payload without returning it. Missing rows are
// fine: the payload may already be consumed.
func (r *repository) Discard(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).
		Where("checkout_session_id = ?", sessionID).
		Delete(&models.PendingPayment{}).Error
}

// take deletes the row by primary key and hands it back. Zero rows affected
// means a concurrent consumer got there first.
func (r *repository) take(ctx context.Context, payment *models.PendingPayment) (*models.PendingPayment, error) {
	result := r.db.WithContext(ctx).Delete(&models.PendingPayment{}, "id = ?", payment.ID)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return payment, nil
}
