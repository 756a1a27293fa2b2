package pending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shophub-dev/shophub-backend/pkg/db/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := conn.AutoMigrate(&models.PendingPayment{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return conn
}

func stagePayment(t *testing.T, repo Repository, sessionID string, userID int64, amount string) {
	t.Helper()

	err := repo.Stage(context.Background(), &models.PendingPayment{
		CheckoutSessionID: sessionID,
		UserID:            userID,
		Items:             json.RawMessage(`[{"product_id":1,"quantity":2,"price":"19.99"}]`),
		Amount:            decimal.RequireFromString(amount),
		ShippingAddress:   "123 Main Street, Springfield",
	})
	if err != nil {
		t.Fatalf("failed to stage payment: %v", err)
	}
}

func TestStageUpsertsOnSession(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	stagePayment(t, repo, "cs_abc", 1, "39.98")
	stagePayment(t, repo, "cs_abc", 2, "59.97")

	var count int64
	if err := conn.Model(&models.PendingPayment{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row after re-stage, got %d", count)
	}

	payment, err := repo.Consume(ctx, "cs_abc")
	if err != nil {
		t.Fatalf("failed to consume: %v", err)
	}
	if payment.UserID != 2 {
		t.Fatalf("expected re-staged user 2, got %d", payment.UserID)
	}
	if !payment.Amount.Equal(decimal.RequireFromString("59.97")) {
		t.Fatalf("expected re-staged amount 59.97, got %s", payment.Amount)
	}
}

func TestConsumeIsSingleUse(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()

	stagePayment(t, repo, "cs_once", 1, "39.98")

	if _, err := repo.Consume(ctx, "cs_once"); err != nil {
		t.Fatalf("first consume failed: %v", err)
	}
	if _, err := repo.Consume(ctx, "cs_once"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found on second consume, got %v", err)
	}
}

func TestConsumeMostRecentForUser(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	stagePayment(t, repo, "cs_old", 1, "10.00")
	stagePayment(t, repo, "cs_new", 1, "20.00")
	stagePayment(t, repo, "cs_other", 2, "30.00")

	base := time.Now().UTC()
	forceUpdatedAt(t, conn, "cs_old", base.Add(-time.Hour))
	forceUpdatedAt(t, conn, "cs_new", base)
	forceUpdatedAt(t, conn, "cs_other", base.Add(time.Hour))

	payment, err := repo.ConsumeMostRecentForUser(ctx, 1)
	if err != nil {
		t.Fatalf("failed to consume for user: %v", err)
	}
	if payment.CheckoutSessionID != "cs_new" {
		t.Fatalf("expected cs_new, got %s", payment.CheckoutSessionID)
	}

	payment, err = repo.ConsumeMostRecent(ctx)
	if err != nil {
		t.Fatalf("failed to consume most recent: %v", err)
	}
	if payment.CheckoutSessionID != "cs_other" {
		t.Fatalf("expected cs_other, got %s", payment.CheckoutSessionID)
	}

	if _, err := repo.ConsumeMostRecentForUser(ctx, 2); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}
}

func TestDiscardMissingSessionIsNoop(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()

	if err := repo.Discard(ctx, "cs_never_staged"); err != nil {
		t.Fatalf("discard should tolerate missing rows: %v", err)
	}

	stagePayment(t, repo, "cs_drop", 1, "10.00")
	if err := repo.Discard(ctx, "cs_drop"); err != nil {
		t.Fatalf("failed to discard: %v", err)
	}
	if _, err := repo.Consume(ctx, "cs_drop"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found after discard, got %v", err)
	}
}

func forceUpdatedAt(t *testing.T, conn *gorm.DB, sessionID string, at time.Time) {
	t.Helper()

	err := conn.Model(&models.PendingPayment{}).
		Where("checkout_session_id = ?", sessionID).
		UpdateColumn("updated_at", at).Error
	if err != nil {
		t.Fatalf("failed to set updated_at: %v", err)
	}
}
