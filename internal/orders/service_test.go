package orders

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shophub-dev/shophub-backend/internal/products"
	pkgdb "github.com/shophub-dev/shophub-backend/pkg/db"
	"github.com/shophub-dev/shophub-backend/pkg/db/models"
	"github.com/shophub-dev/shophub-backend/pkg/enums"
	pkgerrors "github.com/shophub-dev/shophub-backend/pkg/errors"
)

func newOrderTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()

	conn := openTestDB(t)
	client := pkgdb.NewFromConn(conn)
	svc, err := NewService(NewRepository(conn), client, products.StockDecrementer{})
	require.NoError(t, err)
	return svc, conn
}

func seedProduct(t *testing.T, conn *gorm.DB, price string, stock int) *models.Product {
	t.Helper()

	product := &models.Product{
		Name:        "Widget",
		Description: "A widget",
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
	}
	require.NoError(t, conn.Create(product).Error)
	return product
}

func TestCreateOrderTotalsAndStock(t *testing.T) {
	svc, conn := newOrderTestService(t)
	ctx := context.Background()

	first := seedProduct(t, conn, "19.99", 5)
	second := seedProduct(t, conn, "9.99", 3)

	order, err := svc.Create(ctx, CreateOrderInput{
		UserID: 1,
		Items: []ItemInput{
			{ProductID: first.ID, Quantity: 2, Price: first.Price},
			{ProductID: second.ID, Quantity: 1, Price: second.Price},
		},
		ShippingAddress: "123 Main Street, Springfield",
	})
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("49.97")),
		"expected total 49.97, got %s", order.TotalAmount)
	require.Len(t, order.Items, 2)
	assert.True(t, order.Items[0].Subtotal.Equal(decimal.RequireFromString("39.98")))

	var reloaded models.Product
	require.NoError(t, conn.First(&reloaded, "id = ?", first.ID).Error)
	assert.Equal(t, 3, reloaded.Stock)
}

func TestCreateOrderAllowsNegativeStock(t *testing.T) {
	svc, conn := newOrderTestService(t)
	ctx := context.Background()

	product := seedProduct(t, conn, "5.00", 1)

	_, err := svc.Create(ctx, CreateOrderInput{
		UserID: 1,
		Items: []ItemInput{
			{ProductID: product.ID, Quantity: 3, Price: product.Price},
		},
		ShippingAddress: "123 Main Street, Springfield",
	})
	require.NoError(t, err)

	var reloaded models.Product
	require.NoError(t, conn.First(&reloaded, "id = ?", product.ID).Error)
	assert.Equal(t, -2, reloaded.Stock)
}

func TestCreateOrderRollsBackOnStockFailure(t *testing.T) {
	svc, conn := newOrderTestService(t)
	ctx := context.Background()

	product := seedProduct(t, conn, "19.99", 5)

	// The second line references a product that does not exist, so its
	// decrement fails after the order and first decrement already ran.
	_, err := svc.Create(ctx, CreateOrderInput{
		UserID: 1,
		Items: []ItemInput{
			{ProductID: product.ID, Quantity: 2, Price: product.Price},
			{ProductID: 9999, Quantity: 1, Price: decimal.NewFromInt(1)},
		},
		ShippingAddress: "123 Main Street, Springfield",
	})
	require.Error(t, err)

	var orderCount, itemCount int64
	require.NoError(t, conn.Model(&models.Order{}).Count(&orderCount).Error)
	require.NoError(t, conn.Model(&models.OrderItem{}).Count(&itemCount).Error)
	assert.Zero(t, orderCount)
	assert.Zero(t, itemCount)

	var reloaded models.Product
	require.NoError(t, conn.First(&reloaded, "id = ?", product.ID).Error)
	assert.Equal(t, 5, reloaded.Stock)
}

func TestCreateOrderValidation(t *testing.T) {
	svc, _ := newOrderTestService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateOrderInput
	}{
		{
			name:  "no items",
			input: CreateOrderInput{UserID: 1, ShippingAddress: "123 Main Street, Springfield"},
		},
		{
			name: "zero quantity",
			input: CreateOrderInput{
				UserID:          1,
				Items:           []ItemInput{{ProductID: 1, Quantity: 0, Price: decimal.NewFromInt(1)}},
				ShippingAddress: "123 Main Street, Springfield",
			},
		},
		{
			name: "short address",
			input: CreateOrderInput{
				UserID:          1,
				Items:           []ItemInput{{ProductID: 1, Quantity: 1, Price: decimal.NewFromInt(1)}},
				ShippingAddress: "short",
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.input)
			require.Error(t, err)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
		})
	}
}

func TestSetStatus(t *testing.T) {
	svc, conn := newOrderTestService(t)
	ctx := context.Background()

	product := seedProduct(t, conn, "5.00", 10)
	order, err := svc.Create(ctx, CreateOrderInput{
		UserID: 1,
		Items: []ItemInput{
			{ProductID: product.ID, Quantity: 1, Price: product.Price},
		},
		ShippingAddress: "123 Main Street, Springfield",
	})
	require.NoError(t, err)

	updated, err := svc.SetStatus(ctx, order.ID, enums.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, updated.Status)

	_, err = svc.SetStatus(ctx, order.ID, enums.OrderStatus("teleported"))
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = svc.SetStatus(ctx, 9999, enums.OrderStatusCancelled)
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
