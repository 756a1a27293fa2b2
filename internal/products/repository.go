package products

import (
	"context"

	"gorm.io/gorm"

	"github.com/shophub-dev/shophub-backend/pkg/db/models"
)

// Repository defines CRUD operations for the product catalog.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByID loads the product without associations.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns the full catalog, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Product, error) {
	var items []models.Product
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Create persists a new product.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Update persists the provided column updates and returns the refreshed row.
func (r *Repository) Update(ctx context.Context, id int64, updates map[string]any) (*models.Product, error) {
	result := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(ctx, id)
}

// Delete removes the product row.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DecrementStock subtracts qty from the product's stock counter. There is no
// floor check: concurrent oversell drives the counter negative rather than
// failing the order.
func (r *Repository) DecrementStock(ctx context.Context, productID int64, qty int) error {
	result := r.db.WithContext(ctx).
		Exec("UPDATE products SET stock = stock - ? WHERE id = ?", qty, productID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// StockDecrementer runs stock decrements inside a transaction owned by
// another package.
type StockDecrementer struct{}

// Decrement subtracts qty from the product inside tx.
func (StockDecrementer) Decrement(ctx context.Context, tx *gorm.DB, productID int64, qty int) error {
	return NewRepository(tx).DecrementStock(ctx, productID, qty)
}
