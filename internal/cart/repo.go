package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelezquez/shopcart-backend/pkg/db/models"
)

// Repository persists carts and their item lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided GORM handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByHash returns the cart identified by the session token hash, with its
// items in insertion order.
func (r *Repository) FindByHash(ctx context.Context, hash string) (*models.Cart, error) {
	var record models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("hash = ?", hash).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindUpdatedBefore lists carts whose last write predates the cutoff.
func (r *Repository) FindUpdatedBefore(ctx context.Context, cutoff time.Time) ([]models.Cart, error) {
	var records []models.Cart
	err := r.db.WithContext(ctx).
		Where("updated_at < ?", cutoff).
		Order("updated_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Create inserts the provided cart.
func (r *Repository) Create(ctx context.Context, record *models.Cart) (*models.Cart, error) {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// Update saves the provided cart without touching its items.
func (r *Repository) Update(ctx context.Context, record *models.Cart) (*models.Cart, error) {
	if err := r.db.WithContext(ctx).Omit("Items").Save(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// UpdateFields applies a partial column update to the cart. The primary key
// never changes; an "id" entry in the patch is discarded.
func (r *Repository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	delete(fields, "id")
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// ReplaceItems deletes existing item lines and inserts the provided ones.
func (r *Repository) ReplaceItems(ctx context.Context, cartID uuid.UUID, items []models.CartItem) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].CartID = cartID
	}
	return tx.Create(&items).Error
}

// Remove deletes the cart and its item lines.
func (r *Repository) Remove(ctx context.Context, id uuid.UUID) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("cart_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", id).Delete(&models.Cart{}).Error
}
