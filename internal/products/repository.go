package product

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelezquez/shopcart-backend/pkg/db/models"
	pkgerrors "github.com/avelezquez/shopcart-backend/pkg/errors"
)

// Repository exposes the product lookups the cart engine depends on.
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

// FindByID loads the product row without translation.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var record models.Product
	err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByExternalID loads the product by its upstream catalog identifier.
func (r *Repository) FindByExternalID(ctx context.Context, externalID string) (*models.Product, error) {
	var record models.Product
	err := r.db.WithContext(ctx).First(&record, "external_id = ?", externalID).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetByID resolves an active product for cart pricing, translating missing or
// inactive rows into a not-found error the transport layer can map to 404.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	record, err := r.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !record.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return record, nil
}
