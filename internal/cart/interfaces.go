package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelezquez/shopcart-backend/pkg/db/models"
	"github.com/avelezquez/shopcart-backend/pkg/enums"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindByHash(ctx context.Context, hash string) (*models.Cart, error)
	FindUpdatedBefore(ctx context.Context, cutoff time.Time) ([]models.Cart, error)
	Create(ctx context.Context, record *models.Cart) (*models.Cart, error)
	Update(ctx context.Context, record *models.Cart) (*models.Cart, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	ReplaceItems(ctx context.Context, cartID uuid.UUID, items []models.CartItem) error
	Remove(ctx context.Context, id uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type viewCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartViewKey(token string) string
}

// Notifier broadcasts cart changes to interested consumers after a mutation
// commits. Implementations must not fail the mutation.
type Notifier interface {
	CartChanged(ctx context.Context, action enums.CartEventAction, cart *models.Cart)
}
