package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/avelezquez/shopcart-backend/pkg/db/models"
)

func newRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Cart{}, &models.CartItem{}))

	return conn
}

func TestRepositoryCartRoundTrip(t *testing.T) {
	conn := newRepoTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	hash := uuid.NewString() + uuid.NewString()
	created, err := repo.Create(ctx, &models.Cart{Hash: hash, IP: "10.1.1.1"})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	items := []models.CartItem{
		{ProductID: uuid.New(), Amount: decimal.NewFromInt(2), URL: "/products/a"},
		{ProductID: uuid.New(), Amount: decimal.RequireFromString("0.5"), URL: "/products/b"},
	}
	require.NoError(t, repo.ReplaceItems(ctx, created.ID, items))

	found, err := repo.FindByHash(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	require.Len(t, found.Items, 2)

	total := decimal.Zero
	for _, item := range found.Items {
		total = total.Add(item.Amount)
	}
	assert.True(t, total.Equal(decimal.RequireFromString("2.5")), "fractional amounts should round-trip, got %s", total)
}

func TestRepositoryFindByHashMissing(t *testing.T) {
	conn := newRepoTestDB(t)
	repo := NewRepository(conn)

	_, err := repo.FindByHash(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryUpdateFieldsStripsIdentity(t *testing.T) {
	conn := newRepoTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	created, err := repo.Create(ctx, &models.Cart{Hash: uuid.NewString(), IP: "10.1.1.1"})
	require.NoError(t, err)

	user := "u42"
	require.NoError(t, repo.UpdateFields(ctx, created.ID, map[string]any{
		"id":      uuid.New(),
		"user_id": user,
	}))

	found, err := repo.FindByHash(ctx, created.Hash)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID, "storage id must be immutable")
	require.NotNil(t, found.UserID)
	assert.Equal(t, user, *found.UserID)
}

func TestRepositoryFindUpdatedBefore(t *testing.T) {
	conn := newRepoTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	old := &models.Cart{ID: uuid.New(), Hash: uuid.NewString()}
	fresh := &models.Cart{ID: uuid.New(), Hash: uuid.NewString()}
	_, err := repo.Create(ctx, old)
	require.NoError(t, err)
	_, err = repo.Create(ctx, fresh)
	require.NoError(t, err)

	staleAt := time.Now().UTC().AddDate(0, -2, 0)
	require.NoError(t, conn.Model(&models.Cart{}).Where("id = ?", old.ID).Update("updated_at", staleAt).Error)

	cutoff := time.Now().UTC().AddDate(0, -1, 0)
	stale, err := repo.FindUpdatedBefore(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, old.ID, stale[0].ID)
}

func TestRepositoryRemoveDeletesItems(t *testing.T) {
	conn := newRepoTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	created, err := repo.Create(ctx, &models.Cart{Hash: uuid.NewString()})
	require.NoError(t, err)
	items := []models.CartItem{{ProductID: uuid.New(), Amount: decimal.NewFromInt(1), URL: "/products/a"}}
	require.NoError(t, repo.ReplaceItems(ctx, created.ID, items))

	require.NoError(t, repo.Remove(ctx, created.ID))

	_, err = repo.FindByHash(ctx, created.Hash)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var count int64
	require.NoError(t, conn.Model(&models.CartItem{}).Where("cart_id = ?", created.ID).Count(&count).Error)
	assert.Zero(t, count, "items must not be orphaned")
}
