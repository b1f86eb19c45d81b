package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/avelezquez/shopcart-backend/pkg/db"
	"github.com/avelezquez/shopcart-backend/pkg/db/models"
	"github.com/avelezquez/shopcart-backend/pkg/enums"
	pkgerrors "github.com/avelezquez/shopcart-backend/pkg/errors"
	"github.com/avelezquez/shopcart-backend/pkg/logger"
	"github.com/avelezquez/shopcart-backend/pkg/types"
)

const cartHashConstraint = "idx_carts_hash"

// Service exposes the cart engine: token resolution, item merge and
// mutation, patch reconciliation, and stale-cart sweeping.
type Service interface {
	ResolveCart(ctx context.Context, scope *RequestScope, token string) (*models.Cart, error)
	AddItem(ctx context.Context, scope *RequestScope, token string, input AddItemInput) (*models.Cart, error)
	DeleteItem(ctx context.Context, scope *RequestScope, token string, input DeleteItemInput) (*models.Cart, error)
	SetItemAmount(ctx context.Context, scope *RequestScope, token string, input SetItemAmountInput) (*models.Cart, error)
	ReconcileCart(ctx context.Context, scope *RequestScope, token string, patch ReconcilePatch) (*models.Cart, error)
	SweepStaleCarts(ctx context.Context, cutoff time.Time) ([]SweepResult, error)
}

// AddItemInput captures an add-to-cart request after transport validation.
type AddItemInput struct {
	ProductID    uuid.UUID
	Amount       decimal.Decimal
	Requirements types.Requirements
}

// DeleteItemInput captures a removal request. A nil ProductID clears every
// line; a nil Amount removes the matched line outright.
type DeleteItemInput struct {
	ProductID *uuid.UUID
	Amount    *decimal.Decimal
}

// SetItemAmountInput captures a replace-quantity request. A nil Amount
// defaults to 1.
type SetItemAmountInput struct {
	ProductID *uuid.UUID
	Amount    *decimal.Decimal
}

// ReconcilePatch is a partial cart document. Only non-nil fields overwrite
// the persisted cart; Items, when present, replaces the whole sequence.
type ReconcilePatch struct {
	UserID   *string
	IP       *string
	Hash     *string
	OrderRef *string
	Items    *[]models.CartItem
}

// SweepResult reports the outcome of one cart removal within a sweep run.
type SweepResult struct {
	CartID uuid.UUID
	Err    error
}

func (r SweepResult) String() string {
	if r.Err != nil {
		return fmt.Sprintf("cart %s: %v", r.CartID, r.Err)
	}
	return fmt.Sprintf("cart %s: removed", r.CartID)
}

// ServiceParams wires the service's collaborators.
type ServiceParams struct {
	Repo     CartRepository
	Tx       txRunner
	Products productLoader
	Cache    viewCache
	Notifier Notifier
	Logger   *logger.Logger
	CacheTTL time.Duration
	Now      func() time.Time
}

type service struct {
	repo     CartRepository
	tx       txRunner
	products productLoader
	cache    viewCache
	notifier Notifier
	logg     *logger.Logger
	cacheTTL time.Duration
	now      func() time.Time
}

// NewService builds a cart service backed by the provided stack. Cache and
// Notifier are optional; the rest are required.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		products: params.Products,
		cache:    params.Cache,
		notifier: params.Notifier,
		logg:     params.Logger,
		cacheTTL: params.CacheTTL,
		now:      now,
	}, nil
}

// ResolveCart maps the caller's identity token to its single active cart,
// creating an empty one for tokens never seen before. Storage failures are
// logged and surface as "no cart" so read paths degrade instead of erroring.
func (s *service) ResolveCart(ctx context.Context, scope *RequestScope, token string) (*models.Cart, error) {
	if token == "" {
		return nil, nil
	}
	if cached := scope.Cart(); cached != nil {
		return cached, nil
	}
	if view := s.cachedView(ctx, token); view != nil {
		scope.Bind(view)
		return view, nil
	}

	record, err := s.repo.FindByHash(ctx, token)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		record, err = s.createCart(ctx, scope, token)
	}
	if err != nil {
		s.logg.Error(ctx, "resolve cart", err)
		return nil, nil
	}

	scope.Bind(record)
	s.storeView(ctx, token, record)
	return record, nil
}

func (s *service) createCart(ctx context.Context, scope *RequestScope, token string) (*models.Cart, error) {
	now := s.now().UTC()
	record := &models.Cart{
		ID:        uuid.New(),
		IP:        scope.clientIP(),
		Hash:      token,
		CreatedAt: now,
		UpdatedAt: now,
	}
	created, err := s.repo.Create(ctx, record)
	if db.IsUniqueViolation(err, cartHashConstraint) {
		// Lost the create race; the winner's cart is authoritative.
		return s.repo.FindByHash(ctx, token)
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}

// AddItem validates the referenced product against stock and type rules, then
// merges the request into the cart: same product id and requirements
// fingerprint increments the existing line, anything else appends a new one.
func (s *service) AddItem(ctx context.Context, scope *RequestScope, token string, input AddItemInput) (*models.Cart, error) {
	record, err := s.requireCart(ctx, scope, token)
	if err != nil {
		return nil, err
	}

	prod, err := s.products.GetByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	amount := input.Amount
	if amount.Sign() <= 0 {
		amount = decimal.NewFromInt(1)
	}
	amount, err = applyStockPolicy(prod, amount)
	if err != nil {
		return nil, err
	}

	fingerprint := input.Requirements.Fingerprint()
	merged := false
	for i := range record.Items {
		line := &record.Items[i]
		if line.ProductID == prod.ID && line.Requirements.Fingerprint() == fingerprint {
			line.Amount = line.Amount.Add(amount)
			merged = true
			break
		}
	}
	if !merged {
		record.Items = append(record.Items, buildLine(record.ID, prod, amount, input.Requirements))
	}

	if err := s.persist(ctx, record, true); err != nil {
		return nil, err
	}
	s.afterMutation(ctx, scope, enums.CartEventUpdated, record)
	return record, nil
}

// applyStockPolicy enforces availability rules. Subscription and digital
// items never multiply: their amount collapses to 1, and a finite stock level
// still hard-rejects oversized requests. Physical goods reject outright.
func applyStockPolicy(prod *models.Product, amount decimal.Decimal) (decimal.Decimal, error) {
	stock := decimal.NewFromInt(int64(prod.StockLevel))
	if !amount.GreaterThan(stock) {
		return amount, nil
	}
	if prod.Type == enums.ProductTypeSubscription || prod.Subtype == enums.ProductSubtypeDigital {
		if !prod.HasUnlimitedStock() {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock for product")
		}
		return decimal.NewFromInt(1), nil
	}
	return decimal.Zero, pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock for product")
}

func buildLine(cartID uuid.UUID, prod *models.Product, amount decimal.Decimal, requirements types.Requirements) models.CartItem {
	title := prod.Title
	return models.CartItem{
		ID:              uuid.New(),
		CartID:          cartID,
		ProductID:       prod.ID,
		ExternalID:      prod.ExternalID,
		OrderCode:       prod.OrderCode,
		Amount:          amount,
		ItemDesc:        &title,
		Price:           prod.Price,
		PriceNoTax:      prod.PriceNoTax,
		PriceTotal:      prod.PriceTotal,
		PriceTotalNoTax: prod.PriceTotalNoTax,
		Tax:             prod.Tax,
		Requirements:    requirements.Clone(),
		URL:             prod.URL,
	}
}

// DeleteItem removes lines or subtracts quantity. Without a product id the
// whole item sequence is cleared; the cart record itself survives.
func (s *service) DeleteItem(ctx context.Context, scope *RequestScope, token string, input DeleteItemInput) (*models.Cart, error) {
	record, err := s.requireCart(ctx, scope, token)
	if err != nil {
		return nil, err
	}
	if len(record.Items) == 0 {
		return nil, nil
	}

	if input.ProductID == nil {
		record.Items = []models.CartItem{}
	} else {
		idx := findLine(record.Items, *input.ProductID)
		if idx < 0 {
			return record, nil
		}
		line := &record.Items[idx]
		if input.Amount != nil && input.Amount.Sign() > 0 {
			line.Amount = line.Amount.Sub(*input.Amount)
		} else {
			line.Amount = decimal.Zero
		}
		if line.Amount.Sign() <= 0 {
			record.Items = append(record.Items[:idx], record.Items[idx+1:]...)
		}
	}

	if err := s.persist(ctx, record, true); err != nil {
		return nil, err
	}
	s.afterMutation(ctx, scope, enums.CartEventRemoved, record)
	return record, nil
}

// SetItemAmount replaces a line's quantity. Lines carrying requirements are
// pinned to amount 1: configured items do not multiply.
func (s *service) SetItemAmount(ctx context.Context, scope *RequestScope, token string, input SetItemAmountInput) (*models.Cart, error) {
	record, err := s.requireCart(ctx, scope, token)
	if err != nil {
		return nil, err
	}
	if len(record.Items) == 0 {
		return nil, nil
	}
	if input.ProductID == nil {
		return record, nil
	}
	idx := findLine(record.Items, *input.ProductID)
	if idx < 0 {
		return record, nil
	}

	amount := decimal.NewFromInt(1)
	if input.Amount != nil {
		amount = *input.Amount
	}
	line := &record.Items[idx]
	if len(line.Requirements) > 0 {
		amount = decimal.NewFromInt(1)
	}
	if amount.Sign() <= 0 {
		record.Items = append(record.Items[:idx], record.Items[idx+1:]...)
	} else {
		line.Amount = amount
	}

	if err := s.persist(ctx, record, true); err != nil {
		return nil, err
	}
	s.afterMutation(ctx, scope, enums.CartEventUpdated, record)
	return record, nil
}

// ReconcileCart applies a shallow field-level patch: only fields present on
// the patch overwrite the persisted cart, and a patched item sequence
// replaces the stored one wholesale.
func (s *service) ReconcileCart(ctx context.Context, scope *RequestScope, token string, patch ReconcilePatch) (*models.Cart, error) {
	record, err := s.requireCart(ctx, scope, token)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if patch.UserID != nil {
		record.UserID = patch.UserID
		fields["user_id"] = *patch.UserID
	}
	if patch.IP != nil {
		record.IP = *patch.IP
		fields["ip"] = *patch.IP
	}
	if patch.Hash != nil {
		record.Hash = *patch.Hash
		fields["hash"] = *patch.Hash
	}
	if patch.OrderRef != nil {
		record.OrderRef = patch.OrderRef
		fields["order_ref"] = *patch.OrderRef
	}
	if patch.Items != nil {
		record.Items = *patch.Items
	}

	record.UpdatedAt = s.now().UTC()
	fields["updated_at"] = record.UpdatedAt

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.UpdateFields(ctx, record.ID, fields); err != nil {
			return err
		}
		if patch.Items != nil {
			return txRepo.ReplaceItems(ctx, record.ID, record.Items)
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reconcile cart")
	}

	s.afterMutation(ctx, scope, enums.CartEventUpdated, record)
	return record, nil
}

// SweepStaleCarts removes every cart whose last write predates the cutoff.
// Removals run concurrently and are joined; one cart's failure never aborts
// the batch, and every outcome is reported.
func (s *service) SweepStaleCarts(ctx context.Context, cutoff time.Time) ([]SweepResult, error) {
	stale, err := s.repo.FindUpdatedBefore(ctx, cutoff)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query stale carts")
	}
	if len(stale) == 0 {
		return nil, nil
	}

	results := make([]SweepResult, len(stale))
	var wg sync.WaitGroup
	for i := range stale {
		wg.Add(1)
		go func(i int, record models.Cart) {
			defer wg.Done()
			results[i] = SweepResult{CartID: record.ID, Err: s.repo.Remove(ctx, record.ID)}
		}(i, stale[i])
	}
	wg.Wait()

	for _, result := range results {
		if result.Err != nil {
			continue
		}
		s.dropView(ctx, resultHash(stale, result.CartID))
	}
	return results, nil
}

func resultHash(records []models.Cart, id uuid.UUID) string {
	for i := range records {
		if records[i].ID == id {
			return records[i].Hash
		}
	}
	return ""
}

// requireCart resolves the caller's cart for a mutation. Unlike the read
// path, a missing cart here is an error the caller must see.
func (s *service) requireCart(ctx context.Context, scope *RequestScope, token string) (*models.Cart, error) {
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart token required")
	}
	record, _ := s.ResolveCart(ctx, scope, token)
	if record == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart unavailable")
	}
	return record, nil
}

// persist stamps the cart and writes it back, optionally replacing the whole
// item sequence in the same transaction.
func (s *service) persist(ctx context.Context, record *models.Cart, withItems bool) error {
	record.UpdatedAt = s.now().UTC()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.Update(ctx, record); err != nil {
			return err
		}
		if withItems {
			return txRepo.ReplaceItems(ctx, record.ID, record.Items)
		}
		return nil
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
	}
	return nil
}

func (s *service) afterMutation(ctx context.Context, scope *RequestScope, action enums.CartEventAction, record *models.Cart) {
	scope.Bind(record)
	s.dropView(ctx, record.Hash)
	if s.notifier != nil {
		s.notifier.CartChanged(ctx, action, record)
	}
}

func (s *service) cachedView(ctx context.Context, token string) *models.Cart {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, s.cache.CartViewKey(token))
	if err != nil || raw == "" {
		return nil
	}
	var record models.Cart
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil
	}
	return &record
}

func (s *service) storeView(ctx context.Context, token string, record *models.Cart) {
	if s.cache == nil || record == nil || s.cacheTTL <= 0 {
		return
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cache.CartViewKey(token), string(payload), s.cacheTTL); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "cart_hash", token), "cache cart view failed")
	}
}

func (s *service) dropView(ctx context.Context, token string) {
	if s.cache == nil || token == "" {
		return
	}
	if err := s.cache.Del(ctx, s.cache.CartViewKey(token)); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "cart_hash", token), "invalidate cart view failed")
	}
}

func findLine(items []models.CartItem, productID uuid.UUID) int {
	for i := range items {
		if items[i].ProductID == productID {
			return i
		}
	}
	return -1
}
