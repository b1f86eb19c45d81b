package cart

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/avelezquez/shopcart-backend/pkg/db/models"
	"github.com/avelezquez/shopcart-backend/pkg/enums"
	pkgerrors "github.com/avelezquez/shopcart-backend/pkg/errors"
	"github.com/avelezquez/shopcart-backend/pkg/logger"
	"github.com/avelezquez/shopcart-backend/pkg/types"
)

var testNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

const testToken = "0123456789abcdef0123456789abcdef"

func TestResolveCartNewToken(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	svc := newTestService(t, repo, nil, nil)
	scope := NewRequestScope("10.0.0.9")

	record, err := svc.ResolveCart(context.Background(), scope, testToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record == nil {
		t.Fatal("expected a cart")
	}
	if len(record.Items) != 0 {
		t.Fatalf("expected empty items, got %d", len(record.Items))
	}
	if !record.CreatedAt.Equal(record.UpdatedAt) {
		t.Fatalf("expected created == updated, got %s / %s", record.CreatedAt, record.UpdatedAt)
	}
	if record.Hash != testToken {
		t.Fatalf("expected hash bound to token, got %q", record.Hash)
	}
	if record.IP != "10.0.0.9" {
		t.Fatalf("expected caller ip recorded, got %q", record.IP)
	}
	if scope.Cart() != record {
		t.Fatal("expected cart bound to the request scope")
	}
}

func TestResolveCartUsesRequestScope(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	svc := newTestService(t, repo, nil, nil)
	scope := NewRequestScope("")

	first, _ := svc.ResolveCart(context.Background(), scope, testToken)
	if first == nil {
		t.Fatal("expected a cart")
	}
	findsAfterCreate := repo.findCalls

	second, _ := svc.ResolveCart(context.Background(), scope, testToken)
	if second != first {
		t.Fatal("expected the scoped cart returned verbatim")
	}
	if repo.findCalls != findsAfterCreate {
		t.Fatal("expected no extra storage round-trip")
	}
}

func TestResolveCartStorageFailure(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	repo.findErr = errors.New("storage down")
	svc := newTestService(t, repo, nil, nil)

	record, err := svc.ResolveCart(context.Background(), NewRequestScope(""), testToken)
	if err != nil {
		t.Fatalf("read path must not propagate storage errors, got %v", err)
	}
	if record != nil {
		t.Fatal("expected no cart on storage failure")
	}
}

func TestAddItemMergesSameProduct(t *testing.T) {
	t.Parallel()

	prod := physicalProduct(100)
	repo := newStubRepo()
	notifier := &stubNotifier{}
	svc := newTestService(t, repo, prod, notifier)
	scope := NewRequestScope("")

	ctx := context.Background()
	if _, err := svc.AddItem(ctx, scope, testToken, AddItemInput{ProductID: prod.ID, Amount: decimal.NewFromInt(2)}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	record, err := svc.AddItem(ctx, scope, testToken, AddItemInput{ProductID: prod.ID, Amount: decimal.NewFromInt(3)})
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	if len(record.Items) != 1 {
		t.Fatalf("expected one merged line, got %d", len(record.Items))
	}
	if !record.Items[0].Amount.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected merged amount 5, got %s", record.Items[0].Amount)
	}
	if got := notifier.actions; len(got) != 2 || got[0] != enums.CartEventUpdated {
		t.Fatalf("expected two updated events, got %v", got)
	}
}

func TestAddItemDistinctRequirementsKeepSeparateLines(t *testing.T) {
	t.Parallel()

	prod := physicalProduct(100)
	repo := newStubRepo()
	svc := newTestService(t, repo, prod, nil)
	scope := NewRequestScope("")

	ctx := context.Background()
	reqs := types.Requirements{{Codename: "engraving", Value: "ada"}}
	if _, err := svc.AddItem(ctx, scope, testToken, AddItemInput{ProductID: prod.ID, Amount: decimal.NewFromInt(1), Requirements: reqs}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	record, err := svc.AddItem(ctx, scope, testToken, AddItemInput{ProductID: prod.ID, Amount: decimal.NewFromInt(1)})
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if len(record.Items) != 2 {
		t.Fatalf("expected separate lines per requirements fingerprint, got %d", len(record.Items))
	}
}

func TestAddItemUnknownProduct(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	svc := newTestService(t, repo, nil, nil)

	_, err := svc.AddItem(context.Background(), NewRequestScope(""), testToken, AddItemInput{ProductID: uuid.New(), Amount: decimal.NewFromInt(1)})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestAddItemDigitalFiniteStockRejects(t *testing.T) {
	t.Parallel()

	prod := physicalProduct(1)
	prod.Subtype = enums.ProductSubtypeDigital
	repo := newStubRepo()
	svc := newTestService(t, repo, prod, nil)

	_, err := svc.AddItem(context.Background(), NewRequestScope(""), testToken, AddItemInput{ProductID: prod.ID, Amount: decimal.NewFromInt(5)})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected insufficient-stock conflict, got %v", err)
	}
}

func TestAddItemSubscriptionUnlimitedForcesAmountOne(t *testing.T) {
	t.Parallel()

	prod := physicalProduct(models.StockUnlimited)
	prod.Type = enums.ProductTypeSubscription
	repo := newStubRepo()
	svc := newTestService(t, repo, prod, nil)

	record, err := svc.AddItem(context.Background(), NewRequestScope(""), testToken, AddItemInput{ProductID: prod.ID, Amount: decimal.NewFromInt(5)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(record.Items) != 1 {
		t.Fatalf("expected one line, got %d", len(record.Items))
	}
	if !record.Items[0].Amount.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected amount forced to 1, got %s", record.Items[0].Amount)
	}
}

func TestSetItemAmountPinsRequirementLines(t *testing.T) {
	t.Parallel()

	prod := physicalProduct(100)
	repo := newStubRepo()
	svc := newTestService(t, repo, prod, nil)
	scope := NewRequestScope("")

	ctx := context.Background()
	reqs := types.Requirements{{Codename: "size", Value: "xl"}}
	if _, err := svc.AddItem(ctx, scope, testToken, AddItemInput{ProductID: prod.ID, Amount: decimal.NewFromInt(1), Requirements: reqs}); err != nil {
		t.Fatalf("add: %v", err)
	}

	seven := decimal.NewFromInt(7)
	record, err := svc.SetItemAmount(ctx, scope, testToken, SetItemAmountInput{ProductID: &prod.ID, Amount: &seven})
	if err != nil {
		t.Fatalf("set amount: %v", err)
	}
	if !record.Items[0].Amount.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected configured line pinned to 1, got %s", record.Items[0].Amount)
	}
}

func TestSetItemAmountReplacesQuantity(t *testing.T) {
	t.Parallel()

	prod := physicalProduct(100)
	repo := newStubRepo()
	svc := newTestService(t, repo, prod, nil)
	scope := NewRequestScope("")

	ctx := context.Background()
	if _, err := svc.AddItem(ctx, scope, testToken, AddItemInput{ProductID: prod.ID, Amount: decimal.NewFromInt(2)}); err != nil {
		t.Fatalf("add: %v", err)
	}

	four := decimal.NewFromInt(4)
	record, err := svc.SetItemAmount(ctx, scope, testToken, SetItemAmountInput{ProductID: &prod.ID, Amount: &four})
	if err != nil {
		t.Fatalf("set amount: %v", err)
	}
	if !record.Items[0].Amount.Equal(four) {
		t.Fatalf("expected amount replaced with 4, got %s", record.Items[0].Amount)
	}
}

func TestSetItemAmountEmptyCartIsUndefined(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	svc := newTestService(t, repo, nil, nil)

	id := uuid.New()
	record, err := svc.SetItemAmount(context.Background(), NewRequestScope(""), testToken, SetItemAmountInput{ProductID: &id})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record != nil {
		t.Fatal("expected no result for an empty cart")
	}
}

func TestDeleteItemQuantityArithmetic(t *testing.T) {
	t.Parallel()

	prod := physicalProduct(100)
	repo := newStubRepo()
	notifier := &stubNotifier{}
	svc := newTestService(t, repo, prod, notifier)
	scope := NewRequestScope("")
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, scope, testToken, AddItemInput{ProductID: prod.ID, Amount: decimal.NewFromInt(5)}); err != nil {
		t.Fatalf("add: %v", err)
	}

	two := decimal.NewFromInt(2)
	record, err := svc.DeleteItem(ctx, scope, testToken, DeleteItemInput{ProductID: &prod.ID, Amount: &two})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !record.Items[0].Amount.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("expected amount 3 after subtracting 2 from 5, got %s", record.Items[0].Amount)
	}

	three := decimal.NewFromInt(3)
	record, err = svc.DeleteItem(ctx, scope, testToken, DeleteItemInput{ProductID: &prod.ID, Amount: &three})
	if err != nil {
		t.Fatalf("delete to zero: %v", err)
	}
	if len(record.Items) != 0 {
		t.Fatalf("expected line removed at zero, got %d lines", len(record.Items))
	}
	if last := notifier.actions[len(notifier.actions)-1]; last != enums.CartEventRemoved {
		t.Fatalf("expected removed event, got %s", last)
	}
}

func TestDeleteItemWithoutIDClearsAllLines(t *testing.T) {
	t.Parallel()

	prod := physicalProduct(100)
	repo := newStubRepo()
	svc := newTestService(t, repo, prod, nil)
	scope := NewRequestScope("")
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, scope, testToken, AddItemInput{ProductID: prod.ID, Amount: decimal.NewFromInt(2)}); err != nil {
		t.Fatalf("add: %v", err)
	}

	record, err := svc.DeleteItem(ctx, scope, testToken, DeleteItemInput{})
	if err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if len(record.Items) != 0 {
		t.Fatalf("expected all lines cleared, got %d", len(record.Items))
	}
	if repo.cartByHash(testToken) == nil {
		t.Fatal("expected the cart record to survive a full clear")
	}
	if len(repo.removed) != 0 {
		t.Fatal("expected no cart removal on item clear")
	}
}

func TestDeleteItemUnknownLineIsNoop(t *testing.T) {
	t.Parallel()

	prod := physicalProduct(100)
	repo := newStubRepo()
	svc := newTestService(t, repo, prod, nil)
	scope := NewRequestScope("")
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, scope, testToken, AddItemInput{ProductID: prod.ID, Amount: decimal.NewFromInt(2)}); err != nil {
		t.Fatalf("add: %v", err)
	}
	updatesBefore := repo.updateCalls

	other := uuid.New()
	record, err := svc.DeleteItem(ctx, scope, testToken, DeleteItemInput{ProductID: &other})
	if err != nil {
		t.Fatalf("delete unknown: %v", err)
	}
	if len(record.Items) != 1 {
		t.Fatalf("expected line untouched, got %d lines", len(record.Items))
	}
	if repo.updateCalls != updatesBefore {
		t.Fatal("expected no persistence for a no-op delete")
	}
}

func TestReconcileCartPatchesOnlySuppliedFields(t *testing.T) {
	t.Parallel()

	prod := physicalProduct(100)
	repo := newStubRepo()
	svc := newTestService(t, repo, prod, nil)
	scope := NewRequestScope("192.168.1.4")
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, scope, testToken, AddItemInput{ProductID: prod.ID, Amount: decimal.NewFromInt(2)}); err != nil {
		t.Fatalf("add: %v", err)
	}

	user := "u2"
	record, err := svc.ReconcileCart(ctx, scope, testToken, ReconcilePatch{UserID: &user})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if record.UserID == nil || *record.UserID != "u2" {
		t.Fatalf("expected user patched, got %v", record.UserID)
	}
	if record.Hash != testToken {
		t.Fatalf("expected hash untouched, got %q", record.Hash)
	}
	if record.IP != "192.168.1.4" {
		t.Fatalf("expected ip untouched, got %q", record.IP)
	}
	if len(record.Items) != 1 {
		t.Fatalf("expected items untouched, got %d lines", len(record.Items))
	}
	if _, ok := repo.lastFields["id"]; ok {
		t.Fatal("expected identity stripped from the field patch")
	}
	if _, ok := repo.lastFields["user_id"]; !ok {
		t.Fatal("expected user_id present in the field patch")
	}
}

func TestSweepStaleCartsReportsEveryOutcome(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	stale := []models.Cart{
		{ID: uuid.New(), Hash: "stale-a", UpdatedAt: testNow.AddDate(0, -2, 0)},
		{ID: uuid.New(), Hash: "stale-b", UpdatedAt: testNow.AddDate(0, -3, 0)},
	}
	repo.stale = stale
	repo.removeErrs = map[uuid.UUID]error{stale[1].ID: errors.New("row locked")}
	svc := newTestService(t, repo, nil, nil)

	results, err := svc.SweepStaleCarts(context.Background(), testNow.AddDate(0, -1, 0))
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected both outcomes reported, got %d", len(results))
	}
	outcomes := map[uuid.UUID]error{}
	for _, result := range results {
		outcomes[result.CartID] = result.Err
	}
	if outcomes[stale[0].ID] != nil {
		t.Fatalf("expected first removal to succeed, got %v", outcomes[stale[0].ID])
	}
	if outcomes[stale[1].ID] == nil {
		t.Fatal("expected second removal failure to be reported")
	}
}

func physicalProduct(stock int) *models.Product {
	externalID := uuid.NewString()
	orderCode := "SC-77"
	return &models.Product{
		ID:         uuid.New(),
		ExternalID: &externalID,
		OrderCode:  &orderCode,
		Title:      "Widget",
		Type:       enums.ProductTypePhysical,
		Subtype:    enums.ProductSubtypeStandard,
		StockLevel: stock,
		Price:      decimal.RequireFromString("19.99"),
		URL:        "/products/widget",
		IsActive:   true,
	}
}

func newTestService(t *testing.T, repo *stubRepo, prod *models.Product, notifier *stubNotifier) Service {
	t.Helper()

	params := ServiceParams{
		Repo:     repo,
		Tx:       stubTxRunner{},
		Products: productLoaderFunc(func(ctx context.Context, id uuid.UUID) (*models.Product, error) {
			if prod == nil || prod.ID != id {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return prod, nil
		}),
		Logger: logger.New(logger.Options{ServiceName: "cart-test", Output: io.Discard}),
		Now:    func() time.Time { return testNow },
	}
	if notifier != nil {
		params.Notifier = notifier
	}
	svc, err := NewService(params)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

type productLoaderFunc func(ctx context.Context, id uuid.UUID) (*models.Product, error)

func (f productLoaderFunc) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return f(ctx, id)
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubNotifier struct {
	actions []enums.CartEventAction
}

func (s *stubNotifier) CartChanged(ctx context.Context, action enums.CartEventAction, cart *models.Cart) {
	s.actions = append(s.actions, action)
}

type stubRepo struct {
	carts      map[string]*models.Cart
	stale      []models.Cart
	removeErrs map[uuid.UUID]error
	removed    []uuid.UUID
	lastFields map[string]any

	findErr   error
	findCalls int

	updateCalls int
}

func newStubRepo() *stubRepo {
	return &stubRepo{carts: map[string]*models.Cart{}}
}

func (s *stubRepo) WithTx(tx *gorm.DB) CartRepository { return s }

func (s *stubRepo) FindByHash(ctx context.Context, hash string) (*models.Cart, error) {
	s.findCalls++
	if s.findErr != nil {
		return nil, s.findErr
	}
	record, ok := s.carts[hash]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return record, nil
}

func (s *stubRepo) FindUpdatedBefore(ctx context.Context, cutoff time.Time) ([]models.Cart, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	var matches []models.Cart
	for _, record := range s.stale {
		if record.UpdatedAt.Before(cutoff) {
			matches = append(matches, record)
		}
	}
	return matches, nil
}

func (s *stubRepo) Create(ctx context.Context, record *models.Cart) (*models.Cart, error) {
	s.carts[record.Hash] = record
	return record, nil
}

func (s *stubRepo) Update(ctx context.Context, record *models.Cart) (*models.Cart, error) {
	s.updateCalls++
	s.carts[record.Hash] = record
	return record, nil
}

func (s *stubRepo) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	s.lastFields = fields
	return nil
}

func (s *stubRepo) ReplaceItems(ctx context.Context, cartID uuid.UUID, items []models.CartItem) error {
	return nil
}

func (s *stubRepo) Remove(ctx context.Context, id uuid.UUID) error {
	if err, ok := s.removeErrs[id]; ok {
		return err
	}
	s.removed = append(s.removed, id)
	return nil
}

func (s *stubRepo) cartByHash(hash string) *models.Cart {
	return s.carts[hash]
}
