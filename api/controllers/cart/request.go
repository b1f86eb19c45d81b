package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cartsvc "github.com/avelezquez/shopcart-backend/internal/cart"
	"github.com/avelezquez/shopcart-backend/pkg/db/models"
	pkgerrors "github.com/avelezquez/shopcart-backend/pkg/errors"
	"github.com/avelezquez/shopcart-backend/pkg/types"
)

// AddItemRequest is the payload for POST /api/v1/cart/items.
type AddItemRequest struct {
	ItemID       string               `json:"itemId" validate:"required,min=3"`
	Amount       decimal.Decimal      `json:"amount"`
	Requirements []RequirementPayload `json:"requirements,omitempty" validate:"omitempty,dive"`
}

// RequirementPayload is one buyer-supplied configuration pair.
type RequirementPayload struct {
	Codename string `json:"codename" validate:"required"`
	Value    string `json:"value"`
}

// DeleteItemRequest is the payload for DELETE /api/v1/cart/items. Without an
// item id every line is cleared.
type DeleteItemRequest struct {
	ItemID *string          `json:"itemId,omitempty" validate:"omitempty,min=3"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

// SetItemAmountRequest is the payload for PUT /api/v1/cart/items/amount.
type SetItemAmountRequest struct {
	ItemID *string          `json:"itemId,omitempty" validate:"omitempty,min=3"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

// ReconcileRequest is a partial cart document for PATCH /api/v1/cart. The
// read-only fields a GET response carries (id, dateCreated, dateUpdated) are
// accepted and discarded, so a fetched cart can be patched back unchanged.
type ReconcileRequest struct {
	ID          *string        `json:"id,omitempty"`
	User        *string        `json:"user,omitempty"`
	IP          *string        `json:"ip,omitempty" validate:"omitempty,min=4"`
	Hash        *string        `json:"hash,omitempty" validate:"omitempty,min=32"`
	Order       *string        `json:"order,omitempty"`
	DateCreated *time.Time     `json:"dateCreated,omitempty"`
	DateUpdated *time.Time     `json:"dateUpdated,omitempty"`
	Items       *[]ItemPayload `json:"items,omitempty" validate:"omitempty,dive"`
}

// ItemPayload is one cart line inside a reconcile patch. It mirrors ItemView
// so a replaced line keeps its price snapshot instead of resetting to zero.
type ItemPayload struct {
	ItemID       string               `json:"itemId" validate:"required,min=3"`
	ExternalID   *string              `json:"externalId,omitempty"`
	OrderCode    *string              `json:"orderCode,omitempty"`
	Amount       decimal.Decimal      `json:"amount"`
	ParentID     *string              `json:"parentId,omitempty"`
	ItemDesc     *string              `json:"itemDesc,omitempty"`
	Properties   map[string]string    `json:"properties,omitempty"`
	Prices       *PricePayload        `json:"prices,omitempty"`
	Requirements []RequirementPayload `json:"requirements,omitempty" validate:"omitempty,dive"`
	URL          string               `json:"url,omitempty" validate:"omitempty,min=2"`
}

// PricePayload carries a line's price snapshot through a reconcile patch.
type PricePayload struct {
	Price           decimal.Decimal `json:"price"`
	PriceNoTax      decimal.Decimal `json:"priceNoTax"`
	PriceTotal      decimal.Decimal `json:"priceTotal"`
	PriceTotalNoTax decimal.Decimal `json:"priceTotalNoTax"`
	Tax             decimal.Decimal `json:"tax"`
}

func toAddItemInput(payload AddItemRequest) (cartsvc.AddItemInput, error) {
	productID, err := uuid.Parse(payload.ItemID)
	if err != nil {
		return cartsvc.AddItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id")
	}
	if payload.Amount.Sign() <= 0 {
		return cartsvc.AddItemInput{}, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	return cartsvc.AddItemInput{
		ProductID:    productID,
		Amount:       payload.Amount,
		Requirements: toRequirements(payload.Requirements),
	}, nil
}

func toDeleteItemInput(payload DeleteItemRequest) (cartsvc.DeleteItemInput, error) {
	input := cartsvc.DeleteItemInput{Amount: payload.Amount}
	if payload.ItemID != nil {
		productID, err := uuid.Parse(*payload.ItemID)
		if err != nil {
			return cartsvc.DeleteItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id")
		}
		input.ProductID = &productID
	}
	if payload.Amount != nil && payload.Amount.Sign() <= 0 {
		return cartsvc.DeleteItemInput{}, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	return input, nil
}

func toSetItemAmountInput(payload SetItemAmountRequest) (cartsvc.SetItemAmountInput, error) {
	input := cartsvc.SetItemAmountInput{Amount: payload.Amount}
	if payload.ItemID != nil {
		productID, err := uuid.Parse(*payload.ItemID)
		if err != nil {
			return cartsvc.SetItemAmountInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id")
		}
		input.ProductID = &productID
	}
	if payload.Amount != nil && payload.Amount.Sign() <= 0 {
		return cartsvc.SetItemAmountInput{}, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	return input, nil
}

func toReconcilePatch(payload ReconcileRequest) (cartsvc.ReconcilePatch, error) {
	patch := cartsvc.ReconcilePatch{
		UserID:   payload.User,
		IP:       payload.IP,
		Hash:     payload.Hash,
		OrderRef: payload.Order,
	}
	if payload.Items == nil {
		return patch, nil
	}
	items := make([]models.CartItem, 0, len(*payload.Items))
	for _, line := range *payload.Items {
		productID, err := uuid.Parse(line.ItemID)
		if err != nil {
			return cartsvc.ReconcilePatch{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id")
		}
		item := models.CartItem{
			ProductID:    productID,
			ExternalID:   line.ExternalID,
			OrderCode:    line.OrderCode,
			Amount:       line.Amount,
			ItemDesc:     line.ItemDesc,
			Properties:   types.Properties(line.Properties),
			Requirements: toRequirements(line.Requirements),
			URL:          line.URL,
		}
		if line.ParentID != nil {
			parentID, err := uuid.Parse(*line.ParentID)
			if err != nil {
				return cartsvc.ReconcilePatch{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid parent id")
			}
			item.ParentID = &parentID
		}
		if line.Prices != nil {
			item.Price = line.Prices.Price
			item.PriceNoTax = line.Prices.PriceNoTax
			item.PriceTotal = line.Prices.PriceTotal
			item.PriceTotalNoTax = line.Prices.PriceTotalNoTax
			item.Tax = line.Prices.Tax
		}
		items = append(items, item)
	}
	patch.Items = &items
	return patch, nil
}

func toRequirements(payload []RequirementPayload) types.Requirements {
	if len(payload) == 0 {
		return nil
	}
	requirements := make(types.Requirements, 0, len(payload))
	for _, pair := range payload {
		requirements = append(requirements, types.Requirement{Codename: pair.Codename, Value: pair.Value})
	}
	return requirements
}
