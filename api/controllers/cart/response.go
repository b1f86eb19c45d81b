package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/avelezquez/shopcart-backend/pkg/db/models"
	"github.com/avelezquez/shopcart-backend/pkg/types"
)

// CartView is the wire representation of a cart.
type CartView struct {
	ID          string     `json:"id"`
	User        *string    `json:"user,omitempty"`
	IP          string     `json:"ip,omitempty"`
	Hash        string     `json:"hash"`
	Order       *string    `json:"order,omitempty"`
	DateCreated time.Time  `json:"dateCreated"`
	DateUpdated time.Time  `json:"dateUpdated"`
	Items       []ItemView `json:"items"`
}

// ItemView is the wire representation of one cart line.
type ItemView struct {
	ItemID       string             `json:"itemId"`
	ExternalID   *string            `json:"externalId,omitempty"`
	OrderCode    *string            `json:"orderCode,omitempty"`
	Amount       decimal.Decimal    `json:"amount"`
	ParentID     *string            `json:"parentId,omitempty"`
	ItemDesc     *string            `json:"itemDesc,omitempty"`
	Properties   types.Properties   `json:"properties,omitempty"`
	Prices       PriceView          `json:"prices"`
	Requirements types.Requirements `json:"requirements,omitempty"`
	URL          string             `json:"url,omitempty"`
}

// PriceView snapshots the add-time prices for one line.
type PriceView struct {
	Price           decimal.Decimal `json:"price"`
	PriceNoTax      decimal.Decimal `json:"priceNoTax"`
	PriceTotal      decimal.Decimal `json:"priceTotal"`
	PriceTotalNoTax decimal.Decimal `json:"priceTotalNoTax"`
	Tax             decimal.Decimal `json:"tax"`
}

func newCartView(record *models.Cart) *CartView {
	if record == nil {
		return nil
	}
	view := &CartView{
		ID:          record.ID.String(),
		User:        record.UserID,
		IP:          record.IP,
		Hash:        record.Hash,
		Order:       record.OrderRef,
		DateCreated: record.CreatedAt,
		DateUpdated: record.UpdatedAt,
		Items:       make([]ItemView, 0, len(record.Items)),
	}
	for _, line := range record.Items {
		var parentID *string
		if line.ParentID != nil {
			s := line.ParentID.String()
			parentID = &s
		}
		view.Items = append(view.Items, ItemView{
			ItemID:     line.ProductID.String(),
			ExternalID: line.ExternalID,
			OrderCode:  line.OrderCode,
			ParentID:   parentID,
			Amount:     line.Amount,
			ItemDesc:   line.ItemDesc,
			Properties: line.Properties,
			Prices: PriceView{
				Price:           line.Price,
				PriceNoTax:      line.PriceNoTax,
				PriceTotal:      line.PriceTotal,
				PriceTotalNoTax: line.PriceTotalNoTax,
				Tax:             line.Tax,
			},
			Requirements: line.Requirements,
			URL:          line.URL,
		})
	}
	return view
}
