package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/avelezquez/shopcart-backend/pkg/types"
)

// CartItem is one line in a cart: a product reference plus quantity,
// configuration and the price snapshot captured at add time.
type CartItem struct {
	ID              uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	CartID          uuid.UUID          `gorm:"column:cart_id;type:uuid;not null;index"`
	ProductID       uuid.UUID          `gorm:"column:product_id;type:uuid;not null"`
	ExternalID      *string            `gorm:"column:external_id"`
	OrderCode       *string            `gorm:"column:order_code"`
	Amount          decimal.Decimal    `gorm:"column:amount;type:numeric(12,4);not null"`
	ParentID        *uuid.UUID         `gorm:"column:parent_id;type:uuid"`
	ItemDesc        *string            `gorm:"column:item_desc"`
	Properties      types.Properties   `gorm:"column:properties;type:jsonb;serializer:json"`
	Price           decimal.Decimal    `gorm:"column:price;type:numeric(12,4);not null"`
	PriceNoTax      decimal.Decimal    `gorm:"column:price_no_tax;type:numeric(12,4);not null"`
	PriceTotal      decimal.Decimal    `gorm:"column:price_total;type:numeric(12,4);not null"`
	PriceTotalNoTax decimal.Decimal    `gorm:"column:price_total_no_tax;type:numeric(12,4);not null"`
	Tax             decimal.Decimal    `gorm:"column:tax;type:numeric(12,4);not null"`
	Requirements    types.Requirements `gorm:"column:requirements;type:jsonb;serializer:json"`
	URL             string             `gorm:"column:url;not null;default:''"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the primary key client-side.
func (i *CartItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
