package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/avelezquez/shopcart-backend/pkg/enums"
)

// StockUnlimited is the sentinel stock level meaning "no finite stock".
const StockUnlimited = -1

// Product is the catalog record the cart snapshots from. Prices live here only
// so add-time snapshots can be captured; pricing itself is out of scope.
type Product struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	ExternalID      *string              `gorm:"column:external_id"`
	OrderCode       *string              `gorm:"column:order_code"`
	Title           string               `gorm:"column:title;not null"`
	Type            enums.ProductType    `gorm:"column:type;not null;default:'physical'"`
	Subtype         enums.ProductSubtype `gorm:"column:subtype;not null;default:'standard'"`
	StockLevel      int                  `gorm:"column:stock_level;not null;default:0"`
	Price           decimal.Decimal      `gorm:"column:price;type:numeric(12,4);not null"`
	PriceNoTax      decimal.Decimal      `gorm:"column:price_no_tax;type:numeric(12,4);not null"`
	PriceTotal      decimal.Decimal      `gorm:"column:price_total;type:numeric(12,4);not null"`
	PriceTotalNoTax decimal.Decimal      `gorm:"column:price_total_no_tax;type:numeric(12,4);not null"`
	Tax             decimal.Decimal      `gorm:"column:tax;type:numeric(12,4);not null"`
	Tags            pq.StringArray       `gorm:"column:tags;type:text[]"`
	URL             string               `gorm:"column:url;not null;default:''"`
	IsActive        bool                 `gorm:"column:is_active;not null;default:true"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// HasUnlimitedStock reports whether the product uses the unlimited sentinel.
func (p *Product) HasUnlimitedStock() bool {
	return p.StockLevel == StockUnlimited
}

// BeforeCreate assigns the primary key client-side.
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
