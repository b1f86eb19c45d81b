package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cart is the persisted record of a buyer's in-progress selection. Exactly one
// active (non-checked-out) cart exists per identity hash at any time.
type Cart struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	UserID    *string    `gorm:"column:user_id"`
	IP        string     `gorm:"column:ip;not null;default:''"`
	Hash      string     `gorm:"column:hash;not null;uniqueIndex:idx_carts_hash"`
	OrderRef  *string    `gorm:"column:order_ref"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the primary key client-side so the model works on both
// Postgres and the sqlite test harness.
func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
