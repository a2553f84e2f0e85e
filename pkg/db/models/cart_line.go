package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ecoscan-in/ecoscan-backend/pkg/enums"
)

// CartLine represents one scanned product instance owned by a user. Repeated
// scans of the same product while status is "cart" bump Quantity instead of
// creating a second row; a partial unique index on
// (created_by, product_id) WHERE status = 'cart' backs that guarantee.
type CartLine struct {
	ID         uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID  uuid.UUID            `gorm:"column:product_id;type:uuid;not null"`
	CreatedBy  uuid.UUID            `gorm:"column:created_by;type:uuid;not null"`
	Quantity   int                  `gorm:"column:quantity;not null;default:1"`
	Status     enums.CartLineStatus `gorm:"column:status;not null;default:'cart'"`
	BoughtFrom *string              `gorm:"column:bought_from"`
	BoughtAt   *time.Time           `gorm:"column:bought_at"`
	ReturnedTo *uuid.UUID           `gorm:"column:returned_to;type:uuid"`
	ReturnedAt *time.Time           `gorm:"column:returned_at"`
	Product    *Product             `gorm:"foreignKey:ProductID"`
	CreatedAt  time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
