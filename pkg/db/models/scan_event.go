package models

import (
	"time"

	"github.com/google/uuid"
)

// ScanEvent records one scan of a product by a user, independent of whether
// the scan created a cart line or bumped a quantity. Feeds the daily scan
// counts and history views.
type ScanEvent struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null;index"`
	Product   *Product  `gorm:"foreignKey:ProductID"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index"`
}
