package models

import (
	"time"

	"github.com/google/uuid"
)

// Retailer is created lazily the first time a UPI handle is scanned and
// reused afterwards by lookup on the unique handle.
type Retailer struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UPIHandle        string    `gorm:"column:upi_handle;not null;uniqueIndex"`
	Name             string    `gorm:"column:name;not null"`
	Latitude         float64   `gorm:"column:latitude;not null"`
	Longitude        float64   `gorm:"column:longitude;not null"`
	Accuracy         float64   `gorm:"column:accuracy;not null"`
	FormattedAddress *string   `gorm:"column:formatted_address"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
