package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Product is a catalog entry resolved from a barcode (GTIN) or an AI
// detection. AI-detected items without a barcode carry a nil GTIN and are
// keyed by (name, brand) instead.
type Product struct {
	ID              uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	GTIN            *string        `gorm:"column:gtin;uniqueIndex"`
	Brand           *string        `gorm:"column:brand"`
	Name            string         `gorm:"column:name;not null"`
	Category        *string        `gorm:"column:category"`
	SubCategory     *string        `gorm:"column:sub_category"`
	Description     *string        `gorm:"column:description"`
	Material        *string        `gorm:"column:material"`
	NetWeight       *float64       `gorm:"column:net_weight"`
	MeasurementUnit *string        `gorm:"column:measurement_unit"`
	CountryOfOrigin *string        `gorm:"column:country_of_origin"`
	Images          pq.StringArray `gorm:"column:images;type:text[]"`
	CreatedBy       *uuid.UUID     `gorm:"column:created_by;type:uuid"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
