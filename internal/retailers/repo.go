package retailers

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ecoscan-in/ecoscan-backend/pkg/db/models"
)

// Repository encapsulates retailer persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a retailer repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByUPIHandle loads a retailer by its unique handle, nil when absent.
func (r *Repository) FindByUPIHandle(ctx context.Context, handle string) (*models.Retailer, error) {
	var retailer models.Retailer
	err := r.db.WithContext(ctx).Where("upi_handle = ?", handle).First(&retailer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &retailer, nil
}

// Create inserts a new retailer row.
func (r *Repository) Create(ctx context.Context, retailer *models.Retailer) error {
	return r.db.WithContext(ctx).Create(retailer).Error
}
