package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ecoscan-in/ecoscan-backend/pkg/db/models"
)

// Repository encapsulates product catalog persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads a product or returns nil when it does not exist.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByGTIN loads a product by barcode or returns nil when it does not exist.
func (r *Repository) FindByGTIN(ctx context.Context, gtin string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Where("gtin = ?", gtin).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByNameAndBrand locates a barcode-less product by its detection identity.
func (r *Repository) FindByNameAndBrand(ctx context.Context, name string, brand *string) (*models.Product, error) {
	query := r.db.WithContext(ctx).Where("gtin IS NULL AND name = ?", name)
	if brand != nil {
		query = query.Where("brand = ?", *brand)
	} else {
		query = query.Where("brand IS NULL")
	}

	var product models.Product
	err := query.First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Create inserts a new product row.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(product).Error
}

// UpsertByGTIN inserts the product or refreshes catalog fields when the
// barcode already exists. Concurrent scans of a new barcode both land on the
// same row.
func (r *Repository) UpsertByGTIN(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.GTIN == nil || *product.GTIN == "" {
		return nil, gorm.ErrInvalidValue
	}
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "gtin"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"brand", "name", "category", "sub_category", "description",
				"country_of_origin", "images", "updated_at",
			}),
		}).
		Create(product).Error
	if err != nil {
		return nil, err
	}

	// Re-read so a conflict resolves to the surviving row's ID.
	return r.FindByGTIN(ctx, *product.GTIN)
}
