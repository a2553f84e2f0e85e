// Package catalog resolves scanned barcodes and AI detections into persisted
// product rows, consulting the GS1 DataKart catalog for unknown barcodes.
package catalog

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ecoscan-in/ecoscan-backend/internal/vision"
	"github.com/ecoscan-in/ecoscan-backend/pkg/db"
	"github.com/ecoscan-in/ecoscan-backend/pkg/db/models"
	pkgerrors "github.com/ecoscan-in/ecoscan-backend/pkg/errors"
	"github.com/ecoscan-in/ecoscan-backend/pkg/gs1"
)

var gtinPattern = regexp.MustCompile(`^\d{8,14}$`)

type gs1Lookup interface {
	Lookup(ctx context.Context, gtin string) (*gs1.Product, error)
}

// Service resolves scans into catalog products.
type Service interface {
	ResolveBarcode(ctx context.Context, gtin string, userID uuid.UUID) (*models.Product, error)
	ResolveDetection(ctx context.Context, detection vision.Detection, userID uuid.UUID) (*models.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type service struct {
	repo   *Repository
	lookup gs1Lookup
}

// NewService builds the catalog service. The GS1 lookup is optional; without
// it unknown barcodes become stub products named after their GTIN.
func NewService(repo *Repository, lookup gs1Lookup) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog repo is required")
	}
	return &service{repo: repo, lookup: lookup}, nil
}

// Get loads a product by ID.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

// ResolveBarcode returns the product for a GTIN, consulting the external
// catalog and persisting the result on a local miss.
func (s *service) ResolveBarcode(ctx context.Context, gtin string, userID uuid.UUID) (*models.Product, error) {
	trimmed := strings.TrimSpace(gtin)
	if !gtinPattern.MatchString(trimmed) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gtin must be 8 to 14 digits")
	}

	existing, err := s.repo.FindByGTIN(ctx, trimmed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup product by gtin")
	}
	if existing != nil {
		return existing, nil
	}

	product := s.fetchCatalogEntry(ctx, trimmed)
	if userID != uuid.Nil {
		product.CreatedBy = &userID
	}

	persisted, err := s.repo.UpsertByGTIN(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist catalog product")
	}
	return persisted, nil
}

// ResolveDetection returns the product matching an AI detection, creating a
// barcode-less row keyed by (name, brand) on first sight.
func (s *service) ResolveDetection(ctx context.Context, detection vision.Detection, userID uuid.UUID) (*models.Product, error) {
	name := strings.TrimSpace(detection.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "detection name is required")
	}

	brand := optional(detection.Brand)
	existing, err := s.repo.FindByNameAndBrand(ctx, name, brand)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup product by detection")
	}
	if existing != nil {
		return existing, nil
	}

	product := &models.Product{
		Name:            name,
		Brand:           brand,
		Description:     optional(detection.Description),
		Material:        optional(detection.Material),
		MeasurementUnit: optional(detection.MeasurementUnit),
	}
	if detection.NetWeight > 0 {
		weight := detection.NetWeight
		product.NetWeight = &weight
	}
	if userID != uuid.Nil {
		product.CreatedBy = &userID
	}

	if err := s.repo.Create(ctx, product); err != nil {
		if db.IsUniqueViolation(err, "") {
			return s.repo.FindByNameAndBrand(ctx, name, brand)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist detected product")
	}
	return product, nil
}

func (s *service) fetchCatalogEntry(ctx context.Context, gtin string) *models.Product {
	product := &models.Product{
		GTIN: &gtin,
		Name: gtin,
	}
	if s.lookup == nil {
		return product
	}

	entry, err := s.lookup.Lookup(ctx, gtin)
	if err != nil || entry == nil {
		// A catalog outage should not block the scan; the stub row gets
		// refreshed by the upsert on a later successful lookup.
		return product
	}

	if entry.Name != "" {
		product.Name = entry.Name
	}
	product.Brand = optional(entry.Brand)
	product.Description = optional(entry.Description)
	product.Category = optional(entry.Category)
	product.SubCategory = optional(entry.SubCategory)
	product.CountryOfOrigin = optional(entry.CountryOfOrigin)
	if len(entry.Images) > 0 {
		product.Images = pq.StringArray(entry.Images)
	}
	return product
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || strings.EqualFold(trimmed, "unknown") {
		return nil
	}
	return &trimmed
}
