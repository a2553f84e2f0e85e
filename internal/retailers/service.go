// Package retailers resolves scanned UPI payment QRs into retailer records,
// creating them lazily on first sight of a handle.
package retailers

import (
	"context"

	"github.com/google/uuid"

	"github.com/ecoscan-in/ecoscan-backend/internal/upi"
	"github.com/ecoscan-in/ecoscan-backend/pkg/db"
	"github.com/ecoscan-in/ecoscan-backend/pkg/db/models"
	pkgerrors "github.com/ecoscan-in/ecoscan-backend/pkg/errors"
	"github.com/ecoscan-in/ecoscan-backend/pkg/maps"
)

type geocoder interface {
	ReverseGeocode(ctx context.Context, latitude, longitude float64) (*maps.Address, error)
}

// Location is the scanner's GPS fix when the retailer QR was captured.
type Location struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64
}

// Service resolves retailers from UPI QR payloads.
type Service interface {
	ResolveFromQR(ctx context.Context, raw string, location Location) (*models.Retailer, error)
	ResolveUPI(ctx context.Context, data *upi.Data, location Location) (*models.Retailer, error)
}

type service struct {
	repo    *Repository
	geocode geocoder
}

// NewService builds the retailer service. The geocoder is optional; without
// it retailers are stored with coordinates only.
func NewService(repo *Repository, geocode geocoder) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "retailer repo is required")
	}
	return &service{repo: repo, geocode: geocode}, nil
}

// ResolveFromQR parses a raw QR payload and resolves the retailer it names.
func (s *service) ResolveFromQR(ctx context.Context, raw string, location Location) (*models.Retailer, error) {
	data, ok := upi.Parse(raw)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "not a UPI payment code")
	}
	return s.ResolveUPI(ctx, data, location)
}

// ResolveUPI returns the retailer for a parsed UPI payload, creating it on
// first sight. An existing handle wins regardless of the fresh scan's
// location; the stored fix is the one captured at registration.
func (s *service) ResolveUPI(ctx context.Context, data *upi.Data, location Location) (*models.Retailer, error) {
	if !upi.Validate(data) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid UPI payee data")
	}
	if location.Latitude == 0 && location.Longitude == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location is required")
	}

	existing, err := s.repo.FindByUPIHandle(ctx, data.PayeeAddress)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup retailer")
	}
	if existing != nil {
		return existing, nil
	}

	retailer := &models.Retailer{
		ID:        uuid.New(),
		UPIHandle: data.PayeeAddress,
		Name:      data.PayeeName,
		Latitude:  location.Latitude,
		Longitude: location.Longitude,
		Accuracy:  location.Accuracy,
	}
	if s.geocode != nil {
		// Best effort; a geocoding outage must not block the recycle flow.
		if address, err := s.geocode.ReverseGeocode(ctx, location.Latitude, location.Longitude); err == nil && address != nil {
			formatted := address.FormattedAddress
			retailer.FormattedAddress = &formatted
		}
	}

	if err := s.repo.Create(ctx, retailer); err != nil {
		if db.IsUniqueViolation(err, "") {
			// Someone registered the handle between lookup and insert.
			return s.repo.FindByUPIHandle(ctx, data.PayeeAddress)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create retailer")
	}
	return retailer, nil
}
