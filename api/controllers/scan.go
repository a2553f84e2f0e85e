package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ecoscan-in/ecoscan-backend/api/middleware"
	"github.com/ecoscan-in/ecoscan-backend/api/responses"
	"github.com/ecoscan-in/ecoscan-backend/api/validators"
	"github.com/ecoscan-in/ecoscan-backend/internal/cart"
	"github.com/ecoscan-in/ecoscan-backend/internal/catalog"
	"github.com/ecoscan-in/ecoscan-backend/internal/vision"
	"github.com/ecoscan-in/ecoscan-backend/pkg/db/models"
	"github.com/ecoscan-in/ecoscan-backend/pkg/enums"
	pkgerrors "github.com/ecoscan-in/ecoscan-backend/pkg/errors"
	"github.com/ecoscan-in/ecoscan-backend/pkg/logger"
)

type scanFramePayload struct {
	Frame string `json:"frame" validate:"required"`
	Mode  string `json:"mode"`
}

type scanBarcodePayload struct {
	GTIN string `json:"gtin" validate:"required"`
}

type scanDetectionPayload struct {
	Brand           string  `json:"brand"`
	Name            string  `json:"name" validate:"required"`
	Material        string  `json:"material"`
	Description     string  `json:"description"`
	NetWeight       float64 `json:"net_weight"`
	MeasurementUnit string  `json:"measurement_unit"`
	Confidence      float64 `json:"confidence"`
}

type scanResultResponse struct {
	Product *models.Product  `json:"product"`
	Line    *models.CartLine `json:"line"`
}

func requireUser(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return userID, nil
}

// ScanFrame runs one camera frame through the detection chain and returns the
// best detection. Nothing is added to the cart.
func ScanFrame(gateway vision.Gateway, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if gateway == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vision gateway unavailable"))
			return
		}

		var payload scanFramePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		mode, err := enums.ParseScanMode(payload.Mode)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid scan mode"))
			return
		}

		detection, err := gateway.Detect(ctx, payload.Frame, mode)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, detection)
	}
}

// ScanBarcode resolves a GTIN against the catalog and applies one scan to the
// caller's cart.
func ScanBarcode(catalogSvc catalog.Service, cartSvc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if catalogSvc == nil || cartSvc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "scan services unavailable"))
			return
		}

		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload scanBarcodePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		product, err := catalogSvc.ResolveBarcode(ctx, payload.GTIN, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		line, err := cartSvc.AddScan(ctx, userID, product.ID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, scanResultResponse{Product: product, Line: line})
	}
}

// ScanDetection persists an AI detection as a catalog product and applies one
// scan to the caller's cart.
func ScanDetection(catalogSvc catalog.Service, cartSvc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if catalogSvc == nil || cartSvc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "scan services unavailable"))
			return
		}

		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload scanDetectionPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		detection := vision.Detection{
			Brand:           payload.Brand,
			Name:            payload.Name,
			Material:        payload.Material,
			Description:     payload.Description,
			NetWeight:       payload.NetWeight,
			MeasurementUnit: payload.MeasurementUnit,
			Confidence:      payload.Confidence,
		}

		product, err := catalogSvc.ResolveDetection(ctx, detection, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		line, err := cartSvc.AddScan(ctx, userID, product.ID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, scanResultResponse{Product: product, Line: line})
	}
}
