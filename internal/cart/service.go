// Package cart tracks scanned products through their cart, bought, and
// returned lifecycle.
package cart

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecoscan-in/ecoscan-backend/pkg/db"
	"github.com/ecoscan-in/ecoscan-backend/pkg/db/models"
	"github.com/ecoscan-in/ecoscan-backend/pkg/enums"
	pkgerrors "github.com/ecoscan-in/ecoscan-backend/pkg/errors"
)

// openLineIndex is the partial unique index guarding one open line per
// (user, product).
const openLineIndex = "idx_cart_lines_open_line"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type scanRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, userID, productID uuid.UUID) error
}

// Service exposes cart reconciliation and lifecycle operations.
type Service interface {
	AddScan(ctx context.Context, userID, productID uuid.UUID) (*models.CartLine, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error)
	ListBought(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error)
	UpdateQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) error
	Remove(ctx context.Context, userID, lineID uuid.UUID) error
	Count(ctx context.Context, userID uuid.UUID) (int, error)
	Deposit(ctx context.Context, userID uuid.UUID, boughtFrom string) (int64, error)
	Return(ctx context.Context, userID uuid.UUID, lineIDs []uuid.UUID, retailerID uuid.UUID) (int64, error)
}

type service struct {
	tx    txRunner
	repo  *Repository
	scans scanRecorder
	now   func() time.Time
}

// NewService builds the cart service.
func NewService(tx txRunner, repo *Repository, scans scanRecorder) (Service, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tx runner is required")
	}
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart repo is required")
	}
	if scans == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scan recorder is required")
	}
	return &service{tx: tx, repo: repo, scans: scans, now: time.Now}, nil
}

// AddScan applies one scan of a product: the open line's quantity grows by
// one, or a fresh line starts at one. The scan event is recorded either way.
func (s *service) AddScan(ctx context.Context, userID, productID uuid.UUID) (*models.CartLine, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	var line *models.CartLine
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindOpenLine(ctx, userID, productID)
		if err != nil {
			return err
		}

		if existing != nil {
			if err := repo.IncrementQuantity(ctx, existing.ID); err != nil {
				return err
			}
			existing.Quantity++
			line = existing
		} else {
			fresh := &models.CartLine{
				ProductID: productID,
				CreatedBy: userID,
				Quantity:  1,
				Status:    enums.CartLineStatusCart,
			}
			if err := repo.Insert(ctx, fresh); err != nil {
				if !db.IsUniqueViolation(err, openLineIndex) {
					return err
				}
				// Lost the insert race to a concurrent scan; fold into the
				// row that won.
				winner, findErr := repo.FindOpenLine(ctx, userID, productID)
				if findErr != nil {
					return findErr
				}
				if winner == nil {
					return err
				}
				if err := repo.IncrementQuantity(ctx, winner.ID); err != nil {
					return err
				}
				winner.Quantity++
				line = winner
			} else {
				line = fresh
			}
		}

		return s.scans.Record(ctx, tx, userID, productID)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "apply scan to cart")
	}
	return line, nil
}

// List returns the user's open cart lines with their products.
func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	lines, err := s.repo.ListByStatus(ctx, userID, enums.CartLineStatusCart)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cart lines")
	}
	return lines, nil
}

// ListBought returns the user's bought lines, the recycle candidates.
func (s *service) ListBought(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	lines, err := s.repo.ListByStatus(ctx, userID, enums.CartLineStatusBought)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list bought lines")
	}
	return lines, nil
}

// UpdateQuantity sets the quantity on an open line.
func (s *service) UpdateQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) error {
	if userID == uuid.Nil || lineID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id and line id are required")
	}
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	affected, err := s.repo.UpdateQuantity(ctx, userID, lineID, quantity)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart quantity")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	return nil
}

// Remove deletes an open line.
func (s *service) Remove(ctx context.Context, userID, lineID uuid.UUID) error {
	if userID == uuid.Nil || lineID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id and line id are required")
	}
	affected, err := s.repo.Delete(ctx, userID, lineID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart line")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	return nil
}

// Count sums the item quantities in the user's open cart.
func (s *service) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	count, err := s.repo.CountOpenItems(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count cart items")
	}
	return count, nil
}

// Deposit moves every open line to bought after payment at a retailer.
func (s *service) Deposit(ctx context.Context, userID uuid.UUID, boughtFrom string) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if strings.TrimSpace(boughtFrom) == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "bought_from is required")
	}
	affected, err := s.repo.MarkBought(ctx, userID, strings.TrimSpace(boughtFrom), s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark cart bought")
	}
	if affected == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}
	return affected, nil
}

// Return moves the given lines to returned against the retailer that took
// them back.
func (s *service) Return(ctx context.Context, userID uuid.UUID, lineIDs []uuid.UUID, retailerID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if len(lineIDs) == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "at least one cart line is required")
	}
	if retailerID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "retailer id is required")
	}

	affected, err := s.repo.MarkReturned(ctx, userID, lineIDs, retailerID, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark lines returned")
	}
	if affected == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeStateConflict, "no lines eligible for return")
	}
	return affected, nil
}
