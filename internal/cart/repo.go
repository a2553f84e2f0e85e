package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecoscan-in/ecoscan-backend/pkg/db/models"
	"github.com/ecoscan-in/ecoscan-backend/pkg/enums"
)

// Repository encapsulates cart line persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindOpenLine loads the user's open cart line for a product, nil when absent.
func (r *Repository) FindOpenLine(ctx context.Context, userID, productID uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	err := r.db.WithContext(ctx).
		Where("created_by = ? AND product_id = ? AND status = ?", userID, productID, enums.CartLineStatusCart).
		First(&line).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// FindByID loads one of the user's cart lines, nil when absent.
func (r *Repository) FindByID(ctx context.Context, userID, lineID uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("id = ? AND created_by = ?", lineID, userID).
		First(&line).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// FindByIDs loads the user's cart lines matching the given IDs.
func (r *Repository) FindByIDs(ctx context.Context, userID uuid.UUID, lineIDs []uuid.UUID) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("created_by = ? AND id IN ?", userID, lineIDs).
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// ListByStatus returns the user's cart lines in one status, newest first.
func (r *Repository) ListByStatus(ctx context.Context, userID uuid.UUID, status enums.CartLineStatus) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("created_by = ? AND status = ?", userID, status).
		Order("created_at DESC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// IncrementQuantity bumps a line's quantity by one in a single statement.
func (r *Repository) IncrementQuantity(ctx context.Context, lineID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("id = ?", lineID).
		UpdateColumn("quantity", gorm.Expr("quantity + 1")).Error
}

// Insert creates a new cart line row.
func (r *Repository) Insert(ctx context.Context, line *models.CartLine) error {
	if line.ID == uuid.Nil {
		line.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(line).Error
}

// UpdateQuantity sets an open line's quantity.
func (r *Repository) UpdateQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("id = ? AND created_by = ? AND status = ?", lineID, userID, enums.CartLineStatusCart).
		Update("quantity", quantity)
	return result.RowsAffected, result.Error
}

// Delete removes one of the user's open cart lines.
func (r *Repository) Delete(ctx context.Context, userID, lineID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND created_by = ? AND status = ?", lineID, userID, enums.CartLineStatusCart).
		Delete(&models.CartLine{})
	return result.RowsAffected, result.Error
}

// CountOpenItems sums the quantities across the user's open lines.
func (r *Repository) CountOpenItems(ctx context.Context, userID uuid.UUID) (int, error) {
	var total *int
	err := r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Select("SUM(quantity)").
		Where("created_by = ? AND status = ?", userID, enums.CartLineStatusCart).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// MarkBought moves all of the user's open lines to bought, stamping where
// and when the purchase happened.
func (r *Repository) MarkBought(ctx context.Context, userID uuid.UUID, boughtFrom string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("created_by = ? AND status IN ?", userID, enums.TransitionSources(enums.CartLineStatusBought)).
		Updates(map[string]any{
			"status":      enums.CartLineStatusBought,
			"bought_from": boughtFrom,
			"bought_at":   at,
		})
	return result.RowsAffected, result.Error
}

// MarkReturned moves the given lines to returned, stamping the retailer and
// time. Only lines in a status that may still transition are touched.
func (r *Repository) MarkReturned(ctx context.Context, userID uuid.UUID, lineIDs []uuid.UUID, retailerID uuid.UUID, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("created_by = ? AND id IN ? AND status IN ?", userID, lineIDs,
			enums.TransitionSources(enums.CartLineStatusReturned)).
		Updates(map[string]any{
			"status":      enums.CartLineStatusReturned,
			"returned_to": retailerID,
			"returned_at": at,
		})
	return result.RowsAffected, result.Error
}

// SumQuantitiesByStatus aggregates quantity per status inside a time window.
// A Nil userID aggregates across all users.
func (r *Repository) SumQuantitiesByStatus(ctx context.Context, userID uuid.UUID, from, to time.Time, statuses []enums.CartLineStatus) (map[enums.CartLineStatus]int, error) {
	type row struct {
		Status   enums.CartLineStatus
		Quantity int
	}
	query := r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Select("status, SUM(quantity) AS quantity").
		Where("created_at >= ? AND created_at <= ? AND status IN ?", from, to, statuses).
		Group("status")
	if userID != uuid.Nil {
		query = query.Where("created_by = ?", userID)
	}
	var rows []row
	err := query.Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	sums := make(map[enums.CartLineStatus]int, len(rows))
	for _, r := range rows {
		sums[r.Status] = r.Quantity
	}
	return sums, nil
}
