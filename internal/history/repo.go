package history

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecoscan-in/ecoscan-backend/pkg/db/models"
	"github.com/ecoscan-in/ecoscan-backend/pkg/pagination"
)

// Repository encapsulates scan event persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a history repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Record appends one scan event. When tx is non-nil the insert joins the
// caller's transaction so the event lands together with the cart change.
func (r *Repository) Record(ctx context.Context, tx *gorm.DB, userID, productID uuid.UUID) error {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	event := models.ScanEvent{
		ID:        uuid.New(),
		ProductID: productID,
		CreatedBy: userID,
	}
	return conn.WithContext(ctx).Create(&event).Error
}

// Timestamps returns the raw scan times for a user inside a window, oldest
// first. Bucketing happens in the service so the query stays portable.
func (r *Repository) Timestamps(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]time.Time, error) {
	var rows []models.ScanEvent
	err := r.db.WithContext(ctx).
		Select("created_at").
		Where("created_by = ? AND created_at >= ? AND created_at < ?", userID, from, to).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	times := make([]time.Time, 0, len(rows))
	for _, row := range rows {
		times = append(times, row.CreatedAt)
	}
	return times, nil
}

// List returns a cursor-paginated page of the user's scan events, newest
// first, with products preloaded.
func (r *Repository) List(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.ScanEvent, string, error) {
	normalizedLimit := pagination.NormalizeLimit(params.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)

	decodedCursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	query := r.db.WithContext(ctx).
		Preload("Product").
		Where("created_by = ?", userID)
	if decodedCursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	var events []models.ScanEvent
	if err := query.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer).Find(&events).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(events) > normalizedLimit {
		events = events[:normalizedLimit]
		last := events[len(events)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return events, nextCursor, nil
}
