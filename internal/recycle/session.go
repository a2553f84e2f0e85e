package recycle

import (
	"time"

	"github.com/google/uuid"

	"github.com/ecoscan-in/ecoscan-backend/pkg/enums"
)

// SessionItem is one candidate cart line inside a recycling session.
type SessionItem struct {
	LineID    uuid.UUID `json:"line_id"`
	ProductID uuid.UUID `json:"product_id"`
	GTIN      string    `json:"gtin,omitempty"`
	Name      string    `json:"name"`
	Scanned   bool      `json:"scanned"`
}

// Session is the server-held state of one user's recycling flow. Absence of
// a stored session means the user is idle.
type Session struct {
	UserID       uuid.UUID          `json:"user_id"`
	State        enums.RecycleState `json:"state"`
	Items        []SessionItem      `json:"items"`
	PendingLine  *uuid.UUID         `json:"pending_line,omitempty"`
	RetailerID   *uuid.UUID         `json:"retailer_id,omitempty"`
	RetailerName string             `json:"retailer_name,omitempty"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// ScannedCount returns how many candidates made it into the recycle bag.
func (s *Session) ScannedCount() int {
	count := 0
	for _, item := range s.Items {
		if item.Scanned {
			count++
		}
	}
	return count
}

// ScannedLineIDs returns the cart line IDs confirmed into the bag.
func (s *Session) ScannedLineIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.Items))
	for _, item := range s.Items {
		if item.Scanned {
			ids = append(ids, item.LineID)
		}
	}
	return ids
}

func (s *Session) findByCode(code string) *SessionItem {
	for i := range s.Items {
		item := &s.Items[i]
		if item.GTIN != "" && item.GTIN == code {
			return item
		}
		if item.ProductID.String() == code || item.LineID.String() == code {
			return item
		}
	}
	return nil
}

func (s *Session) findByLineID(lineID uuid.UUID) *SessionItem {
	for i := range s.Items {
		if s.Items[i].LineID == lineID {
			return &s.Items[i]
		}
	}
	return nil
}
