// Package recycle drives the return-and-recycle workflow as an explicit
// server-side state machine, with sessions held in Redis.
package recycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ecoscan-in/ecoscan-backend/internal/retailers"
	"github.com/ecoscan-in/ecoscan-backend/internal/upi"
	"github.com/ecoscan-in/ecoscan-backend/pkg/db/models"
	"github.com/ecoscan-in/ecoscan-backend/pkg/enums"
	pkgerrors "github.com/ecoscan-in/ecoscan-backend/pkg/errors"
	"github.com/ecoscan-in/ecoscan-backend/pkg/redis"
)

// Outcome describes what a scan did to the session.
type Outcome string

const (
	OutcomeAlreadyScanned      Outcome = "already_scanned"
	OutcomePendingConfirmation Outcome = "pending_confirmation"
	OutcomeRetailerResolved    Outcome = "retailer_resolved"
)

// ScanResult is the session change produced by one scan.
type ScanResult struct {
	Outcome  Outcome          `json:"outcome"`
	LineID   *uuid.UUID       `json:"line_id,omitempty"`
	Retailer *models.Retailer `json:"retailer,omitempty"`
	Session  *Session         `json:"session"`
}

type lineLoader interface {
	FindByIDs(ctx context.Context, userID uuid.UUID, lineIDs []uuid.UUID) ([]models.CartLine, error)
}

type returner interface {
	Return(ctx context.Context, userID uuid.UUID, lineIDs []uuid.UUID, retailerID uuid.UUID) (int64, error)
}

type retailerResolver interface {
	ResolveUPI(ctx context.Context, data *upi.Data, location retailers.Location) (*models.Retailer, error)
}

// Service exposes the recycling session workflow.
type Service interface {
	Start(ctx context.Context, userID uuid.UUID, lineIDs []uuid.UUID) (*Session, error)
	Get(ctx context.Context, userID uuid.UUID) (*Session, error)
	Scan(ctx context.Context, userID uuid.UUID, code string, location retailers.Location) (*ScanResult, error)
	ConfirmItem(ctx context.Context, userID, lineID uuid.UUID, accept bool) (*Session, error)
	Submit(ctx context.Context, userID uuid.UUID) (*Session, error)
	Cancel(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	store     redis.SessionStore
	lines     lineLoader
	returns   returner
	retailers retailerResolver
	ttl       time.Duration
	now       func() time.Time
}

// NewService builds the recycle service.
func NewService(store redis.SessionStore, lines lineLoader, returns returner, resolver retailerResolver, ttl time.Duration) (Service, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session store is required")
	}
	if lines == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "line loader is required")
	}
	if returns == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "returner is required")
	}
	if resolver == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "retailer resolver is required")
	}
	if ttl <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session ttl must be positive")
	}
	return &service{
		store:     store,
		lines:     lines,
		returns:   returns,
		retailers: resolver,
		ttl:       ttl,
		now:       time.Now,
	}, nil
}

// Start opens a session over the user's chosen bought lines and replaces any
// session already underway.
func (s *service) Start(ctx context.Context, userID uuid.UUID, lineIDs []uuid.UUID) (*Session, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if len(lineIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one cart line is required")
	}

	lines, err := s.lines.FindByIDs(ctx, userID, lineIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load candidate lines")
	}
	if len(lines) != len(lineIDs) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "one or more cart lines not found")
	}

	items := make([]SessionItem, 0, len(lines))
	for _, line := range lines {
		if line.Status != enums.CartLineStatusBought {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cart line %s is %s, only bought items can be recycled", line.ID, line.Status))
		}
		item := SessionItem{
			LineID:    line.ID,
			ProductID: line.ProductID,
		}
		if line.Product != nil {
			item.Name = line.Product.Name
			if line.Product.GTIN != nil {
				item.GTIN = *line.Product.GTIN
			}
		}
		items = append(items, item)
	}

	session := &Session{
		UserID:    userID,
		State:     enums.RecycleStateAwaitingProductScan,
		Items:     items,
		UpdatedAt: s.now().UTC(),
	}
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Get returns the current session, or an idle one when nothing is underway.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*Session, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	session, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return &Session{UserID: userID, State: enums.RecycleStateIdle}, nil
	}
	return session, nil
}

// Scan routes one decoded symbol into the session. Digits are matched
// against the candidate bag; anything else is treated as a retailer UPI QR
// once at least one item is bagged.
func (s *service) Scan(ctx context.Context, userID uuid.UUID, code string, location retailers.Location) (*ScanResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}

	session, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no recycling session in progress")
	}
	if session.State != enums.RecycleStateAwaitingProductScan {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("session is %s, not accepting scans", session.State))
	}
	if session.PendingLine != nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "a confirmation is already pending")
	}

	if isNumeric(code) {
		return s.scanProduct(ctx, session, code)
	}
	return s.scanRetailer(ctx, session, code, location)
}

func (s *service) scanProduct(ctx context.Context, session *Session, code string) (*ScanResult, error) {
	item := session.findByCode(code)
	if item == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "scanned item is not in the recycle bag")
	}
	if item.Scanned {
		return &ScanResult{
			Outcome: OutcomeAlreadyScanned,
			LineID:  &item.LineID,
			Session: session,
		}, nil
	}

	session.PendingLine = &item.LineID
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return &ScanResult{
		Outcome: OutcomePendingConfirmation,
		LineID:  &item.LineID,
		Session: session,
	}, nil
}

func (s *service) scanRetailer(ctx context.Context, session *Session, code string, location retailers.Location) (*ScanResult, error) {
	if session.ScannedCount() == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scan at least one item before the retailer QR")
	}

	data, ok := upi.Parse(code)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "not a UPI payment code")
	}

	// The session sits in awaiting_retailer_scan only for the duration of
	// the resolution. A failure reverts it, so it is never persisted and the
	// user keeps scanning products.
	session.State = enums.RecycleStateAwaitingRetailerScan
	retailer, err := s.retailers.ResolveUPI(ctx, data, location)
	if err != nil {
		session.State = enums.RecycleStateAwaitingProductScan
		return nil, err
	}

	session.State = enums.RecycleStateConfirming
	session.RetailerID = &retailer.ID
	session.RetailerName = retailer.Name
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return &ScanResult{
		Outcome:  OutcomeRetailerResolved,
		Retailer: retailer,
		Session:  session,
	}, nil
}

// ConfirmItem resolves the pending "add to recycle bag?" prompt. Declining
// returns the session to where it was with no side effects.
func (s *service) ConfirmItem(ctx context.Context, userID, lineID uuid.UUID, accept bool) (*Session, error) {
	if userID == uuid.Nil || lineID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and line id are required")
	}

	session, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no recycling session in progress")
	}
	if session.PendingLine == nil || *session.PendingLine != lineID {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no confirmation pending for this line")
	}

	if accept {
		if item := session.findByLineID(lineID); item != nil {
			item.Scanned = true
		}
	}
	session.PendingLine = nil
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Submit executes the return mutation for the bagged lines. On failure the
// session stays in confirming so the user can retry.
func (s *service) Submit(ctx context.Context, userID uuid.UUID) (*Session, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	session, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no recycling session in progress")
	}
	if session.State != enums.RecycleStateConfirming {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("session is %s, nothing to submit", session.State))
	}
	if session.RetailerID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no retailer resolved for this session")
	}
	scanned := session.ScannedLineIDs()
	if len(scanned) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no items in the recycle bag")
	}

	if _, err := s.returns.Return(ctx, userID, scanned, *session.RetailerID); err != nil {
		return nil, err
	}

	session.State = enums.RecycleStateSubmitted
	session.UpdatedAt = s.now().UTC()
	if err := s.store.Del(ctx, s.store.SessionKey(userID.String())); err != nil {
		// The mutation committed; a stale session expiring by TTL is fine.
		return session, nil
	}
	return session, nil
}

// Cancel abandons any session in progress.
func (s *service) Cancel(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if err := s.store.Del(ctx, s.store.SessionKey(userID.String())); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "drop recycling session")
	}
	return nil
}

func (s *service) load(ctx context.Context, userID uuid.UUID) (*Session, error) {
	raw, err := s.store.Get(ctx, s.store.SessionKey(userID.String()))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load recycling session")
	}

	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode recycling session")
	}
	return &session, nil
}

func (s *service) save(ctx context.Context, session *Session) error {
	session.UpdatedAt = s.now().UTC()
	encoded, err := json.Marshal(session)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode recycling session")
	}
	if err := s.store.Set(ctx, s.store.SessionKey(session.UserID.String()), encoded, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store recycling session")
	}
	return nil
}

func isNumeric(code string) bool {
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(code) > 0
}
