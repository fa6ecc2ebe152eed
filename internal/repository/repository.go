// Package repository provides session state storage for the Roster Control
// Service.
//
// # Overview
//
// A session holds everything one comparison round trip needs: the two
// ingested rosters, the matching thresholds, the decision ledger, the checked
// items set, the latest analysis snapshot, and the optionally uploaded
// workbook. Sessions live in memory only; persistence across restarts is
// deliberately out of scope.
//
// # Thread Safety
//
// The in-memory implementation is safe for concurrent use. Each session is
// owned by one logical actor, but the HTTP layer may touch different sessions
// concurrently, so access is serialized per repository.
//
// # Error Handling
//
// All methods return domain-specific errors from the domain package, wrapped
// with context via fmt.Errorf and %w where applicable. Missing sessions
// surface as domain.ErrNotFound.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/guardia/roster-control-service/internal/domain"
	"github.com/guardia/roster-control-service/internal/ledger"
	"github.com/guardia/roster-control-service/internal/workbook"
)

// Session is the unit of mutable state for one comparison working session.
type Session struct {
	// ID is the session identifier handed to the client.
	ID uuid.UUID

	// Parte holds the raw reference roster entries as ingested.
	Parte []domain.RawEntry

	// Lista holds the raw candidate roster entries as ingested.
	Lista []domain.RawEntry

	// Options are the matching thresholds for this session.
	Options domain.MatchingOptions

	// Ledger holds the session's pair decisions.
	Ledger *ledger.Ledger

	// Checked is the set of missing-record identity keys the user has ticked
	// off as handled. UI state only; never consulted by the engine.
	Checked map[string]bool

	// Result is the latest analysis snapshot, replaced wholesale on every
	// re-analysis.
	Result *domain.AnalysisResult

	// WorkbookName is the original filename of the uploaded workbook.
	WorkbookName string

	// Workbook holds the uploaded workbook bytes, untouched by mutation.
	Workbook []byte

	// WorkbookColumns are the detected rank/name column positions.
	WorkbookColumns *workbook.Columns

	// CreatedAt is the session creation time.
	CreatedAt time.Time

	// UpdatedAt is the time of the last mutation.
	UpdatedAt time.Time
}

// SessionRepository manages session lifecycle and access.
type SessionRepository interface {
	// Create stores a new session. Returns an error when the ID is taken.
	Create(ctx context.Context, session *Session) error

	// Get returns the session with the given ID or domain.ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*Session, error)

	// View applies fn to the session under the repository read lock. fn must
	// not mutate the session; it snapshots what it needs and returns.
	View(ctx context.Context, id uuid.UUID, fn func(*Session) error) error

	// Update applies fn to the session under the repository lock. The update
	// is discarded when fn returns an error.
	Update(ctx context.Context, id uuid.UUID, fn func(*Session) error) error

	// Delete removes the session. Deleting an absent session returns
	// domain.ErrNotFound.
	Delete(ctx context.Context, id uuid.UUID) error

	// Count returns the number of live sessions.
	Count(ctx context.Context) int
}
