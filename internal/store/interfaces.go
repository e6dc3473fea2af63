package store

import (
	"context"
	"errors"
	"time"

	"github.com/novacarriers/claimdesk/internal/model"
)

var (
	// ErrNotFound is returned when a claim, or a sub-entity of a claim, does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned for input the store cannot coerce.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDuplicateID is returned when an explicit claim id is already taken.
	ErrDuplicateID = errors.New("duplicate claim id")
	// ErrUnavailable wraps failures of the persistence medium itself.
	ErrUnavailable = errors.New("persistence unavailable")
)

// Backend loads and saves the whole claim collection. Save must fully
// replace the previous snapshot. Load returns an empty snapshot when the
// medium is empty or holds an undecodable document.
type Backend interface {
	Load(ctx context.Context) (*model.Snapshot, error)
	Save(ctx context.Context, snap *model.Snapshot) error
}

// ClaimReader provides read access to claims.
type ClaimReader interface {
	ListClaims(ctx context.Context) ([]model.Claim, error)
	GetClaim(ctx context.Context, id string) (*model.Claim, error)
	ListPendingReminders(ctx context.Context, now time.Time) ([]ReminderView, error)
	FinanceSummary(ctx context.Context) ([]CurrencyTotals, error)
}

// ClaimWriter provides the mutating claim operations.
type ClaimWriter interface {
	CreateClaim(ctx context.Context, in CreateInput) (*model.Claim, error)
	UpdateClaimFields(ctx context.Context, id string, p FieldPatch) (*model.Claim, error)
	UpdateTaskStatus(ctx context.Context, claimID, taskID string, status model.TaskStatus) (*model.Claim, error)
	AddReminder(ctx context.Context, claimID string, in model.ReminderInput) (*model.Claim, error)
	MarkReminderDone(ctx context.Context, claimID, reminderID string) (*model.Claim, error)
	AddDraft(ctx context.Context, claimID string, in model.DraftInput) (*model.Claim, error)
	MarkDraftSent(ctx context.Context, claimID, draftID string) (*model.Claim, error)
}

// ClaimRepository combines all claim operations for the API layer.
type ClaimRepository interface {
	ClaimReader
	ClaimWriter
}
