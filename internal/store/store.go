package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/novacarriers/claimdesk/internal/model"
)

// Verify at compile time that Store implements all interfaces.
var (
	_ ClaimReader = (*Store)(nil)
	_ ClaimWriter = (*Store)(nil)
)

// Store owns the claim collection. Every operation loads the whole
// collection, mutates it in memory and saves it back. Operations within one
// process are serialized; separate processes sharing a backend are
// last-write-wins.
type Store struct {
	backend Backend
	mu      sync.Mutex
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a Store on top of the given backend.
func New(b Backend, opts ...Option) *Store {
	s := &Store{backend: b, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput holds everything needed to open a claim.
type CreateInput struct {
	Narrative  string
	Report     model.Report
	Tasks      []model.Task
	Meta       *model.MetaPatch
	Financials *model.FinancialsPatch
	// ID is optional; a NC-YYYYMMDD-NNNN id is generated when blank.
	ID string
}

// FieldPatch is a partial update of a claim's meta and financials.
type FieldPatch struct {
	Meta       *model.MetaPatch       `json:"meta,omitempty"`
	Financials *model.FinancialsPatch `json:"financials,omitempty"`
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

// ListClaims returns all claims, newest createdAt first. Claims created at
// the same instant keep insertion order, most recent insertion first.
func (s *Store) ListClaims(ctx context.Context) ([]model.Claim, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	claims := snap.Claims
	sort.SliceStable(claims, func(i, j int) bool {
		return claims[i].CreatedAt > claims[j].CreatedAt
	})
	return claims, nil
}

// GetClaim returns the claim with the given id or ErrNotFound.
func (s *Store) GetClaim(ctx context.Context, id string) (*model.Claim, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	c := snap.Find(id)
	if c == nil {
		return nil, fmt.Errorf("claim %s: %w", id, ErrNotFound)
	}
	return c, nil
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

// CreateClaim opens a new claim with fully populated meta and financials and
// a single "created" timeline entry.
func (s *Store) CreateClaim(ctx context.Context, in CreateInput) (*model.Claim, error) {
	if strings.TrimSpace(in.Narrative) == "" {
		return nil, fmt.Errorf("%w: narrative is required", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	counter := snap.Counter + 1
	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = model.ClaimID(now, counter)
		for snap.Find(id) != nil {
			counter++
			id = model.ClaimID(now, counter)
		}
	} else if snap.Find(id) != nil {
		return nil, fmt.Errorf("claim %s: %w", id, ErrDuplicateID)
	}
	snap.Counter = counter

	ts := model.FormatTime(now)
	report := in.Report.WithDefaults(in.Narrative, now)
	claim := model.Claim{
		ID:         id,
		CreatedAt:  ts,
		UpdatedAt:  ts,
		Narrative:  in.Narrative,
		Report:     report,
		Meta:       model.NewMeta(report, in.Meta),
		Financials: model.NewFinancials(in.Financials),
		Tasks:      []model.Task{},
		Reminders:  []model.Reminder{},
		Drafts:     []model.Draft{},
		Timeline:   []model.TimelineEntry{},
	}
	claim.Tasks = prepareTasks(&claim, in.Tasks, ts)
	pushTimeline(&claim, model.EventCreated, "Claim created.", ts)

	snap.Claims = append([]model.Claim{claim}, snap.Claims...)
	if err := s.save(ctx, snap); err != nil {
		return nil, err
	}
	slog.Info("claim created", "claim_id", id, "line", claim.Meta.LinePrimary, "tasks", len(claim.Tasks))
	return &claim, nil
}

// prepareTasks assigns ids to pre-built tasks lacking a unique one and
// fills status and creation time.
func prepareTasks(c *model.Claim, tasks []model.Task, ts string) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		t.Title = strings.TrimSpace(t.Title)
		if t.Title == "" {
			continue
		}
		c.Tasks = out
		if t.ID == "" || c.FindTask(t.ID) != nil {
			t.ID = newSubID(c, model.PrefixTask)
		}
		if !t.Status.Valid() {
			t.Status = model.TaskOpen
		}
		if t.CreatedAt == "" {
			t.CreatedAt = ts
		}
		out = append(out, t)
	}
	return out
}

// ---------------------------------------------------------------------------
// Field patch
// ---------------------------------------------------------------------------

// UpdateClaimFields merges a meta and/or financials patch into a claim.
// A patch carrying neither is a read-through: nothing is saved and
// updatedAt is left alone.
func (s *Store) UpdateClaimFields(ctx context.Context, id string, p FieldPatch) (*model.Claim, error) {
	return s.mutate(ctx, id, func(c *model.Claim, ts string) (bool, error) {
		if p.Meta == nil && p.Financials == nil {
			return false, nil
		}

		if p.Meta != nil {
			before := c.Meta
			c.Meta = c.Meta.Merge(*p.Meta)
			if before.Status != c.Meta.Status {
				pushTimeline(c, model.EventStatusChanged,
					fmt.Sprintf("Status: %s → %s", before.Status, c.Meta.Status), ts)
			}
			if before.Stage != c.Meta.Stage {
				pushTimeline(c, model.EventStageChanged,
					fmt.Sprintf("Stage: %s → %s", before.Stage, c.Meta.Stage), ts)
			}
			if changed := changedMetaFields(before, c.Meta); len(changed) > 0 {
				pushTimeline(c, model.EventMetaUpdated,
					"Meta updated: "+strings.Join(changed, ", ")+".", ts)
			}
		}

		if p.Financials != nil {
			before := c.Financials
			c.Financials = c.Financials.Merge(*p.Financials)
			if before.Differs(c.Financials) {
				pushTimeline(c, model.EventFinancialsUpdated,
					"Financials updated (value/reserve/paid/deductible/recoveries).", ts)
			}
		}

		c.UpdatedAt = ts
		return true, nil
	})
}

func changedMetaFields(a, b model.Meta) []string {
	var out []string
	if a.LinePrimary != b.LinePrimary {
		out = append(out, "line_primary")
	}
	if a.ReferenceExternal != b.ReferenceExternal {
		out = append(out, "reference_external")
	}
	if a.Handler != b.Handler {
		out = append(out, "handler")
	}
	if a.Counterparty != b.Counterparty {
		out = append(out, "counterparty")
	}
	return out
}

// ---------------------------------------------------------------------------
// Tasks
// ---------------------------------------------------------------------------

// UpdateTaskStatus sets the status of one task. A missing task is
// ErrNotFound and leaves the claim untouched.
func (s *Store) UpdateTaskStatus(ctx context.Context, claimID, taskID string, status model.TaskStatus) (*model.Claim, error) {
	return s.mutate(ctx, claimID, func(c *model.Claim, ts string) (bool, error) {
		if !status.Valid() {
			return false, fmt.Errorf("%w: task status %q", ErrInvalidInput, status)
		}
		t := c.FindTask(taskID)
		if t == nil {
			return false, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
		}
		t.Status = status
		c.UpdatedAt = ts
		pushTimeline(c, model.EventTaskUpdated, fmt.Sprintf("Task %s marked %s.", taskID, status), ts)
		return true, nil
	})
}

// ---------------------------------------------------------------------------
// Reminders
// ---------------------------------------------------------------------------

// AddReminder prepends a pending reminder. The new reminder is Reminders[0]
// of the returned claim.
func (s *Store) AddReminder(ctx context.Context, claimID string, in model.ReminderInput) (*model.Claim, error) {
	return s.mutate(ctx, claimID, func(c *model.Claim, ts string) (bool, error) {
		r := model.Reminder{
			ID:        newSubID(c, model.PrefixReminder),
			CreatedAt: ts,
			Status:    model.ReminderPending,
			DueAt:     in.DueAt,
			To:        in.To,
			Channel:   model.ParseChannel(in.Channel),
			Subject:   in.Subject,
			Context:   in.Context,
		}
		c.Reminders = append([]model.Reminder{r}, c.Reminders...)
		c.UpdatedAt = ts
		pushTimeline(c, model.EventReminderAdded,
			fmt.Sprintf("Reminder created for %s: %s.", r.To, r.Subject), ts)
		return true, nil
	})
}

// MarkReminderDone moves a reminder to done. Marking a done reminder again
// succeeds and records another confirmation.
func (s *Store) MarkReminderDone(ctx context.Context, claimID, reminderID string) (*model.Claim, error) {
	return s.mutate(ctx, claimID, func(c *model.Claim, ts string) (bool, error) {
		r := c.FindReminder(reminderID)
		if r == nil {
			return false, fmt.Errorf("reminder %s: %w", reminderID, ErrNotFound)
		}
		r.Status = model.ReminderDone
		c.UpdatedAt = ts
		pushTimeline(c, model.EventReminderDone, fmt.Sprintf("Reminder done: %s.", r.Subject), ts)
		return true, nil
	})
}

// ReminderView is a pending reminder with the claim it belongs to.
type ReminderView struct {
	ClaimID  string         `json:"claimId"`
	Vessel   string         `json:"vessel"`
	Reminder model.Reminder `json:"reminder"`
	Overdue  bool           `json:"overdue"`
}

// ListPendingReminders returns every pending reminder across all claims,
// overdue ones first, then by due time. Reminders with an unparseable due
// time sort last.
func (s *Store) ListPendingReminders(ctx context.Context, now time.Time) ([]ReminderView, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	type row struct {
		view ReminderView
		due  time.Time
		ok   bool
	}
	var rows []row
	for _, c := range snap.Claims {
		for _, r := range c.Reminders {
			if r.Status == model.ReminderDone {
				continue
			}
			due, ok := parseDue(r.DueAt)
			rows = append(rows, row{
				view: ReminderView{ClaimID: c.ID, Vessel: c.Report.Vessel, Reminder: r, Overdue: ok && due.Before(now)},
				due:  due,
				ok:   ok,
			})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.view.Overdue != b.view.Overdue {
			return a.view.Overdue
		}
		if a.ok != b.ok {
			return a.ok
		}
		return a.due.Before(b.due)
	})
	out := make([]ReminderView, len(rows))
	for i, r := range rows {
		out[i] = r.view
	}
	return out, nil
}

// dueLayouts are the accepted reminder due formats; browsers submit
// datetime-local values without a zone, read as UTC.
var dueLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"}

func parseDue(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dueLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ---------------------------------------------------------------------------
// Drafts
// ---------------------------------------------------------------------------

// AddDraft prepends a new email draft. The new draft is Drafts[0] of the
// returned claim.
func (s *Store) AddDraft(ctx context.Context, claimID string, in model.DraftInput) (*model.Claim, error) {
	return s.mutate(ctx, claimID, func(c *model.Claim, ts string) (bool, error) {
		d := model.Draft{
			ID:        newSubID(c, model.PrefixDraft),
			ClaimID:   c.ID,
			CreatedAt: ts,
			Type:      model.ParseDraftType(in.Type),
			Status:    model.DraftDraft,
			To:        in.To,
			Subject:   in.Subject,
			Body:      in.Body,
		}
		c.Drafts = append([]model.Draft{d}, c.Drafts...)
		c.UpdatedAt = ts
		pushTimeline(c, model.EventDraftCreated, fmt.Sprintf("Draft created: %s.", d.Subject), ts)
		return true, nil
	})
}

// MarkDraftSent moves a draft to sent and stamps sentAt. A draft that was
// already sent is returned unchanged.
func (s *Store) MarkDraftSent(ctx context.Context, claimID, draftID string) (*model.Claim, error) {
	return s.mutate(ctx, claimID, func(c *model.Claim, ts string) (bool, error) {
		d := c.FindDraft(draftID)
		if d == nil {
			return false, fmt.Errorf("draft %s: %w", draftID, ErrNotFound)
		}
		if d.Status == model.DraftSent {
			return false, nil
		}
		d.Status = model.DraftSent
		d.SentAt = ts
		c.UpdatedAt = ts
		pushTimeline(c, model.EventDraftSent, fmt.Sprintf("Draft sent: %s.", d.Subject), ts)
		return true, nil
	})
}

// ---------------------------------------------------------------------------
// Finance
// ---------------------------------------------------------------------------

// CurrencyTotals sums the financials of all claims sharing a currency.
type CurrencyTotals struct {
	Currency         string  `json:"currency"`
	Claims           int     `json:"claims"`
	ClaimValue       float64 `json:"claim_value"`
	Reserve          float64 `json:"reserve"`
	Paid             float64 `json:"paid"`
	Deductible       float64 `json:"deductible"`
	RecoveryExpected float64 `json:"recovery_expected"`
	RecoveryReceived float64 `json:"recovery_received"`
	Exposure         float64 `json:"exposure"`
}

// FinanceSummary aggregates financials per currency, sorted by currency.
// Amounts in different currencies are never added together.
func (s *Store) FinanceSummary(ctx context.Context) ([]CurrencyTotals, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	byCur := map[string]*CurrencyTotals{}
	for _, c := range snap.Claims {
		f := c.Financials
		t, ok := byCur[f.Currency]
		if !ok {
			t = &CurrencyTotals{Currency: f.Currency}
			byCur[f.Currency] = t
		}
		t.Claims++
		t.ClaimValue += f.ClaimValue
		t.Reserve += f.Reserve
		t.Paid += f.Paid
		t.Deductible += f.Deductible
		t.RecoveryExpected += f.RecoveryExpected
		t.RecoveryReceived += f.RecoveryReceived
		t.Exposure += f.Exposure()
	}
	out := make([]CurrencyTotals, 0, len(byCur))
	for _, t := range byCur {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out, nil
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

// mutate runs fn against the claim with the given id inside one
// load → modify → save cycle. When fn returns an error or reports no
// change, nothing is saved.
func (s *Store) mutate(ctx context.Context, id string, fn func(c *model.Claim, ts string) (bool, error)) (*model.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	c := snap.Find(id)
	if c == nil {
		return nil, fmt.Errorf("claim %s: %w", id, ErrNotFound)
	}

	changed, err := fn(c, model.FormatTime(s.now()))
	if err != nil {
		return nil, err
	}
	if changed {
		if err := s.save(ctx, snap); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (s *Store) load(ctx context.Context) (*model.Snapshot, error) {
	snap, err := s.backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load claims: %w", err)
	}
	return snap, nil
}

func (s *Store) save(ctx context.Context, snap *model.Snapshot) error {
	if err := s.backend.Save(ctx, snap); err != nil {
		return fmt.Errorf("save claims: %w", err)
	}
	return nil
}

// pushTimeline prepends an audit entry; the timeline is newest first.
func pushTimeline(c *model.Claim, typ model.EventType, msg, ts string) {
	e := model.TimelineEntry{
		ID:        newSubID(c, model.PrefixTimeline),
		Type:      typ,
		Message:   msg,
		CreatedAt: ts,
	}
	c.Timeline = append([]model.TimelineEntry{e}, c.Timeline...)
}

// newSubID returns an id not used by any task, reminder, draft or timeline
// entry of c.
func newSubID(c *model.Claim, prefix string) string {
	for {
		id := model.SubID(c.ID, prefix)
		if !subIDTaken(c, id) {
			return id
		}
	}
}

func subIDTaken(c *model.Claim, id string) bool {
	if c.FindTask(id) != nil || c.FindReminder(id) != nil || c.FindDraft(id) != nil {
		return true
	}
	for _, e := range c.Timeline {
		if e.ID == id {
			return true
		}
	}
	return false
}
