package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/novacarriers/claimdesk/internal/model"
)

// tickingClock advances one second on every call.
type tickingClock struct {
	t time.Time
}

func (c *tickingClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

// countingBackend records saves and can be told to fail them.
type countingBackend struct {
	Backend
	saves int
	fail  bool
}

func (b *countingBackend) Save(ctx context.Context, snap *model.Snapshot) error {
	if b.fail {
		return fmt.Errorf("%w: disk full", ErrUnavailable)
	}
	b.saves++
	return b.Backend.Save(ctx, snap)
}

var testEpoch = time.Date(2026, 1, 19, 8, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*Store, *countingBackend) {
	t.Helper()
	b := &countingBackend{Backend: NewMemoryBackend()}
	clock := &tickingClock{t: testEpoch}
	return New(b, WithClock(clock.Now)), b
}

func mustCreate(t *testing.T, s *Store, in CreateInput) *model.Claim {
	t.Helper()
	if in.Narrative == "" {
		in.Narrative = "Vessel grounded near Qingdao"
	}
	c, err := s.CreateClaim(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateClaim: %v", err)
	}
	return c
}

func ptr[T any](v T) *T { return &v }

func timelineTypes(c *model.Claim) []model.EventType {
	out := make([]model.EventType, len(c.Timeline))
	for i, e := range c.Timeline {
		out[i] = e.Type
	}
	return out
}

func TestCreateClaim_Defaults(t *testing.T) {
	s, _ := newTestStore(t)
	c := mustCreate(t, s, CreateInput{})

	if c.ID != "NC-20260119-0001" {
		t.Errorf("ID = %q, want NC-20260119-0001", c.ID)
	}
	if c.Meta.Status != model.StatusOpen || c.Meta.Stage != model.StageIntake {
		t.Errorf("meta = %q/%q, want open/intake", c.Meta.Status, c.Meta.Stage)
	}
	if c.Meta.LinePrimary != model.LineUnknown {
		t.Errorf("LinePrimary = %q, want %q", c.Meta.LinePrimary, model.LineUnknown)
	}
	want := model.Financials{Currency: "USD"}
	if diff := cmp.Diff(want, c.Financials); diff != "" {
		t.Errorf("financials mismatch (-want +got):\n%s", diff)
	}
	if c.CreatedAt != c.UpdatedAt {
		t.Errorf("createdAt %q != updatedAt %q", c.CreatedAt, c.UpdatedAt)
	}
	if len(c.Timeline) != 1 || c.Timeline[0].Type != model.EventCreated || c.Timeline[0].Message != "Claim created." {
		t.Errorf("timeline = %+v, want single created entry", c.Timeline)
	}
	if c.Tasks == nil || c.Reminders == nil || c.Drafts == nil {
		t.Error("collections should be empty, not nil")
	}
}

func TestCreateClaim_IDsIncrease(t *testing.T) {
	s, _ := newTestStore(t)
	for i := 1; i <= 3; i++ {
		c := mustCreate(t, s, CreateInput{})
		want := fmt.Sprintf("NC-20260119-%04d", i)
		if c.ID != want {
			t.Errorf("claim %d ID = %q, want %q", i, c.ID, want)
		}
	}
}

func TestCreateClaim_Validation(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateClaim(ctx, CreateInput{Narrative: "   "}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("blank narrative err = %v, want ErrInvalidInput", err)
	}

	mustCreate(t, s, CreateInput{ID: "NC-20250101-0042"})
	if _, err := s.CreateClaim(ctx, CreateInput{Narrative: "again", ID: "NC-20250101-0042"}); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("duplicate id err = %v, want ErrDuplicateID", err)
	}
}

func TestCreateClaim_GeneratedIDSkipsTaken(t *testing.T) {
	s, _ := newTestStore(t)
	mustCreate(t, s, CreateInput{ID: "NC-20260119-0002"})
	c := mustCreate(t, s, CreateInput{})
	if c.ID != "NC-20260119-0003" {
		t.Errorf("ID = %q, want NC-20260119-0003", c.ID)
	}
}

func TestCreateClaim_WithOverridesAndTasks(t *testing.T) {
	s, _ := newTestStore(t)
	c := mustCreate(t, s, CreateInput{
		Report: model.Report{Vessel: "MV Nova Star", PotentialClaims: []string{model.LineHM}},
		Tasks: []model.Task{
			{Title: "Notify H&M underwriters"},
			{Title: "  "},
			{Title: "Appoint surveyor", Status: model.TaskDone},
		},
		Meta:       &model.MetaPatch{Handler: ptr("A. Moreau")},
		Financials: &model.FinancialsPatch{Currency: ptr("EUR"), Reserve: model.Num(8000)},
	})

	if c.Meta.LinePrimary != model.LineHM || c.Meta.Handler != "A. Moreau" {
		t.Errorf("meta = %+v", c.Meta)
	}
	if c.Financials.Currency != "EUR" || c.Financials.Reserve != 8000 {
		t.Errorf("financials = %+v", c.Financials)
	}
	if len(c.Tasks) != 2 {
		t.Fatalf("tasks = %d, want 2 (blank title skipped)", len(c.Tasks))
	}
	if c.Tasks[0].ID == c.Tasks[1].ID {
		t.Error("task ids should be unique")
	}
	for _, task := range c.Tasks {
		if !strings.HasPrefix(task.ID, c.ID+"-T") {
			t.Errorf("task id %q lacks claim prefix", task.ID)
		}
	}
	if c.Tasks[0].Status != model.TaskOpen || c.Tasks[1].Status != model.TaskDone {
		t.Errorf("task statuses = %q, %q", c.Tasks[0].Status, c.Tasks[1].Status)
	}
}

func TestGetClaim_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	created := mustCreate(t, s, CreateInput{
		Report: model.Report{
			IncidentType:       "Grounding",
			PotentialClaims:    []string{model.LinePI, model.LineHM},
			CoverageReasoning:  map[string]string{model.LineHM: "Hull damage"},
			DocumentsChecklist: map[string][]string{model.LineHM: {"Survey report"}},
		},
		Tasks: []model.Task{{Title: "Secure logbook"}},
	})

	got, err := s.GetClaim(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetClaim: %v", err)
	}
	if diff := cmp.Diff(created, got); diff != "" {
		t.Errorf("round trip mismatch (-created +got):\n%s", diff)
	}
}

func TestGetClaim_NotFound(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.GetClaim(context.Background(), "NC-20990101-0001"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateClaimFields_PartialFinancials(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	c := mustCreate(t, s, CreateInput{Financials: &model.FinancialsPatch{
		Currency:   ptr("EUR"),
		ClaimValue: model.Num(10000),
		Reserve:    model.Num(8000),
	}})

	got, err := s.UpdateClaimFields(ctx, c.ID, FieldPatch{Financials: &model.FinancialsPatch{Paid: model.Num(500)}})
	if err != nil {
		t.Fatalf("UpdateClaimFields: %v", err)
	}
	want := model.Financials{Currency: "EUR", ClaimValue: 10000, Reserve: 8000, Paid: 500}
	if diff := cmp.Diff(want, got.Financials); diff != "" {
		t.Errorf("financials mismatch (-want +got):\n%s", diff)
	}
	if got.UpdatedAt == c.UpdatedAt {
		t.Error("updatedAt should advance")
	}
	if got.Timeline[0].Message != "Financials updated (value/reserve/paid/deductible/recoveries)." {
		t.Errorf("timeline[0] = %q", got.Timeline[0].Message)
	}
}

func TestUpdateClaimFields_GarbageNumberBecomesZero(t *testing.T) {
	s, _ := newTestStore(t)
	c := mustCreate(t, s, CreateInput{Financials: &model.FinancialsPatch{Paid: model.Num(250)}})

	garbage := model.Numeric("abc")
	got, err := s.UpdateClaimFields(context.Background(), c.ID, FieldPatch{
		Financials: &model.FinancialsPatch{Paid: &garbage},
	})
	if err != nil {
		t.Fatalf("UpdateClaimFields: %v", err)
	}
	if got.Financials.Paid != 0 {
		t.Errorf("Paid = %v, want 0", got.Financials.Paid)
	}
}

func TestUpdateClaimFields_Timeline(t *testing.T) {
	s, _ := newTestStore(t)
	c := mustCreate(t, s, CreateInput{})

	got, err := s.UpdateClaimFields(context.Background(), c.ID, FieldPatch{
		Meta: &model.MetaPatch{
			Status:  ptr(model.StatusInProgress),
			Stage:   ptr(model.StageSurvey),
			Handler: ptr("J. Park"),
		},
		Financials: &model.FinancialsPatch{Reserve: model.Num(1200)},
	})
	if err != nil {
		t.Fatalf("UpdateClaimFields: %v", err)
	}

	wantTypes := []model.EventType{
		model.EventFinancialsUpdated,
		model.EventMetaUpdated,
		model.EventStageChanged,
		model.EventStatusChanged,
		model.EventCreated,
	}
	if diff := cmp.Diff(wantTypes, timelineTypes(got)); diff != "" {
		t.Errorf("timeline types mismatch (-want +got):\n%s", diff)
	}
	if msg := got.Timeline[3].Message; msg != "Status: open → in_progress" {
		t.Errorf("status message = %q", msg)
	}
	if msg := got.Timeline[2].Message; msg != "Stage: intake → survey" {
		t.Errorf("stage message = %q", msg)
	}
	if !strings.Contains(got.Timeline[1].Message, "handler") {
		t.Errorf("meta message = %q, should name handler", got.Timeline[1].Message)
	}
}

func TestUpdateClaimFields_UnchangedValuesAddNoEntries(t *testing.T) {
	s, _ := newTestStore(t)
	c := mustCreate(t, s, CreateInput{Financials: &model.FinancialsPatch{Reserve: model.Num(100)}})

	got, err := s.UpdateClaimFields(context.Background(), c.ID, FieldPatch{
		Meta:       &model.MetaPatch{Status: ptr(model.StatusOpen)},
		Financials: &model.FinancialsPatch{Reserve: model.Num(100)},
	})
	if err != nil {
		t.Fatalf("UpdateClaimFields: %v", err)
	}
	if len(got.Timeline) != 1 {
		t.Errorf("timeline len = %d, want 1", len(got.Timeline))
	}
	if got.UpdatedAt == c.UpdatedAt {
		t.Error("a supplied patch should still advance updatedAt")
	}
}

func TestUpdateClaimFields_NoopPatch(t *testing.T) {
	s, b := newTestStore(t)
	c := mustCreate(t, s, CreateInput{})
	saves := b.saves

	got, err := s.UpdateClaimFields(context.Background(), c.ID, FieldPatch{})
	if err != nil {
		t.Fatalf("UpdateClaimFields: %v", err)
	}
	if diff := cmp.Diff(c, got); diff != "" {
		t.Errorf("no-op patch changed the claim (-before +after):\n%s", diff)
	}
	if b.saves != saves {
		t.Errorf("saves = %d, want %d", b.saves, saves)
	}
}

func TestUpdateClaimFields_InvalidEnumFallsBackToDefault(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	c := mustCreate(t, s, CreateInput{Meta: &model.MetaPatch{
		Status: ptr(model.StatusInProgress),
		Stage:  ptr(model.StageSettlement),
	}})

	got, err := s.UpdateClaimFields(ctx, c.ID, FieldPatch{Meta: &model.MetaPatch{
		Status: ptr(model.Status("archived")),
		Stage:  ptr(model.Stage("limbo")),
	}})
	if err != nil {
		t.Fatalf("UpdateClaimFields: %v", err)
	}
	if got.Meta.Status != model.StatusOpen || got.Meta.Stage != model.StageIntake {
		t.Errorf("meta = %q/%q, want open/intake", got.Meta.Status, got.Meta.Stage)
	}
	if msg := got.Timeline[1].Message; msg != "Status: in_progress → open" {
		t.Errorf("status message = %q", msg)
	}
}

func TestUpdateClaimFields_NotFound(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.UpdateClaimFields(context.Background(), "NC-20990101-0001", FieldPatch{Meta: &model.MetaPatch{}})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateTaskStatus(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	c := mustCreate(t, s, CreateInput{Tasks: []model.Task{{Title: "Notify P&I club"}}})
	taskID := c.Tasks[0].ID

	t.Run("marks task done", func(t *testing.T) {
		got, err := s.UpdateTaskStatus(ctx, c.ID, taskID, model.TaskDone)
		if err != nil {
			t.Fatalf("UpdateTaskStatus: %v", err)
		}
		if got.Tasks[0].Status != model.TaskDone {
			t.Errorf("status = %q, want done", got.Tasks[0].Status)
		}
		want := fmt.Sprintf("Task %s marked done.", taskID)
		if got.Timeline[0].Type != model.EventTaskUpdated || got.Timeline[0].Message != want {
			t.Errorf("timeline[0] = %+v, want %q", got.Timeline[0], want)
		}
	})

	t.Run("unknown task leaves claim untouched", func(t *testing.T) {
		before, _ := s.GetClaim(ctx, c.ID)
		_, err := s.UpdateTaskStatus(ctx, c.ID, c.ID+"-TNOPE", model.TaskOpen)
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
		after, _ := s.GetClaim(ctx, c.ID)
		if diff := cmp.Diff(before, after); diff != "" {
			t.Errorf("claim changed (-before +after):\n%s", diff)
		}
	})

	t.Run("invalid status", func(t *testing.T) {
		_, err := s.UpdateTaskStatus(ctx, c.ID, taskID, model.TaskStatus("blocked"))
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("err = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("missing claim wins over invalid status", func(t *testing.T) {
		_, err := s.UpdateTaskStatus(ctx, "NC-20990101-0001", taskID, model.TaskStatus("blocked"))
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestReminders(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	c := mustCreate(t, s, CreateInput{})

	got, err := s.AddReminder(ctx, c.ID, model.ReminderInput{
		DueAt:   "2026-01-20T09:00:00.000Z",
		To:      "surveyor@example.com",
		Subject: "Survey report",
	})
	if err != nil {
		t.Fatalf("AddReminder: %v", err)
	}
	r := got.Reminders[0]
	if r.Status != model.ReminderPending || r.Channel != model.ChannelEmail {
		t.Errorf("reminder = %+v, want pending email", r)
	}
	if !strings.HasPrefix(r.ID, c.ID+"-R") {
		t.Errorf("reminder id %q lacks claim prefix", r.ID)
	}
	if got.Timeline[0].Type != model.EventReminderAdded {
		t.Errorf("timeline[0].Type = %q", got.Timeline[0].Type)
	}

	for i := 0; i < 2; i++ {
		got, err = s.MarkReminderDone(ctx, c.ID, r.ID)
		if err != nil {
			t.Fatalf("MarkReminderDone #%d: %v", i+1, err)
		}
	}
	if got.Reminders[0].Status != model.ReminderDone {
		t.Errorf("status = %q, want done", got.Reminders[0].Status)
	}
	var done int
	for _, e := range got.Timeline {
		if e.Type == model.EventReminderDone {
			done++
			if e.Message != "Reminder done: Survey report." {
				t.Errorf("message = %q", e.Message)
			}
		}
	}
	if done != 2 {
		t.Errorf("reminder_done entries = %d, want 2", done)
	}

	if _, err := s.MarkReminderDone(ctx, c.ID, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing reminder err = %v, want ErrNotFound", err)
	}
}

func TestDrafts(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	c := mustCreate(t, s, CreateInput{})

	got, err := s.AddDraft(ctx, c.ID, model.DraftInput{To: "club@example.com", Subject: "Notice of claim", Body: "Dear Sirs"})
	if err != nil {
		t.Fatalf("AddDraft: %v", err)
	}
	d := got.Drafts[0]
	if d.Status != model.DraftDraft || d.Type != model.DraftGeneral || d.ClaimID != c.ID {
		t.Errorf("draft = %+v", d)
	}
	if d.SentAt != "" {
		t.Errorf("SentAt = %q, want empty", d.SentAt)
	}

	sent, err := s.MarkDraftSent(ctx, c.ID, d.ID)
	if err != nil {
		t.Fatalf("MarkDraftSent: %v", err)
	}
	if sent.Drafts[0].Status != model.DraftSent || sent.Drafts[0].SentAt == "" {
		t.Errorf("draft after send = %+v", sent.Drafts[0])
	}
	if sent.Timeline[0].Message != "Draft sent: Notice of claim." {
		t.Errorf("timeline[0] = %q", sent.Timeline[0].Message)
	}

	again, err := s.MarkDraftSent(ctx, c.ID, d.ID)
	if err != nil {
		t.Fatalf("MarkDraftSent again: %v", err)
	}
	if diff := cmp.Diff(sent, again); diff != "" {
		t.Errorf("resending changed the claim (-first +second):\n%s", diff)
	}

	if _, err := s.MarkDraftSent(ctx, c.ID, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing draft err = %v, want ErrNotFound", err)
	}
}

func TestFailedSaveLeavesStoreUnchanged(t *testing.T) {
	s, b := newTestStore(t)
	ctx := context.Background()
	c := mustCreate(t, s, CreateInput{})

	b.fail = true
	_, err := s.UpdateClaimFields(ctx, c.ID, FieldPatch{Meta: &model.MetaPatch{Handler: ptr("X")}})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	if _, err := s.CreateClaim(ctx, CreateInput{Narrative: "second"}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("create err = %v, want ErrUnavailable", err)
	}
	b.fail = false

	got, err := s.GetClaim(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetClaim: %v", err)
	}
	if diff := cmp.Diff(c, got); diff != "" {
		t.Errorf("claim changed after failed save (-want +got):\n%s", diff)
	}
	all, _ := s.ListClaims(ctx)
	if len(all) != 1 {
		t.Errorf("claims = %d, want 1", len(all))
	}
}

func TestListClaims_NewestFirst(t *testing.T) {
	s, _ := newTestStore(t)
	for i := 0; i < 3; i++ {
		mustCreate(t, s, CreateInput{})
	}
	all, err := s.ListClaims(context.Background())
	if err != nil {
		t.Fatalf("ListClaims: %v", err)
	}
	want := []string{"NC-20260119-0003", "NC-20260119-0002", "NC-20260119-0001"}
	var got []string
	for _, c := range all {
		got = append(got, c.ID)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestListClaims_SameInstantKeepsInsertionOrder(t *testing.T) {
	fixed := func() time.Time { return testEpoch }
	s := New(NewMemoryBackend(), WithClock(fixed))
	for i := 0; i < 3; i++ {
		mustCreate(t, s, CreateInput{})
	}
	all, err := s.ListClaims(context.Background())
	if err != nil {
		t.Fatalf("ListClaims: %v", err)
	}
	if all[0].ID != "NC-20260119-0003" || all[2].ID != "NC-20260119-0001" {
		t.Errorf("order = %s, %s, %s", all[0].ID, all[1].ID, all[2].ID)
	}
}

func TestListPendingReminders(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	a := mustCreate(t, s, CreateInput{Report: model.Report{Vessel: "MV Alpha"}})
	b := mustCreate(t, s, CreateInput{Report: model.Report{Vessel: "MV Bravo"}})

	add := func(claimID, due, subject string) string {
		t.Helper()
		c, err := s.AddReminder(ctx, claimID, model.ReminderInput{DueAt: due, Subject: subject})
		if err != nil {
			t.Fatalf("AddReminder: %v", err)
		}
		return c.Reminders[0].ID
	}
	add(a.ID, "2026-02-10T09:00:00.000Z", "future-late")
	add(b.ID, "2026-01-10T09:00", "overdue-old")
	add(b.ID, "2026-02-01T09:00:00.000Z", "future-soon")
	add(a.ID, "2026-01-15T09:00:00.000Z", "overdue-recent")
	add(a.ID, "someday", "unscheduled")
	done := add(b.ID, "2026-01-01T00:00:00.000Z", "already-done")
	if _, err := s.MarkReminderDone(ctx, b.ID, done); err != nil {
		t.Fatalf("MarkReminderDone: %v", err)
	}

	now := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)
	views, err := s.ListPendingReminders(ctx, now)
	if err != nil {
		t.Fatalf("ListPendingReminders: %v", err)
	}
	var got []string
	for _, v := range views {
		got = append(got, v.Reminder.Subject)
	}
	want := []string{"overdue-old", "overdue-recent", "future-soon", "future-late", "unscheduled"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if !views[0].Overdue || views[2].Overdue {
		t.Error("overdue flags are wrong")
	}
	if views[0].Vessel != "MV Bravo" || views[0].ClaimID != b.ID {
		t.Errorf("view[0] = %+v", views[0])
	}
}

func TestFinanceSummary(t *testing.T) {
	s, _ := newTestStore(t)
	mustCreate(t, s, CreateInput{Financials: &model.FinancialsPatch{Reserve: model.Num(1000), Paid: model.Num(200)}})
	mustCreate(t, s, CreateInput{Financials: &model.FinancialsPatch{Reserve: model.Num(500), RecoveryExpected: model.Num(100)}})
	mustCreate(t, s, CreateInput{Financials: &model.FinancialsPatch{Currency: ptr("EUR"), ClaimValue: model.Num(9000), Reserve: model.Num(4000)}})

	got, err := s.FinanceSummary(context.Background())
	if err != nil {
		t.Fatalf("FinanceSummary: %v", err)
	}
	want := []CurrencyTotals{
		{Currency: "EUR", Claims: 1, ClaimValue: 9000, Reserve: 4000, Exposure: 4000},
		{Currency: "USD", Claims: 2, Reserve: 1500, Paid: 200, RecoveryExpected: 100, Exposure: 1400},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestConcurrentCreatesGetUniqueIDs(t *testing.T) {
	s := New(NewMemoryBackend())
	const n = 20

	var wg sync.WaitGroup
	ids := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := s.CreateClaim(context.Background(), CreateInput{Narrative: fmt.Sprintf("incident %d", i)})
			errs[i] = err
			if c != nil {
				ids[i] = c.ID
			}
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i, id := range ids {
		if errs[i] != nil {
			t.Fatalf("create %d: %v", i, errs[i])
		}
		if seen[id] {
			t.Errorf("duplicate id %q", id)
		}
		seen[id] = true
	}
	all, _ := s.ListClaims(context.Background())
	if len(all) != n {
		t.Errorf("claims = %d, want %d", len(all), n)
	}
}

func TestClaimLifecycle(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	c := mustCreate(t, s, CreateInput{
		Narrative: "Vessel grounded near Qingdao during pilotage; hull breach in forepeak.",
		Report: model.Report{
			IncidentType:     "Grounding",
			Location:         "Qingdao approaches",
			Vessel:           "MV Nova Star",
			PotentialClaims:  []string{model.LineHM, model.LinePI},
			ImmediateActions: "Notify H&M underwriters; Appoint surveyor",
		},
		Tasks: []model.Task{{Title: "Notify H&M underwriters"}, {Title: "Appoint surveyor"}},
	})

	steps := []func() (*model.Claim, error){
		func() (*model.Claim, error) {
			return s.UpdateClaimFields(ctx, c.ID, FieldPatch{
				Meta:       &model.MetaPatch{Stage: ptr(model.StageSurvey), Status: ptr(model.StatusInProgress)},
				Financials: &model.FinancialsPatch{ClaimValue: model.Num(250000), Reserve: model.Num(180000)},
			})
		},
		func() (*model.Claim, error) { return s.UpdateTaskStatus(ctx, c.ID, c.Tasks[0].ID, model.TaskDone) },
		func() (*model.Claim, error) {
			return s.AddReminder(ctx, c.ID, model.ReminderInput{DueAt: "2026-01-22T10:00:00.000Z", To: "surveyor@example.com", Subject: "Survey ETA", Channel: model.ChannelCall})
		},
		func() (*model.Claim, error) {
			return s.AddDraft(ctx, c.ID, model.DraftInput{Type: model.DraftClubNotification, To: "claims@club.example", Subject: "Grounding MV Nova Star", Body: "..."})
		},
	}
	var last *model.Claim
	for i, step := range steps {
		var err error
		if last, err = step(); err != nil {
			t.Fatalf("step %d: %v", i+1, err)
		}
	}
	if _, err := s.MarkDraftSent(ctx, c.ID, last.Drafts[0].ID); err != nil {
		t.Fatalf("MarkDraftSent: %v", err)
	}

	final, err := s.GetClaim(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetClaim: %v", err)
	}
	wantTypes := []model.EventType{
		model.EventDraftSent,
		model.EventDraftCreated,
		model.EventReminderAdded,
		model.EventTaskUpdated,
		model.EventFinancialsUpdated,
		model.EventStageChanged,
		model.EventStatusChanged,
		model.EventCreated,
	}
	if diff := cmp.Diff(wantTypes, timelineTypes(final)); diff != "" {
		t.Errorf("timeline mismatch (-want +got):\n%s", diff)
	}
	if final.Meta.Stage != model.StageSurvey || final.Financials.Reserve != 180000 {
		t.Errorf("final state = %+v / %+v", final.Meta, final.Financials)
	}
	if final.Reminders[0].Channel != model.ChannelCall {
		t.Errorf("channel = %q, want call", final.Reminders[0].Channel)
	}
	if final.UpdatedAt <= final.CreatedAt {
		t.Errorf("updatedAt %q should be after createdAt %q", final.UpdatedAt, final.CreatedAt)
	}
}
