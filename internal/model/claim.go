package model

import (
	"time"
)

// TimeLayout is the ISO-8601 layout used for every persisted timestamp.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTime renders t in UTC using TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Claim status constants
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusClosed     Status = "closed"
)

// ParseStatus returns s when it is a known status and StatusOpen otherwise.
func ParseStatus(s Status) Status {
	switch s {
	case StatusOpen, StatusInProgress, StatusClosed:
		return s
	default:
		return StatusOpen
	}
}

// Stage is the claim's position in its handling lifecycle.
type Stage string

const (
	StageIntake        Stage = "intake"
	StageNotification  Stage = "notification"
	StageCoverage      Stage = "coverage"
	StageSurvey        Stage = "survey"
	StageRepair        Stage = "repair"
	StageDocumentation Stage = "documentation"
	StageSettlement    Stage = "settlement"
	StageRecovery      Stage = "recovery"
	StageClosed        Stage = "closed"
)

// Stages lists every stage in lifecycle order.
var Stages = []Stage{
	StageIntake,
	StageNotification,
	StageCoverage,
	StageSurvey,
	StageRepair,
	StageDocumentation,
	StageSettlement,
	StageRecovery,
	StageClosed,
}

// ParseStage returns s when it is a known stage and StageIntake otherwise.
func ParseStage(s Stage) Stage {
	for _, st := range Stages {
		if st == s {
			return s
		}
	}
	return StageIntake
}

// LineUnknown is used as primary line when the report names no insurance line.
const LineUnknown = "unknown"

// Meta holds the handling metadata of a claim.
type Meta struct {
	Status            Status `json:"status"`
	Stage             Stage  `json:"stage"`
	LinePrimary       string `json:"line_primary"`
	ReferenceExternal string `json:"reference_external"`
	Handler           string `json:"handler"`
	Counterparty      string `json:"counterparty"`
}

// MetaPatch is a partial Meta. Nil fields are left untouched.
type MetaPatch struct {
	Status            *Status `json:"status,omitempty"`
	Stage             *Stage  `json:"stage,omitempty"`
	LinePrimary       *string `json:"line_primary,omitempty"`
	ReferenceExternal *string `json:"reference_external,omitempty"`
	Handler           *string `json:"handler,omitempty"`
	Counterparty      *string `json:"counterparty,omitempty"`
}

// NewMeta builds a fully populated Meta from defaults, the report and an
// optional partial override.
func NewMeta(report Report, p *MetaPatch) Meta {
	line := LineUnknown
	if len(report.PotentialClaims) > 0 && report.PotentialClaims[0] != "" {
		line = report.PotentialClaims[0]
	}
	m := Meta{
		Status:      StatusOpen,
		Stage:       StageIntake,
		LinePrimary: line,
	}
	if p != nil {
		m = m.Merge(*p)
	}
	return m
}

// Merge applies p over m. Unknown status or stage values collapse to their
// defaults rather than to the previous value.
func (m Meta) Merge(p MetaPatch) Meta {
	if p.Status != nil {
		m.Status = ParseStatus(*p.Status)
	}
	if p.Stage != nil {
		m.Stage = ParseStage(*p.Stage)
	}
	if p.LinePrimary != nil {
		m.LinePrimary = *p.LinePrimary
	}
	if p.ReferenceExternal != nil {
		m.ReferenceExternal = *p.ReferenceExternal
	}
	if p.Handler != nil {
		m.Handler = *p.Handler
	}
	if p.Counterparty != nil {
		m.Counterparty = *p.Counterparty
	}
	return m
}

// Task status constants
type TaskStatus string

const (
	TaskOpen TaskStatus = "open"
	TaskDone TaskStatus = "done"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	return s == TaskOpen || s == TaskDone
}

// Task is a checklist item on a claim.
type Task struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Status    TaskStatus `json:"status"`
	CreatedAt string     `json:"createdAt"`
	DueAt     string     `json:"dueAt,omitempty"`
}

// Claim is the aggregate record tracking one incident from intake to closure.
type Claim struct {
	ID         string          `json:"id"`
	CreatedAt  string          `json:"createdAt"`
	UpdatedAt  string          `json:"updatedAt"`
	Narrative  string          `json:"narrative"`
	Report     Report          `json:"report"`
	Meta       Meta            `json:"meta"`
	Financials Financials      `json:"financials"`
	Tasks      []Task          `json:"tasks"`
	Reminders  []Reminder      `json:"reminders"`
	Drafts     []Draft         `json:"drafts"`
	Timeline   []TimelineEntry `json:"timeline"`
}

// Normalize replaces nil collections with empty ones so the persisted shape
// never carries nulls, and repairs enum fields written by older versions.
func (c *Claim) Normalize() {
	if c.Tasks == nil {
		c.Tasks = []Task{}
	}
	if c.Reminders == nil {
		c.Reminders = []Reminder{}
	}
	if c.Drafts == nil {
		c.Drafts = []Draft{}
	}
	if c.Timeline == nil {
		c.Timeline = []TimelineEntry{}
	}
	c.Meta.Status = ParseStatus(c.Meta.Status)
	c.Meta.Stage = ParseStage(c.Meta.Stage)
	if c.Financials.Currency == "" {
		c.Financials.Currency = DefaultCurrency
	}
	c.Report.normalizeCollections()
}

// FindTask returns the task with the given id.
func (c *Claim) FindTask(id string) *Task {
	for i := range c.Tasks {
		if c.Tasks[i].ID == id {
			return &c.Tasks[i]
		}
	}
	return nil
}

// FindReminder returns the reminder with the given id.
func (c *Claim) FindReminder(id string) *Reminder {
	for i := range c.Reminders {
		if c.Reminders[i].ID == id {
			return &c.Reminders[i]
		}
	}
	return nil
}

// FindDraft returns the draft with the given id.
func (c *Claim) FindDraft(id string) *Draft {
	for i := range c.Drafts {
		if c.Drafts[i].ID == id {
			return &c.Drafts[i]
		}
	}
	return nil
}

// Snapshot is the persisted collection: the claim counter and every claim,
// newest insertion first.
type Snapshot struct {
	Counter int     `json:"counter"`
	Claims  []Claim `json:"claims"`
}

// NewSnapshot returns an empty collection.
func NewSnapshot() *Snapshot {
	return &Snapshot{Counter: 0, Claims: []Claim{}}
}

// Find returns the claim with the given id.
func (s *Snapshot) Find(id string) *Claim {
	for i := range s.Claims {
		if s.Claims[i].ID == id {
			return &s.Claims[i]
		}
	}
	return nil
}
