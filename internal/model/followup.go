package model

// Reminder status constants
type ReminderStatus string

const (
	ReminderPending ReminderStatus = "pending"
	ReminderDone    ReminderStatus = "done"
)

// Channel is how a reminder is delivered.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelCall     Channel = "call"
	ChannelWhatsApp Channel = "whatsapp"
)

// ParseChannel returns c when known and ChannelEmail otherwise.
func ParseChannel(c Channel) Channel {
	switch c {
	case ChannelEmail, ChannelCall, ChannelWhatsApp:
		return c
	default:
		return ChannelEmail
	}
}

// Reminder is a scheduled follow-up on a claim.
type Reminder struct {
	ID        string         `json:"id"`
	CreatedAt string         `json:"createdAt"`
	Status    ReminderStatus `json:"status"`
	DueAt     string         `json:"dueAt"`
	To        string         `json:"to"`
	Channel   Channel        `json:"channel"`
	Subject   string         `json:"subject"`
	Context   string         `json:"context"`
}

// ReminderInput is the caller-supplied part of a new reminder.
type ReminderInput struct {
	DueAt   string  `json:"dueAt"`
	To      string  `json:"to"`
	Channel Channel `json:"channel,omitempty"`
	Subject string  `json:"subject"`
	Context string  `json:"context"`
}

// Draft status constants
type DraftStatus string

const (
	DraftDraft DraftStatus = "draft"
	DraftSent  DraftStatus = "sent"
)

// DraftType tags what an outbound email is for.
type DraftType string

const (
	DraftReminder         DraftType = "reminder"
	DraftNotification     DraftType = "notification"
	DraftUpdate           DraftType = "update"
	DraftDemand           DraftType = "demand"
	DraftGeneral          DraftType = "general"
	DraftTaskFollowup     DraftType = "task_followup"
	DraftClubNotification DraftType = "club_notification"
)

// ParseDraftType returns t when known and DraftGeneral otherwise.
func ParseDraftType(t DraftType) DraftType {
	switch t {
	case DraftReminder, DraftNotification, DraftUpdate, DraftDemand,
		DraftGeneral, DraftTaskFollowup, DraftClubNotification:
		return t
	default:
		return DraftGeneral
	}
}

// Draft is a generated outbound email tied to a claim.
type Draft struct {
	ID        string      `json:"id"`
	ClaimID   string      `json:"claimId"`
	CreatedAt string      `json:"createdAt"`
	Type      DraftType   `json:"type"`
	Status    DraftStatus `json:"status"`
	SentAt    string      `json:"sentAt,omitempty"`
	To        string      `json:"to"`
	Subject   string      `json:"subject"`
	Body      string      `json:"body"`
}

// DraftInput is the caller-supplied part of a new draft.
type DraftInput struct {
	Type    DraftType `json:"type,omitempty"`
	To      string    `json:"to"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
}

// Timeline entry types
type EventType string

const (
	EventCreated           EventType = "created"
	EventStatusChanged     EventType = "status_changed"
	EventStageChanged      EventType = "stage_changed"
	EventMetaUpdated       EventType = "meta_updated"
	EventFinancialsUpdated EventType = "financials_updated"
	EventTaskUpdated       EventType = "task_updated"
	EventReminderAdded     EventType = "reminder_added"
	EventReminderDone      EventType = "reminder_done"
	EventDraftCreated      EventType = "draft_created"
	EventDraftSent         EventType = "draft_sent"
)

// TimelineEntry is one immutable audit record.
type TimelineEntry struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Message   string    `json:"message"`
	CreatedAt string    `json:"createdAt"`
}
