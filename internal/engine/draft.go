package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/novacarriers/claimdesk/internal/model"
)

// Defaults for an underspecified draft request.
const (
	defaultIntent    = "reminder"
	defaultRecipient = "Unknown recipient"
)

// DraftComposer writes claim emails with the model.
type DraftComposer struct {
	model ModelClient
}

// NewDraftComposer creates a composer on top of mc.
func NewDraftComposer(mc ModelClient) *DraftComposer {
	return &DraftComposer{model: mc}
}

type draftResult struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Compose asks the model for a subject and body. The subject falls back to
// the hint, then to a generic follow-up line.
func (d *DraftComposer) Compose(ctx context.Context, c *model.Claim, req DraftRequest) (model.DraftInput, error) {
	req = req.withDefaults()

	raw, err := d.model.Complete(ctx, buildDraftPrompt(c, req))
	if err != nil {
		return model.DraftInput{}, err
	}
	var res draftResult
	if err := decodeModelJSON(raw, &res); err != nil {
		return model.DraftInput{}, err
	}

	subject := strings.TrimSpace(res.Subject)
	if subject == "" {
		subject = req.SubjectHint
	}
	if subject == "" {
		subject = fmt.Sprintf("Claim %s – Follow-up", c.ID)
	}
	return model.DraftInput{
		Type:    DraftTypeForIntent(req.Intent),
		To:      req.To,
		Subject: subject,
		Body:    res.Body,
	}, nil
}

func (r DraftRequest) withDefaults() DraftRequest {
	r.Intent = strings.TrimSpace(r.Intent)
	r.To = strings.TrimSpace(r.To)
	r.SubjectHint = strings.TrimSpace(r.SubjectHint)
	r.Context = strings.TrimSpace(r.Context)
	if r.Intent == "" {
		r.Intent = defaultIntent
	}
	if r.To == "" {
		r.To = defaultRecipient
	}
	return r
}

// DraftTypeForIntent maps a free-form intent to a draft type. Task
// follow-ups and club notifications keep their own type; everything else is
// a reminder.
func DraftTypeForIntent(intent string) model.DraftType {
	switch t := model.DraftType(strings.TrimSpace(intent)); t {
	case model.DraftTaskFollowup, model.DraftClubNotification:
		return t
	default:
		return model.DraftReminder
	}
}
