package engine

import (
	"context"

	"github.com/novacarriers/claimdesk/internal/model"
)

// ReportGenerator asks the model for a first-notice report and sanitizes
// whatever comes back.
type ReportGenerator struct {
	model ModelClient
}

// NewReportGenerator creates a generator on top of mc.
func NewReportGenerator(mc ModelClient) *ReportGenerator {
	return &ReportGenerator{model: mc}
}

// Generate returns the structured report for narrative and one open task
// per immediate action.
func (g *ReportGenerator) Generate(ctx context.Context, narrative string) (*model.Report, []model.Task, error) {
	raw, err := g.model.Complete(ctx, buildReportPrompt(narrative))
	if err != nil {
		return nil, nil, err
	}

	// Report decoding coerces fields of the wrong shape instead of failing.
	var r model.Report
	if err := decodeModelJSON(raw, &r); err != nil {
		return nil, nil, err
	}
	if len(r.PotentialClaims) == 0 {
		r.PotentialClaims = []string{model.LinePI}
	}

	actions := r.ActionItems()
	tasks := make([]model.Task, 0, len(actions))
	for _, a := range actions {
		tasks = append(tasks, model.Task{Title: a, Status: model.TaskOpen})
	}
	return &r, tasks, nil
}
