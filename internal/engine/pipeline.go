package engine

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/novacarriers/claimdesk/internal/model"
)

// ErrEmptyIncident is returned when a request carries neither text nor a URL.
var ErrEmptyIncident = errors.New("no incident text provided")

// IntakeRequest is the raw material for a new claim.
type IntakeRequest struct {
	IncidentText string
	SourceURL    string
}

// Intake is the state carried through the intake steps.
type Intake struct {
	Request   IntakeRequest
	Narrative string
	Source    *ExtractedContent
	Report    *model.Report
	Tasks     []model.Task
}

// Step is one stage of the intake pipeline.
type Step interface {
	Name() string
	Run(ctx context.Context, in *Intake) error
}

// Pipeline runs the intake steps in order.
type Pipeline struct {
	steps []Step
}

// NewPipeline creates a pipeline with the given steps.
func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// NewIntakePipeline wires the standard extract → report steps.
func NewIntakePipeline(extractor ContentExtractor, reporter Reporter) *Pipeline {
	return NewPipeline(
		&ExtractStep{Extractor: extractor},
		&ReportStep{Reporter: reporter},
	)
}

// Run executes all steps for req. On failure it returns a *StepError
// naming the step that failed.
func (p *Pipeline) Run(ctx context.Context, req IntakeRequest) (*Intake, error) {
	req.IncidentText = strings.TrimSpace(req.IncidentText)
	req.SourceURL = strings.TrimSpace(req.SourceURL)
	if req.IncidentText == "" && req.SourceURL == "" {
		return nil, ErrEmptyIncident
	}

	in := &Intake{Request: req, Narrative: req.IncidentText}
	for _, s := range p.steps {
		start := time.Now()
		if err := s.Run(ctx, in); err != nil {
			slog.Error("intake step failed", "step", s.Name(), "error", err)
			return nil, &StepError{Step: s.Name(), Err: err}
		}
		slog.Debug("intake step done", "step", s.Name(), "elapsed", time.Since(start).String())
	}
	return in, nil
}

// StepError wraps an error with the step name that failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return e.Step + ": " + e.Err.Error()
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// ---------------------------------------------------------------------------
// Step: extract
// ---------------------------------------------------------------------------

// ExtractStep fetches the source URL when one is given. Extracted text is
// appended to any narrative the handler typed.
type ExtractStep struct {
	Extractor ContentExtractor
}

func (s *ExtractStep) Name() string { return "extract" }

func (s *ExtractStep) Run(ctx context.Context, in *Intake) error {
	if in.Request.SourceURL == "" {
		return nil
	}
	content, err := s.Extractor.Extract(ctx, in.Request.SourceURL)
	if err != nil {
		return err
	}
	in.Source = content

	parts := []string{}
	if in.Narrative != "" {
		parts = append(parts, in.Narrative)
	}
	if content.Meta.Title != "" {
		parts = append(parts, content.Meta.Title)
	}
	parts = append(parts, content.NormalizedText, "Source: "+in.Request.SourceURL)
	in.Narrative = strings.Join(parts, "\n\n")
	return nil
}

// ---------------------------------------------------------------------------
// Step: report
// ---------------------------------------------------------------------------

// ReportStep turns the narrative into a report and its task list.
type ReportStep struct {
	Reporter Reporter
}

func (s *ReportStep) Name() string { return "report" }

func (s *ReportStep) Run(ctx context.Context, in *Intake) error {
	report, tasks, err := s.Reporter.Generate(ctx, in.Narrative)
	if err != nil {
		return err
	}
	in.Report = report
	in.Tasks = tasks
	return nil
}
