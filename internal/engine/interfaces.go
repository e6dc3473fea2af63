package engine

import (
	"context"

	"github.com/novacarriers/claimdesk/internal/model"
)

// ModelClient abstracts LLM calls. Implementations can wrap OpenAI, local models, etc.
type ModelClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ContentExtractor abstracts web content extraction.
type ContentExtractor interface {
	Extract(ctx context.Context, url string) (*ExtractedContent, error)
}

// ExtractedContent holds the result of content extraction.
type ExtractedContent struct {
	NormalizedText string      `json:"normalized_text"`
	Meta           ContentMeta `json:"content_meta"`
}

// ContentMeta holds metadata about the extracted content.
type ContentMeta struct {
	Title       string `json:"title,omitempty"`
	Author      string `json:"author,omitempty"`
	PublishDate string `json:"publish_date,omitempty"`
	WordCount   int    `json:"word_count"`
}

// Reporter turns an incident narrative into a structured first notice.
type Reporter interface {
	Generate(ctx context.Context, narrative string) (*model.Report, []model.Task, error)
}

// Composer writes an email draft for a claim.
type Composer interface {
	Compose(ctx context.Context, claim *model.Claim, req DraftRequest) (model.DraftInput, error)
}

// DraftRequest describes the email a handler wants written.
type DraftRequest struct {
	Intent      string `json:"intent"`
	To          string `json:"to"`
	SubjectHint string `json:"subjectHint"`
	Context     string `json:"context"`
}
