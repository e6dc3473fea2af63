package engine

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/novacarriers/claimdesk/internal/model"
)

// StubExtractor returns mock extraction results (for development/testing).
type StubExtractor struct{}

func (e *StubExtractor) Extract(_ context.Context, url string) (*ExtractedContent, error) {
	text := "Casualty bulletin retrieved from " + url + ". The bulk carrier MV Stub Trader reported " +
		"contact with the berth while manoeuvring in strong winds; shell plating dented above the waterline, no pollution."
	return &ExtractedContent{
		NormalizedText: text,
		Meta: ContentMeta{
			Title:     "Stub casualty bulletin",
			WordCount: len(strings.Fields(text)),
		},
	}, nil
}

// StubModelClient returns canned LLM responses (for development/testing).
type StubModelClient struct{}

func (m *StubModelClient) Complete(_ context.Context, prompt string) (string, error) {
	switch {
	case strings.Contains(prompt, reportPromptMarker):
		report := model.Report{
			IncidentType:       "Grounding",
			DateTime:           "Unknown",
			Location:           "Unknown",
			Vessel:             "Unknown",
			Summary:            "[Stub] Vessel touched bottom during pilotage; hull inspection pending.",
			PotentialClaims:    []string{model.LineHM, model.LinePI},
			ImmediateActions:   "Notify H&M underwriters; Notify P&I club; Appoint independent surveyor; Secure VDR and deck logbook",
			MissingInformation: "Exact position; Draft readings before and after; Pilot details",
			CoverageReasoning: map[string]string{
				model.LineHM: "Physical damage to hull from grounding.",
				model.LinePI: "Possible pollution or third-party liabilities.",
			},
			DocumentsChecklist: map[string][]string{
				model.LineHM: {"Survey report", "Repair estimate", "Class report"},
				model.LinePI: {"Master's statement", "Pilot card", "VDR extract"},
			},
		}
		b, _ := json.Marshal(report)
		return "Here is the report:\n" + string(b), nil

	case strings.Contains(prompt, draftPromptMarker):
		b, _ := json.Marshal(draftResult{
			Subject: "[Stub] Claim follow-up",
			Body:    "Dear Sirs,\n\nWe refer to the above incident and kindly request:\n- Survey report\n- Master's statement\n\nBest regards,\nClaims Team",
		})
		return string(b), nil
	}
	return "{}", nil
}
