package engine

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/novacarriers/claimdesk/internal/model"
)

// Marker phrases identify each prompt; StubModelClient keys off them.
const (
	reportPromptMarker = "senior marine insurance claims handler for Nova Carriers"
	draftPromptMarker  = "drafting professional emails for Nova Carriers"
)

// maxNarrativeRunes bounds how much narrative is sent to the model.
const maxNarrativeRunes = 12000

func buildReportPrompt(narrative string) string {
	lines := `"` + strings.Join(model.InsuranceLines, `","`) + `"`
	return fmt.Sprintf(`You are a %s.

Return STRICT JSON only (no markdown, no commentary). If unknown, write "Unknown".
Use these allowed insurance lines only: [%s].

JSON structure:
{
  "incident_type": "",
  "date_time": "",
  "location": "",
  "vessel": "",
  "summary": "",
  "potential_claims": [],
  "immediate_actions": "",
  "missing_information": "",
  "coverage_reasoning": {},
  "documents_checklist": {}
}

Rules:
- potential_claims must include at least 1 allowed line.
- immediate_actions: semicolon-separated checklist (actions to take now).
- missing_information: semicolon-separated missing items.
- coverage_reasoning: object keyed by each line in potential_claims (value = short reasoning).
- documents_checklist: object keyed by each line in potential_claims (value = array of documents/evidence).

Incident description:
"""
%s
"""`, reportPromptMarker, lines, truncateRunes(narrative, maxNarrativeRunes))
}

func buildDraftPrompt(c *model.Claim, req DraftRequest) string {
	r := c.Report
	return fmt.Sprintf(`You are a senior marine insurance claims handler %s.

Constraints:
- Clear subject line
- Short paragraphs
- Bullet points for documents/info requested
- Professional tone (P&I / H&M context)
- Do not invent facts not in claim narrative/report; if needed, request them.

Claim ID: %s
Vessel: %s
Incident: %s
Location: %s
Date/Time: %s

Narrative:
%s

Key missing info:
%s

Intent: %s
Recipient: %s
Subject hint: %s
Additional context: %s

Return STRICT JSON:
{"subject":"...","body":"..."}`,
		draftPromptMarker,
		c.ID, r.Vessel, r.IncidentType, r.Location, r.DateTime,
		truncateRunes(c.Narrative, maxNarrativeRunes),
		bulletList(r.MissingItems()),
		req.Intent, req.To, req.SubjectHint, req.Context)
}

// bulletList renders items one per line as "- item".
func bulletList(items []string) string {
	if len(items) == 0 {
		return "- none recorded"
	}
	return "- " + strings.Join(items, "\n- ")
}

// truncateRunes truncates s to maxRunes runes (Unicode-safe).
func truncateRunes(s string, maxRunes int) string {
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxRunes]) + "\n... [truncated]"
}
