package model

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Insurance lines the report generator may name.
const (
	LinePI         = "P&I"
	LineHM         = "H&M"
	LineCharterers = "Charterers Liability"
	LineCargo      = "Cargo"
	LineFDD        = "FD&D"
)

const (
	reportUnknown   = "Unknown"
	summaryMaxRunes = 240
	listSeparator   = ";"
)

// InsuranceLines lists every line the generator is allowed to use.
var InsuranceLines = []string{LinePI, LineHM, LineCharterers, LineCargo, LineFDD}

// Report is the structured incident report produced from a narrative.
type Report struct {
	IncidentType       string              `json:"incident_type"`
	DateTime           string              `json:"date_time"`
	Location           string              `json:"location"`
	Vessel             string              `json:"vessel"`
	Summary            string              `json:"summary"`
	PotentialClaims    []string            `json:"potential_claims"`
	ImmediateActions   string              `json:"immediate_actions"`
	MissingInformation string              `json:"missing_information"`
	CoverageReasoning  map[string]string   `json:"coverage_reasoning"`
	DocumentsChecklist map[string][]string `json:"documents_checklist"`
}

// WithDefaults fills every blank field of r. The summary falls back to the
// start of the narrative and the incident time to now.
func (r Report) WithDefaults(narrative string, now time.Time) Report {
	if strings.TrimSpace(r.IncidentType) == "" {
		r.IncidentType = reportUnknown
	}
	if strings.TrimSpace(r.DateTime) == "" {
		r.DateTime = FormatTime(now)
	}
	if strings.TrimSpace(r.Location) == "" {
		r.Location = reportUnknown
	}
	if strings.TrimSpace(r.Vessel) == "" {
		r.Vessel = reportUnknown
	}
	if strings.TrimSpace(r.Summary) == "" {
		r.Summary = truncateRunes(narrative, summaryMaxRunes)
	}
	r.normalizeCollections()
	return r
}

func (r *Report) normalizeCollections() {
	if r.PotentialClaims == nil {
		r.PotentialClaims = []string{}
	}
	if r.CoverageReasoning == nil {
		r.CoverageReasoning = map[string]string{}
	}
	if r.DocumentsChecklist == nil {
		r.DocumentsChecklist = map[string][]string{}
	}
}

// ActionItems splits the semicolon-separated immediate actions.
func (r Report) ActionItems() []string {
	return splitList(r.ImmediateActions)
}

// MissingItems splits the semicolon-separated missing information.
func (r Report) MissingItems() []string {
	return splitList(r.MissingInformation)
}

func splitList(s string) []string {
	parts := strings.Split(s, listSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
