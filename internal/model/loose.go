package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// UnmarshalJSON decodes a report whatever shape its fields arrive in: lists
// where text is expected are joined with "; ", a single string where a list
// is expected becomes one item, and values of any other shape are formatted
// or dropped. A non-object report decodes as empty.
func (r *Report) UnmarshalJSON(b []byte) error {
	type plain Report
	var p plain
	if json.Unmarshal(b, &p) == nil {
		*r = Report(p)
		r.normalizeCollections()
		return nil
	}

	var f map[string]json.RawMessage
	if json.Unmarshal(b, &f) != nil {
		*r = Report{}
		return nil
	}
	*r = Report{
		IncidentType:       looseString(f["incident_type"]),
		DateTime:           looseString(f["date_time"]),
		Location:           looseString(f["location"]),
		Vessel:             looseString(f["vessel"]),
		Summary:            looseString(f["summary"]),
		PotentialClaims:    looseStrings(f["potential_claims"]),
		ImmediateActions:   looseString(f["immediate_actions"]),
		MissingInformation: looseString(f["missing_information"]),
		CoverageReasoning:  map[string]string{},
		DocumentsChecklist: map[string][]string{},
	}

	var reasoning map[string]json.RawMessage
	if json.Unmarshal(f["coverage_reasoning"], &reasoning) == nil {
		for k, v := range reasoning {
			r.CoverageReasoning[k] = looseString(v)
		}
	}
	var docs map[string]json.RawMessage
	if json.Unmarshal(f["documents_checklist"], &docs) == nil {
		for k, v := range docs {
			r.DocumentsChecklist[k] = looseStrings(v)
		}
	}
	return nil
}

// UnmarshalJSON decodes amounts given as numbers or numeric strings. Amounts
// that are not numbers read as 0 and a non-object decodes as empty.
func (f *Financials) UnmarshalJSON(b []byte) error {
	var p FinancialsPatch
	if err := json.Unmarshal(b, &p); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return err
		}
	}
	*f = Financials{}.Merge(p)
	return nil
}

// looseString reads a string, joins a list with "; ", and formats scalars.
func looseString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if json.Unmarshal(raw, &list) == nil {
		return strings.Join(trimAll(list), listSeparator+" ")
	}
	var v any
	if json.Unmarshal(raw, &v) != nil || v == nil {
		return ""
	}
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %v", k, t[k]))
		}
		return strings.Join(parts, listSeparator+" ")
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if e == nil {
				continue
			}
			if s := strings.TrimSpace(fmt.Sprint(e)); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, listSeparator+" ")
	default:
		return fmt.Sprint(t)
	}
}

// looseStrings reads a list of strings; a single string becomes a
// one-element list.
func looseStrings(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var list []any
	if json.Unmarshal(raw, &list) == nil {
		out := make([]string, 0, len(list))
		for _, v := range list {
			if v == nil {
				continue
			}
			if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	if s := looseString(raw); s != "" {
		return []string{s}
	}
	return []string{}
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
