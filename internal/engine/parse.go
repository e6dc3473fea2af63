package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoJSON is returned when model output contains no JSON object.
var ErrNoJSON = errors.New("no JSON object in model output")

var (
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
	quoteRepairer = strings.NewReplacer(
		"\ufeff", "",
		"\u201c", `"`, "\u201d", `"`,
		"\u2018", "'", "\u2019", "'",
	)
)

// extractJSONObject returns the span from the first '{' to the last '}'.
func extractJSONObject(raw string) (string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return "", ErrNoJSON
	}
	return raw[start : end+1], nil
}

// repairJSON fixes defects models commonly emit: byte order marks, smart
// quotes and trailing commas before a closing bracket.
func repairJSON(s string) string {
	s = quoteRepairer.Replace(s)
	return trailingComma.ReplaceAllString(s, "$1")
}

// decodeModelJSON pulls the JSON object out of raw model output, repairs it
// and unmarshals it into v.
func decodeModelJSON(raw string, v any) error {
	block, err := extractJSONObject(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(block), v); err == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(repairJSON(block)), v); err != nil {
		return fmt.Errorf("parse model JSON after repair: %w", err)
	}
	return nil
}
