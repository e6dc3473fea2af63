package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sub-entity id prefixes.
const (
	PrefixTask     = "T"
	PrefixReminder = "R"
	PrefixDraft    = "D"
	PrefixTimeline = "TL-"
)

// ClaimID formats a claim id from the creation date (UTC) and counter,
// e.g. NC-20260119-0001.
func ClaimID(t time.Time, counter int) string {
	return fmt.Sprintf("NC-%s-%04d", t.UTC().Format("20060102"), counter)
}

// SubID returns a new id for a task, reminder, draft or timeline entry of
// the given claim. Uniqueness within the claim is checked by the caller.
func SubID(claimID, prefix string) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return claimID + "-" + prefix + strings.ToUpper(hex[:8])
}
