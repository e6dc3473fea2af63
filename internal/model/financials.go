package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// DefaultCurrency is applied when no currency is supplied.
const DefaultCurrency = "USD"

// Financials holds the money fields of a claim. All amounts are finite.
type Financials struct {
	Currency         string  `json:"currency"`
	ClaimValue       float64 `json:"claim_value"`
	Reserve          float64 `json:"reserve"`
	Paid             float64 `json:"paid"`
	Deductible       float64 `json:"deductible"`
	RecoveryExpected float64 `json:"recovery_expected"`
	RecoveryReceived float64 `json:"recovery_received"`
}

// Exposure is reserve - paid - deductible + recovery_expected - recovery_received.
func (f Financials) Exposure() float64 {
	return f.Reserve - f.Paid - f.Deductible + f.RecoveryExpected - f.RecoveryReceived
}

// Numeric is a loosely typed number as it arrives from a client: a JSON
// number, a numeric string, or anything else. Value coerces it.
type Numeric string

// Num wraps a float as a *Numeric.
func Num(f float64) *Numeric {
	n := Numeric(strconv.FormatFloat(f, 'g', -1, 64))
	return &n
}

// UnmarshalJSON accepts any JSON value.
func (n *Numeric) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")), bytes.Equal(b, []byte("false")):
		*n = "0"
	case bytes.Equal(b, []byte("true")):
		*n = "1"
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = Numeric(s)
	default:
		*n = Numeric(b)
	}
	return nil
}

// Value returns the coerced number.
func (n Numeric) Value() float64 {
	return SafeNumber(string(n))
}

// SafeNumber parses s as a float and returns 0 for anything that is not a
// finite number. Blank input is 0.
func SafeNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// FinancialsPatch is a partial Financials. Nil fields are left untouched.
type FinancialsPatch struct {
	Currency         *string  `json:"currency,omitempty"`
	ClaimValue       *Numeric `json:"claim_value,omitempty"`
	Reserve          *Numeric `json:"reserve,omitempty"`
	Paid             *Numeric `json:"paid,omitempty"`
	Deductible       *Numeric `json:"deductible,omitempty"`
	RecoveryExpected *Numeric `json:"recovery_expected,omitempty"`
	RecoveryReceived *Numeric `json:"recovery_received,omitempty"`
}

// NewFinancials builds Financials from defaults and an optional partial.
func NewFinancials(p *FinancialsPatch) Financials {
	f := Financials{Currency: DefaultCurrency}
	if p != nil {
		f = f.Merge(*p)
	}
	return f
}

// Merge applies p over f, coercing every present amount.
func (f Financials) Merge(p FinancialsPatch) Financials {
	if p.Currency != nil {
		f.Currency = strings.TrimSpace(*p.Currency)
		if f.Currency == "" {
			f.Currency = DefaultCurrency
		}
	}
	apply := func(dst *float64, v *Numeric) {
		if v != nil {
			*dst = v.Value()
		}
	}
	apply(&f.ClaimValue, p.ClaimValue)
	apply(&f.Reserve, p.Reserve)
	apply(&f.Paid, p.Paid)
	apply(&f.Deductible, p.Deductible)
	apply(&f.RecoveryExpected, p.RecoveryExpected)
	apply(&f.RecoveryReceived, p.RecoveryReceived)
	return f
}

// Differs reports whether any field's string form differs between f and g.
func (f Financials) Differs(g Financials) bool {
	a, b := f.fields(), g.fields()
	for i := range a {
		if a[i] != b[i] {
			return true
		}
	}
	return false
}

func (f Financials) fields() [7]string {
	s := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return [7]string{
		f.Currency,
		s(f.ClaimValue),
		s(f.Reserve),
		s(f.Paid),
		s(f.Deductible),
		s(f.RecoveryExpected),
		s(f.RecoveryReceived),
	}
}
