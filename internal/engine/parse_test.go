package engine

import (
	"errors"
	"testing"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, false},
		{"markdown fence", "```json\n{\"a\":{\"b\":2}}\n```", `{"a":{"b":2}}`, false},
		{"leading prose", `Sure! Here it is: {"a":1} Hope that helps.`, `{"a":1}`, false},
		{"no object", "I cannot help with that.", "", true},
		{"reversed braces", "} oops {", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSONObject(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrNoJSON) {
					t.Errorf("err = %v, want ErrNoJSON", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("extractJSONObject: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trailing comma in object", `{"a":1,}`, `{"a":1}`},
		{"trailing comma in array", `{"a":[1,2, ]}`, `{"a":[1,2]}`},
		{"smart double quotes", "{\u201ca\u201d:\u201cb\u201d}", `{"a":"b"}`},
		{"smart single quotes", "{\"a\":\"Master\u2019s log\"}", `{"a":"Master's log"}`},
		{"byte order mark", "\ufeff{\"a\":1}", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := repairJSON(tt.in); got != tt.want {
				t.Errorf("repairJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodeModelJSON(t *testing.T) {
	var v struct {
		Subject string `json:"subject"`
	}
	if err := decodeModelJSON("Output:\n{\u201csubject\u201d: \u201cHello\u201d,}\n", &v); err != nil {
		t.Fatalf("decodeModelJSON: %v", err)
	}
	if v.Subject != "Hello" {
		t.Errorf("Subject = %q, want Hello", v.Subject)
	}

	if err := decodeModelJSON(`{"subject": }`, &v); err == nil {
		t.Error("expected error for unrepairable JSON")
	}
}
