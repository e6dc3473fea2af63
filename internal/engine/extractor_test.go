package engine

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const bulletinHTML = `<!DOCTYPE html>
<html><head><title>Casualty: MV Coral Bay aground off Qingdao</title></head>
<body>
<nav>Home | News | Contact</nav>
<article>
<h1>MV Coral Bay aground off Qingdao</h1>
<p>The 58,000 dwt bulk carrier MV Coral Bay grounded at the approaches to Qingdao on the evening of 18 January while
inbound with a pilot on board. Initial reports indicate a breach in the forepeak tank and minor water ingress.</p>
<p>No injuries or pollution were reported. Tugs were dispatched and the vessel was refloated on the next high tide.
Class surveyors are expected to attend on arrival at the berth, and divers will inspect the bottom plating.</p>
<p>The owners have notified their hull underwriters and the P&amp;I club. Cargo of iron ore remains on board.</p>
</article>
<footer>Copyright</footer>
</body></html>`

func TestURLExtractor_Extract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, bulletinHTML)
	}))
	defer srv.Close()

	got, err := NewURLExtractor(5*time.Second, 0).Extract(context.Background(), srv.URL+"/casualty/1")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(got.NormalizedText, "forepeak tank") {
		t.Errorf("text missing article body: %q", got.NormalizedText)
	}
	if got.Meta.WordCount == 0 {
		t.Error("WordCount should be set")
	}
}

func TestURLExtractor_Truncates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, bulletinHTML)
	}))
	defer srv.Close()

	got, err := NewURLExtractor(5*time.Second, 120).Extract(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.HasSuffix(got.NormalizedText, "[truncated]") {
		t.Errorf("text should be truncated: %q", got.NormalizedText)
	}
}

func TestURLExtractor_Errors(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	e := NewURLExtractor(5*time.Second, 0)
	e.backoff = time.Millisecond

	if _, err := e.Extract(context.Background(), srv.URL); err == nil {
		t.Error("expected error for 403")
	}
	if attempts != maxRetries {
		t.Errorf("attempts = %d, want %d", attempts, maxRetries)
	}

	for _, bad := range []string{"", "ftp://example.com/x", "not a url"} {
		if _, err := e.Extract(context.Background(), bad); err == nil {
			t.Errorf("Extract(%q) should fail", bad)
		}
	}
}
