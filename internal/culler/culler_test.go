package culler

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/nikbrunner/shelf/internal/model"
)

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	})
	mux.HandleFunc("/missing", http.NotFound)
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/get-only", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckURLs_Statuses(t *testing.T) {
	srv := newSite(t)

	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	bookmarks := []model.Bookmark{
		{ID: "ok", URL: srv.URL + "/ok"},
		{ID: "gone", URL: srv.URL + "/gone"},
		{ID: "missing", URL: srv.URL + "/missing"},
		{ID: "broken", URL: srv.URL + "/broken"},
		{ID: "get-only", URL: srv.URL + "/get-only"},
		{ID: "closed", URL: closedURL},
	}

	results := CheckURLs(context.Background(), bookmarks, Options{Concurrency: 3, Timeout: 5 * time.Second})

	want := map[string]Status{
		"ok":       Healthy,
		"gone":     Dead,
		"missing":  Dead,
		"broken":   Unreachable,
		"get-only": Healthy,
		"closed":   Unreachable,
	}
	if len(results) != len(bookmarks) {
		t.Fatalf("expected %d results, got %d", len(bookmarks), len(results))
	}
	for i, r := range results {
		if r.Bookmark.ID != bookmarks[i].ID {
			t.Errorf("result %d: expected bookmark %s, got %s", i, bookmarks[i].ID, r.Bookmark.ID)
		}
		if r.Status != want[r.Bookmark.ID] {
			t.Errorf("%s: expected %v, got %v (%s)", r.Bookmark.ID, want[r.Bookmark.ID], r.Status, r.Error)
		}
	}
	if results[3].Error != "Internal Server Error" {
		t.Errorf("expected status text for 500, got %q", results[3].Error)
	}
	if results[5].Error != "Connection refused" {
		t.Errorf("expected 'Connection refused', got %q", results[5].Error)
	}
}

func TestCheckURLs_ExcludedDomainIsPrivate(t *testing.T) {
	srv := newSite(t)

	results := CheckURLs(context.Background(), []model.Bookmark{{ID: "m", URL: srv.URL + "/missing"}}, Options{
		Concurrency:    1,
		Timeout:        5 * time.Second,
		ExcludeDomains: []string{"127.0.0.1"},
	})

	if results[0].Status != Unreachable {
		t.Errorf("expected Unreachable, got %v", results[0].Status)
	}
	if !strings.Contains(results[0].Error, "private") {
		t.Errorf("expected private hint, got %q", results[0].Error)
	}
}

func TestCheckURLs_Progress(t *testing.T) {
	srv := newSite(t)

	var mu sync.Mutex
	var calls []int
	bookmarks := []model.Bookmark{{URL: srv.URL + "/ok"}, {URL: srv.URL + "/ok"}, {URL: srv.URL + "/ok"}}

	CheckURLs(context.Background(), bookmarks, Options{
		Concurrency: 2,
		Timeout:     5 * time.Second,
		OnProgress: func(completed, total int) {
			mu.Lock()
			defer mu.Unlock()
			if total != 3 {
				t.Errorf("expected total 3, got %d", total)
			}
			calls = append(calls, completed)
		},
	})

	if len(calls) != 3 || calls[2] != 3 {
		t.Errorf("expected progress 1..3, got %v", calls)
	}
}

func TestCheckURLs_LogsToLogger(t *testing.T) {
	srv := newSite(t)

	var std bytes.Buffer
	log.SetOutput(&std)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	var buf bytes.Buffer
	logger := zerolog.New(zerolog.SyncWriter(&buf)).Level(zerolog.DebugLevel)
	bookmarks := []model.Bookmark{{ID: "ok", URL: srv.URL + "/ok"}, {ID: "gone", URL: srv.URL + "/gone"}}

	CheckURLs(context.Background(), bookmarks, Options{Concurrency: 2, Timeout: 5 * time.Second, Logger: &logger})

	out := buf.String()
	if !strings.Contains(out, `"id":"gone"`) || !strings.Contains(out, `"status":"dead"`) {
		t.Errorf("expected the dead link to be logged, got %s", out)
	}
	if strings.Contains(out, `"id":"ok"`) {
		t.Errorf("expected healthy links not to be logged, got %s", out)
	}
	if !strings.Contains(out, `"message":"check finished"`) || !strings.Contains(out, `"dead":1`) {
		t.Errorf("expected a summary line, got %s", out)
	}
	if log.Writer() != &std {
		t.Error("expected the standard logger output to be left alone")
	}
}

func TestCheckURLs_Empty(t *testing.T) {
	if results := CheckURLs(context.Background(), nil, Options{}); results != nil {
		t.Errorf("expected nil results, got %v", results)
	}
}

func TestGroup(t *testing.T) {
	results := []Result{
		{Bookmark: model.Bookmark{ID: "a"}, Status: Dead},
		{Bookmark: model.Bookmark{ID: "b"}, Status: Healthy},
		{Bookmark: model.Bookmark{ID: "c"}, Status: Dead},
	}

	groups := Group(results)

	if len(groups[Dead]) != 2 || groups[Dead][0].Bookmark.ID != "a" || groups[Dead][1].Bookmark.ID != "c" {
		t.Errorf("unexpected dead group: %+v", groups[Dead])
	}
	if len(groups[Healthy]) != 1 {
		t.Errorf("expected 1 healthy, got %d", len(groups[Healthy]))
	}
	if len(groups[Unreachable]) != 0 {
		t.Errorf("expected no unreachable, got %d", len(groups[Unreachable]))
	}
}

func TestIsExcludedDomain(t *testing.T) {
	exclude := map[string]bool{"github.com": true}

	tests := []struct {
		url  string
		want bool
	}{
		{"https://github.com/me/private", true},
		{"https://api.github.com/x", true},
		{"https://GitHub.com:443/x", true},
		{"https://notgithub.com", false},
		{"https://example.com", false},
	}
	for _, tt := range tests {
		if got := isExcludedDomain(tt.url, exclude); got != tt.want {
			t.Errorf("isExcludedDomain(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestNormalizeError(t *testing.T) {
	tests := map[string]string{
		"dial tcp: lookup nope.invalid: no such host":       "DNS failure",
		"Get \"x\": context deadline exceeded":              "Timeout",
		"dial tcp 127.0.0.1:1: connect: connection refused": "Connection refused",
		"x509: certificate signed by unknown authority":     "TLS/certificate error",
		"something odd":                                     "something odd",
	}
	for input, want := range tests {
		if got := normalizeError(input); got != want {
			t.Errorf("normalizeError(%q) = %q, want %q", input, got, want)
		}
	}
}
