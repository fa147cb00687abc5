// Package apitest provides an in-process fake of the remote bookmark store
// and the summary service for tests.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/nikbrunner/shelf/internal/model"
)

// Route keys used by FailRoute and Calls.
const (
	RouteList     = "GET /bookmarks"
	RouteCreate   = "POST /bookmarks"
	RouteDelete   = "DELETE /bookmarks/{id}"
	RouteReorder  = "PUT /bookmarks/reorder"
	RouteLogin    = "POST /auth/login"
	RouteRegister = "POST /auth/register"
	RouteSummary  = "GET /extract/{target}"
)

// Test credentials registered on every new Server.
const (
	Email    = "reader@example.com"
	Password = "hunter2"
)

var baseTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// Server is a fake bookmark store backed by memory.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	bookmarks []model.Bookmark
	users     map[string]string // email -> password
	tokens    map[string]string // token -> email
	failures  map[string]int    // route -> status to answer with
	calls     map[string]int
	targets   []string // summary targets as received (still escaped)
	summaries map[string]string
	clock     int
}

// NewServer starts a fake store with one registered user.
func NewServer() *Server {
	s := &Server{
		users:     map[string]string{Email: Password},
		tokens:    map[string]string{},
		failures:  map[string]int{},
		calls:     map[string]int{},
		summaries: map[string]string{},
	}

	r := mux.NewRouter()
	r.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	r.Handle("/bookmarks", s.authed(RouteList, s.handleList)).Methods(http.MethodGet)
	r.Handle("/bookmarks", s.authed(RouteCreate, s.handleCreate)).Methods(http.MethodPost)
	r.Handle("/bookmarks/reorder", s.authed(RouteReorder, s.handleReorder)).Methods(http.MethodPut)
	r.Handle("/bookmarks/{id}", s.authed(RouteDelete, s.handleDelete)).Methods(http.MethodDelete)
	r.PathPrefix("/extract/").HandlerFunc(s.handleSummary).Methods(http.MethodGet)

	s.Server = httptest.NewServer(r)
	return s
}

// SummaryURL is the base URL of the fake summary service.
func (s *Server) SummaryURL() string {
	return s.URL + "/extract"
}

// Token logs in the default user and returns a bearer token.
func (s *Server) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueTokenLocked(Email)
}

// Seed appends bookmarks as-is to the store.
func (s *Server) Seed(bookmarks ...model.Bookmark) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookmarks = append(s.bookmarks, bookmarks...)
}

// Bookmarks returns a copy of the stored bookmarks in storage order.
func (s *Server) Bookmarks() []model.Bookmark {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.CloneBookmarks(s.bookmarks)
}

// SetSummary fixes the text returned for an escaped summary target.
func (s *Server) SetSummary(target, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[target] = text
}

// FailRoute makes a route answer with status until ClearFailures is called.
func (s *Server) FailRoute(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = status
}

// ClearFailures removes all injected failures.
func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = map[string]int{}
}

// Calls returns how often a route was hit, including failed and
// unauthorized requests.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// SummaryTargets returns the escaped targets the summary service received.
func (s *Server) SummaryTargets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.targets...)
}

func (s *Server) issueTokenLocked(email string) string {
	token := uuid.NewString()
	s.tokens[token] = email
	return token
}

// hit counts the call and reports an injected failure status, if any.
func (s *Server) hit(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[route]++
	return s.failures[route]
}

func (s *Server) authed(route string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status := s.hit(route); status != 0 {
			writeError(w, status, "injected failure")
			return
		}

		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		_, ok := s.tokens[token]
		s.mu.Unlock()
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next(w, r)
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if status := s.hit(RouteLogin); status != 0 {
		writeError(w, status, "injected failure")
		return
	}

	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	password, ok := s.users[creds.Email]
	if !ok || password != creds.Password {
		s.mu.Unlock()
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token := s.issueTokenLocked(creds.Email)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if status := s.hit(RouteRegister); status != 0 {
		writeError(w, status, "injected failure")
		return
	}

	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Email == "" || creds.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[creds.Email]; exists {
		writeError(w, http.StatusConflict, "user already exists")
		return
	}
	s.users[creds.Email] = creds.Password
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Bookmarks())
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL     string   `json:"url"`
		Tags    []string `json:"tags"`
		Summary string   `json:"summary"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	s.mu.Lock()
	maxPos := -1
	for _, b := range s.bookmarks {
		if b.Position > maxPos {
			maxPos = b.Position
		}
	}
	s.clock++
	created := model.Bookmark{
		ID:        uuid.NewString(),
		URL:       body.URL,
		Tags:      body.Tags,
		Summary:   body.Summary,
		Position:  maxPos + 1,
		CreatedAt: baseTime.Add(time.Duration(s.clock) * time.Minute).Format(time.RFC3339),
	}
	if created.Tags == nil {
		created.Tags = []string{}
	}
	s.bookmarks = append(s.bookmarks, created)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	defer s.mu.Unlock()
	if model.IndexOf(s.bookmarks, id) < 0 {
		writeError(w, http.StatusNotFound, "bookmark not found")
		return
	}
	s.bookmarks = model.RemoveByID(s.bookmarks, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Updates []struct {
			ID       string `json:"id"`
			Position int    `json:"position"`
		} `json:"updates"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range body.Updates {
		if idx := model.IndexOf(s.bookmarks, u.ID); idx >= 0 {
			s.bookmarks[idx].Position = u.Position
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if status := s.hit(RouteSummary); status != 0 {
		http.Error(w, "extraction failed", status)
		return
	}

	target := strings.TrimPrefix(r.URL.EscapedPath(), "/extract/")

	s.mu.Lock()
	s.targets = append(s.targets, target)
	text, ok := s.summaries[target]
	s.mu.Unlock()

	if !ok {
		decoded, err := url.PathUnescape(target)
		if err != nil {
			decoded = target
		}
		text = fmt.Sprintf("Summary of %s", decoded)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(text))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
