// Package api is the HTTP client for the remote bookmark store.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nikbrunner/shelf/internal/model"
	"github.com/nikbrunner/shelf/internal/session"
)

// CreateBookmarkRequest is the body of POST /bookmarks.
type CreateBookmarkRequest struct {
	URL     string   `json:"url"`
	Tags    []string `json:"tags"`
	Summary string   `json:"summary"`
}

// PositionUpdate assigns a position to a bookmark.
type PositionUpdate struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
}

type reorderRequest struct {
	Updates []PositionUpdate `json:"updates"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Client talks to the remote bookmark store.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// ClientParams holds parameters for creating a new Client.
type ClientParams struct {
	BaseURL    string
	Timeout    time.Duration   // ignored when HTTPClient is set
	HTTPClient *http.Client    // optional
	Logger     *zerolog.Logger // optional, discards when nil
}

// NewClient creates a new store client.
func NewClient(params ClientParams) *Client {
	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: params.Timeout}
	}

	logger := zerolog.Nop()
	if params.Logger != nil {
		logger = params.Logger.With().Str("component", "api").Logger()
	}

	return &Client{
		baseURL:    strings.TrimRight(params.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// ListBookmarks fetches the full collection.
func (c *Client) ListBookmarks(ctx context.Context, sess *session.Session) ([]model.Bookmark, error) {
	if !sess.Valid() {
		return nil, ErrNotLoggedIn
	}

	var bookmarks []model.Bookmark
	if err := c.do(ctx, sess, http.MethodGet, "/bookmarks", nil, &bookmarks); err != nil {
		return nil, err
	}
	if bookmarks == nil {
		bookmarks = []model.Bookmark{}
	}
	return bookmarks, nil
}

// CreateBookmark stores a new bookmark and returns the server's record.
func (c *Client) CreateBookmark(ctx context.Context, sess *session.Session, req CreateBookmarkRequest) (*model.Bookmark, error) {
	if !sess.Valid() {
		return nil, ErrNotLoggedIn
	}
	if strings.TrimSpace(req.URL) == "" {
		return nil, &ValidationError{Field: "url"}
	}
	if req.Tags == nil {
		req.Tags = []string{}
	}

	var created model.Bookmark
	if err := c.do(ctx, sess, http.MethodPost, "/bookmarks", req, &created); err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, fmt.Errorf("%w: created bookmark has no id", ErrInvalidResponse)
	}
	return &created, nil
}

// DeleteBookmark removes a bookmark by ID.
func (c *Client) DeleteBookmark(ctx context.Context, sess *session.Session, id string) error {
	if !sess.Valid() {
		return ErrNotLoggedIn
	}
	if id == "" {
		return &ValidationError{Field: "id"}
	}
	return c.do(ctx, sess, http.MethodDelete, "/bookmarks/"+url.PathEscape(id), nil, nil)
}

// ReorderBookmarks persists positions for the whole collection.
func (c *Client) ReorderBookmarks(ctx context.Context, sess *session.Session, updates []PositionUpdate) error {
	if !sess.Valid() {
		return ErrNotLoggedIn
	}
	if updates == nil {
		updates = []PositionUpdate{}
	}
	return c.do(ctx, sess, http.MethodPut, "/bookmarks/reorder", reorderRequest{Updates: updates}, nil)
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, email, password string) (*session.Session, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	var resp loginResponse
	if err := c.do(ctx, nil, http.MethodPost, "/auth/login", credentials{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("%w: login returned no token", ErrInvalidResponse)
	}
	return session.New(email, resp.Token), nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, email, password string) error {
	if err := validateCredentials(email, password); err != nil {
		return err
	}
	return c.do(ctx, nil, http.MethodPost, "/auth/register", credentials{Email: email, Password: password}, nil)
}

func validateCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" {
		return &ValidationError{Field: "email"}
	}
	if password == "" {
		return &ValidationError{Field: "password"}
	}
	return nil
}

// do sends a JSON request and decodes a JSON response into out (if non-nil).
// sess may be nil for unauthenticated endpoints.
func (c *Client) do(ctx context.Context, sess *session.Session, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sess != nil {
		req.Header.Set("Authorization", sess.Bearer())
	}

	log := c.logger.With().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Logger()

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			log.Debug().Err(ctxErr).Msg("request cancelled")
			return fmt.Errorf("%s %s: %w", method, path, ctxErr)
		}
		log.Warn().Err(err).Msg("request failed")
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrNetwork, err)
	}

	log.Debug().
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request done")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return NewStatusError(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Join(ErrInvalidResponse, fmt.Errorf("unmarshal response: %w", err))
	}
	return nil
}
