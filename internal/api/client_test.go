package api_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/nikbrunner/shelf/internal/api"
	"github.com/nikbrunner/shelf/internal/api/apitest"
	"github.com/nikbrunner/shelf/internal/model"
	"github.com/nikbrunner/shelf/internal/session"
)

func newClient(t *testing.T) (*api.Client, *apitest.Server, *session.Session) {
	t.Helper()
	srv := apitest.NewServer()
	t.Cleanup(srv.Close)
	client := api.NewClient(api.ClientParams{BaseURL: srv.URL + "/", Timeout: 5 * time.Second})
	return client, srv, session.New(apitest.Email, srv.Token())
}

func TestClient_ListBookmarks(t *testing.T) {
	client, srv, sess := newClient(t)
	srv.Seed(
		model.Bookmark{ID: "a", URL: "https://a.example", Tags: []string{"go"}, Position: 1},
		model.Bookmark{ID: "b", URL: "https://b.example", Tags: []string{}},
	)

	got, err := client.ListBookmarks(context.Background(), sess)
	assert.NilError(t, err)
	assert.Equal(t, len(got), 2)
	assert.Equal(t, got[0].ID, "a")
	assert.Equal(t, got[0].Position, 1)
	assert.Equal(t, got[1].Position, 0)
}

func TestClient_ListBookmarks_EmptyIsNotNil(t *testing.T) {
	client, _, sess := newClient(t)

	got, err := client.ListBookmarks(context.Background(), sess)
	assert.NilError(t, err)
	assert.Assert(t, got != nil)
	assert.Equal(t, len(got), 0)
}

func TestClient_RequiresSession(t *testing.T) {
	client, srv, _ := newClient(t)
	ctx := context.Background()

	_, err := client.ListBookmarks(ctx, nil)
	assert.Assert(t, errors.Is(err, api.ErrNotLoggedIn))

	_, err = client.CreateBookmark(ctx, &session.Session{}, api.CreateBookmarkRequest{URL: "x"})
	assert.Assert(t, errors.Is(err, api.ErrNotLoggedIn))

	assert.Assert(t, errors.Is(client.DeleteBookmark(ctx, nil, "a"), api.ErrNotLoggedIn))
	assert.Assert(t, errors.Is(client.ReorderBookmarks(ctx, nil, nil), api.ErrNotLoggedIn))

	assert.Equal(t, srv.Calls(apitest.RouteList), 0)
	assert.Equal(t, srv.Calls(apitest.RouteCreate), 0)
}

func TestClient_UnknownTokenIsUnauthorized(t *testing.T) {
	client, _, _ := newClient(t)

	_, err := client.ListBookmarks(context.Background(), session.New(apitest.Email, "stale"))
	var status *api.StatusError
	assert.Assert(t, errors.As(err, &status))
	assert.Equal(t, status.StatusCode, http.StatusUnauthorized)
	assert.Equal(t, status.Message, "invalid token")
}

func TestClient_CreateBookmark(t *testing.T) {
	client, srv, sess := newClient(t)

	created, err := client.CreateBookmark(context.Background(), sess, api.CreateBookmarkRequest{
		URL:     "https://go.dev",
		Tags:    []string{"go", "lang"},
		Summary: "The Go site",
	})
	assert.NilError(t, err)
	assert.Assert(t, created.ID != "")
	assert.DeepEqual(t, created.Tags, []string{"go", "lang"})
	assert.Equal(t, created.Summary, "The Go site")
	assert.Equal(t, len(srv.Bookmarks()), 1)
}

func TestClient_CreateBookmark_BlankURL(t *testing.T) {
	client, srv, sess := newClient(t)

	_, err := client.CreateBookmark(context.Background(), sess, api.CreateBookmarkRequest{URL: "  "})
	var validation *api.ValidationError
	assert.Assert(t, errors.As(err, &validation))
	assert.Equal(t, validation.Field, "url")
	assert.Equal(t, srv.Calls(apitest.RouteCreate), 0)
}

func TestClient_DeleteBookmark(t *testing.T) {
	client, srv, sess := newClient(t)
	srv.Seed(model.Bookmark{ID: "a", URL: "https://a.example"})

	assert.NilError(t, client.DeleteBookmark(context.Background(), sess, "a"))
	assert.Equal(t, len(srv.Bookmarks()), 0)

	err := client.DeleteBookmark(context.Background(), sess, "a")
	var status *api.StatusError
	assert.Assert(t, errors.As(err, &status))
	assert.Equal(t, status.StatusCode, http.StatusNotFound)
}

func TestClient_ReorderBookmarks(t *testing.T) {
	client, srv, sess := newClient(t)
	srv.Seed(
		model.Bookmark{ID: "a", Position: 0},
		model.Bookmark{ID: "b", Position: 1},
	)

	err := client.ReorderBookmarks(context.Background(), sess, []api.PositionUpdate{
		{ID: "a", Position: 1},
		{ID: "b", Position: 0},
	})
	assert.NilError(t, err)

	stored := srv.Bookmarks()
	assert.Equal(t, stored[0].Position, 1)
	assert.Equal(t, stored[1].Position, 0)
}

func TestClient_ServerErrorIsStatusError(t *testing.T) {
	client, srv, sess := newClient(t)
	srv.FailRoute(apitest.RouteReorder, http.StatusInternalServerError)

	err := client.ReorderBookmarks(context.Background(), sess, []api.PositionUpdate{{ID: "a", Position: 0}})
	var status *api.StatusError
	assert.Assert(t, errors.As(err, &status))
	assert.Equal(t, status.StatusCode, http.StatusInternalServerError)
	assert.Equal(t, api.UserMessage(err), "The server had a problem. Please try again later.")
}

func TestClient_UnreachableIsNetworkError(t *testing.T) {
	srv := apitest.NewServer()
	base := srv.URL
	sess := session.New(apitest.Email, srv.Token())
	srv.Close()

	client := api.NewClient(api.ClientParams{BaseURL: base, Timeout: time.Second})
	_, err := client.ListBookmarks(context.Background(), sess)
	assert.Assert(t, errors.Is(err, api.ErrNetwork))
	assert.Equal(t, api.UserMessage(err), "Cannot reach the server. Check your connection.")
}

func TestClient_CancelledContext(t *testing.T) {
	client, _, sess := newClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ListBookmarks(ctx, sess)
	assert.Assert(t, errors.Is(err, context.Canceled))
	assert.Assert(t, !errors.Is(err, api.ErrNetwork))
}

func TestClient_Login(t *testing.T) {
	client, _, _ := newClient(t)
	ctx := context.Background()

	sess, err := client.Login(ctx, apitest.Email, apitest.Password)
	assert.NilError(t, err)
	assert.Equal(t, sess.Email, apitest.Email)
	assert.Assert(t, sess.Valid())

	_, err = client.ListBookmarks(ctx, sess)
	assert.NilError(t, err)
}

func TestClient_LoginFailures(t *testing.T) {
	client, srv, _ := newClient(t)
	ctx := context.Background()

	_, err := client.Login(ctx, apitest.Email, "wrong")
	assert.Equal(t, api.UserMessage(err), "Invalid email or password.")

	_, err = client.Login(ctx, "", "pw")
	var validation *api.ValidationError
	assert.Assert(t, errors.As(err, &validation))
	assert.Equal(t, validation.Field, "email")

	_, err = client.Login(ctx, "me@example.com", "")
	assert.Assert(t, errors.As(err, &validation))
	assert.Equal(t, validation.Field, "password")

	assert.Equal(t, srv.Calls(apitest.RouteLogin), 1)
}

func TestClient_Register(t *testing.T) {
	client, _, _ := newClient(t)
	ctx := context.Background()

	assert.NilError(t, client.Register(ctx, "new@example.com", "secret"))

	err := client.Register(ctx, "new@example.com", "secret")
	assert.Equal(t, api.UserMessage(err), "That already exists.")

	sess, err := client.Login(ctx, "new@example.com", "secret")
	assert.NilError(t, err)
	assert.Equal(t, sess.Email, "new@example.com")
}
