package state_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/nikbrunner/shelf/internal/api"
	"github.com/nikbrunner/shelf/internal/api/apitest"
	"github.com/nikbrunner/shelf/internal/model"
	"github.com/nikbrunner/shelf/internal/search"
	"github.com/nikbrunner/shelf/internal/session"
	"github.com/nikbrunner/shelf/internal/state"
	"github.com/nikbrunner/shelf/internal/summary"
)

type fixture struct {
	srv  *apitest.Server
	list *state.List
}

type fixtureParams struct {
	Fetcher state.Fetcher
	Cache   state.Cache
}

func newFixture(t *testing.T, params fixtureParams) *fixture {
	t.Helper()
	srv := apitest.NewServer()
	t.Cleanup(srv.Close)

	fetcher := params.Fetcher
	if fetcher == nil {
		fetcher = summary.NewClient(summary.ClientParams{BaseURL: srv.SummaryURL(), Timeout: 5 * time.Second})
	}

	list := state.New(state.Params{
		Session: session.New(apitest.Email, srv.Token()),
		Remote:  api.NewClient(api.ClientParams{BaseURL: srv.URL, Timeout: 5 * time.Second}),
		Fetcher: fetcher,
		Cache:   params.Cache,
	})
	return &fixture{srv: srv, list: list}
}

func ids(items []model.Bookmark) []string {
	result := make([]string, len(items))
	for i, b := range items {
		result[i] = b.ID
	}
	return result
}

func positions(items []model.Bookmark) []int {
	result := make([]int, len(items))
	for i, b := range items {
		result[i] = b.Position
	}
	return result
}

// seedFive stores five bookmarks whose storage order differs from display
// order.
func seedFive(srv *apitest.Server) {
	srv.Seed(
		model.Bookmark{ID: "c", URL: "c.example", Tags: []string{"go"}, Position: 2, CreatedAt: "2024-01-03"},
		model.Bookmark{ID: "a", URL: "a.example", Tags: []string{"news"}, Position: 0, CreatedAt: "2024-01-02"},
		model.Bookmark{ID: "b", URL: "b.example", Tags: []string{"go"}, Position: 0, CreatedAt: "2024-01-05"},
		model.Bookmark{ID: "e", URL: "e.example", Tags: []string{"news"}, Position: 7, CreatedAt: "2024-01-01"},
		model.Bookmark{ID: "d", URL: "d.example", Tags: []string{"go", "news"}, Position: 2, CreatedAt: "2024-01-04"},
	)
}

func TestLoad_SortsByPositionThenCreatedAt(t *testing.T) {
	f := newFixture(t, fixtureParams{})
	seedFive(f.srv)

	assert.NilError(t, f.list.Load(context.Background()))

	snap := f.list.Snapshot()
	assert.DeepEqual(t, ids(snap.Items), []string{"a", "b", "c", "d", "e"})
	assert.Assert(t, !snap.Status.Loading)
	assert.NilError(t, snap.Status.Err)
}

func TestLoad_MissingPositionIsZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"x","url":"x.example","tags":[],"position":1,"createdAt":"2024-01-01"},
			{"id":"y","url":"y.example","tags":[],"createdAt":"2024-01-09"}
		]`))
	}))
	defer srv.Close()

	list := state.New(state.Params{
		Session: session.New(apitest.Email, "token"),
		Remote:  api.NewClient(api.ClientParams{BaseURL: srv.URL}),
	})
	assert.NilError(t, list.Load(context.Background()))

	items := list.Snapshot().Items
	assert.DeepEqual(t, ids(items), []string{"y", "x"})
	assert.DeepEqual(t, positions(items), []int{0, 1})
}

func TestSnapshot_Store(t *testing.T) {
	f := newFixture(t, fixtureParams{})
	seedFive(f.srv)
	assert.NilError(t, f.list.Load(context.Background()))

	store := f.list.Snapshot().Store()

	assert.Assert(t, store.HasBookmarkURL("d.example"))
	assert.Assert(t, !store.HasBookmarkURL("z.example"))
	b := store.GetBookmarkByID("c")
	assert.Assert(t, b != nil)
	assert.Equal(t, b.URL, "c.example")

	store.Bookmarks[0].URL = "changed"
	assert.Equal(t, f.list.Snapshot().Items[0].URL, "a.example")
}

func TestLoad_FailureKeepsItems(t *testing.T) {
	f := newFixture(t, fixtureParams{})
	seedFive(f.srv)
	assert.NilError(t, f.list.Load(context.Background()))

	f.srv.FailRoute(apitest.RouteList, http.StatusServiceUnavailable)
	err := f.list.Load(context.Background())

	var status *api.StatusError
	assert.Assert(t, errors.As(err, &status))
	snap := f.list.Snapshot()
	assert.Equal(t, len(snap.Items), 5)
	assert.Assert(t, errors.As(snap.Status.Err, &status))
	assert.Equal(t, state.Describe(snap.Status.Err), "The server had a problem. Please try again later.")
}

func TestLoad_NotLoggedIn(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()

	list := state.New(state.Params{
		Remote: api.NewClient(api.ClientParams{BaseURL: srv.URL}),
	})
	err := list.Load(context.Background())
	assert.Assert(t, errors.Is(err, api.ErrNotLoggedIn))
	assert.Equal(t, srv.Calls(apitest.RouteList), 0)
}

type recordingCache struct {
	mu     sync.Mutex
	stores []*model.Store
}

func (c *recordingCache) SaveSnapshot(store *model.Store) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stores = append(c.stores, store)
	return nil
}

func TestLoad_WritesCache(t *testing.T) {
	cache := &recordingCache{}
	f := newFixture(t, fixtureParams{Cache: cache})
	seedFive(f.srv)

	assert.NilError(t, f.list.Load(context.Background()))

	assert.Equal(t, len(cache.stores), 1)
	assert.Equal(t, cache.stores[0].Account, apitest.Email)
	assert.DeepEqual(t, ids(cache.stores[0].Bookmarks), []string{"a", "b", "c", "d", "e"})
}

func TestAdd_CreatesAndReconciles(t *testing.T) {
	f := newFixture(t, fixtureParams{})
	seedFive(f.srv)
	ctx := context.Background()
	assert.NilError(t, f.list.Load(ctx))

	created, err := f.list.Add(ctx, "  https://go.dev/blog  ", " go, , lang ,", state.SummaryRequired)
	assert.NilError(t, err)
	assert.Equal(t, created.URL, "https://go.dev/blog")
	assert.DeepEqual(t, created.Tags, []string{"go", "lang"})
	assert.Equal(t, created.Summary, "Summary of go.dev/blog")
	assert.DeepEqual(t, f.srv.SummaryTargets(), []string{"go.dev%2Fblog"})

	snap := f.list.Snapshot()
	assert.Equal(t, len(snap.Items), 6)
	// Server assigns max position + 1, so the reload moves it to the end.
	assert.Equal(t, snap.Items[5].ID, created.ID)
	assert.Assert(t, !snap.Status.Adding)
	assert.Equal(t, f.srv.Calls(apitest.RouteList), 2)
}

func TestAdd_PrependsBeforeReconcile(t *testing.T) {
	f := newFixture(t, fixtureParams{})
	seedFive(f.srv)
	ctx := context.Background()
	assert.NilError(t, f.list.Load(ctx))

	var mu sync.Mutex
	var firstAfterCreate []string
	unsubscribe := f.list.Subscribe(func(s state.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		if firstAfterCreate == nil && len(s.Items) == 6 {
			firstAfterCreate = ids(s.Items)
		}
	})
	defer unsubscribe()

	created, err := f.list.Add(ctx, "new.example", "", state.SummarySkip)
	assert.NilError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.DeepEqual(t, firstAfterCreate, []string{created.ID, "a", "b", "c", "d", "e"})
}

func TestAdd_ReconcileFailureStillSucceeds(t *testing.T) {
	f := newFixture(t, fixtureParams{})
	ctx := context.Background()
	f.srv.FailRoute(apitest.RouteList, http.StatusInternalServerError)

	created, err := f.list.Add(ctx, "new.example", "", state.SummarySkip)
	assert.NilError(t, err)

	snap := f.list.Snapshot()
	assert.DeepEqual(t, ids(snap.Items), []string{created.ID})
	assert.Assert(t, snap.Status.Err != nil)
}

func TestAdd_BlankURL(t *testing.T) {
	f := newFixture(t, fixtureParams{})

	_, err := f.list.Add(context.Background(), "   ", "go", state.SummaryRequired)

	var validation *api.ValidationError
	assert.Assert(t, errors.As(err, &validation))
	assert.Equal(t, state.Describe(err), "url is required")
	assert.Equal(t, len(f.srv.SummaryTargets()), 0)
	assert.Equal(t, f.srv.Calls(apitest.RouteCreate), 0)
}

func TestAdd_SummaryFailureLeavesNoPhantom(t *testing.T) {
	f := newFixture(t, fixtureParams{})
	seedFive(f.srv)
	ctx := context.Background()
	assert.NilError(t, f.list.Load(ctx))
	f.srv.FailRoute(apitest.RouteSummary, http.StatusBadGateway)

	_, err := f.list.Add(ctx, "https://example.com", "", state.SummaryRequired)
	assert.Assert(t, err != nil)

	snap := f.list.Snapshot()
	assert.Equal(t, len(snap.Items), 5)
	assert.Assert(t, snap.Status.Err != nil)
	assert.Assert(t, !snap.Status.Adding)
	assert.Equal(t, f.srv.Calls(apitest.RouteCreate), 0)
}

func TestAdd_StoreFailureLeavesNoPhantom(t *testing.T) {
	f := newFixture(t, fixtureParams{})
	seedFive(f.srv)
	ctx := context.Background()
	assert.NilError(t, f.list.Load(ctx))
	f.srv.FailRoute(apitest.RouteCreate, http.StatusConflict)

	_, err := f.list.Add(ctx, "https://example.com", "", state.SummaryRequired)
	assert.Equal(t, state.Describe(err), "That already exists.")

	snap := f.list.Snapshot()
	assert.Equal(t, len(snap.Items), 5)
	assert.Equal(t, len(f.srv.SummaryTargets()), 1)
}

func TestAdd_BestEffortContinuesWithoutSummary(t *testing.T) {
	f := newFixture(t, fixtureParams{})
	f.srv.FailRoute(apitest.RouteSummary, http.StatusBadGateway)

	created, err := f.list.Add(context.Background(), "https://example.com", "", state.SummaryBestEffort)
	assert.NilError(t, err)
	assert.Equal(t, created.Summary, "")
	assert.Equal(t, len(f.list.Snapshot().Items), 1)
}

func TestAdd_SkipDoesNotFetch(t *testing.T) {
	f := newFixture(t, fixtureParams{})

	_, err := f.list.Add(context.Background(), "https://example.com", "", state.SummarySkip)
	assert.NilError(t, err)
	assert.Equal(t, f.srv.Calls(apitest.RouteSummary), 0)
}

type blockingFetcher struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func newBlockingFetcher() *blockingFetcher {
	return &blockingFetcher{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (f *blockingFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	f.calls.Add(1)
	f.started <- struct{}{}
	select {
	case <-f.release:
		return "summary of " + rawURL, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestAdd_OverlappingAddIsRejected(t *testing.T) {
	fetcher := newBlockingFetcher()
	f := newFixture(t, fixtureParams{Fetcher: fetcher})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := f.list.Add(ctx, "first.example", "", state.SummaryRequired)
		done <- err
	}()
	<-fetcher.started

	assert.Assert(t, f.list.Snapshot().Status.Adding)

	_, err := f.list.Add(ctx, "second.example", "", state.SummaryRequired)
	assert.Assert(t, errors.Is(err, state.ErrAddInFlight))
	assert.Equal(t, state.Describe(err), "An add is already in progress.")
	assert.Equal(t, fetcher.calls.Load(), int32(1))
	assert.Equal(t, f.srv.Calls(apitest.RouteCreate), 0)

	close(fetcher.release)
	assert.NilError(t, <-done)

	assert.Equal(t, fetcher.calls.Load(), int32(1))
	assert.Equal(t, f.srv.Calls(apitest.RouteCreate), 1)
	assert.Equal(t, len(f.list.Snapshot().Items), 1)

	// The guard is released once the first add finishes.
	_, err = f.list.Add(ctx, "third.example", "", state.SummarySkip)
	assert.NilError(t, err)
}

func TestDelete_RemovesAfterSuccess(t *testing.T) {
	f := newFixture(t, fixtureParams{})
	seedFive(f.srv)
	ctx := context.Background()
	assert.NilError(t, f.list.Load(ctx))

	assert.NilError(t, f.list.Delete(ctx, "c"))

	assert.DeepEqual(t, ids(f.list.Snapshot().Items), []string{"a", "b", "d", "e"})
	assert.Equal(t, len(f.srv.Bookmarks()), 4)
}

func TestDelete_FailureKeepsItem(t *testing.T) {
	f := newFixture(t, fixtureParams{})
	seedFive(f.srv)
	ctx := context.Background()
	assert.NilError(t, f.list.Load(ctx))
	f.srv.FailRoute(apitest.RouteDelete, http.StatusInternalServerError)

	err := f.list.Delete(ctx, "c")
	assert.Assert(t, err != nil)

	snap := f.list.Snapshot()
	visible := search.Project(snap.Items, search.AllTag, "")
	assert.Assert(t, model.IndexOf(visible, "c") >= 0)
	assert.Assert(t, snap.Status.Err != nil)
}

func TestDelete_UnknownID(t *testing.T) {
	f := newFixture(t, fixtureParams{})
	seedFive(f.srv)
	ctx := context.Background()
	assert.NilError(t, f.list.Load(ctx))

	err := f.list.Delete(ctx, "missing")
	assert.Equal(t, state.Describe(err), "Not found.")
	assert.Equal(t, len(f.list.Snapshot().Items), 5)
}

func TestSubscribe_NotifiesUntilUnsubscribed(t *testing.T) {
	f := newFixture(t, fixtureParams{})
	seedFive(f.srv)

	var count atomic.Int32
	var last atomic.Value
	unsubscribe := f.list.Subscribe(func(s state.Snapshot) {
		count.Add(1)
		last.Store(s)
	})

	assert.NilError(t, f.list.Load(context.Background()))
	// loading started, then loaded
	assert.Equal(t, count.Load(), int32(2))
	assert.Equal(t, len(last.Load().(state.Snapshot).Items), 5)

	unsubscribe()
	unsubscribe()
	assert.NilError(t, f.list.Load(context.Background()))
	assert.Equal(t, count.Load(), int32(2))
}

func TestSnapshot_IsACopy(t *testing.T) {
	f := newFixture(t, fixtureParams{})
	seedFive(f.srv)
	assert.NilError(t, f.list.Load(context.Background()))

	snap := f.list.Snapshot()
	snap.Items[0].ID = "mutated"

	assert.Equal(t, f.list.Snapshot().Items[0].ID, "a")
}

func TestClearError(t *testing.T) {
	f := newFixture(t, fixtureParams{})
	f.srv.FailRoute(apitest.RouteList, http.StatusInternalServerError)
	assert.Assert(t, f.list.Load(context.Background()) != nil)
	assert.Assert(t, f.list.Snapshot().Status.Err != nil)

	f.list.ClearError()
	assert.NilError(t, f.list.Snapshot().Status.Err)
}

func TestParseSummaryPolicy(t *testing.T) {
	for _, p := range []state.SummaryPolicy{state.SummaryRequired, state.SummaryBestEffort, state.SummarySkip} {
		got, err := state.ParseSummaryPolicy(p.String())
		assert.NilError(t, err)
		assert.Equal(t, got, p)
	}

	got, err := state.ParseSummaryPolicy("")
	assert.NilError(t, err)
	assert.Equal(t, got, state.SummaryRequired)

	_, err = state.ParseSummaryPolicy("sometimes")
	assert.ErrorContains(t, err, "unknown summary policy")
}
