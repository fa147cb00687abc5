// Package state keeps the local bookmark collection consistent with the
// remote store.
//
// A List is the single owner of the in-memory collection for one session.
// Mutations go through Load, Add, Delete and Reorder; everything else reads
// Snapshot or subscribes to changes.
package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nikbrunner/shelf/internal/api"
	"github.com/nikbrunner/shelf/internal/model"
	"github.com/nikbrunner/shelf/internal/session"
)

// ErrAddInFlight is returned when Add is called while another Add runs.
var ErrAddInFlight = errors.New("add already in progress")

// Remote is the subset of the store client the List needs.
type Remote interface {
	ListBookmarks(ctx context.Context, sess *session.Session) ([]model.Bookmark, error)
	CreateBookmark(ctx context.Context, sess *session.Session, req api.CreateBookmarkRequest) (*model.Bookmark, error)
	DeleteBookmark(ctx context.Context, sess *session.Session, id string) error
	ReorderBookmarks(ctx context.Context, sess *session.Session, updates []api.PositionUpdate) error
}

// Fetcher retrieves a summary for a URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// Cache stores the last successfully loaded collection.
type Cache interface {
	SaveSnapshot(store *model.Store) error
}

// Status describes what the List is doing and the last failure.
type Status struct {
	Loading bool
	Adding  bool
	Saving  bool
	Err     error
}

// Snapshot is an immutable copy of the List at one point in time.
type Snapshot struct {
	Items  []model.Bookmark
	Status Status
}

// Store returns the snapshot's items as a model.Store for lookups.
func (s Snapshot) Store() *model.Store {
	store := model.NewStore()
	store.Bookmarks = model.CloneBookmarks(s.Items)
	return store
}

// Params holds parameters for creating a new List.
type Params struct {
	Session *session.Session
	Remote  Remote
	Fetcher Fetcher         // optional, required unless every Add skips summaries
	Cache   Cache           // optional
	Logger  *zerolog.Logger // optional
}

// List is the observable bookmark collection of one session.
type List struct {
	sess    *session.Session
	remote  Remote
	fetcher Fetcher
	cache   Cache
	logger  zerolog.Logger

	mu      sync.Mutex
	items   []model.Bookmark
	loading int
	adding  bool
	saving  int
	err     error

	nextSub int
	subs    map[int]func(Snapshot)
}

// New creates an empty List. Call Load to populate it.
func New(params Params) *List {
	logger := zerolog.Nop()
	if params.Logger != nil {
		logger = params.Logger.With().Str("component", "state").Logger()
	}

	return &List{
		sess:    params.Session,
		remote:  params.Remote,
		fetcher: params.Fetcher,
		cache:   params.Cache,
		logger:  logger,
		items:   []model.Bookmark{},
		subs:    map[int]func(Snapshot){},
	}
}

// Session returns the session the List was created for.
func (l *List) Session() *session.Session {
	return l.sess
}

// Snapshot returns the current items and status.
func (l *List) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *List) snapshotLocked() Snapshot {
	return Snapshot{
		Items: model.CloneBookmarks(l.items),
		Status: Status{
			Loading: l.loading > 0,
			Adding:  l.adding,
			Saving:  l.saving > 0,
			Err:     l.err,
		},
	}
}

// Subscribe registers fn to be called after every change.
// fn runs on the goroutine that made the change, without the List locked.
func (l *List) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	l.mu.Lock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = fn
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subs, id)
			l.mu.Unlock()
		})
	}
}

// update applies fn under the lock and notifies subscribers when fn reports
// a change.
func (l *List) update(fn func() bool) {
	l.mu.Lock()
	if !fn() {
		l.mu.Unlock()
		return
	}
	snap := l.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(l.subs))
	for _, sub := range l.subs {
		subs = append(subs, sub)
	}
	l.mu.Unlock()

	for _, sub := range subs {
		sub(snap)
	}
}

func (l *List) setErr(err error) {
	l.update(func() bool {
		l.err = err
		return true
	})
}

// ClearError drops the recorded error.
func (l *List) ClearError() {
	l.update(func() bool {
		if l.err == nil {
			return false
		}
		l.err = nil
		return true
	})
}

// Load replaces the local collection with the store's, sorted by position
// and creation time. On failure the items are left as they were.
func (l *List) Load(ctx context.Context) error {
	l.update(func() bool {
		l.loading++
		return true
	})

	bookmarks, err := l.remote.ListBookmarks(ctx, l.sess)
	if err != nil {
		l.logger.Warn().Err(err).Msg("load failed")
		l.update(func() bool {
			l.loading--
			l.err = err
			return true
		})
		return fmt.Errorf("load bookmarks: %w", err)
	}

	sorted := model.CloneBookmarks(bookmarks)
	model.SortBookmarks(sorted)

	l.update(func() bool {
		l.loading--
		l.items = sorted
		l.err = nil
		return true
	})
	l.logger.Debug().Int("count", len(sorted)).Msg("loaded")

	l.saveCache(sorted)
	return nil
}

func (l *List) saveCache(bookmarks []model.Bookmark) {
	if l.cache == nil {
		return
	}
	store := model.NewStore()
	store.Bookmarks = model.CloneBookmarks(bookmarks)
	store.SyncedAt = time.Now().UTC()
	if l.sess != nil {
		store.Account = l.sess.Email
	}
	if err := l.cache.SaveSnapshot(store); err != nil {
		l.logger.Warn().Err(err).Msg("save snapshot")
	}
}

// Add fetches a summary for rawURL per policy, creates the bookmark in the
// store and prepends it locally, then reloads to pick up server-assigned
// fields. Only one Add runs at a time; overlapping calls get ErrAddInFlight
// without touching the network.
//
// If the reconciling reload fails the bookmark is still added and the
// failure is recorded in the status.
func (l *List) Add(ctx context.Context, rawURL, tagsInput string, policy SummaryPolicy) (*model.Bookmark, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		err := &api.ValidationError{Field: "url"}
		l.setErr(err)
		return nil, err
	}

	busy := false
	l.update(func() bool {
		if l.adding {
			busy = true
			return false
		}
		l.adding = true
		return true
	})
	if busy {
		return nil, ErrAddInFlight
	}
	defer l.update(func() bool {
		l.adding = false
		return true
	})

	tags := model.ParseTags(tagsInput)
	log := l.logger.With().Str("url", rawURL).Logger()

	summary, err := l.summarize(ctx, rawURL, policy)
	if err != nil {
		log.Warn().Err(err).Msg("summary failed, add aborted")
		l.setErr(err)
		return nil, fmt.Errorf("fetch summary: %w", err)
	}

	created, err := l.remote.CreateBookmark(ctx, l.sess, api.CreateBookmarkRequest{
		URL:     rawURL,
		Tags:    tags,
		Summary: summary,
	})
	if err != nil {
		log.Warn().Err(err).Msg("create failed")
		l.setErr(err)
		return nil, fmt.Errorf("create bookmark: %w", err)
	}

	l.update(func() bool {
		items := make([]model.Bookmark, 0, len(l.items)+1)
		items = append(items, *created)
		l.items = append(items, l.items...)
		l.err = nil
		return true
	})
	log.Info().Str("id", created.ID).Msg("bookmark added")

	if err := l.Load(ctx); err != nil {
		log.Warn().Err(err).Msg("reconcile after add failed")
	}
	return created, nil
}

func (l *List) summarize(ctx context.Context, rawURL string, policy SummaryPolicy) (string, error) {
	if policy == SummarySkip {
		return "", nil
	}
	if l.fetcher == nil {
		if policy == SummaryBestEffort {
			return "", nil
		}
		return "", errors.New("no summary service configured")
	}

	text, err := l.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		if policy == SummaryBestEffort {
			l.logger.Info().Err(err).Str("url", rawURL).Msg("summary unavailable, continuing without")
			return "", nil
		}
		return "", err
	}
	return text, nil
}

// Delete removes a bookmark from the store, then from the local items.
// On failure the local items are unchanged.
func (l *List) Delete(ctx context.Context, id string) error {
	if id == "" {
		err := &api.ValidationError{Field: "id"}
		l.setErr(err)
		return err
	}

	if err := l.remote.DeleteBookmark(ctx, l.sess, id); err != nil {
		l.logger.Warn().Err(err).Str("id", id).Msg("delete failed")
		l.setErr(err)
		return fmt.Errorf("delete bookmark: %w", err)
	}

	l.update(func() bool {
		l.items = model.RemoveByID(l.items, id)
		l.err = nil
		return true
	})
	l.logger.Info().Str("id", id).Msg("bookmark deleted")
	return nil
}

// Describe returns a message fit for display for any error the List
// reports.
func Describe(err error) string {
	if errors.Is(err, ErrAddInFlight) {
		return "An add is already in progress."
	}
	return api.UserMessage(err)
}
