package state

import (
	"context"
	"fmt"
	"slices"

	"github.com/nikbrunner/shelf/internal/api"
	"github.com/nikbrunner/shelf/internal/model"
)

// Move moves the bookmark sourceID to the index currently held by targetID
// and renumbers every position densely from 0. Indexes are taken in the
// full collection, never a filtered view.
//
// It reports false and returns items unchanged when the target is empty or
// unknown, the source is unknown, or both are the same bookmark.
func Move(items []model.Bookmark, sourceID, targetID string) ([]model.Bookmark, bool) {
	if targetID == "" || sourceID == targetID {
		return items, false
	}
	from := model.IndexOf(items, sourceID)
	to := model.IndexOf(items, targetID)
	if from < 0 || to < 0 {
		return items, false
	}

	result := model.CloneBookmarks(items)
	moved := result[from]
	result = slices.Delete(result, from, from+1)
	result = slices.Insert(result, to, moved)
	for i := range result {
		result[i].Position = i
	}
	return result, true
}

// PositionUpdates lists the position of every bookmark.
func PositionUpdates(items []model.Bookmark) []api.PositionUpdate {
	updates := make([]api.PositionUpdate, len(items))
	for i, b := range items {
		updates[i] = api.PositionUpdate{ID: b.ID, Position: b.Position}
	}
	return updates
}

// Reorder applies Move to the local items right away and then persists the
// new positions. While the request runs the status reports Saving.
//
// If persisting fails the List reloads from the store instead of rolling
// back, and the persistence error is recorded and returned.
func (l *List) Reorder(ctx context.Context, sourceID, targetID string) error {
	var updates []api.PositionUpdate
	l.update(func() bool {
		items, ok := Move(l.items, sourceID, targetID)
		if !ok {
			return false
		}
		l.items = items
		l.saving++
		updates = PositionUpdates(items)
		return true
	})
	if updates == nil {
		return nil
	}

	err := l.remote.ReorderBookmarks(ctx, l.sess, updates)
	l.update(func() bool {
		l.saving--
		if err == nil {
			l.err = nil
		}
		return true
	})
	if err == nil {
		l.logger.Debug().Str("id", sourceID).Str("target", targetID).Msg("reordered")
		return nil
	}

	l.logger.Warn().Err(err).Msg("reorder failed, reloading")
	if loadErr := l.Load(ctx); loadErr != nil {
		l.logger.Warn().Err(loadErr).Msg("reload after reorder failed")
	}
	l.setErr(err)
	return fmt.Errorf("save order: %w", err)
}
