package model

import (
	"sort"
	"time"
)

// Store holds a user's bookmark collection in display order.
type Store struct {
	Account   string     `json:"account"`
	SyncedAt  time.Time  `json:"syncedAt"`
	Bookmarks []Bookmark `json:"bookmarks"`
}

// NewStore creates an empty Store with initialized slices.
func NewStore() *Store {
	return &Store{
		Bookmarks: []Bookmark{},
	}
}

// GetBookmarkByID finds a bookmark by ID, returns nil if not found.
func (s *Store) GetBookmarkByID(id string) *Bookmark {
	for i := range s.Bookmarks {
		if s.Bookmarks[i].ID == id {
			return &s.Bookmarks[i]
		}
	}
	return nil
}

// HasBookmarkURL reports whether a bookmark with the exact URL exists.
func (s *Store) HasBookmarkURL(url string) bool {
	for _, b := range s.Bookmarks {
		if b.URL == url {
			return true
		}
	}
	return false
}

// Less orders bookmarks by ascending position, then ascending CreatedAt.
func Less(a, b Bookmark) bool {
	if a.Position != b.Position {
		return a.Position < b.Position
	}
	return a.CreatedAt < b.CreatedAt
}

// SortBookmarks sorts in place by (Position, CreatedAt).
func SortBookmarks(bookmarks []Bookmark) {
	sort.SliceStable(bookmarks, func(i, j int) bool {
		return Less(bookmarks[i], bookmarks[j])
	})
}

// IndexOf returns the index of the bookmark with the given ID, or -1.
func IndexOf(bookmarks []Bookmark, id string) int {
	for i := range bookmarks {
		if bookmarks[i].ID == id {
			return i
		}
	}
	return -1
}

// RemoveByID returns a new slice without the bookmark with the given ID.
func RemoveByID(bookmarks []Bookmark, id string) []Bookmark {
	result := make([]Bookmark, 0, len(bookmarks))
	for _, b := range bookmarks {
		if b.ID != id {
			result = append(result, b)
		}
	}
	return result
}

// CloneBookmarks returns a shallow copy of the slice.
func CloneBookmarks(bookmarks []Bookmark) []Bookmark {
	result := make([]Bookmark, len(bookmarks))
	copy(result, bookmarks)
	return result
}
