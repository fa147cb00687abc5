package search

import (
	"regexp"
	"strings"

	"github.com/nikbrunner/shelf/internal/model"
	"github.com/sahilm/fuzzy"
)

// AllTag is the tag filter that lets every bookmark through.
const AllTag = "All"

// Project returns the bookmarks visible under tag and query, in input order.
//
// A tag other than AllTag keeps only bookmarks carrying it. A non-blank
// query keeps bookmarks whose title or URL contains it, or whose summary
// has a word starting with it. All comparisons ignore case.
func Project(bookmarks []model.Bookmark, tag, query string) []model.Bookmark {
	q := strings.ToLower(strings.TrimSpace(query))

	var summaryRe *regexp.Regexp
	if q != "" {
		summaryRe = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(q))
	}

	result := make([]model.Bookmark, 0, len(bookmarks))
	for _, b := range bookmarks {
		if tag != AllTag && !b.HasTag(tag) {
			continue
		}
		if q != "" && !matches(b, q, summaryRe) {
			continue
		}
		result = append(result, b)
	}
	return result
}

func matches(b model.Bookmark, q string, summaryRe *regexp.Regexp) bool {
	// Title and URL match anywhere; the summary only at a word start.
	return strings.Contains(strings.ToLower(b.Title), q) ||
		strings.Contains(strings.ToLower(b.URL), q) ||
		summaryRe.MatchString(b.Summary)
}

// Tags returns every distinct tag in order of first appearance.
func Tags(bookmarks []model.Bookmark) []string {
	seen := make(map[string]bool)
	tags := []string{}
	for _, b := range bookmarks {
		for _, t := range b.Tags {
			if !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
	}
	return tags
}

// FilterTags returns AllTag followed by the distinct tags of bookmarks.
func FilterTags(bookmarks []model.Bookmark) []string {
	return append([]string{AllTag}, Tags(bookmarks)...)
}

// SearchResult represents a fuzzy search match.
type SearchResult struct {
	Bookmark       *model.Bookmark
	MatchedIndexes []int
	Score          int
}

// bookmarkTitles implements fuzzy.Source for a bookmark slice.
type bookmarkTitles []*model.Bookmark

func (bt bookmarkTitles) String(i int) string {
	return bt[i].DisplayTitle()
}

func (bt bookmarkTitles) Len() int {
	return len(bt)
}

// FuzzySearch ranks bookmarks by fuzzy title match, best first.
// Bookmarks without a title are matched by URL.
func FuzzySearch(bookmarks []model.Bookmark, query string) []SearchResult {
	if query == "" {
		return nil
	}

	source := make(bookmarkTitles, len(bookmarks))
	for i := range bookmarks {
		source[i] = &bookmarks[i]
	}

	matches := fuzzy.FindFrom(query, source)

	results := make([]SearchResult, len(matches))
	for i, m := range matches {
		results[i] = SearchResult{
			Bookmark:       source[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}

	return results
}
