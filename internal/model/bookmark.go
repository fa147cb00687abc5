package model

import (
	"regexp"
	"strings"
)

// schemeRegex matches a leading URL scheme such as "https://" or "ftp://".
var schemeRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// Bookmark represents a saved URL as returned by the remote store.
type Bookmark struct {
	ID        string   `json:"id"`
	URL       string   `json:"url"`
	Title     string   `json:"title,omitempty"`
	Tags      []string `json:"tags"`
	Summary   string   `json:"summary,omitempty"`
	Position  int      `json:"position"`  // missing = 0
	CreatedAt string   `json:"createdAt"` // tie-break only, compared as a string
}

// DisplayTitle returns the title, falling back to the URL when it is empty.
func (b Bookmark) DisplayTitle() string {
	if strings.TrimSpace(b.Title) == "" {
		return b.URL
	}
	return b.Title
}

// LinkURL returns a URL suitable for opening in a browser.
// Values without a scheme are treated as host names and get "https://".
// The stored URL is left untouched.
func (b Bookmark) LinkURL() string {
	if schemeRegex.MatchString(b.URL) {
		return b.URL
	}
	return "https://" + b.URL
}

// HasTag reports whether the bookmark carries the exact tag.
func (b Bookmark) HasTag(tag string) bool {
	for _, t := range b.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ParseTags splits a comma-separated tag input, trimming whitespace and
// dropping empty entries. Duplicates are kept.
func ParseTags(input string) []string {
	tags := []string{}
	for _, part := range strings.Split(input, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
