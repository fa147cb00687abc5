// Package importer reads bookmarks exported by browsers.
package importer

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nikbrunner/shelf/internal/model"
	"golang.org/x/net/html"
)

// ParseHTMLBookmarks parses Netscape bookmark HTML into draft bookmarks.
//
// The collection is flat, so the names of enclosing folders become tags,
// followed by any tags from the TAGS attribute. Drafts carry no ID; the
// store assigns one when they are added.
func ParseHTMLBookmarks(r io.Reader) ([]model.Bookmark, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	bookmarks := []model.Bookmark{}

	var folderStack []string  // names of enclosing folders, outermost first
	var pendingFolder *string // folder waiting to be pushed on next DL

	var parse func(*html.Node)
	parse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch strings.ToLower(n.Data) {
			case "h3":
				// Folder definition - get name from text content
				if name := getTextContent(n); name != "" {
					pendingFolder = &name
				}
				return // Don't recurse into H3

			case "a":
				href := strings.TrimSpace(getAttr(n, "href"))
				if href == "" {
					// Skip bookmarks without URL
					return
				}

				tags := append([]string{}, folderStack...)
				tags = append(tags, model.ParseTags(getAttr(n, "tags"))...)

				bookmark := model.Bookmark{
					URL:   href,
					Title: getTextContent(n),
					Tags:  dedupe(tags),
				}

				if addDate := getAttr(n, "add_date"); addDate != "" {
					if ts, err := strconv.ParseInt(addDate, 10, 64); err == nil {
						bookmark.CreatedAt = time.Unix(ts, 0).UTC().Format(time.RFC3339)
					}
				}
				if pos := getAttr(n, "position"); pos != "" {
					if p, err := strconv.Atoi(pos); err == nil {
						bookmark.Position = p
					}
				}

				bookmarks = append(bookmarks, bookmark)
				return // Don't recurse into A

			case "dl":
				// Definition list - marks folder contents
				pushedFolder := false
				if pendingFolder != nil {
					folderStack = append(folderStack, *pendingFolder)
					pendingFolder = nil
					pushedFolder = true
				}

				for c := n.FirstChild; c != nil; c = c.NextSibling {
					parse(c)
				}

				if pushedFolder {
					folderStack = folderStack[:len(folderStack)-1]
				}
				return // Don't recurse further, we handled children
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			parse(c)
		}
	}

	parse(doc)
	return bookmarks, nil
}

func dedupe(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	result := make([]string, 0, len(tags))
	for _, t := range tags {
		if !seen[t] {
			seen[t] = true
			result = append(result, t)
		}
	}
	return result
}

// getTextContent returns the text content of a node.
func getTextContent(n *html.Node) string {
	var text strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(text.String())
}

// getAttr returns the value of an attribute, case-insensitive.
func getAttr(n *html.Node, key string) string {
	key = strings.ToLower(key)
	for _, attr := range n.Attr {
		if strings.ToLower(attr.Key) == key {
			return attr.Val
		}
	}
	return ""
}
