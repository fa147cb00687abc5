// Package exporter writes bookmarks in the Netscape format browsers import.
package exporter

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nikbrunner/shelf/internal/model"
)

// DefaultExportPath returns the default export file path.
// Format: ~/Downloads/shelf-export-YYYY-MM-DD.html
func DefaultExportPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("shelf-export-%s.html", time.Now().Format("2006-01-02"))
	return filepath.Join(home, "Downloads", filename), nil
}

// ExportHTML renders bookmarks, in the given order, as Netscape bookmark
// HTML. Tags and position travel in TAGS and POSITION attributes; the
// summary becomes the DD description.
func ExportHTML(bookmarks []model.Bookmark) string {
	var b strings.Builder

	// Header
	b.WriteString("<!DOCTYPE NETSCAPE-Bookmark-file-1>\n")
	b.WriteString("<META HTTP-EQUIV=\"Content-Type\" CONTENT=\"text/html; charset=UTF-8\">\n")
	b.WriteString("<TITLE>Bookmarks</TITLE>\n")
	b.WriteString("<H1>Bookmarks</H1>\n")
	b.WriteString("<DL><p>\n")

	for _, bookmark := range bookmarks {
		writeBookmark(&b, bookmark)
	}

	// Footer
	b.WriteString("</DL><p>\n")

	return b.String()
}

func writeBookmark(b *strings.Builder, bookmark model.Bookmark) {
	const prefix = "    "

	attrs := fmt.Sprintf(` HREF="%s"`, html.EscapeString(bookmark.URL))
	if ts, err := time.Parse(time.RFC3339, bookmark.CreatedAt); err == nil {
		attrs += fmt.Sprintf(` ADD_DATE="%d"`, ts.Unix())
	}
	if len(bookmark.Tags) > 0 {
		attrs += fmt.Sprintf(` TAGS="%s"`, html.EscapeString(strings.Join(bookmark.Tags, ",")))
	}
	attrs += fmt.Sprintf(` POSITION="%d"`, bookmark.Position)

	fmt.Fprintf(b, "%s<DT><A%s>%s</A>\n", prefix, attrs, html.EscapeString(bookmark.DisplayTitle()))
	if summary := strings.TrimSpace(bookmark.Summary); summary != "" {
		fmt.Fprintf(b, "%s<DD>%s\n", prefix, html.EscapeString(strings.Join(strings.Fields(summary), " ")))
	}
}
