package importer_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/nikbrunner/shelf/internal/importer"
)

func TestParseHTML_SingleBookmark(t *testing.T) {
	html := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
    <DT><A HREF="https://example.com" ADD_DATE="1234567890">Example Site</A>
</DL><p>`

	bookmarks, err := importer.ParseHTMLBookmarks(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(bookmarks) != 1 {
		t.Fatalf("expected 1 bookmark, got %d", len(bookmarks))
	}

	b := bookmarks[0]
	if b.Title != "Example Site" {
		t.Errorf("expected title 'Example Site', got %q", b.Title)
	}
	if b.URL != "https://example.com" {
		t.Errorf("expected URL 'https://example.com', got %q", b.URL)
	}
	if len(b.Tags) != 0 {
		t.Errorf("expected no tags at root, got %v", b.Tags)
	}
	if b.ID != "" {
		t.Errorf("expected draft without ID, got %q", b.ID)
	}
}

func TestParseHTML_FoldersBecomeTags(t *testing.T) {
	html := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<DL><p>
    <DT><H3 ADD_DATE="1234567890">Development</H3>
    <DL><p>
        <DT><H3 ADD_DATE="1234567890">React</H3>
        <DL><p>
            <DT><A HREF="https://react.dev" ADD_DATE="1234567890">React Docs</A>
        </DL><p>
        <DT><A HREF="https://github.com" ADD_DATE="1234567890">GitHub</A>
    </DL><p>
    <DT><A HREF="https://google.com" ADD_DATE="1234567890">Google</A>
</DL><p>`

	bookmarks, err := importer.ParseHTMLBookmarks(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(bookmarks) != 3 {
		t.Fatalf("expected 3 bookmarks, got %d", len(bookmarks))
	}

	want := map[string][]string{
		"React Docs": {"Development", "React"},
		"GitHub":     {"Development"},
		"Google":     {},
	}
	for _, b := range bookmarks {
		expected, ok := want[b.Title]
		if !ok {
			t.Errorf("unexpected bookmark %q", b.Title)
			continue
		}
		if !reflect.DeepEqual(b.Tags, expected) {
			t.Errorf("%s: expected tags %v, got %v", b.Title, expected, b.Tags)
		}
	}
}

func TestParseHTML_TagsAttribute(t *testing.T) {
	html := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<DL><p>
    <DT><H3>Reading</H3>
    <DL><p>
        <DT><A HREF="https://go.dev/blog" TAGS="go, blog,Reading" POSITION="4">Go Blog</A>
    </DL><p>
</DL><p>`

	bookmarks, err := importer.ParseHTMLBookmarks(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(bookmarks) != 1 {
		t.Fatalf("expected 1 bookmark, got %d", len(bookmarks))
	}
	expected := []string{"Reading", "go", "blog"}
	if !reflect.DeepEqual(bookmarks[0].Tags, expected) {
		t.Errorf("expected tags %v, got %v", expected, bookmarks[0].Tags)
	}
	if bookmarks[0].Position != 4 {
		t.Errorf("expected position 4, got %d", bookmarks[0].Position)
	}
}

func TestParseHTML_EmptyFile(t *testing.T) {
	html := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
</DL><p>`

	bookmarks, err := importer.ParseHTMLBookmarks(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(bookmarks) != 0 {
		t.Errorf("expected 0 bookmarks, got %d", len(bookmarks))
	}
}

func TestParseHTML_Timestamps(t *testing.T) {
	// 1234567890 = Fri Feb 13 2009 23:31:30 UTC
	html := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<DL><p>
    <DT><A HREF="https://example.com" ADD_DATE="1234567890">Test</A>
    <DT><A HREF="https://example.org" ADD_DATE="yesterday">Bad date</A>
</DL><p>`

	bookmarks, err := importer.ParseHTMLBookmarks(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(bookmarks) != 2 {
		t.Fatalf("expected 2 bookmarks, got %d", len(bookmarks))
	}
	if bookmarks[0].CreatedAt != "2009-02-13T23:31:30Z" {
		t.Errorf("expected CreatedAt 2009-02-13T23:31:30Z, got %q", bookmarks[0].CreatedAt)
	}
	if bookmarks[1].CreatedAt != "" {
		t.Errorf("expected empty CreatedAt for invalid date, got %q", bookmarks[1].CreatedAt)
	}
}

func TestParseHTML_MissingHref(t *testing.T) {
	html := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<DL><p>
    <DT><A ADD_DATE="1234567890">No URL</A>
    <DT><A HREF="https://valid.com" ADD_DATE="1234567890">Valid</A>
</DL><p>`

	bookmarks, err := importer.ParseHTMLBookmarks(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Should skip bookmark without HREF, keep valid one
	if len(bookmarks) != 1 {
		t.Fatalf("expected 1 bookmark (skip missing href), got %d", len(bookmarks))
	}

	if bookmarks[0].Title != "Valid" {
		t.Errorf("expected 'Valid' bookmark, got %q", bookmarks[0].Title)
	}
}
