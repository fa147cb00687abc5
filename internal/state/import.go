package state

import (
	"context"
	"errors"
	"strings"

	"github.com/nikbrunner/shelf/internal/model"
)

// ImportFailure is a link that could not be added.
type ImportFailure struct {
	URL string
	Err error
}

// ImportReport summarizes an Import run.
type ImportReport struct {
	Added    int
	Skipped  int // already present
	Failures []ImportFailure
}

// ProgressFunc is called after each link is processed.
type ProgressFunc func(done, total int)

// Import adds each draft bookmark through Add, one at a time. Only URL and
// Tags of a draft are used. Links whose URL is already in the collection
// are skipped. A cancelled context stops the run and is returned.
func (l *List) Import(ctx context.Context, drafts []model.Bookmark, policy SummaryPolicy, onProgress ProgressFunc) (ImportReport, error) {
	var report ImportReport

	known := l.Snapshot().Store()

	for i, draft := range drafts {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		url := strings.TrimSpace(draft.URL)
		switch {
		case url == "" || known.HasBookmarkURL(url):
			report.Skipped++
		default:
			created, err := l.Add(ctx, url, strings.Join(draft.Tags, ","), policy)
			switch {
			case err == nil:
				report.Added++
				known.Bookmarks = append(known.Bookmarks, *created)
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return report, err
			default:
				report.Failures = append(report.Failures, ImportFailure{URL: url, Err: err})
			}
		}

		if onProgress != nil {
			onProgress(i+1, len(drafts))
		}
	}

	l.logger.Info().
		Int("added", report.Added).
		Int("skipped", report.Skipped).
		Int("failed", len(report.Failures)).
		Msg("import finished")
	return report, nil
}
