package main

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/nikbrunner/shelf/internal/model"
	"github.com/nikbrunner/shelf/internal/picker"
	"github.com/nikbrunner/shelf/internal/search"
	"github.com/nikbrunner/shelf/internal/state"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	var (
		tag    string
		query  string
		cached bool
	)

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List bookmarks in order",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var items []model.Bookmark
			if cached {
				sess, err := opts.env.session()
				if err != nil {
					return err
				}
				if opts.env.cache == nil {
					return fmt.Errorf("snapshot cache unavailable")
				}
				store, err := opts.env.cache.LoadSnapshot()
				if err != nil {
					return fmt.Errorf("read cache: %w", err)
				}
				// A snapshot of another account is never shown.
				if store.Account == sess.Email {
					items = store.Bookmarks
				}
			} else {
				list, err := opts.env.loadList(cmd.Context())
				if err != nil {
					return err
				}
				items = list.Snapshot().Items
			}

			printBookmarks(cmd.OutOrStdout(), search.Project(items, tag, query))
			return nil
		},
	}
	cmd.Flags().StringVarP(&tag, "tag", "t", search.AllTag, "only bookmarks with this tag")
	cmd.Flags().StringVarP(&query, "query", "q", "", "search titles, URLs and summaries")
	cmd.Flags().BoolVar(&cached, "cached", false, "read the last synced snapshot instead of the server")
	return cmd
}

func printBookmarks(w io.Writer, items []model.Bookmark) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No bookmarks.")
		return
	}

	rows := make([][]string, len(items))
	for i, b := range items {
		tags := ""
		if len(b.Tags) > 0 {
			tags = "#" + strings.Join(b.Tags, " #")
		}
		rows[i] = []string{b.ID, b.DisplayTitle(), b.URL, tags}
	}

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		Headers("ID", "TITLE", "URL", "TAGS").
		Rows(rows...)
	fmt.Fprintln(w, t.Render())
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	var (
		tags   string
		policy string
	)

	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Add a bookmark with a fetched summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := state.ParseSummaryPolicy(policy)
			if err != nil {
				return err
			}
			sess, err := opts.env.session()
			if err != nil {
				return err
			}

			b, err := opts.env.newList(sess).Add(cmd.Context(), args[0], tags, p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s\n", b.ID, b.DisplayTitle())
			return nil
		},
	}
	cmd.Flags().StringVarP(&tags, "tags", "t", "", "comma-separated tags")
	cmd.Flags().StringVarP(&policy, "summary", "s", state.SummaryRequired.String(), "summary policy: required, best-effort or skip")
	return cmd
}

func newRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a bookmark",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := opts.env.loadList(cmd.Context())
			if err != nil {
				return err
			}
			b, err := findBookmark(list, args[0])
			if err != nil {
				return err
			}
			if err := list.Delete(cmd.Context(), b.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", b.DisplayTitle())
			return nil
		},
	}
}

func newMoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mv <id> <target-id>",
		Short: "Move a bookmark to the position of another",
		Long: `Moves a bookmark to where the target bookmark is now. Every
bookmark is renumbered and the new order is saved in one request.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := opts.env.loadList(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range args {
				if _, err := findBookmark(list, id); err != nil {
					return err
				}
			}
			if err := list.Reorder(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			printBookmarks(cmd.OutOrStdout(), list.Snapshot().Items)
			return nil
		},
	}
}

func findBookmark(list *state.List, id string) (model.Bookmark, error) {
	if b := list.Snapshot().Store().GetBookmarkByID(id); b != nil {
		return *b, nil
	}
	return model.Bookmark{}, fmt.Errorf("no bookmark with id %q", id)
}

func newTagsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List tags with their bookmark counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := opts.env.loadList(cmd.Context())
			if err != nil {
				return err
			}
			items := list.Snapshot().Items
			for _, tag := range search.Tags(items) {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %d\n", tag, len(search.Project(items, tag, "")))
			}
			return nil
		},
	}
}

func newOpenCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "open <query>",
		Short: "Quick search, select and open in the browser",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := opts.env.loadList(cmd.Context())
			if err != nil {
				return err
			}

			query := strings.Join(args, " ")
			results := search.FuzzySearch(list.Snapshot().Items, query)
			if len(results) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No bookmarks found for '%s'\n", query)
				return nil
			}

			var selected *model.Bookmark
			if len(results) == 1 {
				// Single result - select it directly
				selected = results[0].Bookmark
			} else {
				p := tea.NewProgram(picker.New(results, query), tea.WithContext(cmd.Context()))
				final, err := p.Run()
				if err != nil {
					return fmt.Errorf("run picker: %w", err)
				}
				finalPicker := final.(picker.Picker)
				if finalPicker.Cancelled() {
					return nil
				}
				selected = finalPicker.SelectedBookmark()
			}
			if selected == nil {
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Opening: %s\n", selected.DisplayTitle())
			return openURL(selected.LinkURL())
		},
	}
}
