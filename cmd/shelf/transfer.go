package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/shelf/internal/culler"
	"github.com/nikbrunner/shelf/internal/exporter"
	"github.com/nikbrunner/shelf/internal/importer"
	"github.com/nikbrunner/shelf/internal/state"
)

func newImportCmd(opts *rootOptions) *cobra.Command {
	var policy string

	cmd := &cobra.Command{
		Use:   "import <file.html>",
		Short: "Add every link of a browser bookmark export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := state.ParseSummaryPolicy(policy)
			if err != nil {
				return err
			}

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open file: %w", err)
			}
			defer file.Close()

			drafts, err := importer.ParseHTMLBookmarks(file)
			if err != nil {
				return fmt.Errorf("parse HTML: %w", err)
			}

			list, err := opts.env.loadList(cmd.Context())
			if err != nil {
				return err
			}

			errOut := cmd.ErrOrStderr()
			report, err := list.Import(cmd.Context(), drafts, p, func(done, total int) {
				fmt.Fprintf(errOut, "\r%d/%d", done, total)
			})
			if len(drafts) > 0 {
				fmt.Fprintln(errOut)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %d bookmarks", report.Added)
			if report.Skipped > 0 {
				fmt.Fprintf(out, " (%d duplicates skipped)", report.Skipped)
			}
			fmt.Fprintln(out)
			for _, f := range report.Failures {
				fmt.Fprintf(out, "  failed %s: %s\n", f.URL, state.Describe(f.Err))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&policy, "summary", "s", state.SummaryBestEffort.String(), "summary policy: required, best-effort or skip")
	return cmd
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export [path]",
		Short: "Export bookmarks to browser bookmark HTML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var outputPath string
			if len(args) > 0 {
				outputPath = args[0]
			} else {
				var err error
				outputPath, err = exporter.DefaultExportPath()
				if err != nil {
					return fmt.Errorf("default export path: %w", err)
				}
			}

			list, err := opts.env.loadList(cmd.Context())
			if err != nil {
				return err
			}
			items := list.Snapshot().Items

			if err := os.WriteFile(outputPath, []byte(exporter.ExportHTML(items)), 0644); err != nil {
				return fmt.Errorf("write file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d bookmarks to %s\n", len(items), outputPath)
			return nil
		},
	}
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check every bookmark URL for dead links",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := opts.env.loadList(cmd.Context())
			if err != nil {
				return err
			}
			items := list.Snapshot().Items
			cfg := opts.env.cfg

			errOut := cmd.ErrOrStderr()
			results := culler.CheckURLs(cmd.Context(), items, culler.Options{
				Concurrency:    cfg.CheckConcurrency,
				Timeout:        cfg.CheckTimeout.Duration,
				ExcludeDomains: cfg.CheckExcludeDomains,
				OnProgress: func(completed, total int) {
					fmt.Fprintf(errOut, "\rChecking %d/%d", completed, total)
				},
				Logger: &opts.env.log.Logger,
			})
			if len(items) > 0 {
				fmt.Fprintln(errOut)
			}

			out := cmd.OutOrStdout()
			groups := culler.Group(results)
			for _, status := range []culler.Status{culler.Dead, culler.Unreachable} {
				for _, r := range groups[status] {
					detail := r.Error
					if r.StatusCode != 0 {
						detail = fmt.Sprintf("HTTP %d", r.StatusCode)
					}
					fmt.Fprintf(out, "%-12s %s %s (%s)\n", status, r.Bookmark.ID, r.Bookmark.URL, detail)
				}
			}
			fmt.Fprintf(out, "%d healthy, %d dead, %d unreachable\n",
				len(groups[culler.Healthy]), len(groups[culler.Dead]), len(groups[culler.Unreachable]))
			return nil
		},
	}
}
