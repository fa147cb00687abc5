package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nikbrunner/shelf/internal/api"
	"github.com/nikbrunner/shelf/internal/logging"
	"github.com/nikbrunner/shelf/internal/session"
	"github.com/nikbrunner/shelf/internal/state"
	"github.com/nikbrunner/shelf/internal/storage"
	"github.com/nikbrunner/shelf/internal/summary"
	"github.com/nikbrunner/shelf/internal/tui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", describe(err))
		os.Exit(1)
	}
}

// describe turns errors from the client into the text users see.
func describe(err error) string {
	var validation *api.ValidationError
	var status *api.StatusError
	if errors.As(err, &validation) || errors.As(err, &status) ||
		errors.Is(err, api.ErrNetwork) || errors.Is(err, api.ErrNotLoggedIn) ||
		errors.Is(err, state.ErrAddInFlight) {
		return state.Describe(err)
	}
	return err.Error()
}

// env is everything a command needs, built once per run.
type env struct {
	cfg      *storage.Config
	log      *logging.Logger
	sessions *storage.SessionFile
	client   *api.Client
	fetcher  *summary.Client
	cache    *storage.SQLiteCache
}

type rootOptions struct {
	verbose bool
	env     *env
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "shelf",
		Short: "Terminal client for your remote bookmark shelf",
		Long: `shelf keeps your bookmarks on a remote store and shows them in a
vim-style TUI: tag chips, live search, add with summaries and
grab-and-drop reordering.

Run without a command to open the TUI.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(opts.verbose)
			if err != nil {
				return err
			}
			opts.env = e
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return opts.env.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), opts.env)
		},
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr instead of the log file")

	root.AddCommand(
		newLoginCmd(opts),
		newRegisterCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newListCmd(opts),
		newAddCmd(opts),
		newRemoveCmd(opts),
		newMoveCmd(opts),
		newTagsCmd(opts),
		newOpenCmd(opts),
		newImportCmd(opts),
		newExportCmd(opts),
		newCheckCmd(opts),
	)
	return root
}

// newEnv loads the config file, then .env, then SHELF_* variables, and
// opens the logger and the snapshot cache.
func newEnv(verbose bool) (*env, error) {
	configPath, err := storage.DefaultConfigFilePath()
	if err != nil {
		return nil, fmt.Errorf("config path: %w", err)
	}
	cfg, err := storage.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := storage.LoadEnvFile(".env"); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	logOpts := logging.Options{Level: cfg.LogLevel, Console: verbose}
	if !verbose {
		if logOpts.Path, err = storage.DefaultLogPath(); err != nil {
			return nil, fmt.Errorf("log path: %w", err)
		}
	}
	log, err := logging.New(logOpts)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}

	sessionPath, err := storage.DefaultSessionPath()
	if err != nil {
		return nil, fmt.Errorf("session path: %w", err)
	}

	e := &env{
		cfg:      cfg,
		log:      log,
		sessions: storage.NewSessionFile(sessionPath),
		client: api.NewClient(api.ClientParams{
			BaseURL: cfg.APIURL,
			Timeout: cfg.RequestTimeout.Duration,
			Logger:  &log.Logger,
		}),
		fetcher: summary.NewClient(summary.ClientParams{
			BaseURL: cfg.SummaryURL,
			Timeout: cfg.SummaryTimeout.Duration,
			Rate:    cfg.SummaryRate,
			Burst:   cfg.SummaryBurst,
			Logger:  &log.Logger,
		}),
	}

	cachePath, err := storage.DefaultSQLitePath()
	if err == nil {
		e.cache, err = storage.NewSQLiteCache(cachePath)
	}
	if err != nil {
		// The cache only speeds up --cached listings.
		log.Warn().Err(err).Msg("snapshot cache unavailable")
		e.cache = nil
	}
	return e, nil
}

func (e *env) close() error {
	if e == nil {
		return nil
	}
	var errs []error
	if e.cache != nil {
		errs = append(errs, e.cache.Close())
	}
	errs = append(errs, e.log.Close())
	return errors.Join(errs...)
}

// session returns the saved session, or api.ErrNotLoggedIn when there is
// none or it has expired.
func (e *env) session() (*session.Session, error) {
	sess, err := e.sessions.Load()
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if !sess.Valid() {
		return nil, api.ErrNotLoggedIn
	}
	return sess, nil
}

// rememberSession saves sess and drops a snapshot cached for another
// account.
func (e *env) rememberSession(sess *session.Session) error {
	if err := e.sessions.Save(sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if e.cache == nil {
		return nil
	}
	account, err := e.cache.Account()
	if err != nil {
		return fmt.Errorf("read cache: %w", err)
	}
	if account != "" && account != sess.Email {
		if err := e.cache.Clear(); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		e.log.Info().Str("previous", account).Msg("cleared snapshot of another account")
	}
	return nil
}

// forget removes the saved session and the cached snapshot.
func (e *env) forget() error {
	if err := e.sessions.Clear(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	if e.cache != nil {
		if err := e.cache.Clear(); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
	}
	return nil
}

// newList builds a List for sess on top of the remote store.
func (e *env) newList(sess *session.Session) *state.List {
	params := state.Params{
		Session: sess,
		Remote:  e.client,
		Fetcher: e.fetcher,
		Logger:  &e.log.Logger,
	}
	if e.cache != nil {
		params.Cache = e.cache
	}
	return state.New(params)
}

// loadList loads the collection of the saved session.
func (e *env) loadList(ctx context.Context) (*state.List, error) {
	sess, err := e.session()
	if err != nil {
		return nil, err
	}
	list := e.newList(sess)
	if err := list.Load(ctx); err != nil {
		return nil, err
	}
	return list, nil
}

// runTUI runs the full interactive TUI. Without a valid session it starts
// on the login screen and saves the session once signed in.
func runTUI(ctx context.Context, e *env) error {
	var list *state.List
	sess, err := e.session()
	switch {
	case err == nil:
		list = e.newList(sess)
	case !errors.Is(err, api.ErrNotLoggedIn):
		return err
	}

	logger := e.log.Logger
	app := tui.NewApp(tui.AppParams{
		Context: ctx,
		List:    list,
		Auth:    e.client,
		OnLogin: func(sess *session.Session) (*state.List, error) {
			if err := e.rememberSession(sess); err != nil {
				return nil, err
			}
			return e.newList(sess), nil
		},
		OnLogout: e.forget,
		OpenURL:  openURL,
		Policy:   state.SummaryRequired,
		Confirm:  e.cfg.Confirm,
		Logger:   &logger,
	})

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if finalApp, ok := final.(tui.App); ok {
		finalApp.Close()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run app: %w", err)
	}
	return nil
}

// openURL opens a URL in the default browser.
func openURL(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("no browser opener for %s", runtime.GOOS)
	}
	return cmd.Start()
}
