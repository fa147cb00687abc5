package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type credentialFlags struct {
	password string
}

// readPassword returns the --password flag, or asks for it. Input from a
// terminal is not echoed.
func (f credentialFlags) readPassword(cmd *cobra.Command) (string, error) {
	if f.password != "" {
		return f.password, nil
	}

	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	if in, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(in.Fd())) {
		b, err := term.ReadPassword(int(in.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var flags credentialFlags

	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in and remember the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := flags.readPassword(cmd)
			if err != nil {
				return err
			}
			return login(cmd, opts.env, args[0], password)
		},
	}
	cmd.Flags().StringVarP(&flags.password, "password", "p", "", "password (prompted when empty)")
	return cmd
}

func newRegisterCmd(opts *rootOptions) *cobra.Command {
	var flags credentialFlags

	cmd := &cobra.Command{
		Use:   "register <email>",
		Short: "Create an account and sign in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := flags.readPassword(cmd)
			if err != nil {
				return err
			}
			if err := opts.env.client.Register(cmd.Context(), args[0], password); err != nil {
				return err
			}
			return login(cmd, opts.env, args[0], password)
		},
	}
	cmd.Flags().StringVarP(&flags.password, "password", "p", "", "password (prompted when empty)")
	return cmd
}

func login(cmd *cobra.Command, e *env, email, password string) error {
	sess, err := e.client.Login(cmd.Context(), strings.TrimSpace(email), password)
	if err != nil {
		return err
	}
	if err := e.rememberSession(sess); err != nil {
		return err
	}
	e.log.Info().Str("email", sess.Email).Msg("logged in")
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", sess.Email)
	return nil
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the session and the cached bookmarks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.env.forget(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := opts.env.session()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, sess.Email)
			if sess.ExpiresAt != nil {
				fmt.Fprintf(out, "expires %s\n", sess.ExpiresAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}
