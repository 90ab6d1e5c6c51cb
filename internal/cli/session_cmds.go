package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/aams-client/auth"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=..."
var Version = "dev"

func newLoginCmd(a *app) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				p, err := readPassword(cmd)
				if err != nil {
					return err
				}
				password = p
			}
			resp, err := a.auth.Login(cmd.Context(), username, password)
			if err != nil {
				return &loginError{msg: auth.LoginErrorMessage(err), err: err}
			}
			fmt.Fprintf(a.out, "Logged in as %s (%s)\n", resp.User.Username, resp.User.DisplayName())
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password, prompted for when omitted")
	return cmd
}

func readPassword(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	defer fmt.Fprintln(cmd.ErrOrStderr())

	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		raw, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", fmt.Errorf("[cli login] failed to read password: %w", err)
		}
		return string(raw), nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("[cli login] failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Blacklist the refresh token and clear the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.nav.silence()
			if err := a.auth.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res := a.auth.CurrentUser(cmd.Context())
			if res.User == nil {
				return res.Err
			}
			u := res.User
			tw := newTable(a.out, "FIELD", "VALUE")
			row(tw, "id", u.ID)
			row(tw, "username", u.Username)
			row(tw, "name", u.DisplayName())
			row(tw, "email", u.Email)
			row(tw, "department", orDash(u.Department))
			row(tw, "position", orDash(u.Position))
			row(tw, "admin", yesNo(u.IsAdmin()))
			if exp, err := a.sessions.AccessTokenExpiry(); err == nil {
				row(tw, "token expires", exp.Local().Format(time.RFC1123))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if res.Stale {
				fmt.Fprintf(cmd.ErrOrStderr(), "Showing cached user: %s\n", errorMessage(res.Err))
			}
			return nil
		},
	}
}

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the API is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := a.client.Health(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s: %s (%s)\n", status.Status, status.Message, a.client.BaseURL())
			return nil
		},
	}
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			banner := figure.NewFigure(a.cfg.GetAppName(), "cybermedium", true)
			fmt.Fprintln(a.out, banner.String())
			fmt.Fprintf(a.out, "%s %s\n", a.cfg.GetAppName(), Version)
		},
	}
}
