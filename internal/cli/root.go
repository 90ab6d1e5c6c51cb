// Package cli is the aams command line console for the AAMS API.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jrsteele09/aams-client/apiclient"
	"github.com/jrsteele09/aams-client/auth"
	"github.com/jrsteele09/aams-client/internal/config"
	"github.com/jrsteele09/aams-client/session"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app is the state shared by every command, built before each run
type app struct {
	cfg      config.Config
	logger   zerolog.Logger
	sessions *session.Manager
	client   *apiclient.Client
	auth     *auth.Service
	nav      *navigator
	out      io.Writer
}

type rootFlags struct {
	configFile string
	baseURL    string
	verbose    bool
}

// NewRootCommand builds the aams command tree
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}
	a := &app{}

	root := &cobra.Command{
		Use:           "aams",
		Short:         "AAMS administration console",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd, flags)
		},
	}
	root.PersistentFlags().StringVar(&flags.configFile, "config", config.GetEnv(config.ConfigFileVar, ""), "YAML config file")
	root.PersistentFlags().StringVar(&flags.baseURL, "base-url", "", "API base URL, overrides the configured one")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log every request")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newHealthCmd(a),
		newUsersCmd(a),
		newProjectsCmd(a),
		newRolesCmd(a),
		newPermissionsCmd(a),
		newVersionCmd(a),
	)
	return root
}

// Execute runs the command line with os.Args
func Execute(ctx context.Context) error {
	root := NewRootCommand()
	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", errorMessage(err))
	}
	return err
}

func (a *app) setup(cmd *cobra.Command, flags *rootFlags) error {
	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.out = cmd.OutOrStdout()
	a.logger = newLogger(cmd.ErrOrStderr(), cfg, flags.verbose)

	repo := session.NewFileRepo(cfg.GetSessionFile(), session.WithPassphrase(cfg.GetSessionPassphrase()))
	a.sessions = session.NewManager(repo).WithLogger(a.logger)

	a.nav = newNavigator(cmd.ErrOrStderr(), cfg.GetLoginPath())
	opts := []apiclient.Option{
		apiclient.WithLogger(a.logger),
		apiclient.WithNavigator(a.nav),
	}
	if flags.baseURL != "" {
		cfg = baseURLOverride{Config: cfg, baseURL: flags.baseURL}
	}
	client, err := apiclient.NewFromConfig(cfg, a.sessions, opts...)
	if err != nil {
		return err
	}
	a.client = client
	a.auth = auth.NewService(a.client).WithLogger(a.logger)
	return nil
}

// baseURLOverride replaces the configured base URL with the --base-url flag
type baseURLOverride struct {
	config.Config
	baseURL string
}

func (o baseURLOverride) GetAPIBaseURL() string {
	return o.baseURL
}

func newLogger(w io.Writer, cfg config.Config, verbose bool) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	if w == nil {
		w = os.Stderr
	}
	if cfg.GetEnv() == "DEV" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
