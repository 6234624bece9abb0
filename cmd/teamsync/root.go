package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/randomtoy/teamsync/internal/adapters/roster"
	"github.com/randomtoy/teamsync/internal/adapters/sessions"
	"github.com/randomtoy/teamsync/internal/app"
	"github.com/randomtoy/teamsync/internal/config"
	"github.com/randomtoy/teamsync/internal/logging"
)

// rootOptions are flags shared by every subcommand.
type rootOptions struct {
	logLevel  string
	logFormat string

	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "teamsync",
		Short:         "Lucky draws and random grouping for name lists",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.init(cmd.ErrOrStderr(), cmd)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (default from LOG_LEVEL)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format: json or text (default from LOG_FORMAT)")

	cmd.AddCommand(
		newServeCmd(opts),
		newGroupsCmd(opts),
		newDrawCmd(opts),
		newDupesCmd(opts),
	)
	return cmd
}

func (o *rootOptions) init(stderr io.Writer, cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if o.logLevel != "" {
		if cfg.LogLevel, err = logging.ParseLevel(o.logLevel); err != nil {
			return err
		}
	}
	format := cfg.LogFormat
	if o.logFormat != "" {
		format = o.logFormat
	} else if cmd.Name() != "serve" && os.Getenv("LOG_FORMAT") == "" {
		format = logging.FormatText
	}
	logger, err := logging.New(stderr, format, cfg.LogLevel)
	if err != nil {
		return err
	}
	o.cfg = cfg
	o.logger = logger
	return nil
}

// newService builds a TeamService backed by an in-memory store.
func (o *rootOptions) newService(spins int, interval time.Duration, extra ...app.Option) *app.TeamService {
	cfg := app.Config{
		Draw:             app.DrawConfig{Spins: spins, Interval: interval},
		DefaultGroupSize: o.cfg.DefaultGroupSize,
		MaxImportBytes:   o.cfg.MaxUploadBytes,
	}
	opts := append([]app.Option{app.WithLogger(o.logger)}, extra...)
	return app.NewTeamService(
		sessions.NewMemoryStore(),
		roster.NewEmbeddedStore(),
		stdRNG{},
		systemClock{},
		uuidGenerator{},
		cfg,
		opts...,
	)
}
