// Package commands defines the wechat-cli command tree.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"wechat-cli/internal/app"
	"wechat-cli/internal/observability"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string) error {
	cmd := &cli.Command{
		Name:  "wechat-cli",
		Usage: "WeChat Official Account client",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelInfo.String(),
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json|otlp)",
				Value: string(app.DefaultConfigLogFormat),
			},
		},
		Commands: []*cli.Command{
			configCommand(),
			tokenCommand(),
			mediaCommand(),
			draftCommand(),
			serveCommand(),
		},
	}

	return cmd.Run(ctx, args)
}

// setup loads the layered configuration and installs the logging handler.
func setup(cmd *cli.Command) (*app.Config, error) {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := observability.Instrument(cfg.LogLevel, string(cfg.LogFormat)); err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	return cfg, nil
}

// components wires the credential store, token manager and API client for a
// command invocation.
func components(ctx context.Context, cmd *cli.Command) (*app.Config, *app.Components, error) {
	cfg, err := setup(cmd)
	if err != nil {
		return nil, nil, err
	}

	built, err := app.Build(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	return cfg, built, nil
}
