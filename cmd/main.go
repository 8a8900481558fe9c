package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/flix/internal/services"
	"github.com/desertthunder/flix/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newApp(runner).Run(ctx, os.Args)
	if cerr := runner.Close(); cerr != nil {
		logger.Warn("failed to close database", "error", cerr)
	}

	if err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "flix",
		Usage:   "Search the OMDb catalog and keep favorites & watch-later lists",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return ctx, r.Configure(cmd.String("config"), cmd.Bool("verbose"))
		},
		Commands: r.register(),
	}
}

// Configure loads the config file at path, overlays the environment and builds the
// catalog client. A missing file keeps the defaults; a missing API key leaves the
// catalog unset so offline commands still work.
func (r *Runner) Configure(path string, verbose bool) error {
	r.configPath = path
	if verbose {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if _, err := os.Stat(path); err == nil {
		config, err := shared.LoadConfig(path)
		if err != nil {
			return err
		}
		r.config = config
	} else {
		r.logger.Debug("config file not found, using defaults", "path", path)
	}

	if err := shared.ApplyEnv(r.config); err != nil {
		return err
	}

	if r.catalog != nil || r.config.Catalog.APIKey == "" {
		return nil
	}
	catalog, err := services.NewOMDbClientFromConfig(r.config.Catalog)
	if err != nil {
		return err
	}
	r.catalog = catalog
	r.logger.Debug("catalog configured", "name", catalog.Name(), "base_url", r.config.Catalog.BaseURL)
	return nil
}
