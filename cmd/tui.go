package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/flix/internal/shared"
	"github.com/desertthunder/flix/internal/ui"
)

// TUI launches the interactive movie browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCatalog(); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	if err := os.MkdirAll("./tmp", 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	fileLogger, logFile, err := shared.NewFileLogger("./tmp/flix-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer logFile.Close()
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	agg, err := r.aggregator(ctx)
	if err != nil {
		return err
	}
	suggester, err := r.suggester(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	changes, err := r.changes(ctx, r.config.Events.PollInterval())
	if err != nil {
		return err
	}

	profile, err := r.session.Get()
	if err != nil {
		return fmt.Errorf("failed to read profile: %w", err)
	}

	model := ui.NewModel(ctx, ui.Deps{
		Searcher:  agg,
		Suggester: suggester,
		Details:   r.catalog,
		Lists:     r.lists,
		Snapshots: r.snapshots,
		Changes:   changes,
		Profile:   profile.Name,
		Logger:    r.logger,
	})
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
