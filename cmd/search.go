package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/flix/internal/formatter"
	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
	"github.com/desertthunder/flix/internal/tasks"
)

type searchOutput struct {
	Query   string         `json:"query,omitempty"`
	Source  tasks.Source   `json:"source"`
	Partial bool           `json:"partial"`
	Count   int            `json:"count"`
	Movies  []models.Movie `json:"movies"`
}

// Search runs a query or wildcard search and records it as the last search.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	genre := strings.TrimSpace(cmd.String("genre"))
	useJSON := cmd.Bool("json")

	agg, err := r.aggregator(ctx)
	if err != nil {
		return err
	}

	sel := tasks.Selector{Query: query, Genre: genre, Max: int(cmd.Int("max"))}
	r.logger.Info("searching", "mode", sel.Mode(), "query", query, "genre", genre)

	result, err := r.runSelection(ctx, agg, sel)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	snapshot := models.SearchSnapshot{Query: query, Genre: genre, Movies: result.Movies}
	if err := r.snapshots.Save(snapshot); err != nil {
		r.logger.Warn("failed to save last search", "error", err)
	}

	return r.writeResult(query, result, useJSON)
}

// Letter lists every title starting with a letter or digit.
func (r *Runner) Letter(ctx context.Context, cmd *cli.Command) error {
	letter, err := tasks.NormalizeLetter(cmd.StringArg("letter"))
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidArgument, err)
	}
	useJSON := cmd.Bool("json")

	agg, err := r.aggregator(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("refresh") {
		if err := r.letters.Clear(letter); err != nil {
			return fmt.Errorf("failed to clear letter cache: %w", err)
		}
	}

	result, err := r.runSelection(ctx, agg, tasks.Selector{Letter: letter})
	if err != nil {
		return fmt.Errorf("letter listing failed: %w", err)
	}
	if result.Partial {
		r.logger.Warn("listing interrupted, showing partial result", "letter", letter, "count", len(result.Movies))
	}

	return r.writeResult(letter, result, useJSON)
}

// Suggest prints ranked suggestions for a partial title.
func (r *Runner) Suggest(ctx context.Context, cmd *cli.Command) error {
	partial := strings.TrimSpace(cmd.StringArg("partial"))
	if partial == "" {
		return fmt.Errorf("%w: partial title is required", shared.ErrMissingArgument)
	}

	s, err := r.suggester(ctx)
	if err != nil {
		return err
	}

	movies, err := s.Suggest(ctx, partial)
	if err != nil {
		return fmt.Errorf("suggestions failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(movies, true)
	}
	if len(movies) == 0 {
		return r.writePlain("No suggestions for '%s'\n", partial)
	}
	for i, m := range movies {
		r.writePlain("%d. %s (%s) [%s]\n", i+1, m.Title, m.Year, m.ID)
	}
	return nil
}

// Details prints the full record of one movie.
func (r *Runner) Details(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: imdb id is required", shared.ErrMissingArgument)
	}
	if err := r.requireCatalog(); err != nil {
		return err
	}

	movie, err := r.catalog.Details(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch details: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(movie, true)
	}

	r.writePlainHeader(fmt.Sprintf("%s (%s)", movie.Title, movie.Year))
	for _, f := range []struct{ label, value string }{
		{"Director", movie.Director},
		{"Genre", movie.Genre},
		{"Rated", movie.Rated},
		{"Plot", movie.Plot},
		{"Poster", movie.Poster},
	} {
		if f.value == "" || f.value == models.NotAvailable {
			continue
		}
		if f.label == "Rated" {
			f.value = fmt.Sprintf("%s (%s)", f.value, movie.Rating())
		}
		r.writePlain("%-9s %s\n", f.label+":", f.value)
	}
	return nil
}

// Genres prints the labels accepted by --genre.
func (r *Runner) Genres(ctx context.Context, cmd *cli.Command) error {
	for _, label := range models.GenreLabels() {
		r.writePlain("%-18s %s\n", label, models.GenreMap[label])
	}
	return nil
}

// runSelection runs sel while logging progress updates.
func (r *Runner) runSelection(ctx context.Context, agg *tasks.Aggregator, sel tasks.Selector) (*tasks.Result, error) {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Debug(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
		}
	}()

	result, err := agg.FetchAll(ctx, sel, progress)
	close(progress)
	<-done
	return result, err
}

func (r *Runner) writeResult(query string, result *tasks.Result, useJSON bool) error {
	if useJSON {
		return r.writeJSON(searchOutput{
			Query:   query,
			Source:  result.Source,
			Partial: result.Partial,
			Count:   len(result.Movies),
			Movies:  result.Movies,
		}, true)
	}

	if len(result.Movies) == 0 {
		return r.writePlain("No movies found\n")
	}

	r.writePlain("%s\n", formatter.RenderTable(result.Movies))
	summary := fmt.Sprintf("%d movies (%s)", len(result.Movies), result.Source)
	if result.Partial {
		summary += ", partial"
	}
	return r.writePlain("%s\n", summary)
}
