package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/flix/internal/formatter"
	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
)

// ListShow prints a personal list, optionally fuzzy-filtered by title.
func (r *Runner) ListShow(list models.List) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		if err := r.openStore(ctx); err != nil {
			return err
		}

		movies, err := r.lists.Load(list)
		if err != nil {
			return err
		}
		if pattern := strings.TrimSpace(cmd.String("filter")); pattern != "" {
			movies = formatter.FilterMovies(movies, pattern)
		}

		if cmd.Bool("json") {
			return r.writeJSON(movies, true)
		}
		if len(movies) == 0 {
			return r.writePlain("%s is empty\n", list)
		}

		r.writePlain("%s\n", formatter.RenderTable(movies))
		return r.writePlain("%d movies in %s\n", len(movies), list)
	}
}

// ListAdd adds a movie to a list. The catalog fills in the record when it is reachable;
// otherwise the bare identifier is stored.
func (r *Runner) ListAdd(list models.List) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		id := strings.TrimSpace(cmd.StringArg("id"))
		if id == "" {
			return fmt.Errorf("%w: imdb id is required", shared.ErrMissingArgument)
		}
		if err := r.openStore(ctx); err != nil {
			return err
		}

		movie := r.lookup(ctx, id)

		var added bool
		var err error
		if list == models.WatchLater {
			added, err = r.lists.AddWatchLater(ctx, movie, int(cmd.Int("birth-year")))
		} else {
			added, err = r.lists.Add(ctx, list, movie)
		}

		switch {
		case errors.Is(err, shared.ErrBirthYearRequired):
			return fmt.Errorf("%w: pass --birth-year to add to %s", err, list)
		case errors.Is(err, shared.ErrUnderage):
			return fmt.Errorf("%s requires age %d or older: %w", list, r.lists.MinimumAge(), err)
		case err != nil:
			return fmt.Errorf("failed to add %s: %w", id, err)
		}

		if !added {
			return r.writePlain("%s is already in %s\n", label(movie), list)
		}
		return r.writePlain("✓ Added %s to %s\n", label(movie), list)
	}
}

// ListRemove removes a movie from a list.
func (r *Runner) ListRemove(list models.List) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		id := strings.TrimSpace(cmd.StringArg("id"))
		if id == "" {
			return fmt.Errorf("%w: imdb id is required", shared.ErrMissingArgument)
		}
		if err := r.openStore(ctx); err != nil {
			return err
		}

		removed, err := r.lists.Remove(ctx, list, id)
		if err != nil {
			return fmt.Errorf("failed to remove %s: %w", id, err)
		}
		if !removed {
			return r.writePlain("%s is not in %s\n", id, list)
		}
		return r.writePlain("✓ Removed %s from %s\n", id, list)
	}
}

// ListExport writes a list to disk in the requested format.
func (r *Runner) ListExport(list models.List) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		if err := r.openStore(ctx); err != nil {
			return err
		}

		movies, err := r.lists.Load(list)
		if err != nil {
			return err
		}
		profile, err := r.session.Get()
		if err != nil {
			return fmt.Errorf("failed to read profile: %w", err)
		}

		export := formatter.ListExport{
			List:       list,
			Owner:      *profile,
			ExportedAt: time.Now().UTC(),
			Movies:     movies,
		}
		output := strings.TrimSpace(cmd.String("output"))
		format := strings.ToLower(strings.TrimSpace(cmd.String("format")))

		r.logger.Info("exporting list", "list", list, "format", format, "movies", len(movies))

		switch format {
		case "csv":
			result, err := formatter.WriteCSVExport(&export, output)
			if err != nil {
				return err
			}
			r.writePlain("✓ Exported %d movies\n", len(movies))
			r.writePlain("  %s\n  %s\n", result.MoviesFile, result.MetadataFile)
			return nil
		case "markdown", "md":
			if output == "" {
				output = "."
			}
			client := r.httpClient
			if !cmd.Bool("poster") {
				client = nil
			}
			result, err := formatter.WriteMarkdownExport(&export, output, client)
			if err != nil {
				return err
			}
			r.writePlain("✓ Exported %d movies to %s\n", len(movies), result.Directory)
			for _, f := range result.Files {
				r.writePlain("  %s\n", f)
			}
			return nil
		case "text", "txt":
			path, err := formatter.WriteTextExport(&export, output)
			if err != nil {
				return err
			}
			return r.writePlain("✓ Exported %d movies to %s\n", len(movies), path)
		case "json":
			path, err := formatter.WriteJSONExport(&export, output)
			if err != nil {
				return err
			}
			return r.writePlain("✓ Exported %d movies to %s\n", len(movies), path)
		default:
			return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
		}
	}
}

// lookup fetches the full record for id, falling back to a bare identifier.
func (r *Runner) lookup(ctx context.Context, id string) models.Movie {
	if r.catalog == nil {
		return models.Movie{ID: id}
	}
	movie, err := r.catalog.Details(ctx, id)
	if err != nil {
		r.logger.Warn("details unavailable, storing identifier only", "id", id, "error", err)
		return models.Movie{ID: id}
	}
	return *movie
}

func label(m models.Movie) string {
	if m.Title == "" {
		return m.ID
	}
	if m.Year == "" {
		return m.Title
	}
	return fmt.Sprintf("%s (%s)", m.Title, m.Year)
}
