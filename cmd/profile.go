package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
)

type profileOutput struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	BirthYear  int    `json:"birth_year,omitempty"`
	Favorites  int    `json:"favorites"`
	WatchLater int    `json:"watch_later"`
}

// ProfileShow prints the session profile and the size of each list.
func (r *Runner) ProfileShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(ctx); err != nil {
		return err
	}

	profile, err := r.session.Get()
	if errors.Is(err, shared.ErrProfileNotFound) {
		return r.writePlain("Not logged in. Run 'flix profile login --name <name> --email <email>'\n")
	} else if err != nil {
		return err
	}

	out := profileOutput{Name: profile.Name, Email: profile.Email}
	if out.BirthYear, err = r.session.BirthYear(); err != nil {
		r.logger.Warn("failed to read birth year", "error", err)
	}
	if out.Favorites, err = r.lists.Count(models.Favorites); err != nil {
		return err
	}
	if out.WatchLater, err = r.lists.Count(models.WatchLater); err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(out, true)
	}

	r.writePlainHeader(out.Name)
	r.writePlain("Email:       %s\n", out.Email)
	if out.BirthYear > 0 {
		r.writePlain("Birth year:  %d\n", out.BirthYear)
	}
	r.writePlain("Favorites:   %d\n", out.Favorites)
	return r.writePlain("Watch later: %d\n", out.WatchLater)
}

// ProfileLogin replaces the session profile.
func (r *Runner) ProfileLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(ctx); err != nil {
		return err
	}

	profile, err := r.session.Login(cmd.String("name"), cmd.String("email"))
	if err != nil {
		return err
	}
	r.logger.Debug("profile stored", "name", profile.Name)
	return r.writePlain("✓ Logged in as %s <%s>\n", profile.Name, profile.Email)
}

// ProfileLogout deletes the session profile. Lists and the recorded birth year are kept.
func (r *Runner) ProfileLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(ctx); err != nil {
		return err
	}
	if err := r.session.Logout(); err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}
	return r.writePlain("✓ Logged out\n")
}
