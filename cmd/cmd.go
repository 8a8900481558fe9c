// submodule cmd contains command definitions
package main

import (
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/flix/internal/models"
)

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output raw JSON",
	}
}

// setupCommand handles setup operations for configuration and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config.toml template to the --config path",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// searchCommand runs a free-text or wildcard search.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Aliases:   []string{"s"},
		Usage:     "Search the catalog (\"*\" lists popular titles across common terms)",
		ArgsUsage: "<query>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "genre",
				Aliases: []string{"g"},
				Usage:   "Keep only movies of this genre (Portuguese label or English value)",
			},
			&cli.IntFlag{
				Name:  "max",
				Usage: "Maximum number of results",
			},
			jsonFlag(),
		},
		Action: r.Search,
	}
}

// letterCommand lists titles by initial.
func letterCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "letter",
		Usage:     "List titles starting with a letter or digit",
		ArgsUsage: "<letter>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "letter"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "refresh",
				Usage: "Ignore the letter cache and query the catalog again",
			},
			jsonFlag(),
		},
		Action: r.Letter,
	}
}

func suggestCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "suggest",
		Usage:     "Show up to five ranked suggestions for a partial title",
		ArgsUsage: "<partial>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "partial"},
		},
		Flags:  []cli.Flag{jsonFlag()},
		Action: r.Suggest,
	}
}

func detailsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "details",
		Aliases:   []string{"info"},
		Usage:     "Show the full record of a movie",
		ArgsUsage: "<imdb-id>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags:  []cli.Flag{jsonFlag()},
		Action: r.Details,
	}
}

func genresCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "genres",
		Usage:  "List the genre labels accepted by --genre",
		Action: r.Genres,
	}
}

// favoritesCommand manages the favorites list.
func favoritesCommand(r *Runner) *cli.Command {
	return listCommand(r, models.Favorites, "favorites", []string{"fav"}, nil)
}

// watchLaterCommand manages the watch-later list.
func watchLaterCommand(r *Runner) *cli.Command {
	birthYear := &cli.IntFlag{
		Name:  "birth-year",
		Usage: "Birth year used for the age check when none is recorded",
	}
	return listCommand(r, models.WatchLater, "watchlater", []string{"wl", "watch-later"}, []cli.Flag{birthYear})
}

func listCommand(r *Runner, list models.List, name string, aliases []string, addFlags []cli.Flag) *cli.Command {
	return &cli.Command{
		Name:    name,
		Aliases: aliases,
		Usage:   "Manage the " + list.String() + " list",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Show the list",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "filter",
						Aliases: []string{"f"},
						Usage:   "Fuzzy-filter titles",
					},
					jsonFlag(),
				},
				Action: r.ListShow(list),
			},
			{
				Name:      "add",
				Usage:     "Add a movie by IMDb id",
				ArgsUsage: "<imdb-id>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     addFlags,
				Action:    r.ListAdd(list),
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove a movie by IMDb id",
				ArgsUsage: "<imdb-id>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.ListRemove(list),
			},
			{
				Name:  "export",
				Usage: "Export the list to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export format: csv, markdown, text or json",
						Value: "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output path (base name for csv, directory for markdown)",
					},
					&cli.BoolFlag{
						Name:  "poster",
						Usage: "Download a poster for markdown exports",
					},
				},
				Action: r.ListExport(list),
			},
		},
	}
}

func profileCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Manage the local session profile",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the current profile",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.ProfileShow,
			},
			{
				Name:  "login",
				Usage: "Replace the profile",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Display name", Required: true},
					&cli.StringFlag{Name: "email", Usage: "Email address", Required: true},
				},
				Action: r.ProfileLogin,
			},
			{
				Name:   "logout",
				Usage:  "Delete the profile",
				Action: r.ProfileLogout,
			},
		},
	}
}

func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Stream list-change notifications from other flix processes",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Polling interval (defaults to events.poll_interval_ms)",
			},
			jsonFlag(),
		},
		Action: r.Watch,
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive movie browser",
		Action:  r.TUI,
	}
}
