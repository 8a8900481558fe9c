package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/flix/internal/events"
	"github.com/desertthunder/flix/internal/repositories"
	"github.com/desertthunder/flix/internal/services"
	"github.com/desertthunder/flix/internal/shared"
	"github.com/desertthunder/flix/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	catalog    services.Catalog
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	db          *sql.DB
	ownsDB      bool
	bus         *events.Bus
	broadcaster *events.Broadcaster
	kv          *repositories.KVStore
	session     *repositories.SessionRepository
	lists       *repositories.ListStore
	snapshots   *repositories.SnapshotRepository
	letters     *repositories.LetterCache
}

// RunnerOpts contains configuration options for creating a Runner.
//
// DB is optional; when nil the database named in the config is opened on first use.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Catalog    services.Catalog
	DB         *sql.DB
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		catalog:    opts.Catalog,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		db:         opts.DB,
		bus:        events.NewBus(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, searchCommand, letterCommand, suggestCommand, detailsCommand, genresCommand,
		favoritesCommand, watchLaterCommand, profileCommand, watchCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by the runner and the stores it has built.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	r.lists = nil
	r.broadcaster = nil
}

// openStore opens the database and builds the stores on first use.
//
// The session profile is initialized here, once per process.
func (r *Runner) openStore(ctx context.Context) error {
	if r.lists != nil {
		return nil
	}

	if r.db == nil {
		db, err := shared.OpenConfigured(r.config.Database)
		if err != nil {
			return err
		}
		r.db = db
		r.ownsDB = true
	}

	r.kv = repositories.NewKVStore(r.db)
	r.session = repositories.NewSessionRepository(r.kv)
	r.snapshots = repositories.NewSnapshotRepository(r.kv)
	r.letters = repositories.NewLetterCache(r.kv)
	r.broadcaster = events.NewBroadcaster(r.db, r.config.Events.BroadcastRetain, r.logger)
	r.lists = repositories.NewListStore(r.kv, repositories.ListStoreOpts{
		Session:    r.session,
		Publisher:  events.Fanout{r.bus, r.broadcaster},
		Logger:     r.logger,
		MinimumAge: r.config.Lists.WatchLaterMinAge,
	})

	profile, created, err := r.session.Init()
	if err != nil {
		return fmt.Errorf("failed to initialize session: %w", err)
	}
	if created {
		r.logger.Info("created default profile", "name", profile.Name)
	}
	return ctx.Err()
}

// Close releases the database if the runner opened it.
func (r *Runner) Close() error {
	r.bus.Close()
	if r.ownsDB && r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Runner) requireCatalog() error {
	if r.catalog == nil {
		if err := r.config.Validate(); err != nil {
			return err
		}
		return fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}
	return nil
}

// aggregator builds an aggregator over the catalog, the last search and the letter cache.
func (r *Runner) aggregator(ctx context.Context) (*tasks.Aggregator, error) {
	if err := r.requireCatalog(); err != nil {
		return nil, err
	}
	if err := r.openStore(ctx); err != nil {
		return nil, err
	}

	return tasks.NewAggregator(r.catalog, tasks.AggregatorOpts{
		Letters:     r.letters,
		Pool:        r.snapshots,
		Logger:      r.logger,
		CommonTerms: r.config.Search.CommonTerms,
		MaxResults:  r.config.Search.MaxResults,
		ResultCap:   r.config.Search.ResultCap,
		BatchSize:   r.config.Search.LetterBatchSize,
	}), nil
}

func (r *Runner) suggester(ctx context.Context) (*tasks.Suggester, error) {
	if err := r.requireCatalog(); err != nil {
		return nil, err
	}
	if err := r.openStore(ctx); err != nil {
		return nil, err
	}
	return tasks.NewSuggester(r.catalog, r.snapshots, r.config.Search.Debounce(), r.logger), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
