package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/services"
	"github.com/desertthunder/flix/internal/shared"
)

const (
	defaultMaxResults = 50
	defaultResultCap  = 500
	defaultBatchSize  = 6
)

// DefaultCommonTerms are searched when the user asks for everything.
var DefaultCommonTerms = []string{"love", "man", "star", "war", "life", "night", "day", "world", "king", "girl", "dark", "city"}

// Mode is the kind of selection a [Selector] makes.
type Mode int

const (
	ModeWildcard Mode = iota
	ModeQuery
	ModeLetter
)

func (m Mode) String() string {
	switch m {
	case ModeWildcard:
		return "wildcard"
	case ModeQuery:
		return "query"
	case ModeLetter:
		return "letter"
	default:
		return ""
	}
}

// Selector describes what to fetch.
type Selector struct {
	Query  string // free text; "", "*" and "all" select everything
	Letter string // set for exhaustive letter listing
	Genre  string // optional genre filter, localized labels accepted
	Max    int    // result limit; 0 uses the aggregator default
}

// Mode classifies the selector.
func (s Selector) Mode() Mode {
	if strings.TrimSpace(s.Letter) != "" {
		return ModeLetter
	}
	if IsWildcard(s.Query) {
		return ModeWildcard
	}
	return ModeQuery
}

// IsWildcard reports whether query selects everything.
func IsWildcard(query string) bool {
	switch strings.ToLower(strings.TrimSpace(query)) {
	case "", "*", "all":
		return true
	}
	return false
}

// Source names where a result came from.
type Source string

const (
	SourceRemote  Source = "remote"
	SourcePool    Source = "last_search"
	SourceCache   Source = "cache"
	SourcePartial Source = "partial"
)

// Result is the outcome of an aggregation.
type Result struct {
	Movies  []models.Movie
	Source  Source
	Partial bool // true when an interrupted letter listing fell back to saved progress
}

// LetterStore persists letter listings and their partial progress.
type LetterStore interface {
	Get(letter string) ([]models.Movie, bool, error)
	Save(letter string, movies []models.Movie) error
	Partial(letter string) ([]models.Movie, bool, error)
	SavePartial(letter string, movies []models.Movie) error
	ClearPartial(letter string) error
}

// PoolSource supplies the movies of the last search.
type PoolSource interface {
	Pool() ([]models.Movie, error)
}

// AggregatorOpts configures an [Aggregator].
type AggregatorOpts struct {
	Letters     LetterStore
	Pool        PoolSource
	Logger      *log.Logger
	CommonTerms []string
	MaxResults  int
	ResultCap   int
	BatchSize   int
}

// Aggregator fans searches out over the catalog and merges, filters and sorts the results.
type Aggregator struct {
	catalog     services.Catalog
	letters     LetterStore
	pool        PoolSource
	logger      *log.Logger
	commonTerms []string
	maxResults  int
	resultCap   int
	batchSize   int
}

// NewAggregator creates an [Aggregator] over catalog.
func NewAggregator(catalog services.Catalog, opts AggregatorOpts) *Aggregator {
	a := &Aggregator{
		catalog:     catalog,
		letters:     opts.Letters,
		pool:        opts.Pool,
		logger:      opts.Logger,
		commonTerms: opts.CommonTerms,
		maxResults:  opts.MaxResults,
		resultCap:   opts.ResultCap,
		batchSize:   opts.BatchSize,
	}
	if a.logger == nil {
		a.logger = shared.NewLogger(nil)
	}
	if len(a.commonTerms) == 0 {
		a.commonTerms = DefaultCommonTerms
	}
	if a.maxResults <= 0 {
		a.maxResults = defaultMaxResults
	}
	if a.resultCap <= 0 {
		a.resultCap = defaultResultCap
	}
	if a.batchSize <= 0 {
		a.batchSize = defaultBatchSize
	}
	return a
}

// FetchAll runs the selection described by sel.
func (a *Aggregator) FetchAll(ctx context.Context, sel Selector, progress chan<- ProgressUpdate) (*Result, error) {
	if a.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	switch sel.Mode() {
	case ModeLetter:
		return a.ByLetter(ctx, sel.Letter, progress)
	case ModeWildcard:
		movies, err := a.fetchWildcard(ctx, sel, progress)
		if err != nil {
			return nil, err
		}
		return &Result{Movies: movies, Source: SourceRemote}, nil
	default:
		movies, err := a.fetchQuery(ctx, sel, progress)
		if err != nil {
			return nil, err
		}
		return &Result{Movies: movies, Source: SourceRemote}, nil
	}
}

// fetchWildcard searches every common term in parallel and merges the results in term order.
func (a *Aggregator) fetchWildcard(ctx context.Context, sel Selector, progress chan<- ProgressUpdate) ([]models.Movie, error) {
	terms := a.commonTerms
	sendProgress(progress, searchTermsUpdate(len(terms)))

	pages, failed, err := fanOut(ctx, len(terms), func(ctx context.Context, i int) ([]models.Movie, error) {
		page, err := a.catalog.Search(ctx, terms[i], 1)
		if err != nil {
			return nil, err
		}
		return page.Movies, nil
	})
	if err != nil {
		return nil, err
	}
	if failed == len(terms) {
		return nil, fmt.Errorf("%w: every common term search failed", shared.ErrAggregateFailed)
	}
	a.logFailures("wildcard search", failed, len(terms))

	var merged []models.Movie
	for _, page := range pages {
		merged = models.MergeByID(merged, page)
	}
	return a.finish(ctx, merged, sel, progress)
}

// fetchQuery runs the primary search and, when more results exist than it returned,
// the remaining pages in parallel up to the result cap.
func (a *Aggregator) fetchQuery(ctx context.Context, sel Selector, progress chan<- ProgressUpdate) ([]models.Movie, error) {
	query := strings.TrimSpace(sel.Query)
	first, err := a.catalog.Search(ctx, query, 1)
	if err != nil {
		return nil, err
	}

	merged := models.MergeByID(nil, first.Movies)
	pages := first.Pages(a.resultCap)

	if len(first.Movies) < a.limit(sel) && pages > 1 {
		sendProgress(progress, fetchPagesUpdate(query, pages))

		rest, failed, err := fanOut(ctx, pages-1, func(ctx context.Context, i int) ([]models.Movie, error) {
			page, err := a.catalog.Search(ctx, query, i+2)
			if err != nil {
				return nil, err
			}
			return page.Movies, nil
		})
		if err != nil {
			return nil, err
		}
		a.logFailures("page fetch", failed, pages-1)

		for _, page := range rest {
			merged = models.MergeByID(merged, page)
		}
	}
	return a.finish(ctx, merged, sel, progress)
}

// finish applies the genre filter, sorts by title and truncates.
func (a *Aggregator) finish(ctx context.Context, movies []models.Movie, sel Selector, progress chan<- ProgressUpdate) ([]models.Movie, error) {
	if genre := models.ResolveGenre(sel.Genre); genre != "" {
		enriched, err := a.enrich(ctx, movies, genre, progress)
		if err != nil {
			return nil, err
		}
		movies = filterGenre(enriched, genre)
	}

	models.SortMovies(movies)
	if n := a.limit(sel); len(movies) > n {
		movies = movies[:n]
	}
	if movies == nil {
		movies = []models.Movie{}
	}
	return movies, nil
}

// enrich fetches details for every movie in parallel and merges them in. A movie whose
// detail fetch fails keeps the fields it had.
func (a *Aggregator) enrich(ctx context.Context, movies []models.Movie, genre string, progress chan<- ProgressUpdate) ([]models.Movie, error) {
	if len(movies) == 0 {
		return movies, nil
	}
	sendProgress(progress, fetchDetailsUpdate(genre, len(movies)))

	details, failed, err := fanOut(ctx, len(movies), func(ctx context.Context, i int) ([]models.Movie, error) {
		d, err := a.catalog.Details(ctx, movies[i].ID)
		if err != nil {
			return nil, err
		}
		return []models.Movie{*d}, nil
	})
	if err != nil {
		return nil, err
	}
	a.logFailures("detail fetch", failed, len(movies))

	enriched := make([]models.Movie, len(movies))
	copy(enriched, movies)
	for i, d := range details {
		if len(d) == 1 {
			enriched[i].Merge(d[0])
		}
	}
	return enriched, nil
}

func (a *Aggregator) limit(sel Selector) int {
	if sel.Max > 0 {
		return sel.Max
	}
	return a.maxResults
}

func (a *Aggregator) logFailures(what string, failed, total int) {
	if failed > 0 {
		a.logger.Warn(what+" requests failed", "failed", failed, "total", total)
	}
}

// filterGenre keeps movies whose genre field contains genre, ignoring case.
func filterGenre(movies []models.Movie, genre string) []models.Movie {
	kept := make([]models.Movie, 0, len(movies))
	for _, m := range movies {
		if m.HasGenre(genre) {
			kept = append(kept, m)
		}
	}
	return kept
}

// IsFatal reports whether err should abort a whole fan-out rather than count as an
// empty contribution.
func IsFatal(err error) bool {
	return errors.Is(err, shared.ErrInvalidCredentials) ||
		errors.Is(err, shared.ErrMissingCredentials) ||
		errors.Is(err, shared.ErrInvalidConfig) ||
		errors.Is(err, shared.ErrRateLimited) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// fanOut runs fn for 0..n-1 concurrently. Results are indexed by i so merge order does not
// depend on completion order. Transient errors leave a nil slot and are counted in failed;
// the first fatal error cancels the remaining calls and is returned.
func fanOut(ctx context.Context, n int, fn func(ctx context.Context, i int) ([]models.Movie, error)) ([][]models.Movie, int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([][]models.Movie, n)
	errs := make([]error, n)

	var (
		wg        sync.WaitGroup
		fatalOnce sync.Once
		fatal     error
	)
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			movies, err := fn(ctx, i)
			if err != nil {
				errs[i] = err
				if IsFatal(err) {
					fatalOnce.Do(func() {
						fatal = err
						cancel()
					})
				}
				return
			}
			results[i] = movies
		}(i)
	}
	wg.Wait()

	if fatal != nil {
		return nil, 0, fatal
	}

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	return results, failed, nil
}
