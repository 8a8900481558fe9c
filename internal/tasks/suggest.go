package tasks

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/services"
	"github.com/desertthunder/flix/internal/shared"
)

const (
	// MaxSuggestions bounds the ranked suggestion list.
	MaxSuggestions = 5

	defaultDebounce = 300 * time.Millisecond
)

// Match ranks a candidate title against a query.
type Match int

const (
	MatchPrefix    Match = iota // title or one of its words starts with the query
	MatchSubstring              // title contains the query
	MatchNone
)

// RankTitle classifies title against query, ignoring case.
func RankTitle(query, title string) Match {
	q := shared.FoldString(strings.TrimSpace(query))
	t := shared.FoldString(title)
	if q == "" {
		return MatchNone
	}
	if strings.HasPrefix(t, q) {
		return MatchPrefix
	}
	for _, word := range strings.Fields(t) {
		if strings.HasPrefix(word, q) {
			return MatchPrefix
		}
	}
	if strings.Contains(t, q) {
		return MatchSubstring
	}
	return MatchNone
}

// RankSuggestions orders candidates by match rank, then title, and keeps the first five.
// Duplicate identifiers are merged before ranking.
func RankSuggestions(query string, candidates []models.Movie) []models.Movie {
	if strings.TrimSpace(query) == "" || len(candidates) == 0 {
		return []models.Movie{}
	}

	type ranked struct {
		movie models.Movie
		rank  Match
	}

	unique := models.MergeByID(nil, candidates)
	items := make([]ranked, len(unique))
	for i, m := range unique {
		items[i] = ranked{movie: m, rank: RankTitle(query, m.Title)}
	}

	c := shared.NewTitleCollator()
	slices.SortStableFunc(items, func(a, b ranked) int {
		if n := cmp.Compare(a.rank, b.rank); n != 0 {
			return n
		}
		if n := c.CompareString(a.movie.Title, b.movie.Title); n != 0 {
			return n
		}
		return cmp.Compare(a.movie.ID, b.movie.ID)
	})

	n := min(len(items), MaxSuggestions)
	out := make([]models.Movie, n)
	for i := range n {
		out[i] = items[i].movie
	}
	return out
}

// Suggestion is a ranked result for one query.
type Suggestion struct {
	Seq    uint64
	Query  string
	Movies []models.Movie
	Err    error
}

// Suggester produces autocomplete suggestions. Each request takes a sequence number and
// its result is only accepted if no newer request has been issued since, so a slow
// response can never overwrite fresher suggestions.
//
// This differs from a plain last-resolved-wins client, where whichever lookup finishes
// last is displayed even if it answers an older query.
type Suggester struct {
	catalog  services.Catalog
	pool     PoolSource
	debounce time.Duration
	logger   *log.Logger
	seq      atomic.Uint64
}

// NewSuggester creates a [Suggester]. pool may be nil; a non-positive debounce uses 300ms.
func NewSuggester(catalog services.Catalog, pool PoolSource, debounce time.Duration, logger *log.Logger) *Suggester {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Suggester{catalog: catalog, pool: pool, debounce: debounce, logger: logger}
}

// Debounce returns the quiet period to wait after the last keystroke.
func (s *Suggester) Debounce() time.Duration {
	return s.debounce
}

// Next issues a new request sequence number, superseding all earlier ones.
func (s *Suggester) Next() uint64 {
	return s.seq.Add(1)
}

// Accept reports whether seq is still the latest request.
func (s *Suggester) Accept(seq uint64) bool {
	return s.seq.Load() == seq
}

// Suggest fetches candidates for query from the catalog and the last search, and ranks them.
// Transient catalog failures fall back to the last search alone.
func (s *Suggester) Suggest(ctx context.Context, query string) ([]models.Movie, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Movie{}, nil
	}

	var candidates []models.Movie
	if s.catalog != nil {
		page, err := s.catalog.Search(ctx, query, 1)
		switch {
		case err == nil:
			candidates = append(candidates, page.Movies...)
		case IsFatal(err):
			return nil, err
		default:
			s.logger.Debug("suggestion search failed", "query", query, "error", err)
		}
	}

	if s.pool != nil {
		pool, err := s.pool.Pool()
		if err != nil {
			s.logger.Debug("failed to read last search", "error", err)
		}
		for _, m := range pool {
			if RankTitle(query, m.Title) != MatchNone {
				candidates = append(candidates, m)
			}
		}
	}

	return RankSuggestions(query, candidates), nil
}

// Request waits out the debounce, then fetches suggestions under seq. The result is
// marked with seq; callers check [Suggester.Accept] before displaying it.
func (s *Suggester) Request(ctx context.Context, seq uint64, query string) Suggestion {
	timer := time.NewTimer(s.debounce)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return Suggestion{Seq: seq, Query: query, Err: ctx.Err()}
	case <-timer.C:
	}

	if !s.Accept(seq) {
		return Suggestion{Seq: seq, Query: query}
	}
	movies, err := s.Suggest(ctx, query)
	return Suggestion{Seq: seq, Query: query, Movies: movies, Err: err}
}

// Stream debounces queries and emits suggestions for the ones that are still current when
// their results arrive. The output channel closes when queries closes or ctx is done.
func (s *Suggester) Stream(ctx context.Context, queries <-chan string) <-chan Suggestion {
	out := make(chan Suggestion)
	results := make(chan Suggestion)

	go func() {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		defer close(out)

		var (
			timer   *time.Timer
			fire    <-chan time.Time
			pending string
			seq     uint64
		)
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case q, ok := <-queries:
				if !ok {
					return
				}
				pending = q
				seq = s.Next()
				if timer == nil {
					timer = time.NewTimer(s.debounce)
				} else {
					timer.Reset(s.debounce)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				go func(seq uint64, query string) {
					movies, err := s.Suggest(ctx, query)
					select {
					case results <- Suggestion{Seq: seq, Query: query, Movies: movies, Err: err}:
					case <-ctx.Done():
					}
				}(seq, pending)
			case r := <-results:
				if !s.Accept(r.Seq) {
					s.logger.Debug("dropping superseded suggestions", "query", r.Query)
					continue
				}
				select {
				case out <- r:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
