package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/services"
	"github.com/desertthunder/flix/internal/shared"
	mocks "github.com/desertthunder/flix/internal/testing"
)

func quietLogger() *log.Logger {
	return shared.NewLogger(io.Discard)
}

func titles(movies []models.Movie) []string {
	out := make([]string, len(movies))
	for i, m := range movies {
		out[i] = m.Title
	}
	return out
}

func TestSelector(t *testing.T) {
	tc := []struct {
		name string
		sel  Selector
		want Mode
	}{
		{name: "empty", sel: Selector{}, want: ModeWildcard},
		{name: "star", sel: Selector{Query: "*"}, want: ModeWildcard},
		{name: "all any case", sel: Selector{Query: " ALL "}, want: ModeWildcard},
		{name: "free text", sel: Selector{Query: "batman"}, want: ModeQuery},
		{name: "letter wins", sel: Selector{Query: "batman", Letter: "z"}, want: ModeLetter},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sel.Mode(); got != tt.want {
				t.Errorf("Mode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFetchAllWildcard(t *testing.T) {
	t.Run("merges terms with later fetch winning", func(t *testing.T) {
		catalog := mocks.NewMockCatalog(map[string][]models.Movie{
			"love": {
				{ID: "tt1", Title: "Love Actually", Year: "2003"},
				{ID: "tt2", Title: "Crazy, Stupid, Love.", Poster: models.NotAvailable},
			},
			"man": {
				{ID: "tt2", Title: "Crazy, Stupid, Love.", Poster: "http://img/c.jpg", Director: "Glenn Ficarra"},
				{ID: "tt3", Title: "Iron Man"},
			},
		})
		agg := NewAggregator(catalog, AggregatorOpts{Logger: quietLogger(), CommonTerms: []string{"love", "man"}})

		result, err := agg.FetchAll(context.Background(), Selector{Query: "all"}, nil)
		if err != nil {
			t.Fatalf("FetchAll failed: %v", err)
		}

		want := []string{"Crazy, Stupid, Love.", "Iron Man", "Love Actually"}
		if got := titles(result.Movies); !slices.Equal(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}

		crazy := result.Movies[0]
		if crazy.Poster != "http://img/c.jpg" || crazy.Director != "Glenn Ficarra" {
			t.Errorf("expected later fetch to win, got %+v", crazy)
		}
		if result.Source != SourceRemote || result.Partial {
			t.Errorf("unexpected result metadata %+v", result)
		}
	})

	t.Run("genre filter keeps only matching items", func(t *testing.T) {
		catalog := mocks.NewMockCatalog(map[string][]models.Movie{
			"star": {{ID: "tt1", Title: "Star Wars"}, {ID: "tt2", Title: "A Star Is Born"}, {ID: "tt3", Title: "Stardust"}},
		})
		catalog.Movies = map[string]models.Movie{
			"tt1": {ID: "tt1", Title: "Star Wars", Genre: "Action, Adventure, Fantasy"},
			"tt2": {ID: "tt2", Title: "A Star Is Born", Genre: "Drama, Music, Romance"},
			"tt3": {ID: "tt3", Title: "Stardust", Genre: "Adventure, Family, Fantasy"},
		}
		agg := NewAggregator(catalog, AggregatorOpts{Logger: quietLogger(), CommonTerms: []string{"star"}})

		result, err := agg.FetchAll(context.Background(), Selector{Genre: "fantasia"}, nil)
		if err != nil {
			t.Fatalf("FetchAll failed: %v", err)
		}

		if len(result.Movies) != 2 {
			t.Fatalf("expected 2 fantasy movies, got %v", titles(result.Movies))
		}
		for _, m := range result.Movies {
			if !m.HasGenre("fantasy") {
				t.Errorf("%s does not contain the requested genre: %q", m.Title, m.Genre)
			}
		}
		if catalog.DetailCalls() != 3 {
			t.Errorf("expected a detail fetch per item, got %d", catalog.DetailCalls())
		}
	})

	t.Run("failed detail fetch drops item from genre results", func(t *testing.T) {
		catalog := mocks.NewMockCatalog(map[string][]models.Movie{
			"war": {{ID: "tt1", Title: "War Horse"}, {ID: "tt2", Title: "War of the Worlds"}},
		})
		catalog.Movies = map[string]models.Movie{
			"tt1": {ID: "tt1", Genre: "Drama, War"},
		}
		agg := NewAggregator(catalog, AggregatorOpts{Logger: quietLogger(), CommonTerms: []string{"war"}})

		result, err := agg.FetchAll(context.Background(), Selector{Genre: "War"}, nil)
		if err != nil {
			t.Fatalf("FetchAll failed: %v", err)
		}
		if got := titles(result.Movies); !slices.Equal(got, []string{"War Horse"}) {
			t.Errorf("unexpected titles %v", got)
		}
	})

	t.Run("truncates to max", func(t *testing.T) {
		var movies []models.Movie
		for i := range 30 {
			movies = append(movies, models.Movie{ID: fmt.Sprintf("tt%02d", i), Title: fmt.Sprintf("Day %02d", i)})
		}
		catalog := mocks.NewMockCatalog(map[string][]models.Movie{"day": movies})
		agg := NewAggregator(catalog, AggregatorOpts{Logger: quietLogger(), CommonTerms: []string{"day"}})

		result, err := agg.FetchAll(context.Background(), Selector{Query: "*", Max: 5}, nil)
		if err != nil {
			t.Fatalf("FetchAll failed: %v", err)
		}
		if len(result.Movies) != 5 || result.Movies[0].Title != "Day 00" {
			t.Errorf("unexpected result %v", titles(result.Movies))
		}
	})

	t.Run("transient term failures are skipped", func(t *testing.T) {
		catalog := &mocks.MockCatalog{
			SearchFunc: func(ctx context.Context, term string, page int) (*services.SearchPage, error) {
				if term == "night" {
					return nil, shared.ErrServiceUnavailable
				}
				return &services.SearchPage{Movies: []models.Movie{{ID: "tt-" + term, Title: term}}, Total: 1}, nil
			},
		}
		agg := NewAggregator(catalog, AggregatorOpts{Logger: quietLogger(), CommonTerms: []string{"day", "night"}})

		result, err := agg.FetchAll(context.Background(), Selector{}, nil)
		if err != nil {
			t.Fatalf("FetchAll failed: %v", err)
		}
		if got := titles(result.Movies); !slices.Equal(got, []string{"day"}) {
			t.Errorf("unexpected titles %v", got)
		}
	})

	t.Run("all terms failing is an aggregate failure", func(t *testing.T) {
		catalog := &mocks.MockCatalog{
			SearchFunc: func(context.Context, string, int) (*services.SearchPage, error) {
				return nil, shared.ErrAPIRequest
			},
		}
		agg := NewAggregator(catalog, AggregatorOpts{Logger: quietLogger(), CommonTerms: []string{"day"}})

		_, err := agg.FetchAll(context.Background(), Selector{}, nil)
		if !errors.Is(err, shared.ErrAggregateFailed) {
			t.Errorf("expected ErrAggregateFailed, got %v", err)
		}
	})

	t.Run("invalid credentials abort", func(t *testing.T) {
		catalog := &mocks.MockCatalog{
			SearchFunc: func(context.Context, string, int) (*services.SearchPage, error) {
				return nil, shared.ErrInvalidCredentials
			},
		}
		agg := NewAggregator(catalog, AggregatorOpts{Logger: quietLogger()})

		_, err := agg.FetchAll(context.Background(), Selector{}, nil)
		if !errors.Is(err, shared.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestFetchAllQuery(t *testing.T) {
	page := func(n, total int) *services.SearchPage {
		var movies []models.Movie
		for i := range services.PageSize {
			id := fmt.Sprintf("tt%03d", (n-1)*services.PageSize+i)
			movies = append(movies, models.Movie{ID: id, Title: "Batman " + id})
		}
		return &services.SearchPage{Movies: movies, Total: total}
	}

	t.Run("fetches remaining pages in parallel", func(t *testing.T) {
		catalog := &mocks.MockCatalog{
			SearchFunc: func(_ context.Context, term string, n int) (*services.SearchPage, error) {
				if term != "batman" {
					t.Errorf("unexpected term %s", term)
				}
				return page(n, 35), nil
			},
		}
		agg := NewAggregator(catalog, AggregatorOpts{Logger: quietLogger()})

		progress := make(chan ProgressUpdate, 10)
		result, err := agg.FetchAll(context.Background(), Selector{Query: "batman"}, progress)
		if err != nil {
			t.Fatalf("FetchAll failed: %v", err)
		}

		if got := catalog.Searches(); len(got) != 4 {
			t.Errorf("expected 4 page requests, got %v", got)
		}
		if len(result.Movies) != 40 {
			t.Errorf("expected 40 movies, got %d", len(result.Movies))
		}
		if len(progress) == 0 {
			t.Error("expected progress updates")
		}
	})

	t.Run("respects the result cap", func(t *testing.T) {
		catalog := &mocks.MockCatalog{
			SearchFunc: func(_ context.Context, _ string, n int) (*services.SearchPage, error) {
				return page(n, 9000), nil
			},
		}
		agg := NewAggregator(catalog, AggregatorOpts{Logger: quietLogger(), MaxResults: 1000})

		if _, err := agg.FetchAll(context.Background(), Selector{Query: "batman"}, nil); err != nil {
			t.Fatalf("FetchAll failed: %v", err)
		}
		if got := len(catalog.Searches()); got != 50 {
			t.Errorf("expected 50 page requests for a 500 result cap, got %d", got)
		}
	})

	t.Run("single page needs no more requests", func(t *testing.T) {
		catalog := mocks.NewMockCatalog(map[string][]models.Movie{
			"zodiac": {{ID: "tt1", Title: "Zodiac"}},
		})
		agg := NewAggregator(catalog, AggregatorOpts{Logger: quietLogger()})

		result, err := agg.FetchAll(context.Background(), Selector{Query: "zodiac"}, nil)
		if err != nil {
			t.Fatalf("FetchAll failed: %v", err)
		}
		if len(result.Movies) != 1 || len(catalog.Searches()) != 1 {
			t.Errorf("unexpected result %v after %v", result.Movies, catalog.Searches())
		}
	})

	t.Run("no results is empty, not an error", func(t *testing.T) {
		agg := NewAggregator(mocks.NewMockCatalog(nil), AggregatorOpts{Logger: quietLogger()})

		result, err := agg.FetchAll(context.Background(), Selector{Query: "qwertyuiop"}, nil)
		if err != nil {
			t.Fatalf("FetchAll failed: %v", err)
		}
		if result.Movies == nil || len(result.Movies) != 0 {
			t.Errorf("expected empty non-nil result, got %v", result.Movies)
		}
	})

	t.Run("primary search failure surfaces", func(t *testing.T) {
		catalog := &mocks.MockCatalog{
			SearchFunc: func(context.Context, string, int) (*services.SearchPage, error) {
				return nil, shared.ErrAPIRequest
			},
		}
		agg := NewAggregator(catalog, AggregatorOpts{Logger: quietLogger()})

		if _, err := agg.FetchAll(context.Background(), Selector{Query: "batman"}, nil); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("genre filter on free text", func(t *testing.T) {
		catalog := mocks.NewMockCatalog(map[string][]models.Movie{
			"dark": {{ID: "tt1", Title: "The Dark Knight"}, {ID: "tt2", Title: "Dark Waters"}},
		})
		catalog.Movies = map[string]models.Movie{
			"tt1": {ID: "tt1", Genre: "Action, Crime, Drama"},
			"tt2": {ID: "tt2", Genre: "Biography, Drama, History"},
		}
		agg := NewAggregator(catalog, AggregatorOpts{Logger: quietLogger()})

		result, err := agg.FetchAll(context.Background(), Selector{Query: "dark", Genre: "CRIME"}, nil)
		if err != nil {
			t.Fatalf("FetchAll failed: %v", err)
		}
		if got := titles(result.Movies); !slices.Equal(got, []string{"The Dark Knight"}) {
			t.Errorf("unexpected titles %v", got)
		}
	})
}

func TestFanOut(t *testing.T) {
	t.Run("results keep index order", func(t *testing.T) {
		results, failed, err := fanOut(context.Background(), 5, func(_ context.Context, i int) ([]models.Movie, error) {
			if i == 2 {
				return nil, errors.New("flaky")
			}
			return []models.Movie{{ID: fmt.Sprint(i)}}, nil
		})
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if failed != 1 {
			t.Errorf("expected 1 failure, got %d", failed)
		}
		for i, r := range results {
			if i == 2 {
				if r != nil {
					t.Errorf("expected nil slot for failed call, got %v", r)
				}
				continue
			}
			if len(r) != 1 || r[0].ID != fmt.Sprint(i) {
				t.Errorf("slot %d holds %v", i, r)
			}
		}
	})

	t.Run("fatal error cancels siblings", func(t *testing.T) {
		var cancelled atomic.Int32
		_, _, err := fanOut(context.Background(), 4, func(ctx context.Context, i int) ([]models.Movie, error) {
			if i == 0 {
				return nil, shared.ErrRateLimited
			}
			<-ctx.Done()
			cancelled.Add(1)
			return nil, ctx.Err()
		})
		if !errors.Is(err, shared.ErrRateLimited) {
			t.Errorf("expected ErrRateLimited, got %v", err)
		}
		if cancelled.Load() != 3 {
			t.Errorf("expected 3 cancelled siblings, got %d", cancelled.Load())
		}
	})
}

func TestIsFatal(t *testing.T) {
	fatal := []error{
		shared.ErrInvalidCredentials,
		fmt.Errorf("wrapped: %w", shared.ErrRateLimited),
		context.Canceled,
		context.DeadlineExceeded,
	}
	for _, err := range fatal {
		if !IsFatal(err) {
			t.Errorf("expected %v to be fatal", err)
		}
	}

	transient := []error{shared.ErrAPIRequest, shared.ErrServiceUnavailable, errors.New("EOF")}
	for _, err := range transient {
		if IsFatal(err) {
			t.Errorf("expected %v to be transient", err)
		}
	}
}
