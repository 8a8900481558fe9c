package tasks

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/services"
	"github.com/desertthunder/flix/internal/shared"
	mocks "github.com/desertthunder/flix/internal/testing"
)

// orderedCatalog records the order in which prefix searches start.
type orderedCatalog struct {
	*mocks.MockCatalog
	mu    sync.Mutex
	order []string
}

func newOrderedCatalog(results map[string][]models.Movie, fail func(term string) error) *orderedCatalog {
	c := &orderedCatalog{MockCatalog: mocks.NewMockCatalog(results)}
	pages := c.Pages
	c.SearchFunc = func(_ context.Context, term string, page int) (*services.SearchPage, error) {
		c.mu.Lock()
		c.order = append(c.order, term)
		c.mu.Unlock()

		if fail != nil {
			if err := fail(term); err != nil {
				return nil, err
			}
		}
		if p := pages[term]; len(p) > 0 {
			return p[0], nil
		}
		return &services.SearchPage{}, nil
	}
	return c
}

func zResults() map[string][]models.Movie {
	return map[string][]models.Movie{
		"Z": {
			{ID: "tt0443706", Title: "Zodiac"},
			{ID: "tt0196229", Title: "Zoolander"},
			{ID: "tt0120913", Title: "The Zone"},
		},
		"ZA": {{ID: "tt0406375", Title: "Zathura: A Space Adventure"}},
		"ZE": {{ID: "tt0443706", Title: "Zodiac", Director: "David Fincher"}},
		"ZI": {{ID: "tt1270835", Title: "Zindagi Na Milegi Dobara"}, {ID: "tt0088247", Title: "Terminator: Zig"}},
		"ZO": {{ID: "tt0120746", Title: "The Mask of Zorro"}, {ID: "tt1156398", Title: "Zombieland"}},
		"Z9": {{ID: "tt9999999", Title: "zoo 9"}},
	}
}

func TestLetterPrefixes(t *testing.T) {
	prefixes := LetterPrefixes("Z")
	if len(prefixes) != 37 {
		t.Fatalf("expected 37 prefixes, got %d", len(prefixes))
	}
	if prefixes[0] != "Z" || prefixes[1] != "ZA" || prefixes[26] != "ZZ" || prefixes[27] != "Z0" || prefixes[36] != "Z9" {
		t.Errorf("unexpected prefixes %v", prefixes)
	}
}

func TestNormalizeLetter(t *testing.T) {
	tc := map[string]string{"z": "Z", " a ": "A", "7": "7"}
	for in, want := range tc {
		got, err := NormalizeLetter(in)
		if err != nil || got != want {
			t.Errorf("NormalizeLetter(%q) = %q, %v; want %q", in, got, err, want)
		}
	}

	for _, bad := range []string{"", "ab", "#"} {
		if _, err := NormalizeLetter(bad); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("NormalizeLetter(%q): expected ErrInvalidInput, got %v", bad, err)
		}
	}
}

func TestByLetter(t *testing.T) {
	t.Run("issues 37 queries in batches of 6", func(t *testing.T) {
		catalog := newOrderedCatalog(zResults(), nil)
		store := mocks.NewMemoryLetterStore()
		agg := NewAggregator(catalog, AggregatorOpts{Letters: store, Logger: quietLogger()})

		result, err := agg.ByLetter(context.Background(), "z", nil)
		if err != nil {
			t.Fatalf("ByLetter failed: %v", err)
		}

		if len(catalog.order) != 37 {
			t.Fatalf("expected 37 queries, got %d", len(catalog.order))
		}
		prefixes := LetterPrefixes("Z")
		for start := 0; start < len(prefixes); start += 6 {
			end := min(start+6, len(prefixes))
			got := slices.Clone(catalog.order[start:end])
			want := slices.Clone(prefixes[start:end])
			slices.Sort(got)
			slices.Sort(want)
			if !slices.Equal(got, want) {
				t.Errorf("batch starting at %d: expected %v, got %v", start, want, got)
			}
		}
		if store.PartialWrites != 7 {
			t.Errorf("expected partial progress after each of 7 batches, got %d", store.PartialWrites)
		}

		want := []string{"Zathura: A Space Adventure", "Zindagi Na Milegi Dobara", "Zodiac", "Zombieland", "zoo 9", "Zoolander"}
		if got := titles(result.Movies); !slices.Equal(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
		for _, m := range result.Movies {
			if !shared.HasPrefixFold(m.Title, "Z") {
				t.Errorf("%q does not start with Z", m.Title)
			}
		}

		zodiac := result.Movies[slices.IndexFunc(result.Movies, func(m models.Movie) bool { return m.ID == "tt0443706" })]
		if zodiac.Director != "David Fincher" {
			t.Errorf("expected duplicates merged, got %+v", zodiac)
		}

		cached, ok, _ := store.Get("Z")
		if !ok || len(cached) != len(want) {
			t.Errorf("expected final result cached, got %v", cached)
		}
		if _, ok, _ := store.Partial("Z"); ok {
			t.Error("expected partial progress to be cleared")
		}
		if result.Source != SourceRemote || result.Partial {
			t.Errorf("unexpected result metadata %+v", result)
		}
	})

	t.Run("third of seven batches failing returns partial", func(t *testing.T) {
		third := LetterPrefixes("Z")[12:18]
		catalog := newOrderedCatalog(zResults(), func(term string) error {
			if slices.Contains(third, term) {
				return shared.ErrRateLimited
			}
			return nil
		})
		store := mocks.NewMemoryLetterStore()
		agg := NewAggregator(catalog, AggregatorOpts{Letters: store, Logger: quietLogger()})

		result, err := agg.ByLetter(context.Background(), "Z", nil)
		if err != nil {
			t.Fatalf("expected partial result, got error %v", err)
		}
		if !result.Partial || result.Source != SourcePartial {
			t.Errorf("expected result marked partial, got %+v", result)
		}

		want := []string{"Zathura: A Space Adventure", "Zindagi Na Milegi Dobara", "Zodiac", "Zoolander"}
		if got := titles(result.Movies); !slices.Equal(got, want) {
			t.Errorf("expected batches 1-2 only %v, got %v", want, got)
		}
		if _, ok, _ := store.Get("Z"); ok {
			t.Error("expected no final cache entry after failure")
		}
		if _, ok, _ := store.Partial("Z"); !ok {
			t.Error("expected partial progress kept for a later resume")
		}
	})

	t.Run("first batch failing without partial is an aggregate failure", func(t *testing.T) {
		catalog := newOrderedCatalog(zResults(), func(string) error { return shared.ErrInvalidCredentials })
		store := mocks.NewMemoryLetterStore()
		agg := NewAggregator(catalog, AggregatorOpts{Letters: store, Logger: quietLogger()})

		_, err := agg.ByLetter(context.Background(), "Z", nil)
		if !errors.Is(err, shared.ErrAggregateFailed) {
			t.Errorf("expected ErrAggregateFailed, got %v", err)
		}
		if !errors.Is(err, shared.ErrInvalidCredentials) {
			t.Errorf("expected cause to be kept, got %v", err)
		}
		if len(store.Final) != 0 || len(store.Partials) != 0 {
			t.Error("expected state untouched")
		}
	})

	t.Run("transient prefix failures count as empty", func(t *testing.T) {
		catalog := newOrderedCatalog(zResults(), func(term string) error {
			if term == "ZO" {
				return shared.ErrServiceUnavailable
			}
			return nil
		})
		agg := NewAggregator(catalog, AggregatorOpts{Letters: mocks.NewMemoryLetterStore(), Logger: quietLogger()})

		result, err := agg.ByLetter(context.Background(), "Z", nil)
		if err != nil {
			t.Fatalf("ByLetter failed: %v", err)
		}
		if result.Partial {
			t.Error("transient failure should not mark the result partial")
		}
		if slices.Contains(titles(result.Movies), "Zombieland") {
			t.Error("expected failed prefix to contribute nothing")
		}
	})

	t.Run("partial persistence failure aborts", func(t *testing.T) {
		catalog := newOrderedCatalog(zResults(), nil)
		store := mocks.NewMemoryLetterStore()
		store.FailPartialAt = 1
		agg := NewAggregator(catalog, AggregatorOpts{Letters: store, Logger: quietLogger()})

		_, err := agg.ByLetter(context.Background(), "Z", nil)
		if !errors.Is(err, shared.ErrAggregateFailed) {
			t.Errorf("expected ErrAggregateFailed, got %v", err)
		}
		if len(catalog.order) != 6 {
			t.Errorf("expected to stop after the first batch, got %d queries", len(catalog.order))
		}
	})

	t.Run("resumes from saved partial", func(t *testing.T) {
		catalog := newOrderedCatalog(nil, nil)
		store := mocks.NewMemoryLetterStore()
		store.Partials["Z"] = []models.Movie{{ID: "tt1", Title: "Zelig"}}
		agg := NewAggregator(catalog, AggregatorOpts{Letters: store, Logger: quietLogger()})

		result, err := agg.ByLetter(context.Background(), "Z", nil)
		if err != nil {
			t.Fatalf("ByLetter failed: %v", err)
		}
		if got := titles(result.Movies); !slices.Equal(got, []string{"Zelig"}) {
			t.Errorf("expected seeded partial in final result, got %v", got)
		}
	})

	t.Run("last search pool answers first", func(t *testing.T) {
		catalog := newOrderedCatalog(zResults(), nil)
		pool := mocks.StaticPool{{ID: "tt1", Title: "zulu"}, {ID: "tt2", Title: "Alien"}, {ID: "tt1", Title: "zulu"}}
		agg := NewAggregator(catalog, AggregatorOpts{Pool: pool, Letters: mocks.NewMemoryLetterStore(), Logger: quietLogger()})

		result, err := agg.ByLetter(context.Background(), "Z", nil)
		if err != nil {
			t.Fatalf("ByLetter failed: %v", err)
		}
		if result.Source != SourcePool || len(result.Movies) != 1 {
			t.Errorf("expected a single pool hit, got %+v", result)
		}
		if len(catalog.order) != 0 {
			t.Errorf("expected no remote queries, got %v", catalog.order)
		}
	})

	t.Run("letter cache answers before remote", func(t *testing.T) {
		catalog := newOrderedCatalog(zResults(), nil)
		store := mocks.NewMemoryLetterStore()
		store.Final["Z"] = []models.Movie{{ID: "tt1", Title: "Zelig"}}
		agg := NewAggregator(catalog, AggregatorOpts{Pool: mocks.StaticPool{{ID: "tt2", Title: "Alien"}}, Letters: store, Logger: quietLogger()})

		result, err := agg.FetchAll(context.Background(), Selector{Letter: "z"}, nil)
		if err != nil {
			t.Fatalf("FetchAll failed: %v", err)
		}
		if result.Source != SourceCache || len(result.Movies) != 1 {
			t.Errorf("expected cache hit, got %+v", result)
		}
		if len(catalog.order) != 0 {
			t.Errorf("expected no remote queries, got %v", catalog.order)
		}
	})

	t.Run("cancelled context with no progress fails", func(t *testing.T) {
		agg := NewAggregator(newOrderedCatalog(zResults(), nil), AggregatorOpts{Letters: mocks.NewMemoryLetterStore(), Logger: quietLogger()})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := agg.ByLetter(ctx, "Z", nil)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled in chain, got %v", err)
		}
	})
}
