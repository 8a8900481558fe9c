package tasks

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
)

const prefixSuffixes = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NormalizeLetter upper-cases a single letter or digit.
func NormalizeLetter(letter string) (string, error) {
	letter = strings.TrimSpace(letter)
	r, size := utf8.DecodeRuneInString(letter)
	if size == 0 || size != len(letter) || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
		return "", fmt.Errorf("%w: %q is not a single letter", shared.ErrInvalidInput, letter)
	}
	return string(unicode.ToUpper(r)), nil
}

// LetterPrefixes returns the bare letter followed by the letter combined with every
// letter and digit: 37 queries in all.
func LetterPrefixes(letter string) []string {
	prefixes := make([]string, 0, len(prefixSuffixes)+1)
	prefixes = append(prefixes, letter)
	for _, s := range prefixSuffixes {
		prefixes = append(prefixes, letter+string(s))
	}
	return prefixes
}

// ByLetter lists every title starting with letter.
//
// The last search is filtered first, then the letter cache. Otherwise the prefix queries
// run in batches, and the accumulated result is saved as partial progress after every
// batch. A fatal failure returns the saved partial result marked Partial; with nothing
// saved it returns [shared.ErrAggregateFailed] and leaves the cache as it was.
func (a *Aggregator) ByLetter(ctx context.Context, letter string, progress chan<- ProgressUpdate) (*Result, error) {
	letter, err := NormalizeLetter(letter)
	if err != nil {
		return nil, err
	}
	logger := shared.WithLogger(a.logger, "letter", letter)

	if a.pool != nil {
		pool, err := a.pool.Pool()
		if err != nil {
			logger.Warn("failed to read last search", "error", err)
		}
		if hits := startingWith(pool, letter); len(hits) > 0 {
			sendProgress(progress, filterPoolUpdate(letter, len(hits)))
			return &Result{Movies: hits, Source: SourcePool}, nil
		}
	}

	if a.letters != nil {
		cached, ok, err := a.letters.Get(letter)
		if err != nil {
			logger.Warn("failed to read letter cache", "error", err)
		}
		if ok && err == nil {
			sendProgress(progress, readCacheUpdate(letter, len(cached)))
			return &Result{Movies: cached, Source: SourceCache}, nil
		}
	}

	if a.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	acc, err := a.seed(letter)
	if err != nil {
		logger.Warn("ignoring unreadable partial progress", "error", err)
	}

	prefixes := LetterPrefixes(letter)
	batches := slices.Collect(slices.Chunk(prefixes, a.batchSize))

	for i, batch := range batches {
		pages, failed, err := fanOut(ctx, len(batch), func(ctx context.Context, j int) ([]models.Movie, error) {
			page, err := a.catalog.Search(ctx, batch[j], 1)
			if err != nil {
				return nil, err
			}
			return page.Movies, nil
		})
		if err != nil {
			return a.fallback(letter, fmt.Errorf("batch %d of %d: %w", i+1, len(batches), err))
		}
		if failed > 0 {
			logger.Debug("prefix requests failed", "batch", i+1, "failed", failed)
		}

		for _, page := range pages {
			acc = models.MergeByID(acc, startingWith(page, letter))
		}
		models.SortMovies(acc)

		if a.letters != nil {
			if err := a.letters.SavePartial(letter, acc); err != nil {
				return a.fallback(letter, fmt.Errorf("failed to save partial progress: %w", err))
			}
		}
		sendProgress(progress, letterBatchUpdate(i+1, len(batches), batch, len(acc)))
	}

	if acc == nil {
		acc = []models.Movie{}
	}
	if a.letters != nil {
		if err := a.letters.Save(letter, acc); err != nil {
			logger.Warn("failed to cache letter listing", "error", err)
		} else if err := a.letters.ClearPartial(letter); err != nil {
			logger.Warn("failed to clear partial progress", "error", err)
		}
	}
	sendProgress(progress, saveResultUpdate(letter, len(acc)))
	return &Result{Movies: acc, Source: SourceRemote}, nil
}

// seed resumes from saved partial progress.
func (a *Aggregator) seed(letter string) ([]models.Movie, error) {
	if a.letters == nil {
		return nil, nil
	}
	partial, ok, err := a.letters.Partial(letter)
	if err != nil || !ok {
		return nil, err
	}
	return startingWith(partial, letter), nil
}

// fallback returns the saved partial progress after a fatal failure.
func (a *Aggregator) fallback(letter string, cause error) (*Result, error) {
	if a.letters != nil {
		partial, ok, err := a.letters.Partial(letter)
		if err == nil && ok && len(partial) > 0 {
			a.logger.Warn("letter listing interrupted, returning partial result",
				"letter", letter, "count", len(partial), "error", cause)
			return &Result{Movies: partial, Source: SourcePartial, Partial: true}, nil
		}
	}
	return nil, fmt.Errorf("%w: letter %s: %w", shared.ErrAggregateFailed, letter, cause)
}

// startingWith keeps movies whose title begins with letter, ignoring case, deduplicated
// and sorted. The catalog's relevance search returns titles that merely contain the prefix.
func startingWith(movies []models.Movie, letter string) []models.Movie {
	var kept []models.Movie
	for _, m := range movies {
		if shared.HasPrefixFold(m.Title, letter) {
			kept = append(kept, m)
		}
	}
	kept = models.MergeByID(nil, kept)
	models.SortMovies(kept)
	return kept
}
