package repositories

import (
	"strings"

	"github.com/desertthunder/flix/internal/models"
)

const (
	letterCachePrefix = "letter_cache_"
	partialSuffix     = "_partial"
)

// LetterCache stores the exhaustive result set per starting letter, and the partial
// progress of an aggregation that has not finished yet.
type LetterCache struct {
	kv *KVStore
}

// NewLetterCache creates a new [LetterCache] over kv
func NewLetterCache(kv *KVStore) *LetterCache {
	return &LetterCache{kv: kv}
}

// LetterKey returns the storage key for letter.
func LetterKey(letter string) string {
	return letterCachePrefix + strings.ToUpper(strings.TrimSpace(letter))
}

// PartialKey returns the storage key for the partial progress of letter.
func PartialKey(letter string) string {
	return LetterKey(letter) + partialSuffix
}

// Get returns the cached result for letter.
func (c *LetterCache) Get(letter string) ([]models.Movie, bool, error) {
	return c.load(LetterKey(letter))
}

// Save caches the final result for letter.
func (c *LetterCache) Save(letter string, movies []models.Movie) error {
	return c.store(LetterKey(letter), movies)
}

// Partial returns the saved partial progress for letter.
func (c *LetterCache) Partial(letter string) ([]models.Movie, bool, error) {
	return c.load(PartialKey(letter))
}

// SavePartial records the accumulated progress for letter.
func (c *LetterCache) SavePartial(letter string, movies []models.Movie) error {
	return c.store(PartialKey(letter), movies)
}

// ClearPartial removes the partial progress for letter.
func (c *LetterCache) ClearPartial(letter string) error {
	return c.kv.Delete(PartialKey(letter))
}

// Clear removes both the final and partial entries for letter.
func (c *LetterCache) Clear(letter string) error {
	if err := c.kv.Delete(LetterKey(letter)); err != nil {
		return err
	}
	return c.ClearPartial(letter)
}

// Letters lists the letters with a final cached result.
func (c *LetterCache) Letters() ([]string, error) {
	keys, err := c.kv.Keys(letterCachePrefix)
	if err != nil {
		return nil, err
	}

	var letters []string
	for _, key := range keys {
		if strings.HasSuffix(key, partialSuffix) {
			continue
		}
		letters = append(letters, strings.TrimPrefix(key, letterCachePrefix))
	}
	return letters, nil
}

func (c *LetterCache) load(key string) ([]models.Movie, bool, error) {
	var movies []models.Movie
	ok, err := c.kv.GetJSON(key, &movies)
	if err != nil {
		return nil, false, err
	}
	return movies, ok, nil
}

func (c *LetterCache) store(key string, movies []models.Movie) error {
	if movies == nil {
		movies = []models.Movie{}
	}
	return c.kv.SetJSON(key, movies)
}
