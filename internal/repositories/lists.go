package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/flix/internal/events"
	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
)

const (
	// DefaultMinimumAge is the youngest age allowed to add to the watch-later list.
	DefaultMinimumAge = 16
	minBirthYear      = 1900
)

// ListStoreOpts configures a [ListStore].
type ListStoreOpts struct {
	Session    *SessionRepository
	Publisher  events.Publisher
	Logger     *log.Logger
	MinimumAge int
	Now        func() time.Time
}

// ListStore keeps the personal lists. Each list is read whole and rewritten whole on
// every mutation, and every mutation publishes the new count.
type ListStore struct {
	kv        *KVStore
	session   *SessionRepository
	publisher events.Publisher
	logger    *log.Logger
	minAge    int
	now       func() time.Time
}

// NewListStore creates a [ListStore] over kv.
func NewListStore(kv *KVStore, opts ListStoreOpts) *ListStore {
	store := &ListStore{
		kv:        kv,
		session:   opts.Session,
		publisher: opts.Publisher,
		logger:    opts.Logger,
		minAge:    opts.MinimumAge,
		now:       opts.Now,
	}
	if store.session == nil {
		store.session = NewSessionRepository(kv)
	}
	if store.publisher == nil {
		store.publisher = events.Discard
	}
	if store.logger == nil {
		store.logger = shared.NewLogger(nil)
	}
	if store.minAge <= 0 {
		store.minAge = DefaultMinimumAge
	}
	if store.now == nil {
		store.now = time.Now
	}
	return store
}

// MinimumAge returns the watch-later age threshold.
func (s *ListStore) MinimumAge() int {
	return s.minAge
}

// Load returns the items of list in stored order. A missing list is empty. A list that
// cannot be decoded fails with [shared.ErrCorruptList] so that no mutation overwrites it.
func (s *ListStore) Load(list models.List) ([]models.Movie, error) {
	if !list.Valid() {
		return nil, fmt.Errorf("%w: %q", shared.ErrUnknownList, list)
	}

	var items []models.Movie
	found, err := s.kv.GetJSON(list.StorageKey(), &items)
	if err != nil && found {
		return nil, fmt.Errorf("%w: %s: %w", shared.ErrCorruptList, list, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", list, err)
	}
	if items == nil {
		items = []models.Movie{}
	}
	return items, nil
}

// Save rewrites list with items and publishes the new count.
func (s *ListStore) Save(ctx context.Context, list models.List, items []models.Movie) error {
	if !list.Valid() {
		return fmt.Errorf("%w: %q", shared.ErrUnknownList, list)
	}
	if items == nil {
		items = []models.Movie{}
	}
	if err := s.kv.SetJSON(list.StorageKey(), items); err != nil {
		return fmt.Errorf("failed to save %s: %w", list, err)
	}

	s.publish(ctx, events.ListChanged{List: list, Count: len(items)})
	return nil
}

// Add appends item to list. It reports false, without writing, when the identifier is
// already present. Adds to the watch-later list go through the age gate with the
// recorded birth year.
func (s *ListStore) Add(ctx context.Context, list models.List, item models.Movie) (bool, error) {
	if list == models.WatchLater {
		return s.AddWatchLater(ctx, item, 0)
	}
	if err := item.Validate(); err != nil {
		return false, fmt.Errorf("validation failed: %w", err)
	}

	items, err := s.Load(list)
	if err != nil {
		return false, err
	}
	if models.IndexOf(items, item.ID) >= 0 {
		return false, nil
	}

	if err := s.Save(ctx, list, append(items, item)); err != nil {
		return false, err
	}
	return true, nil
}

// AddWatchLater adds item to the watch-later list after checking the viewer's age.
//
// A recorded birth year takes precedence over birthYear; with none on record birthYear
// must be supplied. Rejections leave every piece of state untouched. On success the
// birth year is recorded and the list is saved sorted by title.
func (s *ListStore) AddWatchLater(ctx context.Context, item models.Movie, birthYear int) (bool, error) {
	if err := item.Validate(); err != nil {
		return false, fmt.Errorf("validation failed: %w", err)
	}

	recorded, err := s.session.BirthYear()
	if err != nil {
		return false, err
	}
	year := recorded
	if year == 0 {
		year = birthYear
	}
	if err := s.CheckAge(year); err != nil {
		return false, err
	}

	items, err := s.Load(models.WatchLater)
	if err != nil {
		return false, err
	}
	if models.IndexOf(items, item.ID) >= 0 {
		return false, nil
	}

	items = append(items, item)
	models.SortMovies(items)
	if err := s.Save(ctx, models.WatchLater, items); err != nil {
		return false, err
	}

	if recorded == 0 {
		if err := s.session.SetBirthYear(year); err != nil {
			s.logger.Warn("failed to record birth year", "error", err)
		}
	}
	return true, nil
}

// CheckAge validates a birth year against the minimum age.
func (s *ListStore) CheckAge(birthYear int) error {
	if birthYear == 0 {
		return shared.ErrBirthYearRequired
	}

	current := s.now().Year()
	if birthYear < minBirthYear || birthYear > current {
		return fmt.Errorf("%w: %d", shared.ErrInvalidBirthYear, birthYear)
	}
	if age := current - birthYear; age < s.minAge {
		return fmt.Errorf("%w: age %d is below %d", shared.ErrUnderage, age, s.minAge)
	}
	return nil
}

// Remove deletes the item with id from list. It reports false when nothing matched.
func (s *ListStore) Remove(ctx context.Context, list models.List, id string) (bool, error) {
	items, err := s.Load(list)
	if err != nil {
		return false, err
	}

	i := models.IndexOf(items, id)
	if i < 0 {
		return false, nil
	}

	items = append(items[:i], items[i+1:]...)
	if err := s.Save(ctx, list, items); err != nil {
		return false, err
	}
	return true, nil
}

// Contains reports whether list holds id.
func (s *ListStore) Contains(list models.List, id string) (bool, error) {
	items, err := s.Load(list)
	if err != nil {
		return false, err
	}
	return models.IndexOf(items, id) >= 0, nil
}

// Count returns the number of items in list. An unreadable list counts as empty.
func (s *ListStore) Count(list models.List) (int, error) {
	items, err := s.Load(list)
	if errors.Is(err, shared.ErrCorruptList) {
		s.logger.Warn("counting unreadable list as empty", "list", list, "error", err)
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// Revision returns the storage revision counter.
func (s *ListStore) Revision() (int64, error) {
	return s.kv.Revision()
}

// publish notifies listeners. Failures are logged; the mutation has already succeeded.
func (s *ListStore) publish(ctx context.Context, event events.ListChanged) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("list change notification failed", "list", event.List, "count", event.Count, "error", err)
	}
}
