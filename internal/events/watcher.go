package events

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
)

// RevisionSource reports the storage revision counter.
type RevisionSource interface {
	Revision() (int64, error)
}

// Counter reports the size of a personal list.
type Counter interface {
	Count(list models.List) (int, error)
}

// Watcher turns storage revision changes into [ListChanged] notifications for the
// watched lists. It catches writes that were never broadcast.
type Watcher struct {
	revisions RevisionSource
	counter   Counter
	lists     []models.List
	last      int64
	primed    bool
	logger    *log.Logger
}

// NewWatcher creates a [Watcher] for lists. With no lists it watches all of them.
func NewWatcher(revisions RevisionSource, counter Counter, logger *log.Logger, lists ...models.List) *Watcher {
	if len(lists) == 0 {
		lists = models.Lists()
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Watcher{
		revisions: revisions,
		counter:   counter,
		lists:     lists,
		logger:    shared.WithLogger(logger, "transport", "watcher"),
	}
}

// Check compares the revision with the last one seen and, if it moved, recounts the
// watched lists. The first call only records the revision.
func (w *Watcher) Check() ([]ListChanged, error) {
	rev, err := w.revisions.Revision()
	if err != nil {
		return nil, err
	}

	if !w.primed {
		w.primed = true
		w.last = rev
		return nil, nil
	}
	if rev == w.last {
		return nil, nil
	}
	w.last = rev

	events := make([]ListChanged, 0, len(w.lists))
	for _, list := range w.lists {
		count, err := w.counter.Count(list)
		if err != nil {
			return nil, err
		}
		events = append(events, ListChanged{List: list, Count: count})
	}
	return events, nil
}

// Watch polls until ctx is done. The returned channel is closed when polling stops.
func (w *Watcher) Watch(ctx context.Context, interval time.Duration) <-chan ListChanged {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	if _, err := w.Check(); err != nil {
		w.logger.Debug("initial revision check failed", "error", err)
	}

	out := make(chan ListChanged, 16)
	go func() {
		defer close(out)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			events, err := w.Check()
			if err != nil {
				w.logger.Debug("revision check failed", "error", err)
				continue
			}
			for _, e := range events {
				select {
				case out <- e:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
