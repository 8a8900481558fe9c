// Package events publishes list-changed notifications so every open view of a
// personal list sees the new count.
//
// A mutation publishes one [ListChanged] through a single [Publisher]. The
// transports behind it are best-effort:
//   - [Bus] : in-process subscribers (the "watchlater:update" event)
//   - [Broadcaster] : other flix processes sharing the database ("watch_later_channel")
//   - [Watcher] : storage revision polling, the fallback when nothing was broadcast
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/desertthunder/flix/internal/models"
)

// ListChanged carries the new size of a personal list.
type ListChanged struct {
	List  models.List `json:"list"`
	Count int         `json:"count"`
}

func (e ListChanged) String() string {
	return fmt.Sprintf("%s: %d", e.List, e.Count)
}

// Publisher delivers a [ListChanged] notification.
type Publisher interface {
	Publish(ctx context.Context, event ListChanged) error
}

// PublisherFunc adapts a function to [Publisher].
type PublisherFunc func(ctx context.Context, event ListChanged) error

// Publish calls f.
func (f PublisherFunc) Publish(ctx context.Context, event ListChanged) error {
	return f(ctx, event)
}

// Fanout publishes to every transport. A failing transport does not stop the others;
// their errors are joined.
type Fanout []Publisher

// Publish delivers event to each transport in order.
func (f Fanout) Publish(ctx context.Context, event ListChanged) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard is a [Publisher] that drops every notification.
var Discard Publisher = PublisherFunc(func(context.Context, ListChanged) error { return nil })

// Merge forwards every notification from sources onto one channel, which is closed once
// all sources are closed or ctx is done. Nil sources are ignored.
func Merge(ctx context.Context, sources ...<-chan ListChanged) <-chan ListChanged {
	out := make(chan ListChanged)

	var wg sync.WaitGroup
	for _, src := range sources {
		if src == nil {
			continue
		}
		wg.Add(1)
		go func(src <-chan ListChanged) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case e, ok := <-src:
					if !ok {
						return
					}
					select {
					case out <- e:
					case <-ctx.Done():
						return
					}
				}
			}
		}(src)
	}

	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}
