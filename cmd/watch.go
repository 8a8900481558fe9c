package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/flix/internal/events"
	"github.com/desertthunder/flix/internal/models"
)

// Watch prints list-change notifications until interrupted.
//
// Broadcasts from other processes and revision changes seen by the watcher are merged,
// so writes that were never broadcast still show up.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(ctx); err != nil {
		return err
	}

	interval := cmd.Duration("interval")
	if interval <= 0 {
		interval = r.config.Events.PollInterval()
	}

	changes, err := r.changes(ctx, interval)
	if err != nil {
		return err
	}

	useJSON := cmd.Bool("json")
	r.logger.Info("watching lists", "interval", interval)

	// the broadcast and the watcher both report a remote write
	last := map[models.List]int{}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-changes:
			if !ok {
				return nil
			}
			if n, seen := last[event.List]; seen && n == event.Count {
				continue
			}
			last[event.List] = event.Count
			if useJSON {
				if err := r.writeJSON(event, false); err != nil {
					return err
				}
				continue
			}
			r.writePlain("%s  %s\n", time.Now().Format(time.TimeOnly), event)
		}
	}
}

// changes merges every list-change transport: the in-process bus, the cross-process
// broadcast table and the storage revision watcher.
func (r *Runner) changes(ctx context.Context, interval time.Duration) (<-chan events.ListChanged, error) {
	local, cancel := r.bus.Subscribe(16)
	go func() {
		<-ctx.Done()
		cancel()
	}()

	remote, err := r.broadcaster.Subscribe(ctx, interval)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to subscribe to broadcasts: %w", err)
	}

	watcher := events.NewWatcher(r.lists, r.lists, r.logger)
	return events.Merge(ctx, local, remote, watcher.Watch(ctx, interval)), nil
}
