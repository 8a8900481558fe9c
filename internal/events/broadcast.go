package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
)

// BroadcastChannel names the cross-process channel list updates travel on.
const BroadcastChannel = "watch_later_channel"

const defaultRetain = 200

// BroadcastMessage is the payload stored for each broadcast.
type BroadcastMessage struct {
	Type   string `json:"type"`
	List   string `json:"list"`
	Count  int    `json:"count"`
	Origin string `json:"origin"`
}

// Broadcaster publishes [ListChanged] to other processes through the broadcast_messages
// table and lets this process poll for theirs. Messages from its own origin are skipped.
type Broadcaster struct {
	db      *sql.DB
	channel string
	origin  string
	retain  int
	logger  *log.Logger
}

// NewBroadcaster creates a [Broadcaster] with a fresh origin id.
// retain bounds how many messages are kept per channel.
func NewBroadcaster(db *sql.DB, retain int, logger *log.Logger) *Broadcaster {
	if retain <= 0 {
		retain = defaultRetain
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	origin := shared.GenerateID()
	return &Broadcaster{
		db:      db,
		channel: BroadcastChannel,
		origin:  origin,
		retain:  retain,
		logger:  shared.WithLogger(logger, "transport", "broadcast", "origin", origin[:8]),
	}
}

// Origin returns the id stamped on messages from this process.
func (b *Broadcaster) Origin() string {
	return b.origin
}

// Publish stores event on the channel and prunes old messages.
func (b *Broadcaster) Publish(ctx context.Context, event ListChanged) error {
	payload, err := json.Marshal(BroadcastMessage{
		Type:   "update",
		List:   event.List.String(),
		Count:  event.Count,
		Origin: b.origin,
	})
	if err != nil {
		return fmt.Errorf("failed to encode broadcast: %w", err)
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin broadcast transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO broadcast_messages (channel, payload, origin) VALUES (?, ?, ?)",
		b.channel, string(payload), b.origin,
	)
	if err != nil {
		return fmt.Errorf("failed to insert broadcast: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM broadcast_messages
		WHERE channel = ? AND id NOT IN (
			SELECT id FROM broadcast_messages WHERE channel = ? ORDER BY id DESC LIMIT ?
		)`, b.channel, b.channel, b.retain)
	if err != nil {
		return fmt.Errorf("failed to prune broadcasts: %w", err)
	}

	return tx.Commit()
}

// LatestID returns the id of the newest message on the channel, or 0.
func (b *Broadcaster) LatestID(ctx context.Context) (int64, error) {
	var id int64
	err := b.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(id), 0) FROM broadcast_messages WHERE channel = ?", b.channel,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to query latest broadcast: %w", err)
	}
	return id, nil
}

// Poll returns messages from other origins newer than afterID, and the id to poll from next.
func (b *Broadcaster) Poll(ctx context.Context, afterID int64) ([]ListChanged, int64, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT id, payload, origin FROM broadcast_messages
		WHERE channel = ? AND id > ?
		ORDER BY id ASC`, b.channel, afterID)
	if err != nil {
		return nil, afterID, fmt.Errorf("failed to poll broadcasts: %w", err)
	}
	defer rows.Close()

	var events []ListChanged
	next := afterID
	for rows.Next() {
		var (
			id      int64
			payload string
			origin  string
		)
		if err := rows.Scan(&id, &payload, &origin); err != nil {
			return nil, afterID, fmt.Errorf("failed to scan broadcast: %w", err)
		}
		next = id

		if origin == b.origin {
			continue
		}

		var msg BroadcastMessage
		if err := json.Unmarshal([]byte(payload), &msg); err != nil {
			b.logger.Warn("skipping malformed broadcast", "id", id, "error", err)
			continue
		}
		if msg.Type != "update" {
			continue
		}
		events = append(events, listChangedFrom(msg))
	}

	if err := rows.Err(); err != nil {
		return nil, afterID, fmt.Errorf("row iteration error: %w", err)
	}
	return events, next, nil
}

// Subscribe polls for messages published after the call until ctx is done.
// The returned channel is closed when polling stops.
func (b *Broadcaster) Subscribe(ctx context.Context, interval time.Duration) (<-chan ListChanged, error) {
	last, err := b.LatestID(ctx)
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = 500 * time.Millisecond
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

			events, next, err := b.Poll(ctx, last)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				b.logger.Debug("broadcast poll failed", "error", err)
				continue
			}
			last = next

			for _, e := range events {
				select {
				case out <- e:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// listChangedFrom treats messages without a recognised list name as watch-later
// updates, the only list older writers broadcast.
func listChangedFrom(msg BroadcastMessage) ListChanged {
	list, err := models.ParseList(msg.List)
	if err != nil {
		list = models.WatchLater
	}
	return ListChanged{List: list, Count: msg.Count}
}
