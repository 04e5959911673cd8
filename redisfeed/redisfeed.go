// Package redisfeed fans editor snapshots out over Redis pub/sub so every
// open browser tab of a diagram can redraw.
package redisfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meikuraledutech/flowboard"
)

const (
	// DefaultPrefix is prepended to the diagram id to form the channel name.
	DefaultPrefix = "flowboard:diagram:"

	// DefaultPublishTimeout bounds each publish.
	DefaultPublishTimeout = 500 * time.Millisecond
)

// Publisher is a flowboard.Observer publishing each snapshot as JSON.
type Publisher struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
	log     *slog.Logger
}

// NewPublisher creates a Publisher. An empty prefix means DefaultPrefix.
// Observers run inside the editor's dispatch, so the client should be
// created with ContextTimeoutEnabled for the publish timeout to cut
// socket reads short.
func NewPublisher(client *redis.Client, prefix string, log *slog.Logger) *Publisher {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if log == nil {
		log = slog.Default()
	}
	return &Publisher{client: client, prefix: prefix, timeout: DefaultPublishTimeout, log: log}
}

// SetTimeout changes the per publish timeout. Zero or less disables it.
func (p *Publisher) SetTimeout(d time.Duration) { p.timeout = d }

// Channel returns the channel snapshots of diagram id are published on.
func (p *Publisher) Channel(id string) string { return p.prefix + id }

// Observe publishes s. Failures are logged, never returned.
func (p *Publisher) Observe(ctx context.Context, s flowboard.Snapshot) {
	data, err := json.Marshal(s)
	if err != nil {
		p.log.ErrorContext(ctx, "encode snapshot", "diagram", s.ID, "error", err)
		return
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := p.client.Publish(ctx, p.Channel(s.ID), data).Err(); err != nil {
		p.log.WarnContext(ctx, "publish snapshot", "diagram", s.ID, "version", s.Version, "error", err)
	}
}

// Watch calls fn with every snapshot published for diagram id until ctx
// is done or fn returns an error.
func Watch(ctx context.Context, client *redis.Client, prefix, id string, fn func(flowboard.Snapshot) error) error {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	sub := client.Subscribe(ctx, prefix+id)
	defer sub.Close()

	// Wait for the subscription to be confirmed before reading.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redisfeed: subscribe: %w", err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var s flowboard.Snapshot
			if err := json.Unmarshal([]byte(msg.Payload), &s); err != nil {
				return fmt.Errorf("redisfeed: decode snapshot: %w", err)
			}
			if err := fn(s); err != nil {
				return err
			}
		}
	}
}
