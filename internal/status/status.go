// Package status reports advisory progress to anyone watching a request.
package status

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type Stage string

const (
	StageStarted   Stage = "started"
	StageTurn      Stage = "turn"
	StageSkipped   Stage = "skipped"
	StageFailed    Stage = "failed"
	StageCompleted Stage = "completed"
	StageCancelled Stage = "cancelled"
)

// Terminal reports whether no further events follow s.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageFailed || s == StageCancelled
}

const streamPrefix = "advisory-status:"

// StreamKey is the Redis stream that carries one advisory's events.
func StreamKey(advisoryID string) string {
	return streamPrefix + advisoryID
}

type Event struct {
	AdvisoryID string
	Stage      Stage
	Agent      string
	Sequence   int
	Message    string
	At         time.Time
}

// Values flattens the event into stream fields. Empty optional fields are
// left out so readers can tell "no agent" from an empty name.
func (e Event) Values() map[string]any {
	at := e.At
	if at.IsZero() {
		at = time.Now()
	}
	values := map[string]any{
		"advisory_id": e.AdvisoryID,
		"stage":       string(e.Stage),
		"ts":          at.UTC().Format(time.RFC3339Nano),
	}
	if e.Agent != "" {
		values["agent"] = e.Agent
	}
	if e.Sequence > 0 {
		values["sequence"] = strconv.Itoa(e.Sequence)
	}
	if e.Message != "" {
		values["message"] = e.Message
	}
	return values
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop drops every event. Used when Redis is not configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

type RedisOptions struct {
	MaxLen int64
	TTL    time.Duration
}

type RedisPublisher struct {
	client redis.Cmdable
	opts   RedisOptions
	logger *slog.Logger
}

func NewRedisPublisher(client redis.Cmdable, opts RedisOptions, logger *slog.Logger) *RedisPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisPublisher{client: client, opts: opts, logger: logger}
}

// Publish appends the event and refreshes the stream TTL, so an abandoned
// advisory's stream disappears on its own.
func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	stream := StreamKey(e.AdvisoryID)

	_, err := p.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: stream,
			MaxLen: p.opts.MaxLen,
			Approx: p.opts.MaxLen > 0,
			Values: e.Values(),
		})
		if p.opts.TTL > 0 {
			pipe.Expire(ctx, stream, p.opts.TTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish status %s: %w", e.Stage, err)
	}

	p.logger.DebugContext(ctx, "published advisory status", "stream", stream, "stage", e.Stage, "agent", e.Agent, "sequence", e.Sequence)
	return nil
}
