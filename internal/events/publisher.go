// Package events publishes session lifecycle notifications on Redis pub/sub
// for sibling services (dashboards, analytics). Publishing is best-effort:
// the interview protocol never depends on it.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	TypeSessionStarted = "session_started"
	TypeSessionEnded   = "session_ended"

	// DefaultChannel is the pub/sub channel session events go out on.
	DefaultChannel = "interview:sessions"
)

// SessionEvent is the payload published for every lifecycle transition.
type SessionEvent struct {
	Type      string    `json:"type"`
	SessionID string    `json:"sessionId"`
	UserA     string    `json:"userA"`
	UserB     string    `json:"userB"`
	Status    string    `json:"status,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher emits session events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, ev SessionEvent)
}

// Noop discards events; used when Redis is not configured.
type Noop struct{}

func (Noop) Publish(context.Context, SessionEvent) {}

// RedisPublisher writes events to one pub/sub channel.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
	log     *zap.Logger
}

func NewRedisPublisher(rdb *redis.Client, channel string, log *zap.Logger) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{rdb: rdb, channel: channel, log: log}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev SessionEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		p.log.Error("marshal session event", zap.Error(err))
		return
	}
	if err := p.rdb.Publish(ctx, p.channel, data).Err(); err != nil {
		p.log.Warn("publish session event",
			zap.String("type", ev.Type),
			zap.String("sessionId", ev.SessionID),
			zap.Error(err))
	}
}
