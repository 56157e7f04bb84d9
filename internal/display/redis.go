package display

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aescanero/gerrit-link-router/internal/link"
	"github.com/aescanero/gerrit-link-router/internal/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const sessionKeyPrefix = "linkrouter:session:"

// ErrNoSession is returned by Current when no screen was displayed for a session
var ErrNoSession = errors.New("no screen displayed for session")

// RedisDisplay publishes display and notice events to Redis Streams and
// remembers the current screen of each session
type RedisDisplay struct {
	client        redis.Cmdable
	logger        *zap.Logger
	displayStream string
	noticeStream  string
	sessionTTL    time.Duration
}

// NewRedisDisplay creates a new Redis display
func NewRedisDisplay(client redis.Cmdable, displayStream, noticeStream string, sessionTTL time.Duration, logger *zap.Logger) *RedisDisplay {
	return &RedisDisplay{
		client:        client,
		logger:        logger,
		displayStream: displayStream,
		noticeStream:  noticeStream,
		sessionTTL:    sessionTTL,
	}
}

// DisplayEvent is the payload appended to the display stream
type DisplayEvent struct {
	SessionID string      `json:"session_id"`
	Token     string      `json:"token"`
	Screen    link.Screen `json:"screen"`
	Target    string      `json:"target"`
	Endpoint  string      `json:"endpoint"`
	PathTaken string      `json:"path_taken"`
	Timestamp time.Time   `json:"timestamp"`
}

// NoticeEvent is the payload appended to the notice stream
type NoticeEvent struct {
	SessionID string    `json:"session_id"`
	Notice    string    `json:"notice"`
	Timestamp time.Time `json:"timestamp"`
}

// Display publishes decision to the display stream and records it as the
// session's current screen
func (d *RedisDisplay) Display(ctx context.Context, decision *router.Decision) error {
	if !decision.Screen.Resolved() {
		return fmt.Errorf("cannot display unresolved screen for token %q", decision.Token)
	}

	event := DisplayEvent{
		SessionID: decision.SessionID,
		Token:     decision.Token,
		Screen:    decision.Screen,
		Target:    decision.Target,
		Endpoint:  decision.Endpoint,
		PathTaken: decision.PathTaken,
		Timestamp: time.Now().UTC(),
	}

	if err := d.publish(ctx, d.displayStream, event); err != nil {
		return err
	}

	if decision.SessionID != "" {
		data, err := json.Marshal(decision.Screen)
		if err != nil {
			return fmt.Errorf("failed to marshal screen: %w", err)
		}
		if err := d.client.Set(ctx, sessionKeyPrefix+decision.SessionID, data, d.sessionTTL).Err(); err != nil {
			return fmt.Errorf("failed to save session screen: %w", err)
		}
	}

	d.logger.Info("displayed screen",
		zap.String("session_id", decision.SessionID),
		zap.Stringer("screen", decision.Screen),
	)
	return nil
}

// Notify publishes notice to the notice stream
func (d *RedisDisplay) Notify(ctx context.Context, sessionID, notice string) error {
	event := NoticeEvent{
		SessionID: sessionID,
		Notice:    notice,
		Timestamp: time.Now().UTC(),
	}

	if err := d.publish(ctx, d.noticeStream, event); err != nil {
		return err
	}

	d.logger.Info("published notice",
		zap.String("session_id", sessionID),
		zap.String("notice", notice),
	)
	return nil
}

// Current returns the last screen displayed to a session
func (d *RedisDisplay) Current(ctx context.Context, sessionID string) (link.Screen, error) {
	data, err := d.client.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return link.Screen{}, fmt.Errorf("%w: %s", ErrNoSession, sessionID)
		}
		return link.Screen{}, fmt.Errorf("failed to load session screen: %w", err)
	}

	var screen link.Screen
	if err := json.Unmarshal([]byte(data), &screen); err != nil {
		return link.Screen{}, fmt.Errorf("failed to unmarshal session screen: %w", err)
	}
	return screen, nil
}

// Forget deletes the remembered screen of a session
func (d *RedisDisplay) Forget(ctx context.Context, sessionID string) error {
	if err := d.client.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to delete session screen: %w", err)
	}
	return nil
}

// publish appends event as JSON to stream
func (d *RedisDisplay) publish(ctx context.Context, stream string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = d.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", stream, err)
	}

	return nil
}
