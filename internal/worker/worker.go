package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aescanero/gerrit-link-router/internal/config"
	"github.com/aescanero/gerrit-link-router/internal/display"
	"github.com/aescanero/gerrit-link-router/internal/link"
	"github.com/aescanero/gerrit-link-router/internal/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Worker consumes history changes and routes them to screens
type Worker struct {
	id            string
	config        *config.Config
	redisClient   redis.Cmdable
	router        *router.Router
	displayer     display.Displayer
	notifier      display.Notifier
	logger        *zap.Logger
	ctx           context.Context
	cancel        context.CancelFunc
	done          chan struct{}
	streamKey     string
	consumerGroup string
	errorStream   string
}

// NewWorker creates a new worker
func NewWorker(
	cfg *config.Config,
	redisClient redis.Cmdable,
	routerInstance *router.Router,
	displayer display.Displayer,
	notifier display.Notifier,
	logger *zap.Logger,
) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	return &Worker{
		id:            cfg.WorkerID,
		config:        cfg,
		redisClient:   redisClient,
		router:        routerInstance,
		displayer:     displayer,
		notifier:      notifier,
		logger:        logger,
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
		streamKey:     cfg.StreamKey,
		consumerGroup: cfg.ConsumerGroup,
		errorStream:   cfg.ResultStream + ".errors",
	}
}

// Start starts the worker
func (w *Worker) Start() error {
	w.logger.Info("starting link router worker",
		zap.String("worker_id", w.id),
		zap.String("stream_key", w.streamKey),
		zap.String("consumer_group", w.consumerGroup),
	)

	if err := w.ensureConsumerGroup(); err != nil {
		return fmt.Errorf("failed to ensure consumer group: %w", err)
	}

	go w.processWork()

	w.logger.Info("link router worker started", zap.String("worker_id", w.id))
	return nil
}

// Stop stops the worker and waits for the message in flight, if any
func (w *Worker) Stop(ctx context.Context) error {
	w.logger.Info("stopping link router worker", zap.String("worker_id", w.id))

	w.cancel()

	select {
	case <-w.done:
	case <-ctx.Done():
		return fmt.Errorf("worker did not stop: %w", ctx.Err())
	}

	w.logger.Info("link router worker stopped", zap.String("worker_id", w.id))
	return nil
}

// ensureConsumerGroup creates the consumer group if it doesn't exist
func (w *Worker) ensureConsumerGroup() error {
	err := w.redisClient.XGroupCreateMkStream(w.ctx, w.streamKey, w.consumerGroup, "0").Err()
	if err != nil {
		if strings.HasPrefix(err.Error(), "BUSYGROUP") {
			w.logger.Debug("consumer group already exists",
				zap.String("group", w.consumerGroup),
			)
			return nil
		}
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	w.logger.Info("created consumer group",
		zap.String("group", w.consumerGroup),
		zap.String("stream", w.streamKey),
	)
	return nil
}

// processWork reads history changes until the worker is stopped
func (w *Worker) processWork() {
	defer close(w.done)
	w.logger.Info("starting work processing loop")

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Info("work processing loop stopped")
			return
		default:
			streams, err := w.redisClient.XReadGroup(w.ctx, &redis.XReadGroupArgs{
				Group:    w.consumerGroup,
				Consumer: w.id,
				Streams:  []string{w.streamKey, ">"},
				Count:    10,
				Block:    w.config.BlockTime,
			}).Result()

			if err != nil {
				if errors.Is(err, redis.Nil) || w.ctx.Err() != nil {
					continue
				}
				w.logger.Error("failed to read from stream", zap.Error(err))
				time.Sleep(time.Second)
				continue
			}

			for _, stream := range streams {
				for _, message := range stream.Messages {
					w.handleMessage(message)
				}
			}
		}
	}
}

// HistoryEvent is a browser history change
type HistoryEvent struct {
	SessionID string                 `json:"session_id"`
	Token     string                 `json:"token"`
	Session   map[string]interface{} `json:"session,omitempty"`
}

// handleMessage handles a single history change message.
// Messages are always acknowledged; routing is not retried
func (w *Worker) handleMessage(message redis.XMessage) {
	messageID := message.ID
	w.logger.Debug("processing history change", zap.String("message_id", messageID))

	event, err := parseHistoryEvent(message.Values)
	if err != nil {
		w.logger.Error("failed to parse history event",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
		w.acknowledgeMessage(messageID)
		return
	}

	if err := w.onHistoryChanged(w.ctx, event); err != nil {
		w.logger.Error("failed to process history change",
			zap.String("message_id", messageID),
			zap.String("session_id", event.SessionID),
			zap.String("token", event.Token),
			zap.Error(err),
		)
		w.publishError(event, err)
	}

	w.acknowledgeMessage(messageID)
}

// parseHistoryEvent parses a history event from a Redis message
func parseHistoryEvent(values map[string]interface{}) (*HistoryEvent, error) {
	dataStr, ok := values["data"].(string)
	if !ok {
		return nil, fmt.Errorf("missing or invalid 'data' field")
	}

	var event HistoryEvent
	if err := json.Unmarshal([]byte(dataStr), &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history event: %w", err)
	}

	return &event, nil
}

// onHistoryChanged routes the new token and shows the result
func (w *Worker) onHistoryChanged(ctx context.Context, event *HistoryEvent) error {
	decision, err := w.router.Route(ctx, &router.Request{
		SessionID: event.SessionID,
		Token:     event.Token,
		Session:   event.Session,
	})
	if err != nil {
		return err
	}

	if decision.Screen.Resolved() {
		if err := w.displayer.Display(ctx, decision); err != nil {
			return fmt.Errorf("failed to display screen: %w", err)
		}
		return nil
	}

	if err := w.notifier.Notify(ctx, decision.SessionID, decision.Notice); err != nil {
		return fmt.Errorf("failed to publish notice: %w", err)
	}
	return nil
}

// errorKind classifies err for consumers of the error stream
func errorKind(err error) string {
	if errors.Is(err, link.ErrInvalidChangeID) {
		return "invalid_change_id"
	}
	return "internal"
}

// publishError publishes an error event
func (w *Worker) publishError(event *HistoryEvent, err error) {
	errorEvent := map[string]interface{}{
		"session_id": event.SessionID,
		"token":      event.Token,
		"kind":       errorKind(err),
		"error":      err.Error(),
		"timestamp":  time.Now().UTC(),
	}

	data, marshalErr := json.Marshal(errorEvent)
	if marshalErr != nil {
		w.logger.Error("failed to marshal error event", zap.Error(marshalErr))
		return
	}

	_, publishErr := w.redisClient.XAdd(w.ctx, &redis.XAddArgs{
		Stream: w.errorStream,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()

	if publishErr != nil {
		w.logger.Error("failed to publish error event", zap.Error(publishErr))
	}
}

// acknowledgeMessage acknowledges a message from the stream
func (w *Worker) acknowledgeMessage(messageID string) {
	err := w.redisClient.XAck(w.ctx, w.streamKey, w.consumerGroup, messageID).Err()
	if err != nil {
		w.logger.Error("failed to acknowledge message",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
	}
}
