package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aescanero/gerrit-link-router/internal/changes"
	"github.com/aescanero/gerrit-link-router/internal/config"
	"github.com/aescanero/gerrit-link-router/internal/link"
	"github.com/aescanero/gerrit-link-router/internal/router"
	"github.com/aescanero/gerrit-link-router/internal/testsuite/change"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeRedis implements the stream commands the worker issues. Anything else
// panics through the nil embedded interface.
type fakeRedis struct {
	redis.Cmdable

	mu       sync.Mutex
	streams  map[string][]string
	queued   []redis.XStream
	acked    []string
	groupErr error
	pingErr  error
}

// queue makes the next XReadGroup call return msgs on stream
func (f *fakeRedis) queue(stream string, msgs ...redis.XMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queued = append(f.queued, redis.XStream{Stream: stream, Messages: msgs})
}

func (f *fakeRedis) ackedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.acked...)
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{streams: make(map[string][]string)}
}

func (f *fakeRedis) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	values := a.Values.(map[string]interface{})
	f.streams[a.Stream] = append(f.streams[a.Stream], values["data"].(string))
	cmd := redis.NewStringCmd(ctx)
	cmd.SetVal("1-0")
	return cmd
}

func (f *fakeRedis) XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, ids...)
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(int64(len(ids)))
	return cmd
}

func (f *fakeRedis) XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if f.groupErr != nil {
		cmd.SetErr(f.groupErr)
		return cmd
	}
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedis) XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd {
	cmd := redis.NewXStreamSliceCmd(ctx)

	f.mu.Lock()
	queued := f.queued
	f.queued = nil
	f.mu.Unlock()
	if len(queued) > 0 {
		cmd.SetVal(queued)
		return cmd
	}

	select {
	case <-ctx.Done():
		cmd.SetErr(ctx.Err())
	case <-time.After(a.Block):
		cmd.SetErr(redis.Nil)
	}
	return cmd
}

func (f *fakeRedis) Ping(ctx context.Context) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if f.pingErr != nil {
		cmd.SetErr(f.pingErr)
		return cmd
	}
	cmd.SetVal("PONG")
	return cmd
}

type recordingDisplay struct {
	mu        sync.Mutex
	displayed []*router.Decision
	notices   []string
	err       error
}

func (d *recordingDisplay) screens() []link.Screen {
	d.mu.Lock()
	defer d.mu.Unlock()
	var screens []link.Screen
	for _, decision := range d.displayed {
		screens = append(screens, decision.Screen)
	}
	return screens
}

func (d *recordingDisplay) Display(ctx context.Context, decision *router.Decision) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.displayed = append(d.displayed, decision)
	return nil
}

func (d *recordingDisplay) Notify(ctx context.Context, sessionID, notice string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.notices = append(d.notices, notice)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		WorkerID:      "test-worker",
		StreamKey:     "history.changed",
		ConsumerGroup: "link-routers",
		ResultStream:  "screen.display",
		NoticeStream:  "screen.notice",
		BlockTime:     10 * time.Millisecond,
	}
}

func newTestRouter(t *testing.T) *router.Router {
	t.Helper()
	services, err := changes.NewServices("https://review.example.com/")
	require.NoError(t, err)
	r, err := router.NewRouter(services, router.Config{}, zap.NewNop())
	require.NoError(t, err)
	return r
}

func historyMessage(t *testing.T, id string, event HistoryEvent) redis.XMessage {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return redis.XMessage{ID: id, Values: map[string]interface{}{"data": string(data)}}
}

func TestHandleMessageDisplaysScreen(t *testing.T) {
	fake := newFakeRedis()
	disp := &recordingDisplay{}
	w := NewWorker(testConfig(), fake, newTestRouter(t), disp, disp, zap.NewNop())

	ops := change.NewOperations()
	id, err := ops.NewChange().Create()
	require.NoError(t, err)

	w.handleMessage(historyMessage(t, "1-0", HistoryEvent{SessionID: "s-1", Token: ops.Change(id).Token()}))

	require.Len(t, disp.displayed, 1)
	assert.Equal(t, link.ChangeScreen(id), disp.displayed[0].Screen)
	assert.Equal(t, "https://review.example.com/rpc/ChangeListService", disp.displayed[0].Endpoint)
	assert.Empty(t, disp.notices)
	assert.Equal(t, []string{"1-0"}, fake.acked)
}

func TestHandleMessageNotice(t *testing.T) {
	fake := newFakeRedis()
	disp := &recordingDisplay{}
	w := NewWorker(testConfig(), fake, newTestRouter(t), disp, disp, zap.NewNop())

	w.handleMessage(historyMessage(t, "2-0", HistoryEvent{SessionID: "s-1", Token: link.AdminGroups}))

	assert.Empty(t, disp.displayed)
	assert.Equal(t, []string{`Page "admin,groups" was not found.`}, disp.notices)
	assert.Equal(t, []string{"2-0"}, fake.acked)
}

func TestHandleMessageInvalidChangeID(t *testing.T) {
	fake := newFakeRedis()
	disp := &recordingDisplay{}
	w := NewWorker(testConfig(), fake, newTestRouter(t), disp, disp, zap.NewNop())

	w.handleMessage(historyMessage(t, "3-0", HistoryEvent{SessionID: "s-1", Token: "change,99999999999999999999"}))

	assert.Empty(t, disp.displayed)
	assert.Empty(t, disp.notices)
	require.Len(t, fake.streams["screen.display.errors"], 1)

	var event map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(fake.streams["screen.display.errors"][0]), &event))
	assert.Equal(t, "invalid_change_id", event["kind"])
	assert.Equal(t, "s-1", event["session_id"])
	assert.Equal(t, []string{"3-0"}, fake.acked)
}

func TestHandleMessageDisplayFailure(t *testing.T) {
	fake := newFakeRedis()
	disp := &recordingDisplay{err: errors.New("redis down")}
	w := NewWorker(testConfig(), fake, newTestRouter(t), disp, disp, zap.NewNop())

	w.handleMessage(historyMessage(t, "4-0", HistoryEvent{Token: "mine"}))

	require.Len(t, fake.streams["screen.display.errors"], 1)
	var event map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(fake.streams["screen.display.errors"][0]), &event))
	assert.Equal(t, "internal", event["kind"])
	assert.Equal(t, []string{"4-0"}, fake.acked)
}

func TestHandleMessageMalformed(t *testing.T) {
	fake := newFakeRedis()
	disp := &recordingDisplay{}
	w := NewWorker(testConfig(), fake, newTestRouter(t), disp, disp, zap.NewNop())

	w.handleMessage(redis.XMessage{ID: "5-0", Values: map[string]interface{}{"data": "{"}})
	w.handleMessage(redis.XMessage{ID: "6-0", Values: map[string]interface{}{}})

	assert.Empty(t, disp.displayed)
	assert.Empty(t, fake.streams)
	assert.Equal(t, []string{"5-0", "6-0"}, fake.acked)
}

func TestStartStop(t *testing.T) {
	fake := newFakeRedis()
	disp := &recordingDisplay{}
	w := NewWorker(testConfig(), fake, newTestRouter(t), disp, disp, zap.NewNop())

	fake.queue("history.changed",
		historyMessage(t, "7-0", HistoryEvent{SessionID: "s-1", Token: "mine,starred"}),
		historyMessage(t, "8-0", HistoryEvent{SessionID: "s-1", Token: "change,12"}),
	)

	require.NoError(t, w.Start())

	require.Eventually(t, func() bool {
		return len(fake.ackedIDs()) == 2
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"7-0", "8-0"}, fake.ackedIDs())
	assert.Equal(t, []link.Screen{link.MineStarredScreen(), link.ChangeScreen(12)}, disp.screens())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, w.Stop(ctx))
}

func TestStartExistingGroup(t *testing.T) {
	fake := newFakeRedis()
	fake.groupErr = errors.New("BUSYGROUP Consumer Group name already exists")
	disp := &recordingDisplay{}
	w := NewWorker(testConfig(), fake, newTestRouter(t), disp, disp, zap.NewNop())

	require.NoError(t, w.ensureConsumerGroup())

	fake.groupErr = errors.New("WRONGTYPE")
	assert.Error(t, w.ensureConsumerGroup())
}
