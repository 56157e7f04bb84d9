package display

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aescanero/gerrit-link-router/internal/link"
	"github.com/aescanero/gerrit-link-router/internal/router"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeRedis records the commands RedisDisplay issues. Commands it does not
// override panic through the nil embedded interface.
type fakeRedis struct {
	redis.Cmdable

	streams map[string][]string
	keys    map[string]string
	ttls    map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		streams: make(map[string][]string),
		keys:    make(map[string]string),
		ttls:    make(map[string]time.Duration),
	}
}

func (f *fakeRedis) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	values := a.Values.(map[string]interface{})
	f.streams[a.Stream] = append(f.streams[a.Stream], values["data"].(string))
	cmd := redis.NewStringCmd(ctx)
	cmd.SetVal("1-0")
	return cmd
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.keys[key] = string(value.([]byte))
	f.ttls[key] = expiration
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	v, ok := f.keys[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(v)
	return cmd
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	var n int64
	for _, k := range keys {
		if _, ok := f.keys[k]; ok {
			delete(f.keys, k)
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func TestDisplay(t *testing.T) {
	fake := newFakeRedis()
	d := NewRedisDisplay(fake, "screen.display", "screen.notice", time.Hour, zap.NewNop())
	ctx := context.Background()

	err := d.Display(ctx, &router.Decision{
		SessionID: "s-1",
		Token:     "change,42",
		Screen:    link.ChangeScreen(42),
		Target:    "change,42",
		Endpoint:  "https://review.example.com/rpc/ChangeListService",
		PathTaken: router.PathDirect,
	})
	require.NoError(t, err)

	require.Len(t, fake.streams["screen.display"], 1)
	var event DisplayEvent
	require.NoError(t, json.Unmarshal([]byte(fake.streams["screen.display"][0]), &event))
	assert.Equal(t, "s-1", event.SessionID)
	assert.Equal(t, link.ChangeScreen(42), event.Screen)
	assert.Equal(t, "https://review.example.com/rpc/ChangeListService", event.Endpoint)
	assert.Equal(t, time.Hour, fake.ttls["linkrouter:session:s-1"])

	current, err := d.Current(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, link.ChangeScreen(42), current)

	require.NoError(t, d.Forget(ctx, "s-1"))
	_, err = d.Current(ctx, "s-1")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestDisplayRejectsUnresolved(t *testing.T) {
	fake := newFakeRedis()
	d := NewRedisDisplay(fake, "screen.display", "screen.notice", time.Hour, zap.NewNop())

	err := d.Display(context.Background(), &router.Decision{Token: "all"})
	require.Error(t, err)
	assert.Empty(t, fake.streams)
}

func TestDisplayWithoutSession(t *testing.T) {
	fake := newFakeRedis()
	d := NewRedisDisplay(fake, "screen.display", "screen.notice", time.Hour, zap.NewNop())

	err := d.Display(context.Background(), &router.Decision{Token: "mine", Screen: link.MineScreen()})
	require.NoError(t, err)
	assert.Len(t, fake.streams["screen.display"], 1)
	assert.Empty(t, fake.keys)
}

func TestNotify(t *testing.T) {
	fake := newFakeRedis()
	d := NewRedisDisplay(fake, "screen.display", "screen.notice", time.Hour, zap.NewNop())

	require.NoError(t, d.Notify(context.Background(), "s-2", `Page "all" was not found.`))

	require.Len(t, fake.streams["screen.notice"], 1)
	var event NoticeEvent
	require.NoError(t, json.Unmarshal([]byte(fake.streams["screen.notice"][0]), &event))
	assert.Equal(t, "s-2", event.SessionID)
	assert.Equal(t, `Page "all" was not found.`, event.Notice)
}
