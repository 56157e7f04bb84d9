package config

import (
	"testing"

	"github.com/aescanero/gerrit-link-router/internal/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "link-router-1", cfg.WorkerID)
	assert.Equal(t, "history.changed", cfg.StreamKey)
	assert.Equal(t, "screen.display", cfg.ResultStream)
	assert.Equal(t, "screen.notice", cfg.NoticeStream)
	assert.Equal(t, "notice", cfg.NotFoundPolicy)
	assert.Equal(t, 8082, cfg.HealthPort)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("REDIS_PASS", "hunter2")
	t.Setenv("NOT_FOUND_POLICY", "redirect")
	t.Setenv("REDIRECT_TOKEN", "mine,starred")
	t.Setenv("REWRITE_RULES", `[{"condition": "token == 'starred'", "target": "mine,starred"}]`)
	t.Setenv("MODULE_BASE_URL", "https://review.example.com/")

	cfg, err := Load()
	require.NoError(t, err)

	rc, err := cfg.RouterConfig()
	require.NoError(t, err)
	assert.Equal(t, router.PolicyRedirect, rc.NotFound)
	assert.Equal(t, "mine,starred", rc.RedirectToken)
	assert.Equal(t, []router.Rule{{Condition: "token == 'starred'", Target: "mine,starred"}}, rc.Rules)

	assert.NotContains(t, cfg.String(), "hunter2")
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "bad policy", env: map[string]string{"NOT_FOUND_POLICY": "ignore"}},
		{name: "bad rules", env: map[string]string{"REWRITE_RULES": "{"}},
		{name: "bad port", env: map[string]string{"HEALTH_PORT": "70000"}},
		{name: "bad log level", env: map[string]string{"LOG_LEVEL": "trace"}},
		{name: "bad block time", env: map[string]string{"BLOCK_TIME": "0s"}},
		{name: "negative session ttl", env: map[string]string{"SESSION_TTL": "-1s"}},
		{name: "bad redis db", env: map[string]string{"REDIS_DB": "zero"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidateRedirectRequiresToken(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.NotFoundPolicy = "redirect"
	cfg.RedirectToken = ""
	assert.Error(t, cfg.Validate())
}
