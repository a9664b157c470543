package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/forum/internal/privilege"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, Bounds{Min: 3, Max: 20}, cfg.User.Name)
	assert.Equal(t, 300*time.Second, cfg.User.LastSeenUpdatePrecision.Duration())
	assert.Equal(t, uint64(10<<20), cfg.User.DefaultAttachmentQuota)
	assert.Equal(t, "127.0.0.1:8081", cfg.Service.Listen)
}

func TestAuthorizationDefaults(t *testing.T) {
	defaults, err := Default().AuthorizationDefaults()
	require.NoError(t, err)

	v, ok := defaults.Messages.Get(privilege.MessageView)
	assert.True(t, ok)
	assert.Equal(t, privilege.Value(1), v)

	_, ok = defaults.ForumWide.Get(privilege.ForumWideAddDiscussionTag)
	assert.False(t, ok, "moderation privileges are left undefined")

	d, ok := defaults.MessageDurations.Get(privilege.DurationChangeContent)
	assert.True(t, ok)
	assert.Equal(t, time.Hour, d)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"inverted bounds", func(c *Config) { c.Thread.Name = Bounds{Min: 10, Max: 5} }},
		{"empty user names", func(c *Config) { c.User.Name.Min = 0 }},
		{"zero page size", func(c *Config) { c.Message.MaxMessagesPerPage = 0 }},
		{"no listen address", func(c *Config) { c.Service.Listen = "" }},
		{"unknown privilege", func(c *Config) { c.Authorization.DefaultLevels["thread.fly"] = 1 }},
		{"level out of range", func(c *Config) { c.Authorization.DefaultLevels["thread.view"] = 32001 }},
		{"negative duration", func(c *Config) { c.Authorization.DefaultDurations["message.delete"] = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forum.jsonc")
	data := `{
		// only what differs from the defaults
		"discussionThread": { "name": { "min": 1, "max": 64 } },
		"service": { "listen": "0.0.0.0:9000", },
		"authorization": {
			"defaultLevels": { "forum_wide.add_discussion_tag": 1 },
			"administrators": ["root"]
		}
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	t.Chdir(t.TempDir())

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, Bounds{Min: 1, Max: 64}, cfg.Thread.Name)
	assert.Equal(t, 25, cfg.Thread.MaxThreadsPerPage, "untouched fields keep their default")
	assert.Equal(t, "0.0.0.0:9000", cfg.Service.Listen)
	assert.Equal(t, []string{"root"}, cfg.Authorization.Administrators)
	assert.Equal(t, int16(1), cfg.Authorization.DefaultLevels["forum_wide.add_discussion_tag"])
	assert.Equal(t, int16(1), cfg.Authorization.DefaultLevels["message.view"])
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.jsonc"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"FORUM_LISTEN":         ":7000",
		"FORUM_JWT_SECRET":     "s3cret",
		"FORUM_TOKEN_LIFETIME": "60",
		"FORUM_ADMINISTRATORS": "alice, bob,,",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.applyEnv(lookup))

	assert.Equal(t, ":7000", cfg.Service.Listen)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, time.Minute, cfg.Auth.TokenLifetime.Duration())
	assert.Equal(t, []string{"alice", "bob"}, cfg.Authorization.Administrators)

	env["FORUM_TOKEN_LIFETIME"] = "soon"
	assert.Error(t, cfg.applyEnv(lookup))
}
