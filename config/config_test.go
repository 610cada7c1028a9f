package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schedule-viewer/models"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, FeedSourceFile, cfg.FeedSource)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL())
	assert.Equal(t, models.Window{Start: 480, End: 1200}, cfg.Window())
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "server_port: \"9090\"\nday_start_hour: 7\nfeed_source: http\nfeed_url: http://feed.local/events.json\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("CACHE_TTL_MINUTES", "3")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.ServerPort)
	assert.Equal(t, 7, cfg.DayStartHour)
	assert.Equal(t, FeedSourceHTTP, cfg.FeedSource)
	assert.True(t, cfg.MinIOUseSSL)
	assert.Equal(t, 3*time.Minute, cfg.CacheTTL())
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.FeedSource = "ftp"
	cfg.DayStartHour = 20
	cfg.DayEndHour = 8
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown feed source")
	assert.Contains(t, err.Error(), "invalid day window")

	cfg = Default()
	cfg.FeedSource = FeedSourceHTTP
	assert.ErrorContains(t, cfg.Validate(), "FEED_URL")
}

func TestAllowedOrigins(t *testing.T) {
	cfg := Default()
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins())
	cfg.CORSOrigins = "http://a.local, http://b.local,"
	assert.Equal(t, []string{"http://a.local", "http://b.local"}, cfg.AllowedOrigins())
}

func TestMinIORequired(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.MinIORequired())
	cfg.ExportsEnabled = true
	assert.True(t, cfg.MinIORequired())
}
