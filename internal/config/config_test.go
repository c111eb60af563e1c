package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SENTRIX_CONFIG", "")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("MONGODB_URI", "")
	t.Setenv("EVENT_BUS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.HTTPAddr)
	assert.Equal(t, BackendFile, cfg.StorageBackend)
	assert.Equal(t, BusNone, cfg.EventBus)
	assert.Equal(t, 4, cfg.AlertThreshold)
	assert.Equal(t, 30*time.Minute, cfg.AlertCooldown)
}

func TestLoadMongoURISelectsMongo(t *testing.T) {
	t.Setenv("SENTRIX_CONFIG", "")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("MONGODB_URI", "mongodb://mongo:27017")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendMongo, cfg.StorageBackend)
	assert.Equal(t, "mongodb://mongo:27017", cfg.MongoURI)

	t.Setenv("STORAGE_BACKEND", "file")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, BackendFile, cfg.StorageBackend)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sentrix.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_addr: ":9000"
storage_backend: mongo
mongodb_uri: mongodb://db:27017
event_bus: nats
news_cache_ttl: 5m
kafka_brokers: [a:9092, b:9092]
alert_threshold: 5
`), 0o644))

	t.Setenv("SENTRIX_CONFIG", path)
	t.Setenv("HTTP_ADDR", ":9100")
	t.Setenv("KAFKA_BROKERS", " k1:9092 , ,k2:9092")
	t.Setenv("ALERT_COOLDOWN_MINUTES", "0")
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("NEWSDATA_API_KEY", "your-newsdata-key")
	t.Setenv("GNEWS_API_KEY", "real-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.HTTPAddr)
	assert.Equal(t, BackendMongo, cfg.StorageBackend)
	assert.Equal(t, "mongodb://db:27017", cfg.MongoURI)
	assert.Equal(t, BusNATS, cfg.EventBus)
	assert.Equal(t, 5*time.Minute, cfg.NewsCacheTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 5, cfg.AlertThreshold)
	assert.Zero(t, cfg.AlertCooldown)
	assert.True(t, cfg.TracingEnabled)
	assert.Empty(t, cfg.NewsDataAPIKey)
	assert.Equal(t, "real-key", cfg.GNewsAPIKey)
}

func TestLoadRejectsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http_addr: [unterminated"), 0o644))
	t.Setenv("SENTRIX_CONFIG", path)

	_, err := Load()
	assert.ErrorContains(t, err, "parse config file")

	t.Setenv("SENTRIX_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = Load()
	assert.ErrorContains(t, err, "read config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "postgres", mutate: func(c *Config) { c.StorageBackend = BackendPostgres }},
		{name: "unknown backend", mutate: func(c *Config) { c.StorageBackend = "sqlite" }, wantErr: "storage_backend"},
		{name: "unknown bus", mutate: func(c *Config) { c.EventBus = "rabbit" }, wantErr: "event_bus"},
		{name: "kafka without brokers", mutate: func(c *Config) { c.EventBus = BusKafka; c.KafkaBrokers = nil }, wantErr: "kafka_brokers"},
		{name: "threshold too low", mutate: func(c *Config) { c.AlertThreshold = 0 }, wantErr: "alert_threshold"},
		{name: "threshold too high", mutate: func(c *Config) { c.AlertThreshold = 6 }, wantErr: "alert_threshold"},
		{name: "negative cooldown", mutate: func(c *Config) { c.AlertCooldown = -time.Minute }, wantErr: "alert_cooldown"},
		{name: "empty addr", mutate: func(c *Config) { c.HTTPAddr = "" }, wantErr: "http_addr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestEnvHelpersIgnoreGarbage(t *testing.T) {
	t.Setenv("X_INT", "nope")
	t.Setenv("X_BOOL", "maybe")
	t.Setenv("X_DUR", "soon")
	assert.Equal(t, 7, getEnvInt("X_INT", 7))
	assert.True(t, getEnvBool("X_BOOL", true))
	assert.Equal(t, time.Second, getEnvDuration("X_DUR", time.Second))
}
