package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_Defaults(t *testing.T) {
	for _, k := range []string{
		"APP_ENV", "DB_DRIVER", "DB_DSN", "MYSQL_DSN", "MATCH_LOCATION_MODE", "MATCH_GENDER_POLICY",
		"MATCH_REQUIRE_PHOTO", "MATCH_BATCH_SIZE", "MATCH_STORAGE_RETRIES", "LOCK_TTL", "EVENTS_SINK",
		"KAFKA_BROKERS", "SESSION_TTL", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME",
	} {
		t.Setenv(k, "")
	}

	cfg := New()

	assert.Equal(t, "production", cfg.App.ENV)
	assert.Equal(t, "mysql", cfg.DB.Driver)
	assert.Equal(t, "root:root@tcp(localhost:3306)/leomatch?parseTime=true&charset=utf8mb4&loc=UTC", cfg.DB.DSN)
	assert.Equal(t, "city", cfg.Match.LocationMode)
	assert.Equal(t, "bidirectional", cfg.Match.GenderPolicy)
	assert.True(t, cfg.Match.RequirePhoto)
	assert.Equal(t, 20, cfg.Match.BatchSize)
	assert.Equal(t, 3, cfg.Match.StorageRetries)
	assert.Equal(t, 5*time.Second, cfg.Lock.TTL)
	assert.Equal(t, "redis", cfg.Events.Sink)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Events.Brokers)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
}

func TestNew_Overrides(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DB_HOST", "pg")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("MATCH_LOCATION_MODE", "COUNTRY")
	t.Setenv("MATCH_GENDER_POLICY", "one_way")
	t.Setenv("MATCH_REQUIRE_PHOTO", "no")
	t.Setenv("MATCH_BATCH_SIZE", "5")
	t.Setenv("MATCH_PREMIUM_GENDER_FILTER", "yes")
	t.Setenv("LOCK_TTL", "750ms")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")

	cfg := New()

	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Contains(t, cfg.DB.DSN, "host=pg")
	assert.Contains(t, cfg.DB.DSN, "port=6543")
	assert.Equal(t, "country", cfg.Match.LocationMode)
	assert.Equal(t, "one_way", cfg.Match.GenderPolicy)
	assert.False(t, cfg.Match.RequirePhoto)
	assert.Equal(t, 5, cfg.Match.BatchSize)
	assert.True(t, cfg.Match.PremiumGenderFilter)
	assert.Equal(t, 750*time.Millisecond, cfg.Lock.TTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.Brokers)
}

func TestNew_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("MATCH_BATCH_SIZE", "lots")
	t.Setenv("LOCK_WAIT", "soon")

	cfg := New()

	assert.Equal(t, 20, cfg.Match.BatchSize)
	assert.Equal(t, 2*time.Second, cfg.Lock.Wait)
}

func TestIsTruthy(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", " on ", "y"} {
		assert.True(t, isTruthy(v), v)
	}
	for _, v := range []string{"", "0", "false", "off", "maybe"} {
		assert.False(t, isTruthy(v), v)
	}
}
