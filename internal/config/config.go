package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LogConfig groups logger settings so callers and tests can build them directly.
type LogConfig struct {
	Level     string
	Format    string
	Component string
	Source    bool
}

type Config struct {
	App struct {
		ENV string
	}

	Log LogConfig

	DB struct {
		Driver   string // mysql | postgres | sqlite
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		LogLevel string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	GRPC struct {
		Host string
		Port string
	}

	HTTP struct {
		Addr string
	}

	Match struct {
		LocationMode        string // city | country | city_country
		GenderPolicy        string // bidirectional | one_way
		RequirePhoto        bool
		BatchSize           int
		StorageRetries      int
		PremiumGenderFilter bool
	}

	Lock struct {
		TTL  time.Duration
		Wait time.Duration
	}

	Events struct {
		Sink    string // none | redis | kafka
		Brokers []string
		Topic   string
		Channel string
	}

	Session struct {
		TTL time.Duration
	}

	Admin struct {
		TokenHash string
	}
}

func New() *Config {
	cfg := &Config{}

	cfg.App.ENV = getEnvDefault("APP_ENV", "production")

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "leomatch")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.Driver = strings.ToLower(getEnvDefault("DB_DRIVER", "mysql"))
	cfg.DB.LogLevel = getEnvDefault("DB_LOG_LEVEL", "warn")
	cfg.DB.DSN = os.Getenv("DB_DSN")
	if cfg.DB.DSN == "" && cfg.DB.Driver == "mysql" {
		cfg.DB.DSN = os.Getenv("MYSQL_DSN")
	}
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "leomatch")

		switch cfg.DB.Driver {
		case "postgres":
			cfg.DB.Port = getEnvDefault("DB_PORT", "5432")
			cfg.DB.DSN = fmt.Sprintf(
				"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
				cfg.DB.Host, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.Port,
			)
		case "sqlite":
			cfg.DB.DSN = getEnvDefault("SQLITE_PATH", "leomatch.db")
		default:
			cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
			cfg.DB.DSN = fmt.Sprintf(
				"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
				cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
			)
		}
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	// gRPC
	cfg.GRPC.Host = getEnvDefault("GRPC_HOST", "127.0.0.1")
	cfg.GRPC.Port = getEnvDefault("GRPC_PORT", "50051")

	// Ops HTTP (health + metrics)
	cfg.HTTP.Addr = getEnvDefault("HTTP_ADDR", ":9090")

	// Matching
	cfg.Match.LocationMode = strings.ToLower(getEnvDefault("MATCH_LOCATION_MODE", "city"))
	cfg.Match.GenderPolicy = strings.ToLower(getEnvDefault("MATCH_GENDER_POLICY", "bidirectional"))
	cfg.Match.RequirePhoto = isTruthy(getEnvDefault("MATCH_REQUIRE_PHOTO", "true"))
	cfg.Match.BatchSize = getEnvInt("MATCH_BATCH_SIZE", 20)
	cfg.Match.StorageRetries = getEnvInt("MATCH_STORAGE_RETRIES", 3)
	cfg.Match.PremiumGenderFilter = isTruthy(os.Getenv("MATCH_PREMIUM_GENDER_FILTER"))

	// Locks
	cfg.Lock.TTL = getEnvDuration("LOCK_TTL", 5*time.Second)
	cfg.Lock.Wait = getEnvDuration("LOCK_WAIT", 2*time.Second)

	// Events
	cfg.Events.Sink = strings.ToLower(getEnvDefault("EVENTS_SINK", "redis"))
	cfg.Events.Brokers = splitList(getEnvDefault("KAFKA_BROKERS", "localhost:9092"))
	cfg.Events.Topic = getEnvDefault("KAFKA_TOPIC", "leomatch.events")
	cfg.Events.Channel = getEnvDefault("EVENTS_CHANNEL", "leomatch:events")

	// Conversation sessions
	cfg.Session.TTL = getEnvDuration("SESSION_TTL", 24*time.Hour)

	// Admin
	cfg.Admin.TokenHash = os.Getenv("ADMIN_TOKEN_HASH")

	return cfg
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v, err := strconv.Atoi(getEnvDefault(k, "")); err == nil {
		return v
	}
	return def
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnvDefault(k, "")); err == nil {
		return v
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
