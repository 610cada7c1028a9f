package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"schedule-viewer/models"
)

// Источники фида
const (
	FeedSourceFile  = "file"
	FeedSourceHTTP  = "http"
	FeedSourceMinIO = "minio"
)

type Config struct {
	ServerPort  string `koanf:"server_port"`
	Environment string `koanf:"environment"`
	LogLevel    string `koanf:"log_level"`
	CORSOrigins string `koanf:"cors_origins"` // через запятую, "*" по умолчанию

	FeedSource           string `koanf:"feed_source"`
	FeedPath             string `koanf:"feed_path"`
	FeedURL              string `koanf:"feed_url"`
	FeedBucket           string `koanf:"feed_bucket"`
	FeedObject           string `koanf:"feed_object"`
	FeedTimeoutSeconds   int    `koanf:"feed_timeout_seconds"`
	FeedRejectDegenerate bool   `koanf:"feed_reject_degenerate"`

	MinIOEndpoint  string `koanf:"minio_endpoint"`
	MinIOAccessKey string `koanf:"minio_access_key"`
	MinIOSecretKey string `koanf:"minio_secret_key"`
	MinIOUseSSL    bool   `koanf:"minio_use_ssl"`
	ExportsEnabled bool   `koanf:"exports_enabled"` // сохранять выгрузки в MinIO
	ExportBucket   string `koanf:"export_bucket"`
	ExportPrefix   string `koanf:"export_prefix"`

	CacheTTLMinutes        int `koanf:"cache_ttl_minutes"`
	PresignedURLTTLMinutes int `koanf:"presigned_url_ttl_minutes"`

	DayStartHour int    `koanf:"day_start_hour"`
	DayEndHour   int    `koanf:"day_end_hour"`
	TickSchedule string `koanf:"tick_schedule"` // cron-выражение для сдвига линии времени
	Timezone     string `koanf:"timezone"`
}

func Default() *Config {
	return &Config{
		ServerPort:             "8080",
		Environment:            "development",
		LogLevel:               "info",
		CORSOrigins:            "*",
		FeedSource:             FeedSourceFile,
		FeedPath:               "events.json",
		FeedBucket:             "university-schedules",
		FeedObject:             "events.json",
		FeedTimeoutSeconds:     15,
		MinIOEndpoint:          "minio:9000",
		MinIOAccessKey:         "minioadmin",
		MinIOSecretKey:         "minioadmin",
		ExportBucket:           "schedule-exports",
		ExportPrefix:           "exports/",
		CacheTTLMinutes:        10,
		PresignedURLTTLMinutes: 15,
		DayStartHour:           8,
		DayEndHour:             20,
		TickSchedule:           "@every 1m",
		Timezone:               "Europe/Moscow",
	}
}

// Load собирает конфигурацию: значения по умолчанию, затем YAML-файл из
// CONFIG_FILE (если задан), затем переменные окружения (SERVER_PORT, FEED_SOURCE, ...).
func Load() (*Config, error) {
	return LoadFile(os.Getenv("CONFIG_FILE"))
}

func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	// переменные окружения перекрывают файл
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.FeedSource {
	case FeedSourceFile, FeedSourceHTTP, FeedSourceMinIO:
	default:
		errs = append(errs, fmt.Errorf("unknown feed source %q", c.FeedSource))
	}
	if c.FeedSource == FeedSourceHTTP && c.FeedURL == "" {
		errs = append(errs, errors.New("FEED_URL is required for http feed"))
	}
	if c.DayStartHour < 0 || c.DayEndHour > 24 || c.DayStartHour >= c.DayEndHour {
		errs = append(errs, fmt.Errorf("invalid day window %d-%d", c.DayStartHour, c.DayEndHour))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err))
	}
	return errors.Join(errs...)
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

func (c *Config) PresignedURLTTL() time.Duration {
	return time.Duration(c.PresignedURLTTLMinutes) * time.Minute
}

func (c *Config) FeedTimeout() time.Duration {
	return time.Duration(c.FeedTimeoutSeconds) * time.Second
}

// Window отображаемый диапазон суток (по умолчанию 08:00-20:00)
func (c *Config) Window() models.Window {
	return models.Window{
		Start: models.ClockTime(c.DayStartHour * 60),
		End:   models.ClockTime(c.DayEndHour * 60),
	}
}

// Location часовой пояс для "сейчас" и календарной выгрузки
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// MinIORequired нужен ли клиент MinIO при такой конфигурации
func (c *Config) MinIORequired() bool {
	return c.FeedSource == FeedSourceMinIO || c.ExportsEnabled
}
