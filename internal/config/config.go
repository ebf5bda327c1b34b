package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvDatahubEnv    = "DATAHUB_ENV"
	EnvDatahubConfig = "DATAHUB_CONFIG"
)

var databaseEnv = &DatabaseEnv{
	URL:      "DATAHUB_DB_URL",
	MaxConns: "DATAHUB_DB_MAX_CONNS",
}

var storageEnv = &StorageEnv{
	Backend:          "DATAHUB_STORAGE_BACKEND",
	Endpoint:         "DATAHUB_STORAGE_ENDPOINT",
	AccessKey:        "DATAHUB_STORAGE_ACCESS_KEY",
	SecretKey:        "DATAHUB_STORAGE_SECRET_KEY",
	Region:           "DATAHUB_STORAGE_REGION",
	UseSSL:           "DATAHUB_STORAGE_USE_SSL",
	ConnectionString: "DATAHUB_STORAGE_CONNECTION_STRING",
	Root:             "DATAHUB_STORAGE_ROOT",
}

var bucketsEnv = &BucketsEnv{
	Raw:          "DATAHUB_BUCKET_RAW",
	Converted:    "DATAHUB_BUCKET_CONVERTED",
	MasterData:   "DATAHUB_BUCKET_MASTER_DATA",
	Materialized: "DATAHUB_BUCKET_MATERIALIZED",
}

var remoteEnv = &RemoteEnv{
	BaseURL: "DATAHUB_REMOTE_BASE_URL",
	Timeout: "DATAHUB_REMOTE_TIMEOUT",
}

// Config — корневая конфигурация всех бинарников Datahub.
//
// Порядок применения: config.toml → config.<DATAHUB_ENV>.toml → defaults → env.
// Загружается один раз при старте; ошибки валидации фатальны.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Queue    QueueConfig    `toml:"queue"`
	Storage  StorageConfig  `toml:"storage"`
	Buckets  BucketsConfig  `toml:"buckets"`
	Remote   RemoteConfig   `toml:"remote"`
	Engine   EngineConfig   `toml:"engine"`
	Worker   WorkerConfig   `toml:"worker"`
	Reaper   ReaperConfig   `toml:"reaper"`
}

// Env возвращает значение DATAHUB_ENV, по умолчанию "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvDatahubEnv); env != "" {
		return env
	}
	return "local"
}

// Load читает базовый конфиг (если он есть), накладывает overlay окружения
// и финализирует значения. Без config.toml всё берётся из defaults и env.
func Load() (*Config, error) {
	base := BaseConfigFile
	if v := os.Getenv(EnvDatahubConfig); v != "" {
		base = v
	}
	return LoadFile(base)
}

// LoadFile — то же, что Load, но с явным путём базового файла.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		loaded, err := load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge переносит ненулевые поля overlay во все секции.
func (c *Config) Merge(overlay *Config) {
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Queue.Merge(&overlay.Queue)
	c.Storage.Merge(&overlay.Storage)
	c.Buckets.Merge(&overlay.Buckets)
	c.Remote.Merge(&overlay.Remote)
	c.Engine.Merge(&overlay.Engine)
	c.Worker.Merge(&overlay.Worker)
	c.Reaper.Merge(&overlay.Reaper)
}

// Finalize применяет defaults, env overrides и валидацию всех секций.
func (c *Config) Finalize() error {
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Queue.Finalize(); err != nil {
		return fmt.Errorf("queue: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Buckets.Finalize(bucketsEnv); err != nil {
		return fmt.Errorf("buckets: %w", err)
	}
	if err := c.Remote.Finalize(remoteEnv); err != nil {
		return fmt.Errorf("remote: %w", err)
	}
	if err := c.Engine.Finalize(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if err := c.Worker.Finalize(); err != nil {
		return fmt.Errorf("worker: %w", err)
	}
	if err := c.Reaper.Finalize(); err != nil {
		return fmt.Errorf("reaper: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvDatahubEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
