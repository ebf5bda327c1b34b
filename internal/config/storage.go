package config

import (
	"fmt"
	"os"
	"strconv"
)

// Поддерживаемые backends blob store.
const (
	StorageS3    = "s3"
	StorageAzure = "azure"
	StorageFS    = "fs"
)

// StorageConfig — подключение к blob store.
type StorageConfig struct {
	// Backend — s3 (S3-совместимый, minio-go), azure (azblob) или fs (каталог на диске).
	Backend string `toml:"backend"`

	// S3
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Region    string `toml:"region"`
	UseSSL    *bool  `toml:"use_ssl"`

	// Azure
	ConnectionString string `toml:"connection_string"`

	// FS: корневой каталог, bucket = подкаталог.
	Root string `toml:"root"`
}

// StorageEnv — имена переменных окружения для StorageConfig.
type StorageEnv struct {
	Backend          string
	Endpoint         string
	AccessKey        string
	SecretKey        string
	Region           string
	UseSSL           string
	ConnectionString string
	Root             string
}

// SSL возвращает use_ssl с учётом значения по умолчанию (true).
func (c *StorageConfig) SSL() bool {
	return c.UseSSL == nil || *c.UseSSL
}

// Finalize применяет defaults, env overrides и валидацию.
func (c *StorageConfig) Finalize(env *StorageEnv) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge переносит ненулевые поля overlay.
func (c *StorageConfig) Merge(overlay *StorageConfig) {
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.Endpoint != "" {
		c.Endpoint = overlay.Endpoint
	}
	if overlay.AccessKey != "" {
		c.AccessKey = overlay.AccessKey
	}
	if overlay.SecretKey != "" {
		c.SecretKey = overlay.SecretKey
	}
	if overlay.Region != "" {
		c.Region = overlay.Region
	}
	if overlay.UseSSL != nil {
		c.UseSSL = overlay.UseSSL
	}
	if overlay.ConnectionString != "" {
		c.ConnectionString = overlay.ConnectionString
	}
	if overlay.Root != "" {
		c.Root = overlay.Root
	}
}

func (c *StorageConfig) loadDefaults() {
	if c.Backend == "" {
		c.Backend = StorageS3
	}
	if c.Region == "" {
		c.Region = "us-east-1"
	}
	if c.Root == "" {
		c.Root = "./data"
	}
}

func (c *StorageConfig) loadEnv(env *StorageEnv) {
	setString(&c.Backend, env.Backend)
	setString(&c.Endpoint, env.Endpoint)
	setString(&c.AccessKey, env.AccessKey)
	setString(&c.SecretKey, env.SecretKey)
	setString(&c.Region, env.Region)
	setString(&c.ConnectionString, env.ConnectionString)
	setString(&c.Root, env.Root)
	if env.UseSSL != "" {
		if v := os.Getenv(env.UseSSL); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.UseSSL = &b
			}
		}
	}
}

func (c *StorageConfig) validate() error {
	switch c.Backend {
	case StorageS3:
		if c.Endpoint == "" {
			return fmt.Errorf("endpoint required for s3 backend")
		}
	case StorageAzure:
		if c.ConnectionString == "" {
			return fmt.Errorf("connection_string required for azure backend")
		}
	case StorageFS:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	return nil
}

// BucketsConfig — имена bucket'ов по назначению.
type BucketsConfig struct {
	// Raw — входящие файлы.
	Raw string `toml:"raw"`
	// Converted — JSON результаты для заказов (ORDER).
	Converted string `toml:"converted"`
	// MasterData — результаты и архив справочных данных.
	MasterData string `toml:"master_data"`
	// Materialized — промежуточные выходы шагов.
	Materialized string `toml:"materialized"`
}

// BucketsEnv — имена переменных окружения для BucketsConfig.
type BucketsEnv struct {
	Raw          string
	Converted    string
	MasterData   string
	Materialized string
}

// Finalize применяет env overrides и проверяет, что все bucket'ы заданы.
// Defaults нет: отсутствие bucket'а — ошибка конфигурации.
func (c *BucketsConfig) Finalize(env *BucketsEnv) error {
	if env != nil {
		setString(&c.Raw, env.Raw)
		setString(&c.Converted, env.Converted)
		setString(&c.MasterData, env.MasterData)
		setString(&c.Materialized, env.Materialized)
	}
	return c.validate()
}

// Merge переносит ненулевые поля overlay.
func (c *BucketsConfig) Merge(overlay *BucketsConfig) {
	if overlay.Raw != "" {
		c.Raw = overlay.Raw
	}
	if overlay.Converted != "" {
		c.Converted = overlay.Converted
	}
	if overlay.MasterData != "" {
		c.MasterData = overlay.MasterData
	}
	if overlay.Materialized != "" {
		c.Materialized = overlay.Materialized
	}
}

func (c *BucketsConfig) validate() error {
	for name, v := range map[string]string{
		"raw":          c.Raw,
		"converted":    c.Converted,
		"master_data":  c.MasterData,
		"materialized": c.Materialized,
	} {
		if v == "" {
			return fmt.Errorf("%s bucket required", name)
		}
	}
	return nil
}

func setString(dst *string, envName string) {
	if envName == "" {
		return
	}
	if v := os.Getenv(envName); v != "" {
		*dst = v
	}
}
