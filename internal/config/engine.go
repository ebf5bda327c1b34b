package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	EnvMetadataSeparator = "DATAHUB_METADATA_SEPARATOR"
	EnvMaterializePrefix = "DATAHUB_MATERIALIZE_PREFIX"
	EnvStrictSteps       = "DATAHUB_STRICT_STEPS"
	EnvSupportedTypes    = "DATAHUB_SUPPORTED_TYPES"
)

// EngineConfig — параметры движка выполнения workflow.
type EngineConfig struct {
	// SupportedTypes — allow-list расширений (с точкой, нижний регистр).
	SupportedTypes []string `toml:"supported_types"`

	// MaterializePrefix — префикс ключей материализованных выходов:
	// <prefix>/<run_id>/<step_name>.
	MaterializePrefix string `toml:"materialize_prefix"`

	// MetadataSeparator — разделитель ключ/значение в табличных форматах.
	MetadataSeparator string `toml:"metadata_separator"`

	// StrictSteps — отклонять workflow с неизвестными шагами до открытия сессии.
	StrictSteps bool `toml:"strict_steps"`

	// OrderArchivePrefix и MasterArchivePrefix — раскладка архива raw файлов.
	OrderArchivePrefix  string `toml:"order_archive_prefix"`
	MasterArchivePrefix string `toml:"master_archive_prefix"`

	// ConvertedPrefix — необязательный префикс для <stem>.json в write_json_to_s3.
	ConvertedPrefix string `toml:"converted_prefix"`
}

// Finalize применяет defaults, env overrides и валидацию.
func (c *EngineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge переносит ненулевые поля overlay.
func (c *EngineConfig) Merge(overlay *EngineConfig) {
	if len(overlay.SupportedTypes) > 0 {
		c.SupportedTypes = overlay.SupportedTypes
	}
	if overlay.MaterializePrefix != "" {
		c.MaterializePrefix = overlay.MaterializePrefix
	}
	if overlay.MetadataSeparator != "" {
		c.MetadataSeparator = overlay.MetadataSeparator
	}
	if overlay.StrictSteps {
		c.StrictSteps = true
	}
	if overlay.OrderArchivePrefix != "" {
		c.OrderArchivePrefix = overlay.OrderArchivePrefix
	}
	if overlay.MasterArchivePrefix != "" {
		c.MasterArchivePrefix = overlay.MasterArchivePrefix
	}
	if overlay.ConvertedPrefix != "" {
		c.ConvertedPrefix = overlay.ConvertedPrefix
	}
}

func (c *EngineConfig) loadDefaults() {
	if len(c.SupportedTypes) == 0 {
		c.SupportedTypes = []string{".pdf", ".txt", ".xlsx", ".xls"}
	}
	if c.MaterializePrefix == "" {
		c.MaterializePrefix = "materialized"
	}
	if c.MetadataSeparator == "" {
		c.MetadataSeparator = "："
	}
	if c.OrderArchivePrefix == "" {
		c.OrderArchivePrefix = "orders"
	}
	if c.MasterArchivePrefix == "" {
		c.MasterArchivePrefix = "master_data"
	}
}

func (c *EngineConfig) loadEnv() {
	setString(&c.MetadataSeparator, EnvMetadataSeparator)
	setString(&c.MaterializePrefix, EnvMaterializePrefix)
	if v := os.Getenv(EnvStrictSteps); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.StrictSteps = b
		}
	}
	if v := os.Getenv(EnvSupportedTypes); v != "" {
		c.SupportedTypes = strings.Split(v, ",")
	}
}

func (c *EngineConfig) validate() error {
	for i, t := range c.SupportedTypes {
		t = strings.ToLower(strings.TrimSpace(t))
		if !strings.HasPrefix(t, ".") || len(t) < 2 {
			return fmt.Errorf("invalid supported type %q", c.SupportedTypes[i])
		}
		c.SupportedTypes[i] = t
	}
	c.MaterializePrefix = strings.Trim(c.MaterializePrefix, "/")
	if c.MaterializePrefix == "" {
		return fmt.Errorf("materialize_prefix must not be empty")
	}
	return nil
}
