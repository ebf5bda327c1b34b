package config

import (
	"fmt"
	"net/url"
	"time"
)

// RemoteConfig — внешний workflow-сервис.
type RemoteConfig struct {
	BaseURL string `toml:"base_url"`
	Timeout string `toml:"timeout"`

	// Пути endpoint'ов относительно BaseURL.
	WorkflowFilter string `toml:"workflow_filter"`
	SessionStart   string `toml:"session_start"`
	SessionFinish  string `toml:"session_finish"`
	StepStart      string `toml:"step_start"`
	StepFinish     string `toml:"step_finish"`
}

// RemoteEnv — имена переменных окружения для RemoteConfig.
type RemoteEnv struct {
	BaseURL string
	Timeout string
}

// TimeoutDuration возвращает Timeout как time.Duration.
func (c *RemoteConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize применяет defaults, env overrides и валидацию.
func (c *RemoteConfig) Finalize(env *RemoteEnv) error {
	c.loadDefaults()
	if env != nil {
		setString(&c.BaseURL, env.BaseURL)
		setString(&c.Timeout, env.Timeout)
	}
	return c.validate()
}

// Merge переносит ненулевые поля overlay.
func (c *RemoteConfig) Merge(overlay *RemoteConfig) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.WorkflowFilter != "" {
		c.WorkflowFilter = overlay.WorkflowFilter
	}
	if overlay.SessionStart != "" {
		c.SessionStart = overlay.SessionStart
	}
	if overlay.SessionFinish != "" {
		c.SessionFinish = overlay.SessionFinish
	}
	if overlay.StepStart != "" {
		c.StepStart = overlay.StepStart
	}
	if overlay.StepFinish != "" {
		c.StepFinish = overlay.StepFinish
	}
}

func (c *RemoteConfig) loadDefaults() {
	if c.Timeout == "" {
		c.Timeout = "30s"
	}
	if c.WorkflowFilter == "" {
		c.WorkflowFilter = "/workflow/filter"
	}
	if c.SessionStart == "" {
		c.SessionStart = "/workflow/session/start"
	}
	if c.SessionFinish == "" {
		c.SessionFinish = "/workflow/session/finish"
	}
	if c.StepStart == "" {
		c.StepStart = "/workflow/step/start"
	}
	if c.StepFinish == "" {
		c.StepFinish = "/workflow/step/finish"
	}
}

func (c *RemoteConfig) validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	return nil
}
