// Package config loads the daemon's YAML configuration, expanding
// environment variables before parsing and filling in defaults for every
// field the operator left unset.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadFromBytes loads configuration from YAML bytes with environment
// variable expansion (${VAR} / $VAR), then applies defaults.
func LoadFromBytes(data []byte) (Config, error) {
	var c Config
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &c); err != nil {
		return c, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&c)
	return c, nil
}

// Load reads the config file at path and loads it. A missing file is not an
// error: it returns the zero Config with defaults applied, so the daemon can
// run entirely off bundled fallbacks.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			var c Config
			applyDefaults(&c)
			return c, nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return LoadFromBytes(data)
}

// parseBool parses a string as boolean with a default value.
// Accepts "true"/"1"/"yes" as true; empty or any other value returns the
// default, so a YAML document can simply omit the key.
func parseBool(s string, defaultVal bool) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return defaultVal
	}
	return s == "true" || s == "1" || s == "yes"
}

func applyDefaults(c *Config) {
	if c.Listener.PollInterval.Duration == 0 {
		c.Listener.PollInterval.Duration = 30 * time.Second
	}
	if c.Listener.PollInterval.Duration < 10*time.Second {
		c.Listener.PollInterval.Duration = 10 * time.Second
	}

	if c.Scheduler.TickInterval.Duration == 0 {
		c.Scheduler.TickInterval.Duration = 60 * time.Second
	}
	if c.Scheduler.TickInterval.Duration < 30*time.Second {
		c.Scheduler.TickInterval.Duration = 30 * time.Second
	}

	if c.Classifier.ProviderOverride == "" {
		c.Classifier.ProviderOverride = "auto"
	}

	if c.MaxContextTokens == 0 {
		c.MaxContextTokens = 80000
	}
	if c.CompactThreshold == 0 {
		c.CompactThreshold = 0.50
	}

	if c.Summarize.SkipThreshold == 0 {
		c.Summarize.SkipThreshold = 500
	}
	if c.Summarize.SummarizeThreshold == 0 {
		c.Summarize.SummarizeThreshold = 800
	}

	if c.HeartbeatInterval.Duration == 0 {
		c.HeartbeatInterval.Duration = 300 * time.Second
	}
}

// Duration wraps time.Duration so the config YAML can write durations as
// plain strings ("30s", "5m") rather than raw nanosecond integers.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config is the daemon's top-level configuration shape.
type Config struct {
	Listener struct {
		Enabled      string   `yaml:"enabled"`
		PollInterval Duration `yaml:"poll_interval"`
		StatePath    string   `yaml:"state_path"`
		Watchers     []string `yaml:"watchers"`
	} `yaml:"listener"`

	Scheduler struct {
		Enabled      string   `yaml:"enabled"`
		TickInterval Duration `yaml:"tick_interval"`
		TasksPath    string   `yaml:"tasks_path"`
	} `yaml:"scheduler"`

	Classifier struct {
		ProviderOverride string `yaml:"provider_override"`
	} `yaml:"classifier"`

	Providers map[string]ProviderConfig `yaml:"providers"`

	MaxContextTokens  int      `yaml:"max_context_tokens"`
	CompactThreshold  float64  `yaml:"compact_threshold"`
	HeartbeatInterval Duration `yaml:"heartbeat_interval"`

	Summarize struct {
		SkipThreshold      int `yaml:"skip_threshold"`
		SummarizeThreshold int `yaml:"summarize_threshold"`
	} `yaml:"summarize"`

	RouterCache struct {
		StoragePath string `yaml:"storage_path"`
	} `yaml:"router_cache"`
}

// ProviderConfig is the per-provider block under `providers:` in the
// daemon config — endpoint, credentials, and model selection. Not every
// field applies to every provider; unused fields are left zero.
type ProviderConfig struct {
	Enabled    string `yaml:"enabled"`
	Endpoint   string `yaml:"endpoint"`
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	BinaryPath string `yaml:"binary_path"`
}

func (c Config) IsListenerEnabled() bool  { return parseBool(c.Listener.Enabled, true) }
func (c Config) IsSchedulerEnabled() bool { return parseBool(c.Scheduler.Enabled, true) }
func (p ProviderConfig) IsEnabled() bool  { return parseBool(p.Enabled, false) }
