package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"assistd/internal/common/fsutil"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by ApplyDefaults.
type Config struct {
	Server   ServerConfig        `json:"server" yaml:"server" toml:"server"`
	Database DatabaseConfig      `json:"database" yaml:"database" toml:"database"`
	Ollama   OllamaConfig        `json:"ollama" yaml:"ollama" toml:"ollama"`
	Models   ModelsConfig        `json:"models" yaml:"models" toml:"models"`
	Routing  map[string]RouteRow `json:"routing" yaml:"routing" toml:"routing"`
	Personas map[string]string   `json:"personas" yaml:"personas" toml:"personas"`
	Hardware HardwareConfig      `json:"hardware" yaml:"hardware" toml:"hardware"`
	Manager  ManagerConfig       `json:"manager" yaml:"manager" toml:"manager"`
}

type ServerConfig struct {
	Addr               string     `json:"addr" yaml:"addr" toml:"addr"`
	LogLevel           string     `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat          string     `json:"log_format" yaml:"log_format" toml:"log_format"`
	MaxBodyBytes       int64      `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	ChatTimeoutSeconds int64      `json:"chat_timeout_seconds" yaml:"chat_timeout_seconds" toml:"chat_timeout_seconds"`
	MaxPageSize        int        `json:"max_page_size" yaml:"max_page_size" toml:"max_page_size"`
	// ChatRateLimit caps accepted /chat requests per second across all
	// clients. Zero disables the limiter.
	ChatRateLimit      float64    `json:"chat_rate_limit" yaml:"chat_rate_limit" toml:"chat_rate_limit"`
	ChatRateBurst      int        `json:"chat_rate_burst" yaml:"chat_rate_burst" toml:"chat_rate_burst"`
	CORS               CORSConfig `json:"cors" yaml:"cors" toml:"cors"`
}

// CORSConfig is permissive unless Enabled is explicitly false.
type CORSConfig struct {
	Enabled        *bool    `json:"enabled,omitempty" yaml:"enabled,omitempty" toml:"enabled,omitempty"`
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins" toml:"allowed_origins"`
	AllowedMethods []string `json:"allowed_methods" yaml:"allowed_methods" toml:"allowed_methods"`
	AllowedHeaders []string `json:"allowed_headers" yaml:"allowed_headers" toml:"allowed_headers"`
}

// IsEnabled reports whether the CORS layer should be installed.
func (c CORSConfig) IsEnabled() bool { return c.Enabled == nil || *c.Enabled }

type DatabaseConfig struct {
	Path string `json:"path" yaml:"path" toml:"path"`
}

type OllamaConfig struct {
	BaseURL              string `json:"base_url" yaml:"base_url" toml:"base_url"`
	TimeoutSeconds       int    `json:"timeout_seconds" yaml:"timeout_seconds" toml:"timeout_seconds"`
	HealthTimeoutSeconds int    `json:"health_timeout_seconds" yaml:"health_timeout_seconds" toml:"health_timeout_seconds"`
}

func (o OllamaConfig) Timeout() time.Duration {
	return time.Duration(o.TimeoutSeconds) * time.Second
}

func (o OllamaConfig) HealthTimeout() time.Duration {
	return time.Duration(o.HealthTimeoutSeconds) * time.Second
}

// ModelsConfig lists the models provisioned at startup for each tier.
type ModelsConfig struct {
	LightTier  []string `json:"light_tier" yaml:"light_tier" toml:"light_tier"`
	MediumTier []string `json:"medium_tier" yaml:"medium_tier" toml:"medium_tier"`
	HeavyTier  []string `json:"heavy_tier" yaml:"heavy_tier" toml:"heavy_tier"`
	NPUTier    []string `json:"npu_tier" yaml:"npu_tier" toml:"npu_tier"`
}

// RouteRow maps each tier to a model for one request category.
type RouteRow struct {
	Light  string `json:"light" yaml:"light" toml:"light"`
	Medium string `json:"medium" yaml:"medium" toml:"medium"`
	Heavy  string `json:"heavy" yaml:"heavy" toml:"heavy"`
	NPU    string `json:"npu" yaml:"npu" toml:"npu"`
}

type HardwareConfig struct {
	ProbeTimeoutSeconds int `json:"probe_timeout_seconds" yaml:"probe_timeout_seconds" toml:"probe_timeout_seconds"`
	MaxConcurrentProbes int `json:"max_concurrent_probes" yaml:"max_concurrent_probes" toml:"max_concurrent_probes"`
	// 0 re-probes on every call.
	CacheTTLSeconds int `json:"cache_ttl_seconds" yaml:"cache_ttl_seconds" toml:"cache_ttl_seconds"`
}

type ManagerConfig struct {
	MaxInflightPerModel int `json:"max_inflight_per_model" yaml:"max_inflight_per_model" toml:"max_inflight_per_model"`
	MaxQueueDepth       int `json:"max_queue_depth" yaml:"max_queue_depth" toml:"max_queue_depth"`
	MaxWaitSeconds      int `json:"max_wait_seconds" yaml:"max_wait_seconds" toml:"max_wait_seconds"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// Save writes cfg to path in the format implied by its extension, creating
// parent directories as needed.
func Save(path string, cfg Config) error {
	var (
		b   []byte
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		b, err = yaml.Marshal(cfg)
	case ".json":
		b, err = json.MarshalIndent(cfg, "", "  ")
	case ".toml":
		b, err = toml.Marshal(cfg)
	default:
		return fmt.Errorf("unsupported config extension: %s", ext)
	}
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := fsutil.EnsureParentDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// LoadOrInit loads path when it exists. Otherwise it writes Default() to
// path and returns it. The returned config always has defaults applied.
func LoadOrInit(path string) (Config, bool, error) {
	p, err := fsutil.ExpandHome(path)
	if err != nil {
		return Config{}, false, err
	}
	if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		if err := Save(p, cfg); err != nil {
			return Config{}, false, fmt.Errorf("write default config: %w", err)
		}
		return cfg, true, nil
	}
	cfg, err := Load(p)
	if err != nil {
		return cfg, false, err
	}
	cfg.ApplyDefaults()
	return cfg, false, cfg.Validate()
}

// Validate checks fields that defaults cannot repair.
func (c Config) Validate() error {
	u, err := url.Parse(c.Ollama.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("ollama.base_url %q is not an absolute URL", c.Ollama.BaseURL)
	}
	if c.Server.MaxPageSize < 1 {
		return fmt.Errorf("server.max_page_size must be positive")
	}
	for cat := range c.Routing {
		if strings.TrimSpace(cat) == "" {
			return fmt.Errorf("routing has an empty category name")
		}
	}
	return nil
}
