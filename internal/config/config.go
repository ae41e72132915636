package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/jengzang/mpawatch-backend-go/internal/logging"
)

// ConfigPathEnvVar overrides the config file location
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/mpawatch/config.yaml",
}

// Config 应用配置
type Config struct {
	Port      string         `koanf:"port"`
	JWTSecret string         `koanf:"jwt_secret"` // Empty disables API authentication
	Log       logging.Config `koanf:"log"`
	Layers    LayersConfig   `koanf:"layers"`
	Model     ModelConfig    `koanf:"model"`
	Upstream  UpstreamConfig `koanf:"upstream"`
	RateLimit RateLimit      `koanf:"rate_limit"`
}

// LayersConfig locates the reference layers. A location is a file path
// (.geojson, .gpkg[#table], .shp) or "postgis:<table>[#column]".
type LayersConfig struct {
	Ocean       string `koanf:"ocean"`
	MPA         string `koanf:"mpa"`
	Land        string `koanf:"land"` // Optional, only served for map drawing
	PostgresURL string `koanf:"postgres_url"`
}

// ModelConfig locates the fitted classifier artifacts
type ModelConfig struct {
	ForestPath string `koanf:"forest_path"`
	ScalerPath string `koanf:"scaler_path"`
}

// UpstreamConfig configures the fishing events API
type UpstreamConfig struct {
	BaseURL          string        `koanf:"base_url"`
	Token            string        `koanf:"token"`
	Dataset          string        `koanf:"dataset"`
	Timeout          time.Duration `koanf:"timeout"`
	RequestsPerSec   float64       `koanf:"requests_per_sec"`
	FailureThreshold uint32        `koanf:"failure_threshold"`
	OpenTimeout      time.Duration `koanf:"open_timeout"`
}

// RateLimit configures the per-IP limiter of the analysis endpoints
type RateLimit struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
}

func defaultConfig() *Config {
	return &Config{
		Port: ":8080",
		Log: logging.Config{
			Level:  "info",
			Format: "json",
		},
		Layers: LayersConfig{
			Ocean: "./data/ne_110m_ocean/ne_110m_ocean.shp",
			MPA:   "./data/simple_mpz/simplified_zoneassessment_geom.shp",
			Land:  "./data/ne_10m_land/ne_10m_land.shp",
		},
		Model: ModelConfig{
			ForestPath: "./data/model/random_forest_fishing_model.json.gz",
			ScalerPath: "./data/model/scaler.json",
		},
		Upstream: UpstreamConfig{
			BaseURL:          "https://gateway.api.globalfishingwatch.org",
			Dataset:          "public-global-fishing-events:latest",
			Timeout:          30 * time.Second,
			RequestsPerSec:   2,
			FailureThreshold: 5,
			OpenTimeout:      30 * time.Second,
		},
		RateLimit: RateLimit{
			Requests: 60,
			Window:   time.Minute,
		},
	}
}

// envMappings maps flat environment variable names to koanf paths
var envMappings = map[string]string{
	"port":                  "port",
	"jwt_secret":            "jwt_secret",
	"log_level":             "log.level",
	"log_format":            "log.format",
	"ocean_layer_path":      "layers.ocean",
	"mpa_layer_path":        "layers.mpa",
	"land_layer_path":       "layers.land",
	"postgres_url":          "layers.postgres_url",
	"model_path":            "model.forest_path",
	"scaler_path":           "model.scaler_path",
	"gfw_base_url":          "upstream.base_url",
	"gfw_token":             "upstream.token",
	"gfw_dataset":           "upstream.dataset",
	"gfw_timeout":           "upstream.timeout",
	"gfw_requests_per_sec":  "upstream.requests_per_sec",
	"gfw_failure_threshold": "upstream.failure_threshold",
	"gfw_open_timeout":      "upstream.open_timeout",
	"rate_limit_requests":   "rate_limit.requests",
	"rate_limit_window":     "rate_limit.window",
}

// Load 加载配置: defaults, then the optional YAML file, then environment
// variables
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider("", ".", func(key string) string {
		if path, ok := envMappings[strings.ToLower(key)]; ok {
			return path
		}
		return ""
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if cfg.Port != "" && !strings.Contains(cfg.Port, ":") {
		cfg.Port = ":" + cfg.Port
	}

	return cfg, nil
}

func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Validate reports settings the service cannot start without
func (c *Config) Validate() error {
	var errs []error
	if c.Layers.Ocean == "" {
		errs = append(errs, errors.New("layers.ocean is required"))
	}
	if c.Layers.MPA == "" {
		errs = append(errs, errors.New("layers.mpa is required"))
	}
	if c.Model.ForestPath == "" {
		errs = append(errs, errors.New("model.forest_path is required"))
	}
	if c.Model.ScalerPath == "" {
		errs = append(errs, errors.New("model.scaler_path is required"))
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate_limit.requests and rate_limit.window must be positive"))
	}
	if c.Upstream.RequestsPerSec <= 0 {
		errs = append(errs, errors.New("upstream.requests_per_sec must be positive"))
	}
	return errors.Join(errs...)
}

// UsesPostGIS reports whether any layer is read from the database
func (c *Config) UsesPostGIS() bool {
	for _, loc := range []string{c.Layers.Ocean, c.Layers.MPA, c.Layers.Land} {
		if strings.HasPrefix(loc, "postgis:") {
			return true
		}
	}
	return false
}
