// Package config provides unified configuration loading for the report engine.
// Supports YAML files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the report engine.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Upload        UploadConfig        `yaml:"upload"`
	Workers       WorkersConfig       `yaml:"workers"`
	Assets        AssetsConfig        `yaml:"assets"`
	Cache         CacheConfig         `yaml:"cache"`
	Report        ReportConfig        `yaml:"report"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// UploadConfig holds upload boundary settings.
type UploadConfig struct {
	MaxFileBytes int64  `yaml:"max_file_bytes"`
	TempDir      string `yaml:"temp_dir"` // empty means os.TempDir
}

// WorkersConfig holds extraction worker settings.
type WorkersConfig struct {
	Statement WorkerCommand `yaml:"statement"`
	Chart     WorkerCommand `yaml:"chart"`
	Timeout   time.Duration `yaml:"timeout"`
}

// WorkerCommand describes how to launch one extraction worker.
type WorkerCommand struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// AssetsConfig holds chart asset store settings.
type AssetsConfig struct {
	Dir      string `yaml:"dir"`
	LogoFile string `yaml:"logo_file"`
}

// CacheConfig holds extraction result cache settings.
type CacheConfig struct {
	Driver    string        `yaml:"driver"` // memory or redis
	TTL       time.Duration `yaml:"ttl"`
	KeyPrefix string        `yaml:"key_prefix"`
	Redis     RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// ReportConfig holds report rendering settings.
type ReportConfig struct {
	CompanyName string `yaml:"company_name"`
	AdviserName string `yaml:"adviser_name"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	// Pick up a local .env first so its variables participate in the
	// override pass. Missing files are fine.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8090,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     60 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 10 * time.Second,
		},
		Upload: UploadConfig{
			MaxFileBytes: 50 * 1024 * 1024,
		},
		Workers: WorkersConfig{
			Statement: WorkerCommand{Command: "statement-worker"},
			Chart:     WorkerCommand{Command: "chart-worker"},
			Timeout:   30 * time.Second,
		},
		Assets: AssetsConfig{
			Dir:      "./assets",
			LogoFile: "logo.png",
		},
		Cache: CacheConfig{
			Driver:    "memory",
			TTL:       15 * time.Minute,
			KeyPrefix: "report-engine:",
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				DB:       0,
				PoolSize: 10,
			},
		},
		Report: ReportConfig{
			CompanyName: "Clearview Financial Planning",
			AdviserName: "Your Adviser",
		},
		Observability: ObservabilityConfig{
			LogLevel:  "debug",
			LogFormat: "json",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Upload.MaxFileBytes < 1 {
		return fmt.Errorf("max_file_bytes must be positive")
	}

	if c.Workers.Statement.Command == "" {
		return fmt.Errorf("statement worker command is required")
	}

	if c.Workers.Chart.Command == "" {
		return fmt.Errorf("chart worker command is required")
	}

	if c.Workers.Timeout <= 0 {
		return fmt.Errorf("worker timeout must be positive")
	}

	if c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}

	if c.Assets.Dir == "" {
		return fmt.Errorf("asset dir is required")
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("UPLOAD_MAX_BYTES"); v != "" {
		var max int64
		if _, err := fmt.Sscanf(v, "%d", &max); err == nil {
			cfg.Upload.MaxFileBytes = max
		}
	}

	if v := os.Getenv("STATEMENT_WORKER"); v != "" {
		cfg.Workers.Statement.Command = v
	}

	if v := os.Getenv("CHART_WORKER"); v != "" {
		cfg.Workers.Chart.Command = v
	}

	if v := os.Getenv("WORKER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Workers.Timeout = d
		}
	}

	if v := os.Getenv("ASSET_DIR"); v != "" {
		cfg.Assets.Dir = v
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.Driver = "redis"
		// Parse redis://host:port format
		addr := strings.TrimPrefix(v, "redis://")
		cfg.Cache.Redis.Addr = addr
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}

// ResolveRelativePath resolves a path relative to the config file location.
func ResolveRelativePath(configPath, targetPath string) string {
	if filepath.IsAbs(targetPath) {
		return targetPath
	}
	configDir := filepath.Dir(configPath)
	return filepath.Join(configDir, targetPath)
}
