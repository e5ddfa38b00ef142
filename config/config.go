package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when neither --conf nor POS_CONFIG is given.
const DefaultPath = "configs/pos.yaml"

type (
	Config struct {
		Server    ServerConfig    `yaml:"server"`
		Database  DatabaseConfig  `yaml:"database"`
		Auth      AuthConfig      `yaml:"auth"`
		Logger    LoggerConfig    `yaml:"logger"`
		Scheduler SchedulerConfig `yaml:"scheduler"`
		Bridge    BridgeConfig    `yaml:"bridge"`
		Inventory InventoryConfig `yaml:"inventory"`
		Metrics   MetricsConfig   `yaml:"metrics"`
	}

	ServerConfig struct {
		Host           string   `yaml:"host"`
		Port           int      `yaml:"port"`
		Mode           string   `yaml:"mode"` // debug, release, test
		AllowedOrigins []string `yaml:"allowed_origins"`
	}

	DatabaseConfig struct {
		Type      string `yaml:"type"` // sqlite, postgres, mysql
		Path      string `yaml:"path"` // sqlite file, or :memory:
		Host      string `yaml:"host"`
		Port      int    `yaml:"port"`
		User      string `yaml:"user"`
		Password  string `yaml:"password"`
		DBName    string `yaml:"dbname"`
		SSLMode   string `yaml:"ssl_mode"`
		WAL       bool   `yaml:"wal"`
		CacheSize int    `yaml:"cache_size"`
		Debug     bool   `yaml:"debug"`
	}

	AuthConfig struct {
		JWTSecret    string        `yaml:"jwt_secret"`
		TokenTTL     time.Duration `yaml:"token_ttl"`
		CookieName   string        `yaml:"cookie_name"`
		CookieSecure bool          `yaml:"cookie_secure"`
		BcryptCost   int           `yaml:"bcrypt_cost"`
	}

	// LoggerConfig represents the logger configuration
	LoggerConfig struct {
		Level      string `yaml:"level"`     // debug, info, warn, error
		Format     string `yaml:"format"`    // json, console
		Output     string `yaml:"output"`    // stdout, file
		FilePath   string `yaml:"file_path"` // path to log file when output is file
		MaxSize    int    `yaml:"max_size"`  // MB
		MaxBackups int    `yaml:"max_backups"`
		MaxAge     int    `yaml:"max_age"` // days
		Compress   bool   `yaml:"compress"`
		Color      bool   `yaml:"color"`
		TimeFormat string `yaml:"time_format"`
	}

	SchedulerConfig struct {
		Enabled       bool          `yaml:"enabled"`
		Interval      time.Duration `yaml:"interval"`
		SessionMaxAge time.Duration `yaml:"session_max_age"` // 0 disables auto close
		AutoReceive   bool          `yaml:"auto_receive"`
	}

	BridgeConfig struct {
		Enabled      bool   `yaml:"enabled"`
		LoopbackOnly bool   `yaml:"loopback_only"`
		AppVersion   string `yaml:"app_version"`
		DataDir      string `yaml:"data_dir"`
	}

	InventoryConfig struct {
		LowStockThreshold int `yaml:"low_stock_threshold"`
	}

	MetricsConfig struct {
		Enabled   bool      `yaml:"enabled"`
		Namespace string    `yaml:"namespace"`
		Path      string    `yaml:"path"`
		Buckets   []float64 `yaml:"buckets"`
	}
)

var envPattern = regexp.MustCompile(`\$\{(\w+)(?::([^}]*))?\}`)

// LoadConfig loads configuration from a YAML file with environment variable support.
// A missing file is not an error: defaults plus environment are used.
func LoadConfig(filename string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	data, err := os.ReadFile(filename)
	switch {
	case err == nil:
		data = resolveEnv(data)
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", filename, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}

	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	}
	cfg.SetDefaults()
	return cfg, cfg.Validate()
}

// resolveEnv replaces ${VAR} and ${VAR:default} placeholders in YAML content
func resolveEnv(content []byte) []byte {
	return envPattern.ReplaceAllFunc(content, func(match []byte) []byte {
		matches := envPattern.FindSubmatch(match)
		if value, ok := os.LookupEnv(string(matches[1])); ok {
			return []byte(value)
		}
		if len(matches) > 2 {
			return matches[2]
		}
		return nil
	})
}

func (c *Config) SetDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"http://localhost:3000", "tauri://localhost"}
	}

	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}
	if c.Database.Type == "sqlite" && c.Database.Path == "" {
		c.Database.Path = filepath.Join(DataDir(c.Bridge.DataDir), "database.db")
	}
	if c.Database.CacheSize == 0 {
		c.Database.CacheSize = -8192
	}

	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}
	if c.Auth.CookieName == "" {
		c.Auth.CookieName = "token"
	}
	if c.Auth.BcryptCost == 0 {
		c.Auth.BcryptCost = 10
	}

	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "json"
	}
	if c.Logger.Output == "" {
		c.Logger.Output = "stdout"
	}

	if c.Scheduler.Interval <= 0 {
		c.Scheduler.Interval = 30 * time.Second
	}

	if c.Bridge.AppVersion == "" {
		c.Bridge.AppVersion = "0.1.0"
	}

	if c.Inventory.LowStockThreshold <= 0 {
		c.Inventory.LowStockThreshold = 10
	}

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "pos"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if len(c.Metrics.Buckets) == 0 {
		c.Metrics.Buckets = []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5}
	}
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret (or JWT_SECRET) is not set")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return errors.New("auth.jwt_secret must be at least 16 characters")
	}
	switch c.Database.Type {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported database type %q", c.Database.Type)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// DataDir resolves the application data directory: the configured value,
// then APPDATA, then HOME.
func DataDir(configured string) string {
	if configured != "" {
		return configured
	}
	base := os.Getenv("APPDATA")
	if base == "" {
		base = os.Getenv("HOME")
	}
	if base == "" {
		base = "."
	}
	return filepath.Join(base, ".noiddea")
}
