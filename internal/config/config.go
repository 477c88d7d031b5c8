package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	mu   sync.RWMutex
	conf *Config
)

// Config struct is the top-level configuration structure.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Screening ScreeningConfig `mapstructure:"screening"`
	Routes    RoutesConfig    `mapstructure:"routes"`
}

// ServerConfig holds server-related settings.
type ServerConfig struct {
	Port           string `mapstructure:"port"`
	SessionSecret  string `mapstructure:"session_secret"`
	CookieSecure   bool   `mapstructure:"cookie_secure"`
	CSRFEnabled    bool   `mapstructure:"csrf_enabled"`
	LoginRateLimit int    `mapstructure:"login_rate_limit"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Path     string `mapstructure:"path"`
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Directory  string `mapstructure:"directory"`
	Level      string `mapstructure:"level"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// AuthConfig holds access token settings.
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	JWTIssuer      string        `mapstructure:"jwt_issuer"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

// ScreeningConfig points at the external video analyzer.
type ScreeningConfig struct {
	AnalyzerURL    string        `mapstructure:"analyzer_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxUploadMB    int64         `mapstructure:"max_upload_mb"`
	RiskUnit       string        `mapstructure:"risk_unit"`
	RequireConsent bool          `mapstructure:"require_consent"`
}

// RoutesConfig optionally overrides the embedded route table.
type RoutesConfig struct {
	File string `mapstructure:"file"`
}

// DSN builds the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		d.Host, d.User, d.Password, d.DBName, d.Port)
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.session_secret", "change-me-session-secret")
	v.SetDefault("server.cookie_secure", false)
	v.SetDefault("server.csrf_enabled", true)
	v.SetDefault("server.login_rate_limit", 5)

	// Database defaults
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.dbname", "neurothrive")
	v.SetDefault("database.path", "neurothrive.db")

	// Logging defaults
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.level", "debug")
	v.SetDefault("logging.max_size", 10)   // 10 MB
	v.SetDefault("logging.max_backups", 3) // Keep 3 backups
	v.SetDefault("logging.max_age", 7)     // 7 days
	v.SetDefault("logging.compress", true) // Compress old logs

	v.SetDefault("auth.jwt_secret", "change-me-jwt-secret")
	v.SetDefault("auth.jwt_issuer", "neurothrive")
	v.SetDefault("auth.access_token_ttl", 24*time.Hour)

	v.SetDefault("screening.analyzer_url", "http://localhost:8001/screen")
	v.SetDefault("screening.timeout", 2*time.Minute)
	v.SetDefault("screening.max_upload_mb", 200)
	v.SetDefault("screening.risk_unit", "fraction")
	v.SetDefault("screening.require_consent", false)

	v.SetDefault("routes.file", "")
}

// Load reads config/config.yaml under projectRoot, falling back to defaults,
// and applies NEUROTHRIVE_* environment overrides. When log is non-nil the
// file is watched and reloaded on change.
func Load(projectRoot string, log *zap.Logger) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.AddConfigPath(filepath.Join(projectRoot, "config"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("NEUROTHRIVE") // e.g., NEUROTHRIVE_SERVER_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// It's okay if the file doesn't exist; defaults and env vars will be used.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	set(cfg)

	if log != nil && v.ConfigFileUsed() != "" {
		v.OnConfigChange(func(e fsnotify.Event) {
			log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
			next, err := decode(v)
			if err != nil {
				log.Error("Error reloading configuration", zap.Error(err))
				return
			}
			set(next)
		})
		v.WatchConfig()
	}

	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	return &cfg, nil
}

func set(c *Config) {
	mu.Lock()
	conf = c
	mu.Unlock()
}

// Current returns the most recently loaded configuration.
func Current() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return conf
}
