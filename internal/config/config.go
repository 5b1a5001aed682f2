package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // schedule zones must resolve on hosts without a zoneinfo db

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

const envPrefix = "VACATION_CALENDAR"

// Store backends
const (
	StoreMemory    = "memory"
	StoreSQLite    = "sqlite"
	StoreFirestore = "firestore"
)

// Identity providers
const (
	AuthLocal    = "local"
	AuthFirebase = "firebase"
)

// Config represents application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Calendar CalendarConfig `mapstructure:"calendar"`
	Store    StoreConfig    `mapstructure:"store"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Firebase FirebaseConfig `mapstructure:"firebase"`
	Daemon   DaemonConfig   `mapstructure:"daemon"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig represents the HTTP API listener
type ServerConfig struct {
	Addr            string   `mapstructure:"addr"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	ShutdownTimeout string   `mapstructure:"shutdown_timeout"`
}

// CalendarConfig represents the day-type sources.
// isdayoff.ru is primary, xmlcalendar.ru and the optional file are fallbacks.
type CalendarConfig struct {
	IsDayOffURL  string `mapstructure:"isdayoff_url"`
	Country      string `mapstructure:"country"`
	FallbackURL  string `mapstructure:"fallback_url"` // contains {year}
	FallbackFile string `mapstructure:"fallback_file"`
	Timeout      string `mapstructure:"timeout"`
}

// StoreConfig selects the document store backend
type StoreConfig struct {
	Type string `mapstructure:"type"`
	Path string `mapstructure:"path"` // sqlite database file
}

// AuthConfig selects the identity provider
type AuthConfig struct {
	Provider  string `mapstructure:"provider"`
	JWTSecret string `mapstructure:"jwt_secret"`
	TokenTTL  string `mapstructure:"token_ttl"`
}

// FirebaseConfig is shared by the firestore store and the firebase provider
type FirebaseConfig struct {
	ProjectID          string `mapstructure:"project_id"`
	CredentialsFile    string `mapstructure:"credentials_file"`
	APIKey             string `mapstructure:"api_key"`
	IdentityToolkitURL string `mapstructure:"identity_toolkit_url"`
	Timeout            string `mapstructure:"timeout"`
}

// DaemonConfig represents the day-type preloader schedule
type DaemonConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	DailyTime string `mapstructure:"daily_time"` // HH:MM in Timezone
	Timezone  string `mapstructure:"timezone"`
}

// LogConfig represents logging; an empty File logs to stderr
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("calendar.isdayoff_url", "https://isdayoff.ru")
	v.SetDefault("calendar.country", "ru")
	v.SetDefault("calendar.fallback_url", "https://xmlcalendar.ru/data/ru/{year}/calendar.json")
	v.SetDefault("calendar.fallback_file", "")
	v.SetDefault("calendar.timeout", "10s")

	v.SetDefault("store.type", StoreMemory)
	v.SetDefault("store.path", "vacation-calendar.db")

	v.SetDefault("auth.provider", AuthLocal)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "24h")

	v.SetDefault("firebase.project_id", "")
	v.SetDefault("firebase.credentials_file", "")
	v.SetDefault("firebase.api_key", "")
	v.SetDefault("firebase.identity_toolkit_url", "")
	v.SetDefault("firebase.timeout", "10s")

	v.SetDefault("daemon.enabled", true)
	v.SetDefault("daemon.daily_time", "03:00")
	v.SetDefault("daemon.timezone", "Europe/Moscow")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
}

// Load loads configuration from file and VACATION_CALENDAR_* variables.
// Without an explicit path a missing config file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.vacation-calendar")
		v.AddConfigPath("/etc/vacation-calendar")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.ExpandEnvVars()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}

	switch c.Store.Type {
	case StoreMemory:
	case StoreSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for sqlite store")
		}
	case StoreFirestore:
		if c.Firebase.ProjectID == "" {
			return fmt.Errorf("firebase.project_id is required for firestore store")
		}
	default:
		return fmt.Errorf("store.type must be 'memory', 'sqlite' or 'firestore', got '%s'", c.Store.Type)
	}

	switch c.Auth.Provider {
	case AuthLocal:
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret is required for local provider")
		}
	case AuthFirebase:
		if c.Firebase.ProjectID == "" {
			return fmt.Errorf("firebase.project_id is required for firebase provider")
		}
		if c.Firebase.APIKey == "" {
			return fmt.Errorf("firebase.api_key is required for firebase provider")
		}
	default:
		return fmt.Errorf("auth.provider must be 'local' or 'firebase', got '%s'", c.Auth.Provider)
	}

	if c.Calendar.FallbackURL != "" && !strings.Contains(c.Calendar.FallbackURL, "{year}") {
		return fmt.Errorf("calendar.fallback_url must contain {year}")
	}

	if _, _, err := parseDailyTime(c.Daemon.DailyTime); err != nil {
		return fmt.Errorf("daemon.daily_time: %w", err)
	}
	if _, err := time.LoadLocation(c.Daemon.Timezone); err != nil {
		return fmt.Errorf("daemon.timezone: %w", err)
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	return nil
}

// GetTimeout returns the day-type source request timeout
func (c *CalendarConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 10*time.Second)
}

// GetTimeout returns the Identity Toolkit request timeout
func (c *FirebaseConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 10*time.Second)
}

// GetTokenTTL returns the local token lifetime
func (c *AuthConfig) GetTokenTTL() time.Duration {
	return parseDuration(c.TokenTTL, 24*time.Hour)
}

func (c *ServerConfig) GetShutdownTimeout() time.Duration {
	return parseDuration(c.ShutdownTimeout, 10*time.Second)
}

// GetDailyTime returns the configured preload time.
// Returns hour and minute (0-23, 0-59). Default: 03:00
func (c *DaemonConfig) GetDailyTime() (hour, minute int) {
	h, m, err := parseDailyTime(c.DailyTime)
	if err != nil {
		return 3, 0
	}
	return h, m
}

// GetLocation returns the schedule time zone, UTC when unknown
func (c *DaemonConfig) GetLocation() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ExpandEnvVars expands environment variables in config strings
func (c *Config) ExpandEnvVars() {
	c.Auth.JWTSecret = os.ExpandEnv(c.Auth.JWTSecret)
	c.Firebase.APIKey = os.ExpandEnv(c.Firebase.APIKey)
	c.Firebase.CredentialsFile = os.ExpandEnv(c.Firebase.CredentialsFile)
	c.Store.Path = os.ExpandEnv(c.Store.Path)
}

func parseDailyTime(s string) (hour, minute int, err error) {
	if s == "" {
		return 3, 0, nil
	}
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("time out of range: %q", s)
	}
	return hour, minute, nil
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
