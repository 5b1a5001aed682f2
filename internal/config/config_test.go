package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func validConfig() Config {
	return Config{
		Server:   ServerConfig{Addr: ":8080"},
		Calendar: CalendarConfig{FallbackURL: "https://xmlcalendar.test/{year}.json"},
		Store:    StoreConfig{Type: StoreMemory},
		Auth:     AuthConfig{Provider: AuthLocal, JWTSecret: "secret"},
		Daemon:   DaemonConfig{DailyTime: "03:00", Timezone: "UTC"},
		Log:      LogConfig{Level: "info"},
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
store:
  type: sqlite
  path: /tmp/cal.db
auth:
  jwt_secret: ${TEST_JWT_SECRET}
  token_ttl: 2h
daemon:
  daily_time: "04:30"
  timezone: Europe/Moscow
`)
	t.Setenv("TEST_JWT_SECRET", "s3cret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("Server.Addr = %q, want :9090", cfg.Server.Addr)
	}
	if cfg.Store.Type != StoreSQLite || cfg.Store.Path != "/tmp/cal.db" {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Auth.JWTSecret != "s3cret" {
		t.Errorf("Auth.JWTSecret = %q, want expanded value", cfg.Auth.JWTSecret)
	}
	if got := cfg.Auth.GetTokenTTL(); got != 2*time.Hour {
		t.Errorf("GetTokenTTL() = %v, want 2h", got)
	}
	if h, m := cfg.Daemon.GetDailyTime(); h != 4 || m != 30 {
		t.Errorf("GetDailyTime() = %d:%d, want 4:30", h, m)
	}
	if got := cfg.Daemon.GetLocation().String(); got != "Europe/Moscow" {
		t.Errorf("GetLocation() = %s, want Europe/Moscow", got)
	}

	// defaults fill what the file leaves out
	if cfg.Calendar.IsDayOffURL != "https://isdayoff.ru" || cfg.Calendar.Country != "ru" {
		t.Errorf("Calendar defaults = %+v", cfg.Calendar)
	}
	if cfg.Log.Level != "info" || cfg.Log.MaxBackups != 3 {
		t.Errorf("Log defaults = %+v", cfg.Log)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwt_secret: from-file
`)
	t.Setenv("VACATION_CALENDAR_SERVER_ADDR", ":7070")
	t.Setenv("VACATION_CALENDAR_AUTH_JWT_SECRET", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != ":7070" {
		t.Errorf("Server.Addr = %q, want :7070", cfg.Server.Addr)
	}
	if cfg.Auth.JWTSecret != "from-env" {
		t.Errorf("Auth.JWTSecret = %q, want from-env", cfg.Auth.JWTSecret)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load(missing explicit path) error = nil, want error")
	}

	path := writeConfig(t, "store:\n  type: postgres\nauth:\n  jwt_secret: x\n")
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "store.type") {
		t.Errorf("Load(bad store) error = %v, want store.type error", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
		{"sqlite without path", func(c *Config) { c.Store = StoreConfig{Type: StoreSQLite} }, "store.path"},
		{"firestore without project", func(c *Config) { c.Store.Type = StoreFirestore }, "firebase.project_id"},
		{"local without secret", func(c *Config) { c.Auth.JWTSecret = "" }, "auth.jwt_secret"},
		{"firebase without key", func(c *Config) {
			c.Auth.Provider = AuthFirebase
			c.Firebase.ProjectID = "demo"
		}, "firebase.api_key"},
		{"unknown provider", func(c *Config) { c.Auth.Provider = "ldap" }, "auth.provider"},
		{"fallback without year", func(c *Config) { c.Calendar.FallbackURL = "https://x.test/cal.json" }, "{year}"},
		{"bad daily time", func(c *Config) { c.Daemon.DailyTime = "25:00" }, "daemon.daily_time"},
		{"bad timezone", func(c *Config) { c.Daemon.Timezone = "Mars/Olympus" }, "daemon.timezone"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestDurationGetters(t *testing.T) {
	tests := []struct {
		name string
		got  time.Duration
		want time.Duration
	}{
		{"timeout default", (&CalendarConfig{}).GetTimeout(), 10 * time.Second},
		{"timeout set", (&CalendarConfig{Timeout: "3s"}).GetTimeout(), 3 * time.Second},
		{"timeout invalid", (&CalendarConfig{Timeout: "soon"}).GetTimeout(), 10 * time.Second},
		{"ttl negative", (&AuthConfig{TokenTTL: "-1h"}).GetTokenTTL(), 24 * time.Hour},
		{"shutdown", (&ServerConfig{ShutdownTimeout: "1m"}).GetShutdownTimeout(), time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestGetDailyTime_Fallback(t *testing.T) {
	c := DaemonConfig{DailyTime: "noon"}
	if h, m := c.GetDailyTime(); h != 3 || m != 0 {
		t.Errorf("GetDailyTime() = %d:%d, want 3:0", h, m)
	}
}
