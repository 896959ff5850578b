package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Env:            "dev",
		Port:           "8080",
		DBDriver:       DriverSQLite,
		DBPath:         ":memory:",
		JWTSecret:      "test-secret-0123456789",
		AccessTTLMin:   15,
		RefreshTTLDays: 30,
		BcryptCost:     4,
		CalendarYear:   2024,
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-0123456789")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("CALENDAR_YEAR", "")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "")

	cfg := Load()

	if cfg.DBDriver != DriverSQLite {
		t.Errorf("DBDriver = %q, want %q", cfg.DBDriver, DriverSQLite)
	}
	if cfg.AccessTTLMin != 15 {
		t.Errorf("AccessTTLMin = %d, want 15", cfg.AccessTTLMin)
	}
	if cfg.CalendarYear != 0 {
		t.Errorf("CalendarYear = %d, want 0 (follow the clock)", cfg.CalendarYear)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("RequestTimeout = %v, want 5s", cfg.RequestTimeout)
	}
}

func TestLoadTooling_WithoutSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_PATH", "seed.db")

	cfg := LoadTooling()

	if cfg.JWTSecret != "" {
		t.Errorf("JWTSecret = %q, want empty", cfg.JWTSecret)
	}
	if cfg.DBPath != "seed.db" {
		t.Errorf("DBPath = %q, want seed.db", cfg.DBPath)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "another-secret-0123456789")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_USER", "devo")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("CALENDAR_YEAR", "2028")
	t.Setenv("COOKIE_SECURE", "yes")
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "amqp://broker:5672/")

	cfg := Load()

	if cfg.DBDriver != DriverPostgres {
		t.Errorf("DBDriver = %q, want postgres", cfg.DBDriver)
	}
	if cfg.CalendarYear != 2028 {
		t.Errorf("CalendarYear = %d, want 2028", cfg.CalendarYear)
	}
	if !cfg.CookieSecure {
		t.Error("CookieSecure = false, want true")
	}
	if cfg.RabbitURL != "amqp://broker:5672/" {
		t.Errorf("RabbitURL = %q, want AMQP_URL fallback", cfg.RabbitURL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid sqlite", mutate: func(*Config) {}},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.DBDriver = "oracle" },
			wantErr: "DB_DRIVER",
		},
		{
			name:    "mysql without user",
			mutate:  func(c *Config) { c.DBDriver = DriverMySQL; c.DBPort = "3306" },
			wantErr: "DB_USER",
		},
		{
			name:    "short jwt secret",
			mutate:  func(c *Config) { c.JWTSecret = "short" },
			wantErr: "JWT_SECRET",
		},
		{
			name:    "bcrypt cost too low",
			mutate:  func(c *Config) { c.BcryptCost = 2 },
			wantErr: "BCRYPT_COST",
		},
		{
			name:    "csrf key wrong length",
			mutate:  func(c *Config) { c.CSRFKey = "abc" },
			wantErr: "CSRF_KEY",
		},
		{
			name:    "negative calendar year",
			mutate:  func(c *Config) { c.CalendarYear = -1 },
			wantErr: "CALENDAR_YEAR",
		},
		{
			name:   "unset calendar year",
			mutate: func(c *Config) { c.CalendarYear = 0 },
		},
		{
			name:    "reuse grace longer than access ttl",
			mutate:  func(c *Config) { c.RefreshReuse = time.Hour },
			wantErr: "REFRESH_TOKEN_REUSE_GRACE",
		},
		{
			name:    "prod requires csrf key",
			mutate:  func(c *Config) { c.Env = "prod" },
			wantErr: "CSRF_KEY is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadRateLimitConfig_Clamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 1 {
		t.Errorf("Capacity = %d, want 1", cfg.Capacity)
	}
	if cfg.TTL != 10*time.Second {
		t.Errorf("TTL = %v, want 10s (5 refill intervals)", cfg.TTL)
	}

	login := cfg.ForLogin()
	if login.KeyStrategy != "ip_route" {
		t.Errorf("login KeyStrategy = %q, want ip_route", login.KeyStrategy)
	}
	if !strings.HasSuffix(login.Prefix, ":login") {
		t.Errorf("login Prefix = %q, want :login suffix", login.Prefix)
	}
}

func TestParseMethods(t *testing.T) {
	m := parseMethods(" get, head ,,")
	if !m["GET"] || !m["HEAD"] || len(m) != 2 {
		t.Errorf("parseMethods = %v, want GET and HEAD", m)
	}
}
