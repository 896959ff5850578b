package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"log" // log is used to report configuration errors and halt execution
	"os"  // os provides access to environment variables
	"time"

	"github.com/joho/godotenv"
)

// Supported database drivers.  The value is passed straight to sql.Open.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  JWTSecret plays the role of the privileged
// service key and is only ever read server-side.
type Config struct {
	Env  string // application environment (dev, test, prod)
	Port string // HTTP port to listen on

	DBDriver  string // mysql | postgres | sqlite
	DBUser    string // database username
	DBPass    string // database password (optional)
	DBHost    string // database host address
	DBPort    string // database port number
	DBName    string // database name
	DBSSLMode string // postgres sslmode (disable, require, verify-full)
	DBPath    string // sqlite file path (":memory:" allowed)

	JWTSecret      string        // secret used to sign access tokens
	AccessTTLMin   int           // access token time-to-live in minutes
	RefreshTTLDays int           // refresh token time-to-live in days
	RefreshReuse   time.Duration // how long a rotated refresh token still yields an access token
	BcryptCost     int           // bcrypt cost for password hashing
	CookieSecure   bool          // mark session cookies Secure
	CSRFKey        string        // 32-byte key for gorilla/csrf on form pages

	CalendarYear int // year used to bound February (28 or 29 days); 0 follows the clock

	RabbitURL    string // amqp broker; empty disables event publishing
	AuditLogPath string // file written by the audit consumer

	ResendAPIKey string // optional; enables welcome emails
	MailFrom     string // sender used for welcome emails
	PublicURL    string // base url linked from welcome emails

	RequestTimeout time.Duration // upper bound for a single request's store calls
}

// Load reads configuration values from environment variables and returns a
// Config.  A .env file in the working directory is loaded first when present;
// real environment variables always win.  JWT_SECRET is enforced by must()
// and a missing value stops the program.
func Load() Config {
	c := LoadTooling()
	c.JWTSecret = must("JWT_SECRET")
	return c
}

// LoadTooling is Load without the session secret, for command-line tools
// such as the seeder that never issue tokens.
func LoadTooling() Config {
	_ = godotenv.Load()

	return Config{
		Env:  envStr("APP_ENV", "dev"),
		Port: envStr("APP_PORT", "8080"),

		DBDriver:  envStr("DB_DRIVER", DriverSQLite),
		DBUser:    os.Getenv("DB_USER"),
		DBPass:    os.Getenv("DB_PASS"),
		DBHost:    envStr("DB_HOST", "localhost"),
		DBPort:    os.Getenv("DB_PORT"),
		DBName:    envStr("DB_NAME", "devocional"),
		DBSSLMode: envStr("DB_SSLMODE", "disable"),
		DBPath:    envStr("DB_PATH", "devocional.db"),

		JWTSecret:      os.Getenv("JWT_SECRET"),
		AccessTTLMin:   envInt("ACCESS_TOKEN_TTL_MIN", 15),
		RefreshTTLDays: envInt("REFRESH_TOKEN_TTL_DAYS", 30),
		RefreshReuse:   envDur("REFRESH_TOKEN_REUSE_GRACE", 30*time.Second),
		BcryptCost:     envInt("BCRYPT_COST", 12),
		CookieSecure:   envBool("COOKIE_SECURE", false),
		CSRFKey:        os.Getenv("CSRF_KEY"),

		CalendarYear: envInt("CALENDAR_YEAR", 0),

		RabbitURL:    firstNonEmpty(os.Getenv("RABBITMQ_URL"), os.Getenv("AMQP_URL")),
		AuditLogPath: envStr("AUDIT_LOG_PATH", "logs/audit.log"),

		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		MailFrom:     envStr("MAIL_FROM", "Devocional <no-reply@devocional.app>"),
		PublicURL:    envStr("PUBLIC_URL", "http://localhost:8080"),

		RequestTimeout: envDur("REQUEST_TIMEOUT", 5*time.Second),
	}
}

// Validate checks cross-field constraints that must() cannot express.  All
// problems are reported at once.
func (c Config) Validate() error {
	var errs []error

	switch c.DBDriver {
	case DriverMySQL, DriverPostgres:
		if c.DBUser == "" {
			errs = append(errs, fmt.Errorf("DB_USER is required for driver %q", c.DBDriver))
		}
		if c.DBPort == "" {
			errs = append(errs, fmt.Errorf("DB_PORT is required for driver %q", c.DBDriver))
		}
	case DriverSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH is required for driver sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be one of mysql, postgres, sqlite; got %q", c.DBDriver))
	}

	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}
	if c.AccessTTLMin < 1 {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL_MIN must be positive"))
	}
	if c.RefreshTTLDays < 1 {
		errs = append(errs, errors.New("REFRESH_TOKEN_TTL_DAYS must be positive"))
	}
	if c.RefreshReuse < 0 || c.RefreshReuse > time.Duration(c.AccessTTLMin)*time.Minute {
		errs = append(errs, errors.New("REFRESH_TOKEN_REUSE_GRACE must be between 0 and the access token TTL"))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost))
	}
	if c.CalendarYear < 0 {
		errs = append(errs, fmt.Errorf("CALENDAR_YEAR must not be negative, got %d", c.CalendarYear))
	}
	if c.CSRFKey != "" && len(c.CSRFKey) != 32 {
		errs = append(errs, errors.New("CSRF_KEY must be exactly 32 bytes"))
	}
	if c.IsProduction() && c.CSRFKey == "" {
		errs = append(errs, errors.New("CSRF_KEY is required in prod"))
	}

	return errors.Join(errs...)
}

// IsProduction reports whether APP_ENV is prod.
func (c Config) IsProduction() bool { return c.Env == "prod" }

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
