// Package config provides application configuration loaded from environment
// variables (optionally from a .env file). Use the package-level Get()
// function to obtain the singleton Config instance.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// ──────────────────────────────────────────────────────────────────────────────
// Sub-config structs
// ──────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string        // e.g. "8080"
	Env            string        // "development" | "production"
	ReadTimeout    time.Duration // default 10s
	WriteTimeout   time.Duration // default 10s
	AllowedOrigins []string      // CORS / websocket origins; empty = allow all
}

// DBConfig holds database connection settings.
type DBConfig struct {
	Driver          string        // "sqlite3" (default) | "postgres"
	DSN             string        // sqlite file DSN or postgres DSN
	MaxOpenConns    int           // default 10 (postgres only)
	MaxIdleConns    int           // default 5 (postgres only)
	ConnMaxLifetime time.Duration // default 5m
	HousesFile      string        // optional TOML file with opening balances
}

// AuthConfig holds API login settings. Auth is disabled when PasswordHash is empty.
type AuthConfig struct {
	PasswordHash string        // bcrypt hash of the owner's password
	JWTSecret    string        // HS256 signing key
	TokenTTL     time.Duration // default 12h
	LoginRPS     int           // login attempts per second per IP, default 2
}

// OracleConfig holds outcome-source settings.
type OracleConfig struct {
	URL     string        // empty = simulated oracle
	Timeout time.Duration // per-bet lookup timeout, default 3s
}

// AutomationConfig holds batch-resolution scheduling.
type AutomationConfig struct {
	Interval time.Duration // 0 = no background runs
}

// OddsConfig holds synthetic catalog settings.
type OddsConfig struct {
	Houses   []string      // default Superbet, Sportingbet
	Days     int           // default 30
	CacheTTL time.Duration // default 10m
}

// RedisConfig holds the optional catalog cache connection.
type RedisConfig struct {
	Addr     string // empty = no cache
	Password string
	DB       int
}

// ──────────────────────────────────────────────────────────────────────────────
// Top-level Config
// ──────────────────────────────────────────────────────────────────────────────

// Config is the root configuration object for the entire application.
type Config struct {
	Server     ServerConfig
	DB         DBConfig
	Auth       AuthConfig
	Oracle     OracleConfig
	Automation AutomationConfig
	Odds       OddsConfig
	Redis      RedisConfig
}

// IsProd returns true when running in the production environment.
func (c *Config) IsProd() bool {
	return c.Server.Env == "production"
}

// AuthEnabled returns true when an owner password hash is configured.
func (c *Config) AuthEnabled() bool {
	return c.Auth.PasswordHash != ""
}

// Validate checks that all required configuration values are present and valid.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	if c.DB.Driver != "sqlite3" && c.DB.Driver != "postgres" {
		errs = append(errs, fmt.Errorf("DB_DRIVER must be sqlite3 or postgres, got %q", c.DB.Driver))
	}
	if c.DB.DSN == "" {
		errs = append(errs, errors.New("DATABASE_DSN must be set"))
	}

	if c.AuthEnabled() && len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters when AUTH_PASSWORD_HASH is set"))
	}
	if c.IsProd() && !c.AuthEnabled() {
		errs = append(errs, errors.New("AUTH_PASSWORD_HASH must be set in production"))
	}

	if c.Oracle.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("ORACLE_TIMEOUT must be positive, got %s", c.Oracle.Timeout))
	}
	if c.Automation.Interval < 0 {
		errs = append(errs, fmt.Errorf("AUTOMATION_INTERVAL must not be negative, got %s", c.Automation.Interval))
	}

	if len(c.Odds.Houses) == 0 {
		errs = append(errs, errors.New("ODDS_HOUSES must name at least one house"))
	}
	if c.Odds.Days <= 0 {
		errs = append(errs, fmt.Errorf("ODDS_DAYS must be positive, got %d", c.Odds.Days))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Singleton
// ──────────────────────────────────────────────────────────────────────────────

var (
	instance *Config
	once     sync.Once
	loadErr  error
)

// Get returns the singleton Config, loading it once from the environment.
// Panics if loading fails; call this early in main() to catch misconfigurations
// at startup.
func Get() *Config {
	once.Do(func() {
		instance, loadErr = load()
	})
	if loadErr != nil {
		panic(fmt.Sprintf("config: failed to load: %v", loadErr))
	}
	return instance
}

// MustLoad loads and validates configuration. Intended for use in main().
func MustLoad() *Config {
	cfg := Get()
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("config: validation failed: %v", err))
	}
	return cfg
}

// ──────────────────────────────────────────────────────────────────────────────
// Internal loader
// ──────────────────────────────────────────────────────────────────────────────

func load() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{}

	// ── Server ────────────────────────────────────────────────────────────────
	cfg.Server = ServerConfig{
		Port:           getEnv("SERVER_PORT", "8080"),
		Env:            getEnv("ENVIRONMENT", "development"),
		ReadTimeout:    getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:   getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
		AllowedOrigins: getList("ALLOWED_ORIGINS", nil),
	}

	// ── Database ──────────────────────────────────────────────────────────────
	driver := getEnv("DB_DRIVER", "sqlite3")
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		if driver == "postgres" {
			dsn = fmt.Sprintf(
				"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
				getEnv("DB_HOST", "localhost"),
				getEnv("DB_PORT", "5432"),
				getEnv("DB_USER", "postgres"),
				getEnv("DB_PASSWORD", ""),
				getEnv("DB_NAME", "betledger"),
				getEnv("DB_SSLMODE", "disable"),
			)
		} else {
			dsn = "file:betledger.db?_busy_timeout=5000"
		}
	}

	maxOpen, err := getInt("DB_MAX_OPEN_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("DB_MAX_OPEN_CONNS: %w", err)
	}
	maxIdle, err := getInt("DB_MAX_IDLE_CONNS", 5)
	if err != nil {
		return nil, fmt.Errorf("DB_MAX_IDLE_CONNS: %w", err)
	}

	cfg.DB = DBConfig{
		Driver:          driver,
		DSN:             dsn,
		MaxOpenConns:    maxOpen,
		MaxIdleConns:    maxIdle,
		ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		HousesFile:      getEnv("HOUSES_FILE", ""),
	}

	// ── Auth ──────────────────────────────────────────────────────────────────
	loginRPS, err := getInt("AUTH_LOGIN_RPS", 2)
	if err != nil {
		return nil, fmt.Errorf("AUTH_LOGIN_RPS: %w", err)
	}
	cfg.Auth = AuthConfig{
		PasswordHash: getEnv("AUTH_PASSWORD_HASH", ""),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		TokenTTL:     getDuration("AUTH_TOKEN_TTL", 12*time.Hour),
		LoginRPS:     loginRPS,
	}

	// ── Oracle / automation ───────────────────────────────────────────────────
	cfg.Oracle = OracleConfig{
		URL:     strings.TrimRight(getEnv("ORACLE_URL", ""), "/"),
		Timeout: getDuration("ORACLE_TIMEOUT", 3*time.Second),
	}
	cfg.Automation = AutomationConfig{
		Interval: getDuration("AUTOMATION_INTERVAL", 0),
	}

	// ── Odds catalog ──────────────────────────────────────────────────────────
	days, err := getInt("ODDS_DAYS", 30)
	if err != nil {
		return nil, fmt.Errorf("ODDS_DAYS: %w", err)
	}
	cfg.Odds = OddsConfig{
		Houses:   getList("ODDS_HOUSES", []string{"Superbet", "Sportingbet"}),
		Days:     days,
		CacheTTL: getDuration("ODDS_CACHE_TTL", 10*time.Minute),
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	redisDB, err := getInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("REDIS_DB: %w", err)
	}
	cfg.Redis = RedisConfig{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       redisDB,
	}

	return cfg, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Helper functions
// ──────────────────────────────────────────────────────────────────────────────

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", v)
	}
	return n, nil
}

// getDuration parses an env var as a Go duration string (e.g. "15m", "2s").
// Falls back to defaultVal if the variable is unset or unparsable.
func getDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

// getList splits a comma-separated env var, dropping blanks.
func getList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
