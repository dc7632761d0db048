package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// EnvConfigFile names an optional TOML file whose values sit between the
// built-in defaults and the environment.
const EnvConfigFile = "BUDGET_CONFIG_FILE"

type Config struct {
	// HTTP Server
	Port               string
	CORSAllowedOrigins []string
	RateLimitPerMinute int
	CookieSecure       bool

	// Backend selection
	DataBackend string

	// Database
	SQLiteDBPath string

	// AMQP (optional for the server, required by the worker)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID      string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	// Worker
	ReconcileInterval time.Duration

	// Identity
	IdentityCacheTTL time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

// fileConfig mirrors Config for the TOML overlay. Absent keys leave the
// default untouched.
type fileConfig struct {
	Port               *string  `toml:"port"`
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
	RateLimitPerMinute *int     `toml:"rate_limit_per_minute"`
	CookieSecure       *bool    `toml:"cookie_secure"`
	DataBackend        *string  `toml:"data_backend"`
	SQLiteDBPath       *string  `toml:"sqlite_db_path"`
	AMQP               struct {
		URL      *string `toml:"url"`
		Exchange *string `toml:"exchange"`
		Queue    *string `toml:"queue"`
	} `toml:"amqp"`
	Google struct {
		SpreadsheetID      *string `toml:"spreadsheet_id"`
		ServiceAccountFile *string `toml:"service_account_file"`
	} `toml:"google"`
	ReconcileInterval *duration `toml:"reconcile_interval"`
	IdentityCacheTTL  *duration `toml:"identity_cache_ttl"`
	Log               struct {
		Level  *string `toml:"level"`
		Format *string `toml:"format"`
	} `toml:"log"`
}

// duration decodes TOML strings such as "90s" or "15m".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Port:               "8081",
		CORSAllowedOrigins: []string{"http://localhost:5173"},
		RateLimitPerMinute: 120,
		DataBackend:        "sqlite",
		SQLiteDBPath:       "./data/budget.db",
		AMQPExchange:       "budget",
		AMQPQueue:          "cycle_exports",
		ReconcileInterval:  15 * time.Minute,
		IdentityCacheTTL:   5 * time.Minute,
		LogLevel:           "info",
		LogFormat:          "text",
	}
}

// Load builds the configuration from defaults, the optional TOML file named
// by BUDGET_CONFIG_FILE, then environment variables, each layer overriding
// the previous one.
func Load() (*Config, error) {
	cfg := Defaults()
	if path := strings.TrimSpace(os.Getenv(EnvConfigFile)); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	var fc fileConfig
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("config file %s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	set(&c.Port, fc.Port)
	if fc.CORSAllowedOrigins != nil {
		c.CORSAllowedOrigins = fc.CORSAllowedOrigins
	}
	set(&c.RateLimitPerMinute, fc.RateLimitPerMinute)
	set(&c.CookieSecure, fc.CookieSecure)
	set(&c.DataBackend, fc.DataBackend)
	set(&c.SQLiteDBPath, fc.SQLiteDBPath)
	set(&c.AMQPURL, fc.AMQP.URL)
	set(&c.AMQPExchange, fc.AMQP.Exchange)
	set(&c.AMQPQueue, fc.AMQP.Queue)
	set(&c.GoogleSpreadsheetID, fc.Google.SpreadsheetID)
	set(&c.GoogleServiceAccountFile, fc.Google.ServiceAccountFile)
	if fc.ReconcileInterval != nil {
		c.ReconcileInterval = fc.ReconcileInterval.Duration
	}
	if fc.IdentityCacheTTL != nil {
		c.IdentityCacheTTL = fc.IdentityCacheTTL.Duration
	}
	set(&c.LogLevel, fc.Log.Level)
	set(&c.LogFormat, fc.Log.Format)
	return nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.CORSAllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", c.CORSAllowedOrigins)
	c.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute)
	c.CookieSecure = getEnvBool("COOKIE_SECURE", c.CookieSecure)

	c.DataBackend = getEnv("DATA_BACKEND", c.DataBackend)
	c.SQLiteDBPath = getEnv("SQLITE_DB_PATH", c.SQLiteDBPath)

	c.AMQPURL = getEnv("AMQP_URL", c.AMQPURL)
	c.AMQPExchange = getEnv("AMQP_EXCHANGE", c.AMQPExchange)
	c.AMQPQueue = getEnv("AMQP_QUEUE", c.AMQPQueue)

	c.GoogleSpreadsheetID = getEnv("GOOGLE_SPREADSHEET_ID", c.GoogleSpreadsheetID)
	c.GoogleServiceAccountFile = getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", c.GoogleServiceAccountFile)
	c.GoogleServiceAccountJSON = getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", c.GoogleServiceAccountJSON)

	c.ReconcileInterval = getEnvDuration("EXPORT_RECONCILE_INTERVAL", c.ReconcileInterval)
	c.IdentityCacheTTL = getEnvDuration("IDENTITY_CACHE_TTL", c.IdentityCacheTTL)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
}

// Validate validates the configuration and returns an error listing every
// problem found.
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	validBackends := []string{"memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Check if the service account file exists (if specified)
	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	for _, origin := range c.CORSAllowedOrigins {
		if strings.HasPrefix(origin, "*.") {
			continue
		}
		if u, err := url.Parse(origin); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid CORS origin '%s': must be scheme://host[:port] or *.domain", origin))
		}
	}

	if c.RateLimitPerMinute < 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must not be negative", c.RateLimitPerMinute))
	}

	if c.IdentityCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid identity cache TTL %v: must be at least 1 second", c.IdentityCacheTTL))
	}

	if c.ReconcileInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid reconcile interval %v: must be at least 1 minute", c.ReconcileInterval))
	} else if c.ReconcileInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid reconcile interval %v: must be at most 24 hours", c.ReconcileInterval))
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateWorker checks the settings the export worker cannot run without.
func (c *Config) ValidateWorker() error {
	if err := c.Validate(); err != nil {
		return err
	}
	var errors []string
	if c.DataBackend != "sqlite" {
		errors = append(errors, "export worker requires the sqlite backend")
	}
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required by the export worker")
	}
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "GOOGLE_SPREADSHEET_ID is required by the export worker")
	}
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// JSONLogs reports whether logs should be emitted as JSON.
func (c *Config) JSONLogs() bool {
	return strings.EqualFold(c.LogFormat, "json")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
