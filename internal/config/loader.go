package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Load reads configuration from environment variables, applies defaults
// for unset values and validates the result. Every malformed variable is
// reported, not just the first.
func Load() (*Config, error) {
	cfg := &Config{}

	if errs := loadStruct(reflect.ValueOf(cfg).Elem(), nil); len(errs) > 0 {
		return nil, fmt.Errorf("config load: %w", errors.Join(errs...))
	}
	cfg.Backend.Kind = strings.ToLower(strings.TrimSpace(cfg.Backend.Kind))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// MustLoad loads configuration and panics on error.
// Use this only in main() where early termination is desired.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// lookupEnv returns the value of the field's env variable, falling back to
// its envAlt variable.
func lookupEnv(field reflect.StructField) (name, value string) {
	name = field.Tag.Get("env")
	value = os.Getenv(name)
	if value == "" {
		if alt := field.Tag.Get("envAlt"); alt != "" {
			value = os.Getenv(alt)
		}
	}
	return name, value
}

// loadStruct populates the tagged fields of v, recursing into nested
// config sections, and appends one error per bad variable to errs.
func loadStruct(v reflect.Value, errs []error) []error {
	t := v.Type()
	for i := range t.NumField() {
		field, fv := t.Field(i), v.Field(i)
		if !fv.CanSet() {
			continue
		}
		if field.Type.Kind() == reflect.Struct {
			errs = loadStruct(fv, errs)
			continue
		}
		if field.Tag.Get("env") == "" {
			continue
		}

		name, value := lookupEnv(field)
		if value == "" {
			if field.Tag.Get("required") == "true" {
				errs = append(errs, fmt.Errorf("required environment variable %s is not set", name))
				continue
			}
			value = field.Tag.Get("default")
		}
		if value == "" {
			continue
		}
		if err := setField(fv, value); err != nil {
			errs = append(errs, fmt.Errorf("invalid value for %s=%q: %w", name, value, err))
		}
	}
	return errs
}

// setField parses value into field according to its type.
func setField(field reflect.Value, value string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}
		field.Set(reflect.ValueOf(splitList(value)))
	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}
	return nil
}

// splitList splits a comma-separated list, dropping blank items.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks that the configuration is valid and describes every
// failure at once.
func (c *Config) Validate() error {
	var errs []string
	errs = append(errs, c.Backend.validate()...)
	errs = append(errs, c.Server.validate()...)

	if c.Cache.TTL < 0 {
		errs = append(errs, "CACHE_TTL must be non-negative")
	}
	if c.Export.MaxConcurrent <= 0 {
		errs = append(errs, "EXPORT_MAX_CONCURRENT must be positive")
	}
	if c.Export.MaxWaitTime <= 0 {
		errs = append(errs, "EXPORT_MAX_WAIT_TIME must be positive")
	}
	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		errs = append(errs, "REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func (b *BackendConfig) validate() []string {
	switch strings.ToLower(b.Kind) {
	case BackendMemory:
		return nil
	case BackendWorkbook:
		if b.WorkbookPath == "" {
			return []string{"LEDGER_WORKBOOK is required for the xlsx backend"}
		}
		return nil
	case BackendSQLite:
		if b.SQLitePath == "" {
			return []string{"LEDGER_SQLITE_PATH is required for the sqlite backend"}
		}
		return nil
	case BackendPostgres:
		var errs []string
		if b.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL is required for the postgres backend")
		}
		if b.MaxConns <= 0 {
			errs = append(errs, "DB_MAX_CONNS must be positive")
		}
		if b.MinConns < 0 {
			errs = append(errs, "DB_MIN_CONNS must be non-negative")
		}
		if b.MaxConns < b.MinConns {
			errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", b.MaxConns, b.MinConns))
		}
		return errs
	}
	return []string{fmt.Sprintf("LEDGER_BACKEND (%q) must be one of: memory, xlsx, postgres, sqlite", b.Kind)}
}

func (s *ServerConfig) validate() []string {
	var errs []string
	if s.Port <= 0 || s.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", s.Port))
	}
	for name, d := range map[string]time.Duration{
		"SERVER_READ_TIMEOUT":    s.ReadTimeout,
		"SERVER_WRITE_TIMEOUT":   s.WriteTimeout,
		"SERVER_IDLE_TIMEOUT":    s.IdleTimeout,
		"SERVER_REQUEST_TIMEOUT": s.RequestTimeout,
	} {
		if d < 0 {
			errs = append(errs, name+" must be non-negative")
		}
	}
	if s.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	return errs
}

// String returns a safe representation of the config for logging. The
// database URL and API keys are masked.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Server: {Addr: %q}, "+
		"Backend: {Kind: %q, Workbook: %q, SQLite: %q, DatabaseURL: [MASKED], MaxConns: %d}, "+
		"Cache: {TTL: %s}, "+
		"Export: {TemplateDir: %q, MaxConcurrent: %d}, "+
		"Security: {RequireAPIKey: %v, APIKeys: %d configured}, "+
		"Logging: {Level: %q, Format: %q}}",
		c.Server.Addr(),
		c.Backend.Kind, c.Backend.WorkbookPath, c.Backend.SQLitePath, c.Backend.MaxConns,
		c.Cache.TTL,
		c.Export.TemplateDir, c.Export.MaxConcurrent,
		c.Security.RequireAPIKey, len(c.Security.APIKeys),
		c.Logging.Level, c.Logging.Format,
	)
}
