// Package config loads console settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/hanko-field/catalog-console/internal/validation"
)

const (
	defaultPort           = "8080"
	defaultCatalogTimeout = 10 * time.Second
	defaultLogLevel       = "info"
)

type Config struct {
	Server        ServerConfig
	Catalog       CatalogConfig
	Observability ObservabilityConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// CatalogConfig points the console at a Catalog Service. An empty BaseURL selects the in-memory service.
type CatalogConfig struct {
	BaseURL         string
	Token           string
	Timeout         time.Duration
	SKUScope        validation.SKUScope
	IncludeDisabled bool
}

func (c CatalogConfig) UseMemory() bool {
	return c.BaseURL == ""
}

type ObservabilityConfig struct {
	LogLevel       string
	TraceProjectID string
}

// ValidationError lists the settings that were missing or could not be parsed.
type ValidationError struct {
	fields []string
}

func (e *ValidationError) Error() string {
	return "config: invalid settings: " + strings.Join(e.fields, ", ")
}

func (e *ValidationError) Fields() []string {
	return slices.Clone(e.fields)
}

type Option func(*loader)

type loader struct {
	envFile   string
	overrides map[string]string
	systemEnv bool
	dotEnv    map[string]string
	invalid   []string
}

// WithEnvFile sets the .env file read as the lowest-precedence source. An empty path skips it.
func WithEnvFile(path string) Option {
	return func(l *loader) { l.envFile = path }
}

// WithEnvMap supplies values that win over both the process environment and .env.
func WithEnvMap(values map[string]string) Option {
	return func(l *loader) { l.overrides = values }
}

func WithoutSystemEnv() Option {
	return func(l *loader) { l.systemEnv = false }
}

// Load resolves each setting from WithEnvMap values, then the process environment, then the .env
// file, then the built-in default.
func Load(opts ...Option) (Config, error) {
	l := &loader{envFile: ".env", systemEnv: true}
	for _, opt := range opts {
		opt(l)
	}
	if err := l.readDotEnv(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Server: ServerConfig{
			Port:            l.text("CONSOLE_SERVER_PORT", defaultPort),
			ReadTimeout:     l.duration("CONSOLE_SERVER_READ_TIMEOUT", "Server.ReadTimeout", 15*time.Second),
			WriteTimeout:    l.duration("CONSOLE_SERVER_WRITE_TIMEOUT", "Server.WriteTimeout", 30*time.Second),
			IdleTimeout:     l.duration("CONSOLE_SERVER_IDLE_TIMEOUT", "Server.IdleTimeout", 2*time.Minute),
			RequestTimeout:  l.duration("CONSOLE_SERVER_REQUEST_TIMEOUT", "Server.RequestTimeout", time.Minute),
			ShutdownTimeout: l.duration("CONSOLE_SERVER_SHUTDOWN_TIMEOUT", "Server.ShutdownTimeout", 10*time.Second),
		},
		Catalog: CatalogConfig{
			BaseURL:         l.text("CONSOLE_CATALOG_API_BASE_URL", ""),
			Token:           l.text("CONSOLE_CATALOG_API_TOKEN", ""),
			Timeout:         l.duration("CONSOLE_CATALOG_API_TIMEOUT", "Catalog.Timeout", defaultCatalogTimeout),
			IncludeDisabled: l.flag("CONSOLE_CATALOG_INCLUDE_DISABLED", "Catalog.IncludeDisabled", true),
		},
		Observability: ObservabilityConfig{
			LogLevel:       strings.ToLower(l.text("LOG_LEVEL", defaultLogLevel)),
			TraceProjectID: l.text("CONSOLE_TRACE_PROJECT_ID", ""),
		},
	}
	scope, err := validation.ParseSKUScope(l.text("CONSOLE_CATALOG_SKU_SCOPE", ""))
	if err != nil {
		l.reject("Catalog.SKUScope")
	}
	cfg.Catalog.SKUScope = scope

	l.check(cfg)
	if len(l.invalid) > 0 {
		return Config{}, &ValidationError{fields: l.invalid}
	}
	return cfg, nil
}

func (l *loader) readDotEnv() error {
	if l.envFile == "" {
		return nil
	}
	values, err := godotenv.Read(l.envFile)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("config: read %s: %w", l.envFile, err)
	}
	l.dotEnv = values
	return nil
}

func (l *loader) lookup(key string) (string, bool) {
	if v, ok := l.overrides[key]; ok {
		return v, true
	}
	if l.systemEnv {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
	}
	v, ok := l.dotEnv[key]
	return v, ok
}

func (l *loader) text(key, fallback string) string {
	if v, ok := l.lookup(key); ok {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return fallback
}

func (l *loader) duration(key, field string, fallback time.Duration) time.Duration {
	raw := l.text(key, "")
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		l.reject(field)
		return fallback
	}
	return d
}

func (l *loader) flag(key, field string, fallback bool) bool {
	switch strings.ToLower(l.text(key, "")) {
	case "":
		return fallback
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		l.reject(field)
		return fallback
	}
}

func (l *loader) reject(field string) {
	if !slices.Contains(l.invalid, field) {
		l.invalid = append(l.invalid, field)
	}
}

func (l *loader) check(cfg Config) {
	if port, err := strconv.Atoi(cfg.Server.Port); err != nil || port <= 0 || port > 65535 {
		l.reject("Server.Port")
	}
	if !cfg.Catalog.UseMemory() {
		u, err := url.Parse(cfg.Catalog.BaseURL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			l.reject("Catalog.BaseURL")
		}
	}
	switch cfg.Observability.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		l.reject("Observability.LogLevel")
	}
}
