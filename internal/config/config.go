// Package config loads application settings from environment variables,
// applying defaults and validating the result. cmd/server calls
// godotenv.Load first, so a local .env file feeds the same variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Application environments. Development exposes error details in 500
// responses.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string // empty allows any origin
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry tracing settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// LLMConfig configures the OpenAI-compatible completion endpoint and the two
// call profiles made per turn.
type LLMConfig struct {
	BaseURL string        // LLM_BASE_URL
	APIKey  string        // LLM_API_KEY, falling back to GROQ_API_KEY
	Model   string        // LLM_MODEL
	Timeout time.Duration // LLM_TIMEOUT, transport-level cap per request

	IntentTemperature float64       // INTENT_TEMPERATURE
	IntentMaxTokens   int           // INTENT_MAX_TOKENS
	IntentTimeout     time.Duration // INTENT_TIMEOUT

	ReplyTemperature float64       // REPLY_TEMPERATURE
	ReplyMaxTokens   int           // REPLY_MAX_TOKENS
	ReplyTimeout     time.Duration // REPLY_TIMEOUT

	// PriceLocale formats prices in prompts (PRICE_LOCALE, BCP 47).
	PriceLocale language.Tag
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration // must exceed the slowest chat turn
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MaxHeaderBytes    int
	GinMode           string // debug|release|test
	AppEnv            string // development|production|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // console writer instead of JSON
	SwaggerEnabled bool
	APIBasePath    string

	// Storage
	DBPath  string
	DataDir string // CSV directory read by cmd/loaddata

	// Request limits
	MaxBodyBytes    int64
	MaxMessageRunes int

	// Rate limiting
	RateRPS   float64
	RateBurst int

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL   time.Duration // how long a key replays its response
	IdempotencyPurge time.Duration // interval between expired-key sweeps

	LLM  LLMConfig
	OTEL OTELConfig
}

// Development reports whether AppEnv is development.
func (c Config) Development() bool { return c.AppEnv == EnvDevelopment }

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables, applies defaults,
// normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   getdur("SHUTDOWN_TIMEOUT", 15*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),
		AppEnv:            strings.ToLower(strings.TrimSpace(getenv("APP_ENV", EnvProduction))),

		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api")),

		DBPath:  getenv("DB_PATH", "commerce.db"),
		DataDir: getenv("DATA_DIR", "data"),

		MaxBodyBytes:    int64(getint("MAX_BODY_BYTES", 1<<20)),
		MaxMessageRunes: getint("MAX_MESSAGE_RUNES", 4000),

		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		IdempotencyTTL:   getdur("IDEMPOTENCY_TTL", 24*time.Hour),
		IdempotencyPurge: getdur("IDEMPOTENCY_PURGE_INTERVAL", time.Hour),

		LLM: LLMConfig{
			BaseURL:           getenv("LLM_BASE_URL", "https://api.groq.com/openai/v1"),
			APIKey:            getenv("LLM_API_KEY", os.Getenv("GROQ_API_KEY")),
			Model:             getenv("LLM_MODEL", "llama3-8b-8192"),
			Timeout:           getdur("LLM_TIMEOUT", 30*time.Second),
			IntentTemperature: getfloat("INTENT_TEMPERATURE", 0.1),
			IntentMaxTokens:   getint("INTENT_MAX_TOKENS", 500),
			IntentTimeout:     getdur("INTENT_TIMEOUT", 15*time.Second),
			ReplyTemperature:  getfloat("REPLY_TEMPERATURE", 0.7),
			ReplyMaxTokens:    getint("REPLY_MAX_TOKENS", 1000),
			ReplyTimeout:      getdur("REPLY_TIMEOUT", 30*time.Second),
		},

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-commerce-chat"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.AppEnv == "dev" {
		cfg.AppEnv = EnvDevelopment
	}

	loc := getenv("PRICE_LOCALE", "en-US")
	tag, err := language.Parse(loc)
	if err != nil {
		return cfg, fmt.Errorf("PRICE_LOCALE %q: %w", loc, err)
	}
	cfg.LLM.PriceLocale = tag

	return cfg, cfg.validate()
}

func (cfg Config) validate() error {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	switch cfg.AppEnv {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		return errors.New("APP_ENV must be one of: development, production, test")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 ||
		cfg.IdleTimeout <= 0 || cfg.ShutdownTimeout <= 0 {
		return errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return errors.New("DB_PATH must not be empty")
	}
	if cfg.MaxBodyBytes <= 0 {
		return errors.New("MAX_BODY_BYTES must be > 0")
	}
	if cfg.MaxMessageRunes < 0 {
		return errors.New("MAX_MESSAGE_RUNES must be >= 0")
	}
	if cfg.RateRPS < 0 {
		return errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.IdempotencyPurge <= 0 {
		return errors.New("IDEMPOTENCY_PURGE_INTERVAL must be > 0")
	}
	if strings.TrimSpace(cfg.LLM.BaseURL) == "" {
		return errors.New("LLM_BASE_URL must not be empty")
	}
	if cfg.LLM.Timeout <= 0 || cfg.LLM.IntentTimeout <= 0 || cfg.LLM.ReplyTimeout <= 0 {
		return errors.New("LLM timeouts must be positive durations")
	}
	if cfg.LLM.IntentTemperature < 0 || cfg.LLM.IntentTemperature > 2 ||
		cfg.LLM.ReplyTemperature < 0 || cfg.LLM.ReplyTemperature > 2 {
		return errors.New("INTENT_TEMPERATURE and REPLY_TEMPERATURE must be in [0,2]")
	}
	if cfg.LLM.IntentMaxTokens <= 0 || cfg.LLM.ReplyMaxTokens <= 0 {
		return errors.New("INTENT_MAX_TOKENS and REPLY_MAX_TOKENS must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	return nil
}

// ---- env helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures a leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	return p
}
