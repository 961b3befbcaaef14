package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"chatd/internal/version"
	"chatd/pkg/types"
)

// Config holds runtime parameters for the service. It is built once at
// startup and passed by value; nothing mutates it afterwards.
type Config struct {
	OllamaURL string `json:"ollama_url" yaml:"ollama_url" toml:"ollama_url"`
	Model     string `json:"model" yaml:"model" toml:"model"`

	GenerateTimeoutSeconds float64 `json:"generate_timeout_seconds" yaml:"generate_timeout_seconds" toml:"generate_timeout_seconds"`
	ModelsTimeoutSeconds   float64 `json:"models_timeout_seconds" yaml:"models_timeout_seconds" toml:"models_timeout_seconds"`
	HealthTimeoutSeconds   float64 `json:"health_timeout_seconds" yaml:"health_timeout_seconds" toml:"health_timeout_seconds"`

	Host      string `json:"host" yaml:"host" toml:"host"`
	Port      int    `json:"port" yaml:"port" toml:"port"`
	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format"`

	Temperature float64 `json:"temperature" yaml:"temperature" toml:"temperature"`
	TopP        float64 `json:"top_p" yaml:"top_p" toml:"top_p"`
	TopK        int     `json:"top_k" yaml:"top_k" toml:"top_k"`

	MaxMessageLength int   `json:"max_message_length" yaml:"max_message_length" toml:"max_message_length"`
	MaxBodyBytes     int64 `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`

	CORSOrigins          []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	CORSAllowCredentials bool     `json:"cors_allow_credentials" yaml:"cors_allow_credentials" toml:"cors_allow_credentials"`
	CORSAllowMethods     []string `json:"cors_allow_methods" yaml:"cors_allow_methods" toml:"cors_allow_methods"`
	CORSAllowHeaders     []string `json:"cors_allow_headers" yaml:"cors_allow_headers" toml:"cors_allow_headers"`

	AppName     string `json:"app_name" yaml:"app_name" toml:"app_name"`
	AppVersion  string `json:"app_version" yaml:"app_version" toml:"app_version"`
	Description string `json:"description" yaml:"description" toml:"description"`
	StaticDir   string `json:"static_dir" yaml:"static_dir" toml:"static_dir"`
	DocsEnabled bool   `json:"docs_enabled" yaml:"docs_enabled" toml:"docs_enabled"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		OllamaURL:              "http://localhost:11434/api",
		Model:                  "tinyllama",
		GenerateTimeoutSeconds: 300,
		ModelsTimeoutSeconds:   5,
		HealthTimeoutSeconds:   2,
		Host:                   "0.0.0.0",
		Port:                   8000,
		LogLevel:               "info",
		LogFormat:              "json",
		Temperature:            0.7,
		TopP:                   0.9,
		TopK:                   40,
		MaxMessageLength:       4000,
		MaxBodyBytes:           1 << 20,
		CORSOrigins:            []string{"*"},
		CORSAllowCredentials:   true,
		CORSAllowMethods:       []string{"*"},
		CORSAllowHeaders:       []string{"*"},
		AppName:                "Ollama Chat Application",
		AppVersion:             version.Get().GitVersion,
		Description:            "A modern web-based chat interface for local LLM inference with Ollama",
		StaticDir:              "app",
		DocsEnabled:            true,
	}
}

// ApplyEnv overlays environment variables onto cfg. lookup is usually
// os.LookupEnv. Unset variables leave the field untouched.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = splitCSV(v)
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}

	str("OLLAMA_API_URL", &cfg.OllamaURL)
	str("OLLAMA_MODEL", &cfg.Model)
	float("OLLAMA_TIMEOUT", &cfg.GenerateTimeoutSeconds)
	float("MODELS_TIMEOUT", &cfg.ModelsTimeoutSeconds)
	float("HEALTH_CHECK_TIMEOUT", &cfg.HealthTimeoutSeconds)
	str("API_HOST", &cfg.Host)
	integer("API_PORT", &cfg.Port)
	str("API_LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)
	float("LLM_TEMPERATURE", &cfg.Temperature)
	float("LLM_TOP_P", &cfg.TopP)
	integer("LLM_TOP_K", &cfg.TopK)
	integer("MAX_MESSAGE_LENGTH", &cfg.MaxMessageLength)
	if v, ok := lookup("MAX_BODY_BYTES"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("MAX_BODY_BYTES: %w", err))
		} else {
			cfg.MaxBodyBytes = n
		}
	}
	list("CORS_ORIGINS", &cfg.CORSOrigins)
	boolean("CORS_ALLOW_CREDENTIALS", &cfg.CORSAllowCredentials)
	list("CORS_ALLOW_METHODS", &cfg.CORSAllowMethods)
	list("CORS_ALLOW_HEADERS", &cfg.CORSAllowHeaders)
	str("APP_NAME", &cfg.AppName)
	str("APP_VERSION", &cfg.AppVersion)
	str("APP_DESCRIPTION", &cfg.Description)
	str("STATIC_DIR", &cfg.StaticDir)
	boolean("DOCS_ENABLED", &cfg.DocsEnabled)

	return errors.Join(errs...)
}

// Validate performs type and range sanity checks. All problems are reported
// together.
func (c Config) Validate() error {
	var errs []error
	if u, err := url.Parse(c.OllamaURL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, fmt.Errorf("ollama_url %q: must be an absolute http(s) URL", c.OllamaURL))
	}
	if strings.TrimSpace(c.Model) == "" {
		errs = append(errs, errors.New("model: must not be empty"))
	}
	if c.GenerateTimeoutSeconds <= 0 {
		errs = append(errs, errors.New("generate_timeout_seconds: must be positive"))
	}
	if c.ModelsTimeoutSeconds <= 0 {
		errs = append(errs, errors.New("models_timeout_seconds: must be positive"))
	}
	if c.HealthTimeoutSeconds <= 0 {
		errs = append(errs, errors.New("health_timeout_seconds: must be positive"))
	} else if c.HealthTimeoutSeconds > c.GenerateTimeoutSeconds {
		errs = append(errs, errors.New("health_timeout_seconds: must not exceed generate_timeout_seconds"))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d: out of range", c.Port))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, fmt.Errorf("temperature %v: must be within [0, 2]", c.Temperature))
	}
	if c.TopP <= 0 || c.TopP > 1 {
		errs = append(errs, fmt.Errorf("top_p %v: must be within (0, 1]", c.TopP))
	}
	if c.TopK < 0 {
		errs = append(errs, fmt.Errorf("top_k %d: must not be negative", c.TopK))
	}
	if c.MaxMessageLength < 1 {
		errs = append(errs, errors.New("max_message_length: must be positive"))
	}
	if c.MaxBodyBytes < 1 {
		errs = append(errs, errors.New("max_body_bytes: must be positive"))
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log_format %q: must be json or console", c.LogFormat))
	}
	return errors.Join(errs...)
}

// Addr is the listen address.
func (c Config) Addr() string { return net.JoinHostPort(c.Host, strconv.Itoa(c.Port)) }

// GenerationParameters returns the fixed sampling parameters.
func (c Config) GenerationParameters() types.GenerationParameters {
	return types.GenerationParameters{Temperature: c.Temperature, TopP: c.TopP, TopK: c.TopK}
}

func (c Config) GenerateTimeout() time.Duration { return seconds(c.GenerateTimeoutSeconds) }
func (c Config) ModelsTimeout() time.Duration   { return seconds(c.ModelsTimeoutSeconds) }
func (c Config) HealthTimeout() time.Duration   { return seconds(c.HealthTimeoutSeconds) }

func seconds(s float64) time.Duration { return time.Duration(s * float64(time.Second)) }

// splitCSV splits a comma-separated list, trimming blanks.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
