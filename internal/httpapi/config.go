package httpapi

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"chatd/internal/config"
)

const defaultMaxBodyBytes int64 = 1 << 20

// CORSOptions configure cross-origin access. CORS is disabled when Origins
// is empty.
type CORSOptions struct {
	Origins          []string
	Methods          []string
	Headers          []string
	AllowCredentials bool
}

// Options configure the HTTP layer. They are fixed for the life of the mux.
type Options struct {
	Logger zerolog.Logger
	// BaseContext is canceled on shutdown; in-flight chats are joined to it.
	BaseContext context.Context
	// BackendURL is shown in unavailability details.
	BackendURL   string
	MaxBodyBytes int64
	CORS         CORSOptions
	// StaticDir holds templates/index.html, templates/dashboard.html and static/.
	StaticDir   string
	DocsEnabled bool
	// LogLevel is the default per-request log level.
	LogLevel LogLevel
	Version  string
}

// OptionsFromConfig derives HTTP options from the service configuration.
func OptionsFromConfig(cfg config.Config, base context.Context, log zerolog.Logger) Options {
	return Options{
		Logger:       log,
		BaseContext:  base,
		BackendURL:   cfg.OllamaURL,
		MaxBodyBytes: cfg.MaxBodyBytes,
		CORS: CORSOptions{
			Origins:          cfg.CORSOrigins,
			Methods:          expandMethods(cfg.CORSAllowMethods),
			Headers:          cfg.CORSAllowHeaders,
			AllowCredentials: cfg.CORSAllowCredentials,
		},
		StaticDir:   cfg.StaticDir,
		DocsEnabled: cfg.DocsEnabled,
		LogLevel:    parseLevel(cfg.LogLevel),
		Version:     cfg.AppVersion,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = defaultMaxBodyBytes
	}
	if o.BaseContext == nil {
		o.BaseContext = context.Background()
	}
	return o
}

// expandMethods turns a "*" entry into the explicit method list; the CORS
// middleware matches methods literally.
func expandMethods(methods []string) []string {
	for _, m := range methods {
		if strings.TrimSpace(m) == "*" {
			return []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"}
		}
	}
	return methods
}
