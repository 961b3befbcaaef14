package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"chatd/internal/chat"
	"chatd/internal/common/fsutil"
	"chatd/internal/config"
	"chatd/internal/fault"
	"chatd/internal/health"
	"chatd/internal/httpapi"
	"chatd/internal/ollama"
)

const shutdownGrace = 5 * time.Second

type serveOptions struct {
	configPath string
	host       string
	port       int
	logLevel   string
	envFile    string
}

func runServe(cmd *cobra.Command, opts *serveOptions) error {
	if opts.envFile != "" {
		if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", opts.envFile, err)
		}
	}
	cfg, err := resolveConfig(cmd, opts, os.LookupEnv)
	if err != nil {
		return err
	}
	log := newLogger(cfg, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr(), err)
	}
	return serve(ctx, ln, cfg, log)
}

// resolveConfig applies defaults, the config file, the environment and
// finally explicitly set flags.
func resolveConfig(cmd *cobra.Command, opts *serveOptions, lookup func(string) (string, bool)) (config.Config, error) {
	path := opts.configPath
	if path == "" {
		if v, ok := lookup("CHATD_CONFIG"); ok {
			path = strings.TrimSpace(v)
		}
	}
	if path != "" {
		expanded, err := fsutil.ExpandHome(path)
		if err != nil {
			return config.Config{}, err
		}
		path = expanded
	}
	cfg, err := config.Resolve(path, lookup)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = opts.host
	}
	if flags.Changed("port") {
		cfg.Port = opts.port
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the root logger: JSON by default, human-readable console
// output with log_format=console.
func newLogger(cfg config.Config, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.LogLevel)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if strings.EqualFold(cfg.LogFormat, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "chatd").Logger()
}

// newHandler wires the service graph for cfg.
func newHandler(ctx context.Context, cfg config.Config, log zerolog.Logger) http.Handler {
	client := ollama.NewFromConfig(cfg, log)
	prober := health.NewProber(client, cfg.Model, cfg.HealthTimeout(), log.With().Str("component", "health").Logger())
	svc := chat.NewService(cfg, client, prober, log.With().Str("component", "chat").Logger())
	return httpapi.NewMux(svc, httpapi.OptionsFromConfig(cfg, ctx, log))
}

// serve runs the HTTP server on ln until ctx is done, then drains for up to
// shutdownGrace. In-flight chats see ctx canceled before the drain starts.
func serve(ctx context.Context, ln net.Listener, cfg config.Config, log zerolog.Logger) error {
	srv := &http.Server{
		Handler:           newHandler(ctx, cfg, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", ln.Addr().String()).
			Str("backend", fault.SafeAddr(cfg.OllamaURL)).
			Str("model", cfg.Model).
			Msg("chatd listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
		return err
	}
	return nil
}
