// Package chat composes validation, the inference backend and the health
// prober into the operations served over HTTP.
package chat

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"chatd/internal/config"
	"chatd/internal/ollama"
	"chatd/pkg/types"
)

// Backend is the subset of the inference client the service needs.
type Backend interface {
	Ping(ctx context.Context) error
	ListModels(ctx context.Context) (types.ModelCatalog, error)
	Generate(ctx context.Context, prompt string, stream bool) (*ollama.Reply, error)
}

// Prober reports backend health.
type Prober interface {
	Probe(ctx context.Context) types.HealthStatus
}

// Service implements the chat operations. It holds no per-request state.
type Service struct {
	backend Backend
	prober  Prober
	info    types.AppInfo
	maxLen  int
	log     zerolog.Logger
}

// NewService wires a Service from the configuration and its collaborators.
func NewService(cfg config.Config, backend Backend, prober Prober, log zerolog.Logger) *Service {
	return &Service{
		backend: backend,
		prober:  prober,
		info: types.AppInfo{
			Name:        cfg.AppName,
			Version:     cfg.AppVersion,
			Model:       cfg.Model,
			Description: cfg.Description,
			BackendURL:  cfg.OllamaURL,
		},
		maxLen: cfg.MaxMessageLength,
		log:    log,
	}
}

// Health probes the backend.
func (s *Service) Health(ctx context.Context) types.HealthStatus {
	return s.prober.Probe(ctx)
}

// Models lists backend models.
func (s *Service) Models(ctx context.Context) (types.ModelCatalog, error) {
	return s.backend.ListModels(ctx)
}

// Chat validates message and starts a generation. Validation failures never
// reach the backend. In streaming mode the caller owns Reply.Stream.
func (s *Service) Chat(ctx context.Context, message string, stream bool) (*ollama.Reply, error) {
	msg, err := ValidateMessage(message, s.maxLen)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	reply, err := s.backend.Generate(ctx, msg, stream)
	if err != nil {
		return nil, err
	}
	s.log.Debug().Bool("stream", stream).Int("message_runes", len([]rune(msg))).Dur("ttfb", time.Since(start)).Msg("generation started")
	return reply, nil
}

// Info returns static application metadata.
func (s *Service) Info() types.AppInfo { return s.info }
