package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"chatd/internal/ollama"
	"chatd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Health(ctx context.Context) types.HealthStatus
	Models(ctx context.Context) (types.ModelCatalog, error)
	Chat(ctx context.Context, message string, stream bool) (*ollama.Reply, error)
	Info() types.AppInfo
}

// Server holds the handlers. It carries no per-request state.
type Server struct {
	svc  Service
	opts Options
	log  zerolog.Logger
}

// NewMux builds the HTTP handler tree.
func NewMux(svc Service, opts Options) http.Handler {
	opts = opts.withDefaults()
	s := &Server{svc: svc, opts: opts, log: opts.Logger.With().Str("component", "http").Logger()}

	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, metrics, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(MetricsMiddleware)
	r.Use(middleware.Recoverer)
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if len(opts.CORS.Origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORS.Origins,
			AllowedMethods:   opts.CORS.Methods,
			AllowedHeaders:   opts.CORS.Headers,
			AllowCredentials: opts.CORS.AllowCredentials,
			MaxAge:           300,
		}))
	}
	// Compression for JSON endpoints; event streams are left alone.
	r.Use(middleware.Compress(5))

	r.Route("/api", func(r chi.Router) {
		r.Get("/", s.handleAPIRoot)
		r.Get("/health", s.handleHealth)
		r.Get("/models", s.handleModels)
		r.Post("/chat", s.handleChat)
		r.Get("/info", s.handleInfo)
	})

	s.mountUI(r)
	if opts.DocsEnabled {
		MountSwagger(r)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	return r
}
