package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"chatd/internal/fault"
	"chatd/internal/health"
	"chatd/pkg/types"
)

// handleHealth godoc
// @Summary      Backend health
// @Description  Probes the Ollama backend with a short timeout.
// @Tags         Health
// @Produce      json
// @Success      200  {object}  types.HealthResponse
// @Failure      503  {object}  types.ErrorResponse
// @Router       /api/health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.svc.Health(r.Context())
	if !st.Healthy() {
		countFault(fault.KindUnavailable)
		writeJSONError(w, http.StatusServiceUnavailable, s.unhealthyDetail(st.Cause))
		return
	}
	writeJSON(w, http.StatusOK, types.HealthResponse{
		Status: string(types.Healthy),
		Ollama: "connected",
		Model:  st.Model,
	})
}

func (s *Server) unhealthyDetail(cause string) string {
	switch cause {
	case health.CauseTimeout:
		return "Ollama service timeout - check if ollama serve is running"
	case health.CauseUnreachable:
		if s.opts.BackendURL != "" {
			return "Ollama service not available at " + fault.SafeAddr(s.opts.BackendURL)
		}
	case health.CauseBackendStatus:
		return "Ollama service returned non-200 status"
	}
	return "Cannot connect to Ollama service"
}

// handleModels godoc
// @Summary      List models
// @Description  Lists models installed on the backend and the model used for chat.
// @Tags         Models
// @Produce      json
// @Success      200  {object}  types.ModelsResponse
// @Failure      503  {object}  types.ErrorResponse
// @Router       /api/models [get]
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	cat, err := s.svc.Models(r.Context())
	if err != nil {
		s.writeFault(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.ModelsResponse{
		Models:       cat.Models,
		CurrentModel: cat.CurrentModel,
		Available:    true,
	})
}

// handleChat godoc
// @Summary      Chat with the model
// @Description  Sends a message to the configured model. With stream=true (the default)
// @Description  the reply is relayed as text/event-stream chunks as they are generated.
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Produce      text/event-stream
// @Param        request  body      types.ChatRequest  true  "Chat request"
// @Success      200      {object}  types.ChatResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      500      {object}  types.ErrorResponse
// @Failure      503      {object}  types.ErrorResponse
// @Router       /api/chat [post]
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	lvl := s.requestLogLevel(r)
	log := s.requestLogger(r)
	start := time.Now()

	// Content-Type is not checked; the body must decode as JSON.
	// Limit body size (configurable, default 1MiB)
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	var req types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeFault(w, r, fault.BadRequest(err))
		return
	}
	stream := req.Streaming()
	if lvl >= LevelInfo {
		log.Info().Bool("stream", stream).Msg("chat start")
	}

	// Join server base context with request context so shutdown cancels work too.
	ctx, cancel := joinContexts(r.Context(), s.opts.BaseContext)
	defer cancel()
	reply, err := s.svc.Chat(ctx, req.Message, stream)
	if err != nil {
		// A gone caller gets nothing; a shutdown still answers the live caller.
		if r.Context().Err() != nil && fault.KindOf(err) == fault.KindUnexpected {
			if lvl >= LevelDebug {
				log.Debug().Err(err).Msg("chat abandoned by caller")
			}
			return
		}
		status := s.writeFault(w, r, err)
		if lvl >= LevelInfo {
			log.Info().Int("status", status).Dur("dur", time.Since(start)).Err(err).Msg("chat end")
		}
		return
	}

	if !stream {
		writeJSON(w, http.StatusOK, types.ChatResponse{Response: reply.Text, Model: reply.Model, Stream: false})
		if lvl >= LevelInfo {
			log.Info().Int("status", http.StatusOK).Dur("dur", time.Since(start)).Int("chars", len(reply.Text)).Msg("chat end")
		}
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flush := func() {}
	if f, ok := w.(http.Flusher); ok {
		flush = f.Flush
	}
	flush()

	// Optional logging of relayed text
	writer := io.Writer(w)
	var lw *loggingLineWriter
	if lvl >= LevelDebug {
		lw = &loggingLineWriter{log: log}
		writer = io.MultiWriter(w, lw)
	}
	n, err := reply.Stream.Drain(writer, flush)
	if lw != nil {
		lw.Flush()
	}
	if lvl >= LevelInfo {
		ev := log.Info()
		if err != nil {
			ev = log.Debug()
		}
		ev.Int("status", http.StatusOK).
			Dur("dur", time.Since(start)).
			Int64("bytes", n).
			Int("fragments", reply.Stream.Fragments()).
			Str("outcome", reply.Stream.State().String()).
			Msg("chat end")
	}
}

// handleInfo godoc
// @Summary      Application information
// @Tags         Info
// @Produce      json
// @Success      200  {object}  types.InfoResponse
// @Router       /api/info [get]
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info := s.svc.Info()
	writeJSON(w, http.StatusOK, types.InfoResponse{
		AppName:     info.Name,
		Version:     info.Version,
		Model:       info.Model,
		Description: info.Description,
		OllamaURL:   fault.SafeAddr(info.BackendURL),
	})
}

// handleAPIRoot godoc
// @Summary      API root
// @Description  Lists the available endpoints.
// @Tags         Info
// @Produce      json
// @Success      200  {object}  types.APIRootResponse
// @Router       /api/ [get]
func (s *Server) handleAPIRoot(w http.ResponseWriter, r *http.Request) {
	endpoints := map[string]string{
		"health":    "/api/health",
		"models":    "/api/models",
		"chat":      "/api/chat",
		"info":      "/api/info",
		"ui":        "/",
		"dashboard": "/dashboard",
		"metrics":   "/metrics",
	}
	if s.opts.DocsEnabled {
		endpoints["docs"] = "/docs/index.html"
	}
	writeJSON(w, http.StatusOK, types.APIRootResponse{
		Message:   "Ollama Chat API",
		Version:   s.opts.Version,
		Endpoints: endpoints,
	})
}

// writeFault maps err to the client error contract, logs the full error and
// returns the status written.
func (s *Server) writeFault(w http.ResponseWriter, r *http.Request, err error) int {
	status, detail := fault.Map(err, s.opts.BackendURL)
	kind := fault.KindOf(err)
	countFault(kind)
	log := s.requestLogger(r)
	var ev *zerolog.Event
	if status >= http.StatusInternalServerError {
		ev = log.Error()
	} else {
		ev = log.Warn()
	}
	ev.Err(err).Str("kind", kind.String()).Int("status", status).Msg("request failed")
	writeJSONError(w, status, detail)
	return status
}
