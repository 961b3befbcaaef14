package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"chatd/internal/chat"
	"chatd/internal/config"
	"chatd/internal/health"
	"chatd/internal/httpapi"
	"chatd/internal/ollama"
)

// fakeOllama answers the subset of the Ollama API chatd uses. Replies are
// looked up by prompt; unknown prompts echo the prompt back.
type fakeOllama struct {
	replies map[string][]string
	// dropAfter closes the connection after that many streamed lines when > 0.
	dropAfter int
	// pingDelay stalls /version.
	pingDelay time.Duration
	generates atomic.Int32
	lastBody  atomic.Value
}

func (f *fakeOllama) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/version":
		if f.pingDelay > 0 {
			select {
			case <-time.After(f.pingDelay):
			case <-r.Context().Done():
				return
			}
		}
		_, _ = io.WriteString(w, `{"version":"0.3.12"}`)
	case "/api/tags":
		_, _ = io.WriteString(w, `{"models":[{"name":"tinyllama:latest"},{"name":"mistral:7b"}]}`)
	case "/api/generate":
		f.generate(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeOllama) generate(w http.ResponseWriter, r *http.Request) {
	f.generates.Add(1)
	body, _ := io.ReadAll(r.Body)
	f.lastBody.Store(string(body))
	var req struct {
		Model  string `json:"model"`
		Prompt string `json:"prompt"`
		Stream bool   `json:"stream"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, `{"error":"bad json"}`, http.StatusBadRequest)
		return
	}
	frags, ok := f.replies[req.Prompt]
	if !ok {
		frags = []string{"echo: ", req.Prompt}
	}
	if !req.Stream {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model": req.Model, "response": strings.Join(frags, ""), "done": true,
		})
		return
	}
	w.Header().Set("Content-Type", "application/x-ndjson")
	fl, _ := w.(http.Flusher)
	for i, frag := range frags {
		if f.dropAfter > 0 && i == f.dropAfter {
			hijackAndClose(w)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"model": req.Model, "response": frag, "done": false})
		if fl != nil {
			fl.Flush()
		}
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"model": req.Model, "response": "", "done": true})
}

func hijackAndClose(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		return
	}
	conn, _, err := hj.Hijack()
	if err == nil {
		_ = conn.Close()
	}
}

func testConfig(backendURL string) config.Config {
	cfg := config.Default()
	cfg.OllamaURL = backendURL
	cfg.Model = "tinyllama"
	cfg.GenerateTimeoutSeconds = 5
	cfg.ModelsTimeoutSeconds = 1
	cfg.HealthTimeoutSeconds = 0.2
	cfg.StaticDir = ""
	cfg.DocsEnabled = false
	return cfg
}

// newChatServer wires the full service graph against backendURL.
func newChatServer(t *testing.T, backendURL string) *httptest.Server {
	t.Helper()
	return newChatServerWithConfig(t, testConfig(backendURL))
}

func newChatServerWithConfig(t *testing.T, cfg config.Config) *httptest.Server {
	t.Helper()
	log := zerolog.Nop()
	client := ollama.NewFromConfig(cfg, log)
	prober := health.NewProber(client, cfg.Model, cfg.HealthTimeout(), log)
	svc := chat.NewService(cfg, client, prober, log)
	mux := httpapi.NewMux(svc, httpapi.OptionsFromConfig(cfg, context.Background(), log))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// startFakeOllama returns the backend and its API base URL.
func startFakeOllama(t *testing.T, f *fakeOllama) string {
	t.Helper()
	ts := httptest.NewServer(f)
	t.Cleanup(ts.Close)
	return ts.URL + "/api"
}

// unreachableURL returns an address nothing listens on.
func unreachableURL(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()
	return "http://" + addr + "/api"
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpPostJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func detailOf(t *testing.T, body []byte) string {
	t.Helper()
	var e struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		t.Fatalf("error json: %v body=%s", err, string(body))
	}
	return e.Detail
}
