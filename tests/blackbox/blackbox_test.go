package blackbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"testing"
	"time"
)

// findFreePort picks an available TCP port on localhost.
func findFreePort(t *testing.T) (int, func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	cleanup := func() { _ = ln.Close() }
	var port int
	fmt.Sscanf(portStr, "%d", &port)
	return port, cleanup
}

func projectRootFromThisFile(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	// this file: <root>/tests/blackbox/blackbox_test.go
	bbDir := filepath.Dir(thisFile)
	return filepath.Dir(filepath.Dir(bbDir))
}

func buildBinary(t *testing.T) string {
	t.Helper()
	root := projectRootFromThisFile(t)
	binPath := filepath.Join(t.TempDir(), "chatd")
	cmd := exec.Command("go", "build", "-tags", "noswagger", "-o", binPath, "./cmd/chatd")
	cmd.Dir = root
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("go build failed: %v\n%s", err, string(out))
	}
	return binPath
}

// fakeBackend streams "Hi", " there", "!" for every prompt.
func fakeBackend(t *testing.T) string {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/version":
			_, _ = io.WriteString(w, `{"version":"0.3.12"}`)
		case "/api/tags":
			_, _ = io.WriteString(w, `{"models":[{"name":"tinyllama:latest"}]}`)
		case "/api/generate":
			var req struct {
				Stream bool `json:"stream"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			if !req.Stream {
				_, _ = io.WriteString(w, `{"model":"tinyllama","response":"Hi there!","done":true}`)
				return
			}
			for _, frag := range []string{"Hi", " there", "!"} {
				fmt.Fprintf(w, "{\"response\":%q,\"done\":false}\n", frag)
				w.(http.Flusher).Flush()
			}
			_, _ = io.WriteString(w, "{\"response\":\"\",\"done\":true}\n")
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ts.Close)
	return ts.URL + "/api"
}

type serverProc struct {
	cmd  *exec.Cmd
	base string // http base URL, e.g. http://127.0.0.1:18080
}

func startServer(t *testing.T, bin, backendURL string, port int) *serverProc {
	t.Helper()
	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	cmd := exec.Command(bin, "serve", "--host", "127.0.0.1", "--port", fmt.Sprint(port), "--env-file", "")
	cmd.Env = append(os.Environ(),
		"OLLAMA_API_URL="+backendURL,
		"OLLAMA_MODEL=tinyllama",
		"STATIC_DIR="+t.TempDir(),
		"LOG_FORMAT=console",
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	// Wait for healthz
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(base + "/healthz")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				break
			}
		}
		if time.Now().After(deadline) {
			_ = cmd.Process.Kill()
			t.Fatalf("server did not become healthy in time")
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Cleanup(func() { _ = cmd.Process.Kill() })
	return &serverProc{cmd: cmd, base: base}
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}

func postJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}

func TestBlackbox_Flow(t *testing.T) {
	bin := buildBinary(t)
	backendURL := fakeBackend(t)
	port, release := findFreePort(t)
	release()
	sp := startServer(t, bin, backendURL, port)

	resp, body := get(t, sp.base+"/api/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/api/health %d %s", resp.StatusCode, string(body))
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("/api/health content-type=%s", ct)
	}

	resp, body = get(t, sp.base+"/api/models")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/api/models %d %s", resp.StatusCode, string(body))
	}
	var models struct {
		Models []string `json:"models"`
	}
	if err := json.Unmarshal(body, &models); err != nil {
		t.Fatalf("/api/models json: %v body=%s", err, string(body))
	}
	if len(models.Models) != 1 {
		t.Fatalf("expected 1 model, got %d", len(models.Models))
	}

	resp, body = postJSON(t, sp.base+"/api/chat", []byte(`{"message":"Hello"}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/api/chat %d %s", resp.StatusCode, string(body))
	}
	if string(body) != "Hi there!" {
		t.Fatalf("/api/chat streamed %q", string(body))
	}

	resp, body = postJSON(t, sp.base+"/api/chat", []byte(`{"message":"Hello","stream":false}`))
	if resp.StatusCode != http.StatusOK || !bytes.Contains(body, []byte(`"response":"Hi there!"`)) {
		t.Fatalf("/api/chat buffered %d %s", resp.StatusCode, string(body))
	}

	resp, body = get(t, sp.base+"/metrics")
	if resp.StatusCode != http.StatusOK || !bytes.Contains(body, []byte("chatd_http_requests_total")) {
		t.Fatalf("/metrics %d", resp.StatusCode)
	}
}

func TestBlackbox_Chat_EmptyMessage_400(t *testing.T) {
	bin := buildBinary(t)
	port, release := findFreePort(t)
	release()
	sp := startServer(t, bin, fakeBackend(t), port)

	resp, body := postJSON(t, sp.base+"/api/chat", []byte(`{"message":"   "}`))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d, body=%s", resp.StatusCode, string(body))
	}
	if !bytes.Contains(body, []byte(`"detail":"Message cannot be empty"`)) {
		t.Fatalf("unexpected body: %s", string(body))
	}
}

func TestBlackbox_SIGTERM_ExitsCleanly(t *testing.T) {
	bin := buildBinary(t)
	port, release := findFreePort(t)
	release()
	sp := startServer(t, bin, fakeBackend(t), port)

	if err := sp.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		t.Fatalf("signal: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- sp.cmd.Wait() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("server exited with error: %v", err)
		}
	case <-time.After(7 * time.Second):
		t.Fatal("server did not exit after SIGTERM")
	}
}

func TestBlackbox_InvalidConfig_FailsFast(t *testing.T) {
	bin := buildBinary(t)
	cmd := exec.Command(bin, "serve", "--env-file", "")
	cmd.Env = append(os.Environ(), "LLM_TEMPERATURE=9")
	out, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("expected non-zero exit, output=%s", string(out))
	}
	if !strings.Contains(string(out), "temperature") {
		t.Fatalf("expected temperature error, got %s", string(out))
	}
}
