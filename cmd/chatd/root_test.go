package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatd/internal/config"
)

func lookupFrom(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func flagCmd(opts *serveOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "serve"}
	bindServeFlags(cmd, opts)
	return cmd
}

func TestResolveConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chatd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: from-file\nport: 9001\nhost: 10.0.0.1\n"), 0o644))

	opts := &serveOptions{}
	cmd := flagCmd(opts)
	require.NoError(t, cmd.Flags().Parse([]string{"--port", "9100"}))

	cfg, err := resolveConfig(cmd, opts, lookupFrom(map[string]string{
		"CHATD_CONFIG": path,
		"API_HOST":     "127.0.0.1",
	}))
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Model)
	assert.Equal(t, "127.0.0.1", cfg.Host, "env overrides file")
	assert.Equal(t, 9100, cfg.Port, "flag overrides file")
}

func TestResolveConfig_UnsetFlagsKeepEnv(t *testing.T) {
	opts := &serveOptions{}
	cmd := flagCmd(opts)
	require.NoError(t, cmd.Flags().Parse(nil))

	cfg, err := resolveConfig(cmd, opts, lookupFrom(map[string]string{"API_PORT": "8123", "API_LOG_LEVEL": "debug"}))
	require.NoError(t, err)
	assert.Equal(t, 8123, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestResolveConfig_Invalid(t *testing.T) {
	opts := &serveOptions{}
	cmd := flagCmd(opts)
	require.NoError(t, cmd.Flags().Parse(nil))

	_, err := resolveConfig(cmd, opts, lookupFrom(map[string]string{"LLM_TOP_P": "0"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestResolveConfig_MissingFile(t *testing.T) {
	opts := &serveOptions{}
	cmd := flagCmd(opts)
	require.NoError(t, cmd.Flags().Parse([]string{"--config", filepath.Join(t.TempDir(), "absent.toml")}))
	_, err := resolveConfig(cmd, opts, lookupFrom(nil))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Default()
	cfg.LogLevel = "warn"
	log := newLogger(cfg, &buf)
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "shown", line["message"])
	assert.Equal(t, "chatd", line["service"])

	buf.Reset()
	cfg.LogFormat = "console"
	cfg.LogLevel = "bogus"
	log = newLogger(cfg, &buf)
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
	log.Info().Msg("hello console")
	assert.Contains(t, buf.String(), "hello console")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestVersionCmd(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version", "--json"})
	require.NoError(t, cmd.Execute())

	var info map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &info))
	assert.Contains(t, info, "gitVersion")

	out.Reset()
	cmd = newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "gitVersion")
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	cfg := config.Default()
	cfg.StaticDir = t.TempDir()
	cfg.DocsEnabled = false
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, ln, cfg, zerolog.Nop()) }()

	base := "http://" + ln.Addr().String()
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/healthz")
		if err != nil {
			return false
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	resp, err := http.Get(base + "/api/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.True(t, strings.Contains(string(body), "Ollama Chat API"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownGrace + time.Second):
		t.Fatal("serve did not return after cancel")
	}
}
