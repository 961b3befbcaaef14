// Package ollama is the HTTP client for an Ollama-compatible inference
// backend. Every failure leaving this package is a classified fault.
package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"chatd/internal/config"
	"chatd/internal/fault"
	"chatd/pkg/types"
)

// Backend operation names, used in faults, logs and metrics.
const (
	OpPing     = "ping"
	OpList     = "list"
	OpGenerate = "generate"
)

// maxErrorBody bounds how much of a non-success response is retained.
const maxErrorBody = 4096

// Options configure a Client. Zero timeouts disable the per-operation
// deadline; callers normally set all three.
type Options struct {
	BaseURL         string
	Model           string
	Params          types.GenerationParameters
	PingTimeout     time.Duration
	ListTimeout     time.Duration
	GenerateTimeout time.Duration
	ConnectTimeout  time.Duration
	Logger          zerolog.Logger
	// HTTPClient overrides the default transport, mainly for tests.
	HTTPClient *http.Client
}

// Client talks to one backend with one fixed model and sampling parameters.
// It is safe for concurrent use.
type Client struct {
	baseURL         string
	model           string
	params          types.GenerationParameters
	pingTimeout     time.Duration
	listTimeout     time.Duration
	generateTimeout time.Duration
	httpClient      *http.Client
	log             zerolog.Logger
}

// New constructs a Client.
func New(opts Options) *Client {
	cli := opts.HTTPClient
	if cli == nil {
		connect := opts.ConnectTimeout
		if connect <= 0 {
			connect = 10 * time.Second
		}
		tr := &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   connect,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		}
		// Timeout stays 0: every request carries a context deadline, and a
		// client-wide timeout would cut long streams short.
		cli = &http.Client{Transport: tr, Timeout: 0}
	}
	return &Client{
		baseURL:         strings.TrimRight(opts.BaseURL, "/"),
		model:           opts.Model,
		params:          opts.Params,
		pingTimeout:     opts.PingTimeout,
		listTimeout:     opts.ListTimeout,
		generateTimeout: opts.GenerateTimeout,
		httpClient:      cli,
		log:             opts.Logger,
	}
}

// NewFromConfig builds a Client from the service configuration.
func NewFromConfig(cfg config.Config, log zerolog.Logger) *Client {
	return New(Options{
		BaseURL:         cfg.OllamaURL,
		Model:           cfg.Model,
		Params:          cfg.GenerationParameters(),
		PingTimeout:     cfg.HealthTimeout(),
		ListTimeout:     cfg.ModelsTimeout(),
		GenerateTimeout: cfg.GenerateTimeout(),
		Logger:          log.With().Str("component", "ollama").Logger(),
	})
}

// BaseURL returns the configured backend address.
func (c *Client) BaseURL() string { return c.baseURL }

// Model returns the configured default model.
func (c *Client) Model() string { return c.model }

// Ping checks that the backend answers at all.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, c.pingTimeout)
	defer cancel()
	resp, err := c.get(ctx, OpPing, "/version")
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
	return nil
}

type tagsResponse struct {
	Models []struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	} `json:"models"`
}

// ListModels returns the models known to the backend. CurrentModel is always
// the configured default, whether or not the backend lists it.
func (c *Client) ListModels(ctx context.Context) (types.ModelCatalog, error) {
	ctx, cancel := withTimeout(ctx, c.listTimeout)
	defer cancel()
	cat := types.ModelCatalog{Models: []string{}, CurrentModel: c.model}
	resp, err := c.get(ctx, OpList, "/tags")
	if err != nil {
		return cat, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return cat, classify(ctx, OpList, err)
	}
	var tags tagsResponse
	if err := json.Unmarshal(b, &tags); err != nil {
		return cat, fault.Protocol(OpList, err)
	}
	for _, m := range tags.Models {
		name := m.Name
		if name == "" {
			name = m.Model
		}
		if name != "" {
			cat.Models = append(cat.Models, name)
		}
	}
	return cat, nil
}

func (c *Client) get(ctx context.Context, op, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fault.Unavailable(op, err)
	}
	return c.do(ctx, op, req)
}

// do sends req and converts transport failures and non-2xx statuses into
// faults. On success the caller owns resp.Body.
func (c *Client) do(ctx context.Context, op string, req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		ferr := classify(ctx, op, err)
		c.log.Debug().Str("op", op).Err(err).Dur("elapsed", time.Since(start)).Msg("backend request failed")
		return nil, ferr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		c.log.Warn().Str("op", op).Int("status", resp.StatusCode).Str("body", string(b)).Msg("backend returned error status")
		return nil, fault.BackendStatus(op, resp.StatusCode, string(b))
	}
	c.log.Debug().Str("op", op).Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("backend request")
	return resp, nil
}

// classify maps a transport error to a fault. A canceled caller context is
// returned unchanged: nobody is left to receive a mapped response.
func classify(ctx context.Context, op string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fault.Timeout(op, err)
	}
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return err
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fault.Timeout(op, err)
	}
	return fault.Unavailable(op, err)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
