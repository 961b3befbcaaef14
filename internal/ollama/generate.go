package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"chatd/internal/fault"
	"chatd/internal/relay"
	"chatd/pkg/types"
)

type generateRequest struct {
	Model   string                     `json:"model"`
	Prompt  string                     `json:"prompt"`
	Stream  bool                       `json:"stream"`
	Options types.GenerationParameters `json:"options"`
}

// generateResponse is both the buffered reply and one streamed line.
type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// Reply is the result of Generate. Exactly one of Text or Stream is
// meaningful, depending on the requested mode.
type Reply struct {
	Model string
	Text  string
	// Stream is set in streaming mode and must be drained or closed.
	Stream *relay.Relay
}

// Generate asks the backend to complete prompt with the configured model
// and sampling parameters. In streaming mode the generation deadline keeps
// running while the caller drains Reply.Stream.
func (c *Client) Generate(ctx context.Context, prompt string, stream bool) (*Reply, error) {
	payload, err := json.Marshal(generateRequest{
		Model:   c.model,
		Prompt:  prompt,
		Stream:  stream,
		Options: c.params,
	})
	if err != nil {
		return nil, fault.Protocol(OpGenerate, err)
	}

	ctx, cancel := withTimeout(ctx, c.generateTimeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(payload))
	if err != nil {
		cancel()
		return nil, fault.Unavailable(OpGenerate, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if stream {
		req.Header.Set("Accept", "application/x-ndjson")
	}

	resp, err := c.do(ctx, OpGenerate, req)
	if err != nil {
		cancel()
		return nil, err
	}

	if stream {
		rel := relay.New(ctx, resp.Body, DecodeLine, relay.Options{
			Logger:  c.log.With().Str("op", OpGenerate).Logger(),
			Release: cancel,
		})
		return &Reply{Model: c.model, Stream: rel}, nil
	}

	defer cancel()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(ctx, OpGenerate, err)
	}
	var out generateResponse
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fault.Protocol(OpGenerate, err)
	}
	if out.Error != "" {
		return nil, fault.Protocol(OpGenerate, errors.New(out.Error))
	}
	return &Reply{Model: c.model, Text: out.Response}, nil
}

// DecodeLine parses one NDJSON line of a streamed generation.
func DecodeLine(line []byte) (relay.Event, error) {
	var msg generateResponse
	if err := json.Unmarshal(line, &msg); err != nil {
		return relay.Event{}, err
	}
	return relay.Event{Text: msg.Response, Done: msg.Done, Err: msg.Error}, nil
}
