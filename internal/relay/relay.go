// Package relay turns a backend's line-delimited generation events into an
// ordered, pull-based sequence of text fragments.
//
// A Relay moves through Idle -> Streaming -> {Completed | FaultedClosed |
// CallerDisconnected}. Every terminal state closes the backend body exactly
// once and there is no way back to Streaming.
package relay

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"chatd/internal/fault"
)

// State is a relay lifecycle state.
type State int

const (
	Idle State = iota
	Streaming
	Completed
	FaultedClosed
	CallerDisconnected
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Streaming:
		return "streaming"
	case Completed:
		return "completed"
	case FaultedClosed:
		return "faulted"
	case CallerDisconnected:
		return "caller_disconnected"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further fragments can be produced.
func (s State) Terminal() bool { return s >= Completed }

// Event is one decoded backend line.
type Event struct {
	Text string
	Done bool
	// Err is an error reported in-band by the backend.
	Err string
}

// Decoder parses one non-blank backend line.
type Decoder func(line []byte) (Event, error)

// Options configure a Relay.
type Options struct {
	Logger zerolog.Logger
	// Release runs once when the relay reaches a terminal state, after the
	// body is closed. Typically the cancel func of the generation context.
	Release func()
}

const (
	markerPrefix = "[Stream error: "
	markerSuffix = "]"
	// reasonEOF is used when the backend closes without signalling done.
	reasonEOF = "connection closed before generation finished"
	// reasonLost replaces transport errors, which carry socket addresses.
	reasonLost = "connection to Ollama lost"
)

// Marker formats the trailing fragment emitted on a mid-stream fault.
func Marker(reason string) string {
	return markerPrefix + fault.Sanitize(reason, 200) + markerSuffix
}

// Relay is a lazy, finite, non-restartable iterator over text fragments.
// Next must not be called concurrently with itself; Close may be called from
// any goroutine.
type Relay struct {
	ctx     context.Context
	body    io.ReadCloser
	br      *bufio.Reader
	decode  Decoder
	log     zerolog.Logger
	release func()

	pending error

	mu        sync.Mutex
	state     State
	fragments int
	skipped   int
	closeOnce sync.Once
}

// New binds a relay to an open backend body. ctx is the context the backend
// request was issued with; its cancellation distinguishes a caller
// disconnect from a backend fault.
func New(ctx context.Context, body io.ReadCloser, decode Decoder, opts Options) *Relay {
	return &Relay{
		ctx:     ctx,
		body:    body,
		br:      bufio.NewReader(body),
		decode:  decode,
		log:     opts.Logger,
		release: opts.Release,
	}
}

// State returns the current lifecycle state.
func (r *Relay) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Fragments returns how many text fragments have been produced so far,
// including a fault marker.
func (r *Relay) Fragments() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fragments
}

// Skipped returns how many backend lines failed to decode.
func (r *Relay) Skipped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.skipped
}

// Next returns the next non-empty fragment. After a terminal state it returns
// io.EOF. A caller disconnect is reported once as the context error.
func (r *Relay) Next() (string, error) {
	if !r.begin() {
		return "", io.EOF
	}
	for {
		if r.pending != nil {
			err := r.pending
			r.pending = nil
			return r.readFailed(err)
		}
		line, err := r.br.ReadBytes('\n')
		if err != nil {
			r.pending = err
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		ev, derr := r.decode(line)
		if derr != nil {
			r.skip(line, derr)
			continue
		}
		if ev.Err != "" {
			r.pending = nil
			return r.fault(ev.Err)
		}
		if ev.Done {
			r.pending = nil
			if !r.finish(Completed) {
				return "", io.EOF
			}
			if ev.Text != "" {
				r.count()
				return ev.Text, nil
			}
			return "", io.EOF
		}
		if ev.Text != "" {
			if r.State().Terminal() {
				return "", io.EOF
			}
			r.count()
			return ev.Text, nil
		}
	}
}

// Close releases the backend body. Closing before a terminal state counts as
// a caller disconnect. Close is idempotent.
func (r *Relay) Close() error {
	if r.finish(CallerDisconnected) {
		r.log.Debug().Int("fragments", r.Fragments()).Msg("relay closed by caller")
	}
	return nil
}

// Drain copies every fragment into w, calling flush after each one. It stops
// at the first write error and closes the relay in all cases.
func (r *Relay) Drain(w io.Writer, flush func()) (int64, error) {
	defer r.Close()
	var n int64
	for {
		frag, err := r.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return n, nil
			}
			return n, err
		}
		m, werr := io.WriteString(w, frag)
		n += int64(m)
		if werr != nil {
			return n, werr
		}
		if flush != nil {
			flush()
		}
	}
}

func (r *Relay) begin() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state.Terminal() {
		return false
	}
	r.state = Streaming
	return true
}

func (r *Relay) count() {
	r.mu.Lock()
	r.fragments++
	r.mu.Unlock()
	fragmentsTotal.Inc()
}

func (r *Relay) skip(line []byte, err error) {
	r.mu.Lock()
	r.skipped++
	r.mu.Unlock()
	skippedLinesTotal.Inc()
	if len(line) > 120 {
		line = line[:120]
	}
	r.log.Warn().Err(err).Bytes("line", line).Msg("skipping undecodable backend line")
}

// readFailed classifies a read error into a terminal state.
func (r *Relay) readFailed(err error) (string, error) {
	if cerr := r.ctx.Err(); cerr != nil {
		if errors.Is(cerr, context.DeadlineExceeded) {
			return r.fault(fault.DetailTimeout)
		}
		if r.finish(CallerDisconnected) {
			r.log.Debug().Int("fragments", r.Fragments()).Msg("caller disconnected mid-stream")
			return "", cerr
		}
		return "", io.EOF
	}
	if errors.Is(err, io.EOF) {
		return r.fault(reasonEOF)
	}
	r.log.Warn().Err(err).Msg("backend read failed mid-stream")
	return r.fault(reasonLost)
}

// fault emits the single trailing marker and closes.
func (r *Relay) fault(reason string) (string, error) {
	if !r.finish(FaultedClosed) {
		return "", io.EOF
	}
	r.log.Warn().Str("reason", reason).Int("fragments", r.Fragments()).Msg("stream faulted")
	r.count()
	return Marker(reason), nil
}

// finish moves to a terminal state and releases the body. It reports false
// if the relay was already terminal.
func (r *Relay) finish(to State) bool {
	r.mu.Lock()
	if r.state.Terminal() {
		r.mu.Unlock()
		return false
	}
	r.state = to
	r.mu.Unlock()
	r.closeOnce.Do(func() {
		_ = r.body.Close()
		if r.release != nil {
			r.release()
		}
	})
	streamsTotal.WithLabelValues(to.String()).Inc()
	return true
}
