// Package health probes backend liveness under a short timeout.
package health

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"chatd/internal/fault"
	"chatd/pkg/types"
)

// Probe causes for an unhealthy result.
const (
	CauseTimeout       = "timeout"
	CauseUnreachable   = "unreachable"
	CauseBackendStatus = "backend_status"
	CauseOther         = "other"
)

var (
	backendUp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "chatd",
		Subsystem: "backend",
		Name:      "up",
		Help:      "1 if the last health probe succeeded, 0 otherwise",
	})

	probesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chatd",
		Subsystem: "backend",
		Name:      "probes_total",
		Help:      "Health probes by result",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(backendUp, probesTotal)
}

// Pinger is the backend liveness operation.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Prober reports backend health for the configured model.
type Prober struct {
	pinger  Pinger
	model   string
	timeout time.Duration
	log     zerolog.Logger
}

// NewProber returns a Prober. timeout bounds every probe in addition to
// whatever the Pinger applies itself.
func NewProber(p Pinger, model string, timeout time.Duration, log zerolog.Logger) *Prober {
	return &Prober{pinger: p, model: model, timeout: timeout, log: log}
}

// Probe pings the backend once. It never blocks longer than the timeout.
func (p *Prober) Probe(ctx context.Context) types.HealthStatus {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	start := time.Now()
	err := p.pinger.Ping(ctx)
	st := types.HealthStatus{Latency: time.Since(start)}
	if err == nil {
		st.State = types.Healthy
		st.Model = p.model
		backendUp.Set(1)
		probesTotal.WithLabelValues(string(types.Healthy)).Inc()
		return st
	}
	st.State = types.Unhealthy
	st.Cause = Cause(err)
	backendUp.Set(0)
	probesTotal.WithLabelValues(st.Cause).Inc()
	p.log.Warn().Err(err).Str("cause", st.Cause).Dur("latency", st.Latency).Msg("backend unhealthy")
	return st
}

// Cause classifies a probe error.
func Cause(err error) string {
	switch fault.KindOf(err) {
	case fault.KindTimeout:
		return CauseTimeout
	case fault.KindUnavailable:
		return CauseUnreachable
	case fault.KindBackendStatus:
		return CauseBackendStatus
	default:
		return CauseOther
	}
}
