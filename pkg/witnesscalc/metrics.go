package witnesscalc

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/iden3/circom-witnesscalc-go/internal/bridge"
	"github.com/iden3/circom-witnesscalc-go/pkg/witnesscalc/logging"
)

const (
	outcomeOK      = "ok"
	outcomeError   = "error"
	outcomeUnknown = "unknown"
)

type metrics struct {
	calls        *prometheus.CounterVec
	duration     prometheus.Histogram
	witnessBytes prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer, logger logging.Logger) *metrics {
	return &metrics{
		calls: register(reg, logger, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "witnesscalc_calls_total",
			Help: "Witness calculations by outcome.",
		}, []string{"outcome"})),
		duration: register(reg, logger, prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "witnesscalc_call_duration_seconds",
			Help:    "Wall time of witness calculations.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		})),
		witnessBytes: register(reg, logger, prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "witnesscalc_witness_bytes",
			Help:    "Size of calculated witnesses.",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		})),
	}
}

// register adds c to reg, reusing a collector registered earlier by another
// Calculator on the same registry. Other registration failures are logged
// and c is still returned, so the calculator works with that metric
// unexported.
func register[C prometheus.Collector](reg prometheus.Registerer, logger logging.Logger, c C) C {
	if reg == nil {
		return c
	}
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing
		}
	}
	logger.Warn(context.Background(), "metric not registered", "error", err)
	return c
}

func outcome(code int) string {
	switch code {
	case bridge.StatusOK:
		return outcomeOK
	case bridge.StatusError:
		return outcomeError
	default:
		return outcomeUnknown
	}
}

func (m *metrics) observe(code int, elapsed time.Duration, witnessSize uint64) {
	m.calls.WithLabelValues(outcome(code)).Inc()
	m.duration.Observe(elapsed.Seconds())
	if code == bridge.StatusOK {
		m.witnessBytes.Observe(float64(witnessSize))
	}
}
