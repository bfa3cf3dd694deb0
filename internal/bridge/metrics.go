package bridge

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	callsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "genaibridge",
			Subsystem: "bridge",
			Name:      "calls_total",
			Help:      "Total bridge operations by outcome",
		},
		[]string{"op", "outcome"},
	)

	callDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "genaibridge",
			Subsystem: "bridge",
			Name:      "call_duration_seconds",
			Help:      "Duration of bridge operations in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"op"},
	)

	tokensTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "genaibridge",
			Subsystem: "bridge",
			Name:      "tokens_generated_total",
			Help:      "Tokens produced by generation loops",
		},
	)

	decodeSkippedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "genaibridge",
			Subsystem: "bridge",
			Name:      "decode_skipped_total",
			Help:      "Tokens whose fragment was dropped after a decode failure",
		},
	)

	configsLive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "genaibridge",
			Subsystem: "bridge",
			Name:      "configs_live",
			Help:      "Configuration handles currently registered",
		},
	)
)

func init() {
	prometheus.MustRegister(callsTotal, callDuration, tokensTotal, decodeSkippedTotal, configsLive)
}

// Operation labels.
const (
	opHealth        = "health"
	opGenerate      = "generate"
	opCreateConfig  = "create_config"
	opDestroyConfig = "destroy_config"
	opProviders     = "providers"
)

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsInput(err), IsHandle(err):
		return "rejected"
	default:
		return "error"
	}
}

// observe records one finished operation.
func observe(op string, start time.Time, err error) {
	callsTotal.WithLabelValues(op, outcomeOf(err)).Inc()
	callDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
