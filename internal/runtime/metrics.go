package runtime

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CommandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "termexec",
		Name:      "commands_total",
		Help:      "Terminal lines executed, labeled by result kind and error category.",
	}, []string{"kind", "category"})

	CommandDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "termexec",
		Name:      "command_duration_seconds",
		Help:      "Histogram of line execution time.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind"})

	PtyActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "termexec",
		Name:      "pty_sessions_active",
		Help:      "PTY jobs currently running.",
	})

	PtyBytesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "termexec",
		Name:      "pty_bytes_total",
		Help:      "Raw bytes read from PTY masters.",
	})

	SessionWorkers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "termexec",
		Name:      "session_workers",
		Help:      "Terminal sessions with a live worker.",
	})
)

// Collectors returns the engine's collectors for registration by the host.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{CommandsTotal, CommandDuration, PtyActive, PtyBytesTotal, SessionWorkers}
}
