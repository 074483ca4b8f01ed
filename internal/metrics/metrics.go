// Package metrics exposes the ambient Prometheus /metrics surface:
// capture pipeline counters/gauges and a control-server command
// counter.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Capture holds the collectors the capture pipeline updates directly,
// one set shared across all channels/passes.
type Capture struct {
	QueueDepth         prometheus.Gauge
	BuffersProduced    prometheus.Counter
	BuffersConsumed    prometheus.Counter
	Overflows          prometheus.Counter
	QueueOverflowWaits prometheus.Counter
	BytesWritten       prometheus.Counter
	PassesCompleted    prometheus.Counter
	PassesFailed       prometheus.Counter
}

// Control holds the collector the control server updates.
type Control struct {
	CommandsProcessed *prometheus.CounterVec
}

// Registry bundles every collector behind one Prometheus registry and
// serves them at /metrics.
type Registry struct {
	reg     *prometheus.Registry
	Capture *Capture
	Control *Control
}

// New constructs and registers all collectors.
func New() *Registry {
	reg := prometheus.NewRegistry()

	capture := &Capture{
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "groundctl_capture_queue_depth",
			Help: "Current number of buffers waiting in the producer/consumer queue.",
		}),
		BuffersProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "groundctl_capture_buffers_produced_total",
			Help: "Sample buffers read from the SDR device.",
		}),
		BuffersConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "groundctl_capture_buffers_consumed_total",
			Help: "Sample buffers written to disk.",
		}),
		Overflows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "groundctl_capture_driver_overflows_total",
			Help: "Driver-reported stream overflow events.",
		}),
		QueueOverflowWaits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "groundctl_capture_queue_backpressure_total",
			Help: "Times the producer waited on a full queue past the bounded interval.",
		}),
		BytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "groundctl_capture_bytes_written_total",
			Help: "Sample bytes written to capture files, excluding block padding.",
		}),
		PassesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "groundctl_tracker_passes_completed_total",
			Help: "Passes that completed capture without error.",
		}),
		PassesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "groundctl_tracker_passes_failed_total",
			Help: "Passes that failed during capture (recorded as partial).",
		}),
	}

	control := &Control{
		CommandsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "groundctl_control_commands_processed_total",
			Help: "Control protocol commands processed, by command name.",
		}, []string{"command"}),
	}

	reg.MustRegister(
		capture.QueueDepth, capture.BuffersProduced, capture.BuffersConsumed,
		capture.Overflows, capture.QueueOverflowWaits, capture.BytesWritten,
		capture.PassesCompleted, capture.PassesFailed,
		control.CommandsProcessed,
	)

	return &Registry{reg: reg, Capture: capture, Control: control}
}

// Handler returns the HTTP handler to mount at /metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
