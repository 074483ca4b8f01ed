// Package app wires together the ambient HTTP surface (health check,
// JSON status, WebSocket event stream, Prometheus metrics) around the
// Tracker and TrackerState. It owns the daemon's lifecycle outside of
// the control protocol itself.
package app

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/large-farva/groundctl/internal/config"
	"github.com/large-farva/groundctl/internal/metrics"
	"github.com/large-farva/groundctl/internal/station"
	"github.com/large-farva/groundctl/internal/telemetry"
	"github.com/large-farva/groundctl/internal/tracker"
	"github.com/large-farva/groundctl/internal/ws"
)

// Options holds everything the App needs from the caller.
type Options struct {
	Logger  *log.Logger
	Cfg     config.Config
	Bind    string
	State   *station.State
	Tracker *tracker.Tracker
	Metrics *metrics.Registry
	Hub     *ws.Hub
}

// App is the ambient HTTP surface that sits alongside the control
// protocol server: read-only status, a WebSocket telemetry feed, and
// metrics. It never mutates TrackerState.
type App struct {
	log     *log.Logger
	cfg     config.Config
	bind    string
	server  *http.Server
	state   *station.State
	tracker *tracker.Tracker
	metrics *metrics.Registry
	hub     *ws.Hub

	startedAt time.Time
}

// New creates an App. Call Run to start serving.
func New(opts Options) *App {
	return &App{
		log:       opts.Logger,
		cfg:       opts.Cfg,
		bind:      opts.Bind,
		state:     opts.State,
		tracker:   opts.Tracker,
		metrics:   opts.Metrics,
		hub:       opts.Hub,
		startedAt: time.Now(),
	}
}

// Run starts the HTTP server and the heartbeat loop. It blocks until
// the context is cancelled or the server returns an error.
func (a *App) Run(ctx context.Context) error {
	bind := a.bind
	if bind == "" && a.cfg.Server.Bind != "" {
		bind = a.cfg.Server.Bind
	}
	if bind == "" {
		bind = "0.0.0.0:8080"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", a.handleHealthz)
	mux.HandleFunc("/api/status", a.handleStatus)
	mux.Handle("/ws", a.hub.Handler())
	if a.metrics != nil {
		mux.Handle("/metrics", a.metrics.Handler())
	}

	a.server = &http.Server{
		Addr:              bind,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return err
	}

	a.log.Printf("ambient http surface listening on http://%s", bind)

	go a.hub.Run(ctx)
	go a.heartbeatLoop(ctx)

	go func() {
		<-ctx.Done()
		a.log.Printf("ambient http surface: shutdown requested")
		_ = a.server.Shutdown(context.Background())
	}()

	return a.server.Serve(ln)
}

// heartbeatLoop broadcasts a periodic heartbeat so WebSocket clients
// can detect connectivity and track uptime without polling.
func (a *App) heartbeatLoop(ctx context.Context) {
	t := time.NewTicker(10 * time.Second)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			a.hub.BroadcastJSON(telemetry.Heartbeat{
				Event:         telemetry.Event{Type: telemetry.EventHeartbeat, TS: telemetry.NowTS()},
				State:         a.tracker.CurrentState(),
				UptimeSeconds: int64(time.Since(a.startedAt).Seconds()),
			})
		}
	}
}

func (a *App) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

// handleStatus reports a read-only snapshot of TrackerState alongside
// process and disk stats. The dashboard surface never mutates state.
func (a *App) handleStatus(w http.ResponseWriter, _ *http.Request) {
	schedule := a.state.Schedule()
	mode, bandwidthHz := a.state.TunerMode()

	resp := map[string]any{
		"name":             "groundstationd",
		"tracker_state":    a.tracker.CurrentState(),
		"uptime_seconds":   int64(time.Since(a.startedAt).Seconds()),
		"data_root":        a.cfg.Data.Root,
		"archive_dir":      a.cfg.Data.Archive,
		"tracking_active":  a.state.TrackingActive(),
		"recording_active": a.state.RecordingActive(),
		"tuner_mode":       mode.String(),
		"bandwidth_hz":     bandwidthHz,
		"schedule_len":     len(schedule),
		"processed_len":    len(a.state.Processed()),
	}
	if w, ok := a.state.CurrentPass(); ok {
		resp["current_pass"] = w.Name
	}
	if du := diskUsage(a.cfg.Data.Root); du != nil {
		resp["disk"] = du
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
