package app

import (
	"encoding/json"
	"io"
	"log"
	"net/http/httptest"
	"testing"

	"github.com/large-farva/groundctl/internal/config"
	"github.com/large-farva/groundctl/internal/ephemeris"
	"github.com/large-farva/groundctl/internal/metrics"
	"github.com/large-farva/groundctl/internal/station"
	"github.com/large-farva/groundctl/internal/tracker"
	"github.com/large-farva/groundctl/internal/ws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	st := station.New(ephemeris.NewObserver(0, 0, 0))
	trk := tracker.New(tracker.Deps{State: st, Oracle: ephemeris.New(), Log: log.New(io.Discard, "", 0)})
	return New(Options{
		Logger:  log.New(io.Discard, "", 0),
		Cfg:     config.Default(),
		State:   st,
		Tracker: trk,
		Metrics: metrics.New(),
		Hub:     ws.NewHub(),
	})
}

func TestHandleHealthz(t *testing.T) {
	a := newTestApp(t)
	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	a.handleHealthz(rec, req)
	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestHandleStatusReportsIdleStateAndEmptySchedule(t *testing.T) {
	a := newTestApp(t)
	req := httptest.NewRequest("GET", "/api/status", nil)
	rec := httptest.NewRecorder()
	a.handleStatus(rec, req)

	require.Equal(t, 200, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, "Idle", body["tracker_state"])
	assert.Equal(t, float64(0), body["schedule_len"])
	assert.Equal(t, "single", body["tuner_mode"])
	assert.Equal(t, false, body["recording_active"])
	_, hasCurrentPass := body["current_pass"]
	assert.False(t, hasCurrentPass, "an idle tracker with no current pass must omit current_pass")
}
