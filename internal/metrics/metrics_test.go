package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersEveryCollectorWithoutPanicking(t *testing.T) {
	require.NotPanics(t, func() {
		reg := New()
		require.NotNil(t, reg.Capture)
		require.NotNil(t, reg.Control)
	})
}

func TestHandlerServesMetricsAfterIncrement(t *testing.T) {
	reg := New()
	reg.Capture.BuffersProduced.Inc()
	reg.Control.CommandsProcessed.WithLabelValues("getMeta").Inc()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "groundctl_capture_buffers_produced_total 1")
	assert.Contains(t, body, `groundctl_control_commands_processed_total{command="getMeta"} 1`)
}
