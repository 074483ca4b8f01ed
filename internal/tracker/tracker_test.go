package tracker

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/large-farva/groundctl/internal/capture"
	"github.com/large-farva/groundctl/internal/ephemeris"
	"github.com/large-farva/groundctl/internal/schedule"
	"github.com/large-farva/groundctl/internal/station"
	"github.com/stretchr/testify/assert"
)

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestTracker(t *testing.T) (*Tracker, *station.State) {
	t.Helper()
	st := station.New(ephemeris.NewObserver(0, 0, 0))
	trk := New(Deps{
		State:  st,
		Oracle: ephemeris.New(),
		Log:    discardLogger(),
	})
	return trk, st
}

func TestRunOnEmptyScheduleGoesIdleImmediately(t *testing.T) {
	trk, _ := newTestTracker(t)
	done := make(chan struct{})
	go func() {
		trk.Run(make(chan struct{}))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run must return immediately when the schedule is empty")
	}
	assert.Equal(t, StateIdle, trk.CurrentState())
}

func TestWaitReturnsFalseWhenStopFiresBeforeRise(t *testing.T) {
	trk, _ := newTestTracker(t)
	w := schedule.Window{
		Name: "SAT-1",
		Rise: time.Now().UTC().Add(time.Hour),
		Set:  time.Now().UTC().Add(time.Hour + time.Minute),
	}

	stop := make(chan struct{})
	close(stop)

	ok := trk.wait(w, stop)
	assert.False(t, ok, "wait must abort immediately once stop is already closed")
	assert.Equal(t, StateWaiting, trk.CurrentState())
}

func TestWaitReturnsTrueOnceRiseHasPassed(t *testing.T) {
	trk, _ := newTestTracker(t)
	w := schedule.Window{
		Name: "SAT-1",
		Rise: time.Now().UTC().Add(-time.Second),
		Set:  time.Now().UTC().Add(time.Minute),
	}
	ok := trk.wait(w, make(chan struct{}))
	assert.True(t, ok)
}

func TestCapturePlanModeMapping(t *testing.T) {
	assert.Equal(t, capture.ModeSingle, capturePlanMode(station.TunerSingle))
	assert.Equal(t, capture.ModeDual, capturePlanMode(station.TunerDual))
}

func TestAbsf(t *testing.T) {
	assert.Equal(t, 2.0, absf(-2.0))
	assert.Equal(t, 2.0, absf(2.0))
}
