package station

import (
	"testing"
	"time"

	"github.com/large-farva/groundctl/internal/ephemeris"
	"github.com/large-farva/groundctl/internal/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState() *State {
	return New(ephemeris.NewObserver(51.5, -0.12, 35))
}

func TestTunerModeSwitch(t *testing.T) {
	s := newTestState()

	mode, bw := s.TunerMode()
	assert.Equal(t, TunerSingle, mode)
	assert.Equal(t, SingleTunerBandwidthHz, bw)

	t.Run("switches_bandwidth_with_mode", func(t *testing.T) {
		ok := s.SetTunerMode(TunerDual)
		require.True(t, ok)
		mode, bw := s.TunerMode()
		assert.Equal(t, TunerDual, mode)
		assert.Equal(t, DualTunerBandwidthHz, bw)
	})

	t.Run("disallowed_while_recording", func(t *testing.T) {
		s.SetRecordingActive(true)
		ok := s.SetTunerMode(TunerSingle)
		assert.False(t, ok)
		mode, _ := s.TunerMode()
		assert.Equal(t, TunerDual, mode, "mode must be unchanged when switch is rejected")
		s.SetRecordingActive(false)
	})
}

func TestScheduleSnapshotIsIndependent(t *testing.T) {
	s := newTestState()
	base := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	w := schedule.Window{Name: "SAT-1", Rise: base, Set: base.Add(time.Minute)}
	s.ReplaceSchedule(schedule.FromWindows([]schedule.Window{w}))

	snap := s.ScheduleSnapshot()
	require.Equal(t, 1, snap.Len())

	s.ClearSchedule()
	assert.Equal(t, 1, snap.Len(), "a snapshot taken before ClearSchedule must be unaffected by it")
}

func TestNextFrequencyConsumesInOrder(t *testing.T) {
	s := newTestState()
	s.SetPendingSatellites(nil, map[string][]int{"NOAA-19": {137100000, 137912500}})

	hz, ok := s.NextFrequency("NOAA-19")
	require.True(t, ok)
	assert.Equal(t, 137100000, hz)

	hz, ok = s.NextFrequency("NOAA-19")
	require.True(t, ok)
	assert.Equal(t, 137912500, hz)

	_, ok = s.NextFrequency("NOAA-19")
	assert.False(t, ok, "frequency list must be exhausted after popping every entry")
}

func TestStopSignalIsOneShotAndResettable(t *testing.T) {
	s := newTestState()

	sig := s.StopSignal()
	select {
	case <-sig:
		t.Fatal("stop signal must not be closed before RequestStop")
	default:
	}

	s.RequestStop()
	s.RequestStop() // second call must not panic (sync.Once)
	select {
	case <-sig:
	default:
		t.Fatal("stop signal must be closed after RequestStop")
	}

	s.ResetStop()
	fresh := s.StopSignal()
	select {
	case <-fresh:
		t.Fatal("a freshly-reset stop signal must not be closed")
	default:
	}
}

func TestDefaultViewingWindowFallsBackToEightHours(t *testing.T) {
	s := newTestState()
	win := s.ViewingWindow()
	assert.WithinDuration(t, win.Start.Add(8*time.Hour), win.End, time.Second)
}
