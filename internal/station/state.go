// Package station holds the single TrackerState instance shared
// between the Control Server and the Tracker, guarded by one mutex
// under a single-writer discipline.
package station

import (
	"sync"
	"time"

	"github.com/large-farva/groundctl/internal/ephemeris"
	"github.com/large-farva/groundctl/internal/schedule"
)

// TunerMode selects how many SDR channels are active.
type TunerMode int

const (
	TunerSingle TunerMode = iota
	TunerDual
)

func (m TunerMode) String() string {
	if m == TunerDual {
		return "dual"
	}
	return "single"
}

// Bandwidth defaults for set_single_tuner / set_dual_tuner.
const (
	SingleTunerBandwidthHz = 10_000_000
	DualTunerBandwidthHz   = 2_000_000
)

// ProcessedWindow is a completed (or partially completed) pass.
type ProcessedWindow struct {
	Window  schedule.Window
	Partial bool
}

// ViewingWindowRange is the operator-configured capture window, distinct
// from any individual satellite's rise/set ViewingWindow.
type ViewingWindowRange struct {
	Start time.Time
	End   time.Time
}

// State is the mutable shared record. All access must go through the
// accessor/mutator methods below, which take mu internally; callers
// never touch the fields directly.
type State struct {
	mu sync.Mutex

	schedule          schedule.Schedule
	processed         []ProcessedWindow
	pendingSatellites []ephemeris.SatelliteSpec
	frequencies       map[string][]int
	viewingWindow     *ViewingWindowRange // nil means "use default"
	observer          ephemeris.Observer
	tunerMode         TunerMode
	bandwidthHz       int
	trackingActive    bool
	recordingActive   bool
	stopFlag          chan struct{}
	stopOnce          sync.Once
	currentPass       *schedule.Window
}

// New returns a State seeded with the given observer and a single
// tuner mode at its default bandwidth.
func New(observer ephemeris.Observer) *State {
	return &State{
		frequencies: make(map[string][]int),
		observer:    observer,
		tunerMode:   TunerSingle,
		bandwidthHz: SingleTunerBandwidthHz,
		stopFlag:    make(chan struct{}),
	}
}

// Observer returns the current observer location.
func (s *State) Observer() ephemeris.Observer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.observer
}

// SetObserverCoordinates updates latitude/longitude in place (setCord).
func (s *State) SetObserverCoordinates(lat, lon float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer.Latitude = lat
	s.observer.Longitude = lon
}

// ViewingWindow returns the configured capture window, or the default
// [now, now+8h] if none has been set.
func (s *State) ViewingWindow() ViewingWindowRange {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.viewingWindow != nil {
		return *s.viewingWindow
	}
	now := time.Now().UTC()
	return ViewingWindowRange{Start: now, End: now.Add(8 * time.Hour)}
}

// SetViewingWindow sets an explicit capture window (setViewingWindow).
func (s *State) SetViewingWindow(start, end time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewingWindow = &ViewingWindowRange{Start: start, End: end}
}

// ClearSchedule empties the schedule (clear_schedule).
func (s *State) ClearSchedule() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedule.Clear()
}

// Schedule returns a copy of the current schedule's windows.
func (s *State) Schedule() []schedule.Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]schedule.Window(nil), s.schedule.Windows()...)
}

// ScheduleSnapshot returns a standalone copy of the current schedule,
// suitable as the "existing" argument to schedule.Builder.Append
// without holding s's lock across the build.
func (s *State) ScheduleSnapshot() *schedule.Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return schedule.FromWindows(s.schedule.Windows())
}

// ReplaceSchedule installs a newly-built schedule (the Schedule Builder
// always returns a fresh value rather than mutating in place).
func (s *State) ReplaceSchedule(next *schedule.Schedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedule = *next
}

// DequeueHead pops the first window off the schedule for the Tracker to
// run. Only the Tracker calls this.
func (s *State) DequeueHead() (schedule.Window, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedule.PopHead()
}

// Processed returns a copy of the processed list.
func (s *State) Processed() []ProcessedWindow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ProcessedWindow(nil), s.processed...)
}

// AppendProcessed records a completed (or partially completed) pass.
// Only the Tracker calls this.
func (s *State) AppendProcessed(w schedule.Window, partial bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed = append(s.processed, ProcessedWindow{Window: w, Partial: partial})
}

// PendingSatellites returns the satellites of the most recent
// add_to_queue (or startup catalog) batch, which has already been built
// into the schedule.
func (s *State) PendingSatellites() []ephemeris.SatelliteSpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ephemeris.SatelliteSpec(nil), s.pendingSatellites...)
}

// SetPendingSatellites replaces the pending list and merges per-name
// frequency overrides (add_to_queue).
func (s *State) SetPendingSatellites(specs []ephemeris.SatelliteSpec, freqs map[string][]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingSatellites = specs
	for name, f := range freqs {
		s.frequencies[name] = f
	}
}

// NextFrequency pops the next configured frequency for name, or returns
// ok=false if none remain (the caller then uses a default center
// frequency).
func (s *State) NextFrequency(name string) (hz int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.frequencies[name]
	if len(list) == 0 {
		return 0, false
	}
	hz = list[0]
	s.frequencies[name] = list[1:]
	return hz, true
}

// TunerMode returns the current tuner mode and bandwidth.
func (s *State) TunerMode() (TunerMode, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tunerMode, s.bandwidthHz
}

// SetTunerMode switches mode and its paired bandwidth atomically —
// tuner_mode and bandwidth_hz are logically coupled. Returns false
// without changing state if recording is active: switching tuner mode
// is disallowed while recording_active.
func (s *State) SetTunerMode(mode TunerMode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordingActive {
		return false
	}
	s.tunerMode = mode
	if mode == TunerDual {
		s.bandwidthHz = DualTunerBandwidthHz
	} else {
		s.bandwidthHz = SingleTunerBandwidthHz
	}
	return true
}

// TrackingActive reports whether the Tracker's state machine is
// currently running (not Idle/Stopped).
func (s *State) TrackingActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trackingActive
}

// SetTrackingActive updates the tracking_active flag.
func (s *State) SetTrackingActive(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trackingActive = v
}

// RecordingActive reports whether a capture is in flight. At most one
// runs at any instant, enforced by the Tracker only ever running one
// pass at a time.
func (s *State) RecordingActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordingActive
}

// SetRecordingActive updates the recording_active flag.
func (s *State) SetRecordingActive(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordingActive = v
}

// CurrentPass returns the pass presently being tracked, if any.
func (s *State) CurrentPass() (schedule.Window, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentPass == nil {
		return schedule.Window{}, false
	}
	return *s.currentPass, true
}

// SetCurrentPass records (or clears, with nil) the in-flight pass.
func (s *State) SetCurrentPass(w *schedule.Window) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentPass = w
}

// RequestStop asserts the one-shot, edge-triggered stop flag. Safe to
// call multiple times; only the first call has effect (sync.Once).
func (s *State) RequestStop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopOnce.Do(func() {
		close(s.stopFlag)
	})
}

// ResetStop installs a fresh stop flag, called by the control server's
// start_tracking handler before it starts the Tracker, so each run gets
// a clean signal.
func (s *State) ResetStop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopFlag = make(chan struct{})
	s.stopOnce = sync.Once{}
}

// StopSignal returns the channel that closes when RequestStop is
// called. Callers should select on it rather than polling a bool.
func (s *State) StopSignal() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopFlag
}
