// Package tracker runs the pass-by-pass state machine:
// Idle -> Waiting(window) -> Capturing(window) ->
// Completed(window) -> Idle | Stopped.
package tracker

import (
	"log"
	"sync"
	"time"

	"github.com/large-farva/groundctl/internal/capture"
	"github.com/large-farva/groundctl/internal/ephemeris"
	"github.com/large-farva/groundctl/internal/metrics"
	"github.com/large-farva/groundctl/internal/rotator"
	"github.com/large-farva/groundctl/internal/schedule"
	"github.com/large-farva/groundctl/internal/station"
	"github.com/large-farva/groundctl/internal/telemetry"
	"github.com/large-farva/groundctl/internal/ws"
)

// State names are used verbatim for telemetry/status reporting.
const (
	StateIdle      = "Idle"
	StateWaiting   = "Waiting"
	StateCapturing = "Capturing"
	StateCompleted = "Completed"
	StateStopped   = "Stopped"
)

const (
	waitTick    = 500 * time.Millisecond
	pointTick   = 100 * time.Millisecond
	deadbandDeg = 1.0
)

// Deps bundles the collaborators the Tracker needs, all owned
// elsewhere: the oracle and rotator are opaque collaborators, and the
// engine constructor lets each pass build its own capture.Engine bound
// to the configured device.
type Deps struct {
	State       *station.State
	Oracle      *ephemeris.Oracle
	Rotator     *rotator.Rotator
	EngineFor   func() *capture.Engine
	SampleRate  int
	Gain        float64
	OutputDir   string
	StorageCapGB float64
	UsedGB      func() float64
	Metrics     *metrics.Capture
	Hub         *ws.Hub
	Log         *log.Logger
}

// Tracker runs the single process-wide tracking task. Run is started by
// the control server's start_tracking handler, which does not start
// another while tracking_active is set.
type Tracker struct {
	deps Deps

	mu    sync.Mutex
	state string
}

// New returns a Tracker in the Idle state.
func New(deps Deps) *Tracker {
	return &Tracker{deps: deps, state: StateIdle}
}

// CurrentState reports the state machine's current label, for the
// ambient status surface.
func (t *Tracker) CurrentState() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Tracker) setState(s string) {
	t.mu.Lock()
	prev := t.state
	t.state = s
	t.mu.Unlock()
	t.deps.State.SetTrackingActive(s != StateIdle && s != StateStopped)
	t.broadcastState(prev, s)
}

// Run is the blocking top-level loop, started in a goroutine by the
// control server on "start_tracking" and returning when the schedule is
// empty or the stop flag is asserted. The next start_tracking starts
// Run again in a fresh goroutine.
func (t *Tracker) Run(stop <-chan struct{}) {
	for {
		w, ok := t.deps.State.DequeueHead()
		if !ok {
			t.setState(StateIdle)
			return
		}

		if !t.wait(w, stop) {
			t.setState(StateStopped)
			return
		}

		partial := t.capture(w, stop)
		t.setState(StateCompleted)
		t.deps.State.AppendProcessed(w, partial)
		if partial {
			t.deps.Metrics.PassesFailed.Inc()
		} else {
			t.deps.Metrics.PassesCompleted.Inc()
		}
		t.deps.State.SetCurrentPass(nil)

		select {
		case <-stop:
			t.setState(StateStopped)
			return
		default:
		}
	}
}

// wait blocks in waitTick increments until w.Rise, checking stop each
// tick. Returns false if stopped.
func (t *Tracker) wait(w schedule.Window, stop <-chan struct{}) bool {
	t.setState(StateWaiting)
	t.deps.State.SetCurrentPass(&w)

	for {
		remaining := time.Until(w.Rise)
		if remaining <= 0 {
			return true
		}
		tick := waitTick
		if remaining < tick {
			tick = remaining
		}
		select {
		case <-stop:
			return false
		case <-time.After(tick):
		}
	}
}

// capture spawns the capture engine for the pass duration and runs the
// pointing loop concurrently. Returns true if the pass should be
// recorded as partial (failed).
func (t *Tracker) capture(w schedule.Window, stop <-chan struct{}) bool {
	t.setState(StateCapturing)

	duration := w.Set.Sub(time.Now().UTC())
	if duration <= 0 {
		return true
	}

	freqHz, ok := t.deps.State.NextFrequency(w.Name)
	if !ok {
		freqHz = 100_000_000 // default center frequency when none configured
	}

	mode, bandwidthHz := t.deps.State.TunerMode()
	plan := capture.Plan{
		Name:         w.Name,
		CenterFreqHz: freqHz,
		GainDB:       t.deps.Gain,
		Mode:         capturePlanMode(mode),
		BandwidthHz:  bandwidthHz,
		SampleRateHz: t.deps.SampleRate,
		DurationS:    duration.Seconds(),
		OutputDir:    t.deps.OutputDir,
	}

	if err := capture.AdmissionCheck(plan, t.deps.UsedGB(), t.deps.StorageCapGB); err != nil {
		t.deps.Log.Printf("tracker: admission refused for %s: %v", w.Name, err)
		return true
	}

	t.deps.State.SetRecordingActive(true)
	defer t.deps.State.SetRecordingActive(false)

	captureStop := make(chan struct{})
	engineDone := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	var results []capture.Result
	go func() {
		defer wg.Done()
		defer close(engineDone)
		results = t.deps.EngineFor().Run(plan, captureStop)
	}()

	t.pointingLoop(w, stop, captureStop, engineDone)

	select {
	case <-captureStop:
	default:
		close(captureStop)
	}
	wg.Wait()

	for _, r := range results {
		if r.Err != nil {
			t.deps.Log.Printf("tracker: channel %d failed for %s: %v", r.Channel, w.Name, r.Err)
			return true
		}
	}
	return false
}

// pointingLoop polls azel every pointTick and emits a MOVE command when
// angular change exceeds deadbandDeg. It returns when now >= w.Set,
// stop fires, captureStop fires, or engineDone fires — the capture
// engine finishing early (duration reached ahead of w.Set) or failing
// outright both end the pass, so the rotator should stop chasing it.
func (t *Tracker) pointingLoop(w schedule.Window, stop <-chan struct{}, captureStop chan struct{}, engineDone <-chan struct{}) {
	var prevAz, prevEl float64
	first := true

	ticker := time.NewTicker(pointTick)
	defer ticker.Stop()

	for {
		now := time.Now().UTC()
		if !now.Before(w.Set) {
			return
		}

		select {
		case <-stop:
			return
		case <-captureStop:
			return
		case <-engineDone:
			return
		case <-ticker.C:
		}

		now = time.Now().UTC()
		az, el, err := t.deps.Oracle.AzEl(w.Spec, t.deps.State.Observer(), now)
		if err != nil {
			t.deps.Log.Printf("tracker: azel failed for %s: %v", w.Name, err)
			continue
		}

		if !rotator.Reachable(az, el) {
			t.deps.Log.Printf("tracker: %s below horizon / out of reach (az=%.1f el=%.1f)", w.Name, az, el)
			continue
		}

		if first || absf(az-prevAz) > deadbandDeg || absf(el-prevEl) > deadbandDeg {
			if _, err := t.deps.Rotator.Move(az, el); err != nil {
				t.deps.Log.Printf("tracker: move failed for %s: %v", w.Name, err)
			}
			prevAz, prevEl = az, el
			first = false
		}
	}
}

func (t *Tracker) broadcastState(from, to string) {
	if t.deps.Hub == nil {
		return
	}
	t.deps.Hub.BroadcastJSON(telemetry.StateTransition{
		Event: telemetry.Event{Type: telemetry.EventState, TS: telemetry.NowTS()},
		From:  from,
		To:    to,
	})
}

func capturePlanMode(m station.TunerMode) capture.Mode {
	if m == station.TunerDual {
		return capture.ModeDual
	}
	return capture.ModeSingle
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
