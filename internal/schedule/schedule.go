// Package schedule builds and extends the non-overlapping, rise-monotone
// pass schedule, using the Ephemeris Oracle to find viewing windows per
// satellite.
package schedule

import (
	"log"
	"sort"
	"time"

	"github.com/large-farva/groundctl/internal/ephemeris"
)

// Window is an accepted schedule entry: a satellite's viewing window plus
// the parsed TLE reference needed to keep tracking it.
type Window struct {
	Name string
	Rise time.Time
	Set  time.Time
	Spec ephemeris.SatelliteSpec
}

// Schedule is an ordered, rise-monotone, non-overlapping sequence of
// Windows. The zero value is an empty, valid schedule.
type Schedule struct {
	windows []Window
}

// Windows returns the schedule contents in order. The returned slice
// must not be mutated by the caller.
func (s *Schedule) Windows() []Window {
	return s.windows
}

// Len reports the number of entries.
func (s *Schedule) Len() int {
	return len(s.windows)
}

// Head returns the first (soonest) window, or the zero value and false
// if the schedule is empty.
func (s *Schedule) Head() (Window, bool) {
	if len(s.windows) == 0 {
		return Window{}, false
	}
	return s.windows[0], true
}

// PopHead removes and returns the first window. Used by the Tracker to
// consume a pass once it is dequeued for execution.
func (s *Schedule) PopHead() (Window, bool) {
	if len(s.windows) == 0 {
		return Window{}, false
	}
	w := s.windows[0]
	s.windows = s.windows[1:]
	return w, true
}

// Tail returns the last window, or zero value and false if empty.
func (s *Schedule) Tail() (Window, bool) {
	if len(s.windows) == 0 {
		return Window{}, false
	}
	return s.windows[len(s.windows)-1], true
}

// Clear empties the schedule in place.
func (s *Schedule) Clear() {
	s.windows = nil
}

// FromWindows builds a standalone Schedule from an already-ordered
// window slice, used when handing a snapshot to Builder.Append.
func FromWindows(windows []Window) *Schedule {
	return &Schedule{windows: append([]Window(nil), windows...)}
}

// Builder extends schedules by querying an Oracle per candidate
// satellite, in the input priority order.
type Builder struct {
	oracle *ephemeris.Oracle
	log    *log.Logger
}

// NewBuilder returns a Builder backed by the given Oracle.
func NewBuilder(oracle *ephemeris.Oracle, logger *log.Logger) *Builder {
	return &Builder{oracle: oracle, log: logger}
}

// Append extends existing with the first viable window for each
// satellite in toAdd (priority order), searching between the schedule's
// current tail and endUTC. It returns a new Schedule; existing is never
// mutated — entries present before the call are byte-identical after.
func (b *Builder) Append(existing *Schedule, toAdd []ephemeris.SatelliteSpec, startUTC, endUTC time.Time, observer ephemeris.Observer) *Schedule {
	out := &Schedule{windows: append([]Window(nil), existing.windows...)}

	if !startUTC.Before(endUTC) {
		// start == end (or inverted): unchanged schedule.
		return out
	}

	cursor := startUTC
	lastSet := startUTC
	hadExisting := len(out.windows) > 0
	if hadExisting {
		tail := out.windows[len(out.windows)-1]
		cursor = tail.Set
		lastSet = tail.Set
	}

	for _, spec := range toAdd {
		windows, err := b.oracle.FindWindows(spec, observer, cursor, endUTC)
		if err != nil {
			b.log.Printf("schedule: find_windows failed for %s: %v", spec.Name, err)
			continue
		}
		sort.SliceStable(windows, func(i, j int) bool {
			return windows[i].Rise.Before(windows[j].Rise)
		})

		chosen, ok := firstViable(windows, lastSet, hadExisting, cursor)
		if !ok {
			b.log.Printf("schedule: no viable window for %s in [%s, %s]", spec.Name, cursor, endUTC)
			continue
		}

		out.windows = append(out.windows, Window{
			Name: chosen.Name,
			Rise: chosen.Rise,
			Set:  chosen.Set,
			Spec: spec,
		})
		cursor = chosen.Set
		lastSet = chosen.Set
		hadExisting = true
	}

	return out
}

// firstViable selects the first window whose rise is strictly after
// lastSet (or at/after cursor when the schedule started empty).
func firstViable(windows []ephemeris.ViewingWindow, lastSet time.Time, hadExisting bool, cursor time.Time) (ephemeris.ViewingWindow, bool) {
	for _, w := range windows {
		if hadExisting {
			if w.Rise.After(lastSet) {
				return w, true
			}
		} else if !w.Rise.Before(cursor) {
			return w, true
		}
	}
	return ephemeris.ViewingWindow{}, false
}
