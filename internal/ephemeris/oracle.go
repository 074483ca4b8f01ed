// Package ephemeris wraps SGP4 orbital propagation behind a small,
// side-effect-free interface: viewing windows (rise/set pairs) for a
// satellite over an observer location, and instantaneous azimuth/
// elevation. It holds no mutable state beyond the process-wide SGP4
// time scale the underlying library manages internally.
package ephemeris

import (
	"errors"
	"fmt"
	"time"

	"github.com/akhenakh/sgp4"
)

// Errors returned by this package. Callers should use errors.Is.
var (
	// ErrBadTLE is returned when line1/line2 fail to parse as a valid TLE.
	ErrBadTLE = errors.New("ephemeris: malformed TLE")
	// ErrNoObservableWindow is returned when a satellite has no rise/set
	// pair inside the requested window.
	ErrNoObservableWindow = errors.New("ephemeris: no observable window")
)

// Observer is a ground station position. Latitude/Longitude are degrees,
// Elevation is meters above sea level. TimezoneID is derived once at
// construction from (Lat, Lon) as a display label; it plays no part in
// any time comparison, all of which use UTC, and no code in this module
// renders times in it.
type Observer struct {
	Latitude   float64
	Longitude  float64
	Elevation  float64
	TimezoneID string
}

// NewObserver builds an Observer and resolves its display timezone.
func NewObserver(lat, lon, elevation float64) Observer {
	return Observer{
		Latitude:   lat,
		Longitude:  lon,
		Elevation:  elevation,
		TimezoneID: timezoneFromCoordinates(lat, lon),
	}
}

// SatelliteSpec is an immutable record parsed from a TLE block, plus the
// frequencies the operator wants to record it on.
type SatelliteSpec struct {
	Name        string
	Line1       string
	Line2       string
	Frequencies []int // Hz, ordered; empty means "use a default"

	ref *sgp4.TLE
}

// ParseSatelliteSpec parses a three-line TLE group (name, line1, line2)
// and associates it with the given frequency list.
func ParseSatelliteSpec(name, line1, line2 string, freqs []int) (SatelliteSpec, error) {
	group := fmt.Sprintf("%s\n%s\n%s", name, line1, line2)
	tle, err := sgp4.ParseTLE(group)
	if err != nil {
		return SatelliteSpec{}, fmt.Errorf("%w: %v", ErrBadTLE, err)
	}
	return SatelliteSpec{
		Name:        name,
		Line1:       line1,
		Line2:       line2,
		Frequencies: freqs,
		ref:         tle,
	}, nil
}

// ViewingWindow is a contiguous interval during which a satellite is
// above the observer's horizon. Invariant: Rise < Set.
type ViewingWindow struct {
	Name string
	Rise time.Time
	Set  time.Time
}

// Duration returns Set - Rise.
func (w ViewingWindow) Duration() time.Duration {
	return w.Set.Sub(w.Rise)
}

// Oracle computes viewing windows and pointing angles with no side
// effects. A single instance may be shared across goroutines: it
// carries no mutable state.
type Oracle struct{}

// New returns an Oracle. There is nothing to configure; SGP4 propagation
// is parameterized entirely by the SatelliteSpec and Observer passed to
// each call.
func New() *Oracle {
	return &Oracle{}
}

// FindWindows returns every viewing window for spec at observer strictly
// inside (t0, t1), ordered by rise time. Events exactly at t0 or t1 are
// treated as absent.
func (o *Oracle) FindWindows(spec SatelliteSpec, observer Observer, t0, t1 time.Time) ([]ViewingWindow, error) {
	if spec.ref == nil {
		return nil, ErrBadTLE
	}
	if !t0.Before(t1) {
		return nil, nil
	}

	raw, err := spec.ref.GeneratePasses(
		observer.Latitude, observer.Longitude, observer.Elevation,
		t0, t1,
		1, // 1-second step
	)
	if err != nil {
		return nil, fmt.Errorf("generate passes for %s: %w", spec.Name, err)
	}

	windows := make([]ViewingWindow, 0, len(raw))
	for _, p := range raw {
		if !p.AOS.After(t0) || !p.LOS.Before(t1) {
			continue
		}
		if !p.AOS.Before(p.LOS) {
			continue
		}
		windows = append(windows, ViewingWindow{
			Name: spec.Name,
			Rise: p.AOS,
			Set:  p.LOS,
		})
	}
	if len(windows) == 0 {
		return nil, ErrNoObservableWindow
	}
	return windows, nil
}

// AzEl returns the instantaneous azimuth (0-360) and elevation (-90..90)
// of spec as seen from observer at t.
func (o *Oracle) AzEl(spec SatelliteSpec, observer Observer, t time.Time) (az, el float64, err error) {
	if spec.ref == nil {
		return 0, 0, ErrBadTLE
	}
	az, el, err = spec.ref.AzEl(observer.Latitude, observer.Longitude, observer.Elevation, t)
	if err != nil {
		return 0, 0, fmt.Errorf("azel for %s: %w", spec.Name, err)
	}
	return az, el, nil
}
