package ephemeris

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseTLEBlock parses a TLE block: groups of three newline-separated
// lines (name, line1, line2), repeated. Leading/trailing whitespace on
// each line is tolerated. Blank lines between groups are ignored.
func ParseTLEBlock(raw string) ([]SatelliteSpec, error) {
	var lines []string
	for _, l := range strings.Split(raw, "\n") {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		lines = append(lines, l)
	}
	if len(lines)%3 != 0 {
		return nil, fmt.Errorf("%w: expected groups of 3 lines, got %d non-blank lines", ErrBadTLE, len(lines))
	}

	specs := make([]SatelliteSpec, 0, len(lines)/3)
	for i := 0; i < len(lines); i += 3 {
		spec, err := ParseSatelliteSpec(lines[i], lines[i+1], lines[i+2], nil)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// ParseFrequencyBlock parses lines of the form "NAME: f1, f2, ..." into a
// name -> ordered Hz list mapping. Whitespace around the colon and commas
// is tolerated.
func ParseFrequencyBlock(raw string) (map[string][]int, error) {
	out := make(map[string][]int)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, rest, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("frequency block: malformed line %q", line)
		}
		name = strings.TrimSpace(name)

		var freqs []int
		for _, part := range strings.Split(rest, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			hz, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("frequency block: %q is not an integer hertz value: %w", part, err)
			}
			freqs = append(freqs, hz)
		}
		out[name] = freqs
	}
	return out, nil
}

// ApplyFrequencies attaches a name -> Hz-list mapping (as parsed by
// ParseFrequencyBlock) onto a slice of SatelliteSpec, matching by name.
// Satellites absent from freqs keep an empty frequency list (the
// documented "use a default center frequency" behavior).
func ApplyFrequencies(specs []SatelliteSpec, freqs map[string][]int) []SatelliteSpec {
	out := make([]SatelliteSpec, len(specs))
	for i, s := range specs {
		if f, ok := freqs[s.Name]; ok {
			s.Frequencies = f
		}
		out[i] = s
	}
	return out
}

// timezoneFromCoordinates derives a coarse IANA-style offset label from a
// longitude, used only to render times for human consumption. This is a
// rough approximation (15 degrees per hour, clamped to ±12 hours), not a
// real timezone database lookup; there is no setting to override it.
func timezoneFromCoordinates(lat, lon float64) string {
	offset := int(math.Round(lon / 15.0))
	if offset > 12 {
		offset = 12
	}
	if offset < -12 {
		offset = -12
	}
	if offset == 0 {
		return "UTC"
	}
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	return fmt.Sprintf("UTC%s%02d:00", sign, offset)
}
