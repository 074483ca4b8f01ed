// Package catalog loads an operator-maintained YAML seed file of
// commonly-tracked satellites and their downlink frequencies, an
// alternative to typing a TLE and frequency block over the control
// protocol's add_to_queue for every routine pass.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/large-farva/groundctl/internal/ephemeris"
)

// Entry is one catalog satellite: its name, the two TLE lines, and the
// downlink frequencies to capture on each pass.
type Entry struct {
	Name           string `yaml:"name"`
	Line1          string `yaml:"line1"`
	Line2          string `yaml:"line2"`
	FrequenciesHz  []int  `yaml:"frequencies_hz"`
}

// Catalog is the parsed contents of a satellites.yaml seed file.
type Catalog struct {
	Satellites []Entry `yaml:"satellites"`
}

// Load reads and parses a catalog file at path.
func Load(path string) (Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Catalog{}, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	return c, nil
}

// Specs converts every catalog entry into a SatelliteSpec plus its
// frequency list, ready to feed into a schedule.Builder.Append call
// the same way a parsed add_to_queue payload would.
func (c Catalog) Specs() ([]ephemeris.SatelliteSpec, map[string][]int, error) {
	specs := make([]ephemeris.SatelliteSpec, 0, len(c.Satellites))
	freqs := make(map[string][]int, len(c.Satellites))

	for _, e := range c.Satellites {
		spec, err := ephemeris.ParseSatelliteSpec(e.Name, e.Line1, e.Line2, e.FrequenciesHz)
		if err != nil {
			return nil, nil, fmt.Errorf("catalog: %s: %w", e.Name, err)
		}
		specs = append(specs, spec)
		if len(e.FrequenciesHz) > 0 {
			freqs[e.Name] = append([]int(nil), e.FrequenciesHz...)
		}
	}
	return specs, freqs, nil
}
