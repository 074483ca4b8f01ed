package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureYAML = `
satellites:
  - name: "ISS (ZARYA)"
    line1: "1 25544U 98067A   08264.51782528 -.00002182  00000-0 -11606-4 0  2927"
    line2: "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.72125391563537"
    frequencies_hz: [437800000]
  - name: "NO-FREQ-SAT"
    line1: "1 25544U 98067A   08264.51782528 -.00002182  00000-0 -11606-4 0  2927"
    line2: "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.72125391563537"
`

func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "satellites.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixtureYAML), 0o644))
	return path
}

func TestLoadAndSpecs(t *testing.T) {
	path := writeFixture(t)

	cat, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cat.Satellites, 2)

	specs, freqs, err := cat.Specs()
	require.NoError(t, err)
	require.Len(t, specs, 2)

	assert.Equal(t, "ISS (ZARYA)", specs[0].Name)
	assert.Equal(t, []int{437800000}, freqs["ISS (ZARYA)"])

	_, hasFreq := freqs["NO-FREQ-SAT"]
	assert.False(t, hasFreq, "an entry with no frequencies_hz must not appear in the freqs map")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSpecsRejectsBadTLE(t *testing.T) {
	cat := Catalog{Satellites: []Entry{{Name: "BAD", Line1: "garbage", Line2: "garbage"}}}
	_, _, err := cat.Specs()
	assert.Error(t, err)
}
