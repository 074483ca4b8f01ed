package ephemeris

import (
	_ "embed"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

//go:embed sample_tle.txt
var embeddedSampleTLE string

const cacheFileName = "tle_cache.txt"

// Store fetches and caches TLE data from a bulk-dump URL (e.g. CelesTrak),
// falling back through fresh cache -> network -> stale cache -> an
// embedded sample set baked into the binary. It keeps every satellite
// found in the dump, keyed by NORAD catalog number, so the operator's
// queue is not limited to a fixed satellite list.
type Store struct {
	url      string
	dataRoot string
	maxAge   time.Duration
}

// NewStore returns a Store that fetches from url and caches under
// dataRoot, treating cached data as fresh for refreshHours.
func NewStore(url, dataRoot string, refreshHours int) *Store {
	return &Store{
		url:      url,
		dataRoot: dataRoot,
		maxAge:   time.Duration(refreshHours) * time.Hour,
	}
}

// Fetch returns every parseable satellite spec in the current TLE data
// set, keyed by NORAD catalog number.
func (s *Store) Fetch() (map[int]SatelliteSpec, error) {
	raw, err := s.loadOrFetch(s.cachePath())
	if err != nil {
		return nil, err
	}
	return s.parseAll(raw)
}

// ForceRefresh bypasses the cache-age check and always attempts a
// network fetch, falling back to stale cache or the embedded set only
// if the network is unreachable.
func (s *Store) ForceRefresh() (map[int]SatelliteSpec, error) {
	body, err := s.fetchFromNetwork()
	if err == nil {
		_ = s.writeCache(s.cachePath(), body)
		return s.parseAll(body)
	}
	raw, loadErr := s.loadOrFetch(s.cachePath())
	if loadErr != nil {
		return nil, fmt.Errorf("force refresh: network failed (%v) and no fallback available: %w", err, loadErr)
	}
	return s.parseAll(raw)
}

func (s *Store) cachePath() string {
	return filepath.Join(s.dataRoot, cacheFileName)
}

// loadOrFetch walks the four-tier fallback chain to get raw TLE text:
// fresh cache -> network -> stale cache -> embedded data.
func (s *Store) loadOrFetch(cachePath string) (string, error) {
	info, err := os.Stat(cachePath)
	if err == nil && time.Since(info.ModTime()) < s.maxAge {
		if b, readErr := os.ReadFile(cachePath); readErr == nil && len(b) > 0 {
			return string(b), nil
		}
	}

	body, fetchErr := s.fetchFromNetwork()
	if fetchErr == nil {
		_ = s.writeCache(cachePath, body)
		return body, nil
	}

	if b, readErr := os.ReadFile(cachePath); readErr == nil && len(b) > 0 {
		return string(b), nil
	}

	if embeddedSampleTLE != "" {
		return embeddedSampleTLE, nil
	}

	return "", fmt.Errorf("all TLE sources exhausted: %w", fetchErr)
}

func (s *Store) fetchFromNetwork() (string, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(s.url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("TLE fetch returned HTTP %d", resp.StatusCode)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// writeCache atomically writes data to cachePath via a temp file and
// rename so readers never see a half-written file.
func (s *Store) writeCache(cachePath, data string) error {
	dir := filepath.Dir(cachePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "tle-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.WriteString(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), cachePath)
}

// parseAll extracts every parseable TLE group from a bulk dump in
// standard 3-line format (name, line 1, line 2), as served by CelesTrak.
func (s *Store) parseAll(raw string) (map[int]SatelliteSpec, error) {
	result := make(map[int]SatelliteSpec)
	lines := strings.Split(strings.TrimSpace(raw), "\n")

	for i := 0; i+2 < len(lines); i += 3 {
		name := strings.TrimSpace(lines[i])
		l1 := strings.TrimSpace(lines[i+1])
		l2 := strings.TrimSpace(lines[i+2])

		spec, err := ParseSatelliteSpec(name, l1, l2, nil)
		if err != nil {
			continue
		}
		result[spec.ref.SatelliteNumber] = spec
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("no parseable TLEs found in %d lines of input", len(lines))
	}
	return result, nil
}
