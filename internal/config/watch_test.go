package config

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/require"
)

func TestWatchReloadsOnFileChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := Default()
	cfg.Data.Root = filepath.Join(dir, "data")
	cfg.Data.Archive = filepath.Join(dir, "data", "archive")
	b, err := toml.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o644))

	changed := make(chan Config, 1)
	w, err := Watch(path, log.New(io.Discard, "", 0), func(c Config) {
		changed <- c
	})
	require.NoError(t, err)
	defer w.Close()

	cfg.Control.Bind = ":55555"
	b, err = toml.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o644))

	select {
	case got := <-changed:
		require.Equal(t, ":55555", got.Control.Bind)
	case <-time.After(5 * time.Second):
		t.Fatal("expected onChange to fire after the watched file was rewritten")
	}
}
