package capture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockWriterPadding(t *testing.T) {
	dir := t.TempDir()

	t.Run("partial_block_is_zero_padded_to_block_size", func(t *testing.T) {
		path := filepath.Join(dir, "partial.iq")
		f, err := createFile(path)
		require.NoError(t, err)

		w := newBlockWriter(f)
		samples := make([]complex64, 10)
		for i := range samples {
			samples[i] = complex(float32(i), float32(-i))
		}
		require.NoError(t, w.WriteSamples(samples))
		wantReal := int64(len(samples) * bytesPerComplexSample)
		assert.Equal(t, wantReal, w.TotalBytes())
		require.NoError(t, w.Close())

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, int64(BlockSize), info.Size(), "partial block must be padded up to BlockSize")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		for _, b := range data[wantReal:] {
			assert.Equal(t, byte(0), b, "padding bytes must be exactly zero")
		}
	})

	t.Run("exact_multiple_of_block_size_needs_no_padding", func(t *testing.T) {
		path := filepath.Join(dir, "exact.iq")
		f, err := createFile(path)
		require.NoError(t, err)

		w := newBlockWriter(f)
		perSample := bytesPerComplexSample
		n := BlockSize / perSample
		samples := make([]complex64, n)
		require.NoError(t, w.WriteSamples(samples))
		require.NoError(t, w.Close())

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, int64(BlockSize), info.Size())
	})

	t.Run("multiple_writes_flush_full_blocks_incrementally", func(t *testing.T) {
		path := filepath.Join(dir, "incremental.iq")
		f, err := createFile(path)
		require.NoError(t, err)

		w := newBlockWriter(f)
		n := BlockSize/bytesPerComplexSample + 5
		chunk := make([]complex64, n/2)
		require.NoError(t, w.WriteSamples(chunk))
		require.NoError(t, w.WriteSamples(chunk))
		require.NoError(t, w.Close())

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, int64(2*BlockSize), info.Size())
	})
}

func TestAdmissionCheck(t *testing.T) {
	plan := Plan{
		Mode:         ModeSingle,
		SampleRateHz: 2_000_000,
		DurationS:    60,
	}
	gb := plan.ProjectedSizeGB()
	require.Greater(t, gb, 0.0)

	t.Run("rejects_when_projection_exceeds_remaining_capacity", func(t *testing.T) {
		err := AdmissionCheck(plan, gb, gb-0.001)
		assert.ErrorIs(t, err, ErrInsufficientSpace)
	})

	t.Run("accepts_when_projection_fits", func(t *testing.T) {
		err := AdmissionCheck(plan, 0, gb+1)
		assert.NoError(t, err)
	})

	t.Run("dual_mode_doubles_projection", func(t *testing.T) {
		dual := plan
		dual.Mode = ModeDual
		assert.InDelta(t, gb*2, dual.ProjectedSizeGB(), 1e-9)
	})
}
