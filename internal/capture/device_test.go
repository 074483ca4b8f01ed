package capture

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedDeviceDescriptors(t *testing.T) {
	d := NewSimulatedDevice()
	descs := d.Descriptors()
	require.Len(t, descs, 2)
	assert.Equal(t, "sim", descs[0].Driver)
}

func TestSimulatedDeviceStreamProducesUnitMagnitudeSamples(t *testing.T) {
	d := NewSimulatedDevice()
	require.NoError(t, d.SetSampleRate(0, 2_000_000))

	stream, err := d.OpenStream(0)
	require.NoError(t, err)

	buf := make([]complex64, 16)
	n, status, err := stream.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, ReadOK, status)
	assert.Equal(t, len(buf), n)

	for _, s := range buf {
		mag := math.Hypot(float64(real(s)), float64(imag(s)))
		assert.InDelta(t, 1.0, mag, 1e-4, "a pure tone sample must sit on the unit circle")
	}
}

func TestSimulatedStreamReadFailsAfterDeactivate(t *testing.T) {
	d := NewSimulatedDevice()
	stream, err := d.OpenStream(0)
	require.NoError(t, err)

	require.NoError(t, stream.Deactivate())
	_, status, err := stream.Read(make([]complex64, 1))
	assert.Error(t, err)
	assert.Equal(t, ReadError, status)
}

func TestSimulatedDeviceDefaultsSampleRateWhenUnset(t *testing.T) {
	d := NewSimulatedDevice()
	stream, err := d.OpenStream(0)
	require.NoError(t, err)
	ss, ok := stream.(*simulatedStream)
	require.True(t, ok)
	assert.Equal(t, 2_000_000, ss.sampleRate)
}
