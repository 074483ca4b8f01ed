package capture

import (
	"fmt"
	"math"
	"sync"
)

// Descriptor is one entry in a device_get response, shaped like
// SoapySDR's enumerate() output (label/serial/driver).
type Descriptor struct {
	Label  string
	Serial string
	Driver string
}

// Device is the opaque SDR driver boundary: hardware access happens
// only through this interface. All calls on a single Device must be
// externally serialized by the caller's device mutex — callers must not
// rely on an implementation locking internally.
type Device interface {
	// SetSampleRate configures channel's sample rate in Hz.
	SetSampleRate(channel int, hz int) error
	// SetFrequency tunes channel to centerHz.
	SetFrequency(channel int, centerHz int) error
	// SetGain sets channel's gain in dB.
	SetGain(channel int, gainDB float64) error
	// OpenStream opens a receive stream of complex-float32 samples on
	// channel and returns it ready to Read from.
	OpenStream(channel int) (Stream, error)
	// Descriptors enumerates the devices this driver instance exposes
	// (device_get).
	Descriptors() []Descriptor
	// Close releases the underlying device handle.
	Close() error
}

// ReadStatus mirrors the SoapySDR-style stream return codes.
type ReadStatus int

const (
	ReadOK ReadStatus = iota
	ReadTimeout
	ReadOverflow
	ReadError
)

// Stream is a single receive stream on one channel of a Device.
type Stream interface {
	// Read fills buf (complex samples, I then Q pairs) and returns the
	// number of complex samples read and a status code.
	Read(buf []complex64) (n int, status ReadStatus, err error)
	// Deactivate stops sample delivery without releasing the stream.
	Deactivate() error
	// CloseStream releases the stream.
	CloseStream() error
}

// SimulatedDevice is a Device implementation that synthesizes a tone
// instead of talking to hardware, used by tests and whenever no SDR
// driver is configured.
type SimulatedDevice struct {
	mu         sync.Mutex
	sampleRate map[int]int
}

// NewSimulatedDevice returns a ready-to-use simulated device.
func NewSimulatedDevice() *SimulatedDevice {
	return &SimulatedDevice{sampleRate: make(map[int]int)}
}

func (d *SimulatedDevice) SetSampleRate(channel int, hz int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sampleRate[channel] = hz
	return nil
}

func (d *SimulatedDevice) SetFrequency(channel int, centerHz int) error { return nil }

func (d *SimulatedDevice) SetGain(channel int, gainDB float64) error { return nil }

func (d *SimulatedDevice) OpenStream(channel int) (Stream, error) {
	d.mu.Lock()
	rate := d.sampleRate[channel]
	d.mu.Unlock()
	if rate == 0 {
		rate = 2_000_000
	}
	return &simulatedStream{sampleRate: rate}, nil
}

func (d *SimulatedDevice) Descriptors() []Descriptor {
	return []Descriptor{
		{Label: "Simulated Single Tuner", Serial: "SIM-0001", Driver: "sim"},
		{Label: "Simulated Dual Tuner", Serial: "SIM-0002", Driver: "sim"},
	}
}

func (d *SimulatedDevice) Close() error { return nil }

// simulatedStream produces a synthetic tone (a 2400 Hz subcarrier,
// a typical APT subcarrier frequency) as complex samples.
type simulatedStream struct {
	sampleRate int
	sample     int64
	closed     bool
}

func (s *simulatedStream) Read(buf []complex64) (int, ReadStatus, error) {
	if s.closed {
		return 0, ReadError, fmt.Errorf("stream closed")
	}
	const toneHz = 2400.0
	for i := range buf {
		t := float64(s.sample) / float64(s.sampleRate)
		angle := 2.0 * math.Pi * toneHz * t
		buf[i] = complex(float32(math.Cos(angle)), float32(math.Sin(angle)))
		s.sample++
	}
	return len(buf), ReadOK, nil
}

func (s *simulatedStream) Deactivate() error  { s.closed = true; return nil }
func (s *simulatedStream) CloseStream() error { return nil }
