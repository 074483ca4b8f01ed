package capture

import (
	"encoding/binary"
	"math"
	"os"
)

// BlockSize is the filesystem-friendly alignment unit capture files are
// padded to, a performance contract rather than a correctness one.
const BlockSize = 131072

// bytesPerComplexSample is 4 bytes I + 4 bytes Q (32-bit float each).
const bytesPerComplexSample = 8

// blockWriter accumulates little-endian interleaved complex-float32
// bytes and flushes in BlockSize-aligned writes, zero-padding only the
// final partial block on Close.
type blockWriter struct {
	f        *os.File
	buf      []byte
	total    int64 // bytes of real sample data written so far (excludes padding)
}

func newBlockWriter(f *os.File) *blockWriter {
	return &blockWriter{f: f, buf: make([]byte, 0, BlockSize)}
}

// createFile opens path for create+write, truncating any existing file
// of the same name.
func createFile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
}

// WriteSamples appends a buffer of complex samples, flushing whenever a
// full block has accumulated.
func (w *blockWriter) WriteSamples(samples []complex64) error {
	raw := make([]byte, len(samples)*bytesPerComplexSample)
	for i, s := range samples {
		off := i * bytesPerComplexSample
		binary.LittleEndian.PutUint32(raw[off:], math.Float32bits(real(s)))
		binary.LittleEndian.PutUint32(raw[off+4:], math.Float32bits(imag(s)))
	}
	w.total += int64(len(raw))
	w.buf = append(w.buf, raw...)

	for len(w.buf) >= BlockSize {
		if _, err := w.f.Write(w.buf[:BlockSize]); err != nil {
			return err
		}
		w.buf = w.buf[BlockSize:]
	}
	return nil
}

// Close pads any residual partial block with zero bytes, writes it,
// flushes to durable storage, and closes the file. Padding is applied
// only when the residual does not already fill a block, and padding
// bytes are exactly zero.
func (w *blockWriter) Close() error {
	if len(w.buf) > 0 {
		padded := make([]byte, BlockSize)
		copy(padded, w.buf)
		if _, err := w.f.Write(padded); err != nil {
			w.f.Close()
			return err
		}
		w.buf = nil
	}
	if err := w.f.Sync(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

// TotalBytes returns the count of real (non-padding) sample bytes
// written so far.
func (w *blockWriter) TotalBytes() int64 {
	return w.total
}
