package capture

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/large-farva/groundctl/internal/metrics"
	"github.com/large-farva/groundctl/internal/telemetry"
	"github.com/large-farva/groundctl/internal/ws"
)

// Tunable pipeline parameters.
const (
	DefaultBufferSize    = 1 << 17 // complex samples per producer read
	DefaultQueueCapacity = 10000   // buffers in flight between producer/consumer
	EnqueueWaitInterval  = 5 * time.Second
	DefaultStorageCapGB  = 120
)

// Errors raised by the capture pipeline.
var (
	ErrInsufficientSpace = errors.New("capture: insufficient space")
	ErrStreamError       = errors.New("capture: stream error")
)

// Plan describes a single capture: center frequency, gain, channel
// mode, and the duration to record.
type Plan struct {
	Name          string
	CenterFreqHz  int
	GainDB        float64
	Mode          Mode
	BandwidthHz   int
	SampleRateHz  int
	BytesPerSample int // 8 for complex-float32 (4+4)
	DurationS     float64
	OutputDir     string
}

// Mode is the tuner channel count selector.
type Mode int

const (
	ModeSingle Mode = iota
	ModeDual
)

func (m Mode) channels() int {
	if m == ModeDual {
		return 2
	}
	return 1
}

// ProjectedSizeGB computes the admission-control estimate:
// bytes_per_sample * sample_rate * duration * channels / 2^30.
func (p Plan) ProjectedSizeGB() float64 {
	bytesPerSample := p.BytesPerSample
	if bytesPerSample == 0 {
		bytesPerSample = bytesPerComplexSample
	}
	total := float64(bytesPerSample) * float64(p.SampleRateHz) * p.DurationS * float64(p.Mode.channels())
	return total / (1 << 30)
}

// Engine runs the producer/consumer capture pipeline for a single pass,
// one producer+consumer pair per channel, all device calls serialized
// under deviceMu.
type Engine struct {
	device   Device
	deviceMu *sync.Mutex
	hub      *ws.Hub
	metrics  *metrics.Capture
	log      *log.Logger
}

// NewEngine returns an Engine driving device, with all device calls
// serialized under deviceMu (shared across every Engine using the same
// hardware handle).
func NewEngine(device Device, deviceMu *sync.Mutex, hub *ws.Hub, m *metrics.Capture, logger *log.Logger) *Engine {
	return &Engine{device: device, deviceMu: deviceMu, hub: hub, metrics: m, log: logger}
}

// AdmissionCheck compares usedGB+plan's projected size against capGB and
// returns ErrInsufficientSpace if it would be exceeded.
func AdmissionCheck(plan Plan, usedGB, capGB float64) error {
	if usedGB+plan.ProjectedSizeGB() > capGB {
		return fmt.Errorf("%w: used=%.2fGB projected=%.2fGB cap=%.2fGB", ErrInsufficientSpace, usedGB, plan.ProjectedSizeGB(), capGB)
	}
	return nil
}

// Result summarizes one channel's completed capture.
type Result struct {
	Channel      int
	Path         string
	BytesWritten int64
	Err          error
}

// Run sets up every channel, launches its producer+consumer pair, and
// blocks until all channels finish — naturally (duration elapsed) or via
// stop being closed. Stream teardown (producers -> stream close ->
// consumers) happens inside each channel's own goroutine pair so one
// channel's teardown never blocks another's.
func (e *Engine) Run(plan Plan, stop <-chan struct{}) []Result {
	channels := plan.Mode.channels()
	results := make([]Result, channels)

	var wg sync.WaitGroup
	for c := 0; c < channels; c++ {
		wg.Add(1)
		go func(channel int) {
			defer wg.Done()
			results[channel] = e.runChannel(plan, channel, stop)
		}(c)
	}
	wg.Wait()
	return results
}

func (e *Engine) runChannel(plan Plan, channel int, stop <-chan struct{}) Result {
	e.deviceMu.Lock()
	err := errors.Join(
		e.device.SetSampleRate(channel, plan.SampleRateHz),
		e.device.SetFrequency(channel, plan.CenterFreqHz),
		e.device.SetGain(channel, plan.GainDB),
	)
	if err != nil {
		e.deviceMu.Unlock()
		return Result{Channel: channel, Err: fmt.Errorf("device setup: %w", err)}
	}
	stream, err := e.device.OpenStream(channel)
	e.deviceMu.Unlock()
	if err != nil {
		return Result{Channel: channel, Err: fmt.Errorf("open stream: %w", err)}
	}

	timestamp := time.Now().UTC().Format("2006-01-02_15-04-05")
	filename := fmt.Sprintf("%s_Frequency%d_Channel%d_%s.dat", plan.Name, plan.CenterFreqHz, channel, timestamp)
	outPath := filepath.Join(plan.OutputDir, filename)

	queue := make(chan []complex64, DefaultQueueCapacity)

	produceDone := make(chan struct{})
	go func() {
		defer close(produceDone)
		e.produce(plan, channel, stream, stop, queue)
	}()

	consumeDone := make(chan struct{})
	var bytesWritten int64
	var consumeErr error
	go func() {
		defer close(consumeDone)
		bytesWritten, consumeErr = e.consume(outPath, queue)
	}()

	// Teardown order: the stream is deactivated/closed as soon as the
	// producer exits, independent of how long the consumer takes to
	// drain the buffers already queued. Draining after the device is
	// released avoids a deadlock if the producer were still blocked on
	// device I/O.
	<-produceDone
	e.deviceMu.Lock()
	_ = stream.Deactivate()
	_ = stream.CloseStream()
	e.deviceMu.Unlock()

	<-consumeDone

	if consumeErr != nil {
		e.broadcastLog("error", fmt.Sprintf("%s channel %d capture failed: %v", plan.Name, channel, consumeErr))
		return Result{Channel: channel, Path: outPath, BytesWritten: bytesWritten, Err: consumeErr}
	}

	e.broadcastLog("info", fmt.Sprintf("%s channel %d capture finished: %d bytes -> %s", plan.Name, channel, bytesWritten, filename))
	if e.metrics != nil {
		e.metrics.BytesWritten.Add(float64(bytesWritten))
	}
	return Result{Channel: channel, Path: outPath, BytesWritten: bytesWritten}
}

// produce reads fixed-size buffers from stream and forwards them to
// queue, closing queue (the end-of-stream sentinel) on exit. Terminates
// on sample-count completion or stop.
func (e *Engine) produce(plan Plan, channel int, stream Stream, stop <-chan struct{}, queue chan<- []complex64) {
	defer close(queue)

	wantSamples := int64(float64(plan.SampleRateHz) * plan.DurationS)
	var collected int64
	scratch := make([]complex64, DefaultBufferSize)

	for collected < wantSamples {
		select {
		case <-stop:
			return
		default:
		}

		e.deviceMu.Lock()
		n, status, err := stream.Read(scratch)
		e.deviceMu.Unlock()

		switch {
		case status == ReadTimeout:
			e.log.Printf("capture: channel %d read timeout", channel)
			continue
		case status == ReadOverflow:
			e.log.Printf("capture: channel %d driver overflow", channel)
			if e.metrics != nil {
				e.metrics.Overflows.Inc()
			}
		case err != nil || status == ReadError:
			e.log.Printf("capture: channel %d stream error: %v", channel, err)
			return
		}

		if n <= 0 {
			continue
		}

		buf := make([]complex64, n)
		copy(buf, scratch[:n])
		if !e.enqueue(queue, buf, stop) {
			return
		}
		collected += int64(n)
		if e.metrics != nil {
			e.metrics.BuffersProduced.Inc()
			e.metrics.QueueDepth.Set(float64(len(queue)))
		}
	}
}

// enqueue sends buf on queue, applying a bounded-wait-then-warn
// backpressure policy: if the queue is full for longer than
// EnqueueWaitInterval, log an overflow warning and keep waiting (the
// queue is the system's backpressure, never a drop point).
func (e *Engine) enqueue(queue chan<- []complex64, buf []complex64, stop <-chan struct{}) bool {
	for {
		select {
		case queue <- buf:
			return true
		case <-stop:
			return false
		case <-time.After(EnqueueWaitInterval):
			e.log.Printf("capture: queue full for >%s, backpressure engaged", EnqueueWaitInterval)
			if e.metrics != nil {
				e.metrics.QueueOverflowWaits.Inc()
			}
		}
	}
}

// consume drains queue into a block-aligned file writer until the
// producer closes the channel, then flushes and closes the file.
func (e *Engine) consume(outPath string, queue <-chan []complex64) (int64, error) {
	f, err := createFile(outPath)
	if err != nil {
		return 0, fmt.Errorf("create capture file: %w", err)
	}
	w := newBlockWriter(f)

	for buf := range queue {
		if err := w.WriteSamples(buf); err != nil {
			w.Close()
			return w.TotalBytes(), fmt.Errorf("write samples: %w", err)
		}
		if e.metrics != nil {
			e.metrics.BuffersConsumed.Inc()
		}
	}

	if err := w.Close(); err != nil {
		return w.TotalBytes(), fmt.Errorf("close capture file: %w", err)
	}
	return w.TotalBytes(), nil
}

func (e *Engine) broadcastLog(level, message string) {
	if e.hub == nil {
		return
	}
	e.hub.BroadcastJSON(telemetry.LogLine{
		Event:     telemetry.Event{Type: telemetry.EventLog, TS: telemetry.NowTS()},
		Level:     level,
		Message:   message,
		Component: "capture",
	})
}
