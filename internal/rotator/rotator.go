// Package rotator drives the azimuth/elevation rotator over a
// line-oriented serial link: "MOVE <az>, <el>\n", "calibrate\n" out;
// "moved", a calibration reply, or "Error ..." back.
package rotator

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	serial "github.com/tarm/goserial"
)

// ErrOutOfReach is returned by Move when the requested position falls
// outside the rotator's reachable box: az ∈ [0,450], el ∈ [0,180].
var ErrOutOfReach = errors.New("rotator: position out of reach")

// Reachable reports whether (az, el) lies in the rotator's box.
func Reachable(az, el float64) bool {
	return az >= 0 && az <= 450 && el >= 0 && el <= 180
}

// Config holds the serial link and slew-rate parameters: the
// speed-aware pointing supplement tracks the rotator's rated
// max_elevation_speed/max_azimuth_speed.
type Config struct {
	Port               string
	Baud               int
	MaxElevationDegPerS float64
	MaxAzimuthDegPerS   float64
}

// Rotator serializes all writes to the rotator serial port behind one
// mutex.
type Rotator struct {
	cfg Config
	log *log.Logger

	mu     sync.Mutex
	port   io.ReadWriteCloser
	reader *bufio.Reader

	prevAz, prevEl float64
	havePrev       bool
}

// Open opens the configured serial port. Port/Baud default to
// "/dev/ttyUSB0"/9600 8N1 if unset.
func Open(cfg Config, logger *log.Logger) (*Rotator, error) {
	name := cfg.Port
	if name == "" {
		name = "/dev/ttyUSB0"
	}
	baud := cfg.Baud
	if baud == 0 {
		baud = 9600
	}

	port, err := serial.OpenPort(&serial.Config{Name: name, Baud: baud})
	if err != nil {
		return nil, fmt.Errorf("rotator: open %s: %w", name, err)
	}

	return &Rotator{
		cfg:    cfg,
		log:    logger,
		port:   port,
		reader: bufio.NewReader(port),
	}, nil
}

// Close releases the serial port.
func (r *Rotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.port.Close()
}

// Move sends a MOVE command if (az, el) is reachable. Returns
// ErrOutOfReach without touching the serial line otherwise.
func (r *Rotator) Move(az, el float64) (string, error) {
	if !Reachable(az, el) {
		return "", fmt.Errorf("%w: az=%.2f el=%.2f", ErrOutOfReach, az, el)
	}
	if r == nil {
		return "", errors.New("rotator: not open")
	}
	r.warnIfOverSlewRate(az, el)
	reply, err := r.send(fmt.Sprintf("MOVE %.1f, %.1f", az, el))
	if err == nil {
		r.prevAz, r.prevEl = az, el
		r.havePrev = true
	}
	return reply, err
}

// Calibrate sends the calibrate command and returns the firmware's
// reply string.
func (r *Rotator) Calibrate() (string, error) {
	return r.send("calibrate")
}

// send writes line+\n to the port under the serial mutex and reads one
// response line back: the move call is synchronous.
func (r *Rotator) send(line string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := io.WriteString(r.port, line+"\n"); err != nil {
		return "", fmt.Errorf("rotator: write: %w", err)
	}

	reply, err := r.reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("rotator: read reply: %w", err)
	}
	reply = strings.TrimSpace(reply)
	if strings.HasPrefix(reply, "Error") {
		return reply, fmt.Errorf("rotator: firmware error: %s", reply)
	}
	return reply, nil
}

// warnIfOverSlewRate logs (never blocks or fails) when the commanded
// delta would require exceeding the configured slew rate before the
// tracker's next 100ms pointing tick.
func (r *Rotator) warnIfOverSlewRate(az, el float64) {
	if !r.havePrev || r.cfg.MaxAzimuthDegPerS <= 0 || r.cfg.MaxElevationDegPerS <= 0 {
		return
	}
	const tick = 100 * time.Millisecond
	azNeeded := absf(az-r.prevAz) / r.cfg.MaxAzimuthDegPerS
	elNeeded := absf(el-r.prevEl) / r.cfg.MaxElevationDegPerS
	needed := azNeeded
	if elNeeded > needed {
		needed = elNeeded
	}
	if time.Duration(needed*float64(time.Second)) > tick {
		r.log.Printf("rotator: commanded move az=%.1f el=%.1f exceeds rated slew rate for a 100ms tick (needs ~%.3fs)", az, el, needed)
	}
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
