// Package control implements the length-prefixed TCP request/response
// protocol that is the sole external mutation path for TrackerState.
package control

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/large-farva/groundctl/internal/capture"
	"github.com/large-farva/groundctl/internal/ephemeris"
	"github.com/large-farva/groundctl/internal/metrics"
	"github.com/large-farva/groundctl/internal/rotator"
	"github.com/large-farva/groundctl/internal/schedule"
	"github.com/large-farva/groundctl/internal/station"
	"github.com/large-farva/groundctl/internal/tracker"
)

// DefaultPort is the default control protocol port.
const DefaultPort = 22325

// Deps bundles every collaborator the Control Server mutates or reads
// from. Device/DataRoot/StorageCapGB/UsedGB feed admission control and
// device_get/get.
type Deps struct {
	State        *station.State
	Builder      *schedule.Builder
	Oracle       *ephemeris.Oracle
	Rotator      *rotator.Rotator
	Tracker      *tracker.Tracker
	Device       capture.Device
	EngineFor    func() *capture.Engine
	Gain         float64
	SampleRateHz int
	DataRoot     string
	StorageCapGB float64
	UsedGB       func() float64
	Metrics      *metrics.Registry
	Log          *log.Logger

	// Shutdown/Reboot invoke host-level power control; tests and the
	// simulated environment substitute no-ops. Both are fatal commands:
	// the connection ends and the process follows shortly after.
	Shutdown func()
	Reboot   func()
}

// Server accepts one client connection at a time and dispatches framed
// commands against Deps under the state's single exclusion discipline.
type Server struct {
	deps Deps
	addr string
	mu   sync.Mutex // serializes command dispatch, see dispatch() and handleGet()
}

// New returns a Server bound to addr (host:port, typically
// ":22325").
func New(addr string, deps Deps) *Server {
	return &Server{addr: addr, deps: deps}
}

// Serve listens on s.addr and accepts connections until stop fires. A
// client socket error closes that connection and the server goes back
// to accepting; accept errors are logged and accepting continues on the
// same listener. Only a listen failure is returned as an error.
func (s *Server) Serve(stop <-chan struct{}) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("control: listen %s: %w", s.addr, err)
	}
	defer ln.Close()

	go func() {
		<-stop
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-stop:
				return nil
			default:
			}
			s.deps.Log.Printf("control: accept error: %v", err)
			continue
		}
		s.handleConn(conn)
	}
}

// handleConn processes one client's commands sequentially until it
// disconnects or a framing/transport error occurs.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)

	for {
		frame, err := readFrame(r)
		if err != nil {
			s.deps.Log.Printf("control: %v", err)
			return
		}

		name, rest := splitCommand(string(frame))
		if name == "get" {
			s.handleGet(conn, rest)
			continue
		}

		resp, fatal := s.dispatch(name, rest)
		if err := writeFrame(conn, resp); err != nil {
			s.deps.Log.Printf("control: write response: %v", err)
			return
		}
		if fatal {
			return
		}
	}
}

// handleGet answers "get" specially: cmdGet's size reply must be
// followed, only on success, by the file's bytes in chunked frames,
// which the single-response dispatch contract cannot express.
func (s *Server) handleGet(conn net.Conn, rest string) {
	s.mu.Lock()
	if s.deps.Metrics != nil {
		s.deps.Metrics.Control.CommandsProcessed.WithLabelValues("get").Inc()
	}
	resp, path, chunkSize, ok := s.cmdGet(rest)
	s.mu.Unlock()

	if err := writeFrame(conn, []byte(resp)); err != nil {
		s.deps.Log.Printf("control: write response: %v", err)
		return
	}
	if !ok {
		return
	}
	if err := streamFile(conn, path, chunkSize); err != nil {
		s.deps.Log.Printf("control: stream file: %v", err)
	}
}

// dispatch parses and executes one command, holding the dispatch mutex
// for the duration of state-mutating work: the state lock is held only
// briefly, and long-running effects are started under the lock and
// then released.
func (s *Server) dispatch(name, rest string) (response []byte, fatal bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deps.Metrics != nil {
		s.deps.Metrics.Control.CommandsProcessed.WithLabelValues(name).Inc()
	}

	switch name {
	case "shutdown":
		return s.cmdShutdown()
	case "reboot":
		return s.cmdReboot()
	case "move":
		return []byte(s.cmdMove(rest)), false
	case "record_fixed":
		return []byte(s.cmdRecordFixed(rest)), false
	case "calibrate":
		return []byte(s.cmdCalibrate()), false
	case "calibrate_date_time":
		return []byte(s.cmdCalibrateDateTime(rest)), false
	case "set_single_tuner":
		return []byte(s.cmdSetTuner(station.TunerSingle, "set_single_tuner")), false
	case "set_dual_tuner":
		return []byte(s.cmdSetTuner(station.TunerDual, "set_dual_tuner")), false
	case "setViewingWindow":
		return []byte(s.cmdSetViewingWindow(rest)), false
	case "setCord":
		return []byte(s.cmdSetCord(rest)), false
	case "add_to_queue":
		return []byte(s.cmdAddToQueue(rest)), false
	case "clear_schedule":
		return []byte(s.cmdClearSchedule()), false
	case "getMeta":
		return s.cmdGetMeta(), false
	case "start_tracking":
		return []byte(s.cmdStartTracking()), false
	case "stop_tracking":
		return []byte(s.cmdStopTracking()), false
	case "device_get":
		return s.cmdDeviceGet(), false
	default:
		return []byte(fmt.Sprintf("Unknown command: %s", name)), false
	}
}

// splitCommand separates the leading command token from its
// space-delimited remainder; trailing arguments are space-delimited
// unless a command's handler says otherwise.
func splitCommand(line string) (name, rest string) {
	name, rest, found := strings.Cut(line, " ")
	if !found {
		return strings.TrimSpace(line), ""
	}
	return name, rest
}

func nowUTC() time.Time { return time.Now().UTC() }
