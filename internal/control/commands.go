package control

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/large-farva/groundctl/internal/capture"
	"github.com/large-farva/groundctl/internal/ephemeris"
	"github.com/large-farva/groundctl/internal/rotator"
	"github.com/large-farva/groundctl/internal/station"
)

const viewingWindowLayout = "2006-01-02 15:04:05"

func (s *Server) cmdShutdown() ([]byte, bool) {
	if s.deps.Shutdown != nil {
		go s.deps.Shutdown()
	}
	return []byte("Shutting down..."), true
}

func (s *Server) cmdReboot() ([]byte, bool) {
	if s.deps.Reboot != nil {
		go s.deps.Reboot()
	}
	return []byte("Rebooting..."), true
}

// cmdMove handles "move az el", returning an error string without
// touching the serial line if out of reach.
func (s *Server) cmdMove(args string) string {
	az, el, err := parseTwoFloats(args)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	if s.deps.Rotator == nil {
		return "error: rotator not configured"
	}
	if !rotator.Reachable(az, el) {
		return fmt.Sprintf("error: %v", rotator.ErrOutOfReach)
	}
	if _, err := s.deps.Rotator.Move(az, el); err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return "Moved"
}

// cmdRecordFixed handles "record_fixed name duration_s freq_hz": an
// immediate one-off capture outside the scheduled pass flow, run
// through the same Engine/admission-control path a tracked pass uses.
// It fires the capture and replies before it completes.
func (s *Server) cmdRecordFixed(args string) string {
	fields := strings.Fields(args)
	if len(fields) != 3 {
		return "error: expected 'name duration_s freq_hz'"
	}
	name := fields[0]
	durS, err1 := strconv.ParseFloat(fields[1], 64)
	freqHz, err2 := strconv.Atoi(fields[2])
	if err1 != nil || err2 != nil {
		return "error: invalid duration_s or freq_hz"
	}
	if s.deps.EngineFor == nil {
		return "error: capture engine not configured"
	}

	mode, bandwidthHz := s.deps.State.TunerMode()
	plan := capture.Plan{
		Name:         name,
		CenterFreqHz: freqHz,
		GainDB:       s.deps.Gain,
		Mode:         tunerToMode(mode),
		BandwidthHz:  bandwidthHz,
		SampleRateHz: s.deps.SampleRateHz,
		DurationS:    durS,
		OutputDir:    s.deps.DataRoot,
	}

	usedGB := 0.0
	if s.deps.UsedGB != nil {
		usedGB = s.deps.UsedGB()
	}
	if err := capture.AdmissionCheck(plan, usedGB, s.deps.StorageCapGB); err != nil {
		return fmt.Sprintf("error: %v", err)
	}

	s.deps.State.SetRecordingActive(true)
	go func() {
		defer s.deps.State.SetRecordingActive(false)
		s.deps.EngineFor().Run(plan, make(chan struct{}))
	}()

	return "Recording"
}

func (s *Server) cmdCalibrate() string {
	if s.deps.Rotator == nil {
		return "error: rotator not configured"
	}
	reply, err := s.deps.Rotator.Calibrate()
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return reply
}

// calibrateDateTimePayload is the {datetime, timezone} argument to
// calibrate_date_time.
type calibrateDateTimePayload struct {
	Datetime string `json:"datetime"`
	Timezone string `json:"timezone"`
}

// cmdCalibrateDateTime parses the JSON payload that follows the
// command name. Since this protocol defines no separate "continue"
// frame, the payload travels as the command's own argument string,
// completing in one round trip. The payload is only checked to be valid
// JSON; its datetime and timezone are not applied to anything.
func (s *Server) cmdCalibrateDateTime(args string) string {
	if strings.TrimSpace(args) == "" {
		return "Waiting on date time info"
	}
	var payload calibrateDateTimePayload
	if err := json.Unmarshal([]byte(args), &payload); err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return "Finished setting datetime"
}

func (s *Server) cmdSetTuner(mode station.TunerMode, okMsg string) string {
	if !s.deps.State.SetTunerMode(mode) {
		return "error: cannot switch tuner mode while recording_active"
	}
	return okMsg
}

// cmdSetViewingWindow handles "YYYY-MM-DD HH:MM:SS YYYY-MM-DD HH:MM:SS".
func (s *Server) cmdSetViewingWindow(args string) string {
	tokens := strings.Fields(args)
	if len(tokens) != 4 {
		return "error: expected 'YYYY-MM-DD HH:MM:SS YYYY-MM-DD HH:MM:SS'"
	}
	start, err1 := time.Parse(viewingWindowLayout, tokens[0]+" "+tokens[1])
	end, err2 := time.Parse(viewingWindowLayout, tokens[2]+" "+tokens[3])
	if err1 != nil || err2 != nil {
		return "error: malformed timestamp"
	}
	s.deps.State.SetViewingWindow(start.UTC(), end.UTC())
	return "setViewingWindow"
}

func (s *Server) cmdSetCord(args string) string {
	lat, lon, err := parseTwoFloats(args)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	s.deps.State.SetObserverCoordinates(lat, lon)
	return "setCord"
}

// cmdAddToQueue handles "<TLE-block>\n\n<NAME: f1, f2, ...>": parses
// both blocks, extends the schedule via the Builder, and installs the
// result.
func (s *Server) cmdAddToQueue(args string) string {
	tleBlock, freqBlock, _ := strings.Cut(args, "\n\n")

	specs, err := ephemeris.ParseTLEBlock(tleBlock)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	freqs, err := ephemeris.ParseFrequencyBlock(freqBlock)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	specs = ephemeris.ApplyFrequencies(specs, freqs)

	win := s.deps.State.ViewingWindow()
	observer := s.deps.State.Observer()

	existing := s.deps.State.ScheduleSnapshot()
	next := s.deps.Builder.Append(existing, specs, win.Start, win.End, observer)
	s.deps.State.ReplaceSchedule(next)
	s.deps.State.SetPendingSatellites(specs, freqs)

	return "Schedule updated"
}

func (s *Server) cmdClearSchedule() string {
	s.deps.State.ClearSchedule()
	return "Schedule cleared"
}

func (s *Server) cmdGetMeta() []byte {
	usedGB := 0.0
	if s.deps.UsedGB != nil {
		usedGB = s.deps.UsedGB()
	}

	windows := s.deps.State.Schedule()
	meta := Meta{
		SchemaVersion:  metaSchemaVersion,
		UsedSpaceGB:    usedGB,
		IsRecording:    s.deps.State.RecordingActive(),
		Directory:      s.deps.DataRoot,
		CurrentTimeUTC: nowUTC().Format(time.RFC3339Nano),
		Tracking:       s.deps.State.TrackingActive(),
	}
	for _, w := range windows {
		meta.Schedule = append(meta.Schedule, MetaWindow{Name: w.Name, Rise: w.Rise, Set: w.Set})
	}
	for _, p := range s.deps.State.Processed() {
		meta.ProcessedSchedule = append(meta.ProcessedSchedule, MetaProcessed{
			MetaWindow: MetaWindow{Name: p.Window.Name, Rise: p.Window.Rise, Set: p.Window.Set},
			Partial:    p.Partial,
		})
	}

	b, err := json.Marshal(meta)
	if err != nil {
		return []byte(fmt.Sprintf("error: %v", err))
	}
	return b
}

// cmdGet handles "relative_path chunk_size". A missing file replies
// with exactly "File not found" (ASCII), with no length-prefix
// mismatch. On success, handleConn follows this response with the
// chunked byte transfer via streamFile.
func (s *Server) cmdGet(args string) (response string, path string, chunkSize int, ok bool) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return "error: expected 'relative_path chunk_size'", "", 0, false
	}
	chunkSize, err := strconv.Atoi(fields[1])
	if err != nil || chunkSize <= 0 {
		return "error: invalid chunk_size", "", 0, false
	}
	full := filepath.Join(s.deps.DataRoot, fields[0])
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return "File not found", "", 0, false
	}
	return strconv.FormatInt(info.Size(), 10), full, chunkSize, true
}

// streamFile pushes path's bytes to w in chunkSize-sized framed
// chunks, used by handleConn right after a successful cmdGet reply.
func streamFile(w io.Writer, path string, chunkSize int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	buf := make([]byte, chunkSize)
	for {
		n, readErr := f.Read(buf)
		if n > 0 {
			if werr := writeFrame(w, buf[:n]); werr != nil {
				return werr
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}

func (s *Server) cmdStartTracking() string {
	if s.deps.State.TrackingActive() {
		return "Tracking started."
	}
	s.deps.State.ResetStop()
	go s.deps.Tracker.Run(s.deps.State.StopSignal())
	return "Tracking started."
}

func (s *Server) cmdStopTracking() string {
	s.deps.State.RequestStop()
	return "Tracking stopped."
}

func (s *Server) cmdDeviceGet() []byte {
	if s.deps.Device == nil {
		return []byte("[]")
	}
	b, err := json.Marshal(s.deps.Device.Descriptors())
	if err != nil {
		return []byte(fmt.Sprintf("error: %v", err))
	}
	return b
}

func parseTwoFloats(args string) (a, b float64, err error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("expected two space-separated numbers")
	}
	a, err = strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, 0, err
	}
	b, err = strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func tunerToMode(m station.TunerMode) capture.Mode {
	if m == station.TunerDual {
		return capture.ModeDual
	}
	return capture.ModeSingle
}
