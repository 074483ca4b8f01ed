package ctl

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Meta mirrors control.Meta's JSON shape, kept independent so ctl has
// no import dependency on the daemon's internal control package.
type Meta struct {
	SchemaVersion     int             `json:"schema_version"`
	UsedSpaceGB       float64         `json:"used_space_gb"`
	IsRecording       bool            `json:"is_recording"`
	Directory         string          `json:"directory"`
	CurrentTimeUTC    string          `json:"current_time_utc"`
	Schedule          []MetaWindow    `json:"schedule"`
	ProcessedSchedule []MetaProcessed `json:"processed_schedule"`
	Tracking          bool            `json:"tracking"`
}

// MetaProcessed is one processed-list entry, including the partial
// flag.
type MetaProcessed struct {
	MetaWindow
	Partial bool `json:"partial"`
}

// MetaWindow is one schedule entry in a Meta snapshot.
type MetaWindow struct {
	Name string    `json:"name"`
	Rise time.Time `json:"rise_utc"`
	Set  time.Time `json:"set_utc"`
}

// GetMeta fetches and prints the daemon's metadata snapshot.
func GetMeta(addr string, jsonOut bool) error {
	resp, err := request(addr, "getMeta")
	if err != nil {
		return err
	}
	var meta Meta
	if err := json.Unmarshal([]byte(resp), &meta); err != nil {
		return fmt.Errorf("decode getMeta response: %w\nraw: %s", err, resp)
	}

	if jsonOut {
		return printJSON(meta)
	}

	fmt.Println(header("Ground Station"))
	fmt.Printf("  tracking:       %s\n", colorize(stateColor(boolState(meta.Tracking)), boolState(meta.Tracking)))
	fmt.Printf("  recording:      %v\n", meta.IsRecording)
	fmt.Printf("  used space:     %.2f GB\n", meta.UsedSpaceGB)
	fmt.Printf("  directory:      %s\n", meta.Directory)
	fmt.Printf("  current time:   %s\n", meta.CurrentTimeUTC)
	fmt.Println()
	fmt.Println(header("Schedule"))
	if len(meta.Schedule) == 0 {
		fmt.Println("  (empty)")
	}
	for _, w := range meta.Schedule {
		fmt.Printf("  %s  rise=%s  set=%s  (%s)\n",
			padRight(w.Name, 16), w.Rise.Format(time.RFC3339), w.Set.Format(time.RFC3339),
			formatDuration(w.Set.Sub(w.Rise)))
	}
	return nil
}

func boolState(v bool) string {
	if v {
		return "Tracking"
	}
	return "Idle"
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

// StartTracking issues start_tracking.
func StartTracking(addr string) error {
	resp, err := request(addr, "start_tracking")
	if err != nil {
		return err
	}
	fmt.Println(resp)
	return nil
}

// StopTracking issues stop_tracking.
func StopTracking(addr string) error {
	resp, err := request(addr, "stop_tracking")
	if err != nil {
		return err
	}
	fmt.Println(resp)
	return nil
}

// ClearSchedule issues clear_schedule.
func ClearSchedule(addr string) error {
	resp, err := request(addr, "clear_schedule")
	if err != nil {
		return err
	}
	fmt.Println(resp)
	return nil
}

// Move issues "move az el".
func Move(addr string, az, el float64) error {
	resp, err := request(addr, fmt.Sprintf("move %g %g", az, el))
	if err != nil {
		return err
	}
	fmt.Println(resp)
	return nil
}

// Calibrate issues calibrate.
func Calibrate(addr string) error {
	resp, err := request(addr, "calibrate")
	if err != nil {
		return err
	}
	fmt.Println(resp)
	return nil
}

// SetTuner issues set_single_tuner or set_dual_tuner.
func SetTuner(addr string, dual bool) error {
	cmd := "set_single_tuner"
	if dual {
		cmd = "set_dual_tuner"
	}
	resp, err := request(addr, cmd)
	if err != nil {
		return err
	}
	fmt.Println(resp)
	return nil
}

// SetCord issues "setCord lat lon".
func SetCord(addr string, lat, lon float64) error {
	resp, err := request(addr, fmt.Sprintf("setCord %g %g", lat, lon))
	if err != nil {
		return err
	}
	fmt.Println(resp)
	return nil
}

// RecordFixed issues "record_fixed name duration_s freq_hz".
func RecordFixed(addr, name string, durationS float64, freqHz int) error {
	resp, err := request(addr, fmt.Sprintf("record_fixed %s %g %d", name, durationS, freqHz))
	if err != nil {
		return err
	}
	fmt.Println(resp)
	return nil
}

// DeviceGet issues device_get and prints the SDR descriptor list.
func DeviceGet(addr string, jsonOut bool) error {
	resp, err := request(addr, "device_get")
	if err != nil {
		return err
	}
	if jsonOut {
		fmt.Println(resp)
		return nil
	}
	var descriptors []struct {
		Label  string `json:"Label"`
		Serial string `json:"Serial"`
		Driver string `json:"Driver"`
	}
	if err := json.Unmarshal([]byte(resp), &descriptors); err != nil {
		fmt.Println(resp)
		return nil
	}
	fmt.Println(header("Devices"))
	for _, d := range descriptors {
		fmt.Printf("  %s  serial=%s  driver=%s\n", padRight(d.Label, 24), d.Serial, d.Driver)
	}
	return nil
}

// AddToQueue reads a TLE block plus an optional frequency block
// (separated by a blank line) and submits it via add_to_queue.
func AddToQueue(addr, tleBlock, freqBlock string) error {
	payload := strings.TrimRight(tleBlock, "\n") + "\n\n" + strings.TrimRight(freqBlock, "\n")
	resp, err := request(addr, "add_to_queue "+payload)
	if err != nil {
		return err
	}
	fmt.Println(resp)
	return nil
}
