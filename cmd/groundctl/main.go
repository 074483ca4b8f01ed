// Groundctl is the command-line client for monitoring and controlling
// a running groundstationd instance over its length-prefixed TCP
// control protocol.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/large-farva/groundctl/internal/ctl"
)

func main() {
	var (
		host    = pflag.StringP("host", "H", "127.0.0.1:22325", "groundstationd control address (host:port)")
		jsonOut = pflag.Bool("json", false, "Output raw JSON instead of formatted text")
	)

	pflag.CommandLine.SetInterspersed(false)
	pflag.Parse()

	if pflag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cmd := pflag.Arg(0)
	args := pflag.Args()[1:]

	var err error
	switch cmd {
	case "status":
		err = ctl.GetMeta(*host, *jsonOut)

	case "start-tracking":
		err = ctl.StartTracking(*host)

	case "stop-tracking":
		err = ctl.StopTracking(*host)

	case "clear-schedule":
		err = ctl.ClearSchedule(*host)

	case "move":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "usage: groundctl move <az> <el>")
			os.Exit(2)
		}
		var az, el float64
		if _, scanErr := fmt.Sscanf(args[0], "%f", &az); scanErr != nil {
			err = fmt.Errorf("invalid az: %w", scanErr)
			break
		}
		if _, scanErr := fmt.Sscanf(args[1], "%f", &el); scanErr != nil {
			err = fmt.Errorf("invalid el: %w", scanErr)
			break
		}
		err = ctl.Move(*host, az, el)

	case "calibrate":
		err = ctl.Calibrate(*host)

	case "set-single-tuner":
		err = ctl.SetTuner(*host, false)

	case "set-dual-tuner":
		err = ctl.SetTuner(*host, true)

	case "set-cord":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "usage: groundctl set-cord <lat> <lon>")
			os.Exit(2)
		}
		var lat, lon float64
		if _, scanErr := fmt.Sscanf(args[0], "%f", &lat); scanErr != nil {
			err = fmt.Errorf("invalid lat: %w", scanErr)
			break
		}
		if _, scanErr := fmt.Sscanf(args[1], "%f", &lon); scanErr != nil {
			err = fmt.Errorf("invalid lon: %w", scanErr)
			break
		}
		err = ctl.SetCord(*host, lat, lon)

	case "record-fixed":
		recordFlags := pflag.NewFlagSet("record-fixed", pflag.ContinueOnError)
		durationS := recordFlags.Float64("duration", 600, "Capture duration in seconds")
		freqHz := recordFlags.Int("freq-hz", 100_000_000, "Center frequency in Hz")
		_ = recordFlags.Parse(args)
		if recordFlags.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "usage: groundctl record-fixed <name> --freq-hz HZ --duration SECS")
			os.Exit(2)
		}
		err = ctl.RecordFixed(*host, recordFlags.Arg(0), *durationS, *freqHz)

	case "device-get":
		err = ctl.DeviceGet(*host, *jsonOut)

	case "add-to-queue":
		addFlags := pflag.NewFlagSet("add-to-queue", pflag.ContinueOnError)
		tleFile := addFlags.String("tle-file", "", "Path to a TLE block file")
		freqFile := addFlags.String("freq-file", "", "Path to a frequency block file")
		_ = addFlags.Parse(args)
		if *tleFile == "" {
			fmt.Fprintln(os.Stderr, "usage: groundctl add-to-queue --tle-file FILE [--freq-file FILE]")
			os.Exit(2)
		}
		tle, readErr := os.ReadFile(*tleFile)
		if readErr != nil {
			err = readErr
			break
		}
		var freq []byte
		if *freqFile != "" {
			freq, readErr = os.ReadFile(*freqFile)
			if readErr != nil {
				err = readErr
				break
			}
		}
		err = ctl.AddToQueue(*host, string(tle), string(freq))

	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Print(`
  groundctl — ground station controller CLI

  USAGE
    groundctl [flags] <command> [command-flags]

  COMMANDS
    status                Show tracker/schedule/storage snapshot (getMeta)
    start-tracking        Start the pass-tracking state machine
    stop-tracking          Stop the tracker, cutting short any pass in progress
    clear-schedule        Empty the schedule
    move <az> <el>        Command the rotator directly
    calibrate             Run the rotator's calibration routine
    set-single-tuner       Switch to single-tuner mode
    set-dual-tuner         Switch to dual-tuner mode
    set-cord <lat> <lon>   Update the observer's ground coordinates
    record-fixed <name>    Record an immediate capture outside the schedule
        --duration SECS      Capture duration (default 600)
        --freq-hz HZ         Center frequency (default 100000000)
    device-get             List SDR devices the daemon can see
    add-to-queue           Submit a TLE block (+ optional frequency block)
        --tle-file FILE      Path to a TLE block
        --freq-file FILE     Path to a "NAME: f1, f2, ..." frequency block

  GLOBAL FLAGS
    -H, --host ADDR     groundstationd control address (default 127.0.0.1:22325)
        --json          Output raw JSON where supported

  EXAMPLES
    groundctl status
    groundctl --json status
    groundctl move 180 45
    groundctl add-to-queue --tle-file noaa19.tle --freq-file noaa19.freq
    groundctl record-fixed NOAA-19 --duration 600 --freq-hz 137912500

`)
}
