// Groundstationd is the main daemon for the autonomous satellite
// ground-station controller. It loads configuration, starts the
// control protocol server and the ambient HTTP surface, and runs the
// pass-tracking state machine. Shutdown is handled gracefully on
// SIGINT or SIGTERM, and also on the control protocol's own
// shutdown/reboot commands.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/large-farva/groundctl/internal/app"
	"github.com/large-farva/groundctl/internal/capture"
	"github.com/large-farva/groundctl/internal/catalog"
	"github.com/large-farva/groundctl/internal/config"
	"github.com/large-farva/groundctl/internal/control"
	"github.com/large-farva/groundctl/internal/ephemeris"
	"github.com/large-farva/groundctl/internal/metrics"
	"github.com/large-farva/groundctl/internal/rotator"
	"github.com/large-farva/groundctl/internal/schedule"
	"github.com/large-farva/groundctl/internal/station"
	"github.com/large-farva/groundctl/internal/tracker"
	"github.com/large-farva/groundctl/internal/ws"
)

func main() {
	var (
		configPath  = pflag.StringP("config", "c", "", "Path to config TOML (auto-discovers if omitted)")
		bind        = pflag.String("bind", "", "Ambient HTTP bind address (overrides config)")
		controlBind = pflag.String("control-bind", "", "Control protocol bind address (overrides config)")
		catalogFile = pflag.String("catalog", "", "Optional YAML satellite catalog to seed the schedule with at startup")
	)
	pflag.Parse()

	cfgFile := *configPath
	if cfgFile == "" {
		cfgFile = config.FindConfigFile()
	}

	logger := log.New(os.Stdout, "groundstationd ", log.LstdFlags|log.Lmicroseconds)

	var cfg config.Config
	if cfgFile == "" {
		cfg = config.Default()
		logger.Printf("no config file found, using defaults")
		logger.Printf("create %s/config.toml to customize", config.DefaultConfigDir())
	} else {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			log.Fatalf("config load failed: %v", err)
		}
		logger.Printf("loaded config from %s", cfgFile)
	}

	if err := config.EnsureDirectories(cfg); err != nil {
		log.Fatalf("directory setup: %v", err)
	}

	hub := ws.NewHub()
	reg := metrics.New()

	observer := ephemeris.NewObserver(cfg.Station.Latitude, cfg.Station.Longitude, cfg.Station.Altitude)
	st := station.New(observer)

	oracle := ephemeris.New()
	builder := schedule.NewBuilder(oracle, logger)

	store := ephemeris.NewStore(cfg.Predict.TLEURL, cfg.Data.Root, cfg.Predict.TLERefreshHours)

	device := capture.NewSimulatedDevice()
	var deviceMu sync.Mutex
	engine := capture.NewEngine(device, &deviceMu, hub, reg.Capture, logger)

	rot, err := rotator.Open(rotator.Config{
		Port:                cfg.Rotator.Port,
		Baud:                cfg.Rotator.Baud,
		MaxAzimuthDegPerS:   cfg.Rotator.MaxAzimuthDegPerS,
		MaxElevationDegPerS: cfg.Rotator.MaxElevationDegPerS,
	}, logger)
	if err != nil {
		logger.Printf("rotator unavailable, pointing commands will fail: %v", err)
	}

	trk := tracker.New(tracker.Deps{
		State:        st,
		Oracle:       oracle,
		Rotator:      rot,
		EngineFor:    func() *capture.Engine { return engine },
		SampleRate:   cfg.Capture.SampleRateHz,
		Gain:         cfg.SDR.Gain,
		OutputDir:    cfg.Data.Archive,
		StorageCapGB: cfg.Capture.CapGB,
		UsedGB:       func() float64 { return diskUsedGB(cfg.Data.Root) },
		Metrics:      reg.Capture,
		Hub:          hub,
		Log:          logger,
	})

	if *catalogFile != "" {
		seedSchedule(*catalogFile, st, builder, observer, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := store.Fetch(); err != nil {
		logger.Printf("initial TLE fetch failed, add_to_queue still accepts explicit TLEs: %v", err)
	}

	watcher, err := config.Watch(cfgFile, logger, func(newCfg config.Config) {
		logger.Printf("config file changed and reloaded; running components keep their startup settings until restart")
	})
	if err != nil && cfgFile != "" {
		logger.Printf("config hot-reload disabled: %v", err)
	}
	if watcher != nil {
		defer watcher.Close()
	}

	controlAddr := cfg.Control.Bind
	if *controlBind != "" {
		controlAddr = *controlBind
	}
	if controlAddr == "" {
		controlAddr = ":22325"
	}

	controlSrv := control.New(controlAddr, control.Deps{
		State:        st,
		Builder:      builder,
		Oracle:       oracle,
		Rotator:      rot,
		Tracker:      trk,
		Device:       device,
		EngineFor:    func() *capture.Engine { return engine },
		Gain:         cfg.SDR.Gain,
		SampleRateHz: cfg.Capture.SampleRateHz,
		DataRoot:     cfg.Data.Archive,
		StorageCapGB: cfg.Capture.CapGB,
		UsedGB:       func() float64 { return diskUsedGB(cfg.Data.Root) },
		Metrics:      reg,
		Log:          logger,
		Shutdown:     stop,
		Reboot:       stop,
	})

	go func() {
		logger.Printf("control protocol listening on %s", controlAddr)
		if err := controlSrv.Serve(ctx.Done()); err != nil {
			logger.Printf("control server stopped: %v", err)
		}
	}()

	a := app.New(app.Options{
		Logger:  logger,
		Cfg:     cfg,
		Bind:    *bind,
		State:   st,
		Tracker: trk,
		Metrics: reg,
		Hub:     hub,
	})

	if err := a.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("groundstationd failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
}

// seedSchedule loads an optional catalog file and extends the empty
// startup schedule with it, the same way a batch add_to_queue would.
func seedSchedule(path string, st *station.State, builder *schedule.Builder, observer ephemeris.Observer, logger *log.Logger) {
	cat, err := catalog.Load(path)
	if err != nil {
		logger.Printf("catalog load failed, starting with an empty schedule: %v", err)
		return
	}
	specs, freqs, err := cat.Specs()
	if err != nil {
		logger.Printf("catalog parse failed, starting with an empty schedule: %v", err)
		return
	}
	win := st.ViewingWindow()
	next := builder.Append(st.ScheduleSnapshot(), specs, win.Start, win.End, observer)
	st.ReplaceSchedule(next)
	st.SetPendingSatellites(specs, freqs)
	logger.Printf("seeded schedule from catalog %s: %d satellites", filepath.Base(path), len(specs))
}

func diskUsedGB(path string) float64 {
	return app.UsedGB(path)
}
