package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maskedsyntax/pypixl/camera"
	captureloop "github.com/maskedsyntax/pypixl/capture-loop"
	"github.com/maskedsyntax/pypixl/config"
	filemanagement "github.com/maskedsyntax/pypixl/file-management"
	"github.com/maskedsyntax/pypixl/frontend"
	"github.com/maskedsyntax/pypixl/logging"
	postprocessing "github.com/maskedsyntax/pypixl/post-processing"
	"github.com/maskedsyntax/pypixl/recording"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pypixl: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to a JSON config file (optional)")

	// Config override flags
	device := flag.Int("device", -1, "Camera index 0-4 (overrides config)")
	captureResolution := flag.String("resolution", "", "Requested capture resolution (overrides config, e.g., '720p', '1280x720')")
	captureCodec := flag.String("codec", "", "Preferred recording codec (overrides config, e.g., 'XVID', 'MJPG')")
	filePrefix := flag.String("prefix", "", "File name prefix for recordings and snapshots (overrides config)")
	videoDir := flag.String("video-dir", "", "Directory for recordings (overrides config)")
	pictureDir := flag.String("picture-dir", "", "Directory for snapshots (overrides config)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	logDir := flag.String("log-dir", "", "Directory for log files (overrides config)")
	headless := flag.Bool("headless", false, "Run without the terminal UI")
	recordFor := flag.Duration("record-for", 0, "Headless only: record for this long, then exit (e.g., '30s')")

	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Apply CLI overrides if provided
	cfg.Override(config.ConfigOverrides{
		DeviceIndex:       device,
		CaptureResolution: captureResolution,
		CaptureCodec:      captureCodec,
		FilePrefix:        filePrefix,
		VideoDirectory:    videoDir,
		PictureDirectory:  pictureDir,
		LogLevel:          logLevel,
		LogDirectory:      logDir,
		Headless:          headless,
		RecordDuration:    recordFor,
	})

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level, _ := logging.ParseLogLevel(cfg.LogLevel)

	// The terminal UI owns stdout and stderr, so it logs to files
	var logger logging.Logger
	if cfg.Headless {
		logger = logging.CreateConsoleLogger(level)
	} else {
		logger = logging.CreateLogger(level, cfg.LogDirectory, "pypixl")
	}

	logger.Info("Configuration loaded",
		"device", cfg.DeviceIndex,
		"resolution", cfg.CaptureResolution,
		"codec", cfg.CaptureCodec,
		"prefix", cfg.FilePrefix,
		"headless", cfg.Headless,
		"record_for", cfg.RecordDuration())

	configProvider := config.NewStaticSettingsProvider(*cfg)
	sink := recording.NewSink(
		camera.NewGoCVEncoderOpener(logger),
		recording.NewRecordingSettingsProvider(configProvider),
		logger,
	)
	inspector := postprocessing.NewFfmpegClipInspector(
		postprocessing.NewInspectionSettingsProvider(configProvider),
		logger,
	)
	media := filemanagement.NewLocalMediaLocator(cfg.FilePrefix, cfg.VideoDirectory, cfg.PictureDirectory, logger)

	deps := captureloop.Dependencies{
		Devices:   camera.NewGoCVDeviceOpener(logger),
		Sink:      sink,
		Media:     media,
		Snapshots: camera.GoCVSnapshotWriter{},
		Logger:    logger,
	}
	settings := captureloop.Settings{
		Resolution: cfg.Resolution(),
		Codec:      cfg.CaptureCodec,
	}

	if cfg.Headless {
		return runHeadless(cfg, deps, settings, inspector, logger)
	}
	return runTUI(cfg, deps, settings, inspector, logger)
}

func runTUI(cfg *config.Config, deps captureloop.Dependencies, settings captureloop.Settings, inspector postprocessing.ClipInspector, logger logging.Logger) error {
	scheduler := frontend.NewTeaScheduler()
	display := frontend.NewDisplay()

	deps.Scheduler = scheduler
	deps.Preview = display
	deps.Status = func(status string) {
		display.SetStatus(status)
		logger.Info("Status", "message", status)
	}

	loop := captureloop.NewLoop(deps, settings)
	defer loop.Close()

	// A camera that fails to open is reported on screen; another one can be picked
	loop.SelectDevice(cfg.DeviceIndex)

	program := frontend.NewProgram(frontend.NewModel(loop, scheduler, display, inspector))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("terminal UI failed: %w", err)
	}
	return nil
}

func runHeadless(cfg *config.Config, deps captureloop.Dependencies, settings captureloop.Settings, inspector postprocessing.ClipInspector, logger logging.Logger) error {
	scheduler := frontend.NewTickerScheduler()

	deps.Scheduler = scheduler
	deps.Status = func(status string) {
		logger.Info("Status", "message", status)
	}

	loop := captureloop.NewLoop(deps, settings)

	if err := loop.SelectDevice(cfg.DeviceIndex); err != nil {
		loop.Close()
		return err
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	start := time.Now()
	runner := frontend.NewHeadlessRunner(loop, scheduler, inspector, cfg.RecordDuration(), sigChan, logger)
	if err := runner.Run(); err != nil {
		return err
	}

	logger.Info("Capture finished", "uptime", time.Since(start).Round(time.Second))
	return nil
}
