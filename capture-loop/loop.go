package captureloop

import (
	"fmt"
	"math"
	"time"

	"github.com/maskedsyntax/pypixl/common"
	"github.com/maskedsyntax/pypixl/config"
	filemanagement "github.com/maskedsyntax/pypixl/file-management"
	"github.com/maskedsyntax/pypixl/frame"
	"github.com/maskedsyntax/pypixl/logging"
	"github.com/maskedsyntax/pypixl/pacing"
	"github.com/maskedsyntax/pypixl/recording"
	"github.com/maskedsyntax/pypixl/resolution"
)

const (
	MinDeviceIndex = config.MinDeviceIndex
	MaxDeviceIndex = config.MaxDeviceIndex

	// TargetFPS is the fixed rate of every recording
	TargetFPS = pacing.DefaultFPS

	// DefaultDeviceFPS replaces reported device rates that cannot be trusted
	DefaultDeviceFPS = 30.0
	// MaxPlausibleFPS is the highest reported device rate taken at face value
	MaxPlausibleFPS = 120.0
)

// Dependencies are the collaborators of a Loop. Preview, Scheduler, Status,
// Clock and Logger may be left nil.
type Dependencies struct {
	Devices   DeviceOpener
	Sink      *recording.Sink
	Media     filemanagement.MediaLocator
	Snapshots SnapshotWriter
	Scheduler Scheduler
	Preview   Preview
	Status    StatusFunc
	Clock     Clock
	Logger    logging.Logger
}

// Settings configure a Loop
type Settings struct {
	Resolution resolution.Resolution // Requested from every device
	Codec      string                // Preferred recording codec, used for file naming
}

// Loop is the single periodic driver: it pulls frames from the open camera,
// paces them into the recording sink while recording, and hands them to the
// preview. It is not safe for concurrent use; ticks and control operations must
// be serialized by the caller.
type Loop struct {
	devices   DeviceOpener
	sink      *recording.Sink
	media     filemanagement.MediaLocator
	snapshots SnapshotWriter
	scheduler Scheduler
	preview   Preview
	status    StatusFunc
	clock     Clock
	logger    logging.Logger
	settings  Settings

	device       Device
	deviceIndex  int
	deviceFPS    float64
	tickInterval time.Duration

	current  frame.Frame
	hasFrame bool

	session *recordingSession
}

func NewLoop(deps Dependencies, settings Settings) *Loop {
	if !settings.Resolution.Valid() {
		settings.Resolution = resolution.Default
	}
	if settings.Codec == "" {
		settings.Codec = common.PrimaryCodec
	}

	l := &Loop{
		devices:     deps.Devices,
		sink:        deps.Sink,
		media:       deps.Media,
		snapshots:   deps.Snapshots,
		scheduler:   deps.Scheduler,
		preview:     deps.Preview,
		status:      deps.Status,
		clock:       deps.Clock,
		logger:      logging.OrNop(deps.Logger),
		settings:    settings,
		deviceIndex: -1,
	}
	if l.scheduler == nil {
		l.scheduler = nopScheduler{}
	}
	if l.preview == nil {
		l.preview = nopPreview{}
	}
	if l.status == nil {
		l.status = func(string) {}
	}
	if l.clock == nil {
		l.clock = systemClock{}
	}
	return l
}

// EffectiveFPS returns the reported device rate, or DefaultDeviceFPS when the
// report is non-positive or implausibly high
func EffectiveFPS(reported float64) float64 {
	if math.IsNaN(reported) || reported <= 0 || reported > MaxPlausibleFPS {
		return DefaultDeviceFPS
	}
	return reported
}

// TickInterval converts a frame rate into a whole-millisecond timer interval
func TickInterval(fps float64) time.Duration {
	return time.Duration(int(1000.0/fps)) * time.Millisecond
}

// SelectDevice stops the driver, closes the current camera and opens the one at
// index. On success the driver is restarted at an interval derived from the
// camera's rate; on failure the loop stays without a camera and the preview
// shows "no signal". An active recording is stopped first since the new camera
// may deliver a different frame size.
func (l *Loop) SelectDevice(index int) error {
	if index < MinDeviceIndex || index > MaxDeviceIndex {
		l.report(fmt.Sprintf("Invalid camera index %d", index))
		return fmt.Errorf("%w: %d", ErrInvalidDevice, index)
	}

	l.scheduler.Stop()
	if l.session != nil {
		l.StopRecording()
	}
	l.closeDevice()

	dev, err := l.devices.Open(index)
	if err != nil {
		l.logger.Warn("Failed to open camera", "index", index, "error", err)
		l.preview.NoSignal()
		l.report(fmt.Sprintf("Failed to open Camera %d", index))
		return fmt.Errorf("%w %d: %v", ErrDeviceOpen, index, err)
	}

	dev.SetResolution(l.settings.Resolution)

	reported := dev.ReportedFPS()
	fps := EffectiveFPS(reported)
	if fps != reported {
		l.logger.Info("Ignoring unreliable device frame rate", "index", index, "reported", reported, "using", fps)
	}

	l.device = dev
	l.deviceIndex = index
	l.deviceFPS = fps
	l.tickInterval = TickInterval(fps)

	l.scheduler.Start(l.tickInterval)

	l.logger.Info("Camera connected", "index", index, "fps", fps, "interval", l.tickInterval)
	l.report(fmt.Sprintf("Camera %d Connected (%g FPS)", index, fps))
	return nil
}

// Tick pulls one frame. Empty reads are skipped without any state change.
// While recording, a copy of the frame is written as many times as the pacer
// asks. The preview receives its own copy of every captured frame.
func (l *Loop) Tick() {
	if l.device == nil {
		return
	}

	f, ok := l.device.Read()
	if !ok || f.Empty() {
		l.logger.Debug("Empty frame from camera", "index", l.deviceIndex)
		return
	}

	l.current = f
	l.hasFrame = true

	if l.session != nil {
		copies := l.session.timeline.Pace(l.session.elapsedMs(l.clock.Now()))
		l.sink.WriteCopies(f.Clone(), copies)
	}

	l.preview.Present(f.Clone())
}

// StartRecording opens a new recording sized like the current frame. It is
// refused until at least one frame has been captured.
func (l *Loop) StartRecording() error {
	if l.session != nil {
		return ErrAlreadyRecording
	}
	if !l.hasFrame {
		l.report("Error: No camera frame available.")
		return ErrNoFrame
	}

	path, err := l.media.RecordingPath(l.settings.Codec, l.clock.Now())
	if err != nil {
		l.logger.Error("Failed to resolve recording path", "error", err)
		l.report("Error: Could not start recording.")
		return fmt.Errorf("failed to start recording: %w", err)
	}

	codec, err := l.sink.Start(path, l.current.Size())
	if err != nil {
		l.logger.Error("Failed to start recording", "path", path, "error", err)
		l.media.Discard(path)
		l.report("Error: Could not start recording.")
		return fmt.Errorf("failed to start recording: %w", err)
	}

	l.session = newRecordingSession(path, codec, l.clock.Now())

	if codec == common.CodecChain(l.settings.Codec)[0] {
		l.report(fmt.Sprintf("Recording... %s (Fixed %g FPS)", path, TargetFPS))
	} else {
		l.report(fmt.Sprintf("Recording (%s)... %s (Fixed %g FPS)", codec, path, TargetFPS))
	}
	return nil
}

// StopRecording closes the sink and returns to idle unconditionally. It returns
// the finished clip, or nil if nothing was recording. A clip without frames is
// removed from disk.
func (l *Loop) StopRecording() (*recording.Clip, error) {
	clip, err := l.sink.Stop()
	wasRecording := l.session != nil
	l.session = nil

	if err != nil {
		l.logger.Error("Failed to finalize recording", "error", err)
		l.report("Error: Recording may be incomplete.")
		return clip, err
	}
	if clip == nil {
		if wasRecording {
			l.report("Recording Saved.")
		}
		return nil, nil
	}

	if clip.Frames == 0 {
		l.media.Discard(clip.Path)
		l.report("Recording discarded (no frames).")
		return clip, nil
	}

	l.logger.Info("Recording saved", "path", clip.Path, "codec", clip.Codec, "frames", clip.Frames,
		"duration", clip.Duration(), "nominal_duration", clip.NominalDuration())
	l.report("Recording Saved.")
	return clip, nil
}

// Snapshot writes the current frame as a PNG image and returns its path
func (l *Loop) Snapshot() (string, error) {
	if !l.hasFrame {
		l.report("Error: No camera frame available.")
		return "", ErrNoFrame
	}

	path, err := l.media.SnapshotPath(l.clock.Now())
	if err != nil {
		l.report("Error: Could not save snapshot.")
		return "", fmt.Errorf("failed to save snapshot: %w", err)
	}

	if err := l.snapshots.WriteSnapshot(path, l.current); err != nil {
		l.logger.Error("Failed to write snapshot", "path", path, "error", err)
		l.report("Error: Could not save snapshot.")
		return "", fmt.Errorf("failed to save snapshot: %w", err)
	}

	l.report("Saved: " + path)
	return path, nil
}

// Close stops any recording, disarms the driver and closes the camera. It is
// safe to call more than once.
func (l *Loop) Close() {
	if l.session != nil {
		l.StopRecording()
	}
	l.scheduler.Stop()
	l.closeDevice()
}

func (l *Loop) closeDevice() {
	if l.device == nil {
		return
	}
	if err := l.device.Close(); err != nil {
		l.logger.Warn("Failed to close camera", "index", l.deviceIndex, "error", err)
	}
	l.device = nil
	l.deviceIndex = -1
	l.deviceFPS = 0
	l.tickInterval = 0
	// Frames from the previous camera must not size the next recording
	l.current = frame.Frame{}
	l.hasFrame = false
	l.preview.NoSignal()
}

func (l *Loop) report(status string) {
	l.status(status)
}

// DeviceIndex returns the index of the open camera and whether one is open
func (l *Loop) DeviceIndex() (int, bool) {
	return l.deviceIndex, l.device != nil
}

// DeviceOpen reports whether a camera is open
func (l *Loop) DeviceOpen() bool {
	return l.device != nil
}

// DeviceFPS returns the effective rate of the open camera
func (l *Loop) DeviceFPS() float64 {
	return l.deviceFPS
}

// TickInterval returns the driver interval for the open camera, zero if none is open
func (l *Loop) TickInterval() time.Duration {
	return l.tickInterval
}

// Recording reports whether a recording session is active
func (l *Loop) Recording() bool {
	return l.session != nil
}

// HasFrame reports whether a frame has been captured from the open camera
func (l *Loop) HasFrame() bool {
	return l.hasFrame
}

// SignalPresent reports whether a camera is open and delivering frames
func (l *Loop) SignalPresent() bool {
	return l.device != nil && l.hasFrame
}

// Session returns a view of the active recording
func (l *Loop) Session() (SessionInfo, bool) {
	if l.session == nil {
		return SessionInfo{}, false
	}
	return SessionInfo{
		Path:          l.session.path,
		Codec:         l.session.codec,
		StartedAt:     l.session.startedAt,
		LastEmittedMs: l.session.timeline.LastEmittedMs(),
		FramesWritten: l.sink.FramesWritten(),
		Resyncs:       l.session.timeline.Resyncs(),
	}, true
}
