package captureloop

import (
	"errors"
	"image"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/maskedsyntax/pypixl/config"
	filemanagement "github.com/maskedsyntax/pypixl/file-management"
	"github.com/maskedsyntax/pypixl/frame"
	"github.com/maskedsyntax/pypixl/recording"
	"github.com/maskedsyntax/pypixl/resolution"
)

type fakeDevice struct {
	fps      float64
	size     image.Point
	empty    bool
	reads    int
	closes   int
	resolved resolution.Resolution
}

func (d *fakeDevice) SetResolution(res resolution.Resolution) { d.resolved = res }
func (d *fakeDevice) ReportedFPS() float64                    { return d.fps }

func (d *fakeDevice) Read() (frame.Frame, bool) {
	d.reads++
	if d.empty {
		return frame.Frame{}, false
	}
	return frame.New(d.size.X, d.size.Y, frame.FormatBGR24), true
}

func (d *fakeDevice) Close() error {
	d.closes++
	return nil
}

type fakeDeviceOpener struct {
	devices map[int]*fakeDevice
	opened  []int
}

func (o *fakeDeviceOpener) Open(index int) (Device, error) {
	o.opened = append(o.opened, index)
	dev, ok := o.devices[index]
	if !ok {
		return nil, errors.New("no such device")
	}
	return dev, nil
}

type fakeScheduler struct {
	running   bool
	interval  time.Duration
	starts    int
	stops     int
	intervals []time.Duration
}

func (s *fakeScheduler) Start(interval time.Duration) {
	s.running = true
	s.interval = interval
	s.starts++
	s.intervals = append(s.intervals, interval)
}

func (s *fakeScheduler) Stop() {
	s.running = false
	s.stops++
}

type fakePreview struct {
	presented int
	noSignal  int
	last      frame.Frame
}

func (p *fakePreview) Present(f frame.Frame) {
	p.presented++
	p.last = f
}

func (p *fakePreview) NoSignal() { p.noSignal++ }

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(ms int) {
	c.now = c.now.Add(time.Duration(ms) * time.Millisecond)
}

type fakeMedia struct {
	discarded []string
	failPath  bool
}

func (m *fakeMedia) RecordingPath(codec string, at time.Time) (string, error) {
	if m.failPath {
		return "", errors.New("read-only filesystem")
	}
	return filepath.Join("/videos", filemanagement.FileName("PyPixl", at, ".avi")), nil
}

func (m *fakeMedia) SnapshotPath(at time.Time) (string, error) {
	return filepath.Join("/pictures", filemanagement.FileName("PyPixl", at, ".png")), nil
}

func (m *fakeMedia) Discard(path string) {
	m.discarded = append(m.discarded, path)
}

type fakeSnapshots struct {
	paths  []string
	frames []frame.Frame
	err    error
}

func (s *fakeSnapshots) WriteSnapshot(path string, f frame.Frame) error {
	if s.err != nil {
		return s.err
	}
	s.paths = append(s.paths, path)
	s.frames = append(s.frames, f)
	return nil
}

type fakeEncoder struct {
	writes int
	closed bool
}

func (e *fakeEncoder) Write(f frame.Frame) error {
	e.writes++
	return nil
}

func (e *fakeEncoder) Close() error {
	e.closed = true
	return nil
}

type fakeEncoderOpener struct {
	unavailable map[string]bool
	codecs      []string
	sizes       []image.Point
	encoders    []*fakeEncoder
}

func (o *fakeEncoderOpener) Open(path string, codec string, fps float64, size image.Point) (recording.Encoder, error) {
	o.codecs = append(o.codecs, codec)
	o.sizes = append(o.sizes, size)
	if o.unavailable[codec] {
		return nil, errors.New("codec not supported")
	}
	enc := &fakeEncoder{}
	o.encoders = append(o.encoders, enc)
	return enc, nil
}

type harness struct {
	loop      *Loop
	devices   *fakeDeviceOpener
	encoders  *fakeEncoderOpener
	scheduler *fakeScheduler
	preview   *fakePreview
	clock     *fakeClock
	media     *fakeMedia
	snapshots *fakeSnapshots
	statuses  []string
}

func newHarness(devices map[int]*fakeDevice) *harness {
	h := &harness{
		devices:   &fakeDeviceOpener{devices: devices},
		encoders:  &fakeEncoderOpener{},
		scheduler: &fakeScheduler{},
		preview:   &fakePreview{},
		clock:     &fakeClock{now: time.Date(2026, 10, 17, 9, 5, 3, 0, time.Local)},
		media:     &fakeMedia{},
		snapshots: &fakeSnapshots{},
	}
	sink := recording.NewSink(h.encoders, config.NewStaticSettingsProvider(recording.DefaultRecordingSettings), nil)
	h.loop = NewLoop(Dependencies{
		Devices:   h.devices,
		Sink:      sink,
		Media:     h.media,
		Snapshots: h.snapshots,
		Scheduler: h.scheduler,
		Preview:   h.preview,
		Status:    func(s string) { h.statuses = append(h.statuses, s) },
		Clock:     h.clock,
	}, Settings{Resolution: resolution.Default, Codec: "XVID"})
	return h
}

func (h *harness) lastStatus() string {
	if len(h.statuses) == 0 {
		return ""
	}
	return h.statuses[len(h.statuses)-1]
}

func singleCamera(fps float64) map[int]*fakeDevice {
	return map[int]*fakeDevice{0: {fps: fps, size: image.Pt(640, 480)}}
}

func TestEffectiveFPS(t *testing.T) {
	tests := []struct {
		reported float64
		expected float64
	}{
		{0, 30},
		{-1, 30},
		{240, 30},
		{120, 120},
		{15, 15},
		{29.97, 29.97},
	}
	for _, test := range tests {
		if got := EffectiveFPS(test.reported); got != test.expected {
			t.Errorf("EffectiveFPS(%v) = %v, expected %v", test.reported, got, test.expected)
		}
	}
}

func TestTickInterval(t *testing.T) {
	if got := TickInterval(30); got != 33*time.Millisecond {
		t.Errorf("Expected 33ms at 30 fps, got %v", got)
	}
	if got := TickInterval(60); got != 16*time.Millisecond {
		t.Errorf("Expected 16ms at 60 fps, got %v", got)
	}
	if got := TickInterval(15); got != 66*time.Millisecond {
		t.Errorf("Expected 66ms at 15 fps, got %v", got)
	}
}

func TestLoop_StartRecordingRequiresFrame(t *testing.T) {
	h := newHarness(singleCamera(30))

	if err := h.loop.StartRecording(); !errors.Is(err, ErrNoFrame) {
		t.Errorf("Expected ErrNoFrame on fresh loop, got %v", err)
	}
	if h.lastStatus() != "Error: No camera frame available." {
		t.Errorf("Unexpected status: %q", h.lastStatus())
	}
	if len(h.encoders.codecs) != 0 {
		t.Error("No encoder should be opened without a frame")
	}
	if h.loop.Recording() {
		t.Error("Loop must stay idle")
	}
}

func TestLoop_SelectDeviceSubstitutesImplausibleRates(t *testing.T) {
	for _, reported := range []float64{0, -1, 240} {
		h := newHarness(singleCamera(reported))

		if err := h.loop.SelectDevice(0); err != nil {
			t.Fatalf("SelectDevice failed: %v", err)
		}
		if h.loop.DeviceFPS() != 30 {
			t.Errorf("Reported %v: expected 30 fps, got %v", reported, h.loop.DeviceFPS())
		}
		if h.scheduler.interval != 33*time.Millisecond {
			t.Errorf("Reported %v: expected 33ms interval, got %v", reported, h.scheduler.interval)
		}
		if h.lastStatus() != "Camera 0 Connected (30 FPS)" {
			t.Errorf("Unexpected status: %q", h.lastStatus())
		}
	}
}

func TestLoop_SelectDeviceRequestsResolution(t *testing.T) {
	devices := singleCamera(60)
	h := newHarness(devices)

	if err := h.loop.SelectDevice(0); err != nil {
		t.Fatalf("SelectDevice failed: %v", err)
	}
	if devices[0].resolved != resolution.Resolution720p() {
		t.Errorf("Expected 720p request, got %v", devices[0].resolved)
	}
	if h.loop.TickInterval() != 16*time.Millisecond {
		t.Errorf("Expected 16ms interval, got %v", h.loop.TickInterval())
	}
	if idx, open := h.loop.DeviceIndex(); !open || idx != 0 {
		t.Errorf("Expected device 0 open, got %d, %v", idx, open)
	}
}

func TestLoop_SelectDeviceFailure(t *testing.T) {
	h := newHarness(singleCamera(30))

	err := h.loop.SelectDevice(3)
	if !errors.Is(err, ErrDeviceOpen) {
		t.Errorf("Expected ErrDeviceOpen, got %v", err)
	}
	if h.preview.noSignal != 1 {
		t.Errorf("Expected no-signal preview, got %d", h.preview.noSignal)
	}
	if h.lastStatus() != "Failed to open Camera 3" {
		t.Errorf("Unexpected status: %q", h.lastStatus())
	}
	if h.scheduler.running {
		t.Error("Scheduler must not run without a camera")
	}
	if _, open := h.loop.DeviceIndex(); open {
		t.Error("No camera should be open")
	}

	// Ticks without a camera do nothing
	h.loop.Tick()
	if h.preview.presented != 0 {
		t.Error("Nothing should be presented without a camera")
	}
}

func TestLoop_SelectDeviceRejectsOutOfRange(t *testing.T) {
	h := newHarness(singleCamera(30))

	for _, index := range []int{-1, 5} {
		if err := h.loop.SelectDevice(index); !errors.Is(err, ErrInvalidDevice) {
			t.Errorf("Index %d: expected ErrInvalidDevice, got %v", index, err)
		}
	}
	if len(h.devices.opened) != 0 {
		t.Error("Out of range indices must not reach the opener")
	}
}

func TestLoop_TickWithoutFrameChangesNothing(t *testing.T) {
	devices := singleCamera(30)
	h := newHarness(devices)
	if err := h.loop.SelectDevice(0); err != nil {
		t.Fatalf("SelectDevice failed: %v", err)
	}

	devices[0].empty = true
	h.loop.Tick()

	if devices[0].reads != 1 {
		t.Errorf("Expected one read, got %d", devices[0].reads)
	}
	if h.loop.HasFrame() || h.loop.SignalPresent() {
		t.Error("Empty read must not produce a current frame")
	}
	if h.preview.presented != 0 {
		t.Error("Empty read must not reach the preview")
	}
}

func TestLoop_TickPresentsCopy(t *testing.T) {
	h := newHarness(singleCamera(30))
	if err := h.loop.SelectDevice(0); err != nil {
		t.Fatalf("SelectDevice failed: %v", err)
	}

	h.loop.Tick()

	if h.preview.presented != 1 {
		t.Fatalf("Expected one presented frame, got %d", h.preview.presented)
	}
	if !h.loop.SignalPresent() {
		t.Error("Signal should be present after a frame")
	}
	h.preview.last.Pix[0] = 0xFF
	if h.loop.current.Pix[0] == 0xFF {
		t.Error("Preview must receive an independent copy")
	}
}

func TestLoop_RecordingPacesFrames(t *testing.T) {
	h := newHarness(singleCamera(30))
	if err := h.loop.SelectDevice(0); err != nil {
		t.Fatalf("SelectDevice failed: %v", err)
	}
	h.loop.Tick()

	if err := h.loop.StartRecording(); err != nil {
		t.Fatalf("StartRecording failed: %v", err)
	}
	if !strings.HasPrefix(h.lastStatus(), "Recording... /videos/PyPixl_20261017_090503.avi") {
		t.Errorf("Unexpected status: %q", h.lastStatus())
	}
	if !strings.HasSuffix(h.lastStatus(), "(Fixed 30 FPS)") {
		t.Errorf("Status should name the fixed rate: %q", h.lastStatus())
	}
	if h.encoders.sizes[0] != image.Pt(640, 480) {
		t.Errorf("Encoder should be sized like the current frame, got %v", h.encoders.sizes[0])
	}

	// First frame of a session is written once
	h.clock.advance(33)
	h.loop.Tick()
	// A 67ms gap needs two copies
	h.clock.advance(67)
	h.loop.Tick()
	// A long stall is clamped to five copies
	h.clock.advance(400)
	h.loop.Tick()

	info, ok := h.loop.Session()
	if !ok {
		t.Fatal("Expected an active session")
	}
	if info.FramesWritten != 8 {
		t.Errorf("Expected 1+2+5 frames, got %d", info.FramesWritten)
	}
	if info.Resyncs != 1 {
		t.Errorf("Expected one resync after the stall, got %d", info.Resyncs)
	}

	clip, err := h.loop.StopRecording()
	if err != nil {
		t.Fatalf("StopRecording failed: %v", err)
	}
	if clip.Frames != 8 || h.encoders.encoders[0].writes != 8 {
		t.Errorf("Expected 8 frames in the clip, got %d", clip.Frames)
	}
	if !h.encoders.encoders[0].closed {
		t.Error("Encoder should be closed")
	}
	if h.lastStatus() != "Recording Saved." {
		t.Errorf("Unexpected status: %q", h.lastStatus())
	}
	if h.loop.Recording() {
		t.Error("Loop should be idle after stop")
	}
}

func TestLoop_RecordingReportsFallbackCodec(t *testing.T) {
	h := newHarness(singleCamera(30))
	h.encoders.unavailable = map[string]bool{"XVID": true}
	if err := h.loop.SelectDevice(0); err != nil {
		t.Fatalf("SelectDevice failed: %v", err)
	}
	h.loop.Tick()

	if err := h.loop.StartRecording(); err != nil {
		t.Fatalf("StartRecording failed: %v", err)
	}
	if !strings.HasPrefix(h.lastStatus(), "Recording (MJPG)... ") {
		t.Errorf("Status should name the fallback codec: %q", h.lastStatus())
	}
	info, _ := h.loop.Session()
	if info.Codec != "MJPG" {
		t.Errorf("Expected MJPG session, got %s", info.Codec)
	}
}

func TestLoop_RecordingStartFailure(t *testing.T) {
	h := newHarness(singleCamera(30))
	h.encoders.unavailable = map[string]bool{"XVID": true, "MJPG": true}
	if err := h.loop.SelectDevice(0); err != nil {
		t.Fatalf("SelectDevice failed: %v", err)
	}
	h.loop.Tick()

	err := h.loop.StartRecording()
	if !errors.Is(err, recording.ErrEncoderUnavailable) {
		t.Errorf("Expected ErrEncoderUnavailable, got %v", err)
	}
	if h.lastStatus() != "Error: Could not start recording." {
		t.Errorf("Unexpected status: %q", h.lastStatus())
	}
	if h.loop.Recording() {
		t.Error("Loop must stay idle after a failed start")
	}
	if len(h.media.discarded) != 1 {
		t.Errorf("Expected the unused path to be discarded, got %v", h.media.discarded)
	}
}

func TestLoop_RecordingPathFailure(t *testing.T) {
	h := newHarness(singleCamera(30))
	h.media.failPath = true
	if err := h.loop.SelectDevice(0); err != nil {
		t.Fatalf("SelectDevice failed: %v", err)
	}
	h.loop.Tick()

	if err := h.loop.StartRecording(); err == nil {
		t.Error("Expected an error when no path is available")
	}
	if len(h.encoders.codecs) != 0 {
		t.Error("No encoder should be opened without a path")
	}
}

func TestLoop_StartRecordingTwice(t *testing.T) {
	h := newHarness(singleCamera(30))
	if err := h.loop.SelectDevice(0); err != nil {
		t.Fatalf("SelectDevice failed: %v", err)
	}
	h.loop.Tick()

	if err := h.loop.StartRecording(); err != nil {
		t.Fatalf("StartRecording failed: %v", err)
	}
	if err := h.loop.StartRecording(); !errors.Is(err, ErrAlreadyRecording) {
		t.Errorf("Expected ErrAlreadyRecording, got %v", err)
	}
	if len(h.encoders.encoders) != 1 {
		t.Errorf("Expected a single encoder, got %d", len(h.encoders.encoders))
	}
}

func TestLoop_StopWithoutFramesDiscardsFile(t *testing.T) {
	h := newHarness(singleCamera(30))
	if err := h.loop.SelectDevice(0); err != nil {
		t.Fatalf("SelectDevice failed: %v", err)
	}
	h.loop.Tick()

	if err := h.loop.StartRecording(); err != nil {
		t.Fatalf("StartRecording failed: %v", err)
	}
	info, _ := h.loop.Session()

	clip, err := h.loop.StopRecording()
	if err != nil {
		t.Fatalf("StopRecording failed: %v", err)
	}
	if clip.Frames != 0 {
		t.Errorf("Expected empty clip, got %d frames", clip.Frames)
	}
	if len(h.media.discarded) != 1 || h.media.discarded[0] != info.Path {
		t.Errorf("Expected %s discarded, got %v", info.Path, h.media.discarded)
	}
}

func TestLoop_StopWhenIdle(t *testing.T) {
	h := newHarness(singleCamera(30))

	clip, err := h.loop.StopRecording()
	if clip != nil || err != nil {
		t.Errorf("Expected nil, nil when idle, got %v, %v", clip, err)
	}
	if len(h.statuses) != 0 {
		t.Errorf("Stopping while idle should be silent, got %v", h.statuses)
	}
}

func TestLoop_SwitchingDeviceRestartsScheduler(t *testing.T) {
	devices := map[int]*fakeDevice{
		0: {fps: 30, size: image.Pt(640, 480)},
		1: {fps: 15, size: image.Pt(320, 240)},
	}
	h := newHarness(devices)

	if err := h.loop.SelectDevice(0); err != nil {
		t.Fatalf("SelectDevice(0) failed: %v", err)
	}
	h.loop.Tick()
	if err := h.loop.StartRecording(); err != nil {
		t.Fatalf("StartRecording failed: %v", err)
	}
	h.clock.advance(33)
	h.loop.Tick()

	if err := h.loop.SelectDevice(1); err != nil {
		t.Fatalf("SelectDevice(1) failed: %v", err)
	}

	if devices[0].closes != 1 {
		t.Errorf("Previous camera should be closed once, got %d", devices[0].closes)
	}
	if h.loop.Recording() {
		t.Error("Switching camera should stop the recording")
	}
	if !h.encoders.encoders[0].closed {
		t.Error("Encoder should be closed on camera switch")
	}
	if h.loop.HasFrame() {
		t.Error("Frames from the previous camera must be dropped")
	}
	if h.scheduler.starts != 2 || h.scheduler.stops < 1 {
		t.Errorf("Expected scheduler restarted, got %d starts and %d stops", h.scheduler.starts, h.scheduler.stops)
	}
	if h.scheduler.intervals[1] != 66*time.Millisecond {
		t.Errorf("Expected 66ms interval for the new camera, got %v", h.scheduler.intervals[1])
	}
	if h.lastStatus() != "Camera 1 Connected (15 FPS)" {
		t.Errorf("Unexpected status: %q", h.lastStatus())
	}
}

func TestLoop_CloseIsIdempotent(t *testing.T) {
	devices := singleCamera(30)
	h := newHarness(devices)
	if err := h.loop.SelectDevice(0); err != nil {
		t.Fatalf("SelectDevice failed: %v", err)
	}
	h.loop.Tick()
	if err := h.loop.StartRecording(); err != nil {
		t.Fatalf("StartRecording failed: %v", err)
	}
	h.clock.advance(33)
	h.loop.Tick()

	h.loop.Close()
	h.loop.Close()

	if devices[0].closes != 1 {
		t.Errorf("Expected camera closed once, got %d", devices[0].closes)
	}
	if !h.encoders.encoders[0].closed {
		t.Error("Encoder should be closed")
	}
	if h.scheduler.running {
		t.Error("Scheduler should be stopped")
	}
}

func TestLoop_Snapshot(t *testing.T) {
	h := newHarness(singleCamera(30))

	if _, err := h.loop.Snapshot(); !errors.Is(err, ErrNoFrame) {
		t.Errorf("Expected ErrNoFrame before any frame, got %v", err)
	}

	if err := h.loop.SelectDevice(0); err != nil {
		t.Fatalf("SelectDevice failed: %v", err)
	}
	h.loop.Tick()

	path, err := h.loop.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if path != "/pictures/PyPixl_20261017_090503.png" {
		t.Errorf("Unexpected snapshot path %s", path)
	}
	if h.lastStatus() != "Saved: "+path {
		t.Errorf("Unexpected status: %q", h.lastStatus())
	}
	if h.snapshots.frames[0].Size() != image.Pt(640, 480) {
		t.Errorf("Unexpected snapshot size %v", h.snapshots.frames[0].Size())
	}
}

func TestLoop_SnapshotWriteFailure(t *testing.T) {
	h := newHarness(singleCamera(30))
	h.snapshots.err = errors.New("permission denied")
	if err := h.loop.SelectDevice(0); err != nil {
		t.Fatalf("SelectDevice failed: %v", err)
	}
	h.loop.Tick()

	if _, err := h.loop.Snapshot(); err == nil {
		t.Error("Expected snapshot error")
	}
	if h.lastStatus() != "Error: Could not save snapshot." {
		t.Errorf("Unexpected status: %q", h.lastStatus())
	}
}
