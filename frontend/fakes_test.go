package frontend

import (
	"errors"
	"time"

	captureloop "github.com/maskedsyntax/pypixl/capture-loop"
	postprocessing "github.com/maskedsyntax/pypixl/post-processing"
	"github.com/maskedsyntax/pypixl/recording"
)

type fakeController struct {
	scheduler captureloop.Scheduler

	selected  []int
	ticks     int
	starts    int
	stops     int
	snapshots int
	closes    int

	device    int
	open      bool
	hasFrame  bool
	recording bool
	startErr  error
	clip      *recording.Clip
	startedAt time.Time
}

func (c *fakeController) SelectDevice(index int) error {
	c.selected = append(c.selected, index)
	if c.scheduler != nil {
		c.scheduler.Stop()
	}
	if index == 4 {
		c.open = false
		return errors.New("failed to open camera")
	}
	c.device, c.open = index, true
	if c.scheduler != nil {
		c.scheduler.Start(33 * time.Millisecond)
	}
	return nil
}

func (c *fakeController) Tick() {
	c.ticks++
	c.hasFrame = true
}

func (c *fakeController) StartRecording() error {
	c.starts++
	if c.startErr != nil {
		return c.startErr
	}
	c.recording = true
	return nil
}

func (c *fakeController) StopRecording() (*recording.Clip, error) {
	c.stops++
	if !c.recording {
		return nil, nil
	}
	c.recording = false
	return c.clip, nil
}

func (c *fakeController) Snapshot() (string, error) {
	c.snapshots++
	return "/pictures/PyPixl_20261017_090503.png", nil
}

func (c *fakeController) Close() {
	c.closes++
	c.recording = false
}

func (c *fakeController) DeviceIndex() (int, bool) { return c.device, c.open }
func (c *fakeController) DeviceFPS() float64       { return 30 }
func (c *fakeController) HasFrame() bool           { return c.hasFrame }
func (c *fakeController) Recording() bool          { return c.recording }

func (c *fakeController) Session() (captureloop.SessionInfo, bool) {
	if !c.recording {
		return captureloop.SessionInfo{}, false
	}
	return captureloop.SessionInfo{
		Path:          "/videos/PyPixl_20261017_090503.avi",
		Codec:         "XVID",
		StartedAt:     c.startedAt,
		FramesWritten: 42,
	}, true
}

type fakeInspector struct {
	inspected []*recording.Clip
	err       error
}

func (i *fakeInspector) Inspect(clip *recording.Clip) (*postprocessing.InspectionReport, error) {
	i.inspected = append(i.inspected, clip)
	if i.err != nil {
		return nil, i.err
	}
	return &postprocessing.InspectionReport{
		Clip:            clip,
		ProbedDuration:  clip.NominalDuration(),
		NominalDuration: clip.NominalDuration(),
		WallDuration:    clip.Duration(),
		Tolerance:       250 * time.Millisecond,
	}, nil
}
