package frontend

import (
	"os"
	"time"

	"github.com/maskedsyntax/pypixl/logging"
	postprocessing "github.com/maskedsyntax/pypixl/post-processing"
	"github.com/maskedsyntax/pypixl/recording"
)

// TickSource delivers the capture loop's periodic ticks
type TickSource interface {
	Ticks() <-chan time.Time
}

// HeadlessRunner drives the capture loop without a terminal UI. Ticks, the
// recording deadline and OS signals are all handled on the goroutine calling Run.
type HeadlessRunner struct {
	controller Controller
	ticks      TickSource
	inspector  postprocessing.ClipInspector
	logger     logging.Logger
	recordFor  time.Duration
	signals    <-chan os.Signal
	after      func(time.Duration) <-chan time.Time
}

// NewHeadlessRunner creates a runner. With a positive recordFor it starts
// recording on the first frame and exits once that much time has passed;
// otherwise it only previews until a signal arrives.
func NewHeadlessRunner(controller Controller, ticks TickSource, inspector postprocessing.ClipInspector, recordFor time.Duration, signals <-chan os.Signal, logger logging.Logger) *HeadlessRunner {
	return &HeadlessRunner{
		controller: controller,
		ticks:      ticks,
		inspector:  inspector,
		logger:     logging.OrNop(logger),
		recordFor:  recordFor,
		signals:    signals,
		after:      time.After,
	}
}

// Run blocks until the recording deadline passes or a signal arrives. The
// controller is always closed on return.
func (r *HeadlessRunner) Run() error {
	defer r.controller.Close()

	var deadline <-chan time.Time
	started := false

	for {
		select {
		case <-r.ticks.Ticks():
			r.controller.Tick()
			if r.recordFor > 0 && !started && r.controller.HasFrame() {
				if err := r.controller.StartRecording(); err != nil {
					return err
				}
				started = true
				deadline = r.after(r.recordFor)
				r.logger.Info("Recording started", "duration", r.recordFor)
			}

		case <-deadline:
			r.logger.Info("Recording duration reached")
			return r.stop()

		case sig := <-r.signals:
			r.logger.Info("Shutdown signal received", "signal", sig.String())
			return r.stop()
		}
	}
}

func (r *HeadlessRunner) stop() error {
	if !r.controller.Recording() {
		return nil
	}
	clip, err := r.controller.StopRecording()
	if err != nil {
		return err
	}
	r.inspect(clip)
	return nil
}

func (r *HeadlessRunner) inspect(clip *recording.Clip) {
	if r.inspector == nil || clip == nil || clip.Frames == 0 {
		return
	}
	report, err := r.inspector.Inspect(clip)
	if err != nil {
		r.logger.Warn("Failed to inspect recording", "path", clip.Path, "error", err)
		return
	}
	r.logger.Info("Recording summary", "path", clip.Path, "frames", clip.Frames,
		"probed", report.ProbedDuration, "wall", report.WallDuration, "constant_rate", report.IsConstantRate())
}
