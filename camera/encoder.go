package camera

import (
	"fmt"
	"image"

	"github.com/maskedsyntax/pypixl/frame"
	"github.com/maskedsyntax/pypixl/logging"
	"github.com/maskedsyntax/pypixl/recording"
	"gocv.io/x/gocv"
)

// GoCVEncoderOpener creates OpenCV video writers
type GoCVEncoderOpener struct {
	logger logging.Logger
}

func NewGoCVEncoderOpener(logger logging.Logger) *GoCVEncoderOpener {
	return &GoCVEncoderOpener{logger: logging.OrNop(logger)}
}

func (o *GoCVEncoderOpener) Open(path string, codec string, fps float64, size image.Point) (recording.Encoder, error) {
	writer, err := gocv.VideoWriterFile(path, codec, fps, size.X, size.Y, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create video writer: %w", err)
	}
	if !writer.IsOpened() {
		writer.Close()
		return nil, fmt.Errorf("video writer for codec %s did not open", codec)
	}

	return &GoCVEncoder{
		writer: writer,
		size:   size,
		logger: o.logger,
	}, nil
}

// GoCVEncoder writes frames through an OpenCV video writer. The Mat built for
// the most recent frame is kept so repeated copies of it are not converted again.
type GoCVEncoder struct {
	writer *gocv.VideoWriter
	size   image.Point
	logger logging.Logger

	lastPix []byte
	mat     gocv.Mat
	hasMat  bool
}

func (e *GoCVEncoder) Write(f frame.Frame) error {
	if f.Size() != e.size {
		return fmt.Errorf("frame size %dx%d does not match video size %dx%d", f.Width, f.Height, e.size.X, e.size.Y)
	}

	if !e.hasMat || !sameBuffer(e.lastPix, f.Pix) {
		mat, err := e.convert(f)
		if err != nil {
			return err
		}
		e.releaseMat()
		e.mat, e.hasMat, e.lastPix = mat, true, f.Pix
	}

	return e.writer.Write(e.mat)
}

// convert builds a 3-channel Mat, expanding grayscale frames since the writer is opened in color
func (e *GoCVEncoder) convert(f frame.Frame) (gocv.Mat, error) {
	mat, err := matFromFrame(f)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("failed to convert frame: %w", err)
	}
	if f.Format != frame.FormatGray8 {
		return mat, nil
	}

	bgr := gocv.NewMat()
	gocv.CvtColor(mat, &bgr, gocv.ColorGrayToBGR)
	mat.Close()
	return bgr, nil
}

func (e *GoCVEncoder) releaseMat() {
	if e.hasMat {
		e.mat.Close()
		e.hasMat = false
		e.lastPix = nil
	}
}

func (e *GoCVEncoder) Close() error {
	e.releaseMat()
	return e.writer.Close()
}

func sameBuffer(a, b []byte) bool {
	return len(a) > 0 && len(a) == len(b) && &a[0] == &b[0]
}
