package camera

import (
	"fmt"

	captureloop "github.com/maskedsyntax/pypixl/capture-loop"
	"github.com/maskedsyntax/pypixl/frame"
	"github.com/maskedsyntax/pypixl/logging"
	"github.com/maskedsyntax/pypixl/resolution"
	"gocv.io/x/gocv"
)

// GoCVDeviceOpener opens local cameras through OpenCV
type GoCVDeviceOpener struct {
	logger logging.Logger
}

func NewGoCVDeviceOpener(logger logging.Logger) *GoCVDeviceOpener {
	return &GoCVDeviceOpener{logger: logging.OrNop(logger)}
}

func (o *GoCVDeviceOpener) Open(index int) (captureloop.Device, error) {
	webcam, err := gocv.OpenVideoCapture(index)
	if err != nil {
		return nil, fmt.Errorf("failed to open video capture device %d: %w", index, err)
	}
	if !webcam.IsOpened() {
		webcam.Close()
		return nil, fmt.Errorf("video capture device %d is not available", index)
	}

	o.logger.Debug("Opened video capture device", "index", index)
	return &GoCVDevice{
		index:  index,
		webcam: webcam,
		img:    gocv.NewMat(),
		logger: o.logger,
	}, nil
}

// GoCVDevice is an open OpenCV video capture. Frames are copied out of the
// reusable Mat, so they stay valid after the next Read.
type GoCVDevice struct {
	index  int
	webcam *gocv.VideoCapture
	img    gocv.Mat
	bgr    *gocv.Mat
	logger logging.Logger
}

func (d *GoCVDevice) SetResolution(res resolution.Resolution) {
	d.webcam.Set(gocv.VideoCaptureFrameWidth, float64(res.Width))
	d.webcam.Set(gocv.VideoCaptureFrameHeight, float64(res.Height))

	width := int(d.webcam.Get(gocv.VideoCaptureFrameWidth))
	height := int(d.webcam.Get(gocv.VideoCaptureFrameHeight))
	if width != res.Width || height != res.Height {
		d.logger.Info("Camera ignored requested resolution", "index", d.index, "requested", res.String(), "width", width, "height", height)
	}
}

func (d *GoCVDevice) ReportedFPS() float64 {
	return d.webcam.Get(gocv.VideoCaptureFPS)
}

func (d *GoCVDevice) Read() (frame.Frame, bool) {
	if ok := d.webcam.Read(&d.img); !ok || d.img.Empty() {
		return frame.Frame{}, false
	}

	src := d.img
	if src.Channels() == 4 {
		if d.bgr == nil {
			bgr := gocv.NewMat()
			d.bgr = &bgr
		}
		gocv.CvtColor(src, d.bgr, gocv.ColorBGRAToBGR)
		src = *d.bgr
	}

	f, err := frameFromMat(src)
	if err != nil {
		d.logger.Warn("Dropping unsupported camera frame", "index", d.index, "error", err)
		return frame.Frame{}, false
	}
	return f, true
}

func (d *GoCVDevice) Close() error {
	if d.bgr != nil {
		d.bgr.Close()
	}
	d.img.Close()
	return d.webcam.Close()
}

// frameFromMat copies the pixels of an 8-bit BGR or grayscale Mat
func frameFromMat(m gocv.Mat) (frame.Frame, error) {
	var format frame.PixelFormat
	switch m.Type() {
	case gocv.MatTypeCV8UC3:
		format = frame.FormatBGR24
	case gocv.MatTypeCV8UC1:
		format = frame.FormatGray8
	default:
		return frame.Frame{}, fmt.Errorf("unsupported mat type %v", m.Type())
	}

	rows, cols := m.Rows(), m.Cols()
	pix := m.ToBytes()
	if rows <= 0 || len(pix) < rows*cols*format.Channels() {
		return frame.Frame{}, fmt.Errorf("short pixel buffer: %d bytes for %dx%d", len(pix), cols, rows)
	}

	return frame.Frame{
		Width:  cols,
		Height: rows,
		Stride: len(pix) / rows,
		Format: format,
		Pix:    pix,
	}, nil
}

// matFromFrame builds a Mat over a tightly packed copy of f. The caller closes it.
func matFromFrame(f frame.Frame) (gocv.Mat, error) {
	if err := f.Validate(); err != nil {
		return gocv.Mat{}, err
	}

	var matType gocv.MatType
	switch f.Format {
	case frame.FormatBGR24:
		matType = gocv.MatTypeCV8UC3
	case frame.FormatGray8:
		matType = gocv.MatTypeCV8UC1
	}

	c := f.Compact()
	return gocv.NewMatFromBytes(c.Height, c.Width, matType, c.Pix[:c.Stride*c.Height])
}
