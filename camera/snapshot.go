package camera

import (
	"fmt"

	"github.com/maskedsyntax/pypixl/frame"
	"gocv.io/x/gocv"
)

// GoCVSnapshotWriter encodes frames with OpenCV; the image format follows the file extension
type GoCVSnapshotWriter struct{}

func (GoCVSnapshotWriter) WriteSnapshot(path string, f frame.Frame) error {
	mat, err := matFromFrame(f)
	if err != nil {
		return fmt.Errorf("failed to convert frame: %w", err)
	}
	defer mat.Close()

	if ok := gocv.IMWrite(path, mat); !ok {
		return fmt.Errorf("failed to write image %s", path)
	}
	return nil
}
