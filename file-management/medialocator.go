package filemanagement

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/maskedsyntax/pypixl/common"
	"github.com/maskedsyntax/pypixl/logging"
)

// TimestampLayout is the time format embedded in every media file name
const TimestampLayout = "20060102_150405"

// MediaLocator decides where recordings and snapshots are written
type MediaLocator interface {
	// RecordingPath returns a path for a new recording encoded with codec
	RecordingPath(codec string, at time.Time) (string, error)

	// SnapshotPath returns a path for a new PNG snapshot
	SnapshotPath(at time.Time) (string, error)

	// Discard removes a file that should not be kept
	Discard(path string)
}

// LocalMediaLocator resolves directories on the local filesystem. Overrides win,
// then the user's XDG videos/pictures directories, then the home directory.
type LocalMediaLocator struct {
	prefix     string
	videoDir   string
	pictureDir string
	userDirs   func() (videos string, pictures string)
	homeDir    func() (string, error)
	logger     logging.Logger
	mu         sync.Mutex
}

func NewLocalMediaLocator(prefix, videoDir, pictureDir string, logger logging.Logger) *LocalMediaLocator {
	return &LocalMediaLocator{
		prefix:     prefix,
		videoDir:   videoDir,
		pictureDir: pictureDir,
		userDirs:   xdgUserDirs,
		homeDir:    os.UserHomeDir,
		logger:     logging.OrNop(logger),
	}
}

func xdgUserDirs() (string, string) {
	return xdg.UserDirs.Videos, xdg.UserDirs.Pictures
}

// FileName builds "<prefix>_<YYYYMMDD_HHmmss><ext>"
func FileName(prefix string, at time.Time, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("%s_%s%s", prefix, at.Format(TimestampLayout), ext)
}

func (l *LocalMediaLocator) RecordingPath(codec string, at time.Time) (string, error) {
	videos, _ := l.userDirs()
	dir, err := l.ensureDirectory(l.videoDir, videos)
	if err != nil {
		return "", fmt.Errorf("failed to prepare recordings directory: %w", err)
	}
	return filepath.Join(dir, FileName(l.prefix, at, common.CodecToFileExtension(codec))), nil
}

func (l *LocalMediaLocator) SnapshotPath(at time.Time) (string, error) {
	_, pictures := l.userDirs()
	dir, err := l.ensureDirectory(l.pictureDir, pictures)
	if err != nil {
		return "", fmt.Errorf("failed to prepare snapshots directory: %w", err)
	}
	return filepath.Join(dir, FileName(l.prefix, at, ".png")), nil
}

// Discard removes a file from disk
func (l *LocalMediaLocator) Discard(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		l.logger.Warn("Failed to remove file", "path", path, "error", err)
		return
	}
	l.logger.Info("Discarded file", "path", path)
}

// ensureDirectory picks the first non-empty candidate, falling back to the
// home directory, and creates it if it doesn't exist
func (l *LocalMediaLocator) ensureDirectory(override, conventional string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	dir := override
	if dir == "" {
		dir = conventional
	}
	if dir == "" {
		home, err := l.homeDir()
		if err != nil {
			return "", err
		}
		dir = home
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}
