// Package screen reads device frames through OpenCV and measures how dark
// they are.
package screen

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gocv.io/x/gocv"
)

var (
	// ErrClosed is returned by Read after Close.
	ErrClosed = errors.New("screen: source closed")

	// ErrNoFrame is returned when the source produced an empty frame.
	ErrNoFrame = errors.New("screen: no frame")
)

// DefaultDarkThreshold is the gray intensity below which a pixel counts as black.
const DefaultDarkThreshold = 30

// Source yields BGR frames.
type Source interface {
	// Read decodes the next frame into dst.
	Read(dst *gocv.Mat) error
	Close() error
}

// Capture reads from an OpenCV video capture: a device index, a v4l2
// loopback fed by scrcpy, a stream URL or a video file.
type Capture struct {
	mu     sync.Mutex
	vc     *gocv.VideoCapture
	closed bool
}

// OpenCapture opens source. Numeric sources are device indices.
func OpenCapture(source string) (*Capture, error) {
	vc, err := gocv.OpenVideoCapture(source)
	if err != nil {
		return nil, fmt.Errorf("screen: open %q: %w", source, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("screen: open %q: capture not opened", source)
	}
	return &Capture{vc: vc}, nil
}

// Read implements Source.
func (c *Capture) Read(dst *gocv.Mat) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if ok := c.vc.Read(dst); !ok || dst.Empty() {
		return ErrNoFrame
	}
	return nil
}

// Close releases the capture.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.vc.Close()
}

// Files replays still images from a directory in name order, looping at
// the end. Used to dry-run the bot against recorded screenshots.
type Files struct {
	mu     sync.Mutex
	paths  []string
	next   int
	closed bool
}

var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".bmp": true}

// OpenFiles lists the images under dir.
func OpenFiles(dir string) (*Files, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("screen: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("screen: no images in %s", dir)
	}
	sort.Strings(paths)
	return &Files{paths: paths}, nil
}

// Len returns the number of images.
func (f *Files) Len() int {
	return len(f.paths)
}

// Read implements Source.
func (f *Files) Read(dst *gocv.Mat) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	path := f.paths[f.next]
	f.next = (f.next + 1) % len(f.paths)
	f.mu.Unlock()

	img := gocv.IMRead(path, gocv.IMReadColor)
	defer img.Close()
	if img.Empty() {
		return fmt.Errorf("%w: %s", ErrNoFrame, path)
	}
	img.CopyTo(dst)
	return nil
}

// Close implements Source.
func (f *Files) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Open picks a Files source for directories and a Capture otherwise.
func Open(source string) (Source, error) {
	if info, err := os.Stat(source); err == nil && info.IsDir() {
		return OpenFiles(source)
	}
	return OpenCapture(source)
}
