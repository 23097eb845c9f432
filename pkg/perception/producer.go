// Package perception turns captured device frames into engine.Frames:
// capture, darkness measure, detection, classification, then a lossy Put.
package perception

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-dungeon/pkg/detection"
	"github.com/teslashibe/go-dungeon/pkg/engine"
	"github.com/teslashibe/go-dungeon/pkg/queue"
	"github.com/teslashibe/go-dungeon/pkg/screen"
)

// Detector produces raw detector tuples for one BGR frame.
type Detector interface {
	Detect(img gocv.Mat) ([]detection.Raw, error)
}

// Config tunes the producer loop.
type Config struct {
	// DarkThreshold is the gray level below which a pixel counts as black.
	DarkThreshold uint8 `yaml:"dark_threshold"`

	// ReadBackoff is the pause after a failed read.
	ReadBackoff time.Duration `yaml:"read_backoff"`

	// Interval throttles the loop. Zero runs as fast as the source delivers.
	Interval time.Duration `yaml:"interval"`
}

// DefaultConfig returns the production producer settings.
func DefaultConfig() Config {
	return Config{
		DarkThreshold: screen.DefaultDarkThreshold,
		ReadBackoff:   200 * time.Millisecond,
	}
}

// Stats counts producer activity.
type Stats struct {
	Frames       uint64 `json:"frames"`
	Dropped      uint64 `json:"dropped"`
	ReadErrors   uint64 `json:"read_errors"`
	DetectErrors uint64 `json:"detect_errors"`
}

// Producer is the capture side of the frame queue.
type Producer struct {
	config     Config
	source     screen.Source
	detector   Detector
	classifier *detection.Classifier
	frames     *queue.Lossy[engine.Frame]
	logger     *slog.Logger
	now        func() time.Time

	seq          atomic.Uint64
	dropped      atomic.Uint64
	readErrors   atomic.Uint64
	detectErrors atomic.Uint64
}

// New creates a producer feeding frames.
func New(cfg Config, source screen.Source, detector Detector, classifier *detection.Classifier,
	frames *queue.Lossy[engine.Frame], logger *slog.Logger) *Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Producer{
		config:     cfg,
		source:     source,
		detector:   detector,
		classifier: classifier,
		frames:     frames,
		logger:     logger.With("component", "perception"),
		now:        time.Now,
	}
}

// Run produces frames until ctx is cancelled or classification fails. The
// queue is closed on return so the engine winds down with it.
func (p *Producer) Run(ctx context.Context) error {
	defer p.frames.Close()

	img := gocv.NewMat()
	defer img.Close()

	var ticker *time.Ticker
	if p.config.Interval > 0 {
		ticker = time.NewTicker(p.config.Interval)
		defer ticker.Stop()
	}

	p.logger.Info("producer started", "dark_threshold", p.config.DarkThreshold, "interval", p.config.Interval)

	for {
		if ticker != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		} else if ctx.Err() != nil {
			return nil
		}

		err := p.Once(&img)
		switch {
		case err == nil:
		case errors.Is(err, detection.ErrLabelIndex):
			p.logger.Error("producer stopped", "error", err)
			return err
		case errors.Is(err, screen.ErrClosed):
			return nil
		case errors.Is(err, errRead):
			if !sleepCtx(ctx, p.config.ReadBackoff) {
				return nil
			}
		}
	}
}

var errRead = errors.New("perception: read failed")

// Once captures and publishes a single frame. img is reused between calls.
func (p *Producer) Once(img *gocv.Mat) error {
	if err := p.source.Read(img); err != nil {
		if errors.Is(err, screen.ErrClosed) {
			return err
		}
		n := p.readErrors.Add(1)
		p.logger.Warn("frame read failed", "error", err, "failures", n)
		return fmt.Errorf("%w: %w", errRead, err)
	}
	captured := p.now()

	dark := screen.DarkRatio(*img, p.config.DarkThreshold)

	raw, err := p.detector.Detect(*img)
	if err != nil {
		if errors.Is(err, detection.ErrLabelIndex) {
			return err
		}
		p.detectErrors.Add(1)
		p.logger.Warn("detection failed", "error", err)
		raw = nil
	}

	set, err := p.classifier.Classify(raw)
	if err != nil {
		return err
	}

	frame := engine.Frame{
		Seq:        p.seq.Add(1),
		Width:      img.Cols(),
		Height:     img.Rows(),
		DarkRatio:  dark,
		Detections: set,
		CapturedAt: captured,
	}
	if p.frames.Put(frame) {
		p.dropped.Add(1)
	}
	p.logger.Debug("frame", "seq", frame.Seq, "dark", dark, "detections", set.Total())
	return nil
}

// Stats returns a snapshot of the counters.
func (p *Producer) Stats() Stats {
	return Stats{
		Frames:       p.seq.Load(),
		Dropped:      p.dropped.Load(),
		ReadErrors:   p.readErrors.Load(),
		DetectErrors: p.detectErrors.Load(),
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
