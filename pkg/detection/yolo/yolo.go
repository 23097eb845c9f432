// Package yolo runs a YOLOv5 ONNX model through OpenCV's DNN module and emits
// normalized detector tuples for package detection.
package yolo

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-dungeon/pkg/detection"
)

// Config holds detector configuration
type Config struct {
	ModelPath        string
	ConfidenceThresh float32
	NMSThresh        float32
	InputWidth       int
	InputHeight      int
}

// DefaultConfig returns defaults for the 640x640 dungeon model.
func DefaultConfig() Config {
	return Config{
		ModelPath:        "models/best.onnx",
		ConfidenceThresh: 0.35,
		NMSThresh:        0.45,
		InputWidth:       640,
		InputHeight:      640,
	}
}

// Detector wraps a YOLOv5 network. Detect is serialized; gocv.Net is not
// safe for concurrent Forward calls.
type Detector struct {
	net       gocv.Net
	config    Config
	mu        sync.Mutex
	inputSize image.Point
	classes   int
}

// New loads the ONNX model. classes is the number of model classes and must
// match the label table the caller resolved from configuration.
func New(cfg Config, classes int) (*Detector, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", detection.ErrModelNotFound, cfg.ModelPath)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load YOLO model from %s", cfg.ModelPath)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &Detector{
		net:       net,
		config:    cfg,
		inputSize: image.Pt(cfg.InputWidth, cfg.InputHeight),
		classes:   classes,
	}, nil
}

// Detect runs the model on a BGR frame and returns boxes normalized to [0,1].
func (d *Detector) Detect(img gocv.Mat) ([]detection.Raw, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if img.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	blob := gocv.BlobFromImage(img, 1.0/255.0, d.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")

	output := d.net.Forward("")
	defer output.Close()

	return d.parseOutput(output)
}

// parseOutput decodes the YOLOv5 tensor.
// Output shape: [1, N, 5+classes] with rows (cx, cy, w, h, objectness, scores...)
func (d *Detector) parseOutput(output gocv.Mat) ([]detection.Raw, error) {
	size := output.Size()
	if len(size) != 3 {
		return nil, fmt.Errorf("unexpected output rank %d", len(size))
	}
	rows, cols := size[1], size[2]
	if cols != 5+d.classes {
		return nil, fmt.Errorf("%w: model emits %d classes, label table has %d",
			detection.ErrLabelIndex, cols-5, d.classes)
	}

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}

	var boxes []image.Rectangle
	var confidences []float32
	var classIDs []int

	for i := 0; i < rows; i++ {
		row := data[i*cols : (i+1)*cols]

		objectness := row[4]
		if objectness < d.config.ConfidenceThresh {
			continue
		}

		maxScore := float32(0)
		maxClassID := 0
		for c := 5; c < cols; c++ {
			if row[c] > maxScore {
				maxScore = row[c]
				maxClassID = c - 5
			}
		}

		score := objectness * maxScore
		if score < d.config.ConfidenceThresh {
			continue
		}

		cx, cy, w, h := row[0], row[1], row[2], row[3]
		boxes = append(boxes, image.Rect(
			int(cx-w/2), int(cy-h/2),
			int(cx+w/2), int(cy+h/2),
		))
		confidences = append(confidences, score)
		classIDs = append(classIDs, maxClassID)
	}

	if len(boxes) == 0 {
		return nil, nil
	}

	indices := gocv.NMSBoxes(boxes, confidences, d.config.ConfidenceThresh, d.config.NMSThresh)

	inW := float64(d.config.InputWidth)
	inH := float64(d.config.InputHeight)

	detections := make([]detection.Raw, 0, len(indices))
	for _, idx := range indices {
		box := boxes[idx]
		detections = append(detections, detection.Raw{
			X1:         clamp01(float64(box.Min.X) / inW),
			Y1:         clamp01(float64(box.Min.Y) / inH),
			X2:         clamp01(float64(box.Max.X) / inW),
			Y2:         clamp01(float64(box.Max.Y) / inH),
			Confidence: float64(confidences[idx]),
			Class:      classIDs[idx],
		})
	}

	return detections, nil
}

// Close releases the detector resources
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
