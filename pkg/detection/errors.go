package detection

import "errors"

// Sentinel errors for label resolution and model loading.
var (
	// ErrUnknownLabel is returned when a class name has no matching Label.
	ErrUnknownLabel = errors.New("detection: unknown label")

	// ErrLabelIndex is returned when the model emits a class index outside the label table.
	ErrLabelIndex = errors.New("detection: class index out of range")

	// ErrModelNotFound is returned when the ONNX model file is missing.
	ErrModelNotFound = errors.New("detection: model file not found")
)
