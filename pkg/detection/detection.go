// Package detection groups raw detector output into per-label buckets for one frame.
package detection

import (
	"fmt"

	"github.com/teslashibe/go-dungeon/pkg/geometry"
)

// Label identifies a detector class the decision engine understands.
type Label int

// Labels the engine reacts to. The names match the model's class names.
const (
	Hero Label = iota
	Monster
	Item
	Arrow      // "go" arrow pointing at the next room
	Guide      // trail marker before the boss antechamber
	Card       // reward flip-card
	Retry      // "again" prompt
	Return     // "comeback" return-to-town prompt
	ZeroPoints // "zeroPL" no fatigue points left
	Repair
	DoorUp
	DoorDown
	DoorLeft
	DoorRight

	numLabels
)

var labelNames = [numLabels]string{
	Hero:       "hero",
	Monster:    "monster",
	Item:       "item",
	Arrow:      "go",
	Guide:      "guide",
	Card:       "card",
	Retry:      "again",
	Return:     "comeback",
	ZeroPoints: "zeroPL",
	Repair:     "repair",
	DoorUp:     "opendoor_t",
	DoorDown:   "opendoor_d",
	DoorLeft:   "opendoor_l",
	DoorRight:  "opendoor_r",
}

// String returns the model class name for l.
func (l Label) String() string {
	if l < 0 || l >= numLabels {
		return fmt.Sprintf("label(%d)", int(l))
	}
	return labelNames[l]
}

// ParseLabel resolves a model class name.
func ParseLabel(name string) (Label, error) {
	for i, n := range labelNames {
		if n == name {
			return Label(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLabel, name)
}

// DefaultClassNames is the class order of the stock dungeon model.
var DefaultClassNames = []string{
	"hero", "monster", "item", "go", "guide", "card", "again", "comeback",
	"zeroPL", "repair", "opendoor_t", "opendoor_d", "opendoor_l", "opendoor_r",
}

// Detection is one labeled box from a single frame.
type Detection struct {
	Box        geometry.Box // normalized (x1,y1,x2,y2)
	Confidence float64
	Label      Label
}

// Raw is a detector tuple (x1, y1, x2, y2, confidence, classIndex).
type Raw struct {
	X1, Y1, X2, Y2 float64
	Confidence     float64
	Class          int
}

// LabelSet maps model class indices to labels. It is total over the model's
// class range: every index either resolves or is rejected.
type LabelSet struct {
	labels []Label
}

// NewLabelSet resolves the model's ordered class names once at startup.
func NewLabelSet(classNames []string) (*LabelSet, error) {
	if len(classNames) == 0 {
		return nil, fmt.Errorf("%w: empty class list", ErrUnknownLabel)
	}
	labels := make([]Label, len(classNames))
	for i, name := range classNames {
		l, err := ParseLabel(name)
		if err != nil {
			return nil, fmt.Errorf("class %d: %w", i, err)
		}
		labels[i] = l
	}
	return &LabelSet{labels: labels}, nil
}

// Len returns the number of model classes.
func (s *LabelSet) Len() int {
	return len(s.labels)
}

// Label resolves a class index.
func (s *LabelSet) Label(index int) (Label, error) {
	if index < 0 || index >= len(s.labels) {
		return 0, fmt.Errorf("%w: %d (model has %d classes)", ErrLabelIndex, index, len(s.labels))
	}
	return s.labels[index], nil
}

// Set is the per-frame mapping label -> detections in detector order.
type Set struct {
	byLabel [numLabels][]Detection
}

// Add appends d to its label's bucket.
func (s *Set) Add(d Detection) {
	if d.Label < 0 || d.Label >= numLabels {
		return
	}
	s.byLabel[d.Label] = append(s.byLabel[d.Label], d)
}

// Get returns the detections for l in detector order.
func (s *Set) Get(l Label) []Detection {
	if s == nil || l < 0 || l >= numLabels {
		return nil
	}
	return s.byLabel[l]
}

// Count returns how many detections carry label l.
func (s *Set) Count(l Label) int {
	return len(s.Get(l))
}

// Has reports whether any detection carries label l.
func (s *Set) Has(l Label) bool {
	return s.Count(l) > 0
}

// First returns the first detection for l in detector order.
func (s *Set) First(l Label) (Detection, bool) {
	dets := s.Get(l)
	if len(dets) == 0 {
		return Detection{}, false
	}
	return dets[0], true
}

// FirstAbove reports whether the first detection for l is above minConf.
func (s *Set) FirstAbove(l Label, minConf float64) bool {
	d, ok := s.First(l)
	return ok && d.Confidence > minConf
}

// Best returns the highest-confidence detection for l.
func (s *Set) Best(l Label) (Detection, bool) {
	dets := s.Get(l)
	if len(dets) == 0 {
		return Detection{}, false
	}
	best := dets[0]
	for _, d := range dets[1:] {
		if d.Confidence > best.Confidence {
			best = d
		}
	}
	return best, true
}

// Boxes returns the boxes for l in detector order.
func (s *Set) Boxes(l Label) []geometry.Box {
	dets := s.Get(l)
	boxes := make([]geometry.Box, len(dets))
	for i, d := range dets {
		boxes[i] = d.Box
	}
	return boxes
}

// Total returns the number of detections across all labels.
func (s *Set) Total() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, dets := range s.byLabel {
		n += len(dets)
	}
	return n
}

// Classifier turns raw detector tuples into a Set.
type Classifier struct {
	labels  *LabelSet
	minConf float64
}

// DefaultMinConfidence drops weak detections before classification.
const DefaultMinConfidence = 0.35

// NewClassifier creates a classifier that drops detections at or below minConf.
func NewClassifier(labels *LabelSet, minConf float64) *Classifier {
	return &Classifier{labels: labels, minConf: minConf}
}

// Classify groups raw detections by label. An out-of-range class index is a
// configuration error and aborts classification.
func (c *Classifier) Classify(raw []Raw) (*Set, error) {
	set := &Set{}
	for _, r := range raw {
		if r.Confidence <= c.minConf {
			continue
		}
		l, err := c.labels.Label(r.Class)
		if err != nil {
			return nil, err
		}
		set.Add(Detection{
			Box:        geometry.Box{X1: r.X1, Y1: r.Y1, X2: r.X2, Y2: r.Y2},
			Confidence: r.Confidence,
			Label:      l,
		})
	}
	return set, nil
}
