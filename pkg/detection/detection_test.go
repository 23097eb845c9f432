package detection

import (
	"errors"
	"testing"
)

func TestParseLabel(t *testing.T) {
	tests := []struct {
		name    string
		want    Label
		wantErr bool
	}{
		{"hero", Hero, false},
		{"go", Arrow, false},
		{"again", Retry, false},
		{"zeroPL", ZeroPoints, false},
		{"opendoor_l", DoorLeft, false},
		{"dragon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLabel(tt.name)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownLabel) {
					t.Fatalf("got err %v, want ErrUnknownLabel", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if got.String() != tt.name {
				t.Errorf("round trip: got %q", got.String())
			}
		})
	}
}

func TestNewLabelSet_DefaultClassesResolve(t *testing.T) {
	set, err := NewLabelSet(DefaultClassNames)
	if err != nil {
		t.Fatalf("NewLabelSet: %v", err)
	}
	if set.Len() != int(numLabels) {
		t.Errorf("Len: got %d, want %d", set.Len(), numLabels)
	}
}

func TestNewLabelSet_FailsFast(t *testing.T) {
	if _, err := NewLabelSet([]string{"hero", "boss"}); !errors.Is(err, ErrUnknownLabel) {
		t.Errorf("unknown class: got %v", err)
	}
	if _, err := NewLabelSet(nil); err == nil {
		t.Error("empty class list should fail")
	}
}

func TestClassifier_GroupsByLabel(t *testing.T) {
	labels, _ := NewLabelSet([]string{"hero", "monster", "card"})
	c := NewClassifier(labels, DefaultMinConfidence)

	set, err := c.Classify([]Raw{
		{0.1, 0.1, 0.2, 0.3, 0.9, 0},
		{0.5, 0.5, 0.6, 0.6, 0.8, 1},
		{0.7, 0.5, 0.8, 0.6, 0.7, 1},
		{0.2, 0.2, 0.3, 0.3, 0.2, 2}, // below threshold
	})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}

	if set.Count(Hero) != 1 {
		t.Errorf("hero: got %d, want 1", set.Count(Hero))
	}
	if set.Count(Monster) != 2 {
		t.Errorf("monster: got %d, want 2", set.Count(Monster))
	}
	if set.Has(Card) {
		t.Error("card below threshold should be dropped")
	}
	if set.Total() != 3 {
		t.Errorf("total: got %d, want 3", set.Total())
	}

	monsters := set.Get(Monster)
	if monsters[0].Box.X1 != 0.5 || monsters[1].Box.X1 != 0.7 {
		t.Error("detector order not preserved")
	}
}

func TestClassifier_OutOfRangeIndex(t *testing.T) {
	labels, _ := NewLabelSet([]string{"hero"})
	c := NewClassifier(labels, 0)

	_, err := c.Classify([]Raw{{0, 0, 1, 1, 0.9, 3}})
	if !errors.Is(err, ErrLabelIndex) {
		t.Errorf("got %v, want ErrLabelIndex", err)
	}
}

func TestSet_BestAndFirst(t *testing.T) {
	var s Set
	s.Add(Detection{Confidence: 0.5, Label: Retry})
	s.Add(Detection{Confidence: 0.9, Label: Retry})
	s.Add(Detection{Confidence: 0.7, Label: Retry})

	best, ok := s.Best(Retry)
	if !ok || best.Confidence != 0.9 {
		t.Errorf("Best: got %+v", best)
	}
	first, ok := s.First(Retry)
	if !ok || first.Confidence != 0.5 {
		t.Errorf("First: got %+v", first)
	}
	if s.FirstAbove(Retry, 0.8) {
		t.Error("FirstAbove should look at the first detection only")
	}
	if _, ok := s.Best(Repair); ok {
		t.Error("Best on empty label should report false")
	}
}

func TestSet_NilIsEmpty(t *testing.T) {
	var s *Set
	if s.Has(Hero) || s.Count(Monster) != 0 || len(s.Boxes(Item)) != 0 {
		t.Error("nil set should behave as empty")
	}
}
