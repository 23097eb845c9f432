package hero

import (
	"fmt"
	"time"
)

// StepKind is the action a rotation step performs.
type StepKind int

const (
	StepWait StepKind = iota
	StepMove
	StepStop
	StepSkill
	StepAwaken
	StepAttack
	StepBuff
	StepSwipe
	StepQuick
)

func (k StepKind) String() string {
	switch k {
	case StepWait:
		return "wait"
	case StepMove:
		return "move"
	case StepStop:
		return "stop"
	case StepSkill:
		return "skill"
	case StepAwaken:
		return "awaken"
	case StepAttack:
		return "attack"
	case StepBuff:
		return "buff"
	case StepSwipe:
		return "swipe"
	case StepQuick:
		return "quick"
	}
	return "unknown"
}

// Step is one entry of a scripted rotation, followed by an optional pause.
type Step struct {
	Kind  StepKind
	Angle float64
	Slot  string
	DY    int
	// Direction is a Compass name for quick moves.
	Direction string
	Hold      time.Duration
	Wait      time.Duration
}

// Rotation is an ordered list of steps run on the calling goroutine.
type Rotation []Step

// Duration is the total scripted time of the rotation, holds plus waits.
func (r Rotation) Duration() time.Duration {
	var total time.Duration
	for _, s := range r {
		total += s.Hold + s.Wait
	}
	return total
}

// stepSpec is the YAML form of a step.
type stepSpec struct {
	Move   *float64 `yaml:"move"`
	Stop   bool     `yaml:"stop"`
	Skill  string   `yaml:"skill"`
	Awaken bool     `yaml:"awaken"`
	Attack bool     `yaml:"attack"`
	Buff   bool     `yaml:"buff"`
	Swipe  string   `yaml:"swipe"`
	Quick  string   `yaml:"quick"`
	DY     int      `yaml:"dy"`
	Hold   float64  `yaml:"hold"`
	Wait   float64  `yaml:"wait"`
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// resolve turns a parsed YAML step into a Step, mapping skill names through skills.
func (s stepSpec) resolve(skills map[string]string, layout Layout) (Step, error) {
	step := Step{Hold: seconds(s.Hold), Wait: seconds(s.Wait)}

	actions := 0
	if s.Move != nil {
		actions++
		step.Kind = StepMove
		step.Angle = *s.Move
		if step.Angle == Stop {
			step.Kind = StepStop
		}
	}
	if s.Stop {
		actions++
		step.Kind = StepStop
	}
	if s.Skill != "" {
		actions++
		step.Kind = StepSkill
		slot, err := resolveSlot(s.Skill, skills, layout)
		if err != nil {
			return Step{}, err
		}
		step.Slot = slot
	}
	if s.Awaken {
		actions++
		step.Kind = StepAwaken
	}
	if s.Attack {
		actions++
		step.Kind = StepAttack
	}
	if s.Buff {
		actions++
		step.Kind = StepBuff
	}
	if s.Swipe != "" {
		actions++
		step.Kind = StepSwipe
		slot, err := resolveSlot(s.Swipe, skills, layout)
		if err != nil {
			return Step{}, err
		}
		step.Slot = slot
		step.DY = s.DY
	}
	if s.Quick != "" {
		actions++
		step.Kind = StepQuick
		if _, ok := Compass[s.Quick]; !ok {
			return Step{}, fmt.Errorf("%w: unknown direction %q", ErrInvalidStep, s.Quick)
		}
		step.Direction = s.Quick
	}

	switch {
	case s.DY != 0 && s.Swipe == "":
		return Step{}, fmt.Errorf("%w: dy without swipe", ErrInvalidStep)
	case actions > 1:
		return Step{}, fmt.Errorf("%w: %d actions in one step", ErrInvalidStep, actions)
	case actions == 0 && s.Wait <= 0:
		return Step{}, fmt.Errorf("%w: empty step", ErrInvalidStep)
	case s.Hold < 0 || s.Wait < 0:
		return Step{}, fmt.Errorf("%w: negative duration", ErrInvalidStep)
	}
	return step, nil
}

func resolveSlot(name string, skills map[string]string, layout Layout) (string, error) {
	slot := name
	if mapped, ok := skills[name]; ok {
		slot = mapped
	}
	if _, ok := layout.Slot(slot); !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSkill, name)
	}
	return slot, nil
}
