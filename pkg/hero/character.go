package hero

import (
	_ "embed"
	"fmt"
	"image"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed characters.yaml
var builtinYAML []byte

// MinorRotation is the key used for rooms without their own rotation.
const MinorRotation = "minor"

// Character is one playable character's data.
type Character struct {
	Name        string
	DisplayName string

	// Next is the character to hand off to after a completed run; empty ends the chain.
	Next string

	// Dungeon is the default dungeon this character runs.
	Dungeon string

	Buff      Rotation
	Rotations map[int]Rotation
	Minor     Rotation
}

// Rotation returns the opening rotation for a room number, falling back to Minor.
func (c *Character) Rotation(number int) Rotation {
	if r, ok := c.Rotations[number]; ok {
		return r
	}
	return c.Minor
}

// Catalog holds the control layout and every known character.
type Catalog struct {
	Layout     Layout
	Characters map[string]*Character
}

// Get returns the named character or ErrUnsupportedHero.
func (c *Catalog) Get(name string) (*Character, error) {
	ch, ok := c.Characters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnsupportedHero, name, strings.Join(c.Names(), ", "))
	}
	return ch, nil
}

// Names returns all character names, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.Characters))
	for n := range c.Characters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Chain returns the hand-off order starting at name, stopping at the end of
// the chain or before a character repeats.
func (c *Catalog) Chain(name string) ([]string, error) {
	var chain []string
	seen := make(map[string]bool)
	for name != "" && !seen[name] {
		ch, err := c.Get(name)
		if err != nil {
			return nil, err
		}
		seen[name] = true
		chain = append(chain, name)
		name = ch.Next
	}
	return chain, nil
}

var (
	builtin     *Catalog
	builtinOnce sync.Once
)

// Builtin returns the catalog compiled into the binary.
func Builtin() *Catalog {
	builtinOnce.Do(func() {
		c, err := ParseCatalog(builtinYAML)
		if err != nil {
			panic(fmt.Sprintf("hero: builtin catalog: %v", err))
		}
		builtin = c
	})
	return builtin
}

type catalogFile struct {
	Layout     layoutSpec               `yaml:"layout"`
	Characters map[string]characterSpec `yaml:"characters"`
}

type layoutSpec struct {
	Wheel       [2]int            `yaml:"wheel"`
	WheelRadius float64           `yaml:"wheel_radius"`
	Attack      [2]int            `yaml:"attack"`
	Awaken      [2]int            `yaml:"awaken"`
	TapHold     float64           `yaml:"tap_hold"`
	Slots       map[string][2]int `yaml:"slots"`
}

type characterSpec struct {
	DisplayName string                `yaml:"display_name"`
	Next        string                `yaml:"next"`
	Dungeon     string                `yaml:"dungeon"`
	Skills      map[string]string     `yaml:"skills"`
	Buff        []stepSpec            `yaml:"buff"`
	Rotations   map[string][]stepSpec `yaml:"rotations"`
}

func pt(v [2]int) image.Point {
	return image.Point{X: v[0], Y: v[1]}
}

// ParseCatalog decodes and validates a character catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("hero: parse catalog: %w", err)
	}

	layout := Layout{
		Wheel:       pt(f.Layout.Wheel),
		WheelRadius: f.Layout.WheelRadius,
		Attack:      pt(f.Layout.Attack),
		Awaken:      pt(f.Layout.Awaken),
		TapHold:     seconds(f.Layout.TapHold),
		Slots:       make(map[string]image.Point, len(f.Layout.Slots)),
	}
	if layout.WheelRadius <= 0 {
		return nil, fmt.Errorf("hero: layout wheel_radius must be positive")
	}
	for name, v := range f.Layout.Slots {
		layout.Slots[name] = pt(v)
	}

	cat := &Catalog{Layout: layout, Characters: make(map[string]*Character, len(f.Characters))}
	for name, spec := range f.Characters {
		ch, err := spec.build(name, layout)
		if err != nil {
			return nil, fmt.Errorf("hero %q: %w", name, err)
		}
		cat.Characters[name] = ch
	}

	for name, ch := range cat.Characters {
		if ch.Next != "" {
			if _, ok := cat.Characters[ch.Next]; !ok {
				return nil, fmt.Errorf("hero %q: next %q: %w", name, ch.Next, ErrUnsupportedHero)
			}
		}
	}
	return cat, nil
}

func (s characterSpec) build(name string, layout Layout) (*Character, error) {
	ch := &Character{
		Name:        name,
		DisplayName: s.DisplayName,
		Next:        s.Next,
		Dungeon:     s.Dungeon,
		Rotations:   make(map[int]Rotation, len(s.Rotations)),
	}
	if ch.DisplayName == "" {
		ch.DisplayName = name
	}

	buff, err := buildRotation(s.Buff, s.Skills, layout)
	if err != nil {
		return nil, fmt.Errorf("buff: %w", err)
	}
	for _, step := range buff {
		if step.Kind == StepBuff {
			return nil, fmt.Errorf("buff: %w: buff step inside buff sequence", ErrInvalidStep)
		}
	}
	ch.Buff = buff

	for key, steps := range s.Rotations {
		r, err := buildRotation(steps, s.Skills, layout)
		if err != nil {
			return nil, fmt.Errorf("rotation %s: %w", key, err)
		}
		if key == MinorRotation {
			ch.Minor = r
			continue
		}
		n, err := strconv.Atoi(key)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("rotation key %q: want a room number or %q", key, MinorRotation)
		}
		ch.Rotations[n] = r
	}
	return ch, nil
}

func buildRotation(specs []stepSpec, skills map[string]string, layout Layout) (Rotation, error) {
	r := make(Rotation, 0, len(specs))
	for i, spec := range specs {
		step, err := spec.resolve(skills, layout)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		r = append(r, step)
	}
	return r, nil
}
