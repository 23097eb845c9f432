// Package dungeon holds the static room graphs the decision engine navigates.
package dungeon

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-dungeon/pkg/detection"
	"github.com/teslashibe/go-dungeon/pkg/geometry"
)

//go:embed dungeons.yaml
var builtinYAML []byte

// ErrUnknownDungeon is returned when a dungeon name is not in the catalog.
var ErrUnknownDungeon = errors.New("dungeon: unknown dungeon")

// Direction is the side of the room the exit door is on.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

// ParseDirection accepts up/top, down, left and right.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "top":
		return Up, nil
	case "down":
		return Down, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	}
	return 0, fmt.Errorf("dungeon: unknown direction %q", s)
}

// UnmarshalYAML decodes a direction name.
func (d *Direction) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseDirection(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalYAML encodes the direction name.
func (d Direction) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// DoorLabel returns the detector label of an open door facing d.
func DoorLabel(d Direction) detection.Label {
	switch d {
	case Up:
		return detection.DoorUp
	case Down:
		return detection.DoorDown
	case Left:
		return detection.DoorLeft
	default:
		return detection.DoorRight
	}
}

// Coord is a map-grid cell.
type Coord [2]int

// Room is one step of a dungeon route.
type Room struct {
	Coord Coord
	Exit  Direction
}

// Graph is the ordered room route for one dungeon target.
type Graph struct {
	Name        string
	DisplayName string
	Rooms       []Room

	// PreBossRoom is the room index right before the special (boss
	// antechamber) room, where the guide-marker trail appears.
	PreBossRoom int

	InitialDirection Direction

	// Stagnation recovery moves aim at these normalized points.
	RecoveryPoint        geometry.Point
	PreBossRecoveryPoint geometry.Point
}

// Len returns the number of rooms on the route.
func (g *Graph) Len() int {
	return len(g.Rooms)
}

// Exit returns the exit direction for a room index, false when off the route.
func (g *Graph) Exit(room int) (Direction, bool) {
	if room < 0 || room >= len(g.Rooms) {
		return 0, false
	}
	return g.Rooms[room].Exit, true
}

// IsPreBoss reports whether room is the designated pre-boss room.
func (g *Graph) IsPreBoss(room int) bool {
	return room == g.PreBossRoom
}

// Catalog maps dungeon names to graphs.
type Catalog map[string]*Graph

// Get returns the named graph.
func (c Catalog) Get(name string) (*Graph, error) {
	g, ok := c[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownDungeon, name, strings.Join(c.Names(), ", "))
	}
	return g, nil
}

// Names returns the catalog's dungeon names, sorted.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for n := range c {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Builtin returns the catalog compiled into the binary.
func Builtin() Catalog {
	c, err := Parse(builtinYAML)
	if err != nil {
		panic(fmt.Sprintf("dungeon: builtin catalog: %v", err))
	}
	return c
}

type fileFormat struct {
	Dungeons []graphSpec `yaml:"dungeons"`
}

type graphSpec struct {
	Name                 string      `yaml:"name"`
	DisplayName          string      `yaml:"display_name"`
	Path                 []Coord     `yaml:"path"`
	Exits                []Direction `yaml:"exits"`
	SpecialRoom          *Coord      `yaml:"special_room"`
	PreBossRoom          *int        `yaml:"pre_boss_room"`
	InitialDirection     *Direction  `yaml:"initial_direction"`
	RecoveryPoint        [2]float64  `yaml:"recovery_point"`
	PreBossRecoveryPoint [2]float64  `yaml:"pre_boss_recovery_point"`
}

// Parse decodes a catalog document.
func Parse(data []byte) (Catalog, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("dungeon: parse: %w", err)
	}

	c := make(Catalog, len(f.Dungeons))
	for _, spec := range f.Dungeons {
		g, err := spec.build()
		if err != nil {
			return nil, fmt.Errorf("dungeon %q: %w", spec.Name, err)
		}
		if _, dup := c[g.Name]; dup {
			return nil, fmt.Errorf("dungeon %q: duplicate name", g.Name)
		}
		c[g.Name] = g
	}
	return c, nil
}

func (s graphSpec) build() (*Graph, error) {
	if s.Name == "" {
		return nil, errors.New("missing name")
	}
	if len(s.Path) == 0 {
		return nil, errors.New("empty path")
	}

	exits := s.Exits
	if len(exits) == 0 {
		derived, err := deriveExits(s.Path)
		if err != nil {
			return nil, err
		}
		exits = derived
	}
	if len(exits) != len(s.Path) {
		return nil, fmt.Errorf("%d exits for %d rooms", len(exits), len(s.Path))
	}

	g := &Graph{
		Name:                 s.Name,
		DisplayName:          s.DisplayName,
		Rooms:                make([]Room, len(s.Path)),
		PreBossRoom:          -1,
		InitialDirection:     exits[0],
		RecoveryPoint:        geometry.Pt(s.RecoveryPoint[0], s.RecoveryPoint[1]),
		PreBossRecoveryPoint: geometry.Pt(s.PreBossRecoveryPoint[0], s.PreBossRecoveryPoint[1]),
	}
	if g.DisplayName == "" {
		g.DisplayName = g.Name
	}
	if s.InitialDirection != nil {
		g.InitialDirection = *s.InitialDirection
	}
	for i, coord := range s.Path {
		g.Rooms[i] = Room{Coord: coord, Exit: exits[i]}
	}

	switch {
	case s.PreBossRoom != nil:
		g.PreBossRoom = *s.PreBossRoom
	case s.SpecialRoom != nil:
		for i, coord := range s.Path {
			if coord == *s.SpecialRoom {
				g.PreBossRoom = i - 1
				break
			}
		}
		if g.PreBossRoom < 0 {
			return nil, fmt.Errorf("special room %v is not on the path or is the entrance", *s.SpecialRoom)
		}
	}
	if g.PreBossRoom >= len(g.Rooms) {
		return nil, fmt.Errorf("pre-boss room %d beyond %d rooms", g.PreBossRoom, len(g.Rooms))
	}

	return g, nil
}

// deriveExits turns a cell path into exit directions.
func deriveExits(path []Coord) ([]Direction, error) {
	exits := make([]Direction, len(path))
	for i := 0; i+1 < len(path); i++ {
		dx := path[i+1][0] - path[i][0]
		dy := path[i+1][1] - path[i][1]
		switch {
		case dx == 1 && dy == 0:
			exits[i] = Right
		case dx == -1 && dy == 0:
			exits[i] = Left
		case dx == 0 && dy == 1:
			exits[i] = Up
		case dx == 0 && dy == -1:
			exits[i] = Down
		default:
			return nil, fmt.Errorf("rooms %d and %d are not adjacent", i, i+1)
		}
	}
	if len(path) > 1 {
		exits[len(path)-1] = exits[len(path)-2]
	} else {
		exits[0] = Right
	}
	return exits, nil
}
