package hero

import "errors"

var (
	// ErrUnsupportedHero is returned by New for a character name with no table.
	ErrUnsupportedHero = errors.New("hero: unsupported character")

	// ErrUnknownSkill is returned when a rotation names a skill with no slot.
	ErrUnknownSkill = errors.New("hero: unknown skill")

	// ErrInvalidStep is returned for a rotation step that is not exactly one action.
	ErrInvalidStep = errors.New("hero: invalid rotation step")
)
