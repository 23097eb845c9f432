package hero

import (
	"github.com/teslashibe/go-dungeon/pkg/input"
)

// New returns the controller for the named character from the builtin catalog.
// An unknown name fails with ErrUnsupportedHero.
func New(name string, touch input.Toucher, opts ...Option) (*Base, error) {
	return NewFromCatalog(Builtin(), name, touch, opts...)
}

// NewFromCatalog is New over an explicit catalog.
func NewFromCatalog(cat *Catalog, name string, touch input.Toucher, opts ...Option) (*Base, error) {
	ch, err := cat.Get(name)
	if err != nil {
		return nil, err
	}
	return NewBase(ch, cat.Layout, touch, opts...), nil
}

var _ Controller = (*Base)(nil)
