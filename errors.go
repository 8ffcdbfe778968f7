package rigid

import (
	"errors"

	"github.com/gekko3d/rigid/shape"
)

var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrNilShape      = errors.New("fixture has no shape")
	ErrBodyDestroyed = errors.New("body was destroyed")
	ErrWorldLocked   = errors.New("world is locked during a step")

	// ErrInvalidShape is returned for shapes with non-positive dimensions.
	ErrInvalidShape = shape.ErrInvalidShape
)
