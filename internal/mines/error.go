package mines

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidParams = fmt.Errorf("%w: bad board params", ErrInvalidInput)
	ErrOutOfBounds   = fmt.Errorf("%w: cell out of bounds", ErrInvalidInput)
	ErrInvalidLayout = fmt.Errorf("%w: bad mine layout", ErrInvalidInput)
)
