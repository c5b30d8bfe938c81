package mines

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultColumns = 10
	DefaultRows    = 10
	DefaultBombs   = 10

	MaxColumns = 30
	MaxRows    = 30
)

type Params struct {
	Columns, Rows, Bombs int
}

func DefaultParams() Params {
	return Params{Columns: DefaultColumns, Rows: DefaultRows, Bombs: DefaultBombs}
}

func (p Params) Unpack() (c int, r int, b int) {
	return p.Columns, p.Rows, p.Bombs
}

func (p Params) Cells() int {
	return p.Columns * p.Rows
}

// Validate reports [ErrInvalidParams] for boards the engine refuses to build.
func (p Params) Validate() error {
	switch {
	case p.Columns <= 0 || p.Rows <= 0:
		return fmt.Errorf("%w: %dx%d board", ErrInvalidParams, p.Columns, p.Rows)
	case p.Columns > MaxColumns || p.Rows > MaxRows:
		return fmt.Errorf(
			"%w: %dx%d exceeds %dx%d", ErrInvalidParams,
			p.Columns, p.Rows, MaxColumns, MaxRows,
		)
	case p.Bombs <= 0:
		return fmt.Errorf("%w: bomb count must be positive", ErrInvalidParams)
	case p.Bombs >= p.Cells():
		return fmt.Errorf(
			"%w: %d bombs do not fit %d cells", ErrInvalidParams, p.Bombs, p.Cells(),
		)
	}
	return nil
}

func (p Params) InBounds(x, y int) bool {
	return 0 <= x && x < p.Columns && 0 <= y && y < p.Rows
}

// Linear cell index, column-major.
func (p Params) index(x, y int) int {
	return x*p.Rows + y
}

func (p Params) point(i int) Point {
	return Point{X: i / p.Rows, Y: i % p.Rows}
}

// Seed encodes params the way they appear in logs and debug output.
func (p Params) Seed() string {
	return fmt.Sprintf("%d:%d:%d", p.Columns, p.Rows, p.Bombs)
}

// ParseSeed reads "columns:rows:bombs". Anything other than exactly three
// integer fields is rejected.
func ParseSeed(seed string) (*Params, error) {
	fields := strings.Split(seed, ":")
	if len(fields) != 3 {
		return nil, fmt.Errorf(
			`%w: invalid seed (seed = "%s", fields = %d)`, ErrInvalidParams, seed, len(fields),
		)
	}

	var nums [3]int
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf(`%w: invalid seed (seed = "%s"): %w`, ErrInvalidParams, seed, err)
		}
		nums[i] = n
	}

	p := &Params{Columns: nums[0], Rows: nums[1], Bombs: nums[2]}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}
