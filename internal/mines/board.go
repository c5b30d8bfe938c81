package mines

import (
	"fmt"
	"math/rand/v2"
)

type State int8

const (
	Stopped State = iota
	Playing
	Won
	Failed
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Won:
		return "won"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int8(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Adjacency is the number of mines around a safe cell, or [Mine].
type Adjacency int8

const Mine Adjacency = -1

type Board struct {
	params    Params
	mines     []bool
	adjacency []Adjacency
	revealed  []bool
	flagged   []bool
	nrevealed int
	nflagged  int
	exploded  int
	state     State
}

// Generate places p.Bombs mines uniformly at random and returns a board ready
// to be played.
func Generate(p Params, r *rand.Rand) (*Board, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	b := newBoard(p)
	if 2*p.Bombs <= p.Cells() {
		b.sampleMines(r)
	} else {
		b.shuffleMines(r)
	}
	b.countAdjacency()
	return b, nil
}

// Layout builds a playable board with mines at exactly the given points.
func Layout(p Params, mines []Point) (*Board, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(mines) != p.Bombs {
		return nil, fmt.Errorf(
			"%w: %d mines for %d bombs", ErrInvalidLayout, len(mines), p.Bombs,
		)
	}
	b := newBoard(p)
	for _, m := range mines {
		if !p.InBounds(m.X, m.Y) {
			return nil, fmt.Errorf("%w: mine at %d:%d", ErrInvalidLayout, m.X, m.Y)
		}
		i := p.index(m.X, m.Y)
		if b.mines[i] {
			return nil, fmt.Errorf("%w: duplicate mine at %d:%d", ErrInvalidLayout, m.X, m.Y)
		}
		b.mines[i] = true
	}
	b.countAdjacency()
	return b, nil
}

func newBoard(p Params) *Board {
	n := p.Cells()
	return &Board{
		params:    p,
		mines:     make([]bool, n),
		adjacency: make([]Adjacency, n),
		revealed:  make([]bool, n),
		flagged:   make([]bool, n),
		exploded:  -1,
		state:     Playing,
	}
}

// Rejection sampling; only used while at most half the board is mined so the
// expected number of draws stays below 2*Bombs.
func (b *Board) sampleMines(r *rand.Rand) {
	for placed := 0; placed < b.params.Bombs; {
		x := r.IntN(b.params.Columns)
		y := r.IntN(b.params.Rows)
		i := b.params.index(x, y)
		if !b.mines[i] {
			b.mines[i] = true
			placed++
		}
	}
}

// Partial Fisher-Yates over all cell indices.
func (b *Board) shuffleMines(r *rand.Rand) {
	cells := make([]int, b.params.Cells())
	for i := range cells {
		cells[i] = i
	}
	for i := range b.params.Bombs {
		j := i + r.IntN(len(cells)-i)
		cells[i], cells[j] = cells[j], cells[i]
		b.mines[cells[i]] = true
	}
}

func (b *Board) countAdjacency() {
	for x := range b.params.Columns {
		for y := range b.params.Rows {
			i := b.params.index(x, y)
			if b.mines[i] {
				b.adjacency[i] = Mine
				continue
			}
			n := 0
			for dx := -1; dx <= 1; dx++ {
				for dy := -1; dy <= 1; dy++ {
					xx, yy := x+dx, y+dy
					if (dx != 0 || dy != 0) &&
						b.params.InBounds(xx, yy) &&
						b.mines[b.params.index(xx, yy)] {
						n++
					}
				}
			}
			b.adjacency[i] = Adjacency(n)
		}
	}
}

func (b *Board) Params() Params { return b.params }

func (b *Board) State() State { return b.state }

func (b *Board) InBounds(x, y int) bool { return b.params.InBounds(x, y) }

func (b *Board) IsRevealed(x, y int) bool {
	return b.params.InBounds(x, y) && b.revealed[b.params.index(x, y)]
}

func (b *Board) IsFlagged(x, y int) bool {
	return b.params.InBounds(x, y) && b.flagged[b.params.index(x, y)]
}

// AdjacencyValue returns false for cells outside the board.
func (b *Board) AdjacencyValue(x, y int) (Adjacency, bool) {
	if !b.params.InBounds(x, y) {
		return 0, false
	}
	return b.adjacency[b.params.index(x, y)], true
}

func (b *Board) Revealed() int { return b.nrevealed }

func (b *Board) Flagged() int { return b.nflagged }

// Mines lists mine positions in linear index order.
func (b *Board) Mines() []Point {
	points := make([]Point, 0, b.params.Bombs)
	for i, m := range b.mines {
		if m {
			points = append(points, b.params.point(i))
		}
	}
	return points
}

// Exploded returns the mine that ended the game, if any.
func (b *Board) Exploded() (Point, bool) {
	if b.exploded < 0 {
		return Point{}, false
	}
	return b.params.point(b.exploded), true
}
