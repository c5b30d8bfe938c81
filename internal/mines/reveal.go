package mines

import "fmt"

type Outcome int8

const (
	Continue Outcome = iota
	Victory
	Lost
	Ignored
)

func (o Outcome) String() string {
	switch o {
	case Continue:
		return "continue"
	case Victory:
		return "won"
	case Lost:
		return "lost"
	case Ignored:
		return "ignored"
	default:
		return fmt.Sprintf("Outcome(%d)", int8(o))
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

type RevealResult struct {
	Outcome Outcome `json:"outcome"`
	// Cells the caller should attempt next. Only set for zero-count cells.
	Cascade []Point `json:"cascade,omitempty"`
}

// up, left, right, down
var orthogonal = [4]Point{{0, -1}, {-1, 0}, {1, 0}, {0, 1}}

// Reveal uncovers a single cell. Out-of-bounds coordinates are reported with
// [ErrOutOfBounds] alongside an [Ignored] outcome.
func (b *Board) Reveal(x, y int) (RevealResult, error) {
	if !b.params.InBounds(x, y) {
		return RevealResult{Outcome: Ignored}, fmt.Errorf(
			"%w: %d:%d on %dx%d", ErrOutOfBounds, x, y, b.params.Columns, b.params.Rows,
		)
	}
	i := b.params.index(x, y)
	if b.state != Playing || b.revealed[i] {
		return RevealResult{Outcome: Ignored}, nil
	}

	b.uncover(i)

	if b.mines[i] {
		/*
		 * Expose every mine, flagged or not. Flags are never scored.
		 */
		b.exploded = i
		for j, m := range b.mines {
			if m && !b.revealed[j] {
				b.uncover(j)
			}
		}
		b.state = Failed
		return RevealResult{Outcome: Lost}, nil
	}

	var result RevealResult
	if b.adjacency[i] == 0 {
		for _, d := range orthogonal {
			xx, yy := x+d.X, y+d.Y
			if b.params.InBounds(xx, yy) && !b.revealed[b.params.index(xx, yy)] {
				result.Cascade = append(result.Cascade, Point{xx, yy})
			}
		}
	}

	if b.nrevealed == b.params.Cells()-b.params.Bombs {
		b.state = Won
		result.Outcome = Victory
		return result, nil
	}

	result.Outcome = Continue
	return result, nil
}

func (b *Board) uncover(i int) {
	b.revealed[i] = true
	b.nrevealed++
	if b.flagged[i] {
		b.flagged[i] = false
		b.nflagged--
	}
}

// ToggleFlag marks or unmarks an unrevealed cell while the game is running.
func (b *Board) ToggleFlag(x, y int) error {
	if !b.params.InBounds(x, y) {
		return fmt.Errorf(
			"%w: %d:%d on %dx%d", ErrOutOfBounds, x, y, b.params.Columns, b.params.Rows,
		)
	}
	i := b.params.index(x, y)
	if b.state != Playing || b.revealed[i] {
		return nil
	}
	b.flagged[i] = !b.flagged[i]
	if b.flagged[i] {
		b.nflagged++
	} else {
		b.nflagged--
	}
	return nil
}

type FloodResult struct {
	Outcome Outcome `json:"outcome"`
	// Newly uncovered safe cells in reveal order; excludes mines exposed on loss.
	Revealed []Point `json:"revealed"`
}

// Flood reveals (x, y) and drains the resulting cascade immediately,
// breadth first.
func (b *Board) Flood(x, y int) (FloodResult, error) {
	first, err := b.Reveal(x, y)
	if err != nil || first.Outcome == Ignored || first.Outcome == Lost {
		return FloodResult{Outcome: first.Outcome}, err
	}

	result := FloodResult{
		Outcome:  first.Outcome,
		Revealed: []Point{{x, y}},
	}
	queue := first.Cascade
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		r, err := b.Reveal(p.X, p.Y)
		if err != nil {
			return result, err
		}
		if r.Outcome == Ignored {
			continue
		}
		result.Revealed = append(result.Revealed, p)
		result.Outcome = r.Outcome
		queue = append(queue, r.Cascade...)
	}
	return result, nil
}
