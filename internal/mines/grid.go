package mines

import (
	"fmt"
	"strconv"
	"strings"
)

type CellState int8

const (
	Unknown       CellState = -2
	Flagged       CellState = -1
	ExplodedMine  CellState = 65
	UnflaggedMine CellState = 67
	/*
	 * Each item of a player grid is one of the following values:
	 *
	 *  - 0 to 8 mean the square is open and has a surrounding mine
	 *    count.
	 *
	 *  - -1 means the square is marked as a mine.
	 *
	 *  - -2 means the square is unknown.
	 *
	 *  - 65 means the square is the mine the player hit.
	 *
	 *  - 67 means the square is a mine exposed when the game was lost.
	 */
)

func (s CellState) String() string {
	switch {
	case s == Unknown:
		return "-"
	case s == Flagged:
		return "F"
	case s == 0:
		return "."
	case 0 < s && s <= 8:
		return strconv.Itoa(int(s))
	case s == ExplodedMine:
		return "X"
	case s == UnflaggedMine:
		return "*"
	default:
		return "!"
	}
}

// Grid is a row-major view of what the player can see.
type Grid []CellState

// ToString lays the grid out width cells per line.
func (g Grid) ToString(width int) string {
	if width <= 0 {
		return ""
	}
	var b strings.Builder
	for y := range len(g) / width {
		for x := range width {
			i := y*width + x
			if i >= len(g) {
				break
			}
			fmt.Fprint(&b, g[i].String()+" ")
		}
		fmt.Fprint(&b, "\n")
	}
	return b.String()
}

func (b *Board) PlayerGrid() Grid {
	c, r := b.params.Columns, b.params.Rows
	grid := make(Grid, c*r)
	for y := range r {
		for x := range c {
			i := b.params.index(x, y)
			var s CellState
			switch {
			case b.flagged[i]:
				s = Flagged
			case !b.revealed[i]:
				s = Unknown
			case i == b.exploded:
				s = ExplodedMine
			case b.mines[i]:
				s = UnflaggedMine
			default:
				s = CellState(b.adjacency[i])
			}
			grid[y*c+x] = s
		}
	}
	return grid
}

// String renders the mine field itself, row by row.
func (b *Board) String() string {
	var sb strings.Builder
	for y := range b.params.Rows {
		for x := range b.params.Columns {
			ch := "- "
			if b.mines[b.params.index(x, y)] {
				ch = "* "
			}
			fmt.Fprint(&sb, ch)
		}
		fmt.Fprint(&sb, "\n")
	}
	return sb.String()
}

// HiddenGrid is what the player sees before any board exists.
func HiddenGrid(p Params) Grid {
	grid := make(Grid, p.Cells())
	for i := range grid {
		grid[i] = Unknown
	}
	return grid
}
