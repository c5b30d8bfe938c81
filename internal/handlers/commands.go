package handlers

import (
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/vancomm/minesweeper-classic/internal/game"
)

func iterBySep(s string, sep string) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		i := 0
		found := true
		var piece string
		for found {
			piece, s, found = strings.Cut(s, sep)
			if !yield(i, piece) {
				return
			}
			i += 1
		}
	}
}

func parseXY(twoStrings []string) (x int, y int, err error) {
	if x, err = strconv.Atoi(twoStrings[0]); err != nil {
		err = fmt.Errorf("first argument must be an int")
		return
	}
	if y, err = strconv.Atoi(twoStrings[1]); err != nil {
		err = fmt.Errorf("second argument must be an int")
		return
	}
	return
}

// Maps known commands to number of arguments
var commandNargs = map[string]int{
	"g": 0,
	"s": 0,
	"o": 2,
	"f": 2,
}

// executeCommand applies one line of the socket protocol:
//
//	g      get the session as is
//	s      start a new game
//	o x y  open (reveal) a cell
//	f x y  toggle a flag
func executeCommand(s *game.Session, c string) error {
	parts := strings.Fields(c)
	if len(parts) == 0 {
		return fmt.Errorf("empty command")
	}

	nargs, ok := commandNargs[parts[0]]
	if !ok {
		return fmt.Errorf("unknown command %q", parts[0])
	}
	if nargs != len(parts)-1 {
		return fmt.Errorf("invalid number of arguments")
	}

	switch parts[0] {
	case "g":
		return nil
	case "s":
		return s.Start()
	case "o":
		x, y, err := parseXY(parts[1:])
		if err != nil {
			return err
		}
		_, err = s.Reveal(x, y)
		return err
	case "f":
		if x, y, err := parseXY(parts[1:]); err != nil {
			return err
		} else {
			return s.Flag(x, y)
		}
	}
	return fmt.Errorf("invalid command")
}
