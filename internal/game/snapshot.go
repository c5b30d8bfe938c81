package game

import (
	"time"

	"github.com/google/uuid"

	"github.com/vancomm/minesweeper-classic/internal/mines"
)

// Snapshot is a consistent copy of everything a client draws.
type Snapshot struct {
	ID        uuid.UUID
	Params    mines.Params
	State     mines.State
	Grid      mines.Grid
	FlagsLeft int
	Elapsed   float64
	Pending   int
	Recorded  bool
	Exploded  *mines.Point
	StartedAt time.Time
	EndedAt   time.Time
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshot()
}

func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		ID:        s.id,
		Params:    s.params,
		State:     mines.Stopped,
		Grid:      mines.HiddenGrid(s.params),
		FlagsLeft: s.params.Bombs,
		Elapsed:   s.elapsed(),
		Pending:   len(s.pending),
		Recorded:  s.recorded,
		StartedAt: s.startedAt,
		EndedAt:   s.endedAt,
	}
	if s.board == nil {
		return snap
	}

	snap.State = s.board.State()
	snap.Grid = s.board.PlayerGrid()
	snap.FlagsLeft = s.params.Bombs - s.board.Flagged()
	if p, ok := s.board.Exploded(); ok {
		snap.Exploded = &p
	}
	return snap
}
