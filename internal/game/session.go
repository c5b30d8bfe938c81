package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vancomm/minesweeper-classic/internal/mines"
	"github.com/vancomm/minesweeper-classic/internal/records"
)

var (
	ErrNotWon          = errors.New("game is not won")
	ErrAlreadyRecorded = errors.New("game is already recorded")
	ErrRecording       = errors.New("game is being recorded")
	ErrSessionNotFound = errors.New("session not found")
)

// TopRecords is how many leaderboard entries count as a top result.
const TopRecords = 10

// minRecordTime is the shortest time a record can carry, in seconds. A win
// on the first click can otherwise measure as zero.
const minRecordTime = 0.001

// Generator builds the board for a new game.
type Generator func(p mines.Params) (*mines.Board, error)

type Clock func() time.Time

// Leaderboard is the part of a records store a session needs on a win.
type Leaderboard interface {
	List(ctx context.Context) ([]records.Record, error)
	Add(ctx context.Context, name string, t float64) (records.Record, error)
}

// Session is one player's game. A nil board means the game has not been
// started yet and reports as [mines.Stopped].
//
// Cascades are not drained by Reveal. Their targets wait in a FIFO until
// Step, Settle or Pace picks them up.
type Session struct {
	id       uuid.UUID
	generate Generator
	now      Clock
	// unix nanoseconds, readable without mu
	lastSeen atomic.Int64

	mu        sync.Mutex
	params    mines.Params
	board     *mines.Board
	pending   []mines.Point
	startedAt time.Time
	endedAt   time.Time
	recorded  bool
	recording bool
}

func newSession(id uuid.UUID, p mines.Params, generate Generator, now Clock) *Session {
	s := &Session{
		id:       id,
		params:   p,
		generate: generate,
		now:      now,
	}
	s.touch()
	return s
}

func (s *Session) touch() {
	s.lastSeen.Store(s.now().UnixNano())
}

func (s *Session) idleSince() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

func (s *Session) ID() uuid.UUID { return s.id }

// Start deals a fresh board with the session's params. It is allowed from
// any state.
func (s *Session) Start() error {
	s.touch()
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.start()
}

func (s *Session) start() error {
	board, err := s.generate(s.params)
	if err != nil {
		return fmt.Errorf("unable to generate board: %w", err)
	}
	s.board = board
	s.pending = nil
	s.startedAt = s.now()
	s.endedAt = time.Time{}
	s.recorded = false
	return nil
}

// Reveal uncovers one cell, starting a game first when none is running
// yet. Cascade targets are queued, not revealed.
func (s *Session) Reveal(x, y int) (mines.Outcome, error) {
	s.touch()
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.params.InBounds(x, y) {
		return mines.Ignored, fmt.Errorf(
			"%w: %d:%d on %dx%d", mines.ErrOutOfBounds, x, y, s.params.Columns, s.params.Rows,
		)
	}
	if s.board == nil {
		if err := s.start(); err != nil {
			return mines.Ignored, err
		}
	}

	res, err := s.board.Reveal(x, y)
	if err != nil {
		return res.Outcome, err
	}
	s.apply(res)
	return res.Outcome, nil
}

func (s *Session) apply(res mines.RevealResult) {
	s.pending = append(s.pending, res.Cascade...)
	switch res.Outcome {
	case mines.Victory, mines.Lost:
		s.endedAt = s.now()
		s.pending = nil
	}
}

// Flag toggles a flag. Flagging before the first reveal does nothing.
func (s *Session) Flag(x, y int) error {
	s.touch()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.board == nil {
		if !s.params.InBounds(x, y) {
			return fmt.Errorf("%w: %d:%d", mines.ErrOutOfBounds, x, y)
		}
		return nil
	}
	return s.board.ToggleFlag(x, y)
}

// Step reveals every cell queued before the call; their own cascades are
// queued behind. It reports whether anything is still pending.
func (s *Session) Step() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.step()
}

func (s *Session) step() bool {
	generation := s.pending
	s.pending = nil
	for _, p := range generation {
		if s.board.State() != mines.Playing {
			break
		}
		res, err := s.board.Reveal(p.X, p.Y)
		if err != nil {
			continue
		}
		s.apply(res)
	}
	return len(s.pending) > 0
}

// Settle drains the cascade queue completely.
func (s *Session) Settle() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.step() {
	}
}

func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.pending)
}

// Pace drains the cascade queue one generation per tick and hands a snapshot
// to emit after each. It returns when the queue is empty, ctx is done, or
// emit fails. The session is unlocked while waiting for the next tick.
func (s *Session) Pace(ctx context.Context, tick time.Duration, emit func(Snapshot) error) error {
	if s.Pending() == 0 {
		return nil
	}

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		s.mu.Lock()
		more := s.step()
		snap := s.snapshot()
		s.mu.Unlock()

		if err := emit(snap); err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// RecordResult is what a successful Record call stored.
type RecordResult struct {
	Record records.Record `json:"record"`
	Top    bool           `json:"top"`
}

// Record saves a won game on the leaderboard under name. It can succeed only
// once per game; a failed write leaves the session untouched so the call can
// be retried. The session stays usable while the leaderboard is written.
func (s *Session) Record(ctx context.Context, lb Leaderboard, name string) (RecordResult, error) {
	s.touch()
	board, elapsed, err := s.beginRecord()
	if err != nil {
		return RecordResult{}, err
	}

	res, err := record(ctx, lb, name, elapsed)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.recording = false
	if err != nil {
		return RecordResult{}, err
	}
	if s.board == board {
		s.recorded = true
	}
	return res, nil
}

func (s *Session) beginRecord() (*mines.Board, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.board == nil || s.board.State() != mines.Won:
		return nil, 0, ErrNotWon
	case s.recorded:
		return nil, 0, ErrAlreadyRecorded
	case s.recording:
		return nil, 0, ErrRecording
	}
	s.recording = true
	return s.board, max(s.elapsed(), minRecordTime), nil
}

func record(ctx context.Context, lb Leaderboard, name string, elapsed float64) (RecordResult, error) {
	list, err := lb.List(ctx)
	if err != nil {
		return RecordResult{}, err
	}
	top := records.Qualifies(list, elapsed, TopRecords)

	rec, err := lb.Add(ctx, name, elapsed)
	if err != nil {
		return RecordResult{}, err
	}
	return RecordResult{Record: rec, Top: top}, nil
}

// elapsed is the game time in seconds, frozen once the game is over.
func (s *Session) elapsed() float64 {
	if s.board == nil {
		return 0
	}
	end := s.endedAt
	if end.IsZero() {
		end = s.now()
	}
	return end.Sub(s.startedAt).Seconds()
}
