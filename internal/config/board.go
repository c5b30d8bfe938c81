package config

import (
	"fmt"
	"os"
	"time"

	"github.com/vancomm/minesweeper-classic/internal/mines"
)

type Board struct {
	Params      mines.Params
	CascadeTick time.Duration
	SessionTTL  time.Duration
}

// NewBoard reads BOARD_PARAMS as "columns:rows:bombs".
func NewBoard() (*Board, error) {
	params := mines.DefaultParams()
	if seed, ok := os.LookupEnv("BOARD_PARAMS"); ok && seed != "" {
		p, err := mines.ParseSeed(seed)
		if err != nil {
			return nil, fmt.Errorf("unable to parse BOARD_PARAMS: %w", err)
		}
		params = *p
	}

	tick, err := duration("CASCADE_TICK", time.Second/60)
	if err != nil {
		return nil, err
	}

	ttl, err := duration("SESSION_TTL", time.Hour)
	if err != nil {
		return nil, err
	}

	board := &Board{
		Params:      params,
		CascadeTick: tick,
		SessionTTL:  ttl,
	}

	return board, nil
}
