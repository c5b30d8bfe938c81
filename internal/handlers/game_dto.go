package handlers

import (
	"time"

	"github.com/gorilla/schema"

	"github.com/vancomm/minesweeper-classic/internal/game"
	"github.com/vancomm/minesweeper-classic/internal/mines"
)

var decoder = func() *schema.Decoder {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	return dec
}()

// CreateNewGameDTO falls back to the configured board for missing fields.
type CreateNewGameDTO struct {
	Columns *int `schema:"columns"`
	Rows    *int `schema:"rows"`
	Bombs   *int `schema:"bombs"`
}

func ParseCreateNewGameDTO(src map[string][]string) (CreateNewGameDTO, error) {
	var dto CreateNewGameDTO
	err := decoder.Decode(&dto, src)
	return dto, err
}

func (dto CreateNewGameDTO) Params(defaults mines.Params) mines.Params {
	p := defaults
	if dto.Columns != nil {
		p.Columns = *dto.Columns
	}
	if dto.Rows != nil {
		p.Rows = *dto.Rows
	}
	if dto.Bombs != nil {
		p.Bombs = *dto.Bombs
	}
	return p
}

type Position struct {
	X int `schema:"x,required"`
	Y int `schema:"y,required"`
}

func ParsePosition(src map[string][]string) (Position, error) {
	var pos Position
	err := decoder.Decode(&pos, src)
	return pos, err
}

type RecordDTO struct {
	Name string `schema:"name,required"`
}

func ParseRecordDTO(src map[string][]string) (RecordDTO, error) {
	var dto RecordDTO
	err := decoder.Decode(&dto, src)
	return dto, err
}

type ListRecordsDTO struct {
	Limit int `schema:"limit"`
}

func ParseListRecordsDTO(src map[string][]string) (ListRecordsDTO, error) {
	var dto ListRecordsDTO
	err := decoder.Decode(&dto, src)
	return dto, err
}

type GameSessionDTO struct {
	GameSessionId string       `json:"game_session_id"`
	State         mines.State  `json:"state"`
	Grid          mines.Grid   `json:"grid"`
	Columns       int          `json:"columns"`
	Rows          int          `json:"rows"`
	Bombs         int          `json:"bombs"`
	FlagsLeft     int          `json:"flags_left"`
	Elapsed       float64      `json:"elapsed"`
	Pending       int          `json:"pending"`
	Recorded      bool         `json:"recorded"`
	Exploded      *mines.Point `json:"exploded,omitempty"`
	StartedAt     *int64       `json:"started_at,omitempty"`
	EndedAt       *int64       `json:"ended_at,omitempty"`
}

func unixMilli(t time.Time) *int64 {
	if t.IsZero() {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

func NewGameSessionDTO(snap game.Snapshot) *GameSessionDTO {
	return &GameSessionDTO{
		GameSessionId: snap.ID.String(),
		State:         snap.State,
		Grid:          snap.Grid,
		Columns:       snap.Params.Columns,
		Rows:          snap.Params.Rows,
		Bombs:         snap.Params.Bombs,
		FlagsLeft:     snap.FlagsLeft,
		Elapsed:       snap.Elapsed,
		Pending:       snap.Pending,
		Recorded:      snap.Recorded,
		Exploded:      snap.Exploded,
		StartedAt:     unixMilli(snap.StartedAt),
		EndedAt:       unixMilli(snap.EndedAt),
	}
}
