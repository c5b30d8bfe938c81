package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vancomm/minesweeper-classic/internal/config"
	"github.com/vancomm/minesweeper-classic/internal/game"
	"github.com/vancomm/minesweeper-classic/internal/mines"
)

type GameHandler struct {
	logger   *slog.Logger
	registry *game.Registry
	records  game.Leaderboard
	board    *config.Board
	ws       *config.WebSocket
}

func NewGameHandler(
	logger *slog.Logger,
	registry *game.Registry,
	records game.Leaderboard,
	board *config.Board,
	ws *config.WebSocket,
) *GameHandler {
	handler := &GameHandler{
		logger:   logger,
		registry: registry,
		records:  records,
		board:    board,
		ws:       ws,
	}

	return handler
}

func (g GameHandler) session(w http.ResponseWriter, r *http.Request) (*game.Session, bool) {
	s, err := g.registry.Get(r.PathValue("id"))
	if err != nil {
		sendError(w, g.logger, "unable to fetch session", err)
		return nil, false
	}
	return s, true
}

func (g GameHandler) sendSession(w http.ResponseWriter, status int, s *game.Session) {
	sendJSONOrLog(w, g.logger, status, NewGameSessionDTO(s.Snapshot()))
}

// logGameOver dumps the final board of a finished game at debug level.
func (g GameHandler) logGameOver(snap game.Snapshot) {
	if snap.State != mines.Won && snap.State != mines.Failed {
		return
	}
	g.logger.Debug("game over",
		slog.String("session", snap.ID.String()),
		slog.String("state", snap.State.String()),
		slog.Float64("elapsed", snap.Elapsed),
		slog.String("grid", "\n"+snap.Grid.ToString(snap.Params.Columns)),
	)
}

func (g GameHandler) NewGame(w http.ResponseWriter, r *http.Request) {
	dto, err := ParseCreateNewGameDTO(r.URL.Query())
	if err != nil {
		sendJSONOrLog(w, g.logger, http.StatusBadRequest, wrapError(err))
		return
	}

	s, err := g.registry.Create(dto.Params(g.board.Params))
	if err != nil {
		sendError(w, g.logger, "unable to create session", err)
		return
	}

	g.sendSession(w, http.StatusCreated, s)
}

func (g GameHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	s, ok := g.session(w, r)
	if !ok {
		return
	}
	g.sendSession(w, http.StatusOK, s)
}

func (g GameHandler) Start(w http.ResponseWriter, r *http.Request) {
	s, ok := g.session(w, r)
	if !ok {
		return
	}
	if err := s.Start(); err != nil {
		sendError(w, g.logger, "unable to start game", err)
		return
	}
	g.sendSession(w, http.StatusOK, s)
}

// Reveal settles the whole cascade before replying. Clients that want to
// watch it unfold use the socket.
func (g GameHandler) Reveal(w http.ResponseWriter, r *http.Request) {
	pos, err := ParsePosition(r.URL.Query())
	if err != nil {
		sendJSONOrLog(w, g.logger, http.StatusBadRequest, wrapError(err))
		return
	}

	s, ok := g.session(w, r)
	if !ok {
		return
	}

	if _, err := s.Reveal(pos.X, pos.Y); err != nil {
		sendError(w, g.logger, "unable to reveal cell", err)
		return
	}
	s.Settle()

	snap := s.Snapshot()
	g.logGameOver(snap)
	sendJSONOrLog(w, g.logger, http.StatusOK, NewGameSessionDTO(snap))
}

func (g GameHandler) Flag(w http.ResponseWriter, r *http.Request) {
	pos, err := ParsePosition(r.URL.Query())
	if err != nil {
		sendJSONOrLog(w, g.logger, http.StatusBadRequest, wrapError(err))
		return
	}

	s, ok := g.session(w, r)
	if !ok {
		return
	}

	if err := s.Flag(pos.X, pos.Y); err != nil {
		sendError(w, g.logger, "unable to flag cell", err)
		return
	}

	g.sendSession(w, http.StatusOK, s)
}

func (g GameHandler) Record(w http.ResponseWriter, r *http.Request) {
	dto, err := ParseRecordDTO(r.URL.Query())
	if err != nil {
		sendJSONOrLog(w, g.logger, http.StatusBadRequest, wrapError(err))
		return
	}

	s, ok := g.session(w, r)
	if !ok {
		return
	}

	res, err := s.Record(r.Context(), g.records, dto.Name)
	if err != nil {
		sendError(w, g.logger, "unable to save record", err)
		return
	}

	g.logger.Info("record saved",
		slog.String("session", s.ID().String()),
		slog.String("name", res.Record.Name),
		slog.Float64("time", res.Record.Time),
		slog.Bool("top", res.Top),
	)
	sendJSONOrLog(w, g.logger, http.StatusCreated, res)
}

// Connect streams the session over a WebSocket. Every command is answered
// with the session right away and then once per cascade generation, paced by
// the configured tick.
func (g GameHandler) Connect(w http.ResponseWriter, r *http.Request) {
	s, ok := g.session(w, r)
	if !ok {
		return
	}

	c, err := g.ws.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Error("unable to upgrade", slog.Any("error", err))
		return
	}

	defer c.Close()

	send := func(snap game.Snapshot) error {
		c.SetWriteDeadline(time.Now().Add(g.ws.WriteWait))
		return c.WriteJSON(NewGameSessionDTO(snap))
	}

	if err := send(s.Snapshot()); err != nil {
		g.logger.Error("unable to write json", slog.Any("error", err))
		return
	}

	for {
		mt, message, err := c.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				g.logger.Warn("abnormal ws break", slog.Any("error", err))
			}
			break
		}
		if mt != websocket.TextMessage {
			break
		}
		before := s.Snapshot().State
		text := strings.TrimSpace(string(message))
		g.logger.Debug(fmt.Sprintf("\t> %s", text))
		for _, cmd := range iterBySep(text, "\n") {
			if err := executeCommand(s, cmd); err != nil {
				g.logger.Debug("unable to process command", slog.Any("error", err))
				c.SetWriteDeadline(time.Now().Add(g.ws.WriteWait))
				if err := c.WriteJSON(wrapError(err)); err != nil {
					g.logger.Error("unable to write json", slog.Any("error", err))
					return
				}
			}
		}

		if err := send(s.Snapshot()); err != nil {
			g.logger.Error("unable to write json", slog.Any("error", err))
			return
		}
		if err := s.Pace(r.Context(), g.board.CascadeTick, send); err != nil {
			g.logger.Warn("cascade interrupted", slog.Any("error", err))
			return
		}
		if snap := s.Snapshot(); snap.State != before {
			g.logGameOver(snap)
		}
		g.logger.Debug("\t< <session data>")
	}
}
