package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vancomm/minesweeper-classic/internal/config"
	"github.com/vancomm/minesweeper-classic/internal/game"
	"github.com/vancomm/minesweeper-classic/internal/mines"
	"github.com/vancomm/minesweeper-classic/internal/records"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// . . . 1 *
var strip = mines.Params{Columns: 5, Rows: 1, Bombs: 1}

// steppingClock moves one second forward every time it is read.
type steppingClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type testServer struct {
	mux   *http.ServeMux
	store *records.Store
}

func newTestServer(t *testing.T, adminHash []byte) *testServer {
	t.Helper()

	clock := &steppingClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	registry := game.NewRegistry(discard, time.Hour,
		game.WithGenerators(func() game.Generator {
			return func(p mines.Params) (*mines.Board, error) {
				return mines.Layout(p, []mines.Point{{X: p.Columns - 1, Y: p.Rows - 1}})
			}
		}),
		game.WithClock(clock.Now),
	)
	store := records.NewStore(discard,
		records.IndexedProvider{},
		records.KeyValueProvider{Path: filepath.Join(t.TempDir(), "records.db")},
	)
	t.Cleanup(func() { store.Close() })

	board := &config.Board{Params: strip, CascadeTick: time.Millisecond, SessionTTL: time.Hour}
	ws := &config.WebSocket{WriteWait: time.Second}

	g := NewGameHandler(discard, registry, store, board, ws)
	rec := NewRecordsHandler(discard, store, adminHash)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /game", g.NewGame)
	mux.HandleFunc("GET /game/{id}", g.Fetch)
	mux.HandleFunc("POST /game/{id}/start", g.Start)
	mux.HandleFunc("POST /game/{id}/reveal", g.Reveal)
	mux.HandleFunc("POST /game/{id}/flag", g.Flag)
	mux.HandleFunc("POST /game/{id}/record", g.Record)
	mux.HandleFunc("GET /game/{id}/connect", g.Connect)
	mux.HandleFunc("GET /records", rec.List)
	mux.HandleFunc("DELETE /records", rec.Clear)
	mux.HandleFunc("GET /status", rec.Status)

	return &testServer{mux: mux, store: store}
}

func (s *testServer) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

type sessionJSON struct {
	ID        string  `json:"game_session_id"`
	State     string  `json:"state"`
	Grid      []int   `json:"grid"`
	Columns   int     `json:"columns"`
	Rows      int     `json:"rows"`
	Bombs     int     `json:"bombs"`
	FlagsLeft int     `json:"flags_left"`
	Elapsed   float64 `json:"elapsed"`
	Pending   int     `json:"pending"`
	Recorded  bool    `json:"recorded"`
	StartedAt *int64  `json:"started_at"`
	EndedAt   *int64  `json:"ended_at"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (s *testServer) newGame(t *testing.T) sessionJSON {
	t.Helper()
	w := s.do(t, http.MethodPost, "/game")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[sessionJSON](t, w)
}

func TestNewGame(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil)

	w := srv.do(t, http.MethodPost, "/game")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	s := decode[sessionJSON](t, w)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "stopped", s.State)
	assert.Equal(t, []int{-2, -2, -2, -2, -2}, s.Grid)
	assert.Equal(t, 1, s.FlagsLeft)
	assert.Nil(t, s.StartedAt)

	w = srv.do(t, http.MethodGet, "/game/"+s.ID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, s.ID, decode[sessionJSON](t, w).ID)
}

func TestNewGameWithParams(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil)

	w := srv.do(t, http.MethodPost, "/game?columns=8&rows=6&bombs=3")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	s := decode[sessionJSON](t, w)
	assert.Equal(t, 8, s.Columns)
	assert.Equal(t, 6, s.Rows)
	assert.Equal(t, 3, s.Bombs)
	assert.Len(t, s.Grid, 48)
}

func TestNewGameRejectsBadParams(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil)

	for _, q := range []string{"columns=31", "bombs=5", "bombs=0", "rows=abc"} {
		w := srv.do(t, http.MethodPost, "/game?"+q)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
		assert.Contains(t, decode[map[string]string](t, w), "error")
	}
}

func TestUnknownSession(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil)

	for _, id := range []string{"42", "6f1c1c1e-8f1a-4c1a-9a53-1b1d7c0f9e2a"} {
		w := srv.do(t, http.MethodGet, "/game/"+id)
		assert.Equal(t, http.StatusNotFound, w.Code)
	}
}

func TestRevealSettlesCascade(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil)
	s := srv.newGame(t)

	w := srv.do(t, http.MethodPost, "/game/"+s.ID+"/reveal?x=0&y=0")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	s = decode[sessionJSON](t, w)
	assert.Equal(t, "won", s.State)
	assert.Equal(t, []int{0, 0, 0, 1, -2}, s.Grid)
	assert.Zero(t, s.Pending)
	assert.Positive(t, s.Elapsed)
	assert.NotNil(t, s.EndedAt)
}

func TestRevealMine(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil)
	s := srv.newGame(t)

	w := srv.do(t, http.MethodPost, "/game/"+s.ID+"/reveal?x=4&y=0")
	require.Equal(t, http.StatusOK, w.Code)
	s = decode[sessionJSON](t, w)
	assert.Equal(t, "failed", s.State)
	assert.Equal(t, int(mines.ExplodedMine), s.Grid[4])
}

func TestRevealBadPosition(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil)
	s := srv.newGame(t)

	for _, q := range []string{"x=0", "x=a&y=0", "x=5&y=0", "x=0&y=-1"} {
		w := srv.do(t, http.MethodPost, "/game/"+s.ID+"/reveal?"+q)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}

	w := srv.do(t, http.MethodGet, "/game/"+s.ID)
	assert.Equal(t, "stopped", decode[sessionJSON](t, w).State)
}

func TestFlag(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil)
	s := srv.newGame(t)

	w := srv.do(t, http.MethodPost, "/game/"+s.ID+"/start")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "playing", decode[sessionJSON](t, w).State)

	w = srv.do(t, http.MethodPost, "/game/"+s.ID+"/flag?x=4&y=0")
	require.Equal(t, http.StatusOK, w.Code)
	s = decode[sessionJSON](t, w)
	assert.Equal(t, int(mines.Flagged), s.Grid[4])
	assert.Zero(t, s.FlagsLeft)
}

func TestRecord(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil)
	s := srv.newGame(t)

	w := srv.do(t, http.MethodPost, "/game/"+s.ID+"/record?name=Ann")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = srv.do(t, http.MethodPost, "/game/"+s.ID+"/reveal?x=0&y=0")
	require.Equal(t, http.StatusOK, w.Code)
	elapsed := decode[sessionJSON](t, w).Elapsed

	w = srv.do(t, http.MethodPost, "/game/"+s.ID+"/record")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(t, http.MethodPost, "/game/"+s.ID+"/record?name=Ann")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	res := decode[game.RecordResult](t, w)
	assert.Equal(t, "Ann", res.Record.Name)
	assert.Equal(t, elapsed, res.Record.Time)
	assert.True(t, res.Top)

	w = srv.do(t, http.MethodPost, "/game/"+s.ID+"/record?name=Ann")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = srv.do(t, http.MethodGet, "/game/"+s.ID)
	assert.True(t, decode[sessionJSON](t, w).Recorded)
}

func TestListRecords(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil)

	w := srv.do(t, http.MethodGet, "/records")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	ctx := t.Context()
	for i, tm := range []float64{30, 10, 20} {
		_, err := srv.store.Add(ctx, fmt.Sprintf("p%d", i), tm)
		require.NoError(t, err)
	}

	w = srv.do(t, http.MethodGet, "/records")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]records.Record](t, w)
	require.Len(t, list, 3)
	assert.Equal(t, []float64{10, 20, 30}, []float64{list[0].Time, list[1].Time, list[2].Time})

	w = srv.do(t, http.MethodGet, "/records?limit=2")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]records.Record](t, w), 2)

	w = srv.do(t, http.MethodGet, "/records?limit=-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClearRecordsDisabled(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil)

	r := httptest.NewRequest(http.MethodDelete, "/records", nil)
	r.SetBasicAuth("admin", "secret")
	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, r)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestClearRecords(t *testing.T) {
	t.Parallel()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	srv := newTestServer(t, hash)

	_, err = srv.store.Add(t.Context(), "A", 10)
	require.NoError(t, err)

	clearWith := func(password string, auth bool) int {
		r := httptest.NewRequest(http.MethodDelete, "/records", nil)
		if auth {
			r.SetBasicAuth("admin", password)
		}
		w := httptest.NewRecorder()
		srv.mux.ServeHTTP(w, r)
		return w.Code
	}

	assert.Equal(t, http.StatusUnauthorized, clearWith("", false))
	assert.Equal(t, http.StatusUnauthorized, clearWith("wrong", true))
	assert.Equal(t, http.StatusBadRequest, clearWith(strings.Repeat("x", 73), true))

	list, err := srv.store.List(t.Context())
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.Equal(t, http.StatusNoContent, clearWith("secret", true))
	list, err = srv.store.List(t.Context())
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.Equal(t, http.StatusNoContent, clearWith("secret", true))
}

func TestStatus(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil)

	w := srv.do(t, http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","records_backend":"keyvalue"}`, w.Body.String())
}

func TestConnectStreamsCascade(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil)
	s := srv.newGame(t)

	ts := httptest.NewServer(srv.mux)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/game/" + s.ID + "/connect"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer c.Close()

	read := func() sessionJSON {
		t.Helper()
		require.NoError(t, c.SetReadDeadline(time.Now().Add(5*time.Second)))
		var v sessionJSON
		require.NoError(t, c.ReadJSON(&v))
		return v
	}

	assert.Equal(t, "stopped", read().State)

	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte("o 0 0")))

	first := read()
	assert.Equal(t, "playing", first.State)
	assert.Equal(t, 1, first.Pending)
	assert.Equal(t, []int{0, -2, -2, -2, -2}, first.Grid)

	var last sessionJSON
	for range 3 {
		last = read()
	}
	assert.Equal(t, "won", last.State)
	assert.Equal(t, []int{0, 0, 0, 1, -2}, last.Grid)

	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte("x 1 1")))
	require.NoError(t, c.SetReadDeadline(time.Now().Add(5*time.Second)))
	var e map[string]string
	require.NoError(t, c.ReadJSON(&e))
	assert.Contains(t, e["error"], "unknown command")
	assert.Equal(t, "won", read().State)

	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte("s")))
	assert.Equal(t, "playing", read().State)
}

func TestConnectUnknownSession(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil)

	w := srv.do(t, http.MethodGet, "/game/nope/connect")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type unreachableProvider struct{}

func (unreachableProvider) Name() string    { return "indexed" }
func (unreachableProvider) Available() bool { return true }

func (unreachableProvider) Open(context.Context) (records.Backend, error) {
	return nil, errors.New("failed to connect to `host=db.internal user=admin database=records`")
}

func TestStatusDegradedHidesDetails(t *testing.T) {
	t.Parallel()

	store := records.NewStore(discard, unreachableProvider{})
	h := NewRecordsHandler(discard, store, nil)

	w := httptest.NewRecorder()
	h.Status(w, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"degraded","error":"Service Unavailable"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "db.internal")
}

func TestRevealLogsFinalBoard(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	registry := game.NewRegistry(discard, time.Hour,
		game.WithGenerators(func() game.Generator {
			return func(p mines.Params) (*mines.Board, error) {
				return mines.Layout(p, []mines.Point{{X: 4, Y: 0}})
			}
		}),
	)
	s, err := registry.Create(strip)
	require.NoError(t, err)

	board := &config.Board{Params: strip, CascadeTick: time.Millisecond, SessionTTL: time.Hour}
	g := NewGameHandler(logger, registry, nil, board, &config.WebSocket{WriteWait: time.Second})

	reveal := func(x int) {
		t.Helper()
		r := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/game/%s/reveal?x=%d&y=0", s.ID(), x), nil)
		r.SetPathValue("id", s.ID().String())
		w := httptest.NewRecorder()
		g.Reveal(w, r)
		require.Equal(t, http.StatusOK, w.Code)
	}

	reveal(3)
	assert.NotContains(t, buf.String(), "game over")

	reveal(4)
	out := buf.String()
	assert.Contains(t, out, "game over")
	assert.Contains(t, out, "state=failed")
	assert.Contains(t, out, `- - - 1 X`)
}
