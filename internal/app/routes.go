package app

import (
	"github.com/vancomm/minesweeper-classic/internal/handlers"
)

func (a *App) loadRoutes() {
	game := handlers.NewGameHandler(
		a.logger, a.registry, a.store, a.board, a.ws,
	)

	a.router.HandleFunc("POST /game", game.NewGame)
	a.router.HandleFunc("GET /game/{id}", game.Fetch)
	a.router.HandleFunc("POST /game/{id}/start", game.Start)
	a.router.HandleFunc("POST /game/{id}/reveal", game.Reveal)
	a.router.HandleFunc("POST /game/{id}/flag", game.Flag)
	a.router.HandleFunc("POST /game/{id}/record", game.Record)
	a.router.HandleFunc("GET /game/{id}/connect", game.Connect)

	records := handlers.NewRecordsHandler(
		a.logger, a.store, a.records.AdminPasswordHash,
	)

	a.router.HandleFunc("GET /records", records.List)
	a.router.HandleFunc("DELETE /records", records.Clear)
	a.router.HandleFunc("GET /status", records.Status)
}
