package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vancomm/minesweeper-classic/internal/config"
	"github.com/vancomm/minesweeper-classic/internal/game"
	"github.com/vancomm/minesweeper-classic/internal/middleware"
	"github.com/vancomm/minesweeper-classic/internal/records"
)

type App struct {
	logger   *slog.Logger
	router   *http.ServeMux
	board    *config.Board
	records  *config.Records
	ws       *config.WebSocket
	registry *game.Registry
	store    *records.Store
}

func New(logger *slog.Logger) *App {
	router := http.NewServeMux()

	app := &App{
		logger: logger,
		router: router,
	}

	return app
}

func (a *App) configure() error {
	board, err := config.NewBoard()
	if err != nil {
		return fmt.Errorf("unable to read board config: %w", err)
	}
	a.board = board

	rec, err := config.NewRecords()
	if err != nil {
		return fmt.Errorf("unable to read records config: %w", err)
	}
	a.records = rec

	ws, err := config.NewWebSocket()
	if err != nil {
		return fmt.Errorf("unable to read ws config: %w", err)
	}
	a.ws = ws

	return nil
}

// Start serves until ctx is done, then shuts the server down gracefully.
func (a *App) Start(ctx context.Context) error {
	if err := a.configure(); err != nil {
		return err
	}

	a.registry = game.NewRegistry(a.logger, a.board.SessionTTL)
	a.store = records.NewStore(a.logger,
		records.NewIndexedProvider(a.logger),
		records.KeyValueProvider{Path: a.records.File},
	)
	defer a.store.Close()

	if backend, err := a.store.Backend(ctx); err != nil {
		a.logger.Warn("records backend unavailable at startup", slog.Any("error", err))
	} else {
		a.logger.Info("records backend ready", slog.String("backend", backend))
	}

	a.loadRoutes()

	addr := config.Port()
	server := &http.Server{
		Addr: addr,
		Handler: middleware.Wrap(
			a.router,
			middleware.Cors(),
			middleware.Logging(a.logger),
		),
		BaseContext: func(l net.Listener) context.Context {
			return ctx
		},
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("server listening",
			slog.String("addr", addr),
			slog.String("board", a.board.Params.Seed()),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("unable to listen and serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return a.registry.Run(gCtx)
	})
	g.Go(func() error {
		<-gCtx.Done()
		sCtx, cancel := context.WithTimeout(context.Background(), time.Second*30)
		defer cancel()
		return server.Shutdown(sCtx)
	})

	return g.Wait()
}
