package records

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vancomm/minesweeper-classic/internal/config"
	"github.com/vancomm/minesweeper-classic/internal/database"
)

//go:embed migrations/*.sql
var Migrations embed.FS

// IndexedBackend stores one row per record, keyed by an auto-incremented id
// with a secondary index on time.
type IndexedBackend struct {
	db *pgxpool.Pool
}

func NewIndexedBackend(db *pgxpool.Pool) *IndexedBackend {
	return &IndexedBackend{db: db}
}

func (b *IndexedBackend) Name() string { return "indexed" }

func (b *IndexedBackend) All(ctx context.Context) ([]Record, error) {
	rows, err := b.db.Query(ctx,
		`SELECT record_id AS id, name, "time" FROM record ORDER BY record_id;`,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[Record])
}

func (b *IndexedBackend) Insert(ctx context.Context, name string, t float64) (Record, error) {
	rows, _ := b.db.Query(ctx, `
		INSERT INTO record (name, "time")
		VALUES (@name, @time)
		RETURNING record_id AS id, name, "time";`,
		pgx.NamedArgs{
			"name": name,
			"time": t,
		},
	)
	record, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Record])
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) &&
		pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
		return Record{}, fmt.Errorf("%w: %s", ErrInvalidInput, pgErr.Message)
	}
	return record, err
}

func (b *IndexedBackend) DeleteAll(ctx context.Context) error {
	return pgx.BeginFunc(ctx, b.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `DELETE FROM record;`)
		return err
	})
}

func (b *IndexedBackend) Close() error {
	b.db.Close()
	return nil
}

// IndexedProvider is available when PostgreSQL settings are present in the
// environment. Opening it connects and brings the schema up to date.
type IndexedProvider struct {
	url string
}

func NewIndexedProvider(logger *slog.Logger) IndexedProvider {
	url, err := config.DbURL()
	if err != nil {
		logger.Debug("postgres is not configured", slog.Any("reason", err))
		return IndexedProvider{}
	}
	return IndexedProvider{url: url}
}

func IndexedProviderForURL(url string) IndexedProvider {
	return IndexedProvider{url: url}
}

func (p IndexedProvider) Name() string { return "indexed" }

func (p IndexedProvider) Available() bool { return p.url != "" }

func (p IndexedProvider) Open(ctx context.Context) (Backend, error) {
	db, migrator, err := database.ConnectAndMigrate(ctx, p.url, Migrations)
	if err != nil {
		return nil, err
	}
	migrator.Close()
	return NewIndexedBackend(db), nil
}
