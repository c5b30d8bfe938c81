package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

var (
	ErrBadName  = fmt.Errorf("bad name for key-value table")
	ErrNotFound = fmt.Errorf("value not found")
)

func isLetter(c rune) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isLetters(s string) bool {
	for _, c := range s {
		if !isLetter(c) {
			return false
		}
	}
	return s != ""
}

// KeyValue is a string-keyed table of JSON-encoded values.
type KeyValue struct {
	mu   sync.Mutex
	name string
	db   *sql.DB
}

// NewKeyValue creates the table if needed. name may only contain upper- or
// lowercase Latin letters since it is spliced into the SQL text.
func NewKeyValue(ctx context.Context, db *sql.DB, name string) (*KeyValue, error) {
	if !isLetters(name) {
		return nil, ErrBadName
	}

	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS `+name+` (
	key		TEXT PRIMARY KEY,
	value	TEXT NOT NULL
);`)
	if err != nil {
		return nil, err
	}
	return &KeyValue{name: name, db: db}, nil
}

// Get decodes the value stored under key into value, which must be a pointer
// or nil. If key is not present, [ErrNotFound] is returned.
func (kv *KeyValue) Get(ctx context.Context, key string, value any) error {
	var v string
	err := kv.db.QueryRowContext(ctx,
		`SELECT value FROM `+kv.name+` WHERE key = ?;`, key,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if value == nil {
		return nil
	}
	return json.Unmarshal([]byte(v), value)
}

// Set inserts a new key-value pair or updates an existing one.
func (kv *KeyValue) Set(ctx context.Context, key string, value any) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_, err = kv.db.ExecContext(ctx, `
INSERT INTO `+kv.name+` (key, value)
VALUES(?, ?)
ON CONFLICT(key)
DO UPDATE SET value=excluded.value;`,
		key, string(b))
	return err
}

// Delete removes key without checking if it existed.
func (kv *KeyValue) Delete(ctx context.Context, key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	_, err := kv.db.ExecContext(ctx, `DELETE FROM `+kv.name+` WHERE key = ?;`, key)
	return err
}

const (
	kvTable    = "kv"
	recordsKey = "records"
)

// KeyValueBackend keeps the whole leaderboard as one JSON array under a
// single key. Insert is a read-modify-write guarded by a process-local lock
// only; concurrent writers in other processes can lose updates.
type KeyValueBackend struct {
	mu sync.Mutex
	kv *KeyValue
	db *sql.DB
}

func NewKeyValueBackend(kv *KeyValue, db *sql.DB) *KeyValueBackend {
	return &KeyValueBackend{kv: kv, db: db}
}

func (b *KeyValueBackend) Name() string { return "keyvalue" }

func (b *KeyValueBackend) All(ctx context.Context) ([]Record, error) {
	var list []Record
	err := b.kv.Get(ctx, recordsKey, &list)
	if errors.Is(err, ErrNotFound) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", recordsKey, err)
	}
	return list, nil
}

func (b *KeyValueBackend) Insert(ctx context.Context, name string, t float64) (Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	list, err := b.All(ctx)
	if err != nil {
		return Record{}, err
	}
	var last int64
	for _, r := range list {
		last = max(last, r.ID)
	}
	record := Record{ID: last + 1, Name: name, Time: t}
	list = append(list, record)
	if err := b.kv.Set(ctx, recordsKey, list); err != nil {
		return Record{}, fmt.Errorf("write %q: %w", recordsKey, err)
	}
	return record, nil
}

func (b *KeyValueBackend) DeleteAll(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.kv.Delete(ctx, recordsKey)
}

func (b *KeyValueBackend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

// KeyValueProvider opens the leaderboard inside an SQLite file. It is
// available whenever a path is configured.
type KeyValueProvider struct {
	Path string
}

func (p KeyValueProvider) Name() string { return "keyvalue" }

func (p KeyValueProvider) Available() bool { return p.Path != "" }

func (p KeyValueProvider) Open(ctx context.Context) (Backend, error) {
	db, err := sql.Open("sqlite", p.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p.Path, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL on %s: %w", p.Path, err)
	}
	kv, err := NewKeyValue(ctx, db, kvTable)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create key-value table: %w", err)
	}
	return NewKeyValueBackend(kv, db), nil
}
