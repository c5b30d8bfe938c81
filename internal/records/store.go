package records

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Backend is a raw record container. Results of All are unordered.
type Backend interface {
	Name() string
	All(ctx context.Context) ([]Record, error)
	Insert(ctx context.Context, name string, t float64) (Record, error)
	DeleteAll(ctx context.Context) error
	Close() error
}

// Provider detects whether a backend can exist in the current environment
// and opens it.
type Provider interface {
	Name() string
	Available() bool
	Open(ctx context.Context) (Backend, error)
}

// Store picks the first available provider on first use and sticks with it
// for its whole lifetime. A failing Open is reported to the caller and
// retried on the next call; it never causes a switch to another provider.
type Store struct {
	logger    *slog.Logger
	providers []Provider

	mu       sync.Mutex
	selected Provider
	backend  Backend
}

// NewStore takes providers in order of preference.
func NewStore(logger *slog.Logger, providers ...Provider) *Store {
	return &Store{
		logger:    logger,
		providers: providers,
	}
}

func (s *Store) active(ctx context.Context) (Backend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.backend != nil {
		return s.backend, nil
	}

	if s.selected == nil {
		for _, p := range s.providers {
			if p.Available() {
				s.selected = p
				break
			}
			s.logger.Info("records backend not available", slog.String("backend", p.Name()))
		}
		if s.selected == nil {
			return nil, fmt.Errorf("%w: no backend configured", ErrBackendUnavailable)
		}
		s.logger.Info("records backend selected", slog.String("backend", s.selected.Name()))
	}

	backend, err := s.selected.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrBackendUnavailable, s.selected.Name(), err)
	}
	s.backend = backend
	return backend, nil
}

// Backend returns the name of the active backend, selecting one if needed.
func (s *Store) Backend(ctx context.Context) (string, error) {
	b, err := s.active(ctx)
	if err != nil {
		return "", err
	}
	return b.Name(), nil
}

// List returns every stored record sorted by time, fastest first.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	b, err := s.active(ctx)
	if err != nil {
		return nil, err
	}
	records, err := b.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", ErrBackendOperationFailed, err)
	}
	if records == nil {
		records = []Record{}
	}
	sortByTime(records)
	return records, nil
}

func (s *Store) Add(ctx context.Context, name string, t float64) (Record, error) {
	name = strings.TrimSpace(name)
	if err := validate(name, t); err != nil {
		return Record{}, err
	}
	b, err := s.active(ctx)
	if err != nil {
		return Record{}, err
	}
	record, err := b.Insert(ctx, name, t)
	if errors.Is(err, ErrInvalidInput) {
		return Record{}, err
	}
	if err != nil {
		return Record{}, fmt.Errorf("%w: add: %w", ErrBackendOperationFailed, err)
	}
	s.logger.Debug("record added",
		slog.Int64("id", record.ID),
		slog.String("name", record.Name),
		slog.Float64("time", record.Time),
	)
	return record, nil
}

// Clear removes all records. Clearing an empty store is not an error.
func (s *Store) Clear(ctx context.Context) error {
	b, err := s.active(ctx)
	if err != nil {
		return err
	}
	if err := b.DeleteAll(ctx); err != nil {
		return fmt.Errorf("%w: clear: %w", ErrBackendOperationFailed, err)
	}
	s.logger.Info("records cleared", slog.String("backend", b.Name()))
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.backend == nil {
		return nil
	}
	err := s.backend.Close()
	s.backend = nil
	return err
}
