package game

import (
	"context"
	"fmt"
	"hash/maphash"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vancomm/minesweeper-classic/internal/mines"
)

func createRand() *rand.Rand {
	return rand.New(rand.NewPCG(
		new(maphash.Hash).Sum64(), new(maphash.Hash).Sum64(),
	))
}

// RandomGenerator returns a Generator backed by its own randomly seeded
// source. The source is not shared so sessions never contend on it.
func RandomGenerator() Generator {
	rnd := createRand()
	return func(p mines.Params) (*mines.Board, error) {
		return mines.Generate(p, rnd)
	}
}

type Option func(*Registry)

// WithGenerators replaces the per-session board generator factory.
func WithGenerators(newGenerator func() Generator) Option {
	return func(r *Registry) { r.newGenerator = newGenerator }
}

func WithClock(now Clock) Option {
	return func(r *Registry) { r.now = now }
}

// Registry keeps live sessions in memory. Sessions untouched for longer than
// the TTL are dropped by Evict.
type Registry struct {
	logger       *slog.Logger
	ttl          time.Duration
	newGenerator func() Generator
	now          Clock

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

func NewRegistry(logger *slog.Logger, ttl time.Duration, opts ...Option) *Registry {
	r := &Registry{
		logger:       logger,
		ttl:          ttl,
		newGenerator: RandomGenerator,
		now:          time.Now,
		sessions:     make(map[uuid.UUID]*Session),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create registers a new session in the Stopped state.
func (r *Registry) Create(p mines.Params) (*Session, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	s := newSession(uuid.New(), p, r.newGenerator(), r.now)

	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()

	r.logger.Debug("session created",
		slog.String("id", s.id.String()),
		slog.String("params", p.Seed()),
	)
	return s, nil
}

func (r *Registry) Get(id string) (*Session, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSessionNotFound, err)
	}

	r.mu.RLock()
	s, ok := r.sessions[uid]
	r.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}

// Evict drops idle sessions and returns how many were removed.
func (r *Registry) Evict() int {
	deadline := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, s := range r.sessions {
		if s.idleSince().Before(deadline) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Run evicts idle sessions periodically until ctx is done.
func (r *Registry) Run(ctx context.Context) error {
	ticker := time.NewTicker(max(r.ttl/4, time.Second))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := r.Evict(); n > 0 {
				r.logger.Info("evicted idle sessions",
					slog.Int("count", n),
					slog.Int("remaining", r.Len()),
				)
			}
		}
	}
}
