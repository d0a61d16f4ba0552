package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/cinemap/internal/core/domain"
	"github.com/vietddude/cinemap/internal/infra/storage"
)

type movieEntry struct {
	movie     *domain.MovieRecord
	expiresAt time.Time
}

type locationEntry struct {
	location  *domain.LocationRecord
	expiresAt time.Time
}

// MemoryStorage holds cached records in process memory. A zero ttl keeps
// entries forever.
type MemoryStorage struct {
	movies    map[string]movieEntry
	locations map[string]locationEntry
	ttl       time.Duration
	now       func() time.Time
	mu        sync.RWMutex
}

func NewMemoryStorage(ttl time.Duration) *MemoryStorage {
	return &MemoryStorage{
		movies:    make(map[string]movieEntry),
		locations: make(map[string]locationEntry),
		ttl:       ttl,
		now:       time.Now,
	}
}

func (s *MemoryStorage) expiry() time.Time {
	if s.ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(s.ttl)
}

func (s *MemoryStorage) expired(at time.Time) bool {
	return !at.IsZero() && s.now().After(at)
}

// -----------------------------------------------------------------------------
// Movie Repository
// -----------------------------------------------------------------------------

type MovieRepo struct {
	store *MemoryStorage
}

func NewMovieRepo(store *MemoryStorage) *MovieRepo {
	return &MovieRepo{store: store}
}

func (r *MovieRepo) Get(ctx context.Context, title string) (*domain.MovieRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	e, ok := r.store.movies[storage.Key(title)]
	if !ok || r.store.expired(e.expiresAt) {
		return nil, nil
	}
	return e.movie.Clone(), nil
}

func (r *MovieRepo) Save(ctx context.Context, title string, movie *domain.MovieRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.movies[storage.Key(title)] = movieEntry{movie: movie.Clone(), expiresAt: r.store.expiry()}
	return nil
}

// -----------------------------------------------------------------------------
// Location Repository
// -----------------------------------------------------------------------------

type LocationRepo struct {
	store *MemoryStorage
}

func NewLocationRepo(store *MemoryStorage) *LocationRepo {
	return &LocationRepo{store: store}
}

func (r *LocationRepo) Get(ctx context.Context, name string) (*domain.LocationRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	e, ok := r.store.locations[storage.Key(name)]
	if !ok || r.store.expired(e.expiresAt) {
		return nil, nil
	}
	return e.location.Clone(), nil
}

func (r *LocationRepo) Save(ctx context.Context, name string, location *domain.LocationRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.locations[storage.Key(name)] = locationEntry{location: location.Clone(), expiresAt: r.store.expiry()}
	return nil
}
