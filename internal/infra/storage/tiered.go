package storage

import (
	"context"
	"log/slog"

	"github.com/vietddude/cinemap/internal/core/domain"
)

// TieredMovies reads from Hot first, falls back to Cold and back-fills Hot.
// Writes go to both tiers.
type TieredMovies struct {
	Hot  MovieRepository
	Cold MovieRepository
}

func (t *TieredMovies) Get(ctx context.Context, title string) (*domain.MovieRecord, error) {
	m, err := t.Hot.Get(ctx, title)
	if err != nil {
		slog.Warn("Hot movie cache read failed", "title", title, "error", err)
	}
	if m != nil {
		return m, nil
	}

	m, err = t.Cold.Get(ctx, title)
	if err != nil || m == nil {
		return m, err
	}
	if err := t.Hot.Save(ctx, title, m); err != nil {
		slog.Warn("Hot movie cache back-fill failed", "title", title, "error", err)
	}
	return m, nil
}

func (t *TieredMovies) Save(ctx context.Context, title string, movie *domain.MovieRecord) error {
	if err := t.Cold.Save(ctx, title, movie); err != nil {
		return err
	}
	if err := t.Hot.Save(ctx, title, movie); err != nil {
		slog.Warn("Hot movie cache write failed", "title", title, "error", err)
	}
	return nil
}

// TieredLocations is the LocationRepository counterpart of TieredMovies.
type TieredLocations struct {
	Hot  LocationRepository
	Cold LocationRepository
}

func (t *TieredLocations) Get(ctx context.Context, name string) (*domain.LocationRecord, error) {
	l, err := t.Hot.Get(ctx, name)
	if err != nil {
		slog.Warn("Hot location cache read failed", "location", name, "error", err)
	}
	if l != nil {
		return l, nil
	}

	l, err = t.Cold.Get(ctx, name)
	if err != nil || l == nil {
		return l, err
	}
	if err := t.Hot.Save(ctx, name, l); err != nil {
		slog.Warn("Hot location cache back-fill failed", "location", name, "error", err)
	}
	return l, nil
}

func (t *TieredLocations) Save(ctx context.Context, name string, location *domain.LocationRecord) error {
	if err := t.Cold.Save(ctx, name, location); err != nil {
		return err
	}
	if err := t.Hot.Save(ctx, name, location); err != nil {
		slog.Warn("Hot location cache write failed", "location", name, "error", err)
	}
	return nil
}
