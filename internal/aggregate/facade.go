// Package aggregate combines the movie and location resolvers into the
// operations consumed by the API and CLI.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/cinemap/internal/core/domain"
	"github.com/vietddude/cinemap/internal/metrics"
)

// ErrLocationsUnavailable is returned when no location resolved and at
// least one failure was caused by an unreachable upstream.
var ErrLocationsUnavailable = errors.New("location resolution unavailable")

// MovieResolver resolves a title into a MovieRecord.
type MovieResolver interface {
	Resolve(ctx context.Context, title string) (*domain.MovieRecord, error)
}

// LocationResolver resolves one place name.
type LocationResolver interface {
	Resolve(ctx context.Context, name string) (*domain.LocationRecord, error)
}

// Exploration is a movie together with its resolved locations.
type Exploration struct {
	Movie     *domain.MovieRecord      `json:"movie"`
	Locations []*domain.LocationRecord `json:"locations"`
}

// Facade orchestrates resolvers.
type Facade struct {
	movies      MovieResolver
	locations   LocationResolver
	concurrency int
	log         *slog.Logger
}

// NewFacade creates a facade. concurrency bounds parallel location
// resolutions; zero or less means unbounded.
func NewFacade(movies MovieResolver, locations LocationResolver, concurrency int) *Facade {
	return &Facade{
		movies:      movies,
		locations:   locations,
		concurrency: concurrency,
		log:         slog.Default().With("component", "facade"),
	}
}

// SearchMovie resolves title. Errors propagate unchanged.
func (f *Facade) SearchMovie(ctx context.Context, title string) (*domain.MovieRecord, error) {
	return f.movies.Resolve(ctx, title)
}

// ResolveLocations resolves every name concurrently and returns the ones
// that succeeded, in input order. Individual failures are dropped. An
// error is returned only when ctx ends, or when nothing resolved and an
// upstream was unavailable.
func (f *Facade) ResolveLocations(ctx context.Context, names []string) ([]*domain.LocationRecord, error) {
	if len(names) == 0 {
		return []*domain.LocationRecord{}, nil
	}

	results := make([]*domain.LocationRecord, len(names))
	errs := make([]error, len(names))

	// Failures are recorded per slot instead of returned so one name never
	// cancels its siblings.
	var g errgroup.Group
	if f.concurrency > 0 {
		g.SetLimit(f.concurrency)
	}
	for i, name := range names {
		g.Go(func() error {
			results[i], errs[i] = f.locations.Resolve(ctx, name)
			return nil
		})
	}
	_ = g.Wait()

	resolved := make([]*domain.LocationRecord, 0, len(names))
	var unavailable []error
	for i, loc := range results {
		if err := errs[i]; err != nil {
			reason := "invalid"
			switch {
			case domain.IsNotFound(err):
				reason = "not_found"
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				reason = "cancelled"
			case domain.IsUnavailable(err):
				reason = "unavailable"
				unavailable = append(unavailable, err)
			}
			metrics.LocationsDropped.WithLabelValues(reason).Inc()
			f.log.Info("Dropping unresolved location", "location", names[i], "error", err)
			continue
		}
		if loc != nil {
			resolved = append(resolved, loc)
		}
	}

	if err := ctx.Err(); err != nil {
		return resolved, err
	}
	if len(resolved) == 0 && len(unavailable) > 0 {
		return resolved, fmt.Errorf("%w: %w", ErrLocationsUnavailable, errors.Join(unavailable...))
	}
	return resolved, nil
}

// Explore searches a movie and resolves its candidate locations. A movie
// search failure returns a nil Exploration. A location batch failure still
// returns the movie, with whatever locations resolved, alongside the error.
func (f *Facade) Explore(ctx context.Context, title string) (*Exploration, error) {
	movie, err := f.SearchMovie(ctx, title)
	if err != nil {
		return nil, err
	}
	locations, err := f.ResolveLocations(ctx, movie.Locations)
	if err != nil {
		f.log.Warn("Location resolution failed", "title", movie.Title, "error", err)
		return &Exploration{Movie: movie, Locations: locations}, err
	}
	f.log.Debug("Exploration complete",
		"title", movie.Title,
		"requested", len(movie.Locations),
		"resolved", len(locations),
	)
	return &Exploration{Movie: movie, Locations: locations}, nil
}
