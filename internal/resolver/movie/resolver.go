// Package movie resolves a free-text title into a MovieRecord with its
// candidate filming locations.
package movie

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/vietddude/cinemap/internal/core/domain"
	"github.com/vietddude/cinemap/internal/infra/retry"
	"github.com/vietddude/cinemap/internal/infra/storage"
	"github.com/vietddude/cinemap/internal/infra/upstream/omdb"
	"github.com/vietddude/cinemap/internal/metrics"
)

// DefaultLocation is used when no location signal can be derived.
const DefaultLocation = "Hollywood"

// ErrEmptyTitle is returned for blank search input.
var ErrEmptyTitle = errors.New("movie title is empty")

// Database looks up a title on the movie database.
type Database interface {
	Lookup(ctx context.Context, title string) (*omdb.Title, error)
}

// Config holds resolver settings. A nil Table selects DefaultTable and an
// empty Fallback selects DefaultLocation.
type Config struct {
	Backoff  retry.Policy
	Table    Table
	Fallback string
	Store    storage.MovieRepository
}

// Resolver turns titles into MovieRecords.
type Resolver struct {
	db       Database
	backoff  retry.Policy
	table    Table
	fallback string
	store    storage.MovieRepository
	log      *slog.Logger
}

// NewResolver creates a movie resolver.
func NewResolver(db Database, cfg Config) *Resolver {
	table := cfg.Table
	if table == nil {
		table = DefaultTable
	}
	fallback := cfg.Fallback
	if fallback == "" {
		fallback = DefaultLocation
	}
	return &Resolver{
		db:       db,
		backoff:  cfg.Backoff,
		table:    table,
		fallback: fallback,
		store:    cfg.Store,
		log:      slog.Default().With("component", "movie_resolver"),
	}
}

// Resolve searches the movie database for title. It fails with
// domain.ErrUpstreamNotFound on an explicit negative match and with
// domain.ErrUpstreamUnavailable on transport or parsing errors.
func (r *Resolver) Resolve(ctx context.Context, title string) (*domain.MovieRecord, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	if cached := r.cached(ctx, title); cached != nil {
		return cached, nil
	}

	t, err := retry.Do(ctx, "omdb.lookup", r.backoff, func(ctx context.Context) (*omdb.Title, error) {
		return r.db.Lookup(ctx, title)
	})
	if err != nil {
		outcome := "unavailable"
		if domain.IsNotFound(err) {
			outcome = "not_found"
		}
		metrics.ResolutionsTotal.WithLabelValues("movie", outcome).Inc()
		return nil, fmt.Errorf("movie fetch failed: %w", err)
	}

	movie := r.buildRecord(t)
	metrics.ResolutionsTotal.WithLabelValues("movie", "success").Inc()
	r.log.Debug("Movie resolved", "title", movie.Title, "locations", len(movie.Locations))

	if r.store != nil {
		if err := r.store.Save(ctx, title, movie); err != nil {
			r.log.Warn("Failed to cache movie", "title", title, "error", err)
		}
	}
	return movie, nil
}

func (r *Resolver) cached(ctx context.Context, title string) *domain.MovieRecord {
	if r.store == nil {
		return nil
	}
	m, err := r.store.Get(ctx, title)
	if err != nil {
		r.log.Warn("Movie cache lookup failed", "title", title, "error", err)
		return nil
	}
	if m == nil {
		metrics.CacheLookupsTotal.WithLabelValues("movie", "miss").Inc()
		return nil
	}
	metrics.CacheLookupsTotal.WithLabelValues("movie", "hit").Inc()
	return m
}

func (r *Resolver) buildRecord(t *omdb.Title) *domain.MovieRecord {
	return &domain.MovieRecord{
		Title:     t.Title,
		Year:      parseYear(t.Year),
		Director:  t.Director,
		Cast:      splitList(t.Actors),
		Genre:     t.Genre,
		Rating:    t.Rating,
		Plot:      t.Plot,
		Poster:    t.Poster,
		Locations: CandidateLocations(t, r.table, r.fallback),
	}
}

// CandidateLocations derives the de-duplicated candidate list: country
// entries, then filming-location entries, then the first matching table
// entry; fallback alone when nothing else produced a name.
func CandidateLocations(t *omdb.Title, table Table, fallback string) []string {
	var set orderedSet
	set.add(splitList(t.Country)...)
	set.add(splitList(t.Location)...)
	if locs, ok := table.Match(t.Title); ok {
		set.add(locs...)
	}
	if len(set.items) == 0 {
		return []string{fallback}
	}
	return set.items
}

type orderedSet struct {
	items []string
	seen  map[string]struct{}
}

func (s *orderedSet) add(values ...string) {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	for _, v := range values {
		if _, ok := s.seen[v]; ok {
			continue
		}
		s.seen[v] = struct{}{}
		s.items = append(s.items, v)
	}
}

// splitList splits a comma-delimited field, trimming entries and dropping
// empty ones.
func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseYear reads the leading digits of s ("2010", "2008–2013"); 0 when none.
func parseYear(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	year, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return year
}
