// Package location resolves free-text place names into geocoded,
// encyclopedia-enriched LocationRecords.
package location

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vietddude/cinemap/internal/core/domain"
	"github.com/vietddude/cinemap/internal/infra/retry"
	"github.com/vietddude/cinemap/internal/infra/storage"
	"github.com/vietddude/cinemap/internal/infra/upstream/nominatim"
	"github.com/vietddude/cinemap/internal/infra/upstream/wikipedia"
	"github.com/vietddude/cinemap/internal/metrics"
)

// ErrEmptyName is returned for a blank location name.
var ErrEmptyName = errors.New("location name is empty")

// Geocoder maps a free-text query to ordered place candidates.
type Geocoder interface {
	Search(ctx context.Context, query string, feature nominatim.FeatureType) ([]nominatim.Place, error)
}

// Encyclopedia fetches article summaries.
type Encyclopedia interface {
	Summary(ctx context.Context, title string) (*wikipedia.Summary, error)
}

// Stage is one step of the geocoding fallback chain.
type Stage struct {
	Name    string
	Feature nominatim.FeatureType
}

// Stages is the fixed fallback order: city, then country, then unconstrained.
var Stages = []Stage{
	{Name: "city", Feature: nominatim.FeatureCity},
	{Name: "country", Feature: nominatim.FeatureCountry},
	{Name: "unconstrained", Feature: nominatim.FeatureAny},
}

// Config holds resolver settings.
type Config struct {
	Backoff retry.Policy
	// StageDelay is the pause after an empty geocoding stage.
	StageDelay time.Duration
	// EnrichmentDelay is the pause between geocoding and the encyclopedia lookup.
	EnrichmentDelay time.Duration
	Store           storage.LocationRepository
}

// Resolver resolves place names. It holds no per-call state and is safe
// for concurrent use.
type Resolver struct {
	geocoder        Geocoder
	encyclopedia    Encyclopedia
	backoff         retry.Policy
	stageDelay      time.Duration
	enrichmentDelay time.Duration
	store           storage.LocationRepository
	sleep           func(ctx context.Context, d time.Duration) error
	log             *slog.Logger
}

// NewResolver creates a location resolver. encyclopedia may be nil, in
// which case every record carries the synthesized description.
func NewResolver(geocoder Geocoder, encyclopedia Encyclopedia, cfg Config) *Resolver {
	return &Resolver{
		geocoder:        geocoder,
		encyclopedia:    encyclopedia,
		backoff:         cfg.Backoff,
		stageDelay:      cfg.StageDelay,
		enrichmentDelay: cfg.EnrichmentDelay,
		store:           cfg.Store,
		sleep:           sleepContext,
		log:             slog.Default().With("component", "location_resolver"),
	}
}

// Resolve geocodes name and enriches the result. It fails with
// domain.ErrUpstreamNotFound when every stage came back empty and with
// domain.ErrUpstreamUnavailable when the geocoder could not be reached.
// Encyclopedia failures never fail the resolution.
func (r *Resolver) Resolve(ctx context.Context, name string) (*domain.LocationRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	if cached := r.cached(ctx, name); cached != nil {
		return cached, nil
	}

	place, err := r.geocode(ctx, name)
	if err != nil {
		outcome := "unavailable"
		if domain.IsNotFound(err) {
			outcome = "not_found"
		}
		metrics.ResolutionsTotal.WithLabelValues("location", outcome).Inc()
		return nil, fmt.Errorf("location fetch failed: %w", err)
	}

	loc := &domain.LocationRecord{
		Name: place.DisplayName,
		Lat:  place.Lat,
		Lon:  place.Lon,
		Type: placeType(place),
	}
	if err := r.enrich(ctx, name, loc); err != nil {
		return nil, fmt.Errorf("location fetch failed: %w", err)
	}
	metrics.ResolutionsTotal.WithLabelValues("location", "success").Inc()

	if r.store != nil {
		if err := r.store.Save(ctx, name, loc); err != nil {
			r.log.Warn("Failed to cache location", "name", name, "error", err)
		}
	}
	return loc, nil
}

// geocode walks Stages in order and returns the first result of the first
// non-empty stage.
func (r *Resolver) geocode(ctx context.Context, name string) (nominatim.Place, error) {
	for i, stage := range Stages {
		if i > 0 {
			if err := r.sleep(ctx, r.stageDelay); err != nil {
				return nominatim.Place{}, err
			}
		}

		places, err := retry.Do(ctx, "nominatim.search", r.backoff, func(ctx context.Context) ([]nominatim.Place, error) {
			return r.geocoder.Search(ctx, name, stage.Feature)
		})
		if err != nil {
			return nominatim.Place{}, err
		}
		if len(places) > 0 {
			metrics.GeocodeStageTotal.WithLabelValues(stage.Name).Inc()
			r.log.Debug("Location geocoded", "name", name, "stage", stage.Name, "display_name", places[0].DisplayName)
			return places[0], nil
		}
		r.log.Debug("Geocoding stage empty", "name", name, "stage", stage.Name)
	}
	return nominatim.Place{}, fmt.Errorf("location %q not found: %w", name, domain.ErrUpstreamNotFound)
}

// enrich fills the description fields of loc. Only context cancellation
// is returned; every other failure falls back to a synthesized description.
func (r *Resolver) enrich(ctx context.Context, name string, loc *domain.LocationRecord) error {
	if r.encyclopedia == nil {
		loc.Description = domain.FallbackDescription(loc.Name)
		return nil
	}
	if err := r.sleep(ctx, r.enrichmentDelay); err != nil {
		return err
	}

	summary, err := r.summary(ctx, name)
	if err != nil {
		if simple := simplifiedName(name); simple != name && ctx.Err() == nil {
			metrics.EnrichmentFallbacksTotal.WithLabelValues("simplified_name").Inc()
			r.log.Debug("Retrying enrichment with simplified name", "name", name, "simplified", simple, "error", err)
			summary, err = r.summary(ctx, simple)
		}
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		metrics.EnrichmentFallbacksTotal.WithLabelValues("synthesized").Inc()
		r.log.Debug("Enrichment failed, using synthesized description", "name", name, "error", err)
		loc.Description = domain.FallbackDescription(loc.Name)
		return nil
	}

	loc.Image = summary.Thumbnail
	if summary.Extract == "" {
		loc.Description = domain.EmptyExtractDescription(loc.Name)
		return nil
	}
	loc.Description = summary.Extract
	loc.Extract = domain.StringPtr(summary.Extract)
	return nil
}

func (r *Resolver) summary(ctx context.Context, title string) (*wikipedia.Summary, error) {
	s, err := retry.Do(ctx, "wikipedia.summary", r.backoff, func(ctx context.Context) (*wikipedia.Summary, error) {
		return r.encyclopedia.Summary(ctx, title)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEnrichmentUnavailable, err)
	}
	return s, nil
}

func (r *Resolver) cached(ctx context.Context, name string) *domain.LocationRecord {
	if r.store == nil {
		return nil
	}
	loc, err := r.store.Get(ctx, name)
	if err != nil {
		r.log.Warn("Location cache lookup failed", "name", name, "error", err)
		return nil
	}
	if loc == nil {
		metrics.CacheLookupsTotal.WithLabelValues("location", "miss").Inc()
		return nil
	}
	metrics.CacheLookupsTotal.WithLabelValues("location", "hit").Inc()
	return loc
}

// simplifiedName returns the part of name before the first comma.
func simplifiedName(name string) string {
	head, _, _ := strings.Cut(name, ",")
	return strings.TrimSpace(head)
}

func placeType(p nominatim.Place) domain.PlaceType {
	if p.AddressType != "" {
		return domain.ParsePlaceType(p.AddressType)
	}
	return domain.ParsePlaceType(p.Type)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
