package storage

import (
	"context"
	"strings"

	"github.com/vietddude/cinemap/internal/core/domain"
)

// MovieRepository caches resolved movie records keyed by search title.
type MovieRepository interface {
	// Get returns the cached record, or nil when absent
	Get(ctx context.Context, title string) (*domain.MovieRecord, error)

	// Save upserts a record
	Save(ctx context.Context, title string, movie *domain.MovieRecord) error
}

// LocationRepository caches resolved location records keyed by the
// free-text candidate name.
type LocationRepository interface {
	// Get returns the cached record, or nil when absent
	Get(ctx context.Context, name string) (*domain.LocationRecord, error)

	// Save upserts a record
	Save(ctx context.Context, name string, location *domain.LocationRecord) error
}

// Key normalizes a title or place name for lookups.
func Key(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
