package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/cinemap/internal/core/domain"
	"github.com/vietddude/cinemap/internal/infra/storage"
)

type locationRow struct {
	Name        string         `db:"name"`
	Lat         float64        `db:"lat"`
	Lon         float64        `db:"lon"`
	Description string         `db:"description"`
	Image       sql.NullString `db:"image"`
	Extract     sql.NullString `db:"wikipedia_extract"`
	PlaceType   string         `db:"place_type"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

// LocationRepo implements storage.LocationRepository using PostgreSQL.
type LocationRepo struct {
	db  *DB
	ttl time.Duration
}

// NewLocationRepo creates a new PostgreSQL location repository.
func NewLocationRepo(db *DB, ttl time.Duration) *LocationRepo {
	return &LocationRepo{db: db, ttl: ttl}
}

// Get returns the cached location for name.
func (r *LocationRepo) Get(ctx context.Context, name string) (*domain.LocationRecord, error) {
	query := `
		SELECT name, lat, lon, description, image, wikipedia_extract, place_type, updated_at
		FROM locations
		WHERE search_key = $1
	`

	var row locationRow
	err := r.db.GetContext(ctx, &row, query, storage.Key(name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get location: %w", err)
	}
	if expired(row.UpdatedAt, r.ttl) {
		return nil, nil
	}

	return &domain.LocationRecord{
		Name:        row.Name,
		Lat:         row.Lat,
		Lon:         row.Lon,
		Description: row.Description,
		Image:       nullString(row.Image),
		Extract:     nullString(row.Extract),
		Type:        domain.PlaceType(row.PlaceType),
	}, nil
}

// Save upserts a location.
func (r *LocationRepo) Save(ctx context.Context, name string, loc *domain.LocationRecord) error {
	query := `
		INSERT INTO locations (search_key, name, lat, lon, description, image, wikipedia_extract, place_type, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (search_key) DO UPDATE SET
			name = EXCLUDED.name,
			lat = EXCLUDED.lat,
			lon = EXCLUDED.lon,
			description = EXCLUDED.description,
			image = EXCLUDED.image,
			wikipedia_extract = EXCLUDED.wikipedia_extract,
			place_type = EXCLUDED.place_type,
			updated_at = NOW()
	`

	_, err := r.db.ExecContext(ctx, query,
		storage.Key(name),
		loc.Name,
		loc.Lat,
		loc.Lon,
		loc.Description,
		loc.Image,
		loc.Extract,
		string(loc.Type),
	)
	if err != nil {
		return fmt.Errorf("failed to save location: %w", err)
	}
	return nil
}
