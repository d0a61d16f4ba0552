package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/vietddude/cinemap/internal/core/domain"
	"github.com/vietddude/cinemap/internal/infra/storage"
)

type movieRow struct {
	Title     string         `db:"title"`
	Year      int            `db:"year"`
	Director  sql.NullString `db:"director"`
	Cast      pq.StringArray `db:"cast"`
	Genre     sql.NullString `db:"genre"`
	Rating    sql.NullString `db:"rating"`
	Plot      sql.NullString `db:"plot"`
	Poster    sql.NullString `db:"poster"`
	Locations pq.StringArray `db:"locations"`
	UpdatedAt time.Time      `db:"updated_at"`
}

// MovieRepo implements storage.MovieRepository using PostgreSQL.
type MovieRepo struct {
	db  *DB
	ttl time.Duration
}

// NewMovieRepo creates a new PostgreSQL movie repository. Rows older than
// ttl are treated as misses; a zero ttl never expires.
func NewMovieRepo(db *DB, ttl time.Duration) *MovieRepo {
	return &MovieRepo{db: db, ttl: ttl}
}

// Get returns the cached movie for title.
func (r *MovieRepo) Get(ctx context.Context, title string) (*domain.MovieRecord, error) {
	query := `
		SELECT title, year, director, "cast", genre, rating, plot, poster, locations, updated_at
		FROM movies
		WHERE search_key = $1
	`

	var row movieRow
	err := r.db.GetContext(ctx, &row, query, storage.Key(title))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}
	if expired(row.UpdatedAt, r.ttl) {
		return nil, nil
	}

	return &domain.MovieRecord{
		Title:     row.Title,
		Year:      row.Year,
		Director:  nullString(row.Director),
		Cast:      nonNil(row.Cast),
		Genre:     nullString(row.Genre),
		Rating:    nullString(row.Rating),
		Plot:      nullString(row.Plot),
		Poster:    nullString(row.Poster),
		Locations: nonNil(row.Locations),
	}, nil
}

// Save upserts a movie.
func (r *MovieRepo) Save(ctx context.Context, title string, movie *domain.MovieRecord) error {
	query := `
		INSERT INTO movies (search_key, title, year, director, "cast", genre, rating, plot, poster, locations, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (search_key) DO UPDATE SET
			title = EXCLUDED.title,
			year = EXCLUDED.year,
			director = EXCLUDED.director,
			"cast" = EXCLUDED."cast",
			genre = EXCLUDED.genre,
			rating = EXCLUDED.rating,
			plot = EXCLUDED.plot,
			poster = EXCLUDED.poster,
			locations = EXCLUDED.locations,
			updated_at = NOW()
	`

	_, err := r.db.ExecContext(ctx, query,
		storage.Key(title),
		movie.Title,
		movie.Year,
		movie.Director,
		pq.Array(nonNil(movie.Cast)),
		movie.Genre,
		movie.Rating,
		movie.Plot,
		movie.Poster,
		pq.Array(nonNil(movie.Locations)),
	)
	if err != nil {
		return fmt.Errorf("failed to save movie: %w", err)
	}
	return nil
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func expired(updatedAt time.Time, ttl time.Duration) bool {
	return ttl > 0 && time.Since(updatedAt) > ttl
}
