package postgres

import (
	"context"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/vietddude/cinemap/internal/core/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("CINEMAP_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("CINEMAP_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := NewDB(ctx, Config{URL: url})
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMovieRepo(t *testing.T) {
	db := newTestDB(t)
	repo := NewMovieRepo(db, time.Hour)
	ctx := context.Background()
	key := "cinemap test " + time.Now().Format("150405.000000")

	got, err := repo.Get(ctx, key)
	if err != nil || got != nil {
		t.Fatalf("expected miss, got %v, %v", got, err)
	}

	movie := &domain.MovieRecord{
		Title:     "Casablanca",
		Year:      1942,
		Director:  domain.StringPtr("Michael Curtiz"),
		Cast:      []string{},
		Locations: []string{"Casablanca", "Hollywood"},
	}
	if err := repo.Save(ctx, key, movie); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	got, err = repo.Get(ctx, key)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !reflect.DeepEqual(got, movie) {
		t.Errorf("expected %+v, got %+v", movie, got)
	}

	movie.Year = 1943
	if err := repo.Save(ctx, key, movie); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	got, _ = repo.Get(ctx, key)
	if got == nil || got.Year != 1943 {
		t.Errorf("expected upserted year 1943, got %+v", got)
	}
}

func TestLocationRepo(t *testing.T) {
	db := newTestDB(t)
	repo := NewLocationRepo(db, time.Hour)
	ctx := context.Background()
	key := "cinemap test " + time.Now().Format("150405.000000")

	loc := &domain.LocationRecord{
		Name:        "Tangier, Morocco",
		Lat:         35.7595,
		Lon:         -5.834,
		Description: "Location: Tangier, Morocco. This is one of the places related to the movie.",
		Type:        domain.PlaceTypeCity,
	}
	if err := repo.Save(ctx, key, loc); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	got, err := repo.Get(ctx, key)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !reflect.DeepEqual(got, loc) {
		t.Errorf("expected %+v, got %+v", loc, got)
	}
}

func TestExpired(t *testing.T) {
	if expired(time.Now(), 0) {
		t.Error("zero ttl must never expire")
	}
	if !expired(time.Now().Add(-2*time.Hour), time.Hour) {
		t.Error("expected expiry after ttl")
	}
	if expired(time.Now(), time.Hour) {
		t.Error("fresh row must not expire")
	}
}
