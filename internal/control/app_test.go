package control

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vietddude/cinemap/internal/core/config"
)

// newUpstreams starts fakes for the three upstream services.
func newUpstreams(t *testing.T) (omdbURL, nominatimURL, wikipediaURL string) {
	t.Helper()

	omdbSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"Response": "True",
			"Title":    "Inception",
			"Year":     "2010",
			"Actors":   "Leonardo DiCaprio",
			"Country":  "N/A",
			"Poster":   "N/A",
		})
	}))
	t.Cleanup(omdbSrv.Close)

	nominatimSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if q == "Tangier" {
			w.Write([]byte("[]"))
			return
		}
		json.NewEncoder(w).Encode([]map[string]string{{
			"lat":          "1.5",
			"lon":          "2.5",
			"display_name": q + ", Somewhere",
			"type":         "administrative",
			"addresstype":  "city",
		}})
	}))
	t.Cleanup(nominatimSrv.Close)

	wikiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(wikiSrv.Close)

	return omdbSrv.URL, nominatimSrv.URL, wikiSrv.URL
}

func TestApp_Explore(t *testing.T) {
	omdbURL, nominatimURL, wikipediaURL := newUpstreams(t)

	cfg := config.Default()
	cfg.Upstreams.OMDb.URL = omdbURL
	cfg.Upstreams.OMDb.APIKey = "test"
	cfg.Upstreams.Nominatim.URL = nominatimURL
	cfg.Upstreams.Wikipedia.URL = wikipediaURL
	cfg.Backoff.InitialDelay = time.Millisecond
	cfg.Resolver.StageDelay = time.Millisecond
	cfg.Resolver.EnrichmentDelay = time.Millisecond
	cfg.Cache.Enabled = true

	app, err := NewApp(cfg)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	defer app.Close()

	result, err := app.Facade().Explore(context.Background(), "Inception")
	if err != nil {
		t.Fatalf("Explore failed: %v", err)
	}
	if result.Movie.Poster != nil {
		t.Errorf("expected absent poster")
	}
	// Tangier never geocodes; the other four table entries do.
	if len(result.Movie.Locations) != 5 || len(result.Locations) != 4 {
		t.Errorf("expected 4 of 5 locations, got %d of %d", len(result.Locations), len(result.Movie.Locations))
	}
	for _, loc := range result.Locations {
		if loc.Description == "" {
			t.Errorf("empty description for %s", loc.Name)
		}
	}
}

func TestNewApp_InvalidUpstream(t *testing.T) {
	cfg := config.Default()
	cfg.Upstreams.Wikipedia.URL = "::bad"
	if _, err := NewApp(cfg); err == nil {
		t.Error("expected error for invalid upstream url")
	}
}

func TestNewApp_StorageFailureClosesClients(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Enabled = true
	cfg.Redis.URL = "::not-a-redis-url"

	if _, err := NewApp(cfg); err == nil {
		t.Fatal("expected error for invalid redis url")
	}

	a := &App{cfg: cfg, log: slog.Default()}
	if err := a.init(); err == nil {
		t.Fatal("expected init to fail")
	}
	if len(a.clients) != 3 {
		t.Fatalf("expected 3 upstream clients before the storage failure, got %d", len(a.clients))
	}
	a.Close()
	for _, c := range a.clients {
		if !c.Closed() {
			t.Errorf("client %s left open", c.Name())
		}
	}
}
