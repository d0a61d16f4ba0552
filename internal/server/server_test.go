package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vietddude/cinemap/internal/aggregate"
	"github.com/vietddude/cinemap/internal/core/domain"
	"github.com/vietddude/cinemap/internal/health"
)

type mockExplorer struct {
	movie     *domain.MovieRecord
	locations []*domain.LocationRecord
	err       error
	names     []string
}

func (m *mockExplorer) SearchMovie(ctx context.Context, title string) (*domain.MovieRecord, error) {
	return m.movie, m.err
}

func (m *mockExplorer) ResolveLocations(ctx context.Context, names []string) ([]*domain.LocationRecord, error) {
	m.names = names
	return m.locations, m.err
}

func (m *mockExplorer) Explore(ctx context.Context, title string) (*aggregate.Exploration, error) {
	if m.movie == nil {
		return nil, m.err
	}
	return &aggregate.Exploration{Movie: m.movie, Locations: m.locations}, m.err
}

type stubHealth struct {
	status health.SystemStatus
}

func (s *stubHealth) CheckHealth(ctx context.Context) *health.HealthReport {
	return &health.HealthReport{SystemStatus: s.status, Services: map[string]health.ServiceHealth{}}
}

func newTestServer(explorer Explorer, status health.SystemStatus) http.Handler {
	return NewServer(explorer, &stubHealth{status: status}, 0).Handler()
}

func do(t *testing.T, h http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSearchMovie(t *testing.T) {
	movie := &domain.MovieRecord{Title: "Inception", Year: 2010, Cast: []string{}, Locations: []string{"Paris"}}
	h := newTestServer(&mockExplorer{movie: movie}, health.StatusHealthy)

	rec := do(t, h, http.MethodGet, "/api/movies?title=Inception", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got domain.MovieRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got.Title != "Inception" || got.Year != 2010 {
		t.Errorf("unexpected movie %+v", got)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a request id header")
	}
}

func TestSearchMovie_Errors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		err    error
		want   int
	}{
		{"missing title", "/api/movies", nil, http.StatusBadRequest},
		{"not found", "/api/movies?title=x", fmt.Errorf("movie fetch failed: %w", domain.ErrUpstreamNotFound), http.StatusNotFound},
		{"unavailable", "/api/movies?title=x", fmt.Errorf("movie fetch failed: %w", domain.ErrUpstreamUnavailable), http.StatusBadGateway},
		{"other", "/api/movies?title=x", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(&mockExplorer{err: tt.err}, health.StatusHealthy)
			if rec := do(t, h, http.MethodGet, tt.target, nil); rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestResolveLocations(t *testing.T) {
	explorer := &mockExplorer{locations: []*domain.LocationRecord{
		{Name: "Paris, France", Lat: 48.85, Lon: 2.35, Description: "Capital of France."},
	}}
	h := newTestServer(explorer, health.StatusHealthy)

	rec := do(t, h, http.MethodPost, "/api/locations", []byte(`{"names":["Paris","Atlantis"]}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got locationsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got.Requested != 2 || got.Resolved != 1 || len(got.Locations) != 1 {
		t.Errorf("unexpected response %+v", got)
	}
	if strings.Join(explorer.names, ",") != "Paris,Atlantis" {
		t.Errorf("unexpected names %v", explorer.names)
	}
}

func TestResolveLocations_Errors(t *testing.T) {
	h := newTestServer(&mockExplorer{}, health.StatusHealthy)
	if rec := do(t, h, http.MethodPost, "/api/locations", []byte(`{"names":`)); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", rec.Code)
	}

	names := make([]string, maxLocationNames+1)
	for i := range names {
		names[i] = fmt.Sprintf("place-%d", i)
	}
	body, _ := json.Marshal(locationsRequest{Names: names})
	if rec := do(t, h, http.MethodPost, "/api/locations", body); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for oversized batch, got %d", rec.Code)
	}

	down := &mockExplorer{err: fmt.Errorf("%w: all failed", aggregate.ErrLocationsUnavailable)}
	h = newTestServer(down, health.StatusHealthy)
	if rec := do(t, h, http.MethodPost, "/api/locations", []byte(`{"names":["Paris"]}`)); rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rec.Code)
	}
}

func TestExplore(t *testing.T) {
	explorer := &mockExplorer{
		movie:     &domain.MovieRecord{Title: "Titanic", Cast: []string{}, Locations: []string{"Halifax", "Belfast"}},
		locations: []*domain.LocationRecord{{Name: "Belfast"}},
	}
	h := newTestServer(explorer, health.StatusHealthy)

	rec := do(t, h, http.MethodGet, "/api/explore?title=Titanic", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got struct {
		Movie     domain.MovieRecord      `json:"movie"`
		Locations []domain.LocationRecord `json:"locations"`
		Requested int                     `json:"requested"`
		Resolved  int                     `json:"resolved"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got.Movie.Title != "Titanic" || got.Requested != 2 || got.Resolved != 1 {
		t.Errorf("unexpected response %+v", got)
	}
}

func TestExplore_LocationsUnavailable(t *testing.T) {
	explorer := &mockExplorer{
		movie:     &domain.MovieRecord{Title: "Inception", Cast: []string{}, Locations: []string{"Paris"}},
		locations: []*domain.LocationRecord{},
		err:       fmt.Errorf("%w: timeout", aggregate.ErrLocationsUnavailable),
	}
	h := newTestServer(explorer, health.StatusHealthy)

	rec := do(t, h, http.MethodGet, "/api/explore?title=Inception", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got struct {
		Movie          domain.MovieRecord      `json:"movie"`
		Locations      []domain.LocationRecord `json:"locations"`
		Resolved       int                     `json:"resolved"`
		LocationsError string                  `json:"locations_error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got.Movie.Title != "Inception" || got.Resolved != 0 || len(got.Locations) != 0 {
		t.Errorf("unexpected response %+v", got)
	}
	if !strings.Contains(got.LocationsError, "location resolution unavailable") {
		t.Errorf("expected locations_error, got %q", got.LocationsError)
	}
}

func TestExplore_MovieNotFound(t *testing.T) {
	h := newTestServer(&mockExplorer{err: fmt.Errorf("movie: %w", domain.ErrUpstreamNotFound)}, health.StatusHealthy)
	if rec := do(t, h, http.MethodGet, "/api/explore?title=Nope", nil); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	h := newTestServer(&mockExplorer{}, health.StatusDegraded)
	if rec := do(t, h, http.MethodGet, "/health", nil); rec.Code != http.StatusOK {
		t.Errorf("degraded should still be 200, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/health/detailed", nil); rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	h = newTestServer(&mockExplorer{}, health.StatusCritical)
	if rec := do(t, h, http.MethodGet, "/health", nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}

	if rec := do(t, h, http.MethodGet, "/metrics", nil); rec.Code != http.StatusOK {
		t.Errorf("expected metrics endpoint, got %d", rec.Code)
	}
}

func TestRequestIDPassthrough(t *testing.T) {
	h := newTestServer(&mockExplorer{}, health.StatusHealthy)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("expected request id to be echoed, got %q", got)
	}
}
