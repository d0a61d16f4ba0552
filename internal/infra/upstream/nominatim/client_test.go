package nominatim

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vietddude/cinemap/internal/core/domain"
	"github.com/vietddude/cinemap/internal/infra/transport"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	tc, err := transport.NewClient(transport.Config{
		Name:      "nominatim",
		BaseURL:   server.URL,
		Timeout:   2 * time.Second,
		UserAgent: "MovieLocationsExplorer/1.0",
	})
	if err != nil {
		t.Fatalf("transport: %v", err)
	}
	return NewClient(tc, transport.Policy{}, 1)
}

func TestSearch_ParsesResults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("expected /search, got %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("format") != "json" || q.Get("limit") != "1" || q.Get("featuretype") != "city" {
			t.Errorf("unexpected params %v", q)
		}
		if r.Header.Get("User-Agent") != "MovieLocationsExplorer/1.0" {
			t.Errorf("missing client-identifying header")
		}
		_, _ = w.Write([]byte(`[{"lat":"48.8588897","lon":"2.3200410","display_name":"Paris, Île-de-France, France","class":"boundary","type":"administrative","addresstype":"city"}]`))
	})

	places, err := c.Search(context.Background(), "Paris", FeatureCity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(places) != 1 {
		t.Fatalf("expected 1 place, got %d", len(places))
	}
	p := places[0]
	if p.Lat != 48.8588897 || p.Lon != 2.3200410 {
		t.Errorf("unexpected coordinates %v,%v", p.Lat, p.Lon)
	}
	if p.DisplayName != "Paris, Île-de-France, France" || p.AddressType != "city" {
		t.Errorf("unexpected place %+v", p)
	}
}

func TestSearch_UnconstrainedOmitsFeatureType(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.URL.Query()["featuretype"]; ok {
			t.Errorf("featuretype should be omitted")
		}
		_, _ = w.Write([]byte(`[]`))
	})

	places, err := c.Search(context.Background(), "Atlantic Ocean", FeatureAny)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(places) != 0 {
		t.Errorf("expected no places, got %d", len(places))
	}
}

func TestSearch_SkipsInvalidCoordinates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"lat":"x","lon":"1"},{"lat":"1.5","lon":"2.5","display_name":"B"}]`))
	})

	places, err := c.Search(context.Background(), "B", FeatureAny)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(places) != 1 || places[0].DisplayName != "B" {
		t.Errorf("unexpected places %+v", places)
	}
}

func TestSearch_Failure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.Search(context.Background(), "Paris", FeatureCity)
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
	}
}
