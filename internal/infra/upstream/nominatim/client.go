// Package nominatim is a client for the OpenStreetMap Nominatim geocoder.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/vietddude/cinemap/internal/infra/transport"
)

// FeatureType constrains a search to one class of place.
type FeatureType string

const (
	FeatureCity    FeatureType = "city"
	FeatureCountry FeatureType = "country"
	FeatureAny     FeatureType = ""
)

// Place is one geocoding candidate.
type Place struct {
	Lat         float64
	Lon         float64
	DisplayName string
	Class       string
	Type        string
	AddressType string
}

type placeResponse struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Class       string `json:"class"`
	Type        string `json:"type"`
	AddressType string `json:"addresstype"`
}

// Client geocodes free-text place names.
type Client struct {
	http  *transport.Client
	retry transport.Policy
	limit int
}

// NewClient creates a Nominatim client. limit bounds the result count per query.
func NewClient(http *transport.Client, retry transport.Policy, limit int) *Client {
	if limit <= 0 {
		limit = 1
	}
	return &Client{http: http, retry: retry, limit: limit}
}

// Search returns the ordered candidates for query. An empty slice means no match.
func (c *Client) Search(ctx context.Context, query string, feature FeatureType) ([]Place, error) {
	params := url.Values{
		"format": {"json"},
		"q":      {query},
		"limit":  {strconv.Itoa(c.limit)},
	}
	if feature != FeatureAny {
		params.Set("featuretype", string(feature))
	}

	resp, err := c.http.Get(ctx, "/search", params, c.retry)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", query, transport.Unavailable(err))
	}

	var raw []placeResponse
	if err := json.Unmarshal(resp.Body, &raw); err != nil {
		return nil, fmt.Errorf("geocode %q: %w", query, transport.Unavailable(fmt.Errorf("parse response: %w", err)))
	}

	places := make([]Place, 0, len(raw))
	for _, r := range raw {
		lat, errLat := strconv.ParseFloat(r.Lat, 64)
		lon, errLon := strconv.ParseFloat(r.Lon, 64)
		if errLat != nil || errLon != nil {
			slog.Debug("Skipping geocoding result with invalid coordinates",
				"query", query, "lat", r.Lat, "lon", r.Lon)
			continue
		}
		places = append(places, Place{
			Lat:         lat,
			Lon:         lon,
			DisplayName: r.DisplayName,
			Class:       r.Class,
			Type:        r.Type,
			AddressType: r.AddressType,
		})
	}
	return places, nil
}
