// Package omdb is a client for the OMDb movie database API.
package omdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/vietddude/cinemap/internal/core/domain"
	"github.com/vietddude/cinemap/internal/infra/transport"
)

// notAvailable is OMDb's literal placeholder for missing fields.
const notAvailable = "N/A"

// Title is a movie record as returned by OMDb, with "N/A" placeholders
// already translated to absent values.
type Title struct {
	Title    string
	Year     string
	Director *string
	Actors   string
	Genre    *string
	Rating   *string
	Plot     *string
	Poster   *string
	Country  string
	Location string
}

type titleResponse struct {
	Response   string `json:"Response"`
	Error      string `json:"Error"`
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Director   string `json:"Director"`
	Actors     string `json:"Actors"`
	Genre      string `json:"Genre"`
	ImdbRating string `json:"imdbRating"`
	Plot       string `json:"Plot"`
	Poster     string `json:"Poster"`
	Country    string `json:"Country"`
	Location   string `json:"Location"`
}

// Client looks up titles on OMDb.
type Client struct {
	http   *transport.Client
	apiKey string
	retry  transport.Policy
}

// NewClient creates an OMDb client on top of a transport bound to the OMDb base URL.
func NewClient(http *transport.Client, apiKey string, retry transport.Policy) *Client {
	return &Client{http: http, apiKey: apiKey, retry: retry}
}

// Lookup fetches the title that best matches the given free-text title.
// An explicit negative answer is reported as domain.ErrUpstreamNotFound.
func (c *Client) Lookup(ctx context.Context, title string) (*Title, error) {
	query := url.Values{
		"apikey": {c.apiKey},
		"t":      {title},
	}

	resp, err := c.http.Get(ctx, "/", query, c.retry)
	if err != nil {
		return nil, fmt.Errorf("movie search failed: %w", transport.Unavailable(err))
	}

	var raw titleResponse
	if err := json.Unmarshal(resp.Body, &raw); err != nil {
		return nil, fmt.Errorf("movie search failed: %w", transport.Unavailable(fmt.Errorf("parse response: %w", err)))
	}

	if strings.EqualFold(raw.Response, "False") {
		msg := strings.TrimSpace(raw.Error)
		if msg == "" {
			msg = "movie not found"
		}
		if strings.Contains(strings.ToLower(msg), "not found") {
			return nil, fmt.Errorf("%s: %w", msg, domain.ErrUpstreamNotFound)
		}
		if c.http.Monitor().DetectThrottlePattern(msg) {
			c.http.Monitor().RecordThrottle(429, 0)
		}
		return nil, fmt.Errorf("%s: %w", msg, domain.ErrUpstreamUnavailable)
	}

	return &Title{
		Title:    raw.Title,
		Year:     raw.Year,
		Director: optional(raw.Director),
		Actors:   present(raw.Actors),
		Genre:    optional(raw.Genre),
		Rating:   optional(raw.ImdbRating),
		Plot:     optional(raw.Plot),
		Poster:   optional(raw.Poster),
		Country:  present(raw.Country),
		Location: present(raw.Location),
	}, nil
}

func present(s string) string {
	s = strings.TrimSpace(s)
	if s == notAvailable {
		return ""
	}
	return s
}

func optional(s string) *string {
	return domain.StringPtr(present(s))
}
