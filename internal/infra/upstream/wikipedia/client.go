// Package wikipedia is a client for the Wikipedia REST page summary endpoint.
package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/vietddude/cinemap/internal/core/domain"
	"github.com/vietddude/cinemap/internal/infra/transport"
)

// Summary is the lead section of an article.
type Summary struct {
	Title     string
	Extract   string
	Thumbnail *string
}

type summaryResponse struct {
	Title       string `json:"title"`
	Extract     string `json:"extract"`
	ExtractHTML string `json:"extract_html"`
	Thumbnail   *struct {
		Source string `json:"source"`
	} `json:"thumbnail"`
}

// Client fetches article summaries.
type Client struct {
	http  *transport.Client
	retry transport.Policy
}

// NewClient creates a Wikipedia client; the transport base URL should
// point at the REST root (for example https://en.wikipedia.org/api/rest_v1).
func NewClient(http *transport.Client, retry transport.Policy) *Client {
	return &Client{http: http, retry: retry}
}

// Summary fetches the summary for the article titled title. A missing
// article is reported as domain.ErrUpstreamNotFound.
func (c *Client) Summary(ctx context.Context, title string) (*Summary, error) {
	path := "/page/summary/" + url.PathEscape(title)

	resp, err := c.http.Get(ctx, path, nil, c.retry)
	if err != nil {
		if transport.IsStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("article %q: %w", title, domain.ErrUpstreamNotFound)
		}
		return nil, fmt.Errorf("article %q: %w", title, transport.Unavailable(err))
	}

	var raw summaryResponse
	if err := json.Unmarshal(resp.Body, &raw); err != nil {
		return nil, fmt.Errorf("article %q: %w", title, transport.Unavailable(fmt.Errorf("parse response: %w", err)))
	}

	s := &Summary{
		Title:   raw.Title,
		Extract: strings.TrimSpace(raw.Extract),
	}
	if s.Extract == "" && raw.ExtractHTML != "" {
		s.Extract = textFromHTML(raw.ExtractHTML)
	}
	if raw.Thumbnail != nil {
		s.Thumbnail = domain.StringPtr(raw.Thumbnail.Source)
	}
	return s, nil
}

// textFromHTML flattens an HTML fragment to its whitespace-normalized text.
func textFromHTML(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
