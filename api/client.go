// Package api is the HTTP client for the referral collection endpoint. The
// endpoint's response shape is not guaranteed: it serves either a paginated
// envelope {results, next, count} or a bare item array, so decoding reports
// the observed shape and leaves the pagination-mode decision to the caller.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"snda-browse/catalog"
)

// Shape classifies a collection response body.
type Shape int

const (
	ShapeUnknown Shape = iota
	ShapeEnvelope
	ShapeArray
)

// ListParams describes one page request against the collection endpoint.
type ListParams struct {
	Page     int
	PageSize int
	Filters  catalog.FilterState
}

// ListResult is a decoded collection response.
type ListResult struct {
	Shape    Shape
	Items    []catalog.Item
	Next     string // continuation URL, empty when absent or null
	Count    int
	HasCount bool
}

// Client provides access to the catalog API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a new catalog API client.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListURL builds the request URL for the given page and filters. Empty
// search text, the "all" urgency and an empty case-type list are omitted
// rather than sent literally.
func (c *Client) ListURL(p ListParams) string {
	params := url.Values{}
	params.Set("page", strconv.Itoa(p.Page))
	params.Set("page_size", strconv.Itoa(p.PageSize))
	if q := strings.TrimSpace(p.Filters.Query); q != "" {
		params.Set("q", q)
	}
	if u := p.Filters.Urgency; u != "" && u != catalog.UrgencyAll {
		params.Set("urgency", string(u))
	}
	if len(p.Filters.CaseTypes) > 0 {
		params.Set("case_type", strings.Join(p.Filters.CaseTypes, ","))
	}
	return c.baseURL + "/api/referrals/?" + params.Encode()
}

// ListReferrals fetches one page of the collection.
func (c *Client) ListReferrals(ctx context.Context, p ListParams) (*ListResult, error) {
	return c.FetchPage(ctx, c.ListURL(p))
}

// FetchPage fetches a collection page from an absolute URL. Used both for
// the first page and for following the server-supplied continuation URL.
func (c *Client) FetchPage(ctx context.Context, rawURL string) (*ListResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch referrals: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if detail := errorDetail(body); detail != "" {
			return nil, fmt.Errorf("list referrals: %s (status %d)", detail, resp.StatusCode)
		}
		return nil, fmt.Errorf("list referrals: unexpected status %d", resp.StatusCode)
	}

	return decodeList(body), nil
}

// decodeList classifies the response shape. An object with a results array
// is the paginated envelope; a top-level array is the flat collection;
// anything else is unknown and yields an empty result.
func decodeList(data []byte) *ListResult {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return &ListResult{Shape: ShapeUnknown}
	}

	if trimmed[0] == '[' {
		var items []catalog.Item
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return &ListResult{Shape: ShapeUnknown}
		}
		return &ListResult{
			Shape:    ShapeArray,
			Items:    items,
			Count:    len(items),
			HasCount: true,
		}
	}

	var env struct {
		Results []catalog.Item `json:"results"`
		Next    *string        `json:"next"`
		Count   *int           `json:"count"`
	}
	if err := json.Unmarshal(trimmed, &env); err != nil || env.Results == nil {
		return &ListResult{Shape: ShapeUnknown}
	}

	res := &ListResult{Shape: ShapeEnvelope, Items: env.Results}
	if env.Next != nil {
		res.Next = *env.Next
	}
	if env.Count != nil {
		res.Count = *env.Count
		res.HasCount = true
	}
	return res
}

// errorDetail extracts the server-reported message from an error body.
func errorDetail(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Detail
}
