package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound indicates OMDb has no record for the requested title or id.
var ErrNotFound = errors.New("omdb: title not found")

// Rating is one source/value pair from the OMDb ratings list,
// e.g. {"Rotten Tomatoes", "91%"}.
type Rating struct {
	Source string `json:"Source"`
	Value  string `json:"Value"`
}

// Result carries the OMDb fields the badge pipeline consumes.
type Result struct {
	Title      string   `json:"Title"`
	Year       string   `json:"Year"`
	IMDbRating string   `json:"imdbRating"`
	Awards     string   `json:"Awards"`
	Ratings    []Rating `json:"Ratings"`
	Response   string   `json:"Response"`
	Error      string   `json:"Error"`
}

// RottenTomatoes returns the Rotten Tomatoes percentage when present.
func (r *Result) RottenTomatoes() (float64, bool) {
	for _, rating := range r.Ratings {
		if !strings.EqualFold(rating.Source, "Rotten Tomatoes") {
			continue
		}
		value := strings.TrimSuffix(strings.TrimSpace(rating.Value), "%")
		score, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, false
		}
		return score, true
	}
	return 0, false
}

// IMDbScore returns the IMDb rating on a 0-10 scale when present.
func (r *Result) IMDbScore() (float64, bool) {
	value := strings.TrimSpace(r.IMDbRating)
	if value == "" || strings.EqualFold(value, "N/A") {
		return 0, false
	}
	score, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return score, true
}

// HasAwards reports whether the awards line names a real distinction.
func (r *Result) HasAwards() bool {
	value := strings.TrimSpace(r.Awards)
	return value != "" && !strings.EqualFold(value, "N/A")
}

// Fetcher defines the OMDb lookups used by the resolver tiers.
type Fetcher interface {
	ByIMDbID(ctx context.Context, imdbID string) (*Result, error)
	ByTitle(ctx context.Context, title string, year int) (*Result, error)
}

// Client provides access to the OMDb API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

var _ Fetcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates an OMDb client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("omdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("omdb base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// ByIMDbID looks up a title by its IMDb identifier.
func (c *Client) ByIMDbID(ctx context.Context, imdbID string) (*Result, error) {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return nil, errors.New("imdb id must not be empty")
	}
	params := url.Values{}
	params.Set("i", imdbID)
	return c.fetch(ctx, params)
}

// ByTitle looks up a title by name and optional release year.
func (c *Client) ByTitle(ctx context.Context, title string, year int) (*Result, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("title must not be empty")
	}
	params := url.Values{}
	params.Set("t", title)
	if year > 0 {
		params.Set("y", strconv.Itoa(year))
	}
	return c.fetch(ctx, params)
}

func (c *Client) fetch(ctx context.Context, params url.Values) (*Result, error) {
	endpoint, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return nil, fmt.Errorf("parse omdb url: %w", err)
	}
	params.Set("apikey", c.apiKey)
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("omdb returned %d", resp.StatusCode)
	}

	var payload Result
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode omdb response: %w", err)
	}
	if !strings.EqualFold(payload.Response, "True") {
		if strings.Contains(strings.ToLower(payload.Error), "not found") {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("omdb error: %s", payload.Error)
	}
	return &payload, nil
}
