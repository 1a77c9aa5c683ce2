package mediaserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound indicates the server has no item with the requested id.
var ErrNotFound = errors.New("mediaserver: item not found")

// HTTPDoer describes the HTTP client used by the media server client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// MediaStream describes one technical stream of an item.
type MediaStream struct {
	Type          string `json:"Type"`
	Codec         string `json:"Codec"`
	Profile       string `json:"Profile"`
	ChannelLayout string `json:"ChannelLayout"`
	Channels      int    `json:"Channels"`
	Width         int    `json:"Width"`
	Height        int    `json:"Height"`
}

// Item is the subset of media server item metadata the pipeline consumes.
// Immutable once fetched; the pipeline treats it as read-only.
type Item struct {
	ID              string            `json:"Id"`
	Name            string            `json:"Name"`
	Type            string            `json:"Type"`
	ProductionYear  int               `json:"ProductionYear"`
	CommunityRating float64           `json:"CommunityRating"`
	ProviderIDs     map[string]string `json:"ProviderIds"`
	MediaStreams    []MediaStream     `json:"MediaStreams"`
}

// IsMovie reports whether the item is a movie rather than a series.
func (i *Item) IsMovie() bool {
	return strings.EqualFold(i.Type, "Movie")
}

// ProviderID returns the cross-reference id for the named provider
// (e.g. "Imdb", "Tmdb") or an empty string.
func (i *Item) ProviderID(name string) string {
	for key, value := range i.ProviderIDs {
		if strings.EqualFold(key, name) {
			return value
		}
	}
	return ""
}

// VideoStream returns the first video stream, if any.
func (i *Item) VideoStream() (MediaStream, bool) {
	for _, stream := range i.MediaStreams {
		if strings.EqualFold(stream.Type, "Video") {
			return stream, true
		}
	}
	return MediaStream{}, false
}

// AudioStream returns the first audio stream, if any.
func (i *Item) AudioStream() (MediaStream, bool) {
	for _, stream := range i.MediaStreams {
		if strings.EqualFold(stream.Type, "Audio") {
			return stream, true
		}
	}
	return MediaStream{}, false
}

// ItemsPage is one page of a library listing.
type ItemsPage struct {
	Items      []Item `json:"Items"`
	TotalCount int    `json:"TotalRecordCount"`
}

// ListOptions filters and pages a library listing.
type ListOptions struct {
	IncludeTypes []string
	StartIndex   int
	Limit        int
}

// Client provides access to a Jellyfin-compatible media server API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient HTTPDoer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a media server client.
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("media server base url required")
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("media server api key required")
	}
	client := &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Item fetches one item with its technical streams.
func (c *Client) Item(ctx context.Context, id string) (*Item, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("item id must not be empty")
	}
	endpoint := fmt.Sprintf("%s/Items/%s", c.baseURL, url.PathEscape(id))
	params := url.Values{}
	params.Set("fields", "MediaStreams,ProviderIds")

	var item Item
	if err := c.getJSON(ctx, endpoint, params, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Items lists library items with pagination.
func (c *Client) Items(ctx context.Context, opts ListOptions) (*ItemsPage, error) {
	endpoint := c.baseURL + "/Items"
	params := url.Values{}
	params.Set("recursive", "true")
	params.Set("fields", "MediaStreams,ProviderIds")
	if len(opts.IncludeTypes) > 0 {
		params.Set("includeItemTypes", strings.Join(opts.IncludeTypes, ","))
	}
	if opts.StartIndex > 0 {
		params.Set("startIndex", strconv.Itoa(opts.StartIndex))
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}

	var page ItemsPage
	if err := c.getJSON(ctx, endpoint, params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Poster fetches the primary poster image bytes for an item.
func (c *Client) Poster(ctx context.Context, id string) ([]byte, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("item id must not be empty")
	}
	endpoint := fmt.Sprintf("%s/Items/%s/Images/Primary", c.baseURL, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build poster request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch poster: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("poster fetch returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read poster body: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("poster response was empty")
	}
	return data, nil
}

// UploadPoster replaces the primary poster image for an item. The server
// expects the payload base64-encoded in the request body.
func (c *Client) UploadPoster(ctx context.Context, id, contentType string, data []byte) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("item id must not be empty")
	}
	if len(data) == 0 {
		return errors.New("poster payload must not be empty")
	}
	if contentType == "" {
		contentType = "image/png"
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	endpoint := fmt.Sprintf("%s/Items/%s/Images/Primary", c.baseURL, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader([]byte(encoded)))
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload poster: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("poster upload returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	target, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("parse media server url: %w", err)
	}
	target.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("media server returned %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode media server response: %w", err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("X-Emby-Token", c.apiKey)
}
