package discogs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/franz/yarkie/internal/util"
)

const (
	// BaseURL is the Discogs API base URL
	BaseURL = "https://api.discogs.com"

	// UserAgent identifies this application to Discogs.
	// Discogs rejects requests without one.
	UserAgent = "yarkie/0.4 (https://github.com/franz/yarkie)"

	// RateLimit is the default spacing between requests. Authenticated
	// clients get 60 requests per minute.
	RateLimit = 1 * time.Second

	// SearchTypeRelease and SearchTypeMaster are the supported search types
	SearchTypeRelease = "release"
	SearchTypeMaster  = "master"

	searchPageSize = 50
)

// Options configures a Client. Zero values fall back to package defaults.
type Options struct {
	Token      string
	UserAgent  string
	BaseURL    string
	SearchType string
	RateLimit  time.Duration
	HTTPClient *http.Client
}

// Client handles Discogs API requests with rate limiting. Every call hits
// the network; nothing is cached.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	token       string
	userAgent   string
	searchType  string
	rateLimiter *time.Ticker
}

// NewClient creates a new Discogs API client
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = BaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = UserAgent
	}
	if opts.SearchType == "" {
		opts.SearchType = SearchTypeRelease
	}
	if opts.SearchType != SearchTypeRelease && opts.SearchType != SearchTypeMaster {
		return nil, fmt.Errorf("search type %q: %w", opts.SearchType, util.ErrInvalidConfig)
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = RateLimit
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		httpClient:  opts.HTTPClient,
		baseURL:     opts.BaseURL,
		token:       opts.Token,
		userAgent:   opts.UserAgent,
		searchType:  opts.SearchType,
		rateLimiter: time.NewTicker(opts.RateLimit),
	}, nil
}

// Close releases resources used by the client
func (c *Client) Close() {
	if c.rateLimiter != nil {
		c.rateLimiter.Stop()
	}
}

// SearchType returns the search type used by SearchReleases
func (c *Client) SearchType() string {
	return c.searchType
}

// SearchReleases searches the database for releases (or masters, depending
// on the configured search type). Returns util.ErrNotFound when nothing matches.
func (c *Client) SearchReleases(ctx context.Context, query string) ([]Release, error) {
	if query == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", c.searchType)
	params.Set("per_page", strconv.Itoa(searchPageSize))

	util.DebugLog("Discogs API: searching %ss for '%s'", c.searchType, query)

	var resp searchResponse
	if err := c.get(ctx, "/database/search", params, &resp); err != nil {
		return nil, err
	}

	if len(resp.Results) == 0 {
		util.DebugLog("Discogs: no results for '%s'", query)
		return nil, fmt.Errorf("search %q: %w", query, util.ErrNotFound)
	}

	releases := make([]Release, 0, len(resp.Results))
	for _, r := range resp.Results {
		releases = append(releases, r.toRelease())
	}

	util.DebugLog("Discogs: %d results for '%s'", len(releases), query)
	return releases, nil
}

// SearchArtists searches the database for artists by name
func (c *Client) SearchArtists(ctx context.Context, query string) ([]ArtistCredit, error) {
	if query == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "artist")
	params.Set("per_page", strconv.Itoa(searchPageSize))

	util.DebugLog("Discogs API: searching artists for '%s'", query)

	var resp searchResponse
	if err := c.get(ctx, "/database/search", params, &resp); err != nil {
		return nil, err
	}

	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("artist search %q: %w", query, util.ErrNotFound)
	}

	artists := make([]ArtistCredit, 0, len(resp.Results))
	for _, r := range resp.Results {
		artists = append(artists, ArtistCredit{ID: r.ID, Name: r.Title})
	}
	return artists, nil
}

// FetchRelease retrieves full release details including credits and tracklist
func (c *Client) FetchRelease(ctx context.Context, id int64) (*Release, error) {
	util.DebugLog("Discogs API: fetching release %d", id)

	var resp releaseResponse
	if err := c.get(ctx, fmt.Sprintf("/releases/%d", id), nil, &resp); err != nil {
		return nil, fmt.Errorf("release %d: %w", id, err)
	}

	release := resp.toRelease(SearchTypeRelease)
	return &release, nil
}

// FetchMaster retrieves a master release. MainRelease holds the id of the
// release Discogs considers canonical for it.
func (c *Client) FetchMaster(ctx context.Context, id int64) (*Release, error) {
	util.DebugLog("Discogs API: fetching master %d", id)

	var resp releaseResponse
	if err := c.get(ctx, fmt.Sprintf("/masters/%d", id), nil, &resp); err != nil {
		return nil, fmt.Errorf("master %d: %w", id, err)
	}

	release := resp.toRelease(SearchTypeMaster)
	return &release, nil
}

// FetchArtist retrieves artist details
func (c *Client) FetchArtist(ctx context.Context, id int64) (*Artist, error) {
	util.DebugLog("Discogs API: fetching artist %d", id)

	var artist Artist
	if err := c.get(ctx, fmt.Sprintf("/artists/%d", id), nil, &artist); err != nil {
		return nil, fmt.Errorf("artist %d: %w", id, err)
	}

	return &artist, nil
}

// get performs a rate-limited GET and decodes the JSON body into out
func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if err := c.waitForRateLimit(ctx); err != nil {
		return err
	}

	urlStr := c.baseURL + path
	if len(params) > 0 {
		urlStr += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/vnd.discogs.v2.discogs+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Discogs token="+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return util.ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return util.ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// waitForRateLimit blocks until the next request slot or context cancellation
func (c *Client) waitForRateLimit(ctx context.Context) error {
	select {
	case <-c.rateLimiter.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
