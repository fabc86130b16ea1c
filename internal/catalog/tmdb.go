package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"mediasort/internal/services"
)

// DefaultBaseURL is the production TMDB API endpoint.
const DefaultBaseURL = "https://api.themoviedb.org/3"

// TMDBClient implements Catalog against the TMDB v3 API.
type TMDBClient struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
}

var _ Catalog = (*TMDBClient)(nil)

// TMDBOption configures a TMDBClient.
type TMDBOption func(*TMDBClient)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) TMDBOption {
	return func(c *TMDBClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewTMDB creates a TMDB-backed catalog. The language is an IETF tag such as
// "en-US" and is passed through on every request.
func NewTMDB(apiKey, baseURL, language string, opts ...TMDBOption) (*TMDBClient, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "catalog", "new", "tmdb api key required", nil)
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := &TMDBClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   strings.TrimSpace(language),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type searchResponse struct {
	Page         int         `json:"page"`
	Results      []Candidate `json:"results"`
	TotalResults int         `json:"total_results"`
}

// SearchMovie queries the movie index, optionally restricted to a primary
// release year.
func (c *TMDBClient) SearchMovie(ctx context.Context, query string, year int) ([]Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrParse, "catalog", "search_movie", "query must not be empty", nil)
	}
	params := url.Values{}
	params.Set("query", query)
	if year > 0 {
		params.Set("primary_release_year", strconv.Itoa(year))
	}
	var payload searchResponse
	if err := c.get(ctx, "/search/movie", params, &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

// SearchTV queries the series index, optionally restricted to a first air
// date year.
func (c *TMDBClient) SearchTV(ctx context.Context, query string, year int) ([]Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrParse, "catalog", "search_tv", "query must not be empty", nil)
	}
	params := url.Values{}
	params.Set("query", query)
	if year > 0 {
		params.Set("first_air_date_year", strconv.Itoa(year))
	}
	var payload searchResponse
	if err := c.get(ctx, "/search/tv", params, &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

// EpisodeDetails fetches a single episode's metadata. A 404 from TMDB means
// the episode does not exist upstream and is returned as a nil episode, not
// an error.
func (c *TMDBClient) EpisodeDetails(ctx context.Context, showID int64, season, episode int) (*Episode, error) {
	if showID <= 0 {
		return nil, services.Wrap(services.ErrParse, "catalog", "episode", "show id must be positive", nil)
	}
	path := fmt.Sprintf("/tv/%d/season/%d/episode/%d", showID, season, episode)
	var payload Episode
	if err := c.get(ctx, path, url.Values{}, &payload); err != nil {
		if services.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &payload, nil
}

func (c *TMDBClient) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "catalog", "request", "parse tmdb url", err)
	}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return services.Wrap(services.ErrTransient, "catalog", "request", "build request", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return services.Wrap(services.ErrTransient, "catalog", "request",
			fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "catalog", "request",
			fmt.Sprintf("tmdb returned 404 for %s", path), nil)
	case resp.StatusCode != http.StatusOK:
		return services.Wrap(services.ErrTransient, "catalog", "request",
			fmt.Sprintf("tmdb returned %d (latency=%v)", resp.StatusCode, latency), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrTransient, "catalog", "request", "decode tmdb response", err)
	}
	return nil
}
