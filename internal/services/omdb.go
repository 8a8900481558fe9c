// OMDb [Catalog] implementation
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
)

const (
	defaultOMDbBaseURL        = "https://www.omdbapi.com/"
	defaultRequestsPerSecond  = 10.0
	defaultCatalogTimeout     = 10 * time.Second
	omdbResponseFalse         = "False"
	omdbErrMovieNotFound      = "movie not found!"
	omdbErrTooManyResults     = "too many results."
	omdbErrInvalidAPIKey      = "invalid api key!"
	omdbErrNoAPIKey           = "no api key provided."
	omdbErrRequestLimit       = "request limit reached!"
	omdbErrIncorrectIMDbID    = "incorrect imdb id."
	omdbErrConnectionNotFound = "error getting data."
)

// omdbEnvelope is the status part every OMDb response carries.
type omdbEnvelope struct {
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

type omdbSearchResponse struct {
	omdbEnvelope
	Search       []models.Movie `json:"Search"`
	TotalResults string         `json:"totalResults"`
}

type omdbDetailResponse struct {
	omdbEnvelope
	models.Movie
}

// OMDbClient implements [Catalog] against the OMDb HTTP API.
type OMDbClient struct {
	apiKey      string
	baseURL     *url.URL
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

var _ Catalog = (*OMDbClient)(nil)

// Option configures an [OMDbClient].
type Option func(*OMDbClient)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *OMDbClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRateLimit caps outgoing requests per second. A non-positive value disables limiting.
func WithRateLimit(perSecond float64) Option {
	return func(c *OMDbClient) {
		if perSecond <= 0 {
			c.rateLimiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		burst := max(int(perSecond), 1)
		c.rateLimiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewOMDbClient creates an OMDb client. An empty baseURL falls back to the public endpoint.
func NewOMDbClient(apiKey, baseURL string, opts ...Option) (*OMDbClient, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: omdb api key required", shared.ErrMissingCredentials)
	}

	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = defaultOMDbBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid catalog base url %q", shared.ErrInvalidConfig, baseURL)
	}

	client := &OMDbClient{
		apiKey:      apiKey,
		baseURL:     u,
		httpClient:  &http.Client{Timeout: defaultCatalogTimeout},
		rateLimiter: rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), int(defaultRequestsPerSecond)),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// NewOMDbClientFromConfig builds a client from the catalog section of the config.
func NewOMDbClientFromConfig(cfg shared.CatalogConfig, opts ...Option) (*OMDbClient, error) {
	base := []Option{WithRateLimit(cfg.RequestsPerSecond)}
	if cfg.TimeoutSeconds > 0 {
		base = append(base, WithHTTPClient(&http.Client{Timeout: cfg.Timeout()}))
	}
	return NewOMDbClient(cfg.APIKey, cfg.BaseURL, append(base, opts...)...)
}

// Name returns the catalog name.
func (c *OMDbClient) Name() string {
	return "OMDb"
}

// Search returns one page of movie titles matching term.
func (c *OMDbClient) Search(ctx context.Context, term string, page int) (*SearchPage, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("%w: search term must not be empty", shared.ErrInvalidInput)
	}
	if page < 1 {
		page = 1
	}

	params := url.Values{}
	params.Set("s", term)
	params.Set("page", strconv.Itoa(page))

	var result omdbSearchResponse
	if err := c.doRequest(ctx, params, &result); err != nil {
		return nil, err
	}

	if result.Response == omdbResponseFalse {
		if err := envelopeError(result.omdbEnvelope); err != nil {
			return nil, err
		}
		return &SearchPage{}, nil
	}

	total, _ := strconv.Atoi(strings.TrimSpace(result.TotalResults))
	movies := make([]models.Movie, 0, len(result.Search))
	for _, m := range result.Search {
		if m.ID != "" {
			movies = append(movies, m)
		}
	}
	return &SearchPage{Movies: movies, Total: total}, nil
}

// Details returns the full record for id with a short plot.
func (c *OMDbClient) Details(ctx context.Context, id string) (*models.Movie, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: movie id must not be empty", shared.ErrInvalidInput)
	}

	params := url.Values{}
	params.Set("i", id)
	params.Set("plot", "short")

	var result omdbDetailResponse
	if err := c.doRequest(ctx, params, &result); err != nil {
		return nil, err
	}

	if result.Response == omdbResponseFalse {
		if err := envelopeError(result.omdbEnvelope); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", shared.ErrMovieNotFound, id)
	}

	movie := result.Movie
	if movie.ID == "" {
		movie.ID = id
	}
	return &movie, nil
}

func (c *OMDbClient) doRequest(ctx context.Context, params url.Values, result any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	params.Set("apikey", c.apiKey)
	params.Set("type", "movie")

	u := *c.baseURL
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var env omdbEnvelope
		if json.Unmarshal(body, &env) == nil && env.Error != "" {
			if err := envelopeError(env); err != nil {
				return err
			}
		}
		return &HTTPStatusError{URL: redact(u), StatusCode: resp.StatusCode, Message: env.Error}
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
	}
	return nil
}

// envelopeError returns the sentinel for credential and quota failures, nil for the
// "no results" family which callers treat as empty.
func envelopeError(env omdbEnvelope) error {
	msg := strings.ToLower(strings.TrimSpace(env.Error))
	switch msg {
	case omdbErrMovieNotFound, omdbErrTooManyResults, omdbErrIncorrectIMDbID:
		return nil
	case omdbErrInvalidAPIKey, omdbErrNoAPIKey:
		return fmt.Errorf("%w: %s", shared.ErrInvalidCredentials, env.Error)
	case omdbErrRequestLimit:
		return fmt.Errorf("%w: %s", shared.ErrRateLimited, env.Error)
	case omdbErrConnectionNotFound:
		return fmt.Errorf("%w: %s", shared.ErrServiceUnavailable, env.Error)
	}
	return nil
}

// redact strips the api key from a URL before it lands in an error message.
func redact(u url.URL) string {
	q := u.Query()
	if q.Has("apikey") {
		q.Set("apikey", "REDACTED")
	}
	u.RawQuery = q.Encode()
	return u.String()
}
