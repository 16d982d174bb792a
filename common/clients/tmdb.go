package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cineloop/cineloop/common/cache"
	"github.com/cineloop/cineloop/common/config"
	"github.com/cineloop/cineloop/common/models"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// ErrMovieNotFound signals that TMDb has no usable match for a title.
// Distinct from transport failures: callers tell the user to try another
// title rather than to retry later.
var ErrMovieNotFound = errors.New("movie not found")

// Logger interface for TMDb client logging
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
}

// TMDBClient resolves free-text movie titles against the TMDb search API
// and normalizes the first-ranked result into a CandidateMovie.
type TMDBClient struct {
	httpClient   *http.Client
	limiter      *rate.Limiter
	cache        cache.Cache
	logger       Logger
	apiKey       string
	baseURL      string
	cacheTTL     time.Duration
	includeAdult bool
}

// NewTMDBClient creates a new TMDb client. The cache is optional; pass nil
// to disable response caching.
func NewTMDBClient(cfg *config.Config, c cache.Cache, logger Logger) *TMDBClient {
	return &TMDBClient{
		httpClient: &http.Client{
			Timeout: cfg.TMDB.Timeout,
		},
		limiter:      rate.NewLimiter(rate.Every(cfg.TMDB.RateEvery), cfg.TMDB.RateBurst),
		cache:        c,
		logger:       logger,
		apiKey:       cfg.TMDB.APIKey,
		baseURL:      strings.TrimSuffix(cfg.TMDB.BaseURL, "/"),
		cacheTTL:     cfg.TMDB.CacheTTL,
		includeAdult: cfg.TMDB.IncludeAdult,
	}
}

// SearchMovie resolves a raw title to the first-ranked TMDb match.
// Returns ErrMovieNotFound for empty input, zero results, or a result
// missing its id or title. Any other error is a transport failure.
func (c *TMDBClient) SearchMovie(ctx context.Context, rawTitle string) (*models.CandidateMovie, error) {
	title := strings.TrimSpace(rawTitle)
	if title == "" {
		return nil, ErrMovieNotFound
	}

	cacheKey := "tmdb:search:" + strings.ToLower(title)

	if c.cache != nil {
		if cached, found, err := c.cache.Get(ctx, cacheKey); err == nil && found {
			var movie models.CandidateMovie
			if err := json.Unmarshal(cached, &movie); err == nil {
				c.logger.Debug("tmdb cache hit", "title", title)
				return &movie, nil
			}
			// Unreadable cache entry: fall through to a fresh lookup
			c.logger.Warn("dropping corrupt tmdb cache entry", "key", cacheKey)
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("tmdb rate limiter: %w", err)
	}

	body, err := c.search(ctx, title)
	if err != nil {
		return nil, err
	}

	movie, err := parseSearchResponse(body)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if data, err := json.Marshal(movie); err == nil {
			if err := c.cache.Set(ctx, cacheKey, data, c.cacheTTL); err != nil {
				c.logger.Warn("failed to cache tmdb response", "key", cacheKey, "error", err)
			}
		}
	}

	c.logger.Debug("tmdb search resolved",
		"query", title,
		"tmdb_id", movie.TMDBID,
		"title", movie.Title,
	)

	return movie, nil
}

// search performs the HTTP round trip and returns the raw response body
func (c *TMDBClient) search(ctx context.Context, title string) ([]byte, error) {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("query", title)
	params.Set("language", "en-US")
	params.Set("page", "1")
	params.Set("include_adult", fmt.Sprintf("%t", c.includeAdult))

	searchURL := fmt.Sprintf("%s/search/movie?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build tmdb request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tmdb request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tmdb responded with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read tmdb response: %w", err)
	}

	return body, nil
}

// parseSearchResponse picks the first-ranked result and normalizes it.
// A result missing id or title is unusable and reported as not found.
func parseSearchResponse(body []byte) (*models.CandidateMovie, error) {
	results := gjson.GetBytes(body, "results")
	if !results.Exists() || len(results.Array()) == 0 {
		return nil, ErrMovieNotFound
	}

	first := results.Array()[0]
	id := first.Get("id").Int()
	title := first.Get("title").String()
	if id == 0 || title == "" {
		return nil, ErrMovieNotFound
	}

	movie := &models.CandidateMovie{
		TMDBID:      id,
		Title:       title,
		Rating:      clampRating(first.Get("vote_average").Float()),
		ReleaseDate: first.Get("release_date").String(),
	}

	if poster := first.Get("poster_path").String(); poster != "" {
		movie.PosterPath = &poster
	}

	return movie, nil
}

func clampRating(rating float64) float64 {
	if rating < 0 {
		return 0
	}
	if rating > 10 {
		return 10
	}
	return rating
}
