package enime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"tsuki/internal/domain"
)

const defaultTimeout = 60 * time.Second

// Client implements domain.CatalogRepository against the Enime REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new Enime API client
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// getJSON performs a GET request and decodes the JSON response into dest
func (c *Client) getJSON(ctx context.Context, path string, dest interface{}) error {
	reqURL := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("enime request", "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("enime request failed", "error", err, "url", reqURL)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrSeriesNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) Search(ctx context.Context, query string) ([]*domain.Series, error) {
	var resp SearchResponse
	if err := c.getJSON(ctx, "/search/"+url.PathEscape(query), &resp); err != nil {
		return nil, err
	}

	out := make([]*domain.Series, 0, len(resp.Data))
	for _, a := range resp.Data {
		out = append(out, mapSeries(a))
	}
	return out, nil
}

func (c *Client) Trending(ctx context.Context) ([]*domain.Series, error) {
	var resp SearchResponse
	if err := c.getJSON(ctx, "/popular", &resp); err != nil {
		return nil, err
	}

	out := make([]*domain.Series, 0, len(resp.Data))
	for _, a := range resp.Data {
		out = append(out, mapSeries(a))
	}
	return out, nil
}

func (c *Client) RecentReleases(ctx context.Context) ([]domain.RecentRelease, error) {
	var resp RecentResponse
	if err := c.getJSON(ctx, "/recent", &resp); err != nil {
		return nil, err
	}

	out := make([]domain.RecentRelease, 0, len(resp.Data))
	for _, r := range resp.Data {
		out = append(out, domain.RecentRelease{
			Series:  mapSeries(r.Anime),
			Episode: mapEpisode(r.Episode),
		})
	}
	return out, nil
}

func (c *Client) Series(ctx context.Context, id domain.SeriesID) (*domain.Series, error) {
	var a Anime
	if err := c.getJSON(ctx, "/anime/"+url.PathEscape(string(id)), &a); err != nil {
		return nil, err
	}
	if a.ID == "" {
		return nil, domain.ErrSeriesNotFound
	}
	return mapSeries(a), nil
}

func (c *Client) Episodes(ctx context.Context, id domain.SeriesID) ([]domain.Episode, error) {
	var eps []Episode
	if err := c.getJSON(ctx, "/anime/"+url.PathEscape(string(id))+"/episodes", &eps); err != nil {
		return nil, err
	}
	return mapEpisodes(eps), nil
}

// Resolve picks the highest-priority source ref the episode carries and
// resolves it to a playable URL.
func (c *Client) Resolve(ctx context.Context, ep domain.Episode) (*domain.StreamingLinks, error) {
	if len(ep.Sources) == 0 {
		return nil, domain.ErrNoSources
	}

	refs := make([]domain.SourceRef, len(ep.Sources))
	copy(refs, ep.Sources)
	sort.Slice(refs, func(i, j int) bool { return refs[i].Priority < refs[j].Priority })

	var resolved ResolvedSource
	if err := c.getJSON(ctx, "/source/"+url.PathEscape(refs[0].ID), &resolved); err != nil {
		return nil, err
	}
	if resolved.URL == "" {
		return nil, domain.ErrNoSources
	}
	return mapResolvedSource(resolved), nil
}
