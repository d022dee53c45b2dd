package consumet

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"tsuki/internal/domain"
)

const (
	defaultTimeout = 60 * time.Second
	pageSize       = 20
)

// Client implements domain.CatalogRepository against the Consumet AniList
// meta provider.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new Consumet API client. baseURL addresses the
// meta/anilist route, e.g. "https://api.consumet.org/meta/anilist".
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

func (c *Client) getJSON(ctx context.Context, path string, dest interface{}) error {
	reqURL := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("consumet request", "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("consumet request failed", "error", err, "url", reqURL)
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
	path := fmt.Sprintf("/%s?perPage=%d", url.PathEscape(query), pageSize)
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}

	out := make([]*domain.Series, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, mapResult(r))
	}
	return out, nil
}

func (c *Client) Trending(ctx context.Context) ([]*domain.Series, error) {
	var resp SearchResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/trending?perPage=%d", pageSize), &resp); err != nil {
		return nil, err
	}

	out := make([]*domain.Series, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, mapResult(r))
	}
	return out, nil
}

func (c *Client) RecentReleases(ctx context.Context) ([]domain.RecentRelease, error) {
	var resp RecentResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/recent-episodes?perPage=%d", pageSize), &resp); err != nil {
		return nil, err
	}

	out := make([]domain.RecentRelease, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, domain.RecentRelease{
			Series: &domain.Series{
				ID:        domain.SeriesID(r.ID),
				AnilistID: r.ID,
				Title:     domain.Title(r.Title),
				Image:     r.Image,
			},
			Episode: domain.Episode{
				ID:     domain.EpisodeID(r.EpisodeID),
				Number: r.EpisodeNumber,
				Title:  r.EpisodeTitle,
			},
		})
	}
	return out, nil
}

// Series returns the detail payload. Consumet delivers the episode list
// inline, so no separate upgrade fetch is needed for this provider.
func (c *Client) Series(ctx context.Context, id domain.SeriesID) (*domain.Series, error) {
	var info Info
	if err := c.getJSON(ctx, "/info/"+url.PathEscape(string(id)), &info); err != nil {
		return nil, err
	}
	if info.ID == "" {
		return nil, domain.ErrSeriesNotFound
	}
	return mapInfo(info), nil
}

func (c *Client) Episodes(ctx context.Context, id domain.SeriesID) ([]domain.Episode, error) {
	series, err := c.Series(ctx, id)
	if err != nil {
		return nil, err
	}
	return series.Episodes, nil
}

func (c *Client) Resolve(ctx context.Context, ep domain.Episode) (*domain.StreamingLinks, error) {
	var resp WatchResponse
	if err := c.getJSON(ctx, "/watch/"+url.PathEscape(string(ep.ID)), &resp); err != nil {
		return nil, err
	}
	if len(resp.Sources) == 0 {
		return nil, domain.ErrNoSources
	}
	return mapWatch(resp), nil
}
