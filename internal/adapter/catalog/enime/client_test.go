package enime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsuki/internal/adapter"
	"tsuki/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, adapter.NullLogger())
}

func TestSearchMapping(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/frieren", r.URL.Path)
		w.Write([]byte(`{
			"data": [{
				"id": "cltabc",
				"slug": "sousou-no-frieren",
				"anilistId": 154587,
				"title": {"romaji": "Sousou no Frieren", "english": "Frieren: Beyond Journey's End"},
				"coverImage": "https://img.example/poster.jpg",
				"bannerImage": "https://img.example/banner.jpg",
				"status": "FINISHED",
				"year": 2023,
				"averageScore": 91,
				"genre": ["Adventure", "Fantasy"],
				"currentEpisode": 28
			}],
			"meta": {"total": 1, "lastPage": 1, "currentPage": 1, "perPage": 20}
		}`))
	})

	out, err := c.Search(context.Background(), "frieren")
	require.NoError(t, err)
	require.Len(t, out, 1)

	s := out[0]
	assert.Equal(t, domain.SeriesID("cltabc"), s.ID)
	assert.Equal(t, "sousou-no-frieren", s.Slug)
	assert.Equal(t, "154587", s.AnilistID)
	assert.Equal(t, "Sousou no Frieren", s.Title.Display(), "romaji preferred")
	assert.Equal(t, "Frieren: Beyond Journey's End", s.Title.English)
	assert.Equal(t, "https://img.example/banner.jpg", s.Cover)
	assert.InDelta(t, 9.1, s.Rating, 0.001)
	assert.Equal(t, 28, s.TotalEpisodes)
	assert.False(t, s.HasEpisodes())
}

func TestSeriesEpisodeCountCorrection(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"id": "cltabc",
			"title": {"romaji": "Show"},
			"currentEpisode": 2,
			"episodes": [
				{"id": "e1", "number": 1, "sources": [{"id": "src-1", "priority": 1}]},
				{"id": "e2", "number": 2},
				{"id": "e3", "number": 3}
			]
		}`))
	})

	s, err := c.Series(context.Background(), "cltabc")
	require.NoError(t, err)

	assert.Equal(t, 3, s.TotalEpisodes, "episode list outranks the stale counter")
	require.True(t, s.HasEpisodes())
	require.Len(t, s.Episodes[0].Sources, 1)
	assert.Equal(t, "src-1", s.Episodes[0].Sources[0].ID)
}

func TestSeriesNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	_, err := c.Series(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrSeriesNotFound)
}

func TestSeriesEmptyPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	_, err := c.Series(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrSeriesNotFound)
}

func TestResolvePicksHighestPriorityRef(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/source/src-best", r.URL.Path)
		w.Write([]byte(`{
			"id": "src-best",
			"url": "https://cdn.example/stream.m3u8",
			"referer": "https://watch.example",
			"priority": 1
		}`))
	})

	ep := domain.Episode{
		ID: "e1",
		Sources: []domain.SourceRef{
			{ID: "src-worse", Priority: 3},
			{ID: "src-best", Priority: 1},
		},
	}

	links, err := c.Resolve(context.Background(), ep)
	require.NoError(t, err)

	assert.Equal(t, "https://watch.example", links.Referer)
	require.Len(t, links.Sources, 1)
	assert.Equal(t, "https://cdn.example/stream.m3u8", links.Sources[0].URL)
	assert.True(t, links.Sources[0].IsHLS)
}

func TestResolveWithoutRefs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	_, err := c.Resolve(context.Background(), domain.Episode{ID: "e1"})
	assert.ErrorIs(t, err, domain.ErrNoSources)
}

func TestRecentReleases(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/recent", r.URL.Path)
		w.Write([]byte(`{
			"data": [{
				"id": "ep-9",
				"number": 9,
				"title": "The Hero of the West",
				"animeId": "cltabc",
				"anime": {"id": "cltabc", "title": {"romaji": "Sousou no Frieren"}}
			}],
			"meta": {"total": 1}
		}`))
	})

	out, err := c.RecentReleases(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, domain.SeriesID("cltabc"), out[0].Series.ID)
	assert.Equal(t, domain.EpisodeID("ep-9"), out[0].Episode.ID)
	assert.Equal(t, 9, out[0].Episode.Number)
}
