package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsuki/internal/domain"
)

func newTestStore(t *testing.T) *ProgressStore {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func commit(series, episode string, number int, at, duration float64) domain.Commit {
	return domain.Commit{
		Series:        domain.SeriesID(series),
		Episode:       domain.EpisodeID(episode),
		EpisodeNumber: number,
		Time:          at,
		Duration:      duration,
	}
}

func TestCommitProgressRoundTrip(t *testing.T) {
	s := newTestStore(t)

	rec, err := s.CommitProgress(commit("series-1", "ep-3", 3, 421.5, 1440))
	require.NoError(t, err)
	require.NotNil(t, rec)

	got, ok := s.Progress("series-1")
	require.True(t, ok)
	assert.Equal(t, domain.EpisodeID("ep-3"), got.Meta.Latest.ID)

	ep, ok := got.Episode("ep-3")
	require.True(t, ok)
	assert.Equal(t, 421.5, ep.LastTime)
	assert.Equal(t, 3, ep.EpisodeNumber)
	assert.False(t, ep.Finished)
}

func TestCommitProgressZeroTimeIsNoOp(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CommitProgress(commit("series-1", "ep-1", 1, 100, 1440))
	require.NoError(t, err)
	before, ok := s.Progress("series-1")
	require.True(t, ok)

	for _, at := range []float64{0, -5} {
		rec, err := s.CommitProgress(commit("series-1", "ep-2", 2, at, 1440))
		require.NoError(t, err)
		assert.Nil(t, rec)
	}

	after, ok := s.Progress("series-1")
	require.True(t, ok)
	assert.Equal(t, before, after)
	assert.Equal(t, domain.EpisodeID("ep-1"), after.Meta.Latest.ID)
}

func TestCommitProgressMergesEpisodes(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CommitProgress(commit("s", "e1", 1, 1400, 1440))
	require.NoError(t, err)
	rec, err := s.CommitProgress(commit("s", "e2", 2, 30, 1440))
	require.NoError(t, err)

	assert.Len(t, rec.Episodes, 2)
	assert.Equal(t, domain.EpisodeID("e2"), rec.Meta.Latest.ID)

	e1, ok := rec.Episode("e1")
	require.True(t, ok)
	assert.True(t, e1.Finished)
}

func TestFinishedThresholdBoundary(t *testing.T) {
	s := newTestStore(t)

	// Exactly duration-60 counts as finished.
	rec, err := s.CommitProgress(commit("s", "e1", 1, 1140, 1200))
	require.NoError(t, err)
	ep, _ := rec.Episode("e1")
	assert.True(t, ep.Finished)

	// Just inside the episode body does not.
	rec, err = s.CommitProgress(commit("s", "e2", 2, 1139.5, 1200))
	require.NoError(t, err)
	ep, _ = rec.Episode("e2")
	assert.False(t, ep.Finished)
}

func TestCompletedLatch(t *testing.T) {
	s := newTestStore(t)

	c := commit("A1", "E1", 1, 1150, 1200)
	c.TotalEpisodes = 1

	rec, err := s.CommitProgress(c)
	require.NoError(t, err)
	ep, _ := rec.Episode("E1")
	assert.True(t, ep.Finished)
	require.NotNil(t, rec.Meta.Completed)
	first := rec.Meta.Completed.Date

	time.Sleep(10 * time.Millisecond)

	c.Time = 1190
	rec, err = s.CommitProgress(c)
	require.NoError(t, err)
	require.NotNil(t, rec.Meta.Completed)
	assert.True(t, rec.Meta.Completed.Date.Equal(first), "completed date must never move")
}

func TestCompletedRequiresFinalEpisode(t *testing.T) {
	s := newTestStore(t)

	c := commit("s", "e11", 11, 1190, 1200)
	c.TotalEpisodes = 12
	rec, err := s.CommitProgress(c)
	require.NoError(t, err)
	assert.Nil(t, rec.Meta.Completed)

	// Unknown totals never complete.
	rec, err = s.CommitProgress(commit("s2", "e1", 1, 1190, 1200))
	require.NoError(t, err)
	assert.Nil(t, rec.Meta.Completed)
}

func TestRecentlyWatchedRingCapacity(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 14; i++ {
		_, err := s.CommitProgress(commit(fmt.Sprintf("series-%02d", i), fmt.Sprintf("ep-%02d", i), 1, 200, 1440))
		require.NoError(t, err)
	}

	ring := s.RecentlyWatched()
	require.Len(t, ring, 10)

	// Most recent first: series-13 down to series-04.
	for i, entry := range ring {
		assert.Equal(t, domain.SeriesID(fmt.Sprintf("series-%02d", 13-i)), entry.ID)
	}
}

func TestRecentlyWatchedRingDedupes(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 10; i++ {
		_, err := s.CommitProgress(commit(fmt.Sprintf("series-%d", i), "ep", 1, 200, 1440))
		require.NoError(t, err)
	}
	require.Len(t, s.RecentlyWatched(), 10)

	// series-4 sits at position 5 (ring is most-recent-first). Watching it
	// again moves it to the front without growing the ring.
	_, err := s.CommitProgress(commit("series-4", "ep-2", 2, 200, 1440))
	require.NoError(t, err)

	ring := s.RecentlyWatched()
	require.Len(t, ring, 10)
	assert.Equal(t, domain.SeriesID("series-4"), ring[0].ID)
	assert.Equal(t, domain.EpisodeID("ep-2"), ring[0].EpisodeID)

	seen := map[domain.SeriesID]bool{}
	for _, entry := range ring {
		assert.False(t, seen[entry.ID], "duplicate series in ring")
		seen[entry.ID] = true
	}
}

func TestRecentlyWatchedDefaultsEmpty(t *testing.T) {
	s := newTestStore(t)
	assert.Empty(t, s.RecentlyWatched())
}

func TestCommitRemovesPlanToWatch(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SetPlanToWatch("series-1", &domain.PlanToWatch{Date: time.Now().UTC(), Title: "Given"}))
	_, ok := s.PlanToWatch("series-1")
	require.True(t, ok)

	_, err := s.CommitProgress(commit("series-1", "ep-1", 1, 90, 1440))
	require.NoError(t, err)

	_, ok = s.PlanToWatch("series-1")
	assert.False(t, ok, "watching un-plans the series")
}

func TestSetPlanToWatch(t *testing.T) {
	s := newTestStore(t)

	plan := &domain.PlanToWatch{Date: time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC), Title: "Mushishi", TotalEpisodes: 26}
	require.NoError(t, s.SetPlanToWatch("s1", plan))
	require.NoError(t, s.SetPlanToWatch("s2", &domain.PlanToWatch{Date: time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)}))

	got, ok := s.PlanToWatch("s1")
	require.True(t, ok)
	assert.Equal(t, "Mushishi", got.Title)

	all, err := s.AllPlanToWatch()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// nil removes
	require.NoError(t, s.SetPlanToWatch("s1", nil))
	_, ok = s.PlanToWatch("s1")
	assert.False(t, ok)
}

func TestCommitDenormalizesSeriesMeta(t *testing.T) {
	s := newTestStore(t)

	c := commit("s", "e1", 1, 300, 1440)
	c.Title = "Sousou no Frieren"
	c.Cover = "https://img.example/frieren.jpg"
	c.TotalEpisodes = 28

	rec, err := s.CommitProgress(c)
	require.NoError(t, err)
	assert.Equal(t, "Sousou no Frieren", rec.Meta.Title)
	assert.Equal(t, 28, rec.Meta.TotalEpisodes)

	// A later commit without metadata keeps the stored copies.
	rec, err = s.CommitProgress(commit("s", "e2", 2, 300, 1440))
	require.NoError(t, err)
	assert.Equal(t, "Sousou no Frieren", rec.Meta.Title)
	assert.Equal(t, "https://img.example/frieren.jpg", rec.Meta.Cover)
}

func TestAllProgressSkipsLegacyRingKey(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CommitProgress(commit("series-1", "ep-1", 1, 100, 1440))
	require.NoError(t, err)

	// Simulate a pre-split database where the ring shared the progress
	// namespace under the literal key "recent".
	require.NoError(t, s.set(bucketProgress, legacyRingKey, []domain.RecentlyWatched{{ID: "series-1", EpisodeID: "ep-1"}}))

	all, err := s.AllProgress()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, domain.SeriesID("series-1"), all[0].ID)
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := New(dir)
	require.NoError(t, err)
	_, err = s.CommitProgress(commit("series-1", "ep-2", 2, 640, 1440))
	require.NoError(t, err)
	require.NoError(t, s.SetPlanToWatch("series-9", &domain.PlanToWatch{Date: time.Now().UTC()}))
	require.NoError(t, s.Close())

	s, err = New(dir)
	require.NoError(t, err)
	defer s.Close()

	got, ok := s.Progress("series-1")
	require.True(t, ok)
	ep, ok := got.Episode("ep-2")
	require.True(t, ok)
	assert.Equal(t, 640.0, ep.LastTime)

	require.Len(t, s.RecentlyWatched(), 1)
	_, ok = s.PlanToWatch("series-9")
	assert.True(t, ok)
}

func TestMemoryOnlyMode(t *testing.T) {
	s, err := New("")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SetPlanToWatch("s1", &domain.PlanToWatch{Date: time.Now().UTC()}))

	rec, err := s.CommitProgress(commit("s1", "e1", 1, 50, 1440))
	require.NoError(t, err)
	require.NotNil(t, rec)

	got, ok := s.Progress("s1")
	require.True(t, ok)
	assert.Equal(t, domain.EpisodeID("e1"), got.Meta.Latest.ID)

	_, ok = s.PlanToWatch("s1")
	assert.False(t, ok)

	all, err := s.AllProgress()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.Len(t, s.RecentlyWatched(), 1)
}
