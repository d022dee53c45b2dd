package service

import (
	"context"
	"log/slog"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"tsuki/internal/catalog"
	"tsuki/internal/domain"
)

// Views assembles the home and history screen collections from the progress
// store, the catalog cache and the remote catalog. Fetch failures degrade
// to empty or partial collections; they never propagate as hard errors.
type Views struct {
	store  domain.ProgressStore
	cache  *catalog.Cache
	repo   domain.CatalogRepository
	logger *slog.Logger
}

// NewViews creates a view builder
func NewViews(store domain.ProgressStore, cache *catalog.Cache, repo domain.CatalogRepository, logger *slog.Logger) *Views {
	if logger == nil {
		logger = slog.Default()
	}
	return &Views{store: store, cache: cache, repo: repo, logger: logger}
}

// SeriesCard is one carousel entry: a series plus the episode number to
// badge it with (0 when there is none).
type SeriesCard struct {
	Series        *domain.Series
	EpisodeNumber int
}

// HomeView is the home screen collection set.
type HomeView struct {
	ContinueWatching []SeriesCard
	PlanToWatch      []SeriesCard // plan date descending
	Trending         []*domain.Series
	RecentReleases   []domain.RecentRelease
}

// HistoryEntry summarizes the watch record of one series.
type HistoryEntry struct {
	ID        domain.SeriesID
	Series    *domain.Series // nil when the catalog has nothing for the id
	Title     string
	Cover     string
	Watched   int
	Finished  int
	Total     int
	Completed *domain.CompletedAt
}

// Home builds the home screen view. Series referenced by progress or plan
// records but missing from the cache are fetched and inserted first.
func (v *Views) Home(ctx context.Context) (*HomeView, error) {
	ring := v.store.RecentlyWatched()

	progress, err := v.store.AllProgress()
	if err != nil {
		return nil, err
	}
	progressByID := make(map[domain.SeriesID]*domain.PlaybackProgress, len(progress))
	for _, p := range progress {
		progressByID[p.ID] = p.Progress
	}

	plans, err := v.store.AllPlanToWatch()
	if err != nil {
		return nil, err
	}

	var ids []domain.SeriesID
	for _, r := range ring {
		ids = append(ids, r.ID)
	}
	for _, p := range progress {
		ids = append(ids, p.ID)
	}
	for _, p := range plans {
		ids = append(ids, p.ID)
	}
	v.hydrate(ctx, ids)

	view := &HomeView{}

	for _, entry := range ring {
		series, ok := v.cache.Get(entry.ID)
		if !ok {
			continue // fetch failed; drop from the carousel rather than fail
		}
		card := SeriesCard{Series: series}
		if p, ok := progressByID[entry.ID]; ok {
			if ep, ok := p.Episode(entry.EpisodeID); ok {
				card.EpisodeNumber = ep.EpisodeNumber
			}
		}
		view.ContinueWatching = append(view.ContinueWatching, card)
	}

	sort.Slice(plans, func(i, j int) bool {
		return plans[i].Plan.Date.After(plans[j].Plan.Date)
	})
	for _, plan := range plans {
		series, ok := v.cache.Get(plan.ID)
		if !ok {
			continue
		}
		card := SeriesCard{Series: series}
		if p, ok := progressByID[plan.ID]; ok {
			if latest, ok := p.Latest(); ok {
				card.EpisodeNumber = latest.EpisodeNumber
			}
		}
		view.PlanToWatch = append(view.PlanToWatch, card)
	}

	if trending, err := v.repo.Trending(ctx); err != nil {
		v.logger.Error("trending fetch failed", "error", err)
	} else {
		view.Trending = trending
		for _, s := range trending {
			v.cache.Set(s)
		}
	}

	if releases, err := v.repo.RecentReleases(ctx); err != nil {
		v.logger.Error("recent releases fetch failed", "error", err)
	} else {
		view.RecentReleases = releases
		for _, r := range releases {
			if !v.cache.Has(r.Series.ID) {
				v.cache.Set(r.Series)
			}
		}
	}

	return view, nil
}

// History builds the watch-history view, most recently watched first.
// Catalog metadata falls back to the denormalized copies on the stored meta
// when the catalog has nothing for a series.
func (v *Views) History(ctx context.Context) ([]HistoryEntry, error) {
	progress, err := v.store.AllProgress()
	if err != nil {
		return nil, err
	}

	var ids []domain.SeriesID
	for _, p := range progress {
		ids = append(ids, p.ID)
	}
	v.hydrate(ctx, ids)

	entries := make([]HistoryEntry, 0, len(progress))
	for _, p := range progress {
		entry := HistoryEntry{
			ID:        p.ID,
			Title:     p.Progress.Meta.Title,
			Cover:     p.Progress.Meta.Cover,
			Watched:   len(p.Progress.Episodes),
			Finished:  p.Progress.FinishedCount(),
			Total:     p.Progress.Meta.TotalEpisodes,
			Completed: p.Progress.Meta.Completed,
		}
		if series, ok := v.cache.Get(p.ID); ok {
			entry.Series = series
			entry.Title = series.Title.Display()
			if series.Cover != "" {
				entry.Cover = series.Cover
			}
			if series.TotalEpisodes > entry.Total {
				entry.Total = series.TotalEpisodes
			}
		}
		entries = append(entries, entry)
	}

	lastWatched := func(e HistoryEntry) (t int64) {
		p := progressFor(progress, e.ID)
		if p == nil {
			return 0
		}
		if latest, ok := p.Latest(); ok {
			return latest.Date.UnixNano()
		}
		return 0
	}
	sort.Slice(entries, func(i, j int) bool {
		return lastWatched(entries[i]) > lastWatched(entries[j])
	})

	return entries, nil
}

func progressFor(progress []domain.SeriesProgress, id domain.SeriesID) *domain.PlaybackProgress {
	for _, p := range progress {
		if p.ID == id {
			return p.Progress
		}
	}
	return nil
}

// Filter ranks cached series against a type-ahead query by title.
func (v *Views) Filter(query string) []*domain.Series {
	if query == "" {
		return nil
	}

	all := v.cache.All()
	type ranked struct {
		series *domain.Series
		rank   int
	}
	var matches []ranked
	for _, s := range all {
		best := -1
		for _, title := range []string{s.Title.Romaji, s.Title.English, s.Title.Native} {
			if title == "" {
				continue
			}
			if r := fuzzy.RankMatchNormalizedFold(query, title); r >= 0 && (best < 0 || r < best) {
				best = r
			}
		}
		if best >= 0 {
			matches = append(matches, ranked{series: s, rank: best})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].rank < matches[j].rank })

	out := make([]*domain.Series, len(matches))
	for i, m := range matches {
		out[i] = m.series
	}
	return out
}

// ResumeTarget picks which episode to preselect when a series is opened:
// the stored latest episode, matched by number first and by id scan as a
// fallback, defaulting to the first episode.
func (v *Views) ResumeTarget(series *domain.Series, progress *domain.PlaybackProgress) (domain.Episode, bool) {
	if !series.HasEpisodes() {
		return domain.Episode{}, false
	}
	first := series.Episodes[0]

	if progress == nil || progress.Meta.Latest.ID == "" {
		return first, true
	}
	latestID := progress.Meta.Latest.ID
	latest, ok := progress.Episode(latestID)
	if !ok {
		return first, true
	}

	if idx := latest.EpisodeNumber - 1; idx >= 0 && idx < len(series.Episodes) && series.Episodes[idx].ID == latestID {
		return series.Episodes[idx], true
	}
	if ep, ok := series.EpisodeByID(latestID); ok {
		return ep, true
	}
	return first, true
}

// hydrate fetches and caches any series the cache is missing. Failures are
// logged and skipped so one dead catalog entry cannot block a view.
func (v *Views) hydrate(ctx context.Context, ids []domain.SeriesID) {
	seen := make(map[domain.SeriesID]bool, len(ids))
	for _, id := range ids {
		if seen[id] || v.cache.Has(id) {
			continue
		}
		seen[id] = true

		series, err := v.repo.Series(ctx, id)
		if err != nil {
			v.logger.Error("series hydration failed", "error", err, "series", id)
			continue
		}
		v.cache.Set(series)
	}
}
