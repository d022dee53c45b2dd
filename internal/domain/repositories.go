package domain

import "context"

// CatalogRepository provides access to a remote anime catalog. All calls are
// fallible and latency-bearing; implementations log transport failures and
// callers surface them as empty results rather than crashing a session.
type CatalogRepository interface {
	// Search returns catalog matches for a free-text query.
	Search(ctx context.Context, query string) ([]*Series, error)

	// Trending returns the currently popular titles.
	Trending(ctx context.Context) ([]*Series, error)

	// RecentReleases returns freshly aired episodes with their series.
	RecentReleases(ctx context.Context) ([]RecentRelease, error)

	// Series returns full metadata for one title. The episode list may be
	// omitted depending on the provider; fetch it with Episodes.
	Series(ctx context.Context, id SeriesID) (*Series, error)

	// Episodes returns the episode list for a series.
	Episodes(ctx context.Context, id SeriesID) ([]Episode, error)

	// Resolve returns the playable stream sources for an episode.
	Resolve(ctx context.Context, ep Episode) (*StreamingLinks, error)
}

// Player is the single addressable video surface a playback session binds
// to. Attach replaces the current media: segmented adaptive streams get a
// transport session, direct assets are addressed with a time offset.
// Position and Duration report the element's clock in seconds.
type Player interface {
	Attach(src StreamSource, referer string, offset float64) error
	Position() float64
	Duration() float64
}

// Presence delivers fire-and-forget status notifications. Implementations
// swallow delivery failures.
type Presence interface {
	Set(a Activity)
	Clear()
}

// NopPresence discards all notifications.
type NopPresence struct{}

func (NopPresence) Set(Activity) {}
func (NopPresence) Clear()       {}
