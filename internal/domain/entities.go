package domain

import (
	"fmt"
	"strings"
	"time"
)

// SeriesID identifies an anime title within a single catalog provider.
// IDs from different providers are never interchangeable.
type SeriesID string

// EpisodeID identifies one episode within a single catalog provider.
type EpisodeID string

// Title holds the localized title variants a catalog returns.
type Title struct {
	Romaji  string `json:"romaji"`
	English string `json:"english"`
	Native  string `json:"native"`
}

// Display returns the preferred display form (romaji, falling back to
// english, then native).
func (t Title) Display() string {
	if t.Romaji != "" {
		return t.Romaji
	}
	if t.English != "" {
		return t.English
	}
	return t.Native
}

// SourceRef points at a provider-side stream source for an episode.
// Some providers resolve playback through a separate source endpoint;
// the ref carries what that endpoint needs.
type SourceRef struct {
	ID       string `json:"id"`
	Priority int    `json:"priority"`
}

// Episode is one installment of a series.
type Episode struct {
	ID          EpisodeID   `json:"id"`
	Number      int         `json:"number"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Image       string      `json:"image,omitempty"`
	Sources     []SourceRef `json:"sources,omitempty"`
}

// DisplayTitle returns the episode title, or "Episode N" when the catalog
// has no title for it.
func (e Episode) DisplayTitle() string {
	if strings.TrimSpace(e.Title) != "" {
		return e.Title
	}
	return fmt.Sprintf("Episode %d", e.Number)
}

// Series is the catalog metadata payload for one title. Episodes may be
// absent until the episode list is fetched; the catalog cache upgrades the
// same value in place when it arrives.
type Series struct {
	ID            SeriesID  `json:"id"`
	Slug          string    `json:"slug,omitempty"`
	AnilistID     string    `json:"anilistId,omitempty"`
	Title         Title     `json:"title"`
	Image         string    `json:"image"` // poster
	Cover         string    `json:"cover"` // wide banner art
	Description   string    `json:"description,omitempty"`
	Status        string    `json:"status,omitempty"`
	Year          int       `json:"year,omitempty"`
	Genres        []string  `json:"genres,omitempty"`
	Rating        float64   `json:"rating,omitempty"`
	TotalEpisodes int       `json:"totalEpisodes"`
	Episodes      []Episode `json:"episodes,omitempty"`
}

// HasEpisodes reports whether the episode list has been populated.
func (s *Series) HasEpisodes() bool {
	return len(s.Episodes) > 0
}

// EpisodeByID scans the episode list for the given id.
func (s *Series) EpisodeByID(id EpisodeID) (Episode, bool) {
	for _, ep := range s.Episodes {
		if ep.ID == id {
			return ep, true
		}
	}
	return Episode{}, false
}

// RecentRelease is one entry of the recent-releases feed: a freshly aired
// episode together with its series.
type RecentRelease struct {
	Series  *Series
	Episode Episode
}

// StreamSource is one playable variant of an episode.
type StreamSource struct {
	URL     string
	Quality string
	IsHLS   bool
}

// Quality tags the upstream providers emit. "default" and "backup" are
// provider fallbacks, not user-selectable qualities.
const (
	Quality360  = "360p"
	Quality720  = "720p"
	Quality1080 = "1080p"

	qualityDefault = "default"
	qualityBackup  = "backup"
)

// StreamingLinks is the resolved set of sources for one episode.
type StreamingLinks struct {
	Referer string
	Sources []StreamSource
}

// Pick selects the source matching the preferred quality tag, falling back
// to the first source when no variant carries that tag.
func (l *StreamingLinks) Pick(quality string) (StreamSource, bool) {
	if len(l.Sources) == 0 {
		return StreamSource{}, false
	}
	for _, src := range l.Sources {
		if src.Quality == quality {
			return src, true
		}
	}
	return l.Sources[0], true
}

// SelectableQualities returns the quality tags a user can switch between,
// excluding provider-internal fallback variants.
func (l *StreamingLinks) SelectableQualities() []string {
	out := make([]string, 0, len(l.Sources))
	for _, src := range l.Sources {
		if src.Quality == qualityDefault || src.Quality == qualityBackup {
			continue
		}
		out = append(out, src.Quality)
	}
	return out
}

// Activity is a presence/status notification payload. Failures to deliver
// it are ignored by design.
type Activity struct {
	Title    string // series title
	Episode  string // episode line
	Playing  bool
	Progress float64 // elapsed seconds
	Duration float64 // total seconds
	Image    string  // artwork URL
}

// Remaining returns the remaining playback time in seconds, clamped at 0.
func (a Activity) Remaining() float64 {
	if r := a.Duration - a.Progress; r > 0 {
		return r
	}
	return 0
}

// Timestamp converts an offset in seconds relative to now into a
// unix-millisecond presence timestamp.
func (a Activity) Timestamp(now time.Time, offset float64) int64 {
	return now.UnixMilli() + int64(offset*1000)
}
