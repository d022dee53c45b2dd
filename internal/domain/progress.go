package domain

import "time"

// FinishedThresholdSeconds is the tolerance applied when deciding whether a
// stop position counts as having finished the episode. Stopping within this
// many seconds of the end (credits, outro) still marks the episode finished.
const FinishedThresholdSeconds = 60.0

// EpisodeProgress records the last observed playback state of one episode.
type EpisodeProgress struct {
	Finished      bool      `json:"finished"`
	LastTime      float64   `json:"lastTime"` // seconds
	EpisodeNumber int       `json:"episodeNumber"`
	Date          time.Time `json:"date"`
}

// LatestEpisode points at the most recently stopped episode of a series.
type LatestEpisode struct {
	ID EpisodeID `json:"id"`
}

// CompletedAt records when the final episode of a series was finished.
// Once set it is never cleared or overwritten.
type CompletedAt struct {
	Date time.Time `json:"date"`
}

// SeriesMeta is the series-level derived state kept alongside per-episode
// progress. Title, Cover and TotalEpisodes are denormalized copies of
// catalog metadata so history views can render without a catalog fetch;
// they are optional and readers must tolerate their absence.
type SeriesMeta struct {
	Latest        LatestEpisode `json:"latest"`
	Completed     *CompletedAt  `json:"completed,omitempty"`
	Title         string        `json:"title,omitempty"`
	Cover         string        `json:"cover,omitempty"`
	TotalEpisodes int           `json:"totalEpisodes,omitempty"`
}

// PlaybackProgress is the full per-series watch record.
type PlaybackProgress struct {
	Episodes map[EpisodeID]EpisodeProgress `json:"episodes"`
	Meta     SeriesMeta                    `json:"meta"`
}

// Episode returns the progress entry for one episode, if present.
func (p *PlaybackProgress) Episode(id EpisodeID) (EpisodeProgress, bool) {
	ep, ok := p.Episodes[id]
	return ep, ok
}

// Latest returns the progress entry the latest pointer refers to.
func (p *PlaybackProgress) Latest() (EpisodeProgress, bool) {
	if p.Meta.Latest.ID == "" {
		return EpisodeProgress{}, false
	}
	return p.Episode(p.Meta.Latest.ID)
}

// FinishedCount returns how many distinct episodes are marked finished.
func (p *PlaybackProgress) FinishedCount() int {
	n := 0
	for _, ep := range p.Episodes {
		if ep.Finished {
			n++
		}
	}
	return n
}

// RecentlyWatched is one entry of the most-recent-first watch ring.
type RecentlyWatched struct {
	ID        SeriesID  `json:"id"`
	EpisodeID EpisodeID `json:"episodeId"`
}

// PlanToWatch marks a series as queued. Presence of the record is the
// queued state; committing any playback progress for the series removes it.
type PlanToWatch struct {
	Date          time.Time `json:"date"`
	Title         string    `json:"title,omitempty"`
	Cover         string    `json:"cover,omitempty"`
	TotalEpisodes int       `json:"totalEpisodes,omitempty"`
}

// SeriesProgress pairs a series id with its stored watch record, for
// enumeration.
type SeriesProgress struct {
	ID       SeriesID
	Progress *PlaybackProgress
}

// PlanEntry pairs a series id with its plan-to-watch record.
type PlanEntry struct {
	ID   SeriesID
	Plan PlanToWatch
}
