package domain

// Commit carries one playback observation into the progress store.
type Commit struct {
	Series        SeriesID
	Episode       EpisodeID
	EpisodeNumber int
	Time          float64 // observed playback position, seconds
	Duration      float64 // total episode duration, seconds

	// Denormalized series metadata recorded on the meta key so history
	// views can render without the catalog. All optional.
	Title         string
	Cover         string
	TotalEpisodes int
}

// Finished reports whether this observation counts as having finished the
// episode, applying the end-of-episode tolerance.
func (c Commit) Finished() bool {
	return c.Duration > 0 && c.Time >= c.Duration-FinishedThresholdSeconds
}

// ProgressStore is the durable watch-history store. Reads follow the local
// cache convention of (value, ok); writes return errors.
//
// CommitProgress applies the whole logical commit atomically: the episode
// entry upsert, the latest pointer, the completed latch, the
// recently-watched ring rewrite and the plan-to-watch removal either all
// become visible together or not at all. A commit with Time <= 0 is a
// silent no-op returning (nil, nil).
type ProgressStore interface {
	Progress(id SeriesID) (*PlaybackProgress, bool)
	AllProgress() ([]SeriesProgress, error)

	RecentlyWatched() []RecentlyWatched

	PlanToWatch(id SeriesID) (*PlanToWatch, bool)
	AllPlanToWatch() ([]PlanEntry, error)
	// SetPlanToWatch upserts the plan entry; a nil plan removes it.
	SetPlanToWatch(id SeriesID, plan *PlanToWatch) error

	CommitProgress(c Commit) (*PlaybackProgress, error)

	Close() error
}
