package service

import (
	"context"
	"fmt"
	"log/slog"

	"tsuki/internal/domain"
)

// SessionState is the lifecycle state of one playback session.
type SessionState int

const (
	StateIdle SessionState = iota
	StateResolving
	StatePlaying
	StatePaused
	StateStopped
	StateError
)

// String returns a human-readable representation of the state
func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateResolving:
		return "Resolving"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	case StateStopped:
		return "Stopped"
	case StateError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Controller owns the single active playback session. Starting a new
// session tears the previous one down first, so per-series commits are
// naturally serialized.
type Controller struct {
	store    domain.ProgressStore
	repo     domain.CatalogRepository
	presence domain.Presence
	quality  string
	logger   *slog.Logger

	active *Session
}

// NewController creates a playback controller
func NewController(
	store domain.ProgressStore,
	repo domain.CatalogRepository,
	presence domain.Presence,
	preferredQuality string,
	logger *slog.Logger,
) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if presence == nil {
		presence = domain.NopPresence{}
	}
	return &Controller{
		store:    store,
		repo:     repo,
		presence: presence,
		quality:  preferredQuality,
		logger:   logger,
	}
}

// Active returns the current session, nil when none is bound.
func (c *Controller) Active() *Session {
	return c.active
}

// Start binds a new session for (series, episode) to the given player. Any
// previous session is stopped (committing its progress) first. A source
// resolution failure leaves the returned session in the Error state, from
// which Retry can re-enter resolution; the error is returned alongside it.
func (c *Controller) Start(ctx context.Context, series *domain.Series, ep domain.Episode, player domain.Player) (*Session, error) {
	if prev := c.active; prev != nil {
		if err := prev.Stop(); err != nil {
			c.logger.Error("failed to commit previous session", "error", err, "series", prev.series.ID)
		}
	}

	s := &Session{
		series:   series,
		episode:  ep,
		player:   player,
		store:    c.store,
		repo:     c.repo,
		presence: c.presence,
		quality:  c.quality,
		logger:   c.logger,
		state:    StateIdle,
	}

	// Seed the resume offset and the in-memory progress view from the
	// stored record, when there is one.
	if prior, ok := c.store.Progress(series.ID); ok {
		s.progress = prior
		if epProgress, ok := prior.Episode(ep.ID); ok {
			s.resumeFrom = epProgress.LastTime
		}
	}

	c.active = s
	return s, s.resolve(ctx)
}

// Shutdown commits the active session, waiting no longer than the context
// allows. On timeout the commit keeps running but shutdown proceeds; at
// most one session's progress is at risk.
func (c *Controller) Shutdown(ctx context.Context) error {
	s := c.active
	if s == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- s.Stop() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		c.logger.Warn("shutdown proceeding before commit finished", "series", s.series.ID)
		return ctx.Err()
	}
}

// Session is one (series, episode) binding to a player instance.
type Session struct {
	series   *domain.Series
	episode  domain.Episode
	player   domain.Player
	store    domain.ProgressStore
	repo     domain.CatalogRepository
	presence domain.Presence
	logger   *slog.Logger

	state      SessionState
	quality    string
	links      *domain.StreamingLinks
	resumeFrom float64
	committed  bool

	// progress mirrors the stored record; refreshed from the commit
	// result so readers never need a store round-trip.
	progress *domain.PlaybackProgress
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState { return s.state }

// Episode returns the bound episode.
func (s *Session) Episode() domain.Episode { return s.episode }

// Progress returns the in-memory view of the series watch record. May be
// nil for a series never committed.
func (s *Session) Progress() *domain.PlaybackProgress { return s.progress }

// ResumeOffset returns the position playback was seeded at, in seconds.
func (s *Session) ResumeOffset() float64 { return s.resumeFrom }

// resolve fetches stream sources and attaches the player at the resume
// offset. On failure the session parks in the Error state.
func (s *Session) resolve(ctx context.Context) error {
	s.state = StateResolving

	links, err := s.repo.Resolve(ctx, s.episode)
	if err != nil {
		s.state = StateError
		s.logger.Error("source resolution failed", "error", err, "episode", s.episode.ID)
		return fmt.Errorf("resolving episode %s: %w", s.episode.ID, err)
	}
	if len(links.Sources) == 0 {
		s.state = StateError
		return fmt.Errorf("resolving episode %s: %w", s.episode.ID, domain.ErrNoSources)
	}
	s.links = links

	if err := s.attach(s.resumeFrom); err != nil {
		s.state = StateError
		return err
	}

	s.logger.Info("playback started",
		"series", s.series.ID, "episode", s.episode.ID, "offset", s.resumeFrom)
	s.state = StatePlaying
	s.announce(true)
	return nil
}

func (s *Session) attach(offset float64) error {
	src, ok := s.links.Pick(s.quality)
	if !ok {
		return domain.ErrNoSources
	}
	if err := s.player.Attach(src, s.links.Referer, offset); err != nil {
		s.logger.Error("player attach failed", "error", err, "url", src.URL)
		return fmt.Errorf("attaching media: %w", err)
	}
	return nil
}

// Retry re-enters source resolution after a failure. Only valid from the
// Error state.
func (s *Session) Retry(ctx context.Context) error {
	if s.state == StateStopped {
		return domain.ErrSessionStopped
	}
	if s.state != StateError {
		return domain.ErrNotResolving
	}
	return s.resolve(ctx)
}

// Pause marks playback paused and reissues presence without timestamps.
func (s *Session) Pause() {
	if s.state != StatePlaying {
		return
	}
	s.state = StatePaused
	s.announce(false)
}

// Resume marks playback running again and reissues presence.
func (s *Session) Resume() {
	if s.state != StatePaused {
		return
	}
	s.state = StatePlaying
	s.announce(true)
}

// Qualities lists the user-selectable quality tags of the resolved sources.
func (s *Session) Qualities() []string {
	if s.links == nil {
		return nil
	}
	return s.links.SelectableQualities()
}

// SetQuality switches the stream variant, re-attaching the player at the
// current position.
func (s *Session) SetQuality(quality string) error {
	if s.state == StateStopped {
		return domain.ErrSessionStopped
	}
	s.quality = quality
	if s.links == nil {
		return nil // applied when resolution succeeds
	}
	return s.attach(s.player.Position())
}

// Stop tears the session down: exactly once, regardless of which exit path
// triggered it, it clears presence and commits the last observed position.
// A commit skipped by the zero-time guard leaves the progress view alone; a
// persistence failure loses this session's progress and nothing else.
func (s *Session) Stop() error {
	if s.committed {
		return nil
	}
	s.committed = true
	s.state = StateStopped

	s.presence.Clear()

	cover := s.series.Cover
	if cover == "" {
		cover = s.series.Image
	}

	rec, err := s.store.CommitProgress(domain.Commit{
		Series:        s.series.ID,
		Episode:       s.episode.ID,
		EpisodeNumber: s.episode.Number,
		Time:          s.player.Position(),
		Duration:      s.player.Duration(),
		Title:         s.series.Title.Display(),
		Cover:         cover,
		TotalEpisodes: s.series.TotalEpisodes,
	})
	if err != nil {
		s.logger.Error("progress commit failed", "error", err, "series", s.series.ID)
		return err
	}
	if rec != nil {
		s.progress = rec
	}
	return nil
}

// announce publishes the presence activity for the current player clock.
func (s *Session) announce(playing bool) {
	s.presence.Set(domain.Activity{
		Title:    s.series.Title.Display(),
		Episode:  s.episode.DisplayTitle(),
		Playing:  playing,
		Progress: s.player.Position(),
		Duration: s.player.Duration(),
		Image:    s.series.Image,
	})
}
