package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	bolt "go.etcd.io/bbolt"

	"tsuki/internal/domain"
)

// Bucket names. Playback progress, the recently-watched ring and the
// plan-to-watch queue are physically separate namespaces so enumerating one
// never leaks keys from another.
var (
	bucketProgress = []byte("progress")
	bucketRecent   = []byte("recent")
	bucketPlan     = []byte("plan")
)

const (
	// ringKey is the single key the watch ring lives under.
	ringKey = "list"

	// RingCapacity bounds the recently-watched ring.
	RingCapacity = 10

	// legacyRingKey is skipped when enumerating progress records: old
	// database files kept the ring inside the progress namespace.
	legacyRingKey = "recent"
)

// ProgressStore implements domain.ProgressStore using BoltDB.
type ProgressStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

// New opens (or creates) the store under dir. An empty dir gives a
// memory-only store with no persistence.
func New(dir string) (*ProgressStore, error) {
	if dir == "" {
		return &ProgressStore{cache: make(map[string][]byte)}, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "watch.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketProgress, bucketRecent, bucketPlan} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &ProgressStore{db: db, cache: make(map[string][]byte)}, nil
}

func (s *ProgressStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *ProgressStore) get(bucket []byte, key string, dest interface{}) bool {
	cacheKey := string(bucket) + ":" + key

	// Check memory cache first
	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	// Read from BoltDB
	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (s *ProgressStore) set(bucket []byte, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	cacheKey := string(bucket) + ":" + key

	// Update memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		return b.Put([]byte(key), data)
	})
}

func (s *ProgressStore) delete(bucket []byte, key string) error {
	cacheKey := string(bucket) + ":" + key

	s.mu.Lock()
	delete(s.cache, cacheKey)
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b != nil {
			return b.Delete([]byte(key))
		}
		return nil
	})
}

// === Playback progress ===

func (s *ProgressStore) Progress(id domain.SeriesID) (*domain.PlaybackProgress, bool) {
	var p domain.PlaybackProgress
	if !s.get(bucketProgress, string(id), &p) {
		return nil, false
	}
	return &p, true
}

// AllProgress enumerates every per-series watch record. The literal
// "recent" key is skipped for database files written before the ring moved
// to its own namespace.
func (s *ProgressStore) AllProgress() ([]domain.SeriesProgress, error) {
	if s.db == nil {
		return s.allProgressFromCache()
	}

	var out []domain.SeriesProgress
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketProgress)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			if string(k) == legacyRingKey {
				return nil
			}
			var p domain.PlaybackProgress
			if err := json.Unmarshal(v, &p); err != nil {
				return fmt.Errorf("corrupt progress record %q: %w", k, err)
			}
			out = append(out, domain.SeriesProgress{ID: domain.SeriesID(k), Progress: &p})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ProgressStore) allProgressFromCache() ([]domain.SeriesProgress, error) {
	prefix := string(bucketProgress) + ":"

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.SeriesProgress
	for k, v := range s.cache {
		if len(k) <= len(prefix) || k[:len(prefix)] != prefix {
			continue
		}
		id := k[len(prefix):]
		if id == legacyRingKey {
			continue
		}
		var p domain.PlaybackProgress
		if err := json.Unmarshal(v, &p); err != nil {
			return nil, fmt.Errorf("corrupt progress record %q: %w", id, err)
		}
		out = append(out, domain.SeriesProgress{ID: domain.SeriesID(id), Progress: &p})
	}
	return out, nil
}

// === Recently-watched ring ===

// RecentlyWatched returns the ring, most recent first. It never fails; a
// missing or unreadable ring is an empty one.
func (s *ProgressStore) RecentlyWatched() []domain.RecentlyWatched {
	var ring []domain.RecentlyWatched
	if !s.get(bucketRecent, ringKey, &ring) {
		return []domain.RecentlyWatched{}
	}
	return ring
}

// === Plan to watch ===

func (s *ProgressStore) PlanToWatch(id domain.SeriesID) (*domain.PlanToWatch, bool) {
	var p domain.PlanToWatch
	if !s.get(bucketPlan, string(id), &p) {
		return nil, false
	}
	return &p, true
}

func (s *ProgressStore) AllPlanToWatch() ([]domain.PlanEntry, error) {
	if s.db == nil {
		return s.allPlanFromCache()
	}

	var out []domain.PlanEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPlan)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var p domain.PlanToWatch
			if err := json.Unmarshal(v, &p); err != nil {
				return fmt.Errorf("corrupt plan record %q: %w", k, err)
			}
			out = append(out, domain.PlanEntry{ID: domain.SeriesID(k), Plan: p})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ProgressStore) allPlanFromCache() ([]domain.PlanEntry, error) {
	prefix := string(bucketPlan) + ":"

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.PlanEntry
	for k, v := range s.cache {
		if len(k) <= len(prefix) || k[:len(prefix)] != prefix {
			continue
		}
		var p domain.PlanToWatch
		if err := json.Unmarshal(v, &p); err != nil {
			return nil, fmt.Errorf("corrupt plan record %q: %w", k[len(prefix):], err)
		}
		out = append(out, domain.PlanEntry{ID: domain.SeriesID(k[len(prefix):]), Plan: p})
	}
	return out, nil
}

// SetPlanToWatch upserts the plan entry for a series; a nil plan removes it.
func (s *ProgressStore) SetPlanToWatch(id domain.SeriesID, plan *domain.PlanToWatch) error {
	if plan == nil {
		return s.delete(bucketPlan, string(id))
	}
	return s.set(bucketPlan, string(id), plan)
}

// === Commit ===

// CommitProgress applies one playback observation: upsert the episode
// entry, move the latest pointer, latch completion, rewrite the ring and
// un-plan the series. All writes happen in a single BoltDB transaction so a
// reader can never observe the progress record without the matching ring
// and plan state. A non-positive time is a silent no-op.
func (s *ProgressStore) CommitProgress(c domain.Commit) (*domain.PlaybackProgress, error) {
	if c.Time <= 0 {
		return nil, nil
	}

	now := time.Now().UTC()

	if s.db == nil {
		return s.commitToCache(c, now)
	}

	var (
		updated  domain.PlaybackProgress
		ringData []byte
		progData []byte
	)
	err := s.db.Update(func(tx *bolt.Tx) error {
		pb := tx.Bucket(bucketProgress)

		var rec domain.PlaybackProgress
		if v := pb.Get([]byte(c.Series)); v != nil {
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("corrupt progress record %q: %w", c.Series, err)
			}
		}
		applyCommit(&rec, c, now)

		var err error
		progData, err = json.Marshal(&rec)
		if err != nil {
			return err
		}
		if err := pb.Put([]byte(c.Series), progData); err != nil {
			return err
		}

		rb := tx.Bucket(bucketRecent)
		var ring []domain.RecentlyWatched
		if v := rb.Get([]byte(ringKey)); v != nil {
			// An unreadable ring is rebuilt rather than failing the commit.
			_ = json.Unmarshal(v, &ring)
		}
		ring = prependRing(ring, domain.RecentlyWatched{ID: c.Series, EpisodeID: c.Episode})

		ringData, err = json.Marshal(ring)
		if err != nil {
			return err
		}
		if err := rb.Put([]byte(ringKey), ringData); err != nil {
			return err
		}

		if err := tx.Bucket(bucketPlan).Delete([]byte(c.Series)); err != nil {
			return err
		}

		updated = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Refresh the memory cache only after the transaction landed.
	s.mu.Lock()
	s.cache[string(bucketProgress)+":"+string(c.Series)] = progData
	s.cache[string(bucketRecent)+":"+ringKey] = ringData
	delete(s.cache, string(bucketPlan)+":"+string(c.Series))
	s.mu.Unlock()

	return &updated, nil
}

// commitToCache is the memory-only commit path. The mutex hold makes the
// three logical writes atomic with respect to readers.
func (s *ProgressStore) commitToCache(c domain.Commit, now time.Time) (*domain.PlaybackProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	progKey := string(bucketProgress) + ":" + string(c.Series)
	var rec domain.PlaybackProgress
	if v, ok := s.cache[progKey]; ok {
		if err := json.Unmarshal(v, &rec); err != nil {
			return nil, fmt.Errorf("corrupt progress record %q: %w", c.Series, err)
		}
	}
	applyCommit(&rec, c, now)

	progData, err := json.Marshal(&rec)
	if err != nil {
		return nil, err
	}

	recentKey := string(bucketRecent) + ":" + ringKey
	var ring []domain.RecentlyWatched
	if v, ok := s.cache[recentKey]; ok {
		_ = json.Unmarshal(v, &ring)
	}
	ring = prependRing(ring, domain.RecentlyWatched{ID: c.Series, EpisodeID: c.Episode})

	ringData, err := json.Marshal(ring)
	if err != nil {
		return nil, err
	}

	s.cache[progKey] = progData
	s.cache[recentKey] = ringData
	delete(s.cache, string(bucketPlan)+":"+string(c.Series))

	return &rec, nil
}

// applyCommit merges one observation into a watch record. The completed
// latch is only ever set, never cleared: a later re-watch of the final
// episode keeps the original completion date.
func applyCommit(rec *domain.PlaybackProgress, c domain.Commit, now time.Time) {
	if rec.Episodes == nil {
		rec.Episodes = make(map[domain.EpisodeID]domain.EpisodeProgress)
	}

	finished := c.Finished()
	rec.Episodes[c.Episode] = domain.EpisodeProgress{
		Finished:      finished,
		LastTime:      c.Time,
		EpisodeNumber: c.EpisodeNumber,
		Date:          now,
	}

	rec.Meta.Latest = domain.LatestEpisode{ID: c.Episode}

	if c.Title != "" {
		rec.Meta.Title = c.Title
	}
	if c.Cover != "" {
		rec.Meta.Cover = c.Cover
	}
	if c.TotalEpisodes > 0 {
		rec.Meta.TotalEpisodes = c.TotalEpisodes
	}

	if finished && c.TotalEpisodes > 0 && c.EpisodeNumber == c.TotalEpisodes && rec.Meta.Completed == nil {
		rec.Meta.Completed = &domain.CompletedAt{Date: now}
	}
}

// prependRing removes any existing entry for the same series, prepends the
// new one and truncates to capacity.
func prependRing(ring []domain.RecentlyWatched, entry domain.RecentlyWatched) []domain.RecentlyWatched {
	out := make([]domain.RecentlyWatched, 0, len(ring)+1)
	out = append(out, entry)
	for _, r := range ring {
		if r.ID == entry.ID {
			continue
		}
		out = append(out, r)
	}
	if len(out) > RingCapacity {
		out = out[:RingCapacity]
	}
	return out
}
