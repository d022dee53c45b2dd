// Package catalog holds the process-lifetime series metadata cache.
//
// Entries are shared mutable pointers on purpose: when an episode list is
// fetched after the base payload, Upgrade mutates the cached value in place
// so every holder of the pointer observes the upgrade. There is no eviction;
// the cache lives for one browsing session.
package catalog

import (
	gocache "github.com/patrickmn/go-cache"

	"tsuki/internal/domain"
)

// Cache maps series ids to their last-fetched metadata payloads.
type Cache struct {
	entries *gocache.Cache
}

func New() *Cache {
	return &Cache{
		entries: gocache.New(gocache.NoExpiration, 0),
	}
}

func (c *Cache) Get(id domain.SeriesID) (*domain.Series, bool) {
	v, ok := c.entries.Get(string(id))
	if !ok {
		return nil, false
	}
	return v.(*domain.Series), true
}

func (c *Cache) Has(id domain.SeriesID) bool {
	_, ok := c.entries.Get(string(id))
	return ok
}

// Set stores the payload under its own id. The pointer is retained, not
// copied.
func (c *Cache) Set(series *domain.Series) {
	c.entries.Set(string(series.ID), series, gocache.NoExpiration)
}

// Upgrade attaches a late-arriving episode list to an existing entry,
// mutating it in place. Returns false when the series was never cached.
// The total episode count is corrected if the list turns out longer than
// the base payload claimed.
func (c *Cache) Upgrade(id domain.SeriesID, episodes []domain.Episode) bool {
	series, ok := c.Get(id)
	if !ok {
		return false
	}
	series.Episodes = episodes
	if len(episodes) > series.TotalEpisodes {
		series.TotalEpisodes = len(episodes)
	}
	return true
}

// All returns every cached payload, in no particular order.
func (c *Cache) All() []*domain.Series {
	items := c.entries.Items()
	out := make([]*domain.Series, 0, len(items))
	for _, item := range items {
		out = append(out, item.Object.(*domain.Series))
	}
	return out
}

// Len returns the number of cached series.
func (c *Cache) Len() int {
	return c.entries.ItemCount()
}
