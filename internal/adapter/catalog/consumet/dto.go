package consumet

// Title holds the localized title variants
type Title struct {
	Romaji  string `json:"romaji"`
	English string `json:"english"`
	Native  string `json:"native"`
}

// SearchResult is one entry of the paginated search/trending envelopes
type SearchResult struct {
	ID            string   `json:"id"`
	MalID         int      `json:"malId"`
	Title         Title    `json:"title"`
	Status        string   `json:"status"`
	Image         string   `json:"image"`
	Cover         string   `json:"cover"`
	Description   string   `json:"description"`
	Rating        float64  `json:"rating"`
	Genres        []string `json:"genres"`
	TotalEpisodes int      `json:"totalEpisodes"`
	ReleaseDate   int      `json:"releaseDate"`
	Type          string   `json:"type"`
}

// SearchResponse is the paginated envelope for search/trending
type SearchResponse struct {
	CurrentPage int            `json:"currentPage"`
	HasNextPage bool           `json:"hasNextPage"`
	Results     []SearchResult `json:"results"`
}

// Info is the series detail payload, episode list included
type Info struct {
	SearchResult
	Episodes []Episode `json:"episodes"`
}

// Episode is the Consumet episode payload
type Episode struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Number      int    `json:"number"`
	Image       string `json:"image"`
}

// RecentEpisode is one entry of the recent-episodes feed
type RecentEpisode struct {
	ID            string `json:"id"`
	MalID         int    `json:"malId"`
	Title         Title  `json:"title"`
	EpisodeID     string `json:"episodeId"`
	EpisodeTitle  string `json:"episodeTitle"`
	EpisodeNumber int    `json:"episodeNumber"`
	Image         string `json:"image"`
}

// RecentResponse is the envelope for the recent-episodes feed
type RecentResponse struct {
	CurrentPage int             `json:"currentPage"`
	HasNextPage bool            `json:"hasNextPage"`
	Results     []RecentEpisode `json:"results"`
}

// WatchResponse is the streaming-source resolution payload
type WatchResponse struct {
	Headers struct {
		Referer string `json:"Referer"`
	} `json:"headers"`
	Sources []WatchSource `json:"sources"`
}

// WatchSource is one playable variant
type WatchSource struct {
	URL     string `json:"url"`
	IsM3U8  bool   `json:"isM3U8"`
	Quality string `json:"quality"`
}
