package enime

// Anime is the Enime series payload. Episodes and relations are omitted on
// list endpoints and present on the detail endpoint.
type Anime struct {
	ID           string   `json:"id"`
	Slug         string   `json:"slug"`
	AnilistID    int      `json:"anilistId"`
	Title        Title    `json:"title"`
	CoverImage   string   `json:"coverImage"`
	BannerImage  string   `json:"bannerImage"`
	Status       string   `json:"status"`
	Format       string   `json:"format"`
	Season       string   `json:"season"`
	Year         int      `json:"year"`
	Description  string   `json:"description"`
	AverageScore float64  `json:"averageScore"`
	Genre        []string `json:"genre"`

	CurrentEpisode int       `json:"currentEpisode"`
	Episodes       []Episode `json:"episodes"`
}

// Title holds the localized title variants
type Title struct {
	Romaji  string `json:"romaji"`
	English string `json:"english"`
	Native  string `json:"native"`
}

// Episode is the Enime episode payload
type Episode struct {
	ID          string   `json:"id"`
	Number      int      `json:"number"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
	AiredAt     string   `json:"airedAt"`
	Sources     []Source `json:"sources"`
}

// Source is a provider-side stream source reference
type Source struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Target   string `json:"target"`
	Priority int    `json:"priority"`
}

// SearchResponse is the paginated envelope for search/popular endpoints
type SearchResponse struct {
	Data []Anime `json:"data"`
	Meta Meta    `json:"meta"`
}

// RecentResponse is the envelope for the recent-episodes feed
type RecentResponse struct {
	Data []RecentEpisode `json:"data"`
	Meta Meta            `json:"meta"`
}

// RecentEpisode is an episode joined with its series
type RecentEpisode struct {
	Episode
	AnimeID string `json:"animeId"`
	Anime   Anime  `json:"anime"`
}

// Meta carries pagination info
type Meta struct {
	Total       int `json:"total"`
	LastPage    int `json:"lastPage"`
	CurrentPage int `json:"currentPage"`
	PerPage     int `json:"perPage"`
}

// ResolvedSource is the playable result of the source endpoint
type ResolvedSource struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Referer  string `json:"referer"`
	Priority int    `json:"priority"`
	Website  string `json:"website"`
	Subtitle bool   `json:"subtitle"`
}
