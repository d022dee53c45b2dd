package consumet

import "tsuki/internal/domain"

// mapResult converts a Consumet search/trending result to the domain series.
// Consumet ids are AniList ids, so the mapping is recorded on the series too.
func mapResult(r SearchResult) *domain.Series {
	return &domain.Series{
		ID:            domain.SeriesID(r.ID),
		AnilistID:     r.ID,
		Title:         domain.Title(r.Title),
		Image:         r.Image,
		Cover:         r.Cover,
		Description:   r.Description,
		Status:        r.Status,
		Year:          r.ReleaseDate,
		Genres:        r.Genres,
		Rating:        r.Rating / 10, // 0-100 upstream, 0-10 here
		TotalEpisodes: r.TotalEpisodes,
	}
}

func mapInfo(info Info) *domain.Series {
	s := mapResult(info.SearchResult)
	s.Episodes = mapEpisodes(info.Episodes)
	if len(s.Episodes) > s.TotalEpisodes {
		s.TotalEpisodes = len(s.Episodes)
	}
	return s
}

func mapEpisodes(eps []Episode) []domain.Episode {
	out := make([]domain.Episode, 0, len(eps))
	for _, e := range eps {
		out = append(out, domain.Episode{
			ID:          domain.EpisodeID(e.ID),
			Number:      e.Number,
			Title:       e.Title,
			Description: e.Description,
			Image:       e.Image,
		})
	}
	return out
}

func mapWatch(w WatchResponse) *domain.StreamingLinks {
	links := &domain.StreamingLinks{Referer: w.Headers.Referer}
	for _, src := range w.Sources {
		links.Sources = append(links.Sources, domain.StreamSource{
			URL:     src.URL,
			Quality: src.Quality,
			IsHLS:   src.IsM3U8,
		})
	}
	return links
}
