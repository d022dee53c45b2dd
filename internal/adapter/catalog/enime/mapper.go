package enime

import (
	"strconv"
	"strings"

	"tsuki/internal/domain"
)

// mapSeries converts an Enime anime payload to the domain series
func mapSeries(a Anime) *domain.Series {
	s := &domain.Series{
		ID:   domain.SeriesID(a.ID),
		Slug: a.Slug,
		Title: domain.Title{
			Romaji:  a.Title.Romaji,
			English: a.Title.English,
			Native:  a.Title.Native,
		},
		Image:         a.CoverImage,
		Cover:         a.BannerImage,
		Description:   a.Description,
		Status:        a.Status,
		Year:          a.Year,
		Genres:        a.Genre,
		Rating:        a.AverageScore / 10, // 0-100 upstream, 0-10 here
		TotalEpisodes: a.CurrentEpisode,
	}
	if a.AnilistID != 0 {
		s.AnilistID = strconv.Itoa(a.AnilistID)
	}
	if len(a.Episodes) > 0 {
		s.Episodes = mapEpisodes(a.Episodes)
		if len(s.Episodes) > s.TotalEpisodes {
			s.TotalEpisodes = len(s.Episodes)
		}
	}
	return s
}

func mapEpisodes(eps []Episode) []domain.Episode {
	out := make([]domain.Episode, 0, len(eps))
	for _, e := range eps {
		out = append(out, mapEpisode(e))
	}
	return out
}

func mapEpisode(e Episode) domain.Episode {
	ep := domain.Episode{
		ID:          domain.EpisodeID(e.ID),
		Number:      e.Number,
		Title:       e.Title,
		Description: e.Description,
		Image:       e.Image,
	}
	for _, src := range e.Sources {
		ep.Sources = append(ep.Sources, domain.SourceRef{ID: src.ID, Priority: src.Priority})
	}
	return ep
}

// mapResolvedSource converts a resolved source into streaming links. Enime
// resolves to a single asset; the quality tag is the provider fallback.
func mapResolvedSource(r ResolvedSource) *domain.StreamingLinks {
	return &domain.StreamingLinks{
		Referer: r.Referer,
		Sources: []domain.StreamSource{{
			URL:     r.URL,
			Quality: "default",
			IsHLS:   strings.Contains(r.URL, ".m3u8"),
		}},
	}
}
