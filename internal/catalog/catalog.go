package catalog

import "context"

// Candidate is one search match from the catalog.
type Candidate struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	Popularity   float64 `json:"popularity"`
	VoteAverage  float64 `json:"vote_average"`
}

// DisplayTitle returns the candidate's title regardless of media type; TMDB
// uses "title" for movies and "name" for shows.
func (c Candidate) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return c.Name
}

// Year extracts the release year from whichever date field is populated.
// Zero when the catalog supplied no date.
func (c Candidate) Year() int {
	date := c.ReleaseDate
	if date == "" {
		date = c.FirstAirDate
	}
	if len(date) < 4 {
		return 0
	}
	year := 0
	for _, r := range date[:4] {
		if r < '0' || r > '9' {
			return 0
		}
		year = year*10 + int(r-'0')
	}
	return year
}

// Episode is one episode's metadata.
type Episode struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	SeasonNumber  int    `json:"season_number"`
	EpisodeNumber int    `json:"episode_number"`
	AirDate       string `json:"air_date"`
}

// Catalog is the metadata lookup surface the scan pipeline uses. All methods
// return candidates in the order the upstream service ranked them; an empty
// slice means no match, a non-nil error means the lookup itself failed.
type Catalog interface {
	SearchMovie(ctx context.Context, query string, year int) ([]Candidate, error)
	SearchTV(ctx context.Context, query string, year int) ([]Candidate, error)
	EpisodeDetails(ctx context.Context, showID int64, season, episode int) (*Episode, error)
}
