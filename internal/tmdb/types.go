package tmdb

// ListEntry is a single entry from a sorted TV list (trending, popular,
// top rated). Name and Overview are localized to the request language;
// image URLs are already resolved against the image base URL.
type ListEntry struct {
	ID           int
	Name         string
	OriginalName string
	Overview     string
	FirstAirDate string
	PosterURL    string
	BackdropURL  string
	URL          string
	VoteAverage  float64
}

// Year returns the first-air year, or "" when unknown.
func (e ListEntry) Year() string {
	if len(e.FirstAirDate) >= 4 {
		return e.FirstAirDate[:4]
	}
	return ""
}

// Match is the best enrichment match for a search term. Fields the API
// did not supply are empty strings.
type Match struct {
	TMDBID       int
	NameCN       string
	NameEN       string
	OverviewCN   string
	OverviewEN   string
	BackdropURL  string
	CanonicalURL string
}
