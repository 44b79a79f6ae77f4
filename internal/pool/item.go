package pool

import (
	"fmt"
	"strconv"

	"github.com/hhlyyng/animesub/internal/source/bangumi"
	"github.com/hhlyyng/animesub/internal/source/jikan"
	"github.com/hhlyyng/animesub/internal/tmdb"
)

// Pool key prefixes, one per source family. Keys never collide across
// sources because every native id is prefixed.
const (
	keyPrefixTMDB    = "tmdb"
	keyPrefixMAL     = "mal"
	keyPrefixBangumi = "bgm"
)

// Placeholder values substituted into records whose sources supplied no
// text. These are part of the snapshot's stable contract.
const (
	placeholderDescriptionCN = "暂无简介"
	placeholderDescriptionEN = "No description available"
	placeholderScore         = "0"
)

// RawItem is the normalized pre-enrichment shape every collector maps
// its native entries into. Immutable once built; consumed exactly once
// by the enrichment step and never persisted.
type RawItem struct {
	// Key is the source-prefixed pool key, the sole dedup key.
	Key string
	// SearchTitle drives the enrichment lookup; empty skips enrichment.
	SearchTitle string
	// AirDate disambiguates the enrichment lookup, may be empty.
	AirDate string

	NameJP      string
	NameCN      string
	Description string
	Score       string

	PosterURL   string
	BackdropURL string

	TMDBURL    string
	MALURL     string
	BangumiURL string
}

// Record is the enriched shape persisted to the snapshot and served to
// readers. The JSON field names are a stable external contract.
type Record struct {
	// SubjectID stays empty: pool records are not bound to the
	// subscription catalog's primary identity.
	SubjectID     string `json:"subject_id"`
	NameJP        string `json:"name_jp"`
	NameCN        string `json:"name_cn"`
	NameEN        string `json:"name_en"`
	DescriptionCN string `json:"description_cn"`
	DescriptionEN string `json:"description_en"`
	Score         string `json:"score"`
	PosterURL     string `json:"poster_url"`
	BackdropURL   string `json:"backdrop_url"`
	TMDBURL       string `json:"tmdb_url"`
	MALURL        string `json:"mal_url"`
	BangumiURL    string `json:"bangumi_url"`
}

// rawFromTMDB maps a sorted-list entry into the normalized item shape.
// List requests run with language=zh-CN, so Name is the Chinese title
// and OriginalName the native one.
func rawFromTMDB(e tmdb.ListEntry) RawItem {
	return RawItem{
		Key:         fmt.Sprintf("%s:%d", keyPrefixTMDB, e.ID),
		SearchTitle: e.Name,
		AirDate:     e.FirstAirDate,
		NameJP:      e.OriginalName,
		NameCN:      e.Name,
		Description: e.Overview,
		Score:       formatScore(e.VoteAverage),
		PosterURL:   e.PosterURL,
		BackdropURL: e.BackdropURL,
		TMDBURL:     e.URL,
	}
}

// rawFromJikan maps a MAL top-anime entry into the normalized item shape.
func rawFromJikan(a jikan.Anime) RawItem {
	search := a.Title
	if search == "" {
		search = a.TitleEnglish
	}
	return RawItem{
		Key:         fmt.Sprintf("%s:%d", keyPrefixMAL, a.MALID),
		SearchTitle: search,
		AirDate:     a.AiredFrom,
		NameJP:      a.TitleJapanese,
		Description: a.Synopsis,
		Score:       formatScore(a.Score),
		PosterURL:   a.ImageURL,
		MALURL:      a.URL,
	}
}

// rawFromBangumi maps a bgm.tv subject into the normalized item shape.
func rawFromBangumi(s bangumi.Subject) RawItem {
	search := s.NameCN
	if search == "" {
		search = s.Name
	}
	return RawItem{
		Key:         fmt.Sprintf("%s:%d", keyPrefixBangumi, s.ID),
		SearchTitle: search,
		AirDate:     s.Date,
		NameJP:      s.Name,
		NameCN:      s.NameCN,
		Description: s.Summary,
		Score:       formatScore(s.Score),
		PosterURL:   s.ImageURL,
		BangumiURL:  s.URL,
	}
}

// newRecord builds the final record for one raw item and its enrichment
// match (nil when the lookup missed or was skipped). Enrichment fills
// only fields the collector left empty and the placeholder invariant is
// applied last: descriptions and score are never empty strings.
func newRecord(raw RawItem, match *tmdb.Match) Record {
	rec := Record{
		NameJP:        raw.NameJP,
		NameCN:        raw.NameCN,
		DescriptionCN: raw.Description,
		Score:         raw.Score,
		PosterURL:     raw.PosterURL,
		BackdropURL:   raw.BackdropURL,
		TMDBURL:       raw.TMDBURL,
		MALURL:        raw.MALURL,
		BangumiURL:    raw.BangumiURL,
	}

	if match != nil {
		if rec.NameCN == "" {
			rec.NameCN = match.NameCN
		}
		rec.NameEN = match.NameEN
		if rec.DescriptionCN == "" {
			rec.DescriptionCN = match.OverviewCN
		}
		rec.DescriptionEN = match.OverviewEN
		// The wide image prefers enrichment; the collector's own wide
		// image is only the fallback.
		if match.BackdropURL != "" {
			rec.BackdropURL = match.BackdropURL
		}
		if rec.TMDBURL == "" {
			rec.TMDBURL = match.CanonicalURL
		}
	}

	if rec.DescriptionCN == "" {
		rec.DescriptionCN = placeholderDescriptionCN
	}
	if rec.DescriptionEN == "" {
		rec.DescriptionEN = placeholderDescriptionEN
	}
	if rec.Score == "" {
		rec.Score = placeholderScore
	}

	return rec
}

// formatScore renders a source score as opaque text; zero means unrated.
func formatScore(score float64) string {
	if score <= 0 {
		return ""
	}
	return strconv.FormatFloat(score, 'f', 1, 64)
}
