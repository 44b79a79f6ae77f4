package tmdb

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// tvListPage mirrors the shared response shape of the TV list endpoints.
type tvListPage struct {
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
	Results    []tvListResult `json:"results"`
}

type tvListResult struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	OriginalName string  `json:"original_name"`
	Overview     string  `json:"overview"`
	FirstAirDate string  `json:"first_air_date"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	VoteAverage  float64 `json:"vote_average"`
}

// TrendingTV returns up to limit entries from the weekly TV trending list.
func (c *Client) TrendingTV(ctx context.Context, limit int) ([]ListEntry, error) {
	return c.tvList(ctx, "/trending/tv/week", limit)
}

// PopularTV returns up to limit entries from the TV popularity list.
func (c *Client) PopularTV(ctx context.Context, limit int) ([]ListEntry, error) {
	return c.tvList(ctx, "/tv/popular", limit)
}

// TopRatedTV returns up to limit entries from the TV top-rated list.
func (c *Client) TopRatedTV(ctx context.Context, limit int) ([]ListEntry, error) {
	return c.tvList(ctx, "/tv/top_rated", limit)
}

// tvList pages through a list endpoint until limit entries are collected
// or the list runs out. TMDB serves 20 entries per page.
func (c *Client) tvList(ctx context.Context, path string, limit int) ([]ListEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	entries := make([]ListEntry, 0, limit)
	for page := 1; len(entries) < limit; page++ {
		params := url.Values{}
		params.Set("api_key", c.key())
		params.Set("language", languageChinese)
		params.Set("page", strconv.Itoa(page))
		endpoint := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

		var response tvListPage
		if err := c.getJSON(ctx, endpoint, &response); err != nil {
			return nil, err
		}
		if len(response.Results) == 0 {
			break
		}

		for _, item := range response.Results {
			if len(entries) >= limit {
				break
			}
			entries = append(entries, ListEntry{
				ID:           item.ID,
				Name:         item.Name,
				OriginalName: item.OriginalName,
				Overview:     item.Overview,
				FirstAirDate: item.FirstAirDate,
				PosterURL:    c.ImageURL(item.PosterPath),
				BackdropURL:  c.ImageURL(item.BackdropPath),
				URL:          c.TVURL(item.ID),
				VoteAverage:  item.VoteAverage,
			})
		}

		if response.TotalPages > 0 && page >= response.TotalPages {
			break
		}
	}

	return entries, nil
}
