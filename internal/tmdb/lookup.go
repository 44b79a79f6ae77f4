package tmdb

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
)

// Lookup searches TMDB TV for the best match of query. airDateHint, when
// it carries a parseable year ("2013-04-07" or "2013"), narrows the
// search to that first-air year. Returns (nil, nil) when nothing matched.
//
// The Chinese title/overview come from the search itself; a second
// details call fetches the English pair. A failing details call degrades
// to a match with empty English fields rather than an error.
func (c *Client) Lookup(ctx context.Context, query, airDateHint string) (*Match, error) {
	if query == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("api_key", c.key())
	params.Set("query", query)
	params.Set("language", languageChinese)
	params.Set("include_adult", "false")
	if year := yearFromDate(airDateHint); year > 0 {
		params.Set("first_air_date_year", strconv.Itoa(year))
	}

	endpoint := fmt.Sprintf("%s/search/tv?%s", c.baseURL, params.Encode())

	var response struct {
		Results []tvListResult `json:"results"`
	}
	if err := c.getJSON(ctx, endpoint, &response); err != nil {
		return nil, err
	}
	if len(response.Results) == 0 {
		return nil, nil
	}

	best := response.Results[0]
	match := &Match{
		TMDBID:       best.ID,
		NameCN:       best.Name,
		OverviewCN:   best.Overview,
		BackdropURL:  c.ImageURL(best.BackdropPath),
		CanonicalURL: c.TVURL(best.ID),
	}

	nameEN, overviewEN, err := c.tvTextIn(ctx, best.ID, languageEnglish)
	if err != nil {
		slog.Debug("TMDB english details unavailable", "id", best.ID, "error", err)
		return match, nil
	}
	match.NameEN = nameEN
	match.OverviewEN = overviewEN

	return match, nil
}

// tvTextIn fetches the localized name and overview of a TV show.
func (c *Client) tvTextIn(ctx context.Context, tvID int, language string) (string, string, error) {
	params := url.Values{}
	params.Set("api_key", c.key())
	params.Set("language", language)
	endpoint := fmt.Sprintf("%s/tv/%d?%s", c.baseURL, tvID, params.Encode())

	var response struct {
		Name     string `json:"name"`
		Overview string `json:"overview"`
	}
	if err := c.getJSON(ctx, endpoint, &response); err != nil {
		return "", "", err
	}
	return response.Name, response.Overview, nil
}

// yearFromDate extracts a four digit year from a date string, 0 when absent.
func yearFromDate(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
