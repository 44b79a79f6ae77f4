// Package jikan provides a client for the Jikan REST API (MyAnimeList).
package jikan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hhlyyng/animesub/internal/apperrors"
	"github.com/hhlyyng/animesub/internal/ratelimit"
)

const (
	defaultBaseURL       = "https://api.jikan.moe/v4"
	defaultRatePerSecond = 2 // Jikan allows 3 req/s, stay under
)

// Anime is a single entry from the MAL top-anime ranking.
type Anime struct {
	MALID         int    `json:"mal_id"`
	URL           string `json:"url"`
	Title         string `json:"title"`
	TitleEnglish  string `json:"title_english"`
	TitleJapanese string `json:"title_japanese"`
	Synopsis      string `json:"synopsis"`
	Score         float64
	ImageURL      string
	AiredFrom     string
}

// Client is a Jikan API client.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *ratelimit.Limiter
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL for the Jikan API.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.baseURL = strings.TrimSuffix(base, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a new Jikan API client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		rateLimiter: ratelimit.New("Jikan", defaultRatePerSecond),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// TopAnime returns up to limit entries of the MAL top-anime ranking,
// best rank first.
func (c *Client) TopAnime(ctx context.Context, limit int) ([]Anime, error) {
	if limit <= 0 {
		limit = 25
	}

	entries := make([]Anime, 0, limit)
	for page := 1; len(entries) < limit; page++ {
		batch, err := c.topAnimePage(ctx, page)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		for _, a := range batch {
			if len(entries) >= limit {
				break
			}
			entries = append(entries, a)
		}
	}
	return entries, nil
}

func (c *Client) topAnimePage(ctx context.Context, page int) ([]Anime, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("type", "tv")
	params.Set("page", strconv.Itoa(page))
	endpoint := fmt.Sprintf("%s/top/anime?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch MAL top anime: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, apperrors.NewRateLimitError("jikan: rate limited")
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("jikan: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var response struct {
		Data []struct {
			MALID         int     `json:"mal_id"`
			URL           string  `json:"url"`
			Title         string  `json:"title"`
			TitleEnglish  string  `json:"title_english"`
			TitleJapanese string  `json:"title_japanese"`
			Synopsis      string  `json:"synopsis"`
			Score         float64 `json:"score"`
			Images        struct {
				JPG struct {
					LargeImageURL string `json:"large_image_url"`
				} `json:"jpg"`
			} `json:"images"`
			Aired struct {
				From string `json:"from"`
			} `json:"aired"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to parse jikan response: %w", err)
	}

	entries := make([]Anime, 0, len(response.Data))
	for _, item := range response.Data {
		entries = append(entries, Anime{
			MALID:         item.MALID,
			URL:           item.URL,
			Title:         item.Title,
			TitleEnglish:  item.TitleEnglish,
			TitleJapanese: item.TitleJapanese,
			Synopsis:      item.Synopsis,
			Score:         item.Score,
			ImageURL:      item.Images.JPG.LargeImageURL,
			AiredFrom:     dateOnly(item.Aired.From),
		})
	}
	return entries, nil
}

// dateOnly trims a RFC3339 timestamp ("2013-04-07T00:00:00+00:00") to
// its date part.
func dateOnly(ts string) string {
	if len(ts) >= 10 {
		return ts[:10]
	}
	return ts
}
