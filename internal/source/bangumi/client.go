// Package bangumi provides a client for the bgm.tv API. bgm.tv is strict
// about request pacing and requires a descriptive User-Agent.
package bangumi

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
	defaultBaseURL     = "https://api.bgm.tv"
	defaultSiteBaseURL = "https://bgm.tv"

	// subjectTypeAnime is the bgm.tv subject type for anime.
	subjectTypeAnime = 2
)

// Subject is a single rank-sorted subject from bgm.tv.
type Subject struct {
	ID       int
	Name     string // original (Japanese) title
	NameCN   string
	Summary  string
	Date     string // first air date, "2013-04-07"
	Score    float64
	ImageURL string
	URL      string
}

// Client is a bgm.tv API client.
type Client struct {
	baseURL     string
	siteBaseURL string
	userAgent   string
	httpClient  *http.Client
	rateLimiter *ratelimit.Limiter
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL for the bgm.tv API.
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

// NewClient creates a new bgm.tv API client. userAgent identifies this
// application per the bgm.tv API policy.
func NewClient(userAgent string, opts ...Option) *Client {
	client := &Client{
		baseURL:     defaultBaseURL,
		siteBaseURL: defaultSiteBaseURL,
		userAgent:   userAgent,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		rateLimiter: ratelimit.NewWithBurst("Bangumi", 1, 1),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Page returns one page of rank-sorted anime subjects. page starts at 1.
func (c *Client) Page(ctx context.Context, page, pageSize int) ([]Subject, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 25
	}

	params := url.Values{}
	params.Set("type", strconv.Itoa(subjectTypeAnime))
	params.Set("sort", "rank")
	params.Set("limit", strconv.Itoa(pageSize))
	params.Set("offset", strconv.Itoa((page-1)*pageSize))
	endpoint := fmt.Sprintf("%s/v0/subjects?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bangumi subjects: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, apperrors.NewRateLimitError("bangumi: rate limited")
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("bangumi: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var response struct {
		Data []struct {
			ID      int    `json:"id"`
			Name    string `json:"name"`
			NameCN  string `json:"name_cn"`
			Summary string `json:"summary"`
			Date    string `json:"date"`
			Images  struct {
				Large string `json:"large"`
			} `json:"images"`
			Rating struct {
				Score float64 `json:"score"`
			} `json:"rating"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to parse bangumi response: %w", err)
	}

	subjects := make([]Subject, 0, len(response.Data))
	for _, item := range response.Data {
		subjects = append(subjects, Subject{
			ID:       item.ID,
			Name:     item.Name,
			NameCN:   item.NameCN,
			Summary:  item.Summary,
			Date:     item.Date,
			Score:    item.Rating.Score,
			ImageURL: item.Images.Large,
			URL:      fmt.Sprintf("%s/subject/%d", c.siteBaseURL, item.ID),
		})
	}
	return subjects, nil
}
