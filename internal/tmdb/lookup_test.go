package tmdb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hhlyyng/animesub/internal/apperrors"
)

func newLookupServer(t *testing.T, searchQuery *url.Values) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/search/tv":
			if searchQuery != nil {
				*searchQuery = r.URL.Query()
			}
			require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
				"results": []map[string]any{
					{
						"id":            1429,
						"name":          "进击的巨人",
						"overview":      "中文简介",
						"backdrop_path": "/wide.jpg",
					},
					{
						"id":   9999,
						"name": "second choice",
					},
				},
			}))
		case "/tv/1429":
			assert.Equal(t, "en-US", r.URL.Query().Get("language"))
			require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
				"name":     "Attack on Titan",
				"overview": "English overview",
			}))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
}

func TestLookup_BestMatch(t *testing.T) {
	var searchQuery url.Values
	server := newLookupServer(t, &searchQuery)
	defer server.Close()

	client := NewClient("test-api-key",
		WithBaseURL(server.URL),
		WithImageBaseURL("https://img.example.com"))

	match, err := client.Lookup(context.Background(), "進撃の巨人", "2013-04-07")
	require.NoError(t, err)
	require.NotNil(t, match)

	assert.Equal(t, 1429, match.TMDBID)
	assert.Equal(t, "进击的巨人", match.NameCN)
	assert.Equal(t, "中文简介", match.OverviewCN)
	assert.Equal(t, "Attack on Titan", match.NameEN)
	assert.Equal(t, "English overview", match.OverviewEN)
	assert.Equal(t, "https://img.example.com/wide.jpg", match.BackdropURL)
	assert.Equal(t, "https://www.themoviedb.org/tv/1429", match.CanonicalURL)

	assert.Equal(t, "進撃の巨人", searchQuery.Get("query"))
	assert.Equal(t, "zh-CN", searchQuery.Get("language"))
	assert.Equal(t, "2013", searchQuery.Get("first_air_date_year"))
}

func TestLookup_NoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"results": []any{}}))
	}))
	defer server.Close()

	client := NewClient("test-api-key", WithBaseURL(server.URL))

	match, err := client.Lookup(context.Background(), "unknown show", "")
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestLookup_EmptyQuery(t *testing.T) {
	client := NewClient("test-api-key")

	match, err := client.Lookup(context.Background(), "", "2020")
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestLookup_EnglishDetailsFailureDegrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/search/tv" {
			require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
				"results": []map[string]any{
					{"id": 7, "name": "名称", "overview": "简介"},
				},
			}))
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient("test-api-key", WithBaseURL(server.URL), WithRetryAttempts(1))

	match, err := client.Lookup(context.Background(), "名称", "")
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "名称", match.NameCN)
	assert.Empty(t, match.NameEN)
	assert.Empty(t, match.OverviewEN)
}

func TestLookup_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient("test-api-key", WithBaseURL(server.URL), WithRetryAttempts(1))

	_, err := client.Lookup(context.Background(), "anything", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsRateLimitError(err))
}

func TestYearFromDate(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		{"2013-04-07", 2013},
		{"2013", 2013},
		{"", 0},
		{"abc", 0},
		{"20", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, yearFromDate(tt.date), "date %q", tt.date)
	}
}
