package tmdb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrendingTV_PagesUntilLimit(t *testing.T) {
	var pagesRequested []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/trending/tv/week", r.URL.Path)
		page := r.URL.Query().Get("page")
		pagesRequested = append(pagesRequested, page)

		pageNum, err := strconv.Atoi(page)
		require.NoError(t, err)

		results := make([]map[string]any, 0, 20)
		for i := 0; i < 20; i++ {
			results = append(results, map[string]any{
				"id":             pageNum*100 + i,
				"name":           "进击的巨人",
				"original_name":  "進撃の巨人",
				"overview":       "概要",
				"first_air_date": "2013-04-07",
				"poster_path":    "/poster.jpg",
				"backdrop_path":  "/backdrop.jpg",
				"vote_average":   8.7,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"page":        pageNum,
			"total_pages": 500,
			"results":     results,
		}))
	}))
	defer server.Close()

	client := NewClient("test-api-key", WithBaseURL(server.URL))

	entries, err := client.TrendingTV(context.Background(), 50)
	require.NoError(t, err)
	assert.Len(t, entries, 50)
	assert.Equal(t, []string{"1", "2", "3"}, pagesRequested)
	assert.Equal(t, "进击的巨人", entries[0].Name)
	assert.Equal(t, "進撃の巨人", entries[0].OriginalName)
	assert.Equal(t, "2013", entries[0].Year())
}

func TestPopularTV_QueryShape(t *testing.T) {
	var captured url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tv/popular", r.URL.Path)
		captured = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"page":        1,
			"total_pages": 1,
			"results": []map[string]any{
				{"id": 42, "name": "名称", "vote_average": 7.0},
			},
		}))
	}))
	defer server.Close()

	client := NewClient("test-api-key", WithBaseURL(server.URL))

	entries, err := client.PopularTV(context.Background(), 50)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, 42, entries[0].ID)

	assert.Equal(t, "test-api-key", captured.Get("api_key"))
	assert.Equal(t, "zh-CN", captured.Get("language"))
}

func TestTopRatedTV_EmptyList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tv/top_rated", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"page": 1, "total_pages": 0, "results": []any{},
		}))
	}))
	defer server.Close()

	client := NewClient("test-api-key", WithBaseURL(server.URL))

	entries, err := client.TopRatedTV(context.Background(), 50)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTVList_UsesUpdatedAPIKey(t *testing.T) {
	var captured url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"page": 1, "total_pages": 1, "results": []any{},
		}))
	}))
	defer server.Close()

	client := NewClient("initial-key", WithBaseURL(server.URL))
	client.SetAPIKey("user-token")

	_, err := client.PopularTV(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "user-token", captured.Get("api_key"))
}
