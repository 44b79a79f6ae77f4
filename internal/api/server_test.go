package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hhlyyng/animesub/internal/pool"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func poolWithRecords(n int) *pool.Service {
	service := pool.NewService()
	records := make([]pool.Record, n)
	for i := range records {
		records[i] = pool.Record{NameCN: "测试", Score: "8.0"}
	}
	service.Replace(records)
	return service
}

func doRequest(t *testing.T, service *pool.Service, path string) (int, map[string]any) {
	t.Helper()

	router := NewRouter(service)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestStatus(t *testing.T) {
	service := poolWithRecords(3)
	service.SetBuilding(true)

	code, body := doRequest(t, service, "/api/pool/status")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(3), body["size"])
	assert.Equal(t, true, body["building"])
}

func TestRandom_DefaultCount(t *testing.T) {
	code, body := doRequest(t, poolWithRecords(30), "/api/pool/random")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(12), body["count"])
	assert.Len(t, body["items"], 12)
}

func TestRandom_CountClamped(t *testing.T) {
	_, body := doRequest(t, poolWithRecords(100), "/api/pool/random?count=500")
	assert.Equal(t, float64(50), body["count"])

	_, body = doRequest(t, poolWithRecords(100), "/api/pool/random?count=-3")
	assert.Equal(t, float64(12), body["count"])

	_, body = doRequest(t, poolWithRecords(100), "/api/pool/random?count=junk")
	assert.Equal(t, float64(12), body["count"])
}

func TestRandom_EmptyPool(t *testing.T) {
	code, body := doRequest(t, pool.NewService(), "/api/pool/random")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), body["count"])
	assert.Len(t, body["items"], 0)
}

func TestRandom_SmallerPoolThanCount(t *testing.T) {
	_, body := doRequest(t, poolWithRecords(5), "/api/pool/random?count=10")
	assert.Equal(t, float64(5), body["count"])
}
