package crawler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "sjsage522/aptwatcher/pkg/errors"
)

func TestFetchWithCacheBlocksAfterRateLimit(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	mockCache := NewMockCacheService()
	crawler := BaseCrawler{
		URL:       server.URL,
		Client:    server.Client(),
		CacheKey:  "listing_fetch_blocked",
		CacheSvc:  mockCache,
		BlockTime: 10 * time.Minute,
	}

	_, err := crawler.fetchWithCache(context.Background())
	assert.True(t, apperrors.IsRateLimit(err))
	assert.Equal(t, "600", string(mockCache.cache["listing_fetch_blocked"]))

	// second attempt never reaches the server
	_, err = crawler.fetchWithCache(context.Background())
	assert.True(t, apperrors.IsRateLimit(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestFetchWithCacheNetworkErrorDoesNotBlock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	mockCache := NewMockCacheService()
	crawler := BaseCrawler{
		URL:       server.URL,
		Client:    server.Client(),
		CacheKey:  "listing_fetch_blocked",
		CacheSvc:  mockCache,
		BlockTime: time.Minute,
	}

	_, err := crawler.fetchWithCache(context.Background())
	assert.True(t, apperrors.IsNetwork(err))
	assert.Equal(t, 0, mockCache.sets)
}

func TestFetchWithCacheWithoutCache(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body>listings</body></html>"))
	}))
	defer server.Close()

	crawler := BaseCrawler{URL: server.URL, Client: server.Client()}

	reader, err := crawler.fetchWithCache(context.Background())
	require.NoError(t, err)
	body, _ := io.ReadAll(reader)
	assert.Contains(t, string(body), "listings")
}

func TestFetchWithCacheHonoursRetryAfter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "1200")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	mockCache := NewMockCacheService()
	crawler := BaseCrawler{
		URL:       server.URL,
		Client:    server.Client(),
		CacheKey:  "listing_fetch_blocked",
		CacheSvc:  mockCache,
		BlockTime: 10 * time.Minute,
	}

	_, err := crawler.fetchWithCache(context.Background())
	assert.True(t, apperrors.IsRateLimit(err))
	assert.Equal(t, 20*time.Minute, mockCache.ttl["listing_fetch_blocked"])
	assert.Equal(t, "1200", string(mockCache.cache["listing_fetch_blocked"]))
}

func TestFetchWithCacheShortRetryAfterKeepsBlockTime(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	mockCache := NewMockCacheService()
	crawler := BaseCrawler{
		URL:       server.URL,
		Client:    server.Client(),
		CacheKey:  "listing_fetch_blocked",
		CacheSvc:  mockCache,
		BlockTime: 10 * time.Minute,
	}

	_, err := crawler.fetchWithCache(context.Background())
	assert.True(t, apperrors.IsRateLimit(err))
	assert.Equal(t, 10*time.Minute, mockCache.ttl["listing_fetch_blocked"])
}
