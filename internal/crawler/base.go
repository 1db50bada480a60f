package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/aptwatcher/helpers"
	"sjsage522/aptwatcher/logger"
	apperrors "sjsage522/aptwatcher/pkg/errors"
	"sjsage522/aptwatcher/services/cache"
)

// BaseCrawler provides fetching shared by listing crawlers
type BaseCrawler struct {
	URL       string
	Headers   map[string]string
	Client    *http.Client
	CacheKey  string
	CacheSvc  cache.CacheService
	BlockTime time.Duration
}

// fetchWithCache fetches the page unless an earlier rate limit response put
// a block marker in the cache. A new rate limit response sets the marker.
func (c *BaseCrawler) fetchWithCache(ctx context.Context) (io.Reader, error) {
	log := logger.ForFetcher()

	if c.CacheSvc != nil && c.CacheKey != "" {
		if _, err := c.CacheSvc.Get(c.CacheKey); err == nil {
			log.Debug().Str("key", c.CacheKey).Msg("Fetch blocked by earlier rate limit")
			return nil, apperrors.NewRateLimit(fetcherName, c.BlockTime)
		}
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	utf8Body, err := helpers.FetchPage(ctx, client, c.URL, c.Headers)
	if err != nil {
		if apperrors.IsRateLimit(err) && c.CacheSvc != nil && c.CacheKey != "" {
			// Block for whichever is longer: our own back-off or the server's Retry-After
			block := max(c.BlockTime, apperrors.RetryAfterOf(err))
			if block > 0 {
				marker := []byte(fmt.Sprintf("%d", block/time.Second))
				if setErr := c.CacheSvc.Set(c.CacheKey, marker, block); setErr != nil {
					logger.ForCache().Warn().Err(setErr).Str("key", c.CacheKey).Msg("Failed to store fetch block")
				} else {
					log.Warn().Dur("block", block).Str("url", c.URL).Msg("Rate limited, blocking fetches")
				}
			}
		}
		return nil, err
	}

	log.Debug().Str("url", c.URL).Msg("Fetched listing page")

	return utf8Body, nil
}

// createDocument creates a goquery document from a reader
func (c *BaseCrawler) createDocument(reader io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, apperrors.NewParsing(extractorName, "HTML parse error", err)
	}
	return doc, nil
}
