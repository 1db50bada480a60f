package crawler

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/aptwatcher/helpers"
	"sjsage522/aptwatcher/logger"
	apperrors "sjsage522/aptwatcher/pkg/errors"
	"sjsage522/aptwatcher/services/cache"
)

const (
	fetcherName   = "fetcher"
	extractorName = "extractor"

	// UnknownName stands in for a card without a title link
	UnknownName = "N/A"
)

// ListingCrawler fetches a search result page and turns its cards into listings
type ListingCrawler struct {
	BaseCrawler
	Selectors Selectors
	log       *logger.Logger
}

// Ensure ListingCrawler implements Crawler
var _ Crawler = (*ListingCrawler)(nil)

// NewListingCrawler creates a new listing crawler
func NewListingCrawler(config CrawlerConfig, cacheSvc cache.CacheService) *ListingCrawler {
	selectors := config.Selectors
	if selectors.ListingCard == "" {
		selectors = DefaultSelectors()
	}

	return &ListingCrawler{
		BaseCrawler: BaseCrawler{
			URL:       config.URL,
			Headers:   config.Headers,
			Client:    config.Client,
			CacheKey:  config.CacheKey,
			CacheSvc:  cacheSvc,
			BlockTime: config.BlockTime,
		},
		Selectors: selectors,
		log:       logger.ForExtractor(),
	}
}

// GetName returns the crawler name
func (c *ListingCrawler) GetName() string {
	return "ListingCrawler"
}

// FetchListings fetches the configured page and extracts its listings
func (c *ListingCrawler) FetchListings(ctx context.Context) (*Extraction, error) {
	utf8Body, err := c.fetchWithCache(ctx)
	if err != nil {
		return nil, err
	}

	return c.Extract(utf8Body)
}

// Extract parses markup into listings. Cards are handled one at a time in
// document order; a card that does not parse is recorded in Failures and
// skipped without affecting the others.
func (c *ListingCrawler) Extract(r io.Reader) (*Extraction, error) {
	doc, err := c.createDocument(r)
	if err != nil {
		return nil, err
	}

	cards := doc.Find(c.Selectors.ListingCard)
	result := &Extraction{Cards: cards.Length()}

	cards.Each(func(i int, s *goquery.Selection) {
		listing, err := c.processCard(i, s)
		if err != nil {
			c.log.Warn().Err(err).Int("card", i).Msg("Skipping listing card")
			result.Failures = append(result.Failures, err)
			return
		}
		result.Listings = append(result.Listings, *listing)
	})

	return result, nil
}

// processCard extracts a single listing. Every value is read from this card
// only; a missing id or size is a parsing error, never a value carried over
// from a previous card.
func (c *ListingCrawler) processCard(i int, s *goquery.Selection) (*Listing, error) {
	name := strings.TrimSpace(s.Find(c.Selectors.Title).First().Text())
	if name == "" {
		name = UnknownName
	}

	size, err := c.extractSize(s)
	if err != nil {
		return nil, apperrors.NewParsing(extractorName, fmt.Sprintf("card %d (%s): square footage", i, name), err)
	}

	id, err := c.extractID(s)
	if err != nil {
		return nil, apperrors.NewParsing(extractorName, fmt.Sprintf("card %d (%s): listing id", i, name), err)
	}

	priceSel := s.Find(c.Selectors.Price).First()
	if priceSel.Length() == 0 {
		return nil, apperrors.NewParsing(extractorName, fmt.Sprintf("card %d (%s): price element not found", i, name), nil)
	}
	price := strings.TrimSpace(priceSel.Text())

	var link string
	if href, exists := s.Find(c.Selectors.Link).First().Attr("href"); exists {
		link = helpers.ResolveURL(c.URL, href)
	}

	return &Listing{
		ID:       id,
		Name:     name,
		SizeSqFt: size,
		Price:    price,
		Link:     link,
	}, nil
}

// extractSize finds the first span holding a size marker such as
// <span aria-hidden="true">ft²</span> and parses the number before it.
func (c *ListingCrawler) extractSize(s *goquery.Selection) (int, error) {
	var (
		text  string
		found bool
	)
	s.Find(c.Selectors.SizeSpan).EachWithBreak(func(_ int, span *goquery.Selection) bool {
		marker := span.Find(c.Selectors.SizeMarker).First()
		if marker.Length() == 0 || !strings.Contains(marker.Text(), c.Selectors.SizeUnit) {
			return true
		}
		text = span.Text()
		found = true
		return false
	})
	if !found {
		return 0, fmt.Errorf("no element containing %q", c.Selectors.SizeUnit)
	}

	if c.Selectors.SizeLabel != "" {
		text, _, _ = strings.Cut(text, c.Selectors.SizeLabel)
	}
	text, _, _ = strings.Cut(text, c.Selectors.SizeUnit)

	size, err := helpers.LeadingInt(text)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", strings.TrimSpace(text), err)
	}
	return size, nil
}

func (c *ListingCrawler) extractID(s *goquery.Selection) (string, error) {
	carousel := s.Find(c.Selectors.Carousel).First()
	if carousel.Length() == 0 {
		return "", fmt.Errorf("%s not found", c.Selectors.Carousel)
	}
	id, _ := carousel.Attr(c.Selectors.IDAttr)
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%s attribute missing", c.Selectors.IDAttr)
	}
	if strings.IndexFunc(id, func(r rune) bool { return r < '0' || r > '9' }) != -1 {
		return "", fmt.Errorf("%s %q is not numeric", c.Selectors.IDAttr, id)
	}
	return id, nil
}
