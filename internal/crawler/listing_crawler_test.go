package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "sjsage522/aptwatcher/pkg/errors"
)

type cardFixture struct {
	name   string
	size   string // empty omits the size span
	id     string // empty omits the carousel
	price  string // empty omits the price element
	href   string
	noName bool
}

func (f cardFixture) html() string {
	var b strings.Builder
	b.WriteString(`<div class="listingCard">`)
	if f.id != "" {
		fmt.Fprintf(&b, `<div class="SRPCarousel-container" data-listing-id="%s"></div>`, f.id)
	}
	if !f.noName {
		fmt.Fprintf(&b, `<a class="listingCard-link" href="/building/x"> %s </a>`, f.name)
	}
	b.WriteString(`<div class="listingDetailDefinitions"><span>2 beds</span>`)
	if f.size != "" {
		fmt.Fprintf(&b, `<span>%s <span aria-hidden="true">ft²</span><span class="u-hidden">square feet</span></span>`, f.size)
	}
	b.WriteString(`</div>`)
	if f.price != "" {
		fmt.Fprintf(&b, `<div class="listingCardBottom-emphasis"><span class="price listingCard-priceMargin"> %s </span></div>`, f.price)
	}
	if f.href != "" {
		fmt.Fprintf(&b, `<a class="listingCard-globalLink jsGlobalListingCardLink" href="%s"></a>`, f.href)
	}
	b.WriteString(`</div>`)
	return b.String()
}

func page(cards ...cardFixture) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><body><ul class="searchCardList">`)
	for _, c := range cards {
		b.WriteString("<li>" + c.html() + "</li>")
	}
	b.WriteString(`</ul></body></html>`)
	return b.String()
}

func newTestCrawler(url string) *ListingCrawler {
	return NewListingCrawler(CrawlerConfig{URL: url}, nil)
}

func TestExtract(t *testing.T) {
	html := page(
		cardFixture{name: "225 East 34th Street #4B", size: "1,100", id: "4512001", price: "$4,950", href: "/building/225-east-34th/4b"},
		cardFixture{name: "10 Hanover Square #12F", size: "640", id: "4512002", price: "$3,700"},
	)

	c := newTestCrawler("https://streeteasy.com/for-rent/nyc")
	result, err := c.Extract(strings.NewReader(html))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Cards)
	assert.Empty(t, result.Failures)
	require.Len(t, result.Listings, 2)

	assert.Equal(t, Listing{
		ID:       "4512001",
		Name:     "225 East 34th Street #4B",
		SizeSqFt: 1100,
		Price:    "$4,950",
		Link:     "https://streeteasy.com/building/225-east-34th/4b",
	}, result.Listings[0])

	assert.Equal(t, "4512002", result.Listings[1].ID)
	assert.Equal(t, 640, result.Listings[1].SizeSqFt)
	assert.Equal(t, "", result.Listings[1].Link, "a missing link is valid")
}

func TestExtractMissingSizeSkipsOnlyThatCard(t *testing.T) {
	html := page(
		cardFixture{name: "A", size: "900", id: "100", price: "$3,000"},
		cardFixture{name: "B", id: "101", price: "$3,100"},
		cardFixture{name: "C", size: "800", id: "102", price: "$3,200"},
	)

	result, err := newTestCrawler("https://streeteasy.com/").Extract(strings.NewReader(html))
	require.NoError(t, err)

	require.Len(t, result.Listings, 2)
	assert.Equal(t, "100", result.Listings[0].ID)
	assert.Equal(t, "102", result.Listings[1].ID)
	require.Len(t, result.Failures, 1)
	assert.True(t, apperrors.IsParsing(result.Failures[0]))
	assert.Contains(t, result.Failures[0].Error(), "square footage")
}

func TestExtractNeverReusesPreviousCardValues(t *testing.T) {
	// the second card has neither size nor id; nothing from the first card may leak into it
	html := page(
		cardFixture{name: "A", size: "900", id: "100", price: "$3,000"},
		cardFixture{name: "B", price: "$3,100"},
		cardFixture{name: "C", size: "950", price: "$3,200"},
	)

	result, err := newTestCrawler("https://streeteasy.com/").Extract(strings.NewReader(html))
	require.NoError(t, err)

	require.Len(t, result.Listings, 1)
	assert.Equal(t, "100", result.Listings[0].ID)
	assert.Len(t, result.Failures, 2)
	assert.Contains(t, result.Failures[1].Error(), "listing id")
}

func TestExtractMissingPriceIsPerCardFailure(t *testing.T) {
	html := page(
		cardFixture{name: "A", size: "900", id: "100"},
		cardFixture{name: "B", size: "900", id: "101", price: "$3,100"},
	)

	result, err := newTestCrawler("https://streeteasy.com/").Extract(strings.NewReader(html))
	require.NoError(t, err)

	require.Len(t, result.Listings, 1)
	assert.Equal(t, "101", result.Listings[0].ID)
	require.Len(t, result.Failures, 1)
	assert.Contains(t, result.Failures[0].Error(), "price")
}

func TestExtractUnknownNameAndBadID(t *testing.T) {
	html := page(
		cardFixture{noName: true, size: "760", id: "200", price: "$2,900"},
		cardFixture{name: "Bad", size: "760", id: "abc", price: "$2,900"},
	)

	result, err := newTestCrawler("https://streeteasy.com/").Extract(strings.NewReader(html))
	require.NoError(t, err)

	require.Len(t, result.Listings, 1)
	assert.Equal(t, UnknownName, result.Listings[0].Name)
	require.Len(t, result.Failures, 1)
	assert.Contains(t, result.Failures[0].Error(), "not numeric")
}

func TestExtractRejectsNonASCIIDigitIDs(t *testing.T) {
	html := page(
		cardFixture{name: "Arabic-Indic", size: "800", id: "١٢٣", price: "$3,000"},
		cardFixture{name: "Fullwidth", size: "800", id: "４５６", price: "$3,000"},
		cardFixture{name: "Plain", size: "800", id: "789", price: "$3,000"},
	)

	result, err := newTestCrawler("https://streeteasy.com/").Extract(strings.NewReader(html))
	require.NoError(t, err)

	require.Len(t, result.Listings, 1)
	assert.Equal(t, "789", result.Listings[0].ID)
	require.Len(t, result.Failures, 2)
	for _, failure := range result.Failures {
		assert.True(t, apperrors.IsParsing(failure))
		assert.Contains(t, failure.Error(), "not numeric")
	}
}

func TestExtractUnparsableSize(t *testing.T) {
	html := page(cardFixture{name: "A", size: "-", id: "300", price: "$2,000"})

	result, err := newTestCrawler("https://streeteasy.com/").Extract(strings.NewReader(html))
	require.NoError(t, err)

	assert.Empty(t, result.Listings)
	require.Len(t, result.Failures, 1)
	assert.True(t, apperrors.IsParsing(result.Failures[0]))
}

func TestExtractNoCards(t *testing.T) {
	result, err := newTestCrawler("https://streeteasy.com/").Extract(strings.NewReader("<html><body>No results</body></html>"))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Cards)
	assert.Empty(t, result.Listings)
	assert.Empty(t, result.Failures)
}

func TestFetchListings(t *testing.T) {
	html := page(cardFixture{name: "A", size: "1,200", id: "400", price: "$5,000", href: "/rental/400"})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "aptwatcher", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(html))
	}))
	defer server.Close()

	c := NewListingCrawler(CrawlerConfig{
		URL:     server.URL + "/for-rent/nyc",
		Headers: map[string]string{"User-Agent": "aptwatcher"},
		Client:  server.Client(),
	}, nil)

	result, err := c.FetchListings(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Listings, 1)
	assert.Equal(t, server.URL+"/rental/400", result.Listings[0].Link)
	assert.Equal(t, "ListingCrawler", c.GetName())
}

func TestFetchListingsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	c := NewListingCrawler(CrawlerConfig{URL: server.URL, Client: server.Client()}, nil)

	_, err := c.FetchListings(context.Background())
	assert.True(t, apperrors.IsNetwork(err))
}
