package crawler

import (
	"context"
	"net/http"
	"time"
)

// Listing represents one scraped rental listing. Only ID outlives a cycle.
type Listing struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	SizeSqFt int    `json:"sq_feet"`
	Price    string `json:"price"`
	Link     string `json:"link,omitempty"`
}

// Extraction is the result of parsing one listing page
type Extraction struct {
	// Cards is the number of listing cards found in the markup
	Cards int
	// Listings holds the cards that parsed cleanly, in page order
	Listings []Listing
	// Failures holds one parsing error per skipped card
	Failures []error
}

// Crawler interface defines the contract for listing page crawlers
type Crawler interface {
	// FetchListings retrieves and parses the configured listing page
	FetchListings(ctx context.Context) (*Extraction, error)

	// GetName returns the crawler's name for logging and identification
	GetName() string
}

// Selectors contains CSS selectors for the elements of a listing card
type Selectors struct {
	ListingCard string
	Title       string
	// SizeSpan is searched for a descendant matching SizeMarker whose text
	// contains SizeUnit; the SizeSpan text holds the square footage.
	SizeSpan   string
	SizeMarker string
	SizeUnit   string
	// SizeLabel is the screen reader suffix cut from the size text
	SizeLabel string
	Carousel  string
	IDAttr    string
	Price     string
	Link      string
}

// DefaultSelectors returns the selectors for StreetEasy search result pages
func DefaultSelectors() Selectors {
	return Selectors{
		ListingCard: "div.listingCard",
		Title:       "a.listingCard-link",
		SizeSpan:    "span",
		SizeMarker:  `span[aria-hidden="true"]`,
		SizeUnit:    "ft²",
		SizeLabel:   "square feet",
		Carousel:    "div.SRPCarousel-container",
		IDAttr:      "data-listing-id",
		Price:       "div.listingCardBottom-emphasis span.price.listingCard-priceMargin",
		Link:        "a.listingCard-globalLink.jsGlobalListingCardLink",
	}
}

// CrawlerConfig contains configuration for a crawler
type CrawlerConfig struct {
	URL       string
	Headers   map[string]string
	Client    *http.Client
	CacheKey  string
	BlockTime time.Duration
	Selectors Selectors
}
