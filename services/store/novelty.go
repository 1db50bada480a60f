package store

import "sjsage522/aptwatcher/internal/crawler"

// IDsOf returns the ids of listings
func IDsOf(listings []crawler.Listing) IDSet {
	ids := make(IDSet, len(listings))
	for _, l := range listings {
		ids.Add(l.ID)
	}
	return ids
}

// NewEntries returns the listings whose id is not in seen, in page order.
// A listing repeated on the page is returned once.
func NewEntries(current []crawler.Listing, seen IDSet) []crawler.Listing {
	fresh := IDsOf(current).Difference(seen)

	entries := make([]crawler.Listing, 0, len(fresh))
	for _, l := range current {
		if !fresh.Contains(l.ID) {
			continue
		}
		entries = append(entries, l)
		delete(fresh, l.ID)
	}
	return entries
}
