package crawler

// FilterBySize keeps the listings with at least minSqFt square feet, in order
func FilterBySize(listings []Listing, minSqFt int) []Listing {
	kept := make([]Listing, 0, len(listings))
	for _, l := range listings {
		if l.SizeSqFt >= minSqFt {
			kept = append(kept, l)
		}
	}
	return kept
}
