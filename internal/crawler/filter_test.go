package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterBySize(t *testing.T) {
	listings := []Listing{
		{ID: "1", SizeSqFt: 749},
		{ID: "2", SizeSqFt: 750},
		{ID: "3", SizeSqFt: 1200},
		{ID: "4", SizeSqFt: 0},
	}

	kept := FilterBySize(listings, 750)
	assert.Equal(t, []Listing{{ID: "2", SizeSqFt: 750}, {ID: "3", SizeSqFt: 1200}}, kept)

	// included iff size >= threshold, for every threshold
	for _, threshold := range []int{0, 1, 749, 750, 751, 1200, 5000} {
		kept := FilterBySize(listings, threshold)
		keptIDs := map[string]bool{}
		for _, l := range kept {
			keptIDs[l.ID] = true
		}
		for _, l := range listings {
			assert.Equal(t, l.SizeSqFt >= threshold, keptIDs[l.ID], "threshold %d id %s", threshold, l.ID)
		}
	}

	assert.Empty(t, FilterBySize(nil, 750))
}
