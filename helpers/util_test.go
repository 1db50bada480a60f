package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeadingInt(t *testing.T) {
	testCases := []struct {
		input    string
		expected int
		wantErr  bool
	}{
		{input: "800", expected: 800},
		{input: " 1,250 ", expected: 1250},
		{input: "950 ft²", expected: 950},
		{input: "12,000square", expected: 12000},
		{input: "-", wantErr: true},
		{input: "", wantErr: true},
		{input: "N/A", wantErr: true},
	}

	for _, tc := range testCases {
		got, err := LeadingInt(tc.input)
		if tc.wantErr {
			assert.Error(t, err, tc.input)
			continue
		}
		assert.NoError(t, err, tc.input)
		assert.Equal(t, tc.expected, got, tc.input)
	}
}

func TestResolveURL(t *testing.T) {
	base := "https://streeteasy.com/for-rent/nyc?sort_by=listed_desc"
	assert.Equal(t, "https://streeteasy.com/building/the-example/4b", ResolveURL(base, "/building/the-example/4b"))
	assert.Equal(t, "https://other.example.com/x", ResolveURL(base, "https://other.example.com/x"))
	assert.Equal(t, "", ResolveURL(base, "  "))
}
