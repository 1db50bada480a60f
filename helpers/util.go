package helpers

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
	"unicode"
)

// LeadingInt parses the integer at the start of s, ignoring thousands
// separators. "1,250 ft²" yields 1250.
func LeadingInt(s string) (int, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	if end == -1 {
		end = len(s)
	}
	if end == 0 {
		return 0, errors.New("no leading digits")
	}
	return strconv.Atoi(s[:end])
}

// ResolveURL resolves href against base; href is returned unchanged when
// either fails to parse.
func ResolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}
