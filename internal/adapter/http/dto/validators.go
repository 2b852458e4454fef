package dto

import (
	"fmt"
	"time"
)

// dateLayouts are the accepted formats for the from/to listing filters.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// ParseDateBound parses a listing date filter. An empty value yields nil.
// A bare date used as an upper bound is pushed to end of day so the
// bound stays inclusive.
func ParseDateBound(value string, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		if endOfDay && layout == "2006-01-02" {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return &t, nil
	}
	return nil, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC 3339", value)
}
