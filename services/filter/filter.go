// Package filter builds the query string the backend search endpoint reads
// and parses it back.
//
// Dates are calendar dates. A time.Time is reduced to the date its own
// location shows, so June 5 stays June 5 in every zone.
package filter

import (
	"math"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// DefaultRadius is the browse radius in miles.
const DefaultRadius = 10

// LatLon is a geo center.
type LatLon struct {
	Lat float64
	Lon float64
}

// Filter is one set of browse selections. Zero values mean "not set".
type Filter struct {
	Date          civil.Date
	After         civil.Date
	Before        civil.Date
	Include       []string
	Exclude       []string
	Radius        float64
	Location      string
	Coordinates   *LatLon
	AvailableOnly bool
	ShowOld       bool
	SortByDate    bool
}

// Default is the filter the browse page starts with.
func Default() Filter {
	return Filter{Radius: DefaultRadius, SortByDate: true}
}

// DateOf returns the calendar date t shows in its own location.
func DateOf(t time.Time) civil.Date {
	return civil.DateOf(t)
}

// Normalize returns the canonical form of f: tags split on commas, trimmed,
// deduplicated and sorted, empty tag sets nil, location trimmed. A negative or
// non-finite radius is dropped, as are coordinates outside ±90/±180.
func (f Filter) Normalize() Filter {
	f.Include = normalizeTags(f.Include)
	f.Exclude = normalizeTags(f.Exclude)
	f.Location = strings.TrimSpace(f.Location)
	if f.Radius < 0 || math.IsNaN(f.Radius) || math.IsInf(f.Radius, 0) {
		f.Radius = 0
	}
	if f.Coordinates != nil {
		c := *f.Coordinates
		f.Coordinates = &c
		if !inRange(c.Lat, 90) || !inRange(c.Lon, 180) {
			f.Coordinates = nil
		}
	}
	return f
}

func inRange(v, limit float64) bool {
	return !math.IsNaN(v) && math.Abs(v) <= limit
}

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	var out []string
	for _, raw := range tags {
		for _, t := range strings.Split(raw, ",") {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// Equal reports whether two filters select the same thing once normalized.
func (f Filter) Equal(g Filter) bool {
	a, b := f.Normalize(), g.Normalize()
	if a.Date != b.Date || a.After != b.After || a.Before != b.Before {
		return false
	}
	if a.Radius != b.Radius || a.Location != b.Location {
		return false
	}
	if a.AvailableOnly != b.AvailableOnly || a.ShowOld != b.ShowOld || a.SortByDate != b.SortByDate {
		return false
	}
	if (a.Coordinates == nil) != (b.Coordinates == nil) {
		return false
	}
	if a.Coordinates != nil && *a.Coordinates != *b.Coordinates {
		return false
	}
	return equalTags(a.Include, b.Include) && equalTags(a.Exclude, b.Exclude)
}

func equalTags(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Apply normalizes f and hands its parameters to fn.
func Apply(f Filter, fn func(Params)) {
	fn(f.Params())
}

// Encode is shorthand for f.Params().Encode().
func Encode(f Filter) string {
	return f.Params().Encode()
}
