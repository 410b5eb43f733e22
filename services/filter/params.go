package filter

import (
	"net/url"
	"strconv"
	"strings"
)

// Query keys, in the order they are emitted.
const (
	KeyDate          = "date"
	KeyDateAfter     = "date_after"
	KeyDateBefore    = "date_before"
	KeyTagsInclude   = "tags_include"
	KeyTagsExclude   = "tags_exclude"
	KeyRadius        = "radius"
	KeyLocation      = "location"
	KeyUserLat       = "user_lat"
	KeyUserLon       = "user_lon"
	KeyAvailableOnly = "available_only"
	KeyShowOld       = "show_old"
	KeySortByDate    = "sort_by_date"
)

// Param is one key/value pair of the query.
type Param struct {
	Key   string
	Value string
}

// Params is an ordered parameter set. Unlike url.Values it keeps key order.
type Params []Param

// Params returns the canonical parameter set of f.
func (f Filter) Params() Params {
	f = f.Normalize()
	var p Params
	add := func(key, value string) {
		if value != "" {
			p = append(p, Param{Key: key, Value: value})
		}
	}
	if !f.Date.IsZero() {
		add(KeyDate, f.Date.String())
	}
	if !f.After.IsZero() {
		add(KeyDateAfter, f.After.String())
	}
	if !f.Before.IsZero() {
		add(KeyDateBefore, f.Before.String())
	}
	add(KeyTagsInclude, strings.Join(f.Include, ","))
	add(KeyTagsExclude, strings.Join(f.Exclude, ","))
	if f.Radius != 0 {
		add(KeyRadius, formatFloat(f.Radius))
	}
	add(KeyLocation, f.Location)
	if f.Coordinates != nil {
		add(KeyUserLat, formatFloat(f.Coordinates.Lat))
		add(KeyUserLon, formatFloat(f.Coordinates.Lon))
	}
	add(KeyAvailableOnly, formatBool(f.AvailableOnly))
	add(KeyShowOld, formatBool(f.ShowOld))
	add(KeySortByDate, formatBool(f.SortByDate))
	return p
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return ""
}

// Encode renders the set as a query string, without the leading "?".
func (p Params) Encode() string {
	var b strings.Builder
	for i, kv := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv.Value))
	}
	return b.String()
}

// Get returns the value of key.
func (p Params) Get(key string) (string, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// Values converts the set to url.Values.
func (p Params) Values() url.Values {
	v := make(url.Values, len(p))
	for _, kv := range p {
		v.Add(kv.Key, kv.Value)
	}
	return v
}
