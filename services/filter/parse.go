package filter

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// ParamError reports one query parameter that could not be read.
type ParamError struct {
	Key   string
	Value string
	Err   error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("filter: invalid %s %q: %v", e.Key, e.Value, e.Err)
}

func (e *ParamError) Unwrap() error { return e.Err }

var (
	errNegative    = errors.New("must not be negative")
	errOutOfRange  = errors.New("out of range")
	errMissingPair = errors.New("user_lat and user_lon must be given together")
	errBadBool     = errors.New("must be true or false")
)

// Parse reads a query string produced by Encode, or written by hand.
func Parse(query string) (Filter, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(query, "?"))
	if err != nil {
		return Filter{}, &ParamError{Key: "query", Value: query, Err: err}
	}
	return ParseValues(values)
}

// ParseValues reads a filter from decoded query values. Unknown keys are ignored.
func ParseValues(values url.Values) (Filter, error) {
	var f Filter
	var err error

	if f.Date, err = dateParam(values, KeyDate); err != nil {
		return Filter{}, err
	}
	if f.After, err = dateParam(values, KeyDateAfter); err != nil {
		return Filter{}, err
	}
	if f.Before, err = dateParam(values, KeyDateBefore); err != nil {
		return Filter{}, err
	}
	f.Include = splitTags(values.Get(KeyTagsInclude))
	f.Exclude = splitTags(values.Get(KeyTagsExclude))

	if raw := values.Get(KeyRadius); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(r) || math.IsInf(r, 0) {
			return Filter{}, &ParamError{Key: KeyRadius, Value: raw, Err: orRange(err)}
		}
		if r < 0 {
			return Filter{}, &ParamError{Key: KeyRadius, Value: raw, Err: errNegative}
		}
		f.Radius = r
	}
	f.Location = strings.TrimSpace(values.Get(KeyLocation))

	latRaw, lonRaw := values.Get(KeyUserLat), values.Get(KeyUserLon)
	switch {
	case latRaw != "" && lonRaw != "":
		lat, err := coordinate(KeyUserLat, latRaw, 90)
		if err != nil {
			return Filter{}, err
		}
		lon, err := coordinate(KeyUserLon, lonRaw, 180)
		if err != nil {
			return Filter{}, err
		}
		f.Coordinates = &LatLon{Lat: lat, Lon: lon}
	case latRaw != "":
		return Filter{}, &ParamError{Key: KeyUserLon, Err: errMissingPair}
	case lonRaw != "":
		return Filter{}, &ParamError{Key: KeyUserLat, Err: errMissingPair}
	}

	if f.AvailableOnly, err = boolParam(values, KeyAvailableOnly); err != nil {
		return Filter{}, err
	}
	if f.ShowOld, err = boolParam(values, KeyShowOld); err != nil {
		return Filter{}, err
	}
	if f.SortByDate, err = boolParam(values, KeySortByDate); err != nil {
		return Filter{}, err
	}
	return f.Normalize(), nil
}

// dateParam accepts YYYY-MM-DD and, for links built by older clients, a full
// RFC 3339 timestamp whose date is read in its own offset.
func dateParam(values url.Values, key string) (civil.Date, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return civil.Date{}, nil
	}
	if d, err := civil.ParseDate(raw); err == nil {
		return d, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return civil.Date{}, &ParamError{Key: key, Value: raw, Err: errors.New("want YYYY-MM-DD")}
	}
	return civil.DateOf(t), nil
}

func boolParam(values url.Values, key string) (bool, error) {
	raw := values.Get(key)
	if raw == "" {
		return false, nil
	}
	switch strings.ToLower(raw) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return false, &ParamError{Key: key, Value: raw, Err: errBadBool}
}

func coordinate(key, raw string, limit float64) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || !inRange(v, limit) {
		return 0, &ParamError{Key: key, Value: raw, Err: orRange(err)}
	}
	return v, nil
}

func orRange(err error) error {
	var ne *strconv.NumError
	if errors.As(err, &ne) {
		return ne.Err
	}
	return errOutOfRange
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	return normalizeTags([]string{raw})
}
