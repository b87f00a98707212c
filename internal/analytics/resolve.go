package analytics

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/chrisdamba/foodlens/internal/geo"
)

// fieldPath is a sequence of object keys from the record root.
type fieldPath []string

// lookup follows p through nested objects. Missing keys, nulls and non-object
// intermediates all resolve to "absent".
func lookup(rec map[string]any, p fieldPath) (any, bool) {
	var cur any = rec
	for _, key := range p {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// firstValid tries every candidate path in order and returns the first value
// that conv accepts.
func firstValid[T any](rec map[string]any, paths []fieldPath, conv func(any) (T, bool)) (T, bool) {
	for _, p := range paths {
		raw, ok := lookup(rec, p)
		if !ok {
			continue
		}
		if v, ok := conv(raw); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func asNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func asObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asArray(v any) ([]any, bool) {
	a, ok := v.([]any)
	return a, ok
}

// asPoint accepts a GeoJSON [lng, lat] pair or an object carrying
// lat/lng, lat/lon or latitude/longitude members.
func asPoint(v any) (geo.Point, bool) {
	var p geo.Point
	switch c := v.(type) {
	case []any:
		if len(c) < 2 {
			return p, false
		}
		lng, okLng := asNumber(c[0])
		lat, okLat := asNumber(c[1])
		if !okLng || !okLat {
			return p, false
		}
		p = geo.Point{Lat: lat, Lng: lng}
	case map[string]any:
		lat, okLat := firstValid(c, []fieldPath{{"lat"}, {"latitude"}}, asNumber)
		lng, okLng := firstValid(c, []fieldPath{{"lng"}, {"lon"}, {"long"}, {"longitude"}}, asNumber)
		if !okLng || !okLat {
			return p, false
		}
		p = geo.Point{Lat: lat, Lng: lng}
	default:
		return p, false
	}
	return p, p.Valid()
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// unix timestamps above this are treated as milliseconds (year 2286 in seconds).
const unixMillisThreshold = 1e10

// minStringEpoch is the smallest numeric string read as a unix timestamp
// (2000-01-01). Shorter digit runs such as "20240615" are not timestamps.
const minStringEpoch = 946684800

// timeParser returns a converter that parses the supported timestamp shapes.
// Zone-less layouts are interpreted in loc; every result is converted to loc.
func timeParser(loc *time.Location) func(any) (time.Time, bool) {
	return func(v any) (time.Time, bool) {
		if s, ok := v.(string); ok {
			s = strings.TrimSpace(s)
			if s == "" {
				return time.Time{}, false
			}
			for _, layout := range timestampLayouts {
				if t, err := time.ParseInLocation(layout, s, loc); err == nil {
					return t.In(loc), true
				}
			}
			if n, ok := asNumber(s); !ok || n < minStringEpoch {
				return time.Time{}, false
			}
		}
		n, ok := asNumber(v)
		if !ok || n <= 0 {
			return time.Time{}, false
		}
		if n >= unixMillisThreshold {
			return time.UnixMilli(int64(n)).In(loc), true
		}
		sec, frac := math.Modf(n)
		return time.Unix(int64(sec), int64(frac*1e9)).In(loc), true
	}
}
