package models

import (
	"fmt"
	"time"
)

type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Validate rejects empty and inverted ranges.
func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() || !r.Start.Before(r.End) {
		return ErrInvalidDateRange
	}
	return nil
}

func (r DateRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Contains reports whether t falls in [Start, End).
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Previous returns the equal-length range immediately before r.
func (r DateRange) Previous() DateRange {
	return DateRange{Start: r.Start.Add(-r.Duration()), End: r.Start}
}

const dateLayout = "2006-01-02"

// parseBound accepts RFC3339 or a calendar date in loc. A calendar date used
// as an end bound covers that whole day.
func parseBound(value string, loc *time.Location, end bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(dateLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a date", ErrInvalidParameter, value)
	}
	if end {
		t = t.AddDate(0, 0, 1)
	}
	return t, nil
}

// ParseDateRange resolves optional start and end values. A missing start
// means defaultDays before end, a missing end means now. With both missing it
// returns nil so callers fall back to their own default window.
func ParseDateRange(start, end string, now time.Time, loc *time.Location, defaultDays int) (*DateRange, error) {
	if start == "" && end == "" {
		return nil, nil
	}
	r := DateRange{End: now}
	var err error
	if end != "" {
		if r.End, err = parseBound(end, loc, true); err != nil {
			return nil, err
		}
	}
	if start != "" {
		if r.Start, err = parseBound(start, loc, false); err != nil {
			return nil, err
		}
	} else {
		r.Start = r.End.AddDate(0, 0, -defaultDays)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

type Summary struct {
	TotalOrders       int      `json:"totalOrders"`
	TotalRevenue      float64  `json:"totalRevenue"`
	AverageOrderValue float64  `json:"averageOrderValue"`
	ActiveRestaurants int      `json:"activeRestaurants"`
	OrderChangePct    *float64 `json:"orderChangePct"`
	RevenueChangePct  *float64 `json:"revenueChangePct"`
	AOVChangePct      *float64 `json:"aovChangePct"`
}

type HeatmapPeak struct {
	Day     int    `json:"day"`
	DayName string `json:"dayName"`
	Hour    int    `json:"hour"`
	Value   int    `json:"value"`
}

type Heatmap struct {
	Matrix [7][24]int  `json:"matrix"`
	Peak   HeatmapPeak `json:"peak"`
}

type CuisineStat struct {
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	OrderCount int     `json:"orderCount"`
	Revenue    float64 `json:"revenue"`
	Percentage float64 `json:"percentage"`
}

type PriceBucketStat struct {
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type RestaurantPin struct {
	Name    string  `json:"name"`
	Cuisine string  `json:"cuisine"`
	Volume  int     `json:"volume"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

type LeaderboardRow struct {
	Rank          int     `json:"rank"`
	Name          string  `json:"name"`
	Cuisine       string  `json:"cuisine"`
	Orders        int     `json:"orders"`
	Revenue       float64 `json:"revenue"`
	AvgOrderValue float64 `json:"avgOrderValue"`
	PriceRange    string  `json:"priceRange"`
	Rating        float64 `json:"rating"`
}

type DemandPoint struct {
	Date    string  `json:"date"`
	Orders  int     `json:"orders"`
	Revenue float64 `json:"revenue"`
}

type OrderTypeStat struct {
	Type       string  `json:"type"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type AnalyticsPayload struct {
	UsingFallback  bool              `json:"usingFallback"`
	Range          DateRange         `json:"range"`
	PreviousRange  DateRange         `json:"previousRange"`
	Summary        Summary           `json:"summary"`
	Heatmap        Heatmap           `json:"heatmap"`
	Cuisines       []CuisineStat     `json:"cuisines"`
	PriceBuckets   []PriceBucketStat `json:"priceBuckets"`
	RestaurantPins []RestaurantPin   `json:"restaurantPins"`
	Leaderboard    []LeaderboardRow  `json:"leaderboard"`
	DemandTrend    []DemandPoint     `json:"demandTrend"`
	OrderType      []OrderTypeStat   `json:"orderType"`
	Insights       []string          `json:"insights"`
	GeneratedAt    time.Time         `json:"generatedAt"`
}
