package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/chrisdamba/foodlens/internal/geo"
	"github.com/chrisdamba/foodlens/internal/models"
)

const (
	// DefaultRangeDays is the trailing window used when no range is given.
	DefaultRangeDays = 30

	restaurantPinLimit = 50
	leaderboardLimit   = 20
)

type SortKey string

const (
	SortByRevenue    SortKey = "revenue"
	SortByOrders     SortKey = "orders"
	SortByPriceRange SortKey = "price_range"
)

// ParseSortKey maps a request value to a leaderboard ordering. Empty means
// revenue.
func ParseSortKey(value string) (SortKey, error) {
	switch normalizeText(value) {
	case "", string(SortByRevenue):
		return SortByRevenue, nil
	case string(SortByOrders):
		return SortByOrders, nil
	case string(SortByPriceRange), "pricerange", "price-range":
		return SortByPriceRange, nil
	}
	return "", fmt.Errorf("%w: unknown sort key %q", models.ErrInvalidParameter, value)
}

type Filters struct {
	Category        string
	FulfillmentType models.FulfillmentType
	Center          *models.Location
	RadiusKm        float64
}

// Validate checks the radius filter. A center without a positive radius is
// rejected rather than silently ignored.
func (f Filters) Validate() error {
	if f.Center == nil {
		return nil
	}
	if !f.Center.Point().Valid() {
		return models.ErrInvalidCoordinates
	}
	if math.IsNaN(f.RadiusKm) || math.IsInf(f.RadiusKm, 0) || f.RadiusKm <= 0 {
		return fmt.Errorf("%w: radiusKm must be a positive number", models.ErrInvalidParameter)
	}
	return nil
}

func (f Filters) match(order models.ParsedOrder) bool {
	if !ParseCategoryFilter(f.Category).Matches(order.Category) {
		return false
	}
	if f.FulfillmentType != "" && order.FulfillmentType != f.FulfillmentType {
		return false
	}
	if f.Center != nil && f.RadiusKm > 0 {
		return geo.IsWithinRadius(f.Center.Lat, f.Center.Lng, order.ShippingLat, order.ShippingLng, f.RadiusKm)
	}
	return true
}

type Options struct {
	// Now anchors the default range. Zero means time.Now().
	Now time.Time
	// Range overrides the trailing DefaultRangeDays window.
	Range   *models.DateRange
	Filters Filters
	SortBy  SortKey
	// Location is the zone used for weekday, hour and calendar-day buckets.
	// Nil means time.Local.
	Location *time.Location
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.Local
	}
	return o.Location
}

// resolveRange returns the current and comparison windows.
func (o Options) resolveRange() (models.DateRange, error) {
	if o.Range != nil {
		if err := o.Range.Validate(); err != nil {
			return models.DateRange{}, err
		}
		return *o.Range, nil
	}
	now := o.Now
	if now.IsZero() {
		now = time.Now()
	}
	return models.DateRange{Start: now.AddDate(0, 0, -DefaultRangeDays), End: now}, nil
}

// ComputeAnalyticsFromRaw parses raw records in opts.Location and computes
// the dashboard payload.
func ComputeAnalyticsFromRaw(raw []any, opts Options) (models.AnalyticsPayload, error) {
	return ComputeAnalytics(NewParser(opts.location()).Parse(raw), opts)
}

// ComputeAnalytics builds the dashboard payload for the orders that match
// opts. It only fails on invalid options.
func ComputeAnalytics(orders []models.ParsedOrder, opts Options) (models.AnalyticsPayload, error) {
	current, err := opts.resolveRange()
	if err != nil {
		return models.AnalyticsPayload{}, err
	}
	if err := opts.Filters.Validate(); err != nil {
		return models.AnalyticsPayload{}, err
	}
	sortBy := opts.SortBy
	if sortBy == "" {
		sortBy = SortByRevenue
	}
	loc := opts.location()
	previous := current.Previous()

	var recent, prior []models.ParsedOrder
	for _, order := range orders {
		if !opts.Filters.match(order) {
			continue
		}
		switch {
		case current.Contains(order.CompletedAt):
			recent = append(recent, order)
		case previous.Contains(order.CompletedAt):
			prior = append(prior, order)
		}
	}

	stores := AggregateStores(recent)
	heatmap := computeHeatmap(recent, loc)
	cuisines := computeCuisines(recent)
	buckets := computePriceBuckets(recent)
	orderType := computeOrderType(recent)

	generatedAt := opts.Now
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}

	return models.AnalyticsPayload{
		UsingFallback:  len(recent) == 0,
		Range:          current,
		PreviousRange:  previous,
		Summary:        computeSummary(recent, prior, len(stores)),
		Heatmap:        heatmap,
		Cuisines:       cuisines,
		PriceBuckets:   buckets,
		RestaurantPins: computeRestaurantPins(stores),
		Leaderboard:    computeLeaderboard(stores, sortBy),
		DemandTrend:    computeDemandTrend(recent, current, loc),
		OrderType:      orderType,
		Insights:       computeInsights(len(recent), cuisines, heatmap, buckets, orderType, len(stores)),
		GeneratedAt:    generatedAt,
	}, nil
}

func sumTotals(orders []models.ParsedOrder) float64 {
	var sum float64
	for _, order := range orders {
		sum += order.Total
	}
	return sum
}

func averageOf(sum float64, count int) float64 {
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func computeSummary(recent, prior []models.ParsedOrder, activeStores int) models.Summary {
	revenue := sumTotals(recent)
	priorRevenue := sumTotals(prior)
	aov := averageOf(revenue, len(recent))
	priorAOV := averageOf(priorRevenue, len(prior))

	return models.Summary{
		TotalOrders:       len(recent),
		TotalRevenue:      round2(revenue),
		AverageOrderValue: round2(aov),
		ActiveRestaurants: activeStores,
		OrderChangePct:    PercentChange(float64(len(recent)), float64(len(prior))),
		RevenueChangePct:  PercentChange(revenue, priorRevenue),
		AOVChangePct:      PercentChange(aov, priorAOV),
	}
}

// computeHeatmap counts orders per local weekday (Sunday = 0) and hour. The
// peak is the first maximum in row-major order.
func computeHeatmap(orders []models.ParsedOrder, loc *time.Location) models.Heatmap {
	var h models.Heatmap
	for _, order := range orders {
		t := order.CompletedAt.In(loc)
		h.Matrix[t.Weekday()][t.Hour()]++
	}
	h.Peak.DayName = models.DayLabels[0]
	for day := range h.Matrix {
		for hour, value := range h.Matrix[day] {
			if value > h.Peak.Value {
				h.Peak = models.HeatmapPeak{Day: day, DayName: models.DayLabels[day], Hour: hour, Value: value}
			}
		}
	}
	return h
}

// computeCuisines returns every category seen, unresolved ones included under
// Unclassified. Truncation is left to the presentation layer.
func computeCuisines(orders []models.ParsedOrder) []models.CuisineStat {
	type bucket struct {
		count   int
		revenue float64
	}
	totals := make(map[models.Category]*bucket)
	for _, order := range orders {
		c := order.Category
		if c == "" {
			c = models.CategoryUnknown
		}
		b, ok := totals[c]
		if !ok {
			b = &bucket{}
			totals[c] = b
		}
		b.count++
		b.revenue += order.Total
	}

	stats := make([]models.CuisineStat, 0, len(totals))
	for c, b := range totals {
		stats = append(stats, models.CuisineStat{
			Name:       c.DisplayName(),
			Category:   string(c),
			OrderCount: b.count,
			Revenue:    round2(b.revenue),
			Percentage: percentOf(b.count, len(orders)),
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].OrderCount != stats[j].OrderCount {
			return stats[i].OrderCount > stats[j].OrderCount
		}
		return stats[i].Name < stats[j].Name
	})
	return stats
}

type priceBucket struct {
	label string
	min   float64
	// max is exclusive; zero means unbounded.
	max float64
}

var priceBuckets = []priceBucket{
	{label: "Under $15", min: 0, max: 15},
	{label: "$15-30", min: 15, max: 30},
	{label: "$30-50", min: 30, max: 50},
	{label: "$50-75", min: 50, max: 75},
	{label: "$75+", min: 75},
}

func priceBucketIndex(total float64) int {
	for i, b := range priceBuckets {
		if b.max == 0 || total < b.max {
			return i
		}
	}
	return len(priceBuckets) - 1
}

func computePriceBuckets(orders []models.ParsedOrder) []models.PriceBucketStat {
	counts := make([]int, len(priceBuckets))
	for _, order := range orders {
		counts[priceBucketIndex(order.Total)]++
	}
	stats := make([]models.PriceBucketStat, len(priceBuckets))
	for i, b := range priceBuckets {
		stats[i] = models.PriceBucketStat{
			Label:      b.label,
			Count:      counts[i],
			Percentage: percentOf(counts[i], len(orders)),
		}
	}
	return stats
}

func roundCoordinate(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

func computeRestaurantPins(stores []models.StoreSummary) []models.RestaurantPin {
	ranked := make([]models.StoreSummary, 0, len(stores))
	for _, s := range stores {
		if s.Location().Point().Valid() {
			ranked = append(ranked, s)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].OrderCount > ranked[j].OrderCount
	})
	if len(ranked) > restaurantPinLimit {
		ranked = ranked[:restaurantPinLimit]
	}

	pins := make([]models.RestaurantPin, len(ranked))
	for i, s := range ranked {
		pins[i] = models.RestaurantPin{
			Name:    s.Name,
			Cuisine: s.Category.DisplayName(),
			Volume:  s.OrderCount,
			Lat:     roundCoordinate(s.Lat),
			Lng:     roundCoordinate(s.Lng),
		}
	}
	return pins
}

// PriceRange buckets an average ticket into one to five dollar signs.
func PriceRange(avgOrderValue float64) string {
	switch {
	case avgOrderValue <= 15:
		return "$"
	case avgOrderValue <= 30:
		return "$$"
	case avgOrderValue <= 50:
		return "$$$"
	case avgOrderValue <= 75:
		return "$$$$"
	default:
		return "$$$$$"
	}
}

// storeRating prefers ratings carried by the source and otherwise estimates
// one from volume and ticket size.
func storeRating(s models.StoreSummary) float64 {
	if s.Rating != nil {
		return round1(*s.Rating)
	}
	orderFactor := clamp(float64(s.OrderCount)/150, 0, 0.8)
	valueFactor := clamp(s.AvgOrderValue/80, 0, 0.6)
	return round1(clamp(4+orderFactor+valueFactor, 3.6, 4.9))
}

func computeLeaderboard(stores []models.StoreSummary, sortBy SortKey) []models.LeaderboardRow {
	ranked := make([]models.StoreSummary, 0, len(stores))
	for _, s := range stores {
		if s.OrderCount > 0 {
			ranked = append(ranked, s)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		switch sortBy {
		case SortByOrders:
			if a.OrderCount != b.OrderCount {
				return a.OrderCount > b.OrderCount
			}
			return a.TotalRevenue > b.TotalRevenue
		case SortByPriceRange:
			pa, pb := len(PriceRange(a.AvgOrderValue)), len(PriceRange(b.AvgOrderValue))
			if pa != pb {
				return pa > pb
			}
			return a.TotalRevenue > b.TotalRevenue
		default:
			if a.TotalRevenue != b.TotalRevenue {
				return a.TotalRevenue > b.TotalRevenue
			}
			return a.OrderCount > b.OrderCount
		}
	})
	if len(ranked) > leaderboardLimit {
		ranked = ranked[:leaderboardLimit]
	}

	rows := make([]models.LeaderboardRow, len(ranked))
	for i, s := range ranked {
		rows[i] = models.LeaderboardRow{
			Rank:          i + 1,
			Name:          s.Name,
			Cuisine:       s.Category.DisplayName(),
			Orders:        s.OrderCount,
			Revenue:       s.TotalRevenue,
			AvgOrderValue: s.AvgOrderValue,
			PriceRange:    PriceRange(s.AvgOrderValue),
			Rating:        storeRating(s),
		}
	}
	return rows
}

// computeDemandTrend emits one point per calendar day, zero days included,
// ending on the day that contains the last instant of the range.
func computeDemandTrend(orders []models.ParsedOrder, r models.DateRange, loc *time.Location) []models.DemandPoint {
	const layout = "2006-01-02"

	type bucket struct {
		orders  int
		revenue float64
	}
	byDay := make(map[string]*bucket)
	for _, order := range orders {
		key := order.CompletedAt.In(loc).Format(layout)
		b, ok := byDay[key]
		if !ok {
			b = &bucket{}
			byDay[key] = b
		}
		b.orders++
		b.revenue += order.Total
	}

	days := int(math.Ceil(r.Duration().Hours() / 24))
	if days < 1 {
		days = 1
	}
	last := r.End.Add(-time.Nanosecond).In(loc)

	points := make([]models.DemandPoint, days)
	for i := 0; i < days; i++ {
		day := time.Date(last.Year(), last.Month(), last.Day()-(days-1-i), 0, 0, 0, 0, loc)
		key := day.Format(layout)
		p := models.DemandPoint{Date: key}
		if b, ok := byDay[key]; ok {
			p.Orders = b.orders
			p.Revenue = round2(b.revenue)
		}
		points[i] = p
	}
	return points
}

// computeOrderType always returns delivery then pickup. Pickup takes the
// remainder so the two percentages add up to 100.
func computeOrderType(orders []models.ParsedOrder) []models.OrderTypeStat {
	var delivery, pickup int
	for _, order := range orders {
		if order.FulfillmentType == models.FulfillmentPickup {
			pickup++
		} else {
			delivery++
		}
	}
	total := delivery + pickup
	deliveryPct := percentOf(delivery, total)
	pickupPct := 0.0
	if total > 0 {
		pickupPct = round2(100 - deliveryPct)
	}
	return []models.OrderTypeStat{
		{Type: "Delivery", Count: delivery, Percentage: deliveryPct},
		{Type: "Pickup", Count: pickup, Percentage: pickupPct},
	}
}
