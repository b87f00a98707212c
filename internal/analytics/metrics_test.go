package analytics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chrisdamba/foodlens/internal/models"
)

var now = time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC)

func orderAt(store string, total float64, at time.Time) models.ParsedOrder {
	o := testOrder(store, total, center.Lat, center.Lng)
	o.CompletedAt = at
	return o
}

func analyze(t *testing.T, orders []models.ParsedOrder, opts Options) models.AnalyticsPayload {
	t.Helper()
	if opts.Now.IsZero() {
		opts.Now = now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	payload, err := ComputeAnalytics(orders, opts)
	if err != nil {
		t.Fatalf("ComputeAnalytics: %v", err)
	}
	return payload
}

func TestPercentChange(t *testing.T) {
	tests := []struct {
		current, previous float64
		want              *float64
	}{
		{100, 0, nil},
		{0, 0, nil},
		{1, nan(), nil},
		{inf(), 1, nil},
		{150, 100, ptr(50)},
		{50, 100, ptr(-50)},
		{10, 3, ptr(233.33)},
	}
	for _, tt := range tests {
		got := PercentChange(tt.current, tt.previous)
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("PercentChange(%v, %v) = %v, want nil", tt.current, tt.previous, *got)
		case tt.want != nil && (got == nil || *got != *tt.want):
			t.Errorf("PercentChange(%v, %v) = %v, want %v", tt.current, tt.previous, got, *tt.want)
		}
	}
}

func TestComputeAnalyticsSaturdayHeatmap(t *testing.T) {
	payload := analyze(t, []models.ParsedOrder{orderAt("Corner Spot", 20, testTime)}, Options{})

	if payload.Heatmap.Matrix[6][18] != 1 {
		t.Fatalf("Saturday 18:00 cell = %d, want 1", payload.Heatmap.Matrix[6][18])
	}
	total := 0
	for _, row := range payload.Heatmap.Matrix {
		for _, v := range row {
			total += v
		}
	}
	if total != 1 {
		t.Fatalf("heatmap total = %d, want 1", total)
	}
	peak := payload.Heatmap.Peak
	if peak.Day != 6 || peak.Hour != 18 || peak.Value != 1 || peak.DayName != "Saturday" {
		t.Fatalf("peak = %+v", peak)
	}
}

func TestComputeAnalyticsNullChangeWithoutPriorRevenue(t *testing.T) {
	payload := analyze(t, []models.ParsedOrder{orderAt("Corner Spot", 100, testTime)}, Options{})
	if payload.Summary.RevenueChangePct != nil {
		t.Fatalf("RevenueChangePct = %v, want nil", *payload.Summary.RevenueChangePct)
	}
	if payload.Summary.OrderChangePct != nil || payload.Summary.AOVChangePct != nil {
		t.Fatal("expected no comparison without prior orders")
	}
	if payload.Summary.TotalRevenue != 100 {
		t.Fatalf("TotalRevenue = %v", payload.Summary.TotalRevenue)
	}
}

func TestComputeAnalyticsSummaryDeltas(t *testing.T) {
	priorTime := now.AddDate(0, 0, -45)
	orders := []models.ParsedOrder{
		orderAt("Taqueria Sol", 100, testTime),
		orderAt("Taqueria Sol", 50, testTime.Add(time.Hour)),
		orderAt("Taqueria Sol", 50, priorTime),
		// outside both windows
		orderAt("Taqueria Sol", 999, now.AddDate(0, 0, -90)),
		orderAt("Taqueria Sol", 999, now.Add(time.Hour)),
	}
	payload := analyze(t, orders, Options{})
	s := payload.Summary

	if s.TotalOrders != 2 || s.TotalRevenue != 150 || s.AverageOrderValue != 75 || s.ActiveRestaurants != 1 {
		t.Fatalf("summary = %+v", s)
	}
	if s.OrderChangePct == nil || *s.OrderChangePct != 100 {
		t.Errorf("OrderChangePct = %v", s.OrderChangePct)
	}
	if s.RevenueChangePct == nil || *s.RevenueChangePct != 200 {
		t.Errorf("RevenueChangePct = %v", s.RevenueChangePct)
	}
	if s.AOVChangePct == nil || *s.AOVChangePct != 50 {
		t.Errorf("AOVChangePct = %v", s.AOVChangePct)
	}
	if !payload.PreviousRange.End.Equal(payload.Range.Start) || payload.PreviousRange.Duration() != payload.Range.Duration() {
		t.Errorf("previous range %+v does not abut %+v", payload.PreviousRange, payload.Range)
	}
}

func TestComputeAnalyticsPriceBuckets(t *testing.T) {
	totals := []float64{0, 14.99, 15, 29.99, 30, 50, 74.99, 75, 500}
	var orders []models.ParsedOrder
	for _, total := range totals {
		orders = append(orders, orderAt("Corner Spot", total, testTime))
	}
	payload := analyze(t, orders, Options{})

	want := []int{2, 2, 1, 2, 2}
	sum := 0
	for i, b := range payload.PriceBuckets {
		if b.Count != want[i] {
			t.Errorf("bucket %s = %d, want %d", b.Label, b.Count, want[i])
		}
		sum += b.Count
	}
	if sum != len(orders) {
		t.Fatalf("bucket counts sum to %d, want %d", sum, len(orders))
	}
	if payload.PriceBuckets[0].Label != "Under $15" || payload.PriceBuckets[4].Label != "$75+" {
		t.Fatalf("labels = %+v", payload.PriceBuckets)
	}
}

func TestComputeAnalyticsDemandTrend(t *testing.T) {
	payload := analyze(t, []models.ParsedOrder{orderAt("Corner Spot", 20.5, testTime)}, Options{})
	trend := payload.DemandTrend
	if len(trend) != DefaultRangeDays {
		t.Fatalf("got %d points, want %d", len(trend), DefaultRangeDays)
	}
	if trend[len(trend)-1].Date != "2024-06-20" || trend[0].Date != "2024-05-22" {
		t.Fatalf("trend spans %s..%s", trend[0].Date, trend[len(trend)-1].Date)
	}
	for _, p := range trend {
		switch p.Date {
		case "2024-06-15":
			if p.Orders != 1 || p.Revenue != 20.5 {
				t.Errorf("2024-06-15 = %+v", p)
			}
		default:
			if p.Orders != 0 || p.Revenue != 0 {
				t.Errorf("%s = %+v, want zero", p.Date, p)
			}
		}
	}

	r := models.DateRange{
		Start: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC),
	}
	custom := analyze(t, nil, Options{Range: &r})
	if len(custom.DemandTrend) != 7 || custom.DemandTrend[0].Date != "2024-06-01" || custom.DemandTrend[6].Date != "2024-06-07" {
		t.Fatalf("custom trend = %+v", custom.DemandTrend)
	}
}

func TestComputeAnalyticsOrderTypeSplit(t *testing.T) {
	pickup := orderAt("Corner Spot", 10, testTime)
	pickup.FulfillmentType = models.FulfillmentPickup
	orders := []models.ParsedOrder{orderAt("Corner Spot", 10, testTime), orderAt("Corner Spot", 10, testTime), pickup}

	split := analyze(t, orders, Options{}).OrderType
	if split[0].Type != "Delivery" || split[0].Count != 2 || split[0].Percentage != 66.67 {
		t.Fatalf("delivery = %+v", split[0])
	}
	if split[1].Type != "Pickup" || split[1].Count != 1 || split[1].Percentage != 33.33 {
		t.Fatalf("pickup = %+v", split[1])
	}
	if split[0].Percentage+split[1].Percentage != 100 {
		t.Fatalf("split sums to %v", split[0].Percentage+split[1].Percentage)
	}

	pickupOnly := analyze(t, orders, Options{Filters: Filters{FulfillmentType: models.FulfillmentPickup}})
	if pickupOnly.Summary.TotalOrders != 1 {
		t.Fatalf("fulfillment filter kept %d orders", pickupOnly.Summary.TotalOrders)
	}
}

func TestComputeAnalyticsCuisines(t *testing.T) {
	orders := []models.ParsedOrder{
		orderAt("Pho Corner", 10, testTime),
		orderAt("Corner Spot", 10, testTime),
		orderAt("Taqueria Sol", 10, testTime),
		orderAt("Corner Spot", 10, testTime),
		orderAt("Taqueria Sol", 10, testTime),
	}
	cuisines := analyze(t, orders, Options{}).Cuisines
	if len(cuisines) != 3 {
		t.Fatalf("got %d cuisines, want 3", len(cuisines))
	}
	wantNames := []string{"Mexican", "Unclassified", "Vietnamese"}
	wantPct := []float64{40, 40, 20}
	for i, c := range cuisines {
		if c.Name != wantNames[i] || c.Percentage != wantPct[i] {
			t.Errorf("cuisine %d = %+v", i, c)
		}
	}
}

func TestComputeAnalyticsLeaderboard(t *testing.T) {
	orders := []models.ParsedOrder{
		orderAt("Alpha", 50, testTime), orderAt("Alpha", 50, testTime),
		orderAt("Bravo", 20, testTime), orderAt("Bravo", 20, testTime), orderAt("Bravo", 20, testTime),
		orderAt("Charlie", 80, testTime),
	}
	names := func(rows []models.LeaderboardRow) string {
		var out []string
		for _, r := range rows {
			out = append(out, r.Name)
		}
		return strings.Join(out, ",")
	}

	tests := []struct {
		sort SortKey
		want string
	}{
		{"", "Alpha,Charlie,Bravo"},
		{SortByRevenue, "Alpha,Charlie,Bravo"},
		{SortByOrders, "Bravo,Alpha,Charlie"},
		{SortByPriceRange, "Charlie,Alpha,Bravo"},
	}
	for _, tt := range tests {
		rows := analyze(t, orders, Options{SortBy: tt.sort}).Leaderboard
		if got := names(rows); got != tt.want {
			t.Errorf("sort %q = %s, want %s", tt.sort, got, tt.want)
		}
		for i, r := range rows {
			if r.Rank != i+1 {
				t.Errorf("sort %q row %d rank %d", tt.sort, i, r.Rank)
			}
		}
	}

	rows := analyze(t, orders, Options{SortBy: SortByOrders}).Leaderboard
	if rows[0].PriceRange != "$$" || rows[0].Rating != 4.3 {
		t.Errorf("Bravo row = %+v", rows[0])
	}
	if rows[2].PriceRange != "$$$$$" || rows[2].Rating != 4.6 {
		t.Errorf("Charlie row = %+v", rows[2])
	}
}

func TestPriceRange(t *testing.T) {
	tests := map[float64]string{
		0: "$", 15: "$", 15.01: "$$", 30: "$$", 50: "$$$", 75: "$$$$", 75.01: "$$$$$",
	}
	for aov, want := range tests {
		if got := PriceRange(aov); got != want {
			t.Errorf("PriceRange(%v) = %q, want %q", aov, got, want)
		}
	}
}

func TestComputeAnalyticsInsights(t *testing.T) {
	empty := analyze(t, nil, Options{})
	if !empty.UsingFallback {
		t.Error("empty period should be flagged as fallback")
	}
	if len(empty.Insights) != 1 || empty.Insights[0] != NoDataInsight {
		t.Fatalf("empty insights = %v", empty.Insights)
	}

	orders := []models.ParsedOrder{
		orderAt("Taqueria Sol", 20, testTime),
		orderAt("Taqueria Sol", 22, testTime),
		orderAt("Corner Spot", 40, testTime.Add(-2*time.Hour)),
	}
	payload := analyze(t, orders, Options{})
	if payload.UsingFallback {
		t.Error("live period flagged as fallback")
	}
	if len(payload.Insights) == 0 || len(payload.Insights) > 5 {
		t.Fatalf("got %d insights", len(payload.Insights))
	}
	wantPrefixes := []string{
		"Opportunity: Mexican commands 66.67% of recent orders",
		"Peak demand window: Saturday 18:00-19:00 with 2 orders recorded.",
		"Sweet spot AOV: $15-30 accounts for 66.67% of check sizes.",
		"Fulfillment mix: 100% delivery vs 0% pickup.",
		"Competitive density: 2 active restaurants",
	}
	for i, prefix := range wantPrefixes {
		if !strings.HasPrefix(payload.Insights[i], prefix) {
			t.Errorf("insight %d = %q, want prefix %q", i, payload.Insights[i], prefix)
		}
	}
}

func TestComputeAnalyticsRadiusFilter(t *testing.T) {
	near := orderAt("Corner Spot", 10, testTime)
	far := orderAt("Corner Spot", 10, testTime)
	far.ShippingLat, far.ShippingLng = metersNorth(5000)

	payload := analyze(t, []models.ParsedOrder{near, far}, Options{
		Filters: Filters{Center: &center, RadiusKm: 1},
	})
	if payload.Summary.TotalOrders != 1 {
		t.Fatalf("radius filter kept %d orders, want 1", payload.Summary.TotalOrders)
	}

	all := analyze(t, []models.ParsedOrder{near, far}, Options{})
	if all.Summary.TotalOrders != 2 {
		t.Fatalf("no radius filter kept %d orders, want 2", all.Summary.TotalOrders)
	}
}

func TestComputeAnalyticsRejectsInvalidOptions(t *testing.T) {
	r := models.DateRange{Start: now, End: now.Add(-time.Hour)}
	if _, err := ComputeAnalytics(nil, Options{Range: &r}); !errors.Is(err, models.ErrInvalidDateRange) {
		t.Errorf("inverted range err = %v", err)
	}
	if _, err := ComputeAnalytics(nil, Options{Now: now, Filters: Filters{Center: &center}}); !errors.Is(err, models.ErrInvalidParameter) {
		t.Errorf("missing radius err = %v", err)
	}
	bad := models.Location{Lat: 91, Lng: 0}
	if _, err := ComputeAnalytics(nil, Options{Now: now, Filters: Filters{Center: &bad, RadiusKm: 1}}); !errors.Is(err, models.ErrInvalidCoordinates) {
		t.Errorf("bad center err = %v", err)
	}
}

func TestParseSortKey(t *testing.T) {
	for in, want := range map[string]SortKey{"": SortByRevenue, "Orders": SortByOrders, "price_range": SortByPriceRange} {
		got, err := ParseSortKey(in)
		if err != nil || got != want {
			t.Errorf("ParseSortKey(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseSortKey("rating"); !errors.Is(err, models.ErrInvalidParameter) {
		t.Errorf("unknown key err = %v", err)
	}
}

func TestComputeAnalyticsFromRaw(t *testing.T) {
	payload, err := ComputeAnalyticsFromRaw([]any{rawOrder(), "junk"}, Options{Now: now, Location: time.UTC})
	if err != nil {
		t.Fatalf("ComputeAnalyticsFromRaw: %v", err)
	}
	if payload.Summary.TotalOrders != 1 || payload.Summary.TotalRevenue != 42.5 {
		t.Fatalf("summary = %+v", payload.Summary)
	}
	if len(payload.RestaurantPins) != 1 || payload.RestaurantPins[0].Cuisine != "Mexican" {
		t.Fatalf("pins = %+v", payload.RestaurantPins)
	}
}
