package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/chrisdamba/foodlens/internal/geo"
	"github.com/chrisdamba/foodlens/internal/models"
	"github.com/chrisdamba/foodlens/internal/synthetic"
)

const (
	popularItemLimit = 5

	messageNoOrders     = "No recorded orders within this radius yet. Wide-open opportunity."
	messageHighDemand   = "High demand with limited supply. Move fast to capture the market."
	messageStrongDemand = "Strong demand with manageable competition. Differentiate on menu or experience."
	messageDense        = "Dense competition (%d operators nearby). Target a niche or premium positioning."

	// EmptyRadiusMessage accompanies live metrics with no order in range.
	EmptyRadiusMessage = "No recorded orders in this radius yet."

	// FallbackMessage marks an AreaSelection built from synthetic data.
	FallbackMessage = "Showing representative insights until live data is available."
)

type productAccumulator struct {
	name     string
	quantity float64
	revenue  float64
}

// ComputeAreaMetrics summarizes orders shipped within AreaRadiusMeters of
// point. Stores inside the same radius count as competition.
func ComputeAreaMetrics(orders []models.ParsedOrder, stores []models.StoreSummary, point models.Location, category string) models.AreaMetrics {
	filter := ParseCategoryFilter(category)
	center := point.Point()

	filtered := make([]models.ParsedOrder, 0, len(orders))
	for _, order := range orders {
		if !filter.Matches(order.Category) {
			continue
		}
		if geo.HaversineDistanceMeters(order.Shipping().Point(), center) <= models.AreaRadiusMeters {
			filtered = append(filtered, order)
		}
	}

	nearbyStores := 0
	for _, store := range stores {
		if !filter.Matches(store.Category) {
			continue
		}
		if geo.HaversineDistanceMeters(store.Location().Point(), center) <= models.AreaRadiusMeters {
			nearbyStores++
		}
	}

	totalOrders := len(filtered)
	var revenue float64
	var daily [7]float64
	days := make(map[string]struct{})
	for _, order := range filtered {
		revenue += order.Total
		daily[order.CompletedAt.Weekday()] += order.Total
		days[order.CompletedAt.Format("2006-01-02")] = struct{}{}
	}

	avgOrderValue := 0.0
	if totalOrders > 0 {
		avgOrderValue = round2(revenue / float64(totalOrders))
	}

	dailySpending := make([]models.DailySpend, len(models.DayLabels))
	for i, day := range models.DayLabels {
		dailySpending[i] = models.DailySpend{Day: day, Amount: math.Round(daily[i])}
	}

	timeSpanDays := len(days)
	if timeSpanDays < 1 {
		timeSpanDays = 1
	}
	avgDailyRevenue := revenue / float64(timeSpanDays)

	score := OpportunityScore(totalOrders, revenue, nearbyStores)

	return models.AreaMetrics{
		TotalOrders:        totalOrders,
		TotalRevenue:       round2(revenue),
		AvgOrderValue:      avgOrderValue,
		StoreCount:         nearbyStores,
		SampleSize:         totalOrders,
		RadiusMeters:       models.AreaRadiusMeters,
		TimeSpanDays:       timeSpanDays,
		MonthlySpending:    math.Round(avgDailyRevenue * 30),
		YearlySpending:     math.Round(avgDailyRevenue * 365),
		DailySpending:      dailySpending,
		PopularItems:       popularItems(filtered, avgOrderValue),
		OpportunityScore:   score,
		OpportunityMessage: opportunityMessage(totalOrders, score, nearbyStores),
	}
}

// popularItems ranks line items by quantity. Growth is a share-of-quantity
// heuristic for display, not a measured trend.
func popularItems(orders []models.ParsedOrder, avgOrderValue float64) []models.PopularItem {
	index := make(map[string]int)
	accs := make([]*productAccumulator, 0)
	for _, order := range orders {
		for _, product := range order.Products {
			key := normalizeText(product.Name)
			if key == "" {
				continue
			}
			i, ok := index[key]
			if !ok {
				i = len(accs)
				index[key] = i
				accs = append(accs, &productAccumulator{name: product.Name})
			}
			accs[i].quantity += product.Quantity
			accs[i].revenue += product.Total
		}
	}

	var totalQuantity float64
	for _, acc := range accs {
		totalQuantity += acc.quantity
	}

	sort.SliceStable(accs, func(i, j int) bool {
		return accs[i].quantity > accs[j].quantity
	})
	if len(accs) > popularItemLimit {
		accs = accs[:popularItemLimit]
	}

	items := make([]models.PopularItem, len(accs))
	for i, acc := range accs {
		price := avgOrderValue
		if acc.quantity > 0 {
			price = round2(acc.revenue / acc.quantity)
		}
		growth := 0
		if totalQuantity > 0 {
			growth = int(math.Max(4, math.Round(acc.quantity/totalQuantity*100)))
		}
		items[i] = models.PopularItem{
			Name:   acc.name,
			Orders: acc.quantity,
			Price:  price,
			Growth: growth,
		}
	}
	return items
}

// OpportunityScore blends demand, revenue and competitive density into a
// 20..95 index.
func OpportunityScore(orders int, revenue float64, nearbyStores int) int {
	demand := math.Min(35, float64(orders)*1.4)
	revenueScore := math.Min(25, revenue/150)
	supplyPenalty := math.Min(20, float64(nearbyStores)*3.2)

	coverageBonus := 12.0
	if orders > 0 {
		coverageBonus = math.Min(12, math.Max(0, 10-float64(nearbyStores)*2))
	}

	score := math.Round(48 + demand + revenueScore + coverageBonus - supplyPenalty)
	if math.IsNaN(score) {
		score = 20
	}
	return int(clamp(score, 20, 95))
}

func opportunityMessage(orders, score, nearbyStores int) string {
	switch {
	case orders == 0:
		return messageNoOrders
	case score >= 80:
		return messageHighDemand
	case score >= 65:
		return messageStrongDemand
	default:
		return fmt.Sprintf(messageDense, nearbyStores)
	}
}

// BuildAreaSelection computes live metrics for point. Synthetic metrics are
// substituted only when there is no live order at all; an empty radius in a
// populated data set is reported as live zeroes with an explanatory message.
func BuildAreaSelection(point models.Location, orders []models.ParsedOrder, stores []models.StoreSummary, category string) models.AreaSelection {
	if category == "" {
		category = models.CategoryFilterAll
	}
	live := ComputeAreaMetrics(orders, stores, point, category)
	if len(orders) == 0 {
		return FallbackSelection(point, category, live.OpportunityMessage)
	}
	selection := models.AreaSelection{
		Location: point,
		Category: category,
		Metrics:  live,
	}
	if live.TotalOrders == 0 {
		msg := EmptyRadiusMessage
		selection.Message = &msg
	}
	return selection
}

// FallbackSelection builds a synthetic selection for point. An empty
// opportunityMessage keeps the synthetic template's message.
func FallbackSelection(point models.Location, category, opportunityMessage string) models.AreaSelection {
	if category == "" {
		category = models.CategoryFilterAll
	}
	metrics := synthetic.InsightsToMetrics(synthetic.GetAreaInsights(category, &point))
	if opportunityMessage != "" {
		metrics.OpportunityMessage = opportunityMessage
	}
	msg := FallbackMessage
	return models.AreaSelection{
		Location:   point,
		Category:   category,
		Metrics:    metrics,
		IsFallback: true,
		Message:    &msg,
	}
}
