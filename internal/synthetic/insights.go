package synthetic

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/chrisdamba/foodlens/internal/models"
)

// AreaInsights is a representative area profile built from cuisine templates.
type AreaInsights struct {
	PopularItems       []models.PopularItem `json:"popularItems"`
	TotalOrders        int                  `json:"totalOrders"`
	AvgOrderValue      float64              `json:"avgOrderValue"`
	OpportunityScore   int                  `json:"opportunityScore"`
	OpportunityMessage string               `json:"opportunityMessage"`
	DailySpending      []models.DailySpend  `json:"dailySpending"`
	MonthlySpending    float64              `json:"monthlySpending"`
	YearlySpending     float64              `json:"yearlySpending"`
}

type cuisineTemplate struct {
	items       []models.PopularItem
	totalOrders int
	aov         float64
	score       int
	message     string
}

var cuisineTemplates = map[models.Category]cuisineTemplate{
	models.CategoryMexican: {
		items: []models.PopularItem{
			{Name: "Chicken Burrito Bowl", Orders: 1834, Price: 12.99, Growth: 28},
			{Name: "Carne Asada Tacos (3)", Orders: 1567, Price: 11.99, Growth: 22},
			{Name: "Guacamole & Chips", Orders: 1432, Price: 8.99, Growth: 18},
			{Name: "Steak Quesadilla", Orders: 1298, Price: 13.99, Growth: 25},
			{Name: "Chicken Enchiladas", Orders: 1104, Price: 14.99, Growth: 15},
		},
		totalOrders: 8234,
		aov:         16.50,
		score:       78,
		message:     "High demand with moderate competition. Good opportunity for fast-casual Mexican.",
	},
	models.CategoryIndian: {
		items: []models.PopularItem{
			{Name: "Chicken Tikka Masala", Orders: 1654, Price: 16.99, Growth: 35},
			{Name: "Garlic Naan (2pc)", Orders: 1432, Price: 4.99, Growth: 30},
			{Name: "Butter Chicken", Orders: 1298, Price: 17.99, Growth: 32},
			{Name: "Biryani", Orders: 1176, Price: 15.99, Growth: 28},
			{Name: "Samosas (4pc)", Orders: 987, Price: 6.99, Growth: 22},
		},
		totalOrders: 7123,
		aov:         22.50,
		score:       85,
		message:     "Growing demand with limited supply. Excellent opportunity for authentic Indian cuisine.",
	},
	models.CategoryItalian: {
		items: []models.PopularItem{
			{Name: "Margherita Pizza", Orders: 2134, Price: 16.99, Growth: 15},
			{Name: "Spaghetti Carbonara", Orders: 1876, Price: 18.99, Growth: 12},
			{Name: "Fettuccine Alfredo", Orders: 1654, Price: 17.99, Growth: 10},
			{Name: "Lasagna", Orders: 1432, Price: 19.99, Growth: 18},
			{Name: "Caesar Salad", Orders: 1298, Price: 12.99, Growth: 8},
		},
		totalOrders: 9234,
		aov:         24.80,
		score:       62,
		message:     "Saturated market with high competition. Differentiation is key.",
	},
	models.CategoryChinese: {
		items: []models.PopularItem{
			{Name: "General Tso's Chicken", Orders: 1987, Price: 13.99, Growth: 20},
			{Name: "Fried Rice (Combo)", Orders: 1765, Price: 11.99, Growth: 18},
			{Name: "Lo Mein Noodles", Orders: 1543, Price: 12.99, Growth: 16},
			{Name: "Orange Chicken", Orders: 1432, Price: 13.99, Growth: 22},
			{Name: "Spring Rolls (6pc)", Orders: 1298, Price: 7.99, Growth: 15},
		},
		totalOrders: 8654,
		aov:         18.20,
		score:       70,
		message:     "Steady demand with room for modern/upscale concepts.",
	},
	models.CategoryJapanese: {
		items: []models.PopularItem{
			{Name: "California Roll (8pc)", Orders: 1876, Price: 11.99, Growth: 24},
			{Name: "Spicy Tuna Roll (8pc)", Orders: 1654, Price: 13.99, Growth: 28},
			{Name: "Chicken Ramen", Orders: 1543, Price: 14.99, Growth: 32},
			{Name: "Salmon Sashimi (6pc)", Orders: 1298, Price: 16.99, Growth: 20},
			{Name: "Edamame", Orders: 1104, Price: 5.99, Growth: 15},
		},
		totalOrders: 7234,
		aov:         26.40,
		score:       82,
		message:     "Growing interest in ramen and sushi. Strong opportunity for quality-focused concepts.",
	},
	models.CategoryThai: {
		items: []models.PopularItem{
			{Name: "Pad Thai", Orders: 1987, Price: 14.99, Growth: 30},
			{Name: "Green Curry", Orders: 1543, Price: 15.99, Growth: 28},
			{Name: "Tom Yum Soup", Orders: 1298, Price: 12.99, Growth: 25},
			{Name: "Drunken Noodles", Orders: 1176, Price: 14.99, Growth: 26},
			{Name: "Spring Rolls (4pc)", Orders: 987, Price: 7.99, Growth: 18},
		},
		totalOrders: 6834,
		aov:         21.30,
		score:       88,
		message:     "High growth potential with underserved market. Excellent opportunity.",
	},
}

var defaultTemplate = cuisineTemplate{
	items: []models.PopularItem{
		{Name: "House Special", Orders: 1500, Price: 15.99, Growth: 20},
		{Name: "Popular Dish #2", Orders: 1200, Price: 14.99, Growth: 18},
		{Name: "Popular Dish #3", Orders: 1000, Price: 13.99, Growth: 15},
		{Name: "Popular Dish #4", Orders: 850, Price: 12.99, Growth: 12},
		{Name: "Popular Dish #5", Orders: 700, Price: 11.99, Growth: 10},
	},
	totalOrders: 7500,
	aov:         19.99,
	score:       75,
	message:     "Moderate opportunity with balanced supply and demand.",
}

// Weekday spend shares, Sunday first.
var (
	templateDayWeights  = [7]float64{0.12, 0.12, 0.11, 0.13, 0.14, 0.18, 0.20}
	perturbedDayWeights = [7]float64{0.18, 0.11, 0.10, 0.12, 0.13, 0.16, 0.20}
)

func templateFor(category string) cuisineTemplate {
	if t, ok := cuisineTemplates[models.Category(category)]; ok {
		return t
	}
	return defaultTemplate
}

// GetAreaInsights returns the cuisine template for category. With a location
// the template is scaled by the synthetic heat around it and jittered by a
// generator seeded from the location and category.
func GetAreaInsights(category string, location *models.Location) AreaInsights {
	category = normalizeCategory(category)
	base := templateFor(category)

	if location == nil {
		items := make([]models.PopularItem, len(base.items))
		copy(items, base.items)
		volume := base.aov * float64(base.totalOrders)
		return AreaInsights{
			PopularItems:       items,
			TotalOrders:        base.totalOrders,
			AvgOrderValue:      base.aov,
			OpportunityScore:   base.score,
			OpportunityMessage: base.message,
			DailySpending:      spread(volume, templateDayWeights),
			MonthlySpending:    math.Round(volume * 30),
			YearlySpending:     math.Round(volume * 365),
		}
	}

	rand := newRand(seedFor(location.Lat, location.Lng, category))
	avgIntensity := averageIntensity(GenerateHeatmapData(*location, category))

	// roughly 0.6 to 2.0
	intensityFactor := 0.6 + avgIntensity*1.4
	totalOrders := int(math.Max(0, math.Round(float64(base.totalOrders)*intensityFactor*(0.85+rand.Float64()*0.3))))
	aov := round2(base.aov * (0.9 + rand.Float64()*0.25))

	var baseSum float64
	for _, it := range base.items {
		baseSum += it.Orders
	}
	if baseSum == 0 {
		baseSum = 1
	}
	items := make([]models.PopularItem, len(base.items))
	for i, it := range base.items {
		share := (it.Orders / baseSum) * (0.7 + 0.6*rand.Float64())
		items[i] = models.PopularItem{
			Name:   it.Name,
			Orders: math.Max(0, math.Round(float64(totalOrders)*share)),
			Price:  it.Price,
			Growth: int(math.Max(0, math.Round(float64(it.Growth)*(0.7+rand.Float64()*0.7)))),
		}
	}

	volume := aov * float64(totalOrders)
	score := math.Min(100, math.Max(20, math.Round(50+(avgIntensity-0.3)*100+rand.Float64()*20)))

	return AreaInsights{
		PopularItems:       items,
		TotalOrders:        totalOrders,
		AvgOrderValue:      aov,
		OpportunityScore:   int(score),
		OpportunityMessage: base.message,
		DailySpending:      spread(volume, perturbedDayWeights),
		MonthlySpending:    math.Round(volume * 30),
		YearlySpending:     math.Round(volume * 365),
	}
}

// InsightsToMetrics converts a synthetic profile into the AreaMetrics shape
// used for live data.
func InsightsToMetrics(in AreaInsights) models.AreaMetrics {
	daily := make([]models.DailySpend, len(in.DailySpending))
	copy(daily, in.DailySpending)
	items := make([]models.PopularItem, len(in.PopularItems))
	copy(items, in.PopularItems)

	return models.AreaMetrics{
		TotalOrders:        in.TotalOrders,
		TotalRevenue:       round2(in.AvgOrderValue * float64(in.TotalOrders)),
		AvgOrderValue:      round2(in.AvgOrderValue),
		StoreCount:         int(math.Max(0, math.Round(float64(in.TotalOrders)/1000))),
		SampleSize:         in.TotalOrders,
		RadiusMeters:       models.AreaRadiusMeters,
		TimeSpanDays:       30,
		MonthlySpending:    in.MonthlySpending,
		YearlySpending:     in.YearlySpending,
		DailySpending:      daily,
		PopularItems:       items,
		OpportunityScore:   int(math.Min(95, math.Max(20, float64(in.OpportunityScore)))),
		OpportunityMessage: in.OpportunityMessage,
	}
}

func spread(volume float64, weights [7]float64) []models.DailySpend {
	out := make([]models.DailySpend, len(models.DayLabels))
	for i, day := range models.DayLabels {
		out[i] = models.DailySpend{Day: day, Amount: math.Round(volume * weights[i])}
	}
	return out
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
