package models

type DailySpend struct {
	Day    string  `json:"day"`
	Amount float64 `json:"amount"`
}

type PopularItem struct {
	Name   string  `json:"name"`
	Orders float64 `json:"orders"`
	Price  float64 `json:"price"`
	// Growth is a presentation heuristic derived from quantity share, not a trend.
	Growth int `json:"growth"`
}

type AreaMetrics struct {
	TotalOrders        int           `json:"totalOrders"`
	TotalRevenue       float64       `json:"totalRevenue"`
	AvgOrderValue      float64       `json:"avgOrderValue"`
	StoreCount         int           `json:"storeCount"`
	SampleSize         int           `json:"sampleSize"`
	RadiusMeters       float64       `json:"radiusMeters"`
	TimeSpanDays       int           `json:"timeSpanDays"`
	MonthlySpending    float64       `json:"monthlySpending"`
	YearlySpending     float64       `json:"yearlySpending"`
	DailySpending      []DailySpend  `json:"dailySpending"`
	PopularItems       []PopularItem `json:"popularItems"`
	OpportunityScore   int           `json:"opportunityScore"`
	OpportunityMessage string        `json:"opportunityMessage"`
}

type AreaSelection struct {
	Location   Location    `json:"location"`
	Category   string      `json:"category"`
	Metrics    AreaMetrics `json:"metrics"`
	IsFallback bool        `json:"isFallback"`
	Message    *string     `json:"message"`
}
