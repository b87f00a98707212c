package models

// StoreSummary is a per-store rollup, rebuilt from orders on every request.
type StoreSummary struct {
	Name          string   `json:"name"`
	Lat           float64  `json:"lat"`
	Lng           float64  `json:"lng"`
	Category      Category `json:"category"`
	OrderCount    int      `json:"orderCount"`
	TotalRevenue  float64  `json:"totalRevenue"`
	AvgOrderValue float64  `json:"avgOrderValue"`
	Rating        *float64 `json:"rating,omitempty"`
}

func (s StoreSummary) Location() Location {
	return Location{Lat: s.Lat, Lng: s.Lng}
}
