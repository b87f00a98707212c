package analytics

import (
	"fmt"

	"github.com/chrisdamba/foodlens/internal/models"
	"github.com/chrisdamba/foodlens/internal/synthetic"
)

const minHeatIntensity = 0.25

type heatBucket struct {
	lat, lng float64
	count    int
}

// ComputeHeatPoints buckets shipping locations to three decimals (about
// 100m) and scales each bucket against the busiest one. Unclassified orders
// only show up under the "all" filter. Points keep first-seen order.
func ComputeHeatPoints(orders []models.ParsedOrder, category string) []synthetic.HeatPoint {
	filter := ParseCategoryFilter(category)

	index := make(map[string]int)
	buckets := make([]heatBucket, 0)
	maxCount := 0
	for _, order := range orders {
		if !filter.IsAll() && (order.Category == models.CategoryUnknown || !filter.Matches(order.Category)) {
			continue
		}
		key := fmt.Sprintf("%.3f|%.3f", order.ShippingLat, order.ShippingLng)
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, heatBucket{lat: order.ShippingLat, lng: order.ShippingLng})
		}
		buckets[i].count++
		if buckets[i].count > maxCount {
			maxCount = buckets[i].count
		}
	}

	points := make([]synthetic.HeatPoint, len(buckets))
	for i, b := range buckets {
		intensity := clamp(minHeatIntensity+float64(b.count)/float64(maxCount), minHeatIntensity, 1)
		points[i] = synthetic.HeatPoint{b.lat, b.lng, intensity}
	}
	return points
}
