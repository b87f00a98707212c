package analytics

import (
	"fmt"

	"github.com/chrisdamba/foodlens/internal/models"
)

type storeAccumulator struct {
	summary     models.StoreSummary
	revenue     float64
	ratingSum   float64
	ratingCount int
}

func storeKey(name string, lat, lng float64) string {
	return fmt.Sprintf("%s|%.5f|%.5f", normalizeText(name), lat, lng)
}

// AggregateStores groups orders by store name and location. Stores come back
// in the order they were first seen; revenue is summed unrounded and only the
// output is rounded.
func AggregateStores(orders []models.ParsedOrder) []models.StoreSummary {
	index := make(map[string]int)
	accs := make([]*storeAccumulator, 0)

	for _, order := range orders {
		key := storeKey(order.StoreName, order.StoreLat, order.StoreLng)
		i, ok := index[key]
		if !ok {
			i = len(accs)
			index[key] = i
			accs = append(accs, &storeAccumulator{summary: models.StoreSummary{
				Name:     order.StoreName,
				Lat:      order.StoreLat,
				Lng:      order.StoreLng,
				Category: order.Category,
			}})
		}
		acc := accs[i]
		acc.summary.OrderCount++
		acc.revenue += order.Total
		if order.Rating != nil {
			acc.ratingSum += *order.Rating
			acc.ratingCount++
		}
	}

	stores := make([]models.StoreSummary, len(accs))
	for i, acc := range accs {
		s := acc.summary
		s.TotalRevenue = round2(acc.revenue)
		s.AvgOrderValue = round2(acc.revenue / float64(s.OrderCount))
		if acc.ratingCount > 0 {
			rating := round1(acc.ratingSum / float64(acc.ratingCount))
			s.Rating = &rating
		}
		stores[i] = s
	}
	return stores
}
