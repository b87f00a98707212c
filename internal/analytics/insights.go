package analytics

import (
	"fmt"
	"strconv"

	"github.com/chrisdamba/foodlens/internal/models"
)

const (
	maxInsights = 5

	// NoDataInsight is the only insight returned for an empty period.
	NoDataInsight = "No transactions recorded for this period yet. Insights will appear as soon as orders arrive."
)

func formatPct(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// computeInsights derives short rule-based observations from the other
// aggregates, in a fixed order.
func computeInsights(
	totalOrders int,
	cuisines []models.CuisineStat,
	heatmap models.Heatmap,
	buckets []models.PriceBucketStat,
	orderType []models.OrderTypeStat,
	activeStores int,
) []string {
	if totalOrders == 0 {
		return []string{NoDataInsight}
	}

	insights := make([]string, 0, maxInsights)

	for _, c := range cuisines {
		if c.Category == string(models.CategoryUnknown) {
			continue
		}
		insights = append(insights, fmt.Sprintf(
			"Opportunity: %s commands %s%% of recent orders. Consider differentiated offerings.",
			c.Name, formatPct(c.Percentage),
		))
		break
	}

	if peak := heatmap.Peak; peak.Value > 0 {
		insights = append(insights, fmt.Sprintf(
			"Peak demand window: %s %d:00-%d:00 with %d orders recorded.",
			peak.DayName, peak.Hour, peak.Hour+1, peak.Value,
		))
	}

	var top *models.PriceBucketStat
	for i := range buckets {
		if top == nil || buckets[i].Count > top.Count {
			top = &buckets[i]
		}
	}
	if top != nil && top.Count > 0 {
		insights = append(insights, fmt.Sprintf(
			"Sweet spot AOV: %s accounts for %s%% of check sizes.",
			top.Label, formatPct(top.Percentage),
		))
	}

	if len(orderType) == 2 {
		insights = append(insights, fmt.Sprintf(
			"Fulfillment mix: %s%% delivery vs %s%% pickup.",
			formatPct(orderType[0].Percentage), formatPct(orderType[1].Percentage),
		))
	}

	insights = append(insights, fmt.Sprintf(
		"Competitive density: %d active restaurants in the data set.", activeStores,
	))

	if len(insights) > maxInsights {
		insights = insights[:maxInsights]
	}
	return insights
}
