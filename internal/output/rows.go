package output

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/chrisdamba/foodlens/internal/models"
)

// StoreRow is one store rollup as exported, stamped with the snapshot time.
type StoreRow struct {
	Timestamp     int64    `json:"timestamp" parquet:"name=timestamp,type=INT64"`
	Name          string   `json:"name" parquet:"name=name,type=BYTE_ARRAY,convertedtype=UTF8"`
	Category      string   `json:"category" parquet:"name=category,type=BYTE_ARRAY,convertedtype=UTF8"`
	Lat           float64  `json:"lat" parquet:"name=lat,type=DOUBLE"`
	Lng           float64  `json:"lng" parquet:"name=lng,type=DOUBLE"`
	OrderCount    int64    `json:"orderCount" parquet:"name=order_count,type=INT64"`
	TotalRevenue  float64  `json:"totalRevenue" parquet:"name=total_revenue,type=DOUBLE"`
	AvgOrderValue float64  `json:"avgOrderValue" parquet:"name=avg_order_value,type=DOUBLE"`
	Rating        *float64 `json:"rating,omitempty" parquet:"name=rating,type=DOUBLE,repetitiontype=OPTIONAL"`
}

func (r StoreRow) Summary() models.StoreSummary {
	return models.StoreSummary{
		Name:          r.Name,
		Lat:           r.Lat,
		Lng:           r.Lng,
		Category:      models.Category(r.Category),
		OrderCount:    int(r.OrderCount),
		TotalRevenue:  r.TotalRevenue,
		AvgOrderValue: r.AvgOrderValue,
		Rating:        r.Rating,
	}
}

// SnapshotRow flattens the headline numbers of a payload and keeps the full
// payload as JSON.
type SnapshotRow struct {
	Timestamp         int64   `json:"timestamp" parquet:"name=timestamp,type=INT64"`
	RangeStart        string  `json:"rangeStart" parquet:"name=range_start,type=BYTE_ARRAY,convertedtype=UTF8"`
	RangeEnd          string  `json:"rangeEnd" parquet:"name=range_end,type=BYTE_ARRAY,convertedtype=UTF8"`
	UsingFallback     bool    `json:"usingFallback" parquet:"name=using_fallback,type=BOOLEAN"`
	TotalOrders       int64   `json:"totalOrders" parquet:"name=total_orders,type=INT64"`
	TotalRevenue      float64 `json:"totalRevenue" parquet:"name=total_revenue,type=DOUBLE"`
	AverageOrderValue float64 `json:"averageOrderValue" parquet:"name=average_order_value,type=DOUBLE"`
	ActiveRestaurants int64   `json:"activeRestaurants" parquet:"name=active_restaurants,type=INT64"`
	Payload           string  `json:"payload" parquet:"name=payload,type=BYTE_ARRAY,convertedtype=UTF8"`
}

func NewSnapshotRow(payload models.AnalyticsPayload) (SnapshotRow, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return SnapshotRow{}, fmt.Errorf("marshal payload: %w", err)
	}
	return SnapshotRow{
		Timestamp:         payload.GeneratedAt.Unix(),
		RangeStart:        payload.Range.Start.Format(time.RFC3339),
		RangeEnd:          payload.Range.End.Format(time.RFC3339),
		UsingFallback:     payload.UsingFallback,
		TotalOrders:       int64(payload.Summary.TotalOrders),
		TotalRevenue:      payload.Summary.TotalRevenue,
		AverageOrderValue: payload.Summary.AverageOrderValue,
		ActiveRestaurants: int64(payload.Summary.ActiveRestaurants),
		Payload:           string(data),
	}, nil
}

func NewStoreRows(stores []models.StoreSummary, at time.Time) []StoreRow {
	rows := make([]StoreRow, len(stores))
	for i, s := range stores {
		rows[i] = StoreRow{
			Timestamp:     at.Unix(),
			Name:          s.Name,
			Category:      string(s.Category),
			Lat:           s.Lat,
			Lng:           s.Lng,
			OrderCount:    int64(s.OrderCount),
			TotalRevenue:  s.TotalRevenue,
			AvgOrderValue: s.AvgOrderValue,
			Rating:        s.Rating,
		}
	}
	return rows
}

// WriteSnapshot sends the payload and one message per store.
func WriteSnapshot(dest Destination, payload models.AnalyticsPayload, stores []models.StoreSummary) error {
	snapshot, err := NewSnapshotRow(payload)
	if err != nil {
		return err
	}
	if err := writeJSON(dest, TopicSnapshots, snapshot); err != nil {
		return err
	}
	for _, row := range NewStoreRows(stores, payload.GeneratedAt) {
		if err := writeJSON(dest, TopicStores, row); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(dest Destination, topic string, v any) error {
	msg, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := dest.WriteMessage(topic, msg); err != nil {
		return fmt.Errorf("write %s: %w", topic, err)
	}
	return nil
}

// decodeRow turns a message back into the typed row for its topic.
func decodeRow(topic string, msg []byte) (any, error) {
	switch topic {
	case TopicStores:
		var row StoreRow
		err := json.Unmarshal(msg, &row)
		return row, err
	case TopicSnapshots:
		var row SnapshotRow
		err := json.Unmarshal(msg, &row)
		return row, err
	default:
		return nil, fmt.Errorf("unknown topic: %s", topic)
	}
}

func rowSchema(topic string) (any, error) {
	switch topic {
	case TopicStores:
		return new(StoreRow), nil
	case TopicSnapshots:
		return new(SnapshotRow), nil
	default:
		return nil, fmt.Errorf("unknown topic: %s", topic)
	}
}
