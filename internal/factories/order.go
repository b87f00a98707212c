package factories

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/jaswdr/faker"
	"github.com/lucsky/cuid"

	"github.com/chrisdamba/foodlens/internal/models"
)

// relative order volume per hour of day, lunch and dinner peaks
var hourlyWeights = [24]float64{
	0.2, 0.1, 0.05, 0.05, 0.05, 0.1, 0.3, 0.6, 0.8, 0.7, 0.9, 1.6,
	2.2, 1.8, 1.0, 0.8, 1.0, 1.8, 2.6, 2.8, 2.2, 1.4, 0.8, 0.4,
}

// Friday and Saturday carry more orders, Sunday first.
var weekdayWeights = [7]float64{1.1, 0.85, 0.85, 0.9, 1.0, 1.3, 1.4}

const (
	completedRatio   = 0.9
	pickupRatio      = 0.2
	unlabeledRatio   = 0.3
	deliveryRadiusKm = 4.0
	serviceFeeRate   = 0.12
)

// OrderFactory emits raw transaction records for a fixed set of stores.
type OrderFactory struct {
	cfg    models.SeedConfig
	fake   faker.Faker
	rng    *rand.Rand
	stores []*Store
}

// NewOrderFactory seeds both the random source and faker from cfg.Seed, so
// a run is reproducible apart from the cuid identifiers.
func NewOrderFactory(cfg models.SeedConfig) *OrderFactory {
	rng := rand.New(rand.NewSource(cfg.Seed))
	fake := faker.NewWithSeed(rand.NewSource(cfg.Seed))

	storeCount := cfg.Stores
	if storeCount < 1 {
		storeCount = 1
	}
	sf := NewStoreFactory(rng, fake)
	stores := make([]*Store, storeCount)
	for i := range stores {
		stores[i] = sf.CreateStore(cfg)
	}

	return &OrderFactory{cfg: cfg, fake: fake, rng: rng, stores: stores}
}

func (of *OrderFactory) Stores() []*Store {
	return of.stores
}

// CreateOrder builds one raw record completed within cfg.Days before now.
func (of *OrderFactory) CreateOrder(now time.Time) map[string]any {
	store := of.stores[of.rng.Intn(len(of.stores))]
	completedAt := of.orderTime(now)

	products := make([]any, 0, 3)
	var subTotal float64
	for i, n := 0, 1+of.rng.Intn(3); i < n; i++ {
		item := store.Menu[of.rng.Intn(len(store.Menu))]
		qty := 1 + of.rng.Intn(3)
		subTotal += item.Price * float64(qty)
		products = append(products, map[string]any{
			"name":      item.Name,
			"quantity":  qty,
			"unitPrice": item.Price,
		})
	}
	subTotal = roundCents(subTotal)

	fulfillment := string(models.FulfillmentDelivery)
	shipping := store.Location
	fee := 0.0
	if of.rng.Float64() < pickupRatio {
		fulfillment = string(models.FulfillmentPickup)
	} else {
		shipping = of.nearby(store.Location, deliveryRadiusKm)
		fee = roundCents(1.99 + of.rng.Float64()*4)
	}

	storeDoc := map[string]any{
		"_id":     store.ID,
		"name":    store.Name,
		"slug":    store.Slug,
		"rating":  store.Rating,
		"address": pointDoc(store.Location),
	}
	if of.rng.Float64() >= unlabeledRatio {
		storeDoc["cuisine"] = cuisineLabel(store.Cuisine)
	}

	merchant := models.MerchantDoorDash
	if of.rng.Intn(2) == 0 {
		merchant = models.MerchantUberEats
	}

	return map[string]any{
		"_id":                cuid.New(),
		"status":             of.status(),
		"order_completed_at": completedAt.Format(time.RFC3339),
		"merchant":           merchant,
		"fulfillment_type":   fulfillment,
		"customer": map[string]any{
			"name":  of.fake.Person().Name(),
			"email": of.fake.Internet().Email(),
		},
		"store": storeDoc,
		"shipping_address": map[string]any{
			"street":   of.fake.Address().StreetAddress(),
			"location": pointDoc(shipping)["location"],
		},
		"products": products,
		"price": map[string]any{
			"subTotal":    subTotal,
			"deliveryFee": fee,
			"serviceFee":  roundCents(subTotal * serviceFeeRate),
			"total":       roundCents(subTotal*(1+serviceFeeRate) + fee),
		},
	}
}

// TransactionRow wraps a record the way the transaction_cache table stores it.
func TransactionRow(rec map[string]any, createdAt time.Time) (models.TransactionRow, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return models.TransactionRow{}, fmt.Errorf("marshal transaction: %w", err)
	}
	id, _ := rec["_id"].(string)
	merchant, _ := rec["merchant"].(string)
	userID := ""
	if customer, ok := rec["customer"].(map[string]any); ok {
		userID, _ = customer["email"].(string)
	}
	return models.TransactionRow{
		ID:              id,
		UserID:          userID,
		Merchant:        merchant,
		TransactionData: data,
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}, nil
}

func (of *OrderFactory) status() string {
	if of.rng.Float64() < completedRatio {
		return models.OrderStatusCompleted
	}
	if of.rng.Intn(2) == 0 {
		return models.OrderStatusCancelled
	}
	return models.OrderStatusPending
}

// orderTime picks a day in the window by weekday weight and an hour by the
// hourly curve.
func (of *OrderFactory) orderTime(now time.Time) time.Time {
	days := of.cfg.Days
	if days < 1 {
		days = 1
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	for {
		day := today.AddDate(0, 0, -of.rng.Intn(days))
		if of.rng.Float64()*1.4 > weekdayWeights[day.Weekday()] {
			continue
		}
		hour := weightedIndex(of.rng, hourlyWeights[:])
		t := day.Add(time.Duration(hour)*time.Hour + time.Duration(of.rng.Intn(3600))*time.Second)
		if t.After(now) {
			continue
		}
		return t
	}
}

func (of *OrderFactory) nearby(center models.Location, radiusKm float64) models.Location {
	distance := math.Sqrt(of.rng.Float64()) * radiusKm / 111.0
	bearing := of.rng.Float64() * 2 * math.Pi
	return models.Location{
		Lat: center.Lat + distance*math.Cos(bearing),
		Lng: center.Lng + distance*math.Sin(bearing)/math.Cos(center.Lat*math.Pi/180.0),
	}
}

func weightedIndex(rng *rand.Rand, weights []float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	r := rng.Float64() * total
	var sum float64
	for i, w := range weights {
		sum += w
		if r <= sum {
			return i
		}
	}
	return len(weights) - 1
}

// pointDoc renders a GeoJSON point, longitude first.
func pointDoc(l models.Location) map[string]any {
	return map[string]any{
		"location": map[string]any{
			"type":        "Point",
			"coordinates": []any{l.Lng, l.Lat},
		},
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
