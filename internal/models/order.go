package models

import (
	"encoding/json"
	"time"
)

type FulfillmentType string

const (
	FulfillmentDelivery FulfillmentType = "delivery"
	FulfillmentPickup   FulfillmentType = "pickup"
)

// ParseFulfillmentType recognizes the two fulfillment values, case-insensitively.
func ParseFulfillmentType(value string) (FulfillmentType, bool) {
	switch normalize(value) {
	case string(FulfillmentDelivery):
		return FulfillmentDelivery, true
	case string(FulfillmentPickup):
		return FulfillmentPickup, true
	}
	return "", false
}

type ParsedProduct struct {
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Total     float64 `json:"total"`
}

// ParsedOrder is one completed transaction after normalization.
type ParsedOrder struct {
	ID              string          `json:"id"`
	CompletedAt     time.Time       `json:"completedAt"`
	Total           float64         `json:"total"`
	ShippingLat     float64         `json:"shippingLat"`
	ShippingLng     float64         `json:"shippingLng"`
	StoreLat        float64         `json:"storeLat"`
	StoreLng        float64         `json:"storeLng"`
	StoreName       string          `json:"storeName"`
	Category        Category        `json:"category"`
	Products        []ParsedProduct `json:"products"`
	FulfillmentType FulfillmentType `json:"fulfillmentType"`
	Merchant        string          `json:"merchant,omitempty"`
	Rating          *float64        `json:"rating,omitempty"`
}

func (o ParsedOrder) Shipping() Location {
	return Location{Lat: o.ShippingLat, Lng: o.ShippingLng}
}

func (o ParsedOrder) Store() Location {
	return Location{Lat: o.StoreLat, Lng: o.StoreLng}
}

// TransactionRow is a stored row of the transaction_cache table.
type TransactionRow struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Merchant        string          `json:"merchant"`
	TransactionData json.RawMessage `json:"transaction_data"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
