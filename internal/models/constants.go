package models

const (
	OrderStatusCompleted = "completed"
	OrderStatusComplete  = "complete"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
	OrderStatusPending   = "pending"

	MerchantDoorDash = "doordash"
	MerchantUberEats = "ubereats"

	// DefaultStoreName is used when a record carries no store name.
	DefaultStoreName = "Restaurant"
	// DefaultProductName is used for line items without a name.
	DefaultProductName = "Menu Item"

	// AreaRadiusMeters is the fixed radius of an area query (about one mile).
	AreaRadiusMeters = 1600.0
	// PickupDistanceMeters is the store-to-shipping distance under which an
	// order without an explicit fulfillment type counts as pickup.
	PickupDistanceMeters = 50.0

	CategoryFilterAll = "all"
)

var DayLabels = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
