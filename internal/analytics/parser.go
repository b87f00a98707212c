package analytics

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/chrisdamba/foodlens/internal/geo"
	"github.com/chrisdamba/foodlens/internal/models"
)

// Candidate paths, tried in order. The first path holding a value of the
// expected shape wins.
var (
	idPaths = []fieldPath{{"_id"}, {"id"}, {"order_id"}, {"orderId"}, {"external_id"}}

	statusPaths = []fieldPath{{"status"}, {"order_status"}, {"state"}, {"order", "status"}}

	completedAtPaths = []fieldPath{
		{"order_completed_at"}, {"completed_at"}, {"completedAt"}, {"orderCompletedAt"},
		{"timestamps", "completed_at"}, {"delivered_at"}, {"datetime"}, {"date"},
	}

	totalPaths = []fieldPath{
		{"price", "total"}, {"total"}, {"order_total"}, {"amount", "total"}, {"amount"},
	}

	subtotalPaths = []fieldPath{
		{"price", "subTotal"}, {"price", "sub_total"}, {"price", "subtotal"}, {"subtotal"}, {"sub_total"},
	}

	shippingPaths = []fieldPath{
		{"shipping_address", "location", "coordinates"}, {"shipping_address", "location"}, {"shipping_address"},
		{"delivery_address", "location", "coordinates"}, {"delivery_address", "location"}, {"delivery_address"},
		{"shipping_location"},
	}

	storePaths = []fieldPath{
		{"store", "address", "location", "coordinates"}, {"store", "address", "location"},
		{"store", "location", "coordinates"}, {"store", "location"}, {"store", "address"},
		{"restaurant", "address", "location", "coordinates"}, {"restaurant", "location", "coordinates"},
		{"restaurant", "location"},
	}

	storeNamePaths = []fieldPath{
		{"store", "name"}, {"restaurant", "name"}, {"store_name"}, {"restaurant_name"},
	}

	cuisinePaths = []fieldPath{
		{"store", "cuisine"}, {"cuisine"}, {"restaurant", "cuisine"},
		{"store", "category"}, {"category"},
	}

	ratingPaths = []fieldPath{{"store", "rating"}, {"restaurant", "rating"}, {"rating"}}

	fulfillmentPaths = []fieldPath{
		{"fulfillment_type"}, {"fulfillmentType"}, {"order_type"}, {"fulfillment", "type"}, {"delivery_type"},
	}

	// merchant is the delivery platform (doordash, ubereats), not the store
	merchantPaths = []fieldPath{{"merchant"}, {"merchant", "name"}, {"platform"}}

	productListPaths = []fieldPath{{"products"}, {"items"}, {"line_items"}}

	productNamePaths     = []fieldPath{{"name"}, {"title"}, {"product_name"}}
	productQuantityPaths = []fieldPath{{"quantity"}, {"qty"}}
	productUnitPaths     = []fieldPath{{"unitPrice"}, {"unit_price"}, {"price"}}
	productTotalPaths    = []fieldPath{{"total"}, {"total_price"}, {"totalPrice"}}
)

var completedStatuses = map[string]struct{}{
	models.OrderStatusCompleted: {},
	models.OrderStatusComplete:  {},
	models.OrderStatusDelivered: {},
}

// ParseStats counts why records were dropped. Callers log it; the parser never
// surfaces per-record errors.
type ParseStats struct {
	Total        int
	Parsed       int
	NotObject    int
	NotCompleted int
	NoTimestamp  int
	NoLocation   int
	NoTotal      int
}

func (s ParseStats) Dropped() int {
	return s.Total - s.Parsed
}

// Parser turns raw transaction records into ParsedOrders. Location controls
// how zone-less timestamps are read and which zone weekday/hour buckets use.
type Parser struct {
	Location *time.Location
}

func NewParser(loc *time.Location) *Parser {
	if loc == nil {
		loc = time.Local
	}
	return &Parser{Location: loc}
}

// ParseOrders parses with the process local time zone.
func ParseOrders(raw []any) []models.ParsedOrder {
	orders, _ := NewParser(time.Local).ParseWithStats(raw)
	return orders
}

func (p *Parser) Parse(raw []any) []models.ParsedOrder {
	orders, _ := p.ParseWithStats(raw)
	return orders
}

func (p *Parser) ParseWithStats(raw []any) ([]models.ParsedOrder, ParseStats) {
	loc := p.Location
	if loc == nil {
		loc = time.Local
	}
	parseTime := timeParser(loc)

	stats := ParseStats{Total: len(raw)}
	orders := make([]models.ParsedOrder, 0, len(raw))
	for i, item := range raw {
		rec, ok := asObject(item)
		if !ok {
			stats.NotObject++
			continue
		}
		order, reason := parseRecord(rec, i, parseTime)
		switch reason {
		case dropNone:
			orders = append(orders, order)
			stats.Parsed++
		case dropNotCompleted:
			stats.NotCompleted++
		case dropNoTimestamp:
			stats.NoTimestamp++
		case dropNoLocation:
			stats.NoLocation++
		case dropNoTotal:
			stats.NoTotal++
		}
	}
	return orders, stats
}

// ParseRows unwraps stored transaction_cache rows and parses their payloads.
func (p *Parser) ParseRows(rows []models.TransactionRow) ([]models.ParsedOrder, ParseStats) {
	return p.ParseWithStats(RowRecords(rows))
}

// RowRecords decodes the payload of each row. The row's merchant is copied
// into payloads that do not name one.
func RowRecords(rows []models.TransactionRow) []any {
	blobs := make([]json.RawMessage, len(rows))
	for i, row := range rows {
		blobs[i] = row.TransactionData
	}
	records := DecodeRecords(blobs)
	for i, rec := range records {
		m, ok := rec.(map[string]any)
		if !ok {
			continue
		}
		if _, has := lookup(m, fieldPath{"merchant"}); !has && rows[i].Merchant != "" {
			m["merchant"] = rows[i].Merchant
		}
	}
	return records
}

// DecodeRecords decodes each blob independently. A blob that is not valid JSON
// becomes nil so it is counted and dropped by the parser instead of failing
// the whole batch.
func DecodeRecords(blobs []json.RawMessage) []any {
	out := make([]any, len(blobs))
	for i, blob := range blobs {
		if len(blob) == 0 {
			continue
		}
		var v any
		if err := json.Unmarshal(blob, &v); err != nil {
			continue
		}
		// some writers store the payload as a JSON string
		if s, ok := v.(string); ok {
			var inner any
			if err := json.Unmarshal([]byte(s), &inner); err == nil {
				v = inner
			}
		}
		out[i] = v
	}
	return out
}

type dropReason int

const (
	dropNone dropReason = iota
	dropNotCompleted
	dropNoTimestamp
	dropNoLocation
	dropNoTotal
)

func parseRecord(rec map[string]any, index int, parseTime func(any) (time.Time, bool)) (models.ParsedOrder, dropReason) {
	var order models.ParsedOrder

	status, _ := firstValid(rec, statusPaths, asString)
	if _, ok := completedStatuses[normalizeText(status)]; !ok {
		return order, dropNotCompleted
	}

	completedAt, ok := firstValid(rec, completedAtPaths, parseTime)
	if !ok {
		return order, dropNoTimestamp
	}

	shipping, ok := firstValid(rec, shippingPaths, asPoint)
	if !ok {
		return order, dropNoLocation
	}
	store, ok := firstValid(rec, storePaths, asPoint)
	if !ok {
		store = shipping
	}

	products, itemsPriced := parseProducts(rec)

	total, ok := firstValid(rec, totalPaths, asAmount)
	if !ok {
		total, ok = firstValid(rec, subtotalPaths, asAmount)
	}
	if !ok && itemsPriced {
		for _, product := range products {
			total += product.Total
		}
		ok = true
	}
	if !ok {
		return order, dropNoTotal
	}

	storeName, ok := firstValid(rec, storeNamePaths, asString)
	if !ok {
		storeName = models.DefaultStoreName
	}

	productNames := make([]string, len(products))
	for i, product := range products {
		productNames[i] = product.Name
	}
	explicitCuisine, _ := firstValid(rec, cuisinePaths, asString)

	id, ok := firstValid(rec, idPaths, asIdentifier)
	if !ok {
		id = fmt.Sprintf("%s-%d", completedAt.UTC().Format(time.RFC3339Nano), index)
	}

	order = models.ParsedOrder{
		ID:              id,
		CompletedAt:     completedAt,
		Total:           round2(total),
		ShippingLat:     shipping.Lat,
		ShippingLng:     shipping.Lng,
		StoreLat:        store.Lat,
		StoreLng:        store.Lng,
		StoreName:       storeName,
		Category:        Classify(explicitCuisine, storeName, productNames),
		Products:        products,
		FulfillmentType: detectFulfillment(rec, shipping, store),
	}
	if merchant, ok := firstValid(rec, merchantPaths, asString); ok {
		order.Merchant = normalizeText(merchant)
	}
	if rating, ok := firstValid(rec, ratingPaths, asRating); ok {
		order.Rating = &rating
	}
	return order, dropNone
}

// parseProducts reconciles line items. The second result reports whether any
// item carried a price, which decides if the item sum can stand in for a total.
func parseProducts(rec map[string]any) ([]models.ParsedProduct, bool) {
	list, ok := firstValid(rec, productListPaths, asArray)
	if !ok {
		return []models.ParsedProduct{}, false
	}

	priced := false
	products := make([]models.ParsedProduct, 0, len(list))
	for _, raw := range list {
		item, ok := asObject(raw)
		if !ok {
			continue
		}
		name, ok := firstValid(item, productNamePaths, asString)
		if !ok {
			name = models.DefaultProductName
		}
		quantity, ok := firstValid(item, productQuantityPaths, asNumber)
		if !ok || quantity <= 0 {
			quantity = 1
		}
		unitPrice, hasUnit := firstValid(item, productUnitPaths, asNumber)
		lineTotal, hasTotal := firstValid(item, productTotalPaths, asNumber)

		switch {
		case hasUnit && !hasTotal:
			lineTotal = unitPrice * quantity
		case hasTotal && !hasUnit:
			unitPrice = lineTotal / quantity
		}
		if hasUnit || hasTotal {
			priced = true
		}

		products = append(products, models.ParsedProduct{
			Name:      name,
			Quantity:  quantity,
			UnitPrice: round2(math.Max(0, unitPrice)),
			Total:     round2(math.Max(0, lineTotal)),
		})
	}
	return products, priced
}

func detectFulfillment(rec map[string]any, shipping, store geo.Point) models.FulfillmentType {
	declared, _ := firstValid(rec, fulfillmentPaths, func(v any) (models.FulfillmentType, bool) {
		s, ok := asString(v)
		if !ok {
			return "", false
		}
		return models.ParseFulfillmentType(s)
	})
	if declared != "" {
		return declared
	}
	if geo.HaversineDistanceMeters(shipping, store) < models.PickupDistanceMeters {
		return models.FulfillmentPickup
	}
	return models.FulfillmentDelivery
}

// asAmount accepts non-negative numbers only; a negative total is treated as
// unresolved so the next candidate gets a chance.
func asAmount(v any) (float64, bool) {
	n, ok := asNumber(v)
	if !ok || n < 0 {
		return 0, false
	}
	return n, true
}

func asRating(v any) (float64, bool) {
	n, ok := asNumber(v)
	if !ok || n < 0 || n > 5 {
		return 0, false
	}
	return n, true
}

func asIdentifier(v any) (string, bool) {
	if s, ok := asString(v); ok {
		return s, true
	}
	if n, ok := asNumber(v); ok {
		return fmt.Sprintf("%.0f", n), true
	}
	return "", false
}
