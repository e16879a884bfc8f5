package webhook

import (
	"strings"

	"fulfillment/internal/core/domain/model/order"
)

// FAILED is a failed delivery attempt, not a cancellation. It stays unmapped
// so the order is left for human review instead of closing terminally.
var statusEvents = map[string]order.Event{
	"PICKED_UP":  order.CourierPickedUp,
	"IN_TRANSIT": order.CourierPickedUp,
	"DELIVERED":  order.CourierDelivered,
	"CANCELLED":  order.CourierCancelled,
	"CANCELED":   order.CourierCancelled,
}

// MapStatus translates platform vocabulary into an order event. Unknown
// statuses report false.
func MapStatus(external string) (order.Event, bool) {
	e, ok := statusEvents[strings.ToUpper(strings.TrimSpace(external))]
	return e, ok
}
