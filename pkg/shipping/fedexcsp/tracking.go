package fedexcsp

import (
	"sort"

	"github.com/tournevent/fedexcsp/pkg/shipping"
)

// processShipmentEvents turns the raw event list from a track reply
// into the public timeline. Events without a physical location are
// carrier-internal bookkeeping (e.g. "Shipment information sent to
// FedEx") and are dropped. The rest are sorted ascending by timestamp;
// the sort is stable so same-timestamp events keep the feed's order.
// Applying the function to its own output is a no-op.
func processShipmentEvents(events []shipping.ShipmentEvent) []shipping.ShipmentEvent {
	timeline := make([]shipping.ShipmentEvent, 0, len(events))
	for _, event := range events {
		if event.Location == nil {
			continue
		}
		timeline = append(timeline, event)
	}

	sort.SliceStable(timeline, func(i, j int) bool {
		return timeline[i].Time.Before(timeline[j].Time)
	})
	return timeline
}
