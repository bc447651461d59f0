package flowcore

import (
	"sort"
	"time"
)

// DeriveEvents turns an item's visit list into dated inbound/outbound/
// transfer events, all carrying the item's package quantity and area.
//
// For every visited location an inbound is recorded, unless that arrival is
// one end of a detected transfer for the same date, in which case the linked
// transfer-in/transfer-out pair replaces the plain events. Non-transfer
// outbounds are found by searching forward for the nearest strictly later
// visit; a location with no later visit keeps the item and emits nothing.
func DeriveEvents(item CargoItem, visits []Visit, catalog Catalog) ([]StockEvent, []TransferEvent) {
	if len(visits) == 0 {
		return nil, nil
	}

	at := make(map[string]Visit, len(visits))
	for _, v := range visits {
		at[v.Location] = v
	}

	var (
		events      []StockEvent
		transfers   []TransferEvent
		skipInbound = make(map[string]bool)
		skipOut     = make(map[string]bool)
	)

	// Same-calendar-date arrivals on a monitored pair collapse into one
	// linked transfer instead of two unrelated inbounds.
	for _, pair := range catalog.TransferPairs {
		src, okSrc := at[pair.From]
		dst, okDst := at[pair.To]
		if !okSrc || !okDst || !sameCalendarDate(src, dst) {
			continue
		}
		if skipInbound[pair.From] || skipInbound[pair.To] {
			continue
		}
		transfers = append(transfers, TransferEvent{
			CaseNo: item.CaseNo,
			From:   pair.From,
			To:     pair.To,
			At:     dst.At,
			Qty:    item.PackageQty,
		})
		events = append(events,
			StockEvent{CaseNo: item.CaseNo, Kind: EventTransferOut, Location: pair.From, At: src.At, Qty: item.PackageQty, Area: item.Area},
			StockEvent{CaseNo: item.CaseNo, Kind: EventTransferIn, Location: pair.To, At: dst.At, Qty: item.PackageQty, Area: item.Area},
		)
		skipInbound[pair.From] = true
		skipInbound[pair.To] = true
		skipOut[pair.From] = true
	}

	for _, v := range visits {
		if !skipInbound[v.Location] {
			events = append(events, StockEvent{
				CaseNo:   item.CaseNo,
				Kind:     EventInbound,
				Location: v.Location,
				At:       v.At,
				Qty:      item.PackageQty,
				Area:     item.Area,
			})
		}
		if skipOut[v.Location] {
			continue
		}
		if next, ok := nextDeparture(v, visits); ok {
			events = append(events, StockEvent{
				CaseNo:   item.CaseNo,
				Kind:     EventOutbound,
				Location: v.Location,
				At:       next,
				Qty:      item.PackageQty,
				Area:     item.Area,
			})
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].At.Equal(events[j].At) {
			return events[i].At.Before(events[j].At)
		}
		return events[i].Location < events[j].Location
	})

	return events, transfers
}

// nextDeparture finds the chronologically nearest visit strictly after v.
// ok is false when v is the item's last known stop.
func nextDeparture(v Visit, visits []Visit) (next time.Time, ok bool) {
	for _, other := range visits {
		if other.Location == v.Location || !other.At.After(v.At) {
			continue
		}
		if !ok || other.At.Before(next) {
			next = other.At
			ok = true
		}
	}
	return next, ok
}
