package flowcore

import "strings"

// Flow codes order an item's route complexity. Code 0 is reserved for items
// whose snapshot marks them pre-arrival, regardless of timestamp evidence.
const (
	FlowPreArrival = 0
	FlowDirect     = 1
	FlowSingleHop  = 2
	FlowOffshore   = 3
	FlowMultiHop   = 4
)

var flowDescriptions = map[int]string{
	FlowPreArrival: "Pre-Arrival",
	FlowDirect:     "Direct",
	FlowSingleHop:  "Single-hop",
	FlowOffshore:   "Offshore-hop",
	FlowMultiHop:   "Multi-hop-with-offshore",
}

// FlowDescription returns the human label for a flow code.
func FlowDescription(code int) string {
	if desc, ok := flowDescriptions[code]; ok {
		return desc
	}
	return flowDescriptions[FlowDirect]
}

// ClassifyFlow assigns the route-complexity code for an item. The snapshot
// pre-arrival marker overrides everything; otherwise the code is the count
// of distinct visited warehouses plus an offshore-hub flag plus one for the
// unavoidable port-to-site leg, clamped to [1,4]. Items with no storage
// visits at all take the catalog's configured default.
func ClassifyFlow(item CargoItem, catalog Catalog) (int, string) {
	if isPreArrival(item.CurrentLocation, catalog) {
		return FlowPreArrival, FlowDescription(FlowPreArrival)
	}

	hops := 0
	for _, w := range catalog.Warehouses {
		if item.Arrivals[w.Name] != nil {
			hops++
		}
	}
	offshore := 0
	if catalog.OffshoreHub != "" && item.Arrivals[catalog.OffshoreHub] != nil {
		offshore = 1
	}

	if hops == 0 && offshore == 0 {
		code := catalog.DefaultFlowCode
		if code < FlowDirect || code > FlowMultiHop {
			code = FlowDirect
		}
		return code, FlowDescription(code)
	}

	code := hops + offshore + 1
	if code < FlowDirect {
		code = FlowDirect
	}
	if code > FlowMultiHop {
		code = FlowMultiHop
	}
	return code, FlowDescription(code)
}

func isPreArrival(status string, catalog Catalog) bool {
	lower := strings.ToLower(status)
	for _, marker := range catalog.PreArrivalMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
