package flowcore

import "sort"

// ReconstructVisits builds the item's chronologically ordered route from its
// populated arrival timestamps. Equal timestamps are kept as a visible group
// in canonical catalog order; that group is the tie-break input for final
// location resolution, so it is never collapsed.
func ReconstructVisits(item CargoItem, catalog Catalog) []Visit {
	visits := make([]Visit, 0, len(item.Arrivals))
	for _, loc := range catalog.Locations() {
		ts := item.Arrivals[loc]
		if ts == nil {
			continue
		}
		visits = append(visits, Visit{Location: loc, At: *ts})
	}
	sort.SliceStable(visits, func(i, j int) bool {
		return visits[i].At.Before(visits[j].At)
	})
	return visits
}

// sameCalendarDate reports whether two timestamps fall on the same day.
func sameCalendarDate(a, b Visit) bool {
	ay, am, ad := a.At.Date()
	by, bm, bd := b.At.Date()
	return ay == by && am == bm && ad == bd
}
