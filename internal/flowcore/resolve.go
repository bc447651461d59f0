package flowcore

import "strings"

// UnknownLocation is the terminal fallback when neither timestamps nor the
// snapshot field can place an item.
const UnknownLocation = "Unknown"

// ResolveFinalLocation picks the authoritative current location for an item:
// the location holding its maximum timestamp, with same-timestamp ties broken
// by the catalog rank (lowest wins). Items with no timestamps fall back to
// the snapshot field, then to UnknownLocation. Always total, and independent
// of the order arrivals were recorded in.
func ResolveFinalLocation(item CargoItem, visits []Visit, catalog Catalog) string {
	if len(visits) == 0 {
		if loc := canonicalSnapshotLocation(item.CurrentLocation, catalog); loc != "" {
			return loc
		}
		return UnknownLocation
	}

	maxAt := visits[0].At
	for _, v := range visits[1:] {
		if v.At.After(maxAt) {
			maxAt = v.At
		}
	}

	best := ""
	bestRank := 0
	for _, v := range visits {
		if !v.At.Equal(maxAt) {
			continue
		}
		rank := catalog.TieRank(v.Location)
		if best == "" || rank < bestRank {
			best = v.Location
			bestRank = rank
		}
	}
	return best
}

// canonicalSnapshotLocation maps the free-text snapshot field onto a catalog
// location when it matches one, otherwise returns the trimmed text as-is.
// Pre-arrival style statuses are not locations and map to empty.
func canonicalSnapshotLocation(text string, catalog Catalog) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	lower := strings.ToLower(text)
	for _, marker := range catalog.PreArrivalMarkers {
		if strings.Contains(lower, marker) {
			return ""
		}
	}
	for _, loc := range catalog.Locations() {
		if strings.EqualFold(loc, text) {
			return loc
		}
	}
	return text
}
