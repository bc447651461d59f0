package flowcore

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// timestampLayouts are tried in order when parsing arrival cells. The
// extract mixes date-only and datetime cells depending on which upstream
// sheet the row came from.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"02-01-2006",
	"1/2/2006",
}

// Normalizer cleans raw extract rows into typed, defaulted CargoItems.
// It never fails: unparseable fields degrade to defaults and are tallied
// into the run's data-quality report.
type Normalizer struct {
	catalog Catalog
}

func NewNormalizer(catalog Catalog) *Normalizer {
	return &Normalizer{catalog: catalog}
}

// Normalize converts one raw record. Pure apart from tallying into quality.
func (n *Normalizer) Normalize(raw RawItemRecord, quality *DataQualityReport) CargoItem {
	item := CargoItem{
		CaseNo:          strings.TrimSpace(raw.CaseNo),
		Vendor:          strings.TrimSpace(raw.Vendor),
		CurrentLocation: strings.TrimSpace(raw.Status),
		Arrivals:        make(map[string]*time.Time, len(raw.Arrivals)),
	}

	item.PackageQty = n.parseQuantity(raw, quality)
	item.Area, item.AreaSource = n.resolveArea(raw, item.PackageQty, quality)

	for loc, cell := range raw.Arrivals {
		text := strings.TrimSpace(cell)
		if text == "" {
			item.Arrivals[loc] = nil
			continue
		}
		ts, ok := parseTimestamp(text)
		if !ok {
			quality.Add(QualityIssue{
				Category: IssueDataQuality,
				CaseNo:   item.CaseNo,
				Field:    loc,
				Detail:   fmt.Sprintf("unparseable timestamp %q", text),
			})
			item.Arrivals[loc] = nil
			continue
		}
		item.Arrivals[loc] = &ts
	}

	return item
}

// parseQuantity returns the package count, defaulting to 1 for blank,
// non-numeric or zero values.
func (n *Normalizer) parseQuantity(raw RawItemRecord, quality *DataQualityReport) int {
	text := strings.TrimSpace(raw.PackageQty)
	if text == "" {
		return 1
	}
	text = strings.ReplaceAll(text, ",", "")
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		quality.Add(QualityIssue{
			Category: IssueDataQuality,
			CaseNo:   strings.TrimSpace(raw.CaseNo),
			Field:    "package_qty",
			Detail:   fmt.Sprintf("non-numeric quantity %q, defaulted to 1", raw.PackageQty),
		})
		return 1
	}
	qty := int(f)
	if qty < 1 {
		return 1
	}
	return qty
}

// resolveArea walks the priority-ordered explicit area fields; the first
// positive value wins and is tagged ACTUAL. Otherwise the area is estimated
// from the package count and the catalog ratio.
func (n *Normalizer) resolveArea(raw RawItemRecord, qty int, quality *DataQualityReport) (float64, AreaSource) {
	for _, field := range raw.AreaFields {
		text := strings.TrimSpace(field.Value)
		if text == "" {
			continue
		}
		text = strings.ReplaceAll(text, ",", "")
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			quality.Add(QualityIssue{
				Category: IssueDataQuality,
				CaseNo:   strings.TrimSpace(raw.CaseNo),
				Field:    field.Name,
				Detail:   fmt.Sprintf("non-numeric area %q", field.Value),
			})
			continue
		}
		if f > 0 {
			return f, AreaActual
		}
	}
	return float64(qty) * n.catalog.EstimationRatio, AreaEstimated
}

func parseTimestamp(text string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, text); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
