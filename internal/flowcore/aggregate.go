package flowcore

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// PreArrivalBucket labels snapshot occupancy for items not yet in country.
const PreArrivalBucket = "Pre Arrival"

// Aggregator buckets derived events into per-location monthly tables and
// cross-checks them against the snapshot field.
type Aggregator struct {
	catalog Catalog
}

func NewAggregator(catalog Catalog) *Aggregator {
	return &Aggregator{catalog: catalog}
}

// Aggregate produces the warehouse and site monthly matrices plus the
// snapshot-derived occupancy partition. Inventory is cumulative inbound
// minus cumulative outbound per location, clamped at zero; raw negatives
// are tallied as invariant violations, never propagated.
func (a *Aggregator) Aggregate(items []CargoItem, events []StockEvent, quality *DataQualityReport) (warehouse, site MonthlyMatrix, occupancy map[string]int) {
	months := eventMonths(events)

	type flows struct{ in, out int }
	byCell := make(map[string]map[string]flows) // location -> month -> flows
	for _, ev := range events {
		loc := ev.Location
		if byCell[loc] == nil {
			byCell[loc] = make(map[string]flows)
		}
		cell := byCell[loc][monthKey(ev.At)]
		switch {
		case ev.Kind.Inbound():
			cell.in += ev.Qty
		case ev.Kind.Outbound():
			cell.out += ev.Qty
		}
		byCell[loc][monthKey(ev.At)] = cell
	}

	// Cumulative inventory must walk months in ascending calendar order.
	inventory := make(map[string]map[string]int)
	for loc, cells := range byCell {
		inventory[loc] = make(map[string]int)
		running := 0
		for _, m := range months {
			cell := cells[m]
			running += cell.in - cell.out
			if running < 0 {
				quality.Add(QualityIssue{
					Category: IssueInvariant,
					Field:    loc,
					Detail:   fmt.Sprintf("inventory for %s in %s computed as %d, clamped to 0", loc, m, running),
				})
				running = 0
			}
			inventory[loc][m] = running
		}
	}

	build := func(locations []string) MonthlyMatrix {
		matrix := MonthlyMatrix{Locations: locations}
		for _, m := range months {
			row := MonthlyRow{Month: m, Cells: make(map[string]MonthlyCell, len(locations))}
			for _, loc := range locations {
				cell := byCell[loc][m]
				row.Cells[loc] = MonthlyCell{
					Inbound:   cell.in,
					Outbound:  cell.out,
					Inventory: inventory[loc][m],
				}
			}
			matrix.Rows = append(matrix.Rows, row)
		}

		total := MonthlyRow{Month: TotalRowLabel, Cells: make(map[string]MonthlyCell, len(locations))}
		for _, loc := range locations {
			sum := MonthlyCell{}
			for _, m := range months {
				cell := byCell[loc][m]
				sum.Inbound += cell.in
				sum.Outbound += cell.out
			}
			if len(months) > 0 {
				sum.Inventory = inventory[loc][months[len(months)-1]]
			}
			total.Cells[loc] = sum
		}
		matrix.Rows = append(matrix.Rows, total)
		return matrix
	}

	warehouse = build(a.catalog.StorageNames())
	site = build(append([]string{}, a.catalog.Sites...))

	occupancy = a.snapshotOccupancy(items)
	a.reconcile(warehouse, site, items, quality)

	return warehouse, site, occupancy
}

// snapshotOccupancy partitions every item by its snapshot location. The
// partition is closed: unknown or blank snapshots land in UnknownLocation
// and pre-arrival statuses in PreArrivalBucket, so bucket counts always sum
// to the item count.
func (a *Aggregator) snapshotOccupancy(items []CargoItem) map[string]int {
	occupancy := make(map[string]int)
	for _, item := range items {
		switch {
		case isPreArrival(item.CurrentLocation, a.catalog):
			occupancy[PreArrivalBucket]++
		default:
			loc := canonicalSnapshotLocation(item.CurrentLocation, a.catalog)
			if loc == "" {
				loc = UnknownLocation
			}
			occupancy[loc]++
		}
	}
	return occupancy
}

// reconcile compares the aggregate final inventory against the independent
// snapshot-derived package totals. Disagreement beyond the configured
// tolerance is reported as RECONCILIATION_MISMATCH, non-fatal.
func (a *Aggregator) reconcile(warehouse, site MonthlyMatrix, items []CargoItem, quality *DataQualityReport) {
	aggregate := 0
	for _, matrix := range []MonthlyMatrix{warehouse, site} {
		if len(matrix.Rows) == 0 {
			continue
		}
		total := matrix.Rows[len(matrix.Rows)-1]
		for _, loc := range matrix.Locations {
			aggregate += total.Cells[loc].Inventory
		}
	}

	// Snapshot side uses package quantities of items the snapshot places at
	// a catalog location, the same unit the matrices aggregate in.
	snapshot := 0
	for _, item := range items {
		loc := canonicalSnapshotLocation(item.CurrentLocation, a.catalog)
		if loc == "" || loc == UnknownLocation {
			continue
		}
		if a.catalog.IsWarehouse(loc) || a.catalog.IsSite(loc) || a.catalog.IsOffshoreHub(loc) {
			snapshot += item.PackageQty
		}
	}

	if snapshot == 0 && aggregate == 0 {
		return
	}
	base := math.Max(float64(snapshot), 1)
	drift := math.Abs(float64(aggregate-snapshot)) / base
	if drift > a.catalog.ReconcileTolerance {
		quality.Add(QualityIssue{
			Category: IssueReconciliation,
			Detail: fmt.Sprintf("aggregate inventory %d vs snapshot occupancy %d (drift %.2f%% exceeds %.2f%%)",
				aggregate, snapshot, drift*100, a.catalog.ReconcileTolerance*100),
		})
	}
}

func eventMonths(events []StockEvent) []string {
	seen := make(map[string]struct{})
	for _, ev := range events {
		seen[monthKey(ev.At)] = struct{}{}
	}
	months := make([]string, 0, len(seen))
	for m := range seen {
		months = append(months, m)
	}
	sort.Strings(months)
	return months
}

func monthKey(t time.Time) string {
	return t.Format("2006-01")
}

// MatrixCell fetches one cell; missing rows resolve to the zero cell.
func (m MonthlyMatrix) MatrixCell(month, location string) MonthlyCell {
	for _, row := range m.Rows {
		if row.Month == month {
			return row.Cells[location]
		}
	}
	return MonthlyCell{}
}

// TotalRow returns the trailing all-months row, if present.
func (m MonthlyMatrix) TotalRow() (MonthlyRow, bool) {
	for _, row := range m.Rows {
		if strings.EqualFold(row.Month, TotalRowLabel) {
			return row, true
		}
	}
	return MonthlyRow{}, false
}
