package flowcore

import (
	"github.com/shopspring/decimal"
)

// BillingCalculator extends aggregation with occupied-area tracking,
// utilization against rated capacity, and the monthly charge per warehouse.
// Sites and the offshore hub carry no area ledger.
type BillingCalculator struct {
	catalog Catalog
}

func NewBillingCalculator(catalog Catalog) *BillingCalculator {
	return &BillingCalculator{catalog: catalog}
}

// Calculate walks warehouse events in ascending month order, carrying the
// cumulative occupied area forward, floored at zero.
func (b *BillingCalculator) Calculate(items []CargoItem, events []StockEvent) BillingReport {
	report := BillingReport{
		ByLocation: make(map[string]AreaSplit),
	}

	months := eventMonths(events)

	type areas struct{ in, out float64 }
	byCell := make(map[string]map[string]areas)
	for _, ev := range events {
		if !b.catalog.IsWarehouse(ev.Location) {
			continue
		}
		if byCell[ev.Location] == nil {
			byCell[ev.Location] = make(map[string]areas)
		}
		cell := byCell[ev.Location][monthKey(ev.At)]
		switch {
		case ev.Kind.Inbound():
			cell.in += ev.Area
		case ev.Kind.Outbound():
			cell.out += ev.Area
		}
		byCell[ev.Location][monthKey(ev.At)] = cell
	}

	totals := make(map[string]*BillingTotal, len(months))
	for _, w := range b.catalog.Warehouses {
		cumulative := 0.0
		for _, m := range months {
			cell := byCell[w.Name][m]
			cumulative += cell.in - cell.out
			if cumulative < 0 {
				cumulative = 0
			}

			utilization := 0.0
			if w.Capacity > 0 {
				utilization = cumulative / w.Capacity * 100
			}
			charge := decimal.NewFromFloat(cumulative).Mul(w.Rate).Round(2)

			report.Rows = append(report.Rows, BillingRow{
				Month:          m,
				Location:       w.Name,
				InboundArea:    cell.in,
				OutboundArea:   cell.out,
				NetArea:        cell.in - cell.out,
				CumulativeArea: cumulative,
				UtilizationPct: utilization,
				Charge:         charge,
			})

			total := totals[m]
			if total == nil {
				total = &BillingTotal{Month: m, Charge: decimal.Zero}
				totals[m] = total
			}
			total.CumulativeArea += cumulative
			total.Charge = total.Charge.Add(charge)
		}
	}

	for _, m := range months {
		if total := totals[m]; total != nil {
			report.MonthlyTotals = append(report.MonthlyTotals, *total)
		}
	}

	report.AreaSources, report.ByLocation = b.areaSplit(items)
	return report
}

// areaSplit reports reliance on estimated areas, system-wide and per final
// location, so heavy estimation shows up in review.
func (b *BillingCalculator) areaSplit(items []CargoItem) (AreaSplit, map[string]AreaSplit) {
	system := AreaSplit{}
	byLocation := make(map[string]AreaSplit)

	for _, item := range items {
		split := byLocation[item.FinalLocation]
		if item.AreaSource == AreaActual {
			system.Actual++
			split.Actual++
		} else {
			system.Estimated++
			split.Estimated++
		}
		byLocation[item.FinalLocation] = split
	}

	system.ActualPct = actualPct(system)
	for loc, split := range byLocation {
		split.ActualPct = actualPct(split)
		byLocation[loc] = split
	}
	return system, byLocation
}

func actualPct(split AreaSplit) float64 {
	total := split.Actual + split.Estimated
	if total == 0 {
		return 0
	}
	return float64(split.Actual) / float64(total) * 100
}
