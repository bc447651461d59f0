package flowcore

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func billingRow(t *testing.T, report BillingReport, month, location string) BillingRow {
	t.Helper()
	for _, row := range report.Rows {
		if row.Month == month && row.Location == location {
			return row
		}
	}
	t.Fatalf("no billing row for %s / %s", month, location)
	return BillingRow{}
}

func TestBillingCumulativeAreaAndCharge(t *testing.T) {
	catalog := Catalog{
		Version: "test",
		Warehouses: []Warehouse{
			{Name: "DSV Indoor", Priority: 1, Capacity: 100, Rate: decimal.NewFromInt(10)},
		},
	}
	calc := NewBillingCalculator(catalog)

	events := []StockEvent{
		{CaseNo: "C-1", Kind: EventInbound, Location: "DSV Indoor", At: *ts(t, "2024-05-01"), Qty: 1, Area: 40},
		{CaseNo: "C-2", Kind: EventInbound, Location: "DSV Indoor", At: *ts(t, "2024-06-01"), Qty: 1, Area: 20},
		{CaseNo: "C-1", Kind: EventOutbound, Location: "DSV Indoor", At: *ts(t, "2024-06-15"), Qty: 1, Area: 40},
	}

	report := calc.Calculate(nil, events)

	may := billingRow(t, report, "2024-05", "DSV Indoor")
	assert.Equal(t, 40.0, may.InboundArea)
	assert.Equal(t, 40.0, may.CumulativeArea)
	assert.Equal(t, 40.0, may.UtilizationPct)
	assert.True(t, may.Charge.Equal(decimal.NewFromInt(400)), may.Charge.String())

	june := billingRow(t, report, "2024-06", "DSV Indoor")
	assert.Equal(t, 20.0, june.InboundArea)
	assert.Equal(t, 40.0, june.OutboundArea)
	assert.Equal(t, -20.0, june.NetArea)
	assert.Equal(t, 20.0, june.CumulativeArea)
	assert.Equal(t, 20.0, june.UtilizationPct)
	assert.True(t, june.Charge.Equal(decimal.NewFromInt(200)), june.Charge.String())

	require.Len(t, report.MonthlyTotals, 2)
	assert.True(t, report.MonthlyTotals[1].Charge.Equal(decimal.NewFromInt(200)))
}

func TestBillingCumulativeAreaFloorsAtZero(t *testing.T) {
	catalog := Catalog{
		Warehouses: []Warehouse{
			{Name: "DSV Outdoor", Priority: 1, Capacity: 50, Rate: decimal.NewFromInt(5)},
		},
	}
	calc := NewBillingCalculator(catalog)

	events := []StockEvent{
		{CaseNo: "C-1", Kind: EventOutbound, Location: "DSV Outdoor", At: *ts(t, "2024-06-01"), Qty: 1, Area: 30},
	}

	report := calc.Calculate(nil, events)
	row := billingRow(t, report, "2024-06", "DSV Outdoor")
	assert.Equal(t, 0.0, row.CumulativeArea)
	assert.True(t, row.Charge.IsZero())
}

func TestBillingIgnoresSitesAndHub(t *testing.T) {
	catalog := DefaultCatalog()
	calc := NewBillingCalculator(catalog)

	events := []StockEvent{
		{CaseNo: "C-1", Kind: EventInbound, Location: "AGI", At: *ts(t, "2024-06-01"), Qty: 1, Area: 10},
		{CaseNo: "C-1", Kind: EventInbound, Location: "MOSB", At: *ts(t, "2024-05-01"), Qty: 1, Area: 10},
	}

	report := calc.Calculate(nil, events)
	for _, row := range report.Rows {
		assert.NotEqual(t, "AGI", row.Location)
		assert.NotEqual(t, "MOSB", row.Location)
		assert.Zero(t, row.InboundArea)
	}
}

func TestBillingAreaSourceSplit(t *testing.T) {
	calc := NewBillingCalculator(DefaultCatalog())

	items := []CargoItem{
		{CaseNo: "C-1", FinalLocation: "DSV Indoor", AreaSource: AreaActual},
		{CaseNo: "C-2", FinalLocation: "DSV Indoor", AreaSource: AreaEstimated},
		{CaseNo: "C-3", FinalLocation: "DAS", AreaSource: AreaActual},
		{CaseNo: "C-4", FinalLocation: "DAS", AreaSource: AreaActual},
	}

	report := calc.Calculate(items, nil)

	assert.Equal(t, 3, report.AreaSources.Actual)
	assert.Equal(t, 1, report.AreaSources.Estimated)
	assert.InDelta(t, 75.0, report.AreaSources.ActualPct, 0.001)

	indoor := report.ByLocation["DSV Indoor"]
	assert.InDelta(t, 50.0, indoor.ActualPct, 0.001)
	das := report.ByLocation["DAS"]
	assert.InDelta(t, 100.0, das.ActualPct, 0.001)
}
