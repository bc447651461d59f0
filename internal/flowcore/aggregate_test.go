package flowcore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateMonthlyBuckets(t *testing.T) {
	catalog := DefaultCatalog()
	agg := NewAggregator(catalog)
	quality := NewDataQualityReport()

	items := []CargoItem{
		{CaseNo: "C-1", PackageQty: 4, CurrentLocation: "DAS"},
		{CaseNo: "C-2", PackageQty: 2, CurrentLocation: "DSV Indoor"},
	}
	events := []StockEvent{
		{CaseNo: "C-1", Kind: EventInbound, Location: "DSV Indoor", At: *ts(t, "2024-05-03"), Qty: 4},
		{CaseNo: "C-1", Kind: EventOutbound, Location: "DSV Indoor", At: *ts(t, "2024-06-10"), Qty: 4},
		{CaseNo: "C-1", Kind: EventInbound, Location: "DAS", At: *ts(t, "2024-06-10"), Qty: 4},
		{CaseNo: "C-2", Kind: EventInbound, Location: "DSV Indoor", At: *ts(t, "2024-06-01"), Qty: 2},
	}

	warehouse, site, occupancy := agg.Aggregate(items, events, quality)

	assert.Equal(t, 4, warehouse.MatrixCell("2024-05", "DSV Indoor").Inbound)
	assert.Equal(t, 4, warehouse.MatrixCell("2024-06", "DSV Indoor").Outbound)
	assert.Equal(t, 2, warehouse.MatrixCell("2024-06", "DSV Indoor").Inbound)
	// May: 4 in. June: +2 in, -4 out => 2 remaining.
	assert.Equal(t, 4, warehouse.MatrixCell("2024-05", "DSV Indoor").Inventory)
	assert.Equal(t, 2, warehouse.MatrixCell("2024-06", "DSV Indoor").Inventory)

	assert.Equal(t, 4, site.MatrixCell("2024-06", "DAS").Inbound)
	assert.Equal(t, 4, site.MatrixCell("2024-06", "DAS").Inventory)

	total, ok := warehouse.TotalRow()
	require.True(t, ok)
	assert.Equal(t, 6, total.Cells["DSV Indoor"].Inbound)
	assert.Equal(t, 4, total.Cells["DSV Indoor"].Outbound)
	assert.Equal(t, 2, total.Cells["DSV Indoor"].Inventory)

	assert.Equal(t, 1, occupancy["DAS"])
	assert.Equal(t, 1, occupancy["DSV Indoor"])
}

func TestAggregateInventoryFloorsAtZero(t *testing.T) {
	catalog := DefaultCatalog()
	agg := NewAggregator(catalog)
	quality := NewDataQualityReport()

	events := []StockEvent{
		{CaseNo: "C-1", Kind: EventOutbound, Location: "DSV Outdoor", At: *ts(t, "2024-06-05"), Qty: 3},
	}

	warehouse, _, _ := agg.Aggregate(nil, events, quality)

	assert.Equal(t, 0, warehouse.MatrixCell("2024-06", "DSV Outdoor").Inventory)
	assert.Equal(t, 1, quality.CountOf(IssueInvariant))
}

func TestAggregateOccupancyIsClosedPartition(t *testing.T) {
	catalog := DefaultCatalog()
	agg := NewAggregator(catalog)

	items := []CargoItem{
		{CaseNo: "C-1", CurrentLocation: "DSV Indoor"},
		{CaseNo: "C-2", CurrentLocation: "Pre Arrival"},
		{CaseNo: "C-3", CurrentLocation: ""},
		{CaseNo: "C-4", CurrentLocation: "somewhere odd"},
		{CaseNo: "C-5", CurrentLocation: "MIR"},
	}

	occupancy := agg.snapshotOccupancy(items)

	sum := 0
	for _, n := range occupancy {
		sum += n
	}
	assert.Equal(t, len(items), sum)
	assert.Equal(t, 1, occupancy[PreArrivalBucket])
	assert.Equal(t, 1, occupancy[UnknownLocation])
}

func TestAggregateReconciliationMismatch(t *testing.T) {
	catalog := DefaultCatalog()
	agg := NewAggregator(catalog)
	quality := NewDataQualityReport()

	// Snapshot claims 10 packages at Indoor; events only account for 2.
	items := []CargoItem{
		{CaseNo: "C-1", PackageQty: 10, CurrentLocation: "DSV Indoor"},
	}
	events := []StockEvent{
		{CaseNo: "C-1", Kind: EventInbound, Location: "DSV Indoor", At: *ts(t, "2024-06-01"), Qty: 2},
	}

	agg.Aggregate(items, events, quality)
	assert.Equal(t, 1, quality.CountOf(IssueReconciliation))
}

func TestAggregateReconciliationWithinTolerance(t *testing.T) {
	catalog := DefaultCatalog()
	agg := NewAggregator(catalog)
	quality := NewDataQualityReport()

	items := []CargoItem{
		{CaseNo: "C-1", PackageQty: 5, CurrentLocation: "DSV Indoor"},
	}
	events := []StockEvent{
		{CaseNo: "C-1", Kind: EventInbound, Location: "DSV Indoor", At: *ts(t, "2024-06-01"), Qty: 5},
	}

	agg.Aggregate(items, events, quality)
	assert.Zero(t, quality.CountOf(IssueReconciliation))
}

func TestMonthKeyBucketsByCalendarMonth(t *testing.T) {
	at, err := time.Parse(time.RFC3339, "2024-06-30T23:15:00Z")
	assert.NoError(t, err)
	assert.Equal(t, "2024-06", monthKey(at))
}
