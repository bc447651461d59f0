package service

import (
	"context"
	"testing"
	"time"

	"github.com/hvdclogix/cargoflow/internal/domain"
	"github.com/hvdclogix/cargoflow/internal/flowcore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult(t *testing.T) *flowcore.Result {
	t.Helper()
	engine := flowcore.NewEngine(flowcore.DefaultCatalog())
	records := []flowcore.RawItemRecord{
		{
			CaseNo:     "HE-0001",
			Vendor:     "Hitachi",
			PackageQty: "5",
			Status:     "DAS",
			Arrivals: map[string]string{
				"DSV Indoor": "2024-06-01",
				"DAS":        "2024-06-20",
			},
		},
		{
			CaseNo:     "SC-0002",
			Vendor:     "Schneider",
			PackageQty: "3",
			Status:     "DSV Al Markaz",
			Arrivals: map[string]string{
				"DSV Al Markaz": "2024-06-10",
			},
		},
		{
			CaseNo:     "HE-0003",
			Vendor:     "Hitachi",
			PackageQty: "2",
			Status:     "PRE ARRIVAL",
			Arrivals:   map[string]string{},
		},
	}
	return engine.Run(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), records)
}

func publishedService(t *testing.T) *FlowService {
	t.Helper()
	svc := NewFlowService(nil, nil)
	_, err := svc.PublishResult(context.Background(), sampleResult(t))
	require.NoError(t, err)
	return svc
}

func TestReadsBeforeFirstRunReturnErrNoRun(t *testing.T) {
	svc := NewFlowService(nil, nil)
	ctx := context.Background()

	_, err := svc.LatestRun(ctx)
	assert.ErrorIs(t, err, ErrNoRun)

	_, _, err = svc.GetItems(ctx, domain.ItemFilter{})
	assert.ErrorIs(t, err, ErrNoRun)

	_, err = svc.GetDashboard(ctx)
	assert.ErrorIs(t, err, ErrNoRun)
}

func TestLatestRunSummarizesCurrentResult(t *testing.T) {
	svc := publishedService(t)

	run, err := svc.LatestRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, run.TotalItems)
	assert.Equal(t, 10, run.TotalPackages)
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), run.SnapshotDate)
}

func TestGetItemsFiltersByVendorAndFlowCode(t *testing.T) {
	svc := publishedService(t)
	ctx := context.Background()

	items, total, err := svc.GetItems(ctx, domain.ItemFilter{Vendors: []string{"hitachi"}})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, item := range items {
		assert.Equal(t, "Hitachi", item.Vendor)
	}

	items, total, err = svc.GetItems(ctx, domain.ItemFilter{FlowCodes: []int{0}})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, "HE-0003", items[0].CaseNo)
}

func TestGetItemsPaginates(t *testing.T) {
	svc := publishedService(t)
	ctx := context.Background()

	page1, total, err := svc.GetItems(ctx, domain.ItemFilter{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page1, 2)

	page2, _, err := svc.GetItems(ctx, domain.ItemFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page2, 1)

	// Items are ordered by case number across pages.
	assert.Equal(t, "HE-0001", page1[0].CaseNo)
	assert.Equal(t, "SC-0002", page2[0].CaseNo)

	empty, _, err := svc.GetItems(ctx, domain.ItemFilter{Page: 5, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGetMonthlyFlowsKeepsTotalRow(t *testing.T) {
	svc := publishedService(t)

	rows, err := svc.GetMonthlyFlows(context.Background(), domain.ScopeSite)
	require.NoError(t, err)

	sawTotal := false
	for _, row := range rows {
		if row.Month == flowcore.TotalRowLabel {
			sawTotal = true
		}
		assert.Equal(t, domain.ScopeSite, row.Scope)
	}
	assert.True(t, sawTotal)
}

func TestGetDashboardBreakdowns(t *testing.T) {
	svc := publishedService(t)

	dashboard, err := svc.GetDashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2024-07-01", dashboard.SnapshotDate)
	assert.Equal(t, 3, dashboard.TotalItems)
	assert.Equal(t, 10, dashboard.TotalPackages)
	require.Len(t, dashboard.KPI, 4)

	// Flow codes are sorted ascending and the pre-arrival bucket is present.
	require.NotEmpty(t, dashboard.FlowBreakdown)
	assert.Equal(t, 0, dashboard.FlowBreakdown[0].FlowCode)
	assert.Equal(t, 1, dashboard.FlowBreakdown[0].Items)

	locations := make(map[string]int)
	for _, lb := range dashboard.LocationBreakdown {
		locations[lb.Location] = lb.Items
	}
	assert.Equal(t, 1, locations["DAS"])
	assert.Equal(t, 1, locations["DSV Al Markaz"])
}

func TestPublishReplacesCurrentRun(t *testing.T) {
	svc := publishedService(t)
	ctx := context.Background()

	engine := flowcore.NewEngine(flowcore.DefaultCatalog())
	next := engine.Run(time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC), []flowcore.RawItemRecord{
		{CaseNo: "ZX-0900", PackageQty: "1", Status: "MIR", Arrivals: map[string]string{"MIR": "2024-07-15"}},
	})

	_, err := svc.PublishResult(ctx, next)
	require.NoError(t, err)

	run, err := svc.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, run.TotalItems)
	assert.Equal(t, time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC), run.SnapshotDate)
}
