package repository

import (
	"context"

	"github.com/hvdclogix/cargoflow/internal/domain"
	"github.com/hvdclogix/cargoflow/internal/flowcore"
)

// FlowRepository persists and queries completed runs. The engine itself is
// stateless; persistence exists for the API and historical review only.
type FlowRepository interface {
	SaveRun(ctx context.Context, result *flowcore.Result) (int64, error)
	LatestRun(ctx context.Context) (*domain.FlowRun, error)
	GetItems(ctx context.Context, runID int64, filter domain.ItemFilter) ([]domain.ItemRecord, int, error)
	GetMonthlyFlows(ctx context.Context, runID int64, scope string) ([]domain.MonthlyFlowRecord, error)
	GetBilling(ctx context.Context, runID int64) ([]domain.BillingRecord, error)
	GetKPI(ctx context.Context, runID int64) ([]domain.KPIRecord, error)
}
