package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hvdclogix/cargoflow/internal/cache"
	"github.com/hvdclogix/cargoflow/internal/domain"
	"github.com/hvdclogix/cargoflow/internal/flowcore"
	"github.com/hvdclogix/cargoflow/internal/repository"
	"github.com/rs/zerolog/log"
)

// ErrNoRun is returned by read methods before the first engine run has
// been published or persisted.
var ErrNoRun = errors.New("no flow run available")

// FlowService serves read views over the most recent engine run. The
// latest result is always held in memory; when a repository is wired the
// run is also persisted and queries fall through to it.
type FlowService struct {
	repo  repository.FlowRepository
	cache cache.DashboardCache

	mu       sync.RWMutex
	latest   *flowcore.Result
	latestID int64
}

func NewFlowService(repo repository.FlowRepository, cacheImpl cache.DashboardCache) *FlowService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopDashboardCache()
	}
	return &FlowService{repo: repo, cache: cacheImpl}
}

// PublishResult makes a finished engine run the current one. When a
// repository is wired the run is persisted first and receives its ID from
// storage. Cache entries for prior runs are dropped.
func (s *FlowService) PublishResult(ctx context.Context, result *flowcore.Result) (int64, error) {
	var runID int64
	if s.repo != nil {
		id, err := s.repo.SaveRun(ctx, result)
		if err != nil {
			return 0, err
		}
		runID = id
	}

	s.mu.Lock()
	s.latest = result
	s.latestID = runID
	s.mu.Unlock()

	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("flow: cache invalidate failed")
	}
	return runID, nil
}

func (s *FlowService) current() (*flowcore.Result, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, 0, ErrNoRun
	}
	return s.latest, s.latestID, nil
}

// LatestRun describes the current run.
func (s *FlowService) LatestRun(ctx context.Context) (*domain.FlowRun, error) {
	result, runID, err := s.current()
	if err == nil {
		totalPackages := 0
		for _, item := range result.Items {
			totalPackages += item.PackageQty
		}
		return &domain.FlowRun{
			ID:             runID,
			SnapshotDate:   result.SnapshotDate,
			CatalogVersion: result.CatalogVersion,
			TotalItems:     len(result.Items),
			TotalPackages:  totalPackages,
		}, nil
	}

	if s.repo == nil {
		return nil, ErrNoRun
	}
	run, repoErr := s.repo.LatestRun(ctx)
	if repoErr != nil {
		return nil, repoErr
	}
	if run == nil {
		return nil, ErrNoRun
	}
	return run, nil
}

// GetItems returns one filtered page of the current run's items.
func (s *FlowService) GetItems(ctx context.Context, filter domain.ItemFilter) ([]domain.ItemRecord, int, error) {
	result, runID, err := s.current()
	if err != nil {
		return nil, 0, err
	}

	if s.repo != nil && runID != 0 {
		if items, total, ok, cerr := s.cache.GetItems(ctx, runID, filter); cerr == nil && ok {
			return items, total, nil
		} else if cerr != nil {
			log.Warn().Err(cerr).Msg("flow: cache get items failed")
		}

		items, total, rerr := s.repo.GetItems(ctx, runID, filter)
		if rerr != nil {
			return nil, 0, rerr
		}
		if cerr := s.cache.SetItems(ctx, runID, filter, items, total); cerr != nil {
			log.Warn().Err(cerr).Msg("flow: cache set items failed")
		}
		return items, total, nil
	}

	return filterItems(result, runID, filter)
}

func filterItems(result *flowcore.Result, runID int64, filter domain.ItemFilter) ([]domain.ItemRecord, int, error) {
	matched := make([]domain.ItemRecord, 0, len(result.Items))
	for _, item := range result.Items {
		if !matchesFilter(item, filter) {
			continue
		}
		matched = append(matched, domain.ItemRecord{
			RunID:           runID,
			CaseNo:          item.CaseNo,
			Vendor:          item.Vendor,
			PackageQty:      item.PackageQty,
			AreaSqm:         item.Area,
			AreaSource:      string(item.AreaSource),
			CurrentLocation: item.CurrentLocation,
			FinalLocation:   item.FinalLocation,
			FlowCode:        item.FlowCode,
			FlowDescription: item.FlowDescription,
		})
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CaseNo < matched[j].CaseNo })

	total := len(matched)
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size < 1 {
		size = 50
	}

	start := (page - 1) * size
	if start >= total {
		return []domain.ItemRecord{}, total, nil
	}
	end := start + size
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func matchesFilter(item flowcore.CargoItem, filter domain.ItemFilter) bool {
	if len(filter.Vendors) > 0 && !containsFold(filter.Vendors, item.Vendor) {
		return false
	}
	if len(filter.Locations) > 0 && !containsFold(filter.Locations, item.FinalLocation) {
		return false
	}
	if len(filter.FlowCodes) > 0 {
		found := false
		for _, code := range filter.FlowCodes {
			if code == item.FlowCode {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return true
		}
	}
	return false
}

// GetMonthlyFlows flattens one matrix of the current run into records. The
// trailing total row is included with its literal label.
func (s *FlowService) GetMonthlyFlows(ctx context.Context, scope string) ([]domain.MonthlyFlowRecord, error) {
	result, runID, err := s.current()
	if err != nil {
		return nil, err
	}

	matrix := result.WarehouseMatrix
	if scope == domain.ScopeSite {
		matrix = result.SiteMatrix
	}

	records := make([]domain.MonthlyFlowRecord, 0, len(matrix.Rows)*len(matrix.Locations))
	for _, row := range matrix.Rows {
		for _, loc := range matrix.Locations {
			cell := row.Cells[loc]
			records = append(records, domain.MonthlyFlowRecord{
				RunID:     runID,
				Scope:     scope,
				Month:     row.Month,
				Location:  loc,
				Inbound:   cell.Inbound,
				Outbound:  cell.Outbound,
				Inventory: cell.Inventory,
			})
		}
	}
	return records, nil
}

// GetBilling returns the current run's per-warehouse billing rows.
func (s *FlowService) GetBilling(ctx context.Context) ([]domain.BillingRecord, error) {
	result, runID, err := s.current()
	if err != nil {
		return nil, err
	}

	records := make([]domain.BillingRecord, 0, len(result.Billing.Rows))
	for _, row := range result.Billing.Rows {
		records = append(records, domain.BillingRecord{
			RunID:          runID,
			Month:          row.Month,
			Location:       row.Location,
			InboundArea:    row.InboundArea,
			OutboundArea:   row.OutboundArea,
			CumulativeArea: row.CumulativeArea,
			UtilizationPct: row.UtilizationPct,
			Charge:         row.Charge.StringFixed(2),
		})
	}
	return records, nil
}

// GetKPI returns the current run's validation checks.
func (s *FlowService) GetKPI(ctx context.Context) ([]domain.KPIRecord, error) {
	result, runID, err := s.current()
	if err != nil {
		return nil, err
	}

	records := make([]domain.KPIRecord, 0, len(result.KPI))
	for _, check := range result.KPI {
		records = append(records, domain.KPIRecord{
			RunID:     runID,
			Name:      check.Name,
			Status:    string(check.Status),
			Observed:  check.Observed,
			Threshold: check.Threshold,
			Detail:    check.Detail,
		})
	}
	return records, nil
}

// GetQuality returns the current run's anomaly tally.
func (s *FlowService) GetQuality(ctx context.Context) (*flowcore.DataQualityReport, error) {
	result, _, err := s.current()
	if err != nil {
		return nil, err
	}
	return result.Quality, nil
}

// GetTransfers returns the current run's linked warehouse moves.
func (s *FlowService) GetTransfers(ctx context.Context) ([]flowcore.TransferEvent, error) {
	result, _, err := s.current()
	if err != nil {
		return nil, err
	}
	return result.Transfers, nil
}

// GetDashboard builds the aggregate frontend view from the current run.
func (s *FlowService) GetDashboard(ctx context.Context) (*domain.Dashboard, error) {
	result, runID, err := s.current()
	if err != nil {
		return nil, err
	}

	if dashboard, ok, cerr := s.cache.GetDashboard(ctx, runID); cerr == nil && ok {
		return dashboard, nil
	} else if cerr != nil {
		log.Warn().Err(cerr).Msg("flow: cache get dashboard failed")
	}

	dashboard := buildDashboard(result, runID)
	if cerr := s.cache.SetDashboard(ctx, runID, dashboard); cerr != nil {
		log.Warn().Err(cerr).Msg("flow: cache set dashboard failed")
	}
	return dashboard, nil
}

func buildDashboard(result *flowcore.Result, runID int64) *domain.Dashboard {
	totalPackages := 0
	flowCounts := make(map[int]*domain.FlowBreakdown)
	locCounts := make(map[string]*domain.LocationBreakdown)

	for _, item := range result.Items {
		totalPackages += item.PackageQty

		fb, ok := flowCounts[item.FlowCode]
		if !ok {
			fb = &domain.FlowBreakdown{FlowCode: item.FlowCode, Description: item.FlowDescription}
			flowCounts[item.FlowCode] = fb
		}
		fb.Items++
		fb.Packages += item.PackageQty

		lb, ok := locCounts[item.FinalLocation]
		if !ok {
			lb = &domain.LocationBreakdown{Location: item.FinalLocation}
			locCounts[item.FinalLocation] = lb
		}
		lb.Items++
		lb.Packages += item.PackageQty
	}

	flows := make([]domain.FlowBreakdown, 0, len(flowCounts))
	for _, fb := range flowCounts {
		flows = append(flows, *fb)
	}
	sort.Slice(flows, func(i, j int) bool { return flows[i].FlowCode < flows[j].FlowCode })

	locations := make([]domain.LocationBreakdown, 0, len(locCounts))
	for _, lb := range locCounts {
		locations = append(locations, *lb)
	}
	sort.Slice(locations, func(i, j int) bool {
		if locations[i].Items != locations[j].Items {
			return locations[i].Items > locations[j].Items
		}
		return locations[i].Location < locations[j].Location
	})

	kpi := make([]domain.KPIRecord, 0, len(result.KPI))
	for _, check := range result.KPI {
		kpi = append(kpi, domain.KPIRecord{
			RunID:     runID,
			Name:      check.Name,
			Status:    string(check.Status),
			Observed:  check.Observed,
			Threshold: check.Threshold,
			Detail:    check.Detail,
		})
	}

	return &domain.Dashboard{
		SnapshotDate:      result.SnapshotDate.Format(time.DateOnly),
		CatalogVersion:    result.CatalogVersion,
		TotalItems:        len(result.Items),
		TotalPackages:     totalPackages,
		FlowBreakdown:     flows,
		LocationBreakdown: locations,
		KPI:               kpi,
		QualityIssueCount: len(result.Quality.Issues),
	}
}
