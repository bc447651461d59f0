package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hvdclogix/cargoflow/internal/domain"
	"github.com/hvdclogix/cargoflow/internal/flowcore"
	"github.com/lib/pq"
)

type flowRepository struct {
	db *DB
}

// NewFlowRepository returns the postgres-backed run store.
func NewFlowRepository(db *DB) *flowRepository {
	return &flowRepository{db: db}
}

// SaveRun writes the full result set of one engine run in one transaction.
func (r *flowRepository) SaveRun(ctx context.Context, result *flowcore.Result) (int64, error) {
	var runID int64

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		totalPackages := 0
		for _, item := range result.Items {
			totalPackages += item.PackageQty
		}

		err := tx.QueryRowContext(ctx, `
			INSERT INTO flow_runs (snapshot_date, catalog_version, total_items, total_packages, created_at)
			VALUES ($1, $2, $3, $4, NOW())
			RETURNING id`,
			result.SnapshotDate, result.CatalogVersion, len(result.Items), totalPackages,
		).Scan(&runID)
		if err != nil {
			return fmt.Errorf("failed to insert flow run: %w", err)
		}

		if err := r.insertItems(ctx, tx, runID, result.Items); err != nil {
			return err
		}
		if err := r.insertMatrix(ctx, tx, runID, domain.ScopeWarehouse, result.WarehouseMatrix); err != nil {
			return err
		}
		if err := r.insertMatrix(ctx, tx, runID, domain.ScopeSite, result.SiteMatrix); err != nil {
			return err
		}
		if err := r.insertBilling(ctx, tx, runID, result.Billing); err != nil {
			return err
		}
		return r.insertKPI(ctx, tx, runID, result.KPI)
	})
	if err != nil {
		return 0, err
	}
	return runID, nil
}

func (r *flowRepository) insertItems(ctx context.Context, tx *sql.Tx, runID int64, items []flowcore.CargoItem) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO flow_items (
			run_id, case_no, vendor, package_qty, area_sqm, area_source,
			current_location, final_location, flow_code, flow_description, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`)
	if err != nil {
		return fmt.Errorf("failed to prepare item insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, item := range items {
		if _, err := stmt.ExecContext(ctx,
			runID, item.CaseNo, item.Vendor, item.PackageQty, item.Area, string(item.AreaSource),
			item.CurrentLocation, item.FinalLocation, item.FlowCode, item.FlowDescription, now,
		); err != nil {
			return fmt.Errorf("failed to insert item %s: %w", item.CaseNo, err)
		}
	}
	return nil
}

func (r *flowRepository) insertMatrix(ctx context.Context, tx *sql.Tx, runID int64, scope string, matrix flowcore.MonthlyMatrix) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO monthly_flows (run_id, scope, month, location, inbound, outbound, inventory)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return fmt.Errorf("failed to prepare matrix insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range matrix.Rows {
		for _, loc := range matrix.Locations {
			cell := row.Cells[loc]
			if _, err := stmt.ExecContext(ctx,
				runID, scope, row.Month, loc, cell.Inbound, cell.Outbound, cell.Inventory,
			); err != nil {
				return fmt.Errorf("failed to insert %s bucket %s/%s: %w", scope, row.Month, loc, err)
			}
		}
	}
	return nil
}

func (r *flowRepository) insertBilling(ctx context.Context, tx *sql.Tx, runID int64, billing flowcore.BillingReport) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO billing_rows (
			run_id, month, location, inbound_area, outbound_area,
			cumulative_area, utilization_pct, charge
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
	if err != nil {
		return fmt.Errorf("failed to prepare billing insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range billing.Rows {
		if _, err := stmt.ExecContext(ctx,
			runID, row.Month, row.Location, row.InboundArea, row.OutboundArea,
			row.CumulativeArea, row.UtilizationPct, row.Charge.StringFixed(2),
		); err != nil {
			return fmt.Errorf("failed to insert billing row %s/%s: %w", row.Month, row.Location, err)
		}
	}
	return nil
}

func (r *flowRepository) insertKPI(ctx context.Context, tx *sql.Tx, runID int64, checks []flowcore.KPICheck) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO kpi_results (run_id, name, status, observed, threshold, detail)
		VALUES ($1, $2, $3, $4, $5, $6)`)
	if err != nil {
		return fmt.Errorf("failed to prepare kpi insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range checks {
		if _, err := stmt.ExecContext(ctx,
			runID, c.Name, string(c.Status), c.Observed, c.Threshold, c.Detail,
		); err != nil {
			return fmt.Errorf("failed to insert kpi %s: %w", c.Name, err)
		}
	}
	return nil
}

// LatestRun returns the newest persisted run, or nil when none exists.
func (r *flowRepository) LatestRun(ctx context.Context) (*domain.FlowRun, error) {
	var run domain.FlowRun
	err := r.db.GetContext(ctx, &run, `
		SELECT id, snapshot_date, catalog_version, total_items, total_packages, created_at
		FROM flow_runs
		ORDER BY snapshot_date DESC, id DESC
		LIMIT 1`)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest run: %w", err)
	}
	return &run, nil
}

// GetItems returns one filtered, paginated page plus the total match count.
func (r *flowRepository) GetItems(ctx context.Context, runID int64, filter domain.ItemFilter) ([]domain.ItemRecord, int, error) {
	where := []string{"run_id = $1"}
	args := []interface{}{runID}

	if len(filter.Vendors) > 0 {
		where = append(where, fmt.Sprintf("vendor = ANY($%d)", len(args)+1))
		args = append(args, pqStringArray(filter.Vendors))
	}
	if len(filter.Locations) > 0 {
		where = append(where, fmt.Sprintf("final_location = ANY($%d)", len(args)+1))
		args = append(args, pqStringArray(filter.Locations))
	}
	if len(filter.FlowCodes) > 0 {
		where = append(where, fmt.Sprintf("flow_code = ANY($%d)", len(args)+1))
		args = append(args, pqIntArray(filter.FlowCodes))
	}

	clause := strings.Join(where, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM flow_items WHERE " + clause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count items: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size < 1 {
		size = 50
	}

	query := fmt.Sprintf(`
		SELECT id, run_id, case_no, vendor, package_qty, area_sqm, area_source,
		       current_location, final_location, flow_code, flow_description, created_at
		FROM flow_items
		WHERE %s
		ORDER BY case_no
		LIMIT $%d OFFSET $%d`, clause, len(args)+1, len(args)+2)
	args = append(args, size, (page-1)*size)

	var items []domain.ItemRecord
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to load items: %w", err)
	}
	return items, total, nil
}

func (r *flowRepository) GetMonthlyFlows(ctx context.Context, runID int64, scope string) ([]domain.MonthlyFlowRecord, error) {
	var rows []domain.MonthlyFlowRecord
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, run_id, scope, month, location, inbound, outbound, inventory
		FROM monthly_flows
		WHERE run_id = $1 AND scope = $2
		ORDER BY month, location`, runID, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s monthly flows: %w", scope, err)
	}
	return rows, nil
}

func (r *flowRepository) GetBilling(ctx context.Context, runID int64) ([]domain.BillingRecord, error) {
	var rows []domain.BillingRecord
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, run_id, month, location, inbound_area, outbound_area,
		       cumulative_area, utilization_pct, charge
		FROM billing_rows
		WHERE run_id = $1
		ORDER BY month, location`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load billing rows: %w", err)
	}
	return rows, nil
}

func (r *flowRepository) GetKPI(ctx context.Context, runID int64) ([]domain.KPIRecord, error) {
	var rows []domain.KPIRecord
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, run_id, name, status, observed, threshold, detail
		FROM kpi_results
		WHERE run_id = $1
		ORDER BY name`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load kpi results: %w", err)
	}
	return rows, nil
}

func pqStringArray(v []string) interface{} {
	return pq.Array(v)
}

func pqIntArray(v []int) interface{} {
	return pq.Array(v)
}
