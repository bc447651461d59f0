package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hvdclogix/cargoflow/internal/domain"
	"github.com/hvdclogix/cargoflow/internal/flowcore"
	"github.com/hvdclogix/cargoflow/internal/repository/postgres"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// persistRun writes one engine result through a standalone pgx connection.
// The seed path manages its own handle so it can run against a database
// the server has never touched.
func persistRun(ctx context.Context, dbURL string, result *flowcore.Result) (int64, error) {
	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return 0, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return 0, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, postgres.Schema()); err != nil {
		return 0, fmt.Errorf("failed to apply schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	totalPackages := 0
	for _, item := range result.Items {
		totalPackages += item.PackageQty
	}

	var runID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO flow_runs (snapshot_date, catalog_version, total_items, total_packages, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id`,
		result.SnapshotDate, result.CatalogVersion, len(result.Items), totalPackages,
	).Scan(&runID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert flow run: %w", err)
	}

	if err := seedItems(ctx, tx, runID, result.Items); err != nil {
		return 0, err
	}
	if err := seedMatrix(ctx, tx, runID, domain.ScopeWarehouse, result.WarehouseMatrix); err != nil {
		return 0, err
	}
	if err := seedMatrix(ctx, tx, runID, domain.ScopeSite, result.SiteMatrix); err != nil {
		return 0, err
	}
	if err := seedBilling(ctx, tx, runID, result.Billing); err != nil {
		return 0, err
	}
	if err := seedKPI(ctx, tx, runID, result.KPI); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return runID, nil
}

func seedItems(ctx context.Context, tx *sql.Tx, runID int64, items []flowcore.CargoItem) error {
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

func seedMatrix(ctx context.Context, tx *sql.Tx, runID int64, scope string, matrix flowcore.MonthlyMatrix) error {
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

func seedBilling(ctx context.Context, tx *sql.Tx, runID int64, billing flowcore.BillingReport) error {
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

func seedKPI(ctx context.Context, tx *sql.Tx, runID int64, checks []flowcore.KPICheck) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO kpi_results (run_id, name, status, observed, threshold, detail)
		VALUES ($1, $2, $3, $4, $5, $6)`)
	if err != nil {
		return fmt.Errorf("failed to prepare kpi insert: %w", err)
	}
	defer stmt.Close()

	for _, check := range checks {
		if _, err := stmt.ExecContext(ctx,
			runID, check.Name, string(check.Status), check.Observed, check.Threshold, check.Detail,
		); err != nil {
			return fmt.Errorf("failed to insert kpi %s: %w", check.Name, err)
		}
	}
	return nil
}
