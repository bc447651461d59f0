package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/hvdclogix/cargoflow/internal/flowcore"
)

// Writer persists the run output set as CSV reports under a date-stamped
// directory. One file per output table.
type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// ReportPaths lists the files a full export produces.
type ReportPaths struct {
	Items     string
	Warehouse string
	Site      string
	Billing   string
	KPI       string
}

// WriteAll exports every report for the run and returns the written paths.
func (w *Writer) WriteAll(result *flowcore.Result) (ReportPaths, error) {
	dir := filepath.Join(w.dir, result.SnapshotDate.Format("20060102"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return ReportPaths{}, err
	}

	paths := ReportPaths{
		Items:     filepath.Join(dir, "items.csv"),
		Warehouse: filepath.Join(dir, "warehouse_monthly.csv"),
		Site:      filepath.Join(dir, "site_monthly.csv"),
		Billing:   filepath.Join(dir, "warehouse_billing.csv"),
		KPI:       filepath.Join(dir, "kpi_report.csv"),
	}

	steps := []func() error{
		func() error { return w.writeItems(paths.Items, result.Items) },
		func() error { return w.writeWarehouseMatrix(paths.Warehouse, result.WarehouseMatrix) },
		func() error { return w.writeSiteMatrix(paths.Site, result.SiteMatrix) },
		func() error { return w.writeBilling(paths.Billing, result.Billing) },
		func() error { return w.writeKPI(paths.KPI, result.KPI) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return ReportPaths{}, err
		}
	}
	return paths, nil
}

func (w *Writer) writeItems(path string, items []flowcore.CargoItem) error {
	return writeCSV(path, func(out *csv.Writer) error {
		header := []string{
			"case_no", "vendor", "package_qty", "area_sqm", "area_source",
			"current_location", "final_location", "flow_code", "flow_description",
		}
		if err := out.Write(header); err != nil {
			return err
		}
		for _, item := range items {
			rec := []string{
				item.CaseNo,
				item.Vendor,
				strconv.Itoa(item.PackageQty),
				formatFloat(item.Area),
				string(item.AreaSource),
				item.CurrentLocation,
				item.FinalLocation,
				strconv.Itoa(item.FlowCode),
				item.FlowDescription,
			}
			if err := out.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func (w *Writer) writeWarehouseMatrix(path string, matrix flowcore.MonthlyMatrix) error {
	return writeCSV(path, func(out *csv.Writer) error {
		header := []string{"month"}
		for _, loc := range matrix.Locations {
			header = append(header, loc+" inbound", loc+" outbound")
		}
		if err := out.Write(header); err != nil {
			return err
		}
		for _, row := range matrix.Rows {
			rec := []string{row.Month}
			for _, loc := range matrix.Locations {
				cell := row.Cells[loc]
				rec = append(rec, strconv.Itoa(cell.Inbound), strconv.Itoa(cell.Outbound))
			}
			if err := out.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func (w *Writer) writeSiteMatrix(path string, matrix flowcore.MonthlyMatrix) error {
	return writeCSV(path, func(out *csv.Writer) error {
		header := []string{"month"}
		for _, loc := range matrix.Locations {
			header = append(header, loc+" inbound", loc+" inventory")
		}
		if err := out.Write(header); err != nil {
			return err
		}
		for _, row := range matrix.Rows {
			rec := []string{row.Month}
			for _, loc := range matrix.Locations {
				cell := row.Cells[loc]
				rec = append(rec, strconv.Itoa(cell.Inbound), strconv.Itoa(cell.Inventory))
			}
			if err := out.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func (w *Writer) writeBilling(path string, billing flowcore.BillingReport) error {
	return writeCSV(path, func(out *csv.Writer) error {
		header := []string{
			"month", "location", "inbound_area", "outbound_area", "net_area",
			"cumulative_area", "utilization_pct", "charge",
		}
		if err := out.Write(header); err != nil {
			return err
		}
		for _, row := range billing.Rows {
			rec := []string{
				row.Month,
				row.Location,
				formatFloat(row.InboundArea),
				formatFloat(row.OutboundArea),
				formatFloat(row.NetArea),
				formatFloat(row.CumulativeArea),
				formatFloat(row.UtilizationPct),
				row.Charge.StringFixed(2),
			}
			if err := out.Write(rec); err != nil {
				return err
			}
		}
		for _, total := range billing.MonthlyTotals {
			rec := []string{
				total.Month,
				flowcore.TotalRowLabel,
				"", "", "",
				formatFloat(total.CumulativeArea),
				"",
				total.Charge.StringFixed(2),
			}
			if err := out.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func (w *Writer) writeKPI(path string, checks []flowcore.KPICheck) error {
	return writeCSV(path, func(out *csv.Writer) error {
		if err := out.Write([]string{"check", "status", "observed", "threshold", "detail"}); err != nil {
			return err
		}
		for _, c := range checks {
			rec := []string{
				c.Name,
				string(c.Status),
				formatFloat(c.Observed),
				formatFloat(c.Threshold),
				c.Detail,
			}
			if err := out.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeCSV(path string, fill func(*csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report %s: %w", path, err)
	}
	defer f.Close()

	out := csv.NewWriter(f)
	if err := fill(out); err != nil {
		return err
	}
	out.Flush()
	return out.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// SnapshotStamp names a report directory for a snapshot date.
func SnapshotStamp(t time.Time) string {
	return t.Format("20060102")
}
