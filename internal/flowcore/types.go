package flowcore

import (
	"time"

	"github.com/shopspring/decimal"
)

// AreaSource tags whether an item's area came from the extract or was
// estimated from its package count.
type AreaSource string

const (
	AreaActual    AreaSource = "ACTUAL"
	AreaEstimated AreaSource = "ESTIMATED"
)

// AreaField is one explicit area column from the extract. Fields are checked
// in slice order; the first positive value wins.
type AreaField struct {
	Name  string
	Value string
}

// RawItemRecord is one flat row from the snapshot extract, untyped text
// keyed by canonical location names. Produced by the ingest layer, consumed
// by the normalizer.
type RawItemRecord struct {
	CaseNo     string
	Vendor     string
	PackageQty string
	AreaFields []AreaField
	Status     string            // free-text snapshot location / status
	Arrivals   map[string]string // canonical location -> raw timestamp text
}

// CargoItem is a normalized item with its derived fields. FinalLocation,
// FlowCode and FlowDescription are computed exactly once per run.
type CargoItem struct {
	CaseNo          string                `json:"case_no"`
	Vendor          string                `json:"vendor"`
	PackageQty      int                   `json:"package_qty"`
	Area            float64               `json:"area_sqm"`
	AreaSource      AreaSource            `json:"area_source"`
	Arrivals        map[string]*time.Time `json:"arrivals"`
	CurrentLocation string                `json:"current_location"`
	FinalLocation   string                `json:"final_location"`
	FlowCode        int                   `json:"flow_code"`
	FlowDescription string                `json:"flow_description"`
}

// Visit is one (location, timestamp) stop in an item's reconstructed route.
type Visit struct {
	Location string
	At       time.Time
}

type EventKind string

const (
	EventInbound     EventKind = "INBOUND"
	EventOutbound    EventKind = "OUTBOUND"
	EventTransferIn  EventKind = "TRANSFER_IN"
	EventTransferOut EventKind = "TRANSFER_OUT"
)

// Inbound reports whether the event adds stock at its location.
func (k EventKind) Inbound() bool {
	return k == EventInbound || k == EventTransferIn
}

// Outbound reports whether the event removes stock at its location.
func (k EventKind) Outbound() bool {
	return k == EventOutbound || k == EventTransferOut
}

// StockEvent is one dated quantity-carrying movement at a location.
type StockEvent struct {
	CaseNo   string    `json:"case_no"`
	Kind     EventKind `json:"kind"`
	Location string    `json:"location"`
	At       time.Time `json:"at"`
	Qty      int       `json:"qty"`
	Area     float64   `json:"area_sqm"`
}

// TransferEvent is a same-calendar-date move between two storage locations,
// counted once as a linked inbound+outbound pair.
type TransferEvent struct {
	CaseNo string    `json:"case_no"`
	From   string    `json:"from"`
	To     string    `json:"to"`
	At     time.Time `json:"at"`
	Qty    int       `json:"qty"`
}

// MonthlyCell holds the quantities for one (month, location) bucket.
type MonthlyCell struct {
	Inbound   int `json:"inbound"`
	Outbound  int `json:"outbound"`
	Inventory int `json:"inventory"`
}

// MonthlyRow is one calendar month across all locations of a matrix.
// The trailing row uses TotalRowLabel as its month.
type MonthlyRow struct {
	Month string                 `json:"month"`
	Cells map[string]MonthlyCell `json:"cells"`
}

// MonthlyMatrix is a location-set x month table.
type MonthlyMatrix struct {
	Locations []string     `json:"locations"`
	Rows      []MonthlyRow `json:"rows"`
}

// TotalRowLabel labels the trailing all-months row of a matrix.
const TotalRowLabel = "Total"

// BillingRow is one (month, warehouse) slice of the area ledger.
type BillingRow struct {
	Month          string          `json:"month"`
	Location       string          `json:"location"`
	InboundArea    float64         `json:"inbound_area"`
	OutboundArea   float64         `json:"outbound_area"`
	NetArea        float64         `json:"net_area"`
	CumulativeArea float64         `json:"cumulative_area"`
	UtilizationPct float64         `json:"utilization_pct"`
	Charge         decimal.Decimal `json:"charge"`
}

// BillingTotal is the system-wide sum for one month.
type BillingTotal struct {
	Month          string          `json:"month"`
	CumulativeArea float64         `json:"cumulative_area"`
	Charge         decimal.Decimal `json:"charge"`
}

// AreaSplit counts how many items carried an actual vs estimated area.
type AreaSplit struct {
	Actual    int     `json:"actual"`
	Estimated int     `json:"estimated"`
	ActualPct float64 `json:"actual_pct"`
}

// BillingReport is the full area and charge output of a run.
type BillingReport struct {
	Rows          []BillingRow         `json:"rows"`
	MonthlyTotals []BillingTotal       `json:"monthly_totals"`
	AreaSources   AreaSplit            `json:"area_sources"`
	ByLocation    map[string]AreaSplit `json:"area_sources_by_location"`
}

type KPIStatus string

const (
	KPIPass KPIStatus = "PASS"
	KPIFail KPIStatus = "FAIL"
)

// KPICheck is one named validation with its observed value and the literal
// threshold it was checked against.
type KPICheck struct {
	Name      string    `json:"name"`
	Status    KPIStatus `json:"status"`
	Observed  float64   `json:"observed"`
	Threshold float64   `json:"threshold"`
	Detail    string    `json:"detail,omitempty"`
}

// IssueCategory classifies a data anomaly. Nothing in this taxonomy aborts
// a run; every anomaly degrades to a default and is reported.
type IssueCategory string

const (
	IssueDataQuality    IssueCategory = "DATA_QUALITY"
	IssueReconciliation IssueCategory = "RECONCILIATION_MISMATCH"
	IssueInvariant      IssueCategory = "INVARIANT_VIOLATION"
)

// QualityIssue is one tallied anomaly.
type QualityIssue struct {
	Category IssueCategory `json:"category"`
	CaseNo   string        `json:"case_no,omitempty"`
	Field    string        `json:"field,omitempty"`
	Detail   string        `json:"detail"`
}

// DataQualityReport tallies every anomaly seen during a run.
type DataQualityReport struct {
	Issues []QualityIssue        `json:"issues"`
	Counts map[IssueCategory]int `json:"counts"`
}

// NewDataQualityReport returns an empty report ready to tally into.
func NewDataQualityReport() *DataQualityReport {
	return &DataQualityReport{Counts: make(map[IssueCategory]int)}
}

// Add records one issue.
func (r *DataQualityReport) Add(issue QualityIssue) {
	r.Issues = append(r.Issues, issue)
	r.Counts[issue.Category]++
}

// CountOf returns the tally for one category.
func (r *DataQualityReport) CountOf(cat IssueCategory) int {
	return r.Counts[cat]
}

// Result is the complete output of one full-snapshot run.
type Result struct {
	SnapshotDate      time.Time          `json:"snapshot_date"`
	CatalogVersion    string             `json:"catalog_version"`
	Items             []CargoItem        `json:"items"`
	Transfers         []TransferEvent    `json:"transfers"`
	Events            []StockEvent       `json:"events"`
	WarehouseMatrix   MonthlyMatrix      `json:"warehouse_matrix"`
	SiteMatrix        MonthlyMatrix      `json:"site_matrix"`
	Billing           BillingReport      `json:"billing"`
	KPI               []KPICheck         `json:"kpi"`
	Quality           *DataQualityReport `json:"quality"`
	SnapshotOccupancy map[string]int     `json:"snapshot_occupancy"`
}
