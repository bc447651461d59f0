package domain

import "time"

// FlowRun is one persisted full-snapshot computation.
type FlowRun struct {
	ID             int64     `json:"id" db:"id"`
	SnapshotDate   time.Time `json:"snapshot_date" db:"snapshot_date"`
	CatalogVersion string    `json:"catalog_version" db:"catalog_version"`
	TotalItems     int       `json:"total_items" db:"total_items"`
	TotalPackages  int       `json:"total_packages" db:"total_packages"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// ItemRecord is one annotated cargo item as stored per run.
type ItemRecord struct {
	ID              int64     `json:"id" db:"id"`
	RunID           int64     `json:"run_id" db:"run_id"`
	CaseNo          string    `json:"case_no" db:"case_no"`
	Vendor          string    `json:"vendor" db:"vendor"`
	PackageQty      int       `json:"package_qty" db:"package_qty"`
	AreaSqm         float64   `json:"area_sqm" db:"area_sqm"`
	AreaSource      string    `json:"area_source" db:"area_source"`
	CurrentLocation string    `json:"current_location" db:"current_location"`
	FinalLocation   string    `json:"final_location" db:"final_location"`
	FlowCode        int       `json:"flow_code" db:"flow_code"`
	FlowDescription string    `json:"flow_description" db:"flow_description"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// Matrix scopes for persisted monthly buckets.
const (
	ScopeWarehouse = "warehouse"
	ScopeSite      = "site"
)

// MonthlyFlowRecord is one persisted (month, location) bucket.
type MonthlyFlowRecord struct {
	ID        int64  `json:"id" db:"id"`
	RunID     int64  `json:"run_id" db:"run_id"`
	Scope     string `json:"scope" db:"scope"`
	Month     string `json:"month" db:"month"`
	Location  string `json:"location" db:"location"`
	Inbound   int    `json:"inbound" db:"inbound"`
	Outbound  int    `json:"outbound" db:"outbound"`
	Inventory int    `json:"inventory" db:"inventory"`
}

// BillingRecord is one persisted (month, warehouse) area/charge slice.
type BillingRecord struct {
	ID             int64   `json:"id" db:"id"`
	RunID          int64   `json:"run_id" db:"run_id"`
	Month          string  `json:"month" db:"month"`
	Location       string  `json:"location" db:"location"`
	InboundArea    float64 `json:"inbound_area" db:"inbound_area"`
	OutboundArea   float64 `json:"outbound_area" db:"outbound_area"`
	CumulativeArea float64 `json:"cumulative_area" db:"cumulative_area"`
	UtilizationPct float64 `json:"utilization_pct" db:"utilization_pct"`
	Charge         string  `json:"charge" db:"charge"`
}

// KPIRecord is one persisted validation check result.
type KPIRecord struct {
	ID        int64   `json:"id" db:"id"`
	RunID     int64   `json:"run_id" db:"run_id"`
	Name      string  `json:"name" db:"name"`
	Status    string  `json:"status" db:"status"`
	Observed  float64 `json:"observed" db:"observed"`
	Threshold float64 `json:"threshold" db:"threshold"`
	Detail    string  `json:"detail" db:"detail"`
}

// ItemFilter narrows item queries from the API.
type ItemFilter struct {
	Vendors   []string `json:"vendors"`
	Locations []string `json:"locations"`
	FlowCodes []int    `json:"flow_codes"`
	Page      int      `json:"page"`
	PageSize  int      `json:"page_size"`
}

// FlowBreakdown counts items per flow code.
type FlowBreakdown struct {
	FlowCode    int    `json:"flow_code" db:"flow_code"`
	Description string `json:"description" db:"description"`
	Items       int    `json:"items" db:"items"`
	Packages    int    `json:"packages" db:"packages"`
}

// LocationBreakdown counts items and packages per final location.
type LocationBreakdown struct {
	Location string `json:"location" db:"location"`
	Items    int    `json:"items" db:"items"`
	Packages int    `json:"packages" db:"packages"`
}

// Dashboard is the aggregate view served to the frontend.
type Dashboard struct {
	SnapshotDate      string              `json:"snapshot_date"`
	CatalogVersion    string              `json:"catalog_version"`
	TotalItems        int                 `json:"total_items"`
	TotalPackages     int                 `json:"total_packages"`
	FlowBreakdown     []FlowBreakdown     `json:"flow_breakdown"`
	LocationBreakdown []LocationBreakdown `json:"location_breakdown"`
	KPI               []KPIRecord         `json:"kpi"`
	QualityIssueCount int                 `json:"quality_issue_count"`
}
