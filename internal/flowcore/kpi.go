package flowcore

import (
	"fmt"
	"time"
)

// KPI check names. Every check reports PASS/FAIL with its observed value and
// literal threshold; none aborts the run.
const (
	CheckPackageAccuracy  = "PKG_ACCURACY"
	CheckSiteInventoryAge = "SITE_INVENTORY_AGE"
	CheckZeroBacklog      = "ZERO_BACKLOG"
	CheckFlowBalance      = "FLOW_BALANCE"
)

const (
	packageAccuracyThreshold = 99.0 // percent of packages captured in events
	siteInventoryAgeLimit    = 30.0 // days
)

// Validator runs the named threshold checks over a completed run.
type Validator struct {
	catalog Catalog
}

func NewValidator(catalog Catalog) *Validator {
	return &Validator{catalog: catalog}
}

// Validate produces the full KPI report for a run result.
func (v *Validator) Validate(result *Result) []KPICheck {
	return []KPICheck{
		v.packageAccuracy(result),
		v.siteInventoryAge(result),
		v.zeroBacklog(result),
		v.flowBalance(result),
	}
}

// packageAccuracy measures what share of package quantity with movement
// evidence made it into at least one inbound event.
func (v *Validator) packageAccuracy(result *Result) KPICheck {
	captured := make(map[string]bool)
	for _, ev := range result.Events {
		if ev.Kind.Inbound() {
			captured[ev.CaseNo] = true
		}
	}

	totalQty, capturedQty := 0, 0
	for _, item := range result.Items {
		visited := false
		for _, ts := range item.Arrivals {
			if ts != nil {
				visited = true
				break
			}
		}
		if !visited {
			continue
		}
		totalQty += item.PackageQty
		if captured[item.CaseNo] {
			capturedQty += item.PackageQty
		}
	}

	observed := 100.0
	if totalQty > 0 {
		observed = float64(capturedQty) / float64(totalQty) * 100
	}
	return check(CheckPackageAccuracy, observed, packageAccuracyThreshold, observed >= packageAccuracyThreshold,
		fmt.Sprintf("%d of %d packages captured in inbound events", capturedQty, totalQty))
}

// siteInventoryAge measures the oldest site-resident item, in days, as of
// the latest event in the snapshot.
func (v *Validator) siteInventoryAge(result *Result) KPICheck {
	var asOf time.Time
	for _, ev := range result.Events {
		if ev.At.After(asOf) {
			asOf = ev.At
		}
	}

	maxAge := 0.0
	for _, item := range result.Items {
		if !v.catalog.IsSite(item.FinalLocation) {
			continue
		}
		arrived := item.Arrivals[item.FinalLocation]
		if arrived == nil {
			continue
		}
		age := asOf.Sub(*arrived).Hours() / 24
		if age > maxAge {
			maxAge = age
		}
	}

	return check(CheckSiteInventoryAge, maxAge, siteInventoryAgeLimit, maxAge <= siteInventoryAgeLimit,
		fmt.Sprintf("oldest site inventory is %.0f days as of %s", maxAge, asOf.Format("2006-01-02")))
}

// zeroBacklog fails when any (location, month) inventory went negative
// before clamping: outbound exceeding recorded inbound is a backlog signal
// even though the aggregate itself is floored.
func (v *Validator) zeroBacklog(result *Result) KPICheck {
	violations := result.Quality.CountOf(IssueInvariant)
	return check(CheckZeroBacklog, float64(violations), 0, violations == 0,
		fmt.Sprintf("%d location-months with pre-floor negative inventory", violations))
}

// flowBalance asserts the standing invariant that the system cannot ship
// out more than it ever received.
func (v *Validator) flowBalance(result *Result) KPICheck {
	inbound, outbound := 0, 0
	for _, ev := range result.Events {
		switch {
		case ev.Kind.Inbound():
			inbound += ev.Qty
		case ev.Kind.Outbound():
			outbound += ev.Qty
		}
	}
	balance := float64(inbound - outbound)
	return check(CheckFlowBalance, balance, 0, balance >= 0,
		fmt.Sprintf("cumulative inbound %d vs outbound %d", inbound, outbound))
}

func check(name string, observed, threshold float64, pass bool, detail string) KPICheck {
	status := KPIFail
	if pass {
		status = KPIPass
	}
	return KPICheck{
		Name:      name,
		Status:    status,
		Observed:  observed,
		Threshold: threshold,
		Detail:    detail,
	}
}
