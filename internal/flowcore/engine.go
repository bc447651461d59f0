package flowcore

import "time"

// Engine runs the full movement-reconstruction pipeline over one snapshot:
// normalize, reconstruct, resolve, classify, derive events, aggregate, bill,
// validate. Each invocation recomputes everything; runs share no state.
type Engine struct {
	catalog    Catalog
	normalizer *Normalizer
	aggregator *Aggregator
	billing    *BillingCalculator
	validator  *Validator
}

func NewEngine(catalog Catalog) *Engine {
	return &Engine{
		catalog:    catalog,
		normalizer: NewNormalizer(catalog),
		aggregator: NewAggregator(catalog),
		billing:    NewBillingCalculator(catalog),
		validator:  NewValidator(catalog),
	}
}

// Catalog exposes the configuration the engine was built with.
func (e *Engine) Catalog() Catalog {
	return e.catalog
}

// Run processes a full snapshot of raw records. It never fails on data:
// anomalies degrade to defaults and surface in the result's quality report.
func (e *Engine) Run(snapshotDate time.Time, records []RawItemRecord) *Result {
	quality := NewDataQualityReport()

	result := &Result{
		SnapshotDate:   snapshotDate,
		CatalogVersion: e.catalog.Version,
		Quality:        quality,
	}

	result.Items = make([]CargoItem, 0, len(records))
	for _, raw := range records {
		item := e.normalizer.Normalize(raw, quality)

		visits := ReconstructVisits(item, e.catalog)
		item.FinalLocation = ResolveFinalLocation(item, visits, e.catalog)
		item.FlowCode, item.FlowDescription = ClassifyFlow(item, e.catalog)

		events, transfers := DeriveEvents(item, visits, e.catalog)
		result.Events = append(result.Events, events...)
		result.Transfers = append(result.Transfers, transfers...)

		result.Items = append(result.Items, item)
	}

	result.WarehouseMatrix, result.SiteMatrix, result.SnapshotOccupancy =
		e.aggregator.Aggregate(result.Items, result.Events, quality)
	result.Billing = e.billing.Calculate(result.Items, result.Events)
	result.KPI = e.validator.Validate(result)

	return result
}
