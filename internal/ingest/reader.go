package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hvdclogix/cargoflow/internal/flowcore"
)

// Loader reads snapshot extracts (CSV or XLSX) into raw item records keyed
// by canonical catalog locations. Header matching tolerates whitespace,
// casing and separator variants.
type Loader struct {
	catalog    flowcore.Catalog
	dateFormat string
}

func NewLoader(catalog flowcore.Catalog, dateFormat string) *Loader {
	if dateFormat == "" {
		dateFormat = "20060102"
	}
	return &Loader{catalog: catalog, dateFormat: dateFormat}
}

// SnapshotDate extracts the snapshot date from the filename prefix.
func (l *Loader) SnapshotDate(filename string) (time.Time, error) {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if len(base) < len(l.dateFormat) {
		return time.Time{}, fmt.Errorf("filename %s does not start with a %s date", filename, l.dateFormat)
	}
	return time.Parse(l.dateFormat, base[:len(l.dateFormat)])
}

// Validate performs basic checks before loading.
func (l *Loader) Validate(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot stat input file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("input path %s is a directory, expected file", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".xlsx":
		return nil
	default:
		return fmt.Errorf("unsupported file extension for %s (csv and xlsx supported)", path)
	}
}

// Load reads the extract at path into raw records.
func (l *Loader) Load(path string) ([]flowcore.RawItemRecord, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err := readXLSX(path)
		if err != nil {
			return nil, err
		}
		return l.parseRows(rows)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return l.LoadCSV(f)
	}
}

// LoadCSV reads CSV content from r.
func (l *Loader) LoadCSV(r io.Reader) ([]flowcore.RawItemRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, record)
	}
	return l.parseRows(rows)
}

// areaColumnNames are checked in priority order; the first populated
// positive value becomes the item's actual area.
var areaColumnNames = []string{"sqm", "area sqm", "area", "cbm area"}

func (l *Loader) parseRows(rows [][]string) ([]flowcore.RawItemRecord, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("extract has no header row")
	}
	header := rows[0]

	colIndex := func(names ...string) int {
		targets := make(map[string]struct{}, len(names))
		for _, name := range names {
			targets[normalizeColumnName(name)] = struct{}{}
		}
		for i, h := range header {
			if _, ok := targets[normalizeColumnName(h)]; ok {
				return i
			}
		}
		return -1
	}

	idxCase := colIndex("case no", "case_no", "case", "mr no")
	idxVendor := colIndex("vendor", "supplier")
	idxQty := colIndex("pkg", "package qty", "pkg qty", "qty", "packages")
	idxStatus := colIndex("status", "current location", "status current", "location")

	areaIdx := make([]int, 0, len(areaColumnNames))
	areaNames := make([]string, 0, len(areaColumnNames))
	for _, name := range areaColumnNames {
		if idx := colIndex(name); idx >= 0 {
			areaIdx = append(areaIdx, idx)
			areaNames = append(areaNames, name)
		}
	}

	// Location timestamp columns match the catalog by normalized name.
	locIdx := make(map[string]int)
	for _, loc := range l.catalog.Locations() {
		if idx := colIndex(loc); idx >= 0 {
			locIdx[loc] = idx
		}
	}

	get := func(record []string, idx int) string {
		if idx < 0 || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	records := make([]flowcore.RawItemRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		rec := flowcore.RawItemRecord{
			CaseNo:     get(row, idxCase),
			Vendor:     get(row, idxVendor),
			PackageQty: get(row, idxQty),
			Status:     get(row, idxStatus),
			Arrivals:   make(map[string]string, len(locIdx)),
		}
		for i, idx := range areaIdx {
			rec.AreaFields = append(rec.AreaFields, flowcore.AreaField{
				Name:  areaNames[i],
				Value: get(row, idx),
			})
		}
		for loc, idx := range locIdx {
			if cell := get(row, idx); cell != "" {
				rec.Arrivals[loc] = cell
			}
		}
		if rec.CaseNo == "" && rec.Vendor == "" && rec.Status == "" && len(rec.Arrivals) == 0 {
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}
