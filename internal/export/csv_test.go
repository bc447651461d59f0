package export

import (
	"encoding/csv"
	"os"
	"testing"
	"time"

	"github.com/hvdclogix/cargoflow/internal/flowcore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult(t *testing.T) *flowcore.Result {
	t.Helper()
	engine := flowcore.NewEngine(flowcore.DefaultCatalog())
	records := []flowcore.RawItemRecord{
		{
			CaseNo:     "HE-0001",
			Vendor:     "Hitachi",
			PackageQty: "5",
			Status:     "DAS",
			Arrivals: map[string]string{
				"DSV Indoor": "2024-06-01",
				"DAS":        "2024-06-20",
			},
		},
	}
	return engine.Run(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), records)
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteAllProducesEveryReport(t *testing.T) {
	writer := NewWriter(t.TempDir())
	result := sampleResult(t)

	paths, err := writer.WriteAll(result)
	require.NoError(t, err)

	items := readCSV(t, paths.Items)
	require.GreaterOrEqual(t, len(items), 2)
	assert.Equal(t, "case_no", items[0][0])
	assert.Equal(t, "HE-0001", items[1][0])

	warehouse := readCSV(t, paths.Warehouse)
	assert.Equal(t, "month", warehouse[0][0])
	// Data months plus the trailing Total row.
	assert.Equal(t, flowcore.TotalRowLabel, warehouse[len(warehouse)-1][0])

	site := readCSV(t, paths.Site)
	assert.Contains(t, site[0], "DAS inbound")

	kpi := readCSV(t, paths.KPI)
	require.Len(t, kpi, 5) // header + four checks
	assert.Equal(t, "check", kpi[0][0])
}

func TestWriteAllDateStampedDirectory(t *testing.T) {
	dir := t.TempDir()
	writer := NewWriter(dir)

	paths, err := writer.WriteAll(sampleResult(t))
	require.NoError(t, err)
	assert.Contains(t, paths.Items, "20240701")
}
