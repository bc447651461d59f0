package ingest

import (
	"strings"
	"testing"

	"github.com/hvdclogix/cargoflow/internal/flowcore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCSVHeaderVariants(t *testing.T) {
	loader := NewLoader(flowcore.DefaultCatalog(), "20060102")

	input := strings.Join([]string{
		"Case No., Vendor ,PKG,SQM,Status,DSV Indoor,dsv al markaz,DAS",
		"HE-0001,Hitachi,5,12.5,DAS,2024-06-01,2024-06-01,2024-06-20",
		"HE-0002,Siemens,,,Pre Arrival,,,",
	}, "\n")

	records, err := loader.LoadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "HE-0001", first.CaseNo)
	assert.Equal(t, "Hitachi", first.Vendor)
	assert.Equal(t, "5", first.PackageQty)
	assert.Equal(t, "DAS", first.Status)
	assert.Equal(t, "2024-06-01", first.Arrivals["DSV Indoor"])
	assert.Equal(t, "2024-06-01", first.Arrivals["DSV Al Markaz"])
	assert.Equal(t, "2024-06-20", first.Arrivals["DAS"])
	require.NotEmpty(t, first.AreaFields)
	assert.Equal(t, "12.5", first.AreaFields[0].Value)

	second := records[1]
	assert.Equal(t, "Pre Arrival", second.Status)
	assert.Equal(t, "", second.Arrivals["DSV Indoor"])
}

func TestLoadCSVSkipsBlankRows(t *testing.T) {
	loader := NewLoader(flowcore.DefaultCatalog(), "20060102")

	input := "case_no,vendor\nHE-1,ACME\n,\n"
	records, err := loader.LoadCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestLoadCSVNoHeader(t *testing.T) {
	loader := NewLoader(flowcore.DefaultCatalog(), "20060102")
	_, err := loader.LoadCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestSnapshotDateFromFilename(t *testing.T) {
	loader := NewLoader(flowcore.DefaultCatalog(), "20060102")

	date, err := loader.SnapshotDate("/data/snapshots/20240701_hvdc_status.csv")
	require.NoError(t, err)
	assert.Equal(t, "2024-07-01", date.Format("2006-01-02"))

	_, err = loader.SnapshotDate("status.csv")
	assert.Error(t, err)
}

func TestNormalizeColumnName(t *testing.T) {
	assert.Equal(t, "dsvalmarkaz", normalizeColumnName(" DSV Al-Markaz "))
	assert.Equal(t, "caseno", normalizeColumnName("Case_No."))
}
