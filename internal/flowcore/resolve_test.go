package flowcore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveFinalLocationLatestWins(t *testing.T) {
	catalog := DefaultCatalog()
	item := CargoItem{
		CaseNo: "C-1",
		Arrivals: map[string]*time.Time{
			"DSV Indoor": ts(t, "2024-06-01"),
			"DAS":        ts(t, "2024-06-15"),
		},
	}

	visits := ReconstructVisits(item, catalog)
	assert.Equal(t, "DAS", ResolveFinalLocation(item, visits, catalog))
}

func TestResolveFinalLocationTieBreaksOnPriority(t *testing.T) {
	catalog := DefaultCatalog()
	item := CargoItem{
		CaseNo: "C-2",
		Arrivals: map[string]*time.Time{
			"DSV Indoor":    ts(t, "2024-06-01"),
			"DSV Al Markaz": ts(t, "2024-06-01"),
		},
	}

	visits := ReconstructVisits(item, catalog)
	// Al Markaz outranks Indoor (rank 1 vs 2).
	assert.Equal(t, "DSV Al Markaz", ResolveFinalLocation(item, visits, catalog))
}

func TestResolveFinalLocationDeterministic(t *testing.T) {
	catalog := DefaultCatalog()
	item := CargoItem{
		CaseNo: "C-3",
		Arrivals: map[string]*time.Time{
			"DSV Outdoor":   ts(t, "2024-07-10"),
			"DSV MZP":       ts(t, "2024-07-10"),
			"DSV Al Markaz": ts(t, "2024-07-10"),
		},
	}

	// Map iteration order varies; resolution must not.
	for i := 0; i < 50; i++ {
		visits := ReconstructVisits(item, catalog)
		assert.Equal(t, "DSV Al Markaz", ResolveFinalLocation(item, visits, catalog))
	}
}

func TestResolveFinalLocationSnapshotFallback(t *testing.T) {
	catalog := DefaultCatalog()

	item := CargoItem{CaseNo: "C-4", CurrentLocation: "dsv outdoor"}
	assert.Equal(t, "DSV Outdoor", ResolveFinalLocation(item, nil, catalog))

	item = CargoItem{CaseNo: "C-5", CurrentLocation: "Vendor Yard"}
	assert.Equal(t, "Vendor Yard", ResolveFinalLocation(item, nil, catalog))

	item = CargoItem{CaseNo: "C-6"}
	assert.Equal(t, UnknownLocation, ResolveFinalLocation(item, nil, catalog))

	// Pre-arrival statuses are not locations.
	item = CargoItem{CaseNo: "C-7", CurrentLocation: "Pre Arrival"}
	assert.Equal(t, UnknownLocation, ResolveFinalLocation(item, nil, catalog))
}

func TestReconstructVisitsSortedWithTieGroup(t *testing.T) {
	catalog := DefaultCatalog()
	item := CargoItem{
		CaseNo: "C-8",
		Arrivals: map[string]*time.Time{
			"DAS":           ts(t, "2024-06-20"),
			"DSV Indoor":    ts(t, "2024-06-01"),
			"DSV Al Markaz": ts(t, "2024-06-01"),
			"DSV Outdoor":   nil,
		},
	}

	visits := ReconstructVisits(item, catalog)

	assert.Len(t, visits, 3)
	// Tie group retains canonical catalog order, not collapsed.
	assert.Equal(t, "DSV Al Markaz", visits[0].Location)
	assert.Equal(t, "DSV Indoor", visits[1].Location)
	assert.Equal(t, "DAS", visits[2].Location)
}
