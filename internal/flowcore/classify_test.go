package flowcore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyFlowPreArrivalOverridesEverything(t *testing.T) {
	catalog := DefaultCatalog()
	item := CargoItem{
		CaseNo:          "C-1",
		CurrentLocation: "PRE ARRIVAL (ETA June)",
		Arrivals: map[string]*time.Time{
			"DSV Indoor": ts(t, "2024-06-01"),
			"MOSB":       ts(t, "2024-06-05"),
		},
	}

	code, desc := ClassifyFlow(item, catalog)
	assert.Equal(t, FlowPreArrival, code)
	assert.Equal(t, "Pre-Arrival", desc)
}

func TestClassifyFlowHopCounting(t *testing.T) {
	catalog := DefaultCatalog()

	tests := []struct {
		name     string
		arrivals map[string]*time.Time
		want     int
	}{
		{
			name:     "no storage visits defaults to direct",
			arrivals: map[string]*time.Time{"AGI": ts(t, "2024-06-10")},
			want:     FlowDirect,
		},
		{
			name:     "single warehouse",
			arrivals: map[string]*time.Time{"DSV Indoor": ts(t, "2024-06-01")},
			want:     FlowSingleHop,
		},
		{
			name: "two warehouses then site",
			arrivals: map[string]*time.Time{
				"DSV Indoor":    ts(t, "2024-06-01"),
				"DSV Al Markaz": ts(t, "2024-06-05"),
				"DAS":           ts(t, "2024-06-10"),
			},
			want: FlowOffshore,
		},
		{
			name: "offshore hub only",
			arrivals: map[string]*time.Time{
				"MOSB": ts(t, "2024-06-03"),
			},
			want: FlowSingleHop,
		},
		{
			name: "hops plus offshore clamps at four",
			arrivals: map[string]*time.Time{
				"DSV Indoor":    ts(t, "2024-06-01"),
				"DSV Al Markaz": ts(t, "2024-06-02"),
				"DSV Outdoor":   ts(t, "2024-06-03"),
				"MOSB":          ts(t, "2024-06-04"),
			},
			want: FlowMultiHop,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, desc := ClassifyFlow(CargoItem{CaseNo: "C", Arrivals: tt.arrivals}, catalog)
			assert.Equal(t, tt.want, code)
			assert.Equal(t, FlowDescription(tt.want), desc)
			assert.GreaterOrEqual(t, code, FlowPreArrival)
			assert.LessOrEqual(t, code, FlowMultiHop)
		})
	}
}

func TestClassifyFlowConfigurableZeroVisitDefault(t *testing.T) {
	catalog := DefaultCatalog()
	catalog.DefaultFlowCode = FlowSingleHop

	code, _ := ClassifyFlow(CargoItem{CaseNo: "C-9"}, catalog)
	assert.Equal(t, FlowSingleHop, code)
}
