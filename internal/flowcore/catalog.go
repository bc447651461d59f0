package flowcore

import "github.com/shopspring/decimal"

// Warehouse is an intermediate storage location an item may pass through
// before reaching its final site.
type Warehouse struct {
	Name     string
	Priority int             // lower rank wins same-day ties
	Capacity float64         // rated capacity in sqm
	Rate     decimal.Decimal // monthly charge per occupied sqm
}

// TransferPair is a monitored adjacency between two storage locations.
// Arrivals at both ends on the same calendar date are treated as a single
// transfer rather than two unrelated inbounds.
type TransferPair struct {
	From string
	To   string
}

// Catalog is the versioned configuration object driving every engine stage:
// the location set, tie-break ranks, transfer adjacencies, estimation ratio
// and thresholds. It is injected explicitly; the engine keeps no globals.
type Catalog struct {
	Version            string
	Warehouses         []Warehouse
	Sites              []string
	OffshoreHub        string
	TransferPairs      []TransferPair
	PreArrivalMarkers  []string
	EstimationRatio    float64 // sqm per package when no explicit area exists
	ReconcileTolerance float64 // allowed relative drift vs snapshot occupancy
	DefaultFlowCode    int     // code for items with no storage visits
}

// DefaultCatalog returns the shipped location set.
func DefaultCatalog() Catalog {
	return Catalog{
		Version: "2024.1",
		Warehouses: []Warehouse{
			{Name: "DSV Al Markaz", Priority: 1, Capacity: 12000, Rate: decimal.NewFromFloat(38.0)},
			{Name: "DSV Indoor", Priority: 2, Capacity: 8000, Rate: decimal.NewFromFloat(47.5)},
			{Name: "DSV Outdoor", Priority: 3, Capacity: 15000, Rate: decimal.NewFromFloat(18.0)},
			{Name: "DSV MZP", Priority: 4, Capacity: 6000, Rate: decimal.NewFromFloat(21.0)},
			{Name: "AAA Storage", Priority: 5, Capacity: 4000, Rate: decimal.NewFromFloat(25.0)},
		},
		Sites:       []string{"AGI", "DAS", "MIR", "SHU"},
		OffshoreHub: "MOSB",
		TransferPairs: []TransferPair{
			{From: "DSV Indoor", To: "DSV Al Markaz"},
			{From: "DSV Outdoor", To: "DSV Al Markaz"},
			{From: "DSV Indoor", To: "DSV Outdoor"},
		},
		PreArrivalMarkers:  []string{"pre arrival", "pre-arrival", "prearrival"},
		EstimationRatio:    1.5,
		ReconcileTolerance: 0.01,
		DefaultFlowCode:    1,
	}
}

// Locations returns every known location in canonical order: warehouses by
// priority position, then the offshore hub, then sites. This order is the
// stable iteration order for reconstruction and matrix columns.
func (c Catalog) Locations() []string {
	out := make([]string, 0, len(c.Warehouses)+len(c.Sites)+1)
	for _, w := range c.Warehouses {
		out = append(out, w.Name)
	}
	if c.OffshoreHub != "" {
		out = append(out, c.OffshoreHub)
	}
	out = append(out, c.Sites...)
	return out
}

// WarehouseNames returns the warehouse names in catalog order.
func (c Catalog) WarehouseNames() []string {
	out := make([]string, 0, len(c.Warehouses))
	for _, w := range c.Warehouses {
		out = append(out, w.Name)
	}
	return out
}

// StorageNames returns warehouses plus the offshore hub, the locations that
// participate in the warehouse monthly matrix.
func (c Catalog) StorageNames() []string {
	out := c.WarehouseNames()
	if c.OffshoreHub != "" {
		out = append(out, c.OffshoreHub)
	}
	return out
}

func (c Catalog) IsWarehouse(name string) bool {
	for _, w := range c.Warehouses {
		if w.Name == name {
			return true
		}
	}
	return false
}

func (c Catalog) IsSite(name string) bool {
	for _, s := range c.Sites {
		if s == name {
			return true
		}
	}
	return false
}

func (c Catalog) IsOffshoreHub(name string) bool {
	return c.OffshoreHub != "" && c.OffshoreHub == name
}

// WarehouseByName looks up a warehouse definition.
func (c Catalog) WarehouseByName(name string) (Warehouse, bool) {
	for _, w := range c.Warehouses {
		if w.Name == name {
			return w, true
		}
	}
	return Warehouse{}, false
}

// TieRank returns the total-order rank used to break same-timestamp ties.
// Warehouses use their configured priority; the hub and sites rank after
// every warehouse so storage always wins a tie against a terminal location.
func (c Catalog) TieRank(name string) int {
	if w, ok := c.WarehouseByName(name); ok {
		return w.Priority
	}
	base := len(c.Warehouses) + 1
	if c.IsOffshoreHub(name) {
		return base
	}
	for i, s := range c.Sites {
		if s == name {
			return base + 1 + i
		}
	}
	return base + 1 + len(c.Sites)
}
