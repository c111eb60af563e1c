// Package ports holds the static table of major shipping ports and canals.
package ports

import (
	"sort"
	"strings"
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type Port struct {
	Name        string      `json:"name"`
	Country     string      `json:"country"`
	Coordinates Coordinates `json:"coordinates"`
	Capacity    string      `json:"capacity,omitempty"`
	AvgWaitDays float64     `json:"avg_wait_time"`
}

type Canal struct {
	Name           string      `json:"name"`
	Coordinates    Coordinates `json:"coordinates"`
	AvgToll        float64     `json:"avg_toll"`
	AvgTransitDays float64     `json:"avg_transit_time"`
}

var (
	Suez   = Canal{Name: "Suez Canal", Coordinates: Coordinates{30.5852, 32.3439}, AvgToll: 450000, AvgTransitDays: 0.5}
	Panama = Canal{Name: "Panama Canal", Coordinates: Coordinates{9.0820, -79.6805}, AvgToll: 400000, AvgTransitDays: 0.4}
)

var table = []Port{
	// Asia-Pacific
	{"Shanghai", "China", Coordinates{31.2304, 121.4737}, "High", 0.5},
	{"Singapore", "Singapore", Coordinates{1.3521, 103.8198}, "Very High", 0.3},
	{"Shenzhen", "China", Coordinates{22.5431, 114.0579}, "Very High", 0.5},
	{"Hong Kong", "China", Coordinates{22.3193, 114.1694}, "Very High", 0.4},
	{"Busan", "South Korea", Coordinates{35.1796, 129.0756}, "High", 0.4},
	{"Guangzhou", "China", Coordinates{23.1291, 113.2644}, "High", 0.6},
	{"Qingdao", "China", Coordinates{36.0671, 120.3826}, "High", 0.5},
	{"Tokyo", "Japan", Coordinates{35.6532, 139.8070}, "High", 0.4},
	{"Port Klang", "Malaysia", Coordinates{2.9938, 101.3937}, "High", 0.5},
	{"Kaohsiung", "Taiwan", Coordinates{22.6273, 120.3014}, "High", 0.4},

	// Europe
	{"Rotterdam", "Netherlands", Coordinates{51.9244, 4.4777}, "Very High", 0.3},
	{"Antwerp", "Belgium", Coordinates{51.2194, 4.4025}, "High", 0.4},
	{"Hamburg", "Germany", Coordinates{53.5511, 9.9937}, "High", 0.5},
	{"Valencia", "Spain", Coordinates{39.4699, -0.3763}, "Medium", 0.6},
	{"Piraeus", "Greece", Coordinates{37.9421, 23.6463}, "Medium", 0.7},
	{"Le Havre", "France", Coordinates{49.4944, 0.1079}, "Medium", 0.6},
	{"Felixstowe", "United Kingdom", Coordinates{51.9606, 1.3511}, "High", 0.5},

	// Middle East
	{"Dubai", "UAE", Coordinates{25.2769, 55.2962}, "Very High", 0.4},
	{"Jeddah", "Saudi Arabia", Coordinates{21.5433, 39.1728}, "High", 0.6},
	{"Port Said", "Egypt", Coordinates{31.2653, 32.3019}, "High", 0.5},

	// Americas
	{"Los Angeles", "USA", Coordinates{33.7405, -118.2697}, "Very High", 0.8},
	{"Long Beach", "USA", Coordinates{33.7701, -118.1937}, "Very High", 0.8},
	{"New York", "USA", Coordinates{40.6643, -74.0736}, "Very High", 0.7},
	{"Savannah", "USA", Coordinates{32.0809, -81.0912}, "High", 0.6},
	{"Houston", "USA", Coordinates{29.7604, -95.3698}, "High", 0.7},
	{"Santos", "Brazil", Coordinates{-23.9608, -46.3333}, "High", 0.8},
	{"Vancouver", "Canada", Coordinates{49.2827, -123.1207}, "High", 0.5},
	{"Manzanillo", "Mexico", Coordinates{19.0544, -104.3200}, "Medium", 0.6},

	// Africa
	{"Durban", "South Africa", Coordinates{-29.8587, 31.0218}, "Medium", 0.7},
	{"Lagos", "Nigeria", Coordinates{6.4281, 3.4219}, "Medium", 1.0},
	{"Tangier", "Morocco", Coordinates{35.7595, -5.8340}, "High", 0.5},

	// Australia
	{"Sydney", "Australia", Coordinates{-33.8688, 151.2093}, "High", 0.5},
	{"Melbourne", "Australia", Coordinates{-37.8136, 144.9631}, "High", 0.5},

	// South Asia
	{"Mumbai", "India", Coordinates{18.9220, 72.8347}, "High", 0.9},
	{"Chennai", "India", Coordinates{13.0827, 80.2707}, "High", 0.8},
	{"Colombo", "Sri Lanka", Coordinates{6.9271, 79.8612}, "Medium", 0.6},
	{"Karachi", "Pakistan", Coordinates{24.8607, 67.0011}, "Medium", 0.9},
}

var byName = func() map[string]Port {
	m := make(map[string]Port, len(table))
	for _, p := range table {
		m[strings.ToLower(p.Name)] = p
	}
	return m
}()

// Lookup finds a port by name, ignoring case and surrounding space.
func Lookup(name string) (Port, bool) {
	p, ok := byName[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Names returns all port names in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(table))
	for _, p := range table {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}

func All() []Port {
	out := make([]Port, len(table))
	copy(out, table)
	return out
}

// Search matches query against port names and countries.
func Search(query string) []Port {
	q := strings.ToLower(strings.TrimSpace(query))
	results := make([]Port, 0)
	for _, p := range table {
		if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Country), q) {
			results = append(results, p)
		}
	}
	return results
}
