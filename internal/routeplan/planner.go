// Package routeplan computes multi-port shipping routes over the static port table:
// great-circle leg distances, canal crossings, time and cost totals, and a greedy
// nearest-neighbour ordering of waypoints.
package routeplan

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/anuragthippani1/SentriX/internal/ports"
	"github.com/anuragthippani1/SentriX/internal/risk"
)

const (
	EarthRadiusNM    = 3440.065
	KMPerNM          = 1.852
	ShipSpeedKnots   = 20.0
	FuelCostPerNM    = 2.5
	DeparturePortFee = 15000.0
	ArrivalPortFee   = 12000.0

	timeLayout = "2006-01-02 15:04 UTC"
)

var (
	ErrTooFewPorts         = errors.New("at least 2 ports are required")
	ErrUnknownPort         = errors.New("unknown port")
	ErrInvalidOptimization = errors.New("invalid optimization")
)

type Optimization string

const (
	Fastest  Optimization = "fastest"
	Cheapest Optimization = "cheapest"
	Balanced Optimization = "balanced"
	Safest   Optimization = "safest"
)

// ParseOptimization validates s; an empty value means Balanced.
func ParseOptimization(s string) (Optimization, error) {
	switch o := Optimization(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return Balanced, nil
	case Fastest, Cheapest, Balanced, Safest:
		return o, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOptimization, s)
	}
}

type LegCoordinates struct {
	From ports.Coordinates `json:"from"`
	To   ports.Coordinates `json:"to"`
}

type Leg struct {
	From             string         `json:"from"`
	To               string         `json:"to"`
	FromCountry      string         `json:"from_country"`
	ToCountry        string         `json:"to_country"`
	DistanceNM       float64        `json:"distance_nm"`
	DistanceKM       float64        `json:"distance_km"`
	TransitTimeDays  float64        `json:"transit_time_days"`
	PortWaitTimeDays float64        `json:"port_wait_time_days"`
	TotalTimeDays    float64        `json:"total_time_days"`
	FuelCostUSD      float64        `json:"fuel_cost_usd"`
	PortFeesUSD      float64        `json:"port_fees_usd"`
	CanalCostUSD     float64        `json:"canal_cost_usd"`
	CanalName        *string        `json:"canal_name"`
	TotalCostUSD     float64        `json:"total_cost_usd"`
	Coordinates      LegCoordinates `json:"coordinates"`
	RiskLevel        string         `json:"risk_level"`
}

type Summary struct {
	TotalDistanceNM    float64  `json:"total_distance_nm"`
	TotalDistanceKM    float64  `json:"total_distance_km"`
	TotalTimeDays      float64  `json:"total_time_days"`
	TotalCostUSD       float64  `json:"total_cost_usd"`
	CanalsUsed         []string `json:"canals_used"`
	EstimatedDeparture string   `json:"estimated_departure"`
	EstimatedArrival   string   `json:"estimated_arrival"`
}

type Plan struct {
	RouteType     string       `json:"route_type"`
	Optimization  Optimization `json:"optimization"`
	TotalPorts    int          `json:"total_ports"`
	Ports         []string     `json:"ports"`
	TotalLegs     int          `json:"total_legs"`
	Legs          []Leg        `json:"legs"`
	Summary       Summary      `json:"summary"`
	Alternatives  []Plan       `json:"alternatives"`
	AlternativeID int          `json:"alternative_id,omitempty"`
	Description   string       `json:"description,omitempty"`
	GeneratedAt   time.Time    `json:"generated_at"`
}

type ComparisonSummary struct {
	TimeDifferenceDays   float64 `json:"time_difference_days"`
	CostDifferenceUSD    float64 `json:"cost_difference_usd"`
	DistanceDifferenceNM float64 `json:"distance_difference_nm"`
	FasterRoute          string  `json:"faster_route"`
	CheaperRoute         string  `json:"cheaper_route"`
}

type Comparison struct {
	Route1     Plan              `json:"route1"`
	Route2     Plan              `json:"route2"`
	Comparison ComparisonSummary `json:"comparison"`
}

type Planner struct {
	now func() time.Time
}

func New() *Planner {
	return &Planner{now: func() time.Time { return time.Now().UTC() }}
}

// WithClock returns a planner that stamps plans using now.
func (p *Planner) WithClock(now func() time.Time) *Planner {
	return &Planner{now: now}
}

// Distance is the haversine great-circle distance between a and b in nautical miles.
func Distance(a, b ports.Coordinates) float64 {
	lat1, lon1 := radians(a.Lat), radians(a.Lon)
	lat2, lon2 := radians(b.Lat), radians(b.Lon)

	dlat := lat2 - lat1
	dlon := lon2 - lon1

	h := math.Pow(math.Sin(dlat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dlon/2), 2)
	return 2 * math.Asin(math.Sqrt(h)) * EarthRadiusNM
}

// CanalCrossing reports the canal a direct leg between a and b is assumed to use.
// The test is a coarse longitude straddle plus a latitude band, Suez first.
func CanalCrossing(a, b ports.Coordinates) (ports.Canal, bool) {
	if (a.Lon < 30 && b.Lon > 40) || (a.Lon > 40 && b.Lon < 30) {
		if inBand(a.Lat, 20, 40) || inBand(b.Lat, 20, 40) {
			return ports.Suez, true
		}
	}
	if (a.Lon < -80 && b.Lon > -80) || (a.Lon > -80 && b.Lon < -80) {
		if inBand(a.Lat, -10, 30) || inBand(b.Lat, -10, 30) {
			return ports.Panama, true
		}
	}
	return ports.Canal{}, false
}

var (
	highRiskCountries   = map[string]bool{"Nigeria": true, "Somalia": true, "Yemen": true}
	mediumRiskCountries = map[string]bool{"Egypt": true, "Pakistan": true, "Venezuela": true}
)

// LegRisk grades a leg by the countries it touches, then by length.
func LegRisk(leg Leg) string {
	switch {
	case highRiskCountries[leg.FromCountry] || highRiskCountries[leg.ToCountry]:
		return "high"
	case mediumRiskCountries[leg.FromCountry] || mediumRiskCountries[leg.ToCountry]:
		return "medium"
	case leg.DistanceNM > 5000:
		return "medium"
	default:
		return "low"
	}
}

// Leg computes a single leg between two named ports.
func (p *Planner) Leg(from, to string) (Leg, error) {
	origin, ok := ports.Lookup(from)
	if !ok {
		return Leg{}, fmt.Errorf("%w: %s", ErrUnknownPort, from)
	}
	dest, ok := ports.Lookup(to)
	if !ok {
		return Leg{}, fmt.Errorf("%w: %s", ErrUnknownPort, to)
	}

	distance := Distance(origin.Coordinates, dest.Coordinates)
	transitDays := distance / ShipSpeedKnots / 24
	waitDays := origin.AvgWaitDays + dest.AvgWaitDays
	totalDays := transitDays + waitDays

	fuelCost := distance * FuelCostPerNM
	portFees := DeparturePortFee + ArrivalPortFee

	var canalName *string
	canalCost := 0.0
	if canal, crosses := CanalCrossing(origin.Coordinates, dest.Coordinates); crosses {
		name := canal.Name
		canalName = &name
		canalCost = canal.AvgToll
		totalDays += canal.AvgTransitDays
	}

	leg := Leg{
		From:             from,
		To:               to,
		FromCountry:      origin.Country,
		ToCountry:        dest.Country,
		DistanceNM:       risk.Round2(distance),
		DistanceKM:       risk.Round2(distance * KMPerNM),
		TransitTimeDays:  risk.Round2(transitDays),
		PortWaitTimeDays: risk.Round2(waitDays),
		TotalTimeDays:    risk.Round2(totalDays),
		FuelCostUSD:      risk.Round2(fuelCost),
		PortFeesUSD:      portFees,
		CanalCostUSD:     canalCost,
		CanalName:        canalName,
		TotalCostUSD:     risk.Round2(fuelCost + portFees + canalCost),
		Coordinates:      LegCoordinates{From: origin.Coordinates, To: dest.Coordinates},
	}
	leg.RiskLevel = LegRisk(leg)
	return leg, nil
}

// Plan computes every leg of the route in the given order and totals them.
// Routes of more than three ports planned for cost or speed also carry one
// alternative with the intermediate stops reversed.
func (p *Planner) Plan(route []string, opt Optimization) (Plan, error) {
	plan, err := p.plan(route, opt)
	if err != nil {
		return Plan{}, err
	}

	plan.Alternatives = []Plan{}
	if len(route) > 3 && (opt == Cheapest || opt == Fastest) {
		alt, err := p.plan(reverseIntermediates(route), opt)
		if err == nil {
			alt.AlternativeID = 1
			alt.Description = "Reversed intermediate stops"
			alt.Alternatives = []Plan{}
			plan.Alternatives = append(plan.Alternatives, alt)
		}
	}
	return plan, nil
}

func (p *Planner) plan(route []string, opt Optimization) (Plan, error) {
	if len(route) < 2 {
		return Plan{}, ErrTooFewPorts
	}
	if opt == "" {
		opt = Balanced
	}

	legs := make([]Leg, 0, len(route)-1)
	var totalDistance, totalTime, totalCost float64
	canals := make([]string, 0)
	seen := make(map[string]bool)

	for i := 0; i < len(route)-1; i++ {
		leg, err := p.Leg(route[i], route[i+1])
		if err != nil {
			return Plan{}, err
		}
		legs = append(legs, leg)
		totalDistance += leg.DistanceNM
		totalTime += leg.TotalTimeDays
		totalCost += leg.TotalCostUSD
		if leg.CanalName != nil && !seen[*leg.CanalName] {
			seen[*leg.CanalName] = true
			canals = append(canals, *leg.CanalName)
		}
	}

	now := p.now()
	arrival := now.Add(time.Duration(totalTime * float64(24*time.Hour)))

	return Plan{
		RouteType:    "multi_port",
		Optimization: opt,
		TotalPorts:   len(route),
		Ports:        append([]string(nil), route...),
		TotalLegs:    len(legs),
		Legs:         legs,
		Summary: Summary{
			TotalDistanceNM:    risk.Round2(totalDistance),
			TotalDistanceKM:    risk.Round2(totalDistance * KMPerNM),
			TotalTimeDays:      risk.Round2(totalTime),
			TotalCostUSD:       risk.Round2(totalCost),
			CanalsUsed:         canals,
			EstimatedDeparture: now.Format(timeLayout),
			EstimatedArrival:   arrival.Format(timeLayout),
		},
		GeneratedAt: now,
	}, nil
}

// OptimizeOrder visits the waypoints greedily, always sailing to the nearest
// unvisited one, between a fixed origin and destination. Duplicate waypoints are
// visited once; ties keep input order.
func (p *Planner) OptimizeOrder(origin, destination string, waypoints []string) ([]string, error) {
	current, ok := ports.Lookup(origin)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPort, origin)
	}
	if _, ok := ports.Lookup(destination); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPort, destination)
	}

	remaining := make([]ports.Port, 0, len(waypoints))
	names := make([]string, 0, len(waypoints))
	seen := make(map[string]bool)
	for _, w := range waypoints {
		wp, ok := ports.Lookup(w)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPort, w)
		}
		if seen[wp.Name] {
			continue
		}
		seen[wp.Name] = true
		remaining = append(remaining, wp)
		names = append(names, w)
	}

	route := []string{origin}
	for len(remaining) > 0 {
		nearest := 0
		best := math.Inf(1)
		for i, wp := range remaining {
			if d := Distance(current.Coordinates, wp.Coordinates); d < best {
				best = d
				nearest = i
			}
		}
		route = append(route, names[nearest])
		current = remaining[nearest]
		remaining = append(remaining[:nearest], remaining[nearest+1:]...)
		names = append(names[:nearest], names[nearest+1:]...)
	}
	return append(route, destination), nil
}

// Compare plans both routes with balanced optimization and reports route1 minus route2.
func (p *Planner) Compare(route1, route2 []string) (Comparison, error) {
	a, err := p.Plan(route1, Balanced)
	if err != nil {
		return Comparison{}, fmt.Errorf("route1: %w", err)
	}
	b, err := p.Plan(route2, Balanced)
	if err != nil {
		return Comparison{}, fmt.Errorf("route2: %w", err)
	}

	faster, cheaper := "route2", "route2"
	if a.Summary.TotalTimeDays < b.Summary.TotalTimeDays {
		faster = "route1"
	}
	if a.Summary.TotalCostUSD < b.Summary.TotalCostUSD {
		cheaper = "route1"
	}

	return Comparison{
		Route1: a,
		Route2: b,
		Comparison: ComparisonSummary{
			TimeDifferenceDays:   risk.Round2(a.Summary.TotalTimeDays - b.Summary.TotalTimeDays),
			CostDifferenceUSD:    risk.Round2(a.Summary.TotalCostUSD - b.Summary.TotalCostUSD),
			DistanceDifferenceNM: risk.Round2(a.Summary.TotalDistanceNM - b.Summary.TotalDistanceNM),
			FasterRoute:          faster,
			CheaperRoute:         cheaper,
		},
	}, nil
}

func reverseIntermediates(route []string) []string {
	out := make([]string, len(route))
	out[0] = route[0]
	out[len(route)-1] = route[len(route)-1]
	for i, j := 1, len(route)-2; j >= 1; i, j = i+1, j-1 {
		out[i] = route[j]
	}
	return out
}

func inBand(v, lo, hi float64) bool {
	return lo < v && v < hi
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
