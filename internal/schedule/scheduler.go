// Package schedule derives delivery-delay risk from equipment shipment schedules.
package schedule

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/araddon/dateparse"

	"github.com/anuragthippani1/SentriX/internal/contracts"
	"github.com/anuragthippani1/SentriX/internal/risk"
)

const (
	DateLayout   = "2006-01-02"
	StatusOnTime = "on_time"

	highRiskLevel = 4
)

var ErrInvalidShipment = errors.New("invalid shipment")

var samples = []contracts.Shipment{
	{
		EquipmentID:          "EQ001",
		Description:          "Industrial Pump System",
		Country:              "China",
		Supplier:             "Shanghai Manufacturing Co.",
		OriginalDeliveryDate: "2024-02-15",
		CurrentDeliveryDate:  "2024-02-28",
		Status:               "delayed",
	},
	{
		EquipmentID:          "EQ002",
		Description:          "Control Valves",
		Country:              "Germany",
		Supplier:             "Munich Controls GmbH",
		OriginalDeliveryDate: "2024-01-30",
		CurrentDeliveryDate:  "2024-01-30",
		Status:               StatusOnTime,
	},
	{
		EquipmentID:          "EQ003",
		Description:          "Steel Pipes",
		Country:              "India",
		Supplier:             "Mumbai Steel Works",
		OriginalDeliveryDate: "2024-03-01",
		CurrentDeliveryDate:  "2024-03-15",
		Status:               "delayed",
	},
	{
		EquipmentID:          "EQ004",
		Description:          "Electrical Components",
		Country:              "Japan",
		Supplier:             "Tokyo Electronics",
		OriginalDeliveryDate: "2024-02-20",
		CurrentDeliveryDate:  "2024-02-20",
		Status:               StatusOnTime,
	},
	{
		EquipmentID:          "EQ005",
		Description:          "Safety Equipment",
		Country:              "Brazil",
		Supplier:             "São Paulo Safety",
		OriginalDeliveryDate: "2024-01-15",
		CurrentDeliveryDate:  "2024-02-05",
		Status:               "delayed",
	},
}

// Samples returns a copy of the built-in shipment dataset.
func Samples() []contracts.Shipment {
	out := make([]contracts.Shipment, len(samples))
	copy(out, samples)
	return out
}

// Scheduler serves the active shipment dataset: the samples until a custom
// dataset is uploaded, and again after Reset.
type Scheduler struct {
	mu     sync.RWMutex
	custom []contracts.Shipment
}

func New() *Scheduler {
	return &Scheduler{}
}

// SetShipments validates every item before replacing the active data; on error
// the previous dataset stays active.
func (s *Scheduler) SetShipments(items []contracts.Shipment) error {
	if items == nil {
		return fmt.Errorf("%w: shipment data must be a list of items", ErrInvalidShipment)
	}
	normalized := make([]contracts.Shipment, 0, len(items))
	for i, item := range items {
		n, err := normalize(item)
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		normalized = append(normalized, n)
	}

	s.mu.Lock()
	s.custom = normalized
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) Reset() {
	s.mu.Lock()
	s.custom = nil
	s.mu.Unlock()
}

// UsingSamples reports whether the built-in dataset is active.
func (s *Scheduler) UsingSamples() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.custom == nil
}

func (s *Scheduler) Shipments() []contracts.Shipment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.active()
	out := make([]contracts.Shipment, len(src))
	copy(out, src)
	return out
}

// Countries lists the distinct shipment countries in first-seen order.
func (s *Scheduler) Countries() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	countries := make([]string, 0)
	for _, item := range s.active() {
		if seen[item.Country] {
			continue
		}
		seen[item.Country] = true
		countries = append(countries, item.Country)
	}
	return countries
}

func (s *Scheduler) AnalyzeScheduleRisks() ([]contracts.ScheduleRisk, error) {
	items := s.Shipments()
	risks := make([]contracts.ScheduleRisk, 0, len(items))
	for _, item := range items {
		r, err := Assess(item)
		if err != nil {
			return nil, err
		}
		risks = append(risks, r)
	}
	return risks, nil
}

// HighRiskEquipment returns the risks at level 4 or above.
func (s *Scheduler) HighRiskEquipment() ([]contracts.ScheduleRisk, error) {
	all, err := s.AnalyzeScheduleRisks()
	if err != nil {
		return nil, err
	}
	high := make([]contracts.ScheduleRisk, 0)
	for _, r := range all {
		if r.RiskLevel >= highRiskLevel {
			high = append(high, r)
		}
	}
	return high, nil
}

func (s *Scheduler) EquipmentByCountry(country string) []contracts.Shipment {
	out := make([]contracts.Shipment, 0)
	for _, item := range s.Shipments() {
		if item.Country == country {
			out = append(out, item)
		}
	}
	return out
}

// Assess computes the schedule risk of a single shipment.
func Assess(item contracts.Shipment) (contracts.ScheduleRisk, error) {
	original, err := ParseDate(item.OriginalDeliveryDate)
	if err != nil {
		return contracts.ScheduleRisk{}, fmt.Errorf("%s original_delivery_date: %w", item.EquipmentID, err)
	}
	current, err := ParseDate(item.CurrentDeliveryDate)
	if err != nil {
		return contracts.ScheduleRisk{}, fmt.Errorf("%s current_delivery_date: %w", item.EquipmentID, err)
	}

	status := item.Status
	if status == "" {
		status = StatusOnTime
	}
	delay := DelayDays(original, current)

	return contracts.ScheduleRisk{
		EquipmentID:          item.EquipmentID,
		Country:              item.Country,
		OriginalDeliveryDate: item.OriginalDeliveryDate,
		CurrentDeliveryDate:  item.CurrentDeliveryDate,
		DelayDays:            delay,
		RiskLevel:            risk.ScheduleLevel(delay, status),
		RiskFactors:          risk.ScheduleFactors(item.Country, delay),
	}, nil
}

// DelayDays is the whole number of days from original to current, rounded down.
func DelayDays(original, current time.Time) int {
	return int(math.Floor(current.Sub(original).Hours() / 24))
}

// ParseDate reads a YYYY-MM-DD date, falling back to lenient parsing of other layouts.
func ParseDate(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, fmt.Errorf("%w: empty date", ErrInvalidShipment)
	}
	if t, err := time.Parse(DateLayout, v); err == nil {
		return t, nil
	}
	t, err := dateparse.ParseIn(v, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q: %v", ErrInvalidShipment, value, err)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

func (s *Scheduler) active() []contracts.Shipment {
	if s.custom != nil {
		return s.custom
	}
	return samples
}

// normalize checks the required fields and rewrites dates to YYYY-MM-DD.
func normalize(item contracts.Shipment) (contracts.Shipment, error) {
	item.EquipmentID = strings.TrimSpace(item.EquipmentID)
	item.Country = strings.TrimSpace(item.Country)
	if item.EquipmentID == "" {
		return item, fmt.Errorf("%w: equipment_id is required", ErrInvalidShipment)
	}
	if item.Country == "" {
		return item, fmt.Errorf("%w: %s: country is required", ErrInvalidShipment, item.EquipmentID)
	}
	original, err := ParseDate(item.OriginalDeliveryDate)
	if err != nil {
		return item, fmt.Errorf("%s original_delivery_date: %w", item.EquipmentID, err)
	}
	current, err := ParseDate(item.CurrentDeliveryDate)
	if err != nil {
		return item, fmt.Errorf("%s current_delivery_date: %w", item.EquipmentID, err)
	}
	item.OriginalDeliveryDate = original.Format(DateLayout)
	item.CurrentDeliveryDate = current.Format(DateLayout)
	if item.Status == "" {
		item.Status = StatusOnTime
	}
	return item, nil
}
