package schedule

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anuragthippani1/SentriX/internal/contracts"
)

func TestAnalyzeSampleRisks(t *testing.T) {
	s := New()
	risks, err := s.AnalyzeScheduleRisks()
	require.NoError(t, err)
	require.Len(t, risks, 5)

	tests := []struct {
		id      string
		delay   int
		level   int
		factors []string
	}{
		{"EQ001", 13, 3, []string{"Delivery delay", "Emerging market risks"}},
		{"EQ002", 0, 1, []string{}},
		{"EQ003", 14, 3, []string{"Delivery delay", "Emerging market risks"}},
		{"EQ004", 0, 1, []string{}},
		{"EQ005", 21, 4, []string{"Delivery delay", "Extended delay", "Emerging market risks"}},
	}
	for i, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			r := risks[i]
			assert.Equal(t, tt.id, r.EquipmentID)
			assert.Equal(t, tt.delay, r.DelayDays)
			assert.Equal(t, tt.level, r.RiskLevel)
			assert.Equal(t, tt.factors, r.RiskFactors)
		})
	}
}

func TestHighRiskEquipment(t *testing.T) {
	high, err := New().HighRiskEquipment()
	require.NoError(t, err)
	require.Len(t, high, 1)
	assert.Equal(t, "EQ005", high[0].EquipmentID)
}

func TestCountriesFirstSeenOrder(t *testing.T) {
	s := New()
	assert.Equal(t, []string{"China", "Germany", "India", "Japan", "Brazil"}, s.Countries())

	require.NoError(t, s.SetShipments([]contracts.Shipment{
		{EquipmentID: "A", Country: "Vietnam", OriginalDeliveryDate: "2024-01-01", CurrentDeliveryDate: "2024-01-01"},
		{EquipmentID: "B", Country: "Mexico", OriginalDeliveryDate: "2024-01-01", CurrentDeliveryDate: "2024-01-01"},
		{EquipmentID: "C", Country: "Vietnam", OriginalDeliveryDate: "2024-01-01", CurrentDeliveryDate: "2024-01-01"},
	}))
	assert.Equal(t, []string{"Vietnam", "Mexico"}, s.Countries())
}

func TestSetShipmentsAndReset(t *testing.T) {
	s := New()
	assert.True(t, s.UsingSamples())

	err := s.SetShipments([]contracts.Shipment{{
		EquipmentID:          "X1",
		Country:              "India",
		OriginalDeliveryDate: "2024-01-01",
		CurrentDeliveryDate:  "2024-02-15",
		Status:               "delayed",
	}})
	require.NoError(t, err)
	assert.False(t, s.UsingSamples())

	risks, err := s.AnalyzeScheduleRisks()
	require.NoError(t, err)
	require.Len(t, risks, 1)
	assert.Equal(t, 45, risks[0].DelayDays)
	assert.Equal(t, 5, risks[0].RiskLevel)
	assert.Equal(t, []string{"Delivery delay", "Extended delay", "Emerging market risks", "Critical delay"}, risks[0].RiskFactors)

	s.Reset()
	assert.True(t, s.UsingSamples())
	assert.Len(t, s.Shipments(), 5)
}

func TestSetShipmentsEmptyList(t *testing.T) {
	s := New()
	require.NoError(t, s.SetShipments([]contracts.Shipment{}))
	assert.False(t, s.UsingSamples())
	assert.Empty(t, s.Countries())

	risks, err := s.AnalyzeScheduleRisks()
	require.NoError(t, err)
	assert.Empty(t, risks)
}

func TestSetShipmentsValidation(t *testing.T) {
	tests := []struct {
		name string
		item contracts.Shipment
	}{
		{"missing id", contracts.Shipment{Country: "China", OriginalDeliveryDate: "2024-01-01", CurrentDeliveryDate: "2024-01-02"}},
		{"missing country", contracts.Shipment{EquipmentID: "A", OriginalDeliveryDate: "2024-01-01", CurrentDeliveryDate: "2024-01-02"}},
		{"bad date", contracts.Shipment{EquipmentID: "A", Country: "China", OriginalDeliveryDate: "not a date", CurrentDeliveryDate: "2024-01-02"}},
		{"missing date", contracts.Shipment{EquipmentID: "A", Country: "China", OriginalDeliveryDate: "2024-01-01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			err := s.SetShipments([]contracts.Shipment{tt.item})
			assert.ErrorIs(t, err, ErrInvalidShipment)
			assert.True(t, s.UsingSamples())
		})
	}

	assert.ErrorIs(t, New().SetShipments(nil), ErrInvalidShipment)
}

func TestMissingStatusIsOnTime(t *testing.T) {
	s := New()
	require.NoError(t, s.SetShipments([]contracts.Shipment{{
		EquipmentID:          "A",
		Country:              "Germany",
		OriginalDeliveryDate: "2024-01-01",
		CurrentDeliveryDate:  "2024-01-20",
	}}))
	risks, err := s.AnalyzeScheduleRisks()
	require.NoError(t, err)
	assert.Equal(t, 19, risks[0].DelayDays)
	assert.Equal(t, 1, risks[0].RiskLevel)
	assert.Equal(t, StatusOnTime, s.Shipments()[0].Status)
}

func TestLenientDatesAreNormalized(t *testing.T) {
	s := New()
	require.NoError(t, s.SetShipments([]contracts.Shipment{{
		EquipmentID:          "A",
		Country:              "Japan",
		OriginalDeliveryDate: "March 1, 2024",
		CurrentDeliveryDate:  "2024/03/11",
		Status:               "delayed",
	}}))
	item := s.Shipments()[0]
	assert.Equal(t, "2024-03-01", item.OriginalDeliveryDate)
	assert.Equal(t, "2024-03-11", item.CurrentDeliveryDate)

	risks, err := s.AnalyzeScheduleRisks()
	require.NoError(t, err)
	assert.Equal(t, 10, risks[0].DelayDays)
	assert.Equal(t, 3, risks[0].RiskLevel)
}

func TestDelayDaysNegative(t *testing.T) {
	a := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	b := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, -9, DelayDays(a, b))
}

func TestEquipmentByCountry(t *testing.T) {
	s := New()
	got := s.EquipmentByCountry("India")
	require.Len(t, got, 1)
	assert.Equal(t, "EQ003", got[0].EquipmentID)
	assert.Empty(t, s.EquipmentByCountry("Atlantis"))
}

func TestSchedulerConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.SetShipments(Samples())
			s.Reset()
		}()
		go func() {
			defer wg.Done()
			_, err := s.AnalyzeScheduleRisks()
			assert.NoError(t, err)
			_ = s.Countries()
		}()
	}
	wg.Wait()
}
