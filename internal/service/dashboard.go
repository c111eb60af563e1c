package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/anuragthippani1/SentriX/internal/contracts"
)

// DashboardEntry is one country on the dashboard map.
type DashboardEntry struct {
	RiskLevel int    `json:"risk_level"`
	Type      string `json:"type"`
	Details   string `json:"details"`
}

type Dashboard struct {
	WorldRiskData  map[string]DashboardEntry `json:"world_risk_data"`
	PoliticalRisks []contracts.PoliticalRisk `json:"political_risks"`
	ScheduleRisks  []contracts.ScheduleRisk  `json:"schedule_risks"`
	Sample         bool                      `json:"sample,omitempty"`
}

// Dashboard computes live risk data for the current shipment countries. On
// failure it serves a fixed sample so the map still renders.
func (s *Service) Dashboard(ctx context.Context) Dashboard {
	ctx, span := s.tracer.Start(ctx, "service.Dashboard")
	sched, err := s.scheduler.AnalyzeScheduleRisks()
	if err != nil {
		s.logger.Warn("dashboard falling back to sample data", zap.Error(err))
		span.End()
		return SampleDashboard()
	}
	pol := s.political.AnalyzeRisks(ctx, s.scheduler.Countries())
	span.End()
	return Dashboard{
		WorldRiskData:  DashboardWorld(pol, sched),
		PoliticalRisks: pol,
		ScheduleRisks:  sched,
	}
}

// DashboardWorld keeps the highest level seen per country. A country is typed
// by the first generator that mentioned it.
func DashboardWorld(pol []contracts.PoliticalRisk, sched []contracts.ScheduleRisk) map[string]DashboardEntry {
	world := make(map[string]DashboardEntry)
	for _, r := range pol {
		e, ok := world[r.Country]
		if !ok {
			world[r.Country] = DashboardEntry{RiskLevel: r.LikelihoodScore, Type: "political", Details: r.Reasoning}
			continue
		}
		if r.LikelihoodScore > e.RiskLevel {
			e.RiskLevel = r.LikelihoodScore
			e.Details = r.Reasoning
			world[r.Country] = e
		}
	}
	for _, r := range sched {
		e, ok := world[r.Country]
		if !ok {
			e = DashboardEntry{Type: "schedule"}
		}
		if r.RiskLevel > e.RiskLevel {
			e.RiskLevel = r.RiskLevel
		}
		world[r.Country] = e
	}
	return world
}

func SampleDashboard() Dashboard {
	return Dashboard{
		WorldRiskData: map[string]DashboardEntry{
			"China":   {RiskLevel: 3, Type: "political", Details: "Sample data"},
			"Germany": {RiskLevel: 2, Type: "schedule", Details: "Sample data"},
		},
		PoliticalRisks: []contracts.PoliticalRisk{},
		ScheduleRisks:  []contracts.ScheduleRisk{},
		Sample:         true,
	}
}
