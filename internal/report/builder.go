// Package report assembles risk findings into persisted report documents.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/anuragthippani1/SentriX/internal/contracts"
)

const (
	PoliticalTitle = "Political Risk Assessment Report"
	ScheduleTitle  = "Schedule Risk Assessment Report"
	CombinedTitle  = "Comprehensive Risk Assessment Report"
)

type Builder struct {
	now   func() time.Time
	newID func() string
}

func NewBuilder() *Builder {
	return &Builder{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// WithClock returns a copy of b that stamps reports with now.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	c := *b
	c.now = now
	return &c
}

func (b *Builder) Political(risks []contracts.PoliticalRisk, sessionID string) contracts.RiskReport {
	return contracts.RiskReport{
		ReportID:         b.newID(),
		SessionID:        sessionID,
		ReportType:       contracts.ReportPolitical,
		CreatedAt:        b.now(),
		Title:            PoliticalTitle,
		ExecutiveSummary: PoliticalSummary(risks),
		PoliticalRisks:   risks,
		WorldRiskData:    PoliticalWorldData(risks),
		Recommendations:  PoliticalRecommendations(risks),
	}
}

func (b *Builder) Schedule(risks []contracts.ScheduleRisk, sessionID string) contracts.RiskReport {
	return contracts.RiskReport{
		ReportID:         b.newID(),
		SessionID:        sessionID,
		ReportType:       contracts.ReportSchedule,
		CreatedAt:        b.now(),
		Title:            ScheduleTitle,
		ExecutiveSummary: ScheduleSummary(risks),
		ScheduleRisks:    risks,
		Recommendations:  ScheduleRecommendations(risks),
	}
}

func (b *Builder) Combined(pol []contracts.PoliticalRisk, sched []contracts.ScheduleRisk, sessionID string) contracts.RiskReport {
	now := b.now()
	return contracts.RiskReport{
		ReportID:         b.newID(),
		SessionID:        sessionID,
		ReportType:       contracts.ReportCombined,
		CreatedAt:        now,
		Title:            CombinedTitle,
		ExecutiveSummary: CombinedSummary(pol, sched),
		PoliticalRisks:   pol,
		ScheduleRisks:    sched,
		WorldRiskData:    CombinedWorldData(pol, sched, now),
		Recommendations:  CombinedRecommendations(pol, sched),
	}
}

// Route wraps a route narrative into a report of type route.
func (b *Builder) Route(origin, destination, analysis, sessionID string) contracts.RiskReport {
	return contracts.RiskReport{
		ReportID:   b.newID(),
		SessionID:  sessionID,
		ReportType: contracts.ReportRoute,
		CreatedAt:  b.now(),
		Title:      fmt.Sprintf("Route Analysis: %s → %s", origin, destination),
		ExecutiveSummary: fmt.Sprintf("Route analysis from %s to %s covering ocean climate conditions, "+
			"risk assessment, transit time and safety precautions.", origin, destination),
		Recommendations: []string{
			"Monitor weather forecasts continuously",
			"Maintain communication with coast guard",
			"Follow ISPS security protocols",
			"Ensure cargo is properly secured",
			"Have emergency response plans ready",
		},
		RouteAnalysis: analysis,
	}
}

func PoliticalSummary(risks []contracts.PoliticalRisk) string {
	if len(risks) == 0 {
		return "No significant political risks identified in the analyzed countries."
	}

	var high, medium, all []string
	for _, r := range risks {
		all = append(all, r.Country)
		switch {
		case r.LikelihoodScore >= 4:
			high = append(high, r.Country)
		case r.LikelihoodScore == 3:
			medium = append(medium, r.Country)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Political risk analysis identified %d risk factors across %d countries. ", len(risks), len(unique(all)))
	if len(high) > 0 {
		fmt.Fprintf(&b, "High-risk countries include: %s. ", strings.Join(unique(high), ", "))
	}
	if len(medium) > 0 {
		fmt.Fprintf(&b, "Medium-risk countries include: %s. ", strings.Join(unique(medium), ", "))
	}
	b.WriteString("Key risk factors include trade policy changes, labor disputes, and regulatory updates that may impact supply chain operations.")
	return b.String()
}

func ScheduleSummary(risks []contracts.ScheduleRisk) string {
	if len(risks) == 0 {
		return "No schedule risks identified in current equipment data."
	}

	delayed, totalDelay := 0, 0
	var highIDs []string
	for _, r := range risks {
		if r.DelayDays > 0 {
			delayed++
			totalDelay += r.DelayDays
		}
		if r.RiskLevel >= 4 {
			highIDs = append(highIDs, r.EquipmentID)
		}
	}
	avg := 0.0
	if delayed > 0 {
		avg = float64(totalDelay) / float64(delayed)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Schedule analysis identified %d delayed equipment items out of %d total. ", delayed, len(risks))
	fmt.Fprintf(&b, "Average delay: %.1f days. ", avg)
	if len(highIDs) > 0 {
		fmt.Fprintf(&b, "High-risk equipment: %s. ", strings.Join(highIDs, ", "))
	}
	b.WriteString("Primary risk factors include extended delays, emerging market dependencies, and critical timeline impacts.")
	return b.String()
}

func CombinedSummary(pol []contracts.PoliticalRisk, sched []contracts.ScheduleRisk) string {
	return "Comprehensive Risk Assessment:\n\nPolitical Risks: " + PoliticalSummary(pol) +
		"\n\nSchedule Risks: " + ScheduleSummary(sched)
}

func PoliticalRecommendations(risks []contracts.PoliticalRisk) []string {
	if len(risks) == 0 {
		return []string{"Continue monitoring political developments in key supplier countries."}
	}

	recs := make([]string, 0, 5)
	var high []string
	trade, labor := false, false
	for _, r := range risks {
		if r.LikelihoodScore >= 4 {
			high = append(high, r.Country)
		}
		kind := strings.ToLower(r.RiskType)
		trade = trade || strings.Contains(kind, "trade")
		labor = labor || strings.Contains(kind, "labor")
	}
	if len(high) > 0 {
		recs = append(recs, "Consider diversifying suppliers away from high-risk countries: "+strings.Join(unique(high), ", "))
	}
	if trade {
		recs = append(recs, "Monitor trade policy changes and prepare for potential tariff impacts")
	}
	if labor {
		recs = append(recs, "Develop contingency plans for labor disputes and strikes")
	}
	return append(recs,
		"Establish regular political risk monitoring and early warning systems",
		"Maintain alternative supplier relationships in stable regions",
	)
}

func ScheduleRecommendations(risks []contracts.ScheduleRisk) []string {
	if len(risks) == 0 {
		return []string{"Continue monitoring delivery schedules and maintain supplier relationships."}
	}

	recs := make([]string, 0, 5)
	var highIDs []string
	anyDelayed := false
	for _, r := range risks {
		if r.RiskLevel >= 4 {
			highIDs = append(highIDs, r.EquipmentID)
		}
		anyDelayed = anyDelayed || r.DelayDays > 0
	}
	if len(highIDs) > 0 {
		recs = append(recs, "Expedite delivery for high-risk equipment: "+strings.Join(highIDs, ", "))
	}
	if anyDelayed {
		recs = append(recs,
			"Implement daily tracking for all delayed equipment",
			"Establish direct communication channels with delayed suppliers",
		)
	}
	return append(recs,
		"Develop buffer time in project schedules for critical equipment",
		"Create supplier performance scorecards and regular reviews",
	)
}

func CombinedRecommendations(pol []contracts.PoliticalRisk, sched []contracts.ScheduleRisk) []string {
	recs := append(PoliticalRecommendations(pol), ScheduleRecommendations(sched)...)
	return append(recs,
		"Integrate political and schedule risk monitoring into unified dashboard",
		"Develop cross-functional risk management team",
	)
}

// PoliticalWorldData keeps the highest likelihood per country and lists every risk type seen.
func PoliticalWorldData(risks []contracts.PoliticalRisk) map[string]contracts.CountryRisk {
	world := make(map[string]contracts.CountryRisk)
	for _, r := range risks {
		entry, ok := world[r.Country]
		if !ok {
			entry = contracts.CountryRisk{RiskFactors: []string{}, LastUpdated: r.PublicationDate}
		}
		entry.RiskLevel = max(entry.RiskLevel, r.LikelihoodScore)
		entry.RiskFactors = append(entry.RiskFactors, r.RiskType)
		world[r.Country] = entry
	}
	return world
}

// CombinedWorldData extends the political map with schedule levels and factors.
func CombinedWorldData(pol []contracts.PoliticalRisk, sched []contracts.ScheduleRisk, now time.Time) map[string]contracts.CountryRisk {
	world := PoliticalWorldData(pol)
	for _, r := range sched {
		entry, ok := world[r.Country]
		if !ok {
			entry = contracts.CountryRisk{RiskFactors: []string{}, LastUpdated: now.Format(time.RFC3339)}
		}
		entry.RiskLevel = max(entry.RiskLevel, r.RiskLevel)
		entry.RiskFactors = append(entry.RiskFactors, r.RiskFactors...)
		world[r.Country] = entry
	}
	return world
}

func unique(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
