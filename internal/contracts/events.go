package contracts

import "time"

type ReportType string

const (
	ReportPolitical ReportType = "political"
	ReportSchedule  ReportType = "schedule"
	ReportCombined  ReportType = "combined"
	ReportRoute     ReportType = "route"
)

type PoliticalRisk struct {
	Country         string `json:"country" bson:"country"`
	RiskType        string `json:"risk_type" bson:"risk_type"`
	LikelihoodScore int    `json:"likelihood_score" bson:"likelihood_score"`
	Reasoning       string `json:"reasoning" bson:"reasoning"`
	PublicationDate string `json:"publication_date" bson:"publication_date"`
	SourceTitle     string `json:"source_title" bson:"source_title"`
	SourceURL       string `json:"source_url" bson:"source_url"`
}

type ScheduleRisk struct {
	EquipmentID          string   `json:"equipment_id" bson:"equipment_id"`
	Country              string   `json:"country" bson:"country"`
	OriginalDeliveryDate string   `json:"original_delivery_date" bson:"original_delivery_date"`
	CurrentDeliveryDate  string   `json:"current_delivery_date" bson:"current_delivery_date"`
	DelayDays            int      `json:"delay_days" bson:"delay_days"`
	RiskLevel            int      `json:"risk_level" bson:"risk_level"`
	RiskFactors          []string `json:"risk_factors" bson:"risk_factors"`
}

// CountryRisk is one entry of the world risk map shown on the dashboard.
type CountryRisk struct {
	RiskLevel   int      `json:"risk_level" bson:"risk_level"`
	RiskFactors []string `json:"risk_factors" bson:"risk_factors"`
	LastUpdated string   `json:"last_updated" bson:"last_updated"`
}

type RiskReport struct {
	ReportID         string                 `json:"report_id" bson:"_id"`
	SessionID        string                 `json:"session_id" bson:"session_id"`
	ReportType       ReportType             `json:"report_type" bson:"report_type"`
	CreatedAt        time.Time              `json:"created_at" bson:"created_at"`
	Title            string                 `json:"title" bson:"title"`
	ExecutiveSummary string                 `json:"executive_summary" bson:"executive_summary"`
	PoliticalRisks   []PoliticalRisk        `json:"political_risks,omitempty" bson:"political_risks,omitempty"`
	ScheduleRisks    []ScheduleRisk         `json:"schedule_risks,omitempty" bson:"schedule_risks,omitempty"`
	WorldRiskData    map[string]CountryRisk `json:"world_risk_data,omitempty" bson:"world_risk_data,omitempty"`
	Recommendations  []string               `json:"recommendations" bson:"recommendations"`
	RouteAnalysis    string                 `json:"route_analysis,omitempty" bson:"route_analysis,omitempty"`
}

type Session struct {
	SessionID    string     `json:"session_id" bson:"_id"`
	Name         string     `json:"name" bson:"name"`
	Description  *string    `json:"description" bson:"description,omitempty"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" bson:"updated_at"`
	IsActive     bool       `json:"is_active" bson:"is_active"`
	ReportCount  int        `json:"report_count" bson:"-"`
	LastActivity *time.Time `json:"last_activity" bson:"last_activity,omitempty"`
}

// SessionUpdate carries the optional fields of a session update; nil means unchanged.
type SessionUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

func (u SessionUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.IsActive == nil
}

// Apply copies the set fields onto s and stamps UpdatedAt.
func (u SessionUpdate) Apply(s *Session, now time.Time) {
	if u.Name != nil {
		s.Name = *u.Name
	}
	if u.Description != nil {
		s.Description = u.Description
	}
	if u.IsActive != nil {
		s.IsActive = *u.IsActive
	}
	s.UpdatedAt = now
}

type ChatMessage struct {
	Role      string    `json:"role" bson:"role"`
	Content   string    `json:"content" bson:"content"`
	Type      string    `json:"type,omitempty" bson:"type,omitempty"`
	ReportID  string    `json:"report_id,omitempty" bson:"report_id,omitempty"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// ReportEvent is published on the report topic whenever a report is persisted.
type ReportEvent struct {
	ReportID    string                 `json:"report_id"`
	SessionID   string                 `json:"session_id"`
	ReportType  ReportType             `json:"report_type"`
	CreatedAt   time.Time              `json:"created_at"`
	CountryRisk map[string]CountryRisk `json:"country_risk"`
}

func NewReportEvent(r RiskReport) ReportEvent {
	return ReportEvent{
		ReportID:    r.ReportID,
		SessionID:   r.SessionID,
		ReportType:  r.ReportType,
		CreatedAt:   r.CreatedAt,
		CountryRisk: r.WorldRiskData,
	}
}

type AlertRecord struct {
	ID          string    `json:"id"`
	ReportID    string    `json:"report_id"`
	Country     string    `json:"country"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	RiskLevel   int       `json:"risk_level"`
	Severity    string    `json:"severity"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
