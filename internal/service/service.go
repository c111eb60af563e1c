// Package service wires the classifier, risk generators, report builder and
// store into the operations exposed over HTTP.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/anuragthippani1/SentriX/internal/assistant"
	"github.com/anuragthippani1/SentriX/internal/contracts"
	"github.com/anuragthippani1/SentriX/internal/intent"
	"github.com/anuragthippani1/SentriX/internal/mq"
	"github.com/anuragthippani1/SentriX/internal/political"
	"github.com/anuragthippani1/SentriX/internal/ports"
	"github.com/anuragthippani1/SentriX/internal/report"
	"github.com/anuragthippani1/SentriX/internal/routeplan"
	"github.com/anuragthippani1/SentriX/internal/schedule"
	"github.com/anuragthippani1/SentriX/internal/storage"
	"github.com/anuragthippani1/SentriX/internal/telemetry"
)

var (
	ErrEmptyQuery         = errors.New("query is required")
	ErrAlertsUnavailable  = errors.New("alerts require the postgres storage backend")
	ErrInvalidAlertStatus = errors.New("invalid alert status")
)

const (
	ResultAssistant = "assistant"
	ResultReport    = "report"
)

// AlertRepository is the part of storage.AlertRepository the API reads and updates.
type AlertRepository interface {
	ListAlerts(ctx context.Context, status string, limit int) ([]contracts.AlertRecord, error)
	UpdateAlertStatus(ctx context.Context, id, status string) error
}

type Deps struct {
	Store     storage.Store
	Scheduler *schedule.Scheduler
	Political *political.Analyzer
	Builder   *report.Builder
	Assistant *assistant.Assistant
	Planner   *routeplan.Planner
	Publisher mq.Publisher
	Alerts    AlertRepository
	Metrics   *telemetry.Metrics
	Logger    *zap.Logger
	Now       func() time.Time
}

type Service struct {
	store     storage.Store
	scheduler *schedule.Scheduler
	political *political.Analyzer
	builder   *report.Builder
	assistant *assistant.Assistant
	planner   *routeplan.Planner
	publisher mq.Publisher
	alerts    AlertRepository
	metrics   *telemetry.Metrics
	logger    *zap.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

func New(d Deps) *Service {
	s := &Service{
		store:     d.Store,
		scheduler: d.Scheduler,
		political: d.Political,
		builder:   d.Builder,
		assistant: d.Assistant,
		planner:   d.Planner,
		publisher: d.Publisher,
		alerts:    d.Alerts,
		metrics:   d.Metrics,
		logger:    d.Logger,
		tracer:    telemetry.Tracer(),
		now:       d.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.scheduler == nil {
		s.scheduler = schedule.New()
	}
	if s.planner == nil {
		s.planner = routeplan.New()
	}
	if s.builder == nil {
		s.builder = report.NewBuilder()
	}
	if s.assistant == nil {
		s.assistant = assistant.New(s.planner)
	}
	if s.political == nil {
		s.political = political.NewAnalyzer(political.NewNewsFetcher(s.logger), s.logger)
	}
	if s.publisher == nil {
		s.publisher = mq.Nop{}
	}
	return s
}

// QueryResult is either an assistant reply or a persisted report. Route
// reports carry both.
type QueryResult struct {
	SessionID string                `json:"session_id"`
	Type      string                `json:"type"`
	Intent    intent.Intent         `json:"intent"`
	Response  *assistant.Response   `json:"response,omitempty"`
	Report    *contracts.RiskReport `json:"report,omitempty"`
}

// Query classifies the text, runs the matching generator and persists any
// report. The exchange is appended to the session transcript.
func (s *Service) Query(ctx context.Context, query, sessionID string) (result QueryResult, err error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return QueryResult{}, ErrEmptyQuery
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	ctx, span := s.tracer.Start(ctx, "service.Query", trace.WithAttributes(attribute.String("session_id", sessionID)))
	defer func() { telemetry.End(span, err) }()

	in := intent.Classify(query)
	span.SetAttributes(attribute.String("intent", string(in)))
	if s.metrics != nil {
		s.metrics.Intents.WithLabelValues(string(in)).Inc()
	}
	s.logger.Debug("query classified", zap.String("session_id", sessionID), zap.String("intent", string(in)))

	result = QueryResult{SessionID: sessionID, Type: ResultAssistant, Intent: in}
	asked := s.now()

	var rep *contracts.RiskReport
	switch in {
	case intent.Reject:
		resp := s.assistant.Refusal()
		result.Response = &resp
	case intent.Combined, intent.Political, intent.Schedule:
		r, err := s.buildReport(ctx, in, sessionID)
		if err != nil {
			return QueryResult{}, err
		}
		rep = &r
	default:
		resp := s.assistant.Respond(ctx, query)
		result.Response = &resp
		if r, ok := s.routeReport(query, resp.Message, sessionID); ok {
			rep = &r
		}
	}

	if rep != nil {
		if err := s.persist(ctx, *rep); err != nil {
			return QueryResult{}, err
		}
		result.Type = ResultReport
		result.Report = rep
	}

	s.record(ctx, sessionID, query, asked, result)
	return result, nil
}

func (s *Service) buildReport(ctx context.Context, in intent.Intent, sessionID string) (contracts.RiskReport, error) {
	switch in {
	case intent.Political:
		return s.builder.Political(s.political.AnalyzeRisks(ctx, s.scheduler.Countries()), sessionID), nil
	case intent.Schedule:
		sched, err := s.scheduler.AnalyzeScheduleRisks()
		if err != nil {
			return contracts.RiskReport{}, fmt.Errorf("analyze schedule risks: %w", err)
		}
		return s.builder.Schedule(sched, sessionID), nil
	default:
		pol := s.political.AnalyzeRisks(ctx, s.scheduler.Countries())
		sched, err := s.scheduler.AnalyzeScheduleRisks()
		if err != nil {
			return contracts.RiskReport{}, fmt.Errorf("analyze schedule risks: %w", err)
		}
		return s.builder.Combined(pol, sched, sessionID), nil
	}
}

// routeReport turns a route narrative into a report when both ends are known ports.
func (s *Service) routeReport(query, narrative, sessionID string) (contracts.RiskReport, bool) {
	if !intent.IsRouteQuery(query) {
		return contracts.RiskReport{}, false
	}
	origin, destination, ok := assistant.ParseRoute(query)
	if !ok || !assistant.KnownRoute(origin, destination) {
		return contracts.RiskReport{}, false
	}
	from, _ := ports.Lookup(origin)
	to, _ := ports.Lookup(destination)
	return s.builder.Route(from.Name, to.Name, narrative, sessionID), true
}

// CombinedReport builds a combined report under a fresh session id.
func (s *Service) CombinedReport(ctx context.Context) (result QueryResult, err error) {
	ctx, span := s.tracer.Start(ctx, "service.CombinedReport")
	defer func() { telemetry.End(span, err) }()

	sessionID := uuid.NewString()
	r, err := s.buildReport(ctx, intent.Combined, sessionID)
	if err != nil {
		return QueryResult{}, err
	}
	if err := s.persist(ctx, r); err != nil {
		return QueryResult{}, err
	}
	return QueryResult{SessionID: sessionID, Type: ResultReport, Intent: intent.Combined, Report: &r}, nil
}

// persist stores the report and publishes its event. Publishing is best effort.
func (s *Service) persist(ctx context.Context, r contracts.RiskReport) error {
	if err := s.store.SaveReport(ctx, r); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	if s.metrics != nil {
		s.metrics.Reports.WithLabelValues(string(r.ReportType)).Inc()
	}
	if err := s.publisher.Publish(ctx, r.ReportID, contracts.NewReportEvent(r)); err != nil {
		if s.metrics != nil {
			s.metrics.PublishFailures.Inc()
		}
		s.logger.Warn("publish report event",
			zap.String("report_id", r.ReportID),
			zap.String("bus", s.publisher.Name()),
			zap.Error(err))
	}
	s.logger.Info("report generated",
		zap.String("report_id", r.ReportID),
		zap.String("session_id", r.SessionID),
		zap.String("type", string(r.ReportType)))
	return nil
}

// record appends the exchange to the transcript and touches the session, if any.
// Failures are logged; the caller already has its answer.
func (s *Service) record(ctx context.Context, sessionID, query string, asked time.Time, result QueryResult) {
	reply := contracts.ChatMessage{Role: "assistant", Type: result.Type, Timestamp: s.now()}
	switch {
	case result.Report != nil:
		reply.Content = result.Report.Title
		reply.ReportID = result.Report.ReportID
		if result.Response != nil {
			reply.Content = result.Response.Message
		}
	case result.Response != nil:
		reply.Content = result.Response.Message
	}

	user := contracts.ChatMessage{Role: "user", Content: query, Timestamp: asked}
	if err := s.store.AppendMessages(ctx, sessionID, user, reply); err != nil {
		s.logger.Warn("append chat transcript", zap.String("session_id", sessionID), zap.Error(err))
	}

	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return
	}
	now := s.now()
	sess.LastActivity = &now
	if err := s.store.UpdateSession(ctx, sess); err != nil {
		s.logger.Warn("touch session", zap.String("session_id", sessionID), zap.Error(err))
	}
}

func (s *Service) ListReports(ctx context.Context) ([]contracts.RiskReport, error) {
	return s.store.ListReports(ctx)
}

func (s *Service) GetReport(ctx context.Context, id string) (contracts.RiskReport, error) {
	return s.store.GetReport(ctx, id)
}

func (s *Service) Messages(ctx context.Context, sessionID string) ([]contracts.ChatMessage, error) {
	return s.store.ListMessages(ctx, sessionID)
}

// UploadShipments replaces the active shipment data set.
func (s *Service) UploadShipments(items []contracts.Shipment) error {
	if err := s.scheduler.SetShipments(items); err != nil {
		return err
	}
	s.logger.Info("shipment data uploaded", zap.Int("items", len(items)))
	return nil
}

func (s *Service) ResetShipments() {
	s.scheduler.Reset()
}

func (s *Service) Shipments() (items []contracts.Shipment, usingSamples bool) {
	return s.scheduler.Shipments(), s.scheduler.UsingSamples()
}

func (s *Service) HighRiskEquipment() ([]contracts.ScheduleRisk, error) {
	return s.scheduler.HighRiskEquipment()
}

func (s *Service) Ports(query string) []ports.Port {
	if strings.TrimSpace(query) == "" {
		return ports.All()
	}
	return ports.Search(query)
}

func (s *Service) PlanRoute(route []string, optimization string) (routeplan.Plan, error) {
	opt, err := routeplan.ParseOptimization(optimization)
	if err != nil {
		return routeplan.Plan{}, err
	}
	return s.planner.Plan(route, opt)
}

// OptimizeRoute reorders the waypoints and plans the resulting route.
func (s *Service) OptimizeRoute(origin, destination string, waypoints []string, optimization string) (routeplan.Plan, error) {
	opt, err := routeplan.ParseOptimization(optimization)
	if err != nil {
		return routeplan.Plan{}, err
	}
	order, err := s.planner.OptimizeOrder(origin, destination, waypoints)
	if err != nil {
		return routeplan.Plan{}, err
	}
	return s.planner.Plan(order, opt)
}

func (s *Service) CompareRoutes(route1, route2 []string) (routeplan.Comparison, error) {
	return s.planner.Compare(route1, route2)
}

func (s *Service) AlertsEnabled() bool { return s.alerts != nil }

func (s *Service) ListAlerts(ctx context.Context, status string, limit int) ([]contracts.AlertRecord, error) {
	if s.alerts == nil {
		return nil, ErrAlertsUnavailable
	}
	if status != "" && !storage.ValidAlertStatus(status) {
		return nil, ErrInvalidAlertStatus
	}
	return s.alerts.ListAlerts(ctx, status, limit)
}

func (s *Service) SetAlertStatus(ctx context.Context, id, status string) error {
	if s.alerts == nil {
		return ErrAlertsUnavailable
	}
	if !storage.ValidAlertStatus(status) {
		return ErrInvalidAlertStatus
	}
	return s.alerts.UpdateAlertStatus(ctx, id, status)
}
