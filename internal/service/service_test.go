package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anuragthippani1/SentriX/internal/assistant"
	"github.com/anuragthippani1/SentriX/internal/contracts"
	"github.com/anuragthippani1/SentriX/internal/intent"
	"github.com/anuragthippani1/SentriX/internal/report"
	"github.com/anuragthippani1/SentriX/internal/routeplan"
	"github.com/anuragthippani1/SentriX/internal/schedule"
	"github.com/anuragthippani1/SentriX/internal/storage"
	"github.com/anuragthippani1/SentriX/internal/telemetry"
)

var fixedNow = time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	keys   []string
	events []contracts.ReportEvent
	err    error
}

func (p *recordingPublisher) Name() string { return "recording" }

func (p *recordingPublisher) Publish(_ context.Context, key string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, key)
	p.events = append(p.events, payload.(contracts.ReportEvent))
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type fixture struct {
	svc       *Service
	store     *storage.FileStore
	publisher *recordingPublisher
	metrics   *telemetry.Metrics
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	clock := func() time.Time { return fixedNow }
	planner := routeplan.New().WithClock(clock)
	pub := &recordingPublisher{}
	metrics := telemetry.NewMetrics()
	svc := New(Deps{
		Store:     store,
		Scheduler: schedule.New(),
		Builder:   report.NewBuilder().WithClock(clock),
		Assistant: assistant.New(planner, assistant.WithClock(clock)),
		Planner:   planner,
		Publisher: pub,
		Metrics:   metrics,
		Now:       clock,
	})
	return fixture{svc: svc, store: store, publisher: pub, metrics: metrics}
}

func TestQueryRejectsEmpty(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Query(context.Background(), "   ", "")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestQueryOffTopic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Query(ctx, "What's the weather like today?", "s-1")
	require.NoError(t, err)
	assert.Equal(t, ResultAssistant, res.Type)
	assert.Equal(t, intent.Reject, res.Intent)
	require.NotNil(t, res.Response)
	assert.Equal(t, assistant.Refusal(), res.Response.Message)
	assert.Nil(t, res.Report)

	reports, err := f.store.ListReports(ctx)
	require.NoError(t, err)
	assert.Empty(t, reports)

	msgs, err := f.svc.Messages(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "What's the weather like today?", msgs[0].Content)
	assert.Equal(t, "assistant", msgs[1].Role)
	assert.Equal(t, assistant.Refusal(), msgs[1].Content)
}

func TestQueryReports(t *testing.T) {
	tests := []struct {
		query      string
		intent     intent.Intent
		reportType contracts.ReportType
		check      func(t *testing.T, r contracts.RiskReport)
	}{
		{
			query: "What are the political risks?", intent: intent.Political, reportType: contracts.ReportPolitical,
			check: func(t *testing.T, r contracts.RiskReport) {
				assert.Len(t, r.PoliticalRisks, 3)
				assert.Len(t, r.WorldRiskData, 3)
			},
		},
		{
			query: "Show me delivery delays", intent: intent.Schedule, reportType: contracts.ReportSchedule,
			check: func(t *testing.T, r contracts.RiskReport) {
				assert.Len(t, r.ScheduleRisks, 5)
			},
		},
		{
			query: "Generate a combined report", intent: intent.Combined, reportType: contracts.ReportCombined,
			check: func(t *testing.T, r contracts.RiskReport) {
				assert.Len(t, r.PoliticalRisks, 3)
				assert.Len(t, r.ScheduleRisks, 5)
				assert.Equal(t, 4, r.WorldRiskData["Brazil"].RiskLevel)
			},
		},
	}
	for _, tt := range tests {
		t.Run(string(tt.intent), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			res, err := f.svc.Query(ctx, tt.query, "s-1")
			require.NoError(t, err)
			assert.Equal(t, ResultReport, res.Type)
			assert.Equal(t, tt.intent, res.Intent)
			require.NotNil(t, res.Report)
			assert.Equal(t, tt.reportType, res.Report.ReportType)
			assert.Equal(t, "s-1", res.Report.SessionID)
			tt.check(t, *res.Report)

			stored, err := f.store.GetReport(ctx, res.Report.ReportID)
			require.NoError(t, err)
			assert.Equal(t, res.Report.Title, stored.Title)

			require.Len(t, f.publisher.keys, 1)
			assert.Equal(t, res.Report.ReportID, f.publisher.keys[0])
			assert.Equal(t, tt.reportType, f.publisher.events[0].ReportType)

			assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Intents.WithLabelValues(string(tt.intent))))
			assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Reports.WithLabelValues(string(tt.reportType))))

			msgs, err := f.svc.Messages(ctx, "s-1")
			require.NoError(t, err)
			require.Len(t, msgs, 2)
			assert.Equal(t, ResultReport, msgs[1].Type)
			assert.Equal(t, res.Report.ReportID, msgs[1].ReportID)
		})
	}
}

func TestQueryRouteReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Query(ctx, "Route from shanghai to los angeles", "")
	require.NoError(t, err)
	_, err = uuid.Parse(res.SessionID)
	require.NoError(t, err)

	assert.Equal(t, ResultReport, res.Type)
	require.NotNil(t, res.Response)
	require.NotNil(t, res.Report)
	assert.Equal(t, contracts.ReportRoute, res.Report.ReportType)
	assert.Equal(t, "Route Analysis: Shanghai → Los Angeles", res.Report.Title)
	assert.Equal(t, res.Response.Message, res.Report.RouteAnalysis)
	assert.Contains(t, res.Report.RouteAnalysis, "Computed Great-Circle Metrics")
}

func TestQueryRouteUnknownPorts(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.Query(context.Background(), "Route from atlantis to el dorado", "s-1")
	require.NoError(t, err)
	assert.Equal(t, ResultAssistant, res.Type)
	assert.Nil(t, res.Report)
	assert.Contains(t, res.Response.Message, "Route Analysis: Atlantis → El Dorado")
	assert.Empty(t, f.publisher.keys)
}

func TestQueryPublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")

	res, err := f.svc.Query(context.Background(), "What are the political risks?", "s-1")
	require.NoError(t, err)
	require.NotNil(t, res.Report)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PublishFailures))
}

func TestQueryTouchesSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.CreateSession(ctx, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "Session 08:30:00", sess.Name)

	_, err = f.svc.Query(ctx, "Show me delivery delays", sess.SessionID)
	require.NoError(t, err)

	got, err := f.svc.GetSession(ctx, sess.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ReportCount)
	require.NotNil(t, got.LastActivity)
	assert.True(t, got.LastActivity.Equal(fixedNow))
}

func TestCombinedReport(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.CombinedReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ResultReport, res.Type)
	require.NotNil(t, res.Report)
	assert.Equal(t, res.SessionID, res.Report.SessionID)
	assert.Equal(t, contracts.ReportCombined, res.Report.ReportType)

	reports, err := f.svc.ListReports(context.Background())
	require.NoError(t, err)
	assert.Len(t, reports, 1)
}

func TestSessionsLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	desc := "weekly"
	sess, err := f.svc.CreateSession(ctx, "  Ops review ", &desc)
	require.NoError(t, err)
	assert.Equal(t, "Ops review", sess.Name)
	assert.True(t, sess.IsActive)

	_, err = f.svc.Query(ctx, "What are the political risks?", sess.SessionID)
	require.NoError(t, err)
	_, err = f.svc.Query(ctx, "Show me delivery delays", sess.SessionID)
	require.NoError(t, err)

	sessions, err := f.svc.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, 2, sessions[0].ReportCount)

	got, reports, err := f.svc.SessionReports(ctx, sess.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ReportCount)
	assert.Len(t, reports, 2)

	name := "Ops review (archived)"
	inactive := false
	updated, err := f.svc.UpdateSession(ctx, sess.SessionID, contracts.SessionUpdate{Name: &name, IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "weekly", *updated.Description)
	assert.Equal(t, 2, updated.ReportCount)

	same, err := f.svc.UpdateSession(ctx, sess.SessionID, contracts.SessionUpdate{})
	require.NoError(t, err)
	assert.Equal(t, name, same.Name)

	require.NoError(t, f.svc.DeleteSession(ctx, sess.SessionID))
	_, err = f.svc.GetSession(ctx, sess.SessionID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, f.svc.DeleteSession(ctx, sess.SessionID), storage.ErrNotFound)
	_, err = f.svc.UpdateSession(ctx, sess.SessionID, contracts.SessionUpdate{Name: &name})
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, _, err = f.svc.SessionReports(ctx, sess.SessionID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	d := f.svc.Dashboard(context.Background())
	assert.False(t, d.Sample)
	assert.Len(t, d.PoliticalRisks, 3)
	assert.Len(t, d.ScheduleRisks, 5)

	assert.Equal(t, map[string]DashboardEntry{
		"Germany": {RiskLevel: 1, Type: "political", Details: d.PoliticalRisks[0].Reasoning},
		"India":   {RiskLevel: 3, Type: "political", Details: d.PoliticalRisks[1].Reasoning},
		"Brazil":  {RiskLevel: 4, Type: "political", Details: d.PoliticalRisks[2].Reasoning},
		"China":   {RiskLevel: 3, Type: "schedule"},
		"Japan":   {RiskLevel: 1, Type: "schedule"},
	}, d.WorldRiskData)
}

func TestDashboardWorldKeepsMax(t *testing.T) {
	world := DashboardWorld([]contracts.PoliticalRisk{
		{Country: "Chile", LikelihoodScore: 2, Reasoning: "low"},
		{Country: "Chile", LikelihoodScore: 5, Reasoning: "high"},
		{Country: "Chile", LikelihoodScore: 3, Reasoning: "mid"},
	}, []contracts.ScheduleRisk{{Country: "Chile", RiskLevel: 4}})
	assert.Equal(t, DashboardEntry{RiskLevel: 5, Type: "political", Details: "high"}, world["Chile"])
}

func TestSampleDashboard(t *testing.T) {
	d := SampleDashboard()
	assert.True(t, d.Sample)
	assert.Equal(t, 3, d.WorldRiskData["China"].RiskLevel)
	assert.Equal(t, "schedule", d.WorldRiskData["Germany"].Type)
	assert.NotNil(t, d.PoliticalRisks)
	assert.NotNil(t, d.ScheduleRisks)
}

func TestShipments(t *testing.T) {
	f := newFixture(t)

	items, samples := f.svc.Shipments()
	assert.True(t, samples)
	assert.Len(t, items, 5)

	err := f.svc.UploadShipments([]contracts.Shipment{{EquipmentID: "X1"}})
	assert.ErrorIs(t, err, schedule.ErrInvalidShipment)

	require.NoError(t, f.svc.UploadShipments([]contracts.Shipment{{
		EquipmentID:          "X1",
		Country:              "Chile",
		OriginalDeliveryDate: "2024-01-01",
		CurrentDeliveryDate:  "2024-02-15",
		Status:               "delayed",
	}}))
	items, samples = f.svc.Shipments()
	assert.False(t, samples)
	assert.Len(t, items, 1)

	high, err := f.svc.HighRiskEquipment()
	require.NoError(t, err)
	require.Len(t, high, 1)
	assert.Equal(t, "X1", high[0].EquipmentID)

	f.svc.ResetShipments()
	_, samples = f.svc.Shipments()
	assert.True(t, samples)
}

func TestRoutes(t *testing.T) {
	f := newFixture(t)

	assert.Len(t, f.svc.Ports(""), 37)
	found := f.svc.Ports("rotter")
	require.Len(t, found, 1)
	assert.Equal(t, "Rotterdam", found[0].Name)

	_, err := f.svc.PlanRoute([]string{"Shanghai", "Rotterdam"}, "scenic")
	assert.ErrorIs(t, err, routeplan.ErrInvalidOptimization)

	_, err = f.svc.PlanRoute([]string{"Shanghai"}, "")
	assert.ErrorIs(t, err, routeplan.ErrTooFewPorts)

	plan, err := f.svc.OptimizeRoute("Shanghai", "Rotterdam", []string{"Dubai", "Singapore", "Hong Kong"}, "fastest")
	require.NoError(t, err)
	assert.Equal(t, []string{"Shanghai", "Hong Kong", "Singapore", "Dubai", "Rotterdam"}, plan.Ports)

	cmp, err := f.svc.CompareRoutes([]string{"Shanghai", "Rotterdam"}, []string{"Shanghai", "Singapore", "Rotterdam"})
	require.NoError(t, err)
	assert.NotEmpty(t, cmp.Comparison.FasterRoute)
}

type fakeAlerts struct {
	status map[string]string
}

func (f *fakeAlerts) ListAlerts(_ context.Context, status string, _ int) ([]contracts.AlertRecord, error) {
	out := make([]contracts.AlertRecord, 0)
	for id, s := range f.status {
		if status == "" || status == s {
			out = append(out, contracts.AlertRecord{ID: id, Status: s})
		}
	}
	return out, nil
}

func (f *fakeAlerts) UpdateAlertStatus(_ context.Context, id, status string) error {
	if _, ok := f.status[id]; !ok {
		return storage.ErrNotFound
	}
	f.status[id] = status
	return nil
}

func TestAlerts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	assert.False(t, f.svc.AlertsEnabled())
	_, err := f.svc.ListAlerts(ctx, "", 10)
	assert.ErrorIs(t, err, ErrAlertsUnavailable)
	assert.ErrorIs(t, f.svc.SetAlertStatus(ctx, "a", storage.AlertResolved), ErrAlertsUnavailable)

	alerts := &fakeAlerts{status: map[string]string{"a-1": storage.AlertOpen}}
	f.svc.alerts = alerts
	assert.True(t, f.svc.AlertsEnabled())

	_, err = f.svc.ListAlerts(ctx, "bogus", 10)
	assert.ErrorIs(t, err, ErrInvalidAlertStatus)

	require.NoError(t, f.svc.SetAlertStatus(ctx, "a-1", storage.AlertAcknowledged))
	assert.ErrorIs(t, f.svc.SetAlertStatus(ctx, "a-2", storage.AlertAcknowledged), storage.ErrNotFound)
	assert.ErrorIs(t, f.svc.SetAlertStatus(ctx, "a-1", "closed"), ErrInvalidAlertStatus)

	acked, err := f.svc.ListAlerts(ctx, storage.AlertAcknowledged, 10)
	require.NoError(t, err)
	require.Len(t, acked, 1)
	assert.Equal(t, "a-1", acked[0].ID)
}
