package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anuragthippani1/SentriX/internal/contracts"
)

var baseTime = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newReport(sessionID string, createdAt time.Time) contracts.RiskReport {
	return contracts.RiskReport{
		ReportID:         uuid.NewString(),
		SessionID:        sessionID,
		ReportType:       contracts.ReportPolitical,
		CreatedAt:        createdAt,
		Title:            "Political Risk Assessment Report",
		ExecutiveSummary: "summary",
		PoliticalRisks: []contracts.PoliticalRisk{
			{Country: "Brazil", RiskType: "Labor Disputes", LikelihoodScore: 3},
		},
		WorldRiskData: map[string]contracts.CountryRisk{
			"Brazil": {RiskLevel: 3, RiskFactors: []string{"Labor Disputes"}, LastUpdated: "2025-03-10T09:00:00Z"},
		},
		Recommendations: []string{"Maintain alternative supplier relationships in stable regions"},
	}
}

func newSession(createdAt time.Time) contracts.Session {
	desc := "quarterly review"
	return contracts.Session{
		SessionID:   uuid.NewString(),
		Name:        "Q1 review",
		Description: &desc,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
		IsActive:    true,
	}
}

func reportIDs(reports []contracts.RiskReport) []string {
	ids := make([]string, 0, len(reports))
	for _, r := range reports {
		ids = append(ids, r.ReportID)
	}
	return ids
}

func sessionIDs(sessions []contracts.Session) []string {
	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.SessionID)
	}
	return ids
}

// testStoreContract exercises the behaviour every Store backend shares.
func testStoreContract(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("reports", func(t *testing.T) {
		sessionID := uuid.NewString()
		older := newReport(sessionID, baseTime)
		newer := newReport(sessionID, baseTime.Add(time.Hour))
		newer.ReportType = contracts.ReportRoute
		newer.RouteAnalysis = "Shanghai to Rotterdam via Suez"
		other := newReport(uuid.NewString(), baseTime.Add(2*time.Hour))

		for _, r := range []contracts.RiskReport{older, newer, other} {
			require.NoError(t, store.SaveReport(ctx, r))
		}

		got, err := store.GetReport(ctx, newer.ReportID)
		require.NoError(t, err)
		if diff := cmp.Diff(newer, got, cmpopts.EquateApproxTime(time.Millisecond), cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("report mismatch (-want +got):\n%s", diff)
		}

		_, err = store.GetReport(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ErrNotFound)

		sessionReports, err := store.ListSessionReports(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, []string{newer.ReportID, older.ReportID}, reportIDs(sessionReports))

		count, err := store.CountSessionReports(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		all, err := store.ListReports(ctx)
		require.NoError(t, err)
		assert.Subset(t, reportIDs(all), []string{older.ReportID, newer.ReportID, other.ReportID})
	})

	t.Run("sessions", func(t *testing.T) {
		sess := newSession(baseTime)
		require.NoError(t, store.CreateSession(ctx, sess))

		got, err := store.GetSession(ctx, sess.SessionID)
		require.NoError(t, err)
		assert.Equal(t, sess.Name, got.Name)
		require.NotNil(t, got.Description)
		assert.Equal(t, "quarterly review", *got.Description)
		assert.True(t, got.IsActive)

		name := "Q1 review (closed)"
		inactive := false
		contracts.SessionUpdate{Name: &name, IsActive: &inactive}.Apply(&got, baseTime.Add(time.Minute))
		require.NoError(t, store.UpdateSession(ctx, got))

		updated, err := store.GetSession(ctx, sess.SessionID)
		require.NoError(t, err)
		assert.Equal(t, name, updated.Name)
		assert.False(t, updated.IsActive)
		assert.WithinDuration(t, baseTime.Add(time.Minute), updated.UpdatedAt, time.Millisecond)

		missing := newSession(baseTime)
		assert.ErrorIs(t, store.UpdateSession(ctx, missing), ErrNotFound)

		sessions, err := store.ListSessions(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessionIDs(sessions), sess.SessionID)

		require.NoError(t, store.DeleteSession(ctx, sess.SessionID))
		_, err = store.GetSession(ctx, sess.SessionID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, store.DeleteSession(ctx, sess.SessionID), ErrNotFound)
	})

	t.Run("messages", func(t *testing.T) {
		sessionID := uuid.NewString()
		require.NoError(t, store.AppendMessages(ctx, sessionID,
			contracts.ChatMessage{Role: "user", Content: "political risk in Brazil", Timestamp: baseTime},
			contracts.ChatMessage{Role: "assistant", Content: "report ready", Type: "report", ReportID: "r-1", Timestamp: baseTime.Add(time.Second)},
		))
		require.NoError(t, store.AppendMessages(ctx, sessionID,
			contracts.ChatMessage{Role: "user", Content: "thanks", Timestamp: baseTime.Add(2 * time.Second)},
		))
		require.NoError(t, store.AppendMessages(ctx, sessionID))

		msgs, err := store.ListMessages(ctx, sessionID)
		require.NoError(t, err)
		require.Len(t, msgs, 3)
		assert.Equal(t, "political risk in Brazil", msgs[0].Content)
		assert.Equal(t, "report", msgs[1].Type)
		assert.Equal(t, "r-1", msgs[1].ReportID)
		assert.Equal(t, "thanks", msgs[2].Content)

		empty, err := store.ListMessages(ctx, uuid.NewString())
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}
