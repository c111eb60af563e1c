package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anuragthippani1/SentriX/internal/contracts"
)

// These tests need running databases; set POSTGRES_DSN or MONGODB_URI to run them.

func TestMigrationsAreOrdered(t *testing.T) {
	names, err := Migrations()
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init.sql", "002_alerts.sql"}, names)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN not set, skipping Postgres store tests")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := OpenPostgres(ctx, dsn)
	if err != nil {
		t.Skipf("Failed to connect to Postgres: %v", err)
	}
	defer store.Close(context.Background())

	testStoreContract(t, store)

	t.Run("alerts", func(t *testing.T) {
		repo := NewAlertRepository(store.Pool())
		country := "Testland-" + uuid.NewString()[:8]

		inCooldown, err := repo.HasOpenAlertInCooldown(ctx, country, time.Hour)
		require.NoError(t, err)
		assert.False(t, inCooldown)

		alert := contracts.AlertRecord{
			ID:        uuid.NewString(),
			ReportID:  "r-1",
			Country:   country,
			Title:     "High political risk",
			RiskLevel: 5,
			Severity:  "critical",
		}
		require.NoError(t, repo.InsertAlert(ctx, alert))

		inCooldown, err = repo.HasOpenAlertInCooldown(ctx, country, time.Hour)
		require.NoError(t, err)
		assert.True(t, inCooldown)

		open, err := repo.ListAlerts(ctx, AlertOpen, 500)
		require.NoError(t, err)
		ids := make([]string, 0, len(open))
		for _, a := range open {
			ids = append(ids, a.ID)
		}
		assert.Contains(t, ids, alert.ID)

		require.NoError(t, repo.UpdateAlertStatus(ctx, alert.ID, AlertResolved))
		assert.ErrorIs(t, repo.UpdateAlertStatus(ctx, uuid.NewString(), AlertResolved), ErrNotFound)
		assert.Error(t, repo.UpdateAlertStatus(ctx, alert.ID, "snoozed"))

		inCooldown, err = repo.HasOpenAlertInCooldown(ctx, country, time.Hour)
		require.NoError(t, err)
		assert.False(t, inCooldown)

		_, err = repo.Summary(ctx)
		require.NoError(t, err)
	})
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set, skipping MongoDB store tests")
	}

	store, err := OpenMongo(context.Background(), uri, "sentrix_test")
	if err != nil {
		t.Skipf("Failed to connect to MongoDB: %v", err)
	}
	defer store.Close(context.Background())

	testStoreContract(t, store)
}

func TestValidAlertStatus(t *testing.T) {
	for _, s := range []string{AlertOpen, AlertAcknowledged, AlertResolved} {
		assert.True(t, ValidAlertStatus(s), s)
	}
	assert.False(t, ValidAlertStatus("closed"))
	assert.False(t, ValidAlertStatus(""))
}
