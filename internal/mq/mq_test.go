package mq

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anuragthippani1/SentriX/internal/contracts"
)

func TestNewMessageRoundTrip(t *testing.T) {
	event := contracts.ReportEvent{
		ReportID:   "r-1",
		SessionID:  "s-1",
		ReportType: contracts.ReportPolitical,
		CountryRisk: map[string]contracts.CountryRisk{
			"Brazil": {RiskLevel: 4, RiskFactors: []string{"Labor Disputes"}},
		},
	}

	msg, err := NewMessage(event.ReportID, event)
	require.NoError(t, err)
	assert.Equal(t, []byte("r-1"), msg.Key)
	assert.False(t, msg.Time.IsZero())

	decoded, err := ParseMessageJSON[contracts.ReportEvent](msg)
	require.NoError(t, err)
	assert.Equal(t, 4, decoded.CountryRisk["Brazil"].RiskLevel)
	assert.Equal(t, contracts.ReportPolitical, decoded.ReportType)
}

func TestNewMessageRejectsUnencodable(t *testing.T) {
	_, err := NewMessage("k", map[string]any{"ch": make(chan int)})
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.Equal(t, "none", p.Name())
	assert.NoError(t, p.Publish(context.Background(), "k", struct{}{}))
	assert.NoError(t, p.Close())
}

func TestNATSRoundTrip(t *testing.T) {
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("NATS_URL not set, skipping NATS tests")
	}
	conn, err := ConnectNATS(url, "sentrix-test")
	if err != nil {
		t.Skipf("Failed to connect to NATS: %v", err)
	}

	received := make(chan string, 1)
	sub, err := SubscribeNATS(conn, "sentrix.test.reports", "", func(key string, e contracts.ReportEvent) {
		received <- key + ":" + e.SessionID
	}, nil)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	pub := NewNATSPublisher(conn, "sentrix.test.reports")
	require.NoError(t, pub.Publish(context.Background(), "r-9", contracts.ReportEvent{ReportID: "r-9", SessionID: "s-9"}))

	select {
	case got := <-received:
		assert.Equal(t, "r-9:s-9", got)
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
	}
	require.NoError(t, pub.Close())
}

func TestNATSPublishHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pub := &NATSPublisher{subject: "x"}
	assert.ErrorIs(t, pub.Publish(ctx, "k", struct{}{}), context.Canceled)
}
