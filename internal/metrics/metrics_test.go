package metrics_test

import (
	"testing"

	"github.com/ethx42/tabula-room-service/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestConnectionGaugeIncDec(t *testing.T) {
	before := testutil.ToFloat64(metrics.ActiveWebSocketConnections)

	metrics.IncConnection()
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ActiveWebSocketConnections))

	metrics.DecConnection()
	assert.Equal(t, before, testutil.ToFloat64(metrics.ActiveWebSocketConnections))
}

func TestWebsocketEventsCounterVecIncrements(t *testing.T) {
	metrics.WebsocketEvents.WithLabelValues("DRAW_CARD", "ok").Inc()
	v := testutil.ToFloat64(metrics.WebsocketEvents.WithLabelValues("DRAW_CARD", "ok"))
	assert.GreaterOrEqual(t, v, 1.0)
}

func TestRoomParticipantsGaugeVecTracksLabels(t *testing.T) {
	metrics.RoomParticipants.WithLabelValues("ABCD", "spectator").Set(3)
	v := testutil.ToFloat64(metrics.RoomParticipants.WithLabelValues("ABCD", "spectator"))
	assert.Equal(t, 3.0, v)
}
