package room_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ethx42/tabula-room-service/internal/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientRunProcessesInboundFrameAndExitsOnClose(t *testing.T) {
	r := newTestRoom(t)
	host, hostConn := newTestClient("host-1", r)
	require.NoError(t, r.JoinHost(host))
	ctrl, ctrlConn := newTestClient("ctrl-1", r)
	require.NoError(t, r.JoinController(context.Background(), ctrl))
	go ctrl.Run(context.Background())
	t.Cleanup(func() { ctrlConn.Close() })

	done := make(chan struct{})
	go func() {
		host.Run(context.Background())
		close(done)
	}()

	hostConn.inbound <- []byte(`{"type":"DRAW_CARD"}`)

	// The Host's draw is fanned out to the Controller as a STATE_UPDATE for
	// the first drawn card (the join snapshot carries currentIndex -1).
	require.Eventually(t, func() bool {
		for _, w := range ctrlConn.written {
			var env map[string]any
			if json.Unmarshal(w, &env) == nil && env["type"] == "STATE_UPDATE" && env["currentIndex"] == float64(0) {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	hostConn.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not exit after connection close")
	}
}

func TestClientClosesOnBadFrame(t *testing.T) {
	r := newTestRoom(t)
	host, hostConn := newTestClient("host-1", r)
	require.NoError(t, r.JoinHost(host))

	done := make(chan struct{})
	go func() {
		host.Run(context.Background())
		close(done)
	}()

	hostConn.inbound <- []byte(`not json`)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not exit after bad frame")
	}

	var found map[string]any
	for _, w := range hostConn.written {
		var env map[string]any
		if json.Unmarshal(w, &env) == nil && env["type"] == "ERROR" {
			found = env
			break
		}
	}
	require.NotNil(t, found, "expected an ERROR frame among written messages")
	assert.Equal(t, "BadFrame", found["reason"])
}
