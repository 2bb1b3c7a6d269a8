package room_test

import (
	"context"
	"testing"
	"time"

	"github.com/ethx42/tabula-room-service/internal/protocol"
	"github.com/ethx42/tabula-room-service/internal/room"
	"github.com/stretchr/testify/require"
)

// Seed scenario 4 / spec §4.6: several reactions within one coalescing
// window collapse into a single REACTION_BURST; the burst doesn't arrive
// before the window closes, only after.
func TestReactionsCoalesceWithinWindow(t *testing.T) {
	r := newTestRoom(t)
	ctx := context.Background()

	host, hostConn := newTestClient("host-1", r)
	require.NoError(t, r.JoinHost(host))
	go host.Run(ctx)
	t.Cleanup(func() { hostConn.Close() })
	ctrl, _ := newTestClient("ctrl-1", r)
	require.NoError(t, r.JoinController(ctx, ctrl))

	before := len(hostConn.written)

	require.NoError(t, r.HandleFrame(ctx, ctrl, protocol.ReactionFrame{Emoji: protocol.ReactionFire}))
	require.NoError(t, r.HandleFrame(ctx, ctrl, protocol.ReactionFrame{Emoji: protocol.ReactionFire}))
	require.NoError(t, r.HandleFrame(ctx, ctrl, protocol.ReactionFrame{Emoji: protocol.ReactionClap}))

	// Immediately after submission, nothing has been flushed yet: the
	// window is still open.
	require.Equal(t, before, len(hostConn.written))

	require.Eventually(t, func() bool {
		return len(hostConn.written) > before
	}, 2*time.Second, 10*time.Millisecond)
}

// The emitted burst is also recorded into the room's diagnostic history
// ring buffer.
func TestReactionBurstRecordedInHistory(t *testing.T) {
	r := newTestRoom(t)
	ctx := context.Background()

	host, _ := newTestClient("host-2", r)
	require.NoError(t, r.JoinHost(host))
	ctrl, _ := newTestClient("ctrl-2", r)
	require.NoError(t, r.JoinController(ctx, ctrl))

	require.NoError(t, r.HandleFrame(ctx, ctrl, protocol.ReactionFrame{Emoji: protocol.ReactionClap}))

	require.Eventually(t, func() bool {
		return len(r.RecentReactionBursts()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	bursts := r.RecentReactionBursts()
	require.Len(t, bursts[0].Reactions, 1)
	require.Equal(t, protocol.ReactionClap, bursts[0].Reactions[0].Emoji)
}
