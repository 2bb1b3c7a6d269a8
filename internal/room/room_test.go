package room_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ethx42/tabula-room-service/internal/protocol"
	"github.com/ethx42/tabula-room-service/internal/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoPartyRoom(t *testing.T) (*room.Room, *room.Client, *room.Client) {
	t.Helper()
	r := newTestRoom(t)
	ctx := context.Background()

	host, _ := newTestClient("host-1", r)
	require.NoError(t, r.JoinHost(host))
	ctrl, _ := newTestClient("ctrl-1", r)
	require.NoError(t, r.JoinController(ctx, ctrl))
	return r, host, ctrl
}

func TestControllerCanDrawCard(t *testing.T) {
	r, _, ctrl := twoPartyRoom(t)
	err := r.HandleFrame(context.Background(), ctrl, protocol.DrawCardFrame{})
	assert.NoError(t, err)
}

// Spectators may never issue game commands.
func TestSpectatorCannotDrawCard(t *testing.T) {
	r := newTestRoom(t)
	ctx := context.Background()
	host, _ := newTestClient("host-1", r)
	require.NoError(t, r.JoinHost(host))
	spec, _ := newTestClient("spec-1", r)
	require.NoError(t, r.JoinSpectator(ctx, spec))

	err := r.HandleFrame(ctx, spec, protocol.DrawCardFrame{})
	assert.ErrorIs(t, err, room.ErrUnauthorized)
}

func TestHostCannotSendReaction(t *testing.T) {
	r, host, _ := twoPartyRoom(t)
	err := r.HandleFrame(context.Background(), host, protocol.ReactionFrame{Emoji: protocol.ReactionFire})
	assert.ErrorIs(t, err, room.ErrUnauthorized)
}

func TestControllerCanSendReaction(t *testing.T) {
	r, _, ctrl := twoPartyRoom(t)
	err := r.HandleFrame(context.Background(), ctrl, protocol.ReactionFrame{Emoji: protocol.ReactionFire})
	assert.NoError(t, err)
}

func TestDrawRejectedPastFinished(t *testing.T) {
	r := room.NewRoom(room.ID("TEST3"), threeItemDeck(), 1, nil, 0)
	t.Cleanup(r.Close)
	ctx := context.Background()
	host, _ := newTestClient("host-1", r)
	require.NoError(t, r.JoinHost(host))

	for i := 0; i < 3; i++ {
		require.NoError(t, r.HandleFrame(ctx, host, protocol.DrawCardFrame{}))
	}
	err := r.HandleFrame(ctx, host, protocol.DrawCardFrame{})
	assert.ErrorIs(t, err, room.ErrIllegalTransition)
}

func TestSoundPreferenceLocalScopeNotBroadcast(t *testing.T) {
	r := newTestRoom(t)
	ctx := context.Background()
	host, hostConn := newTestClient("host-1", r)
	require.NoError(t, r.JoinHost(host))
	go host.Run(ctx)
	t.Cleanup(func() { hostConn.Close() })
	ctrl, _ := newTestClient("ctrl-1", r)
	require.NoError(t, r.JoinController(ctx, ctrl))

	err := r.HandleFrame(ctx, ctrl, protocol.SoundPreferenceFrame{
		Enabled: true,
		Source:  protocol.SourceController,
		Scope:   protocol.ScopeLocal,
	})
	assert.NoError(t, err)

	// A host_only preference sent afterwards does reach the Host; since
	// each connection is FIFO, a frame caused by the local one would be
	// written before it.
	require.NoError(t, r.HandleFrame(ctx, ctrl, protocol.SoundPreferenceFrame{
		Enabled: false,
		Source:  protocol.SourceController,
		Scope:   protocol.ScopeHostOnly,
	}))
	var acks []map[string]any
	require.Eventually(t, func() bool {
		acks = nil
		for _, msg := range hostConn.written {
			var env map[string]any
			if json.Unmarshal(msg, &env) == nil && env["type"] == "SOUND_PREFERENCE_ACK" {
				acks = append(acks, env)
			}
		}
		return len(acks) > 0
	}, 2*time.Second, 10*time.Millisecond)
	require.Len(t, acks, 1)
	assert.Equal(t, false, acks[0]["enabled"])
}

func TestSoundPreferenceBothScopeAcksBothSides(t *testing.T) {
	r := newTestRoom(t)
	ctx := context.Background()
	host, hostConn := newTestClient("host-1", r)
	require.NoError(t, r.JoinHost(host))
	go host.Run(ctx)
	t.Cleanup(func() { hostConn.Close() })
	ctrl, ctrlConn := newTestClient("ctrl-1", r)
	require.NoError(t, r.JoinController(ctx, ctrl))
	go ctrl.Run(ctx)
	t.Cleanup(func() { ctrlConn.Close() })

	err := r.HandleFrame(ctx, ctrl, protocol.SoundPreferenceFrame{
		Enabled: true,
		Source:  protocol.SourceController,
		Scope:   protocol.ScopeBoth,
	})
	require.NoError(t, err)

	// The Controller already holds one SOUND_PREFERENCE_ACK from joining;
	// the both-scoped preference adds a second one, and the Host gets one.
	require.Eventually(t, func() bool {
		hostAcks, ctrlAcks := 0, 0
		for _, msg := range hostConn.written {
			if containsType(msg, "SOUND_PREFERENCE_ACK") {
				hostAcks++
			}
		}
		for _, msg := range ctrlConn.written {
			if containsType(msg, "SOUND_PREFERENCE_ACK") {
				ctrlAcks++
			}
		}
		return hostAcks == 1 && ctrlAcks == 2
	}, 2*time.Second, 10*time.Millisecond)
}
