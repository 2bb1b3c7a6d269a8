package room

import (
	"context"

	"github.com/ethx42/tabula-room-service/internal/logging"
	"github.com/ethx42/tabula-room-service/internal/metrics"
	"github.com/ethx42/tabula-room-service/internal/protocol"
	"go.uber.org/zap"
)

// Membership is the slot-based participant registry of spec §4.5: exactly
// one Host, at most one Controller, and any number of Spectators keyed by
// connection id.
type Membership struct {
	host       *Client
	controller *Client
	spectators map[string]*Client
}

func newMembership() Membership {
	return Membership{spectators: make(map[string]*Client)}
}

func (m *Membership) spectatorCount() int {
	return len(m.spectators)
}

// joinHost binds c as the Host. Rooms are created without a Host (POST
// /rooms); the Hub calls this for every Host connection, including a
// reconnect after the previous Host left. A call while the Host slot is
// still occupied is rejected.
func (r *Room) joinHost(c *Client) error {
	if r.membership.host != nil {
		return ErrAlreadyConnected
	}
	r.membership.host = c
	c.Role = RoleHost
	return nil
}

// joinController binds c as the Controller, rejecting when a Controller is
// already present or the room has no live Host. On success the new
// Controller receives a full STATE_UPDATE and a SOUND_PREFERENCE_ACK
// carrying the Host's current sound preference (spec §4.5 step 3).
func (r *Room) joinController(ctx context.Context, c *Client) error {
	if r.membership.host == nil {
		return ErrRoomNotFound
	}
	if r.membership.controller != nil {
		return ErrAlreadyConnected
	}
	r.membership.controller = c
	c.Role = RoleController
	r.sendStateUpdateTo(ctx, c)
	r.sendSoundPreferenceAckTo(ctx, c)
	metrics.RoomParticipants.WithLabelValues(string(r.ID), string(RoleController)).Set(1)
	return nil
}

// joinSpectator binds c into the spectator set, rejecting when the room
// has no live Host or the game has already finished. On success the new
// Spectator receives a state snapshot and the Host is notified of the
// updated spectator count.
func (r *Room) joinSpectator(ctx context.Context, c *Client) error {
	if r.membership.host == nil {
		return ErrRoomNotFound
	}
	if r.state.Status == StatusFinished {
		return ErrGameEnded
	}
	r.membership.spectators[c.ID] = c
	c.Role = RoleSpectator
	r.sendStateUpdateTo(ctx, c)
	r.dispatch(ctx, protocol.SpectatorCountFrame{Count: r.membership.spectatorCount()}, audienceHost)
	metrics.RoomParticipants.WithLabelValues(string(r.ID), string(RoleSpectator)).Set(float64(r.membership.spectatorCount()))
	return nil
}

// leave removes c from whichever slot it occupies. A departing Host only
// frees the Host slot: the game is left running so the Hub's cleanup
// grace window (spec §5/§9) has something to reconnect into; the room is
// only actually ended via EndGame, called once the Hub's grace timer
// elapses with no reconnection. A departing Controller frees the slot for
// a future Controller join. A departing Spectator updates the Host's
// spectator count.
func (r *Room) leave(ctx context.Context, c *Client) {
	switch c.Role {
	case RoleHost:
		if r.membership.host != c {
			return
		}
		r.membership.host = nil
		logging.Info(ctx, "host left, awaiting reconnect grace window", zap.String("room_id", string(r.ID)))
	case RoleController:
		if r.membership.controller != c {
			return
		}
		r.membership.controller = nil
		metrics.RoomParticipants.WithLabelValues(string(r.ID), string(RoleController)).Set(0)
	case RoleSpectator:
		if _, ok := r.membership.spectators[c.ID]; !ok {
			return
		}
		delete(r.membership.spectators, c.ID)
		r.dispatch(ctx, protocol.SpectatorCountFrame{Count: r.membership.spectatorCount()}, audienceHost)
		metrics.RoomParticipants.WithLabelValues(string(r.ID), string(RoleSpectator)).Set(float64(r.membership.spectatorCount()))
	}
}

// endGame forces the state machine to finished (regardless of its current
// status), broadcasts the final snapshot, and closes every remaining
// connection.
func (r *Room) endGame(ctx context.Context) {
	r.state.Status = StatusFinished
	r.dispatch(ctx, r.stateUpdateFrame(), audienceControllerAndSpectators)

	if r.membership.controller != nil {
		r.membership.controller.closeWithReason(ReasonGameEnded)
		r.membership.controller = nil
	}
	for id, s := range r.membership.spectators {
		s.closeWithReason(ReasonGameEnded)
		delete(r.membership.spectators, id)
	}
}
