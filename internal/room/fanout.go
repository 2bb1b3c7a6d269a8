package room

import (
	"context"

	"github.com/ethx42/tabula-room-service/internal/logging"
	"github.com/ethx42/tabula-room-service/internal/metrics"
	"github.com/ethx42/tabula-room-service/internal/protocol"
	"go.uber.org/zap"
	"k8s.io/utils/set"
)

// audience role sets for the fan-out table in spec §4.3.
var (
	audienceControllerAndSpectators = set.New(RoleController, RoleSpectator)
	audienceHost                    = set.New(RoleHost)
	audienceController              = set.New(RoleController)
	audienceHostAndSpectators       = set.New(RoleHost, RoleSpectator)
)

// dispatch encodes frame and writes it to every present member of
// audience. Fan-out is best-effort: a write failure (slow-consumer close)
// to one target never affects the others, and frames sent to an absent
// audience member are silently dropped.
func (r *Room) dispatch(ctx context.Context, frame protocol.Frame, audience set.Set[Role]) {
	data, err := protocol.Encode(frame)
	if err != nil {
		logging.Error(ctx, "failed to encode frame for dispatch", zap.String("type", string(frame.FrameType())), zap.Error(err))
		return
	}

	if audience.Has(RoleHost) && r.membership.host != nil {
		r.sendTo(ctx, r.membership.host, data, frame.FrameType())
	}
	if audience.Has(RoleController) && r.membership.controller != nil {
		r.sendTo(ctx, r.membership.controller, data, frame.FrameType())
	}
	if audience.Has(RoleSpectator) {
		for _, s := range r.membership.spectators {
			r.sendTo(ctx, s, data, frame.FrameType())
		}
	}

	if r.bus != nil {
		go func() { _ = r.bus.Publish(context.Background(), string(r.ID), string(frame.FrameType()), frame) }()
	}
}

// sendTo writes data to a single client's outbound queue without
// blocking; on overflow the connection is closed with SlowConsumer.
func (r *Room) sendTo(ctx context.Context, c *Client, data []byte, frameType protocol.Type) {
	select {
	case c.send <- data:
		metrics.WebsocketEvents.WithLabelValues(string(frameType), "sent").Inc()
	default:
		metrics.DroppedFrames.WithLabelValues("slow_consumer").Inc()
		logging.Warn(ctx, "outbound queue full, closing slow consumer", zap.String("participant_id", c.ID))
		c.closeWithReason(ReasonSlowConsumer)
	}
}

// sendStateUpdateTo sends a full STATE_UPDATE snapshot to exactly one
// client, used on Controller/Spectator join (spec §4.5).
func (r *Room) sendStateUpdateTo(ctx context.Context, c *Client) {
	data, err := protocol.Encode(r.stateUpdateFrame())
	if err != nil {
		logging.Error(ctx, "failed to encode state update", zap.Error(err))
		return
	}
	r.sendTo(ctx, c, data, protocol.TypeStateUpdate)
}

// sendSoundPreferenceAckTo sends the room's current sound preference to
// exactly one client, used on Controller join (spec §4.5 step 3).
func (r *Room) sendSoundPreferenceAckTo(ctx context.Context, c *Client) {
	data, err := protocol.Encode(protocol.SoundPreferenceAckFrame{
		Enabled: r.state.HostSoundEnabled,
		Scope:   r.state.HostSoundScope,
	})
	if err != nil {
		logging.Error(ctx, "failed to encode sound preference ack", zap.Error(err))
		return
	}
	r.sendTo(ctx, c, data, protocol.TypeSoundPreferenceAck)
}

func (r *Room) stateUpdateFrame() protocol.StateUpdateFrame {
	item, ok := r.state.CurrentItem()
	f := protocol.StateUpdateFrame{
		CurrentIndex:       r.state.CurrentIndex,
		TotalItems:         len(r.state.Deck.Items),
		Status:             string(r.state.Status),
		HistoryCount:       r.state.HistoryCount(),
		History:            r.state.History,
		IsFlipped:          r.state.IsFlipped,
		IsDetailedExpanded: r.state.IsDetailedExpanded,
	}
	if ok {
		f.CurrentItem = &item
	}
	return f
}
