package room

import (
	"context"
	"time"

	"github.com/ethx42/tabula-room-service/internal/bus"
	"github.com/ethx42/tabula-room-service/internal/deck"
	"github.com/ethx42/tabula-room-service/internal/logging"
	"github.com/ethx42/tabula-room-service/internal/metrics"
	"github.com/ethx42/tabula-room-service/internal/protocol"
	"go.uber.org/zap"
)

// inboxDepth bounds the backlog of pending work items a Room will accept
// before submit blocks the caller; rooms are low-traffic (a handful of
// participants) so this is generous headroom, not a throughput control.
const inboxDepth = 64

// Room is a single game's live runtime: its state machine, its
// membership, its reaction coalescer, and the single worker goroutine
// that serializes every mutation. Every exported behavior (Join*, Leave,
// HandleFrame) is implemented as a closure submitted to that worker, so
// callers never need their own locking.
type Room struct {
	ID         ID
	membership Membership
	state      State
	reactions  *reactionCoalescer
	bus        *bus.Service

	inbox chan func()
	done  chan struct{}
}

// NewRoom constructs a Room bound to d, starts its worker goroutine, and
// returns immediately; the worker runs until Close is called. reactionWindow
// of zero falls back to defaultCoalesceWindow.
func NewRoom(id ID, d deck.Deck, seed int32, busService *bus.Service, reactionWindow time.Duration) *Room {
	r := &Room{
		ID:         id,
		membership: newMembership(),
		state:      NewState(d, seed),
		bus:        busService,
		inbox:      make(chan func(), inboxDepth),
		done:       make(chan struct{}),
	}
	r.reactions = newReactionCoalescer(r.flushReactions, reactionWindow)
	go r.run()
	return r
}

func (r *Room) run() {
	for {
		select {
		case job := <-r.inbox:
			job()
		case <-r.done:
			return
		}
	}
}

// submit enqueues fn to run on the worker goroutine and blocks until it
// has completed, giving callers synchronous call semantics over a
// serialized room.
func (r *Room) submit(fn func()) {
	done := make(chan struct{})
	select {
	case r.inbox <- func() { fn(); close(done) }:
	case <-r.done:
		return
	}
	select {
	case <-done:
	case <-r.done:
	}
}

// submitErr is submit for closures that report an error back to the
// caller.
func (r *Room) submitErr(fn func() error) error {
	var outErr error
	r.submit(func() { outErr = fn() })
	return outErr
}

// Close stops the worker goroutine and cancels any armed reaction timer.
// It does not notify connected clients; callers that need the
// GameEnded close semantics should call EndGame first.
func (r *Room) Close() {
	r.reactions.stop()
	close(r.done)
}

// JoinHost binds c as this room's Host.
func (r *Room) JoinHost(c *Client) error {
	return r.submitErr(func() error { return r.joinHost(c) })
}

// JoinController binds c as this room's Controller.
func (r *Room) JoinController(ctx context.Context, c *Client) error {
	return r.submitErr(func() error { return r.joinController(ctx, c) })
}

// JoinSpectator binds c into this room's spectator set.
func (r *Room) JoinSpectator(ctx context.Context, c *Client) error {
	return r.submitErr(func() error { return r.joinSpectator(ctx, c) })
}

// Leave removes c from whichever slot it occupies.
func (r *Room) Leave(ctx context.Context, c *Client) {
	r.submit(func() { r.leave(ctx, c) })
}

// IsEmpty reports whether the room currently holds no Host (the Hub's
// signal to start its cleanup grace period).
func (r *Room) IsEmpty() bool {
	var empty bool
	r.submit(func() { empty = r.membership.host == nil })
	return empty
}

// EndGame forces the room to a finished state and disconnects every
// remaining Controller/Spectator. It is a no-op if the Host has
// reconnected since the caller last observed IsEmpty. Called by the Hub
// once a Host-disconnect grace window (spec §5/§9) elapses with no
// reconnection.
func (r *Room) EndGame(ctx context.Context) {
	r.submit(func() {
		if r.membership.host != nil {
			return
		}
		r.endGame(ctx)
	})
}

// HandleFrame routes one decoded inbound Frame from sender to its
// effect, per the audience table of spec §4.3. Frames not permitted for
// the sender's role are rejected with ErrUnauthorized; illegal state
// transitions surface the State machine's own error.
func (r *Room) HandleFrame(ctx context.Context, sender *Client, frame protocol.Frame) error {
	return r.submitErr(func() error { return r.handleFrame(ctx, sender, frame) })
}

func (r *Room) handleFrame(ctx context.Context, sender *Client, frame protocol.Frame) error {
	start := time.Now()
	defer func() {
		metrics.FrameProcessingDuration.WithLabelValues(string(frame.FrameType())).Observe(time.Since(start).Seconds())
	}()

	switch f := frame.(type) {
	case protocol.DrawCardFrame:
		if sender.Role != RoleController && sender.Role != RoleHost {
			return ErrUnauthorized
		}
		if err := r.state.Draw(); err != nil {
			return err
		}
		r.dispatch(ctx, r.stateUpdateFrame(), audienceControllerAndSpectators)
		return nil

	case protocol.PauseGameFrame:
		if sender.Role != RoleController && sender.Role != RoleHost {
			return ErrUnauthorized
		}
		if err := r.state.Pause(); err != nil {
			return err
		}
		r.dispatch(ctx, r.stateUpdateFrame(), audienceControllerAndSpectators)
		return nil

	case protocol.ResumeGameFrame:
		if sender.Role != RoleController && sender.Role != RoleHost {
			return ErrUnauthorized
		}
		if err := r.state.Resume(); err != nil {
			return err
		}
		r.dispatch(ctx, r.stateUpdateFrame(), audienceControllerAndSpectators)
		return nil

	case protocol.ResetGameFrame:
		if sender.Role != RoleController && sender.Role != RoleHost {
			return ErrUnauthorized
		}
		r.state.Reset(RandomSeed())
		r.dispatch(ctx, r.stateUpdateFrame(), audienceControllerAndSpectators)
		return nil

	case protocol.FlipCardFrame:
		if sender.Role != RoleController && sender.Role != RoleHost {
			return ErrUnauthorized
		}
		r.state.IsFlipped = f.IsFlipped
		r.dispatch(ctx, r.stateUpdateFrame(), audienceControllerAndSpectators)
		return nil

	case protocol.ToggleDetailedFrame:
		if sender.Role != RoleController && sender.Role != RoleHost {
			return ErrUnauthorized
		}
		r.state.IsDetailedExpanded = f.IsExpanded
		r.dispatch(ctx, r.stateUpdateFrame(), audienceControllerAndSpectators)
		return nil

	case protocol.SoundPreferenceFrame:
		return r.handleSoundPreference(ctx, sender, f)

	case protocol.ReactionFrame:
		if sender.Role == RoleHost {
			return ErrUnauthorized
		}
		r.reactions.add(f.Emoji)
		return nil

	default:
		logging.Warn(ctx, "unhandled frame type reached room worker", zap.String("type", string(frame.FrameType())))
		return nil
	}
}

// handleSoundPreference implements spec §4.3's SOUND_PREFERENCE routing:
// local scope is never broadcast, host_only and both reach the Host, and
// both additionally triggers a SOUND_PREFERENCE_ACK back to the
// Controller.
func (r *Room) handleSoundPreference(ctx context.Context, sender *Client, f protocol.SoundPreferenceFrame) error {
	if sender.Role != RoleController && sender.Role != RoleHost {
		return ErrUnauthorized
	}

	switch f.Scope {
	case protocol.ScopeLocal:
		return nil
	case protocol.ScopeHostOnly, protocol.ScopeBoth:
		r.state.HostSoundEnabled = f.Enabled
		r.state.HostSoundScope = f.Scope
		r.dispatch(ctx, protocol.SoundPreferenceAckFrame{Enabled: f.Enabled, Scope: f.Scope}, audienceHost)
		if f.Scope == protocol.ScopeBoth && r.membership.controller != nil {
			r.dispatch(ctx, protocol.SoundPreferenceAckFrame{Enabled: f.Enabled, Scope: f.Scope}, audienceController)
		}
		return nil
	default:
		return &protocol.BadFrameError{Reason: "unknown sound preference scope"}
	}
}
