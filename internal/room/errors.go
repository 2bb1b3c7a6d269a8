package room

import "errors"

// Sentinel errors corresponding to the error kinds of spec §7. The Hub's
// reasonFor (hub.go) maps the join errors among them to the close reason
// sent to a rejected connection.
var (
	// ErrEmptyDeck: StateTransitionError — Draw from ready with an empty
	// deck.
	ErrEmptyDeck = errors.New("empty deck")

	// ErrIllegalTransition: StateTransitionError — a command illegal in
	// the current status (e.g. Draw while paused).
	ErrIllegalTransition = errors.New("illegal state transition")

	// ErrRoomNotFound: LifecycleError — the room has no live Host, or the
	// room does not exist.
	ErrRoomNotFound = errors.New("room not found")

	// ErrAlreadyConnected: CapacityError — the Controller slot (or Host
	// slot) is already occupied.
	ErrAlreadyConnected = errors.New("already connected")

	// ErrGameEnded: LifecycleError — a Spectator tried to join a
	// finished room.
	ErrGameEnded = errors.New("game ended")

	// ErrUnauthorized: AuthorizationError — a frame type is not
	// permitted from the sender's role.
	ErrUnauthorized = errors.New("frame not permitted for role")
)

// CloseReason is the out-of-band reason sent on an ERROR frame
// immediately before a connection is closed (spec §6).
type CloseReason string

const (
	ReasonRoomNotFound     CloseReason = "RoomNotFound"
	ReasonAlreadyConnected CloseReason = "AlreadyConnected"
	ReasonGameEnded        CloseReason = "GameEnded"
	ReasonBadFrame         CloseReason = "BadFrame"
	ReasonSlowConsumer     CloseReason = "SlowConsumer"
	ReasonHeartbeatLost    CloseReason = "HeartbeatLost"
	ReasonInternalError    CloseReason = "InternalError"
)
