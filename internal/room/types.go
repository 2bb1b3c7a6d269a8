package room

import (
	"math/rand/v2"
	"strings"
)

// Role identifies a participant's capability set within a Room.
type Role string

const (
	RoleHost       Role = "host"
	RoleController Role = "controller"
	RoleSpectator  Role = "spectator"
)

// ParseRole validates an incoming ?role= query value.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleHost, RoleController, RoleSpectator:
		return Role(s), true
	default:
		return "", false
	}
}

// Status is the game's lifecycle state (spec §4.4). "waiting" is the
// pre-Host state visible only through sync messages and is never the
// Status of a live Room: NewState starts every Room in ready.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusReady    Status = "ready"
	StatusPlaying  Status = "playing"
	StatusPaused   Status = "paused"
	StatusFinished Status = "finished"
)

// idAlphabet omits I, O, 0, 1 to reduce transcription error.
const idAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// ID is a 4-character room code drawn from idAlphabet.
type ID string

// NewID generates a random 4-character room code. Callers are responsible
// for retrying on registry collision.
func NewID() ID {
	var b strings.Builder
	b.Grow(4)
	for i := 0; i < 4; i++ {
		b.WriteByte(idAlphabet[rand.IntN(len(idAlphabet))])
	}
	return ID(b.String())
}
