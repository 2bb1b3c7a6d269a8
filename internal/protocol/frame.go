// Package protocol implements the textual, tagged-union wire format
// exchanged over the Room Runtime's WebSocket connections. Every frame is
// a JSON object carrying a mandatory "type" discriminator plus
// frame-specific fields; unknown fields are ignored on decode and missing
// mandatory fields fail decode with a BadFrameError.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/ethx42/tabula-room-service/internal/deck"
)

// Type is the wire-level frame discriminator.
type Type string

const (
	TypeStateUpdate        Type = "STATE_UPDATE"
	TypeDrawCard            Type = "DRAW_CARD"
	TypePauseGame           Type = "PAUSE_GAME"
	TypeResumeGame          Type = "RESUME_GAME"
	TypeResetGame           Type = "RESET_GAME"
	TypeFlipCard            Type = "FLIP_CARD"
	TypeToggleDetailed      Type = "TOGGLE_DETAILED"
	TypeSoundPreference     Type = "SOUND_PREFERENCE"
	TypeSoundPreferenceAck  Type = "SOUND_PREFERENCE_ACK"
	TypeReaction            Type = "REACTION"
	TypeReactionBurst       Type = "REACTION_BURST"
	TypeSpectatorCount      Type = "SPECTATOR_COUNT"
	TypeError               Type = "ERROR"
)

// SoundScope governs who a SOUND_PREFERENCE frame is broadcast to.
type SoundScope string

const (
	ScopeLocal    SoundScope = "local"
	ScopeHostOnly SoundScope = "host_only"
	ScopeBoth     SoundScope = "both"
)

// SoundSource identifies which role originated a sound preference change.
type SoundSource string

const (
	SourceHost       SoundSource = "host"
	SourceController SoundSource = "controller"
)

// Reaction is the closed emoji alphabet accepted on REACTION frames.
type Reaction string

const (
	ReactionClap    Reaction = "👏"
	ReactionParty   Reaction = "🎉"
	ReactionHeart   Reaction = "❤️"
	ReactionFire    Reaction = "🔥"
	ReactionLaugh   Reaction = "😂"
	ReactionSurprise Reaction = "😮"
)

var validReactions = map[Reaction]struct{}{
	ReactionClap: {}, ReactionParty: {}, ReactionHeart: {},
	ReactionFire: {}, ReactionLaugh: {}, ReactionSurprise: {},
}

// IsValidReaction reports whether r is a member of the closed reaction
// alphabet.
func IsValidReaction(r Reaction) bool {
	_, ok := validReactions[r]
	return ok
}

// BadFrameError is returned by Decode when the raw bytes are not valid
// JSON, carry no recognized "type", or are missing a mandatory field for
// their type.
type BadFrameError struct {
	Reason string
	Raw    []byte
}

func (e *BadFrameError) Error() string {
	return fmt.Sprintf("bad frame: %s", e.Reason)
}

// Frame is implemented by every concrete frame payload.
type Frame interface {
	FrameType() Type
}

// --- server -> client ---

type StateUpdateFrame struct {
	CurrentItem        *deck.Item `json:"currentItem,omitempty"`
	CurrentIndex       int        `json:"currentIndex"`
	TotalItems         int        `json:"totalItems"`
	Status             string     `json:"status"`
	HistoryCount       int        `json:"historyCount"`
	History            []deck.Item `json:"history"`
	IsFlipped          bool       `json:"isFlipped"`
	IsDetailedExpanded bool       `json:"isDetailedExpanded"`
}

func (StateUpdateFrame) FrameType() Type { return TypeStateUpdate }

type SoundPreferenceAckFrame struct {
	Enabled bool       `json:"enabled"`
	Scope   SoundScope `json:"scope"`
}

func (SoundPreferenceAckFrame) FrameType() Type { return TypeSoundPreferenceAck }

type ReactionBurstEntry struct {
	Emoji Reaction `json:"emoji"`
	Count int      `json:"count"`
}

type ReactionBurstFrame struct {
	Reactions []ReactionBurstEntry `json:"reactions"`
}

func (ReactionBurstFrame) FrameType() Type { return TypeReactionBurst }

type SpectatorCountFrame struct {
	Count int `json:"count"`
}

func (SpectatorCountFrame) FrameType() Type { return TypeSpectatorCount }

type ErrorFrame struct {
	Reason string `json:"reason"`
}

func (ErrorFrame) FrameType() Type { return TypeError }

// --- controller/spectator -> server (and bidirectional) ---

type DrawCardFrame struct{}

func (DrawCardFrame) FrameType() Type { return TypeDrawCard }

type PauseGameFrame struct{}

func (PauseGameFrame) FrameType() Type { return TypePauseGame }

type ResumeGameFrame struct{}

func (ResumeGameFrame) FrameType() Type { return TypeResumeGame }

type ResetGameFrame struct{}

func (ResetGameFrame) FrameType() Type { return TypeResetGame }

type FlipCardFrame struct {
	IsFlipped bool `json:"isFlipped"`
}

func (FlipCardFrame) FrameType() Type { return TypeFlipCard }

type ToggleDetailedFrame struct {
	IsExpanded bool `json:"isExpanded"`
}

func (ToggleDetailedFrame) FrameType() Type { return TypeToggleDetailed }

type SoundPreferenceFrame struct {
	Enabled bool        `json:"enabled"`
	Source  SoundSource `json:"source"`
	Scope   SoundScope  `json:"scope"`
}

func (SoundPreferenceFrame) FrameType() Type { return TypeSoundPreference }

type ReactionFrame struct {
	Emoji Reaction `json:"emoji"`
}

func (ReactionFrame) FrameType() Type { return TypeReaction }

// wireEnvelope is the superset of fields any inbound frame may carry; it is
// decoded once and then projected into the concrete Frame type named by
// Type.
type wireEnvelope struct {
	Type       Type        `json:"type"`
	IsFlipped  *bool       `json:"isFlipped"`
	IsExpanded *bool       `json:"isExpanded"`
	Enabled    *bool       `json:"enabled"`
	Source     SoundSource `json:"source"`
	Scope      SoundScope  `json:"scope"`
	Emoji      Reaction    `json:"emoji"`
}

// Decode validates and projects raw bytes into a concrete inbound Frame.
// It is the only entry point the Connection Loop uses to turn socket
// bytes into typed data crossing into the Room worker.
func Decode(raw []byte) (Frame, error) {
	var env wireEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &BadFrameError{Reason: "invalid json: " + err.Error(), Raw: raw}
	}
	if env.Type == "" {
		return nil, &BadFrameError{Reason: "missing type", Raw: raw}
	}

	switch env.Type {
	case TypeDrawCard:
		return DrawCardFrame{}, nil
	case TypePauseGame:
		return PauseGameFrame{}, nil
	case TypeResumeGame:
		return ResumeGameFrame{}, nil
	case TypeResetGame:
		return ResetGameFrame{}, nil
	case TypeFlipCard:
		if env.IsFlipped == nil {
			return nil, &BadFrameError{Reason: "FLIP_CARD missing isFlipped", Raw: raw}
		}
		return FlipCardFrame{IsFlipped: *env.IsFlipped}, nil
	case TypeToggleDetailed:
		if env.IsExpanded == nil {
			return nil, &BadFrameError{Reason: "TOGGLE_DETAILED missing isExpanded", Raw: raw}
		}
		return ToggleDetailedFrame{IsExpanded: *env.IsExpanded}, nil
	case TypeSoundPreference:
		if env.Enabled == nil || env.Source == "" || env.Scope == "" {
			return nil, &BadFrameError{Reason: "SOUND_PREFERENCE missing fields", Raw: raw}
		}
		return SoundPreferenceFrame{Enabled: *env.Enabled, Source: env.Source, Scope: env.Scope}, nil
	case TypeReaction:
		if env.Emoji == "" {
			return nil, &BadFrameError{Reason: "REACTION missing emoji", Raw: raw}
		}
		if !IsValidReaction(env.Emoji) {
			return nil, &BadFrameError{Reason: fmt.Sprintf("unknown reaction emoji %q", env.Emoji), Raw: raw}
		}
		return ReactionFrame{Emoji: env.Emoji}, nil
	default:
		return nil, &BadFrameError{Reason: fmt.Sprintf("unknown type %q", env.Type), Raw: raw}
	}
}

// Encode serializes any outbound Frame into a JSON object carrying its
// "type" discriminator alongside its own fields.
func Encode(f Frame) ([]byte, error) {
	fields, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", f.FrameType(), err)
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(fields, &merged); err != nil {
		return nil, fmt.Errorf("encode %s: %w", f.FrameType(), err)
	}
	if merged == nil {
		merged = map[string]json.RawMessage{}
	}

	typeJSON, err := json.Marshal(f.FrameType())
	if err != nil {
		return nil, err
	}
	merged["type"] = typeJSON

	return json.Marshal(merged)
}
