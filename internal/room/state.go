package room

import (
	"math/rand/v2"

	"github.com/ethx42/tabula-room-service/internal/deck"
	"github.com/ethx42/tabula-room-service/internal/protocol"
	"github.com/ethx42/tabula-room-service/internal/shuffle"
)

// State is the authoritative per-room game state (spec §3 RoomState).
type State struct {
	Deck         deck.Deck
	ShuffledIDs  []string
	Seed         int32
	CurrentIndex int
	History      []deck.Item
	Status       Status

	IsFlipped          bool
	IsDetailedExpanded bool

	// HostSoundEnabled/HostSoundScope track the Host's current sound
	// preference, last set via a SOUND_PREFERENCE frame, so a joining
	// Controller can be sent a SoundPreferenceAck immediately (spec §4.5
	// step 3) instead of waiting for the Host to resend it.
	HostSoundEnabled bool
	HostSoundScope   protocol.SoundScope
}

// NewState binds a Deck to a fresh, unplayed State using the given seed.
func NewState(d deck.Deck, seed int32) State {
	return State{
		Deck:           d,
		ShuffledIDs:    shuffle.Shuffle(d.IDs(), seed),
		Seed:           seed,
		CurrentIndex:   -1,
		Status:         StatusReady,
		HostSoundScope: protocol.ScopeBoth,
	}
}

// RandomSeed draws a seed uniformly from [0, 2^31), per spec §4.1.
func RandomSeed() int32 {
	return rand.Int32()
}

// CurrentItem returns deck[shuffledIds[currentIndex]] if currentIndex is
// in range, and false otherwise (e.g. before the first draw).
func (s *State) CurrentItem() (deck.Item, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.ShuffledIDs) {
		return deck.Item{}, false
	}
	return s.Deck.ByID(s.ShuffledIDs[s.CurrentIndex])
}

// Draw advances to the next item, per the transition table in spec §4.4.
// It is rejected (with no state change) when the game is paused or
// finished, or when the bound deck is empty.
func (s *State) Draw() error {
	switch s.Status {
	case StatusPaused, StatusFinished:
		return ErrIllegalTransition
	}

	if len(s.Deck.Items) == 0 {
		return ErrEmptyDeck
	}

	if prev, ok := s.CurrentItem(); ok {
		s.History = append(s.History, prev)
	}
	s.CurrentIndex++
	s.IsFlipped = false
	s.IsDetailedExpanded = false

	if s.CurrentIndex >= len(s.Deck.Items)-1 {
		s.Status = StatusFinished
	} else {
		s.Status = StatusPlaying
	}
	return nil
}

// Pause transitions playing -> paused. Any other status rejects.
func (s *State) Pause() error {
	if s.Status != StatusPlaying {
		return ErrIllegalTransition
	}
	s.Status = StatusPaused
	return nil
}

// Resume transitions paused -> playing. Any other status rejects.
func (s *State) Resume() error {
	if s.Status != StatusPaused {
		return ErrIllegalTransition
	}
	s.Status = StatusPlaying
	return nil
}

// Reset draws a new seed, reshuffles, and returns the state to
// (ready, currentIndex=-1, history=∅, isFlipped=false,
// isDetailedExpanded=false). Reset is accepted from every status.
func (s *State) Reset(newSeed int32) {
	s.Seed = newSeed
	s.ShuffledIDs = shuffle.Shuffle(s.Deck.IDs(), newSeed)
	s.CurrentIndex = -1
	s.History = nil
	s.Status = StatusReady
	s.IsFlipped = false
	s.IsDetailedExpanded = false
}

// HistoryCount is the |history| invariant: max(currentIndex, 0).
func (s *State) HistoryCount() int {
	if s.CurrentIndex < 0 {
		return 0
	}
	return s.CurrentIndex
}
