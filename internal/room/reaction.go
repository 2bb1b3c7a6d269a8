package room

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ethx42/tabula-room-service/internal/metrics"
	"github.com/ethx42/tabula-room-service/internal/protocol"
)

// defaultCoalesceWindow is the tumbling window length of spec §4.6 used
// when a Room is constructed with a zero window: reactions arriving
// within the same window are aggregated into a single REACTION_BURST
// frame, bounding emitted bursts to at most 1 per window (P8: <=10
// bursts/s at a 100ms window). Deployments may override it via
// config.Config.ReactionWindow.
const defaultCoalesceWindow = 100 * time.Millisecond

// reactionHistoryLimit bounds the diagnostic ring buffer of recently
// emitted bursts; it is never replayed to new joiners (spec §6 treats
// reconnection as a fresh join).
const reactionHistoryLimit = 20

// reactionCoalescer aggregates REACTION frames into periodic
// REACTION_BURST frames. It is owned by a single Room and must only be
// driven from that Room's worker goroutine, except for add, which is
// safe to call from any goroutine (it only ever touches its own mutex).
type reactionCoalescer struct {
	mu      sync.Mutex
	counts  map[protocol.Reaction]int
	timer   *time.Timer
	window  time.Duration
	flushFn func()
	history []protocol.ReactionBurstFrame
}

func newReactionCoalescer(flushFn func(), window time.Duration) *reactionCoalescer {
	if window <= 0 {
		window = defaultCoalesceWindow
	}
	return &reactionCoalescer{
		counts:  make(map[protocol.Reaction]int),
		window:  window,
		flushFn: flushFn,
	}
}

// add records one occurrence of emoji, arming the window timer on the
// first reaction since the last flush.
func (rc *reactionCoalescer) add(emoji protocol.Reaction) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	first := len(rc.counts) == 0
	rc.counts[emoji]++
	if first {
		rc.timer = time.AfterFunc(rc.window, rc.flushFn)
	}
}

// drain returns the accumulated counts as a sorted burst payload and
// clears internal state. Returns nil if nothing accumulated.
func (rc *reactionCoalescer) drain() []protocol.ReactionBurstEntry {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if len(rc.counts) == 0 {
		return nil
	}
	entries := make([]protocol.ReactionBurstEntry, 0, len(rc.counts))
	for emoji, n := range rc.counts {
		entries = append(entries, protocol.ReactionBurstEntry{Emoji: emoji, Count: n})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Emoji < entries[j].Emoji })
	rc.counts = make(map[protocol.Reaction]int)
	return entries
}

// recordBurst appends entries to the diagnostic history ring buffer,
// keeping only the newest reactionHistoryLimit entries.
func (rc *reactionCoalescer) recordBurst(entries []protocol.ReactionBurstEntry) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.history = append(rc.history, protocol.ReactionBurstFrame{Reactions: entries})
	if overflow := len(rc.history) - reactionHistoryLimit; overflow > 0 {
		rc.history = rc.history[overflow:]
	}
}

// recentBursts returns a copy of the diagnostic history ring buffer,
// for test/diagnostic use only.
func (rc *reactionCoalescer) recentBursts() []protocol.ReactionBurstFrame {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	out := make([]protocol.ReactionBurstFrame, len(rc.history))
	copy(out, rc.history)
	return out
}

// stop cancels any armed window timer, used on room destruction.
func (rc *reactionCoalescer) stop() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.timer != nil {
		rc.timer.Stop()
	}
}

// flushReactions is the coalescer's window-close callback: it is invoked
// from the timer's own goroutine, so it must hop back onto the Room's
// worker via submit before touching any shared Room state.
func (r *Room) flushReactions() {
	r.submit(func() {
		entries := r.reactions.drain()
		if entries == nil {
			return
		}
		metrics.ReactionBurstsEmitted.WithLabelValues(string(r.ID)).Inc()
		r.reactions.recordBurst(entries)
		r.dispatch(context.Background(), protocol.ReactionBurstFrame{Reactions: entries}, audienceHostAndSpectators)
	})
}

// RecentReactionBursts returns up to the last reactionHistoryLimit
// ReactionBurst frames emitted by this room, for test/diagnostic use
// only — it is never sent to joining clients.
func (r *Room) RecentReactionBursts() []protocol.ReactionBurstFrame {
	return r.reactions.recentBursts()
}
