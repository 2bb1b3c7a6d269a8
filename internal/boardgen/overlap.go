package boardgen

import (
	"context"
	"math"
	"sort"

	"github.com/ethx42/tabula-room-service/internal/shuffle"
	"github.com/google/uuid"
)

// localSearchMinimizeOverlap repeatedly finds the pair of boards with the
// largest item-set overlap and tries to reduce it by swapping one of their
// shared items with an item from a third board (trySwapToReduceOverlap).
// It stops when the worst pair overlaps in at most one item, when no such
// swap exists for the worst pair, or when the context deadline elapses.
// It mutates assignments in place and reports whether it was cut short by
// the deadline (bestEffort).
func localSearchMinimizeOverlap(ctx context.Context, assignments [][]int, slots int) bool {
	b := len(assignments)
	if b < 2 {
		return false
	}

	for {
		select {
		case <-ctx.Done():
			return true
		default:
		}

		worstP, worstQ, worstOverlap := -1, -1, -1
		for p := 0; p < b; p++ {
			for q := p + 1; q < b; q++ {
				ov := overlapCount(assignments[p], assignments[q])
				if ov > worstOverlap {
					worstP, worstQ, worstOverlap = p, q, ov
				}
			}
		}
		if worstOverlap <= 1 {
			return false // distinctness (Hamming distance >= 1) already holds; nothing left worth trading
		}

		if !trySwapToReduceOverlap(assignments, worstP, worstQ, slots) {
			return false // no improving swap exists; this is the best achievable incumbent
		}
	}
}

// trySwapToReduceOverlap looks for one item shared by boards p and q and
// one item exclusive to some other board r that, when swapped into q,
// reduces |p ∩ q| without changing any board's size. Returns false if no
// such swap exists.
func trySwapToReduceOverlap(assignments [][]int, p, q, slots int) bool {
	pSet := toSet(assignments[p])
	qSet := toSet(assignments[q])

	shared := make([]int, 0)
	for idx := range pSet {
		if _, ok := qSet[idx]; ok {
			shared = append(shared, idx)
		}
	}
	if len(shared) == 0 {
		return false
	}
	sort.Ints(shared) // map iteration order is random; keep the victim choice deterministic

	for r := range assignments {
		if r == p || r == q {
			continue
		}
		rSet := toSet(assignments[r])
		for _, candidate := range assignments[r] {
			if _, inP := pSet[candidate]; inP {
				continue
			}
			if _, inQ := qSet[candidate]; inQ {
				continue
			}
			// swap shared[0] out of q, candidate in, as long as doing so
			// doesn't just recreate the same overlap with r.
			victim := shared[0]
			if _, victimInR := rSet[victim]; victimInR {
				continue
			}
			assignments[q] = replace(assignments[q], victim, candidate)
			assignments[r] = replace(assignments[r], candidate, victim)
			return true
		}
	}
	return false
}

func toSet(xs []int) map[int]struct{} {
	s := make(map[int]struct{}, len(xs))
	for _, x := range xs {
		s[x] = struct{}{}
	}
	return s
}

func replace(xs []int, old, new int) []int {
	out := make([]int, len(xs))
	for i, x := range xs {
		if x == old {
			out[i] = new
		} else {
			out[i] = x
		}
	}
	return out
}

func overlapCount(a, b []int) int {
	set := toSet(a)
	count := 0
	for _, x := range b {
		if _, ok := set[x]; ok {
			count++
		}
	}
	return count
}

// computeStats derives the overlap/Jaccard/frequency-variance quality
// metrics of spec §4.7 from the final assignment.
func computeStats(assignments [][]int) Stats {
	b := len(assignments)
	if b < 2 {
		return Stats{}
	}

	var maxOverlap int
	var totalOverlap float64
	var jaccardMin, jaccardAvg, jaccardMax float64
	jaccardMin = 1
	pairs := 0

	for p := 0; p < b; p++ {
		for q := p + 1; q < b; q++ {
			ov := overlapCount(assignments[p], assignments[q])
			if ov > maxOverlap {
				maxOverlap = ov
			}
			totalOverlap += float64(ov)

			union := len(assignments[p]) + len(assignments[q]) - ov
			var jaccard float64
			if union > 0 {
				jaccard = float64(ov) / float64(union)
			}
			if jaccard < jaccardMin {
				jaccardMin = jaccard
			}
			if jaccard > jaccardMax {
				jaccardMax = jaccard
			}
			jaccardAvg += jaccard
			pairs++
		}
	}
	if pairs > 0 {
		jaccardAvg /= float64(pairs)
		totalOverlap /= float64(pairs)
	}

	freqCounts := make(map[int]int)
	for _, board := range assignments {
		for _, idx := range board {
			freqCounts[idx]++
		}
	}
	var mean, m2 float64
	i := 0
	for _, c := range freqCounts {
		i++
		delta := float64(c) - mean
		mean += delta / float64(i)
		m2 += delta * (float64(c) - mean)
	}
	variance := 0.0
	if i > 0 {
		variance = m2 / float64(i)
	}

	return Stats{
		MaxOverlap:        maxOverlap,
		AvgOverlap:        totalOverlap,
		JaccardMin:        jaccardMin,
		JaccardAvg:        jaccardAvg,
		JaccardMax:        jaccardMax,
		FrequencyVariance: math.Round(variance*1000) / 1000,
	}
}

// layoutGrid places items into the board's R x C grid in canonical
// (selection) order, or in an order shuffled per-board when the request
// asked for GridOrderSeeded.
func layoutGrid(items []Item, cfg BoardConfig, order GridOrder, seed int32, boardIndex int) [][]Item {
	ordered := items
	if order == GridOrderSeeded {
		ids := make([]string, len(items))
		for i, it := range items {
			ids[i] = it.ID
		}
		shuffledIDs := shuffle.Shuffle(ids, seed+int32(boardIndex)+1)
		byID := make(map[string]Item, len(items))
		for _, it := range items {
			byID[it.ID] = it
		}
		ordered = make([]Item, len(shuffledIDs))
		for i, id := range shuffledIDs {
			ordered[i] = byID[id]
		}
	}

	grid := make([][]Item, cfg.Rows)
	k := 0
	for r := 0; r < cfg.Rows; r++ {
		grid[r] = make([]Item, cfg.Cols)
		for c := 0; c < cfg.Cols; c++ {
			if k < len(ordered) {
				grid[r][c] = ordered[k]
				k++
			}
		}
	}
	return grid
}

// assignIDs stamps every board with a fresh, globally unique ID.
func assignIDs(boards []Board) {
	for i := range boards {
		boards[i].ID = uuid.New().String()
	}
}
