package boardgen

import (
	"context"
	"errors"
	"math/rand/v2"
	"sort"
	"strconv"
	"time"

	"github.com/ethx42/tabula-room-service/internal/shuffle"
)

// DefaultTimeBudget is the soft 60s time budget of spec §4.7 for the
// local-search overlap-minimization pass.
const DefaultTimeBudget = 60 * time.Second

const solverName = "greedy-largest-remaining-frequency"

// Generate runs the full Board Generator pipeline: feasibility gates,
// frequency computation, greedy construction, swap-based local search,
// and grid layout. It never blocks past budget: on timeout it returns
// its best incumbent with Stats.BestEffort set.
func Generate(ctx context.Context, req Request, budget time.Duration) (Result, error) {
	start := time.Now()

	freq, err := computeFrequencies(req)
	if err != nil {
		return Result{Success: false, Errors: []string{err.Error()}}, err
	}
	if err := checkFeasibility(req, freq); err != nil {
		return Result{Success: false, Errors: failureMessages(err)}, err
	}

	seed := RandomSeed()
	if req.Seed != nil {
		seed = *req.Seed
	}

	s := req.BoardConfig.slots()
	assignments := greedyConstruct(req, freq, seed)

	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()
	bestEffort := localSearchMinimizeOverlap(ctx, assignments, s)

	boards := make([]Board, len(assignments))
	for bi, itemIdxs := range assignments {
		items := make([]Item, len(itemIdxs))
		for k, idx := range itemIdxs {
			items[k] = req.Items[idx]
		}
		boards[bi] = Board{
			BoardNumber: bi + 1,
			Items:       items,
			Grid:        layoutGrid(items, req.BoardConfig, req.GridOrder, seed, bi),
		}
	}
	assignIDs(boards)

	stats := computeStats(assignments)
	stats.SeedUsed = seed
	stats.SolverUsed = solverName
	stats.BestEffort = bestEffort
	stats.GenerationTimeMs = time.Since(start).Milliseconds()

	return Result{Success: true, Boards: boards, Stats: stats}, nil
}

// failureMessages renders err as the Result.Errors slice: the headline
// message first, followed by any repair suggestions an InfeasibilityError
// carries, so scenario-level clients see the concrete repairs instead of
// just the one-line summary.
func failureMessages(err error) []string {
	messages := []string{err.Error()}
	var infeasible *InfeasibilityError
	if errors.As(err, &infeasible) {
		messages = append(messages, infeasible.Suggestions...)
	}
	return messages
}

// RandomSeed draws a fresh seed, uniformly from [0, 2^31), for requests
// that didn't supply one.
func RandomSeed() int32 {
	return rand.Int32()
}

// greedyConstruct fills each of B boards with S items, taking on every
// board the S items with the largest remaining target frequency, with
// deterministic tie-breaking via the shuffle PRNG family seeded by
// (seed, board index). This satisfies the column-sum constraint
// (exactly S per board) by construction; row sums converge to f_i
// whenever the feasibility gates hold, since Σf_i = B*S guarantees
// exactly enough remaining supply across all boards.
func greedyConstruct(req Request, freq []int, seed int32) [][]int {
	n := len(req.Items)
	s := req.BoardConfig.slots()
	b := req.NumBoards

	remaining := make([]int, n)
	copy(remaining, freq)

	assignments := make([][]int, b)
	for board := 0; board < b; board++ {
		order := deterministicOrder(n, seed+int32(board))

		type candidate struct {
			idx       int
			remaining int
			order     int
		}
		candidates := make([]candidate, 0, n)
		for pos, idx := range order {
			if remaining[idx] > 0 {
				candidates = append(candidates, candidate{idx: idx, remaining: remaining[idx], order: pos})
			}
		}
		sort.Slice(candidates, func(i, j int) bool {
			if candidates[i].remaining != candidates[j].remaining {
				return candidates[i].remaining > candidates[j].remaining
			}
			return candidates[i].order < candidates[j].order
		})

		take := s
		if take > len(candidates) {
			take = len(candidates)
		}
		chosen := make([]int, 0, s)
		for i := 0; i < take; i++ {
			chosen = append(chosen, candidates[i].idx)
			remaining[candidates[i].idx]--
		}

		// Degenerate repair: if supply ran out (can only happen if the
		// feasibility gates were bypassed upstream), pad with items not yet
		// on this board, in this board's tie-break order, over-assigning
		// them past their target.
		if len(chosen) < s {
			used := make(map[int]struct{}, len(chosen))
			for _, idx := range chosen {
				used[idx] = struct{}{}
			}
			for _, idx := range order {
				if len(chosen) == s {
					break
				}
				if _, already := used[idx]; already {
					continue
				}
				chosen = append(chosen, idx)
				used[idx] = struct{}{}
			}
		}

		sort.Ints(chosen)
		assignments[board] = chosen
	}

	return assignments
}

// deterministicOrder returns a pseudo-random permutation of [0, n) using
// the shuffle PRNG family (keyed on item index, not item ID, since the
// construction pass needs a tie-break order independent of item identity).
func deterministicOrder(n int, seed int32) []int {
	indexIDs := make([]string, n)
	for i := range indexIDs {
		indexIDs[i] = strconv.Itoa(i)
	}
	shuffled := shuffle.Shuffle(indexIDs, seed)
	out := make([]int, n)
	for i, s := range shuffled {
		idx, _ := strconv.Atoi(s)
		out[i] = idx
	}
	return out
}
