package boardgen

import "math/big"

// binomial computes C(n, k) as a big.Int, returning 0 for k<0, k>n, or n<0.
func binomial(n, k int) *big.Int {
	if k < 0 || n < 0 || k > n {
		return big.NewInt(0)
	}
	return new(big.Int).Binomial(int64(n), int64(k))
}

// binomialAtLeast reports whether C(n, k) >= target. It computes the exact
// value as a big.Int, so large binomials cannot overflow the comparison.
func binomialAtLeast(n, k, target int) bool {
	return binomial(n, k).Cmp(big.NewInt(int64(target))) >= 0
}

// computeFrequencies derives each item's target frequency f_i from the
// request's distribution policy, in item order. It does not validate the
// slot-balance/per-item-bounds gates; callers run checkFeasibility first.
func computeFrequencies(req Request) ([]int, error) {
	n := len(req.Items)
	s := req.BoardConfig.slots()
	b := req.NumBoards

	freq := make([]int, n)

	switch req.Distribution.Type {
	case DistributionUniform, "":
		total := b * s
		base := total / n
		remainder := total % n
		for i := range freq {
			freq[i] = base
			if i < remainder {
				freq[i]++
			}
		}

	case DistributionGrouped:
		for _, g := range req.Distribution.Groups {
			for i := g.StartIndex; i < g.EndIndex && i < n; i++ {
				if i < 0 {
					continue
				}
				freq[i] = g.Frequency
			}
		}

	case DistributionCustom:
		byID := make(map[string]int, n)
		for i, it := range req.Items {
			byID[it.ID] = i
		}
		for _, f := range req.Distribution.Frequencies {
			if i, ok := byID[f.ItemID]; ok {
				freq[i] = f.Frequency
			}
		}

	default:
		return nil, &InfeasibilityError{Suggestions: []string{"unknown distribution type " + string(req.Distribution.Type)}}
	}

	return freq, nil
}

// checkFeasibility runs the four feasibility gates of spec §4.7 in order,
// returning the first violation with actionable repair hints.
func checkFeasibility(req Request, freq []int) error {
	n := len(req.Items)
	s := req.BoardConfig.slots()
	b := req.NumBoards

	seen := make(map[string]struct{}, n)
	for _, it := range req.Items {
		if _, dup := seen[it.ID]; dup {
			return ErrDuplicateItemID
		}
		seen[it.ID] = struct{}{}
	}

	if n < s {
		return ErrTooFewItems
	}

	sum := 0
	for _, f := range freq {
		if f < 1 || f > b {
			return ErrBadFrequencies
		}
		sum += f
	}
	if sum != b*s {
		return ErrSlotImbalance
	}

	if !binomialAtLeast(n, s, b) {
		return newInfeasibilityError(n, s, b, minAddedItemsFor(n, s, b), nextSmallerSFor(n, s, b), capBFor(n, s))
	}

	return nil
}

// minAddedItemsFor finds the smallest delta such that C(n+delta, s) >= b.
func minAddedItemsFor(n, s, b int) int {
	for delta := 1; delta <= 10_000; delta++ {
		if binomialAtLeast(n+delta, s, b) {
			return delta
		}
	}
	return -1
}

// nextSmallerSFor finds the largest s' < s such that C(n, s') >= b.
func nextSmallerSFor(n, s, b int) int {
	for sPrime := s - 1; sPrime >= 1; sPrime-- {
		if binomialAtLeast(n, sPrime, b) {
			return sPrime
		}
	}
	return 1
}

// capBFor returns C(n, s), the largest board count achievable without
// adding items or shrinking the grid.
func capBFor(n, s int) int {
	c := binomial(n, s)
	if !c.IsInt64() {
		return int(^uint(0) >> 1) // already astronomically large; cap is not the binding constraint
	}
	return int(c.Int64())
}
