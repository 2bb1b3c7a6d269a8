package boardgen

import (
	"errors"
	"fmt"
)

// GeneratorError kinds, per spec §7: infeasibility (with repair hints),
// timeout (handled via Stats.BestEffort, not an error), or unrecoverable
// solver failure.
var (
	ErrTooFewItems     = errors.New("item count is below board size")
	ErrBadFrequencies  = errors.New("per-item frequency out of bounds")
	ErrSlotImbalance   = errors.New("sum of target frequencies does not equal numBoards*slots")
	ErrDuplicateItemID = errors.New("duplicate item id in request")
)

// InfeasibilityError reports that the requested combination of N, B, and
// S cannot produce B distinct boards, together with the three concrete
// repairs named in spec §4.7.
type InfeasibilityError struct {
	N, S, B     int
	Suggestions []string
}

func (e *InfeasibilityError) Error() string {
	return fmt.Sprintf("cannot draw %d distinct %d-item boards from %d items", e.B, e.S, e.N)
}

func newInfeasibilityError(n, s, b, minAddedItems, nextSmallerS, capB int) *InfeasibilityError {
	return &InfeasibilityError{
		N: n, S: s, B: b,
		Suggestions: []string{
			fmt.Sprintf("add at least %d more distinct items", minAddedItems),
			fmt.Sprintf("reduce the grid to %d slots per board", nextSmallerS),
			fmt.Sprintf("cap numBoards at %d", capB),
		},
	}
}
