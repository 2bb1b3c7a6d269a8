package boardgen

import "testing"

func TestBinomialAtLeast(t *testing.T) {
	if !binomialAtLeast(12, 9, 2) {
		t.Fatalf("C(12,9)=220 should be >= 2")
	}
	if binomialAtLeast(9, 9, 3) {
		t.Fatalf("C(9,9)=1 should be < 3")
	}
}

func TestComputeFrequenciesUniform(t *testing.T) {
	req := Request{
		Items:        itemsOfLen(12),
		NumBoards:    2,
		BoardConfig:  BoardConfig{Rows: 3, Cols: 3},
		Distribution: Distribution{Type: DistributionUniform},
	}
	freq, err := computeFrequencies(req)
	if err != nil {
		t.Fatal(err)
	}
	sum := 0
	for _, f := range freq {
		sum += f
	}
	if sum != 18 {
		t.Fatalf("expected sum 18, got %d", sum)
	}
}

func TestCheckFeasibilityRejectsDuplicateItemID(t *testing.T) {
	req := Request{
		Items:        []Item{{ID: "A"}, {ID: "A"}},
		NumBoards:    1,
		BoardConfig:  BoardConfig{Rows: 1, Cols: 1},
		Distribution: Distribution{Type: DistributionUniform},
	}
	freq, _ := computeFrequencies(req)
	if err := checkFeasibility(req, freq); err != ErrDuplicateItemID {
		t.Fatalf("expected ErrDuplicateItemID, got %v", err)
	}
}

func TestCheckFeasibilityRejectsTooFewItems(t *testing.T) {
	req := Request{
		Items:        itemsOfLen(3),
		NumBoards:    1,
		BoardConfig:  BoardConfig{Rows: 3, Cols: 3},
		Distribution: Distribution{Type: DistributionUniform},
	}
	freq, _ := computeFrequencies(req)
	if err := checkFeasibility(req, freq); err != ErrTooFewItems {
		t.Fatalf("expected ErrTooFewItems, got %v", err)
	}
}

func itemsOfLen(n int) []Item {
	items := make([]Item, n)
	for i := range items {
		items[i] = Item{ID: string(rune('a' + i))}
	}
	return items
}
