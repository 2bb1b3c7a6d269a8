// Package boardgen implements the Board Generator: a deterministic,
// seedable heuristic that lays out B boards of R*C distinct slots each
// from a pool of N items, subject to frequency and overlap constraints.
package boardgen

// Item is a single selectable board entry.
type Item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DistributionType selects how per-item target frequencies are derived.
type DistributionType string

const (
	DistributionUniform DistributionType = "uniform"
	DistributionGrouped DistributionType = "grouped"
	DistributionCustom  DistributionType = "custom"
)

// FrequencyGroup assigns a uniform frequency to a contiguous slice of the
// request's item list, [StartIndex, EndIndex).
type FrequencyGroup struct {
	StartIndex int `json:"startIndex"`
	EndIndex   int `json:"endIndex"`
	Frequency  int `json:"frequency"`
}

// ItemFrequency pins a single item's exact target frequency.
type ItemFrequency struct {
	ItemID    string `json:"itemId"`
	Frequency int    `json:"frequency"`
}

// Distribution is the request's frequency policy.
type Distribution struct {
	Type        DistributionType `json:"type"`
	Groups      []FrequencyGroup `json:"groups,omitempty"`
	Frequencies []ItemFrequency  `json:"frequencies,omitempty"`
}

// BoardConfig is the R x C grid shape; S = Rows * Cols is the board size.
type BoardConfig struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

func (b BoardConfig) slots() int { return b.Rows * b.Cols }

// GridOrder controls how a board's selected items are laid out in its
// grid, per spec §4.7's "policy fixed per request" note.
type GridOrder string

const (
	GridOrderCanonical GridOrder = "canonical"
	GridOrderSeeded    GridOrder = "seeded"
)

// Request is one Board Generator invocation.
type Request struct {
	Items        []Item       `json:"items"`
	NumBoards    int          `json:"numBoards"`
	BoardConfig  BoardConfig  `json:"boardConfig"`
	Distribution Distribution `json:"distribution"`
	Seed         *int32       `json:"seed,omitempty"`
	GridOrder    GridOrder    `json:"gridOrder,omitempty"`
}

// Board is one generated board: its selected items in canonical (selection)
// order and their placement into the request's R x C grid.
type Board struct {
	ID          string   `json:"id"`
	BoardNumber int      `json:"boardNumber"`
	Items       []Item   `json:"items"`
	Grid        [][]Item `json:"grid"`
}

// Stats are the quality metrics returned alongside a Result, per spec §4.7.
type Stats struct {
	MaxOverlap        int     `json:"maxOverlap"`
	AvgOverlap        float64 `json:"avgOverlap"`
	JaccardMin        float64 `json:"jaccardMin"`
	JaccardAvg        float64 `json:"jaccardAvg"`
	JaccardMax        float64 `json:"jaccardMax"`
	FrequencyVariance float64 `json:"frequencyVariance"`
	SeedUsed          int32   `json:"seedUsed"`
	SolverUsed        string  `json:"solverUsed"`
	GenerationTimeMs  int64   `json:"generationTimeMs"`
	BestEffort        bool    `json:"bestEffort"`
}

// Result is the Board Generator's response.
type Result struct {
	Success bool     `json:"success"`
	Boards  []Board  `json:"boards,omitempty"`
	Stats   Stats    `json:"stats"`
	Errors  []string `json:"errors,omitempty"`
}
