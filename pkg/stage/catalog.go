package stage

import "github.com/jordanlanch/dealboard/pkg/domain"

// Stage identifies one discrete step of the sales funnel. The set is closed:
// ids outside the catalog are an error condition, never silently defaulted.
type Stage string

const (
	Lead        Stage = "LEAD"
	Contacted   Stage = "CONTACTED"
	Qualified   Stage = "QUALIFIED"
	Proposal    Stage = "PROPOSAL"
	Negotiation Stage = "NEGOTIATION"
	ClosedWon   Stage = "CLOSED_WON"
	ClosedLost  Stage = "CLOSED_LOST"
)

// Definition describes one stage of the catalog
type Definition struct {
	ID                 Stage  `json:"id"`
	Label              string `json:"label"`
	DefaultProbability int    `json:"default_probability"`
	Terminal           bool   `json:"terminal"`
	Ordinal            int    `json:"ordinal"`
}

// catalog is the process-wide stage list, ordered by board position.
// It is immutable after initialization; no component adds or removes stages.
var catalog = []Definition{
	{ID: Lead, Label: "Lead", DefaultProbability: 10, Terminal: false, Ordinal: 0},
	{ID: Contacted, Label: "Contacted", DefaultProbability: 20, Terminal: false, Ordinal: 1},
	{ID: Qualified, Label: "Qualified", DefaultProbability: 40, Terminal: false, Ordinal: 2},
	{ID: Proposal, Label: "Proposal", DefaultProbability: 60, Terminal: false, Ordinal: 3},
	{ID: Negotiation, Label: "Negotiation", DefaultProbability: 80, Terminal: false, Ordinal: 4},
	{ID: ClosedWon, Label: "Closed Won", DefaultProbability: 100, Terminal: true, Ordinal: 5},
	{ID: ClosedLost, Label: "Closed Lost", DefaultProbability: 0, Terminal: true, Ordinal: 6},
}

var byID = func() map[Stage]Definition {
	m := make(map[Stage]Definition, len(catalog))
	for _, def := range catalog {
		m[def.ID] = def
	}
	return m
}()

// All returns the catalog in board order. Callers must not modify the slice.
func All() []Definition {
	out := make([]Definition, len(catalog))
	copy(out, catalog)
	return out
}

// ByID resolves a stage definition, erroring on ids outside the catalog
func ByID(id Stage) (Definition, error) {
	def, ok := byID[id]
	if !ok {
		return Definition{}, domain.NewUnknownStageError(string(id))
	}
	return def, nil
}

// Valid reports whether the id belongs to the catalog
func Valid(id Stage) bool {
	_, ok := byID[id]
	return ok
}

// IsTerminal reports whether the stage ends the deal's active lifecycle.
// Unknown ids are not terminal; callers validate ids separately.
func IsTerminal(id Stage) bool {
	return byID[id].Terminal
}

// OrdinalOf returns the board position of a stage
func OrdinalOf(id Stage) (int, error) {
	def, err := ByID(id)
	if err != nil {
		return 0, err
	}
	return def.Ordinal, nil
}

// DefaultProbability returns the default close probability for a stage,
// applied at deal creation and optionally on backward movement.
func DefaultProbability(id Stage) (int, error) {
	def, err := ByID(id)
	if err != nil {
		return 0, err
	}
	return def.DefaultProbability, nil
}
