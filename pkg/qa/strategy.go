// Package qa answers user questions over the knowledge graph. A closed set
// of retrieval strategies assembles context from the vector indexes and the
// graph itself; only the final generation step can fail a request, every
// retrieval sub-step degrades to an empty contribution.
package qa

import (
	"errors"
	"fmt"
)

// Strategy selects how context is assembled before generation. The set is
// closed: dispatch is a switch over these variants and nothing else.
type Strategy int

const (
	// StrategySimilarity answers from chunk vector search alone.
	StrategySimilarity Strategy = iota
	// StrategyStructured answers by generating and running a graph query.
	StrategyStructured
	// StrategyCommunityGrounded answers from community reports plus
	// community-filtered chunk search.
	StrategyCommunityGrounded
	// StrategySubgraph answers from the top community report, its subgraph,
	// its chunks and their mentioned entities.
	StrategySubgraph
	// StrategyCombined synthesizes similarity context with structured
	// intermediate results.
	StrategyCombined
)

// ErrUnknownStrategy is returned for strategies outside the closed set.
var ErrUnknownStrategy = errors.New("unknown retrieval strategy")

var strategyNames = map[Strategy]string{
	StrategySimilarity:        "similarity",
	StrategyStructured:        "structured",
	StrategyCommunityGrounded: "community",
	StrategySubgraph:          "subgraph",
	StrategyCombined:          "combined",
}

// String returns the strategy's wire name.
func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// Valid reports whether s is one of the closed set.
func (s Strategy) Valid() bool {
	_, ok := strategyNames[s]
	return ok
}

// ParseStrategy resolves a wire name back to its Strategy.
func ParseStrategy(name string) (Strategy, error) {
	for strategy, n := range strategyNames {
		if n == name {
			return strategy, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}
