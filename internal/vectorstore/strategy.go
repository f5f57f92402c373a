package vectorstore

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidStrategy indicates an unrecognized search strategy. It is
// surfaced before any embedding or store call is made.
var ErrInvalidStrategy = errors.New("invalid search strategy")

// Strategy selects the similarity search policy. The zero value is invalid
// so an unset strategy never silently defaults.
type Strategy int

const (
	// StrategyRange returns records within a distance threshold, capped.
	StrategyRange Strategy = iota + 1

	// StrategyNearestNeighbors returns the cap-many closest records
	// regardless of distance.
	StrategyNearestNeighbors
)

// Valid reports whether s is one of the known strategies.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyRange, StrategyNearestNeighbors:
		return true
	}
	return false
}

func (s Strategy) String() string {
	switch s {
	case StrategyRange:
		return "range"
	case StrategyNearestNeighbors:
		return "nearest"
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// ParseStrategy maps a caller-supplied strategy name to a Strategy.
// "range"/"vectorrange" and "nearest"/"knn"/"nearestneighbors" are accepted,
// case-insensitively. Anything else is ErrInvalidStrategy.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "range", "vectorrange":
		return StrategyRange, nil
	case "nearest", "knn", "nearestneighbors", "nearest-neighbors":
		return StrategyNearestNeighbors, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidStrategy, name)
}
