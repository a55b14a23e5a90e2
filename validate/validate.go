// Package validate holds the pure input checks shared by the CLI commands.
package validate

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	ErrInvalidRange = errors.New("invalid date range")
	ErrOutOfBounds  = errors.New("value out of bounds")
	ErrUnknownType  = errors.New("unknown type")
)

// Known entity labels. Canonical casing is what the graph stores.
var entityTypes = []string{
	"Requirement", "Preference", "Procedure", "Project",
	"Component", "Pattern", "Insight", "Workflow", "Agent",
	"ValidationPoint", "LimitationPattern", "PromptTemplate",
	"DomainConcept",
}

// Known edge relation names. All upper-snake-case except ImplementsPattern.
var edgeTypes = []string{
	"BELONGS_TO_PROJECT", "DEPENDS_ON", "ImplementsPattern",
	"LEADS_TO_INSIGHT", "VALIDATES", "TRIGGERS_LIMITATION",
	"COORDINATES_WITH", "ANALYZES_COMPONENT", "EVOLVES_FROM",
	"APPLIES_TO", "FOLLOWS_WORKFLOW", "PRECEDES_IN_WORKFLOW",
	"DOCUMENTS", "REFERENCES",
}

// DateRange rejects ranges where both bounds are set and start is after end.
func DateRange(start, end *time.Time, rangeName string) error {
	if start != nil && end != nil && start.After(*end) {
		return fmt.Errorf(
			"%w: %s start date (%s) must be before end date (%s)",
			ErrInvalidRange, rangeName,
			start.Format(time.RFC3339), end.Format(time.RFC3339),
		)
	}
	return nil
}

// Threshold checks that value lies in [0.0, 1.0].
func Threshold(value float64, name string) (float64, error) {
	if value < 0.0 || value > 1.0 {
		return 0, fmt.Errorf("%w: %s must be between 0.0 and 1.0, got %v", ErrOutOfBounds, name, value)
	}
	return value, nil
}

// GroupIDs trims each entry. An empty input means "no filter" and returns nil.
// Order is preserved and duplicates are retained.
func GroupIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	trimmed := make([]string, 0, len(ids))
	for _, id := range ids {
		trimmed = append(trimmed, strings.TrimSpace(id))
	}
	return trimmed
}

// EntityTypes matches the given labels case-insensitively against the known
// entity vocabulary and returns them in canonical casing. nil means no filter.
func EntityTypes(types []string) ([]string, error) {
	return canonicalize(types, entityTypes, "entity")
}

// EdgeTypes matches the given relation names case-insensitively against the
// known edge vocabulary and returns them in canonical casing.
func EdgeTypes(types []string) ([]string, error) {
	return canonicalize(types, edgeTypes, "edge")
}

func canonicalize(types []string, vocabulary []string, kind string) ([]string, error) {
	if len(types) == 0 {
		return nil, nil
	}

	byLower := make(map[string]string, len(vocabulary))
	for _, v := range vocabulary {
		byLower[strings.ToLower(v)] = v
	}

	canonical := make([]string, 0, len(types))
	var invalid []string
	for _, t := range types {
		if match, ok := byLower[strings.ToLower(t)]; ok {
			canonical = append(canonical, match)
		} else {
			invalid = append(invalid, t)
		}
	}

	if len(invalid) > 0 {
		valid := make([]string, len(vocabulary))
		copy(valid, vocabulary)
		sort.Strings(valid)
		return nil, fmt.Errorf(
			"%w: invalid %s types: %s. Valid types: %s",
			ErrUnknownType, kind,
			strings.Join(invalid, ", "), strings.Join(valid, ", "),
		)
	}

	return canonical, nil
}
