package availability

import (
	"sort"
	"strings"

	"spacebook/internal/domain"
)

// Criteria is the state of the space list filter bar.
// A nil capacity bound is not applied.
type Criteria struct {
	Type        string `json:"type"`
	MinCapacity *int   `json:"min_capacity,omitempty"`
	MaxCapacity *int   `json:"max_capacity,omitempty"`
	Date        string `json:"date,omitempty"`
	StartTime   string `json:"start_time,omitempty"`
	EndTime     string `json:"end_time,omitempty"`
}

// NeedsAvailabilityQuery reports whether the list has to be re-fetched from
// the API with date/time constraints. Partial date/time input is ignored.
func (c Criteria) NeedsAvailabilityQuery() bool {
	return strings.TrimSpace(c.Date) != "" &&
		strings.TrimSpace(c.StartTime) != "" &&
		strings.TrimSpace(c.EndTime) != ""
}

// Filter applies the type and capacity constraints, keeping input order.
func Filter(spaces []domain.Space, c Criteria) []domain.Space {
	out := make([]domain.Space, 0, len(spaces))
	for _, s := range spaces {
		if c.Type != "" && s.Type != c.Type {
			continue
		}
		if c.MinCapacity != nil && s.Capacity < *c.MinCapacity {
			continue
		}
		if c.MaxCapacity != nil && s.Capacity > *c.MaxCapacity {
			continue
		}
		out = append(out, s)
	}
	return out
}

// ExtractUniqueTypes returns the distinct space types, sorted.
func ExtractUniqueTypes(spaces []domain.Space) []string {
	seen := make(map[string]struct{}, len(spaces))
	types := make([]string, 0)
	for _, s := range spaces {
		if _, ok := seen[s.Type]; ok {
			continue
		}
		seen[s.Type] = struct{}{}
		types = append(types, s.Type)
	}
	sort.Strings(types)
	return types
}
