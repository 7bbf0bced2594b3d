package risk

import "github.com/draftsmith/bulwark/pkg/patterns"

// Finding is one threat observation produced by the sanitizer or validator.
// Category is empty for structural notes (truncation, control characters)
// that carry no attack signature.
type Finding struct {
	Category patterns.Category `json:"category,omitempty"`
	Message  string            `json:"message"`
}

// Classify reduces a field's findings to a single level.
//
// Rules, in order:
//   - no findings: Safe
//   - only uncategorized notes (truncation, stripped control chars): Low
//   - two or more distinct dangerous categories: Critical
//   - exactly one dangerous category: High
//   - any other categorized finding: Medium
//
// More than two categorized findings escalate the result one tier (Medium
// to High, High to Critical). Adding a finding can never lower the level.
func Classify(findings []Finding) Level {
	if len(findings) == 0 {
		return Safe
	}

	categorized := 0
	dangerous := map[patterns.Category]bool{}
	for _, f := range findings {
		if f.Category == "" {
			continue
		}
		categorized++
		if patterns.DangerousCategories[f.Category] {
			dangerous[f.Category] = true
		}
	}

	if categorized == 0 {
		return Low
	}

	var level Level
	switch {
	case len(dangerous) >= 2:
		level = Critical
	case len(dangerous) == 1:
		level = High
	default:
		level = Medium
	}

	if categorized > 2 && level < Critical {
		level++
	}
	return level
}

// Aggregate combines per-field levels into the request verdict: the maximum
// level by the total order, plus the summed finding count for reporting.
func Aggregate(levels []Level, findingCounts []int) (Level, int) {
	max := Safe
	total := 0
	for _, l := range levels {
		max = Max(max, l)
	}
	for _, n := range findingCounts {
		total += n
	}
	return max, total
}
