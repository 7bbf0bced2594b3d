// Package patterns provides the centralized attack-signature bank for the
// injection defense pipeline. All regex patterns are compiled once at package
// init and shared across all sanitizers and scanners.
//
// Design principles:
// - COMPILE ONCE: All patterns compiled at init, not per-request
// - DRY: Single source of truth for all injection signatures
// - CATEGORIZED: Patterns organized by attack category for targeted scans
// - EXTENSIBLE: New signatures register in one place without touching callers
package patterns

import (
	"regexp"
	"sync"
)

// Category represents an attack-signature category.
type Category string

const (
	// Input-side categories (sanitizer + prompt validator)
	CategoryInstructionOverride Category = "instruction_override"
	CategoryRolePlay            Category = "role_play"
	CategorySystemInject        Category = "system_inject"
	CategoryPromptTermination   Category = "prompt_termination"
	CategoryPrivilegeEscalation Category = "privilege_escalation"
	CategoryInstructionReversal Category = "instruction_reversal"
	CategoryConstraintRemoval   Category = "constraint_removal"
	CategoryEncodingAttack      Category = "encoding_attack"
	CategoryMultiTurn           Category = "multi_turn"

	// Output-side categories (response scanner)
	CategoryJailbreakSuccess Category = "jailbreak_success"
	CategoryPromptLeak       Category = "prompt_leak"
)

// InputCategories returns the categories scanned on untrusted input fields
// and on assembled prompts.
func InputCategories() []Category {
	return []Category{
		CategoryInstructionOverride,
		CategoryRolePlay,
		CategorySystemInject,
		CategoryPromptTermination,
		CategoryPrivilegeEscalation,
		CategoryInstructionReversal,
		CategoryConstraintRemoval,
		CategoryEncodingAttack,
		CategoryMultiTurn,
	}
}

// OutputCategories returns the categories scanned on model replies.
func OutputCategories() []Category {
	return []Category{
		CategoryJailbreakSuccess,
		CategoryPromptLeak,
	}
}

// DangerousCategories are the categories whose presence escalates a field
// straight to high/critical risk. A hit here means the input is actively
// trying to take over the instruction channel, not just phrasing something
// suspiciously.
var DangerousCategories = map[Category]bool{
	CategoryInstructionOverride: true,
	CategorySystemInject:        true,
	CategoryPrivilegeEscalation: true,
}

// Pattern holds a compiled regex with metadata.
type Pattern struct {
	Name        string         // Human-readable name for logging
	Regex       *regexp.Regexp // Compiled regex (never nil after init)
	Category    Category       // Attack category
	Severity    int            // Risk score contribution (0-100)
	Description string         // What this pattern detects
	Example     string         // Canonical text the pattern fires on; must pass the quick-check gate
}

// Registry holds all compiled patterns, organized by category.
type Registry struct {
	mu         sync.RWMutex
	byCategory map[Category][]*Pattern
	all        []*Pattern
}

// global singleton - initialized once at package load
var (
	globalRegistry *Registry
	initOnce       sync.Once
)

// Get returns the global pattern registry (singleton).
// Thread-safe and guaranteed to be initialized.
func Get() *Registry {
	initOnce.Do(func() {
		globalRegistry = newRegistry()
	})
	return globalRegistry
}

func newRegistry() *Registry {
	r := &Registry{
		byCategory: make(map[Category][]*Pattern),
		all:        make([]*Pattern, 0, 64),
	}

	r.registerInstructionOverridePatterns()
	r.registerRolePlayPatterns()
	r.registerSystemInjectPatterns()
	r.registerPromptTerminationPatterns()
	r.registerPrivilegeEscalationPatterns()
	r.registerInstructionReversalPatterns()
	r.registerConstraintRemovalPatterns()
	r.registerEncodingAttackPatterns()
	r.registerMultiTurnPatterns()
	r.registerJailbreakSuccessPatterns()
	r.registerPromptLeakPatterns()

	return r
}

// register adds a pattern to the registry (internal use only).
func (r *Registry) register(name string, pattern string, category Category, severity int, description string, example string) {
	compiled := regexp.MustCompile(pattern)
	p := &Pattern{
		Name:        name,
		Regex:       compiled,
		Category:    category,
		Severity:    severity,
		Description: description,
		Example:     example,
	}

	r.byCategory[category] = append(r.byCategory[category], p)
	r.all = append(r.all, p)
}

// GetByCategory returns all patterns for a specific category.
// Returns empty slice if category not found (never nil).
func (r *Registry) GetByCategory(cat Category) []*Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if patterns, ok := r.byCategory[cat]; ok {
		return patterns
	}
	return []*Pattern{}
}

// GetMultipleCategories returns patterns from multiple categories.
func (r *Registry) GetMultipleCategories(cats ...Category) []*Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Pattern
	for _, cat := range cats {
		if patterns, ok := r.byCategory[cat]; ok {
			result = append(result, patterns...)
		}
	}
	return result
}

// MatchAny checks if text matches any pattern in the given categories.
// Returns the first matching pattern or nil. Optimized for early exit.
func (r *Registry) MatchAny(text string, cats ...Category) *Pattern {
	patterns := r.GetMultipleCategories(cats...)
	for _, p := range patterns {
		if p.Regex.MatchString(text) {
			return p
		}
	}
	return nil
}

// MatchAll returns all patterns that match the text in given categories.
// Use when you need to know ALL matches (for redaction and classification).
func (r *Registry) MatchAll(text string, cats ...Category) []*Pattern {
	patterns := r.GetMultipleCategories(cats...)
	var matches []*Pattern
	for _, p := range patterns {
		if p.Regex.MatchString(text) {
			matches = append(matches, p)
		}
	}
	return matches
}

// All returns every registered pattern.
func (r *Registry) All() []*Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.all
}

// TotalPatterns returns the total count of registered patterns.
func (r *Registry) TotalPatterns() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.all)
}

// CategoryCount returns the number of patterns in a category.
func (r *Registry) CategoryCount(cat Category) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byCategory[cat])
}
