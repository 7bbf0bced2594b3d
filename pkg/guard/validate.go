package guard

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/draftsmith/bulwark/pkg/patterns"
	"github.com/draftsmith/bulwark/pkg/risk"
)

// MaxPromptChars is the hard ceiling for an assembled prompt.
const MaxPromptChars = 50000

// maxInstructionMarkers is how many instruction-marker phrases a legitimate
// assembled prompt can carry before the repetition itself is suspicious.
const maxInstructionMarkers = 10

var instructionMarkers = []string{"You are", "Your role", "IMPORTANT:", "CRITICAL:"}

// ValidationResult is the verdict on an assembled prompt or a model reply.
type ValidationResult struct {
	IsValid   bool           `json:"isValid"`
	Threats   []risk.Finding `json:"threats,omitempty"`
	RiskLevel risk.Level     `json:"riskLevel"`
}

// ValidatePrompt is the last check before dispatch: it re-scans the entire
// assembled text, because template concatenation can itself assemble an
// injection out of individually clean fields. Oversized prompts and marker
// spam are threat signals, not failures; only critical risk invalidates.
func ValidatePrompt(prompt string) ValidationResult {
	var findings []risk.Finding

	if n := utf8.RuneCountInString(prompt); n > MaxPromptChars {
		findings = append(findings, risk.Finding{
			Message: fmt.Sprintf("prompt length %d exceeds ceiling %d", n, MaxPromptChars),
		})
	}

	if patterns.MaybeInjection(prompt) {
		for _, p := range patterns.Get().MatchAll(prompt, patterns.InputCategories()...) {
			findings = append(findings, risk.Finding{
				Category: p.Category,
				Message:  p.Description,
			})
		}
	}

	lower := strings.ToLower(prompt)
	markerCount := 0
	for _, m := range instructionMarkers {
		markerCount += strings.Count(lower, strings.ToLower(m))
	}
	if markerCount > maxInstructionMarkers {
		findings = append(findings, risk.Finding{
			Message: fmt.Sprintf("%d instruction markers, possible repeated injection", markerCount),
		})
	}

	level := risk.Classify(findings)
	return ValidationResult{
		IsValid:   level != risk.Critical,
		Threats:   findings,
		RiskLevel: level,
	}
}
