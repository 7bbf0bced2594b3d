package guard

import (
	"github.com/draftsmith/bulwark/pkg/patterns"
	"github.com/draftsmith/bulwark/pkg/risk"
)

// ScanOutput inspects a model reply for successful-jailbreak and
// prompt-leak phrasing. Any hit is critical and invalid. Advisory only: the
// caller decides whether to discard the reply, and no redaction happens
// here.
func ScanOutput(reply string) ValidationResult {
	matches := patterns.Get().MatchAll(reply, patterns.OutputCategories()...)
	if len(matches) == 0 {
		return ValidationResult{IsValid: true, RiskLevel: risk.Safe}
	}

	findings := make([]risk.Finding, 0, len(matches))
	for _, p := range matches {
		findings = append(findings, risk.Finding{Category: p.Category, Message: p.Description})
	}
	return ValidationResult{
		IsValid:   false,
		Threats:   findings,
		RiskLevel: risk.Critical,
	}
}
