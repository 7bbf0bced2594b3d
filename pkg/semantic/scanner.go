// Package semantic provides the optional second-opinion layer: a remote
// judge (or embedding-similarity backend) consulted only for requests the
// pattern layers already classified at high risk. Every implementation fails
// open; the deterministic layers upstream are the real line of defense, this
// one exists to catch novel phrasing.
package semantic

import "context"

// MaxScanChars caps how much text is sent to the scanner backend.
const MaxScanChars = 2000

// Verdict is the scanner's answer. Safe with a Reason of "timeout" or
// "error" means the scanner could not run, not that the text was cleared.
type Verdict struct {
	Safe       bool     `json:"safe"`
	Reason     string   `json:"reason,omitempty"`
	Confidence float64  `json:"confidence,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

// Degraded reports whether the verdict came from a failure path rather than
// an actual classification. Degraded verdicts must not be cached.
func (v Verdict) Degraded() bool {
	return v.Reason == "timeout" || v.Reason == "error" || v.Reason == "busy"
}

// Scanner classifies text. Implementations never return an error: transport
// problems become a safe, degraded verdict.
type Scanner interface {
	Scan(ctx context.Context, text string) Verdict
}

// Clip truncates text to MaxScanChars runes.
func Clip(text string) string {
	runes := []rune(text)
	if len(runes) <= MaxScanChars {
		return text
	}
	return string(runes[:MaxScanChars])
}
