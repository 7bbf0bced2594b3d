// Package recorder buffers detected-attack records and flushes them to an
// external store in batches. Recording never blocks a request handler and
// persistence failures never surface; this telemetry is best effort.
package recorder

import (
	"time"

	"github.com/google/uuid"

	"github.com/draftsmith/bulwark/pkg/risk"
)

// MaxSnippetChars caps the stored input excerpt.
const MaxSnippetChars = 2000

// DetectedAttack is one forensic record. Created when a request crosses the
// high-risk threshold; owned by the Recorder until flushed.
type DetectedAttack struct {
	ID          uuid.UUID  `json:"id"`
	Snippet     string     `json:"snippet"`
	Threats     []string   `json:"threats"`
	Categories  []string   `json:"categories"`
	RiskLevel   risk.Level `json:"riskLevel"`
	LLMVerified bool       `json:"llmVerified"`
	Context     string     `json:"context"`
	Timestamp   time.Time  `json:"timestamp"`
}

// NewDetectedAttack builds a record with a fresh ID and timestamp, capping
// the snippet.
func NewDetectedAttack(snippet string, threats, categories []string, level risk.Level, llmVerified bool, contextLabel string) DetectedAttack {
	if runes := []rune(snippet); len(runes) > MaxSnippetChars {
		snippet = string(runes[:MaxSnippetChars])
	}
	return DetectedAttack{
		ID:          uuid.New(),
		Snippet:     snippet,
		Threats:     threats,
		Categories:  categories,
		RiskLevel:   level,
		LLMVerified: llmVerified,
		Context:     contextLabel,
		Timestamp:   time.Now().UTC(),
	}
}
