// Package sanitize cleans one untrusted input field at a time: truncation,
// role-marker redaction, gated signature redaction, whitespace and control
// normalization. Pure functions; all shared state lives in the compiled
// pattern registry.
package sanitize

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/draftsmith/bulwark/pkg/patterns"
	"github.com/draftsmith/bulwark/pkg/risk"
)

// Per-field length ceilings, in characters.
const (
	MaxBusinessContext = 5000
	MaxUserContext     = 2000
	MaxTeamContext     = 3000
	MaxCustomPrompt    = 1000
	MaxSelectedText    = 10000
	MaxDocumentTitle   = 200
	MaxMetadataJSON    = 500
)

// Result is the outcome of sanitizing a single field. Immutable once
// returned.
type Result struct {
	Sanitized   string              `json:"sanitized"`
	WasModified bool                `json:"wasModified"`
	Threats     []risk.Finding      `json:"threats,omitempty"`
	RiskLevel   risk.Level          `json:"riskLevel"`
	Categories  []patterns.Category `json:"categories,omitempty"`
}

// roleMarkers are literal delimiters that LLM chat templates use to separate
// message roles. Their presence in user data means someone is trying to forge
// a message boundary, so each hit is redacted and reported on its own.
var roleMarkers = []struct {
	name  string
	regex *regexp.Regexp
}{
	{"role delimiter", regexp.MustCompile(`(?i)\b(system|assistant|human)\s*:`)},
	{"chat template token", regexp.MustCompile(`(?i)<\|im_start\|>|<\|im_end\|>|<\|endoftext\|>`)},
	{"instruction tag", regexp.MustCompile(`(?i)\[\s*/?\s*INST\s*\]`)},
	{"section marker", regexp.MustCompile(`(?i)###\s*(instruction|response|system)s?\b`)},
	{"sys tag", regexp.MustCompile(`(?i)<<\s*/?\s*SYS\s*>>`)},
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)

	// Format runes (zero-width space, joiners, BOM and friends) are stripped
	// before signature matching so they cannot split a trigger word.
	formatStripper = runes.Remove(runes.In(unicode.Cf))

	controlStripper = runes.Remove(runes.Predicate(func(r rune) bool {
		return unicode.IsControl(r) && r != '\t' && r != '\n'
	}))
)

// Sanitize cleans one field. Steps, in order: empty short-circuit, rune
// truncation, invisible-rune strip, role-marker redaction, gated signature
// redaction, whitespace collapse, control-char strip, classification.
// Truncation runs first so findings are only ever reported within the
// retained prefix. Sanitize(Sanitize(x)) changes nothing.
func Sanitize(raw string, maxLen int, field string) Result {
	if strings.TrimSpace(raw) == "" {
		return Result{Sanitized: "", RiskLevel: risk.Safe}
	}

	text := raw
	var res Result

	if n := utf8.RuneCountInString(text); maxLen > 0 && n > maxLen {
		text = string([]rune(text)[:maxLen])
		res.WasModified = true
		res.Threats = append(res.Threats, risk.Finding{
			Message: fmt.Sprintf("%s truncated from %d to %d characters", field, n, maxLen),
		})
	}

	if stripped, _, err := transform.String(formatStripper, text); err == nil && stripped != text {
		text = stripped
		res.WasModified = true
		res.Threats = append(res.Threats, risk.Finding{
			Message: "invisible formatting characters removed",
		})
	}

	for _, m := range roleMarkers {
		hits := m.regex.FindAllStringIndex(text, -1)
		if hits == nil {
			continue
		}
		text = m.regex.ReplaceAllString(text, "[REDACTED]")
		res.WasModified = true
		for range hits {
			res.Threats = append(res.Threats, risk.Finding{
				Category: patterns.CategorySystemInject,
				Message:  m.name + " redacted",
			})
		}
	}

	if patterns.MaybeInjection(text) {
		reg := patterns.Get()
		for _, p := range reg.GetMultipleCategories(patterns.InputCategories()...) {
			if !p.Regex.MatchString(text) {
				continue
			}
			text = p.Regex.ReplaceAllString(text, "[REDACTED:"+string(p.Category)+"]")
			res.WasModified = true
			res.Threats = append(res.Threats, risk.Finding{
				Category: p.Category,
				Message:  p.Description,
			})
		}
	}

	if collapsed := strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " ")); collapsed != text {
		text = collapsed
		res.WasModified = true
	}

	if stripped, _, err := transform.String(controlStripper, text); err == nil && stripped != text {
		text = stripped
		res.WasModified = true
		res.Threats = append(res.Threats, risk.Finding{
			Message: "control characters removed",
		})
	}

	// Redaction markers are longer than some of the text they replace, so a
	// near-limit input can grow past the ceiling. Clamp without a new finding.
	if maxLen > 0 && utf8.RuneCountInString(text) > maxLen {
		text = strings.TrimSpace(string([]rune(text)[:maxLen]))
		res.WasModified = true
	}

	res.Sanitized = text
	res.RiskLevel = risk.Classify(res.Threats)
	res.Categories = dedupeCategories(res.Threats)
	return res
}

func dedupeCategories(findings []risk.Finding) []patterns.Category {
	seen := map[patterns.Category]bool{}
	var cats []patterns.Category
	for _, f := range findings {
		if f.Category == "" || seen[f.Category] {
			continue
		}
		seen[f.Category] = true
		cats = append(cats, f.Category)
	}
	return cats
}
