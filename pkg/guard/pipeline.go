// Package guard wires the defense layers together: per-field sanitization,
// aggregate risk classification, semantic escalation, attack recording, and
// the final prompt and output checks.
package guard

import (
	"context"
	"errors"
	"strings"

	"github.com/draftsmith/bulwark/pkg/patterns"
	"github.com/draftsmith/bulwark/pkg/recorder"
	"github.com/draftsmith/bulwark/pkg/risk"
	"github.com/draftsmith/bulwark/pkg/sanitize"
	"github.com/draftsmith/bulwark/pkg/semantic"
	"github.com/draftsmith/bulwark/pkg/telemetry"
)

// ErrBlocked is the only error the pipeline surfaces to callers. The message
// is deliberately generic: naming the matched pattern would teach attackers
// the detection rules.
var ErrBlocked = errors.New("input contains suspicious patterns")

// AssistantContext is the field bundle checked before assembling an
// assistant conversation prompt.
type AssistantContext struct {
	BusinessContext string `json:"businessContext"`
	UserContext     string `json:"userContext"`
	TeamContext     string `json:"teamContext"`
	CustomPrompt    string `json:"customPrompt"`
	MetadataJSON    string `json:"metadataJson"`
}

// WriterInput is the field bundle checked before an embedded-writer request.
type WriterInput struct {
	SelectedText  string `json:"selectedText"`
	DocumentTitle string `json:"documentTitle"`
	CustomPrompt  string `json:"customPrompt"`
	MetadataJSON  string `json:"metadataJson"`
}

// CheckResult is the pipeline verdict for one request.
type CheckResult struct {
	Fields      map[string]sanitize.Result `json:"fields"`
	Encoded     map[string]string          `json:"encoded"`
	RiskLevel   risk.Level                 `json:"riskLevel"`
	ThreatCount int                        `json:"threatCount"`
	Blocked     bool                       `json:"blocked"`
	LLMVerified bool                       `json:"llmVerified"`
}

// Pipeline runs the full input defense. Scanner and rec may be nil; the
// pattern layers carry the request on their own.
type Pipeline struct {
	scanner semantic.Scanner
	rec     *recorder.Recorder
	tel     *telemetry.Client
}

// New builds a Pipeline. A nil scanner disables semantic escalation, a nil
// recorder disables forensics; both are normal configurations.
func New(scanner semantic.Scanner, rec *recorder.Recorder, tel *telemetry.Client) *Pipeline {
	return &Pipeline{scanner: scanner, rec: rec, tel: tel}
}

type field struct {
	name   string
	text   string
	maxLen int
}

// CheckAssistantContext sanitizes and classifies an assistant-context
// bundle. Returns ErrBlocked when the aggregate risk is critical; the
// CheckResult is returned either way so callers can log what happened.
func (p *Pipeline) CheckAssistantContext(ctx context.Context, in AssistantContext) (*CheckResult, error) {
	fields := []field{
		{"business-context", in.BusinessContext, sanitize.MaxBusinessContext},
		{"user-context", in.UserContext, sanitize.MaxUserContext},
		{"team-context", in.TeamContext, sanitize.MaxTeamContext},
		{"custom-prompt", in.CustomPrompt, sanitize.MaxCustomPrompt},
		{"metadata-json", in.MetadataJSON, sanitize.MaxMetadataJSON},
	}
	return p.check(ctx, "assistant-context", fields, in.CustomPrompt)
}

// CheckWriterInput sanitizes and classifies an embedded-writer bundle.
func (p *Pipeline) CheckWriterInput(ctx context.Context, in WriterInput) (*CheckResult, error) {
	fields := []field{
		{"selected-text", in.SelectedText, sanitize.MaxSelectedText},
		{"document-title", in.DocumentTitle, sanitize.MaxDocumentTitle},
		{"custom-prompt", in.CustomPrompt, sanitize.MaxCustomPrompt},
		{"metadata-json", in.MetadataJSON, sanitize.MaxMetadataJSON},
	}
	scanText := strings.TrimSpace(in.CustomPrompt + "\n" + in.SelectedText)
	return p.check(ctx, "writer-input", fields, scanText)
}

func (p *Pipeline) check(ctx context.Context, label string, fields []field, scanText string) (*CheckResult, error) {
	res := &CheckResult{
		Fields:  make(map[string]sanitize.Result, len(fields)),
		Encoded: make(map[string]string, len(fields)),
	}

	var (
		levels     []risk.Level
		counts     []int
		threats    []string
		categories []string
		hostile    []string
		seenCat    = map[patterns.Category]bool{}
	)

	for _, f := range fields {
		fr := sanitize.Sanitize(f.text, f.maxLen, f.name)
		res.Fields[f.name] = fr
		res.Encoded[f.name] = sanitize.EncodeAsData(f.name, fr.Sanitized)

		levels = append(levels, fr.RiskLevel)
		counts = append(counts, len(fr.Threats))
		for _, th := range fr.Threats {
			threats = append(threats, th.Message)
		}
		if len(fr.Categories) > 0 {
			hostile = append(hostile, f.text)
		}
		for _, c := range fr.Categories {
			if !seenCat[c] {
				seenCat[c] = true
				categories = append(categories, string(c))
			}
		}
	}

	res.RiskLevel, res.ThreatCount = risk.Aggregate(levels, counts)

	if res.RiskLevel >= risk.High && p.scanner != nil {
		verdict := p.scanner.Scan(ctx, semantic.Clip(scanText))
		if !verdict.Safe {
			res.RiskLevel = risk.Critical
			res.LLMVerified = true
			threats = append(threats, "semantic scanner: "+verdict.Reason)
			for _, c := range verdict.Categories {
				if !seenCat[patterns.Category(c)] {
					seenCat[patterns.Category(c)] = true
					categories = append(categories, c)
				}
			}
		}
	}

	if res.RiskLevel >= risk.High && p.rec != nil {
		snippet := strings.Join(hostile, "\n")
		if snippet == "" {
			snippet = scanText
		}
		p.rec.Record(recorder.NewDetectedAttack(
			snippet, threats, categories, res.RiskLevel, res.LLMVerified, label))
	}

	p.tel.Threat(label, res.RiskLevel, res.ThreatCount, categories)

	if res.RiskLevel >= risk.Critical {
		res.Blocked = true
		p.tel.Blocked(label, res.RiskLevel)
		return res, ErrBlocked
	}
	return res, nil
}
