// Package prompt holds the prompt templates and answer parsers shared by
// the reasoning adapters. Backends differ only in how they reach their
// model; what gets asked and how answers are validated is identical.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hardhat-labs/girder-cli/internal/core/domain"
	"github.com/hardhat-labs/girder-cli/internal/core/ports/driven"
)

// StageDecision renders the next-stage prompt from a session summary.
// The model must answer with exactly one stage name.
func StageDecision(summary driven.StateSummary) string {
	return fmt.Sprintf(`You sequence stages for a safety-guidance retrieval session.
Current session facts:
- intent: %s
- partition plan prepared: %t
- documents in working set: %d
- analyst feedback pending: %t
- web augmentation requested: %t
- findings text composed: %t

Answer with exactly one of:
NEED_ROUTING NEED_RETRIEVAL NEED_FEEDBACK NEED_AUGMENT NEED_COMPOSE DONE SUSPENDED

Next stage:`,
		summary.Intent, summary.HasPlan, summary.DocumentCount,
		summary.FeedbackPending, summary.WebEscalated, summary.HasReport)
}

// ParseStage maps a model answer onto the closed stage enum.
func ParseStage(answer string) (domain.Stage, error) {
	token := firstToken(answer)
	stage := domain.Stage(strings.ToUpper(token))
	if !stage.Valid() {
		return "", fmt.Errorf("%w: stage %q", domain.ErrDecisionInvalid, token)
	}
	return stage, nil
}

// AttributeExtraction renders the facet-extraction prompt.
func AttributeExtraction(query string) string {
	return fmt.Sprintf(`Extract incident facets from this construction-incident description.
Answer with JSON only, using empty strings for absent facets:
{"object": "", "process": "", "causal_factor": "", "location": ""}

object = equipment or work object involved (e.g. crane, girder)
process = work process underway (e.g. lifting, welding)
causal_factor = suspected cause (e.g. wire rope failure)
location = where it happened

Description:
%s

JSON:`, query)
}

// ParseAttributes decodes the extraction answer. Fenced code blocks and
// surrounding prose are tolerated; anything without a JSON object fails.
func ParseAttributes(answer string) (domain.QueryAttributes, error) {
	payload := extractJSON(answer)
	if payload == "" {
		return domain.QueryAttributes{}, fmt.Errorf("no JSON object in answer")
	}

	var attrs domain.QueryAttributes
	if err := json.Unmarshal([]byte(payload), &attrs); err != nil {
		return domain.QueryAttributes{}, fmt.Errorf("decode attributes: %w", err)
	}

	attrs.Object = strings.TrimSpace(attrs.Object)
	attrs.Process = strings.TrimSpace(attrs.Process)
	attrs.CausalFactor = strings.TrimSpace(attrs.CausalFactor)
	attrs.Location = strings.TrimSpace(attrs.Location)
	return attrs, nil
}

// FeedbackIntent renders the free-text feedback classification prompt.
func FeedbackIntent(input string) string {
	return fmt.Sprintf(`Classify the analyst's reply about a presented document set.
Answer with exactly one of:
accept_all select_partial requery_keyword requery_partition escalate_web cancel

Reply:
%s

Action:`, input)
}

// ParseAction maps a model answer onto the feedback action enum.
func ParseAction(answer string) (domain.FeedbackAction, error) {
	token := firstToken(answer)
	action := domain.FeedbackAction(strings.ToLower(token))
	if !action.Valid() {
		return "", fmt.Errorf("%w: action %q", domain.ErrDecisionInvalid, token)
	}
	return action, nil
}

// RelevanceCommentary renders the one-line relevance note prompt.
func RelevanceCommentary(query, content string) string {
	return fmt.Sprintf(`In one short sentence, state how this guidance passage relates
to the incident. No preamble.

Incident: %s

Passage:
%s

Relevance:`, query, content)
}

// Composition renders the findings-draft prompt over the accepted set.
func Composition(query string, docs []domain.Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Draft the findings text for a construction-incident investigation.
Plain text only, no markup. Cite passages as [n]. Cover: what guidance
applies, and what it requires.

Incident: %s

Accepted guidance:
`, query)

	for i, d := range docs {
		fmt.Fprintf(&b, "\n[%d] %s (%s)\n%s\n", i+1, d.Source, d.Section, d.Content)
	}

	b.WriteString("\nFindings:")
	return b.String()
}

// firstToken returns the first whitespace-delimited token of the answer,
// stripped of punctuation the smaller models like to add.
func firstToken(answer string) string {
	answer = strings.TrimSpace(answer)
	if i := strings.IndexAny(answer, " \t\n"); i >= 0 {
		answer = answer[:i]
	}
	return strings.Trim(answer, "\"'`.,:")
}

// extractJSON pulls the first {...} object out of an answer that may be
// wrapped in prose or a fenced code block.
func extractJSON(answer string) string {
	start := strings.Index(answer, "{")
	end := strings.LastIndex(answer, "}")
	if start < 0 || end <= start {
		return ""
	}
	return answer[start : end+1]
}
