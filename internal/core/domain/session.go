package domain

import "time"

// MaxLoops bounds the refinement loop. Reaching it without a terminal
// decision force-terminates the loop with the merged set.
const MaxLoops = 3

// DefaultMergeCap bounds the working set after a requery union.
const DefaultMergeCap = 15

// Intent is what the analyst ultimately wants from the session.
type Intent string

const (
	// IntentSearchOnly retrieves guidance without composing a report.
	IntentSearchOnly Intent = "search_only"

	// IntentReport retrieves guidance and composes a findings document.
	IntentReport Intent = "report"
)

// Valid reports whether the intent is a known value.
func (i Intent) Valid() bool {
	return i == IntentSearchOnly || i == IntentReport
}

// Stage is the orchestrator's next processing stage for a session.
// The set is closed: heuristic decisions outside it are rejected and
// resolved through the deterministic rule table.
type Stage string

const (
	StageNeedRouting   Stage = "NEED_ROUTING"
	StageNeedRetrieval Stage = "NEED_RETRIEVAL"
	StageNeedFeedback  Stage = "NEED_FEEDBACK"
	StageNeedAugment   Stage = "NEED_AUGMENT"
	StageNeedCompose   Stage = "NEED_COMPOSE"
	StageDone          Stage = "DONE"
	StageSuspended     Stage = "SUSPENDED"
)

// Valid reports whether the stage is in the closed enum.
func (s Stage) Valid() bool {
	switch s {
	case StageNeedRouting, StageNeedRetrieval, StageNeedFeedback,
		StageNeedAugment, StageNeedCompose, StageDone, StageSuspended:
		return true
	}
	return false
}

// Terminal reports whether the stage ends the session. SUSPENDED is a
// wait state, not terminal: the session resumes from it.
func (s Stage) Terminal() bool {
	return s == StageDone
}

// FeedbackAction is the analyst's decision about the presented set.
type FeedbackAction string

const (
	// FeedbackAcceptAll keeps every presented document and ends the loop.
	FeedbackAcceptAll FeedbackAction = "accept_all"

	// FeedbackSelectPartial keeps only the documents at the payload
	// indices, preserving relative order, and ends the loop.
	FeedbackSelectPartial FeedbackAction = "select_partial"

	// FeedbackRequeryKeyword re-retrieves with extra keywords appended
	// to the query, partitions unchanged, and continues the loop.
	FeedbackRequeryKeyword FeedbackAction = "requery_keyword"

	// FeedbackRequeryPartition re-retrieves restricted to the payload
	// partitions and continues the loop.
	FeedbackRequeryPartition FeedbackAction = "requery_partition"

	// FeedbackEscalateWeb flags web augmentation and exits the loop.
	FeedbackEscalateWeb FeedbackAction = "escalate_web"

	// FeedbackCancel exits the loop and marks the session cancelled.
	FeedbackCancel FeedbackAction = "cancel"
)

// Valid reports whether the action is a known value.
func (a FeedbackAction) Valid() bool {
	switch a {
	case FeedbackAcceptAll, FeedbackSelectPartial, FeedbackRequeryKeyword,
		FeedbackRequeryPartition, FeedbackEscalateWeb, FeedbackCancel:
		return true
	}
	return false
}

// FeedbackDecision is one human decision obtained at a loop iteration.
// Payload fields apply only to their matching action.
type FeedbackDecision struct {
	Action FeedbackAction `json:"action"`

	// Keywords to append to the query (requery_keyword).
	Keywords []string `json:"keywords,omitempty"`

	// Partitions to restrict the next routing call to (requery_partition).
	Partitions []string `json:"partitions,omitempty"`

	// Indices are 1-based positions of documents to keep (select_partial).
	Indices []int `json:"indices,omitempty"`
}

// SessionState holds everything one analyst session accumulates. It is
// created at session start, mutated only by the orchestrator and loop
// controller under the per-session lock, and destroyed at session end
// or explicit cancel. The whole struct is JSON-serialisable so a
// suspended session can be restored exactly.
type SessionState struct {
	// ID uniquely identifies the session.
	ID string `json:"id"`

	// Intent is what the analyst asked for.
	Intent Intent `json:"intent"`

	// Query is the current retrieval query text. Requery decisions may
	// append keywords to it.
	Query string `json:"query"`

	// Attributes are the structured facets extracted from the query.
	Attributes QueryAttributes `json:"attributes"`

	// Stage is the orchestrator's current stage for this session.
	Stage Stage `json:"stage"`

	// Plan is the most recent routing result, if any.
	Plan *PartitionPlan `json:"plan,omitempty"`

	// LoopCount is the number of completed refinement iterations.
	LoopCount int `json:"loop_count"`

	// Documents is the working document set: ordered, unique by
	// identity key.
	Documents []Document `json:"documents"`

	// Retrieved is set once the first retrieval round has completed.
	Retrieved bool `json:"retrieved"`

	// FeedbackDone is set once the refinement loop reached a terminal
	// decision (or its budget).
	FeedbackDone bool `json:"feedback_done"`

	// WebDone is set once the web-augmentation stage has run.
	WebDone bool `json:"web_done"`

	// ReportText is the composed findings text, when the intent asks
	// for one.
	ReportText string `json:"report_text,omitempty"`

	// Completed is set when the session reached DONE.
	Completed bool `json:"completed"`

	// Cancelled is set when the analyst cancelled the session.
	Cancelled bool `json:"cancelled"`

	// Suspended is set while the session waits on a human decision.
	Suspended bool `json:"suspended"`

	// PendingFeedback carries the documents presented to the human at
	// the suspension point, so resumption can validate indices.
	PendingFeedback []Document `json:"pending_feedback,omitempty"`

	// WebEscalated flags that a web-augmentation stage was requested.
	WebEscalated bool `json:"web_escalated"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MergeDocuments unions new documents into the working set with
// identity-key dedup, preserving the existing order, then caps the
// combined size. Existing documents are never dropped by the union
// itself; only the cap can cut the tail.
func (s *SessionState) MergeDocuments(incoming []Document, limit int) {
	seen := make(map[string]bool, len(s.Documents)+len(incoming))
	for _, d := range s.Documents {
		seen[d.Key()] = true
	}

	merged := s.Documents
	for _, d := range incoming {
		key := d.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, d)
	}

	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	s.Documents = merged
}

// SelectIndices narrows the working set to the 1-based indices given,
// preserving original relative order. Out-of-range and duplicate
// indices are ignored. An empty selection leaves the set unchanged.
func (s *SessionState) SelectIndices(indices []int) {
	if len(indices) == 0 {
		return
	}

	keep := make(map[int]bool, len(indices))
	for _, i := range indices {
		if i >= 1 && i <= len(s.Documents) {
			keep[i] = true
		}
	}
	if len(keep) == 0 {
		return
	}

	selected := make([]Document, 0, len(keep))
	for i, d := range s.Documents {
		if keep[i+1] {
			selected = append(selected, d)
		}
	}
	s.Documents = selected
}
