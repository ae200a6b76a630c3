package domain

// Default retrieval tuning values. Alpha weighs the dense signal against
// the lexical rank signal and is always an explicit parameter: adapters
// and services must never bury their own constant.
const (
	DefaultTopK = 8

	// DefaultAlpha follows the production tuning of the guidance corpus
	// (lexical-leaning).
	DefaultAlpha = 0.3

	// CandidateMultiplier widens both source searches before fusion:
	// each source returns up to CandidateMultiplier*k candidates.
	CandidateMultiplier = 4

	// RerankMultiplier bounds how many fused candidates reach the
	// reranker: the top RerankMultiplier*k by fusion score.
	RerankMultiplier = 2

	// DefaultFallbackThreshold is the merged-round result count below
	// which the plan's fallback partition is queried.
	DefaultFallbackThreshold = 3
)

// RetrieveOptions configures one hybrid retrieval call.
type RetrieveOptions struct {
	// TopK is the maximum number of documents returned (default 8).
	TopK int

	// Alpha is the dense weight in [0,1] for score fusion (default 0.3).
	// Zero means "unset"; use lexical-only explicitly via ForceLexical.
	Alpha float64

	// ForceLexical disables the dense step regardless of Alpha.
	ForceLexical bool
}

// Normalised returns the options with defaults applied and bounds
// enforced (k clamped to [1,10], alpha clamped to [0,1]).
func (o RetrieveOptions) Normalised() RetrieveOptions {
	if o.TopK <= 0 {
		o.TopK = DefaultTopK
	}
	if o.TopK > 10 {
		o.TopK = 10
	}
	if o.Alpha <= 0 {
		o.Alpha = DefaultAlpha
	}
	if o.Alpha > 1 {
		o.Alpha = 1
	}
	return o
}
