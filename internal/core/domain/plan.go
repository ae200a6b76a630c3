package domain

// MaxPlanPartitions bounds how many partitions one routing call selects.
const MaxPlanPartitions = 3

// QueryAttributes are the structured facets extracted from an incident
// description. Matching weight decreases from Object down to Location.
type QueryAttributes struct {
	// Object is the work object or work type involved (e.g. "crane").
	Object string `json:"object"`

	// Process is the work process underway (e.g. "lifting").
	Process string `json:"process"`

	// CausalFactor is the suspected cause (e.g. "wire rope failure").
	CausalFactor string `json:"causal_factor"`

	// Location is where the incident occurred.
	Location string `json:"location"`
}

// Empty reports whether no attribute was extracted.
func (a QueryAttributes) Empty() bool {
	return a.Object == "" && a.Process == "" && a.CausalFactor == "" && a.Location == ""
}

// Terms returns the non-empty attribute values in weight order.
func (a QueryAttributes) Terms() []string {
	var out []string
	for _, v := range []string{a.Object, a.Process, a.CausalFactor, a.Location} {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// PartitionPlan is the result of one routing call: an ordered list of 1-3
// partitions to query, plus an optional fallback partition that is only
// queried when the merged round returns too few documents.
// Plans are created per routing call and never persisted.
type PartitionPlan struct {
	// Partitions are the selected partition ids, best match first.
	Partitions []string `json:"partitions"`

	// Fallback indicates the selected partitions may under-return.
	Fallback bool `json:"fallback"`

	// FallbackPartition is queried only when the merged result count
	// falls below the configured threshold.
	FallbackPartition string `json:"fallback_partition,omitempty"`
}

// Contains reports whether the plan includes the partition id directly
// (the fallback partition does not count).
func (p PartitionPlan) Contains(id string) bool {
	for _, pid := range p.Partitions {
		if pid == id {
			return true
		}
	}
	return false
}
