package services

import (
	"context"
	"sort"
	"strings"

	"github.com/hardhat-labs/girder-cli/internal/core/domain"
	"github.com/hardhat-labs/girder-cli/internal/core/ports/driven"
	"github.com/hardhat-labs/girder-cli/internal/core/ports/driving"
	"github.com/hardhat-labs/girder-cli/internal/logger"
)

// Ensure RouterService implements the interface.
var _ driving.RouterService = (*RouterService)(nil)

// Attribute weights in importance order: object/work-type dominates,
// location and anything else counts least.
const (
	weightObject   = 4
	weightProcess  = 3
	weightCausal   = 2
	weightLocation = 1
)

// RouterService selects 1-3 partitions per query by matching extracted
// query attributes against the catalog descriptors.
type RouterService struct {
	catalog   *domain.Catalog
	reasoning driven.ReasoningService
}

// NewRouterService creates a router over the catalog. The reasoning
// service is optional (can be nil): attribute extraction then relies on
// the structured-line fallback parser.
func NewRouterService(catalog *domain.Catalog, reasoning driven.ReasoningService) *RouterService {
	return &RouterService{
		catalog:   catalog,
		reasoning: reasoning,
	}
}

// partitionScore pairs a partition with its accumulated match weight.
type partitionScore struct {
	id    string
	score int
	order int
}

// Route scores every catalog partition against the attributes and picks
// the best 1-3. When nothing matches, the plan is just the default
// partition. A fallback partition is attached when the match looks weak
// enough that the round may under-return.
func (s *RouterService) Route(
	ctx context.Context, query string, attrs domain.QueryAttributes,
) (domain.PartitionPlan, error) {
	logger.Section("Partition Routing")

	if attrs.Empty() {
		attrs = s.ExtractAttributes(ctx, query)
	}
	logger.Debug("Attributes: object=%q process=%q causal=%q location=%q",
		attrs.Object, attrs.Process, attrs.CausalFactor, attrs.Location)

	scores := s.scorePartitions(query, attrs)

	selected := make([]string, 0, domain.MaxPlanPartitions)
	best := 0
	for _, ps := range scores {
		if ps.score <= 0 || len(selected) >= domain.MaxPlanPartitions {
			break
		}
		if ps.score > best {
			best = ps.score
		}
		selected = append(selected, ps.id)
	}

	if len(selected) == 0 {
		logger.Info("No partition matched, routing to %q", domain.DefaultPartitionID)
		return domain.PartitionPlan{Partitions: []string{domain.DefaultPartitionID}}, nil
	}

	plan := domain.PartitionPlan{Partitions: selected}

	// A weak best match is judged likely to under-return. The fallback
	// partition is only queried when the merged round actually comes
	// back sparse.
	if best < weightObject && !plan.Contains(domain.DefaultPartitionID) {
		plan.Fallback = true
		plan.FallbackPartition = domain.DefaultPartitionID
	}

	logger.Info("Plan: partitions=%v fallback=%t", plan.Partitions, plan.Fallback)
	return plan, nil
}

// scorePartitions accumulates weighted attribute matches per partition,
// ordered by score descending with catalog order as the tie-break.
func (s *RouterService) scorePartitions(query string, attrs domain.QueryAttributes) []partitionScore {
	weighted := []struct {
		value  string
		weight int
	}{
		{attrs.Object, weightObject},
		{attrs.Process, weightProcess},
		{attrs.CausalFactor, weightCausal},
		{attrs.Location, weightLocation},
	}

	ids := s.catalog.IDs()
	scores := make([]partitionScore, 0, len(ids))

	for order, id := range ids {
		p, _ := s.catalog.Get(id)
		score := 0

		for _, w := range weighted {
			if w.value == "" {
				continue
			}
			if matchesPartition(p, w.value) {
				score += w.weight
			}
		}

		// Raw query terms count as weak evidence when no attribute
		// matched this partition.
		if score == 0 && attrs.Empty() && matchesPartition(p, query) {
			score = weightLocation
		}

		scores = append(scores, partitionScore{id: id, score: score, order: order})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return scores[i].order < scores[j].order
	})

	return scores
}

// matchesPartition reports whether the value overlaps the partition's
// descriptors: its id, domain text, keywords or example incident types.
func matchesPartition(p domain.Partition, value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return false
	}

	if strings.Contains(v, strings.ToLower(p.ID)) || strings.Contains(strings.ToLower(p.ID), v) {
		return true
	}
	if p.Domain != "" && strings.Contains(strings.ToLower(p.Domain), v) {
		return true
	}

	for _, kw := range p.Keywords {
		k := strings.ToLower(kw)
		if strings.Contains(v, k) || strings.Contains(k, v) {
			return true
		}
	}
	for _, ex := range p.ExampleIncidents {
		if strings.Contains(strings.ToLower(ex), v) {
			return true
		}
	}

	return false
}

// ExtractAttributes derives structured facets from the query. The
// reasoning service is tried first; its answer is sanity-checked before
// use. The fallback parses structured "field: value" lines the way
// incident records are usually pasted in.
func (s *RouterService) ExtractAttributes(ctx context.Context, query string) domain.QueryAttributes {
	if s.reasoning != nil {
		attrs, err := s.reasoning.ExtractAttributes(ctx, query)
		if err == nil && !attrs.Empty() {
			logger.Debug("Attributes extracted by %s", s.reasoning.ModelName())
			return attrs
		}
		if err != nil {
			logger.Warn("Attribute extraction failed, using line parser: %v", err)
		}
	}

	return parseAttributeLines(query)
}

// parseAttributeLines scans "field: value" lines for the known facets.
func parseAttributeLines(query string) domain.QueryAttributes {
	var attrs domain.QueryAttributes

	for _, line := range strings.Split(query, "\n") {
		field, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}

		switch strings.ToLower(strings.TrimSpace(field)) {
		case "object", "work type", "work-type", "equipment":
			attrs.Object = value
		case "process", "work process", "activity":
			attrs.Process = value
		case "cause", "causal factor", "causal-factor":
			attrs.CausalFactor = value
		case "location", "site", "place":
			attrs.Location = value
		}
	}

	return attrs
}

// RestrictPlan builds a plan limited to the requested partitions,
// substituting the default partition for unknown names. Used by the
// refinement loop for requery_partition decisions.
func RestrictPlan(catalog *domain.Catalog, requested []string) domain.PartitionPlan {
	var partitions []string
	seen := make(map[string]bool, len(requested))

	for _, id := range requested {
		normalised := catalog.Normalise(strings.TrimSpace(id))
		if normalised != id {
			logger.Warn("Unknown partition %q, substituting %q", id, normalised)
		}
		if seen[normalised] {
			continue
		}
		seen[normalised] = true
		partitions = append(partitions, normalised)
		if len(partitions) >= domain.MaxPlanPartitions {
			break
		}
	}

	if len(partitions) == 0 {
		partitions = []string{domain.DefaultPartitionID}
	}

	return domain.PartitionPlan{Partitions: partitions}
}
