package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hardhat-labs/girder-cli/internal/core/domain"
)

func TestRouterService_Route_CraneIncident(t *testing.T) {
	router := NewRouterService(testCatalog(), nil)
	ctx := context.Background()

	plan, err := router.Route(ctx, "", domain.QueryAttributes{
		Object:       "crane",
		Process:      "girder erection",
		CausalFactor: "wire rope failure",
	})

	require.NoError(t, err)
	require.NotEmpty(t, plan.Partitions)
	// Object weight dominates: crane first, bridge picked up through
	// the process attribute.
	assert.Equal(t, "crane", plan.Partitions[0])
	assert.Contains(t, plan.Partitions, "bridge")
	assert.LessOrEqual(t, len(plan.Partitions), domain.MaxPlanPartitions)
}

func TestRouterService_Route_CraneLiftingNeverSelectsBridge(t *testing.T) {
	router := NewRouterService(testCatalog(), nil)
	ctx := context.Background()

	plan, err := router.Route(ctx, "", domain.QueryAttributes{
		Object:  "crane",
		Process: "lifting",
	})

	require.NoError(t, err)
	assert.Equal(t, "crane", plan.Partitions[0])
	assert.NotContains(t, plan.Partitions, "bridge")
}

func TestRouterService_Route_NoMatchFallsToDefault(t *testing.T) {
	router := NewRouterService(testCatalog(), nil)
	ctx := context.Background()

	plan, err := router.Route(ctx, "", domain.QueryAttributes{
		Object: "submarine hatch",
	})

	require.NoError(t, err)
	assert.Equal(t, []string{domain.DefaultPartitionID}, plan.Partitions)
	assert.False(t, plan.Fallback)
}

func TestRouterService_Route_WeakMatchAttachesFallback(t *testing.T) {
	router := NewRouterService(testCatalog(), nil)
	ctx := context.Background()

	// Only the location attribute matches anything: weight 1, below the
	// object weight, so the plan carries a fallback partition.
	plan, err := router.Route(ctx, "", domain.QueryAttributes{
		Object:   "excavator",
		Location: "bridge deck",
	})

	require.NoError(t, err)
	require.NotEmpty(t, plan.Partitions)
	assert.True(t, plan.Fallback)
	assert.Equal(t, domain.DefaultPartitionID, plan.FallbackPartition)
}

func TestRouterService_Route_StrongMatchNoFallback(t *testing.T) {
	router := NewRouterService(testCatalog(), nil)
	ctx := context.Background()

	plan, err := router.Route(ctx, "", domain.QueryAttributes{Object: "tower crane"})

	require.NoError(t, err)
	assert.Equal(t, "crane", plan.Partitions[0])
	assert.False(t, plan.Fallback)
}

func TestRouterService_Route_AtMostThreePartitions(t *testing.T) {
	router := NewRouterService(testCatalog(), nil)
	ctx := context.Background()

	plan, err := router.Route(ctx, "", domain.QueryAttributes{
		Object:       "crane",
		Process:      "scaffold erection",
		CausalFactor: "girder fall",
		Location:     "general site",
	})

	require.NoError(t, err)
	assert.LessOrEqual(t, len(plan.Partitions), domain.MaxPlanPartitions)
}

func TestRouterService_Route_ExtractsWhenAttributesEmpty(t *testing.T) {
	reasoning := &mockReasoningService{attrs: domain.QueryAttributes{Object: "crane"}}
	router := NewRouterService(testCatalog(), reasoning)
	ctx := context.Background()

	plan, err := router.Route(ctx, "a boom came down during a lift", domain.QueryAttributes{})

	require.NoError(t, err)
	assert.Equal(t, "crane", plan.Partitions[0])
}

func TestRouterService_ExtractAttributes_ReasoningFirst(t *testing.T) {
	reasoning := &mockReasoningService{attrs: domain.QueryAttributes{
		Object:  "crane",
		Process: "lifting",
	}}
	router := NewRouterService(testCatalog(), reasoning)

	attrs := router.ExtractAttributes(context.Background(), "crane incident")

	assert.Equal(t, "crane", attrs.Object)
	assert.Equal(t, "lifting", attrs.Process)
}

func TestRouterService_ExtractAttributes_FallsBackToLineParser(t *testing.T) {
	reasoning := &mockReasoningService{attrsErr: errors.New("model offline")}
	router := NewRouterService(testCatalog(), reasoning)

	attrs := router.ExtractAttributes(context.Background(),
		"object: mobile crane\nprocess: girder lifting\ncause: sling failure\nlocation: pier 3")

	assert.Equal(t, "mobile crane", attrs.Object)
	assert.Equal(t, "girder lifting", attrs.Process)
	assert.Equal(t, "sling failure", attrs.CausalFactor)
	assert.Equal(t, "pier 3", attrs.Location)
}

func TestRouterService_ExtractAttributes_FreeTextYieldsEmpty(t *testing.T) {
	router := NewRouterService(testCatalog(), nil)

	attrs := router.ExtractAttributes(context.Background(), "something fell at the site")

	assert.True(t, attrs.Empty())
}

func TestRestrictPlan_KnownPartitions(t *testing.T) {
	plan := RestrictPlan(testCatalog(), []string{"crane", "bridge"})

	assert.Equal(t, []string{"crane", "bridge"}, plan.Partitions)
	assert.False(t, plan.Fallback)
}

func TestRestrictPlan_UnknownBecomesDefault(t *testing.T) {
	plan := RestrictPlan(testCatalog(), []string{"tunnel"})

	assert.Equal(t, []string{domain.DefaultPartitionID}, plan.Partitions)
}

func TestRestrictPlan_DedupsAndCaps(t *testing.T) {
	plan := RestrictPlan(testCatalog(), []string{"crane", "crane", "bridge", "scaffold", "general"})

	assert.Equal(t, []string{"crane", "bridge", "scaffold"}, plan.Partitions)
}

func TestRestrictPlan_EmptyRequestIsDefault(t *testing.T) {
	plan := RestrictPlan(testCatalog(), nil)

	assert.Equal(t, []string{domain.DefaultPartitionID}, plan.Partitions)
}
