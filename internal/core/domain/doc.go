// Package domain defines the core business entities for Girder.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A unit of safety-guidance text with its identity key
//   - Catalog / Partition: Static descriptors of the corpus partitions
//   - PartitionPlan: The result of one routing call
//   - SessionState: Everything one analyst session accumulates
//   - FeedbackDecision: One human decision in the refinement loop
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
