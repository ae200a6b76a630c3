// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - PartitionStore: Per-partition index handles and stored documents
//   - LexicalIndex: Term-overlap ranking. Always required per partition.
//   - CatalogStore: Partition catalog (fatal at startup when invalid)
//   - SessionStore: Session persistence across suspension points
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - VectorIndex: Dense search. Only enabled with an EmbeddingService.
//   - EmbeddingService: Query embeddings. Without it, retrieval is lexical-only.
//   - Reranker: Second-pass reordering. Without it, fusion order stands.
//   - ReasoningService: Heuristic decisions. Without it, rule tables decide.
//   - FeedbackChannel: Interactive decisions. Without it, sessions suspend.
//   - WebSearchService: Web augmentation. Without it, escalation is refused.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
