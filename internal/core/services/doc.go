// Package services implements the driving port interfaces.
// Services contain the core business logic: partition routing,
// hybrid retrieval and fusion, the feedback refinement loop, and
// the session orchestrator that sequences them. Services talk to
// models, indexes and storage only through driven ports.
package services
