// Package driving defines the interfaces through which external actors
// drive the core (primary/inbound ports). The CLI, TUI and MCP adapters
// depend on these interfaces; core services implement them.
package driving
