package driven

import (
	"context"

	"github.com/hardhat-labs/girder-cli/internal/core/domain"
)

// SessionStore persists session state across suspension points. The
// serialised state must round-trip exactly: resumption restores the
// suspended session as it was.
type SessionStore interface {
	// Save writes the full session state.
	Save(ctx context.Context, state *domain.SessionState) error

	// Get loads a session by id. Returns domain.ErrNotFound when absent.
	Get(ctx context.Context, id string) (*domain.SessionState, error)

	// Delete removes a session. Deleting an absent session is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the ids of all stored sessions.
	List(ctx context.Context) ([]string, error)

	// Close releases resources.
	Close() error
}

// CatalogStore loads the partition catalog. The catalog is read once at
// startup and treated as immutable afterwards.
type CatalogStore interface {
	// Load reads and validates the catalog.
	// Returns domain.ErrCatalogInvalid on missing or malformed data.
	Load(ctx context.Context) (*domain.Catalog, error)
}

// ConfigStore provides typed access to application configuration.
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	Get(key string) (any, bool)

	// GetString retrieves a string configuration value.
	GetString(key string) string

	// GetInt retrieves an integer configuration value.
	GetInt(key string) int

	// GetFloat retrieves a float configuration value.
	GetFloat(key string) float64

	// GetBool retrieves a boolean configuration value.
	GetBool(key string) bool

	// Set stores a configuration value.
	Set(key string, value any) error
}
