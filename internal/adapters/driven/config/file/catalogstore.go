package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"github.com/hardhat-labs/girder-cli/internal/core/domain"
	"github.com/hardhat-labs/girder-cli/internal/core/ports/driven"
	"github.com/hardhat-labs/girder-cli/internal/logger"
)

// Ensure CatalogStore implements the interface.
var _ driven.CatalogStore = (*CatalogStore)(nil)

// CatalogStore loads the partition catalog from a TOML file. The catalog
// is read once at startup; the optional watcher only reports that a
// restart is needed when the file changes.
type CatalogStore struct {
	filePath string
}

// partitionFile is the on-disk shape of the catalog.
type partitionFile struct {
	Partitions []partitionSpec `toml:"partition"`
}

type partitionSpec struct {
	ID               string   `toml:"id"`
	Domain           string   `toml:"domain"`
	Keywords         []string `toml:"keywords"`
	ExampleIncidents []string `toml:"example_incidents"`
}

// NewCatalogStore creates a catalog store reading from the given file.
// If filePath is empty, defaults to ~/.girder/partitions.toml.
func NewCatalogStore(filePath string) (*CatalogStore, error) {
	if filePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		filePath = filepath.Join(home, ".girder", "partitions.toml")
	}
	return &CatalogStore{filePath: filePath}, nil
}

// Load reads and validates the catalog.
func (s *CatalogStore) Load(_ context.Context) (*domain.Catalog, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", domain.ErrCatalogInvalid, s.filePath, err)
	}

	var spec partitionFile
	if err := toml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", domain.ErrCatalogInvalid, s.filePath, err)
	}

	partitions := make([]domain.Partition, 0, len(spec.Partitions))
	for _, p := range spec.Partitions {
		partitions = append(partitions, domain.Partition{
			ID:               p.ID,
			Domain:           p.Domain,
			Keywords:         p.Keywords,
			ExampleIncidents: p.ExampleIncidents,
		})
	}

	catalog, err := domain.NewCatalog(partitions)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.filePath, err)
	}

	return catalog, nil
}

// Watch logs a warning when the catalog file changes on disk. The loaded
// catalog stays as it was; a restart picks up the new file. Returns once
// the context is cancelled.
func (s *CatalogStore) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating catalog watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file, which drops
	// a watch placed on the file itself.
	if err := watcher.Add(filepath.Dir(s.filePath)); err != nil {
		return fmt.Errorf("watching %s: %w", s.filePath, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != s.filePath {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				logger.Warn("partition catalog %s changed on disk; restart to apply", s.filePath)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("catalog watcher: %v", err)
		}
	}
}

// Path returns the catalog file path.
func (s *CatalogStore) Path() string {
	return s.filePath
}
