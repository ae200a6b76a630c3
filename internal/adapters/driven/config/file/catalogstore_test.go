package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hardhat-labs/girder-cli/internal/core/domain"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "partitions.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

const validCatalog = `
[[partition]]
id = "crane"
domain = "Crane and lifting operations"
keywords = ["crane", "hoist", "lifting"]
example_incidents = ["boom collapse during lift"]

[[partition]]
id = "general"
domain = "General construction safety"
keywords = []
`

func TestCatalogStore_LoadsValidCatalog(t *testing.T) {
	store, err := NewCatalogStore(writeCatalog(t, validCatalog))
	require.NoError(t, err)

	catalog, err := store.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"crane", "general"}, catalog.IDs())
	crane, ok := catalog.Get("crane")
	require.True(t, ok)
	assert.Equal(t, "Crane and lifting operations", crane.Domain)
	assert.Contains(t, crane.Keywords, "hoist")
}

func TestCatalogStore_MissingFileIsInvalid(t *testing.T) {
	store, err := NewCatalogStore(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrCatalogInvalid)
}

func TestCatalogStore_MalformedTOMLIsInvalid(t *testing.T) {
	store, err := NewCatalogStore(writeCatalog(t, "[[partition]\nid ="))
	require.NoError(t, err)

	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrCatalogInvalid)
}

func TestCatalogStore_MissingDefaultPartitionIsInvalid(t *testing.T) {
	store, err := NewCatalogStore(writeCatalog(t, `
[[partition]]
id = "crane"
domain = "Crane and lifting operations"
`))
	require.NoError(t, err)

	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrCatalogInvalid)
}

func TestCatalogStore_EmptyFileIsInvalid(t *testing.T) {
	store, err := NewCatalogStore(writeCatalog(t, ""))
	require.NoError(t, err)

	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrCatalogInvalid)
}
