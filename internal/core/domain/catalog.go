package domain

// DefaultPartitionID is the partition substituted for unknown or invalid
// partition names, and the usual fallback target for sparse plans.
const DefaultPartitionID = "general"

// WebPartitionID marks documents fetched from the open web during
// escalation. It never appears in the catalog.
const WebPartitionID = "web"

// Partition describes one independently indexed subset of the guidance
// corpus. Descriptors are static configuration: loaded once at startup and
// never mutated.
type Partition struct {
	// ID is the unique partition identifier (e.g. "crane", "bridge").
	ID string

	// Domain is a human-readable description of the partition's subject area.
	Domain string

	// Keywords are terms that indicate a query belongs to this partition.
	Keywords []string

	// ExampleIncidents are representative incident types for this partition.
	ExampleIncidents []string
}

// Catalog is the read-only set of partition descriptors.
type Catalog struct {
	partitions map[string]Partition
	order      []string
}

// NewCatalog builds a catalog from partition descriptors.
// Returns ErrCatalogInvalid if the set is empty, contains a duplicate or
// empty id, or lacks the default partition.
func NewCatalog(partitions []Partition) (*Catalog, error) {
	if len(partitions) == 0 {
		return nil, ErrCatalogInvalid
	}

	c := &Catalog{
		partitions: make(map[string]Partition, len(partitions)),
		order:      make([]string, 0, len(partitions)),
	}

	for _, p := range partitions {
		if p.ID == "" {
			return nil, ErrCatalogInvalid
		}
		if _, dup := c.partitions[p.ID]; dup {
			return nil, ErrCatalogInvalid
		}
		c.partitions[p.ID] = p
		c.order = append(c.order, p.ID)
	}

	if _, ok := c.partitions[DefaultPartitionID]; !ok {
		return nil, ErrCatalogInvalid
	}

	return c, nil
}

// Get returns the descriptor for a partition id.
func (c *Catalog) Get(id string) (Partition, bool) {
	p, ok := c.partitions[id]
	return p, ok
}

// Has reports whether the partition id exists in the catalog.
func (c *Catalog) Has(id string) bool {
	_, ok := c.partitions[id]
	return ok
}

// IDs returns all partition ids in declaration order.
func (c *Catalog) IDs() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Normalise maps a possibly unknown partition id onto the catalog:
// known ids pass through, anything else becomes the default partition.
func (c *Catalog) Normalise(id string) string {
	if c.Has(id) {
		return id
	}
	return DefaultPartitionID
}
