package catalog

import (
	"fmt"
	"sort"

	"github.com/climateandtech/carbonara-sub002/internal/types"
)

// Catalog is the immutable descriptor set loaded at startup. All reads are
// safe for concurrent use because nothing is written after construction.
type Catalog struct {
	byID  map[string]Descriptor
	order []string
}

func newCatalog(descriptors []Descriptor) *Catalog {
	c := &Catalog{
		byID:  make(map[string]Descriptor, len(descriptors)),
		order: make([]string, 0, len(descriptors)),
	}
	for _, d := range descriptors {
		c.byID[d.ID] = d
		c.order = append(c.order, d.ID)
	}
	sort.Strings(c.order)
	return c
}

// Get returns the descriptor for the given tool id.
func (c *Catalog) Get(id string) (Descriptor, error) {
	d, ok := c.byID[id]
	if !ok {
		return Descriptor{}, types.NewError(types.TOOL_NOT_FOUND, fmt.Sprintf("tool %q is not in the catalog", id))
	}
	return d, nil
}

// Has reports whether the catalog contains the given tool id.
func (c *Catalog) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// List returns all descriptors ordered by tool id.
func (c *Catalog) List() []Descriptor {
	out := make([]Descriptor, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// IDs returns all tool ids in sorted order.
func (c *Catalog) IDs() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of descriptors in the catalog.
func (c *Catalog) Len() int {
	return len(c.byID)
}
