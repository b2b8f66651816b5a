package fiber

import (
	"errors"
	"sort"
)

// Exclusion records a fiber that could not be loaded
type Exclusion struct {
	ID     ID
	Reason string
	// Missing is true when a file was absent or unreadable, false for
	// shape or ordering problems
	Missing bool
}

// Catalog is the read-only set of fibers loaded at startup. It is never
// mutated after LoadCatalog returns, so concurrent reads need no locking.
type Catalog struct {
	fibers   map[ID]*Data
	order    []ID
	excluded []Exclusion
}

func newCatalog() *Catalog {
	return &Catalog{fibers: make(map[ID]*Data)}
}

// NewCatalog builds a catalog from already loaded fibers
func NewCatalog(fibers ...*Data) *Catalog {
	c := newCatalog()
	for _, d := range fibers {
		c.add(d)
	}
	return c
}

func (c *Catalog) add(d *Data) {
	if _, ok := c.fibers[d.ID]; !ok {
		c.order = append(c.order, d.ID)
		sort.Slice(c.order, func(i, j int) bool { return c.order[i].Less(c.order[j]) })
	}
	c.fibers[d.ID] = d
}

func (c *Catalog) exclude(id ID, err error) {
	c.excluded = append(c.excluded, Exclusion{
		ID:      id,
		Reason:  err.Error(),
		Missing: errors.Is(err, ErrMissingData),
	})
}

// Get returns the data of a loaded fiber
func (c *Catalog) Get(id ID) (*Data, bool) {
	d, ok := c.fibers[id]
	return d, ok
}

// IDs returns loaded fibers ordered by group and number
func (c *Catalog) IDs() []ID {
	return append([]ID(nil), c.order...)
}

// Excluded returns the fibers that failed to load
func (c *Catalog) Excluded() []Exclusion {
	return append([]Exclusion(nil), c.excluded...)
}

// Len returns the number of loaded fibers
func (c *Catalog) Len() int {
	return len(c.order)
}

// Grid returns the ids of numbers 1..perGroup for every group
func Grid(groups []int, perGroup int) []ID {
	ids := make([]ID, 0, len(groups)*perGroup)
	for _, g := range groups {
		for n := 1; n <= perGroup; n++ {
			ids = append(ids, ID{Group: g, Number: n})
		}
	}
	return ids
}
