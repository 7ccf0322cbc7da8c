// Package sig describes the routines whose semantics are extracted: their
// arguments, their results and the machine state they touch.
package sig

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/sarchlab/isasem/types"
)

// GlobalLocation names a piece of architecture-wide state.
type GlobalLocation struct {
	Name string
	Type types.BaseType
}

func (l GlobalLocation) String() string {
	return l.Name + ":" + l.Type.String()
}

// Catalog is the complete, read-only set of global locations of an
// architecture. Order is the declaration order.
type Catalog struct {
	arch        string
	locs        []GlobalLocation
	index       map[string]int
	fingerprint string
}

// DuplicateLocationError reports a location declared twice.
type DuplicateLocationError struct {
	Name string
}

func (e *DuplicateLocationError) Error() string {
	return fmt.Sprintf("global location %q declared twice", e.Name)
}

// NewCatalog builds the catalog for arch.
func NewCatalog(arch string, locs ...GlobalLocation) (*Catalog, error) {
	c := &Catalog{
		arch:  arch,
		locs:  make([]GlobalLocation, 0, len(locs)),
		index: make(map[string]int, len(locs)),
	}
	for _, l := range locs {
		if _, dup := c.index[l.Name]; dup {
			return nil, &DuplicateLocationError{Name: l.Name}
		}
		if err := types.Validate(l.Type); err != nil {
			return nil, fmt.Errorf("global location %q: %w", l.Name, err)
		}
		c.index[l.Name] = len(c.locs)
		c.locs = append(c.locs, l)
	}

	var sb strings.Builder
	sb.WriteString(arch)
	for _, l := range c.locs {
		sb.WriteByte('\n')
		sb.WriteString(l.String())
	}
	sum := sha256.Sum256([]byte(sb.String()))
	c.fingerprint = hex.EncodeToString(sum[:])
	return c, nil
}

// Arch returns the architecture name.
func (c *Catalog) Arch() string { return c.arch }

// Fingerprint identifies the architecture name and the ordered
// locations with their types.
func (c *Catalog) Fingerprint() string { return c.fingerprint }

// Len returns the number of locations.
func (c *Catalog) Len() int { return len(c.locs) }

// Locations returns a copy of the locations in declaration order.
func (c *Catalog) Locations() []GlobalLocation {
	return append([]GlobalLocation(nil), c.locs...)
}

// Lookup finds a location by name.
func (c *Catalog) Lookup(name string) (GlobalLocation, bool) {
	i, ok := c.index[name]
	if !ok {
		return GlobalLocation{}, false
	}
	return c.locs[i], true
}
