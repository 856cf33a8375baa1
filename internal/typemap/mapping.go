package typemap

import "github.com/tordrt/dbmeta/internal/sqltypes"

// Entry is one row of a vendor's type catalog: a vendor type name and the
// SQL type code it reports.
type Entry struct {
	Name string
	Code sqltypes.Code
}

// Mapping is the discovered name→type table built once per discovery run.
// It is read-only after construction and safe for concurrent use.
type Mapping struct {
	types map[string]Type
}

// BuildMapping builds a Mapping from vendor entries by translating each code
// to its canonical SQL type name and looking that name up in c. It returns
// the names that could not be mapped.
func BuildMapping(c *Catalog, entries []Entry) (*Mapping, []string) {
	m := &Mapping{types: make(map[string]Type, len(entries))}
	var skipped []string
	for _, e := range entries {
		name, ok := e.Code.Name()
		if !ok {
			skipped = append(skipped, e.Name)
			continue
		}
		t, ok := c.Get(name)
		if !ok {
			skipped = append(skipped, e.Name)
			continue
		}
		m.types[normalize(e.Name)] = t
	}
	return m, skipped
}

// Lookup returns the discovered type for a vendor type name, case-insensitively.
func (m *Mapping) Lookup(name string) (Type, bool) {
	if m == nil {
		return "", false
	}
	t, ok := m.types[normalize(name)]
	return t, ok
}

// Len returns the number of entries.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.types)
}
