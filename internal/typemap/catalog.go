package typemap

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

// Rule is a vendor-specific override consulted before any name lookup. Apply
// returns false when the rule does not decide the column.
type Rule struct {
	Name  string
	Apply func(col ColumnInfo) (Type, bool)
}

// Catalog holds the baseline name→type table, the override rules and any ad
// hoc overrides. The baseline is fixed at construction; rules may only be
// added until the catalog is first used for resolution.
type Catalog struct {
	baseline map[string]Type

	mu        sync.RWMutex
	overrides map[string]Type
	rules     []Rule
	sealed    atomic.Bool
}

// ansi is the baseline seeded into every catalog. Keys are upper case.
var ansi = map[string]Type{
	"CHAR":                            String,
	"CHARACTER":                       String,
	"VARCHAR":                         String,
	"CHARACTER VARYING":               String,
	"LONGVARCHAR":                     String,
	"NCHAR":                           String,
	"NVARCHAR":                        String,
	"LONGNVARCHAR":                    String,
	"TEXT":                            String,
	"NUMERIC":                         Decimal,
	"DECIMAL":                         Decimal,
	"TINYINT":                         Int8,
	"SMALLINT":                        Int16,
	"INTEGER":                         Int32,
	"INT":                             Int32,
	"BIGINT":                          Int64,
	"REAL":                            Float32,
	"FLOAT":                           Float64,
	"DOUBLE":                          Float64,
	"DOUBLE PRECISION":                Float64,
	"BIT":                             Int32,
	"BOOLEAN":                         Bool,
	"BOOL":                            Bool,
	"DATE":                            Date,
	"TIME":                            Time,
	"TIME_WITH_TIMEZONE":              Time,
	"TIME WITH TIME ZONE":             Time,
	"TIMESTAMP":                       Timestamp,
	"TIMESTAMP_WITH_TIMEZONE":         Timestamp,
	"TIMESTAMP WITH TIME ZONE":        Timestamp,
	"BINARY":                          Bytes,
	"VARBINARY":                       Bytes,
	"LONGVARBINARY":                   Bytes,
	"CLOB":                            Clob,
	"NCLOB":                           Clob,
	"BLOB":                            Blob,
	"UUID":                            UUID,
	"JSON":                            JSON,
	"ARRAY":                           Array,
	"OTHER":                           Object,
	"JAVA_OBJECT":                     Object,
	"ROWID":                           String,
	"SQLXML":                          String,
	"XML":                             String,
	"NULL":                            Object,
	"STRUCT":                          Object,
	"DISTINCT":                        Object,
	"REF":                             Object,
	"DATALINK":                        String,
	"INTERVAL":                        String,
	"TIMESTAMP WITHOUT TIME ZONE":     Timestamp,
	"TIME WITHOUT TIME ZONE":          Time,
	"BINARY VARYING":                  Bytes,
	"NATIONAL CHARACTER":              String,
	"NATIONAL CHARACTER VARYING":      String,
	"CHARACTER LARGE OBJECT":          Clob,
	"BINARY LARGE OBJECT":             Blob,
	"NATIONAL CHARACTER LARGE OBJECT": Clob,
}

// NewCatalog returns a catalog seeded with the ANSI baseline plus extra,
// which may add or replace entries. It fails if any mapping targets a type
// outside StandardTypes.
func NewCatalog(extra map[string]Type) (*Catalog, error) {
	c := &Catalog{
		baseline:  make(map[string]Type, len(ansi)+len(extra)),
		overrides: make(map[string]Type),
	}
	for name, t := range ansi {
		c.baseline[name] = t
	}
	for name, t := range extra {
		c.baseline[normalize(name)] = t
	}
	for name, t := range c.baseline {
		if !IsStandard(t) {
			return nil, fmt.Errorf("type catalog maps %q to non-standard type %q", name, t)
		}
	}
	return c, nil
}

// MustNewCatalog is like NewCatalog but panics on an invalid mapping.
func MustNewCatalog(extra map[string]Type) *Catalog {
	c, err := NewCatalog(extra)
	if err != nil {
		panic(err)
	}
	return c
}

// AddRule appends an override rule. Rules apply in registration order.
func (c *Catalog) AddRule(r Rule) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sealed.Load() {
		return fmt.Errorf("cannot add rule %q: catalog already in use", r.Name)
	}
	if r.Apply == nil {
		return fmt.Errorf("rule %q has no Apply function", r.Name)
	}
	c.rules = append(c.rules, r)
	return nil
}

// Rules returns the registered override rules.
func (c *Catalog) Rules() []Rule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Rule(nil), c.rules...)
}

// Get returns the type for name, consulting ad hoc overrides before the
// baseline. The lookup is case-insensitive.
func (c *Catalog) Get(name string) (Type, bool) {
	key := normalize(name)
	c.mu.RLock()
	t, ok := c.overrides[key]
	c.mu.RUnlock()
	if ok {
		return t, true
	}
	t, ok = c.baseline[key]
	return t, ok
}

// Put registers an ad hoc override for name.
func (c *Catalog) Put(name string, t Type) error {
	if !IsStandard(t) {
		return fmt.Errorf("cannot map %q to non-standard type %q", name, t)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.overrides[normalize(name)] = t
	return nil
}

// seal stops further rule registration and returns the rule list. The list
// is immutable once sealed, so later calls read it without locking.
func (c *Catalog) seal() []Rule {
	if c.sealed.Load() {
		return c.rules
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sealed.Store(true)
	return c.rules
}

func normalize(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
