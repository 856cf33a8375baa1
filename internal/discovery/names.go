package discovery

import (
	"sort"
	"strings"
	"sync"

	"github.com/tordrt/dbmeta/internal/db"
	"github.com/tordrt/dbmeta/internal/dbms"
)

// Filter decides whether a discovered schema name is kept. A nil Filter
// keeps every name.
type Filter func(name string) bool

// nameSet collects the schema names seen by schema and catalog enumeration.
// Both stages write to it concurrently.
type nameSet struct {
	naming dbms.Naming
	filter Filter

	mu        sync.Mutex
	fromSchem []string
	fromCat   []string
	discarded map[string]bool
}

func newNameSet(naming dbms.Naming, filter Filter) *nameSet {
	return &nameSet{naming: naming, filter: filter, discarded: make(map[string]bool)}
}

// add classifies name. fromCatalog tells which enumeration reported it.
func (n *nameSet) add(name string, fromCatalog bool) {
	kept := !n.naming.Excluded(name) && (n.filter == nil || n.filter(name))

	n.mu.Lock()
	defer n.mu.Unlock()
	switch {
	case !kept:
		n.discarded[name] = true
	case fromCatalog:
		n.fromCat = append(n.fromCat, name)
	default:
		n.fromSchem = append(n.fromSchem, name)
	}
}

// kept returns the kept names without duplicates: schema-enumerated names
// first, then catalog-enumerated ones, each in reported order.
func (n *nameSet) kept() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	seen := make(map[string]bool, len(n.fromSchem)+len(n.fromCat))
	var out []string
	for _, list := range [][]string{n.fromSchem, n.fromCat} {
		for _, name := range list {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

// discardedNames returns the discarded names, sorted.
func (n *nameSet) discardedNames() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.discarded))
	for name := range n.discarded {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// schemaName resolves the effective name of a schema row: the vendor's
// schema column, then the catalog columns. Drivers may omit any of them.
func schemaName(r db.Row, schemaColumn string) (string, bool) {
	for _, label := range []string{schemaColumn, db.LabelTableCatalog, db.LabelTableCat} {
		if name, ok := r.String(label); ok && strings.TrimSpace(name) != "" {
			return name, true
		}
	}
	return "", false
}

// tracker computes overall progress as the mean of the per-schema fraction
// of tables whose metadata is complete.
type tracker struct {
	mu     sync.Mutex
	total  map[string]int
	done   map[string]int
	listed map[string]bool
	n      int
}

func newTracker(schemas []string) *tracker {
	return &tracker{
		total:  make(map[string]int, len(schemas)),
		done:   make(map[string]int, len(schemas)),
		listed: make(map[string]bool, len(schemas)),
		n:      len(schemas),
	}
}

// tables records how many tables a schema holds.
func (t *tracker) tables(schemaName string, n int) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total[schemaName] = n
	t.listed[schemaName] = true
	return t.fraction()
}

// tableDone records one completed table.
func (t *tracker) tableDone(schemaName string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done[schemaName]++
	return t.fraction()
}

func (t *tracker) fraction() float64 {
	if t.n == 0 {
		return 1
	}
	var sum float64
	for name := range t.listed {
		if t.total[name] == 0 {
			sum++
			continue
		}
		sum += float64(t.done[name]) / float64(t.total[name])
	}
	return sum / float64(t.n)
}
