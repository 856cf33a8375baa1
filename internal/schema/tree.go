package schema

// Node implementations.

func (p *Project) Kind() Kind       { return KindProject }
func (p *Project) NodeID() string   { return p.ID }
func (p *Project) NodeName() string { return p.Name }
func (p *Project) Parent() Node     { return nil }

func (d *Dbms) Kind() Kind       { return KindDbms }
func (d *Dbms) NodeID() string   { return d.ID }
func (d *Dbms) NodeName() string { return d.Name }
func (d *Dbms) Parent() Node     { return nodeOrNil(d.parent) }

func (s *Schema) Kind() Kind       { return KindSchema }
func (s *Schema) NodeID() string   { return s.ID }
func (s *Schema) NodeName() string { return s.Name }
func (s *Schema) Parent() Node     { return nodeOrNil(s.parent) }

func (t *Table) Kind() Kind       { return KindTable }
func (t *Table) NodeID() string   { return t.ID }
func (t *Table) NodeName() string { return t.Name }
func (t *Table) Parent() Node     { return nodeOrNil(t.parent) }

func (c *Column) Kind() Kind       { return KindColumn }
func (c *Column) NodeID() string   { return c.ID }
func (c *Column) NodeName() string { return c.Name }
func (c *Column) Parent() Node     { return nodeOrNil(c.parent) }

func (i *Index) Kind() Kind       { return KindIndex }
func (i *Index) NodeID() string   { return i.ID }
func (i *Index) NodeName() string { return i.Name }
func (i *Index) Parent() Node     { return nodeOrNil(i.parent) }

func (c *IndexColumn) Kind() Kind       { return KindIndexColumn }
func (c *IndexColumn) NodeID() string   { return c.ID }
func (c *IndexColumn) NodeName() string { return c.Name }
func (c *IndexColumn) Parent() Node     { return nodeOrNil(c.parent) }

func (c *PrimaryKeyColumn) Kind() Kind       { return KindPrimaryKeyColumn }
func (c *PrimaryKeyColumn) NodeID() string   { return c.ID }
func (c *PrimaryKeyColumn) NodeName() string { return c.Name }
func (c *PrimaryKeyColumn) Parent() Node     { return nodeOrNil(c.parent) }

func (f *ForeignKey) Kind() Kind       { return KindForeignKey }
func (f *ForeignKey) NodeID() string   { return f.ID }
func (f *ForeignKey) NodeName() string { return f.Name }
func (f *ForeignKey) Parent() Node     { return nodeOrNil(f.parent) }

func (c *ForeignKeyColumn) Kind() Kind       { return KindForeignKeyColumn }
func (c *ForeignKeyColumn) NodeID() string   { return c.ID }
func (c *ForeignKeyColumn) NodeName() string { return c.Name }
func (c *ForeignKeyColumn) Parent() Node     { return nodeOrNil(c.parent) }

// nodeOrNil keeps a typed nil pointer from turning into a non-nil Node.
func nodeOrNil[T Node](n T) Node {
	var zero T
	if any(n) == any(zero) {
		return nil
	}
	return n
}

// Table returns the table owning the column.
func (c *Column) Table() *Table { return c.parent }

// Schema returns the schema owning the table.
func (t *Table) Schema() *Schema { return t.parent }

// Dbms returns the dbms owning the schema.
func (s *Schema) Dbms() *Dbms { return s.parent }

// Project returns the project owning the dbms.
func (d *Dbms) Project() *Project { return d.parent }

// AddDbms appends a new dbms with the given id.
func (p *Project) AddDbms(id string) (*Dbms, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, d := range p.Dbmses {
		if d.ID == id {
			return nil, &DuplicateIDError{Kind: KindDbms, ID: id, Parent: p.ID}
		}
	}
	d := &Dbms{ID: id, Name: id, parent: p}
	p.Dbmses = append(p.Dbmses, d)
	return d, nil
}

// AddSchema appends a new schema with the given id.
func (d *Dbms) AddSchema(id string) (*Schema, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.Schemas {
		if s.ID == id {
			return nil, &DuplicateIDError{Kind: KindSchema, ID: id, Parent: d.ID}
		}
	}
	s := &Schema{ID: id, Name: id, parent: d}
	d.Schemas = append(d.Schemas, s)
	return s, nil
}

// AddTable appends a new table with the given id.
func (s *Schema) AddTable(id string) (*Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.Tables {
		if t.ID == id {
			return nil, &DuplicateIDError{Kind: KindTable, ID: id, Parent: s.ID}
		}
	}
	t := &Table{ID: id, Name: id, parent: s}
	s.Tables = append(s.Tables, t)
	return t, nil
}

// AddColumn appends a new, empty column.
func (t *Table) AddColumn() *Column {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := &Column{parent: t}
	t.Columns = append(t.Columns, c)
	return c
}

// AddIndex appends a new, empty index.
func (t *Table) AddIndex() *Index {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := &Index{parent: t}
	t.Indexes = append(t.Indexes, i)
	return i
}

// AddPrimaryKeyColumn appends a new, empty primary key column.
func (t *Table) AddPrimaryKeyColumn() *PrimaryKeyColumn {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := &PrimaryKeyColumn{parent: t}
	t.PrimaryKeyColumns = append(t.PrimaryKeyColumns, c)
	return c
}

// AddForeignKey appends a new, empty foreign key.
func (t *Table) AddForeignKey() *ForeignKey {
	t.mu.Lock()
	defer t.mu.Unlock()
	f := &ForeignKey{parent: t}
	t.ForeignKeys = append(t.ForeignKeys, f)
	return f
}

// AddIndexColumn appends a new, empty index column.
func (i *Index) AddIndexColumn() *IndexColumn {
	i.mu.Lock()
	defer i.mu.Unlock()
	c := &IndexColumn{parent: i}
	i.Columns = append(i.Columns, c)
	return c
}

// AddForeignKeyColumn appends a new, empty foreign key column.
func (f *ForeignKey) AddForeignKeyColumn() *ForeignKeyColumn {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &ForeignKeyColumn{parent: f}
	f.Columns = append(f.Columns, c)
	return c
}

// FindDbms returns the dbms with the given id.
func (p *Project) FindDbms(id string) (*Dbms, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, d := range p.Dbmses {
		if d.ID == id {
			return d, true
		}
	}
	return nil, false
}

// FindSchema returns the schema with the given id.
func (d *Dbms) FindSchema(id string) (*Schema, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.Schemas {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// FindTable returns the table with the given id.
func (s *Schema) FindTable(id string) (*Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.Tables {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

// FindIndex returns the index with the given id.
func (t *Table) FindIndex(id string) (*Index, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, i := range t.Indexes {
		if i.ID == id {
			return i, true
		}
	}
	return nil, false
}

// FindForeignKey returns the foreign key with the given id.
func (t *Table) FindForeignKey(id string) (*ForeignKey, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, f := range t.ForeignKeys {
		if f.ID == id {
			return f, true
		}
	}
	return nil, false
}

// ReplaceDbms swaps in d for the dbms with the same id, as done after a
// successful discovery run on a copy. It returns false if no such dbms
// exists.
func (p *Project) ReplaceDbms(d *Dbms) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, old := range p.Dbmses {
		if old.ID == d.ID {
			d.parent = p
			p.Dbmses[i] = d
			return true
		}
	}
	return false
}

// Walk calls fn for every node in depth-first order, parents before
// children. Returning false from fn skips the node's children.
func Walk(n Node, fn func(Node) bool) {
	if !fn(n) {
		return
	}
	switch v := n.(type) {
	case *Project:
		for _, d := range v.Dbmses {
			Walk(d, fn)
		}
	case *Dbms:
		for _, s := range v.Schemas {
			Walk(s, fn)
		}
	case *Schema:
		for _, t := range v.Tables {
			Walk(t, fn)
		}
	case *Table:
		for _, c := range v.Columns {
			Walk(c, fn)
		}
		for _, i := range v.Indexes {
			Walk(i, fn)
		}
		for _, pk := range v.PrimaryKeyColumns {
			Walk(pk, fn)
		}
		for _, f := range v.ForeignKeys {
			Walk(f, fn)
		}
	case *Index:
		for _, c := range v.Columns {
			Walk(c, fn)
		}
	case *ForeignKey:
		for _, c := range v.Columns {
			Walk(c, fn)
		}
	}
}

// Count returns the number of nodes of kind k below and including n.
func Count(n Node, k Kind) int {
	total := 0
	Walk(n, func(c Node) bool {
		if c.Kind() == k {
			total++
		}
		return true
	})
	return total
}
