package schema

import "maps"

// Copy returns a deep, independent copy of the project with all parent
// references pointing into the copy.
func (p *Project) Copy() *Project {
	p.mu.Lock()
	defer p.mu.Unlock()

	cp := &Project{ID: p.ID, Name: p.Name}
	for _, d := range p.Dbmses {
		cp.Dbmses = append(cp.Dbmses, d.copyInto(cp))
	}
	return cp
}

func (d *Dbms) copyInto(parent *Project) *Dbms {
	d.mu.Lock()
	defer d.mu.Unlock()

	cp := &Dbms{
		ID:         d.ID,
		Name:       d.Name,
		TypeName:   d.TypeName,
		Connection: d.Connection,
		parent:     parent,
	}
	cp.Connection.Params = maps.Clone(d.Connection.Params)
	for _, s := range d.Schemas {
		cp.Schemas = append(cp.Schemas, s.copyInto(cp))
	}
	return cp
}

func (s *Schema) copyInto(parent *Dbms) *Schema {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := &Schema{ID: s.ID, Name: s.Name, parent: parent}
	for _, t := range s.Tables {
		cp.Tables = append(cp.Tables, t.copyInto(cp))
	}
	return cp
}

func (t *Table) copyInto(parent *Schema) *Table {
	t.mu.Lock()
	defer t.mu.Unlock()

	cp := &Table{ID: t.ID, Name: t.Name, View: t.View, parent: parent}
	for _, c := range t.Columns {
		cc := *c
		cc.parent = cp
		cc.EnumConstants = append([]string(nil), c.EnumConstants...)
		cp.Columns = append(cp.Columns, &cc)
	}
	for _, i := range t.Indexes {
		cp.Indexes = append(cp.Indexes, i.copyInto(cp))
	}
	for _, pk := range t.PrimaryKeyColumns {
		pc := *pk
		pc.parent = cp
		cp.PrimaryKeyColumns = append(cp.PrimaryKeyColumns, &pc)
	}
	for _, f := range t.ForeignKeys {
		cp.ForeignKeys = append(cp.ForeignKeys, f.copyInto(cp))
	}
	return cp
}

func (i *Index) copyInto(parent *Table) *Index {
	i.mu.Lock()
	defer i.mu.Unlock()

	cp := &Index{ID: i.ID, Name: i.Name, Unique: i.Unique, parent: parent}
	for _, c := range i.Columns {
		cc := *c
		cc.parent = cp
		cp.Columns = append(cp.Columns, &cc)
	}
	return cp
}

func (f *ForeignKey) copyInto(parent *Table) *ForeignKey {
	f.mu.Lock()
	defer f.mu.Unlock()

	cp := &ForeignKey{ID: f.ID, Name: f.Name, parent: parent}
	for _, c := range f.Columns {
		cc := *c
		cc.parent = cp
		cp.Columns = append(cp.Columns, &cc)
	}
	return cp
}

// Relink restores parent back-references after the tree was built outside
// the AddX methods, for example by decoding YAML.
func (p *Project) Relink() {
	for _, d := range p.Dbmses {
		d.parent = p
		for _, s := range d.Schemas {
			s.parent = d
			for _, t := range s.Tables {
				t.parent = s
				for _, c := range t.Columns {
					c.parent = t
				}
				for _, i := range t.Indexes {
					i.parent = t
					for _, c := range i.Columns {
						c.parent = i
					}
				}
				for _, pk := range t.PrimaryKeyColumns {
					pk.parent = t
				}
				for _, f := range t.ForeignKeys {
					f.parent = t
					for _, c := range f.Columns {
						c.parent = f
					}
				}
			}
		}
	}
}
