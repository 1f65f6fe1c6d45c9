package ignore

import "slices"

// Clauses is the view of a spec list that one inspector consults.
type Clauses struct {
	Tables  []string    // tables skipped entirely
	Enums   []string    // enum names skipped
	Clauses []TableSpec // object-level rules addressed to the inspector
}

// Filter builds the Clauses seen by the inspector with the given key.
// Object-level rules for other inspectors are dropped.
func Filter(specs []Spec, key string) Clauses {
	var c Clauses
	for _, s := range specs {
		switch s := s.(type) {
		case TableSpec:
			if s.TableWide() {
				c.Tables = append(c.Tables, s.Table)
			} else if s.InspectorKey == key {
				c.Clauses = append(c.Clauses, s)
			}
		case EnumSpec:
			c.Enums = append(c.Enums, s.Name)
		}
	}
	return c
}

// IsTable reports whether table is skipped.
func (c Clauses) IsTable(table string) bool {
	return slices.Contains(c.Tables, table)
}

// IsEnum reports whether the enum called name is skipped.
func (c Clauses) IsEnum(name string) bool {
	return slices.Contains(c.Enums, name)
}

// IsClause reports whether an object-level rule matches the exact triple.
func (c Clauses) IsClause(table, key, name string) bool {
	for _, s := range c.Clauses {
		if s.Table == table && s.InspectorKey == key && s.ObjectName == name {
			return true
		}
	}
	return false
}
