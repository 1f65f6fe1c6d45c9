// Package ignore parses user-supplied exclusion rules and answers the
// per-inspector questions "is this table skipped" and "is this object
// skipped".
//
// A rule is a dot-separated string in one of three shapes:
//
//	<table>                         skip the table in every table-scoped inspector
//	enums.<enum>                    skip one enumerated type
//	<table>.<inspector>.<object>    skip one named object of one inspector
package ignore

// Spec is a parsed ignore rule. The set of implementations is closed:
// TableSpec and EnumSpec.
type Spec interface {
	isSpec()
}

// TableSpec excludes a whole table when only Table is set, or one named
// object of one inspector when all three fields are set.
type TableSpec struct {
	Table        string
	InspectorKey string
	ObjectName   string
}

// EnumSpec excludes one enumerated type by name.
type EnumSpec struct {
	Name string
}

func (TableSpec) isSpec() {}
func (EnumSpec) isSpec()  {}

// TableWide reports whether s excludes the entire table.
func (s TableSpec) TableWide() bool {
	return s.InspectorKey == "" && s.ObjectName == ""
}
