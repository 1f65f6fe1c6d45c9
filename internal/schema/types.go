package schema

import "encoding/json"

// Table is one base table and its comment ("" when there is none).
type Table struct {
	Name    string `json:"name"`
	Comment string `json:"comment"`
}

// ColumnType is a column type as the server reports it. Reflectors fill it
// and a Dialect renders it to the textual form used in reports.
type ColumnType struct {
	Name      string // base type name, e.g. "character varying", "int"
	Length    *int   // character length, when the type has one
	Precision *int   // numeric precision, for exact numerics only
	Scale     *int
	Raw       string // full declaration, e.g. "varchar(200)" or "enum('a','b')"
}

// Column describes one table column.
type Column struct {
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	Nullable      bool    `json:"nullable"`
	Default       *string `json:"default"`
	Autoincrement bool    `json:"autoincrement"`
	Comment       *string `json:"comment"`

	// RawType is set by reflectors and cleared once Type is rendered.
	RawType ColumnType `json:"-"`
}

// PrimaryKey is a table's primary key constraint. The zero value stands for
// "no primary key" and renders as {}.
type PrimaryKey struct {
	Name               string   `json:"name"`
	ConstrainedColumns []string `json:"constrained_columns"`
}

// IsZero reports whether pk carries neither a name nor columns.
func (pk PrimaryKey) IsZero() bool {
	return pk.Name == "" && len(pk.ConstrainedColumns) == 0
}

func (pk PrimaryKey) MarshalJSON() ([]byte, error) {
	if pk.IsZero() {
		return []byte("{}"), nil
	}
	type plain PrimaryKey
	return json.Marshal(plain(pk))
}

// ForeignKeyOptions carries referential actions other than NO ACTION.
type ForeignKeyOptions struct {
	OnUpdate string `json:"onupdate,omitempty"`
	OnDelete string `json:"ondelete,omitempty"`
}

// ForeignKey describes one foreign key constraint. ReferredSchema is nil
// when the referred table lives in the connection's default schema.
type ForeignKey struct {
	Name               string            `json:"name"`
	ConstrainedColumns []string          `json:"constrained_columns"`
	ReferredSchema     *string           `json:"referred_schema"`
	ReferredTable      string            `json:"referred_table"`
	ReferredColumns    []string          `json:"referred_columns"`
	Options            ForeignKeyOptions `json:"options"`
}

// Index describes one secondary index. DuplicatesConstraint names the
// unique constraint the index backs, if any.
type Index struct {
	Name                 string   `json:"name"`
	ColumnNames          []string `json:"column_names"`
	Unique               bool     `json:"unique"`
	DuplicatesConstraint string   `json:"duplicates_constraint,omitempty"`
}

// UniqueConstraint describes one unique constraint.
type UniqueConstraint struct {
	Name        string   `json:"name"`
	ColumnNames []string `json:"column_names"`
}

// CheckConstraint describes one check constraint by its predicate text.
type CheckConstraint struct {
	Name    string `json:"name"`
	SQLText string `json:"sqltext"`
}

// Enum describes one named enumerated type.
type Enum struct {
	Name    string   `json:"name"`
	Schema  string   `json:"schema"`
	Visible bool     `json:"visible"`
	Labels  []string `json:"labels"`
}

func (t Table) DiffKey() string             { return t.Name }
func (c Column) DiffKey() string            { return c.Name }
func (fk ForeignKey) DiffKey() string       { return fk.Name }
func (ix Index) DiffKey() string            { return ix.Name }
func (uc UniqueConstraint) DiffKey() string { return uc.Name }
func (cc CheckConstraint) DiffKey() string  { return cc.Name }
func (e Enum) DiffKey() string              { return e.Name }
