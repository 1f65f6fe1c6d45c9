package schema

import (
	"strconv"
	"strings"
)

// Dialect renders reflected column types to report text.
type Dialect interface {
	Name() string
	RenderType(t ColumnType) string
}

type (
	PostgresDialect struct{}
	MySQLDialect    struct{}
	SQLiteDialect   struct{}
)

func (PostgresDialect) Name() string { return "postgresql" }
func (MySQLDialect) Name() string    { return "mysql" }
func (SQLiteDialect) Name() string   { return "sqlite" }

var pgTypeNames = map[string]string{
	"character varying": "VARCHAR",
	"character":         "CHAR",
	"bit varying":       "VARBIT",
}

// RenderType spells types the way PostgreSQL DDL does: VARCHAR(200),
// NUMERIC(10, 2), TIMESTAMP WITHOUT TIME ZONE. Enum columns render as the
// enum's name.
func (PostgresDialect) RenderType(t ColumnType) string {
	name := t.Name
	switch {
	case name == "USER-DEFINED":
		return t.Raw
	case name == "ARRAY":
		return strings.ToUpper(strings.TrimPrefix(t.Raw, "_")) + "[]"
	}
	if mapped, ok := pgTypeNames[name]; ok {
		name = mapped
	}
	return withArgs(strings.ToUpper(name), t)
}

// RenderType upper-cases MySQL's full column type, keeping quoted enum and
// set labels verbatim: varchar(200) -> VARCHAR(200), int unsigned -> INT UNSIGNED.
func (MySQLDialect) RenderType(t ColumnType) string {
	if t.Raw == "" {
		return withArgs(strings.ToUpper(t.Name), t)
	}
	return renderDeclared(t.Raw)
}

// RenderType normalises the declared type of a SQLite column. Columns
// declared without a type render as NULL.
func (SQLiteDialect) RenderType(t ColumnType) string {
	if strings.TrimSpace(t.Raw) == "" {
		return "NULL"
	}
	return renderDeclared(t.Raw)
}

func withArgs(name string, t ColumnType) string {
	switch {
	case t.Length != nil:
		return name + "(" + strconv.Itoa(*t.Length) + ")"
	case t.Precision != nil && t.Scale != nil:
		return name + "(" + strconv.Itoa(*t.Precision) + ", " + strconv.Itoa(*t.Scale) + ")"
	case t.Precision != nil:
		return name + "(" + strconv.Itoa(*t.Precision) + ")"
	default:
		return name
	}
}

// renderDeclared upper-cases a declaration outside its parenthesised
// argument list.
func renderDeclared(raw string) string {
	raw = strings.TrimSpace(raw)
	open := strings.IndexByte(raw, '(')
	if open < 0 {
		return strings.ToUpper(raw)
	}
	closing := strings.LastIndexByte(raw, ')')
	if closing < open {
		return strings.ToUpper(raw)
	}
	return strings.ToUpper(raw[:open]) + raw[open:closing+1] + strings.ToUpper(raw[closing+1:])
}
