package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/koustreak/schemadiff/internal/database"
	"github.com/koustreak/schemadiff/internal/errs"
)

// PostgresReflector reads the connection's current schema through
// information_schema and pg_catalog.
type PostgresReflector struct {
	db database.Querier
}

// NewPostgres creates a PostgreSQL reflector.
func NewPostgres(db database.Querier) *PostgresReflector {
	return &PostgresReflector{db: db}
}

func (p *PostgresReflector) Dialect() Dialect { return PostgresDialect{} }

// attnames expands an int2[] of attribute numbers into an ordered text[]
// of column names.
func attnames(keys, rel string) string {
	return `ARRAY(
			SELECT a.attname::text
			FROM unnest(` + keys + `) WITH ORDINALITY AS k(attnum, ord)
			JOIN pg_attribute a ON a.attrelid = ` + rel + ` AND a.attnum = k.attnum
			ORDER BY k.ord)`
}

// TableNames returns all base tables in the current schema.
func (p *PostgresReflector) TableNames(ctx context.Context) ([]string, error) {
	const q = `
		SELECT table_name::text
		FROM information_schema.tables
		WHERE table_schema = current_schema()
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := p.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return database.CollectStrings(rows)
}

// TableComment returns the COMMENT ON TABLE text, or "".
func (p *PostgresReflector) TableComment(ctx context.Context, table string) (string, error) {
	const q = `
		SELECT obj_description(c.oid, 'pg_class')
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = current_schema()
		  AND c.relname = $1`

	var comment *string
	if err := p.db.QueryRow(ctx, q, table).Scan(&comment); err != nil {
		return "", fmt.Errorf("table comment %s: %w", table, err)
	}
	if comment == nil {
		return "", nil
	}
	return *comment, nil
}

// Columns returns the columns of table in ordinal order.
func (p *PostgresReflector) Columns(ctx context.Context, table string) ([]Column, error) {
	const q = `
		SELECT
			c.column_name::text,
			c.data_type::text,
			c.udt_name::text,
			c.character_maximum_length::int,
			CASE WHEN c.data_type = 'numeric' THEN c.numeric_precision::int END,
			CASE WHEN c.data_type = 'numeric' THEN c.numeric_scale::int END,
			c.is_nullable = 'YES',
			c.column_default::text,
			c.is_identity = 'YES' OR COALESCE(c.column_default::text, '') LIKE 'nextval(%',
			col_description(format('%I.%I', c.table_schema, c.table_name)::regclass, c.ordinal_position::int)
		FROM information_schema.columns c
		WHERE c.table_schema = current_schema()
		  AND c.table_name = $1
		ORDER BY c.ordinal_position`

	rows, err := p.db.Query(ctx, q, table)
	if err != nil {
		return nil, fmt.Errorf("columns %s: %w", table, err)
	}
	return database.Collect(rows, func(r database.Rows) (Column, error) {
		var (
			col     Column
			udtName string
		)
		err := r.Scan(
			&col.Name,
			&col.RawType.Name,
			&udtName,
			&col.RawType.Length,
			&col.RawType.Precision,
			&col.RawType.Scale,
			&col.Nullable,
			&col.Default,
			&col.Autoincrement,
			&col.Comment,
		)
		col.RawType.Raw = udtName
		return col, err
	})
}

// PrimaryKey returns the primary key of table, or the zero value.
func (p *PostgresReflector) PrimaryKey(ctx context.Context, table string) (PrimaryKey, error) {
	q := `
		SELECT con.conname::text, ` + attnames("con.conkey", "con.conrelid") + `
		FROM pg_constraint con
		JOIN pg_class t ON t.oid = con.conrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE con.contype = 'p'
		  AND n.nspname = current_schema()
		  AND t.relname = $1`

	var pk PrimaryKey
	if err := p.db.QueryRow(ctx, q, table).Scan(&pk.Name, &pk.ConstrainedColumns); err != nil {
		if errs.IsNotFound(err) {
			return PrimaryKey{}, nil
		}
		return PrimaryKey{}, fmt.Errorf("primary key %s: %w", table, err)
	}
	return pk, nil
}

// ForeignKeys returns the foreign keys declared on table.
func (p *PostgresReflector) ForeignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	q := `
		SELECT
			con.conname::text,
			` + attnames("con.conkey", "con.conrelid") + `,
			NULLIF(rn.nspname::text, current_schema()),
			rt.relname::text,
			` + attnames("con.confkey", "con.confrelid") + `,
			con.confupdtype::text,
			con.confdeltype::text
		FROM pg_constraint con
		JOIN pg_class t ON t.oid = con.conrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_class rt ON rt.oid = con.confrelid
		JOIN pg_namespace rn ON rn.oid = rt.relnamespace
		WHERE con.contype = 'f'
		  AND n.nspname = current_schema()
		  AND t.relname = $1
		ORDER BY con.conname`

	rows, err := p.db.Query(ctx, q, table)
	if err != nil {
		return nil, fmt.Errorf("foreign keys %s: %w", table, err)
	}
	return database.Collect(rows, func(r database.Rows) (ForeignKey, error) {
		var (
			fk              ForeignKey
			onUpdate, onDel string
		)
		err := r.Scan(&fk.Name, &fk.ConstrainedColumns, &fk.ReferredSchema, &fk.ReferredTable,
			&fk.ReferredColumns, &onUpdate, &onDel)
		fk.Options = ForeignKeyOptions{OnUpdate: pgAction(onUpdate), OnDelete: pgAction(onDel)}
		return fk, err
	})
}

// pgAction decodes pg_constraint.confupdtype / confdeltype.
func pgAction(code string) string {
	switch code {
	case "r":
		return "RESTRICT"
	case "c":
		return "CASCADE"
	case "n":
		return "SET NULL"
	case "d":
		return "SET DEFAULT"
	default: // "a": NO ACTION
		return ""
	}
}

// Indexes returns the non-primary indexes of table, including those backing
// unique constraints.
func (p *PostgresReflector) Indexes(ctx context.Context, table string) ([]Index, error) {
	const q = `
		SELECT
			i.relname::text,
			ix.indisunique,
			ARRAY(
				SELECT pg_get_indexdef(ix.indexrelid, k, true)
				FROM generate_series(1, ix.indnkeyatts::int) AS k
				ORDER BY k),
			COALESCE((
				SELECT con.conname::text
				FROM pg_constraint con
				WHERE con.conindid = ix.indexrelid AND con.contype = 'u'
				LIMIT 1), '')
		FROM pg_index ix
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE NOT ix.indisprimary
		  AND n.nspname = current_schema()
		  AND t.relname = $1
		ORDER BY i.relname`

	rows, err := p.db.Query(ctx, q, table)
	if err != nil {
		return nil, fmt.Errorf("indexes %s: %w", table, err)
	}
	return database.Collect(rows, func(r database.Rows) (Index, error) {
		var ix Index
		err := r.Scan(&ix.Name, &ix.Unique, &ix.ColumnNames, &ix.DuplicatesConstraint)
		return ix, err
	})
}

// UniqueConstraints returns the UNIQUE constraints of table.
func (p *PostgresReflector) UniqueConstraints(ctx context.Context, table string) ([]UniqueConstraint, error) {
	q := `
		SELECT con.conname::text, ` + attnames("con.conkey", "con.conrelid") + `
		FROM pg_constraint con
		JOIN pg_class t ON t.oid = con.conrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE con.contype = 'u'
		  AND n.nspname = current_schema()
		  AND t.relname = $1
		ORDER BY con.conname`

	rows, err := p.db.Query(ctx, q, table)
	if err != nil {
		return nil, fmt.Errorf("unique constraints %s: %w", table, err)
	}
	return database.Collect(rows, func(r database.Rows) (UniqueConstraint, error) {
		var uc UniqueConstraint
		err := r.Scan(&uc.Name, &uc.ColumnNames)
		return uc, err
	})
}

// CheckConstraints returns the CHECK constraints of table with the CHECK
// keyword and outer parentheses removed.
func (p *PostgresReflector) CheckConstraints(ctx context.Context, table string) ([]CheckConstraint, error) {
	const q = `
		SELECT con.conname::text, pg_get_constraintdef(con.oid, true)
		FROM pg_constraint con
		JOIN pg_class t ON t.oid = con.conrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE con.contype = 'c'
		  AND n.nspname = current_schema()
		  AND t.relname = $1
		ORDER BY con.conname`

	rows, err := p.db.Query(ctx, q, table)
	if err != nil {
		return nil, fmt.Errorf("check constraints %s: %w", table, err)
	}
	return database.Collect(rows, func(r database.Rows) (CheckConstraint, error) {
		var (
			cc  CheckConstraint
			def string
		)
		err := r.Scan(&cc.Name, &def)
		cc.SQLText = checkText(def)
		return cc, err
	})
}

// checkText turns "CHECK ((age > 0)) NOT VALID" into "(age > 0)".
func checkText(def string) string {
	def = strings.TrimSpace(def)
	def = strings.TrimSuffix(def, " NOT VALID")
	def = strings.TrimPrefix(def, "CHECK ")
	if strings.HasPrefix(def, "(") && strings.HasSuffix(def, ")") {
		def = def[1 : len(def)-1]
	}
	return def
}

// Enums returns the enumerated types defined in the current schema.
func (p *PostgresReflector) Enums(ctx context.Context) ([]Enum, error) {
	const q = `
		SELECT
			t.typname::text,
			n.nspname::text,
			pg_type_is_visible(t.oid),
			array_agg(e.enumlabel::text ORDER BY e.enumsortorder)
		FROM pg_type t
		JOIN pg_enum e ON e.enumtypid = t.oid
		JOIN pg_namespace n ON n.oid = t.typnamespace
		WHERE n.nspname = current_schema()
		GROUP BY t.oid, t.typname, n.nspname
		ORDER BY t.typname`

	rows, err := p.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("enums: %w", err)
	}
	return database.Collect(rows, func(r database.Rows) (Enum, error) {
		var e Enum
		err := r.Scan(&e.Name, &e.Schema, &e.Visible, &e.Labels)
		return e, err
	})
}
