package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/koustreak/schemadiff/internal/database"
	"github.com/koustreak/schemadiff/internal/errs"
)

// MySQLReflector reads the connection's default database through
// information_schema. MySQL has no named enum types, so it does not
// implement EnumReflector.
type MySQLReflector struct {
	db database.Querier
}

// NewMySQL creates a MySQL reflector.
func NewMySQL(db database.Querier) *MySQLReflector {
	return &MySQLReflector{db: db}
}

func (m *MySQLReflector) Dialect() Dialect { return MySQLDialect{} }

// TableNames returns all base tables in the current database.
func (m *MySQLReflector) TableNames(ctx context.Context) ([]string, error) {
	const q = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := m.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return database.CollectStrings(rows)
}

// TableComment returns the table comment, or "".
func (m *MySQLReflector) TableComment(ctx context.Context, table string) (string, error) {
	const q = `
		SELECT table_comment
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_name = ?`

	var comment sql.NullString
	if err := m.db.QueryRow(ctx, q, table).Scan(&comment); err != nil {
		return "", fmt.Errorf("table comment %s: %w", table, err)
	}
	return comment.String, nil
}

// Columns returns the columns of table in ordinal order.
func (m *MySQLReflector) Columns(ctx context.Context, table string) ([]Column, error) {
	const q = `
		SELECT column_name, data_type, column_type, is_nullable, column_default, extra, column_comment
		FROM information_schema.columns
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		ORDER BY ordinal_position`

	rows, err := m.db.Query(ctx, q, table)
	if err != nil {
		return nil, fmt.Errorf("columns %s: %w", table, err)
	}
	return database.Collect(rows, func(r database.Rows) (Column, error) {
		var (
			col                      Column
			nullable, extra, comment string
			def                      sql.NullString
		)
		if err := r.Scan(&col.Name, &col.RawType.Name, &col.RawType.Raw, &nullable, &def, &extra, &comment); err != nil {
			return col, err
		}
		col.Nullable = nullable == "YES"
		col.Default = nullString(def)
		col.Autoincrement = strings.Contains(strings.ToLower(extra), "auto_increment")
		if comment != "" {
			col.Comment = &comment
		}
		return col, nil
	})
}

// PrimaryKey returns the PRIMARY key of table, or the zero value.
func (m *MySQLReflector) PrimaryKey(ctx context.Context, table string) (PrimaryKey, error) {
	const q = `
		SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		  AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position`

	rows, err := m.db.Query(ctx, q, table)
	if err != nil {
		return PrimaryKey{}, fmt.Errorf("primary key %s: %w", table, err)
	}
	cols, err := database.CollectStrings(rows)
	if err != nil || len(cols) == 0 {
		return PrimaryKey{}, err
	}
	return PrimaryKey{Name: "PRIMARY", ConstrainedColumns: cols}, nil
}

type mysqlFKRow struct {
	name, column, refTable, refColumn, onUpdate, onDelete string
	refSchema                                             sql.NullString
}

// ForeignKeys returns the foreign keys declared on table.
func (m *MySQLReflector) ForeignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	const q = `
		SELECT
			kcu.constraint_name,
			kcu.column_name,
			NULLIF(kcu.referenced_table_schema, DATABASE()),
			kcu.referenced_table_name,
			kcu.referenced_column_name,
			rc.update_rule,
			rc.delete_rule
		FROM information_schema.key_column_usage kcu
		JOIN information_schema.referential_constraints rc
		  ON rc.constraint_schema = kcu.constraint_schema
		 AND rc.constraint_name = kcu.constraint_name
		WHERE kcu.table_schema = DATABASE()
		  AND kcu.table_name = ?
		  AND kcu.referenced_table_name IS NOT NULL
		ORDER BY kcu.constraint_name, kcu.ordinal_position`

	rows, err := m.db.Query(ctx, q, table)
	if err != nil {
		return nil, fmt.Errorf("foreign keys %s: %w", table, err)
	}
	raw, err := database.Collect(rows, func(r database.Rows) (mysqlFKRow, error) {
		var fr mysqlFKRow
		err := r.Scan(&fr.name, &fr.column, &fr.refSchema, &fr.refTable, &fr.refColumn, &fr.onUpdate, &fr.onDelete)
		return fr, err
	})
	if err != nil {
		return nil, err
	}

	return group(raw,
		func(fr mysqlFKRow) string { return fr.name },
		func(fr mysqlFKRow) ForeignKey {
			return ForeignKey{
				Name:           fr.name,
				ReferredSchema: nullString(fr.refSchema),
				ReferredTable:  fr.refTable,
				Options:        ForeignKeyOptions{OnUpdate: sqlAction(fr.onUpdate), OnDelete: sqlAction(fr.onDelete)},
			}
		},
		func(fk *ForeignKey, fr mysqlFKRow) {
			fk.ConstrainedColumns = append(fk.ConstrainedColumns, fr.column)
			fk.ReferredColumns = append(fk.ReferredColumns, fr.refColumn)
		},
	), nil
}

type mysqlIndexRow struct {
	name      string
	nonUnique int
	column    sql.NullString
}

// Indexes returns the non-primary indexes of table. Unique indexes are also
// MySQL's unique constraints and are marked as such.
func (m *MySQLReflector) Indexes(ctx context.Context, table string) ([]Index, error) {
	const q = `
		SELECT index_name, non_unique, column_name
		FROM information_schema.statistics
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		  AND index_name <> 'PRIMARY'
		ORDER BY index_name, seq_in_index`

	rows, err := m.db.Query(ctx, q, table)
	if err != nil {
		return nil, fmt.Errorf("indexes %s: %w", table, err)
	}
	raw, err := database.Collect(rows, func(r database.Rows) (mysqlIndexRow, error) {
		var ir mysqlIndexRow
		err := r.Scan(&ir.name, &ir.nonUnique, &ir.column)
		return ir, err
	})
	if err != nil {
		return nil, err
	}

	return group(raw,
		func(ir mysqlIndexRow) string { return ir.name },
		func(ir mysqlIndexRow) Index {
			ix := Index{Name: ir.name, Unique: ir.nonUnique == 0}
			if ix.Unique {
				ix.DuplicatesConstraint = ir.name
			}
			return ix
		},
		func(ix *Index, ir mysqlIndexRow) {
			// Functional key parts have no column name.
			ix.ColumnNames = append(ix.ColumnNames, ir.column.String)
		},
	), nil
}

type nameColumnRow struct{ name, column string }

// UniqueConstraints returns the UNIQUE constraints of table.
func (m *MySQLReflector) UniqueConstraints(ctx context.Context, table string) ([]UniqueConstraint, error) {
	const q = `
		SELECT tc.constraint_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON kcu.constraint_schema = tc.constraint_schema
		 AND kcu.constraint_name = tc.constraint_name
		 AND kcu.table_name = tc.table_name
		WHERE tc.table_schema = DATABASE()
		  AND tc.table_name = ?
		  AND tc.constraint_type = 'UNIQUE'
		ORDER BY tc.constraint_name, kcu.ordinal_position`

	rows, err := m.db.Query(ctx, q, table)
	if err != nil {
		return nil, fmt.Errorf("unique constraints %s: %w", table, err)
	}
	raw, err := database.Collect(rows, func(r database.Rows) (nameColumnRow, error) {
		var nc nameColumnRow
		err := r.Scan(&nc.name, &nc.column)
		return nc, err
	})
	if err != nil {
		return nil, err
	}

	return group(raw,
		func(nc nameColumnRow) string { return nc.name },
		func(nc nameColumnRow) UniqueConstraint { return UniqueConstraint{Name: nc.name} },
		func(uc *UniqueConstraint, nc nameColumnRow) { uc.ColumnNames = append(uc.ColumnNames, nc.column) },
	), nil
}

// CheckConstraints returns the CHECK constraints of table. Servers older
// than 8.0.16 have no information_schema.check_constraints; that is
// reported as not implemented.
func (m *MySQLReflector) CheckConstraints(ctx context.Context, table string) ([]CheckConstraint, error) {
	const q = `
		SELECT cc.constraint_name, cc.check_clause
		FROM information_schema.table_constraints tc
		JOIN information_schema.check_constraints cc
		  ON cc.constraint_schema = tc.constraint_schema
		 AND cc.constraint_name = tc.constraint_name
		WHERE tc.table_schema = DATABASE()
		  AND tc.table_name = ?
		  AND tc.constraint_type = 'CHECK'
		ORDER BY cc.constraint_name`

	rows, err := m.db.Query(ctx, q, table)
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, errs.Wrap(errs.ErrKindNotImplemented, "check constraints need MySQL 8.0.16+", err)
		}
		return nil, fmt.Errorf("check constraints %s: %w", table, err)
	}
	return database.Collect(rows, func(r database.Rows) (CheckConstraint, error) {
		var cc CheckConstraint
		err := r.Scan(&cc.Name, &cc.SQLText)
		return cc, err
	})
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// sqlAction normalises an information_schema referential action, dropping
// the default.
func sqlAction(rule string) string {
	rule = strings.ToUpper(strings.TrimSpace(rule))
	if rule == "NO ACTION" {
		return ""
	}
	return rule
}
