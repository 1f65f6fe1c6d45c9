package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/koustreak/schemadiff/internal/database"
	"github.com/koustreak/schemadiff/internal/errs"
)

// SQLiteReflector reads schema metadata through the pragma table-valued
// functions. Constraint names and CHECK clauses exist only in the stored
// CREATE TABLE text and are parsed from there; constraints declared
// without a name are reported unnamed.
type SQLiteReflector struct {
	db database.Querier
}

// NewSQLite creates a SQLite reflector.
func NewSQLite(db database.Querier) *SQLiteReflector {
	return &SQLiteReflector{db: db}
}

func (s *SQLiteReflector) Dialect() Dialect { return SQLiteDialect{} }

// TableNames returns all user tables.
func (s *SQLiteReflector) TableNames(ctx context.Context) ([]string, error) {
	const q = `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table'
		  AND name NOT LIKE 'sqlite\_%' ESCAPE '\'
		ORDER BY name`

	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return database.CollectStrings(rows)
}

// TableComment is not implemented: SQLite has no table comments.
func (s *SQLiteReflector) TableComment(context.Context, string) (string, error) {
	return "", errs.New(errs.ErrKindNotImplemented, "sqlite has no table comments")
}

func (s *SQLiteReflector) tableDDL(ctx context.Context, table string) (sqliteDDL, error) {
	const q = `
		SELECT sql
		FROM sqlite_master
		WHERE type = 'table' AND name = ?`

	rows, err := s.db.Query(ctx, q, table)
	if err != nil {
		return sqliteDDL{}, fmt.Errorf("table sql %s: %w", table, err)
	}
	text, err := database.Collect(rows, func(r database.Rows) (sql.NullString, error) {
		var ns sql.NullString
		err := r.Scan(&ns)
		return ns, err
	})
	if err != nil {
		return sqliteDDL{}, err
	}
	if len(text) == 0 {
		return parseSQLiteDDL(""), nil
	}
	return parseSQLiteDDL(text[0].String), nil
}

type sqliteColumnRow struct {
	name, declared string
	notNull, pk    int
	def            sql.NullString
}

func (s *SQLiteReflector) tableInfo(ctx context.Context, table string) ([]sqliteColumnRow, error) {
	const q = `
		SELECT name, type, "notnull", dflt_value, pk
		FROM pragma_table_info(?)
		ORDER BY cid`

	rows, err := s.db.Query(ctx, q, table)
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	return database.Collect(rows, func(r database.Rows) (sqliteColumnRow, error) {
		var cr sqliteColumnRow
		err := r.Scan(&cr.name, &cr.declared, &cr.notNull, &cr.def, &cr.pk)
		return cr, err
	})
}

// Columns returns the columns of table. A lone INTEGER PRIMARY KEY column is
// the rowid alias and reported as autoincrement.
func (s *SQLiteReflector) Columns(ctx context.Context, table string) ([]Column, error) {
	info, err := s.tableInfo(ctx, table)
	if err != nil {
		return nil, err
	}

	pkCount := 0
	for _, cr := range info {
		if cr.pk > 0 {
			pkCount++
		}
	}

	cols := make([]Column, 0, len(info))
	for _, cr := range info {
		cols = append(cols, Column{
			Name:          cr.name,
			Nullable:      cr.notNull == 0,
			Default:       nullString(cr.def),
			Autoincrement: pkCount == 1 && cr.pk == 1 && strings.EqualFold(cr.declared, "INTEGER"),
			RawType:       ColumnType{Name: cr.declared, Raw: cr.declared},
		})
	}
	return cols, nil
}

// PrimaryKey returns the primary key of table, or the zero value.
func (s *SQLiteReflector) PrimaryKey(ctx context.Context, table string) (PrimaryKey, error) {
	pk, err := s.primaryKeyColumns(ctx, table)
	if err != nil || pk.IsZero() {
		return pk, err
	}
	ddl, err := s.tableDDL(ctx, table)
	if err != nil {
		return PrimaryKey{}, err
	}
	pk.Name = ddl.primaryKey
	return pk, nil
}

func (s *SQLiteReflector) primaryKeyColumns(ctx context.Context, table string) (PrimaryKey, error) {
	const q = `
		SELECT name
		FROM pragma_table_info(?)
		WHERE pk > 0
		ORDER BY pk`

	rows, err := s.db.Query(ctx, q, table)
	if err != nil {
		return PrimaryKey{}, fmt.Errorf("primary key %s: %w", table, err)
	}
	cols, err := database.CollectStrings(rows)
	if err != nil || len(cols) == 0 {
		return PrimaryKey{}, err
	}
	return PrimaryKey{ConstrainedColumns: cols}, nil
}

type sqliteFKRow struct {
	id                 int
	refTable, from     string
	to                 sql.NullString
	onUpdate, onDelete string
}

// ForeignKeys returns the foreign keys declared on table.
func (s *SQLiteReflector) ForeignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	const q = `
		SELECT id, "table", "from", "to", on_update, on_delete
		FROM pragma_foreign_key_list(?)
		ORDER BY id, seq`

	rows, err := s.db.Query(ctx, q, table)
	if err != nil {
		return nil, fmt.Errorf("foreign keys %s: %w", table, err)
	}
	raw, err := database.Collect(rows, func(r database.Rows) (sqliteFKRow, error) {
		var fr sqliteFKRow
		err := r.Scan(&fr.id, &fr.refTable, &fr.from, &fr.to, &fr.onUpdate, &fr.onDelete)
		return fr, err
	})
	if err != nil {
		return nil, err
	}

	fks := group(raw,
		func(fr sqliteFKRow) string { return strconv.Itoa(fr.id) },
		func(fr sqliteFKRow) ForeignKey {
			return ForeignKey{
				ReferredTable: fr.refTable,
				Options:       ForeignKeyOptions{OnUpdate: sqlAction(fr.onUpdate), OnDelete: sqlAction(fr.onDelete)},
			}
		},
		func(fk *ForeignKey, fr sqliteFKRow) {
			fk.ConstrainedColumns = append(fk.ConstrainedColumns, fr.from)
			fk.ReferredColumns = append(fk.ReferredColumns, fr.to.String)
		},
	)

	// A reference without a column list targets the referred primary key.
	for i := range fks {
		if fks[i].ReferredColumns[0] != "" {
			continue
		}
		pk, err := s.primaryKeyColumns(ctx, fks[i].ReferredTable)
		if err != nil {
			return nil, err
		}
		fks[i].ReferredColumns = pk.ConstrainedColumns
	}

	if len(fks) == 0 {
		return fks, nil
	}
	ddl, err := s.tableDDL(ctx, table)
	if err != nil {
		return nil, err
	}
	for i := range fks {
		fks[i].Name = ddl.foreignKeys[foreignKeyKey(fks[i].ReferredTable, fks[i].ConstrainedColumns)]
	}
	return fks, nil
}

type sqliteIndexRow struct {
	name   string
	unique int
	origin string
}

func (s *SQLiteReflector) indexList(ctx context.Context, table string) ([]sqliteIndexRow, error) {
	const q = `
		SELECT name, "unique", origin
		FROM pragma_index_list(?)
		ORDER BY name`

	rows, err := s.db.Query(ctx, q, table)
	if err != nil {
		return nil, fmt.Errorf("index list %s: %w", table, err)
	}
	return database.Collect(rows, func(r database.Rows) (sqliteIndexRow, error) {
		var ir sqliteIndexRow
		err := r.Scan(&ir.name, &ir.unique, &ir.origin)
		return ir, err
	})
}

func (s *SQLiteReflector) indexColumns(ctx context.Context, index string) ([]string, error) {
	const q = `
		SELECT name
		FROM pragma_index_info(?)
		ORDER BY seqno`

	rows, err := s.db.Query(ctx, q, index)
	if err != nil {
		return nil, fmt.Errorf("index info %s: %w", index, err)
	}
	// Expression key parts have a NULL name.
	return database.Collect(rows, func(r database.Rows) (string, error) {
		var name sql.NullString
		err := r.Scan(&name)
		return name.String, err
	})
}

// Indexes returns the indexes created with CREATE INDEX. Automatic indexes
// behind PRIMARY KEY and UNIQUE clauses are excluded.
func (s *SQLiteReflector) Indexes(ctx context.Context, table string) ([]Index, error) {
	list, err := s.indexList(ctx, table)
	if err != nil {
		return nil, err
	}

	var out []Index
	for _, ir := range list {
		if ir.origin != "c" {
			continue
		}
		cols, err := s.indexColumns(ctx, ir.name)
		if err != nil {
			return nil, err
		}
		out = append(out, Index{Name: ir.name, ColumnNames: cols, Unique: ir.unique == 1})
	}
	return out, nil
}

// UniqueConstraints returns the table's UNIQUE clauses.
func (s *SQLiteReflector) UniqueConstraints(ctx context.Context, table string) ([]UniqueConstraint, error) {
	list, err := s.indexList(ctx, table)
	if err != nil {
		return nil, err
	}
	ddl, err := s.tableDDL(ctx, table)
	if err != nil {
		return nil, err
	}

	var out []UniqueConstraint
	for _, ir := range list {
		if ir.origin != "u" {
			continue
		}
		cols, err := s.indexColumns(ctx, ir.name)
		if err != nil {
			return nil, err
		}
		out = append(out, UniqueConstraint{Name: ddl.uniques[uniqueKey(cols)], ColumnNames: cols})
	}
	return out, nil
}

// CheckConstraints returns the CHECK clauses of table in declaration
// order, with the predicate text as written.
func (s *SQLiteReflector) CheckConstraints(ctx context.Context, table string) ([]CheckConstraint, error) {
	ddl, err := s.tableDDL(ctx, table)
	if err != nil {
		return nil, err
	}
	return ddl.checks, nil
}
