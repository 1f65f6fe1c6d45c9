package inspection

import (
	"context"
	"strings"

	"github.com/koustreak/schemadiff/internal/database"
	"github.com/koustreak/schemadiff/internal/diff"
	"github.com/koustreak/schemadiff/internal/errs"
	"github.com/koustreak/schemadiff/internal/ignore"
	"github.com/koustreak/schemadiff/internal/schema"
)

// perTable is a table-level inspector whose snapshot is
// map[table][]T. C is the reflector capability it requires.
type perTable[T diff.Keyed, C any] struct {
	key   string
	fetch func(c C, ctx context.Context, table string) ([]T, error)

	// normalize runs before ignore matching, so rules can address
	// synthesized names.
	normalize func(r schema.Reflector, table string, item T) T

	// softEmpty turns a not-implemented reflector answer into no items.
	softEmpty bool
}

func (p perTable[T, C]) Key() string   { return p.key }
func (p perTable[T, C]) DBLevel() bool { return false }

func (p perTable[T, C]) Supports(r schema.Reflector) bool {
	_, ok := r.(C)
	return ok
}

func (p perTable[T, C]) Inspect(ctx context.Context, conn database.Conn, specs []ignore.Spec) (Snapshot, error) {
	r, err := reflectorFor(conn, p)
	if err != nil {
		return nil, err
	}
	c := ignore.Filter(specs, p.key)
	names, err := tableNames(ctx, r, c)
	if err != nil {
		return nil, err
	}

	capability := r.(C)
	out := make(map[string][]T, len(names))
	for _, table := range names {
		items, err := p.fetch(capability, ctx, table)
		if err != nil {
			if !p.softEmpty || !errs.IsNotImplemented(err) {
				return nil, wrapTable(p.key, table, err)
			}
			items = nil
		}

		kept := make([]T, 0, len(items))
		for _, it := range items {
			if p.normalize != nil {
				it = p.normalize(r, table, it)
			}
			if !c.IsClause(table, p.key, it.DiffKey()) {
				kept = append(kept, it)
			}
		}
		out[table] = kept
	}
	return out, nil
}

func (p perTable[T, C]) Diff(one, two Snapshot, a diff.Aliases) (diff.Facet, error) {
	x, y, err := snapshotPair[map[string][]T](p.key, one, two)
	if err != nil {
		return nil, err
	}
	return diff.Lists(x, y, a), nil
}

// NewColumns inspects table columns. Types are rendered with the dialect of
// the connection they were read from.
func NewColumns() Inspector {
	return perTable[schema.Column, schema.ColumnReflector]{
		key:   KeyColumns,
		fetch: schema.ColumnReflector.Columns,
		normalize: func(r schema.Reflector, _ string, col schema.Column) schema.Column {
			col.Type = r.Dialect().RenderType(col.RawType)
			col.RawType = schema.ColumnType{}
			return col
		},
	}
}

// NewForeignKeys inspects foreign keys. Unnamed keys are named
// _unnamed_fk_<referred table>_<constrained columns joined by _>.
func NewForeignKeys() Inspector {
	return perTable[schema.ForeignKey, schema.ForeignKeyReflector]{
		key:   KeyForeignKeys,
		fetch: schema.ForeignKeyReflector.ForeignKeys,
		normalize: func(_ schema.Reflector, _ string, fk schema.ForeignKey) schema.ForeignKey {
			if fk.Name == "" {
				fk.Name = "_unnamed_fk_" + fk.ReferredTable + "_" + strings.Join(fk.ConstrainedColumns, "_")
			}
			return fk
		},
	}
}

// NewIndexes inspects secondary indexes.
func NewIndexes() Inspector {
	return perTable[schema.Index, schema.IndexReflector]{
		key:   KeyIndexes,
		fetch: schema.IndexReflector.Indexes,
	}
}

// NewUniqueConstraints inspects unique constraints. Unnamed constraints are
// named unique_<table>_<columns joined by _>.
func NewUniqueConstraints() Inspector {
	return perTable[schema.UniqueConstraint, schema.UniqueConstraintReflector]{
		key:   KeyUniqueConstraints,
		fetch: schema.UniqueConstraintReflector.UniqueConstraints,
		normalize: func(_ schema.Reflector, table string, uc schema.UniqueConstraint) schema.UniqueConstraint {
			if uc.Name == "" {
				uc.Name = "unique_" + table + "_" + strings.Join(uc.ColumnNames, "_")
			}
			return uc
		},
	}
}

// NewCheckConstraints inspects check constraints. Dialects that cannot
// report them yield none. Unnamed checks are keyed by their predicate as
// _unnamed_ck_<table>_<sqltext>.
func NewCheckConstraints() Inspector {
	return perTable[schema.CheckConstraint, schema.CheckConstraintReflector]{
		key:   KeyCheckConstraints,
		fetch: schema.CheckConstraintReflector.CheckConstraints,
		normalize: func(_ schema.Reflector, table string, cc schema.CheckConstraint) schema.CheckConstraint {
			if cc.Name == "" {
				cc.Name = "_unnamed_ck_" + table + "_" + cc.SQLText
			}
			return cc
		},
		softEmpty: true,
	}
}

// PrimaryKeys inspects one primary key per table. A key named by an ignore
// rule is replaced by the empty descriptor rather than dropped.
type PrimaryKeys struct{}

func (PrimaryKeys) Key() string   { return KeyPrimaryKeys }
func (PrimaryKeys) DBLevel() bool { return false }

func (PrimaryKeys) Supports(r schema.Reflector) bool {
	_, ok := r.(schema.PrimaryKeyReflector)
	return ok
}

// Inspect returns map[string]schema.PrimaryKey.
func (pk PrimaryKeys) Inspect(ctx context.Context, conn database.Conn, specs []ignore.Spec) (Snapshot, error) {
	r, err := reflectorFor(conn, pk)
	if err != nil {
		return nil, err
	}
	c := ignore.Filter(specs, KeyPrimaryKeys)
	names, err := tableNames(ctx, r, c)
	if err != nil {
		return nil, err
	}

	pr := r.(schema.PrimaryKeyReflector)
	out := make(map[string]schema.PrimaryKey, len(names))
	for _, table := range names {
		key, err := pr.PrimaryKey(ctx, table)
		if err != nil {
			return nil, wrapTable(KeyPrimaryKeys, table, err)
		}
		if c.IsClause(table, KeyPrimaryKeys, key.Name) {
			key = schema.PrimaryKey{}
		}
		out[table] = key
	}
	return out, nil
}

func (pk PrimaryKeys) Diff(one, two Snapshot, a diff.Aliases) (diff.Facet, error) {
	x, y, err := snapshotPair[map[string]schema.PrimaryKey](KeyPrimaryKeys, one, two)
	if err != nil {
		return nil, err
	}
	return diff.Scalars(x, y, a), nil
}
