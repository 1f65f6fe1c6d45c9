// Package schematest provides in-memory reflectors and connections for
// tests of code built on the schema package.
package schematest

import (
	"context"
	"maps"
	"slices"

	"github.com/koustreak/schemadiff/internal/database"
	"github.com/koustreak/schemadiff/internal/errs"
	"github.com/koustreak/schemadiff/internal/schema"
)

// Reflector serves a fixed schema and implements every capability.
type Reflector struct {
	DialectOf schema.Dialect // defaults to schema.SQLiteDialect

	Tables   []string // defaults to the sorted keys of Cols
	Comments map[string]string
	Cols     map[string][]schema.Column
	PKs      map[string]schema.PrimaryKey
	FKs      map[string][]schema.ForeignKey
	Idx      map[string][]schema.Index
	UCs      map[string][]schema.UniqueConstraint
	CCs      map[string][]schema.CheckConstraint
	EnumList []schema.Enum

	// Err, when set, is returned by every capability method.
	Err error
}

var (
	_ schema.TableCommentReflector     = (*Reflector)(nil)
	_ schema.ColumnReflector           = (*Reflector)(nil)
	_ schema.PrimaryKeyReflector       = (*Reflector)(nil)
	_ schema.ForeignKeyReflector       = (*Reflector)(nil)
	_ schema.IndexReflector            = (*Reflector)(nil)
	_ schema.UniqueConstraintReflector = (*Reflector)(nil)
	_ schema.CheckConstraintReflector  = (*Reflector)(nil)
	_ schema.EnumReflector             = (*Reflector)(nil)
)

func (r *Reflector) Dialect() schema.Dialect {
	if r.DialectOf == nil {
		return schema.SQLiteDialect{}
	}
	return r.DialectOf
}

func (r *Reflector) TableNames(context.Context) ([]string, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	if r.Tables != nil {
		return r.Tables, nil
	}
	return slices.Sorted(maps.Keys(r.Cols)), nil
}

func (r *Reflector) TableComment(_ context.Context, table string) (string, error) {
	return r.Comments[table], r.Err
}

func (r *Reflector) Columns(_ context.Context, table string) ([]schema.Column, error) {
	return slices.Clone(r.Cols[table]), r.Err
}

func (r *Reflector) PrimaryKey(_ context.Context, table string) (schema.PrimaryKey, error) {
	return r.PKs[table], r.Err
}

func (r *Reflector) ForeignKeys(_ context.Context, table string) ([]schema.ForeignKey, error) {
	return slices.Clone(r.FKs[table]), r.Err
}

func (r *Reflector) Indexes(_ context.Context, table string) ([]schema.Index, error) {
	return slices.Clone(r.Idx[table]), r.Err
}

func (r *Reflector) UniqueConstraints(_ context.Context, table string) ([]schema.UniqueConstraint, error) {
	return slices.Clone(r.UCs[table]), r.Err
}

func (r *Reflector) CheckConstraints(_ context.Context, table string) ([]schema.CheckConstraint, error) {
	return slices.Clone(r.CCs[table]), r.Err
}

func (r *Reflector) Enums(context.Context) ([]schema.Enum, error) {
	return slices.Clone(r.EnumList), r.Err
}

// Minimal hides every optional capability of the wrapped reflector.
type Minimal struct {
	R schema.Reflector
}

func (m Minimal) Dialect() schema.Dialect { return m.R.Dialect() }

func (m Minimal) TableNames(ctx context.Context) ([]string, error) {
	return m.R.TableNames(ctx)
}

// DB is a database.DB whose reflection is served by R. Its SQL methods
// always fail.
type DB struct {
	R        schema.Reflector
	ConnName string
	BeginErr error

	Begun      int
	RolledBack int
	Closed     bool
}

func (d *DB) Reflector() schema.Reflector { return d.R }
func (d *DB) Driver() database.Driver     { return database.Driver("fake") }

func (d *DB) Name() string {
	if d.ConnName == "" {
		return "fake://"
	}
	return d.ConnName
}

func (d *DB) Query(context.Context, string, ...any) (database.Rows, error) {
	return nil, errs.New(errs.ErrKindNotSupported, "fake connection runs no SQL")
}

func (d *DB) QueryRow(context.Context, string, ...any) database.Row {
	return errRow{}
}

func (d *DB) Ping(context.Context) error { return nil }
func (d *DB) Close()                     { d.Closed = true }

func (d *DB) Begin(context.Context) (database.Tx, error) {
	if d.BeginErr != nil {
		return nil, d.BeginErr
	}
	d.Begun++
	return &tx{db: d}, nil
}

type tx struct {
	db *DB
}

func (t *tx) Reflector() schema.Reflector { return t.db.R }
func (t *tx) Driver() database.Driver     { return t.db.Driver() }
func (t *tx) Name() string                { return t.db.Name() }

func (t *tx) Query(ctx context.Context, sql string, args ...any) (database.Rows, error) {
	return t.db.Query(ctx, sql, args...)
}

func (t *tx) QueryRow(ctx context.Context, sql string, args ...any) database.Row {
	return t.db.QueryRow(ctx, sql, args...)
}

func (t *tx) Commit(context.Context) error { return nil }

func (t *tx) Rollback(context.Context) error {
	t.db.RolledBack++
	return nil
}

type errRow struct{}

func (errRow) Scan(...any) error {
	return errs.New(errs.ErrKindNotSupported, "fake connection runs no SQL")
}
