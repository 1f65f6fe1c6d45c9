// Package schema reads structural metadata from a live connection.
//
// A Reflector lists tables and reports its dialect. Everything else is an
// optional capability expressed as a separate interface; callers probe for
// it with a type assertion. A capability method may also return an
// errs.ErrKindNotImplemented error when the server version cannot report
// the facet.
package schema

import (
	"context"

	"github.com/koustreak/schemadiff/internal/database"
	"github.com/koustreak/schemadiff/internal/errs"
)

// Reflector is the minimal reflection capability.
type Reflector interface {
	Dialect() Dialect
	TableNames(ctx context.Context) ([]string, error)
}

type TableCommentReflector interface {
	TableComment(ctx context.Context, table string) (string, error)
}

type ColumnReflector interface {
	Columns(ctx context.Context, table string) ([]Column, error)
}

// PrimaryKeyReflector returns the zero PrimaryKey for tables without one.
type PrimaryKeyReflector interface {
	PrimaryKey(ctx context.Context, table string) (PrimaryKey, error)
}

type ForeignKeyReflector interface {
	ForeignKeys(ctx context.Context, table string) ([]ForeignKey, error)
}

type IndexReflector interface {
	Indexes(ctx context.Context, table string) ([]Index, error)
}

type UniqueConstraintReflector interface {
	UniqueConstraints(ctx context.Context, table string) ([]UniqueConstraint, error)
}

type CheckConstraintReflector interface {
	CheckConstraints(ctx context.Context, table string) ([]CheckConstraint, error)
}

type EnumReflector interface {
	Enums(ctx context.Context) ([]Enum, error)
}

// Provider is implemented by connections that bring their own reflector.
type Provider interface {
	Reflector() Reflector
}

// For returns the reflector serving conn.
func For(conn database.Conn) (Reflector, error) {
	if p, ok := conn.(Provider); ok {
		return p.Reflector(), nil
	}

	switch conn.Driver() {
	case database.DriverPostgres:
		return NewPostgres(conn), nil
	case database.DriverMySQL:
		return NewMySQL(conn), nil
	case database.DriverSQLite:
		return NewSQLite(conn), nil
	default:
		return nil, errs.Newf(errs.ErrKindNotSupported, "no schema reflector for driver %q", conn.Driver())
	}
}

// group folds consecutive rows that share a key into one item each,
// preserving order.
func group[R, T any](rows []R, key func(R) string, start func(R) T, add func(*T, R)) []T {
	var (
		out  []T
		last string
	)
	for i, r := range rows {
		if k := key(r); i == 0 || k != last {
			out = append(out, start(r))
			last = k
		}
		add(&out[len(out)-1], r)
	}
	return out
}
