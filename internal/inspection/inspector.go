// Package inspection extracts one schema facet at a time from a connection
// and diffs two extractions of the same facet.
//
// Each facet is served by an Inspector registered under a unique key. The
// built-in inspectors register themselves in Default when the package is
// loaded; callers add their own with Register.
package inspection

import (
	"context"
	"fmt"

	"github.com/koustreak/schemadiff/internal/database"
	"github.com/koustreak/schemadiff/internal/diff"
	"github.com/koustreak/schemadiff/internal/errs"
	"github.com/koustreak/schemadiff/internal/ignore"
	"github.com/koustreak/schemadiff/internal/schema"
)

// Keys of the built-in inspectors, in registration order.
const (
	KeyTables            = "tables"
	KeyColumns           = "columns"
	KeyPrimaryKeys       = "primary_keys"
	KeyForeignKeys       = "foreign_keys"
	KeyIndexes           = "indexes"
	KeyUniqueConstraints = "unique_constraints"
	KeyCheckConstraints  = "check_constraints"
	KeyEnums             = "enums"
)

// Snapshot is the per-connection output of Inspect. Its concrete type is
// private to each inspector and only meaningful to the same inspector's Diff.
type Snapshot any

// Inspector extracts and diffs one schema facet.
type Inspector interface {
	// Key names the facet in results and in ignore rules.
	Key() string

	// DBLevel reports whether the facet is database-wide rather than
	// keyed by table.
	DBLevel() bool

	// Supports reports whether r offers the capability Inspect needs.
	Supports(r schema.Reflector) bool

	// Inspect returns the facet of conn with ignore rules applied. It fails
	// with an errs.ErrKindNotSupported error when the connection's
	// reflector lacks the capability.
	Inspect(ctx context.Context, conn database.Conn, specs []ignore.Spec) (Snapshot, error)

	// Diff compares two snapshots produced by Inspect.
	Diff(one, two Snapshot, aliases diff.Aliases) (diff.Facet, error)
}

// reflectorFor resolves the reflector of conn and runs the capability probe.
func reflectorFor(conn database.Conn, in Inspector) (schema.Reflector, error) {
	r, err := schema.For(conn)
	if err != nil {
		return nil, err
	}
	if !in.Supports(r) {
		return nil, errs.Newf(errs.ErrKindNotSupported,
			"%s dialect cannot reflect %s", r.Dialect().Name(), in.Key())
	}
	return r, nil
}

// tableNames lists the tables that survive table-wide ignore rules.
func tableNames(ctx context.Context, r schema.Reflector, c ignore.Clauses) ([]string, error) {
	all, err := r.TableNames(ctx)
	if err != nil {
		return nil, err
	}
	kept := make([]string, 0, len(all))
	for _, t := range all {
		if !c.IsTable(t) {
			kept = append(kept, t)
		}
	}
	return kept, nil
}

func snapshotPair[S any](key string, one, two Snapshot) (S, S, error) {
	x, ok1 := one.(S)
	y, ok2 := two.(S)
	if !ok1 || !ok2 {
		var zero S
		return zero, zero, errs.Newf(errs.ErrKindInvalidInput,
			"%s: cannot diff snapshots of type %T and %T", key, one, two)
	}
	return x, y, nil
}

func wrapTable(key, table string, err error) error {
	return fmt.Errorf("%s of %s: %w", key, table, err)
}
