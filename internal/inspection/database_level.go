package inspection

import (
	"context"
	"maps"
	"slices"

	"github.com/koustreak/schemadiff/internal/database"
	"github.com/koustreak/schemadiff/internal/diff"
	"github.com/koustreak/schemadiff/internal/errs"
	"github.com/koustreak/schemadiff/internal/ignore"
	"github.com/koustreak/schemadiff/internal/schema"
)

// Tables inspects the set of tables and their comments.
type Tables struct{}

func (Tables) Key() string                    { return KeyTables }
func (Tables) DBLevel() bool                  { return true }
func (Tables) Supports(schema.Reflector) bool { return true }

// Inspect returns map[string]schema.Table keyed by table name. Comments are
// best effort: a dialect without comment support yields "".
func (t Tables) Inspect(ctx context.Context, conn database.Conn, specs []ignore.Spec) (Snapshot, error) {
	r, err := reflectorFor(conn, t)
	if err != nil {
		return nil, err
	}
	names, err := tableNames(ctx, r, ignore.Filter(specs, KeyTables))
	if err != nil {
		return nil, err
	}

	commenter, _ := r.(schema.TableCommentReflector)
	out := make(map[string]schema.Table, len(names))
	for _, name := range names {
		tbl := schema.Table{Name: name}
		if commenter != nil {
			comment, err := commenter.TableComment(ctx, name)
			switch {
			case err == nil:
				tbl.Comment = comment
			case !errs.IsNotImplemented(err):
				return nil, wrapTable("comment", name, err)
			}
		}
		out[name] = tbl
	}
	return out, nil
}

func (t Tables) Diff(one, two Snapshot, a diff.Aliases) (diff.Facet, error) {
	x, y, err := snapshotPair[map[string]schema.Table](KeyTables, one, two)
	if err != nil {
		return nil, err
	}
	return diff.Items(slices.Collect(maps.Values(x)), slices.Collect(maps.Values(y)), a), nil
}

// Enums inspects named enumerated types. Dialects without enum types
// report none.
type Enums struct{}

func (Enums) Key() string                    { return KeyEnums }
func (Enums) DBLevel() bool                  { return true }
func (Enums) Supports(schema.Reflector) bool { return true }

// Inspect returns []schema.Enum without the enums named by ignore rules.
func (e Enums) Inspect(ctx context.Context, conn database.Conn, specs []ignore.Spec) (Snapshot, error) {
	r, err := reflectorFor(conn, e)
	if err != nil {
		return nil, err
	}

	out := []schema.Enum{}
	er, ok := r.(schema.EnumReflector)
	if !ok {
		return out, nil
	}
	all, err := er.Enums(ctx)
	if err != nil {
		if errs.IsNotImplemented(err) {
			return out, nil
		}
		return nil, err
	}

	c := ignore.Filter(specs, KeyEnums)
	for _, en := range all {
		if !c.IsEnum(en.Name) {
			out = append(out, en)
		}
	}
	return out, nil
}

func (e Enums) Diff(one, two Snapshot, a diff.Aliases) (diff.Facet, error) {
	x, y, err := snapshotPair[[]schema.Enum](KeyEnums, one, two)
	if err != nil {
		return nil, err
	}
	return diff.Items(x, y, a), nil
}
