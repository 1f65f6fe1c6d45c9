// Package diff computes set-theoretic differences between two snapshots of
// one schema facet.
//
// Every difference is a Record with four buckets: items only on side one,
// items only on side two, items equal on both sides, and pairs of items
// that share a name but differ. Side names are supplied by the caller as
// Aliases and become the JSON keys of the record.
package diff

import (
	"encoding/json"
	"strings"

	"github.com/koustreak/schemadiff/internal/errs"
)

// Aliases names the two compared sides.
type Aliases struct {
	One string
	Two string
}

// DefaultAliases returns the "one" / "two" pair.
func DefaultAliases() Aliases {
	return Aliases{One: "one", Two: "two"}
}

// OneOnly is the record key for items present only on side one.
func (a Aliases) OneOnly() string { return a.One + "_only" }

// TwoOnly is the record key for items present only on side two.
func (a Aliases) TwoOnly() string { return a.Two + "_only" }

// Validate rejects blank or identical aliases, which would collide as
// record keys.
func (a Aliases) Validate() error {
	if strings.TrimSpace(a.One) == "" || strings.TrimSpace(a.Two) == "" {
		return errs.New(errs.ErrKindInvalidInput, "aliases must not be blank")
	}
	if a.One == a.Two {
		return errs.Newf(errs.ErrKindInvalidInput, "aliases %q and %q collide", a.One, a.Two)
	}
	return nil
}

const (
	keyCommon = "common"
	keyDiff   = "diff"
)

// Pair holds the two versions of an item that differs between sides.
type Pair struct {
	One any
	Two any

	aliases Aliases
}

// MarshalJSON renders the pair as {<alias one>: ..., <alias two>: ...}.
func (p Pair) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{p.aliases.One: p.One, p.aliases.Two: p.Two})
}

// Record is the difference between two collections of named items.
//
// Scalars fills OneValue or TwoValue instead of the matching list when a
// table holds a single descriptor on one side only; the descriptor is then
// rendered as that side's only-value as is.
type Record struct {
	Aliases  Aliases
	OneOnly  []any
	TwoOnly  []any
	OneValue any
	TwoValue any
	Common   []any
	Diff     []Pair
}

// NewRecord returns a record with all four buckets present and empty.
func NewRecord(a Aliases) *Record {
	return &Record{
		Aliases: a,
		OneOnly: []any{},
		TwoOnly: []any{},
		Common:  []any{},
		Diff:    []Pair{},
	}
}

func (r *Record) addDiff(one, two any) {
	r.Diff = append(r.Diff, Pair{One: one, Two: two, aliases: r.Aliases})
}

// HasDifferences reports whether either only-bucket or the diff bucket is
// non-empty.
func (r *Record) HasDifferences() bool {
	return len(r.Errors()) > 0
}

func (r *Record) oneOnly() any {
	if r.OneValue != nil {
		return r.OneValue
	}
	return nonNil(r.OneOnly)
}

func (r *Record) twoOnly() any {
	if r.TwoValue != nil {
		return r.TwoValue
	}
	return nonNil(r.TwoOnly)
}

// MarshalJSON renders the record with alias-derived keys.
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		r.Aliases.OneOnly(): r.oneOnly(),
		r.Aliases.TwoOnly(): r.twoOnly(),
		keyCommon:           nonNil(r.Common),
		keyDiff:             nonNilPairs(r.Diff),
	})
}

// Errors returns the record stripped of the common bucket and of empty
// buckets, or nil when nothing remains. An empty descriptor counts as an
// empty bucket.
func (r *Record) Errors() map[string]any {
	out := map[string]any{}
	if v := r.oneOnly(); !isEmpty(v) {
		out[r.Aliases.OneOnly()] = v
	}
	if v := r.twoOnly(); !isEmpty(v) {
		out[r.Aliases.TwoOnly()] = v
	}
	if len(r.Diff) > 0 {
		out[keyDiff] = r.Diff
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Tables maps table names to the record of one table-scoped facet.
type Tables map[string]*Record

// Errors prunes every record and drops tables left empty. It returns nil
// when no table has differences.
func (t Tables) Errors() map[string]map[string]any {
	out := map[string]map[string]any{}
	for name, r := range t {
		if e := r.Errors(); e != nil {
			out[name] = e
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Facet is the diff output of one inspector: a *Record for database-level
// inspectors or Tables for table-level ones.
type Facet interface {
	json.Marshaler
	// ErrorView returns the pruned view, or nil when there is no difference.
	ErrorView() any
}

// ErrorView implements Facet.
func (r *Record) ErrorView() any {
	if e := r.Errors(); e != nil {
		return e
	}
	return nil
}

// MarshalJSON implements Facet.
func (t Tables) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]*Record(t))
}

// ErrorView implements Facet.
func (t Tables) ErrorView() any {
	if e := t.Errors(); e != nil {
		return e
	}
	return nil
}

func nonNil(v []any) []any {
	if v == nil {
		return []any{}
	}
	return v
}

func nonNilPairs(v []Pair) []Pair {
	if v == nil {
		return []Pair{}
	}
	return v
}
