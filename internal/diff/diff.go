package diff

import (
	"reflect"
	"slices"
)

// Keyed is implemented by every descriptor that can be diffed by name.
type Keyed interface {
	DiffKey() string
}

// Items diffs two collections of named items. Names are processed in
// sorted order; items sharing a name are compared structurally.
func Items[T Keyed](one, two []T, a Aliases) *Record {
	byOne := index(one)
	byTwo := index(two)
	r := NewRecord(a)

	for _, name := range unionKeys(byOne, byTwo) {
		x, inOne := byOne[name]
		y, inTwo := byTwo[name]
		switch {
		case inOne && !inTwo:
			r.OneOnly = append(r.OneOnly, x)
		case inTwo && !inOne:
			r.TwoOnly = append(r.TwoOnly, y)
		case reflect.DeepEqual(x, y):
			r.Common = append(r.Common, x)
		default:
			r.addDiff(x, y)
		}
	}
	return r
}

// Lists diffs two table-keyed maps of item lists. A table present on one
// side only contributes its whole list to that side's bucket.
func Lists[T Keyed](one, two map[string][]T, a Aliases) Tables {
	out := Tables{}
	for _, table := range unionKeys(one, two) {
		x, inOne := one[table]
		y, inTwo := two[table]
		switch {
		case inOne && !inTwo:
			r := NewRecord(a)
			r.OneOnly = appendAll(r.OneOnly, x)
			out[table] = r
		case inTwo && !inOne:
			r := NewRecord(a)
			r.TwoOnly = appendAll(r.TwoOnly, y)
			out[table] = r
		default:
			out[table] = Items(x, y, a)
		}
	}
	return out
}

// Scalars diffs two table-keyed maps holding a single descriptor per table.
// A table present on one side only becomes that side's only-value, the
// descriptor itself rather than a list.
func Scalars[T any](one, two map[string]T, a Aliases) Tables {
	out := Tables{}
	for _, table := range unionKeys(one, two) {
		x, inOne := one[table]
		y, inTwo := two[table]
		r := NewRecord(a)
		switch {
		case inOne && !inTwo:
			r.OneValue = x
		case inTwo && !inOne:
			r.TwoValue = y
		case reflect.DeepEqual(x, y):
			r.Common = append(r.Common, x)
		default:
			r.addDiff(x, y)
		}
		out[table] = r
	}
	return out
}

func index[T Keyed](items []T) map[string]T {
	m := make(map[string]T, len(items))
	for _, it := range items {
		m[it.DiffKey()] = it
	}
	return m
}

func unionKeys[V any](one, two map[string]V) []string {
	keys := make([]string, 0, len(one)+len(two))
	for k := range one {
		keys = append(keys, k)
	}
	for k := range two {
		if _, ok := one[k]; !ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}

func appendAll[T any](dst []any, src []T) []any {
	for _, v := range src {
		dst = append(dst, v)
	}
	return dst
}

// isEmpty reports whether an only-bucket carries nothing: an empty list
// or a zero descriptor.
func isEmpty(v any) bool {
	switch x := v.(type) {
	case []any:
		return len(x) == 0
	case interface{ IsZero() bool }:
		return x.IsZero()
	}
	rv := reflect.ValueOf(v)
	return !rv.IsValid() || rv.IsZero()
}
