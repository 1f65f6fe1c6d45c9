package compare

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/koustreak/schemadiff/internal/diff"
	"github.com/koustreak/schemadiff/internal/report"
)

// Result holds the diff of every inspector that ran in one comparison.
type Result struct {
	RunID   string
	Aliases diff.Aliases

	facets map[string]diff.Facet

	once   sync.Once
	errors map[string]any
}

func newResult(runID string, aliases diff.Aliases, facets map[string]diff.Facet) *Result {
	return &Result{RunID: runID, Aliases: aliases, facets: facets}
}

// NewResult wraps precomputed facets, keyed by inspector.
func NewResult(aliases diff.Aliases, facets map[string]diff.Facet) *Result {
	return newResult("", aliases, facets)
}

// Result returns the full diff keyed by inspector, including common items.
func (r *Result) Result() map[string]diff.Facet {
	return r.facets
}

// Facet returns the diff of a single inspector.
func (r *Result) Facet(key string) (diff.Facet, bool) {
	f, ok := r.facets[key]
	return f, ok
}

// Inspectors returns the sorted keys of the inspectors present in the result.
func (r *Result) Inspectors() []string {
	return slices.Sorted(maps.Keys(r.facets))
}

// Errors returns the result without common items, empty buckets, tables
// without differences or inspectors without differences.
func (r *Result) Errors() map[string]any {
	r.once.Do(func() {
		r.errors = make(map[string]any)
		for key, f := range r.facets {
			if v := f.ErrorView(); v != nil {
				r.errors[key] = v
			}
		}
	})
	return r.errors
}

// IsMatch reports whether the two schemas have no differences.
func (r *Result) IsMatch() bool {
	return len(r.Errors()) == 0
}

// MarshalResult encodes Result() as key-sorted, indented JSON.
func (r *Result) MarshalResult() ([]byte, error) {
	return report.Encode(r.facets, report.FormatJSON)
}

// MarshalErrors encodes Errors() as key-sorted, indented JSON.
func (r *Result) MarshalErrors() ([]byte, error) {
	return report.Encode(r.Errors(), report.FormatJSON)
}

// DumpResult writes MarshalResult to path and returns the written bytes.
func (r *Result) DumpResult(path string) ([]byte, error) {
	return dump(r.MarshalResult, path)
}

// DumpErrors writes MarshalErrors to path and returns the written bytes.
func (r *Result) DumpErrors(path string) ([]byte, error) {
	return dump(r.MarshalErrors, path)
}

func dump(marshal func() ([]byte, error), path string) ([]byte, error) {
	data, err := marshal()
	if err != nil {
		return nil, err
	}
	if err := report.WriteFile(path, data); err != nil {
		return nil, err
	}
	return data, nil
}

// View selects which part of a Result is encoded.
type View string

const (
	ViewResult View = "result"
	ViewErrors View = "errors"
)

// Encode renders the selected view in format f.
func (r *Result) Encode(v View, f report.Format) ([]byte, error) {
	if v == ViewErrors {
		return report.Encode(r.Errors(), f)
	}
	return report.Encode(r.facets, f)
}

// Publish encodes view v and writes it to dst as "<view>.<ext>".
func (r *Result) Publish(ctx context.Context, dst report.Destination, v View, f report.Format) (string, error) {
	data, err := r.Encode(v, f)
	if err != nil {
		return "", err
	}
	return dst.Write(ctx, string(v)+"."+f.Ext(), data, f)
}
