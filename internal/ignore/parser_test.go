package ignore

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/koustreak/schemadiff/internal/errs"
)

type keys []string

func (k keys) Has(key string) bool {
	for _, s := range k {
		if s == key {
			return true
		}
	}
	return false
}

var registered = keys{"tables", "columns", "primary_keys", "foreign_keys", "indexes", "unique_constraints", "check_constraints", "enums"}

func TestParse_Valid(t *testing.T) {
	specs, err := NewParser().Parse(registered, []string{
		"table_name",
		"enums.enum_name",
		"table_name.columns.column_name",
		" spaced . indexes . idx_name ",
	})
	require.NoError(t, err)

	assert.Equal(t, []Spec{
		TableSpec{Table: "table_name"},
		EnumSpec{Name: "enum_name"},
		TableSpec{Table: "table_name", InspectorKey: "columns", ObjectName: "column_name"},
		TableSpec{Table: "spaced", InspectorKey: "indexes", ObjectName: "idx_name"},
	}, specs)
}

func TestParse_EmptyInput(t *testing.T) {
	for _, raw := range [][]string{nil, {}} {
		specs, err := NewParser().Parse(registered, raw)
		require.NoError(t, err)
		assert.NotNil(t, specs)
		assert.Empty(t, specs)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		kind    errs.ErrKind
		message string
	}{
		{"empty string", "", errs.ErrKindInvalidInput, `invalid ignore clause format: ""`},
		{"only separators", " . . ", errs.ErrKindInvalidInput, `invalid ignore clause format: " . . "`},
		{"two segments not enums", "table_name.columns", errs.ErrKindInvalidInput, `invalid ignore clause format: "table_name.columns"`},
		{"four segments", "a.b.c.d", errs.ErrKindInvalidInput, `invalid ignore clause format: "a.b.c.d"`},
		{"unknown inspector", "table_name.unknown.column", errs.ErrKindUnknownInspector, `invalid ignore clause, no inspector found: "table_name.unknown.column"`},
		{"four segments with known key", "a.columns.c.d", errs.ErrKindInvalidInput, `invalid ignore clause format: "a.columns.c.d"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser().Parse(registered, []string{"ok_table", tt.raw})
			require.Error(t, err)
			assert.Equal(t, tt.kind, errs.KindOf(err))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestParse_CustomSeparator(t *testing.T) {
	specs, err := Parser{Separator: "/"}.Parse(registered, []string{"t/columns/c.with.dots"})
	require.NoError(t, err)
	assert.Equal(t, []Spec{TableSpec{Table: "t", InspectorKey: "columns", ObjectName: "c.with.dots"}}, specs)
}

func TestParse_Property_SegmentCount(t *testing.T) {
	segment := rapid.StringMatching(`[a-z_]{1,8}`)

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 5).Draw(t, "segments")
		parts := make([]string, n)
		for i := range parts {
			parts[i] = segment.Draw(t, "segment")
		}
		if n == 3 {
			parts[1] = rapid.SampledFrom([]string(registered)).Draw(t, "key")
		}
		raw := strings.Join(parts, ".")

		specs, err := NewParser().Parse(registered, []string{raw})
		switch {
		case n == 1, n == 3, n == 2 && parts[0] == "enums":
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", raw, err)
			}
			if len(specs) != 1 {
				t.Fatalf("expected one spec for %q, got %d", raw, len(specs))
			}
		default:
			if !errs.IsInvalidInput(err) {
				t.Fatalf("expected invalid input for %q, got %v", raw, err)
			}
		}
	})
}
