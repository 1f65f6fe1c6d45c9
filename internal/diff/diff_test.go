package diff

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func (i item) DiffKey() string { return i.Name }

type key struct {
	Name    string   `json:"name"`
	Columns []string `json:"constrained_columns"`
}

func TestItems(t *testing.T) {
	one := []item{{"id", "INTEGER"}, {"age", "INTEGER"}, {"mobile", "TEXT"}}
	two := []item{{"id", "INTEGER"}, {"age", "SMALLINT"}, {"phone", "TEXT"}}

	r := Items(one, two, DefaultAliases())

	assert.Equal(t, []any{item{"mobile", "TEXT"}}, r.OneOnly)
	assert.Equal(t, []any{item{"phone", "TEXT"}}, r.TwoOnly)
	assert.Equal(t, []any{item{"id", "INTEGER"}}, r.Common)
	require.Len(t, r.Diff, 1)
	assert.Equal(t, item{"age", "INTEGER"}, r.Diff[0].One)
	assert.Equal(t, item{"age", "SMALLINT"}, r.Diff[0].Two)
	assert.True(t, r.HasDifferences())
}

func TestItems_SortedByName(t *testing.T) {
	one := []item{{"c", ""}, {"a", ""}, {"b", ""}}
	r := Items(one, one, DefaultAliases())
	assert.Equal(t, []any{item{"a", ""}, item{"b", ""}, item{"c", ""}}, r.Common)
}

func TestItems_Empty(t *testing.T) {
	r := Items[item](nil, nil, DefaultAliases())
	assert.False(t, r.HasDifferences())
	assert.Nil(t, r.Errors())

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"one_only":[],"two_only":[],"common":[],"diff":[]}`, string(data))
}

func TestLists(t *testing.T) {
	one := map[string][]item{
		"employees":      {{"id", "INTEGER"}, {"age", "INTEGER"}},
		"mobile_numbers": {{"id", "INTEGER"}},
	}
	two := map[string][]item{
		"employees":     {{"id", "INTEGER"}, {"age", "INTEGER"}},
		"phone_numbers": {{"id", "INTEGER"}, {"number", "TEXT"}},
	}

	out := Lists(one, two, DefaultAliases())

	require.Len(t, out, 3)
	assert.False(t, out["employees"].HasDifferences())
	assert.Len(t, out["employees"].Common, 2)
	assert.Equal(t, []any{item{"id", "INTEGER"}}, out["mobile_numbers"].OneOnly)
	assert.Empty(t, out["mobile_numbers"].TwoOnly)
	assert.Len(t, out["phone_numbers"].TwoOnly, 2)
}

func TestScalars(t *testing.T) {
	one := map[string]key{
		"employees": {Name: "pk_employees", Columns: []string{"id"}},
		"companies": {Name: "pk_companies", Columns: []string{"id"}},
		"scrubbed":  {},
		"only_one":  {Name: "pk_only", Columns: []string{"id"}},
	}
	two := map[string]key{
		"employees": {Name: "pk_employees", Columns: []string{"id"}},
		"companies": {Name: "pk_companies", Columns: []string{"id", "code"}},
		"only_two":  {},
	}

	out := Scalars(one, two, Aliases{One: "left", Two: "right"})

	assert.Equal(t, []any{one["employees"]}, out["employees"].Common)
	require.Len(t, out["companies"].Diff, 1)
	assert.Equal(t, two["companies"], out["companies"].Diff[0].Two)
	assert.Equal(t, one["only_one"], out["only_one"].OneValue)
	assert.True(t, out["only_one"].HasDifferences())
	assert.False(t, out["only_two"].HasDifferences(), "an empty descriptor counts as nothing")
	assert.Nil(t, out["scrubbed"].Errors())

	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"companies": {"left_only": [], "right_only": [], "common": [], "diff": [{
			"left": {"name": "pk_companies", "constrained_columns": ["id"]},
			"right": {"name": "pk_companies", "constrained_columns": ["id", "code"]}
		}]},
		"employees": {"left_only": [], "right_only": [], "diff": [],
			"common": [{"name": "pk_employees", "constrained_columns": ["id"]}]},
		"only_one": {"right_only": [], "common": [], "diff": [],
			"left_only": {"name": "pk_only", "constrained_columns": ["id"]}},
		"only_two": {"left_only": [], "common": [], "diff": [],
			"right_only": {"name": "", "constrained_columns": null}},
		"scrubbed": {"right_only": [], "common": [], "diff": [],
			"left_only": {"name": "", "constrained_columns": null}}
	}`, string(data))

	errors := out.Errors()
	assert.Equal(t, []string{"companies", "only_one"}, sortedKeys(errors))
	assert.Equal(t, one["only_one"], errors["only_one"]["left_only"])
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func TestRecord_JSONUsesAliases(t *testing.T) {
	r := Items([]item{{"a", "x"}}, []item{{"a", "y"}, {"b", "z"}}, Aliases{One: "left", Two: "right"})

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"left_only": [],
		"right_only": [{"name": "b", "type": "z"}],
		"common": [],
		"diff": [{"left": {"name": "a", "type": "x"}, "right": {"name": "a", "type": "y"}}]
	}`, string(data))
}

func TestTables_Errors(t *testing.T) {
	same := Items([]item{{"a", "x"}}, []item{{"a", "x"}}, DefaultAliases())
	changed := Items([]item{{"a", "x"}}, []item{{"a", "y"}}, DefaultAliases())

	tables := Tables{"same": same, "changed": changed}
	errors := tables.Errors()

	require.Len(t, errors, 1)
	assert.Contains(t, errors, "changed")
	assert.NotContains(t, errors["changed"], "common")
	assert.NotContains(t, errors["changed"], "one_only")
	assert.Contains(t, errors["changed"], "diff")

	assert.Nil(t, Tables{"same": same}.Errors())
	assert.Nil(t, Tables{"same": same}.ErrorView())
}

func TestAliases_Validate(t *testing.T) {
	assert.NoError(t, DefaultAliases().Validate())
	assert.Error(t, Aliases{One: "", Two: "two"}.Validate())
	assert.Error(t, Aliases{One: "x", Two: "x"}.Validate())
	assert.Equal(t, "prod_only", Aliases{One: "prod"}.OneOnly())
}
