package schema

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/schemadiff/internal/database/sqlite"
	"github.com/koustreak/schemadiff/internal/errs"
)

const sqliteFixture = `
CREATE TABLE companies (
	id   INTEGER PRIMARY KEY,
	name VARCHAR(200) NOT NULL UNIQUE
);
CREATE TABLE employees (
	id         INTEGER PRIMARY KEY,
	name       TEXT NOT NULL,
	age        INTEGER DEFAULT 21,
	company_id INTEGER REFERENCES companies (id) ON DELETE CASCADE,
	CHECK (age > 0)
);
CREATE INDEX ix_employees_name ON employees (name);
CREATE TABLE skills (
	employee_id INTEGER,
	skill       TEXT,
	PRIMARY KEY (employee_id, skill),
	FOREIGN KEY (employee_id) REFERENCES employees
);
CREATE TABLE "users" (
	id    INTEGER CONSTRAINT pk_users PRIMARY KEY,
	email TEXT NOT NULL,
	"nick name" TEXT CONSTRAINT uq_nick UNIQUE,
	age   INTEGER CONSTRAINT ck_age CHECK (age >= (0)),
	manager_id INTEGER,
	CONSTRAINT uq_email UNIQUE (email COLLATE NOCASE),
	CONSTRAINT fk_manager FOREIGN KEY (manager_id) REFERENCES "users" (id),
	-- comments and 'quoted ( text' are skipped
	CHECK (email <> 'a,b')
);
`

func openFixture(t *testing.T) *SQLiteReflector {
	t.Helper()
	ctx := context.Background()

	d, err := sqlite.OpenMemory(ctx)
	require.NoError(t, err)
	t.Cleanup(d.Close)

	_, err = d.Exec(ctx, sqliteFixture)
	require.NoError(t, err)
	return NewSQLite(d)
}

func TestSQLiteReflector_Tables(t *testing.T) {
	r := openFixture(t)
	ctx := context.Background()

	names, err := r.TableNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"companies", "employees", "skills", "users"}, names)

	_, err = r.TableComment(ctx, "employees")
	assert.True(t, errs.IsNotImplemented(err))
}

func TestSQLiteReflector_Columns(t *testing.T) {
	r := openFixture(t)

	cols, err := r.Columns(context.Background(), "employees")
	require.NoError(t, err)
	require.Len(t, cols, 4)

	assert.Equal(t, "id", cols[0].Name)
	assert.True(t, cols[0].Autoincrement)
	assert.Equal(t, "INTEGER", cols[0].RawType.Raw)

	assert.Equal(t, "name", cols[1].Name)
	assert.False(t, cols[1].Nullable)

	assert.Equal(t, "age", cols[2].Name)
	require.NotNil(t, cols[2].Default)
	assert.Equal(t, "21", *cols[2].Default)
	assert.True(t, cols[2].Nullable)
	assert.False(t, cols[2].Autoincrement)
}

func TestSQLiteReflector_Keys(t *testing.T) {
	r := openFixture(t)
	ctx := context.Background()

	pk, err := r.PrimaryKey(ctx, "skills")
	require.NoError(t, err)
	assert.Equal(t, PrimaryKey{ConstrainedColumns: []string{"employee_id", "skill"}}, pk)

	fks, err := r.ForeignKeys(ctx, "employees")
	require.NoError(t, err)
	require.Len(t, fks, 1)
	assert.Equal(t, ForeignKey{
		ConstrainedColumns: []string{"company_id"},
		ReferredTable:      "companies",
		ReferredColumns:    []string{"id"},
		Options:            ForeignKeyOptions{OnDelete: "CASCADE"},
	}, fks[0])

	fks, err = r.ForeignKeys(ctx, "skills")
	require.NoError(t, err)
	require.Len(t, fks, 1)
	assert.Equal(t, []string{"id"}, fks[0].ReferredColumns, "implicit reference resolves to the primary key")
}

func TestSQLiteReflector_IndexesAndConstraints(t *testing.T) {
	r := openFixture(t)
	ctx := context.Background()

	idx, err := r.Indexes(ctx, "employees")
	require.NoError(t, err)
	assert.Equal(t, []Index{{Name: "ix_employees_name", ColumnNames: []string{"name"}}}, idx)

	ucs, err := r.UniqueConstraints(ctx, "companies")
	require.NoError(t, err)
	assert.Equal(t, []UniqueConstraint{{ColumnNames: []string{"name"}}}, ucs)

	idx, err = r.Indexes(ctx, "companies")
	require.NoError(t, err)
	assert.Empty(t, idx, "automatic unique indexes are not reported as indexes")

	ccs, err := r.CheckConstraints(ctx, "employees")
	require.NoError(t, err)
	assert.Equal(t, []CheckConstraint{{SQLText: "age > 0"}}, ccs)

	ccs, err = r.CheckConstraints(ctx, "companies")
	require.NoError(t, err)
	assert.Empty(t, ccs)
}

func TestSQLiteReflector_ConstraintNames(t *testing.T) {
	r := openFixture(t)
	ctx := context.Background()

	pk, err := r.PrimaryKey(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, PrimaryKey{Name: "pk_users", ConstrainedColumns: []string{"id"}}, pk)

	ucs, err := r.UniqueConstraints(ctx, "users")
	require.NoError(t, err)
	assert.ElementsMatch(t, []UniqueConstraint{
		{Name: "uq_email", ColumnNames: []string{"email"}},
		{Name: "uq_nick", ColumnNames: []string{"nick name"}},
	}, ucs)

	fks, err := r.ForeignKeys(ctx, "users")
	require.NoError(t, err)
	require.Len(t, fks, 1)
	assert.Equal(t, "fk_manager", fks[0].Name)

	ccs, err := r.CheckConstraints(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, []CheckConstraint{
		{Name: "ck_age", SQLText: "age >= (0)"},
		{SQLText: "email <> 'a,b'"},
	}, ccs)
}

func TestParseSQLiteDDL(t *testing.T) {
	tests := []struct {
		name string
		ddl  string
		want sqliteDDL
	}{
		{
			name: "no body",
			ddl:  "CREATE TABLE t AS SELECT 1",
			want: sqliteDDL{uniques: map[string]string{}, foreignKeys: map[string]string{}},
		},
		{
			name: "table constraints",
			ddl: `CREATE TABLE [t] (a INT, b INT,
				CONSTRAINT pk_t PRIMARY KEY (a, b),
				CONSTRAINT uq_ab UNIQUE (A, b),
				CONSTRAINT fk_a FOREIGN KEY (a) REFERENCES other (id) ON DELETE CASCADE,
				CONSTRAINT ck_b CHECK (b IN (1, 2)))`,
			want: sqliteDDL{
				primaryKey:  "pk_t",
				uniques:     map[string]string{"a,b": "uq_ab"},
				foreignKeys: map[string]string{"other|a": "fk_a"},
				checks:      []CheckConstraint{{Name: "ck_b", SQLText: "b IN (1, 2)"}},
			},
		},
		{
			name: "name applies to the next constraint only",
			ddl:  "CREATE TABLE t (a TEXT CONSTRAINT nn NOT NULL UNIQUE DEFAULT ('x') CHECK (a != ''), b INT CONSTRAINT fk_b REFERENCES o)",
			want: sqliteDDL{
				uniques:     map[string]string{},
				foreignKeys: map[string]string{"o|b": "fk_b"},
				checks:      []CheckConstraint{{SQLText: "a != ''"}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSQLiteDDL(tt.ddl))
		})
	}
}
