package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/schemadiff/internal/database"
	"github.com/koustreak/schemadiff/internal/errs"
)

func TestOpenMemory(t *testing.T) {
	ctx := context.Background()
	d, err := OpenMemory(ctx)
	require.NoError(t, err)
	defer d.Close()

	assert.Equal(t, database.DriverSQLite, d.Driver())
	assert.Equal(t, "sqlite://:memory:", d.Name())

	_, err = d.Exec(ctx, `CREATE TABLE employees (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`)
	require.NoError(t, err)

	tx, err := d.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `SELECT name FROM sqlite_master WHERE type = 'table'`)
	require.NoError(t, err)
	names, err := database.CollectStrings(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"employees"}, names)
}

func TestQuery_Error(t *testing.T) {
	ctx := context.Background()
	d, err := OpenMemory(ctx)
	require.NoError(t, err)
	defer d.Close()

	_, err = d.Query(ctx, `SELECT * FROM missing_table`)
	require.Error(t, err)
	assert.True(t, errs.IsQueryFailed(err))
}

func TestNew_EmptyDSN(t *testing.T) {
	_, err := New(context.Background(), &database.Config{Driver: database.DriverSQLite})
	assert.True(t, errs.IsInvalidInput(err))
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "file:test.db", redact("file:test.db?_pragma=key(secret)"))
}

func TestClassifyCode(t *testing.T) {
	assert.Equal(t, errs.ErrKindTimeout, classifyCode(codeBusy))
	assert.Equal(t, errs.ErrKindTimeout, classifyCode(codeBusy|(1<<8)), "extended codes use the primary code")
	assert.Equal(t, errs.ErrKindConnectionFailed, classifyCode(codeCantOpen))
	assert.Equal(t, errs.ErrKindQueryFailed, classifyCode(1))
}
