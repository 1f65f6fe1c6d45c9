package mysql

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/schemadiff/internal/database"
	"github.com/koustreak/schemadiff/internal/errs"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind errs.ErrKind
	}{
		{"deadline", context.DeadlineExceeded, errs.ErrKindTimeout},
		{"no rows", sql.ErrNoRows, errs.ErrKindNotFound},
		{"access denied", &mysql.MySQLError{Number: 1045, Message: "Access denied"}, errs.ErrKindPermissionDenied},
		{"unknown database", &mysql.MySQLError{Number: 1049}, errs.ErrKindConnectionFailed},
		{"unknown information_schema table", &mysql.MySQLError{Number: 1109}, errs.ErrKindNotFound},
		{"syntax", &mysql.MySQLError{Number: 1064}, errs.ErrKindQueryFailed},
		{"bad conn", mysql.ErrInvalidConn, errs.ErrKindConnectionFailed},
		{"other", errors.New("boom"), errs.ErrKindQueryFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapError(tt.err, "op")
			assert.Equal(t, tt.kind, errs.KindOf(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestNew_InvalidDSN(t *testing.T) {
	_, err := New(context.Background(), database.DefaultConfig(database.DriverMySQL, "not a dsn"))
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))
}

func TestRedact(t *testing.T) {
	mc, err := mysql.ParseDSN("app:secret@tcp(db.internal:3306)/shop")
	require.NoError(t, err)
	assert.Equal(t, "mysql://app@db.internal:3306/shop", redact(mc))
}

func TestDriver_BeginAndQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	d := FromDB(db, "mysql://mock")
	assert.Equal(t, database.DriverMySQL, d.Driver())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT table_name").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("employees").AddRow("companies"))
	mock.ExpectRollback()

	ctx := context.Background()
	tx, err := d.Begin(ctx)
	require.NoError(t, err)
	assert.Equal(t, "mysql://mock", tx.Name())

	rows, err := tx.Query(ctx, "SELECT table_name FROM information_schema.tables")
	require.NoError(t, err)
	names, err := database.CollectStrings(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"employees", "companies"}, names)

	require.NoError(t, tx.Rollback(ctx))
	require.NoError(t, tx.Rollback(ctx), "second rollback is a no-op")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDriver_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	d := FromDB(db, "mysql://mock")

	mock.ExpectQuery("SELECT").WillReturnError(&mysql.MySQLError{Number: 1146, Message: "Table doesn't exist"})

	_, err = d.Query(context.Background(), "SELECT 1")
	require.Error(t, err)
	assert.True(t, errs.IsQueryFailed(err))
	assert.Contains(t, err.Error(), "Table doesn't exist")
}
