package database

import "context"

// Querier runs read statements. Reflectors only ever need this.
type Querier interface {
	// Query executes a SQL statement that returns multiple rows.
	Query(ctx context.Context, sql string, args ...any) (Rows, error)

	// QueryRow executes a SQL statement that returns at most one row.
	// Errors are deferred to Row.Scan.
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// Conn is a Querier that knows which engine it talks to.
type Conn interface {
	Querier

	// Driver identifies the engine, used to pick a schema reflector.
	Driver() Driver

	// Name is a credential-free description of the connection for logs.
	Name() string
}

// Tx is a transaction-scoped Conn. Comparisons only read, so callers
// normally Rollback when done.
type Tx interface {
	Conn
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DB is the central contract for a pooled database handle.
// All layers above this package talk only to this interface;
// they never import the postgres, mysql or sqlite packages directly.
type DB interface {
	Conn

	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Begin starts a transaction that pins one connection. Drivers open it
	// read-only where the engine allows.
	Begin(ctx context.Context) (Tx, error)

	// Close releases all resources held by the connection pool.
	Close()
}

// Rows is an abstraction over a database result set.
// Callers must always call Close() when done, even on error.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Columns() ([]string, error)
	Close()
	Err() error
}

// Row is an abstraction over a single database row.
type Row interface {
	Scan(dest ...any) error
}
