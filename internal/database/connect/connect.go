// Package connect turns configuration into live database handles. It is the
// only package that imports every driver.
package connect

import (
	"context"
	"net/url"
	"strings"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/koustreak/schemadiff/internal/database"
	"github.com/koustreak/schemadiff/internal/database/mysql"
	"github.com/koustreak/schemadiff/internal/database/postgres"
	"github.com/koustreak/schemadiff/internal/database/sqlite"
	"github.com/koustreak/schemadiff/internal/errs"
)

// Open resolves cfg and connects with the matching driver.
func Open(ctx context.Context, cfg *database.Config) (database.DB, error) {
	if cfg == nil {
		return nil, errs.New(errs.ErrKindInvalidInput, "nil database config")
	}
	resolved, err := Resolve(cfg)
	if err != nil {
		return nil, err
	}

	switch resolved.Driver {
	case database.DriverPostgres:
		return postgres.New(ctx, resolved)
	case database.DriverMySQL:
		return mysql.New(ctx, resolved)
	case database.DriverSQLite:
		return sqlite.New(ctx, resolved)
	default:
		return nil, errs.Newf(errs.ErrKindInvalidInput, "unsupported driver %q", resolved.Driver)
	}
}

// OpenURI is Open for a bare URI with default pool settings.
func OpenURI(ctx context.Context, uri string) (database.DB, error) {
	return Open(ctx, &database.Config{URI: uri})
}

// Resolve fills Driver and DSN from URI when they are not set explicitly.
// The input is not modified.
func Resolve(cfg *database.Config) (*database.Config, error) {
	out := *cfg
	if out.URI != "" && out.DSN == "" {
		driver, dsn, err := ParseURI(out.URI)
		if err != nil {
			return nil, err
		}
		if out.Driver == "" {
			out.Driver = driver
		}
		out.DSN = dsn
	}
	if out.DSN == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "database DSN or URI is required")
	}
	if out.Driver == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "database driver is required")
	}

	def := database.DefaultConfig(out.Driver, out.DSN)
	if out.MaxConns == 0 {
		out.MaxConns = def.MaxConns
	}
	if out.MaxConnLifetime == 0 {
		out.MaxConnLifetime = def.MaxConnLifetime
	}
	if out.MaxConnIdleTime == 0 {
		out.MaxConnIdleTime = def.MaxConnIdleTime
	}
	if out.ConnectTimeout == 0 {
		out.ConnectTimeout = def.ConnectTimeout
	}
	return &out, nil
}

// ParseURI maps a scheme-qualified URI to a driver and its native DSN:
//
//	postgres://u:p@host:5432/db      -> postgres, unchanged
//	postgresql://...                 -> postgres, unchanged
//	mysql://u:p@host:3306/db?x=y     -> mysql, u:p@tcp(host:3306)/db?x=y
//	sqlite:///abs/path.db            -> sqlite, /abs/path.db
//	sqlite://rel.db, sqlite://:memory: -> sqlite, rel.db / :memory:
//	file:path.db?mode=ro             -> sqlite, unchanged
func ParseURI(uri string) (database.Driver, string, error) {
	scheme, rest, ok := strings.Cut(uri, ":")
	if !ok {
		return "", "", errs.Newf(errs.ErrKindInvalidInput, "database URI %q has no scheme", uri)
	}

	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
		return database.DriverPostgres, uri, nil
	case "mysql":
		dsn, err := mysqlDSN(uri)
		if err != nil {
			return "", "", err
		}
		return database.DriverMySQL, dsn, nil
	case "sqlite", "sqlite3":
		path := strings.TrimPrefix(rest, "//")
		if path == "" {
			return "", "", errs.Newf(errs.ErrKindInvalidInput, "database URI %q has no path", uri)
		}
		return database.DriverSQLite, path, nil
	case "file":
		return database.DriverSQLite, uri, nil
	default:
		return "", "", errs.Newf(errs.ErrKindInvalidInput, "unsupported database scheme %q", scheme)
	}
}

func mysqlDSN(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", errs.Wrap(errs.ErrKindInvalidInput, "invalid mysql URI", err)
	}

	mc := gomysql.NewConfig()
	if u.User != nil {
		mc.User = u.User.Username()
		mc.Passwd, _ = u.User.Password()
	}
	mc.Net = "tcp"
	mc.Addr = u.Host
	if u.Port() == "" && u.Host != "" {
		mc.Addr = u.Host + ":3306"
	}
	mc.DBName = strings.TrimPrefix(u.Path, "/")

	dsn := mc.FormatDSN()
	if u.RawQuery != "" {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + u.RawQuery
	}
	return dsn, nil
}
