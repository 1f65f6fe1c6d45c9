package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/schemadiff/internal/database"
	"github.com/koustreak/schemadiff/internal/errs"
	"github.com/koustreak/schemadiff/internal/filestore"
)

func write(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "one", cfg.Compare.OneAlias)
	assert.Equal(t, "two", cfg.Compare.TwoAlias)
	assert.Empty(t, cfg.Compare.Ignores)
	assert.Equal(t, 5*time.Minute, cfg.Compare.Timeout)
	assert.Equal(t, "json", cfg.Compare.Format)

	assert.Equal(t, int32(4), cfg.One.MaxConns)
	assert.Equal(t, 10*time.Second, cfg.Two.ConnectTimeout)
	assert.Equal(t, 30*time.Minute, cfg.One.MaxConnLifetime)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Nil(t, cfg.Log.Output)

	assert.Equal(t, filestore.ProviderMinIO, cfg.Storage.Provider)
	assert.False(t, cfg.Storage.Enabled())
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "schemadiff.yaml", `
one:
  uri: sqlite://one.db
two:
  driver: postgres
  dsn: postgres://localhost/two
compare:
  two_alias: staging
  ignores:
    - employees.columns.age
    - audit_log
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "sqlite://one.db", cfg.One.URI)
	assert.Equal(t, database.DriverPostgres, cfg.Two.Driver)
	assert.Equal(t, "staging", cfg.Compare.TwoAlias)
	assert.Equal(t, []string{"employees.columns.age", "audit_log"}, cfg.Compare.Ignores)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "schemadiff.yaml", "compare:\n  one_alias: from-file\n")
	t.Setenv("COMPARE_ONE_ALIAS", "from-env")
	t.Setenv("COMPARE_IGNORE_INSPECTORS", "enums,check_constraints")
	t.Setenv("ONE_MAX_CONNS", "9")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Compare.OneAlias)
	assert.Equal(t, []string{"enums", "check_constraints"}, cfg.Compare.IgnoreInspectors)
	assert.Equal(t, int32(9), cfg.One.MaxConns)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, ".env", "STORAGE_ENDPOINT=localhost:9000\nSTORAGE_BUCKET=reports\nLOG_LEVEL=debug\n")
	t.Setenv("STORAGE_ENDPOINT", "")
	t.Setenv("STORAGE_BUCKET", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.True(t, cfg.Storage.Enabled())
	assert.Equal(t, "reports", cfg.Storage.Bucket)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "schemadiff.yaml", "one: [unterminated\n")

	_, err := Load(dir)
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))
}

func TestCompareConfig_Options(t *testing.T) {
	c := CompareConfig{OneAlias: "a", TwoAlias: "b", Ignores: []string{"t"}, IgnoreInspectors: []string{"enums"}}
	opts := c.Options()

	assert.Equal(t, "a", opts.OneAlias)
	assert.Equal(t, "b", opts.TwoAlias)
	assert.Equal(t, []string{"t"}, opts.Ignores)
	assert.Equal(t, []string{"enums"}, opts.IgnoreInspectors)
}
