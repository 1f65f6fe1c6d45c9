package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/schemadiff/internal/database"
	"github.com/koustreak/schemadiff/internal/database/sqlite"
)

const usersDDL = `CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT NOT NULL);`

func sqliteFile(t *testing.T, dir, name, ddl string) string {
	t.Helper()
	ctx := context.Background()
	p := filepath.Join(dir, name)

	d, err := sqlite.New(ctx, database.DefaultConfig(database.DriverSQLite, p))
	require.NoError(t, err)
	defer d.Close()

	_, err = d.Exec(ctx, ddl)
	require.NoError(t, err)
	return "sqlite://" + p
}

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	args = append([]string{"--config-dir", t.TempDir(), "--log-level", "error"}, args...)
	code := Execute(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestInspectorsCommand(t *testing.T) {
	code, out, _ := run(t, "inspectors")
	require.Equal(t, ExitOK, code)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 8)
	assert.True(t, strings.HasPrefix(lines[0], "tables"))
	assert.Contains(t, lines[0], "database")
	assert.Contains(t, lines[1], "table")
}

func TestCompareCommand_Match(t *testing.T) {
	dir := t.TempDir()
	one := sqliteFile(t, dir, "one.db", usersDDL)
	two := sqliteFile(t, dir, "two.db", usersDDL)

	code, out, stderr := run(t, "compare", "--one", one, "--two", two)
	assert.Equal(t, ExitOK, code, stderr)
	assert.Empty(t, out)
}

func TestCompareCommand_LogsEffectiveAliases(t *testing.T) {
	dir := t.TempDir()
	one := sqliteFile(t, dir, "one.db", usersDDL)
	two := sqliteFile(t, dir, "two.db", usersDDL)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schemadiff.yaml"),
		[]byte("compare:\n  one_alias: \"\"\n  two_alias: \"\"\n"), 0o644))

	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), []string{
		"--config-dir", dir, "--log-level", "info", "--log-format", "json",
		"compare", "--one", one, "--two", two,
	}, &stdout, &stderr)
	require.Equal(t, ExitOK, code, stderr.String())
	assert.Contains(t, stderr.String(), "compared one with two: match=true")
}

func TestCompareCommand_Mismatch(t *testing.T) {
	dir := t.TempDir()
	one := sqliteFile(t, dir, "one.db", usersDDL)
	two := sqliteFile(t, dir, "two.db", usersDDL+`CREATE TABLE roles (id INTEGER PRIMARY KEY);`)
	errorsFile := filepath.Join(dir, "errors.yaml")
	resultFile := filepath.Join(dir, "result.yaml")

	code, out, stderr := run(t, "compare", "--one", one, "--two", two,
		"--two-alias", "next", "--format", "yaml",
		"--errors-file", errorsFile, "--result-file", resultFile)
	require.Equal(t, ExitMismatch, code, stderr)
	assert.Contains(t, out, "next_only")

	written, err := os.ReadFile(errorsFile)
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(out), strings.TrimSpace(string(written)))

	full, err := os.ReadFile(resultFile)
	require.NoError(t, err)
	assert.Contains(t, string(full), "common:")
}

func TestCompareCommand_IgnoreProducesMatch(t *testing.T) {
	dir := t.TempDir()
	one := sqliteFile(t, dir, "one.db", usersDDL)
	two := sqliteFile(t, dir, "two.db", usersDDL+`CREATE TABLE roles (id INTEGER PRIMARY KEY);`)

	code, _, stderr := run(t, "compare", "--one", one, "--two", two, "--ignore", "roles")
	assert.Equal(t, ExitOK, code, stderr)
}

func TestCompareCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	one := sqliteFile(t, dir, "one.db", usersDDL)

	tests := []struct {
		name string
		args []string
		msg  string
	}{
		{"malformed ignore", []string{"--ignore", "users.columns"}, "invalid ignore clause format"},
		{"unknown inspector", []string{"--skip-inspector", "triggers"}, "unknown inspector: triggers"},
		{"bad format", []string{"--format", "xml"}, "unknown report format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"compare", "--one", one, "--two", one}, tt.args...)
			code, _, stderr := run(t, args...)
			assert.Equal(t, ExitError, code)
			assert.Contains(t, stderr, tt.msg)
		})
	}
}

func TestCompareCommand_UnsupportedScheme(t *testing.T) {
	code, _, stderr := run(t, "compare", "--one", "oracle://x", "--two", "oracle://y")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "unsupported database scheme")
}
