package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/schemadiff/internal/compare"
	"github.com/koustreak/schemadiff/internal/logger"
	"github.com/koustreak/schemadiff/internal/schema"
	"github.com/koustreak/schemadiff/internal/schema/schematest"
)

func reflector(tables ...string) *schematest.Reflector {
	cols := map[string][]schema.Column{}
	for _, t := range tables {
		cols[t] = []schema.Column{{Name: "id", RawType: schema.ColumnType{Raw: "integer"}}}
	}
	return &schematest.Reflector{Cols: cols}
}

func newTestServer(t *testing.T, one, two *schematest.Reflector, defaults compare.Options) *httptest.Server {
	t.Helper()
	cmp := compare.New(&schematest.DB{R: one}, &schematest.DB{R: two}, compare.WithLogger(logger.Nop()))
	srv := httptest.NewServer(New(cmp, Config{}, logger.Nop(), defaults, 0).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/v1/compare", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, reflector("a"), reflector("a"), compare.Options{})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv := newTestServer(t, reflector("a"), reflector("a"), compare.Options{})

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "req-42")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "req-42", resp.Header.Get(RequestIDHeader))
}

func TestInspectors(t *testing.T) {
	srv := newTestServer(t, reflector("a"), reflector("a"), compare.Options{})

	resp, err := http.Get(srv.URL + "/v1/inspectors")
	require.NoError(t, err)
	defer resp.Body.Close()

	var out struct {
		Inspectors []inspectorInfo `json:"inspectors"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Inspectors, 8)
	assert.Equal(t, inspectorInfo{Key: "tables", DBLevel: true}, out.Inspectors[0])
	assert.Equal(t, inspectorInfo{Key: "columns", DBLevel: false}, out.Inspectors[1])
}

func TestCompare_FullResult(t *testing.T) {
	srv := newTestServer(t, reflector("a"), reflector("a"), compare.Options{})

	resp, out := post(t, srv, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["is_match"])
	assert.NotEmpty(t, out["run_id"])

	result := out["result"].(map[string]any)
	assert.Len(t, result, 8)
	assert.NotContains(t, out, "errors")
}

func TestCompare_ErrorsOnlyWithAliases(t *testing.T) {
	srv := newTestServer(t, reflector("a"), reflector("a", "b"), compare.Options{})

	resp, out := post(t, srv, `{"one_alias": "prod", "two_alias": "dev", "errors_only": true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, out["is_match"])

	tables := out["errors"].(map[string]any)["tables"].(map[string]any)
	assert.Equal(t, []any{map[string]any{"name": "b", "comment": ""}}, tables["dev_only"])
}

func TestCompare_DefaultsApply(t *testing.T) {
	srv := newTestServer(t, reflector("a"), reflector("a", "b"), compare.Options{Ignores: []string{"b"}})

	_, out := post(t, srv, `{"errors_only": true}`)
	assert.Equal(t, true, out["is_match"])

	_, out = post(t, srv, `{"errors_only": true, "ignores": []}`)
	assert.Equal(t, false, out["is_match"])
}

func TestCompare_ValidationErrors(t *testing.T) {
	srv := newTestServer(t, reflector("a"), reflector("a"), compare.Options{})

	tests := []struct {
		name string
		body string
		kind string
	}{
		{"malformed body", `{"ignores": `, "invalid_input"},
		{"bad ignore", `{"ignores": ["a.columns"]}`, "invalid_input"},
		{"unknown inspector", `{"ignore_inspectors": ["triggers"]}`, "unknown_inspector"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, out := post(t, srv, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.kind, out["kind"])
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestCompare_InternalError(t *testing.T) {
	broken := reflector("a")
	broken.Err = assert.AnError
	srv := newTestServer(t, reflector("a"), broken, compare.Options{})

	resp, out := post(t, srv, "{}")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "unknown", out["kind"])
}
