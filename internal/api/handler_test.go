package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gyaneshwarpardhi/eulerlevel/internal/api"
	"github.com/gyaneshwarpardhi/eulerlevel/internal/config"
	"github.com/gyaneshwarpardhi/eulerlevel/internal/engine"
	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	srv     *httptest.Server
	eng     *engine.Engine
	cfgPath string
}

func newFixture(t *testing.T, yaml string) *fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eulerlevel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	loader, err := config.NewLoader(path)
	require.NoError(t, err)
	require.NoError(t, config.Validate(loader.Config()))

	ctx, cancel := context.WithCancel(context.Background())
	eng := engine.New(ctx, loader.Config().Engine, slogt.New(t))
	srv := httptest.NewServer(api.New(eng, loader))
	t.Cleanup(func() {
		srv.Close()
		cancel()
		eng.Shutdown()
	})
	return &fixture{srv: srv, eng: eng, cfgPath: path}
}

func (f *fixture) post(t *testing.T, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(f.srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func (f *fixture) get(t *testing.T, path string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(f.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestComputeLevels(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "version: v1\n")
	resp, out := f.post(t, "/v1/levels", `{"tree":"ABCDEFG"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "A:0,B:1,C:1,D:2,E:2,F:2,G:2", out["output"])
	require.Equal(t, float64(12), out["ranks"])
	require.NotEmpty(t, out["job_id"])
	require.Len(t, out["levels"], 7)

	id, _ := out["job_id"].(string)
	resp, got := f.get(t, "/v1/levels/"+id)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, out["output"], got["output"])
}

func TestComputeLevels_BadInput(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "version: v1\n")

	resp, out := f.post(t, "/v1/levels", `{"tree":`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, out["error"], "invalid JSON")

	resp, out = f.post(t, "/v1/levels", `{}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "tree is required", out["error"])

	resp, out = f.post(t, "/v1/levels", `{"tree":"A,B"}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.Contains(t, out["error"], "invalid node label")

	resp, out = f.post(t, "/v1/levels", `{"tree":"ABC","ranks":2}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.Contains(t, out["error"], "rank count must equal")
}

func TestComputeBatch(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "version: v1\n")

	resp, out := f.post(t, "/v1/levels/batch", `[{"tree":"AB"},{"id":"mine","tree":"ABC"}]`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Equal(t, float64(2), out["total"])
	require.Equal(t, float64(2), out["queued"])
	require.Contains(t, out["job_ids"], "mine")

	require.Eventually(t, func() bool {
		resp, out := f.get(t, "/v1/levels/mine")
		return resp.StatusCode == http.StatusOK && out["output"] == "A:0,B:1,C:1"
	}, 2*time.Second, 10*time.Millisecond)

	resp, out = f.post(t, "/v1/levels/batch", `[{"id":"broken","tree":"A:B"}]`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Eventually(t, func() bool {
		resp, out := f.get(t, "/v1/levels/broken")
		return resp.StatusCode == http.StatusOK && out["error"] != nil
	}, 2*time.Second, 10*time.Millisecond)

	resp, out = f.get(t, "/v1/levels/unknown")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Contains(t, out["error"], "unknown")

	resp, _ = f.post(t, "/v1/levels/batch", `[]`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	big := "[" + strings.Repeat(`{"tree":"AB"},`, 100) + `{"tree":"AB"}]`
	resp, out = f.post(t, "/v1/levels/batch", big)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, out["error"], "exceeds max")
}

func TestConfigEndpoints(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "version: v1\nengine:\n  max_nodes: 2\n")

	resp, out := f.get(t, "/v1/config")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "v1", out["version"])

	resp, _ = f.post(t, "/v1/levels", `{"tree":"ABC"}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	require.NoError(t, os.WriteFile(f.cfgPath, []byte("version: v1\nengine:\n  max_nodes: 3\n"), 0o600))
	resp, out = f.post(t, "/v1/config/reload", ``)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, out["reloaded"])
	require.Equal(t, 3, f.eng.Conf().MaxNodes)

	resp, out = f.post(t, "/v1/levels", `{"tree":"ABC"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "A:0,B:1,C:1", out["output"])

	require.NoError(t, os.WriteFile(f.cfgPath, []byte("version: v1\nengine:\n  max_nodes: 5\nlog:\n  level: bogus\n"), 0o600))
	resp, out = f.post(t, "/v1/config/reload", ``)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.Contains(t, out["error"], "log.level")
	require.Equal(t, 3, f.eng.Conf().MaxNodes, "invalid config must not be applied")

	resp, out = f.get(t, "/v1/config")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "info", out["log"].(map[string]any)["Level"])
	require.Equal(t, float64(3), out["engine"].(map[string]any)["MaxNodes"])
}

func TestProbes(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "version: v1\n")

	resp, out := f.get(t, "/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", out["status"])

	resp, out = f.get(t, "/readyz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ready", out["status"])

	m, err := http.Get(f.srv.URL + "/metrics")
	require.NoError(t, err)
	defer m.Body.Close()
	require.Equal(t, http.StatusOK, m.StatusCode)
}
