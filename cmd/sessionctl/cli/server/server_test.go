package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sessionctl/cli/cmd/sessionctl/cli/paths"
)

func setupClaudeDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(paths.EnvClaudeDir, dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "projects"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "todos"), 0o755))
}

func writeSession(t *testing.T, project, sessionID string, lines ...string) {
	t.Helper()
	path := paths.SessionFile(project, sessionID)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
}

func userLine(uuid, parent, sessionID, text string) string {
	return fmt.Sprintf(`{"type":"user","uuid":%q,"parentUuid":%s,"sessionId":%q,"timestamp":"2026-01-01T10:00:00.000Z","message":{"role":"user","content":%q}}`,
		uuid, parent, sessionID, text)
}

func doRequest(t *testing.T, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	New("127.0.0.1:0").Handler().ServeHTTP(rec, req)
	return rec
}

func TestListProjectsEndpoint(t *testing.T) {
	setupClaudeDir(t)
	writeSession(t, "-home-me-app", "s1", userLine("a", "null", "s1", "hello"))

	rec := doRequest(t, http.MethodGet, "/api/projects", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var projects []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &projects))
	require.Len(t, projects, 1)
	assert.Equal(t, "-home-me-app", projects[0]["name"])
	assert.Equal(t, float64(1), projects[0]["sessionCount"])
}

func TestListSessionsRequiresProject(t *testing.T) {
	setupClaudeDir(t)

	rec := doRequest(t, http.MethodGet, "/api/sessions", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReadSessionEndpoint(t *testing.T) {
	setupClaudeDir(t)
	writeSession(t, "proj", "sess-1", userLine("a", "null", "sess-1", "hello"))

	rec := doRequest(t, http.MethodGet, "/api/session?project=proj&session=sess-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var records []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "a", records[0]["uuid"])
}

func TestReadSessionNotFound(t *testing.T) {
	setupClaudeDir(t)
	require.NoError(t, os.MkdirAll(paths.ProjectDir("proj"), 0o755))

	rec := doRequest(t, http.MethodGet, "/api/session?project=proj&session=missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteMessageEndpoint(t *testing.T) {
	setupClaudeDir(t)
	writeSession(t, "proj", "sess-1",
		userLine("a", "null", "sess-1", "one"),
		userLine("b", `"a"`, "sess-1", "two"),
	)

	rec := doRequest(t, http.MethodDelete, "/api/message?project=proj&session=sess-1&uuid=b", "")
	require.Equal(t, http.StatusOK, rec.Code)

	data, err := os.ReadFile(paths.SessionFile("proj", "sess-1"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"uuid":"b"`)
}

func TestRenameSessionEndpoint(t *testing.T) {
	setupClaudeDir(t)
	writeSession(t, "proj", "sess-1", userLine("a", "null", "sess-1", "Old\n\nbody"))

	body := `{"project":"proj","session":"sess-1","title":"Renamed"}`
	rec := doRequest(t, http.MethodPost, "/api/session/rename", body)
	require.Equal(t, http.StatusOK, rec.Code)

	data, err := os.ReadFile(paths.SessionFile("proj", "sess-1"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Renamed")
}

func TestRenameSessionValidation(t *testing.T) {
	setupClaudeDir(t)

	rec := doRequest(t, http.MethodPost, "/api/session/rename", `{"project":"proj"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSplitSessionRejectionMapsTo400(t *testing.T) {
	setupClaudeDir(t)
	writeSession(t, "proj", "sess-1",
		userLine("a", "null", "sess-1", "one"),
		userLine("b", `"a"`, "sess-1", "two"),
	)

	body := `{"project":"proj","session":"sess-1","uuid":"a"}`
	rec := doRequest(t, http.MethodPost, "/api/session/split", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteSessionEndpoint(t *testing.T) {
	setupClaudeDir(t)
	writeSession(t, "proj", "sess-1", userLine("a", "null", "sess-1", "bye"))

	rec := doRequest(t, http.MethodDelete, "/api/session?project=proj&session=sess-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	_, err := os.Stat(paths.SessionFile("proj", "sess-1"))
	assert.True(t, os.IsNotExist(err))

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
}

func TestCleanupPreviewEndpoint(t *testing.T) {
	setupClaudeDir(t)
	writeSession(t, "proj", "sess-1",
		`{"type":"summary","summary":"nothing"}`,
	)

	rec := doRequest(t, http.MethodGet, "/api/cleanup", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var preview map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
	projects, ok := preview["projects"].([]any)
	require.True(t, ok)
	require.Len(t, projects, 1)
}

func TestVersionEndpoint(t *testing.T) {
	rec := doRequest(t, http.MethodGet, "/api/version", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "version")
}

func TestIndexServed(t *testing.T) {
	rec := doRequest(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sessionctl")
}
