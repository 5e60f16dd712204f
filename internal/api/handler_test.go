package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmehra2102/TodoVault/internal/app"
	"github.com/dmehra2102/TodoVault/internal/infrastructure/memory"
	"github.com/dmehra2102/TodoVault/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testAPIKey = "test-key"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := zap.NewNop()
	svc := app.NewTodoService(memory.NewRepository(), logger, app.Pagination{})
	handler := NewHandler(svc, auth.NewVerifier(testAPIKey, ""), logger)

	mux := http.NewServeMux()
	handler.Register(mux)

	srv := httptest.NewServer(Chain(mux, Recovery(logger), RequestLog(logger)))
	t.Cleanup(srv.Close)
	return srv
}

func doRequest(t *testing.T, srv *httptest.Server, method, path, body string, authed bool) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if authed {
		req.Header.Set("X-API-Key", testAPIKey)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func createTodo(t *testing.T, srv *httptest.Server, body string) map[string]any {
	t.Helper()

	resp, data := doRequest(t, srv, http.MethodPost, "/api/v1/todos", body, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestHandler_CreateAndGet(t *testing.T) {
	srv := newTestServer(t)

	created := createTodo(t, srv, `{"name":"Study","priority":1}`)
	assert.Equal(t, "Study", created["name"])
	assert.Equal(t, float64(1), created["priority"])
	assert.Equal(t, "NEW", created["status"])
	assert.Equal(t, false, created["is_deleted"])

	id := int64(created["id"].(float64))
	resp, data := doRequest(t, srv, http.MethodGet, fmt.Sprintf("/api/v1/todos/%d", id), "", false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "Study", got["name"])
}

func TestHandler_CreateValidation(t *testing.T) {
	srv := newTestServer(t)

	resp, data := doRequest(t, srv, http.MethodPost, "/api/v1/todos", `{"name":"  ","priority":1}`, true)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(data, &envelope))
	assert.Equal(t, false, envelope["ok"])
	assert.Equal(t, "ValidationError", envelope["error"])

	resp, _ = doRequest(t, srv, http.MethodPost, "/api/v1/todos", `{"name":"x","priority":9}`, true)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = doRequest(t, srv, http.MethodPost, "/api/v1/todos", `{"name":"x","priority":1,"status":"LATER"}`, true)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = doRequest(t, srv, http.MethodPost, "/api/v1/todos", `not json`, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandler_MutatingRoutesRequireAuth(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doRequest(t, srv, http.MethodPost, "/api/v1/todos", `{"name":"x","priority":1}`, false)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doRequest(t, srv, http.MethodDelete, "/api/v1/todos/1", "", false)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Reads stay public.
	resp, _ = doRequest(t, srv, http.MethodGet, "/api/v1/todos", "", false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandler_SoftDeleteRestoreLifecycle(t *testing.T) {
	srv := newTestServer(t)

	created := createTodo(t, srv, `{"name":"Study","priority":1}`)
	id := int64(created["id"].(float64))
	path := fmt.Sprintf("/api/v1/todos/%d", id)

	resp, _ := doRequest(t, srv, http.MethodDelete, path, "", true)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doRequest(t, srv, http.MethodGet, path, "", false)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, data := doRequest(t, srv, http.MethodGet, path+"?include_deleted=true", "", false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, true, got["is_deleted"])

	resp, _ = doRequest(t, srv, http.MethodPost, path+"/restore", "", true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doRequest(t, srv, http.MethodGet, path, "", false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandler_ReplaceAndPatch(t *testing.T) {
	srv := newTestServer(t)

	created := createTodo(t, srv, `{"name":"before","description":"old","priority":1}`)
	id := int64(created["id"].(float64))
	path := fmt.Sprintf("/api/v1/todos/%d", id)

	resp, data := doRequest(t, srv, http.MethodPut, path, `{"name":"after","priority":3}`, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "after", got["name"])
	assert.Equal(t, "", got["description"])
	assert.Equal(t, float64(3), got["priority"])

	resp, data = doRequest(t, srv, http.MethodPatch, path, `{"description":"patched"}`, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "after", got["name"])
	assert.Equal(t, "patched", got["description"])

	resp, _ = doRequest(t, srv, http.MethodPatch, path, `{}`, true)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestHandler_UpdateStatus(t *testing.T) {
	srv := newTestServer(t)

	created := createTodo(t, srv, `{"name":"x","priority":2}`)
	id := int64(created["id"].(float64))
	path := fmt.Sprintf("/api/v1/todos/%d/status", id)

	resp, data := doRequest(t, srv, http.MethodPatch, path, `{"status":"DONE"}`, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "DONE", got["status"])

	resp, _ = doRequest(t, srv, http.MethodPatch, path, `{"status":"MAYBE"}`, true)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestHandler_ListFiltersAndPagination(t *testing.T) {
	srv := newTestServer(t)

	createTodo(t, srv, `{"name":"alpha","priority":1}`)
	createTodo(t, srv, `{"name":"beta","priority":2,"status":"IN_PROGRESS"}`)
	createTodo(t, srv, `{"name":"gamma","priority":1,"description":"find me"}`)

	resp, data := doRequest(t, srv, http.MethodGet, "/api/v1/todos?priority=1&sort_by=id", "", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Items []map[string]any `json:"items"`
		Total int64            `json:"total"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.EqualValues(t, 2, out.Total)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "alpha", out.Items[0]["name"])

	resp, data = doRequest(t, srv, http.MethodGet, "/api/v1/todos?q=FIND", "", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(data, &out))
	assert.EqualValues(t, 1, out.Total)

	resp, data = doRequest(t, srv, http.MethodGet, "/api/v1/todos?sort_by=id&offset=1&limit=1", "", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(data, &out))
	assert.EqualValues(t, 3, out.Total)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "beta", out.Items[0]["name"])

	resp, _ = doRequest(t, srv, http.MethodGet, "/api/v1/todos?sort_by=bogus", "", false)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = doRequest(t, srv, http.MethodGet, "/api/v1/todos?limit=-3", "", false)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestHandler_Stats(t *testing.T) {
	srv := newTestServer(t)

	createTodo(t, srv, `{"name":"a","priority":1}`)
	createTodo(t, srv, `{"name":"b","priority":1}`)
	createTodo(t, srv, `{"name":"c","priority":3}`)

	resp, data := doRequest(t, srv, http.MethodGet, "/api/v1/todos/stats", "", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats map[string]int64
	require.NoError(t, json.Unmarshal(data, &stats))
	assert.EqualValues(t, 3, stats["total"])
	assert.EqualValues(t, 2, stats["high"])
	assert.EqualValues(t, 0, stats["medium"])
	assert.EqualValues(t, 1, stats["low"])
}

func TestHandler_Export(t *testing.T) {
	srv := newTestServer(t)

	createTodo(t, srv, `{"name":"only","priority":2}`)

	resp, data := doRequest(t, srv, http.MethodGet, "/api/v1/todos/export", "", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")

	var records []map[string]any
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 1)
	assert.Equal(t, "only", records[0]["name"])

	resp, data = doRequest(t, srv, http.MethodGet, "/api/v1/todos/export?format=csv", "", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.True(t, strings.HasPrefix(string(data), "id,name,description,priority,status"))

	resp, _ = doRequest(t, srv, http.MethodGet, "/api/v1/todos/export?format=xml", "", false)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestHandler_BadID(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doRequest(t, srv, http.MethodGet, "/api/v1/todos/abc", "", false)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = doRequest(t, srv, http.MethodGet, "/api/v1/todos/999", "", false)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandler_Health(t *testing.T) {
	srv := newTestServer(t)

	resp, data := doRequest(t, srv, http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(data))
}
