package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProfileAPI struct {
	mu      sync.Mutex
	tools   string
	auth    string
	deleted string
}

func (f *fakeProfileAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth = r.Header.Get("Authorization")

	switch r.Method {
	case http.MethodGet:
		w.Write([]byte(`{"id":"p-1","subscription_type":"free","tools":` + f.tools + `}`))
	case http.MethodPut:
		r.ParseMultipartForm(1 << 20)
		f.tools = r.FormValue("tools")
		w.Write([]byte(`{"id":"p-1","subscription_type":"free","tools":` + f.tools + `}`))
	case http.MethodDelete:
		f.deleted = r.URL.Path
		w.Write([]byte(`{"success":true,"message":"Tool deleted"}`))
	}
}

func run(t *testing.T, api *httptest.Server, args ...string) (string, error) {
	t.Helper()
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("KAFKA_BROKERS", "")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", t.TempDir(), "--api-url", api.URL, "--token", "tok"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestItemsAddSyncsCollection(t *testing.T) {
	api := &fakeProfileAPI{tools: `["vim"]`}
	srv := httptest.NewServer(api)
	defer srv.Close()

	out, err := run(t, srv, "items", "add", "tool", "name=emacs")
	require.NoError(t, err)

	var items []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	assert.Len(t, items, 2)
	assert.JSONEq(t, `["vim","emacs"]`, api.tools)
	assert.Equal(t, "Bearer tok", api.auth)
}

func TestItemsAddRejectsDuplicate(t *testing.T) {
	api := &fakeProfileAPI{tools: `["vim"]`}
	srv := httptest.NewServer(api)
	defer srv.Close()

	_, err := run(t, srv, "items", "add", "tool", "name=VIM")
	assert.Error(t, err)
	assert.JSONEq(t, `["vim"]`, api.tools)
}

func TestItemsDelete(t *testing.T) {
	api := &fakeProfileAPI{tools: `[{"id":3,"name":"vim"},{"id":4,"name":"nano"}]`}
	srv := httptest.NewServer(api)
	defer srv.Close()

	out, err := run(t, srv, "items", "delete", "tool", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Tool deleted")
	assert.Equal(t, "/profile/tool/3/", api.deleted)
	assert.JSONEq(t, `[{"id":4,"name":"nano"}]`, api.tools)
}

func TestProfileShow(t *testing.T) {
	srv := httptest.NewServer(&fakeProfileAPI{tools: `[]`})
	defer srv.Close()

	out, err := run(t, srv, "profile", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `"id": "p-1"`)
}

func TestUnknownKind(t *testing.T) {
	srv := httptest.NewServer(&fakeProfileAPI{tools: `[]`})
	defer srv.Close()

	_, err := run(t, srv, "items", "list", "hobby")
	assert.ErrorContains(t, err, "unknown kind")
}

func TestParseAssignments(t *testing.T) {
	fields, err := parseAssignments([]string{"company=Acme", "position = Dev", "note=a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"company": "Acme", "position": " Dev", "note": "a=b"}, fields)

	_, err = parseAssignments([]string{"novalue"})
	assert.Error(t, err)
	_, err = parseAssignments([]string{"id=3"})
	assert.Error(t, err)
}
