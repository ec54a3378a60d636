package gemfire

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRESTRegionGet(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "secret", pass)
		switch r.URL.Path {
		case "/geode/v1/Entry/00001":
			w.Write([]byte(`{"title":"hello"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	region := NewRESTRegion(RESTOptions{
		BaseURL: ts.URL, Region: "Entry",
		Username: "admin", Password: "secret",
		HTTPClient: ts.Client(),
	})

	raw, err := region.Get(context.Background(), "00001")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"hello"}`, string(raw))

	_, err = region.Get(context.Background(), "00002")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestRESTRegionPut(t *testing.T) {
	var gotBody []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/geode/v1/Entry/00001", r.URL.Path)
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	region := NewRESTRegion(RESTOptions{BaseURL: ts.URL, Region: "Entry", HTTPClient: ts.Client()})
	err := region.Put(context.Background(), "00001", map[string]any{"title": "hello"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"hello"}`, string(gotBody))
}

func TestRESTRegionQueryPreparesOnce(t *testing.T) {
	var prepares, executes int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/geode/v1/queries":
			prepares++
			assert.NotEmpty(t, r.URL.Query().Get("id"))
			assert.Contains(t, r.URL.Query().Get("q"), "SELECT")
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPost:
			executes++
			var args []map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&args))
			require.Len(t, args, 2)
			assert.Equal(t, "string", args[0]["@type"])
			assert.Equal(t, "_", args[0]["@value"])
			assert.Equal(t, "long", args[1]["@type"])
			w.Write([]byte(`[{"entryKey":"00001"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	region := NewRESTRegion(RESTOptions{BaseURL: ts.URL, Region: "Entry", HTTPClient: ts.Client()})
	oql := "SELECT entryKey FROM /Entry WHERE tenantId = $1 AND updatedAt < $2"

	for range 2 {
		results, err := region.Query(context.Background(), oql, "_", int64(100))
		require.NoError(t, err)
		require.Len(t, results, 1)
	}
	assert.Equal(t, 1, prepares)
	assert.Equal(t, 2, executes)
}

func TestRESTRegionQueryRepreparesAfterRestart(t *testing.T) {
	prepared := map[string]bool{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/geode/v1/queries":
			prepared[r.URL.Query().Get("id")] = true
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPost:
			id := r.URL.Path[len("/geode/v1/queries/"):]
			if !prepared[id] {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Write([]byte(`[]`))
		}
	}))
	defer ts.Close()

	region := NewRESTRegion(RESTOptions{BaseURL: ts.URL, Region: "Entry", HTTPClient: ts.Client()})
	oql := "SELECT entryKey FROM /Entry"

	_, err := region.Query(context.Background(), oql)
	require.NoError(t, err)

	// simulate the server losing its prepared statements
	for id := range prepared {
		delete(prepared, id)
	}
	_, err = region.Query(context.Background(), oql)
	require.NoError(t, err)
}
