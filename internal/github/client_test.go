package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewClient(Options{BaseURL: ts.URL, Token: "test-token", HTTPClient: ts.Client()})
}

func TestGetFile(t *testing.T) {
	content := base64.StdEncoding.EncodeToString([]byte("# Hello\nWorld"))
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/making/blog.ik.am/contents/content/00001.md", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(File{
			Name: "00001.md", Path: "content/00001.md", SHA: "abc123",
			// the API chunks base64 with newlines
			Content: content[:10] + "\n" + content[10:],
		})
	})

	file, err := client.GetFile(context.Background(), "making", "blog.ik.am", "content/00001.md")
	require.NoError(t, err)
	assert.Equal(t, "abc123", file.SHA)
	decoded, err := file.Decode()
	require.NoError(t, err)
	assert.Equal(t, "# Hello\nWorld", decoded)
}

func TestGetFileNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	_, err := client.GetFile(context.Background(), "o", "r", "content/00009.md")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestGetFileServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := client.GetFile(context.Background(), "o", "r", "content/00001.md")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrFileNotFound)
}

func TestListCommits(t *testing.T) {
	newer := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	older := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/o/r/commits", r.URL.Path)
		assert.Equal(t, "content/00001.md", r.URL.Query().Get("path"))
		json.NewEncoder(w).Encode([]Commit{
			{SHA: "new", Commit: CommitDetail{Author: CommitAuthor{Name: "alice", Date: &newer}}},
			{SHA: "old", Commit: CommitDetail{Author: CommitAuthor{Name: "bob", Date: &older}}},
		})
	})

	commits, err := client.ListCommits(context.Background(), "o", "r", "content/00001.md")
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, "alice", commits[0].Commit.Author.Name)
	assert.Equal(t, "bob", commits[1].Commit.Author.Name)
}

func TestUpdateFile(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		var req struct {
			Message string `json:"message"`
			Content string `json:"content"`
			SHA     string `json:"sha"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Update content/00001.md", req.Message)
		assert.Equal(t, "abc123", req.SHA)
		decoded, err := base64.StdEncoding.DecodeString(req.Content)
		require.NoError(t, err)
		assert.Equal(t, "updated body", string(decoded))
		json.NewEncoder(w).Encode(CommitResponse{Content: &File{SHA: "def456"}})
	})

	resp, err := client.UpdateFile(context.Background(), "o", "r", "content/00001.md",
		"Update content/00001.md", "updated body", "abc123", nil)
	require.NoError(t, err)
	assert.Equal(t, "def456", resp.Content.SHA)
}

func TestDeleteFile(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		var req struct {
			Message string `json:"message"`
			SHA     string `json:"sha"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "abc123", req.SHA)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	})

	err := client.DeleteFile(context.Background(), "o", "r", "content/00001.md",
		"Delete content/00001.md", "abc123", nil)
	require.NoError(t, err)
}
