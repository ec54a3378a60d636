package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/categolj/entry-api-gemfire/internal/entry"
	"github.com/categolj/entry-api-gemfire/internal/github"
	"github.com/categolj/entry-api-gemfire/internal/logging"
	"github.com/categolj/entry-api-gemfire/internal/pagination"
	"github.com/categolj/entry-api-gemfire/internal/server/repositories/entries"
	"github.com/categolj/entry-api-gemfire/internal/server/tenant"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.Default())
}

// fakeRepository records calls; reads are backed by the stored map.
type fakeRepository struct {
	stored      map[string]entry.Entry
	saved       []entry.Entry
	deleted     []entry.EntryKey
	summaries   map[string]string
	lastRequest pagination.CursorPageRequest[time.Time]
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{stored: map[string]entry.Entry{}, summaries: map[string]string{}}
}

func (f *fakeRepository) FindByID(_ context.Context, key entry.EntryKey) (entry.Entry, error) {
	e, ok := f.stored[key.String()]
	if !ok {
		return entry.Entry{}, entries.ErrEntryNotFound
	}
	return e, nil
}

func (f *fakeRepository) Exists(_ context.Context, key entry.EntryKey) (bool, error) {
	_, ok := f.stored[key.String()]
	return ok, nil
}

func (f *fakeRepository) FindAll(_ context.Context, keys []entry.EntryKey) ([]entry.Entry, error) {
	out := make([]entry.Entry, 0, len(keys))
	for _, key := range keys {
		if e, ok := f.stored[key.String()]; ok {
			out = append(out, e.WithContent(""))
		}
	}
	return out, nil
}

func (f *fakeRepository) FindOrderByUpdated(_ context.Context, _ string, _ entry.SearchCriteria,
	pageRequest pagination.CursorPageRequest[time.Time],
) (pagination.CursorPage[entry.Entry], error) {
	f.lastRequest = pageRequest
	return pagination.CursorPage[entry.Entry]{Content: []entry.Entry{}, Size: pageRequest.PageSize}, nil
}

func (f *fakeRepository) Save(_ context.Context, e entry.Entry) (entry.Entry, error) {
	f.stored[e.EntryKey.String()] = e
	f.saved = append(f.saved, e)
	return e, nil
}

func (f *fakeRepository) SaveAll(_ context.Context, es []entry.Entry) error {
	for _, e := range es {
		f.stored[e.EntryKey.String()] = e
		f.saved = append(f.saved, e)
	}
	return nil
}

func (f *fakeRepository) NextID(_ context.Context, _ string) (int64, error) { return 1, nil }

func (f *fakeRepository) FindAllCategories(_ context.Context, _ string) ([][]entry.Category, error) {
	return nil, nil
}

func (f *fakeRepository) FindAllTags(_ context.Context, _ string) ([]entry.TagAndCount, error) {
	return nil, nil
}

func (f *fakeRepository) DeleteByID(_ context.Context, key entry.EntryKey) error {
	delete(f.stored, key.String())
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeRepository) UpdateSummary(_ context.Context, key entry.EntryKey, summary string) error {
	f.summaries[key.String()] = summary
	return nil
}

func (f *fakeRepository) DeleteAll(_ context.Context) error {
	f.stored = map[string]entry.Entry{}
	return nil
}

func testEntry(id int64, tenantID string) entry.Entry {
	return entry.Entry{
		EntryKey: entry.NewEntryKey(id, tenantID),
		FrontMatter: entry.FrontMatter{
			Title:      "Cache Aside",
			Categories: []entry.Category{{Name: "Tech"}},
			Tags:       []entry.Tag{{Name: "GemFire"}},
		},
		Content: "Hello GemFire",
	}
}

type contentsPut struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha"`
}

func registryFor(baseURL string) *tenant.Registry {
	client := github.NewClient(github.Options{BaseURL: baseURL})
	return tenant.NewRegistry(tenant.Source{Owner: "making", Repo: "blog.ik.am", Client: client}, nil)
}

func TestSaveWithoutDirectUpdate(t *testing.T) {
	repo := newFakeRepository()
	svc := NewEntryService(repo, registryFor("http://unused.invalid"), false, testLogger())

	e := testEntry(1, "")
	saved, err := svc.Save(context.Background(), e)
	require.NoError(t, err)
	assert.Equal(t, e, saved)
	assert.Len(t, repo.saved, 1)
}

func TestSaveDirectUpdateCreatesFile(t *testing.T) {
	var put contentsPut
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/repos/making/blog.ik.am/contents/content/00001.md", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&put))
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"content":{"sha":"new"},"commit":{"sha":"c1"}}`))
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))
	defer srv.Close()

	repo := newFakeRepository()
	svc := NewEntryService(repo, registryFor(srv.URL), true, testLogger())

	e := testEntry(1, "")
	_, err := svc.Save(context.Background(), e)
	require.NoError(t, err)

	assert.Equal(t, "Create entry 00001", put.Message)
	assert.Empty(t, put.SHA)
	decoded, err := base64.StdEncoding.DecodeString(put.Content)
	require.NoError(t, err)
	assert.Equal(t, e.ToMarkdown(), string(decoded))
	assert.Len(t, repo.saved, 1)
}

func TestSaveDirectUpdateUpdatesFile(t *testing.T) {
	var put contentsPut
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"name":"00001.md","path":"content/00001.md","sha":"abc123","content":""}`))
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&put))
			w.Write([]byte(`{"content":{"sha":"def"},"commit":{"sha":"c2"}}`))
		}
	}))
	defer srv.Close()

	repo := newFakeRepository()
	svc := NewEntryService(repo, registryFor(srv.URL), true, testLogger())

	_, err := svc.Save(context.Background(), testEntry(1, ""))
	require.NoError(t, err)

	assert.Equal(t, "Update entry 00001", put.Message)
	assert.Equal(t, "abc123", put.SHA)
	assert.Len(t, repo.saved, 1)
}

func TestSaveDirectUpdateUnknownTenant(t *testing.T) {
	repo := newFakeRepository()
	svc := NewEntryService(repo, registryFor("http://unused.invalid"), true, testLogger())

	_, err := svc.Save(context.Background(), testEntry(1, "nosuch"))
	assert.Error(t, err)
	assert.Empty(t, repo.saved)
}

func TestDeleteDirectUpdateDeletesFile(t *testing.T) {
	var deleteMessage string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"name":"00099.md","path":"content/00099.md","sha":"abc123","content":""}`))
		case http.MethodDelete:
			var body struct {
				Message string `json:"message"`
				SHA     string `json:"sha"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			deleteMessage = body.Message
			assert.Equal(t, "abc123", body.SHA)
			w.Write([]byte(`{"commit":{"sha":"c3"}}`))
		}
	}))
	defer srv.Close()

	repo := newFakeRepository()
	svc := NewEntryService(repo, registryFor(srv.URL), true, testLogger())

	key := entry.NewEntryKey(99, "")
	require.NoError(t, svc.DeleteByID(context.Background(), key))
	assert.Equal(t, "Delete entry 00099", deleteMessage)
	assert.Equal(t, []entry.EntryKey{key}, repo.deleted)
}

func TestDeleteDirectUpdateSkipsMissingFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method %s", r.Method)
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	repo := newFakeRepository()
	svc := NewEntryService(repo, registryFor(srv.URL), true, testLogger())

	key := entry.NewEntryKey(99, "")
	require.NoError(t, svc.DeleteByID(context.Background(), key))
	assert.Equal(t, []entry.EntryKey{key}, repo.deleted)
}

func TestUpdateSummaryDirectUpdateRefetches(t *testing.T) {
	current := testEntry(1, "")
	markdown := current.ToMarkdown()
	var put contentsPut
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			file := map[string]string{
				"name": "00001.md", "path": "content/00001.md", "sha": "abc123",
				"content": base64.StdEncoding.EncodeToString([]byte(markdown)),
			}
			json.NewEncoder(w).Encode(file)
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&put))
			w.Write([]byte(`{"content":{"sha":"def"},"commit":{"sha":"c4"}}`))
		}
	}))
	defer srv.Close()

	repo := newFakeRepository()
	svc := NewEntryService(repo, registryFor(srv.URL), true, testLogger())

	key := entry.NewEntryKey(1, "")
	require.NoError(t, svc.UpdateSummary(context.Background(), key, "A fresh summary"))

	assert.Equal(t, "Update entry 00001", put.Message)
	decoded, err := base64.StdEncoding.DecodeString(put.Content)
	require.NoError(t, err)
	assert.Contains(t, string(decoded), "A fresh summary")
	require.Len(t, repo.saved, 1)
	assert.Equal(t, "A fresh summary", repo.saved[0].FrontMatter.Summary)
	assert.Equal(t, current.Content, repo.saved[0].Content)
}

func TestUpdateSummaryWithoutDirectUpdate(t *testing.T) {
	repo := newFakeRepository()
	svc := NewEntryService(repo, registryFor("http://unused.invalid"), false, testLogger())

	key := entry.NewEntryKey(1, "t1")
	require.NoError(t, svc.UpdateSummary(context.Background(), key, "short"))
	assert.Equal(t, "short", repo.summaries[key.String()])
}

func TestFindLatestUsesDefaultPageSize(t *testing.T) {
	repo := newFakeRepository()
	svc := NewEntryService(repo, registryFor("http://unused.invalid"), false, testLogger())

	_, err := svc.FindLatest(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, pagination.DefaultPageSize, repo.lastRequest.PageSize)
	assert.Nil(t, repo.lastRequest.Cursor)
}
