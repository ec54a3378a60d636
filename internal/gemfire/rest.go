package gemfire

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// RESTRegion talks to one region through the Geode developer REST API
// (/geode/v1). Queries are registered as prepared statements keyed by a
// digest of the query text and executed with typed positional arguments.
type RESTRegion struct {
	baseURL  string
	region   string
	username string
	password string
	client   *http.Client

	mu       sync.Mutex
	prepared map[string]string // oql -> query id
}

// RESTOptions configures a RESTRegion.
type RESTOptions struct {
	// BaseURL is the Geode REST endpoint, e.g. http://localhost:7070.
	BaseURL string
	// Region is the region name without the leading slash.
	Region string
	// Username and Password are sent as HTTP basic auth when non-empty.
	Username string
	Password string
	// HTTPClient is used for all requests. A default client with a
	// 30 second timeout is used when nil.
	HTTPClient *http.Client
}

// NewRESTRegion builds a client for one region.
func NewRESTRegion(opts RESTOptions) *RESTRegion {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &RESTRegion{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		region:   opts.Region,
		username: opts.Username,
		password: opts.Password,
		client:   client,
		prepared: map[string]string{},
	}
}

var _ Region = (*RESTRegion)(nil)

func (r *RESTRegion) regionURL(key string) string {
	u := r.baseURL + "/geode/v1/" + url.PathEscape(r.region)
	if key != "" {
		u += "/" + url.PathEscape(key)
	}
	return u
}

func (r *RESTRegion) do(ctx context.Context, method, u string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if r.username != "" {
		req.SetBasicAuth(r.username, r.password)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, u, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, data, nil
}

// Get implements Region.
func (r *RESTRegion) Get(ctx context.Context, key string) (json.RawMessage, error) {
	status, data, err := r.do(ctx, http.MethodGet, r.regionURL(key), nil)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
		return data, nil
	case http.StatusNotFound:
		return nil, ErrKeyNotFound
	default:
		return nil, restError("get", status, data)
	}
}

// GetAll implements Region. The keys are comma-joined in the path; the
// server answers with the values in request order under the region name,
// null for keys it does not hold.
func (r *RESTRegion) GetAll(ctx context.Context, keys []string) (map[string]json.RawMessage, error) {
	if len(keys) == 0 {
		return map[string]json.RawMessage{}, nil
	}
	escaped := make([]string, 0, len(keys))
	for _, k := range keys {
		escaped = append(escaped, url.PathEscape(k))
	}
	u := r.baseURL + "/geode/v1/" + url.PathEscape(r.region) + "/" +
		strings.Join(escaped, ",") + "?ignoreMissingKey=true"
	status, data, err := r.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, restError("get all", status, data)
	}
	var payload map[string][]json.RawMessage
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode values: %w", err)
	}
	values := payload[r.region]
	result := make(map[string]json.RawMessage, len(keys))
	for i, key := range keys {
		if i >= len(values) {
			break
		}
		if string(values[i]) == "null" || values[i] == nil {
			continue
		}
		result[key] = values[i]
	}
	return result, nil
}

// ContainsKey implements Region.
func (r *RESTRegion) ContainsKey(ctx context.Context, key string) (bool, error) {
	_, err := r.Get(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrKeyNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Put implements Region.
func (r *RESTRegion) Put(ctx context.Context, key string, value any) error {
	body, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	status, data, err := r.do(ctx, http.MethodPut, r.regionURL(key), body)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusCreated && status != http.StatusNoContent {
		return restError("put", status, data)
	}
	return nil
}

// PutAll implements Region. The Geode API takes the keys comma-joined in the
// path and the values as a JSON array in matching order.
func (r *RESTRegion) PutAll(ctx context.Context, values map[string]any) error {
	if len(values) == 0 {
		return nil
	}
	keys := make([]string, 0, len(values))
	ordered := make([]any, 0, len(values))
	for k, v := range values {
		keys = append(keys, url.PathEscape(k))
		ordered = append(ordered, v)
	}
	body, err := json.Marshal(ordered)
	if err != nil {
		return fmt.Errorf("marshal values: %w", err)
	}
	u := r.baseURL + "/geode/v1/" + url.PathEscape(r.region) + "/" + strings.Join(keys, ",")
	status, data, err := r.do(ctx, http.MethodPut, u, body)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusNoContent {
		return restError("put all", status, data)
	}
	return nil
}

// Remove implements Region.
func (r *RESTRegion) Remove(ctx context.Context, key string) error {
	status, data, err := r.do(ctx, http.MethodDelete, r.regionURL(key), nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusNoContent && status != http.StatusNotFound {
		return restError("remove", status, data)
	}
	return nil
}

// Keys implements Region.
func (r *RESTRegion) Keys(ctx context.Context) ([]string, error) {
	status, data, err := r.do(ctx, http.MethodGet, r.regionURL("keys"), nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, restError("keys", status, data)
	}
	var payload struct {
		Keys []string `json:"keys"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode keys: %w", err)
	}
	return payload.Keys, nil
}

// Clear implements Region.
func (r *RESTRegion) Clear(ctx context.Context) error {
	status, data, err := r.do(ctx, http.MethodDelete, r.regionURL(""), nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusNoContent {
		return restError("clear", status, data)
	}
	return nil
}

// Query implements Region. The query is registered once as a prepared
// statement and then executed by id; a statement dropped by a server restart
// is re-registered transparently.
func (r *RESTRegion) Query(ctx context.Context, oql string, args ...any) ([]json.RawMessage, error) {
	id, err := r.prepare(ctx, oql, false)
	if err != nil {
		return nil, err
	}
	results, status, err := r.execute(ctx, id, args)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		if id, err = r.prepare(ctx, oql, true); err != nil {
			return nil, err
		}
		results, status, err = r.execute(ctx, id, args)
		if err != nil {
			return nil, err
		}
	}
	if status != http.StatusOK {
		return nil, restError("query", status, nil)
	}
	return results, nil
}

func (r *RESTRegion) prepare(ctx context.Context, oql string, force bool) (string, error) {
	sum := sha1.Sum([]byte(oql))
	id := "q" + hex.EncodeToString(sum[:8])
	r.mu.Lock()
	_, known := r.prepared[oql]
	r.mu.Unlock()
	if known && !force {
		return id, nil
	}
	u := r.baseURL + "/geode/v1/queries?id=" + url.QueryEscape(id) + "&q=" + url.QueryEscape(oql)
	status, data, err := r.do(ctx, http.MethodPost, u, nil)
	if err != nil {
		return "", err
	}
	// 409 means the statement already exists, which is fine
	if status != http.StatusCreated && status != http.StatusOK && status != http.StatusConflict {
		return "", restError("prepare query", status, data)
	}
	r.mu.Lock()
	r.prepared[oql] = id
	r.mu.Unlock()
	return id, nil
}

func (r *RESTRegion) execute(ctx context.Context, id string, args []any) ([]json.RawMessage, int, error) {
	body, err := json.Marshal(queryArgs(args))
	if err != nil {
		return nil, 0, fmt.Errorf("marshal query args: %w", err)
	}
	u := r.baseURL + "/geode/v1/queries/" + url.PathEscape(id)
	status, data, err := r.do(ctx, http.MethodPost, u, body)
	if err != nil {
		return nil, 0, err
	}
	if status != http.StatusOK {
		return nil, status, nil
	}
	var results []json.RawMessage
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, 0, fmt.Errorf("decode query results: %w", err)
	}
	return results, status, nil
}

// queryArgs wraps Go values in the {"@type","@value"} envelopes the Geode
// query endpoint expects.
func queryArgs(args []any) []map[string]any {
	wrapped := make([]map[string]any, 0, len(args))
	for _, arg := range args {
		var typ string
		switch arg.(type) {
		case string:
			typ = "string"
		case bool:
			typ = "boolean"
		case int, int32:
			typ = "int"
		case int64:
			typ = "long"
		case float32, float64:
			typ = "double"
		default:
			typ = "string"
			arg = fmt.Sprint(arg)
		}
		wrapped = append(wrapped, map[string]any{"@type": typ, "@value": arg})
	}
	return wrapped
}

func restError(op string, status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	if msg == "" {
		return fmt.Errorf("gemfire: %s failed with status %d", op, status)
	}
	return fmt.Errorf("gemfire: %s failed with status %d: %s", op, status, msg)
}
