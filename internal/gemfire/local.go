package gemfire

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// LocalRegion is an in-process Region. It backs local runs without a cluster
// and keeps the repository tests hermetic. Queries run through the OQL
// evaluator in oql.go.
type LocalRegion struct {
	name string

	mu   sync.RWMutex
	data map[string]json.RawMessage
}

// NewLocalRegion creates an empty region with the given name.
func NewLocalRegion(name string) *LocalRegion {
	return &LocalRegion{name: name, data: map[string]json.RawMessage{}}
}

var _ Region = (*LocalRegion)(nil)

// Get implements Region.
func (r *LocalRegion) Get(_ context.Context, key string) (json.RawMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	value, ok := r.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return value, nil
}

// GetAll implements Region.
func (r *LocalRegion) GetAll(_ context.Context, keys []string) (map[string]json.RawMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[string]json.RawMessage, len(keys))
	for _, key := range keys {
		if value, ok := r.data[key]; ok {
			result[key] = value
		}
	}
	return result, nil
}

// ContainsKey implements Region.
func (r *LocalRegion) ContainsKey(_ context.Context, key string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.data[key]
	return ok, nil
}

// Put implements Region.
func (r *LocalRegion) Put(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[key] = data
	return nil
}

// PutAll implements Region.
func (r *LocalRegion) PutAll(_ context.Context, values map[string]any) error {
	encoded := make(map[string]json.RawMessage, len(values))
	for key, value := range values {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshal value for %q: %w", key, err)
		}
		encoded[key] = data
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, data := range encoded {
		r.data[key] = data
	}
	return nil
}

// Remove implements Region.
func (r *LocalRegion) Remove(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, key)
	return nil
}

// Keys implements Region.
func (r *LocalRegion) Keys(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.data))
	for key := range r.data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Clear implements Region.
func (r *LocalRegion) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = map[string]json.RawMessage{}
	return nil
}

// Query implements Region.
func (r *LocalRegion) Query(_ context.Context, oql string, args ...any) ([]json.RawMessage, error) {
	stmt, err := parseOQL(oql)
	if err != nil {
		return nil, err
	}
	if got := strings.TrimPrefix(stmt.from[0].path.segs[0].name, "/"); got != r.name {
		return nil, fmt.Errorf("gemfire: query targets region %q, not %q", got, r.name)
	}

	r.mu.RLock()
	rows := make([]json.RawMessage, 0, len(r.data))
	for _, value := range r.data {
		rows = append(rows, value)
	}
	r.mu.RUnlock()

	envs, err := buildEnvs(stmt, rows)
	if err != nil {
		return nil, err
	}
	if stmt.where != nil {
		filtered := envs[:0]
		for _, env := range envs {
			if truthy(stmt.where.eval(env, args)) {
				filtered = append(filtered, env)
			}
		}
		envs = filtered
	}
	if stmt.groupBy != nil {
		envs = groupEnvs(stmt, envs, args)
	}
	if len(stmt.orderBy) > 0 {
		sort.SliceStable(envs, func(i, j int) bool {
			for _, key := range stmt.orderBy {
				cmp, ok := compareValues(key.expr.eval(envs[i], args), key.expr.eval(envs[j], args))
				if !ok || cmp == 0 {
					continue
				}
				if key.desc {
					return cmp > 0
				}
				return cmp < 0
			}
			return false
		})
	}

	results := make([]json.RawMessage, 0, len(envs))
	seen := map[string]bool{}
	for _, env := range envs {
		out, err := json.Marshal(project(stmt, env, args))
		if err != nil {
			return nil, fmt.Errorf("marshal result row: %w", err)
		}
		if stmt.distinct {
			if seen[string(out)] {
				continue
			}
			seen[string(out)] = true
		}
		results = append(results, out)
	}

	if stmt.limit != nil {
		n, ok := stmt.limit.eval(nil, args).(float64)
		if !ok {
			return nil, fmt.Errorf("gemfire: non-numeric limit")
		}
		if limit := int(n); limit < len(results) {
			results = results[:limit]
		}
	}
	return results, nil
}

// buildEnvs decodes each row and expands FROM joins, yielding one env per
// joined element (or per row when there is no join).
func buildEnvs(stmt *selectStmt, rows []json.RawMessage) ([]oqlEnv, error) {
	primary := stmt.from[0]
	var envs []oqlEnv
	for _, raw := range rows {
		var row map[string]any
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, fmt.Errorf("decode row: %w", err)
		}
		env := oqlEnv{"": any(row)}
		if primary.alias != "" {
			env[primary.alias] = any(row)
		}
		expanded := []oqlEnv{env}
		for _, join := range stmt.from[1:] {
			var next []oqlEnv
			for _, e := range expanded {
				list, _ := join.path.eval(e, nil).([]any)
				for _, item := range list {
					child := oqlEnv{}
					for k, v := range e {
						child[k] = v
					}
					child[join.alias] = item
					next = append(next, child)
				}
			}
			expanded = next
		}
		envs = append(envs, expanded...)
	}
	return envs, nil
}

// groupEnvs collapses envs by the GROUP BY key, keeping the first env of
// each group as its representative and recording the group size for COUNT(*).
func groupEnvs(stmt *selectStmt, envs []oqlEnv, params []any) []oqlEnv {
	var order []string
	groups := map[string]oqlEnv{}
	counts := map[string]int{}
	for _, env := range envs {
		keyBytes, err := json.Marshal(stmt.groupBy.eval(env, params))
		if err != nil {
			continue
		}
		key := string(keyBytes)
		if _, ok := groups[key]; !ok {
			groups[key] = env
			order = append(order, key)
		}
		counts[key]++
	}
	grouped := make([]oqlEnv, 0, len(order))
	for _, key := range order {
		env := oqlEnv{}
		for k, v := range groups[key] {
			env[k] = v
		}
		env[groupCountAlias] = float64(counts[key])
		grouped = append(grouped, env)
	}
	return grouped
}

func project(stmt *selectStmt, env oqlEnv, params []any) any {
	if stmt.star {
		return env[""]
	}
	if len(stmt.projections) == 1 && stmt.projections[0].alias == "" {
		return stmt.projections[0].expr.eval(env, params)
	}
	out := map[string]any{}
	for _, proj := range stmt.projections {
		out[columnName(proj)] = proj.expr.eval(env, params)
	}
	return out
}

func columnName(proj projection) string {
	if proj.alias != "" {
		return proj.alias
	}
	if path, ok := proj.expr.(*pathExpr); ok {
		return path.leaf()
	}
	return "count"
}
