// Package gemfire provides access to GemFire regions. Two implementations
// exist: a client for the Geode developer REST API and an in-process region
// with an OQL evaluator for local runs and tests.
package gemfire

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrKeyNotFound is returned by Region.Get when the region holds no value
// for the key.
var ErrKeyNotFound = errors.New("gemfire: key not found")

// Region is a key/value view of a single region plus OQL querying.
// Values are opaque JSON documents; callers marshal and unmarshal their
// own entity types.
type Region interface {
	// Get returns the value stored under key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) (json.RawMessage, error)
	// GetAll returns the values of the given keys. Missing keys are left
	// out of the result.
	GetAll(ctx context.Context, keys []string) (map[string]json.RawMessage, error)
	// ContainsKey reports whether the region holds a value for key.
	ContainsKey(ctx context.Context, key string) (bool, error)
	// Put stores value under key, replacing any existing value.
	Put(ctx context.Context, key string, value any) error
	// PutAll stores every entry of values in one round trip.
	PutAll(ctx context.Context, values map[string]any) error
	// Remove deletes the value under key. Removing an absent key is not
	// an error.
	Remove(ctx context.Context, key string) error
	// Keys lists all keys currently present in the region.
	Keys(ctx context.Context) ([]string, error)
	// Clear removes every entry from the region.
	Clear(ctx context.Context) error
	// Query runs a parameterized OQL query. Positional parameters are
	// referenced as $1..$n in the query text.
	Query(ctx context.Context, oql string, args ...any) ([]json.RawMessage, error)
}
