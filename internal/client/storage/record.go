package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/halolight/console/internal/logger"
)

// SchemaVersion is the envelope version written by this build.
const SchemaVersion = 0

// Envelope wraps every persisted record.
type Envelope[T any] struct {
	State   T   `json:"state"`
	Version int `json:"version"`
}

// Migration upgrades the raw state of an envelope written with an older
// version to the current SchemaVersion.
type Migration func(from int, state json.RawMessage) (json.RawMessage, error)

// Record is a typed view of one key in a Store. Reads never fail: a
// missing store, a missing key or a corrupt value yield the defaults.
// Writes re-read the current state before applying a change, and errors
// are logged rather than returned.
type Record[T any] struct {
	store    Store
	key      string
	defaults func() T
	migrate  Migration
	log      *zap.Logger

	mu sync.Mutex
}

// NewRecord returns a Record for key in store. defaults must return a
// fresh value on every call. A nil store is allowed.
func NewRecord[T any](store Store, key string, defaults func() T, log *zap.Logger) *Record[T] {
	log = logger.OrNop(log)
	return &Record[T]{
		store:    store,
		key:      key,
		defaults: defaults,
		log:      log.With(zap.String("key", key)),
	}
}

// WithMigration registers m for envelopes older than SchemaVersion.
func (r *Record[T]) WithMigration(m Migration) *Record[T] {
	r.migrate = m
	return r
}

// Key returns the store key.
func (r *Record[T]) Key() string { return r.key }

// Load returns the persisted state. Fields missing from the stored state
// keep their default values.
func (r *Record[T]) Load() T {
	if r.store == nil {
		return r.defaults()
	}

	raw, ok, err := r.store.Get(r.key)
	if err != nil {
		r.log.Error("failed to read state", zap.Error(err))
		return r.defaults()
	}
	if !ok || raw == "" {
		return r.defaults()
	}

	var env Envelope[json.RawMessage]
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		r.log.Warn("failed to decode state", zap.Error(err))
		return r.defaults()
	}

	state := env.State
	switch {
	case env.Version > SchemaVersion:
		r.log.Warn("state written by a newer version", zap.Int("version", env.Version))
		return r.defaults()
	case env.Version < SchemaVersion:
		if r.migrate == nil {
			r.log.Warn("no migration for state version", zap.Int("version", env.Version))
			return r.defaults()
		}
		state, err = r.migrate(env.Version, state)
		if err != nil {
			r.log.Warn("failed to migrate state", zap.Int("version", env.Version), zap.Error(err))
			return r.defaults()
		}
	}

	out := r.defaults()
	if len(state) == 0 || bytes.Equal(state, []byte("null")) {
		return out
	}
	if err := json.Unmarshal(state, &out); err != nil {
		r.log.Warn("failed to decode state", zap.Error(err))
		return r.defaults()
	}
	return out
}

// Merge re-reads the state, replaces the top-level fields present in
// patch and writes the result back. See ShallowMerge.
func (r *Record[T]) Merge(patch any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	merged, err := ShallowMerge(r.Load(), patch)
	if err != nil {
		r.log.Error("failed to merge state", zap.Error(err))
		return
	}
	r.write(merged)
}

// Update re-reads the state, applies fn and writes the result back.
func (r *Record[T]) Update(fn func(*T)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := r.Load()
	fn(&state)
	r.write(state)
}

// Replace writes state as is.
func (r *Record[T]) Replace(state T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.write(state)
}

// Clear removes the key; the next Load returns the defaults.
func (r *Record[T]) Clear() {
	if r.store == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.Remove(r.key); err != nil {
		r.log.Error("failed to clear state", zap.Error(err))
	}
}

func (r *Record[T]) write(state T) {
	if r.store == nil {
		return
	}
	data, err := json.Marshal(Envelope[T]{State: state, Version: SchemaVersion})
	if err != nil {
		r.log.Error("failed to encode state", zap.Error(err))
		return
	}
	if err := r.store.Set(r.key, string(data)); err != nil {
		r.log.Error("failed to save state", zap.Error(err))
	}
}

// ShallowMerge returns base with every top-level JSON field of patch
// replacing the field of the same name. Fields absent from patch are kept;
// nested objects are replaced whole, not merged. patch is typically a
// struct of pointer fields tagged omitempty, or a map.
func ShallowMerge[T any](base T, patch any) (T, error) {
	var out T

	fields, err := objectFields(base)
	if err != nil {
		return out, fmt.Errorf("base: %w", err)
	}
	overrides, err := objectFields(patch)
	if err != nil {
		return out, fmt.Errorf("patch: %w", err)
	}
	for k, v := range overrides {
		fields[k] = v
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, err
	}
	return out, nil
}

func objectFields(v any) (map[string]json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if bytes.Equal(data, []byte("null")) {
		return fields, nil
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("not a JSON object: %w", err)
	}
	return fields, nil
}
