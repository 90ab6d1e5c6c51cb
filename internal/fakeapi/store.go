package fakeapi

import (
	"context"
	"sort"
	"sync"
)

type ctxKey string

const userIDKey ctxKey = "user_id"

func withUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

func userIDFrom(ctx context.Context) int64 {
	id, _ := ctx.Value(userIDKey).(int64)
	return id
}

// store keeps DRF style records per collection, keyed by integer id
type store struct {
	mu          sync.RWMutex
	nextID      map[string]int64
	collections map[string]map[int64]map[string]any
}

func newStore() *store {
	return &store{
		nextID:      make(map[string]int64),
		collections: make(map[string]map[int64]map[string]any),
	}
}

func (st *store) create(collection string, record map[string]any) int64 {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.collections[collection]; !ok {
		st.collections[collection] = make(map[int64]map[string]any)
	}
	st.nextID[collection]++
	id := st.nextID[collection]

	rec := copyRecord(record)
	rec["id"] = id
	st.collections[collection][id] = rec
	return id
}

func (st *store) get(collection string, id int64) (map[string]any, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	rec, ok := st.collections[collection][id]
	if !ok {
		return nil, false
	}
	return copyRecord(rec), true
}

func (st *store) list(collection string) []map[string]any {
	st.mu.RLock()
	defer st.mu.RUnlock()

	ids := make([]int64, 0, len(st.collections[collection]))
	for id := range st.collections[collection] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, copyRecord(st.collections[collection][id]))
	}
	return out
}

// update merges fields into the record, replacing it entirely when replace is set
func (st *store) update(collection string, id int64, fields map[string]any, replace bool) (map[string]any, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	rec, ok := st.collections[collection][id]
	if !ok {
		return nil, false
	}
	if replace {
		rec = map[string]any{}
	}
	for k, v := range fields {
		rec[k] = v
	}
	rec["id"] = id
	st.collections[collection][id] = rec
	return copyRecord(rec), true
}

func (st *store) delete(collection string, id int64) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.collections[collection][id]; !ok {
		return false
	}
	delete(st.collections[collection], id)
	return true
}

func copyRecord(rec map[string]any) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
