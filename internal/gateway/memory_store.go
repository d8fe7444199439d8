package gateway

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Op names a DocumentStore operation, used for failure injection
type Op string

const (
	OpGet         Op = "get"
	OpSet         Op = "set"
	OpUpdate      Op = "update"
	OpArrayUnion  Op = "arrayUnion"
	OpArrayRemove Op = "arrayRemove"
	OpPrefixQuery Op = "prefixQuery"
)

type failureKey struct {
	op         Op
	collection string
	id         string
}

// MemoryStore is an in-process DocumentStore
type MemoryStore struct {
	mu       sync.RWMutex
	docs     map[string]map[string]map[string]interface{}
	failures map[failureKey]error
	calls    []string
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:     make(map[string]map[string]map[string]interface{}),
		failures: make(map[failureKey]error),
	}
}

// FailOn makes every op on collection/id fail with err until cleared.
// An empty id matches every document of the collection.
func (s *MemoryStore) FailOn(op Op, collection, id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[failureKey{op: op, collection: collection, id: id}] = err
}

// ClearFailures removes every injected failure
func (s *MemoryStore) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[failureKey]error)
}

// Calls returns the operations performed so far, as "op collection/id"
func (s *MemoryStore) Calls() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}

// record logs the call and returns the injected failure, if any. Caller holds the lock.
func (s *MemoryStore) record(op Op, collection, id string) error {
	s.calls = append(s.calls, fmt.Sprintf("%s %s/%s", op, collection, id))
	if err, ok := s.failures[failureKey{op: op, collection: collection, id: id}]; ok {
		return newError(KindNetwork, string(op), collection, id, err)
	}
	if err, ok := s.failures[failureKey{op: op, collection: collection}]; ok {
		return newError(KindNetwork, string(op), collection, id, err)
	}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, newError(KindNetwork, string(OpGet), collection, id, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(OpGet, collection, id); err != nil {
		return Document{}, err
	}
	data, ok := s.docs[collection][id]
	if !ok {
		return Document{}, newError(KindNotFound, string(OpGet), collection, id, nil)
	}
	return Document{ID: id, Data: cloneData(data)}, nil
}

func (s *MemoryStore) Set(ctx context.Context, collection, id string, data map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return newError(KindNetwork, string(OpSet), collection, id, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(OpSet, collection, id); err != nil {
		return err
	}
	if s.docs[collection] == nil {
		s.docs[collection] = make(map[string]map[string]interface{})
	}
	s.docs[collection][id] = cloneData(data)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return newError(KindNetwork, string(OpUpdate), collection, id, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(OpUpdate, collection, id); err != nil {
		return err
	}
	doc, ok := s.docs[collection][id]
	if !ok {
		return newError(KindNotFound, string(OpUpdate), collection, id, nil)
	}
	for k, v := range cloneData(fields) {
		doc[k] = v
	}
	return nil
}

func (s *MemoryStore) ArrayUnion(ctx context.Context, collection, id, field string, values ...string) error {
	return s.mutateArray(ctx, OpArrayUnion, collection, id, field, func(current []interface{}) []interface{} {
		for _, v := range values {
			if !containsValue(current, v) {
				current = append(current, v)
			}
		}
		return current
	})
}

func (s *MemoryStore) ArrayRemove(ctx context.Context, collection, id, field string, values ...string) error {
	return s.mutateArray(ctx, OpArrayRemove, collection, id, field, func(current []interface{}) []interface{} {
		kept := current[:0]
		for _, item := range current {
			remove := false
			for _, v := range values {
				if item == v {
					remove = true
					break
				}
			}
			if !remove {
				kept = append(kept, item)
			}
		}
		return kept
	})
}

func (s *MemoryStore) mutateArray(ctx context.Context, op Op, collection, id, field string, apply func([]interface{}) []interface{}) error {
	if err := ctx.Err(); err != nil {
		return newError(KindNetwork, string(op), collection, id, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(op, collection, id); err != nil {
		return err
	}
	doc, ok := s.docs[collection][id]
	if !ok {
		return newError(KindNotFound, string(op), collection, id, nil)
	}
	var current []interface{}
	switch v := doc[field].(type) {
	case nil:
	case []interface{}:
		current = append(current, v...)
	case []string:
		for _, item := range v {
			current = append(current, item)
		}
	default:
		return newError(KindInvalidArgument, string(op), collection, id, fmt.Errorf("field %q is not an array", field))
	}
	doc[field] = apply(current)
	return nil
}

func (s *MemoryStore) PrefixQuery(ctx context.Context, collection, field, prefix string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, newError(KindNetwork, string(OpPrefixQuery), collection, "", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(OpPrefixQuery, collection, ""); err != nil {
		return nil, err
	}
	upper := prefix + PrefixUpperBound
	var out []Document
	for id, data := range s.docs[collection] {
		value, ok := data[field].(string)
		if !ok {
			continue
		}
		if value >= prefix && value <= upper {
			out = append(out, Document{ID: id, Data: cloneData(data)})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		vi, _ := out[i].Data[field].(string)
		vj, _ := out[j].Data[field].(string)
		if vi == vj {
			return out[i].ID < out[j].ID
		}
		return vi < vj
	})
	return out, nil
}

func containsValue(items []interface{}, v string) bool {
	for _, item := range items {
		if item == v {
			return true
		}
	}
	return false
}

// cloneData copies a document one level deep, converting string slices to
// []interface{} the way a remote store returns arrays.
func cloneData(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		switch vv := v.(type) {
		case []string:
			items := make([]interface{}, len(vv))
			for i, s := range vv {
				items[i] = s
			}
			out[k] = items
		case []interface{}:
			items := make([]interface{}, len(vv))
			copy(items, vv)
			out[k] = items
		default:
			out[k] = v
		}
	}
	return out
}
