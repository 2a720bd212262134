// Package memstore provides an in-memory cache.Storage backed by a
// mutex-guarded map, suitable for tests and for applications with no
// durable backing store of their own.
package memstore

import (
	"context"
	"sync"

	"github.com/tomellm/data-communicator/cache"
)

// Store is a cache.Storage[K, V] over a plain map, guarded by a single
// mutex. The only error it returns is cache.ErrNotPresent from GetByID on
// a miss; the context argument is ignored.
type Store[K cache.Key, V cache.Value[K]] struct {
	mu   sync.Mutex
	rows map[K]V
}

// New builds an empty Store.
func New[K cache.Key, V cache.Value[K]]() *Store[K, V] {
	return &Store[K, V]{rows: make(map[K]V)}
}

// Seed builds a Store pre-populated with rows, keyed by their own GetKey.
func Seed[K cache.Key, V cache.Value[K]](rows []V) *Store[K, V] {
	s := New[K, V]()
	for _, v := range rows {
		s.rows[v.GetKey()] = v
	}
	return s
}

func (s *Store[K, V]) Insert(_ context.Context, value V) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[value.GetKey()] = value
	return nil
}

func (s *Store[K, V]) InsertMany(_ context.Context, values []V) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range values {
		s.rows[v.GetKey()] = v
	}
	return nil
}

func (s *Store[K, V]) Update(_ context.Context, value V) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[value.GetKey()] = value
	return nil
}

func (s *Store[K, V]) UpdateMany(_ context.Context, values []V) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range values {
		s.rows[v.GetKey()] = v
	}
	return nil
}

func (s *Store[K, V]) Delete(_ context.Context, key K) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, key)
	return nil
}

func (s *Store[K, V]) DeleteMany(_ context.Context, keys []K) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.rows, k)
	}
	return nil
}

func (s *Store[K, V]) GetAll(_ context.Context) (cache.FreshData[K, V], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(cache.FreshData[K, V], len(s.rows))
	for k, v := range s.rows {
		out[k] = v
	}
	return out, nil
}

func (s *Store[K, V]) GetByID(_ context.Context, key K) (cache.FreshData[K, V], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.rows[key]
	if !ok {
		return nil, cache.ErrNotPresent
	}
	return cache.FreshData[K, V]{key: v}, nil
}

func (s *Store[K, V]) GetByIDs(_ context.Context, keys []K) (cache.FreshData[K, V], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(cache.FreshData[K, V], len(keys))
	for _, k := range keys {
		if v, ok := s.rows[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (s *Store[K, V]) GetByPredicate(_ context.Context, pred cache.Predicate[K, V]) (cache.FreshData[K, V], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(cache.FreshData[K, V])
	for k, v := range s.rows {
		if pred(v) {
			out[k] = v
		}
	}
	return out, nil
}
