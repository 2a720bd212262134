// Package cachestore provides a cache.Storage backed by
// k8s.io/client-go/tools/cache.ThreadSafeStore, the same indexed-store
// primitive client-go's informers use to hold watched objects. It is
// useful when a view's rows are themselves mirrors of a Kubernetes
// resource, letting the same store back both an informer and a
// Communicator-driven view.
package cachestore

import (
	"context"
	"fmt"

	cachepkg "github.com/tomellm/data-communicator/cache"
	k8scache "k8s.io/client-go/tools/cache"
)

// KeyFunc converts a row's identity into the string key ThreadSafeStore
// requires. fmt.Sprint(key) is almost always sufficient; a caller with a
// structured key should pass something more precise.
type KeyFunc[K cachepkg.Key] func(K) string

// Store adapts a ThreadSafeStore to cache.Storage[K, V].
type Store[K cachepkg.Key, V cachepkg.Value[K]] struct {
	store k8scache.ThreadSafeStore
	keyOf KeyFunc[K]
}

// New builds a Store over a fresh ThreadSafeStore. keyOf must be
// injective: distinct K values must never produce the same string.
func New[K cachepkg.Key, V cachepkg.Value[K]](keyOf KeyFunc[K]) *Store[K, V] {
	if keyOf == nil {
		keyOf = func(k K) string { return fmt.Sprint(k) }
	}
	return &Store[K, V]{
		store: k8scache.NewThreadSafeStore(k8scache.Indexers{}, k8scache.Indices{}),
		keyOf: keyOf,
	}
}

func (s *Store[K, V]) Insert(_ context.Context, value V) error {
	s.store.Add(s.keyOf(value.GetKey()), value)
	return nil
}

func (s *Store[K, V]) InsertMany(_ context.Context, values []V) error {
	for _, v := range values {
		s.store.Add(s.keyOf(v.GetKey()), v)
	}
	return nil
}

func (s *Store[K, V]) Update(_ context.Context, value V) error {
	s.store.Update(s.keyOf(value.GetKey()), value)
	return nil
}

func (s *Store[K, V]) UpdateMany(_ context.Context, values []V) error {
	for _, v := range values {
		s.store.Update(s.keyOf(v.GetKey()), v)
	}
	return nil
}

func (s *Store[K, V]) Delete(_ context.Context, key K) error {
	s.store.Delete(s.keyOf(key))
	return nil
}

func (s *Store[K, V]) DeleteMany(_ context.Context, keys []K) error {
	for _, k := range keys {
		s.store.Delete(s.keyOf(k))
	}
	return nil
}

func (s *Store[K, V]) GetAll(_ context.Context) (cachepkg.FreshData[K, V], error) {
	items := s.store.List()
	out := make(cachepkg.FreshData[K, V], len(items))
	for _, item := range items {
		v := item.(V)
		out[v.GetKey()] = v
	}
	return out, nil
}

func (s *Store[K, V]) GetByID(_ context.Context, key K) (cachepkg.FreshData[K, V], error) {
	item, ok := s.store.Get(s.keyOf(key))
	if !ok {
		return nil, cachepkg.ErrNotPresent
	}
	v := item.(V)
	return cachepkg.FreshData[K, V]{key: v}, nil
}

func (s *Store[K, V]) GetByIDs(_ context.Context, keys []K) (cachepkg.FreshData[K, V], error) {
	out := make(cachepkg.FreshData[K, V], len(keys))
	for _, k := range keys {
		if item, ok := s.store.Get(s.keyOf(k)); ok {
			v := item.(V)
			out[k] = v
		}
	}
	return out, nil
}

func (s *Store[K, V]) GetByPredicate(_ context.Context, pred cachepkg.Predicate[K, V]) (cachepkg.FreshData[K, V], error) {
	items := s.store.List()
	out := make(cachepkg.FreshData[K, V])
	for _, item := range items {
		v := item.(V)
		if pred(v) {
			out[v.GetKey()] = v
		}
	}
	return out, nil
}
