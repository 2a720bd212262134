package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

// pollUntil repeatedly calls poll until it yields something or the timeout
// elapses; resolverSet.poll is necessarily non-blocking (spec.md §5), so
// tests exercising the async storage goroutines must retry rather than
// wait on a single call.
func pollUntil[K Key, V Value[K]](t *testing.T, r *resolverSet[K, V]) ([]resolvedChange[K, V], []resolvedQuery[K, V]) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		changes, queries := r.poll()
		if len(changes) > 0 || len(queries) > 0 {
			return changes, queries
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("resolver never produced a result within the deadline")
	return nil, nil
}

func TestResolverSetChange(t *testing.T) {
	t.Run("a successful change resolves to its raw mutation and a nil-error reply", func(t *testing.T) {
		storage := newFakeStorage[int, testRow]()
		r := newResolverSet[int, testRow]()
		reply := make(chan ChangeResult, 1)

		r.submitChange(context.Background(), storage, insertRequest[int, testRow](testRow{ID: 1, Val: "a"}), reply)
		changes, _ := pollUntil[int, testRow](t, r)

		if len(changes) != 1 {
			t.Fatalf("expected 1 resolved change, got %d", len(changes))
		}
		if changes[0].mutation.Kind != ChangeInsert {
			t.Fatalf("expected an Insert mutation, got %s", changes[0].mutation.Kind)
		}

		result := <-reply
		if !result.Success() {
			t.Fatalf("expected success, got %v", result.Err)
		}
	})

	t.Run("a failing change yields no resolved mutation and a wrapped StorageError reply", func(t *testing.T) {
		storage := newFakeStorage[int, testRow]()
		storage.failWith(errBoom)
		r := newResolverSet[int, testRow]()
		reply := make(chan ChangeResult, 1)

		r.submitChange(context.Background(), storage, insertRequest[int, testRow](testRow{ID: 1}), reply)

		deadline := time.Now().Add(2 * time.Second)
		var result ChangeResult
		for time.Now().Before(deadline) {
			changes, _ := r.poll()
			if len(changes) != 0 {
				t.Fatalf("expected no resolved mutation on failure, got %d", len(changes))
			}
			select {
			case result = <-reply:
				goto checked
			default:
				time.Sleep(time.Millisecond)
			}
		}
		t.Fatalf("never received a reply")
	checked:
		if result.Success() {
			t.Fatalf("expected failure")
		}
		var se *StorageError
		if !errors.As(result.Err, &se) {
			t.Fatalf("expected a *StorageError, got %T", result.Err)
		}
	})
}

func TestResolverSetQuery(t *testing.T) {
	t.Run("a successful query resolves with the origin and fresh data", func(t *testing.T) {
		storage := newFakeStorage[int, testRow]()
		if err := storage.Insert(context.Background(), testRow{ID: 1, Val: "a"}); err != nil {
			t.Fatalf("seed insert: %v", err)
		}
		r := newResolverSet[int, testRow]()
		reply := make(chan QueryResult[int, testRow], 1)
		origin := uuid.New()

		r.submitQuery(context.Background(), storage, origin, All[int, testRow](), reply)
		_, queries := pollUntil[int, testRow](t, r)

		if len(queries) != 1 || queries[0].origin != origin {
			t.Fatalf("expected one resolved query for origin %s, got %+v", origin, queries)
		}
		if len(queries[0].fresh) != 1 {
			t.Fatalf("expected 1 fresh row, got %d", len(queries[0].fresh))
		}

		result := <-reply
		if !result.Success() {
			t.Fatalf("expected success, got %v", result.Err)
		}
	})
}
