package cache

import (
	"context"

	"github.com/google/uuid"
)

// changeOutcome is what a storage goroutine reports back for a change
// request: either a derived raw Mutation (success) or an error.
type changeOutcome[K Key, V Value[K]] struct {
	mutation Mutation[K, V]
	err      error
}

// queryOutcome is what a storage goroutine reports back for a query.
type queryOutcome[K Key, V Value[K]] struct {
	fresh FreshData[K, V]
	err   error
}

// inFlightChange pairs a running storage goroutine's result channel with
// the one-shot reply the originating Communicator is awaiting.
type inFlightChange[K Key, V Value[K]] struct {
	result chan changeOutcome[K, V]
	reply  chan ChangeResult
}

// inFlightQuery additionally carries the originating CommunicatorID, since
// a query's reply must also update that Communicator's standing knowledge
// (spec.md §4.1 step 4).
type inFlightQuery[K Key, V Value[K]] struct {
	origin uuid.UUID
	result chan queryOutcome[K, V]
	reply  chan QueryResult[K, V]
}

// resolvedChange is a successfully completed change, carrying the raw Δ to
// fan out. A failed change produces no resolvedChange at all (spec.md §4.1
// step 2).
type resolvedChange[K Key, V Value[K]] struct {
	mutation *Mutation[K, V]
}

// resolvedQuery is a completed query, ready for delivery to its origin.
type resolvedQuery[K Key, V Value[K]] struct {
	origin uuid.UUID
	fresh  FreshData[K, V]
}

// resolverSet holds every in-flight Storage operation submitted by the
// Container and, each tick, polls them non-blockingly for completion
// (spec.md §4.3). Storage operations themselves run on their own
// goroutines, started when the request is submitted; resolverSet only
// observes their completion, it never drives their progress directly —
// the Go analogue of the source's "polling a future" is a non-blocking
// receive on the goroutine's result channel.
type resolverSet[K Key, V Value[K]] struct {
	changes []inFlightChange[K, V]
	queries []inFlightQuery[K, V]
}

func newResolverSet[K Key, V Value[K]]() *resolverSet[K, V] {
	return &resolverSet[K, V]{}
}

// submitChange starts the storage operation on its own goroutine and
// registers it as in-flight.
func (r *resolverSet[K, V]) submitChange(ctx context.Context, storage Storage[K, V], req ChangeRequest[K, V], reply chan ChangeResult) {
	result := make(chan changeOutcome[K, V], 1)
	go func() {
		err := runChange(ctx, storage, req)
		if err != nil {
			result <- changeOutcome[K, V]{err: NewStorageError(err)}
			return
		}
		result <- changeOutcome[K, V]{mutation: mutationFromRequest(req)}
	}()
	r.changes = append(r.changes, inFlightChange[K, V]{result: result, reply: reply})
}

// submitQuery starts the storage query on its own goroutine and registers
// it as in-flight.
func (r *resolverSet[K, V]) submitQuery(ctx context.Context, storage Storage[K, V], origin uuid.UUID, q Query[K, V], reply chan QueryResult[K, V]) {
	result := make(chan queryOutcome[K, V], 1)
	go func() {
		fresh, err := runQuery(ctx, storage, q)
		if err != nil {
			result <- queryOutcome[K, V]{err: NewStorageError(err)}
			return
		}
		result <- queryOutcome[K, V]{fresh: fresh}
	}()
	r.queries = append(r.queries, inFlightQuery[K, V]{origin: origin, result: result, reply: reply})
}

// poll drains every completed in-flight operation (non-blocking), sends
// its typed result to the originating reply channel (swallowing a dropped
// receiver per spec.md §4.3), and returns the resolved changes/queries in
// the order they were found complete.
func (r *resolverSet[K, V]) poll() ([]resolvedChange[K, V], []resolvedQuery[K, V]) {
	var resolvedChanges []resolvedChange[K, V]
	remainingChanges := r.changes[:0]
	for _, inf := range r.changes {
		select {
		case out := <-inf.result:
			sendChangeReply(inf.reply, out)
			if out.err == nil {
				m := out.mutation
				resolvedChanges = append(resolvedChanges, resolvedChange[K, V]{mutation: &m})
			}
		default:
			remainingChanges = append(remainingChanges, inf)
		}
	}
	r.changes = remainingChanges

	var resolvedQueries []resolvedQuery[K, V]
	remainingQueries := r.queries[:0]
	for _, inf := range r.queries {
		select {
		case out := <-inf.result:
			sendQueryReply(inf.reply, out)
			if out.err == nil {
				resolvedQueries = append(resolvedQueries, resolvedQuery[K, V]{origin: inf.origin, fresh: out.fresh})
			}
		default:
			remainingQueries = append(remainingQueries, inf)
		}
	}
	r.queries = remainingQueries

	return resolvedChanges, resolvedQueries
}

// sendChangeReply delivers the result to the Communicator's reply channel.
// The channel is always created with capacity 1 for exactly this send, so
// this never blocks even if the Communicator already stopped awaiting it
// (the Go analogue of the source's "dropped oneshot receiver" is simply a
// value nobody ever reads — there is nothing to log or swallow).
func sendChangeReply[K Key, V Value[K]](reply chan ChangeResult, out changeOutcome[K, V]) {
	reply <- ChangeResult{Err: out.err}
}

func sendQueryReply[K Key, V Value[K]](reply chan QueryResult[K, V], out queryOutcome[K, V]) {
	reply <- QueryResult[K, V]{Data: out.fresh, Err: out.err}
}

// depth reports the number of in-flight change + query operations, used
// only for metrics.
func (r *resolverSet[K, V]) depth() int { return len(r.changes) + len(r.queries) }
