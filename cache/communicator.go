package cache

import (
	"context"
	"sort"

	"github.com/google/uuid"
)

// Communicator is the client-facing handle a view holds: a submit half that
// forwards requests to the Container, and a view half that holds the local
// projection of Storage built from whatever the Container has dispatched so
// far (spec.md §3, §4.4). Submit-half methods may suspend the calling
// goroutine briefly if the Container's submission channel is momentarily
// full (spec.md §5); the view half never suspends.
type Communicator[K Key, V Value[K]] struct {
	id uuid.UUID

	changeSubs chan<- changeSubmission[K, V]
	querySubs  chan<- querySubmission[K, V]

	changeMailbox <-chan Mutation[K, V]
	freshMailbox  <-chan FreshData[K, V]
	cancel        context.CancelFunc

	data    map[K]V
	changed bool

	less        func(a, b V) bool
	sorted      []V
	sortedStale bool
}

func newCommunicator[K Key, V Value[K]](
	id uuid.UUID,
	changeSubs chan<- changeSubmission[K, V],
	querySubs chan<- querySubmission[K, V],
	changeMailbox <-chan Mutation[K, V],
	freshMailbox <-chan FreshData[K, V],
	cancel context.CancelFunc,
) *Communicator[K, V] {
	return &Communicator[K, V]{
		id:            id,
		changeSubs:    changeSubs,
		querySubs:     querySubs,
		changeMailbox: changeMailbox,
		freshMailbox:  freshMailbox,
		cancel:        cancel,
		data:          make(map[K]V),
	}
}

// ID returns this Communicator's identity within its Container.
func (c *Communicator[K, V]) ID() uuid.UUID { return c.id }

// Close tells the Container this Communicator is gone. Its mailboxes are
// abandoned; the next dispatch send to them fails and the Container drops
// its interest record on a following tick (spec.md §7, DispatchSendFailed).
func (c *Communicator[K, V]) Close() { c.cancel() }

// Step drains both mailboxes non-blockingly and applies whatever arrived to
// the local view (spec.md §4.4). It never waits for new data.
func (c *Communicator[K, V]) Step() {
	for {
		select {
		case m := <-c.changeMailbox:
			c.apply(m)
		default:
			goto drainFresh
		}
	}
drainFresh:
	for {
		select {
		case fresh := <-c.freshMailbox:
			c.replace(fresh)
		default:
			return
		}
	}
}

func (c *Communicator[K, V]) apply(m Mutation[K, V]) {
	switch m.Kind {
	case ChangeInsert, ChangeUpdate:
		for _, v := range m.Values {
			c.data[v.GetKey()] = v
		}
	case ChangeDelete:
		for _, k := range m.Keys {
			delete(c.data, k)
		}
	}
	c.changed = true
	c.sortedStale = true
}

// replace extends the local view with a query reply rather than discarding
// what came before it (spec.md §4.4: "Fresh data extends the map"). Only
// the Container-side known set is reset on a query (registry.resetKnown);
// the Communicator's own view is additive.
func (c *Communicator[K, V]) replace(fresh FreshData[K, V]) {
	for k, v := range fresh {
		c.data[k] = v
	}
	c.changed = true
	c.sortedStale = true
}

// Data returns a snapshot copy of the local view, keyed by K.
func (c *Communicator[K, V]) Data() map[K]V {
	out := make(map[K]V, len(c.data))
	for k, v := range c.data {
		out[k] = v
	}
	return out
}

// Len reports the number of rows currently held in the local view.
func (c *Communicator[K, V]) Len() int { return len(c.data) }

// IsEmpty reports whether the local view holds no rows.
func (c *Communicator[K, V]) IsEmpty() bool { return len(c.data) == 0 }

// Keys returns every key currently held in the local view.
func (c *Communicator[K, V]) Keys() []K {
	keys := make([]K, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	return keys
}

// HasChanged reports whether the local view has mutated since the last
// MarkViewed call, letting a UI layer skip re-rendering unchanged data.
func (c *Communicator[K, V]) HasChanged() bool { return c.changed }

// MarkViewed clears the changed flag.
func (c *Communicator[K, V]) MarkViewed() { c.changed = false }

// Sort installs less as the ordering used by Sorted and Page. Passing nil
// reverts to the local view's unspecified iteration order.
func (c *Communicator[K, V]) Sort(less func(a, b V) bool) {
	c.less = less
	c.sortedStale = true
}

// Sorted returns every row in the local view, ordered by the function
// passed to Sort (or in unspecified order if none was set). The ordering
// is cached and only recomputed after a mutation or a new Sort call.
func (c *Communicator[K, V]) Sorted() []V {
	if c.sortedStale || c.sorted == nil {
		rows := make([]V, 0, len(c.data))
		for _, v := range c.data {
			rows = append(rows, v)
		}
		if c.less != nil {
			sort.Slice(rows, func(i, j int) bool { return c.less(rows[i], rows[j]) })
		}
		c.sorted = rows
		c.sortedStale = false
	}
	return c.sorted
}

// Page returns the slice of Sorted rows [index*size, index*size+size), or
// nil if index is past the end.
func (c *Communicator[K, V]) Page(index, size int) []V {
	rows := c.Sorted()
	start := index * size
	if start >= len(rows) {
		return nil
	}
	end := start + size
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

// Insert submits a single-row insert (spec.md §3), suspending until the
// request is accepted onto the Container's submission channel. The
// returned channel receives exactly one ChangeResult once the Container
// resolves it; it never yields a second value.
func (c *Communicator[K, V]) Insert(v V) <-chan ChangeResult {
	return c.submitChange(insertRequest[K, V](v))
}

// InsertMany submits a multi-row insert.
func (c *Communicator[K, V]) InsertMany(vs []V) <-chan ChangeResult {
	return c.submitChange(insertManyRequest[K, V](vs))
}

// Update submits a single-row update.
func (c *Communicator[K, V]) Update(v V) <-chan ChangeResult {
	return c.submitChange(updateRequest[K, V](v))
}

// UpdateMany submits a multi-row update.
func (c *Communicator[K, V]) UpdateMany(vs []V) <-chan ChangeResult {
	return c.submitChange(updateManyRequest[K, V](vs))
}

// Delete submits a single-key delete.
func (c *Communicator[K, V]) Delete(k K) <-chan ChangeResult {
	return c.submitChange(deleteRequest[K, V](k))
}

// DeleteMany submits a multi-key delete.
func (c *Communicator[K, V]) DeleteMany(ks []K) <-chan ChangeResult {
	return c.submitChange(deleteManyRequest[K, V](ks))
}

// InsertFunc binds Insert(v) into a zero-argument closure, convenient as a
// UI action callback (spec.md §9/SPEC_FULL.md §3's action-variant helpers).
func (c *Communicator[K, V]) InsertFunc(v V) func() <-chan ChangeResult {
	return func() <-chan ChangeResult { return c.Insert(v) }
}

// UpdateFunc binds Update(v) into a zero-argument closure.
func (c *Communicator[K, V]) UpdateFunc(v V) func() <-chan ChangeResult {
	return func() <-chan ChangeResult { return c.Update(v) }
}

// DeleteFunc binds Delete(k) into a zero-argument closure.
func (c *Communicator[K, V]) DeleteFunc(k K) func() <-chan ChangeResult {
	return func() <-chan ChangeResult { return c.Delete(k) }
}

// QueryFunc binds Query(q) into a zero-argument closure.
func (c *Communicator[K, V]) QueryFunc(q Query[K, V]) func() <-chan QueryResult[K, V] {
	return func() <-chan QueryResult[K, V] { return c.Query(q) }
}

// Query submits an arbitrary Query, which becomes this Communicator's new
// standing query as soon as the Container drains the submission, whether
// or not the Storage query then succeeds (spec.md §4.1 step 5).
func (c *Communicator[K, V]) Query(q Query[K, V]) <-chan QueryResult[K, V] {
	return c.submitQuery(q)
}

// QueryAll submits Query All.
func (c *Communicator[K, V]) QueryAll() <-chan QueryResult[K, V] {
	return c.submitQuery(All[K, V]())
}

// QueryByID submits Query ById.
func (c *Communicator[K, V]) QueryByID(id K) <-chan QueryResult[K, V] {
	return c.submitQuery(ByID[K, V](id))
}

// QueryByIDs submits Query ByIds.
func (c *Communicator[K, V]) QueryByIDs(ids []K) <-chan QueryResult[K, V] {
	return c.submitQuery(ByIDs[K, V](ids))
}

// QueryByPredicate submits Query Predicate.
func (c *Communicator[K, V]) QueryByPredicate(pred Predicate[K, V]) <-chan QueryResult[K, V] {
	return c.submitQuery(ByPredicate[K, V](pred))
}

// submitChange places the request on the Container's change submission
// channel, suspending the caller if it is momentarily full (spec.md §5:
// "suspend until the request is placed in the Container's submission
// channel") — never the Container's own Step, only the calling goroutine.
func (c *Communicator[K, V]) submitChange(req ChangeRequest[K, V]) <-chan ChangeResult {
	reply := make(chan ChangeResult, 1)
	c.changeSubs <- changeSubmission[K, V]{origin: c.id, request: req, reply: reply}
	return reply
}

func (c *Communicator[K, V]) submitQuery(q Query[K, V]) <-chan QueryResult[K, V] {
	reply := make(chan QueryResult[K, V], 1)
	c.querySubs <- querySubmission[K, V]{origin: c.id, query: q, reply: reply}
	return reply
}
