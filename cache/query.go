package cache

import (
	"fmt"

	"github.com/google/uuid"
)

// QueryKind distinguishes the shape of a Query.
type QueryKind int

const (
	QueryAll QueryKind = iota
	QueryByID
	QueryByIDs
	QueryPredicate
)

func (k QueryKind) String() string {
	switch k {
	case QueryAll:
		return "All"
	case QueryByID:
		return "ById"
	case QueryByIDs:
		return "ByIds"
	case QueryPredicate:
		return "Predicate"
	default:
		return "Unknown"
	}
}

// Predicate is a pure, side-effect-free test over a Value, used both to
// query Storage directly and to re-evaluate future Inserts against a
// Communicator's standing query (spec.md §4.2, §9). It must be safe to
// call concurrently and to retain indefinitely.
type Predicate[K Key, V Value[K]] func(V) bool

// Query is one of All, ById, ByIds or Predicate (spec.md §3).
type Query[K Key, V Value[K]] struct {
	Kind      QueryKind
	ID        K
	IDs       []K
	Predicate Predicate[K, V]
}

// All matches every row in Storage.
func All[K Key, V Value[K]]() Query[K, V] {
	return Query[K, V]{Kind: QueryAll}
}

// ByID matches a single row by key.
func ByID[K Key, V Value[K]](id K) Query[K, V] {
	return Query[K, V]{Kind: QueryByID, ID: id}
}

// ByIDs matches any row whose key is in ids.
func ByIDs[K Key, V Value[K]](ids []K) Query[K, V] {
	return Query[K, V]{Kind: QueryByIDs, IDs: ids}
}

// ByPredicate matches any row for which pred returns true.
func ByPredicate[K Key, V Value[K]](pred Predicate[K, V]) Query[K, V] {
	return Query[K, V]{Kind: QueryPredicate, Predicate: pred}
}

// Matches implements QueryType::apply from the source: All always matches,
// ById/ByIds compare keys, Predicate defers to the supplied function.
func (q Query[K, V]) Matches(v V) bool {
	switch q.Kind {
	case QueryAll:
		return true
	case QueryByID:
		return v.GetKey() == q.ID
	case QueryByIDs:
		for _, id := range q.IDs {
			if id == v.GetKey() {
				return true
			}
		}
		return false
	case QueryPredicate:
		return q.Predicate != nil && q.Predicate(v)
	default:
		return false
	}
}

func (q Query[K, V]) String() string {
	switch q.Kind {
	case QueryByIDs:
		return fmt.Sprintf("ByIds(%d)", len(q.IDs))
	default:
		return q.Kind.String()
	}
}

// FreshData is the response body of a successful query: current row
// snapshots keyed by K, unique by key (spec.md §3).
type FreshData[K Key, V Value[K]] map[K]V

// Keys returns every key present in this fresh data set.
func (f FreshData[K, V]) Keys() []K {
	keys := make([]K, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	return keys
}

func freshDataFrom[K Key, V Value[K]](values []V) FreshData[K, V] {
	fresh := make(FreshData[K, V], len(values))
	for _, v := range values {
		fresh[v.GetKey()] = v
	}
	return fresh
}

// QueryResult is the single typed result variant yielded by the future
// returned from Communicator.Query (spec.md §4.4, §7).
type QueryResult[K Key, V Value[K]] struct {
	Data FreshData[K, V]
	Err  error
}

// Success reports whether the query resolved without error.
func (r QueryResult[K, V]) Success() bool { return r.Err == nil }

// querySubmission travels from Communicator to Container over the query
// submission channel, carrying the originating CommunicatorID so the
// Container can both register the standing query and route the reply.
type querySubmission[K Key, V Value[K]] struct {
	origin uuid.UUID
	query  Query[K, V]
	reply  chan QueryResult[K, V]
}
