package cache

import "context"

// Storage is the external authority behind the Container (spec.md §6.2).
// Implementations must be safe to invoke concurrently: the Container starts
// each operation on its own goroutine, so several methods may run at once
// and alongside later ticks; implementations typically hold their own
// internal synchronization (a mutex, a client handle, ...).
//
// Every method is handed the context passed to NewContainer; Storage
// implementations should respect cancellation where it
// is cheap to do so, though the Container itself never cancels (spec.md
// §5, "Storage operations are not cancelled; they run to completion").
type Storage[K Key, V Value[K]] interface {
	Insert(ctx context.Context, value V) error
	InsertMany(ctx context.Context, values []V) error
	Update(ctx context.Context, value V) error
	UpdateMany(ctx context.Context, values []V) error
	Delete(ctx context.Context, key K) error
	DeleteMany(ctx context.Context, keys []K) error

	GetAll(ctx context.Context) (FreshData[K, V], error)
	GetByID(ctx context.Context, key K) (FreshData[K, V], error)
	GetByIDs(ctx context.Context, keys []K) (FreshData[K, V], error)
	GetByPredicate(ctx context.Context, pred Predicate[K, V]) (FreshData[K, V], error)
}

// runChange dispatches a ChangeRequest to the matching Storage method. The
// empty-many short circuit (spec.md §4.1 step 5, P4) is handled by the
// caller before this is ever invoked.
func runChange[K Key, V Value[K]](ctx context.Context, s Storage[K, V], req ChangeRequest[K, V]) error {
	switch req.Kind {
	case ChangeInsert:
		if len(req.Values) == 1 {
			return s.Insert(ctx, req.Values[0])
		}
		return s.InsertMany(ctx, req.Values)
	case ChangeUpdate:
		if len(req.Values) == 1 {
			return s.Update(ctx, req.Values[0])
		}
		return s.UpdateMany(ctx, req.Values)
	case ChangeDelete:
		if len(req.Keys) == 1 {
			return s.Delete(ctx, req.Keys[0])
		}
		return s.DeleteMany(ctx, req.Keys)
	default:
		return nil
	}
}

// runQuery dispatches a Query to the matching Storage method.
func runQuery[K Key, V Value[K]](ctx context.Context, s Storage[K, V], q Query[K, V]) (FreshData[K, V], error) {
	switch q.Kind {
	case QueryAll:
		return s.GetAll(ctx)
	case QueryByID:
		return s.GetByID(ctx, q.ID)
	case QueryByIDs:
		return s.GetByIDs(ctx, q.IDs)
	case QueryPredicate:
		return s.GetByPredicate(ctx, q.Predicate)
	default:
		return nil, nil
	}
}
