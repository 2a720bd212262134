package cache

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ChangeKind distinguishes the shape of a ChangeRequest/Mutation.
type ChangeKind int

const (
	ChangeInsert ChangeKind = iota
	ChangeUpdate
	ChangeDelete
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeInsert:
		return "Insert"
	case ChangeUpdate:
		return "Update"
	case ChangeDelete:
		return "Delete"
	default:
		return "Unknown"
	}
}

// ChangeRequest is what a Communicator submits to ask the Container to
// insert, update or delete one or more rows. Exactly one of values/keys is
// populated, matching Kind.
type ChangeRequest[K Key, V Value[K]] struct {
	Kind   ChangeKind
	Values []V
	Keys   []K
}

func insertRequest[K Key, V Value[K]](v V) ChangeRequest[K, V] {
	return ChangeRequest[K, V]{Kind: ChangeInsert, Values: []V{v}}
}

func insertManyRequest[K Key, V Value[K]](vs []V) ChangeRequest[K, V] {
	return ChangeRequest[K, V]{Kind: ChangeInsert, Values: vs}
}

func updateRequest[K Key, V Value[K]](v V) ChangeRequest[K, V] {
	return ChangeRequest[K, V]{Kind: ChangeUpdate, Values: []V{v}}
}

func updateManyRequest[K Key, V Value[K]](vs []V) ChangeRequest[K, V] {
	return ChangeRequest[K, V]{Kind: ChangeUpdate, Values: vs}
}

func deleteRequest[K Key, V Value[K]](k K) ChangeRequest[K, V] {
	return ChangeRequest[K, V]{Kind: ChangeDelete, Keys: []K{k}}
}

func deleteManyRequest[K Key, V Value[K]](ks []K) ChangeRequest[K, V] {
	return ChangeRequest[K, V]{Kind: ChangeDelete, Keys: ks}
}

// isEmpty reports whether this is the "empty-many" sentinel (e.g.
// InsertMany(nil)) that the Container short-circuits without touching
// Storage (spec.md §3, P4).
func (c ChangeRequest[K, V]) isEmpty() bool {
	switch c.Kind {
	case ChangeDelete:
		return len(c.Keys) == 0
	default:
		return len(c.Values) == 0
	}
}

func (c ChangeRequest[K, V]) String() string {
	switch c.Kind {
	case ChangeDelete:
		return fmt.Sprintf("%s(%d)", c.Kind, len(c.Keys))
	default:
		return fmt.Sprintf("%s(%d)", c.Kind, len(c.Values))
	}
}

// Mutation is the raw Δ the Container derives from a successful
// ChangeRequest and fans out to interested Communicators (spec.md §3). Its
// Kind always matches the originating ChangeRequest's Kind.
type Mutation[K Key, V Value[K]] struct {
	Kind   ChangeKind
	Values []V
	Keys   []K
}

func mutationFromRequest[K Key, V Value[K]](req ChangeRequest[K, V]) Mutation[K, V] {
	return Mutation[K, V]{Kind: req.Kind, Values: req.Values, Keys: req.Keys}
}

// ValueKeys returns every key touched by this mutation, for Insert/Update
// derived from Values.GetKey() and for Delete directly from Keys.
func (m Mutation[K, V]) ValueKeys() []K {
	if m.Kind == ChangeDelete {
		return m.Keys
	}
	return keysOf(m.Values)
}

func (m Mutation[K, V]) isEmpty() bool {
	if m.Kind == ChangeDelete {
		return len(m.Keys) == 0
	}
	return len(m.Values) == 0
}

// ChangeResult is the single typed result variant yielded by the future
// returned from Communicator's change methods (spec.md §4.4, §7).
type ChangeResult struct {
	Err error
}

// Success reports whether the change was applied without error.
func (r ChangeResult) Success() bool { return r.Err == nil }

// Change error kinds (spec.md §7). Compare with errors.Is.
var (
	// ErrSubmissionChannelFull names the SubmissionChannelFull kind from
	// spec.md §7. This implementation handles a full submission channel
	// by suspending the caller until there is room (spec.md §5) rather
	// than failing, so nothing in this package ever returns it; it is
	// exported only so the kind has a stable identity in the taxonomy.
	ErrSubmissionChannelFull = errors.New("data-communicator: submission channel full")
	// ErrSubmissionChannelClosed means the Container has been dropped.
	ErrSubmissionChannelClosed = errors.New("data-communicator: submission channel closed, container is gone")
	// ErrReplyChannelDropped names the kind for a caller that abandoned the
	// result before the Container could deliver it. Nothing in this package
	// returns or logs it: every reply channel has capacity 1, so an
	// abandoned result is simply never read.
	ErrReplyChannelDropped = errors.New("data-communicator: reply channel dropped")
	// ErrNotPresent means a ById query found no matching row. Storage
	// implementations return it from GetByID on a miss; runQuery passes it
	// straight through to the query's originator as a StorageError.
	ErrNotPresent = errors.New("data-communicator: key not present")
)

// StorageError wraps a failure returned by the Storage backend.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage error: %s", e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError builds the StorageError kind from §7's taxonomy.
func NewStorageError(err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Err: err}
}

// changeSubmission pairs a request type with its single-shot reply,
// travelling from Communicator to Container over the change submission
// channel. Mirrors the source's buffered::change::Change.
type changeSubmission[K Key, V Value[K]] struct {
	origin  uuid.UUID
	request ChangeRequest[K, V]
	reply   chan ChangeResult
}
