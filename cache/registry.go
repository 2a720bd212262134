package cache

import (
	"github.com/google/uuid"
)

// interestRecord is the per-Communicator state InterestRegistry tracks:
// the keys it currently has locally and the most recent query it issued
// (spec.md §3's "Interest record").
type interestRecord[K Key, V Value[K]] struct {
	known    map[K]struct{}
	standing Query[K, V]
	hasQuery bool
}

func newInterestRecord[K Key, V Value[K]]() *interestRecord[K, V] {
	return &interestRecord[K, V]{known: make(map[K]struct{})}
}

// interestRegistry computes, for a raw Mutation, the per-recipient
// projection Δ_U (spec.md §4.2) and keeps each recipient's known-set and
// standing query up to date. It is owned exclusively by the Container.
type interestRegistry[K Key, V Value[K]] struct {
	records map[uuid.UUID]*interestRecord[K, V]
}

func newInterestRegistry[K Key, V Value[K]]() *interestRegistry[K, V] {
	return &interestRegistry[K, V]{records: make(map[uuid.UUID]*interestRecord[K, V])}
}

// register creates the (empty known, no standing query) record for a newly
// minted Communicator (spec.md invariant 1: single-writer, exactly one
// record per registered U).
func (r *interestRegistry[K, V]) register(id uuid.UUID) {
	r.records[id] = newInterestRecord[K, V]()
}

// remove drops the record for a Communicator whose channels have closed.
func (r *interestRegistry[K, V]) remove(id uuid.UUID) {
	delete(r.records, id)
}

// setStanding records q as id's new standing query (spec.md §4.1 step 5).
func (r *interestRegistry[K, V]) setStanding(id uuid.UUID, q Query[K, V]) {
	rec, ok := r.records[id]
	if !ok {
		return
	}
	rec.standing = q
	rec.hasQuery = true
}

// resetKnown replaces id's known set with fresh's keys, the documented
// choice for spec.md §9's open question (query resets rather than merges
// knowledge; see SPEC_FULL.md §3).
func (r *interestRegistry[K, V]) resetKnown(id uuid.UUID, fresh FreshData[K, V]) {
	rec, ok := r.records[id]
	if !ok {
		return
	}
	known := make(map[K]struct{}, len(fresh))
	for k := range fresh {
		known[k] = struct{}{}
	}
	rec.known = known
}

// project computes Δ_U for every registered recipient, per the rules in
// spec.md §4.2. A recipient is omitted entirely when its projection would
// be empty.
func (r *interestRegistry[K, V]) project(m Mutation[K, V]) []targetedMutation[K, V] {
	out := make([]targetedMutation[K, V], 0, len(r.records))
	for id, rec := range r.records {
		var projected Mutation[K, V]
		switch m.Kind {
		case ChangeInsert:
			values := make([]V, 0, len(m.Values))
			for _, v := range m.Values {
				_, known := rec.known[v.GetKey()]
				matchesStanding := rec.hasQuery && rec.standing.Matches(v)
				if known || matchesStanding {
					values = append(values, v)
				}
			}
			projected = Mutation[K, V]{Kind: ChangeInsert, Values: values}
		case ChangeUpdate:
			values := make([]V, 0, len(m.Values))
			for _, v := range m.Values {
				if _, known := rec.known[v.GetKey()]; known {
					values = append(values, v)
				}
			}
			projected = Mutation[K, V]{Kind: ChangeUpdate, Values: values}
		case ChangeDelete:
			keys := make([]K, 0, len(m.Keys))
			for _, k := range m.Keys {
				if _, known := rec.known[k]; known {
					keys = append(keys, k)
				}
			}
			projected = Mutation[K, V]{Kind: ChangeDelete, Keys: keys}
		}
		if !projected.isEmpty() {
			out = append(out, targetedMutation[K, V]{recipient: id, mutation: projected})
		}
	}
	return out
}

// updateKnown applies the knowledge-update rules from spec.md §4.2: an
// Insert/Update adds keys to known, a Delete removes them. Called by the
// Container immediately after project, before dispatch.
func (r *interestRegistry[K, V]) updateKnown(id uuid.UUID, m Mutation[K, V]) {
	rec, ok := r.records[id]
	if !ok {
		return
	}
	switch m.Kind {
	case ChangeInsert, ChangeUpdate:
		for _, v := range m.Values {
			rec.known[v.GetKey()] = struct{}{}
		}
	case ChangeDelete:
		for _, k := range m.Keys {
			delete(rec.known, k)
		}
	}
}

// targetedMutation is the (U, Δ_U) pair produced by project.
type targetedMutation[K Key, V Value[K]] struct {
	recipient uuid.UUID
	mutation  Mutation[K, V]
}

// size reports how many communicators currently have interest records,
// used only for metrics.
func (r *interestRegistry[K, V]) size() int { return len(r.records) }
