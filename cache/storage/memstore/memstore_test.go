package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/go-test/deep"

	"github.com/tomellm/data-communicator/cache"
)

type item struct {
	ID  int
	Val string
}

func (i item) GetKey() int { return i.ID }

func TestStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := New[int, item]()

	t.Run("Insert then GetByID round-trips the row", func(t *testing.T) {
		if err := s.Insert(ctx, item{ID: 1, Val: "a"}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		got, err := s.GetByID(ctx, 1)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if diff := deep.Equal(got, cache.FreshData[int, item]{1: {ID: 1, Val: "a"}}); diff != nil {
			t.Fatalf("GetByID result: %v", diff)
		}
	})

	t.Run("Update overwrites an existing row", func(t *testing.T) {
		if err := s.Update(ctx, item{ID: 1, Val: "b"}); err != nil {
			t.Fatalf("Update: %v", err)
		}
		got, _ := s.GetByID(ctx, 1)
		if got[1].Val != "b" {
			t.Fatalf("expected updated value 'b', got %q", got[1].Val)
		}
	})

	t.Run("Delete removes the row", func(t *testing.T) {
		if err := s.Delete(ctx, 1); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := s.GetByID(ctx, 1); !errors.Is(err, cache.ErrNotPresent) {
			t.Fatalf("expected ErrNotPresent after deleting the only row, got %v", err)
		}
	})

	t.Run("GetByID miss returns ErrNotPresent", func(t *testing.T) {
		if _, err := s.GetByID(ctx, 999); !errors.Is(err, cache.ErrNotPresent) {
			t.Fatalf("expected ErrNotPresent for an absent key, got %v", err)
		}
	})

	t.Run("GetByPredicate filters by value", func(t *testing.T) {
		_ = s.InsertMany(ctx, []item{{ID: 1, Val: "x"}, {ID: 2, Val: "y"}, {ID: 3, Val: "x"}})
		got, err := s.GetByPredicate(ctx, func(v item) bool { return v.Val == "x" })
		if err != nil {
			t.Fatalf("GetByPredicate: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 matching rows, got %d", len(got))
		}
	})

	t.Run("GetByIDs returns only the requested, present keys", func(t *testing.T) {
		got, err := s.GetByIDs(ctx, []int{1, 2, 999})
		if err != nil {
			t.Fatalf("GetByIDs: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 rows (999 absent), got %d", len(got))
		}
	})
}

func TestStoreSeed(t *testing.T) {
	s := Seed[int, item]([]item{{ID: 1, Val: "a"}, {ID: 2, Val: "b"}})
	got, err := s.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 seeded rows, got %d", len(got))
	}
}
