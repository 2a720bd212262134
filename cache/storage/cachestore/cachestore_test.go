package cachestore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/tomellm/data-communicator/cache"
)

type item struct {
	ID  int
	Val string
}

func (i item) GetKey() int { return i.ID }

func keyOf(id int) string { return fmt.Sprintf("item-%d", id) }

func TestStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := New[int, item](keyOf)

	if err := s.Insert(ctx, item{ID: 1, Val: "a"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	got, err := s.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got[1].Val != "a" {
		t.Fatalf("expected 'a', got %q", got[1].Val)
	}

	if err := s.Update(ctx, item{ID: 1, Val: "b"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ = s.GetByID(ctx, 1)
	if got[1].Val != "b" {
		t.Fatalf("expected updated value 'b', got %q", got[1].Val)
	}

	if err := s.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.GetByID(ctx, 1); !errors.Is(err, cache.ErrNotPresent) {
		t.Fatalf("expected ErrNotPresent after deleting the only row, got %v", err)
	}
}

func TestStoreGetByIDMiss(t *testing.T) {
	s := New[int, item](keyOf)
	if _, err := s.GetByID(context.Background(), 999); !errors.Is(err, cache.ErrNotPresent) {
		t.Fatalf("expected ErrNotPresent for an absent key, got %v", err)
	}
}

func TestStoreDefaultKeyFunc(t *testing.T) {
	s := New[int, item](nil)
	ctx := context.Background()
	if err := s.InsertMany(ctx, []item{{ID: 1, Val: "x"}, {ID: 2, Val: "y"}}); err != nil {
		t.Fatalf("InsertMany: %v", err)
	}
	all, err := s.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(all))
	}
}

func TestStoreGetByPredicate(t *testing.T) {
	s := New[int, item](keyOf)
	ctx := context.Background()
	_ = s.InsertMany(ctx, []item{{ID: 1, Val: "x"}, {ID: 2, Val: "y"}, {ID: 3, Val: "x"}})

	got, err := s.GetByPredicate(ctx, func(v item) bool { return v.Val == "x" })
	if err != nil {
		t.Fatalf("GetByPredicate: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 matching rows, got %d", len(got))
	}
}
