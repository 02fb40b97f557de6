package ordering

import (
	"context"
	"errors"
	"testing"

	"schedr/internal/models"
)

type memReader struct {
	orders   map[int64]int
	children map[int64][]int
	err      error
}

func (m *memReader) ParentOrder(ctx context.Context, parentID int64) (int, bool, error) {
	if m.err != nil {
		return 0, false, m.err
	}
	order, ok := m.orders[parentID]
	return order, ok, nil
}

func (m *memReader) MaxChildOrder(ctx context.Context, parentID int64) (int, bool, error) {
	if m.err != nil {
		return 0, false, m.err
	}
	kids := m.children[parentID]
	if len(kids) == 0 {
		return 0, false, nil
	}
	max := kids[0]
	for _, k := range kids[1:] {
		if k > max {
			max = k
		}
	}
	return max, true, nil
}

func (m *memReader) insert(parentID int64, order int) {
	if m.children == nil {
		m.children = map[int64][]int{}
	}
	m.children[parentID] = append(m.children[parentID], order)
}

func ptr(v int64) *int64 { return &v }

func TestAssignRoot(t *testing.T) {
	got, err := Assign(context.Background(), &memReader{}, nil, Options{})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if got != RootOrder {
		t.Fatalf("expected %d, got %d", RootOrder, got)
	}
}

func TestAssignMissingParent(t *testing.T) {
	r := &memReader{orders: map[int64]int{}}

	got, err := Assign(context.Background(), r, ptr(42), Options{})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if got != RootOrder {
		t.Fatalf("expected degraded fallback %d, got %d", RootOrder, got)
	}

	_, err = Assign(context.Background(), r, ptr(42), Options{Strict: true})
	if !errors.Is(err, ErrParentNotFound) {
		t.Fatalf("expected ErrParentNotFound, got %v", err)
	}
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation kind, got %v", err)
	}
}

func TestAssignSequentialChildren(t *testing.T) {
	ctx := context.Background()
	r := &memReader{orders: map[int64]int{1: 0}}

	for _, want := range []int{1, 2, 3} {
		got, err := Assign(ctx, r, ptr(1), Options{})
		if err != nil {
			t.Fatalf("assign: %v", err)
		}
		if got != want {
			t.Fatalf("expected %d, got %d", want, got)
		}
		r.insert(1, got)
	}
}

func TestAssignStartsAfterParentOrder(t *testing.T) {
	r := &memReader{orders: map[int64]int{7: 5}}
	got, err := Assign(context.Background(), r, ptr(7), Options{})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if got != 6 {
		t.Fatalf("expected first child after parent order 5 to get 6, got %d", got)
	}
}

func TestAssignPropagatesReaderError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Assign(context.Background(), &memReader{err: boom}, ptr(1), Options{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected reader error, got %v", err)
	}
}
