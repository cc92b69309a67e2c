package memory

import (
	"context"
	"testing"

	"github.com/wyfcoding/orderexec/internal/orderexec/domain"
)

func TestNextID_MonotonicNeverReused(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()

	first, err := repo.NextID(ctx)
	if err != nil {
		t.Fatalf("NextID() error: %v", err)
	}
	if first != 0 {
		t.Errorf("first id = %d, want 0", first)
	}

	if err := repo.Insert(ctx, &domain.Order{ID: first, Owner: "alice", AccountRef: "acct-1"}); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}
	if err := repo.Remove(ctx, first); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}

	// 删除后的 ID 不会被重新分配
	second, _ := repo.NextID(ctx)
	if second != 1 {
		t.Errorf("id after removal = %d, want 1", second)
	}
}

func TestGet_RemovedSlotReadsNil(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()

	id, _ := repo.NextID(ctx)
	if err := repo.Insert(ctx, &domain.Order{ID: id, Owner: "alice", AccountRef: "acct-1"}); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	order, err := repo.Get(ctx, id)
	if err != nil || order == nil {
		t.Fatalf("Get() = (%v, %v), want live order", order, err)
	}

	if err := repo.Remove(ctx, id); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	order, err = repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() after removal error: %v", err)
	}
	if order != nil {
		t.Errorf("Get() after removal = %+v, want nil", order)
	}
}

func TestListByOwner_Pagination(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		id, _ := repo.NextID(ctx)
		owner := "alice"
		if i%2 == 1 {
			owner = "bob"
		}
		if err := repo.Insert(ctx, &domain.Order{ID: id, Owner: owner, AccountRef: "acct"}); err != nil {
			t.Fatalf("Insert() error: %v", err)
		}
	}

	orders, total, err := repo.ListByOwner(ctx, "alice", 2, 0)
	if err != nil {
		t.Fatalf("ListByOwner() error: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(orders) != 2 {
		t.Fatalf("page size = %d, want 2", len(orders))
	}
	if orders[0].ID != 0 || orders[1].ID != 2 {
		t.Errorf("page ids = %d,%d, want 0,2", orders[0].ID, orders[1].ID)
	}

	orders, _, err = repo.ListByOwner(ctx, "alice", 2, 2)
	if err != nil {
		t.Fatalf("ListByOwner() offset error: %v", err)
	}
	if len(orders) != 1 || orders[0].ID != 4 {
		t.Errorf("second page = %+v, want single order with id 4", orders)
	}
}

func TestGet_ReturnsCopy(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()

	id, _ := repo.NextID(ctx)
	if err := repo.Insert(ctx, &domain.Order{ID: id, Owner: "alice", AccountRef: "acct-1", ExecutionsLeft: 3}); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	order, _ := repo.Get(ctx, id)
	order.ExecutionsLeft = 0

	reread, _ := repo.Get(ctx, id)
	if reread.ExecutionsLeft != 3 {
		t.Errorf("stored order mutated through returned copy: executions_left = %d, want 3", reread.ExecutionsLeft)
	}
}
