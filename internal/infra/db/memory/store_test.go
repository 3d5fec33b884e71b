//go:build !integration

package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fetosat/daleelbalady-sub010/internal/domain"
	"github.com/fetosat/daleelbalady-sub010/internal/domain/model"
)

func success(owner, month, code string, at time.Time) *model.Redemption {
	return &model.Redemption{
		ID:               code,
		PlanOwnerID:      owner,
		VerificationCode: code,
		VerifiedBy:       "provider-1",
		MonthYear:        month,
		Status:           model.RedemptionStatusSuccess,
		VerifiedAt:       at,
	}
}

func TestLedger_InsertSuccessAtomic(t *testing.T) {
	ctx := context.Background()

	t.Run("stops at the limit under concurrency", func(t *testing.T) {
		l := NewLedger()
		const limit, callers = 5, 40
		var wg sync.WaitGroup
		var accepted int32
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, ok, err := l.InsertSuccessAtomic(ctx, nil, success("owner-1", "2024-01", fmt.Sprintf("code-%d", i), time.Now()), limit)
				if err != nil {
					t.Errorf("insert %d: %v", i, err)
				}
				if ok {
					atomic.AddInt32(&accepted, 1)
				}
			}(i)
		}
		wg.Wait()

		if accepted != limit {
			t.Fatalf("expected %d accepted inserts, got %d", limit, accepted)
		}
		n, _ := l.CountSuccessful(ctx, nil, "owner-1", "2024-01")
		if n != limit {
			t.Fatalf("expected %d successful entries, got %d", limit, n)
		}
	})

	t.Run("buckets are independent", func(t *testing.T) {
		l := NewLedger()
		_, ok1, _ := l.InsertSuccessAtomic(ctx, nil, success("owner-1", "2024-01", "a", time.Now()), 1)
		_, ok2, _ := l.InsertSuccessAtomic(ctx, nil, success("owner-1", "2024-02", "b", time.Now()), 1)
		_, ok3, _ := l.InsertSuccessAtomic(ctx, nil, success("owner-2", "2024-01", "c", time.Now()), 1)
		_, ok4, _ := l.InsertSuccessAtomic(ctx, nil, success("owner-1", "2024-01", "d", time.Now()), 1)
		if !ok1 || !ok2 || !ok3 {
			t.Error("expected first insert of each bucket to be accepted")
		}
		if ok4 {
			t.Error("expected second insert into a full bucket to be rejected")
		}
	})

	t.Run("failed entries do not consume the cap", func(t *testing.T) {
		l := NewLedger()
		failed := success("owner-1", "2024-01", "f", time.Now())
		failed.Status = model.RedemptionStatusFailed
		if err := l.InsertFailed(ctx, nil, failed); err != nil {
			t.Fatalf("InsertFailed: %v", err)
		}
		used, ok, _ := l.InsertSuccessAtomic(ctx, nil, success("owner-1", "2024-01", "s", time.Now()), 1)
		if !ok || used != 1 {
			t.Errorf("expected success insert to be accepted as the first use, got ok=%v used=%d", ok, used)
		}
		if l.Len() != 2 {
			t.Errorf("expected 2 entries, got %d", l.Len())
		}
	})

	t.Run("reports the bucket count under the lock", func(t *testing.T) {
		l := NewLedger()
		for i := 1; i <= 2; i++ {
			used, ok, err := l.InsertSuccessAtomic(ctx, nil, success("owner-1", "2024-01", fmt.Sprintf("u%d", i), time.Now()), 2)
			if err != nil || !ok || used != i {
				t.Fatalf("insert %d: used=%d ok=%v err=%v", i, used, ok, err)
			}
		}
		used, ok, err := l.InsertSuccessAtomic(ctx, nil, success("owner-1", "2024-01", "u3", time.Now()), 2)
		if err != nil || ok || used != 2 {
			t.Errorf("expected refusal at 2 used, got used=%d ok=%v err=%v", used, ok, err)
		}
	})

	t.Run("rejects duplicate verification codes", func(t *testing.T) {
		l := NewLedger()
		_, _, _ = l.InsertSuccessAtomic(ctx, nil, success("owner-1", "2024-01", "dup", time.Now()), 5)
		_, _, err := l.InsertSuccessAtomic(ctx, nil, success("owner-1", "2024-01", "dup", time.Now()), 5)
		if !errors.Is(err, domain.ErrAlreadyExists) {
			t.Errorf("expected ErrAlreadyExists, got %v", err)
		}
	})
}

func TestLedger_Queries(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, _, _ = l.InsertSuccessAtomic(ctx, nil, success("owner-1", "2024-03", fmt.Sprintf("c%d", i), base.Add(time.Duration(i)*time.Hour)), 10)
	}

	got, err := l.FindByVerificationCode(ctx, nil, "c1")
	if err != nil || got.VerificationCode != "c1" {
		t.Fatalf("FindByVerificationCode: %v %+v", err, got)
	}
	if _, err := l.FindByVerificationCode(ctx, nil, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	hist, _ := l.ListByOwner(ctx, nil, "owner-1", 2)
	if len(hist) != 2 || hist[0].VerificationCode != "c2" {
		t.Errorf("expected newest two entries first, got %+v", hist)
	}
	prov, _ := l.ListByProvider(ctx, nil, "provider-1", 0)
	if len(prov) != 3 {
		t.Errorf("expected 3 provider entries, got %d", len(prov))
	}
}

func TestPlanRegistry_FindByPin(t *testing.T) {
	ctx := context.Background()
	r := NewPlanRegistry()
	r.Save(&model.DiscountPlan{ID: "p1", PinCode: "246813"})
	r.Save(&model.DiscountPlan{ID: "p2", PinCode: "111111"})
	r.Save(&model.DiscountPlan{ID: "p3", PinCode: "111111"})

	one, _ := r.FindByPin(ctx, nil, "246813")
	if len(one) != 1 || one[0].ID != "p1" {
		t.Errorf("expected p1, got %+v", one)
	}
	two, _ := r.FindByPin(ctx, nil, "111111")
	if len(two) != 2 {
		t.Errorf("expected both plans sharing a pin, got %d", len(two))
	}
	none, _ := r.FindByPin(ctx, nil, "000000")
	if len(none) != 0 {
		t.Errorf("expected no plans, got %d", len(none))
	}
}
