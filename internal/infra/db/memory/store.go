// Package memory provides in-process implementations of the plan registry and
// redemption ledger. The ledger is only linearizable within one process, so it
// must not be shared by several service instances.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jackc/pgx/v4"

	"github.com/fetosat/daleelbalady-sub010/internal/domain"
	"github.com/fetosat/daleelbalady-sub010/internal/domain/model"
	"github.com/fetosat/daleelbalady-sub010/internal/domain/ports/repository"
)

var (
	_ repository.PlanRegistry       = (*PlanRegistry)(nil)
	_ repository.RedemptionLedger   = (*Ledger)(nil)
	_ repository.TransactionManager = (*TxManager)(nil)
)

// PlanRegistry keeps plans by ID.
type PlanRegistry struct {
	mu    sync.RWMutex
	plans map[string]*model.DiscountPlan
}

func NewPlanRegistry() *PlanRegistry {
	return &PlanRegistry{plans: make(map[string]*model.DiscountPlan)}
}

// Save stores a copy of plan, replacing any plan with the same ID.
func (r *PlanRegistry) Save(plan *model.DiscountPlan) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *plan
	r.plans[plan.ID] = &cp
}

func (r *PlanRegistry) FindByPin(ctx context.Context, tx repository.Tx, pin string) ([]*model.DiscountPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.DiscountPlan
	for _, p := range r.plans {
		if p.PinCode == pin {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Ledger is an append-only slice of redemptions. Cap checks are serialized by
// a mutex per (owner, month) key.
type Ledger struct {
	mu      sync.RWMutex
	entries []*model.Redemption
	byCode  map[string]int

	locks sync.Map // "owner|month" -> *sync.Mutex
}

func NewLedger() *Ledger {
	return &Ledger{byCode: make(map[string]int)}
}

func (l *Ledger) slotLock(ownerID, monthYear string) *sync.Mutex {
	m, _ := l.locks.LoadOrStore(ownerID+"|"+monthYear, &sync.Mutex{})
	return m.(*sync.Mutex)
}

func (l *Ledger) CountSuccessful(ctx context.Context, tx repository.Tx, ownerID, monthYear string) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.countLocked(ownerID, monthYear), nil
}

func (l *Ledger) countLocked(ownerID, monthYear string) int {
	n := 0
	for _, e := range l.entries {
		if e.PlanOwnerID == ownerID && e.MonthYear == monthYear && e.Status == model.RedemptionStatusSuccess {
			n++
		}
	}
	return n
}

func (l *Ledger) InsertSuccessAtomic(ctx context.Context, tx repository.Tx, rec *model.Redemption, limit int) (int, bool, error) {
	if rec == nil || rec.Status != model.RedemptionStatusSuccess {
		return 0, false, domain.ErrInvalidArgument
	}
	slot := l.slotLock(rec.PlanOwnerID, rec.MonthYear)
	slot.Lock()
	defer slot.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	n := l.countLocked(rec.PlanOwnerID, rec.MonthYear)
	if n >= limit {
		return n, false, nil
	}
	if err := l.appendLocked(rec); err != nil {
		return n, false, err
	}
	return n + 1, true, nil
}

func (l *Ledger) InsertFailed(ctx context.Context, tx repository.Tx, rec *model.Redemption) error {
	if rec == nil || rec.Status != model.RedemptionStatusFailed {
		return domain.ErrInvalidArgument
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.appendLocked(rec)
}

func (l *Ledger) appendLocked(rec *model.Redemption) error {
	if _, dup := l.byCode[rec.VerificationCode]; dup {
		return domain.ErrAlreadyExists
	}
	cp := *rec
	l.entries = append(l.entries, &cp)
	l.byCode[rec.VerificationCode] = len(l.entries) - 1
	return nil
}

func (l *Ledger) FindByVerificationCode(ctx context.Context, tx repository.Tx, code string) (*model.Redemption, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i, ok := l.byCode[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *l.entries[i]
	return &cp, nil
}

func (l *Ledger) ListByOwner(ctx context.Context, tx repository.Tx, ownerID string, limit int) ([]*model.Redemption, error) {
	return l.list(func(r *model.Redemption) bool { return r.PlanOwnerID == ownerID }, limit), nil
}

func (l *Ledger) ListByProvider(ctx context.Context, tx repository.Tx, providerID string, limit int) ([]*model.Redemption, error) {
	return l.list(func(r *model.Redemption) bool { return r.VerifiedBy == providerID }, limit), nil
}

func (l *Ledger) list(match func(*model.Redemption) bool, limit int) []*model.Redemption {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*model.Redemption, 0)
	for _, e := range l.entries {
		if match(e) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].VerifiedAt.After(out[j].VerifiedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Len returns the number of entries, SUCCESS and FAILED.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// TxManager runs fn directly; the memory store has no transactions.
type TxManager struct{}

func NewTxManager() *TxManager { return &TxManager{} }

func (TxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}
