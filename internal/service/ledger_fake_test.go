package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"wallet-ledger/internal/domain"
	"wallet-ledger/internal/errors"
)

// memLedger is an in-memory domain.Ledger. Row locks are real: a unit that holds a
// wallet blocks every other unit asking for it until commit or rollback, so lock
// ordering bugs show up as hangs.
type memLedger struct {
	mu       sync.Mutex
	balances map[int64]int64
	rowLocks map[int64]chan struct{}
	records  []domain.Transaction
	nextID   int64

	commitErr  error
	adjustErrs map[int64]error
	afterLock  func(walletID int64)
	lockLog    []int64
	units      int
}

func newMemLedger(balances map[int64]int64) *memLedger {
	l := &memLedger{
		balances:   make(map[int64]int64),
		rowLocks:   make(map[int64]chan struct{}),
		adjustErrs: make(map[int64]error),
	}
	for id, balance := range balances {
		l.balances[id] = balance
	}
	return l
}

func (l *memLedger) Wallets() domain.WalletRepository { return &memWallets{l: l} }

func (l *memLedger) Transactions() domain.TransactionRepository { return &memTransactions{l: l} }

func (l *memLedger) WithTransaction(ctx context.Context, fn func(domain.UnitOfWork) error) error {
	l.mu.Lock()
	l.units++
	l.mu.Unlock()

	u := &memUnit{l: l, deltas: make(map[int64]int64)}
	defer u.release()

	if err := fn(u); err != nil {
		return err
	}
	return l.commit(u)
}

func (l *memLedger) commit(u *memUnit) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.commitErr != nil {
		return errors.ErrStoreUnavailable.WithDetails(l.commitErr.Error())
	}
	for _, rec := range u.pending {
		if l.findLocked(rec.Ref) != nil {
			return errors.ErrDuplicateTransaction
		}
	}
	for id, delta := range u.deltas {
		l.balances[id] += delta
	}
	for _, rec := range u.pending {
		l.insertLocked(rec)
	}
	return nil
}

func (l *memLedger) balance(id int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[id]
}

func (l *memLedger) recordCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

func (l *memLedger) unitCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.units
}

func (l *memLedger) locksTaken() []int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]int64(nil), l.lockLog...)
}

func (l *memLedger) rowLock(id int64) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.rowLocks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		l.rowLocks[id] = ch
	}
	return ch
}

func (l *memLedger) findLocked(ref string) *domain.Transaction {
	for i := range l.records {
		if l.records[i].Ref == ref {
			rec := l.records[i]
			return &rec
		}
	}
	return nil
}

func (l *memLedger) insertLocked(rec *domain.Transaction) {
	l.nextID++
	rec.ID = l.nextID
	rec.CreatedAt = time.Now().UTC()
	l.records = append(l.records, *rec)
}

type memUnit struct {
	l       *memLedger
	deltas  map[int64]int64
	pending []*domain.Transaction
	held    []chan struct{}
}

func (u *memUnit) Wallets() domain.WalletRepository { return &memWallets{l: u.l, u: u} }

func (u *memUnit) Transactions() domain.TransactionRepository {
	return &memTransactions{l: u.l, u: u}
}

func (u *memUnit) release() {
	for _, ch := range u.held {
		<-ch
	}
	u.held = nil
}

type memWallets struct {
	l *memLedger
	u *memUnit
}

func (r *memWallets) CreateWallet(_ context.Context, wallet *domain.Wallet) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	if _, ok := r.l.balances[wallet.ID]; ok {
		return errors.ErrDuplicateWallet
	}
	r.l.balances[wallet.ID] = wallet.Balance
	wallet.CreatedAt = time.Now().UTC()
	wallet.UpdatedAt = wallet.CreatedAt
	return nil
}

func (r *memWallets) GetWallet(_ context.Context, id int64) (*domain.Wallet, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	balance, ok := r.l.balances[id]
	if !ok {
		return nil, errors.ErrWalletNotFound
	}
	return &domain.Wallet{ID: id, Balance: balance}, nil
}

func (r *memWallets) GetWalletForUpdate(ctx context.Context, id int64) (*domain.Wallet, error) {
	if r.u == nil {
		return nil, errors.ErrCannotBeginTransaction
	}

	r.l.mu.Lock()
	_, ok := r.l.balances[id]
	r.l.mu.Unlock()
	if !ok {
		return nil, errors.ErrWalletNotFound
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.ErrStoreUnavailable.WithDetails(err.Error())
	}
	ch := r.l.rowLock(id)
	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, errors.ErrStoreUnavailable.WithDetails(ctx.Err().Error())
	}
	r.u.held = append(r.u.held, ch)

	r.l.mu.Lock()
	r.l.lockLog = append(r.l.lockLog, id)
	balance := r.l.balances[id] + r.u.deltas[id]
	hook := r.l.afterLock
	r.l.mu.Unlock()

	if hook != nil {
		hook(id)
	}
	return &domain.Wallet{ID: id, Balance: balance}, nil
}

func (r *memWallets) AdjustBalance(_ context.Context, id int64, delta int64) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	if err := r.l.adjustErrs[id]; err != nil {
		return err
	}
	balance, ok := r.l.balances[id]
	if !ok {
		return errors.ErrWalletNotFound
	}
	if r.u == nil {
		if balance+delta < 0 {
			return errors.ErrInsufficientFunds
		}
		r.l.balances[id] = balance + delta
		return nil
	}
	if balance+r.u.deltas[id]+delta < 0 {
		return errors.ErrInsufficientFunds
	}
	r.u.deltas[id] += delta
	return nil
}

type memTransactions struct {
	l *memLedger
	u *memUnit
}

func (r *memTransactions) CreateTransaction(_ context.Context, tx *domain.Transaction) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	if r.l.findLocked(tx.Ref) != nil {
		return errors.ErrDuplicateTransaction
	}
	if r.u == nil {
		r.l.insertLocked(tx)
		return nil
	}
	r.u.pending = append(r.u.pending, tx)
	return nil
}

func (r *memTransactions) GetTransactionByRef(_ context.Context, ref string) (*domain.Transaction, error) {
	if r.u != nil {
		for _, rec := range r.u.pending {
			if rec.Ref == ref {
				cp := *rec
				return &cp, nil
			}
		}
	}
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	return r.l.findLocked(ref), nil
}

func (r *memTransactions) ListRecentTransactions(_ context.Context, filter domain.HistoryFilter) ([]domain.Transaction, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	var out []domain.Transaction
	for _, rec := range r.l.records {
		if rec.ReceiverID == filter.WalletID || (filter.IncludeSent && rec.SenderID == filter.WalletID) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}
