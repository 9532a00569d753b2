package wallet_test

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/spacecards/economy-api/internal/domain/wallet"
	"github.com/spacecards/economy-api/internal/pkg/database"
)

// memRepo is an in-memory wallet.Repository.
type memRepo struct {
	mu      sync.Mutex
	users   map[uuid.UUID]bool
	wallets map[uuid.UUID]wallet.Wallet
	txs     []wallet.Transaction
}

func newMemRepo(users ...uuid.UUID) *memRepo {
	r := &memRepo{
		users:   make(map[uuid.UUID]bool),
		wallets: make(map[uuid.UUID]wallet.Wallet),
	}
	for _, u := range users {
		r.users[u] = true
	}
	return r
}

func (r *memRepo) UserExists(_ context.Context, _ database.Querier, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[userID], nil
}

func (r *memRepo) LockWallet(_ context.Context, _ database.Querier, userID uuid.UUID, currency string) (*wallet.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[userID]
	if !ok {
		w = wallet.Wallet{UserID: userID, Currency: currency}
		r.wallets[userID] = w
	}
	return &w, nil
}

func (r *memRepo) UpdateWallet(_ context.Context, _ database.Querier, w *wallet.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wallets[w.UserID] = *w
	return nil
}

func (r *memRepo) InsertTransaction(_ context.Context, _ database.Querier, t *wallet.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txs = append(r.txs, *t)
	return nil
}

func (r *memRepo) GetWallet(_ context.Context, userID uuid.UUID) (*wallet.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[userID]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (r *memRepo) ListTransactions(_ context.Context, userID uuid.UUID, limit, offset int) ([]*wallet.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*wallet.Transaction
	for i := len(r.txs) - 1; i >= 0; i-- {
		if r.txs[i].UserID == userID {
			t := r.txs[i]
			out = append(out, &t)
		}
	}
	if offset >= len(out) {
		return []*wallet.Transaction{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRepo) CountWallets(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.wallets), nil
}

func (r *memRepo) ListDrift(context.Context) ([]*wallet.Drift, error) {
	return []*wallet.Drift{}, nil
}

func (r *memRepo) snapshot() (map[uuid.UUID]wallet.Wallet, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ws := make(map[uuid.UUID]wallet.Wallet, len(r.wallets))
	for k, v := range r.wallets {
		ws[k] = v
	}
	return ws, len(r.txs)
}

func (r *memRepo) restore(ws map[uuid.UUID]wallet.Wallet, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wallets = ws
	r.txs = r.txs[:n]
}

func (r *memRepo) balance(userID uuid.UUID) decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.wallets[userID].Balance
}

func (r *memRepo) entries(userID uuid.UUID) []wallet.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []wallet.Transaction
	for _, t := range r.txs {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}

// assertReconciled checks balance and lifetime aggregates against the log.
func (r *memRepo) assertReconciled(t *testing.T) {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]uuid.UUID, 0, len(r.wallets))
	for id := range r.wallets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	for _, id := range ids {
		sum, earned, spent := decimal.Zero, decimal.Zero, decimal.Zero
		for _, tx := range r.txs {
			if tx.UserID != id {
				continue
			}
			sum = sum.Add(tx.Amount)
			if tx.Type.CountsAsEarnings() {
				earned = earned.Add(tx.Amount)
			}
			if tx.Type == wallet.TransactionTypePurchase {
				spent = spent.Sub(tx.Amount)
			}
		}
		w := r.wallets[id]
		assert.True(t, w.Balance.Equal(sum), "balance %s != ledger %s", w.Balance, sum)
		assert.True(t, w.LifetimeEarnings.Equal(earned), "earnings %s != ledger %s", w.LifetimeEarnings, earned)
		assert.True(t, w.LifetimeSpent.Equal(spent), "spent %s != ledger %s", w.LifetimeSpent, spent)
		assert.False(t, w.Balance.IsNegative())
	}
}

// memStore rolls memRepo back when fn fails.
type memStore struct {
	repo *memRepo
}

func (s memStore) WithTx(_ context.Context, fn func(q database.Querier) error) error {
	ws, n := s.repo.snapshot()
	if err := fn(nil); err != nil {
		s.repo.restore(ws, n)
		return err
	}
	return nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}
