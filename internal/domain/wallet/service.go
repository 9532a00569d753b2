package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/spacecards/economy-api/internal/pkg/database"
)

const (
	DefaultTransactionsLimit = 50
	MaxTransactionsLimit     = 50
)

// Service is the wallet ledger. Every balance change is paired with an
// immutable transaction row in the same database transaction.
type Service struct {
	store  database.TxRunner
	repo   Repository
	policy FeePolicy
	now    func() time.Time
}

func NewService(store database.TxRunner, repo Repository, policy FeePolicy) *Service {
	return &Service{store: store, repo: repo, policy: policy, now: time.Now}
}

// Policy returns the fee policy applied by the ledger.
func (s *Service) Policy() FeePolicy {
	return s.policy
}

// Credit adds a positive amount to a user's balance in its own transaction.
func (s *Service) Credit(ctx context.Context, e Entry) (*Transaction, error) {
	var out *Transaction
	err := s.store.WithTx(ctx, func(q database.Querier) error {
		t, err := s.CreditTx(ctx, q, e)
		out = t
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("user_id", e.UserID.String()).Str("type", string(e.Type)).Str("amount", e.Amount.String()).Msg("wallet credit applied")
	return out, nil
}

// Debit removes a positive amount from a user's balance in its own transaction.
func (s *Service) Debit(ctx context.Context, e Entry) (*Transaction, error) {
	var out *Transaction
	err := s.store.WithTx(ctx, func(q database.Querier) error {
		t, err := s.DebitTx(ctx, q, e)
		out = t
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("user_id", e.UserID.String()).Str("type", string(e.Type)).Str("amount", e.Amount.String()).Msg("wallet debit applied")
	return out, nil
}

// CreditTx applies a credit inside the caller's transaction.
func (s *Service) CreditTx(ctx context.Context, q database.Querier, e Entry) (*Transaction, error) {
	if !e.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !FitsMoneyScale(e.Amount) {
		return nil, ErrAmountScale
	}
	if !e.Type.IsCredit() {
		return nil, fmt.Errorf("%w: %s is not a credit", ErrInvalidType, e.Type)
	}

	w, err := s.lock(ctx, q, e.UserID)
	if err != nil {
		return nil, err
	}

	w.Balance = w.Balance.Add(e.Amount)
	if e.Type.CountsAsEarnings() {
		w.LifetimeEarnings = w.LifetimeEarnings.Add(e.Amount)
	}

	return s.apply(ctx, q, w, e, e.Amount)
}

// DebitTx applies a debit inside the caller's transaction. The balance is
// checked on the locked row, never on a prior read.
func (s *Service) DebitTx(ctx context.Context, q database.Querier, e Entry) (*Transaction, error) {
	if !e.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !FitsMoneyScale(e.Amount) {
		return nil, ErrAmountScale
	}
	if !e.Type.IsDebit() {
		return nil, fmt.Errorf("%w: %s is not a debit", ErrInvalidType, e.Type)
	}

	w, err := s.lock(ctx, q, e.UserID)
	if err != nil {
		return nil, err
	}

	if w.Balance.LessThan(e.Amount) {
		return nil, fmt.Errorf("%w: balance %s, required %s", ErrInsufficientFunds, w.Balance.StringFixed(2), e.Amount.StringFixed(2))
	}

	w.Balance = w.Balance.Sub(e.Amount)
	if e.Type == TransactionTypePurchase {
		w.LifetimeSpent = w.LifetimeSpent.Add(e.Amount)
	}

	return s.apply(ctx, q, w, e, e.Amount.Neg())
}

func (s *Service) lock(ctx context.Context, q database.Querier, userID uuid.UUID) (*Wallet, error) {
	exists, err := s.repo.UserExists(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	return s.repo.LockWallet(ctx, q, userID, s.policy.Currency())
}

func (s *Service) apply(ctx context.Context, q database.Querier, w *Wallet, e Entry, signed decimal.Decimal) (*Transaction, error) {
	if err := s.repo.UpdateWallet(ctx, q, w); err != nil {
		return nil, err
	}

	t := &Transaction{
		ID:              uuid.New(),
		UserID:          e.UserID,
		Type:            e.Type,
		Amount:          signed,
		Description:     e.Description,
		RelatedItemID:   optionalString(e.RelatedItemID),
		RelatedItemType: optionalString(e.RelatedItemType),
		CreatedAt:       s.now().UTC(),
	}
	if err := s.repo.InsertTransaction(ctx, q, t); err != nil {
		return nil, err
	}
	return t, nil
}

// GetWallet returns the user's wallet, or a zero wallet when none exists yet.
func (s *Service) GetWallet(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	w, err := s.repo.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return &Wallet{
			UserID:           userID,
			Balance:          decimal.Zero,
			LifetimeEarnings: decimal.Zero,
			LifetimeSpent:    decimal.Zero,
			PendingPayout:    decimal.Zero,
			Currency:         s.policy.Currency(),
		}, nil
	}
	return w, nil
}

// ListTransactions returns the user's ledger, newest first.
func (s *Service) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Transaction, error) {
	if limit <= 0 || limit > MaxTransactionsLimit {
		limit = DefaultTransactionsLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListTransactions(ctx, userID, limit, offset)
}
