package wallet

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/spacecards/economy-api/internal/pkg/database"
)

// Repository is the wallet storage contract. Methods taking a Querier run
// inside the caller's transaction.
type Repository interface {
	UserExists(ctx context.Context, q database.Querier, userID uuid.UUID) (bool, error)
	LockWallet(ctx context.Context, q database.Querier, userID uuid.UUID, currency string) (*Wallet, error)
	UpdateWallet(ctx context.Context, q database.Querier, w *Wallet) error
	InsertTransaction(ctx context.Context, q database.Querier, t *Transaction) error

	GetWallet(ctx context.Context, userID uuid.UUID) (*Wallet, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Transaction, error)
	CountWallets(ctx context.Context) (int, error)
	ListDrift(ctx context.Context) ([]*Drift, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const walletColumns = `user_id, balance, lifetime_earnings, lifetime_spent, pending_payout, currency, created_at, updated_at`

func (r *repository) UserExists(ctx context.Context, q database.Querier, userID uuid.UUID) (bool, error) {
	var exists bool
	err := q.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID)
	return exists, err
}

func (r *repository) LockWallet(ctx context.Context, q database.Querier, userID uuid.UUID, currency string) (*Wallet, error) {
	if _, err := q.ExecContext(ctx, `
		INSERT INTO user_wallets (user_id, currency)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, currency); err != nil {
		return nil, err
	}

	var w Wallet
	err := q.GetContext(ctx, &w, `SELECT `+walletColumns+` FROM user_wallets WHERE user_id = $1 FOR UPDATE`, userID)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *repository) UpdateWallet(ctx context.Context, q database.Querier, w *Wallet) error {
	_, err := q.ExecContext(ctx, `
		UPDATE user_wallets
		SET balance = $2, lifetime_earnings = $3, lifetime_spent = $4, updated_at = now()
		WHERE user_id = $1
	`, w.UserID, w.Balance, w.LifetimeEarnings, w.LifetimeSpent)
	return err
}

func (r *repository) InsertTransaction(ctx context.Context, q database.Querier, t *Transaction) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO wallet_transactions (id, user_id, type, amount, description, related_item_id, related_item_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, t.ID, t.UserID, string(t.Type), t.Amount, t.Description, t.RelatedItemID, t.RelatedItemType, t.CreatedAt)
	return err
}

func (r *repository) GetWallet(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	var w Wallet
	err := r.db.GetContext(ctx, &w, `SELECT `+walletColumns+` FROM user_wallets WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *repository) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Transaction, error) {
	txs := []*Transaction{}
	err := r.db.SelectContext(ctx, &txs, `
		SELECT id, user_id, type, amount, description, related_item_id, related_item_type, created_at
		FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return txs, err
}

func (r *repository) CountWallets(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM user_wallets`)
	return n, err
}

// ListDrift returns wallets whose stored aggregates disagree with their ledger.
func (r *repository) ListDrift(ctx context.Context) ([]*Drift, error) {
	drift := []*Drift{}
	err := r.db.SelectContext(ctx, &drift, `
		SELECT w.user_id,
		       w.balance,
		       w.lifetime_earnings,
		       w.lifetime_spent,
		       COALESCE(SUM(t.amount), 0) AS ledger_balance,
		       COALESCE(SUM(t.amount) FILTER (WHERE t.type IN ('sale', 'royalty', 'commission')), 0) AS ledger_earnings,
		       COALESCE(-SUM(t.amount) FILTER (WHERE t.type = 'purchase'), 0) AS ledger_spent
		FROM user_wallets w
		LEFT JOIN wallet_transactions t ON t.user_id = w.user_id
		GROUP BY w.user_id, w.balance, w.lifetime_earnings, w.lifetime_spent
		HAVING w.balance <> COALESCE(SUM(t.amount), 0)
		    OR w.lifetime_earnings <> COALESCE(SUM(t.amount) FILTER (WHERE t.type IN ('sale', 'royalty', 'commission')), 0)
		    OR w.lifetime_spent <> COALESCE(-SUM(t.amount) FILTER (WHERE t.type = 'purchase'), 0)
		ORDER BY w.user_id
	`)
	return drift, err
}
