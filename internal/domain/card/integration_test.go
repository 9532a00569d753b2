package card

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacecards/economy-api/internal/domain/wallet"
	"github.com/spacecards/economy-api/internal/pkg/apperr"
	"github.com/spacecards/economy-api/internal/pkg/database"
	"github.com/spacecards/economy-api/internal/pkg/database/dbtest"
)

type integrationEnv struct {
	db      *sqlx.DB
	cards   *Service
	wallets wallet.Repository
}

func setupIntegration(t *testing.T) *integrationEnv {
	t.Helper()
	db := dbtest.Open(t)
	store := database.NewStore(db,
		database.WithMaxAttempts(50),
		database.WithBackoff(2*time.Millisecond),
		database.WithRetryOnConstraint(EditionConstraint),
	)
	walletRepo := wallet.NewRepository(db)
	ledger := wallet.NewService(store, walletRepo, wallet.DefaultFeePolicy())
	return &integrationEnv{
		db:      db,
		cards:   NewService(store, NewRepository(db), ledger, nil, nil),
		wallets: walletRepo,
	}
}

func (e *integrationEnv) createLimited(t *testing.T, creatorID uuid.UUID, size int, price string) *Card {
	t.Helper()
	c, err := e.cards.CreateCard(context.Background(), creatorID, "Vega", &CreateCardRequest{
		Title:       "Andromeda",
		FrontImage:  "https://cdn.example.com/andromeda.png",
		EditionType: string(EditionLimited),
		EditionSize: &size,
		BasePrice:   decimal.RequireFromString(price),
	})
	require.NoError(t, err)
	return c
}

func TestIntegrationConcurrentMintsNeverExceedEditionSize(t *testing.T) {
	env := setupIntegration(t)
	ctx := context.Background()
	creatorID := dbtest.CreateUser(t, env.db, "Vega")

	const size, extra = 10, 5
	c := env.createLimited(t, creatorID, size, "2")

	buyers := make([]uuid.UUID, size+extra)
	for i := range buyers {
		buyers[i] = dbtest.CreateUser(t, env.db, fmt.Sprintf("buyer-%d", i))
	}

	var (
		mu       sync.Mutex
		editions []int
		soldOut  int
		others   []error
		wg       sync.WaitGroup
	)
	for _, buyerID := range buyers {
		wg.Add(1)
		go func(buyerID uuid.UUID) {
			defer wg.Done()
			res, err := env.cards.MintCard(ctx, c.ID, buyerID, "buyer")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				editions = append(editions, res.EditionNumber)
			case errors.Is(err, apperr.ErrEditionSoldOut):
				soldOut++
			default:
				others = append(others, err)
			}
		}(buyerID)
	}
	wg.Wait()

	require.Empty(t, others)
	assert.Equal(t, extra, soldOut)
	sort.Ints(editions)
	want := make([]int, size)
	for i := range want {
		want[i] = i + 1
	}
	assert.Equal(t, want, editions)

	stored, err := env.cards.GetCard(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, size, stored.MintedCount)
	assert.Equal(t, size, stored.TotalMinted)

	var copies int
	require.NoError(t, env.db.Get(&copies, `SELECT count(*) FROM card_ownerships WHERE card_id = $1 AND NOT is_creator_copy`, c.ID))
	assert.Equal(t, size, copies)

	w, err := env.wallets.GetWallet(ctx, creatorID)
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(2*size)), "creator balance %s", w.Balance)
	assert.True(t, w.LifetimeEarnings.Equal(w.Balance))

	report, err := wallet.NewAuditor(env.wallets).Run(ctx)
	require.NoError(t, err)
	assert.True(t, report.Clean(), "drift: %+v", report.Drift)
}

func TestIntegrationMintSoldOutLeavesLedgerUntouched(t *testing.T) {
	env := setupIntegration(t)
	ctx := context.Background()
	creatorID := dbtest.CreateUser(t, env.db, "Vega")
	buyerID := dbtest.CreateUser(t, env.db, "Nova")
	c := env.createLimited(t, creatorID, 1, "3")

	res, err := env.cards.MintCard(ctx, c.ID, buyerID, "Nova")
	require.NoError(t, err)
	assert.Equal(t, 1, res.EditionNumber)

	_, err = env.cards.MintCard(ctx, c.ID, buyerID, "Nova")
	assert.ErrorIs(t, err, apperr.ErrEditionSoldOut)

	txs, err := env.wallets.ListTransactions(ctx, creatorID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestIntegrationCreateCardIssuesCreatorCopy(t *testing.T) {
	env := setupIntegration(t)
	ctx := context.Background()
	creatorID := dbtest.CreateUser(t, env.db, "Vega")
	c := env.createLimited(t, creatorID, 5, "1")

	owned, err := env.cards.ListOwnedCards(ctx, creatorID)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, c.ID, owned[0].Card.ID)
	assert.Equal(t, 0, owned[0].Ownership.EditionNumber)
	assert.True(t, owned[0].Ownership.IsCreatorCopy)
	assert.Equal(t, StateCreatorCopy, owned[0].Ownership.State)
}

func TestIntegrationCreateCardUnknownCreator(t *testing.T) {
	env := setupIntegration(t)

	size := 2
	_, err := env.cards.CreateCard(context.Background(), uuid.New(), "Ghost", &CreateCardRequest{
		Title:       "Nebula",
		FrontImage:  "https://cdn.example.com/nebula.png",
		EditionType: string(EditionLimited),
		EditionSize: &size,
		BasePrice:   decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
