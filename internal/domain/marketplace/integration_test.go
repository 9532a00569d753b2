package marketplace

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacecards/economy-api/internal/domain/card"
	"github.com/spacecards/economy-api/internal/domain/wallet"
	"github.com/spacecards/economy-api/internal/pkg/apperr"
	"github.com/spacecards/economy-api/internal/pkg/database"
	"github.com/spacecards/economy-api/internal/pkg/database/dbtest"
)

type integrationEnv struct {
	db       *sqlx.DB
	cards    *card.Service
	market   *Service
	wallets  *wallet.Service
	walletDB wallet.Repository
}

func setupIntegration(t *testing.T, policy wallet.FeePolicy) *integrationEnv {
	t.Helper()
	db := dbtest.Open(t)
	store := database.NewStore(db,
		database.WithMaxAttempts(50),
		database.WithBackoff(2*time.Millisecond),
		database.WithRetryOnConstraint(card.EditionConstraint),
	)
	walletRepo := wallet.NewRepository(db)
	wallets := wallet.NewService(store, walletRepo, policy)
	return &integrationEnv{
		db:       db,
		cards:    card.NewService(store, card.NewRepository(db), wallets, nil, nil),
		market:   NewService(store, NewRepository(db), wallets, nil, nil),
		wallets:  wallets,
		walletDB: walletRepo,
	}
}

// mintedCopy creates a limited card by creatorID and mints one copy to ownerID.
func (e *integrationEnv) mintedCopy(t *testing.T, creatorID, ownerID uuid.UUID) (*card.Card, uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	size := 10
	c, err := e.cards.CreateCard(ctx, creatorID, "Vega", &card.CreateCardRequest{
		Title:       "Pleiades",
		FrontImage:  "https://cdn.example.com/pleiades.png",
		EditionType: string(card.EditionLimited),
		EditionSize: &size,
		BasePrice:   decimal.NewFromInt(4),
	})
	require.NoError(t, err)

	res, err := e.cards.MintCard(ctx, c.ID, ownerID, "owner")
	require.NoError(t, err)
	return c, res.OwnershipID
}

func (e *integrationEnv) balance(t *testing.T, userID uuid.UUID) decimal.Decimal {
	t.Helper()
	w, err := e.wallets.GetWallet(context.Background(), userID)
	require.NoError(t, err)
	return w.Balance
}

func TestIntegrationResaleSplit(t *testing.T) {
	env := setupIntegration(t, wallet.DefaultFeePolicy())
	ctx := context.Background()
	creatorID := dbtest.CreateUser(t, env.db, "Vega")
	sellerID := dbtest.CreateUser(t, env.db, "Rigel")
	buyerID := dbtest.CreateUser(t, env.db, "Nova")

	c, ownershipID := env.mintedCopy(t, creatorID, sellerID)
	creatorBefore := env.balance(t, creatorID)

	_, err := env.market.ListForSale(ctx, ownershipID, sellerID, decimal.NewFromInt(100))
	require.NoError(t, err)

	res, err := env.market.Purchase(ctx, ownershipID, buyerID, "Nova")
	require.NoError(t, err)
	assert.True(t, res.Split.PlatformFee.Equal(decimal.NewFromInt(10)))
	assert.True(t, res.Split.Royalty.Equal(decimal.NewFromInt(5)))
	assert.True(t, res.Split.SellerNet.Equal(decimal.NewFromInt(85)))

	assert.True(t, env.balance(t, sellerID).Equal(decimal.NewFromInt(85)))
	assert.True(t, env.balance(t, creatorID).Equal(creatorBefore.Add(decimal.NewFromInt(5))))

	o, err := env.cards.GetOwnership(ctx, ownershipID)
	require.NoError(t, err)
	assert.Equal(t, buyerID, o.OwnerID)
	assert.Equal(t, card.StateHeld, o.State)
	assert.False(t, o.ForSale)
	assert.False(t, o.SalePrice.Valid)
	assert.Equal(t, card.AcquiredFromResale, o.AcquiredFrom)

	stored, err := env.cards.GetCard(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, stored.LastSalePrice.Decimal.Equal(decimal.NewFromInt(100)))

	var sales int
	require.NoError(t, env.db.Get(&sales, `SELECT count(*) FROM card_sales WHERE ownership_id = $1`, ownershipID))
	assert.Equal(t, 1, sales)

	report, err := wallet.NewAuditor(env.walletDB).Run(ctx)
	require.NoError(t, err)
	assert.True(t, report.Clean(), "drift: %+v", report.Drift)
}

func TestIntegrationCreatorResaleHasNoRoyaltyRow(t *testing.T) {
	env := setupIntegration(t, wallet.DefaultFeePolicy())
	ctx := context.Background()
	creatorID := dbtest.CreateUser(t, env.db, "Vega")
	buyerID := dbtest.CreateUser(t, env.db, "Nova")

	_, ownershipID := env.mintedCopy(t, creatorID, creatorID)
	_, err := env.market.ListForSale(ctx, ownershipID, creatorID, decimal.NewFromInt(100))
	require.NoError(t, err)

	res, err := env.market.Purchase(ctx, ownershipID, buyerID, "Nova")
	require.NoError(t, err)
	assert.False(t, res.Split.RoyaltyPaid)

	var royalties int
	require.NoError(t, env.db.Get(&royalties, `SELECT count(*) FROM wallet_transactions WHERE type = 'royalty'`))
	assert.Zero(t, royalties)
}

func TestIntegrationConcurrentPurchasesOfOneListing(t *testing.T) {
	env := setupIntegration(t, wallet.DefaultFeePolicy())
	ctx := context.Background()
	creatorID := dbtest.CreateUser(t, env.db, "Vega")
	sellerID := dbtest.CreateUser(t, env.db, "Rigel")
	buyers := []uuid.UUID{
		dbtest.CreateUser(t, env.db, "Nova"),
		dbtest.CreateUser(t, env.db, "Lyra"),
	}

	_, ownershipID := env.mintedCopy(t, creatorID, sellerID)
	_, err := env.market.ListForSale(ctx, ownershipID, sellerID, decimal.NewFromInt(20))
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		won     []uuid.UUID
		missed  int
		unknown []error
	)
	for _, buyerID := range buyers {
		wg.Add(1)
		go func(buyerID uuid.UUID) {
			defer wg.Done()
			_, err := env.market.Purchase(ctx, ownershipID, buyerID, "buyer")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				won = append(won, buyerID)
			case errors.Is(err, apperr.ErrNotForSale):
				missed++
			default:
				unknown = append(unknown, err)
			}
		}(buyerID)
	}
	wg.Wait()

	require.Empty(t, unknown)
	require.Len(t, won, 1)
	assert.Equal(t, 1, missed)

	o, err := env.cards.GetOwnership(ctx, ownershipID)
	require.NoError(t, err)
	assert.Equal(t, won[0], o.OwnerID)

	var sales int
	require.NoError(t, env.db.Get(&sales, `SELECT count(*) FROM card_sales`))
	assert.Equal(t, 1, sales)
	assert.True(t, env.balance(t, sellerID).Equal(decimal.NewFromInt(17)))
}

func TestIntegrationInsufficientFundsAbortsResale(t *testing.T) {
	policy, err := wallet.NewFeePolicy(decimal.NewFromFloat(0.10), decimal.NewFromFloat(0.05), "USD", true)
	require.NoError(t, err)
	env := setupIntegration(t, policy)
	ctx := context.Background()
	creatorID := dbtest.CreateUser(t, env.db, "Vega")
	sellerID := dbtest.CreateUser(t, env.db, "Rigel")
	buyerID := dbtest.CreateUser(t, env.db, "Nova")

	_, err = env.wallets.Credit(ctx, wallet.Entry{UserID: sellerID, Amount: decimal.NewFromInt(4), Type: wallet.TransactionTypeDeposit, Description: "Top up"})
	require.NoError(t, err)
	_, ownershipID := env.mintedCopy(t, creatorID, sellerID)

	_, err = env.market.ListForSale(ctx, ownershipID, sellerID, decimal.NewFromInt(50))
	require.NoError(t, err)

	_, err = env.market.Purchase(ctx, ownershipID, buyerID, "Nova")
	assert.ErrorIs(t, err, apperr.ErrInsufficientFunds)

	o, err := env.cards.GetOwnership(ctx, ownershipID)
	require.NoError(t, err)
	assert.Equal(t, sellerID, o.OwnerID)
	assert.Equal(t, card.StateListed, o.State)
	assert.True(t, env.balance(t, sellerID).IsZero())
}

func TestIntegrationUnlistIsIdempotent(t *testing.T) {
	env := setupIntegration(t, wallet.DefaultFeePolicy())
	ctx := context.Background()
	creatorID := dbtest.CreateUser(t, env.db, "Vega")
	sellerID := dbtest.CreateUser(t, env.db, "Rigel")

	_, ownershipID := env.mintedCopy(t, creatorID, sellerID)
	_, err := env.market.ListForSale(ctx, ownershipID, sellerID, decimal.NewFromInt(9))
	require.NoError(t, err)

	require.NoError(t, env.market.Unlist(ctx, ownershipID, sellerID))
	require.NoError(t, env.market.Unlist(ctx, ownershipID, sellerID))

	o, err := env.cards.GetOwnership(ctx, ownershipID)
	require.NoError(t, err)
	assert.Equal(t, card.StateHeld, o.State)
	assert.False(t, o.SalePrice.Valid)
	assert.Nil(t, o.ListedAt)

	listings, err := env.market.GetMarketplace(ctx, Filter{})
	require.NoError(t, err)
	assert.Empty(t, listings)
}

func TestIntegrationMarketplaceFilters(t *testing.T) {
	env := setupIntegration(t, wallet.DefaultFeePolicy())
	ctx := context.Background()
	creatorID := dbtest.CreateUser(t, env.db, "Vega")
	sellerID := dbtest.CreateUser(t, env.db, "Rigel")

	prices := []int64{30, 10, 20}
	for _, p := range prices {
		_, ownershipID := env.mintedCopy(t, creatorID, sellerID)
		_, err := env.market.ListForSale(ctx, ownershipID, sellerID, decimal.NewFromInt(p))
		require.NoError(t, err)
	}

	min := decimal.NewFromInt(15)
	listings, err := env.market.GetMarketplace(ctx, Filter{MinPrice: &min, SortBy: SortPriceAsc})
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.True(t, listings[0].Listing.SalePrice.Decimal.Equal(decimal.NewFromInt(20)))
	assert.True(t, listings[1].Listing.SalePrice.Decimal.Equal(decimal.NewFromInt(30)))
	require.NotNil(t, listings[0].Card)
	assert.Equal(t, "Pleiades", listings[0].Card.Title)
}
