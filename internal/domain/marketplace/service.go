package marketplace

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/spacecards/economy-api/internal/domain/card"
	"github.com/spacecards/economy-api/internal/domain/wallet"
	"github.com/spacecards/economy-api/internal/pkg/database"
)

// Ledger settles resales inside a purchase transaction.
type Ledger interface {
	ProcessResaleTx(ctx context.Context, q database.Querier, r wallet.Resale) (*wallet.Settlement, error)
}

// Notifier is told about committed resales. Implementations must not block.
type Notifier interface {
	NotifyCardSold(ctx context.Context, sellerID, cardID uuid.UUID, title, buyerName string, price, net decimal.Decimal)
	NotifyRoyaltyEarned(ctx context.Context, creatorID, cardID uuid.UUID, title string, royalty decimal.Decimal)
}

// Service lists owned copies for resale and executes trades.
type Service struct {
	store    database.TxRunner
	repo     Repository
	ledger   Ledger
	cache    Cache
	notifier Notifier
	now      func() time.Time
}

// NewService creates the marketplace service. cache and notifier may be nil.
func NewService(store database.TxRunner, repo Repository, ledger Ledger, cache Cache, notifier Notifier) *Service {
	if cache == nil {
		cache = noopCache{}
	}
	return &Service{
		store:    store,
		repo:     repo,
		ledger:   ledger,
		cache:    cache,
		notifier: notifier,
		now:      time.Now,
	}
}

// ListForSale lists or re-prices a copy owned by sellerID. Tradability is
// checked before ownership, so a creator copy or unlimited card is
// NotTradable for every caller. The floor price update afterwards is best
// effort.
func (s *Service) ListForSale(ctx context.Context, ownershipID, sellerID uuid.UUID, price decimal.Decimal) (*card.Ownership, error) {
	if !price.IsPositive() {
		return nil, ErrInvalidPrice
	}
	if !wallet.FitsMoneyScale(price) {
		return nil, ErrPriceScale
	}

	var listed *card.Ownership
	err := s.store.WithTx(ctx, func(q database.Querier) error {
		o, err := s.repo.GetOwnershipForUpdate(ctx, q, ownershipID)
		if err != nil {
			return err
		}
		if o.IsCreatorCopy || !o.CanList() {
			return ErrNotTradable
		}

		c, err := s.repo.GetCard(ctx, q, o.CardID)
		if err != nil {
			return err
		}
		if !c.EditionType.Tradable() {
			return ErrNotTradable
		}
		if o.OwnerID != sellerID {
			return ErrNotOwner
		}

		now := s.now().UTC()
		if err := s.repo.SetListing(ctx, q, o.ID, price, now); err != nil {
			return err
		}

		o.State = card.StateListed
		o.ForSale = true
		o.SalePrice = decimal.NewNullDecimal(price)
		o.ListedAt = &now
		listed = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("ownership_id", ownershipID.String()).
		Str("card_id", listed.CardID.String()).
		Str("amount", price.String()).
		Msg("card listed for sale")

	if _, err := s.repo.LowerFloorPrice(ctx, listed.CardID, price); err != nil {
		log.Warn().Err(err).Str("card_id", listed.CardID.String()).Msg("failed to update floor price")
	}
	s.invalidate(ctx)

	return listed, nil
}

// Purchase transfers a listed copy to buyerID and settles the resale across
// buyer, seller and creator wallets in one transaction.
func (s *Service) Purchase(ctx context.Context, ownershipID, buyerID uuid.UUID, buyerName string) (*PurchaseResult, error) {
	var (
		result *PurchaseResult
		sold   *card.Card
	)

	err := s.store.WithTx(ctx, func(q database.Querier) error {
		o, err := s.repo.GetOwnershipForUpdate(ctx, q, ownershipID)
		if err != nil {
			return err
		}
		if o.State != card.StateListed || !o.SalePrice.Valid {
			return ErrNotForSale
		}
		if o.OwnerID == buyerID {
			return ErrSelfPurchase
		}

		c, err := s.repo.GetCard(ctx, q, o.CardID)
		if err != nil {
			return err
		}

		price := o.SalePrice.Decimal
		sellerID := o.OwnerID

		st, err := s.ledger.ProcessResaleTx(ctx, q, wallet.Resale{
			Purchase: wallet.Purchase{
				BuyerID:  buyerID,
				SellerID: sellerID,
				ItemID:   o.ID.String(),
				ItemType: wallet.ItemTypeOwnership,
				Price:    price,
				Title:    c.Title,
			},
			OriginalCreatorID: c.CreatorID,
		})
		if err != nil {
			return err
		}

		now := s.now().UTC()
		o.OwnerID = buyerID
		o.OwnerName = buyerName
		o.AcquiredFrom = card.AcquiredFromResale
		o.AcquiredAt = now
		o.PurchasePrice = price
		if err := s.repo.Transfer(ctx, q, o); err != nil {
			return err
		}
		if err := s.repo.RecordSale(ctx, q, c.ID, price); err != nil {
			return err
		}

		sale := &Sale{
			ID:          uuid.New(),
			OwnershipID: o.ID,
			CardID:      c.ID,
			SellerID:    sellerID,
			BuyerID:     buyerID,
			CreatorID:   c.CreatorID,
			Price:       price,
			PlatformFee: st.Split.PlatformFee,
			Royalty:     st.Split.Royalty,
			SellerNet:   st.Split.SellerNet,
			CreatedAt:   now,
		}
		if err := s.repo.InsertSale(ctx, q, sale); err != nil {
			return err
		}

		result = &PurchaseResult{Sale: sale, Split: *st.Split}
		sold = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("ownership_id", ownershipID.String()).
		Str("card_id", sold.ID.String()).
		Str("buyer_id", buyerID.String()).
		Str("seller_id", result.Sale.SellerID.String()).
		Str("amount", result.Sale.Price.String()).
		Str("platform_fee", result.Split.PlatformFee.String()).
		Bool("royalty_paid", result.Split.RoyaltyPaid).
		Msg("card resold")

	s.invalidate(ctx)

	if s.notifier != nil {
		s.notifier.NotifyCardSold(ctx, result.Sale.SellerID, sold.ID, sold.Title, buyerName, result.Sale.Price, result.Split.SellerNet)
		if result.Split.RoyaltyPaid {
			s.notifier.NotifyRoyaltyEarned(ctx, sold.CreatorID, sold.ID, sold.Title, result.Split.Royalty)
		}
	}

	return result, nil
}

// Unlist withdraws a listing. Copies that are not listed are left as is.
func (s *Service) Unlist(ctx context.Context, ownershipID, ownerID uuid.UUID) error {
	changed := false
	err := s.store.WithTx(ctx, func(q database.Querier) error {
		changed = false
		o, err := s.repo.GetOwnershipForUpdate(ctx, q, ownershipID)
		if err != nil {
			return err
		}
		if o.OwnerID != ownerID {
			return ErrNotOwner
		}
		if o.State != card.StateListed {
			return nil
		}
		if err := s.repo.ClearListing(ctx, q, o.ID); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return err
	}

	if changed {
		log.Info().Str("ownership_id", ownershipID.String()).Msg("card unlisted")
		s.invalidate(ctx)
	}
	return nil
}

// GetMarketplace returns listed copies matching f. Pages may be served
// from cache for a short time after a change.
func (s *Service) GetMarketplace(ctx context.Context, f Filter) ([]*Listing, error) {
	f = f.normalized()

	key, listings, ok, err := s.cache.Lookup(ctx, f)
	if err != nil {
		log.Warn().Err(err).Msg("marketplace cache read failed")
	} else if ok {
		return listings, nil
	}

	listings, err = s.repo.ListListings(ctx, f)
	if err != nil {
		return nil, err
	}

	if key != "" {
		if err := s.cache.Store(ctx, key, listings); err != nil {
			log.Warn().Err(err).Msg("marketplace cache write failed")
		}
	}
	return listings, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("marketplace cache invalidation failed")
	}
}
