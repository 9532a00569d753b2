package wallet

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/spacecards/economy-api/internal/pkg/database"
)

// ProcessPrimaryPurchase settles a primary sale in one transaction.
func (s *Service) ProcessPrimaryPurchase(ctx context.Context, p Purchase) (*Settlement, error) {
	var out *Settlement
	err := s.store.WithTx(ctx, func(q database.Querier) error {
		st, err := s.ProcessPrimaryPurchaseTx(ctx, q, p)
		out = st
		return err
	})
	if err != nil {
		return nil, err
	}
	logSettlement("primary purchase settled", p, out)
	return out, nil
}

// ProcessPrimaryPurchaseTx credits the seller the full price as a sale.
func (s *Service) ProcessPrimaryPurchaseTx(ctx context.Context, q database.Querier, p Purchase) (*Settlement, error) {
	st := &Settlement{}
	if !p.Price.IsPositive() {
		return st, nil
	}

	if err := s.chargeBuyer(ctx, q, p, st); err != nil {
		return nil, err
	}

	t, err := s.CreditTx(ctx, q, Entry{
		UserID:          p.SellerID,
		Amount:          p.Price,
		Type:            TransactionTypeSale,
		Description:     "Sale: " + p.Title,
		RelatedItemID:   p.ItemID,
		RelatedItemType: p.ItemType,
	})
	if err != nil {
		return nil, err
	}
	st.Transactions = append(st.Transactions, t)
	return st, nil
}

// ProcessResale settles a resale in one transaction spanning every wallet involved.
func (s *Service) ProcessResale(ctx context.Context, r Resale) (*Settlement, error) {
	var out *Settlement
	err := s.store.WithTx(ctx, func(q database.Querier) error {
		st, err := s.ProcessResaleTx(ctx, q, r)
		out = st
		return err
	})
	if err != nil {
		return nil, err
	}
	logSettlement("resale settled", r.Purchase, out)
	return out, nil
}

// ProcessResaleTx pays the seller price minus fee and royalty, and the
// original creator the royalty unless the creator is the seller. The
// platform fee is not credited to any wallet.
func (s *Service) ProcessResaleTx(ctx context.Context, q database.Querier, r Resale) (*Settlement, error) {
	split := s.policy.Split(r.Price)
	st := &Settlement{Split: &split}
	if !r.Price.IsPositive() {
		return st, nil
	}

	if err := s.chargeBuyer(ctx, q, r.Purchase, st); err != nil {
		return nil, err
	}

	if split.SellerNet.IsPositive() {
		t, err := s.CreditTx(ctx, q, Entry{
			UserID:          r.SellerID,
			Amount:          split.SellerNet,
			Type:            TransactionTypeSale,
			Description:     "Resale: " + r.Title,
			RelatedItemID:   r.ItemID,
			RelatedItemType: r.ItemType,
		})
		if err != nil {
			return nil, err
		}
		st.Transactions = append(st.Transactions, t)
	}

	if r.OriginalCreatorID != r.SellerID && split.Royalty.IsPositive() {
		t, err := s.CreditTx(ctx, q, Entry{
			UserID:          r.OriginalCreatorID,
			Amount:          split.Royalty,
			Type:            TransactionTypeRoyalty,
			Description:     "Royalty: " + r.Title,
			RelatedItemID:   r.ItemID,
			RelatedItemType: r.ItemType,
		})
		if err != nil {
			return nil, err
		}
		st.Transactions = append(st.Transactions, t)
		split.RoyaltyPaid = true
	}

	return st, nil
}

// ProcessCommissionPayment settles a commission in one transaction.
func (s *Service) ProcessCommissionPayment(ctx context.Context, p Purchase) (*Settlement, error) {
	var out *Settlement
	err := s.store.WithTx(ctx, func(q database.Querier) error {
		st, err := s.ProcessCommissionPaymentTx(ctx, q, p)
		out = st
		return err
	})
	if err != nil {
		return nil, err
	}
	logSettlement("commission settled", p, out)
	return out, nil
}

// ProcessCommissionPaymentTx credits the seller the full price as commission.
func (s *Service) ProcessCommissionPaymentTx(ctx context.Context, q database.Querier, p Purchase) (*Settlement, error) {
	st := &Settlement{}
	if !p.Price.IsPositive() {
		return st, nil
	}
	p.ItemType = ItemTypeCommission

	if err := s.chargeBuyer(ctx, q, p, st); err != nil {
		return nil, err
	}

	t, err := s.CreditTx(ctx, q, Entry{
		UserID:          p.SellerID,
		Amount:          p.Price,
		Type:            TransactionTypeCommission,
		Description:     "Commission: " + p.Title,
		RelatedItemID:   p.ItemID,
		RelatedItemType: ItemTypeCommission,
	})
	if err != nil {
		return nil, err
	}
	st.Transactions = append(st.Transactions, t)
	return st, nil
}

func (s *Service) chargeBuyer(ctx context.Context, q database.Querier, p Purchase, st *Settlement) error {
	if !s.policy.ChargeBuyer() {
		return nil
	}
	t, err := s.DebitTx(ctx, q, Entry{
		UserID:          p.BuyerID,
		Amount:          p.Price,
		Type:            TransactionTypePurchase,
		Description:     "Purchase: " + p.Title,
		RelatedItemID:   p.ItemID,
		RelatedItemType: p.ItemType,
	})
	if err != nil {
		return err
	}
	st.Transactions = append(st.Transactions, t)
	return nil
}

func logSettlement(msg string, p Purchase, st *Settlement) {
	log.Info().
		Str("buyer_id", p.BuyerID.String()).
		Str("seller_id", p.SellerID.String()).
		Str("item_id", p.ItemID).
		Str("price", p.Price.String()).
		Int("entries", len(st.Transactions)).
		Msg(msg)
}
