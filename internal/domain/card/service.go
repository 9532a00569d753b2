package card

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/spacecards/economy-api/internal/domain/wallet"
	"github.com/spacecards/economy-api/internal/pkg/apperr"
	"github.com/spacecards/economy-api/internal/pkg/database"
	"github.com/spacecards/economy-api/internal/pkg/storage"
	"github.com/spacecards/economy-api/internal/pkg/validator"
)

// Ledger settles primary sales inside a mint transaction.
type Ledger interface {
	ProcessPrimaryPurchaseTx(ctx context.Context, q database.Querier, p wallet.Purchase) (*wallet.Settlement, error)
}

// ImageStore resolves card image keys against object storage.
type ImageStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	GetURL(key string) string
}

// Notifier is told about committed mints. Implementations must not block.
type Notifier interface {
	NotifyCardMinted(ctx context.Context, creatorID, cardID uuid.UUID, title, buyerName string, edition int)
}

// Service creates cards and mints numbered copies against their cap.
type Service struct {
	store    database.TxRunner
	repo     Repository
	ledger   Ledger
	images   ImageStore
	notifier Notifier
	now      func() time.Time
}

// NewService creates the minting service. images and notifier may be nil.
func NewService(store database.TxRunner, repo Repository, ledger Ledger, images ImageStore, notifier Notifier) *Service {
	return &Service{
		store:    store,
		repo:     repo,
		ledger:   ledger,
		images:   images,
		notifier: notifier,
		now:      time.Now,
	}
}

// CreateCard validates req, stores the card and issues the creator copy
// (edition 0) in the same transaction.
func (s *Service) CreateCard(ctx context.Context, creatorID uuid.UUID, creatorName string, req *CreateCardRequest) (*Card, error) {
	req.normalize()
	now := s.now().UTC()

	fields := validator.Validate(req)
	if fields == nil {
		fields = map[string]string{}
	}
	if creatorID == uuid.Nil {
		fields["creator_id"] = "This field is required"
	}
	if strings.TrimSpace(creatorName) == "" {
		fields["creator_name"] = "This field is required"
	}
	if req.BasePrice.IsNegative() {
		fields["base_price"] = "Value must be at least 0"
	} else if !wallet.FitsMoneyScale(req.BasePrice) {
		fields["base_price"] = "At most 2 decimal places"
	}
	if EditionType(req.EditionType) == EditionTimed && req.ExpiresAt != nil && !req.ExpiresAt.After(now) {
		fields["expires_at"] = "Must be in the future"
	}
	if err := apperr.NewValidationError(fields); err != nil {
		return nil, err
	}

	front, err := s.resolveImage(ctx, "front_image", req.FrontImage)
	if err != nil {
		return nil, err
	}
	var back *string
	if req.BackImage != "" {
		url, err := s.resolveImage(ctx, "back_image", req.BackImage)
		if err != nil {
			return nil, err
		}
		back = &url
	}

	c := &Card{
		ID:          uuid.New(),
		CreatorID:   creatorID,
		CreatorName: strings.TrimSpace(creatorName),
		Title:       req.Title,
		Description: req.Description,
		Images: Images{
			Front:         front,
			Back:          back,
			ImagePosition: req.positionOrDefault(),
		},
		Layout:      orDefault(req.CardLayout, LayoutBordered),
		Discipline:  orDefault(req.Discipline, DisciplineOther),
		Rarity:      NormalizeRarity(req.Rarity),
		Style:       orDefault(req.CardStyle, StyleClassic),
		Type:        orDefault(req.CardType, TypeCustom),
		EditionType: EditionType(req.EditionType),
		BasePrice:   req.BasePrice,
		Stats: Stats{
			FloorPrice:    decimal.NewNullDecimal(req.BasePrice),
			LastSalePrice: decimal.NewNullDecimal(decimal.Zero),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	switch c.EditionType {
	case EditionLimited:
		size := *req.EditionSize
		c.EditionSize = &size
	case EditionTimed:
		maxMints := DefaultTimedMaxMints
		if req.EditionSize != nil {
			maxMints = *req.EditionSize
		}
		expires := req.ExpiresAt.UTC()
		c.MaxMints = &maxMints
		c.ExpiresAt = &expires
	}

	creatorCopy := &Ownership{
		ID:            uuid.New(),
		CardID:        c.ID,
		OwnerID:       c.CreatorID,
		OwnerName:     c.CreatorName,
		EditionNumber: 0,
		IsCreatorCopy: true,
		AcquiredFrom:  AcquiredFromCreator,
		AcquiredAt:    now,
		PurchasePrice: decimal.Zero,
		State:         StateCreatorCopy,
	}

	err = s.store.WithTx(ctx, func(q database.Querier) error {
		if err := s.repo.Create(ctx, q, c); err != nil {
			return err
		}
		return s.repo.CreateOwnership(ctx, q, creatorCopy)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("card_id", c.ID.String()).
		Str("creator_id", c.CreatorID.String()).
		Str("edition_type", string(c.EditionType)).
		Msg("card created")

	return c, nil
}

// resolveImage turns a storage key into a public URL after checking the
// object exists. Values that are already URLs, or any value when no image
// store is configured, pass through unchanged.
func (s *Service) resolveImage(ctx context.Context, field, value string) (string, error) {
	if s.images == nil || strings.Contains(value, "://") {
		return value, nil
	}
	if err := storage.ValidateImageKey(value); err != nil {
		return "", apperr.NewValidationError(map[string]string{field: err.Error()})
	}
	ok, err := s.images.Exists(ctx, value)
	if err != nil {
		return "", fmt.Errorf("check %s: %w", field, err)
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrImageNotFound, value)
	}
	return s.images.GetURL(value), nil
}

// MintCard sells the next numbered copy of a card to buyerID. The cap
// check, ledger settlement, counter update and ownership insert commit
// together or not at all.
func (s *Service) MintCard(ctx context.Context, cardID, buyerID uuid.UUID, buyerName string) (*MintResult, error) {
	var (
		result *MintResult
		minted *Card
	)

	err := s.store.WithTx(ctx, func(q database.Querier) error {
		c, err := s.repo.GetForUpdate(ctx, q, cardID)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		if err := c.CheckMintable(now); err != nil {
			return err
		}

		edition := c.MintedCount + 1

		if _, err := s.ledger.ProcessPrimaryPurchaseTx(ctx, q, wallet.Purchase{
			BuyerID:  buyerID,
			SellerID: c.CreatorID,
			ItemID:   c.ID.String(),
			ItemType: wallet.ItemTypeCard,
			Price:    c.BasePrice,
			Title:    c.Title,
		}); err != nil {
			return err
		}

		c.MintedCount = edition
		c.TotalMinted++
		c.TotalOwners++
		c.LastSalePrice = decimal.NewNullDecimal(c.BasePrice)
		if err := s.repo.RecordMint(ctx, q, c); err != nil {
			return err
		}

		o := &Ownership{
			ID:            uuid.New(),
			CardID:        c.ID,
			OwnerID:       buyerID,
			OwnerName:     buyerName,
			EditionNumber: edition,
			AcquiredFrom:  AcquiredFromPrimary,
			AcquiredAt:    now,
			PurchasePrice: c.BasePrice,
			State:         StateHeld,
		}
		if err := s.repo.CreateOwnership(ctx, q, o); err != nil {
			return err
		}

		result = &MintResult{OwnershipID: o.ID, EditionNumber: edition}
		minted = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("card_id", cardID.String()).
		Str("buyer_id", buyerID.String()).
		Str("ownership_id", result.OwnershipID.String()).
		Int("edition", result.EditionNumber).
		Str("amount", minted.BasePrice.String()).
		Msg("card minted")

	if s.notifier != nil {
		s.notifier.NotifyCardMinted(ctx, minted.CreatorID, minted.ID, minted.Title, buyerName, result.EditionNumber)
	}

	return result, nil
}

// GetCard returns a card by id.
func (s *Service) GetCard(ctx context.Context, id uuid.UUID) (*Card, error) {
	return s.repo.GetByID(ctx, id)
}

// ListCardsByCreator returns a creator's cards, newest first.
func (s *Service) ListCardsByCreator(ctx context.Context, creatorID uuid.UUID) ([]*Card, error) {
	return s.repo.ListByCreator(ctx, creatorID)
}

// ListOwnedCards returns the copies a user holds, newest acquisition first.
func (s *Service) ListOwnedCards(ctx context.Context, ownerID uuid.UUID) ([]*OwnedCard, error) {
	return s.repo.ListOwnedByUser(ctx, ownerID)
}

// GetOwnership returns one copy by id.
func (s *Service) GetOwnership(ctx context.Context, id uuid.UUID) (*Ownership, error) {
	return s.repo.GetOwnership(ctx, id)
}
