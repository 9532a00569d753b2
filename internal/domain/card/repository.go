package card

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/spacecards/economy-api/internal/pkg/database"
)

// Repository is the card storage contract. Methods taking a Querier run
// inside the caller's transaction.
type Repository interface {
	Create(ctx context.Context, q database.Querier, c *Card) error
	GetForUpdate(ctx context.Context, q database.Querier, id uuid.UUID) (*Card, error)
	RecordMint(ctx context.Context, q database.Querier, c *Card) error
	CreateOwnership(ctx context.Context, q database.Querier, o *Ownership) error

	GetByID(ctx context.Context, id uuid.UUID) (*Card, error)
	ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]*Card, error)
	GetOwnership(ctx context.Context, id uuid.UUID) (*Ownership, error)
	ListOwnedByUser(ctx context.Context, ownerID uuid.UUID) ([]*OwnedCard, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// EditionConstraint is the unique (card_id, edition_number) constraint. A
// violation means a concurrent mint took the number and is safe to retry.
const EditionConstraint = "card_ownerships_edition_key"

// CardColumns lists the cards columns in Card field order.
const CardColumns = `id, creator_id, creator_name, title, description, front_image, back_image,
	image_position_x, image_position_y, card_layout, discipline, rarity, card_style, card_type,
	edition_type, edition_size, max_mints, expires_at, minted_count, base_price,
	total_minted, total_owners, floor_price, last_sale_price, created_at, updated_at`

// OwnershipColumns lists the card_ownerships columns in Ownership field order.
const OwnershipColumns = `id, card_id, owner_id, owner_name, edition_number, is_creator_copy,
	acquired_from, acquired_at, purchase_price, state, for_sale, sale_price, listed_at`

func (r *repository) Create(ctx context.Context, q database.Querier, c *Card) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO cards (id, creator_id, creator_name, title, description, front_image, back_image,
			image_position_x, image_position_y, card_layout, discipline, rarity, card_style, card_type,
			edition_type, edition_size, max_mints, expires_at, minted_count, base_price,
			total_minted, total_owners, floor_price, last_sale_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
	`, c.ID, c.CreatorID, c.CreatorName, c.Title, c.Description, c.Front, c.Back,
		c.X, c.Y, c.Layout, c.Discipline, string(c.Rarity), c.Style, c.Type,
		string(c.EditionType), c.EditionSize, c.MaxMints, c.ExpiresAt, c.MintedCount, c.BasePrice,
		c.TotalMinted, c.TotalOwners, c.FloorPrice, c.LastSalePrice, c.CreatedAt, c.UpdatedAt)
	if database.IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: %s", ErrOwnerNotFound, c.CreatorID)
	}
	return err
}

func (r *repository) GetForUpdate(ctx context.Context, q database.Querier, id uuid.UUID) (*Card, error) {
	var c Card
	err := q.GetContext(ctx, &c, `SELECT `+CardColumns+` FROM cards WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCardNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// RecordMint persists the counters of a card that was just minted.
func (r *repository) RecordMint(ctx context.Context, q database.Querier, c *Card) error {
	_, err := q.ExecContext(ctx, `
		UPDATE cards
		SET minted_count = $2, total_minted = $3, total_owners = $4, last_sale_price = $5, updated_at = now()
		WHERE id = $1
	`, c.ID, c.MintedCount, c.TotalMinted, c.TotalOwners, c.LastSalePrice)
	return err
}

func (r *repository) CreateOwnership(ctx context.Context, q database.Querier, o *Ownership) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO card_ownerships (id, card_id, owner_id, owner_name, edition_number, is_creator_copy,
			acquired_from, acquired_at, purchase_price, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, o.ID, o.CardID, o.OwnerID, o.OwnerName, o.EditionNumber, o.IsCreatorCopy,
		string(o.AcquiredFrom), o.AcquiredAt, o.PurchasePrice, string(o.State))
	if database.IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: %s", ErrOwnerNotFound, o.OwnerID)
	}
	return err
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Card, error) {
	var c Card
	err := r.db.GetContext(ctx, &c, `SELECT `+CardColumns+` FROM cards WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCardNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]*Card, error) {
	cards := []*Card{}
	err := r.db.SelectContext(ctx, &cards, `
		SELECT `+CardColumns+`
		FROM cards
		WHERE creator_id = $1
		ORDER BY created_at DESC, id
	`, creatorID)
	return cards, err
}

func (r *repository) GetOwnership(ctx context.Context, id uuid.UUID) (*Ownership, error) {
	var o Ownership
	err := r.db.GetContext(ctx, &o, `SELECT `+OwnershipColumns+` FROM card_ownerships WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOwnershipNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListOwnedByUser returns the user's copies, newest acquisition first, each
// with its card loaded in one batch.
func (r *repository) ListOwnedByUser(ctx context.Context, ownerID uuid.UUID) ([]*OwnedCard, error) {
	owned := []*Ownership{}
	if err := r.db.SelectContext(ctx, &owned, `
		SELECT `+OwnershipColumns+`
		FROM card_ownerships
		WHERE owner_id = $1
		ORDER BY acquired_at DESC, id
	`, ownerID); err != nil {
		return nil, err
	}
	if len(owned) == 0 {
		return []*OwnedCard{}, nil
	}

	ids := make([]string, 0, len(owned))
	for _, o := range owned {
		ids = append(ids, o.CardID.String())
	}

	cards := []*Card{}
	if err := r.db.SelectContext(ctx, &cards, `
		SELECT `+CardColumns+` FROM cards WHERE id = ANY($1::uuid[])
	`, pq.Array(ids)); err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*Card, len(cards))
	for _, c := range cards {
		byID[c.ID] = c
	}

	out := make([]*OwnedCard, 0, len(owned))
	for _, o := range owned {
		out = append(out, &OwnedCard{Card: byID[o.CardID], Ownership: o})
	}
	return out, nil
}
