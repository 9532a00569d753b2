package marketplace

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/spacecards/economy-api/internal/domain/card"
	"github.com/spacecards/economy-api/internal/pkg/database"
)

// Repository is the marketplace storage contract. Methods taking a Querier
// run inside the caller's transaction.
type Repository interface {
	GetOwnershipForUpdate(ctx context.Context, q database.Querier, id uuid.UUID) (*card.Ownership, error)
	GetCard(ctx context.Context, q database.Querier, id uuid.UUID) (*card.Card, error)
	SetListing(ctx context.Context, q database.Querier, id uuid.UUID, price decimal.Decimal, at time.Time) error
	ClearListing(ctx context.Context, q database.Querier, id uuid.UUID) error
	Transfer(ctx context.Context, q database.Querier, o *card.Ownership) error
	RecordSale(ctx context.Context, q database.Querier, cardID uuid.UUID, price decimal.Decimal) error
	InsertSale(ctx context.Context, q database.Querier, s *Sale) error

	LowerFloorPrice(ctx context.Context, cardID uuid.UUID, price decimal.Decimal) (bool, error)
	ListListings(ctx context.Context, f Filter) ([]*Listing, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetOwnershipForUpdate(ctx context.Context, q database.Querier, id uuid.UUID) (*card.Ownership, error) {
	var o card.Ownership
	err := q.GetContext(ctx, &o, `SELECT `+card.OwnershipColumns+` FROM card_ownerships WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", card.ErrOwnershipNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repository) GetCard(ctx context.Context, q database.Querier, id uuid.UUID) (*card.Card, error) {
	var c card.Card
	err := q.GetContext(ctx, &c, `SELECT `+card.CardColumns+` FROM cards WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", card.ErrCardNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) SetListing(ctx context.Context, q database.Querier, id uuid.UUID, price decimal.Decimal, at time.Time) error {
	_, err := q.ExecContext(ctx, `
		UPDATE card_ownerships
		SET state = 'listed', sale_price = $2, listed_at = $3
		WHERE id = $1 AND state IN ('held', 'listed')
	`, id, price, at)
	return err
}

func (r *repository) ClearListing(ctx context.Context, q database.Querier, id uuid.UUID) error {
	_, err := q.ExecContext(ctx, `
		UPDATE card_ownerships
		SET state = 'held', sale_price = NULL, listed_at = NULL
		WHERE id = $1 AND state = 'listed'
	`, id)
	return err
}

// Transfer hands the copy to its new owner and clears the listing.
func (r *repository) Transfer(ctx context.Context, q database.Querier, o *card.Ownership) error {
	_, err := q.ExecContext(ctx, `
		UPDATE card_ownerships
		SET owner_id = $2, owner_name = $3, acquired_from = $4, acquired_at = $5, purchase_price = $6,
		    state = 'held', sale_price = NULL, listed_at = NULL
		WHERE id = $1
	`, o.ID, o.OwnerID, o.OwnerName, string(o.AcquiredFrom), o.AcquiredAt, o.PurchasePrice)
	if database.IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: %s", card.ErrOwnerNotFound, o.OwnerID)
	}
	return err
}

func (r *repository) RecordSale(ctx context.Context, q database.Querier, cardID uuid.UUID, price decimal.Decimal) error {
	_, err := q.ExecContext(ctx, `
		UPDATE cards SET last_sale_price = $2, updated_at = now() WHERE id = $1
	`, cardID, price)
	return err
}

func (r *repository) InsertSale(ctx context.Context, q database.Querier, s *Sale) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO card_sales (id, ownership_id, card_id, seller_id, buyer_id, creator_id,
			price, platform_fee, royalty, seller_net, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, s.ID, s.OwnershipID, s.CardID, s.SellerID, s.BuyerID, s.CreatorID,
		s.Price, s.PlatformFee, s.Royalty, s.SellerNet, s.CreatedAt)
	return err
}

// LowerFloorPrice sets the card floor to price when it is lower or unset.
func (r *repository) LowerFloorPrice(ctx context.Context, cardID uuid.UUID, price decimal.Decimal) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE cards
		SET floor_price = $2
		WHERE id = $1 AND (floor_price IS NULL OR floor_price = 0 OR floor_price > $2)
	`, cardID, price)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListListings returns listed copies matching f, loading their cards in one batch.
func (r *repository) ListListings(ctx context.Context, f Filter) ([]*Listing, error) {
	f = f.normalized()

	where := []string{"o.state = 'listed'"}
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.MinPrice != nil {
		where = append(where, "o.sale_price >= "+arg(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		where = append(where, "o.sale_price <= "+arg(*f.MaxPrice))
	}
	if f.Rarity != "" {
		where = append(where, "c.rarity = "+arg(string(f.Rarity)))
	}
	if f.Discipline != "" {
		where = append(where, "c.discipline = "+arg(f.Discipline))
	}
	if f.EditionType != "" {
		where = append(where, "c.edition_type = "+arg(string(f.EditionType)))
	}

	orderBy := "o.listed_at DESC, o.id"
	switch f.SortBy {
	case SortPriceAsc:
		orderBy = "o.sale_price ASC, o.listed_at DESC, o.id"
	case SortPriceDesc:
		orderBy = "o.sale_price DESC, o.listed_at DESC, o.id"
	}

	query := `
		SELECT ` + prefixColumns("o.", card.OwnershipColumns) + `
		FROM card_ownerships o
		JOIN cards c ON c.id = o.card_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY ` + orderBy + `
		LIMIT ` + arg(f.Limit)

	owned := []*card.Ownership{}
	if err := r.db.SelectContext(ctx, &owned, query, args...); err != nil {
		return nil, err
	}
	if len(owned) == 0 {
		return []*Listing{}, nil
	}

	ids := make([]string, 0, len(owned))
	for _, o := range owned {
		ids = append(ids, o.CardID.String())
	}
	cards := []*card.Card{}
	if err := r.db.SelectContext(ctx, &cards, `
		SELECT `+card.CardColumns+` FROM cards WHERE id = ANY($1::uuid[])
	`, pq.Array(ids)); err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*card.Card, len(cards))
	for _, c := range cards {
		byID[c.ID] = c
	}

	listings := make([]*Listing, 0, len(owned))
	for _, o := range owned {
		listings = append(listings, &Listing{Card: byID[o.CardID], Listing: o})
	}
	return listings, nil
}

func prefixColumns(prefix, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = prefix + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
