package marketplace

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spacecards/economy-api/internal/domain/card"
	"github.com/spacecards/economy-api/internal/domain/wallet"
)

type SortBy string

const (
	SortPriceAsc  SortBy = "price_asc"
	SortPriceDesc SortBy = "price_desc"
	SortRecent    SortBy = "recent"
)

// MaxListings caps a marketplace page.
const MaxListings = 50

// Filter narrows marketplace listings. Zero values match everything.
type Filter struct {
	MinPrice    *decimal.Decimal `json:"min_price,omitempty"`
	MaxPrice    *decimal.Decimal `json:"max_price,omitempty"`
	Rarity      card.Rarity      `json:"rarity,omitempty"`
	Discipline  string           `json:"discipline,omitempty"`
	EditionType card.EditionType `json:"edition_type,omitempty"`
	SortBy      SortBy           `json:"sort_by"`
	Limit       int              `json:"limit"`
}

func (f Filter) normalized() Filter {
	if f.SortBy != SortPriceAsc && f.SortBy != SortPriceDesc {
		f.SortBy = SortRecent
	}
	if f.Limit <= 0 || f.Limit > MaxListings {
		f.Limit = MaxListings
	}
	return f
}

// Listing is a copy offered for resale together with its card.
type Listing struct {
	Card    *card.Card      `json:"card"`
	Listing *card.Ownership `json:"listing"`
}

// Sale is the audit row of one executed resale.
type Sale struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	OwnershipID uuid.UUID       `db:"ownership_id" json:"ownership_id"`
	CardID      uuid.UUID       `db:"card_id" json:"card_id"`
	SellerID    uuid.UUID       `db:"seller_id" json:"seller_id"`
	BuyerID     uuid.UUID       `db:"buyer_id" json:"buyer_id"`
	CreatorID   uuid.UUID       `db:"creator_id" json:"creator_id"`
	Price       decimal.Decimal `db:"price" json:"price"`
	PlatformFee decimal.Decimal `db:"platform_fee" json:"platform_fee"`
	Royalty     decimal.Decimal `db:"royalty" json:"royalty"`
	SellerNet   decimal.Decimal `db:"seller_net" json:"seller_net"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// PurchaseResult is returned to the buyer of a resale.
type PurchaseResult struct {
	Sale  *Sale              `json:"sale"`
	Split wallet.ResaleSplit `json:"split"`
}
