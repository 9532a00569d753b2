package card

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EditionType string

const (
	EditionUnlimited EditionType = "unlimited"
	EditionLimited   EditionType = "limited"
	EditionTimed     EditionType = "timed"
	EditionChallenge EditionType = "challenge"
	EditionContest   EditionType = "contest"
)

// Tradable reports whether copies of this edition may be resold.
func (t EditionType) Tradable() bool {
	return t != EditionUnlimited
}

type Rarity string

const (
	RarityCommon   Rarity = "Common"
	RarityRare     Rarity = "Rare"
	RaritySuper    Rarity = "Super"
	RarityUltra    Rarity = "Ultra"
	RarityGalactic Rarity = "Galactic"
)

// rarityAliases maps lower-cased input to a tier. Legacy lower-case names
// shift up one tier; the capitalised current names map to themselves.
var rarityAliases = map[string]Rarity{
	"common":    RarityCommon,
	"uncommon":  RarityRare,
	"rare":      RaritySuper,
	"super":     RaritySuper,
	"epic":      RarityUltra,
	"ultra":     RarityUltra,
	"legendary": RarityGalactic,
	"mythic":    RarityGalactic,
	"galactic":  RarityGalactic,
}

// NormalizeRarity maps current and legacy tier names to a current tier.
// Unknown or empty names are Common.
func NormalizeRarity(s string) Rarity {
	s = strings.TrimSpace(s)
	switch Rarity(s) {
	case RarityCommon, RarityRare, RaritySuper, RarityUltra, RarityGalactic:
		return Rarity(s)
	}
	if r, ok := rarityAliases[strings.ToLower(s)]; ok {
		return r
	}
	return RarityCommon
}

const (
	DisciplineOther = "other"
	StyleClassic    = "classic"
	TypeCustom      = "custom"
	LayoutBordered  = "bordered"

	// DefaultTimedMaxMints caps a timed edition created without a size.
	DefaultTimedMaxMints = 1000
)

// EditionStatus is the mintability of a card at a point in time.
type EditionStatus string

const (
	StatusOpen     EditionStatus = "open"
	StatusSoldOut  EditionStatus = "sold_out"
	StatusExpired  EditionStatus = "expired"
	StatusUncapped EditionStatus = "uncapped"
)

type ImagePosition struct {
	X int `db:"image_position_x" json:"x" validate:"gte=0,lte=100"`
	Y int `db:"image_position_y" json:"y" validate:"gte=0,lte=100"`
}

type Images struct {
	Front         string  `db:"front_image" json:"front"`
	Back          *string `db:"back_image" json:"back"`
	ImagePosition `json:"position"`
}

type Stats struct {
	TotalMinted   int                 `db:"total_minted" json:"total_minted"`
	TotalOwners   int                 `db:"total_owners" json:"total_owners"`
	FloorPrice    decimal.NullDecimal `db:"floor_price" json:"floor_price"`
	LastSalePrice decimal.NullDecimal `db:"last_sale_price" json:"last_sale_price"`
}

// Card is a minted-on-demand edition created by one user. Images and Stats
// are embedded so sqlx maps their columns flat.
type Card struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	CreatorID   uuid.UUID       `db:"creator_id" json:"creator_id"`
	CreatorName string          `db:"creator_name" json:"creator_name"`
	Title       string          `db:"title" json:"title"`
	Description string          `db:"description" json:"description"`
	Images      `json:"images"`
	Layout      string          `db:"card_layout" json:"card_layout"`
	Discipline  string          `db:"discipline" json:"discipline"`
	Rarity      Rarity          `db:"rarity" json:"rarity"`
	Style       string          `db:"card_style" json:"card_style"`
	Type        string          `db:"card_type" json:"card_type"`
	EditionType EditionType     `db:"edition_type" json:"edition_type"`
	EditionSize *int            `db:"edition_size" json:"edition_size"`
	MaxMints    *int            `db:"max_mints" json:"max_mints"`
	ExpiresAt   *time.Time      `db:"expires_at" json:"expires_at"`
	MintedCount int             `db:"minted_count" json:"minted_count"`
	BasePrice   decimal.Decimal `db:"base_price" json:"base_price"`
	Stats       `json:"stats"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// EditionStatus reports whether another copy can be minted at now.
func (c *Card) EditionStatus(now time.Time) EditionStatus {
	switch c.EditionType {
	case EditionLimited:
		if c.EditionSize != nil && c.MintedCount >= *c.EditionSize {
			return StatusSoldOut
		}
		return StatusOpen
	case EditionTimed:
		if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
			return StatusExpired
		}
		if c.MaxMints != nil && c.MintedCount >= *c.MaxMints {
			return StatusSoldOut
		}
		return StatusOpen
	}
	return StatusUncapped
}

// CheckMintable returns the error for a card that cannot be minted at now.
func (c *Card) CheckMintable(now time.Time) error {
	switch c.EditionStatus(now) {
	case StatusSoldOut:
		return fmt.Errorf("%w: %d of %d minted", ErrSoldOut, c.MintedCount, c.cap())
	case StatusExpired:
		return fmt.Errorf("%w: ended %s", ErrExpired, c.ExpiresAt.UTC().Format(time.RFC3339))
	}
	return nil
}

func (c *Card) cap() int {
	if c.EditionSize != nil {
		return *c.EditionSize
	}
	if c.MaxMints != nil {
		return *c.MaxMints
	}
	return 0
}

type OwnershipState string

const (
	StateCreatorCopy OwnershipState = "creator_copy"
	StateHeld        OwnershipState = "held"
	StateListed      OwnershipState = "listed"
)

type AcquiredFrom string

const (
	AcquiredFromCreator AcquiredFrom = "creator"
	AcquiredFromPrimary AcquiredFrom = "primary"
	AcquiredFromResale  AcquiredFrom = "resale"
)

// Ownership is one numbered copy of a card. Edition 0 is the creator copy.
type Ownership struct {
	ID            uuid.UUID           `db:"id" json:"id"`
	CardID        uuid.UUID           `db:"card_id" json:"card_id"`
	OwnerID       uuid.UUID           `db:"owner_id" json:"owner_id"`
	OwnerName     string              `db:"owner_name" json:"owner_name"`
	EditionNumber int                 `db:"edition_number" json:"edition_number"`
	IsCreatorCopy bool                `db:"is_creator_copy" json:"is_creator_copy"`
	AcquiredFrom  AcquiredFrom        `db:"acquired_from" json:"acquired_from"`
	AcquiredAt    time.Time           `db:"acquired_at" json:"acquired_at"`
	PurchasePrice decimal.Decimal     `db:"purchase_price" json:"purchase_price"`
	State         OwnershipState      `db:"state" json:"state"`
	ForSale       bool                `db:"for_sale" json:"for_sale"`
	SalePrice     decimal.NullDecimal `db:"sale_price" json:"sale_price"`
	ListedAt      *time.Time          `db:"listed_at" json:"listed_at"`
}

// CanList reports whether the copy may move to the listed state.
func (o *Ownership) CanList() bool {
	return o.State == StateHeld || o.State == StateListed
}

// OwnedCard is an ownership joined with its card.
type OwnedCard struct {
	Card      *Card      `json:"card"`
	Ownership *Ownership `json:"ownership"`
}

// MintResult identifies the copy produced by a mint.
type MintResult struct {
	OwnershipID   uuid.UUID `json:"ownership_id"`
	EditionNumber int       `json:"edition_number"`
}
