package wallet

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeSale       TransactionType = "sale"
	TransactionTypePurchase   TransactionType = "purchase"
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypeRoyalty    TransactionType = "royalty"
	TransactionTypeFee        TransactionType = "fee"
	TransactionTypeRefund     TransactionType = "refund"
	TransactionTypeCommission TransactionType = "commission"
)

// IsCredit reports whether the type may increase a balance.
func (t TransactionType) IsCredit() bool {
	switch t {
	case TransactionTypeSale, TransactionTypeDeposit, TransactionTypeRoyalty,
		TransactionTypeRefund, TransactionTypeCommission:
		return true
	}
	return false
}

// IsDebit reports whether the type may decrease a balance.
func (t TransactionType) IsDebit() bool {
	switch t {
	case TransactionTypePurchase, TransactionTypeWithdrawal, TransactionTypeFee:
		return true
	}
	return false
}

// CountsAsEarnings reports whether credits of this type accrue to lifetime earnings.
func (t TransactionType) CountsAsEarnings() bool {
	return t == TransactionTypeSale || t == TransactionTypeRoyalty || t == TransactionTypeCommission
}

// Related item types written to the ledger.
const (
	ItemTypeCard       = "card"
	ItemTypeOwnership  = "card_ownership"
	ItemTypeCommission = "commission"
)

type Wallet struct {
	UserID           uuid.UUID       `db:"user_id" json:"user_id"`
	Balance          decimal.Decimal `db:"balance" json:"balance"`
	LifetimeEarnings decimal.Decimal `db:"lifetime_earnings" json:"lifetime_earnings"`
	LifetimeSpent    decimal.Decimal `db:"lifetime_spent" json:"lifetime_spent"`
	PendingPayout    decimal.Decimal `db:"pending_payout" json:"pending_payout"`
	Currency         string          `db:"currency" json:"currency"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

type Transaction struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	UserID          uuid.UUID       `db:"user_id" json:"user_id"`
	Type            TransactionType `db:"type" json:"type"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	Description     string          `db:"description" json:"description"`
	RelatedItemID   *string         `db:"related_item_id" json:"related_item_id,omitempty"`
	RelatedItemType *string         `db:"related_item_type" json:"related_item_type,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}

// Entry describes a single balance mutation.
type Entry struct {
	UserID          uuid.UUID
	Amount          decimal.Decimal
	Type            TransactionType
	Description     string
	RelatedItemID   string
	RelatedItemType string
}

// Purchase is a primary sale or commission settlement between two users.
type Purchase struct {
	BuyerID  uuid.UUID
	SellerID uuid.UUID
	ItemID   string
	ItemType string
	Price    decimal.Decimal
	Title    string
}

// Resale is a secondary-market settlement that may pay a royalty.
type Resale struct {
	Purchase
	OriginalCreatorID uuid.UUID
}

// ResaleSplit is the division of a resale price.
type ResaleSplit struct {
	Price       decimal.Decimal `json:"price"`
	PlatformFee decimal.Decimal `json:"platform_fee"`
	Royalty     decimal.Decimal `json:"royalty"`
	SellerNet   decimal.Decimal `json:"seller_net"`
	RoyaltyPaid bool            `json:"royalty_paid"`
}

// Settlement lists the ledger rows written by a derived operation.
type Settlement struct {
	Transactions []*Transaction `json:"transactions"`
	Split        *ResaleSplit   `json:"split,omitempty"`
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
