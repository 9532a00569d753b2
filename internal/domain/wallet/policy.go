package wallet

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// moneyPlaces is the precision of fee and royalty amounts.
const moneyPlaces = 2

// FeePolicy is the immutable configuration applied to every settlement.
type FeePolicy struct {
	platformFeeRate decimal.Decimal
	royaltyRate     decimal.Decimal
	currency        string
	chargeBuyer     bool
}

// DefaultFeePolicy is 10% platform fee, 5% creator royalty, no buyer debit.
func DefaultFeePolicy() FeePolicy {
	return FeePolicy{
		platformFeeRate: decimal.NewFromFloat(0.10),
		royaltyRate:     decimal.NewFromFloat(0.05),
		currency:        "USD",
	}
}

// NewFeePolicy validates rates in [0,1] whose sum does not exceed 1.
func NewFeePolicy(platformFeeRate, royaltyRate decimal.Decimal, currency string, chargeBuyer bool) (FeePolicy, error) {
	one := decimal.NewFromInt(1)
	if platformFeeRate.IsNegative() || royaltyRate.IsNegative() {
		return FeePolicy{}, fmt.Errorf("%w: negative rate", ErrInvalidPolicy)
	}
	if platformFeeRate.Add(royaltyRate).GreaterThan(one) {
		return FeePolicy{}, fmt.Errorf("%w: fee %s + royalty %s exceeds 1", ErrInvalidPolicy, platformFeeRate, royaltyRate)
	}
	if len(currency) != 3 {
		return FeePolicy{}, fmt.Errorf("%w: currency %q", ErrInvalidPolicy, currency)
	}
	return FeePolicy{
		platformFeeRate: platformFeeRate,
		royaltyRate:     royaltyRate,
		currency:        currency,
		chargeBuyer:     chargeBuyer,
	}, nil
}

// FitsMoneyScale reports whether d has no more than two decimal places.
func FitsMoneyScale(d decimal.Decimal) bool {
	return d.Equal(d.Round(moneyPlaces))
}

func (p FeePolicy) PlatformFeeRate() decimal.Decimal { return p.platformFeeRate }
func (p FeePolicy) RoyaltyRate() decimal.Decimal     { return p.royaltyRate }
func (p FeePolicy) Currency() string                 { return p.currency }
func (p FeePolicy) ChargeBuyer() bool                { return p.chargeBuyer }

// Split divides a resale price. Fee and royalty are rounded half away from
// zero to two places; the seller receives the remainder so the parts always
// sum to price.
func (p FeePolicy) Split(price decimal.Decimal) ResaleSplit {
	fee := price.Mul(p.platformFeeRate).Round(moneyPlaces)
	royalty := price.Mul(p.royaltyRate).Round(moneyPlaces)
	return ResaleSplit{
		Price:       price,
		PlatformFee: fee,
		Royalty:     royalty,
		SellerNet:   price.Sub(fee).Sub(royalty),
	}
}
