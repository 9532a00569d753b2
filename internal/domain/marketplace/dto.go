package marketplace

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/spacecards/economy-api/internal/domain/card"
	"github.com/spacecards/economy-api/internal/pkg/apperr"
	"github.com/spacecards/economy-api/internal/pkg/validator"
)

// ListRequest for POST /marketplace/listings/{ownershipID}
type ListRequest struct {
	SalePrice decimal.Decimal `json:"sale_price"`
}

// FilterQuery is the query string of GET /marketplace
type FilterQuery struct {
	MinPrice    string `json:"min_price" validate:"omitempty,number"`
	MaxPrice    string `json:"max_price" validate:"omitempty,number"`
	Rarity      string `json:"rarity" validate:"omitempty,rarity"`
	Discipline  string `json:"discipline" validate:"omitempty,discipline"`
	EditionType string `json:"edition_type" validate:"omitempty,edition_type"`
	SortBy      string `json:"sort_by" validate:"omitempty,sort_by"`
	Limit       string `json:"limit" validate:"omitempty,numeric"`
}

// ParseFilter reads and validates marketplace filters from a query string.
func ParseFilter(values url.Values) (Filter, error) {
	q := FilterQuery{
		MinPrice:    strings.TrimSpace(values.Get("min_price")),
		MaxPrice:    strings.TrimSpace(values.Get("max_price")),
		Rarity:      strings.TrimSpace(values.Get("rarity")),
		Discipline:  strings.ToLower(strings.TrimSpace(values.Get("discipline"))),
		EditionType: strings.ToLower(strings.TrimSpace(values.Get("edition_type"))),
		SortBy:      strings.ToLower(strings.TrimSpace(values.Get("sort_by"))),
		Limit:       strings.TrimSpace(values.Get("limit")),
	}
	if fields := validator.Validate(&q); fields != nil {
		return Filter{}, apperr.NewValidationError(fields)
	}

	f := Filter{
		Discipline:  q.Discipline,
		EditionType: card.EditionType(q.EditionType),
		SortBy:      SortBy(q.SortBy),
	}
	if q.Rarity != "" {
		f.Rarity = card.NormalizeRarity(q.Rarity)
	}
	if q.MinPrice != "" {
		d, err := decimal.NewFromString(q.MinPrice)
		if err != nil {
			return Filter{}, apperr.NewValidationError(map[string]string{"min_price": "Invalid number"})
		}
		f.MinPrice = &d
	}
	if q.MaxPrice != "" {
		d, err := decimal.NewFromString(q.MaxPrice)
		if err != nil {
			return Filter{}, apperr.NewValidationError(map[string]string{"max_price": "Invalid number"})
		}
		f.MaxPrice = &d
	}
	if q.Limit != "" {
		f.Limit, _ = strconv.Atoi(q.Limit)
	}
	return f.normalized(), nil
}
