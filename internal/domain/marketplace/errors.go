package marketplace

import (
	"fmt"

	"github.com/spacecards/economy-api/internal/pkg/apperr"
)

var (
	ErrNotTradable  = fmt.Errorf("marketplace: %w", apperr.ErrNotTradable)
	ErrNotForSale   = fmt.Errorf("marketplace: %w", apperr.ErrNotForSale)
	ErrSelfPurchase = fmt.Errorf("marketplace: buyer already owns this copy: %w", apperr.ErrInvalidArgument)
	ErrInvalidPrice = fmt.Errorf("marketplace: sale price must be positive: %w", apperr.ErrInvalidArgument)
	ErrPriceScale   = fmt.Errorf("marketplace: sale price has more than two decimal places: %w", apperr.ErrInvalidArgument)
	ErrNotOwner     = fmt.Errorf("marketplace: copy belongs to another user: %w", apperr.ErrForbidden)
)
