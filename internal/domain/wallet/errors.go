package wallet

import (
	"fmt"

	"github.com/spacecards/economy-api/internal/pkg/apperr"
)

var (
	ErrInvalidAmount     = fmt.Errorf("wallet: amount must be positive: %w", apperr.ErrInvalidArgument)
	ErrAmountScale       = fmt.Errorf("wallet: amount has more than two decimal places: %w", apperr.ErrInvalidArgument)
	ErrInvalidType       = fmt.Errorf("wallet: transaction type not allowed: %w", apperr.ErrInvalidArgument)
	ErrInvalidPolicy     = fmt.Errorf("wallet: invalid fee policy: %w", apperr.ErrInvalidArgument)
	ErrUserNotFound      = fmt.Errorf("wallet: user: %w", apperr.ErrNotFound)
	ErrInsufficientFunds = fmt.Errorf("wallet: %w", apperr.ErrInsufficientFunds)
)
