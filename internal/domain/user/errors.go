package user

import (
	"fmt"

	"github.com/spacecards/economy-api/internal/pkg/apperr"
)

var ErrUserNotFound = fmt.Errorf("user: %w", apperr.ErrNotFound)
