package notification

import (
	"fmt"

	"github.com/spacecards/economy-api/internal/pkg/apperr"
)

var ErrNotificationNotFound = fmt.Errorf("notification: %w", apperr.ErrNotFound)
