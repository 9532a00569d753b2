package card

import (
	"fmt"

	"github.com/spacecards/economy-api/internal/pkg/apperr"
)

var (
	ErrCardNotFound      = fmt.Errorf("card: %w", apperr.ErrNotFound)
	ErrOwnershipNotFound = fmt.Errorf("card ownership: %w", apperr.ErrNotFound)
	ErrOwnerNotFound     = fmt.Errorf("card owner: %w", apperr.ErrNotFound)
	ErrImageNotFound     = fmt.Errorf("card image: %w", apperr.ErrInvalidArgument)
	ErrSoldOut           = fmt.Errorf("card: %w", apperr.ErrEditionSoldOut)
	ErrExpired           = fmt.Errorf("card: %w", apperr.ErrEditionExpired)
)
