package errorhandler

import (
	"context"
	"errors"
	"net/http"

	"github.com/spacecards/economy-api/internal/pkg/apperr"
	"github.com/spacecards/economy-api/internal/pkg/logger"
	"github.com/spacecards/economy-api/internal/pkg/response"
)

// Mapping ties an error kind to its HTTP status and stable code.
type Mapping struct {
	Kind   error
	Status int
	Code   string
}

// Mappings is checked in order; the first kind matched by errors.Is wins.
var Mappings = []Mapping{
	{apperr.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{apperr.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{apperr.ErrInsufficientFunds, http.StatusPaymentRequired, "INSUFFICIENT_FUNDS"},
	{apperr.ErrEditionSoldOut, http.StatusConflict, "EDITION_SOLD_OUT"},
	{apperr.ErrEditionExpired, http.StatusGone, "EDITION_EXPIRED"},
	{apperr.ErrNotTradable, http.StatusConflict, "NOT_TRADABLE"},
	{apperr.ErrNotForSale, http.StatusConflict, "NOT_FOR_SALE"},
	{apperr.ErrStoreUnavailable, http.StatusServiceUnavailable, "STORE_UNAVAILABLE"},
	{apperr.ErrInvalidArgument, http.StatusBadRequest, "INVALID_ARGUMENT"},
}

// Classify returns the status and code for err. Unknown errors are internal.
func Classify(err error) (int, string) {
	for _, m := range Mappings {
		if errors.Is(err, m.Kind) {
			return m.Status, m.Code
		}
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

// HandleDomainError logs err and writes the matching error response.
// Validation errors carry field details and use 422.
func HandleDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	if fields := apperr.Fields(err); fields != nil {
		logger.FromContext(ctx).Warn().
			Str("request_id", logger.RequestID(ctx)).
			Interface("validation_errors", fields).
			Msg("Validation error")
		response.ValidationError(w, fields)
		return
	}

	status, code := Classify(err)
	if status == http.StatusInternalServerError {
		HandleError(ctx, w, status, code, "An unexpected error occurred", err)
		return
	}

	logger.FromContext(ctx).Info().
		Str("request_id", logger.RequestID(ctx)).
		Str("error_code", code).
		Int("status_code", status).
		Err(err).
		Msg("Request rejected")

	response.Error(w, status, code, err.Error())
}

// HandleError logs at error level and writes a response without leaking err.
func HandleError(ctx context.Context, w http.ResponseWriter, status int, code, message string, err error) {
	event := logger.FromContext(ctx).Error().
		Str("request_id", logger.RequestID(ctx)).
		Str("error_code", code).
		Int("status_code", status)

	if err != nil {
		event.Err(err)
	}

	event.Msg("Request error")

	response.Error(w, status, code, message)
}
