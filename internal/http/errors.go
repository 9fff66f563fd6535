package api

import (
	"errors"
	"net/http"

	"pollguard/internal/csrf"
	"pollguard/internal/domain/poll"
	"pollguard/internal/domain/user"
	"pollguard/internal/domain/vote"
	"pollguard/internal/identity"
	"pollguard/internal/platform/apperr"
	"pollguard/internal/polling"
	"pollguard/internal/validation"
)

func errorResponse(w http.ResponseWriter, err error) {
	appErr := mapError(err)
	if appErr.StatusCode() >= http.StatusInternalServerError && appErr.Err != nil {
		var pe *polling.PersistenceError
		if !errors.As(appErr.Err, &pe) {
			slogLogger.Error("request failed", "err", appErr.Err)
		}
	}
	writeJSON(w, appErr.StatusCode(), appErr)
}

func mapError(err error) *apperr.AppError {
	if err == nil {
		return apperr.Internal("internal_error", "internal server error", nil)
	}

	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, validation.ErrMalformedID):
		return apperr.BadRequest("invalid_id", "malformed id", err)
	case errors.Is(err, validation.ErrInvalidOption):
		return apperr.BadRequest("invalid_option", "option index out of range", err)
	case errors.Is(err, validation.ErrOptionCountChanged):
		return apperr.BadRequest("option_count_changed", "number of options cannot change", err)
	case errors.Is(err, validation.ErrEmptyQuestion),
		errors.Is(err, validation.ErrInsufficientOptions),
		errors.Is(err, validation.ErrDuplicateOptions),
		errors.Is(err, validation.ErrTooManyOptions):
		return apperr.BadRequest("invalid_poll", err.Error(), err)
	case errors.Is(err, identity.ErrNotAuthenticated):
		return apperr.Unauthorized("unauthorized", "authentication required", err)
	// a poll owned by someone else answers exactly like a missing one
	case errors.Is(err, poll.ErrForbidden), errors.Is(err, poll.ErrPollNotFound):
		return apperr.NotFound("poll_not_found", "poll not found", err)
	case errors.Is(err, csrf.ErrTokenMismatch):
		return apperr.Forbidden("invalid_csrf_token", "anti-forgery token rejected", err)
	case errors.Is(err, csrf.ErrTokenExpired):
		return apperr.Forbidden("csrf_token_expired", "anti-forgery token expired or already used", err)
	case errors.Is(err, vote.ErrDuplicateVote):
		return apperr.Conflict("already_voted", "already voted in this poll", err)
	// a token that outlived its account is no longer a session
	case errors.Is(err, user.ErrUserNotFound):
		return apperr.Unauthorized("unauthorized", "authentication required", err)
	case errors.Is(err, user.ErrInvalidCredentials):
		return apperr.Unauthorized("invalid_credentials", "invalid credentials", err)
	case errors.Is(err, user.ErrEmailTaken):
		return apperr.BadRequest("email_taken", "email already taken", err)
	case errors.Is(err, user.ErrMissingFields):
		return apperr.BadRequest("invalid_input", "email and password required", err)
	default:
		return apperr.FromError(err)
	}
}
