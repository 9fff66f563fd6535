package polling

import (
	"errors"

	"pollguard/internal/csrf"
	"pollguard/internal/domain/poll"
	"pollguard/internal/domain/vote"
	"pollguard/internal/identity"
	"pollguard/internal/validation"
)

// PersistenceError wraps a store failure. Its message never carries the
// underlying cause; that is only logged.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return e.Op + ": persistence failure"
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

type Kind int

const (
	KindPersistence Kind = iota
	KindValidation
	KindAuth
	KindToken
	KindConflict
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindToken:
		return "token"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	default:
		return "persistence"
	}
}

// KindOf classifies err. Anything not recognised as a domain failure is a
// persistence failure.
func KindOf(err error) Kind {
	var pe *PersistenceError
	switch {
	case errors.As(err, &pe):
		return KindPersistence
	case errors.Is(err, validation.ErrValidation):
		return KindValidation
	case errors.Is(err, identity.ErrNotAuthenticated), errors.Is(err, poll.ErrForbidden):
		return KindAuth
	case errors.Is(err, csrf.ErrTokenMismatch), errors.Is(err, csrf.ErrTokenExpired):
		return KindToken
	case errors.Is(err, vote.ErrDuplicateVote):
		return KindConflict
	case errors.Is(err, poll.ErrPollNotFound):
		return KindNotFound
	default:
		return KindPersistence
	}
}
