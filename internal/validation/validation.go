package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	MinOptions = 2
	MaxOptions = 20
)

// ErrValidation is wrapped by every error returned from this package.
var ErrValidation = errors.New("validation failed")

var (
	ErrEmptyQuestion       = fmt.Errorf("%w: question is empty", ErrValidation)
	ErrInsufficientOptions = fmt.Errorf("%w: at least %d options required", ErrValidation, MinOptions)
	ErrDuplicateOptions    = fmt.Errorf("%w: options must be unique", ErrValidation)
	ErrTooManyOptions      = fmt.Errorf("%w: at most %d options allowed", ErrValidation, MaxOptions)
	ErrMalformedID         = fmt.Errorf("%w: malformed id", ErrValidation)
	ErrInvalidOption       = fmt.Errorf("%w: invalid option", ErrValidation)
	ErrOptionCountChanged  = fmt.Errorf("%w: option count cannot change after creation", ErrValidation)
)

type Normalized struct {
	Question string
	Options  []string
}

// PollInput trims the question and options and drops options that are
// blank after trimming.
func PollInput(question string, options []string) (Normalized, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return Normalized{}, ErrEmptyQuestion
	}

	opts := make([]string, 0, len(options))
	for _, o := range options {
		if t := strings.TrimSpace(o); t != "" {
			opts = append(opts, t)
		}
	}
	if len(opts) < MinOptions {
		return Normalized{}, ErrInsufficientOptions
	}

	seen := make(map[string]struct{}, len(opts))
	for _, o := range opts {
		seen[o] = struct{}{}
	}
	if len(seen) < len(opts) {
		return Normalized{}, ErrDuplicateOptions
	}
	if len(opts) > MaxOptions {
		return Normalized{}, ErrTooManyOptions
	}

	return Normalized{Question: q, Options: opts}, nil
}

func VoteInput(pollID string, optionIndex, optionCount int) error {
	if err := OwnershipID(pollID); err != nil {
		return err
	}
	if optionIndex < 0 || optionIndex >= optionCount {
		return ErrInvalidOption
	}
	return nil
}

// OwnershipID accepts only the canonical 8-4-4-4-12 hex form, in either case.
func OwnershipID(id string) error {
	if !IsUUID(id) {
		return ErrMalformedID
	}
	return nil
}

func IsUUID(s string) bool {
	// uuid.Parse also takes braced, urn: and undashed forms; the length pins it
	// to the dashed layout.
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// OptionIndex parses a caller supplied option index.
func OptionIndex(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0, ErrInvalidOption
	}
	return n, nil
}
