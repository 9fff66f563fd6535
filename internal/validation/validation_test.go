package validation

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func options(n int) []string {
	res := make([]string, n)
	for i := range res {
		res[i] = fmt.Sprintf("option %d", i)
	}
	return res
}

func TestPollInputNormalizes(t *testing.T) {
	got, err := PollInput("  Best color?  ", []string{" Red", "", "Blue  ", "   "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Question != "Best color?" {
		t.Fatalf("question not trimmed: %q", got.Question)
	}
	if len(got.Options) != 2 || got.Options[0] != "Red" || got.Options[1] != "Blue" {
		t.Fatalf("unexpected options %q", got.Options)
	}
}

func TestPollInputFailures(t *testing.T) {
	cases := []struct {
		name     string
		question string
		options  []string
		want     error
	}{
		{"empty question", "   ", []string{"a", "b"}, ErrEmptyQuestion},
		{"no options", "q", nil, ErrInsufficientOptions},
		{"one option after trim", "q", []string{"a", " ", ""}, ErrInsufficientOptions},
		{"exact duplicates", "q", []string{"a", "a"}, ErrDuplicateOptions},
		{"duplicates after trim", "q", []string{"Red", " Red ", "Blue"}, ErrDuplicateOptions},
		{"too many", "q", options(MaxOptions + 1), ErrTooManyOptions},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := PollInput(tc.question, tc.options)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected error to wrap ErrValidation")
			}
		})
	}
}

func TestPollInputBoundaries(t *testing.T) {
	for _, n := range []int{MinOptions, MaxOptions} {
		got, err := PollInput("q", options(n))
		if err != nil {
			t.Fatalf("%d options: unexpected error %v", n, err)
		}
		if len(got.Options) != n {
			t.Fatalf("expected %d options, got %d", n, len(got.Options))
		}
	}
	// blanks do not count toward the limit
	opts := append(options(MaxOptions), "", "  ")
	if _, err := PollInput("q", opts); err != nil {
		t.Fatalf("blank options should be dropped before counting: %v", err)
	}
}

func TestVoteInput(t *testing.T) {
	id := "3f2504e0-4f89-11d3-9a0c-0305e82c3301"

	if err := VoteInput(id, 0, 2); err != nil {
		t.Fatalf("expected valid vote input: %v", err)
	}
	if err := VoteInput(strings.ToUpper(id), 1, 2); err != nil {
		t.Fatalf("uppercase id should be accepted: %v", err)
	}
	if err := VoteInput("not-a-uuid", 0, 2); !errors.Is(err, ErrMalformedID) {
		t.Fatalf("expected malformed id, got %v", err)
	}
	if err := VoteInput(id, 2, 2); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("expected invalid option for index == count, got %v", err)
	}
	if err := VoteInput(id, -1, 2); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("expected invalid option for negative index, got %v", err)
	}
}

func TestOwnershipIDShape(t *testing.T) {
	bad := []string{
		"",
		"3f2504e04f8911d39a0c0305e82c3301",
		"{3f2504e0-4f89-11d3-9a0c-0305e82c3301}",
		"urn:uuid:3f2504e0-4f89-11d3-9a0c-0305e82c3301",
		"3f2504e0-4f89-11d3-9a0c-0305e82c330z",
		"3f2504e0-4f8911d3-9a0c--0305e82c3301",
	}
	for _, id := range bad {
		if err := OwnershipID(id); !errors.Is(err, ErrMalformedID) {
			t.Fatalf("expected %q to be rejected, got %v", id, err)
		}
	}
	if err := OwnershipID("3F2504E0-4F89-11D3-9A0C-0305E82C3301"); err != nil {
		t.Fatalf("expected canonical uppercase id to pass: %v", err)
	}
}

func TestOptionIndex(t *testing.T) {
	if n, err := OptionIndex("3"); err != nil || n != 3 {
		t.Fatalf("expected 3, got %d %v", n, err)
	}
	for _, raw := range []string{"", "1.5", "-1", "abc"} {
		if _, err := OptionIndex(raw); !errors.Is(err, ErrInvalidOption) {
			t.Fatalf("expected invalid option for %q, got %v", raw, err)
		}
	}
}
