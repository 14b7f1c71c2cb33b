package polls

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 1000
	minOptions        = 2
	maxOptions        = 10
)

// CreatePollInput is the input bundle for creating a poll.
type CreatePollInput struct {
	Title              string
	Description        string
	CreatorID          string
	Options            []string
	AllowMultipleVotes bool
	ExpiresAt          string // RFC3339, optional
}

// VotePollInput is the input bundle for casting a vote.
type VotePollInput struct {
	PollID   string
	OptionID string
	VoterID  string
	VoterIP  string // informational only
}

// DeletePollInput is the input bundle for deleting a poll.
type DeletePollInput struct {
	PollID string
	UserID string
}

// ValidationResult reports the outcome of a validator.
type ValidationResult struct {
	IsValid bool
	Errors  []string
}

// ValidateCreatePoll checks shape and constraints of a create input.
// Pure: no I/O, no side effects.
func ValidateCreatePoll(in CreatePollInput) ValidationResult {
	_, errs := validatePollFields(in.Title, in.Description, in.ExpiresAt)

	if strings.TrimSpace(in.CreatorID) == "" {
		errs = append(errs, "creator ID is required")
	}

	errs = append(errs, validateOptionSet(validOptions(in.Options))...)

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// validatePollFields checks the title, description, and expiry constraints
// of the poll entity. Shared by the create and edit flows so the limits
// hold on every write, not just the first. Returns the parsed expiry when
// one was supplied and valid.
func validatePollFields(title, description, expiresAt string) (*time.Time, []string) {
	var errs []string

	t := strings.TrimSpace(title)
	if t == "" {
		errs = append(errs, "poll title is required")
	} else if utf8.RuneCountInString(t) > maxTitleLen {
		errs = append(errs, "poll title must be 200 characters or less")
	}

	if utf8.RuneCountInString(description) > maxDescriptionLen {
		errs = append(errs, "poll description must be 1000 characters or less")
	}

	var expiry *time.Time
	if expiresAt != "" {
		parsed, err := time.Parse(time.RFC3339, expiresAt)
		if err != nil {
			errs = append(errs, "invalid expiration date format")
		} else if !parsed.After(time.Now()) {
			errs = append(errs, "expiration date must be in the future")
		} else {
			expiry = &parsed
		}
	}

	return expiry, errs
}

// ValidateVotePoll checks that a vote input names a poll, an option, and a voter.
func ValidateVotePoll(in VotePollInput) ValidationResult {
	var errs []string
	if strings.TrimSpace(in.PollID) == "" {
		errs = append(errs, "poll ID is required")
	}
	if strings.TrimSpace(in.OptionID) == "" {
		errs = append(errs, "option ID is required")
	}
	if strings.TrimSpace(in.VoterID) == "" {
		errs = append(errs, "voter ID is required")
	}
	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// ValidateDeletePoll checks that a delete input names a poll and a user.
func ValidateDeletePoll(in DeletePollInput) ValidationResult {
	var errs []string
	if strings.TrimSpace(in.PollID) == "" {
		errs = append(errs, "poll ID is required")
	}
	if strings.TrimSpace(in.UserID) == "" {
		errs = append(errs, "user ID is required")
	}
	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// AssertValid runs validator and converts a failed result into a
// ValidationError carrying every message, not just the first.
func AssertValid[T any](in T, validator func(T) ValidationResult) error {
	if res := validator(in); !res.IsValid {
		return &ValidationError{Errors: res.Errors}
	}
	return nil
}

// validOptions trims every option and drops blank entries, preserving order.
func validOptions(options []string) []string {
	out := make([]string, 0, len(options))
	for _, o := range options {
		if t := strings.TrimSpace(o); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// validateOptionSet checks count and case-insensitive uniqueness of an
// already trimmed, non-blank option set. Shared by create and edit flows.
func validateOptionSet(options []string) []string {
	var errs []string
	if len(options) < minOptions {
		errs = append(errs, "at least 2 valid options are required")
	}
	if len(options) > maxOptions {
		errs = append(errs, "maximum 10 options are allowed")
	}
	seen := make(map[string]struct{}, len(options))
	for _, o := range options {
		seen[strings.ToLower(o)] = struct{}{}
	}
	if len(seen) != len(options) {
		errs = append(errs, "poll options must be unique")
	}
	return errs
}
