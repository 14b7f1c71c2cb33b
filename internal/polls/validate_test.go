package polls

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validCreateInput() CreatePollInput {
	return CreatePollInput{
		Title:     "Favorite language?",
		CreatorID: "2f0c3bb0-5a02-4fbd-b50e-1a0be4d86d49",
		Options:   []string{"Go", "Rust"},
	}
}

func TestValidateCreatePoll(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CreatePollInput)
		wantOK  bool
		wantMsg string
	}{
		{
			name:   "valid minimal input",
			mutate: func(in *CreatePollInput) {},
			wantOK: true,
		},
		{
			name:    "missing title",
			mutate:  func(in *CreatePollInput) { in.Title = "   " },
			wantMsg: "poll title is required",
		},
		{
			name:    "title too long",
			mutate:  func(in *CreatePollInput) { in.Title = strings.Repeat("x", 201) },
			wantMsg: "200 characters or less",
		},
		{
			name:   "title exactly at limit",
			mutate: func(in *CreatePollInput) { in.Title = strings.Repeat("x", 200) },
			wantOK: true,
		},
		{
			name:    "description too long",
			mutate:  func(in *CreatePollInput) { in.Description = strings.Repeat("d", 1001) },
			wantMsg: "1000 characters or less",
		},
		{
			name:    "missing creator",
			mutate:  func(in *CreatePollInput) { in.CreatorID = "" },
			wantMsg: "creator ID is required",
		},
		{
			name:    "single option",
			mutate:  func(in *CreatePollInput) { in.Options = []string{"Go"} },
			wantMsg: "at least 2",
		},
		{
			name:    "blank options do not count",
			mutate:  func(in *CreatePollInput) { in.Options = []string{"Go", "  ", ""} },
			wantMsg: "at least 2",
		},
		{
			name:    "no options",
			mutate:  func(in *CreatePollInput) { in.Options = nil },
			wantMsg: "at least 2",
		},
		{
			name: "too many options",
			mutate: func(in *CreatePollInput) {
				in.Options = []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"}
			},
			wantMsg: "maximum 10",
		},
		{
			name:   "exactly ten options",
			mutate: func(in *CreatePollInput) { in.Options = []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} },
			wantOK: true,
		},
		{
			name:    "case-insensitive duplicate options",
			mutate:  func(in *CreatePollInput) { in.Options = []string{"Go", "go"} },
			wantMsg: "unique",
		},
		{
			name:    "duplicates after trimming",
			mutate:  func(in *CreatePollInput) { in.Options = []string{"Go", " Go "} },
			wantMsg: "unique",
		},
		{
			name:    "malformed expiration date",
			mutate:  func(in *CreatePollInput) { in.ExpiresAt = "tomorrow" },
			wantMsg: "invalid expiration date",
		},
		{
			name: "expiration in the past",
			mutate: func(in *CreatePollInput) {
				in.ExpiresAt = time.Now().Add(-time.Hour).Format(time.RFC3339)
			},
			wantMsg: "must be in the future",
		},
		{
			name: "expiration in the future",
			mutate: func(in *CreatePollInput) {
				in.ExpiresAt = time.Now().Add(time.Hour).Format(time.RFC3339)
			},
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validCreateInput()
			tt.mutate(&in)
			res := ValidateCreatePoll(in)
			if res.IsValid != tt.wantOK {
				t.Fatalf("IsValid = %v, want %v (errors: %v)", res.IsValid, tt.wantOK, res.Errors)
			}
			if tt.wantMsg != "" && !containsSubstring(res.Errors, tt.wantMsg) {
				t.Errorf("errors %v do not mention %q", res.Errors, tt.wantMsg)
			}
		})
	}
}

func TestValidateCreatePollCollectsAllErrors(t *testing.T) {
	res := ValidateCreatePoll(CreatePollInput{Options: []string{"only"}})
	if res.IsValid {
		t.Fatal("expected invalid result")
	}
	if len(res.Errors) < 3 {
		t.Errorf("expected title, creator, and option errors, got %v", res.Errors)
	}
}

func TestValidateVotePoll(t *testing.T) {
	tests := []struct {
		name    string
		in      VotePollInput
		wantOK  bool
		wantMsg string
	}{
		{
			name:   "all fields present",
			in:     VotePollInput{PollID: "p", OptionID: "o", VoterID: "v"},
			wantOK: true,
		},
		{
			name:    "missing poll ID",
			in:      VotePollInput{OptionID: "o", VoterID: "v"},
			wantMsg: "poll ID is required",
		},
		{
			name:    "missing option ID",
			in:      VotePollInput{PollID: "p", VoterID: "v"},
			wantMsg: "option ID is required",
		},
		{
			name:    "blank voter ID",
			in:      VotePollInput{PollID: "p", OptionID: "o", VoterID: "  "},
			wantMsg: "voter ID is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateVotePoll(tt.in)
			if res.IsValid != tt.wantOK {
				t.Fatalf("IsValid = %v, want %v (errors: %v)", res.IsValid, tt.wantOK, res.Errors)
			}
			if tt.wantMsg != "" && !containsSubstring(res.Errors, tt.wantMsg) {
				t.Errorf("errors %v do not mention %q", res.Errors, tt.wantMsg)
			}
		})
	}
}

func TestValidateDeletePoll(t *testing.T) {
	if res := ValidateDeletePoll(DeletePollInput{PollID: "p", UserID: "u"}); !res.IsValid {
		t.Errorf("expected valid, got errors %v", res.Errors)
	}
	if res := ValidateDeletePoll(DeletePollInput{}); res.IsValid || len(res.Errors) != 2 {
		t.Errorf("expected two errors, got %v", res.Errors)
	}
}

func TestAssertValid(t *testing.T) {
	if err := AssertValid(validCreateInput(), ValidateCreatePoll); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := AssertValid(CreatePollInput{Options: []string{"x"}}, ValidateCreatePoll)
	if err == nil {
		t.Fatal("expected validation error")
	}
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if len(vErr.Errors) < 2 {
		t.Errorf("expected every message to be carried, got %v", vErr.Errors)
	}
}

func containsSubstring(msgs []string, sub string) bool {
	for _, m := range msgs {
		if strings.Contains(m, sub) {
			return true
		}
	}
	return false
}
