package models

import (
	"time"

	"github.com/google/uuid"
)

// Poll is a question with a fixed, ordered set of options. CreatorID is set
// once at creation and never changes.
type Poll struct {
	ID                 uuid.UUID  `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description,omitempty"`
	CreatorID          uuid.UUID  `json:"creator_id"`
	AllowMultipleVotes bool       `json:"allow_multiple_votes"`
	ExpiresAt          *time.Time `json:"expires_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// Expired reports whether the poll's expiry, if any, has passed.
func (p *Poll) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && !now.Before(*p.ExpiresAt)
}

// PollOption is one selectable answer belonging to exactly one poll.
// OptionOrder is zero-based and unique within the poll.
type PollOption struct {
	ID          uuid.UUID `json:"id"`
	PollID      uuid.UUID `json:"poll_id"`
	OptionText  string    `json:"option_text"`
	OptionOrder int       `json:"option_order"`
	CreatedAt   time.Time `json:"created_at"`
}

// Vote links one voter to one option of one poll. VoterIP is informational
// only and plays no part in duplicate detection.
type Vote struct {
	ID        uuid.UUID `json:"id"`
	PollID    uuid.UUID `json:"poll_id"`
	OptionID  uuid.UUID `json:"option_id"`
	VoterID   uuid.UUID `json:"voter_id"`
	VoterIP   string    `json:"voter_ip,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PollResult is the per-option vote count for a poll, derived on read.
type PollResult struct {
	OptionID    uuid.UUID `json:"option_id"`
	OptionText  string    `json:"option_text"`
	OptionOrder int       `json:"option_order"`
	VoteCount   int64     `json:"vote_count"`
}

// PollWithOptions is a poll plus its options in display order.
type PollWithOptions struct {
	Poll    Poll         `json:"poll"`
	Options []PollOption `json:"options"`
}

// PollSummary is a listing row: the poll plus aggregate counts.
type PollSummary struct {
	Poll        Poll  `json:"poll"`
	OptionCount int   `json:"option_count"`
	VoteCount   int64 `json:"vote_count"`
}
