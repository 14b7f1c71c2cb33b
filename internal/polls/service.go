package polls

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/castpoll/backend/internal/models"
)

// ListingPath is the cached view path for the poll listing.
const ListingPath = "/polls"

// ViewPaths returns every cached view path derived from a single poll.
func ViewPaths(pollID uuid.UUID) []string {
	base := ListingPath + "/" + pollID.String()
	return []string{base, base + "/results", base + "/votes/count"}
}

// Store is the persistence surface the service depends on. Injected so
// tests can substitute an in-memory double for the pgx repository.
type Store interface {
	CreatePoll(ctx context.Context, p *models.Poll, options []string) error
	GetPoll(ctx context.Context, id uuid.UUID) (*models.Poll, error)
	GetOptions(ctx context.Context, pollID uuid.UUID) ([]models.PollOption, error)
	ListPolls(ctx context.Context) ([]models.PollSummary, error)
	UpdatePoll(ctx context.Context, p *models.Poll) error
	DeletePoll(ctx context.Context, id uuid.UUID) error
	AddOption(ctx context.Context, o *models.PollOption) error
	UpdateOptionText(ctx context.Context, optionID uuid.UUID, text string) error
	RemoveOption(ctx context.Context, optionID uuid.UUID) error
	InsertVote(ctx context.Context, v *models.Vote, dedup bool) error
	HasVoted(ctx context.Context, pollID, voterID uuid.UUID) (bool, error)
	Results(ctx context.Context, pollID uuid.UUID) ([]models.PollResult, error)
	TotalVotes(ctx context.Context, pollID uuid.UUID) (int64, error)
}

// Invalidator drops a cached view. Advisory: implementations must not fail
// the calling action.
type Invalidator interface {
	Invalidate(ctx context.Context, path string)
}

// Service orchestrates poll actions: identity, validation, integrity
// checks, store mutation, and view invalidation, in that order.
type Service struct {
	store  Store
	views  Invalidator
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a poll service.
func NewService(store Store, views Invalidator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, views: views, logger: logger, now: time.Now}
}

// Create validates the input, inserts the poll and its options in one
// transaction, and invalidates the listing view. Returns the stored poll.
func (s *Service) Create(ctx context.Context, in CreatePollInput) (*models.Poll, error) {
	if err := requireIdentity(in.CreatorID); err != nil {
		return nil, err
	}
	if err := AssertValid(in, ValidateCreatePoll); err != nil {
		return nil, err
	}
	creatorID, err := parseID(in.CreatorID, "creator ID")
	if err != nil {
		return nil, err
	}

	p := &models.Poll{
		Title:              strings.TrimSpace(in.Title),
		Description:        strings.TrimSpace(in.Description),
		CreatorID:          creatorID,
		AllowMultipleVotes: in.AllowMultipleVotes,
	}
	if in.ExpiresAt != "" {
		expiry, err := time.Parse(time.RFC3339, in.ExpiresAt)
		if err != nil {
			return nil, &ValidationError{Errors: []string{"invalid expiration date format"}}
		}
		p.ExpiresAt = &expiry
	}

	if err := s.store.CreatePoll(ctx, p, validOptions(in.Options)); err != nil {
		return nil, err
	}
	s.views.Invalidate(ctx, ListingPath)
	s.logger.Info("poll created",
		zap.String("poll_id", p.ID.String()),
		zap.String("creator_id", p.CreatorID.String()))
	return p, nil
}

// Vote casts a vote. For single-vote polls the existing-vote pre-check
// gives the friendly common-path error; the storage unique index is the
// authoritative guard, so a concurrent double submit still fails with
// ErrDuplicateVote. Polls that allow multiple votes skip both.
func (s *Service) Vote(ctx context.Context, in VotePollInput) error {
	if err := requireIdentity(in.VoterID); err != nil {
		return err
	}
	if err := AssertValid(in, ValidateVotePoll); err != nil {
		return err
	}
	pollID, err := parseID(in.PollID, "poll ID")
	if err != nil {
		return err
	}
	optionID, err := parseID(in.OptionID, "option ID")
	if err != nil {
		return err
	}
	voterID, err := parseID(in.VoterID, "voter ID")
	if err != nil {
		return err
	}

	poll, err := s.store.GetPoll(ctx, pollID)
	if err != nil {
		return err
	}
	if poll.Expired(s.now()) {
		return ErrPollExpired
	}

	dedup := !poll.AllowMultipleVotes
	if dedup {
		voted, err := s.hasExistingVote(ctx, pollID, voterID)
		if err != nil {
			return err
		}
		if voted {
			return ErrDuplicateVote
		}
	}

	v := &models.Vote{PollID: pollID, OptionID: optionID, VoterID: voterID, VoterIP: in.VoterIP}
	if err := s.store.InsertVote(ctx, v, dedup); err != nil {
		return err
	}
	s.invalidatePollViews(ctx, pollID)
	return nil
}

// Results returns per-option vote counts in option order, one entry per
// option with zero counts included. A poll with no votes yields counts of
// zero, not an error; a missing poll yields ErrPollNotFound.
func (s *Service) Results(ctx context.Context, pollID string) ([]models.PollResult, error) {
	id, err := requirePollID(pollID)
	if err != nil {
		return nil, err
	}
	results, err := s.store.Results(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		// no option rows: either the poll is gone or it has no options
		if _, err := s.store.GetPoll(ctx, id); err != nil {
			return nil, err
		}
		return []models.PollResult{}, nil
	}
	return results, nil
}

// TotalVotes returns the vote count across all options of a poll.
func (s *Service) TotalVotes(ctx context.Context, pollID string) (int64, error) {
	id, err := requirePollID(pollID)
	if err != nil {
		return 0, err
	}
	if _, err := s.store.GetPoll(ctx, id); err != nil {
		return 0, err
	}
	return s.store.TotalVotes(ctx, id)
}

// Delete removes a poll after verifying the caller created it. Votes and
// options go before the poll row, all in one transaction.
func (s *Service) Delete(ctx context.Context, in DeletePollInput) error {
	if err := requireIdentity(in.UserID); err != nil {
		return err
	}
	if err := AssertValid(in, ValidateDeletePoll); err != nil {
		return err
	}
	pollID, err := parseID(in.PollID, "poll ID")
	if err != nil {
		return err
	}
	userID, err := parseID(in.UserID, "user ID")
	if err != nil {
		return err
	}

	if err := s.verifyOwnership(ctx, pollID, userID); err != nil {
		return err
	}
	if err := s.store.DeletePoll(ctx, pollID); err != nil {
		return err
	}
	s.views.Invalidate(ctx, ListingPath)
	s.invalidatePollViews(ctx, pollID)
	s.logger.Info("poll deleted",
		zap.String("poll_id", pollID.String()),
		zap.String("user_id", userID.String()))
	return nil
}

// HasVoted reports whether voterID already voted on pollID. It never
// fails: a blank ID, an unparseable ID, or a store error all degrade to
// false with a logged diagnostic, trading strictness for availability.
func (s *Service) HasVoted(ctx context.Context, pollID, voterID string) bool {
	if strings.TrimSpace(pollID) == "" || strings.TrimSpace(voterID) == "" {
		return false
	}
	pid, err := uuid.Parse(strings.TrimSpace(pollID))
	if err != nil {
		return false
	}
	vid, err := uuid.Parse(strings.TrimSpace(voterID))
	if err != nil {
		return false
	}
	voted, err := s.store.HasVoted(ctx, pid, vid)
	if err != nil {
		s.logger.Warn("vote status check failed",
			zap.String("poll_id", pollID), zap.Error(err))
		return false
	}
	return voted
}

// Get returns a poll with its options in display order.
func (s *Service) Get(ctx context.Context, pollID string) (*models.PollWithOptions, error) {
	id, err := requirePollID(pollID)
	if err != nil {
		return nil, err
	}
	poll, err := s.store.GetPoll(ctx, id)
	if err != nil {
		return nil, err
	}
	options, err := s.store.GetOptions(ctx, id)
	if err != nil {
		return nil, err
	}
	if options == nil {
		options = []models.PollOption{}
	}
	return &models.PollWithOptions{Poll: *poll, Options: options}, nil
}

// List returns all polls with option and vote counts, newest first.
func (s *Service) List(ctx context.Context) ([]models.PollSummary, error) {
	list, err := s.store.ListPolls(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.PollSummary{}
	}
	return list, nil
}

// UpdateOptionInput describes one option edit. A blank ID adds a new
// option; Remove deletes the identified option along with its votes.
type UpdateOptionInput struct {
	ID     string
	Text   string
	Remove bool
}

// UpdatePollInput is the edit-flow bundle.
type UpdatePollInput struct {
	PollID      string
	UserID      string
	Title       string
	Description string
	ExpiresAt   string // RFC3339, empty clears the expiry
	Options     []UpdateOptionInput
}

// Update edits a poll's title, description, expiry, and options after
// verifying ownership. Option mutations are dispatched concurrently and
// the action waits for all to settle; the first failure surfaces. The
// resulting option set must still satisfy the creation constraints.
func (s *Service) Update(ctx context.Context, in UpdatePollInput) error {
	if err := requireIdentity(in.UserID); err != nil {
		return err
	}
	pollID, err := parseID(in.PollID, "poll ID")
	if err != nil {
		return err
	}
	userID, err := parseID(in.UserID, "user ID")
	if err != nil {
		return err
	}
	if err := s.verifyOwnership(ctx, pollID, userID); err != nil {
		return err
	}

	current, err := s.store.GetOptions(ctx, pollID)
	if err != nil {
		return err
	}
	adds, updates, removes, err := planOptionEdits(current, in.Options)
	if err != nil {
		return err
	}

	expiry, errs := validatePollFields(in.Title, in.Description, in.ExpiresAt)
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	p := &models.Poll{
		ID:          pollID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		ExpiresAt:   expiry,
	}

	if err := s.settleOptionEdits(ctx, pollID, adds, updates, removes); err != nil {
		return err
	}
	if err := s.store.UpdatePoll(ctx, p); err != nil {
		return err
	}
	s.views.Invalidate(ctx, ListingPath)
	s.invalidatePollViews(ctx, pollID)
	return nil
}

type optionUpdate struct {
	id   uuid.UUID
	text string
}

// planOptionEdits resolves edit entries against the current options and
// validates that the final option set still meets creation constraints.
func planOptionEdits(current []models.PollOption, edits []UpdateOptionInput) (adds []models.PollOption, updates []optionUpdate, removes []uuid.UUID, err error) {
	final := make(map[uuid.UUID]string, len(current))
	nextOrder := 0
	for _, o := range current {
		final[o.ID] = o.OptionText
		if o.OptionOrder >= nextOrder {
			nextOrder = o.OptionOrder + 1
		}
	}

	for _, e := range edits {
		text := strings.TrimSpace(e.Text)
		if e.ID == "" {
			if e.Remove || text == "" {
				continue
			}
			o := models.PollOption{OptionText: text, OptionOrder: nextOrder}
			nextOrder++
			adds = append(adds, o)
			continue
		}
		id, perr := uuid.Parse(e.ID)
		if perr != nil {
			return nil, nil, nil, &ValidationError{Errors: []string{"invalid option ID"}}
		}
		if _, ok := final[id]; !ok {
			return nil, nil, nil, ErrOptionNotFound
		}
		if e.Remove {
			removes = append(removes, id)
			delete(final, id)
			continue
		}
		if text == "" {
			return nil, nil, nil, &ValidationError{Errors: []string{"option text is required"}}
		}
		if final[id] != text {
			updates = append(updates, optionUpdate{id: id, text: text})
			final[id] = text
		}
	}

	texts := make([]string, 0, len(final)+len(adds))
	for _, t := range final {
		texts = append(texts, t)
	}
	for _, o := range adds {
		texts = append(texts, o.OptionText)
	}
	if errs := validateOptionSet(texts); len(errs) > 0 {
		return nil, nil, nil, &ValidationError{Errors: errs}
	}
	return adds, updates, removes, nil
}

// settleOptionEdits runs all option mutations concurrently and waits for
// every one to finish. Mutations are independent rows so no ordering is
// guaranteed among them; the first error observed is returned.
func (s *Service) settleOptionEdits(ctx context.Context, pollID uuid.UUID, adds []models.PollOption, updates []optionUpdate, removes []uuid.UUID) error {
	ops := make([]func() error, 0, len(adds)+len(updates)+len(removes))
	for i := range adds {
		o := adds[i]
		o.PollID = pollID
		ops = append(ops, func() error { return s.store.AddOption(ctx, &o) })
	}
	for _, u := range updates {
		u := u
		ops = append(ops, func() error { return s.store.UpdateOptionText(ctx, u.id, u.text) })
	}
	for _, id := range removes {
		id := id
		ops = append(ops, func() error { return s.store.RemoveOption(ctx, id) })
	}
	if len(ops) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(ops))
	for _, op := range ops {
		op := op
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := op(); err != nil {
				errCh <- err
			}
		}()
	}
	wg.Wait()
	close(errCh)
	return <-errCh
}

// verifyOwnership loads the poll and checks that userID created it.
func (s *Service) verifyOwnership(ctx context.Context, pollID, userID uuid.UUID) error {
	poll, err := s.store.GetPoll(ctx, pollID)
	if err != nil {
		return err
	}
	if poll.CreatorID != userID {
		return &AuthorizationError{Message: "you can only modify your own polls"}
	}
	return nil
}

// hasExistingVote queries the store for a prior vote by voterID on pollID.
func (s *Service) hasExistingVote(ctx context.Context, pollID, voterID uuid.UUID) (bool, error) {
	return s.store.HasVoted(ctx, pollID, voterID)
}

func (s *Service) invalidatePollViews(ctx context.Context, pollID uuid.UUID) {
	for _, path := range ViewPaths(pollID) {
		s.views.Invalidate(ctx, path)
	}
}

// requireIdentity fails with an AuthenticationError when the caller's
// identity is absent or blank.
func requireIdentity(id string) error {
	if strings.TrimSpace(id) == "" {
		return &AuthenticationError{Message: "user must be authenticated"}
	}
	return nil
}

func requirePollID(pollID string) (uuid.UUID, error) {
	if strings.TrimSpace(pollID) == "" {
		return uuid.Nil, &ValidationError{Errors: []string{"poll ID is required"}}
	}
	return parseID(pollID, "poll ID")
}

func parseID(s, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, &ValidationError{Errors: []string{"invalid " + field}}
	}
	return id, nil
}
