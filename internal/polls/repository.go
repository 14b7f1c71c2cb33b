package polls

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/castpoll/backend/internal/models"
)

// PostgreSQL error codes mapped to domain errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Repository handles poll, option, and vote persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a polls repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreatePoll inserts the poll row and its options in a single transaction.
// Options receive zero-based option_order in slice order. A failure on
// either insert rolls back the whole creation; no orphaned poll row can
// remain.
func (r *Repository) CreatePoll(ctx context.Context, p *models.Poll, options []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const insertPoll = `INSERT INTO polls (title, description, creator_id, allow_multiple_votes, expires_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5)
		RETURNING id, created_at`
	if err := tx.QueryRow(ctx, insertPoll, p.Title, p.Description, p.CreatorID, p.AllowMultipleVotes, p.ExpiresAt).
		Scan(&p.ID, &p.CreatedAt); err != nil {
		return err
	}

	const insertOption = `INSERT INTO poll_options (poll_id, option_text, option_order) VALUES ($1, $2, $3)`
	batch := &pgx.Batch{}
	for i, text := range options {
		batch.Queue(insertOption, p.ID, text, i)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// GetPoll returns a poll by ID, or ErrPollNotFound.
func (r *Repository) GetPoll(ctx context.Context, id uuid.UUID) (*models.Poll, error) {
	const q = `SELECT id, title, COALESCE(description, ''), creator_id, allow_multiple_votes, expires_at, created_at
		FROM polls WHERE id = $1`
	var p models.Poll
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&p.ID, &p.Title, &p.Description, &p.CreatorID, &p.AllowMultipleVotes, &p.ExpiresAt, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPollNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetOptions returns a poll's options in display order.
func (r *Repository) GetOptions(ctx context.Context, pollID uuid.UUID) ([]models.PollOption, error) {
	const q = `SELECT id, poll_id, option_text, option_order, created_at
		FROM poll_options WHERE poll_id = $1 ORDER BY option_order`
	rows, err := r.pool.Query(ctx, q, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var options []models.PollOption
	for rows.Next() {
		var o models.PollOption
		if err := rows.Scan(&o.ID, &o.PollID, &o.OptionText, &o.OptionOrder, &o.CreatedAt); err != nil {
			return nil, err
		}
		options = append(options, o)
	}
	return options, rows.Err()
}

// ListPolls returns every poll with option and vote counts, newest first.
func (r *Repository) ListPolls(ctx context.Context) ([]models.PollSummary, error) {
	const q = `SELECT p.id, p.title, COALESCE(p.description, ''), p.creator_id, p.allow_multiple_votes, p.expires_at, p.created_at,
		(SELECT COUNT(*) FROM poll_options o WHERE o.poll_id = p.id),
		(SELECT COUNT(*) FROM votes v WHERE v.poll_id = p.id)
		FROM polls p ORDER BY p.created_at DESC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.PollSummary
	for rows.Next() {
		var s models.PollSummary
		if err := rows.Scan(&s.Poll.ID, &s.Poll.Title, &s.Poll.Description, &s.Poll.CreatorID,
			&s.Poll.AllowMultipleVotes, &s.Poll.ExpiresAt, &s.Poll.CreatedAt,
			&s.OptionCount, &s.VoteCount); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// UpdatePoll updates title, description, and expiry of a poll.
func (r *Repository) UpdatePoll(ctx context.Context, p *models.Poll) error {
	const q = `UPDATE polls SET title = $1, description = NULLIF($2, ''), expires_at = $3 WHERE id = $4`
	tag, err := r.pool.Exec(ctx, q, p.Title, p.Description, p.ExpiresAt, p.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPollNotFound
	}
	return nil
}

// DeletePoll removes a poll with its options and votes in one transaction,
// children before parent to satisfy the foreign keys.
func (r *Repository) DeletePoll(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM votes WHERE poll_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM poll_options WHERE poll_id = $1`, id); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM polls WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPollNotFound
	}

	return tx.Commit(ctx)
}

// AddOption inserts a single option during an edit flow.
func (r *Repository) AddOption(ctx context.Context, o *models.PollOption) error {
	const q = `INSERT INTO poll_options (poll_id, option_text, option_order)
		VALUES ($1, $2, $3) RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, q, o.PollID, o.OptionText, o.OptionOrder).Scan(&o.ID, &o.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return ErrPollNotFound
	}
	return err
}

// UpdateOptionText changes an option's text.
func (r *Repository) UpdateOptionText(ctx context.Context, optionID uuid.UUID, text string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE poll_options SET option_text = $1 WHERE id = $2`, text, optionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOptionNotFound
	}
	return nil
}

// RemoveOption deletes an option and any votes cast for it.
func (r *Repository) RemoveOption(ctx context.Context, optionID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM votes WHERE option_id = $1`, optionID); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM poll_options WHERE id = $1`, optionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOptionNotFound
	}

	return tx.Commit(ctx)
}

// InsertVote records a vote. When dedup is true the partial unique index on
// (poll_id, voter_id) enforces one vote per voter; a unique violation maps
// to ErrDuplicateVote, closing the check-then-insert race at the storage
// layer. A foreign-key violation means the option does not belong to the
// poll (or does not exist) and maps to ErrOptionNotFound.
func (r *Repository) InsertVote(ctx context.Context, v *models.Vote, dedup bool) error {
	const q = `INSERT INTO votes (poll_id, option_id, voter_id, voter_ip, dedup)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
		RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, q, v.PollID, v.OptionID, v.VoterID, v.VoterIP, dedup).Scan(&v.ID, &v.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrDuplicateVote
		case pgForeignKeyViolation:
			return ErrOptionNotFound
		}
	}
	return err
}

// HasVoted reports whether voterID has a vote on pollID. Zero matching
// rows is false, not an error.
func (r *Repository) HasVoted(ctx context.Context, pollID, voterID uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM votes WHERE poll_id = $1 AND voter_id = $2)`
	var voted bool
	if err := r.pool.QueryRow(ctx, q, pollID, voterID).Scan(&voted); err != nil {
		return false, err
	}
	return voted, nil
}

// Results aggregates votes grouped by option, one row per option including
// zero-vote options, ordered by option_order.
func (r *Repository) Results(ctx context.Context, pollID uuid.UUID) ([]models.PollResult, error) {
	const q = `SELECT o.id, o.option_text, o.option_order, COUNT(v.id)
		FROM poll_options o
		LEFT JOIN votes v ON v.option_id = o.id
		WHERE o.poll_id = $1
		GROUP BY o.id, o.option_text, o.option_order
		ORDER BY o.option_order`
	rows, err := r.pool.Query(ctx, q, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.PollResult
	for rows.Next() {
		var res models.PollResult
		if err := rows.Scan(&res.OptionID, &res.OptionText, &res.OptionOrder, &res.VoteCount); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// TotalVotes returns the vote count across all options of a poll.
func (r *Repository) TotalVotes(ctx context.Context, pollID uuid.UUID) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM votes WHERE poll_id = $1`, pollID).Scan(&total)
	return total, err
}

// ListExpiredBetween returns IDs of polls whose expiry falls in (from, to].
// Used by the background sweeper.
func (r *Repository) ListExpiredBetween(ctx context.Context, from, to time.Time) ([]uuid.UUID, error) {
	const q = `SELECT id FROM polls WHERE expires_at > $1 AND expires_at <= $2`
	rows, err := r.pool.Query(ctx, q, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
