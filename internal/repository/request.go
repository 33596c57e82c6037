package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"community-coin-bot/internal/model"
)

// ErrRequestNotFound is returned when a request lookup misses.
var ErrRequestNotFound = errors.New("request not found")

const requestColumns = "id, reference, user_id, display_name, action, status, coins_given, processed, proof_link, note, submitted_at"

// RequestRepository handles coin-request persistence.
type RequestRepository struct {
	pool *pgxpool.Pool
}

// NewRequestRepository creates a new RequestRepository instance.
func NewRequestRepository(pool *pgxpool.Pool) *RequestRepository {
	return &RequestRepository{pool: pool}
}

func scanRequest(row pgx.Row) (*model.Request, error) {
	var req model.Request
	err := row.Scan(
		&req.ID,
		&req.Reference,
		&req.UserID,
		&req.DisplayName,
		&req.Action,
		&req.Status,
		&req.CoinsGiven,
		&req.Processed,
		&req.ProofLink,
		&req.Note,
		&req.SubmittedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Create persists a new request row. Reference is assigned here so
// confirmations can cite a stable identifier independent of the store.
func (r *RequestRepository) Create(ctx context.Context, req *model.Request) (*model.Request, error) {
	const query = `
		INSERT INTO requests (reference, user_id, display_name, action, status, coins_given, processed, proof_link, note, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + requestColumns

	if req.Reference == uuid.Nil {
		req.Reference = uuid.New()
	}
	if req.SubmittedAt.IsZero() {
		req.SubmittedAt = time.Now()
	}

	created, err := scanRequest(r.pool.QueryRow(ctx, query,
		req.Reference,
		req.UserID,
		req.DisplayName,
		req.Action,
		req.Status,
		req.CoinsGiven,
		req.Processed,
		req.ProofLink,
		req.Note,
		req.SubmittedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return created, nil
}

// CountApprovedByAction counts a user's Approved requests per action.
// Only actions with at least one approved request appear in the map.
func (r *RequestRepository) CountApprovedByAction(ctx context.Context, userID string) (map[string]int, error) {
	const query = `
		SELECT action, COUNT(*)
		FROM requests
		WHERE user_id = $1 AND status = 'Approved'
		GROUP BY action
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count approved requests: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var action string
		var n int
		if err := rows.Scan(&action, &n); err != nil {
			return nil, fmt.Errorf("failed to scan approved count: %w", err)
		}
		counts[action] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating approved counts: %w", err)
	}

	return counts, nil
}

// ListUnprocessed returns up to limit requests in the given terminal
// status whose effect has not yet been applied, oldest first.
func (r *RequestRepository) ListUnprocessed(ctx context.Context, status model.RequestStatus, limit int) ([]*model.Request, error) {
	const query = `
		SELECT ` + requestColumns + `
		FROM requests
		WHERE status = $1 AND NOT processed
		ORDER BY submitted_at, id
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unprocessed requests: %w", err)
	}
	defer rows.Close()

	var requests []*model.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating requests: %w", err)
	}

	return requests, nil
}

// MarkProcessed flips a request's processed flag.
// The flag only ever goes from false to true.
func (r *RequestRepository) MarkProcessed(ctx context.Context, id int64) error {
	const query = `UPDATE requests SET processed = TRUE WHERE id = $1 AND NOT processed`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark request processed: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// SumApprovedCoins totals coins_given over a user's Approved requests,
// regardless of the processed flag. Null coins_given rows contribute
// nothing (their value is still pending reviewer assignment).
func (r *RequestRepository) SumApprovedCoins(ctx context.Context, userID string) (int64, error) {
	const query = `
		SELECT COALESCE(SUM(coins_given), 0)
		FROM requests
		WHERE user_id = $1 AND status = 'Approved'
	`

	var total int64
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum approved coins: %w", err)
	}
	return total, nil
}

// LatestByUserAction returns the submission time of the user's most
// recent request for an action, or ErrRequestNotFound if none exists.
func (r *RequestRepository) LatestByUserAction(ctx context.Context, userID, action string) (time.Time, error) {
	const query = `
		SELECT submitted_at
		FROM requests
		WHERE user_id = $1 AND action = $2
		ORDER BY submitted_at DESC
		LIMIT 1
	`

	var submittedAt time.Time
	err := r.pool.QueryRow(ctx, query, userID, action).Scan(&submittedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, ErrRequestNotFound
		}
		return time.Time{}, fmt.Errorf("failed to get latest request: %w", err)
	}
	return submittedAt, nil
}
