// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"community-coin-bot/internal/model"
)

// Common errors for repository operations.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

const userColumns = "external_id, display_name, coins, owned_rewards, created_at, updated_at"

// UserRepository handles user data persistence.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ExternalID,
		&user.DisplayName,
		&user.Coins,
		&user.OwnedRewards,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create creates a new user with the given external ID and display name,
// seeded with the configured starting balance.
func (r *UserRepository) Create(ctx context.Context, externalID, displayName string, seedCoins int64) (*model.User, error) {
	const query = `
		INSERT INTO users (external_id, display_name, coins, owned_rewards, created_at, updated_at)
		VALUES ($1, $2, $3, '{}', NOW(), NOW())
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, externalID, displayName, seedCoins))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by their external ID.
// Returns ErrUserNotFound if the user does not exist.
func (r *UserRepository) GetByID(ctx context.Context, externalID string) (*model.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE external_id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, externalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetOrCreate retrieves a user by external ID, creating one if it doesn't exist.
// Returns the user and whether it was newly created.
func (r *UserRepository) GetOrCreate(ctx context.Context, externalID, displayName string, seedCoins int64) (*model.User, bool, error) {
	user, err := r.GetByID(ctx, externalID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, false, err
	}

	user, err = r.Create(ctx, externalID, displayName, seedCoins)
	if err != nil {
		// Handle race condition: another request might have created the user
		user, err = r.GetByID(ctx, externalID)
		if err != nil {
			return nil, false, err
		}
		return user, false, nil
	}

	return user, true, nil
}

// AddCoins adds the given amount to a user's balance and returns the
// updated user. Amount may be negative only when the caller has already
// verified sufficiency; use DebitCoins for guarded debits.
func (r *UserRepository) AddCoins(ctx context.Context, externalID string, amount int64) (*model.User, error) {
	const query = `
		UPDATE users
		SET coins = coins + $2, updated_at = NOW()
		WHERE external_id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, externalID, amount))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to add coins: %w", err)
	}
	return user, nil
}

// DebitCoins atomically subtracts amount from a user's balance.
// The decrement is conditional on sufficiency, so a concurrent debit can
// never drive the balance negative; ErrInsufficientFunds is returned and
// the balance left unchanged when the guard fails.
func (r *UserRepository) DebitCoins(ctx context.Context, externalID string, amount int64) (*model.User, error) {
	const query = `
		UPDATE users
		SET coins = coins - $2, updated_at = NOW()
		WHERE external_id = $1 AND coins >= $2
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, externalID, amount))
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to debit coins: %w", err)
	}

	// No row updated: either the user is missing or the guard failed.
	if _, gerr := r.GetByID(ctx, externalID); gerr != nil {
		return nil, gerr
	}
	return nil, ErrInsufficientFunds
}

// SetCoins sets a user's balance to an exact value.
// Used by reconciliation, which always full-recomputes.
func (r *UserRepository) SetCoins(ctx context.Context, externalID string, coins int64) (*model.User, error) {
	const query = `
		UPDATE users
		SET coins = $2, updated_at = NOW()
		WHERE external_id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, externalID, coins))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to set coins: %w", err)
	}
	return user, nil
}

// AppendOwnedReward appends a reward ID to the user's owned list.
// The guard keeps the list duplicate-free even under concurrent appends.
func (r *UserRepository) AppendOwnedReward(ctx context.Context, externalID, rewardID string) error {
	const query = `
		UPDATE users
		SET owned_rewards = array_append(owned_rewards, $2), updated_at = NOW()
		WHERE external_id = $1 AND NOT ($2 = ANY(owned_rewards))
	`

	result, err := r.pool.Exec(ctx, query, externalID, rewardID)
	if err != nil {
		return fmt.Errorf("failed to append owned reward: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("reward %q already owned or user missing", rewardID)
	}
	return nil
}

// TopByCoins retrieves the top N users by balance.
func (r *UserRepository) TopByCoins(ctx context.Context, limit int) ([]*model.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY coins DESC, external_id
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// Rank returns a user's 1-based leaderboard position by balance.
func (r *UserRepository) Rank(ctx context.Context, externalID string) (int, error) {
	const query = `
		SELECT position FROM (
			SELECT external_id,
			       RANK() OVER (ORDER BY coins DESC, external_id) AS position
			FROM users
		) ranked
		WHERE external_id = $1
	`

	var position int
	err := r.pool.QueryRow(ctx, query, externalID).Scan(&position)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to get rank: %w", err)
	}
	return position, nil
}

// UpdateDisplayName refreshes a user's display name.
// Names are best-effort labels and may drift with the platform.
func (r *UserRepository) UpdateDisplayName(ctx context.Context, externalID, displayName string) error {
	const query = `
		UPDATE users
		SET display_name = $2, updated_at = NOW()
		WHERE external_id = $1
	`

	result, err := r.pool.Exec(ctx, query, externalID, displayName)
	if err != nil {
		return fmt.Errorf("failed to update display name: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// CountUsers returns the total number of user records.
func (r *UserRepository) CountUsers(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM users`

	var n int64
	if err := r.pool.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// Exists checks if a user with the given external ID exists.
func (r *UserRepository) Exists(ctx context.Context, externalID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM users WHERE external_id = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, externalID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}
