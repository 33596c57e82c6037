package service

import (
	"context"
	"time"

	"community-coin-bot/internal/model"
)

// UserStore is the slice of the record store the services need for the
// users table. Implemented by repository.UserRepository; tests supply
// in-memory fakes. Store-level sentinels (repository.ErrUserNotFound,
// repository.ErrInsufficientFunds) are part of the contract.
type UserStore interface {
	GetByID(ctx context.Context, externalID string) (*model.User, error)
	GetOrCreate(ctx context.Context, externalID, displayName string, seedCoins int64) (*model.User, bool, error)
	AddCoins(ctx context.Context, externalID string, amount int64) (*model.User, error)
	DebitCoins(ctx context.Context, externalID string, amount int64) (*model.User, error)
	SetCoins(ctx context.Context, externalID string, coins int64) (*model.User, error)
	AppendOwnedReward(ctx context.Context, externalID, rewardID string) error
	TopByCoins(ctx context.Context, limit int) ([]*model.User, error)
	Rank(ctx context.Context, externalID string) (int, error)
	CountUsers(ctx context.Context) (int64, error)
	UpdateDisplayName(ctx context.Context, externalID, displayName string) error
}

// RequestStore is the slice of the record store the services need for
// the requests table.
type RequestStore interface {
	Create(ctx context.Context, req *model.Request) (*model.Request, error)
	CountApprovedByAction(ctx context.Context, userID string) (map[string]int, error)
	ListUnprocessed(ctx context.Context, status model.RequestStatus, limit int) ([]*model.Request, error)
	MarkProcessed(ctx context.Context, id int64) error
	SumApprovedCoins(ctx context.Context, userID string) (int64, error)
	LatestByUserAction(ctx context.Context, userID, action string) (time.Time, error)
}
