package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"community-coin-bot/internal/model"
	"community-coin-bot/internal/repository"
)

// memStore is an in-memory record store implementing UserStore and
// RequestStore with the same error contract as the real repositories.
type memStore struct {
	mu       sync.Mutex
	users    map[string]*model.User
	requests []*model.Request
	nextID   int64

	// injectable failures
	failUsers    error            // fails every user-table call
	failRequests error            // fails every request-table call
	failCredit   map[string]error // fails AddCoins for specific users
}

func newMemStore() *memStore {
	return &memStore{
		users:      make(map[string]*model.User),
		failCredit: make(map[string]error),
	}
}

func copyUser(u *model.User) *model.User {
	c := *u
	c.OwnedRewards = append([]string{}, u.OwnedRewards...)
	return &c
}

func (m *memStore) GetByID(_ context.Context, externalID string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUsers != nil {
		return nil, m.failUsers
	}
	u, ok := m.users[externalID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (m *memStore) GetOrCreate(_ context.Context, externalID, displayName string, seedCoins int64) (*model.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUsers != nil {
		return nil, false, m.failUsers
	}
	if u, ok := m.users[externalID]; ok {
		return copyUser(u), false, nil
	}
	u := &model.User{
		ExternalID:  externalID,
		DisplayName: displayName,
		Coins:       seedCoins,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	m.users[externalID] = u
	return copyUser(u), true, nil
}

func (m *memStore) AddCoins(_ context.Context, externalID string, amount int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUsers != nil {
		return nil, m.failUsers
	}
	if err, ok := m.failCredit[externalID]; ok {
		return nil, err
	}
	u, ok := m.users[externalID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	u.Coins += amount
	return copyUser(u), nil
}

func (m *memStore) DebitCoins(_ context.Context, externalID string, amount int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUsers != nil {
		return nil, m.failUsers
	}
	u, ok := m.users[externalID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	if u.Coins < amount {
		return nil, repository.ErrInsufficientFunds
	}
	u.Coins -= amount
	return copyUser(u), nil
}

func (m *memStore) SetCoins(_ context.Context, externalID string, coins int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUsers != nil {
		return nil, m.failUsers
	}
	u, ok := m.users[externalID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	u.Coins = coins
	return copyUser(u), nil
}

func (m *memStore) AppendOwnedReward(_ context.Context, externalID, rewardID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUsers != nil {
		return m.failUsers
	}
	u, ok := m.users[externalID]
	if !ok {
		return repository.ErrUserNotFound
	}
	for _, r := range u.OwnedRewards {
		if r == rewardID {
			return fmt.Errorf("reward %q already owned or user missing", rewardID)
		}
	}
	u.OwnedRewards = append(u.OwnedRewards, rewardID)
	return nil
}

func (m *memStore) TopByCoins(_ context.Context, limit int) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUsers != nil {
		return nil, m.failUsers
	}
	var all []*model.User
	for _, u := range m.users {
		all = append(all, copyUser(u))
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Coins != all[j].Coins {
			return all[i].Coins > all[j].Coins
		}
		return all[i].ExternalID < all[j].ExternalID
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *memStore) Rank(ctx context.Context, externalID string) (int, error) {
	all, err := m.TopByCoins(ctx, len(m.users))
	if err != nil {
		return 0, err
	}
	for i, u := range all {
		if u.ExternalID == externalID {
			return i + 1, nil
		}
	}
	return 0, repository.ErrUserNotFound
}

func (m *memStore) CountUsers(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUsers != nil {
		return 0, m.failUsers
	}
	return int64(len(m.users)), nil
}

func (m *memStore) UpdateDisplayName(_ context.Context, externalID, displayName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[externalID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.DisplayName = displayName
	return nil
}

func (m *memStore) Create(_ context.Context, req *model.Request) (*model.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRequests != nil {
		return nil, m.failRequests
	}
	m.nextID++
	stored := *req
	stored.ID = m.nextID
	if stored.Reference == uuid.Nil {
		stored.Reference = uuid.New()
	}
	if stored.SubmittedAt.IsZero() {
		stored.SubmittedAt = time.Now()
	}
	m.requests = append(m.requests, &stored)
	out := stored
	return &out, nil
}

func (m *memStore) CountApprovedByAction(_ context.Context, userID string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRequests != nil {
		return nil, m.failRequests
	}
	counts := make(map[string]int)
	for _, r := range m.requests {
		if r.UserID == userID && r.Status == model.StatusApproved {
			counts[r.Action]++
		}
	}
	return counts, nil
}

func (m *memStore) ListUnprocessed(_ context.Context, status model.RequestStatus, limit int) ([]*model.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRequests != nil {
		return nil, m.failRequests
	}
	var out []*model.Request
	for _, r := range m.requests {
		if r.Status == status && !r.Processed {
			c := *r
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.Before(out[j].SubmittedAt)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) MarkProcessed(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRequests != nil {
		return m.failRequests
	}
	for _, r := range m.requests {
		if r.ID == id && !r.Processed {
			r.Processed = true
			return nil
		}
	}
	return repository.ErrRequestNotFound
}

func (m *memStore) SumApprovedCoins(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRequests != nil {
		return 0, m.failRequests
	}
	var total int64
	for _, r := range m.requests {
		if r.UserID == userID && r.Status == model.StatusApproved && r.CoinsGiven != nil {
			total += *r.CoinsGiven
		}
	}
	return total, nil
}

func (m *memStore) LatestByUserAction(_ context.Context, userID, action string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRequests != nil {
		return time.Time{}, m.failRequests
	}
	var latest time.Time
	found := false
	for _, r := range m.requests {
		if r.UserID == userID && r.Action == action && r.SubmittedAt.After(latest) {
			latest = r.SubmittedAt
			found = true
		}
	}
	if !found {
		return time.Time{}, repository.ErrRequestNotFound
	}
	return latest, nil
}

// setStatus flips a request's review status, standing in for the
// external human reviewer. An optional coins override fills in the
// value of a variable action.
func (m *memStore) setStatus(id int64, status model.RequestStatus, coins *int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		if r.ID == id {
			r.Status = status
			if coins != nil {
				r.CoinsGiven = coins
			}
			return
		}
	}
}

func int64Ptr(v int64) *int64 { return &v }
