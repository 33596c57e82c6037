package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"community-coin-bot/internal/catalog"
	"community-coin-bot/internal/model"
	"community-coin-bot/internal/pkg/lock"
	"community-coin-bot/internal/repository"
)

// ProcessReport summarizes one reconciliation pass over a terminal
// request status.
type ProcessReport struct {
	Processed    int
	Skipped      int
	Failed       int
	CoinsGranted int64
}

// LifecycleService moves requests through their lifecycle: submission
// as Pending, then applying Approved/Declined outcomes exactly once.
type LifecycleService struct {
	userStore    UserStore
	requestStore RequestStore
	actions      *catalog.Actions
	eligibility  *EligibilityService
	userLock     *lock.UserLock
	seedCoins    int64
	strayCoins   int64
	strayWindow  time.Duration
	batchSize    int
}

// NewLifecycleService creates a new LifecycleService instance.
func NewLifecycleService(
	userStore UserStore,
	requestStore RequestStore,
	actions *catalog.Actions,
	eligibility *EligibilityService,
	userLock *lock.UserLock,
	seedCoins, strayCoins int64,
	strayWindow time.Duration,
	batchSize int,
) *LifecycleService {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &LifecycleService{
		userStore:    userStore,
		requestStore: requestStore,
		actions:      actions,
		eligibility:  eligibility,
		userLock:     userLock,
		seedCoins:    seedCoins,
		strayCoins:   strayCoins,
		strayWindow:  strayWindow,
		batchSize:    batchSize,
	}
}

// SubmitRequest validates the claim against the action's cap and, when
// allowed, persists a Pending request with coins_given prefilled from
// the catalog (nil for reviewer-valued actions). The user record is
// ensured as a side effect; notifying the user is the caller's job and
// must not roll back the stored request on failure.
func (s *LifecycleService) SubmitRequest(ctx context.Context, externalID, displayName, actionID, proofLink, note string) (*model.Request, error) {
	action, ok := s.actions.Get(actionID)
	if !ok {
		return nil, ErrUnknownAction
	}

	if !s.eligibility.CanClaim(ctx, externalID, actionID) {
		return nil, ErrActionCapReached
	}

	if _, _, err := s.userStore.GetOrCreate(ctx, externalID, displayName, s.seedCoins); err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}

	var coins *int64
	if action.HasFixedCoins() {
		v := action.Coins
		coins = &v
	}

	req, err := s.requestStore.Create(ctx, &model.Request{
		UserID:      externalID,
		DisplayName: displayName,
		Action:      actionID,
		Status:      model.StatusPending,
		CoinsGiven:  coins,
		ProofLink:   proofLink,
		Note:        note,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store request: %w", err)
	}

	log.Info().
		Str("user_id", externalID).
		Str("action", actionID).
		Str("reference", req.Reference.String()).
		Msg("Coin request submitted")

	return req, nil
}

// ProcessApproved applies every unprocessed Approved request in the
// current batch: credit the user, then mark the request processed.
// Requests whose coins_given is still null are skipped without marking,
// so they resurface once a reviewer assigns a value. Failures are
// isolated per item; a bad request never blocks the rest of the batch
// and stays unprocessed for the next run.
func (s *LifecycleService) ProcessApproved(ctx context.Context) (ProcessReport, error) {
	var report ProcessReport

	requests, err := s.requestStore.ListUnprocessed(ctx, model.StatusApproved, s.batchSize)
	if err != nil {
		return report, fmt.Errorf("failed to list approved requests: %w", err)
	}

	for _, req := range requests {
		if req.CoinsGiven == nil {
			report.Skipped++
			continue
		}

		if err := s.applyApproved(ctx, req); err != nil {
			report.Failed++
			log.Error().
				Err(err).
				Int64("request_id", req.ID).
				Str("user_id", req.UserID).
				Msg("Failed to process approved request")
			continue
		}

		report.Processed++
		report.CoinsGranted += *req.CoinsGiven
	}

	return report, nil
}

// applyApproved grants one request's coins and flips its processed
// flag under the owning user's lock.
func (s *LifecycleService) applyApproved(ctx context.Context, req *model.Request) error {
	s.userLock.Lock(req.UserID)
	defer s.userLock.Unlock(req.UserID)

	if _, _, err := s.userStore.GetOrCreate(ctx, req.UserID, req.DisplayName, s.seedCoins); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	if _, err := s.userStore.AddCoins(ctx, req.UserID, *req.CoinsGiven); err != nil {
		return fmt.Errorf("credit coins: %w", err)
	}
	if err := s.requestStore.MarkProcessed(ctx, req.ID); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}

// ProcessDeclined marks every unprocessed Declined request processed
// with no balance effect.
func (s *LifecycleService) ProcessDeclined(ctx context.Context) (ProcessReport, error) {
	var report ProcessReport

	requests, err := s.requestStore.ListUnprocessed(ctx, model.StatusDeclined, s.batchSize)
	if err != nil {
		return report, fmt.Errorf("failed to list declined requests: %w", err)
	}

	for _, req := range requests {
		if err := s.requestStore.MarkProcessed(ctx, req.ID); err != nil {
			report.Failed++
			log.Error().
				Err(err).
				Int64("request_id", req.ID).
				Msg("Failed to mark declined request processed")
			continue
		}
		report.Processed++
	}

	return report, nil
}

// ClaimStray grants the one-off stray-coin reward. The grant is written
// to the request log as an already-processed Approved request, and a
// fresh claim is rejected while the user's previous stray claim is
// still inside the replay window.
func (s *LifecycleService) ClaimStray(ctx context.Context, externalID, displayName string) (int64, error) {
	s.userLock.Lock(externalID)
	defer s.userLock.Unlock(externalID)

	last, err := s.requestStore.LatestByUserAction(ctx, externalID, catalog.StrayAction)
	switch {
	case err == nil:
		if s.strayWindow <= 0 || time.Since(last) < s.strayWindow {
			return 0, ErrStrayAlreadyClaimed
		}
	case errors.Is(err, repository.ErrRequestNotFound):
		// first claim
	default:
		return 0, fmt.Errorf("failed to check stray claims: %w", err)
	}

	if _, _, err := s.userStore.GetOrCreate(ctx, externalID, displayName, s.seedCoins); err != nil {
		return 0, fmt.Errorf("failed to ensure user: %w", err)
	}

	user, err := s.userStore.AddCoins(ctx, externalID, s.strayCoins)
	if err != nil {
		return 0, fmt.Errorf("failed to grant stray coins: %w", err)
	}

	coins := s.strayCoins
	if _, err := s.requestStore.Create(ctx, &model.Request{
		UserID:      externalID,
		DisplayName: displayName,
		Action:      catalog.StrayAction,
		Status:      model.StatusApproved,
		CoinsGiven:  &coins,
		Processed:   true,
	}); err != nil {
		// The grant stands; only the audit row is missing, which also
		// disables the replay guard until the next successful claim.
		log.Error().
			Err(err).
			Str("user_id", externalID).
			Msg("Stray coins granted but claim record was not stored")
	}

	return user.Coins, nil
}
