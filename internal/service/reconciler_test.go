package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"community-coin-bot/internal/model"
)

func TestReconcilerRunProcessesBothStatuses(t *testing.T) {
	f := newLifecycleFixture(time.Hour)
	rec := NewReconciler(f.lifecycle, 0)
	ctx := context.Background()

	approved, err := f.lifecycle.SubmitRequest(ctx, "U1", "Alice", "post_idea", "", "")
	require.NoError(t, err)
	declined, err := f.lifecycle.SubmitRequest(ctx, "U2", "Bob", "comment", "", "")
	require.NoError(t, err)

	f.store.setStatus(approved.ID, model.StatusApproved, nil)
	f.store.setStatus(declined.ID, model.StatusDeclined, nil)

	out, err := rec.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Approved.Processed)
	assert.Equal(t, int64(3), out.Approved.CoinsGranted)
	assert.Equal(t, 1, out.Declined.Processed)
}

func TestReconcilerRejectsConcurrentRuns(t *testing.T) {
	f := newLifecycleFixture(time.Hour)
	rec := NewReconciler(f.lifecycle, 0)

	rec.mu.Lock()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := rec.Run(context.Background())
		assert.ErrorIs(t, err, ErrReconcileBusy)
	}()
	wg.Wait()
	rec.mu.Unlock()

	_, err := rec.Run(context.Background())
	assert.NoError(t, err, "runs again once the previous pass released the lock")
}
