package boost

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spark-dating/spark-core/internal/db"
	"github.com/spark-dating/spark-core/internal/domain"
	"github.com/spark-dating/spark-core/internal/service/ledger"
	"github.com/spark-dating/spark-core/internal/testutil"
)

func TestBoost_FreshWindow(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	svc := NewService(appCtx)
	ctx := context.Background()

	booster := testutil.CreateProfile(t, appCtx, db.Profile{Boosts: 2})
	target := testutil.CreateProfile(t, appCtx, db.Profile{})

	before := time.Now()
	res, err := svc.Boost(ctx, booster.ID, target.ID)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.WithinDuration(t, before.Add(appCtx.Config.Boost.Increment), res.ExpiresAt, 5*time.Second)

	balance, err := ledger.NewService(appCtx).GetBalance(ctx, booster.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), balance.Boosts)
}

func TestBoost_StacksOnOpenWindow(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	svc := NewService(appCtx)
	ctx := context.Background()

	booster := testutil.CreateProfile(t, appCtx, db.Profile{Boosts: 3})
	windowEnd := time.Now().Add(4 * time.Minute).Truncate(time.Second)
	target := testutil.CreateProfile(t, appCtx, db.Profile{BoostExpiresAt: &windowEnd})

	res, err := svc.Boost(ctx, booster.ID, target.ID)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.WithinDuration(t, windowEnd.Add(appCtx.Config.Boost.Increment), res.ExpiresAt, time.Second)
}

func TestBoost_ClosedWindowStartsFromNow(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	svc := NewService(appCtx)
	ctx := context.Background()

	booster := testutil.CreateProfile(t, appCtx, db.Profile{Boosts: 1})
	stale := time.Now().Add(-time.Hour)
	target := testutil.CreateProfile(t, appCtx, db.Profile{BoostExpiresAt: &stale})

	before := time.Now()
	res, err := svc.Boost(ctx, booster.ID, target.ID)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.WithinDuration(t, before.Add(appCtx.Config.Boost.Increment), res.ExpiresAt, 5*time.Second)
}

func TestBoost_InsufficientBalance(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	svc := NewService(appCtx)
	ctx := context.Background()

	booster := testutil.CreateProfile(t, appCtx, db.Profile{Boosts: 0})
	target := testutil.CreateProfile(t, appCtx, db.Profile{})

	res, err := svc.Boost(ctx, booster.ID, target.ID)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, ledger.ReasonInsufficient, res.Reason)

	// A failed deduction leaves the target's window untouched.
	status, err := svc.GetStatus(ctx, target.ID)
	require.NoError(t, err)
	assert.False(t, status.Active)
	assert.Nil(t, status.ExpiresAt)
}

func TestBoost_Self(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	svc := NewService(appCtx)

	user := testutil.CreateProfile(t, appCtx, db.Profile{Boosts: 5})

	_, err := svc.Boost(context.Background(), user.ID, user.ID)
	assert.ErrorIs(t, err, domain.ErrSelfBoost)
}

func TestBoost_UnknownTarget(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	svc := NewService(appCtx)

	booster := testutil.CreateProfile(t, appCtx, db.Profile{Boosts: 1})

	_, err := svc.Boost(context.Background(), booster.ID, "no-such-user")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestBoost_WritesHistory(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	svc := NewService(appCtx)
	ctx := context.Background()

	admin := testutil.CreateProfile(t, appCtx, db.Profile{IsAdmin: true})
	booster := testutil.CreateProfile(t, appCtx, db.Profile{Boosts: 1})
	target := testutil.CreateProfile(t, appCtx, db.Profile{})

	_, err := svc.Boost(ctx, booster.ID, target.ID)
	require.NoError(t, err)

	history, err := svc.History(ctx, admin.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, booster.ID, history[0].BoosterID)
	assert.Equal(t, target.ID, history[0].BoostedID)

	_, err = svc.History(ctx, booster.ID, 10)
	assert.ErrorIs(t, err, domain.ErrAdminRequired)
}

func TestGetStatus(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	svc := NewService(appCtx)
	ctx := context.Background()

	open := time.Now().Add(5 * time.Minute)
	boosted := testutil.CreateProfile(t, appCtx, db.Profile{BoostExpiresAt: &open})
	plain := testutil.CreateProfile(t, appCtx, db.Profile{})

	status, err := svc.GetStatus(ctx, boosted.ID)
	require.NoError(t, err)
	assert.True(t, status.Active)

	status, err = svc.GetStatus(ctx, plain.ID)
	require.NoError(t, err)
	assert.False(t, status.Active)
}
