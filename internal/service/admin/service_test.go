package admin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spark-dating/spark-core/internal/app"
	"github.com/spark-dating/spark-core/internal/db"
	"github.com/spark-dating/spark-core/internal/domain"
	"github.com/spark-dating/spark-core/internal/repository"
	"github.com/spark-dating/spark-core/internal/testutil"
)

func TestBanUnban(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	svc := NewService(appCtx)
	ctx := context.Background()

	admin := testutil.CreateProfile(t, appCtx, db.Profile{IsAdmin: true})
	user := testutil.CreateProfile(t, appCtx, db.Profile{})
	profiles := repository.NewProfileRepository(appCtx.DB)

	require.NoError(t, svc.Ban(ctx, admin.ID, user.ID))
	stored, err := profiles.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsBanned)

	// Re-banning is a no-op, not an error.
	require.NoError(t, svc.Ban(ctx, admin.ID, user.ID))

	require.NoError(t, svc.Unban(ctx, admin.ID, user.ID))
	stored, err = profiles.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsBanned)
}

func TestBan_RequiresAdmin(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	svc := NewService(appCtx)
	ctx := context.Background()

	a := testutil.CreateProfile(t, appCtx, db.Profile{})
	b := testutil.CreateProfile(t, appCtx, db.Profile{})

	err := svc.Ban(ctx, a.ID, b.ID)
	assert.ErrorIs(t, err, domain.ErrAdminRequired)
}

func TestSetPinnedPosition(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	svc := NewService(appCtx)
	ctx := context.Background()

	admin := testutil.CreateProfile(t, appCtx, db.Profile{IsAdmin: true})
	user := testutil.CreateProfile(t, appCtx, db.Profile{})
	profiles := repository.NewProfileRepository(appCtx.DB)

	pos := 3
	require.NoError(t, svc.SetPinnedPosition(ctx, admin.ID, user.ID, &pos))
	stored, err := profiles.Get(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PinnedPosition)
	assert.Equal(t, 3, *stored.PinnedPosition)

	require.NoError(t, svc.SetPinnedPosition(ctx, admin.ID, user.ID, nil))
	stored, err = profiles.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.PinnedPosition)
}

func TestSetPinnedPosition_Bounds(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	svc := NewService(appCtx)
	ctx := context.Background()

	admin := testutil.CreateProfile(t, appCtx, db.Profile{IsAdmin: true})
	user := testutil.CreateProfile(t, appCtx, db.Profile{})

	for _, bad := range []int{0, 11, -1} {
		pos := bad
		err := svc.SetPinnedPosition(ctx, admin.ID, user.ID, &pos)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument, "position %d", bad)
	}
}

func TestListUsers(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	svc := NewService(appCtx)
	ctx := context.Background()

	admin := testutil.CreateProfile(t, appCtx, db.Profile{IsAdmin: true, Name: "moderator"})
	testutil.CreateProfile(t, appCtx, db.Profile{Name: "alice"})
	testutil.CreateProfile(t, appCtx, db.Profile{Name: "alicia"})
	testutil.CreateProfile(t, appCtx, db.Profile{Name: "bob"})

	users, total, err := svc.ListUsers(ctx, admin.ID, 0, 10, "")
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, users, 4)

	users, total, err = svc.ListUsers(ctx, admin.ID, 0, 10, "alic")
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, users, 2)

	_, _, err = svc.ListUsers(ctx, "", 0, 10, "")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func seedOrders(t *testing.T, appCtx *app.AppContext, userID string) {
	t.Helper()
	vipOrder := db.VIPPayment{
		OrderID:       "vip-order",
		UserID:        userID,
		PackageType:   "vip_month",
		VIPDays:       30,
		Price:         500,
		PaymentStatus: db.PaymentFinished,
		CreatedAt:     time.Now().Add(-2 * time.Hour),
	}
	require.NoError(t, appCtx.DB.Create(&vipOrder).Error)
	currencyOrder := db.CurrencyPayment{
		OrderID:       "currency-order",
		UserID:        userID,
		PackageType:   "stars_100",
		Stars:         100,
		Price:         300,
		PaymentStatus: db.PaymentPending,
		CreatedAt:     time.Now().Add(-time.Hour),
	}
	require.NoError(t, appCtx.DB.Create(&currencyOrder).Error)
}

func TestListTransactions_MergedNewestFirst(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	svc := NewService(appCtx)
	ctx := context.Background()

	admin := testutil.CreateProfile(t, appCtx, db.Profile{IsAdmin: true})
	user := testutil.CreateProfile(t, appCtx, db.Profile{})
	seedOrders(t, appCtx, user.ID)

	txs, err := svc.ListTransactions(ctx, admin.ID, TransactionAll, 20)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "currency-order", txs[0].OrderID)
	assert.Equal(t, TransactionCurrency, txs[0].Kind)
	assert.Equal(t, "vip-order", txs[1].OrderID)
	assert.Equal(t, TransactionVIP, txs[1].Kind)
}

func TestListTransactions_KindFilter(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	svc := NewService(appCtx)
	ctx := context.Background()

	admin := testutil.CreateProfile(t, appCtx, db.Profile{IsAdmin: true})
	user := testutil.CreateProfile(t, appCtx, db.Profile{})
	seedOrders(t, appCtx, user.ID)

	txs, err := svc.ListTransactions(ctx, admin.ID, TransactionVIP, 20)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "vip-order", txs[0].OrderID)

	txs, err = svc.ListTransactions(ctx, admin.ID, TransactionCurrency, 20)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "currency-order", txs[0].OrderID)

	_, err = svc.ListTransactions(ctx, admin.ID, "refunds", 20)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestListTransactions_RequiresAdmin(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	svc := NewService(appCtx)

	user := testutil.CreateProfile(t, appCtx, db.Profile{})

	_, err := svc.ListTransactions(context.Background(), user.ID, TransactionAll, 20)
	assert.ErrorIs(t, err, domain.ErrAdminRequired)
}
