package views

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spark-dating/spark-core/internal/db"
	"github.com/spark-dating/spark-core/internal/domain"
	"github.com/spark-dating/spark-core/internal/testutil"
)

func TestRecordView_Stored(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	svc := NewService(appCtx)
	ctx := context.Background()

	viewer := testutil.CreateProfile(t, appCtx, db.Profile{})
	viewed := testutil.CreateProfile(t, appCtx, db.Profile{})

	recorded, err := svc.RecordView(ctx, viewer.ID, viewed.ID)
	require.NoError(t, err)
	assert.True(t, recorded)

	var rows []db.ProfileView
	require.NoError(t, appCtx.DB.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, viewer.ID, rows[0].ViewerID)
	assert.Equal(t, viewed.ID, rows[0].ViewedID)
}

func TestRecordView_RepeatRefreshesNotDuplicates(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	svc := NewService(appCtx)
	ctx := context.Background()

	viewer := testutil.CreateProfile(t, appCtx, db.Profile{})
	viewed := testutil.CreateProfile(t, appCtx, db.Profile{})

	_, err := svc.RecordView(ctx, viewer.ID, viewed.ID)
	require.NoError(t, err)

	var first db.ProfileView
	require.NoError(t, appCtx.DB.First(&first).Error)
	stale := time.Now().Add(-time.Hour)
	require.NoError(t, appCtx.DB.Model(&db.ProfileView{}).
		Where("id = ?", first.ID).
		UpdateColumn("viewed_at", stale).Error)

	recorded, err := svc.RecordView(ctx, viewer.ID, viewed.ID)
	require.NoError(t, err)
	assert.True(t, recorded)

	var rows []db.ProfileView
	require.NoError(t, appCtx.DB.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.WithinDuration(t, time.Now(), rows[0].ViewedAt, 5*time.Second)
}

func TestRecordView_OwnProfileSkipped(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	svc := NewService(appCtx)
	ctx := context.Background()

	viewer := testutil.CreateProfile(t, appCtx, db.Profile{})

	recorded, err := svc.RecordView(ctx, viewer.ID, viewer.ID)
	require.NoError(t, err)
	assert.False(t, recorded)
}

func TestRecordView_InvisibleVIPLeavesNoTrace(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	svc := NewService(appCtx)
	ctx := context.Background()

	expiry := time.Now().Add(24 * time.Hour)
	ghost := testutil.CreateProfile(t, appCtx, db.Profile{
		HasVIP:                true,
		SubscriptionExpiresAt: &expiry,
		InvisibleMode:         true,
	})
	viewed := testutil.CreateProfile(t, appCtx, db.Profile{})

	recorded, err := svc.RecordView(ctx, ghost.ID, viewed.ID)
	require.NoError(t, err)
	assert.False(t, recorded)

	var count int64
	require.NoError(t, appCtx.DB.Model(&db.ProfileView{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRecordView_InvisibleWithoutVIPStillRecorded(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	svc := NewService(appCtx)
	ctx := context.Background()

	lapsed := time.Now().Add(-24 * time.Hour)
	viewer := testutil.CreateProfile(t, appCtx, db.Profile{
		HasVIP:                true,
		SubscriptionExpiresAt: &lapsed,
		InvisibleMode:         true,
	})
	viewed := testutil.CreateProfile(t, appCtx, db.Profile{})

	recorded, err := svc.RecordView(ctx, viewer.ID, viewed.ID)
	require.NoError(t, err)
	assert.True(t, recorded)
}

func TestRecordView_UnknownTarget(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	svc := NewService(appCtx)

	viewer := testutil.CreateProfile(t, appCtx, db.Profile{})

	_, err := svc.RecordView(context.Background(), viewer.ID, "missing")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestViewers_RequiresVIP(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	svc := NewService(appCtx)

	user := testutil.CreateProfile(t, appCtx, db.Profile{})

	_, err := svc.Viewers(context.Background(), user.ID)
	assert.ErrorIs(t, err, domain.ErrVIPRequired)
}

func TestViewers_NewestFirst(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	svc := NewService(appCtx)
	ctx := context.Background()

	expiry := time.Now().Add(24 * time.Hour)
	owner := testutil.CreateProfile(t, appCtx, db.Profile{HasVIP: true, SubscriptionExpiresAt: &expiry})
	first := testutil.CreateProfile(t, appCtx, db.Profile{Name: "first"})
	second := testutil.CreateProfile(t, appCtx, db.Profile{Name: "second"})

	_, err := svc.RecordView(ctx, first.ID, owner.ID)
	require.NoError(t, err)
	require.NoError(t, appCtx.DB.Model(&db.ProfileView{}).
		Where("viewer_id = ?", first.ID).
		UpdateColumn("viewed_at", time.Now().Add(-time.Hour)).Error)
	_, err = svc.RecordView(ctx, second.ID, owner.ID)
	require.NoError(t, err)

	entries, err := svc.Viewers(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].Profile.Name)
	assert.Equal(t, "first", entries[1].Profile.Name)
}

func TestViewed_ListsBrowsingHistory(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	svc := NewService(appCtx)
	ctx := context.Background()

	viewer := testutil.CreateProfile(t, appCtx, db.Profile{})
	a := testutil.CreateProfile(t, appCtx, db.Profile{Name: "a"})
	b := testutil.CreateProfile(t, appCtx, db.Profile{Name: "b"})

	_, err := svc.RecordView(ctx, viewer.ID, a.ID)
	require.NoError(t, err)
	_, err = svc.RecordView(ctx, viewer.ID, b.ID)
	require.NoError(t, err)

	entries, err := svc.Viewed(ctx, viewer.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	names := []string{entries[0].Profile.Name, entries[1].Profile.Name}
	assert.ElementsMatch(t, []string{"a", "b"}, names)
}

func TestStatus_HiddenBehindActiveVIP(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	svc := NewService(appCtx)

	expiry := time.Now().Add(24 * time.Hour)
	user := testutil.CreateProfile(t, appCtx, db.Profile{
		HasVIP:                true,
		SubscriptionExpiresAt: &expiry,
		HideOnlineStatus:      true,
		LastSeenAt:            time.Now(),
	})

	status, err := svc.Status(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, status.Hidden)
	assert.False(t, status.Online)
	assert.Nil(t, status.LastSeen)
}

func TestStatus_HideTogglePowerlessWithoutVIP(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	svc := NewService(appCtx)

	user := testutil.CreateProfile(t, appCtx, db.Profile{
		HideOnlineStatus: true,
		LastSeenAt:       time.Now(),
	})

	status, err := svc.Status(context.Background(), user.ID)
	require.NoError(t, err)
	assert.False(t, status.Hidden)
	assert.True(t, status.Online)
	require.NotNil(t, status.LastSeen)
}

func TestStatus_OnlineWindow(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	svc := NewService(appCtx)
	ctx := context.Background()

	online := testutil.CreateProfile(t, appCtx, db.Profile{LastSeenAt: time.Now().Add(-time.Minute)})
	offline := testutil.CreateProfile(t, appCtx, db.Profile{LastSeenAt: time.Now().Add(-time.Hour)})
	never := testutil.CreateProfile(t, appCtx, db.Profile{})

	status, err := svc.Status(ctx, online.ID)
	require.NoError(t, err)
	assert.True(t, status.Online)

	status, err = svc.Status(ctx, offline.ID)
	require.NoError(t, err)
	assert.False(t, status.Online)
	require.NotNil(t, status.LastSeen)

	status, err = svc.Status(ctx, never.ID)
	require.NoError(t, err)
	assert.False(t, status.Online)
	assert.Nil(t, status.LastSeen)
}

func TestHeartbeat_StampsLastSeen(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	svc := NewService(appCtx)
	ctx := context.Background()

	user := testutil.CreateProfile(t, appCtx, db.Profile{LastSeenAt: time.Now().Add(-time.Hour)})

	require.NoError(t, svc.Heartbeat(ctx, user.ID))

	status, err := svc.Status(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, status.Online)
	require.NotNil(t, status.LastSeen)
	assert.WithinDuration(t, time.Now(), *status.LastSeen, 5*time.Second)
}
