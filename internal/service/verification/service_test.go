package verification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spark-dating/spark-core/internal/db"
	"github.com/spark-dating/spark-core/internal/domain"
	"github.com/spark-dating/spark-core/internal/repository"
	"github.com/spark-dating/spark-core/internal/testutil"
)

// captureSender records issued codes instead of delivering them.
type captureSender struct {
	mu    sync.Mutex
	codes map[string]string
}

func (s *captureSender) SendCode(_ context.Context, email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codes == nil {
		s.codes = map[string]string{}
	}
	s.codes[email] = code
	return nil
}

func (s *captureSender) last(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[email]
}

func TestCodeRoundTrip(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	sender := &captureSender{}
	svc := NewService(appCtx, sender)
	ctx := context.Background()

	require.NoError(t, svc.SendCode(ctx, "User@Example.com"))
	code := sender.last("user@example.com")
	require.Len(t, code, 6)

	ok, err := svc.VerifyCode(ctx, "user@example.com", code)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyCode_SingleUse(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	sender := &captureSender{}
	svc := NewService(appCtx, sender)
	ctx := context.Background()

	require.NoError(t, svc.SendCode(ctx, "once@example.com"))
	code := sender.last("once@example.com")

	ok, err := svc.VerifyCode(ctx, "once@example.com", code)
	require.NoError(t, err)
	require.True(t, ok)

	// The match consumed the code.
	ok, err = svc.VerifyCode(ctx, "once@example.com", code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyCode_WrongCode(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	sender := &captureSender{}
	svc := NewService(appCtx, sender)
	ctx := context.Background()

	require.NoError(t, svc.SendCode(ctx, "pick@example.com"))

	ok, err := svc.VerifyCode(ctx, "pick@example.com", "000000x")
	require.NoError(t, err)
	assert.False(t, ok)

	// A failed guess does not consume the real code.
	ok, err = svc.VerifyCode(ctx, "pick@example.com", sender.last("pick@example.com"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyCode_Expires(t *testing.T) {
	appCtx, mr := testutil.NewAppContext(t)
	sender := &captureSender{}
	svc := NewService(appCtx, sender)
	ctx := context.Background()

	require.NoError(t, svc.SendCode(ctx, "slow@example.com"))
	code := sender.last("slow@example.com")

	mr.FastForward(appCtx.Config.Verification.CodeTTL + time.Second)

	ok, err := svc.VerifyCode(ctx, "slow@example.com", code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSendCode_ResendReplaces(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	sender := &captureSender{}
	svc := NewService(appCtx, sender)
	ctx := context.Background()

	require.NoError(t, svc.SendCode(ctx, "again@example.com"))
	first := sender.last("again@example.com")

	require.NoError(t, svc.SendCode(ctx, "again@example.com"))
	second := sender.last("again@example.com")

	if first != second {
		ok, err := svc.VerifyCode(ctx, "again@example.com", first)
		require.NoError(t, err)
		assert.False(t, ok, "stale code must not verify")
	}

	ok, err := svc.VerifyCode(ctx, "again@example.com", second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPhotoVerificationReview(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	svc := NewService(appCtx, &captureSender{})
	ctx := context.Background()

	admin := testutil.CreateProfile(t, appCtx, db.Profile{IsAdmin: true})
	user := testutil.CreateProfile(t, appCtx, db.Profile{})
	profiles := repository.NewProfileRepository(appCtx.DB)

	require.NoError(t, svc.SubmitPhoto(ctx, user.ID, "https://cdn.example.com/selfie.jpg"))
	stored, err := profiles.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, db.VerificationPending, stored.VerificationStatus)

	err = svc.Approve(ctx, user.ID, user.ID)
	assert.ErrorIs(t, err, domain.ErrAdminRequired)

	require.NoError(t, svc.Approve(ctx, admin.ID, user.ID))
	stored, err = profiles.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, db.VerificationVerified, stored.VerificationStatus)
}

func TestPhotoVerificationReject(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	svc := NewService(appCtx, &captureSender{})
	ctx := context.Background()

	admin := testutil.CreateProfile(t, appCtx, db.Profile{IsAdmin: true})
	user := testutil.CreateProfile(t, appCtx, db.Profile{})

	require.NoError(t, svc.SubmitPhoto(ctx, user.ID, "https://cdn.example.com/selfie.jpg"))
	require.NoError(t, svc.Reject(ctx, admin.ID, user.ID))

	stored, err := repository.NewProfileRepository(appCtx.DB).Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, db.VerificationRejected, stored.VerificationStatus)
}
