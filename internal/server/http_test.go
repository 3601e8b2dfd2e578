package server

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spark-dating/spark-core/internal/db"
	"github.com/spark-dating/spark-core/internal/repository"
	"github.com/spark-dating/spark-core/internal/service/vip"
	"github.com/spark-dating/spark-core/internal/testutil"
)

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(t *testing.T, ts *httptest.Server, body []byte, signature string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/webhooks/payments", bytes.NewReader(body))
	require.NoError(t, err)
	if signature != "" {
		req.Header.Set(signatureHeader, signature)
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthz(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	srv := NewServer(appCtx, vip.NewService(appCtx))
	ts := httptest.NewServer(srv.httpSrv.Handler)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPaymentWebhook_RejectsBadSignature(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	srv := NewServer(appCtx, vip.NewService(appCtx))
	ts := httptest.NewServer(srv.httpSrv.Handler)
	defer ts.Close()

	body := []byte(`{"order_id":"x","kind":"vip","status":"finished"}`)

	resp := postWebhook(t, ts, body, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = postWebhook(t, ts, body, "deadbeef")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPaymentWebhook_ActivatesVIP(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	vipSvc := vip.NewService(appCtx)
	srv := NewServer(appCtx, vipSvc)
	ts := httptest.NewServer(srv.httpSrv.Handler)
	defer ts.Close()

	ctx := context.Background()
	user := testutil.CreateProfile(t, appCtx, db.Profile{})
	payment, err := vipSvc.CreateVIPOrder(ctx, user.ID, "7days")
	require.NoError(t, err)

	body, err := json.Marshal(map[string]string{
		"order_id":   payment.OrderID,
		"kind":       "vip",
		"status":     db.PaymentFinished,
		"payment_id": "gw-777",
	})
	require.NoError(t, err)

	secret := appCtx.Config.Payments.WebhookSecret
	resp := postWebhook(t, ts, body, signBody(secret, body))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	stored, err := repository.NewProfileRepository(appCtx.DB).Get(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.HasVIP)

	// Replayed delivery still answers 200 and credits nothing further.
	resp = postWebhook(t, ts, body, signBody(secret, body))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	stored, err = repository.NewProfileRepository(appCtx.DB).Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, vip.Packages["7days"].BonusStars, stored.Stars)
}

func TestPaymentWebhook_MarksFailed(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	vipSvc := vip.NewService(appCtx)
	srv := NewServer(appCtx, vipSvc)
	ts := httptest.NewServer(srv.httpSrv.Handler)
	defer ts.Close()

	ctx := context.Background()
	user := testutil.CreateProfile(t, appCtx, db.Profile{})
	payment, err := vipSvc.CreateCurrencyOrder(ctx, user.ID, "boosts_5")
	require.NoError(t, err)

	body, err := json.Marshal(map[string]string{
		"order_id": payment.OrderID,
		"kind":     "currency",
		"status":   db.PaymentFailed,
	})
	require.NoError(t, err)

	resp := postWebhook(t, ts, body, signBody(appCtx.Config.Payments.WebhookSecret, body))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	stored, err := repository.NewPaymentRepository(appCtx.DB).GetCurrencyByOrderID(ctx, payment.OrderID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, db.PaymentFailed, stored.PaymentStatus)
	assert.Nil(t, stored.ActivatedAt)
}

func TestPaymentWebhook_BadPayload(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	srv := NewServer(appCtx, vip.NewService(appCtx))
	ts := httptest.NewServer(srv.httpSrv.Handler)
	defer ts.Close()

	secret := appCtx.Config.Payments.WebhookSecret

	body := []byte(`{"kind":"vip","status":"finished"}`)
	resp := postWebhook(t, ts, body, signBody(secret, body))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body = []byte(`{"order_id":"x","kind":"giftcards","status":"finished"}`)
	resp = postWebhook(t, ts, body, signBody(secret, body))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
