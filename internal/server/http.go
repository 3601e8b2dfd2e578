package server

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spark-dating/spark-core/internal/app"
	"github.com/spark-dating/spark-core/internal/db"
	"github.com/spark-dating/spark-core/internal/domain"
	"github.com/spark-dating/spark-core/internal/repository"
	"github.com/spark-dating/spark-core/internal/service/vip"
)

const signatureHeader = "X-Payment-Signature"

// Server is the HTTP surface: health, metrics and the payment gateway
// webhook.
type Server struct {
	appCtx   *app.AppContext
	vip      *vip.Service
	payments *repository.PaymentRepository
	httpSrv  *http.Server
}

// NewServer builds the HTTP server from config.
func NewServer(appCtx *app.AppContext, vipSvc *vip.Service) *Server {
	s := &Server{
		appCtx:   appCtx,
		vip:      vipSvc,
		payments: repository.NewPaymentRepository(appCtx.DB),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /webhooks/payments", s.handlePaymentWebhook)

	s.httpSrv = &http.Server{
		Addr:              net.JoinHostPort(appCtx.Config.HTTP.Host, appCtx.Config.HTTP.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.appCtx.Logger.Info("http server listening", "addr", s.httpSrv.Addr)
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	sqlDB, err := s.appCtx.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		s.appCtx.Metrics.Errors.WithLabelValues("db").Inc()
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "db": err.Error()})
		return
	}
	if err := s.appCtx.RedisCache.Ping(ctx); err != nil {
		s.appCtx.Metrics.Errors.WithLabelValues("redis").Inc()
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "redis": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// paymentWebhook is the gateway's callback body.
type paymentWebhook struct {
	OrderID          string `json:"order_id"`
	Kind             string `json:"kind"`
	Status           string `json:"status"`
	GatewayPaymentID string `json:"payment_id"`
}

// handlePaymentWebhook verifies the gateway signature and applies the state
// change. The gateway retries on non-2xx, so replays are expected; the
// claim-first activation makes them harmless.
func (s *Server) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	if !s.verifySignature(body, r.Header.Get(signatureHeader)) {
		s.appCtx.Logger.Warn("webhook signature rejected", "remote", r.RemoteAddr)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var hook paymentWebhook
	if err := json.Unmarshal(body, &hook); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	if hook.OrderID == "" {
		http.Error(w, "missing order_id", http.StatusBadRequest)
		return
	}

	if err := s.applyWebhook(r.Context(), hook); err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) || errors.Is(err, domain.ErrInvalidArgument) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.appCtx.Metrics.Errors.WithLabelValues("webhook").Inc()
		s.appCtx.Logger.Error("webhook processing failed", "order", hook.OrderID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) applyWebhook(ctx context.Context, hook paymentWebhook) error {
	switch hook.Status {
	case db.PaymentFinished:
		switch hook.Kind {
		case "vip":
			_, err := s.vip.ActivateVIPPayment(ctx, hook.OrderID, hook.GatewayPaymentID)
			return err
		case "currency":
			_, err := s.vip.ActivateCurrencyPayment(ctx, hook.OrderID, hook.GatewayPaymentID)
			return err
		default:
			return fmt.Errorf("%w: unknown payment kind %q", domain.ErrInvalidArgument, hook.Kind)
		}
	case db.PaymentFailed:
		switch hook.Kind {
		case "vip":
			return s.payments.MarkVIPStatus(ctx, hook.OrderID, db.PaymentFailed)
		case "currency":
			return s.payments.MarkCurrencyStatus(ctx, hook.OrderID, db.PaymentFailed)
		default:
			return fmt.Errorf("%w: unknown payment kind %q", domain.ErrInvalidArgument, hook.Kind)
		}
	default:
		return fmt.Errorf("%w: unknown payment status %q", domain.ErrInvalidArgument, hook.Status)
	}
}

func (s *Server) verifySignature(body []byte, got string) bool {
	secret := s.appCtx.Config.Payments.WebhookSecret
	if secret == "" || got == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	want := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(want), []byte(got))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
