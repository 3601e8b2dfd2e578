// Package testutil wires up the in-memory test environment: a throwaway
// sqlite database with the full schema and a miniredis instance, bundled
// into the same AppContext the services take in production.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/spark-dating/spark-core/internal/app"
	"github.com/spark-dating/spark-core/internal/cache"
	"github.com/spark-dating/spark-core/internal/config"
	"github.com/spark-dating/spark-core/internal/db"
	"github.com/spark-dating/spark-core/internal/logger"
	"github.com/spark-dating/spark-core/internal/metrics"
)

// NewAppContext builds an AppContext for tests. The sqlite database is
// memory-only and unique per call; miniredis is torn down with the test.
func NewAppContext(t *testing.T) (*app.AppContext, *miniredis.Miniredis) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	mr := miniredis.RunT(t)
	redisCache := &cache.RedisCache{
		Client: redis.NewClient(&redis.Options{Addr: mr.Addr()}),
	}

	cfg := &config.Config{}
	cfg.Boost.Increment = 10 * time.Minute
	cfg.Verification.CodeTTL = 10 * time.Minute
	cfg.Payments.WebhookSecret = "test-secret"

	return app.New(database, redisCache, logger.L(), metrics.Registry("test"), cfg), mr
}

// CreateProfile inserts a profile, filling in required fields unless the
// caller set them. Returns the stored row.
func CreateProfile(t *testing.T, appCtx *app.AppContext, p db.Profile) *db.Profile {
	t.Helper()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Email == "" {
		p.Email = fmt.Sprintf("%s@example.com", p.ID[:8])
	}
	if p.PasswordHash == "" {
		p.PasswordHash = "x"
	}
	if p.Name == "" {
		p.Name = "test user"
	}
	if p.PrivacyMessages == "" {
		p.PrivacyMessages = db.PrivacyMessagesAll
	}
	if p.VerificationStatus == "" {
		p.VerificationStatus = db.VerificationNotVerified
	}
	if err := appCtx.DB.Create(&p).Error; err != nil {
		t.Fatalf("create profile: %v", err)
	}
	return &p
}

// TimePtr returns a pointer to t.
func TimePtr(t time.Time) *time.Time { return &t }

// Int64Ptr returns a pointer to n.
func Int64Ptr(n int64) *int64 { return &n }
