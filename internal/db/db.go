package db

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/spark-dating/spark-core/internal/config"
)

// NewDB initializes the database connection using DSN from config.
//
// TranslateError is on so unique-constraint violations surface as
// gorm.ErrDuplicatedKey across dialects; repeat likes, concurrent match
// creation and repeat promo redemptions all rely on that signal.
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DB.DSN), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate ensures the schema is in sync with the models.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&Profile{},
		&Like{},
		&Match{},
		&Message{},
		&Promocode{},
		&PromocodeRedemption{},
		&VIPPayment{},
		&CurrencyPayment{},
		&BoostHistory{},
		&ProfileView{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
