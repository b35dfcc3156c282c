package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/solucions-socials/platform/pkg/common/config"
	"github.com/solucions-socials/platform/pkg/common/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	db     *gorm.DB
	dbErr  error
	dbOnce sync.Once
)

// PostgresDSN builds the connection string of the hosted Postgres that backs
// invoices and sync runs. Sessions run in UTC so stored dates are not shifted.
func PostgresDSN(cfg *config.Config) string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		cfg.PostgresHost,
		cfg.PostgresUser,
		cfg.PostgresPassword,
		cfg.PostgresDB,
		cfg.PostgresPort,
		cfg.PostgresSSLMode,
	)
}

// GetPostgres returns the process wide connection, opening it on first use.
func GetPostgres() (*gorm.DB, error) {
	dbOnce.Do(func() {
		cfg := config.Load()
		db, dbErr = gorm.Open(postgres.Open(PostgresDSN(cfg)), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if dbErr != nil {
			logger.Log.WithError(dbErr).Error("Failed to connect to PostgreSQL")
			return
		}

		sqlDB, err := db.DB()
		if err != nil {
			dbErr = err
			return
		}
		sqlDB.SetMaxOpenConns(cfg.PostgresMaxConns)
		sqlDB.SetMaxIdleConns(cfg.PostgresMaxConns / 2)
		sqlDB.SetConnMaxLifetime(cfg.PostgresConnTTL)

		logger.Log.WithFields(map[string]interface{}{
			"host":      cfg.PostgresHost,
			"database":  cfg.PostgresDB,
			"max_conns": cfg.PostgresMaxConns,
		}).Info("Connected to PostgreSQL")
	})

	return db, dbErr
}

// PingPostgres reports whether the shared connection is usable.
func PingPostgres(ctx context.Context) error {
	conn, err := GetPostgres()
	if err != nil {
		return err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func ClosePostgres() error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
