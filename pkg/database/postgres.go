package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shopfloor/product-catalog/pkg/logger"
)

// Config holds database configuration
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN builds the connection string
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// WaitForReady opens a plain database/sql connection and pings it until the
// database answers or the retries run out.
func WaitForReady(cfg Config, retries int, delay time.Duration) error {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	for attempt := 1; attempt <= retries; attempt++ {
		if err = db.Ping(); err == nil {
			logger.Logger.Info().
				Str("host", cfg.Host).
				Str("database", cfg.DBName).
				Msg("Database is ready")
			return nil
		}

		logger.Logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("retries", retries).
			Msg("Database not ready")

		if attempt < retries {
			time.Sleep(delay)
		}
	}

	return fmt.Errorf("database not reachable after %d attempts: %w", retries, err)
}

// Connect waits for the database and opens a GORM connection with a
// configured connection pool.
func Connect(cfg Config, retries int, delay time.Duration) (*gorm.DB, error) {
	if err := WaitForReady(cfg, retries, delay); err != nil {
		return nil, err
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}
