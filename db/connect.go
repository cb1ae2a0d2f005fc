package db

import (
	"fmt"
	"strings"

	"recorder-server/confs"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DSN builds the PostgreSQL connection string from cfg. DB_URL wins over
// the individual parameters.
func DSN(cfg *confs.Config) (string, error) {
	if cfg.DBURL != "" {
		dsn := cfg.DBURL
		if !strings.Contains(dsn, "sslmode=") {
			if strings.Contains(dsn, "?") {
				dsn += "&sslmode=require"
			} else {
				dsn += "?sslmode=require"
			}
		}
		return dsn, nil
	}

	if cfg.DBHost == "" || cfg.DBPort == "" || cfg.DBUser == "" || cfg.DBPassword == "" || cfg.DBName == "" {
		return "", fmt.Errorf("missing required database configuration: DB_URL or (DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME)")
	}

	sslMode := "require"
	if cfg.DBHost == "localhost" || cfg.DBHost == "127.0.0.1" {
		sslMode = "disable"
	}

	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, sslMode), nil
}

// Connect opens the connection pool. The schema, including every stored
// procedure, is owned by the database; nothing is migrated from here.
func Connect(cfg *confs.Config, logger *zap.SugaredLogger) (Database, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	logger.Infow("connecting to database", "maxConns", cfg.DBMaxConns)
	return Open(postgres.Open(dsn), cfg.DBMaxConns, logger)
}

// Open wraps an arbitrary dialector in a bounded pool.
func Open(dialector gorm.Dialector, maxConns int, logger *zap.SugaredLogger) (Database, error) {
	if maxConns <= 0 {
		maxConns = confs.DefaultMaxConns
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxConns)
	sqlDB.SetMaxIdleConns(maxConns)
	sqlDB.SetConnMaxLifetime(0)

	logger.Infow("database connection pool ready", "maxOpenConns", maxConns)
	return &GormDatabase{DB: gdb}, nil
}
