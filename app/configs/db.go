package configs

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	sqlmysql "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	maxConnectRetries = 10
	connectRetryDelay = 5 * time.Second
)

// OpenConnection opens the SQL database backing the cart storage. MySQL
// connections are retried because the database container may still be
// starting.
func OpenConnection(env ENV, logger *zap.Logger) (*gorm.DB, error) {
	gormConfig := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}

	switch env.StorageDriver {
	case "sqlite":
		if err := os.MkdirAll(env.StoragePath, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage dir %s: %w", env.StoragePath, err)
		}
		dsn := filepath.Join(env.StoragePath, "storefront.db")
		db, err := gorm.Open(sqlite.Open(dsn), gormConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database %s: %w", dsn, err)
		}
		logger.Info("Database connection successful", zap.String("driver", "sqlite"), zap.String("path", dsn))
		return db, nil
	case "mysql":
		return openMySQL(env, gormConfig, logger)
	default:
		return nil, fmt.Errorf("storage driver %q has no database", env.StorageDriver)
	}
}

func openMySQL(env ENV, gormConfig *gorm.Config, logger *zap.Logger) (*gorm.DB, error) {
	cfg := sqlmysql.NewConfig()
	cfg.User = env.DBUser
	cfg.Passwd = env.DBPassword
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(env.DBHost, env.DBPort)
	cfg.DBName = env.DBName
	cfg.ParseTime = true
	cfg.Loc = time.Local
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	dsn := cfg.FormatDSN()

	var lastErr error
	for i := 0; i < maxConnectRetries; i++ {
		logger.Info("Attempting to connect to database",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", maxConnectRetries),
			zap.String("host", env.DBHost),
			zap.String("db", env.DBName))

		db, err := gorm.Open(mysql.Open(dsn), gormConfig)
		if err == nil {
			sqlDB, pingErr := db.DB()
			if pingErr == nil {
				pingErr = sqlDB.Ping()
				if pingErr == nil {
					logger.Info("Database connection successful", zap.String("driver", "mysql"))
					return db, nil
				}
			}
			lastErr = pingErr
			logger.Warn("Failed to ping database", zap.Error(pingErr), zap.Duration("retry_in", connectRetryDelay))
		} else {
			lastErr = err
			logger.Warn("Failed to open GORM connection", zap.Error(err), zap.Duration("retry_in", connectRetryDelay))
		}

		time.Sleep(connectRetryDelay)
	}

	return nil, fmt.Errorf("failed to connect to the database after %d retries: %w", maxConnectRetries, lastErr)
}
