package db

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"sitepulse/internal/auth"
	"sitepulse/internal/config"
	"sitepulse/internal/logging"
)

// Connect opens a GORM database connection using APP_DATABASE_URL (PostgreSQL URL),
// retrying while the database comes up.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := strings.TrimSpace(cfg.DatabaseURL)
	if dsn == "" {
		return nil, errors.New("APP_DATABASE_URL is required (PostgreSQL URL)")
	}
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return nil, errors.New("APP_DATABASE_URL must be a postgres:// or postgresql:// URL")
	}

	attempts := cfg.DBConnectAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		db, err := Open(postgres.Open(dsn))
		if err == nil {
			sqlDB, err := db.DB()
			if err != nil {
				return nil, err
			}
			sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
			sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
			return db, nil
		}
		lastErr = err
		logging.Warn().Err(err).Int("attempt", i).Int("of", attempts).Msg("database not ready")
		if i < attempts {
			time.Sleep(2 * time.Second)
		}
	}
	return nil, fmt.Errorf("db connect failed after %d attempts: %w", attempts, lastErr)
}

// Open connects through dialector and migrates the schema. Timestamps are
// always written in UTC so window comparisons are stable across drivers.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	// PrepareStmt: true prevents the GORM postgres migrator from forcing simple protocol
	// for "SELECT * FROM table LIMIT 1", which would otherwise trigger "insufficient arguments".
	db, err := gorm.Open(dialector, &gorm.Config{
		PrepareStmt: true,
		NowFunc:     func() time.Time { return time.Now().UTC() },
		Logger:      logging.NewGormLogger(500 * time.Millisecond),
	})
	if err != nil {
		return nil, err
	}

	// Order matters: each table references the one before it.
	if err := db.AutoMigrate(&User{}, &Project{}, &Site{}, &SiteAnalyticsHistory{}); err != nil {
		return nil, err
	}

	return db, nil
}

// EnsureBootstrapAdmin makes sure there is an admin account for the
// bootstrap credentials in config. An existing user with that email is
// left as-is.
func EnsureBootstrapAdmin(db *gorm.DB, cfg *config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	var count int64
	if err := db.Model(&User{}).Where("email = ?", cfg.AdminEmail).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	admin := &User{
		Email:        cfg.AdminEmail,
		Name:         "admin",
		PasswordHash: hash,
		Role:         auth.RoleAdmin,
	}

	return db.Create(admin).Error
}
