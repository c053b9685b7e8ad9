package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"license-key-server/internal/config"
	"license-key-server/internal/logger"
	"license-key-server/internal/model"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DB is the storage handle shared by the repositories in this package.
// It is passed explicitly to services; there is no package-level connection.
type DB struct {
	*gorm.DB
}

// New wraps an already opened gorm connection.
func New(db *gorm.DB) *DB {
	return &DB{db}
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.NewGormLogger(logger.DefaultGormLoggerConfig()),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
}

// Open connects to the configured driver.
func Open(cfg config.DatabaseConfig) (*DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.DSN); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("os.MkdirAll: %w", err)
			}
		}
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormConfig())
	if err != nil {
		return nil, fmt.Errorf("gorm.Open: %w", err)
	}

	rawDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		rawDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		rawDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.Driver == config.DriverSQLite {
		// SQLite allows a single writer; one connection avoids SQLITE_BUSY under load.
		rawDB.SetMaxOpenConns(1)
	}

	return &DB{db}, nil
}

// AddDatabaseTables migrates every table the server owns.
func (db *DB) AddDatabaseTables() error {
	models := []any{
		&model.ActiveSystem{},
		&model.License{},
		&model.LicenseUsageLog{},
		&model.User{},
		&model.LoginLog{},
		&model.OperationLog{},
	}

	if err := db.addIPLimitColumn(); err != nil {
		return err
	}

	for _, m := range models {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("db.AutoMigrate: %w", err)
		}
	}
	return nil
}

// addIPLimitColumn adds ip_limit to a license table created before quotas
// existed, giving those rows the default limit. The model carries no GORM
// default so that an explicit limit of 0 is stored as 0.
func (db *DB) addIPLimitColumn() error {
	m := db.Migrator()
	if !m.HasTable(&model.License{}) || m.HasColumn(&model.License{}, "IPLimit") {
		return nil
	}

	stmt := fmt.Sprintf("ALTER TABLE license_key ADD COLUMN ip_limit integer NOT NULL DEFAULT %d", config.DefaultIPLimit)
	if err := db.Exec(stmt).Error; err != nil {
		return fmt.Errorf("add ip_limit column: %w", err)
	}
	logger.FromContext(context.Background()).Info("added ip_limit column to existing licenses",
		zap.Int("default_ip_limit", config.DefaultIPLimit))
	return nil
}

// EnsureAdmin creates the bootstrap administrator when no user with that name
// exists. An empty password disables bootstrapping.
func (db *DB) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	_, err := db.FindUserByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("bcrypt.GenerateFromPassword: %w", err)
	}

	admin := &model.User{
		Username: username,
		Password: string(hashedPassword),
		Role:     model.RoleAdmin,
		Status:   model.StatusActive,
	}
	if err := db.CreateUser(ctx, admin); err != nil {
		return err
	}

	logger.FromContext(ctx).Info("created bootstrap administrator", zap.String("username", username))
	return nil
}

// Transaction runs fn against a transaction-scoped handle.
func (db *DB) Transaction(ctx context.Context, fn func(tx *DB) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&DB{tx})
	})
}

func (db *DB) isPostgres() bool {
	return db.Dialector.Name() == "postgres"
}

func (db *DB) Close() error {
	rawDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("db.DB.DB: %w", err)
	}

	if err := rawDB.Close(); err != nil {
		return fmt.Errorf("rawDB.Close: %w", err)
	}
	return nil
}

func (db *DB) Ping(ctx context.Context) error {
	rawDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("db.DB.DB: %w", err)
	}

	if err := rawDB.PingContext(ctx); err != nil {
		return fmt.Errorf("rawDB.Ping: %w", err)
	}
	return nil
}
