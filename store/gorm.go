package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MySQLConfig contains MySQL connection configuration
type MySQLConfig struct {
	User            string
	Password        string
	Host            string
	Port            string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN renders the go-sql-driver data source name
func (c MySQLConfig) DSN() string {
	// "user:pass@tcp(127.0.0.1:3306)/dbname?charset=utf8mb4&parseTime=True&loc=UTC"
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
	)
}

// GormStore is a relational store backed by GORM. The unique index on
// provider_id is the uniqueness constraint.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens a MySQL connection and migrates the transactions table
func NewGormStore(config MySQLConfig) (*GormStore, error) {
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       config.DSN(),
		DefaultStringSize:         256,
		SkipInitializeWithVersion: false,
	}), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if config.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	}
	if config.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	return NewGormStoreFromDB(db)
}

// NewGormStoreFromDB wraps an existing GORM handle. The handle must be
// opened with TranslateError so duplicate keys surface as gorm.ErrDuplicatedKey.
func NewGormStoreFromDB(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&Transaction{}); err != nil {
		return nil, fmt.Errorf("failed to migrate transactions table: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Exists checks if a transaction has been stored
func (s *GormStore) Exists(ctx context.Context, providerID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&Transaction{}).
		Where("provider_id = ?", providerID).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to query transaction: %w", err)
	}
	return count > 0, nil
}

// Create inserts a transaction row
func (s *GormStore) Create(ctx context.Context, tx *Transaction) error {
	if err := s.db.WithContext(ctx).Create(tx).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
