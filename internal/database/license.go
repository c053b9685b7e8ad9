package database

import (
	"context"
	"fmt"

	"license-key-server/internal/model"

	"gorm.io/gorm/clause"
)

// CreateLicense inserts a new license. A duplicate key surfaces as ErrConflict.
func (db *DB) CreateLicense(ctx context.Context, license *model.License) error {
	if err := db.WithContext(ctx).Omit(clause.Associations).Create(license).Error; err != nil {
		return fmt.Errorf("create license: %w", translate(err))
	}
	return nil
}

// FindLicense looks a license up by key. On PostgreSQL inside a transaction
// the row is locked until commit.
func (db *DB) FindLicense(ctx context.Context, key string) (*model.License, error) {
	q := db.WithContext(ctx).Preload("ActiveSystem").Where("license_key = ?", key)
	if db.isPostgres() {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var license model.License
	if err := q.First(&license).Error; err != nil {
		return nil, fmt.Errorf("find license: %w", translate(err))
	}
	return &license, nil
}

func (db *DB) ListLicenses(ctx context.Context) ([]model.License, error) {
	var licenses []model.License
	if err := db.WithContext(ctx).Preload("ActiveSystem").Order("id").Find(&licenses).Error; err != nil {
		return nil, fmt.Errorf("list licenses: %w", err)
	}
	return licenses, nil
}

// DeleteLicense purges a license. Its usage log rows are kept.
func (db *DB) DeleteLicense(ctx context.Context, key string) error {
	result := db.WithContext(ctx).Where("license_key = ?", key).Delete(&model.License{})
	if result.Error != nil {
		return fmt.Errorf("delete license: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("delete license: %w", ErrNotFound)
	}
	return nil
}

func (db *DB) CountLicenses(ctx context.Context) (int64, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&model.License{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count licenses: %w", err)
	}
	return count, nil
}

// CountLicensesAtQuota counts licenses whose seen-IP set has reached ip_limit.
func (db *DB) CountLicensesAtQuota(ctx context.Context) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM license_key l
		WHERE (
			SELECT COUNT(DISTINCT u.ip_address) FROM license_usage_log u
			WHERE u.license_key = l.license_key AND u.ip_address IS NOT NULL AND u.details <> ?
		) >= l.ip_limit`, model.UsageQuotaExceeded).Scan(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count licenses at quota: %w", err)
	}
	return count, nil
}
