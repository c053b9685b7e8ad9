package database

import (
	"context"
	"fmt"

	"license-key-server/internal/model"

	"gorm.io/gorm"
)

// RecordUsage appends a check-in entry. It only fails on storage faults.
func (db *DB) RecordUsage(ctx context.Context, entry *model.LicenseUsageLog) error {
	if entry.UsedAt.IsZero() {
		entry.UsedAt = db.NowFunc()
	}
	if err := db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	return nil
}

// DistinctIPs returns the seen-IP set of key: every source address logged
// for it except those of quota rejections.
func (db *DB) DistinctIPs(ctx context.Context, key string) ([]string, error) {
	var ips []string
	err := db.WithContext(ctx).
		Model(&model.LicenseUsageLog{}).
		Distinct("ip_address").
		Where("license_key = ? AND ip_address IS NOT NULL AND details <> ?", key, model.UsageQuotaExceeded).
		Order("ip_address").
		Pluck("ip_address", &ips).Error
	if err != nil {
		return nil, fmt.Errorf("distinct ips: %w", err)
	}
	return ips, nil
}

// ListUsage pages through the log rows of key, newest first.
func (db *DB) ListUsage(ctx context.Context, key string, page, pageSize int) ([]model.LicenseUsageLog, int64, error) {
	var logs []model.LicenseUsageLog
	var total int64

	q := db.WithContext(ctx).Model(&model.LicenseUsageLog{}).Where("license_key = ?", key).Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count usage: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := q.Order("used_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("list usage: %w", err)
	}
	return logs, total, nil
}

// CountUsageByDetails groups all log rows by outcome detail.
func (db *DB) CountUsageByDetails(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Details string
		Count   int64
	}
	err := db.WithContext(ctx).
		Model(&model.LicenseUsageLog{}).
		Select("details, COUNT(*) AS count").
		Group("details").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count usage by details: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Details] = r.Count
	}
	return counts, nil
}
