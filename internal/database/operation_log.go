package database

import (
	"context"
	"fmt"

	"license-key-server/internal/model"
)

func (db *DB) RecordOperation(ctx context.Context, entry *model.OperationLog) error {
	if err := db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("record operation: %w", err)
	}
	return nil
}

func (db *DB) ListOperations(ctx context.Context, page, pageSize int) ([]model.OperationLog, int64, error) {
	var logs []model.OperationLog
	var total int64

	if err := db.WithContext(ctx).Model(&model.OperationLog{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count operations: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := db.WithContext(ctx).Order("created_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("list operations: %w", err)
	}
	return logs, total, nil
}
