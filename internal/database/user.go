package database

import (
	"context"
	"fmt"
	"time"

	"license-key-server/internal/model"

	"gorm.io/gorm"
)

func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	if err := db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", translate(err))
	}
	return nil
}

func (db *DB) FindUser(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, fmt.Errorf("find user %d: %w", id, translate(err))
	}
	return &user, nil
}

func (db *DB) FindUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, fmt.Errorf("find user %q: %w", username, translate(err))
	}
	return &user, nil
}

func (db *DB) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	err := db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("last_login", at).Error
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

func (db *DB) RecordLogin(ctx context.Context, entry *model.LoginLog) error {
	if err := db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	return nil
}

func (db *DB) ListLoginLogs(ctx context.Context, userID uint, page, pageSize int) ([]model.LoginLog, int64, error) {
	var logs []model.LoginLog
	var total int64

	q := db.WithContext(ctx).Model(&model.LoginLog{}).Where("user_id = ?", userID).Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count login logs: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := q.Order("created_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("list login logs: %w", err)
	}
	return logs, total, nil
}
