package database

import (
	"context"
	"fmt"

	"license-key-server/internal/model"
)

func (db *DB) CreateActiveSystem(ctx context.Context, system *model.ActiveSystem) error {
	if err := db.WithContext(ctx).Create(system).Error; err != nil {
		return fmt.Errorf("create active system: %w", translate(err))
	}
	return nil
}

func (db *DB) FindActiveSystem(ctx context.Context, id uint) (*model.ActiveSystem, error) {
	var system model.ActiveSystem
	if err := db.WithContext(ctx).First(&system, id).Error; err != nil {
		return nil, fmt.Errorf("find active system %d: %w", id, translate(err))
	}
	return &system, nil
}

func (db *DB) FindActiveSystemByName(ctx context.Context, name string) (*model.ActiveSystem, error) {
	var system model.ActiveSystem
	if err := db.WithContext(ctx).Where("system_name = ?", name).First(&system).Error; err != nil {
		return nil, fmt.Errorf("find active system %q: %w", name, translate(err))
	}
	return &system, nil
}

func (db *DB) ListActiveSystems(ctx context.Context) ([]model.ActiveSystem, error) {
	var systems []model.ActiveSystem
	if err := db.WithContext(ctx).Order("id").Find(&systems).Error; err != nil {
		return nil, fmt.Errorf("list active systems: %w", err)
	}
	return systems, nil
}

func (db *DB) CountActiveSystems(ctx context.Context) (int64, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&model.ActiveSystem{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count active systems: %w", err)
	}
	return count, nil
}
