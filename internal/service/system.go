package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"license-key-server/internal/database"
	"license-key-server/internal/model"
)

type SystemService struct {
	db *database.DB
}

func NewSystemService(db *database.DB) *SystemService {
	return &SystemService{db: db}
}

// Register creates an active system. Names are unique after trimming.
func (s *SystemService) Register(ctx context.Context, actorID uint, input model.ActiveSystemInput) (*model.ActiveSystem, error) {
	name := strings.TrimSpace(input.SystemName)
	if name == "" {
		return nil, fmt.Errorf("%w: system_name is required", ErrInvalidInput)
	}

	system := &model.ActiveSystem{SystemName: name}
	err := s.db.Transaction(ctx, func(tx *database.DB) error {
		_, err := tx.FindActiveSystemByName(ctx, name)
		if err == nil {
			return database.ErrConflict
		}
		if !errors.Is(err, database.ErrNotFound) {
			return err
		}

		if err := tx.CreateActiveSystem(ctx, system); err != nil {
			return err
		}
		return logOperation(ctx, tx, actorID, model.ActionSystemRegister, "active_system",
			strconv.FormatUint(uint64(system.ID), 10), input)
	})
	if errors.Is(err, database.ErrConflict) {
		return nil, fmt.Errorf("%w: active system %q is already registered", ErrConflict, name)
	}
	if err != nil {
		return nil, err
	}
	return system, nil
}

func (s *SystemService) List(ctx context.Context) ([]model.ActiveSystem, error) {
	return s.db.ListActiveSystems(ctx)
}
