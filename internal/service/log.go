package service

import (
	"context"
	"encoding/json"
	"fmt"

	"license-key-server/internal/database"
	"license-key-server/internal/model"
)

// logOperation writes an audit row on db, which is normally the transaction
// that performed the operation.
func logOperation(ctx context.Context, db *database.DB, userID uint, action, target, targetID string, details interface{}) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal operation details: %w", err)
	}

	return db.RecordOperation(ctx, &model.OperationLog{
		UserID:   userID,
		Action:   action,
		Target:   target,
		TargetID: targetID,
		Details:  string(detailsJSON),
	})
}

type OperationLogService struct {
	db *database.DB
}

func NewOperationLogService(db *database.DB) *OperationLogService {
	return &OperationLogService{db: db}
}

// List returns one page of operation logs, newest first.
func (s *OperationLogService) List(ctx context.Context, page, pageSize int) ([]model.OperationLog, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	return s.db.ListOperations(ctx, page, pageSize)
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
