package service

import (
	"context"
	"errors"
	"fmt"

	"license-key-server/internal/database"
	"license-key-server/internal/logger"
	"license-key-server/internal/metrics"
	"license-key-server/internal/model"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// LicenseSink receives every newly generated license after commit.
type LicenseSink interface {
	SyncLicense(ctx context.Context, license model.LicenseResponse) error
}

type LicenseService struct {
	db             *database.DB
	defaultIPLimit int
	sink           LicenseSink
	log            *zap.Logger
}

func NewLicenseService(db *database.DB, defaultIPLimit int, sink LicenseSink, log *zap.Logger) *LicenseService {
	if log == nil {
		log = zap.NewNop()
	}
	return &LicenseService{db: db, defaultIPLimit: defaultIPLimit, sink: sink, log: log}
}

// NewLicenseKey returns a random UUIDv4 string.
func NewLicenseKey() string {
	return uuid.NewString()
}

// Generate creates a license for an existing active system. A key collision
// is reported as ErrConflict rather than retried.
func (s *LicenseService) Generate(ctx context.Context, actorID uint, input model.LicenseInput) (*model.LicenseResponse, error) {
	limit := s.defaultIPLimit
	if input.IPLimit != nil {
		limit = *input.IPLimit
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: ip_limit must not be negative", ErrInvalidInput)
	}

	var resp model.LicenseResponse
	err := s.db.Transaction(ctx, func(tx *database.DB) error {
		system, err := tx.FindActiveSystem(ctx, input.ActiveSystemID)
		if err != nil {
			return err
		}

		license := &model.License{
			LicenseKey:     NewLicenseKey(),
			ActiveSystemID: &system.ID,
			IPLimit:        limit,
		}
		if err := tx.CreateLicense(ctx, license); err != nil {
			return err
		}

		resp = model.LicenseResponse{
			LicenseKey:   license.LicenseKey,
			ActiveSystem: system.SystemName,
			IPLimit:      license.IPLimit,
		}
		return logOperation(ctx, tx, actorID, model.ActionLicenseCreate, "license", license.LicenseKey, resp)
	})
	switch {
	case errors.Is(err, database.ErrNotFound):
		return nil, fmt.Errorf("%w: active system %d", ErrNotFound, input.ActiveSystemID)
	case errors.Is(err, database.ErrConflict):
		return nil, fmt.Errorf("%w: license key collision", ErrConflict)
	case err != nil:
		return nil, err
	}

	metrics.LicensesGeneratedTotal.Inc()
	if s.sink != nil {
		go s.syncLicense(logger.ContextWithRequestID(context.Background(), logger.RequestIDFromContext(ctx)), resp)
	}
	return &resp, nil
}

func (s *LicenseService) syncLicense(ctx context.Context, resp model.LicenseResponse) {
	if err := s.sink.SyncLicense(ctx, resp); err != nil {
		logger.WithContext(ctx, s.log).Warn("license sheet sync failed", zap.Error(err))
	}
}

func toListItem(l model.License) model.LicenseListItem {
	item := model.LicenseListItem{
		LicenseKey: l.LicenseKey,
		IPLimit:    l.IPLimit,
		CreateAt:   l.CreateAt,
	}
	if name := l.SystemName(); name != "" {
		item.ActiveSystem = lo.ToPtr(name)
	}
	return item
}

func (s *LicenseService) List(ctx context.Context) ([]model.LicenseListItem, error) {
	licenses, err := s.db.ListLicenses(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Map(licenses, func(l model.License, _ int) model.LicenseListItem {
		return toListItem(l)
	}), nil
}

// Get returns a license with its current seen-IP set.
func (s *LicenseService) Get(ctx context.Context, key string) (*model.LicenseDetail, error) {
	license, err := s.db.FindLicense(ctx, key)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: license", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	seen, err := s.db.DistinctIPs(ctx, key)
	if err != nil {
		return nil, err
	}
	return &model.LicenseDetail{
		LicenseListItem: toListItem(*license),
		SeenIPs:         seen,
		UsedIPs:         len(seen),
	}, nil
}

// Usage pages through the check-in log of key. Logs of purged licenses stay readable.
func (s *LicenseService) Usage(ctx context.Context, key string, page, pageSize int) ([]model.LicenseUsageLog, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	return s.db.ListUsage(ctx, key, page, pageSize)
}

// Purge deletes a license row; its usage log is kept.
func (s *LicenseService) Purge(ctx context.Context, actorID uint, key string) error {
	err := s.db.Transaction(ctx, func(tx *database.DB) error {
		if err := tx.DeleteLicense(ctx, key); err != nil {
			return err
		}
		return logOperation(ctx, tx, actorID, model.ActionLicensePurge, "license", key, nil)
	})
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("%w: license", ErrNotFound)
	}
	return err
}

func (s *LicenseService) Statistics(ctx context.Context) (*model.LicenseStatistics, error) {
	stats := &model.LicenseStatistics{}
	var err error

	if stats.TotalSystems, err = s.db.CountActiveSystems(ctx); err != nil {
		return nil, err
	}
	if stats.TotalLicenses, err = s.db.CountLicenses(ctx); err != nil {
		return nil, err
	}
	if stats.LicensesAtQuota, err = s.db.CountLicensesAtQuota(ctx); err != nil {
		return nil, err
	}

	counts, err := s.db.CountUsageByDetails(ctx)
	if err != nil {
		return nil, err
	}
	stats.ValidChecks = counts[model.UsageValid]
	stats.NotFoundChecks = counts[model.UsageNotFound]
	stats.QuotaRejectedChecks = counts[model.UsageQuotaExceeded]
	for _, n := range counts {
		stats.TotalChecks += n
	}
	return stats, nil
}
