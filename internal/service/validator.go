package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"license-key-server/internal/database"
	"license-key-server/internal/logger"
	"license-key-server/internal/metrics"
	"license-key-server/internal/model"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

const messageInvalidKey = "invalid key"

// LicenseDirectory resolves license keys. Missing keys return database.ErrNotFound.
type LicenseDirectory interface {
	FindLicense(ctx context.Context, key string) (*model.License, error)
}

// UsageLogStore is the append-only check-in log.
type UsageLogStore interface {
	RecordUsage(ctx context.Context, entry *model.LicenseUsageLog) error
	DistinctIPs(ctx context.Context, key string) ([]string, error)
}

// CheckStore is the storage a check-in needs. Atomic runs fn on a
// transaction-scoped store so the read of the seen-IP set and the log write
// commit together.
type CheckStore interface {
	LicenseDirectory
	UsageLogStore
	Atomic(ctx context.Context, fn func(tx CheckStore) error) error
}

type gormCheckStore struct {
	*database.DB
}

// NewCheckStore adapts the database handle to CheckStore.
func NewCheckStore(db *database.DB) CheckStore {
	return gormCheckStore{db}
}

func (s gormCheckStore) Atomic(ctx context.Context, fn func(tx CheckStore) error) error {
	return s.Transaction(ctx, func(tx *database.DB) error {
		return fn(gormCheckStore{tx})
	})
}

// Validator decides whether a check-in is admitted and records every attempt.
type Validator struct {
	store  CheckStore
	locker KeyLocker
	log    *zap.Logger
}

func NewValidator(store CheckStore, locker KeyLocker, log *zap.Logger) *Validator {
	if locker == nil {
		locker = NewMemoryLocker()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Validator{store: store, locker: locker, log: log}
}

// Check validates key for a caller at sourceIP ("" when unknown). Business
// rejections come back as a result with Valid=false; a non-nil error means the
// attempt could not be recorded and nothing should be reported to the caller.
func (v *Validator) Check(ctx context.Context, key, sourceIP string) (model.CheckResult, error) {
	start := time.Now()

	unlock, err := v.locker.Lock(ctx, key)
	if err != nil {
		metrics.ObserveCheck(metrics.OutcomeError, time.Since(start))
		return model.CheckResult{}, fmt.Errorf("lock license: %w", err)
	}
	defer unlock()

	// Store work must end before an expiring lock lapses; past the limit the
	// transaction rolls back.
	if leased, ok := v.locker.(leasedLocker); ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, leased.HoldLimit())
		defer cancel()
	}

	var result model.CheckResult
	var entry *model.LicenseUsageLog
	err = v.store.Atomic(ctx, func(tx CheckStore) error {
		r, e, decideErr := v.decide(ctx, tx, key, sourceIP)
		if decideErr != nil {
			return decideErr
		}
		result, entry = r, e
		return tx.RecordUsage(ctx, entry)
	})
	if err != nil {
		metrics.ObserveCheck(metrics.OutcomeError, time.Since(start))
		return model.CheckResult{}, err
	}

	metrics.ObserveCheck(entry.Details, time.Since(start))
	logger.WithContext(ctx, v.log).Debug("license checked",
		zap.String("outcome", entry.Details),
		zap.String("ip", sourceIP),
		zap.Bool("valid", result.Valid),
	)
	return result, nil
}

func (v *Validator) decide(ctx context.Context, tx CheckStore, key, sourceIP string) (model.CheckResult, *model.LicenseUsageLog, error) {
	entry := &model.LicenseUsageLog{LicenseKey: key}
	if sourceIP != "" {
		entry.IPAddress = &sourceIP
	}

	license, err := tx.FindLicense(ctx, key)
	if errors.Is(err, database.ErrNotFound) {
		entry.Details = model.UsageNotFound
		return model.CheckResult{Valid: false, Message: messageInvalidKey}, entry, nil
	}
	if err != nil {
		return model.CheckResult{}, nil, err
	}
	entry.ActiveSystemID = license.ActiveSystemID

	admitted, err := v.admit(ctx, tx, license, sourceIP)
	if err != nil {
		return model.CheckResult{}, nil, err
	}
	if !admitted {
		entry.Details = model.UsageQuotaExceeded
		return model.CheckResult{
			Valid:   false,
			Message: fmt.Sprintf("quota of %d IPs exceeded", license.IPLimit),
		}, entry, nil
	}

	entry.Details = model.UsageValid
	return model.CheckResult{Valid: true, Message: model.UsageValid}, entry, nil
}

// admit reports whether sourceIP may use license. Unknown and already seen
// addresses are always admitted; a new address only while the seen set is
// smaller than the limit.
func (v *Validator) admit(ctx context.Context, tx CheckStore, license *model.License, sourceIP string) (bool, error) {
	if sourceIP == "" {
		return true, nil
	}

	seen, err := tx.DistinctIPs(ctx, license.LicenseKey)
	if err != nil {
		return false, err
	}
	if lo.Contains(seen, sourceIP) {
		return true, nil
	}
	return len(seen) < license.IPLimit, nil
}
