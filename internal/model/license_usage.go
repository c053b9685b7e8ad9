package model

import "time"

// Outcome details written to LicenseUsageLog.Details.
const (
	UsageValid         = "valid"
	UsageNotFound      = "not found"
	UsageQuotaExceeded = "IP quota exceeded"
)

// LicenseUsageLog records one check-in. LicenseKey is a plain copy of the key
// without a foreign key so the log outlives purged licenses.
type LicenseUsageLog struct {
	ID             uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	LicenseKey     string    `json:"license_key" gorm:"index;not null"`
	ActiveSystemID *uint     `json:"active_system_id"`
	UsedAt         time.Time `json:"used_at" gorm:"index"`
	IPAddress      *string   `json:"ip_address" gorm:"index"`
	Details        string    `json:"details"`
}

func (LicenseUsageLog) TableName() string { return "license_usage_log" }
