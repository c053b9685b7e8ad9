package model

import "time"

// OperationLog audits administrative mutations.
type OperationLog struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index"`
	Action    string    `json:"action"`
	Target    string    `json:"target"`
	TargetID  string    `json:"target_id"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	ActionSystemRegister = "system.register"
	ActionLicenseCreate  = "license.generate"
	ActionLicensePurge   = "license.purge"
	ActionUserCreate     = "user.register"
)
