package model

import "time"

type License struct {
	ID             uint          `json:"-" gorm:"primaryKey"`
	LicenseKey     string        `json:"license_key" gorm:"uniqueIndex;not null"`
	ActiveSystemID *uint         `json:"active_system_id"`
	ActiveSystem   *ActiveSystem `json:"-" gorm:"constraint:OnDelete:SET NULL"`
	IPLimit        int           `json:"ip_limit" gorm:"not null"`
	CreateAt       time.Time     `json:"create_at" gorm:"autoCreateTime"`
}

func (License) TableName() string { return "license_key" }

// SystemName returns the owning system name, or "" for unowned licenses.
func (l *License) SystemName() string {
	if l.ActiveSystem == nil {
		return ""
	}
	return l.ActiveSystem.SystemName
}
