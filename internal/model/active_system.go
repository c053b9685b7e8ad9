package model

import "time"

// ActiveSystem is a registered client deployment that owns licenses.
type ActiveSystem struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	SystemName string    `json:"system_name" gorm:"uniqueIndex;not null"`
	CreatedAt  time.Time `json:"created_at"`
}

func (ActiveSystem) TableName() string { return "active_system" }
