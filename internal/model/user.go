package model

import (
	"time"
)

const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"

	StatusActive   = "active"
	StatusDisabled = "disabled"
)

type User struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	Username  string     `json:"username" gorm:"uniqueIndex;not null"`
	Password  string     `json:"-" gorm:"not null"`
	Role      string     `json:"role" gorm:"default:'admin'"`
	Status    string     `json:"status" gorm:"default:'active'"`
	CreatedAt time.Time  `json:"createdat"`
	UpdatedAt time.Time  `json:"updatedat"`
	LastLogin *time.Time `json:"lastlogin"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin && u.Status == StatusActive
}
