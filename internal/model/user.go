package model

import (
	"time"
)

// User represents an account: students (role "user"), teachers and administrators.
// Accounts are never hard-deleted; status moves to "deleted" instead.
type User struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Username    string     `json:"username" gorm:"type:varchar(100);uniqueIndex;not null"`
	Email       string     `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Password    string     `json:"-" gorm:"type:varchar(255);not null"`
	Role        string     `json:"role" gorm:"type:varchar(20);default:'user'"`
	Status      string     `json:"status" gorm:"type:varchar(20);default:'active'"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	LoginCount  int        `json:"login_count" gorm:"default:0"`
}
