package model

import (
	"time"
)

// School is a registered school entry owned by exactly one user.
type School struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     uint      `json:"user_id" gorm:"index;not null"`
	SchoolName string    `json:"school_name" gorm:"type:varchar(255);not null"`
	Location   string    `json:"location,omitempty" gorm:"type:varchar(255)"`
	Notes      string    `json:"notes,omitempty" gorm:"type:text"`
	AddedAt    time.Time `json:"added_at" gorm:"autoCreateTime"`

	User User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
