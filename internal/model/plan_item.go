package model

import (
	"time"

	"gorm.io/datatypes"
)

// PlanItem is one school/department entry in a student's application plan.
// The payload is opaque to the server; insertion order is the application priority.
type PlanItem struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"index;not null"`
	Payload   datatypes.JSON `json:"payload" gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `json:"created_at"`

	User User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
