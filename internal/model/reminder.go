package model

import (
	"time"
)

// Reminder is a message from a teacher to a student, optionally tied to one
// plan item. Only the receiving student mutates it, by marking it read.
type Reminder struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	TeacherID  uint       `json:"teacher_id" gorm:"index;not null"`
	StudentID  uint       `json:"student_id" gorm:"index;not null"`
	Message    string     `json:"message" gorm:"type:text;not null"`
	PlanItemID *uint      `json:"plan_item_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	ReadAt     *time.Time `json:"read_at,omitempty"`

	Teacher  User      `json:"-" gorm:"foreignKey:TeacherID;constraint:OnDelete:CASCADE"`
	Student  User      `json:"-" gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE"`
	PlanItem *PlanItem `json:"-" gorm:"foreignKey:PlanItemID;constraint:OnDelete:SET NULL"`
}
