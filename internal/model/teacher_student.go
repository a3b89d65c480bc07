package model

import (
	"time"
)

// TeacherStudent links a teacher to a student on their roster.
type TeacherStudent struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TeacherID uint      `json:"teacher_id" gorm:"uniqueIndex:idx_teacher_student;index;not null"`
	StudentID uint      `json:"student_id" gorm:"uniqueIndex:idx_teacher_student;index;not null"`
	CreatedAt time.Time `json:"created_at"`

	Teacher User `json:"-" gorm:"foreignKey:TeacherID;constraint:OnDelete:CASCADE"`
	Student User `json:"-" gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE"`
}
