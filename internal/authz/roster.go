package authz

import (
	"gorm.io/gorm"

	"shutsugan-server/internal/model"
)

// DBRoster checks roster membership against the teacher_students table.
type DBRoster struct {
	DB *gorm.DB
}

func (r DBRoster) OnRoster(teacherID, studentID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.TeacherStudent{}).
		Where("teacher_id = ? AND student_id = ?", teacherID, studentID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
