package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"shutsugan-server/internal/middleware"
	"shutsugan-server/internal/model"
	"shutsugan-server/pkg/database"
	"shutsugan-server/pkg/logger"
)

// ListMyReminders returns reminders addressed to the caller, newest first
func ListMyReminders(c echo.Context) error {
	log := logger.FromContext(c)
	claims, _ := middleware.Claims(c)

	var rows []struct {
		ID          uint       `json:"id"`
		Message     string     `json:"message"`
		PlanItemID  *uint      `json:"plan_item_id,omitempty"`
		CreatedAt   time.Time  `json:"created_at"`
		ReadAt      *time.Time `json:"read_at,omitempty"`
		TeacherName string     `json:"teacher_name"`
	}
	err := database.GetDB().Model(&model.Reminder{}).
		Select("reminders.id, reminders.message, reminders.plan_item_id, reminders.created_at, reminders.read_at, users.username AS teacher_name").
		Joins("JOIN users ON users.id = reminders.teacher_id").
		Where("reminders.student_id = ?", claims.UserID).
		Order("reminders.created_at DESC").
		Limit(50).
		Scan(&rows).Error
	if err != nil {
		log.Error("Failed to list reminders", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"list": rows})
}

// MarkReminderRead lets the receiving student mark a reminder read.
// read_at is set once and never moves afterwards.
func MarkReminderRead(c echo.Context) error {
	log := logger.FromContext(c)
	claims, _ := middleware.Claims(c)

	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	result := database.GetDB().Model(&model.Reminder{}).
		Where("id = ? AND student_id = ? AND read_at IS NULL", id, claims.UserID).
		Update("read_at", time.Now())
	if result.Error != nil {
		log.Error("Failed to mark reminder read", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "server error"})
	}
	if result.RowsAffected == 0 {
		// Either the reminder is not addressed to the caller or it was
		// already read; re-check so the second case stays a success.
		var count int64
		database.GetDB().Model(&model.Reminder{}).
			Where("id = ? AND student_id = ?", id, claims.UserID).
			Count(&count)
		if count == 0 {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "reminder not found"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "read"})
}
